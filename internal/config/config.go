// Package config provides configuration loading and validation for the SDK
// and its CLI.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/jonathan/snappy-feed/internal/feed"
)

// Default values applied by MergeWithDefaults.
const (
	DefaultRegistryURL   = "https://raw.githubusercontent.com/23stud-io/Snappy-registry/refs/heads/main/trusted_domains.json"
	DefaultMetadataURL   = "https://raw.githubusercontent.com/23stud-io/snappy-registry/refs/heads/main"
	DefaultRetryAttempts = 3
	DefaultRetryDelayMS  = 1000
)

// IntakePolicy selects how discovered posts reach the matcher.
type IntakePolicy string

const (
	// IntakeQueued coalesces discoveries into deferred full-document passes.
	IntakeQueued IntakePolicy = "queued"
	// IntakeDirect matches each discovered post immediately.
	IntakeDirect IntakePolicy = "direct"
)

// DefaultDomains returns the built-in fallback trusted domains.
func DefaultDomains() []string {
	return []string{"Snappy-frontend.vercel.app"}
}

// Config is the SDK configuration. Every field is optional; missing values
// are filled by MergeWithDefaults.
type Config struct {
	RegistryURL       string         `json:"registry_url,omitempty" validate:"omitempty,url"`               // Trusted-domain list location
	MetadataURL       string         `json:"metadata_url,omitempty" validate:"omitempty,url"`               // Base URL of <id>.json records
	DefaultDomains    []string       `json:"default_domains,omitempty"`                                     // Fallback when the registry is unreachable
	Debug             bool           `json:"debug,omitempty"`                                               // Gates all logging
	RetryAttempts     int            `json:"retry_attempts,omitempty" validate:"gte=0,lte=20"`              // Attempts per HTTP call
	RetryDelayMS      *int           `json:"retry_delay_ms,omitempty" validate:"omitempty,gte=0,lte=60000"` // Fixed pause between attempts; nil means default
	Intake            IntakePolicy   `json:"intake,omitempty" validate:"omitempty,oneof=queued direct"`     // Post intake policy
	RefreshIntervalMS int            `json:"refresh_interval_ms,omitempty" validate:"gte=0"`                // Periodic domain refresh; 0 disables
	Selectors         feed.Selectors `json:"selectors,omitempty"`                                           // Host DOM markers
}

// Default returns a Config with every default applied.
func Default() Config {
	return (&Config{}).MergeWithDefaults(Config{})
}

// LoadConfig loads configuration from a JSON file.
// Returns an error if the file cannot be read or parsed.
func LoadConfig(path string) (*Config, error) {
	if path == "" {
		return nil, fmt.Errorf("config path is empty")
	}

	// Resolve path relative to current directory if not absolute
	if !filepath.IsAbs(path) {
		cwd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("failed to get current directory: %w", err)
		}
		path = filepath.Join(cwd, path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config JSON: %w", err)
	}

	return &cfg, nil
}

// ApplyEnv overrides fields from SNAPPY_* environment variables using
// lookup (os.LookupEnv in production).
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) error {
	if v, ok := lookup("SNAPPY_REGISTRY_URL"); ok && v != "" {
		c.RegistryURL = v
	}
	if v, ok := lookup("SNAPPY_METADATA_URL"); ok && v != "" {
		c.MetadataURL = v
	}
	if v, ok := lookup("SNAPPY_DEFAULT_DOMAINS"); ok && v != "" {
		c.DefaultDomains = strings.Split(v, ",")
	}
	if v, ok := lookup("SNAPPY_DEBUG"); ok && v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("config error: SNAPPY_DEBUG: %w", err)
		}
		c.Debug = b
	}
	if v, ok := lookup("SNAPPY_RETRY_ATTEMPTS"); ok && v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("config error: SNAPPY_RETRY_ATTEMPTS: %w", err)
		}
		c.RetryAttempts = n
	}
	if v, ok := lookup("SNAPPY_RETRY_DELAY_MS"); ok && v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("config error: SNAPPY_RETRY_DELAY_MS: %w", err)
		}
		c.RetryDelayMS = &n
	}
	if v, ok := lookup("SNAPPY_INTAKE"); ok && v != "" {
		c.Intake = IntakePolicy(v)
	}
	return nil
}

// Validate checks that the configuration has valid values.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("config error: %w", err)
	}
	return nil
}

// MergeWithDefaults returns a new Config with empty fields filled from
// defaults, and then from the built-in defaults.
func (c *Config) MergeWithDefaults(defaults Config) Config {
	result := *c

	if result.RegistryURL == "" {
		result.RegistryURL = firstNonEmpty(defaults.RegistryURL, DefaultRegistryURL)
	}
	if result.MetadataURL == "" {
		result.MetadataURL = firstNonEmpty(defaults.MetadataURL, DefaultMetadataURL)
	}
	if result.DefaultDomains == nil {
		if defaults.DefaultDomains != nil {
			result.DefaultDomains = append([]string(nil), defaults.DefaultDomains...)
		} else {
			result.DefaultDomains = DefaultDomains()
		}
	}
	if result.RetryAttempts == 0 {
		result.RetryAttempts = firstPositive(defaults.RetryAttempts, DefaultRetryAttempts)
	}
	if result.RetryDelayMS == nil {
		delay := DefaultRetryDelayMS
		if defaults.RetryDelayMS != nil {
			delay = *defaults.RetryDelayMS
		}
		result.RetryDelayMS = &delay
	} else {
		delay := *result.RetryDelayMS
		result.RetryDelayMS = &delay
	}
	if result.Intake == "" {
		result.Intake = IntakePolicy(firstNonEmpty(string(defaults.Intake), string(IntakeQueued)))
	}
	if result.RefreshIntervalMS == 0 {
		result.RefreshIntervalMS = defaults.RefreshIntervalMS
	}
	result.Selectors = result.Selectors.WithDefaults()

	// Bool fields: cannot distinguish unset from false, so we don't merge
	// (CLI flags should always win for bools)

	return result
}

// RetryDelay returns RetryDelayMS as a duration. An unset delay yields
// DefaultRetryDelayMS; an explicit zero retries immediately.
func (c *Config) RetryDelay() time.Duration {
	if c.RetryDelayMS == nil {
		return DefaultRetryDelayMS * time.Millisecond
	}
	return time.Duration(*c.RetryDelayMS) * time.Millisecond
}

// RefreshInterval returns RefreshIntervalMS as a duration.
func (c *Config) RefreshInterval() time.Duration {
	return time.Duration(c.RefreshIntervalMS) * time.Millisecond
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

func firstPositive(values ...int) int {
	for _, v := range values {
		if v > 0 {
			return v
		}
	}
	return 0
}
