// Package main provides the snappy CLI: it scans feed pages for posts that
// link to trusted domains and resolves their metadata.
package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/jonathan/snappy-feed/internal/config"
	"github.com/jonathan/snappy-feed/internal/fetch"
	"github.com/jonathan/snappy-feed/internal/logging"
)

var rootCmd = &cobra.Command{
	Use:           "snappy",
	Short:         "Find feed posts that link to trusted Snappy domains",
	Long:          "Snappy watches a feed document for posts linking to domains on the trusted registry and resolves the metadata those links point at.",
	SilenceUsage:  true,
	SilenceErrors: true,
}

var (
	configPath  string
	debug       bool
	registryURL string
	metadataURL string
)

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Path to a JSON config file")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "Enable debug logging")
	rootCmd.PersistentFlags().StringVar(&registryURL, "registry-url", "", "Trusted-domain registry URL (overrides SNAPPY_REGISTRY_URL)")
	rootCmd.PersistentFlags().StringVar(&metadataURL, "metadata-url", "", "Metadata base URL (overrides SNAPPY_METADATA_URL)")
}

func main() {
	// Load .env file if it exists
	_ = godotenv.Load()

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// loadConfig layers the config file, SNAPPY_* variables and flags, in that
// order, over the defaults.
func loadConfig() (config.Config, error) {
	cfg := config.Config{}
	if configPath != "" {
		loaded, err := config.LoadConfig(configPath)
		if err != nil {
			return config.Config{}, err
		}
		cfg = *loaded
	}
	if err := cfg.ApplyEnv(os.LookupEnv); err != nil {
		return config.Config{}, err
	}
	if registryURL != "" {
		cfg.RegistryURL = registryURL
	}
	if metadataURL != "" {
		cfg.MetadataURL = metadataURL
	}
	if debug {
		cfg.Debug = true
	}

	cfg = cfg.MergeWithDefaults(config.Default())
	if err := cfg.Validate(); err != nil {
		return config.Config{}, err
	}
	return cfg, nil
}

func newLogger(cfg config.Config) *zap.Logger {
	return logging.Must(cfg.Debug)
}

func newHTTPClient(cfg config.Config, logger *zap.Logger) *fetch.Client {
	return fetch.NewClient(&fetch.Options{
		RetryAttempts: cfg.RetryAttempts,
		RetryDelay:    cfg.RetryDelay(),
	}, logger)
}
