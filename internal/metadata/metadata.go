// Package metadata resolves post identifiers to registry metadata records.
package metadata

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"regexp"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/jonathan/snappy-feed/internal/logging"
	"github.com/jonathan/snappy-feed/internal/schemas"
	"github.com/jonathan/snappy-feed/internal/types"
)

// DefaultBaseURL is where per-identifier records are published.
const DefaultBaseURL = "https://raw.githubusercontent.com/23stud-io/snappy-registry/refs/heads/main"

// ErrEmptyID is returned by GetMetadataByID for an empty identifier.
var ErrEmptyID = errors.New("metadata: empty identifier")

var urlPattern = regexp.MustCompile(`https?://\S+`)

// JSONGetter fetches and decodes a JSON document with the caller's retry policy.
type JSONGetter interface {
	GetJSON(ctx context.Context, url string, out any) error
}

// Service looks up metadata records by identifier.
type Service struct {
	baseURL string
	client  JSONGetter
	logger  *zap.Logger
	group   singleflight.Group
}

// New creates a service reading records below baseURL.
func New(baseURL string, client JSONGetter, logger *zap.Logger) *Service {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Service{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  client,
		logger:  logging.Component(logger, "metadata"),
	}
}

// MetadataURL returns the location of the record for id.
func (s *Service) MetadataURL(id string) string {
	return fmt.Sprintf("%s/%s.json", s.baseURL, url.PathEscape(id))
}

// ExtractIDFromText returns the last non-empty path segment of the first
// URL in text that parses and has one. URLs that fail to parse are skipped.
func (s *Service) ExtractIDFromText(text string) (string, bool) {
	for _, raw := range urlPattern.FindAllString(text, -1) {
		u, err := url.Parse(raw)
		if err != nil || u.Host == "" {
			s.logger.Debug("skipping unparseable URL", zap.String("url", raw), zap.Error(err))
			continue
		}
		if seg := lastSegment(u.EscapedPath()); seg != "" {
			return seg, true
		}
	}
	return "", false
}

// IsActionURL reports whether raw carries a path beyond "/", i.e. whether it
// can identify a record. Scheme-less input is read as https.
func IsActionURL(raw string) bool {
	if !strings.HasPrefix(raw, "http") {
		raw = "https://" + raw
	}
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return false
	}
	return len(u.EscapedPath()) > 1
}

// GetMetadataByID fetches <base>/<id>.json. Concurrent lookups of the same
// id share one request. Client failures are returned unchanged; a record
// whose known fields have the wrong JSON types fails schema validation.
func (s *Service) GetMetadataByID(ctx context.Context, id string) (*types.Metadata, error) {
	if id == "" {
		return nil, ErrEmptyID
	}

	v, err, shared := s.group.Do(id, func() (interface{}, error) {
		var raw json.RawMessage
		if err := s.client.GetJSON(ctx, s.MetadataURL(id), &raw); err != nil {
			return nil, err
		}
		if err := schemas.Validate(schemas.Metadata, raw); err != nil {
			return nil, fmt.Errorf("metadata record %s: %w", id, err)
		}
		var m types.Metadata
		if err := json.Unmarshal(raw, &m); err != nil {
			return nil, fmt.Errorf("metadata record %s: %w", id, err)
		}
		return &m, nil
	})
	if err != nil {
		s.logger.Error("error fetching metadata", zap.String("id", id), zap.Error(err))
		return nil, err
	}

	m := v.(*types.Metadata)
	if shared {
		m = m.Clone()
	}
	s.logger.Debug("fetched metadata", zap.String("id", id), zap.String("name", m.Name))
	return m, nil
}

func lastSegment(p string) string {
	parts := strings.Split(p, "/")
	for i := len(parts) - 1; i >= 0; i-- {
		if parts[i] != "" {
			return parts[i]
		}
	}
	return ""
}
