// Package registry resolves the trusted-domain list from the remote registry
// or from the configured defaults.
package registry

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/jonathan/snappy-feed/internal/logging"
	"github.com/jonathan/snappy-feed/internal/schemas"
	"github.com/jonathan/snappy-feed/internal/types"
	"github.com/jonathan/snappy-feed/internal/validation"
)

// Getter fetches a URL with the caller's retry policy.
type Getter interface {
	GetBytes(ctx context.Context, url string) ([]byte, error)
}

// Error reports a registry fetch that could not produce a domain list.
type Error struct {
	URL     string
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("registry error for %s: %s: %v", e.URL, e.Message, e.Cause)
	}
	return fmt.Sprintf("registry error for %s: %s", e.URL, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// Registry fetches trusted domains from a JSON document.
type Registry struct {
	url      string
	defaults []string
	client   Getter
	logger   *zap.Logger
}

// New creates a registry reading url through client.
func New(url string, defaults []string, client Getter, logger *zap.Logger) *Registry {
	d := make([]string, len(defaults))
	copy(d, defaults)
	return &Registry{
		url:      url,
		defaults: d,
		client:   client,
		logger:   logging.Component(logger, "registry"),
	}
}

// FetchDomains downloads the registry document and returns its valid
// domains, sanitized, in source order. Network failures and malformed
// documents are returned to the caller; no defaults are substituted here.
func (r *Registry) FetchDomains(ctx context.Context) ([]string, error) {
	body, err := r.client.GetBytes(ctx, r.url)
	if err != nil {
		r.logger.Error("error fetching domains", zap.Error(err))
		return nil, &Error{URL: r.url, Message: "fetch failed", Cause: err}
	}

	if err := schemas.Validate(schemas.TrustedDomains, body); err != nil {
		r.logger.Error("registry document rejected", zap.Error(err))
		return nil, &Error{URL: r.url, Message: "malformed registry document", Cause: err}
	}

	var doc types.TrustedDomainsResponse
	if err := json.Unmarshal(body, &doc); err != nil {
		return nil, &Error{URL: r.url, Message: "failed to decode registry document", Cause: err}
	}

	domains := validation.SanitizeDomains(doc.TrustedDomains)
	if dropped := len(doc.TrustedDomains) - len(domains); dropped > 0 {
		r.logger.Debug("dropped invalid domains", zap.Int("count", dropped))
	}
	r.logger.Debug("fetched and validated domains", zap.Strings("domains", domains))
	return domains, nil
}

// DefaultDomains returns the configured fallback list, sanitized and
// filtered. It never fails; an all-invalid configuration yields an empty list.
func (r *Registry) DefaultDomains() []string {
	return validation.SanitizeDomains(r.defaults)
}

// IsDomainTrusted reports whether host is a trusted domain or a subdomain of
// one. The remote list is used when reachable, the defaults otherwise.
func (r *Registry) IsDomainTrusted(ctx context.Context, host string) bool {
	domains, err := r.FetchDomains(ctx)
	if err != nil {
		domains = r.DefaultDomains()
	}
	return Contains(domains, host)
}

// Contains reports whether host equals, or is a subdomain of, an entry of
// domains. host is sanitized first; invalid hosts are never trusted.
func Contains(domains []string, host string) bool {
	host = validation.SanitizeDomain(host)
	if !validation.IsValidDomain(host) {
		return false
	}
	for _, d := range domains {
		if host == d || strings.HasSuffix(host, "."+d) {
			return true
		}
	}
	return false
}
