// Package types holds the records exchanged between the feed watcher components and the host application.
package types

import (
	"bytes"
	"encoding/json"

	"github.com/google/uuid"
	"golang.org/x/net/html"
)

// MatchResult is the outcome of scanning one post for trusted-domain links.
type MatchResult struct {
	Found         bool   `json:"found"`
	MatchedDomain string `json:"matched_domain,omitempty"`
	URL           string `json:"url,omitempty"`
}

// TweetMatch is delivered to listeners when a post links to a trusted domain.
type TweetMatch struct {
	ID            uuid.UUID  `json:"id"`
	Element       *html.Node `json:"-"`
	MatchedDomain string     `json:"matched_domain"`
	TweetText     string     `json:"tweet_text"`
	Timestamp     string     `json:"timestamp"` // ISO-8601, UTC, millisecond precision
	URL           string     `json:"url,omitempty"`
}

// Metadata is a registry record resolved from a post identifier.
// Fields beyond the known ones are kept in Extra so records round-trip.
type Metadata struct {
	Contract    string          `json:"contract"`
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Image       string          `json:"image"`
	Website     string          `json:"website"`
	Network     string          `json:"network"`
	ABI         json.RawMessage `json:"abi,omitempty"`

	Extra map[string]json.RawMessage `json:"-"`
}

// TrustedDomainsResponse is the registry document listing trusted domains.
type TrustedDomainsResponse struct {
	TrustedDomains []string `json:"trusted_domains"`
}

var metadataKnownFields = map[string]struct{}{
	"contract": {}, "name": {}, "description": {}, "image": {},
	"website": {}, "network": {}, "abi": {},
}

type metadataAlias Metadata

// UnmarshalJSON decodes the known fields and collects the rest into Extra.
func (m *Metadata) UnmarshalJSON(data []byte) error {
	var alias metadataAlias
	if err := json.Unmarshal(data, &alias); err != nil {
		return err
	}
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	for k, v := range raw {
		if _, known := metadataKnownFields[k]; known {
			continue
		}
		if alias.Extra == nil {
			alias.Extra = make(map[string]json.RawMessage)
		}
		alias.Extra[k] = v
	}
	*m = Metadata(alias)
	return nil
}

// Clone returns a copy that shares no memory with m.
func (m *Metadata) Clone() *Metadata {
	cp := *m
	cp.ABI = bytes.Clone(m.ABI)
	if m.Extra != nil {
		cp.Extra = make(map[string]json.RawMessage, len(m.Extra))
		for k, v := range m.Extra {
			cp.Extra[k] = bytes.Clone(v)
		}
	}
	return &cp
}

// MarshalJSON writes the known fields followed by any Extra fields.
func (m Metadata) MarshalJSON() ([]byte, error) {
	known, err := json.Marshal(metadataAlias(m))
	if err != nil {
		return nil, err
	}
	if len(m.Extra) == 0 {
		return known, nil
	}
	var merged map[string]json.RawMessage
	if err := json.Unmarshal(known, &merged); err != nil {
		return nil, err
	}
	for k, v := range m.Extra {
		if _, exists := merged[k]; !exists {
			merged[k] = v
		}
	}
	return json.Marshal(merged)
}
