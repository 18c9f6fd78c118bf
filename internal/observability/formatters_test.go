package observability

import (
	"bytes"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"github.com/jonathan/snappy-feed/internal/types"
)

func match(domain, text, url string) *types.TweetMatch {
	return &types.TweetMatch{ID: uuid.New(), MatchedDomain: domain, TweetText: text, URL: url}
}

func TestPrintDomains(t *testing.T) {
	var buf bytes.Buffer
	NewPrinter(&buf).PrintDomains([]string{"a.com", "b.org"})

	output := buf.String()
	assert.Contains(t, output, "TRUSTED DOMAINS (2)")
	assert.Contains(t, output, "• a.com")
	assert.Contains(t, output, "• b.org")
}

func TestPrintDomains_Empty(t *testing.T) {
	var buf bytes.Buffer
	NewPrinter(&buf).PrintDomains(nil)
	assert.Contains(t, buf.String(), "(none)")
}

func TestPrintMatches(t *testing.T) {
	var buf bytes.Buffer
	m := match("snappy-frontend.vercel.app", "Try\nthis   action", "https://snappy-frontend.vercel.app/abc123")
	meta := map[string]*types.Metadata{m.ID.String(): {Name: "Snappy Action"}}

	NewPrinter(&buf).PrintMatches([]*types.TweetMatch{m}, meta)

	output := buf.String()
	assert.Contains(t, output, "Matched 1 posts")
	assert.Contains(t, output, "#1  snappy-frontend.vercel.app")
	assert.Contains(t, output, "Try this action")
	assert.Contains(t, output, "[Snappy Action]")
}

func TestPrintMatches_Truncates(t *testing.T) {
	var buf bytes.Buffer
	var matches []*types.TweetMatch
	for i := 0; i < 8; i++ {
		matches = append(matches, match("a.com", strings.Repeat("x", 80), ""))
	}

	NewPrinter(&buf).PrintMatches(matches, nil)

	output := buf.String()
	assert.Contains(t, output, "... and 3 more posts")
	assert.Contains(t, output, "#5")
	assert.NotContains(t, output, "#6")
	assert.NotContains(t, output, strings.Repeat("x", 60))
}

func TestPrintMatches_None(t *testing.T) {
	var buf bytes.Buffer
	NewPrinter(&buf).PrintMatches(nil, nil)
	assert.Contains(t, buf.String(), "No posts link to a trusted domain.")
}

func TestPrintSummary(t *testing.T) {
	var buf bytes.Buffer
	NewPrinter(&buf).PrintSummary(ScanSummary{
		Domains: []string{"a.com"},
		Matches: []*types.TweetMatch{match("a.com", "hi", "https://a.com/1")},
		Passes:  2,
	})
	assert.Contains(t, buf.String(), "1 matches across 2 processing passes")
}
