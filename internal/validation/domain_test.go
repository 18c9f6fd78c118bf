package validation

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsValidDomain(t *testing.T) {
	tests := []struct {
		name   string
		domain string
		want   bool
	}{
		{"simple", "trusted.io", true},
		{"subdomain", "snappy-frontend.vercel.app", true},
		{"single char label", "a.co", true},
		{"digits in labels", "web3.example42.com", true},
		{"uppercase accepted", "Snappy-Frontend.Vercel.App", true},
		{"max label length", strings.Repeat("a", 63) + ".com", true},
		{"empty", "", false},
		{"no dot", "localhost", false},
		{"label too long", strings.Repeat("a", 64) + ".com", false},
		{"leading hyphen", "-bad.com", false},
		{"trailing hyphen", "bad-.com", false},
		{"inner label trailing hyphen", "ok.bad-.com", false},
		{"numeric tld", "example.123", false},
		{"one letter tld", "example.c", false},
		{"empty label", "example..com", false},
		{"trailing dot", "example.com.", false},
		{"underscore", "my_site.com", false},
		{"scheme", "https://example.com", false},
		{"path", "example.com/x", false},
		{"space", "exa mple.com", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsValidDomain(tt.domain))
		})
	}
}

func TestSanitizeDomain(t *testing.T) {
	assert.Equal(t, "snappy-frontend.vercel.app", SanitizeDomain("  Snappy-frontend.vercel.app \n"))
	assert.Equal(t, "", SanitizeDomain("   "))
}

func TestSanitizeDomain_Idempotent(t *testing.T) {
	inputs := []string{"", "  A.B.COM ", "\tTrusted.IO", "already.clean", " mixed Case .com "}
	for _, in := range inputs {
		once := SanitizeDomain(in)
		assert.Equal(t, once, SanitizeDomain(once), "input %q", in)
	}
}

func TestSanitizeDomains_PreservesOrderAndFilters(t *testing.T) {
	got := SanitizeDomains([]string{" Trusted.io", "not a domain", "b.example.com", "", "-x.com", "A.dev"})
	assert.Equal(t, []string{"trusted.io", "b.example.com", "a.dev"}, got)
}

func TestSanitizeDomains_AllInvalid(t *testing.T) {
	got := SanitizeDomains([]string{"", "nope", "-.com"})
	assert.NotNil(t, got)
	assert.Empty(t, got)

	assert.Empty(t, SanitizeDomains(nil))
}
