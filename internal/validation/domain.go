// Package validation provides syntactic checks for trusted-domain strings.
package validation

import (
	"regexp"
	"strings"
)

// domainPattern matches label(.label)+ where every label is 1-63 characters of
// letters, digits or hyphens that neither starts nor ends with a hyphen, and
// the final label is an alphabetic TLD of at least two characters.
var domainPattern = regexp.MustCompile(
	`(?i)^[a-z0-9](?:[a-z0-9-]{0,61}[a-z0-9])?(?:\.[a-z0-9](?:[a-z0-9-]{0,61}[a-z0-9])?)*\.[a-z]{2,63}$`,
)

// SanitizeDomain lowercases and trims a domain string.
// SanitizeDomain(SanitizeDomain(s)) == SanitizeDomain(s) for every s.
func SanitizeDomain(domain string) string {
	return strings.ToLower(strings.TrimSpace(domain))
}

// IsValidDomain reports whether domain is a syntactically valid host name.
// Empty input is always invalid.
func IsValidDomain(domain string) bool {
	if domain == "" {
		return false
	}
	return domainPattern.MatchString(domain)
}

// SanitizeDomains sanitizes every entry and keeps only the valid ones,
// preserving source order. It never fails; an entirely invalid input yields
// an empty, non-nil slice.
func SanitizeDomains(domains []string) []string {
	valid := make([]string, 0, len(domains))
	for _, d := range domains {
		d = SanitizeDomain(d)
		if IsValidDomain(d) {
			valid = append(valid, d)
		}
	}
	return valid
}
