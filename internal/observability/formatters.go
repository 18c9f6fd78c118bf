// Package observability provides human-readable summaries of scan output for
// the CLI's text format.
package observability

import (
	"fmt"
	"io"
	"strings"

	"github.com/jonathan/snappy-feed/internal/types"
)

const (
	// boxWidth is the default width for formatted output boxes
	boxWidth = 60
	// maxItemsToShow is the default number of items to display in lists
	maxItemsToShow = 5
)

// ScanSummary is what a scan reports once its passes have settled.
type ScanSummary struct {
	Domains  []string
	Matches  []*types.TweetMatch
	Metadata map[string]*types.Metadata // keyed by match ID
	Passes   int
}

// Printer handles formatted output for text mode
type Printer struct {
	out io.Writer
}

// NewPrinter creates a new Printer that writes to the given writer
func NewPrinter(out io.Writer) *Printer {
	return &Printer{out: out}
}

// printBox prints a formatted box with a title and content
//
//nolint:errcheck // writing to stdout; errors are not recoverable
func (p *Printer) printBox(title string, content string) {
	border := strings.Repeat("─", boxWidth-2)
	fmt.Fprintf(p.out, "┌%s┐\n", border)
	fmt.Fprintf(p.out, "│ %-*s │\n", boxWidth-4, title)
	fmt.Fprintf(p.out, "├%s┤\n", border)

	for _, line := range strings.Split(content, "\n") {
		fmt.Fprintf(p.out, "│ %-*s │\n", boxWidth-4, truncate(line, boxWidth-4))
	}

	fmt.Fprintf(p.out, "└%s┘\n", border)
}

// PrintDomains outputs the trusted-domain list in effect.
func (p *Printer) PrintDomains(domains []string) {
	var sb strings.Builder
	if len(domains) == 0 {
		sb.WriteString("(none)")
	}
	for i, d := range domains {
		sb.WriteString(fmt.Sprintf("  • %s", d))
		if i < len(domains)-1 {
			sb.WriteString("\n")
		}
	}
	p.printBox(fmt.Sprintf("TRUSTED DOMAINS (%d)", len(domains)), sb.String())
}

// PrintMatches outputs the first matched posts with their links.
func (p *Printer) PrintMatches(matches []*types.TweetMatch, metadata map[string]*types.Metadata) {
	if len(matches) == 0 {
		p.printBox("MATCHED POSTS", "No posts link to a trusted domain.")
		return
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Matched %d posts:\n\n", len(matches)))

	count := min(len(matches), maxItemsToShow)
	for i := 0; i < count; i++ {
		m := matches[i]
		sb.WriteString(fmt.Sprintf("#%d  %s\n", i+1, m.MatchedDomain))
		sb.WriteString(fmt.Sprintf("    %s\n", truncate(oneLine(m.TweetText), 50)))
		if m.URL != "" {
			sb.WriteString(fmt.Sprintf("    → %s\n", m.URL))
		}
		if md := metadata[m.ID.String()]; md != nil && md.Name != "" {
			sb.WriteString(fmt.Sprintf("    [%s]\n", md.Name))
		}
		if i < count-1 {
			sb.WriteString("\n")
		}
	}

	if len(matches) > maxItemsToShow {
		sb.WriteString(fmt.Sprintf("\n... and %d more posts", len(matches)-maxItemsToShow))
	}

	p.printBox("MATCHED POSTS", strings.TrimSuffix(sb.String(), "\n"))
}

// PrintSummary outputs domains, then matches, then a one-line tally.
//
//nolint:errcheck // writing to stdout; errors are not recoverable
func (p *Printer) PrintSummary(s ScanSummary) {
	p.PrintDomains(s.Domains)
	p.PrintMatches(s.Matches, s.Metadata)
	fmt.Fprintf(p.out, "%d matches across %d processing passes\n", len(s.Matches), s.Passes)
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-3]) + "..."
}

func oneLine(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
