package feed

import (
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/net/html"

	"github.com/jonathan/snappy-feed/internal/dom"
	"github.com/jonathan/snappy-feed/internal/logging"
	"github.com/jonathan/snappy-feed/internal/types"
)

// Parser matches post elements against a trusted-domain list.
//
// Matching is substring containment against both the link href and the
// link text, so shortened or display-only links still match.
type Parser struct {
	selectors Selectors
	logger    *zap.Logger
	processed *dom.NodeSet // nil unless dedup is enabled
}

// Option configures a Parser.
type Option func(*Parser)

// WithDedup makes the parser remember matched elements and report
// found=false for them until Reset.
func WithDedup() Option {
	return func(p *Parser) {
		p.processed = dom.NewNodeSet()
	}
}

// NewParser creates a parser using selectors (empty fields take defaults).
func NewParser(selectors Selectors, logger *zap.Logger, opts ...Option) *Parser {
	p := &Parser{
		selectors: selectors.WithDefaults(),
		logger:    logging.Component(logger, "parser"),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Selectors returns the selectors in use.
func (p *Parser) Selectors() Selectors {
	return p.selectors
}

// FindMatchingDomain scans the links of the post containing el. The first
// (link, domain) pair where the domain occurs in the href or the link text
// wins; links are visited in document order and domains in list order.
//
// Callers must hold the document's read lock.
func (p *Parser) FindMatchingDomain(el *html.Node, domains []string) types.MatchResult {
	if p.processed != nil && p.processed.Has(el) {
		return types.MatchResult{}
	}

	container := dom.Closest(el, p.selectors.Container)
	if container == nil {
		return types.MatchResult{}
	}

	for _, link := range dom.QueryAll(container, p.selectors.Link) {
		href, _ := dom.Attr(link, "href")
		text := dom.Text(link)

		for _, domain := range domains {
			if domain == "" {
				continue
			}
			if strings.Contains(href, domain) || strings.Contains(text, domain) {
				p.logger.Debug("found matching domain",
					zap.String("domain", domain),
					zap.String("href", href),
				)
				if p.processed != nil {
					p.processed.Add(el)
				}
				return types.MatchResult{Found: true, MatchedDomain: domain, URL: href}
			}
		}
	}

	return types.MatchResult{}
}

// Reset forgets every element recorded by dedup mode.
func (p *Parser) Reset() {
	if p.processed != nil {
		p.processed.Clear()
	}
}

// PostIdentity derives the dedup key of a post: its text joined with the
// datetime of the container's timestamp node, or the current Unix
// milliseconds when there is none. Two posts with identical text and no
// timestamp can collide; the key is only used for queue dedup.
//
// Callers must hold the document's read lock.
func (p *Parser) PostIdentity(el *html.Node, now func() time.Time) string {
	text := dom.Text(el)

	var stamp string
	if container := dom.Closest(el, p.selectors.Container); container != nil {
		if ts := dom.QueryFirst(container, p.selectors.Timestamp); ts != nil {
			stamp, _ = dom.Attr(ts, "datetime")
		}
	}
	if stamp == "" {
		stamp = strconv.FormatInt(now().UnixMilli(), 10)
	}
	return text + "-" + stamp
}
