// Package fetch - browser.go renders JavaScript feeds in a headless browser.
package fetch

import (
	"context"
	"fmt"
	"time"

	"github.com/chromedp/chromedp"
	"go.uber.org/zap"

	"github.com/jonathan/snappy-feed/internal/logging"
)

// DefaultBrowserTimeout bounds a single headless render.
const DefaultBrowserTimeout = 45 * time.Second

// BrowserOptions configures a headless render.
type BrowserOptions struct {
	Timeout time.Duration
	// WaitSelector is awaited before the HTML is captured, e.g. the feed's
	// post-text marker. Defaults to "body".
	WaitSelector string
	// Settle is extra time for client-side rendering after WaitSelector appears.
	Settle time.Duration
	// Scrolls triggers this many scroll-to-bottom passes so infinite feeds
	// render more posts before capture.
	Scrolls int
}

// WithBrowser renders a page in a headless browser and returns the rendered HTML.
// Requires Chrome/Chromium to be installed on the system.
func WithBrowser(ctx context.Context, url string, opts BrowserOptions, logger *zap.Logger) (string, error) {
	log := logging.Component(logger, "browser")
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultBrowserTimeout
	}
	if opts.WaitSelector == "" {
		opts.WaitSelector = "body"
	}
	if opts.Settle <= 0 {
		opts.Settle = 2 * time.Second
	}

	log.Debug("starting headless browser", zap.String("url", url))

	allocCtx, cancel := chromedp.NewExecAllocator(ctx,
		append(chromedp.DefaultExecAllocatorOptions[:],
			chromedp.Flag("headless", true),
			chromedp.Flag("disable-gpu", true),
			chromedp.Flag("no-sandbox", true),
			chromedp.Flag("disable-dev-shm-usage", true),
		)...,
	)
	defer cancel()

	browserCtx, cancel := chromedp.NewContext(allocCtx)
	defer cancel()

	browserCtx, cancel = context.WithTimeout(browserCtx, opts.Timeout)
	defer cancel()

	actions := []chromedp.Action{
		chromedp.Navigate(url),
		chromedp.WaitReady(opts.WaitSelector),
		chromedp.Sleep(opts.Settle),
	}
	for i := 0; i < opts.Scrolls; i++ {
		actions = append(actions,
			chromedp.Evaluate(`window.scrollTo(0, document.body.scrollHeight)`, nil),
			chromedp.Sleep(opts.Settle),
		)
	}

	var html string
	actions = append(actions, chromedp.OuterHTML("html", &html))

	if err := chromedp.Run(browserCtx, actions...); err != nil {
		return "", fmt.Errorf("browser rendering failed: %w", err)
	}

	log.Debug("rendered page", zap.Int("bytes", len(html)))
	return html, nil
}
