package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/jonathan/snappy-feed/internal/dom"
	"github.com/jonathan/snappy-feed/internal/events"
	"github.com/jonathan/snappy-feed/internal/fetch"
	"github.com/jonathan/snappy-feed/internal/observability"
	"github.com/jonathan/snappy-feed/internal/sdk"
	"github.com/jonathan/snappy-feed/internal/types"
)

var scanCmd = &cobra.Command{
	Use:   "scan",
	Short: "Scan a feed page for posts linking to trusted domains",
	Long:  "Loads a feed document from a file, a URL or a headless browser render, runs the watcher over it and prints every matched post as JSON.",
	RunE:  runScan,
}

var (
	scanFile         string
	scanURL          string
	scanBrowser      bool
	scanWaitSelector string
	scanScrolls      int
	scanTimeout      time.Duration
	scanMetadata     bool
	scanFormat       string
)

func init() {
	scanCmd.Flags().StringVarP(&scanFile, "file", "f", "", "Path to a saved feed HTML file")
	scanCmd.Flags().StringVarP(&scanURL, "url", "u", "", "Feed page URL")
	scanCmd.Flags().BoolVar(&scanBrowser, "browser", false, "Render --url in a headless browser before scanning")
	scanCmd.Flags().StringVar(&scanWaitSelector, "wait-selector", "", "Selector to await before capturing a browser render (default: post-text selector)")
	scanCmd.Flags().IntVar(&scanScrolls, "scrolls", 0, "Scroll passes for infinite feeds in browser mode")
	scanCmd.Flags().DurationVar(&scanTimeout, "timeout", 2*time.Minute, "Overall scan timeout")
	scanCmd.Flags().BoolVar(&scanMetadata, "metadata", false, "Resolve metadata for each matched post")
	scanCmd.Flags().StringVar(&scanFormat, "format", "json", "Output format: json or text")

	scanCmd.MarkFlagsMutuallyExclusive("file", "url")
	scanCmd.MarkFlagsOneRequired("file", "url")

	rootCmd.AddCommand(scanCmd)
}

// scanResult is one matched post in the command output.
type scanResult struct {
	*types.TweetMatch
	Metadata      *types.Metadata `json:"metadata,omitempty"`
	MetadataError string          `json:"metadata_error,omitempty"`
}

// waitScheduler runs passes one frame later and lets the command wait until
// every scheduled pass, including rescheduled ones, has finished.
type waitScheduler struct {
	wg sync.WaitGroup
}

func (w *waitScheduler) Schedule(fn func()) {
	w.wg.Add(1)
	time.AfterFunc(sdk.FrameDelay, func() {
		defer w.wg.Done()
		fn()
	})
}

func (w *waitScheduler) Wait() {
	w.wg.Wait()
}

func runScan(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if scanBrowser && scanURL == "" {
		return fmt.Errorf("--browser requires --url")
	}
	if scanFormat != "json" && scanFormat != "text" {
		return fmt.Errorf("invalid --format %q: must be json or text", scanFormat)
	}
	// A one-shot scan never outlives a refresh interval.
	cfg.RefreshIntervalMS = 0

	logger := newLogger(cfg)
	defer func() { _ = logger.Sync() }()

	ctx, cancel := context.WithTimeout(cmd.Context(), scanTimeout)
	defer cancel()

	doc, err := loadDocument(ctx, cfg.Selectors.PostText, logger)
	if err != nil {
		return err
	}

	sched := &waitScheduler{}
	client := newHTTPClient(cfg, logger)
	s, err := sdk.New(cfg, doc,
		sdk.WithLogger(logger),
		sdk.WithHTTPClient(client),
		sdk.WithScheduler(sched),
	)
	if err != nil {
		return fmt.Errorf("failed to create SDK: %w", err)
	}

	var (
		mu      sync.Mutex
		matches []*types.TweetMatch
	)
	s.On(events.TweetFound, func(e events.Event) {
		mu.Lock()
		defer mu.Unlock()
		matches = append(matches, e.Match)
	})
	s.On(events.Error, func(e events.Event) {
		_, _ = fmt.Fprintf(cmd.ErrOrStderr(), "Warning: %v\n", e.Err)
	})

	if err := s.Initialize(ctx); err != nil {
		return fmt.Errorf("failed to initialize SDK: %w", err)
	}
	sched.Wait()
	domains := s.CurrentDomains()
	passes := s.Stats().Passes
	s.Destroy()

	mu.Lock()
	results := make([]scanResult, len(matches))
	for i, m := range matches {
		results[i] = scanResult{TweetMatch: m}
	}
	mu.Unlock()

	if scanMetadata {
		resolveMetadata(ctx, s, results)
	}

	if scanFormat == "text" {
		summary := observability.ScanSummary{Domains: domains, Passes: passes, Metadata: map[string]*types.Metadata{}}
		for _, r := range results {
			summary.Matches = append(summary.Matches, r.TweetMatch)
			if r.Metadata != nil {
				summary.Metadata[r.ID.String()] = r.Metadata
			}
		}
		observability.NewPrinter(cmd.OutOrStdout()).PrintSummary(summary)
		return nil
	}

	out, err := json.MarshalIndent(results, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal results to JSON: %w", err)
	}
	_, _ = fmt.Fprintln(cmd.OutOrStdout(), string(out))
	return nil
}

func loadDocument(ctx context.Context, postSelector string, logger *zap.Logger) (*dom.Document, error) {
	switch {
	case scanFile != "":
		f, err := os.Open(scanFile)
		if err != nil {
			return nil, fmt.Errorf("failed to open feed file %s: %w", scanFile, err)
		}
		defer func() { _ = f.Close() }()
		return dom.Parse(f)

	case scanBrowser:
		wait := scanWaitSelector
		if wait == "" {
			wait = postSelector
		}
		page, err := fetch.WithBrowser(ctx, scanURL, fetch.BrowserOptions{
			WaitSelector: wait,
			Scrolls:      scanScrolls,
		}, logger)
		if err != nil {
			return nil, fmt.Errorf("failed to render %s: %w", scanURL, err)
		}
		return dom.ParseString(page)

	default:
		result, err := fetch.URL(ctx, scanURL, nil)
		if err != nil {
			return nil, fmt.Errorf("failed to fetch feed: %w", err)
		}
		return dom.ParseString(result.HTML)
	}
}

// resolveMetadata looks up metadata for every result concurrently. Lookup
// failures are recorded on the result rather than aborting the scan.
func resolveMetadata(ctx context.Context, s *sdk.SDK, results []scanResult) {
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(4)
	for i := range results {
		r := &results[i]
		g.Go(func() error {
			md, err := s.GetMetadataForTweet(gctx, r.TweetMatch)
			if err != nil {
				r.MetadataError = err.Error()
				return nil
			}
			r.Metadata = md
			return nil
		})
	}
	_ = g.Wait()
}
