// Package sdk ties the feed watcher together: it resolves the trusted-domain
// list, watches a document for posts, matches them and notifies the host.
//
// An SDK is created explicitly and owned by its caller. Its lifecycle is
// uninitialized -> initializing -> ready, and back to uninitialized on
// Destroy. Discovered posts reach the matcher through one of two intake
// policies chosen in config: queued (coalesced full-document passes) or
// direct (one match per discovery).
package sdk

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/net/html"

	"github.com/jonathan/snappy-feed/internal/config"
	"github.com/jonathan/snappy-feed/internal/dom"
	"github.com/jonathan/snappy-feed/internal/events"
	"github.com/jonathan/snappy-feed/internal/feed"
	"github.com/jonathan/snappy-feed/internal/fetch"
	"github.com/jonathan/snappy-feed/internal/logging"
	"github.com/jonathan/snappy-feed/internal/metadata"
	"github.com/jonathan/snappy-feed/internal/registry"
	"github.com/jonathan/snappy-feed/internal/watch"
)

// State is the SDK lifecycle state.
type State int

const (
	StateUninitialized State = iota
	StateInitializing
	StateReady
)

func (s State) String() string {
	switch s {
	case StateInitializing:
		return "initializing"
	case StateReady:
		return "ready"
	default:
		return "uninitialized"
	}
}

// HTTPClient is the retrying transport shared by the registry and metadata
// lookups.
type HTTPClient interface {
	registry.Getter
	metadata.JSONGetter
}

// Stats is a snapshot of intake counters.
type Stats struct {
	Queued    int `json:"queued"`
	Processed int `json:"processed"`
	Passes    int `json:"passes"`
	Matches   int `json:"matches"`
}

// Option configures an SDK.
type Option func(*SDK)

// WithLogger replaces the logger derived from the debug flag.
func WithLogger(l *zap.Logger) Option {
	return func(s *SDK) { s.logger = l }
}

// WithHTTPClient replaces the retrying client built from config.
func WithHTTPClient(c HTTPClient) Option {
	return func(s *SDK) { s.http = c }
}

// WithScheduler replaces the frame scheduler used for queued passes.
func WithScheduler(sch Scheduler) Option {
	return func(s *SDK) { s.scheduler = sch }
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(s *SDK) { s.now = now }
}

// SDK coordinates domain resolution, observation and matching for one
// document.
type SDK struct {
	cfg       config.Config
	doc       *dom.Document
	logger    *zap.Logger
	http      HTTPClient
	scheduler Scheduler
	now       func() time.Time

	bus      *events.Bus
	registry *registry.Registry
	metadata *metadata.Service
	parser   *feed.Parser
	watcher  *watch.Watcher

	mu          sync.Mutex
	state       State
	domains     []string
	queue       map[string]struct{}
	processed   *dom.NodeSet
	processing  bool
	scheduled   bool
	generation  uint64 // bumped by Destroy; stale passes compare against it
	stopRefresh context.CancelFunc
	passes      int
	matches     int
}

// New creates an uninitialized SDK watching doc. Empty config fields take
// their defaults.
func New(cfg config.Config, doc *dom.Document, opts ...Option) (*SDK, error) {
	cfg = cfg.MergeWithDefaults(config.Config{})
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if doc == nil {
		return nil, fmt.Errorf("sdk: document is required")
	}

	s := &SDK{
		cfg:       cfg,
		doc:       doc,
		now:       time.Now,
		bus:       events.NewBus(),
		queue:     make(map[string]struct{}),
		processed: dom.NewNodeSet(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = logging.Must(cfg.Debug)
	}
	if s.http == nil {
		s.http = fetch.NewClient(&fetch.Options{
			RetryAttempts: cfg.RetryAttempts,
			RetryDelay:    cfg.RetryDelay(),
		}, s.logger)
	}
	if s.scheduler == nil {
		s.scheduler = FrameScheduler()
	}

	s.registry = registry.New(cfg.RegistryURL, cfg.DefaultDomains, s.http, s.logger)
	s.metadata = metadata.New(cfg.MetadataURL, s.http, s.logger)
	s.parser = feed.NewParser(cfg.Selectors, s.logger)
	s.watcher = watch.New(doc, s.parser.Selectors().PostText, s.logger, s.intake)
	s.domains = s.registry.DefaultDomains()
	s.logger = logging.Component(s.logger, "sdk")

	return s, nil
}

// Config returns the effective configuration.
func (s *SDK) Config() config.Config {
	return s.cfg
}

// State returns the lifecycle state.
func (s *SDK) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// On registers fn for events of kind and returns its unsubscribe func.
func (s *SDK) On(kind events.Kind, fn events.Listener) func() {
	return s.bus.On(kind, fn)
}

// Once registers fn for the next event of kind.
func (s *SDK) Once(kind events.Kind, fn events.Listener) func() {
	return s.bus.Once(kind, fn)
}

// Events exposes the underlying bus.
func (s *SDK) Events() *events.Bus {
	return s.bus
}

// Initialize resolves the domain list, re-scans posts already in the
// document and starts observing. A registry failure degrades to the default
// domains and emits an error event without failing initialization. Only a
// failure to start observing is returned, after an error event.
func (s *SDK) Initialize(ctx context.Context) error {
	s.mu.Lock()
	if s.state != StateUninitialized {
		s.mu.Unlock()
		s.logger.Warn("SDK is already initialized")
		return nil
	}
	s.state = StateInitializing
	s.mu.Unlock()

	_ = s.updateDomains(ctx)

	if err := s.watcher.Observe(); err != nil {
		s.mu.Lock()
		s.state = StateUninitialized
		s.mu.Unlock()
		s.logger.Error("initialization error", zap.Error(err))
		s.bus.Emit(events.Event{Kind: events.Error, Err: err})
		return fmt.Errorf("initialize: %w", err)
	}

	s.mu.Lock()
	s.state = StateReady
	s.startRefreshLocked()
	s.mu.Unlock()

	s.logger.Debug("SDK initialized successfully")
	s.bus.Emit(events.Event{Kind: events.Ready})
	return nil
}

// RefreshDomains re-resolves the domain list while ready, resets the matcher
// and re-scans the document so newly trusted domains apply to rendered posts.
// The registry error, if any, is returned after the fallback was applied.
func (s *SDK) RefreshDomains(ctx context.Context) error {
	if s.State() != StateReady {
		return ErrNotInitialized
	}
	return s.updateDomains(ctx)
}

// CurrentDomains returns a copy of the live domain list.
func (s *SDK) CurrentDomains() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, len(s.domains))
	copy(out, s.domains)
	return out
}

// Destroy stops observation and processing and clears queued and processed
// state. It is a no-op unless the SDK is ready. In-flight HTTP requests are
// not aborted.
func (s *SDK) Destroy() {
	s.mu.Lock()
	if s.state != StateReady {
		s.mu.Unlock()
		return
	}
	stop := s.stopRefresh
	s.stopRefresh = nil
	s.state = StateUninitialized
	s.generation++
	s.queue = make(map[string]struct{})
	s.processed.Clear()
	s.scheduled = false
	s.mu.Unlock()

	if stop != nil {
		stop()
	}
	s.watcher.Disconnect()
	s.logger.Debug("SDK destroyed")
	s.bus.Emit(events.Event{Kind: events.Destroyed})
}

// Stats returns the current intake counters.
func (s *SDK) Stats() Stats {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Stats{
		Queued:    len(s.queue),
		Processed: s.processed.Len(),
		Passes:    s.passes,
		Matches:   s.matches,
	}
}

// updateDomains replaces the domain list wholesale with the registry's, or
// with the defaults when the fetch fails, then re-scans existing posts.
func (s *SDK) updateDomains(ctx context.Context) error {
	domains, err := s.registry.FetchDomains(ctx)
	if err != nil {
		s.logger.Error("using default domains due to error", zap.Error(err))
		domains = s.registry.DefaultDomains()
	}

	s.mu.Lock()
	s.domains = domains
	s.mu.Unlock()
	s.parser.Reset()

	if err != nil {
		s.bus.Emit(events.Event{Kind: events.Error, Err: &DegradedError{Fallback: s.CurrentDomains(), Cause: err}})
	}
	s.bus.Emit(events.Event{Kind: events.DomainListUpdated, Domains: s.CurrentDomains()})

	s.watcher.ProcessExisting()
	return err
}

// startRefreshLocked launches the periodic refresh loop when configured.
func (s *SDK) startRefreshLocked() {
	interval := s.cfg.RefreshInterval()
	if interval <= 0 {
		return
	}
	ctx, cancel := context.WithCancel(context.Background())
	s.stopRefresh = cancel

	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if err := s.updateDomains(ctx); err != nil && ctx.Err() == nil {
					s.logger.Warn("periodic domain refresh failed", zap.Error(err))
				}
			}
		}
	}()
}

// intake receives each post element discovered by the watcher.
func (s *SDK) intake(el *html.Node) {
	if s.cfg.Intake == config.IntakeDirect {
		s.processDirect(el)
		return
	}
	s.enqueue(el)
}

func (s *SDK) accepting() bool {
	return s.state == StateInitializing || s.state == StateReady
}
