// Package watch discovers post elements as they are added to a document.
package watch

import (
	"errors"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/net/html"

	"github.com/jonathan/snappy-feed/internal/dom"
	"github.com/jonathan/snappy-feed/internal/logging"
)

// ErrNoRoot is returned by Observe when the document has no body to watch.
var ErrNoRoot = errors.New("document has no body element to observe")

// Watcher reports every post-text element that appears in a document.
type Watcher struct {
	doc      *dom.Document
	selector string
	onPost   func(*html.Node)
	logger   *zap.Logger

	mu        sync.Mutex
	observer  *dom.Observer
	observing bool
}

// New creates an idle watcher. onPost is called once per discovered post
// element, on the goroutine that mutated the document.
func New(doc *dom.Document, postSelector string, logger *zap.Logger, onPost func(*html.Node)) *Watcher {
	return &Watcher{
		doc:      doc,
		selector: postSelector,
		onPost:   onPost,
		logger:   logging.Component(logger, "watcher"),
	}
}

// Observe starts watching the document body and its subtree. Calling it
// while already observing logs a warning and does nothing.
func (w *Watcher) Observe() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.observing {
		w.logger.Warn("observer is already running")
		return nil
	}
	if w.doc == nil || w.doc.Body() == nil {
		return ErrNoRoot
	}

	w.observer = dom.NewObserver(w.handle)
	w.observer.Observe(w.doc, w.doc.Body())
	w.observing = true
	w.logger.Debug("observer started")
	return nil
}

// Observing reports whether the watcher is delivering notifications.
func (w *Watcher) Observing() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.observing
}

// ProcessExisting runs discovery over the current document and returns the
// number of post elements reported.
func (w *Watcher) ProcessExisting() int {
	if w.doc == nil {
		return 0
	}
	posts := w.doc.QueryAll(w.selector)
	for _, p := range posts {
		w.onPost(p)
	}
	w.logger.Debug("processed existing posts", zap.Int("count", len(posts)))
	return len(posts)
}

// Disconnect stops notification delivery. It is idempotent.
func (w *Watcher) Disconnect() {
	w.mu.Lock()
	defer w.mu.Unlock()

	if !w.observing {
		return
	}
	w.observer.Disconnect()
	w.observer = nil
	w.observing = false
	w.logger.Debug("observer disconnected")
}

func (w *Watcher) handle(records []dom.Mutation) {
	var posts []*html.Node
	w.doc.View(func() {
		for _, rec := range records {
			for _, n := range rec.Added {
				if !dom.IsElement(n) {
					continue
				}
				posts = append(posts, dom.QueryAll(n, w.selector)...)
			}
		}
	})

	for _, p := range posts {
		w.onPost(p)
	}
}
