package dom

import (
	"sync"

	"golang.org/x/net/html"
)

// Observer receives the mutations of one document subtree. Records are
// delivered synchronously on the mutating goroutine once the document lock
// has been released, so callbacks may read the document through View.
type Observer struct {
	callback func([]Mutation)

	mu   sync.Mutex
	doc  *Document
	root *html.Node
}

// NewObserver creates an observer that is not yet attached to a document.
func NewObserver(callback func([]Mutation)) *Observer {
	return &Observer{callback: callback}
}

// Observe starts delivering mutations of root and its entire subtree.
// Observing again replaces the previous target.
func (o *Observer) Observe(doc *Document, root *html.Node) {
	o.Disconnect()

	o.mu.Lock()
	o.doc = doc
	o.root = root
	o.mu.Unlock()

	doc.register(o)
}

// Disconnect stops delivery. It is safe to call more than once.
func (o *Observer) Disconnect() {
	o.mu.Lock()
	doc := o.doc
	o.doc = nil
	o.root = nil
	o.mu.Unlock()

	if doc != nil {
		doc.unregister(o)
	}
}

func (o *Observer) observedRoot() *html.Node {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.root
}

func (o *Observer) notify(records []Mutation) {
	// Drop records collected before a concurrent Disconnect.
	if o.observedRoot() == nil {
		return
	}
	o.callback(records)
}
