// Package dom models the host page as a live HTML document that can be
// mutated by its owner and observed for structural changes.
//
// Nodes are *html.Node values and are identified by pointer. Readers that
// walk the tree must do so inside View; the package-level helpers in
// element.go take no locks of their own.
package dom

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// ErrDetached is returned when a mutation targets a node that is not part of
// the document.
var ErrDetached = errors.New("node is not attached to the document")

// Mutation describes one structural change under Target.
type Mutation struct {
	Target  *html.Node
	Added   []*html.Node
	Removed []*html.Node
}

// Document is a mutable HTML tree shared between its owner and observers.
type Document struct {
	mu   sync.RWMutex
	root *html.Node
	body *html.Node

	obsMu     sync.Mutex
	observers map[*Observer]struct{}
}

// Parse reads an HTML document.
func Parse(r io.Reader) (*Document, error) {
	root, err := html.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("failed to parse HTML: %w", err)
	}
	return &Document{
		root:      root,
		body:      findBody(root),
		observers: make(map[*Observer]struct{}),
	}, nil
}

// ParseString reads an HTML document from a string.
func ParseString(s string) (*Document, error) {
	return Parse(strings.NewReader(s))
}

// Body returns the body element, or nil if the document has none.
func (d *Document) Body() *html.Node {
	return d.body
}

// Root returns the document node.
func (d *Document) Root() *html.Node {
	return d.root
}

// View runs fn while holding a read lock on the tree. fn must not mutate the
// document or call View again.
func (d *Document) View(fn func()) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	fn()
}

// QueryAll returns the elements under the body matching selector, in
// document order.
func (d *Document) QueryAll(selector string) []*html.Node {
	var nodes []*html.Node
	d.View(func() {
		nodes = QueryAll(d.body, selector)
	})
	return nodes
}

// AppendHTML parses fragment in the context of parent, appends the resulting
// nodes to parent and notifies observers. It returns the appended top-level
// nodes.
func (d *Document) AppendHTML(parent *html.Node, fragment string) ([]*html.Node, error) {
	if parent == nil {
		return nil, ErrDetached
	}
	d.mu.RLock()
	attached := d.contains(parent)
	d.mu.RUnlock()
	if !attached {
		return nil, ErrDetached
	}
	nodes, err := html.ParseFragment(strings.NewReader(fragment), contextNode(parent))
	if err != nil {
		return nil, fmt.Errorf("failed to parse fragment: %w", err)
	}

	d.mu.Lock()
	if !d.contains(parent) {
		d.mu.Unlock()
		return nil, ErrDetached
	}
	for _, n := range nodes {
		parent.AppendChild(n)
	}
	deliveries := d.collect(Mutation{Target: parent, Added: nodes})
	d.mu.Unlock()

	deliver(deliveries)
	return nodes, nil
}

// AppendChild attaches a detached node to parent and notifies observers.
func (d *Document) AppendChild(parent, child *html.Node) error {
	if parent == nil || child == nil {
		return ErrDetached
	}
	if child.Parent != nil {
		return fmt.Errorf("append child: node already has a parent")
	}

	d.mu.Lock()
	if !d.contains(parent) {
		d.mu.Unlock()
		return ErrDetached
	}
	parent.AppendChild(child)
	deliveries := d.collect(Mutation{Target: parent, Added: []*html.Node{child}})
	d.mu.Unlock()

	deliver(deliveries)
	return nil
}

// Remove detaches n from the document and notifies observers.
func (d *Document) Remove(n *html.Node) error {
	d.mu.Lock()
	if n == nil || n.Parent == nil || !d.contains(n) {
		d.mu.Unlock()
		return ErrDetached
	}
	parent := n.Parent
	deliveries := d.collect(Mutation{Target: parent, Removed: []*html.Node{n}})
	parent.RemoveChild(n)
	d.mu.Unlock()

	deliver(deliveries)
	return nil
}

// HTML renders the current document.
func (d *Document) HTML() (string, error) {
	var buf bytes.Buffer
	var err error
	d.View(func() {
		err = html.Render(&buf, d.root)
	})
	if err != nil {
		return "", fmt.Errorf("failed to render document: %w", err)
	}
	return buf.String(), nil
}

func (d *Document) register(o *Observer) {
	d.obsMu.Lock()
	d.observers[o] = struct{}{}
	d.obsMu.Unlock()
}

func (d *Document) unregister(o *Observer) {
	d.obsMu.Lock()
	delete(d.observers, o)
	d.obsMu.Unlock()
}

type delivery struct {
	observer *Observer
	records  []Mutation
}

// collect pairs the mutation with every observer whose root contains its
// target. Callers hold the write lock.
func (d *Document) collect(m Mutation) []delivery {
	d.obsMu.Lock()
	defer d.obsMu.Unlock()

	var out []delivery
	for o := range d.observers {
		root := o.observedRoot()
		if root == nil || !isInclusiveAncestor(root, m.Target) {
			continue
		}
		out = append(out, delivery{observer: o, records: []Mutation{m}})
	}
	return out
}

func deliver(deliveries []delivery) {
	for _, dl := range deliveries {
		dl.observer.notify(dl.records)
	}
}

func (d *Document) contains(n *html.Node) bool {
	return isInclusiveAncestor(d.root, n)
}

func isInclusiveAncestor(ancestor, n *html.Node) bool {
	for ; n != nil; n = n.Parent {
		if n == ancestor {
			return true
		}
	}
	return false
}

func findBody(n *html.Node) *html.Node {
	if n.Type == html.ElementNode && n.DataAtom == atom.Body {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if b := findBody(c); b != nil {
			return b
		}
	}
	return nil
}

// contextNode returns a detached element with the same tag as parent, used as
// the parsing context for fragments.
func contextNode(parent *html.Node) *html.Node {
	if parent.Type != html.ElementNode {
		return &html.Node{Type: html.ElementNode, Data: "body", DataAtom: atom.Body}
	}
	return &html.Node{Type: html.ElementNode, Data: parent.Data, DataAtom: atom.Lookup([]byte(parent.Data))}
}
