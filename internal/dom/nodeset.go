package dom

import (
	"sync"
	"weak"

	"golang.org/x/net/html"
)

// pruneEvery is the number of insertions between sweeps of collected nodes.
const pruneEvery = 64

// NodeSet records node identities without keeping the nodes alive. Once a
// node removed from the document is garbage collected its entry is dropped
// on a later sweep.
type NodeSet struct {
	mu    sync.Mutex
	nodes map[weak.Pointer[html.Node]]struct{}
	adds  int
}

// NewNodeSet returns an empty set.
func NewNodeSet() *NodeSet {
	return &NodeSet{nodes: make(map[weak.Pointer[html.Node]]struct{})}
}

// Add records n. Adding a recorded node is a no-op.
func (s *NodeSet) Add(n *html.Node) {
	if n == nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	s.nodes[weak.Make(n)] = struct{}{}
	s.adds++
	if s.adds%pruneEvery == 0 {
		s.pruneLocked()
	}
}

// Has reports whether n was recorded.
func (s *NodeSet) Has(n *html.Node) bool {
	if n == nil {
		return false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.nodes[weak.Make(n)]
	return ok
}

// Clear forgets every node.
func (s *NodeSet) Clear() {
	s.mu.Lock()
	s.nodes = make(map[weak.Pointer[html.Node]]struct{})
	s.adds = 0
	s.mu.Unlock()
}

// Len returns the number of recorded nodes that are still alive.
func (s *NodeSet) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pruneLocked()
	return len(s.nodes)
}

func (s *NodeSet) pruneLocked() {
	for p := range s.nodes {
		if p.Value() == nil {
			delete(s.nodes, p)
		}
	}
}
