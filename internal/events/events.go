// Package events delivers SDK lifecycle and match notifications to the host.
package events

import (
	"sync"

	"github.com/jonathan/snappy-feed/internal/types"
)

// Kind identifies an event channel.
type Kind string

const (
	// Ready fires once initialization completes.
	Ready Kind = "ready"
	// DomainListUpdated fires after every successful or fallback domain resolution.
	DomainListUpdated Kind = "domain-list-updated"
	// TweetFound fires once per newly matched post.
	TweetFound Kind = "tweet-found"
	// Error fires on recoverable failures during domain refresh or init.
	Error Kind = "error"
	// Destroyed fires after teardown.
	Destroyed Kind = "destroyed"
)

// Event is one notification. Only the payload field for Kind is set.
type Event struct {
	Kind    Kind
	Domains []string          // DomainListUpdated
	Match   *types.TweetMatch // TweetFound
	Err     error             // Error
}

// Listener handles events of the kind it was registered for.
type Listener func(Event)

type entry struct {
	id   uint64
	fn   Listener
	once bool
}

// Bus is a typed listener registry. Listeners run synchronously, in
// registration order, on the emitting goroutine.
type Bus struct {
	mu        sync.Mutex
	nextID    uint64
	listeners map[Kind][]entry
}

// NewBus returns an empty bus.
func NewBus() *Bus {
	return &Bus{listeners: make(map[Kind][]entry)}
}

// On registers fn for kind and returns a func that removes it.
func (b *Bus) On(kind Kind, fn Listener) (unsubscribe func()) {
	return b.add(kind, fn, false)
}

// Once registers fn to run on the next event of kind only.
func (b *Bus) Once(kind Kind, fn Listener) (unsubscribe func()) {
	return b.add(kind, fn, true)
}

func (b *Bus) add(kind Kind, fn Listener, once bool) func() {
	b.mu.Lock()
	b.nextID++
	id := b.nextID
	b.listeners[kind] = append(b.listeners[kind], entry{id: id, fn: fn, once: once})
	b.mu.Unlock()

	return func() { b.remove(kind, id) }
}

func (b *Bus) remove(kind Kind, id uint64) {
	b.mu.Lock()
	defer b.mu.Unlock()

	list := b.listeners[kind]
	for i, e := range list {
		if e.id == id {
			b.listeners[kind] = append(list[:i:i], list[i+1:]...)
			return
		}
	}
}

// Emit delivers ev to the listeners of ev.Kind and reports whether there
// were any.
func (b *Bus) Emit(ev Event) bool {
	b.mu.Lock()
	list := b.listeners[ev.Kind]
	if len(list) == 0 {
		b.mu.Unlock()
		return false
	}
	snapshot := make([]entry, len(list))
	copy(snapshot, list)

	kept := list[:0:0]
	for _, e := range list {
		if !e.once {
			kept = append(kept, e)
		}
	}
	b.listeners[ev.Kind] = kept
	b.mu.Unlock()

	for _, e := range snapshot {
		e.fn(ev)
	}
	return true
}

// ListenerCount returns the number of listeners registered for kind.
func (b *Bus) ListenerCount(kind Kind) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.listeners[kind])
}

// RemoveAllListeners drops the listeners of the given kinds, or of every
// kind when none are given.
func (b *Bus) RemoveAllListeners(kinds ...Kind) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if len(kinds) == 0 {
		b.listeners = make(map[Kind][]entry)
		return
	}
	for _, k := range kinds {
		delete(b.listeners, k)
	}
}
