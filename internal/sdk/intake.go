package sdk

import (
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/net/html"

	"github.com/jonathan/snappy-feed/internal/dom"
	"github.com/jonathan/snappy-feed/internal/events"
	"github.com/jonathan/snappy-feed/internal/types"
)

// isoMillis matches JavaScript's Date.prototype.toISOString.
const isoMillis = "2006-01-02T15:04:05.000Z07:00"

// enqueue records the post's identity and schedules a pass unless the
// identity is already queued or the element was already matched.
func (s *SDK) enqueue(el *html.Node) {
	var id string
	s.doc.View(func() {
		id = s.parser.PostIdentity(el, s.now)
	})

	s.mu.Lock()
	if !s.accepting() {
		s.mu.Unlock()
		return
	}
	if _, queued := s.queue[id]; queued || s.processed.Has(el) {
		s.mu.Unlock()
		s.logger.Debug("tweet already queued or processed", zap.String("id", id))
		return
	}
	s.queue[id] = struct{}{}
	schedule := s.reserveLocked()
	s.mu.Unlock()

	if schedule != nil {
		s.scheduler.Schedule(schedule)
	}
}

// reserveLocked marks a pass as pending and returns the func to schedule,
// or nil when a pass is already pending or running. A running pass
// re-checks the queue when it ends instead.
func (s *SDK) reserveLocked() func() {
	if s.processing || s.scheduled {
		return nil
	}
	s.scheduled = true
	gen := s.generation
	return func() { s.processQueue(gen) }
}

// processQueue is a full resync: every post-text element currently in the
// document is visited, whether or not it triggered the pass. Identities
// queued before the pass started are consumed by it.
func (s *SDK) processQueue(gen uint64) {
	s.mu.Lock()
	if gen != s.generation || s.processing {
		s.mu.Unlock()
		return
	}
	s.scheduled = false
	s.processing = true
	pending := s.queue
	s.queue = make(map[string]struct{})
	domains := s.domains
	s.mu.Unlock()

	var found []*types.TweetMatch
	s.doc.View(func() {
		for _, el := range dom.QueryAll(s.doc.Body(), s.parser.Selectors().PostText) {
			id := s.parser.PostIdentity(el, s.now)

			s.mu.Lock()
			if gen != s.generation {
				// Destroyed mid-pass; the queue now belongs to the next session.
				s.mu.Unlock()
				return
			}
			delete(pending, id)
			delete(s.queue, id)
			skip := s.processed.Has(el)
			s.mu.Unlock()
			if skip {
				continue
			}

			res := s.parser.FindMatchingDomain(el, domains)
			if !res.Found {
				continue
			}
			match := s.newMatch(el, res)

			s.mu.Lock()
			if gen == s.generation {
				s.processed.Add(el)
				s.matches++
				found = append(found, match)
			}
			s.mu.Unlock()
		}
	})

	s.mu.Lock()
	s.processing = false
	s.passes++
	current := gen == s.generation
	var next func()
	if len(s.queue) > 0 && s.accepting() {
		next = s.reserveLocked()
	}
	s.mu.Unlock()

	if dropped := len(pending); dropped > 0 {
		// Identities without a timestamp node embed the enqueue time and
		// never match the re-derived key; the pass covered their posts anyway.
		s.logger.Debug("dropped stale queue identities", zap.Int("count", dropped))
	}

	if current {
		for _, m := range found {
			s.bus.Emit(events.Event{Kind: events.TweetFound, Match: m})
		}
	}
	if next != nil {
		s.scheduler.Schedule(next)
	}
}

// processDirect matches a single discovered post and emits synchronously.
func (s *SDK) processDirect(el *html.Node) {
	s.mu.Lock()
	if !s.accepting() || s.processed.Has(el) {
		s.mu.Unlock()
		return
	}
	domains := s.domains
	gen := s.generation
	s.mu.Unlock()

	var match *types.TweetMatch
	s.doc.View(func() {
		if res := s.parser.FindMatchingDomain(el, domains); res.Found {
			match = s.newMatch(el, res)
		}
	})
	if match == nil {
		return
	}

	s.mu.Lock()
	if gen != s.generation || s.processed.Has(el) {
		s.mu.Unlock()
		return
	}
	s.processed.Add(el)
	s.matches++
	s.mu.Unlock()

	s.bus.Emit(events.Event{Kind: events.TweetFound, Match: match})
}

// newMatch builds the listener record. Callers hold the document read lock.
func (s *SDK) newMatch(el *html.Node, res types.MatchResult) *types.TweetMatch {
	return &types.TweetMatch{
		ID:            uuid.New(),
		Element:       el,
		MatchedDomain: res.MatchedDomain,
		TweetText:     dom.Text(el),
		Timestamp:     s.now().UTC().Format(isoMillis),
		URL:           res.URL,
	}
}
