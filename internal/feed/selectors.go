// Package feed decides whether rendered posts link to trusted domains.
package feed

// Selectors locate the parts of a post in the host document.
type Selectors struct {
	PostText  string `json:"post_text"` // marker on the element carrying the post text
	Container string `json:"container"` // nearest ancestor wrapping one whole post
	Link      string `json:"link"`      // link elements inside a container
	Timestamp string `json:"timestamp"` // optional node whose datetime attribute dates the post
}

// DefaultSelectors returns the selectors for the X/Twitter web client.
func DefaultSelectors() Selectors {
	return Selectors{
		PostText:  `[data-testid="tweetText"]`,
		Container: "article",
		Link:      `a[role="link"]`,
		Timestamp: "time",
	}
}

// WithDefaults fills empty selectors from DefaultSelectors.
func (s Selectors) WithDefaults() Selectors {
	d := DefaultSelectors()
	if s.PostText == "" {
		s.PostText = d.PostText
	}
	if s.Container == "" {
		s.Container = d.Container
	}
	if s.Link == "" {
		s.Link = d.Link
	}
	if s.Timestamp == "" {
		s.Timestamp = d.Timestamp
	}
	return s
}
