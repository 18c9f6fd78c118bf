package sdk

import (
	"context"

	"github.com/jonathan/snappy-feed/internal/types"
)

// ExtractID returns the record identifier carried by the first URL in text.
func (s *SDK) ExtractID(text string) (string, bool) {
	return s.metadata.ExtractIDFromText(text)
}

// GetMetadataForTweet resolves the record referenced by a matched post's
// text. It returns (nil, nil) when the text carries no identifier.
func (s *SDK) GetMetadataForTweet(ctx context.Context, match *types.TweetMatch) (*types.Metadata, error) {
	if match == nil || match.TweetText == "" {
		return nil, nil
	}
	id, ok := s.metadata.ExtractIDFromText(match.TweetText)
	if !ok {
		return nil, nil
	}
	return s.metadata.GetMetadataByID(ctx, id)
}

// GetMetadataForURL resolves the record identified by the last path segment
// of url. It returns (nil, nil) when no identifier can be extracted.
func (s *SDK) GetMetadataForURL(ctx context.Context, url string) (*types.Metadata, error) {
	id, ok := s.metadata.ExtractIDFromText(url)
	if !ok {
		return nil, nil
	}
	return s.metadata.GetMetadataByID(ctx, id)
}

// GetMetadataByID resolves a record directly. An empty id yields (nil, nil).
func (s *SDK) GetMetadataByID(ctx context.Context, id string) (*types.Metadata, error) {
	if id == "" {
		return nil, nil
	}
	return s.metadata.GetMetadataByID(ctx, id)
}
