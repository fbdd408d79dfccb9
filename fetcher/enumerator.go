package fetcher

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"ewintr.nl/ytsum/model"
)

var ErrEnumeration = errors.New("playlist enumeration failed")

type Enumerator interface {
	Enumerate(ctx context.Context, ref string) ([]model.YoutubeVideoID, error)
}

// PlaylistSource dispatches a reference to the right enumerator: references
// prefixed with "miniflux:" go to the feed reader, everything else is treated
// as a youtube playlist.
type PlaylistSource struct {
	youtube *Youtube
	feeds   FeedReader
}

func NewPlaylistSource(yt *Youtube, feeds FeedReader) *PlaylistSource {
	return &PlaylistSource{
		youtube: yt,
		feeds:   feeds,
	}
}

func (ps *PlaylistSource) Enumerate(ctx context.Context, ref string) ([]model.YoutubeVideoID, error) {
	if feedRef, ok := strings.CutPrefix(ref, minifluxPrefix); ok {
		if ps.feeds == nil {
			return nil, fmt.Errorf("%w: miniflux is not configured", ErrEnumeration)
		}
		return ps.feeds.FeedVideos(ctx, feedRef)
	}

	playlistID, err := ResolvePlaylistID(ref)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrEnumeration, err)
	}
	if ps.youtube == nil {
		return nil, fmt.Errorf("%w: youtube data api is not configured", ErrEnumeration)
	}

	return ps.youtube.PlaylistVideos(ctx, playlistID)
}
