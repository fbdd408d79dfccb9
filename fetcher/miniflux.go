package fetcher

import (
	"context"
	"fmt"
	"strconv"

	"ewintr.nl/ytsum/model"
	"miniflux.app/client"
)

type MinifluxInfo struct {
	Endpoint string
	ApiKey   string
}

type Miniflux struct {
	client *client.Client
}

func NewMiniflux(mflInfo MinifluxInfo) *Miniflux {
	return &Miniflux{
		client: client.New(mflInfo.Endpoint, mflInfo.ApiKey),
	}
}

// FeedVideos lists the youtube videos of a miniflux feed, oldest first.
// Entries that do not link to a youtube video are ignored.
func (m *Miniflux) FeedVideos(_ context.Context, feedRef string) ([]model.YoutubeVideoID, error) {
	feedID, err := strconv.ParseInt(feedRef, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid miniflux feed id %q", ErrEnumeration, feedRef)
	}

	result, err := m.client.FeedEntries(feedID, &client.Filter{
		Order:     "published_at",
		Direction: "asc",
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrEnumeration, err)
	}

	ids := []model.YoutubeVideoID{}
	for _, entry := range result.Entries {
		id, err := ResolveVideoID(entry.URL)
		if err != nil {
			continue
		}
		ids = append(ids, id)
	}

	return ids, nil
}
