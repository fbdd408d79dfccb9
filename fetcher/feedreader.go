package fetcher

import (
	"context"

	"ewintr.nl/ytsum/model"
)

const minifluxPrefix = "miniflux:"

type FeedReader interface {
	FeedVideos(ctx context.Context, feedRef string) ([]model.YoutubeVideoID, error)
}
