package fetcher

import (
	"context"

	"ewintr.nl/ytsum/model"
)

type Metadata struct {
	Title  string
	Author string
}

type MetadataFetcher interface {
	FetchMetadata(ctx context.Context, ids []model.YoutubeVideoID) (map[model.YoutubeVideoID]Metadata, error)
}

type TranscriptFetcher interface {
	FetchTranscript(ctx context.Context, videoID string) (Transcript, error)
}
