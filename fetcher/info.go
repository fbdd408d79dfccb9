package fetcher

import (
	"context"

	"ewintr.nl/ytsum/model"
	"golang.org/x/exp/slog"
)

type VideoInfo struct {
	Transcript string
	Title      string
	Author     string
}

// Info combines the transcript with title and author. Only the transcript is
// required, missing metadata is replaced by placeholders.
type Info struct {
	transcripts TranscriptFetcher
	metadata    MetadataFetcher
	logger      *slog.Logger
}

// NewInfo creates an Info fetcher, metadata may be nil, in which case the
// details found next to the transcript are used.
func NewInfo(transcripts TranscriptFetcher, metadata MetadataFetcher, logger *slog.Logger) *Info {
	return &Info{
		transcripts: transcripts,
		metadata:    metadata,
		logger:      logger,
	}
}

func (i *Info) FetchInfo(ctx context.Context, videoID model.YoutubeVideoID) (VideoInfo, error) {
	tr, err := i.transcripts.FetchTranscript(ctx, string(videoID))
	if err != nil {
		return VideoInfo{}, err
	}
	info := VideoInfo{
		Transcript: tr.Text,
		Title:      tr.Title,
		Author:     tr.Author,
	}

	if i.metadata != nil {
		mds, err := i.metadata.FetchMetadata(ctx, []model.YoutubeVideoID{videoID})
		switch {
		case err != nil:
			i.logger.Warn("could not fetch metadata", slog.String("video", string(videoID)), slog.String("error", err.Error()))
		default:
			if md, ok := mds[videoID]; ok {
				if md.Title != "" {
					info.Title = md.Title
				}
				if md.Author != "" {
					info.Author = md.Author
				}
			}
		}
	}

	if info.Title == "" {
		info.Title = model.TitleUnavailable
	}
	if info.Author == "" {
		info.Author = model.AuthorUnavailable
	}

	return info, nil
}
