package process

import (
	"context"
	"fmt"

	"ewintr.nl/ytsum/fetcher"
	"ewintr.nl/ytsum/model"
	"golang.org/x/exp/slog"
)

const (
	StageResolve   = "invalid-link"
	StageFetch     = "fetch-error"
	StageSummarize = "summarize-error"
	StagePersist   = "persist-error"
)

// StageError tags an error with the processing stage it happened in.
type StageError struct {
	Stage   string
	VideoID model.YoutubeVideoID
	Err     error
}

func (se *StageError) Error() string {
	if se.VideoID == "" {
		return fmt.Sprintf("%s: %v", se.Stage, se.Err)
	}
	return fmt.Sprintf("%s for video %s: %v", se.Stage, se.VideoID, se.Err)
}

func (se *StageError) Unwrap() error {
	return se.Err
}

type InfoFetcher interface {
	FetchInfo(ctx context.Context, videoID model.YoutubeVideoID) (fetcher.VideoInfo, error)
}

// Processor fetches and summarizes a single video. Persisting the result is
// left to the caller.
type Processor struct {
	info       InfoFetcher
	summarizer Summarizer
	logger     *slog.Logger
}

func NewProcessor(info InfoFetcher, summarizer Summarizer, logger *slog.Logger) *Processor {
	return &Processor{
		info:       info,
		summarizer: summarizer,
		logger:     logger,
	}
}

func (p *Processor) ProcessLink(ctx context.Context, link string) (*model.VideoRecord, error) {
	videoID, err := fetcher.ResolveVideoID(link)
	if err != nil {
		return nil, &StageError{Stage: StageResolve, Err: err}
	}

	return p.ProcessID(ctx, videoID)
}

func (p *Processor) ProcessID(ctx context.Context, videoID model.YoutubeVideoID) (*model.VideoRecord, error) {
	p.logger.Debug("fetching video info", slog.String("video", string(videoID)))
	info, err := p.info.FetchInfo(ctx, videoID)
	if err != nil {
		return nil, &StageError{Stage: StageFetch, VideoID: videoID, Err: err}
	}

	p.logger.Debug("summarizing video", slog.String("video", string(videoID)), slog.Int("transcript", len(info.Transcript)))
	summary, err := p.summarizer.Summarize(ctx, info.Transcript, info.Title)
	if err != nil {
		return nil, &StageError{Stage: StageSummarize, VideoID: videoID, Err: err}
	}

	return &model.VideoRecord{
		ID:         videoID,
		URL:        model.WatchURL(videoID),
		Title:      info.Title,
		Author:     info.Author,
		Summary:    summary,
		Transcript: info.Transcript,
	}, nil
}
