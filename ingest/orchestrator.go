package ingest

import (
	"context"
	"errors"
	"sync"
	"time"

	"ewintr.nl/ytsum/fetcher"
	"ewintr.nl/ytsum/model"
	"ewintr.nl/ytsum/process"
	"ewintr.nl/ytsum/storage"
	"golang.org/x/exp/slog"
)

const (
	DefaultConcurrency   = 5
	DefaultCourtesyDelay = time.Second

	ReasonCancelled = "cancelled"
)

type VideoProcessor interface {
	ProcessID(ctx context.Context, videoID model.YoutubeVideoID) (*model.VideoRecord, error)
}

type job struct {
	position int
	videoID  model.YoutubeVideoID
}

// Orchestrator enumerates a playlist and processes its videos with a fixed
// size pool of workers. Every discovered video ends up as exactly one outcome
// in the report.
type Orchestrator struct {
	enumerator    fetcher.Enumerator
	processor     VideoProcessor
	store         storage.HistoryStore
	concurrency   int
	courtesyDelay time.Duration
	logger        *slog.Logger
}

func NewOrchestrator(enumerator fetcher.Enumerator, processor VideoProcessor, store storage.HistoryStore, concurrency int, courtesyDelay time.Duration, logger *slog.Logger) *Orchestrator {
	if concurrency <= 0 {
		concurrency = DefaultConcurrency
	}
	if courtesyDelay < 0 {
		courtesyDelay = 0
	}

	return &Orchestrator{
		enumerator:    enumerator,
		processor:     processor,
		store:         store,
		concurrency:   concurrency,
		courtesyDelay: courtesyDelay,
		logger:        logger,
	}
}

// Run ingests all videos of the playlist. An error is only returned when the
// playlist could not be enumerated, failures of single videos are part of
// the report. Reporting that error is up to the caller.
func (o *Orchestrator) Run(ctx context.Context, playlistRef string, concurrency int) (*model.IngestionReport, error) {
	report := model.NewIngestionReport(playlistRef)
	logger := o.logger.With(slog.String("run", report.RunID.String()))

	videoIDs, err := o.enumerator.Enumerate(ctx, playlistRef)
	if err != nil {
		return report, err
	}
	report.Discovered = len(videoIDs)
	if len(videoIDs) == 0 {
		logger.Info("playlist is empty", slog.String("playlist", playlistRef))
		return report, nil
	}

	if concurrency <= 0 {
		concurrency = o.concurrency
	}
	workers := min(concurrency, len(videoIDs))
	logger.Info("starting ingestion", slog.String("playlist", playlistRef), slog.Int("videos", len(videoIDs)), slog.Int("workers", workers))

	jobs := make(chan job, len(videoIDs))
	for i, videoID := range videoIDs {
		jobs <- job{position: i + 1, videoID: videoID}
	}
	close(jobs)

	results := make(chan model.Outcome, len(videoIDs))
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := range jobs {
				results <- o.process(ctx, j, len(videoIDs))
			}
		}()
	}
	go func() {
		wg.Wait()
		close(results)
	}()

	for outcome := range results {
		logOutcome(logger, outcome)
		report.Add(outcome)
	}
	logger.Info("ingestion finished", slog.Int("succeeded", report.Succeeded), slog.Int("skipped", report.Skipped), slog.Int("failed", report.Failed))

	return report, nil
}

func (o *Orchestrator) process(ctx context.Context, j job, total int) model.Outcome {
	outcome := model.Outcome{
		Position: j.position,
		Total:    total,
		VideoID:  j.videoID,
	}

	if err := ctx.Err(); err != nil {
		outcome.Status = model.OutcomeSkipped
		outcome.Reason = ReasonCancelled
		outcome.Err = err
		return outcome
	}

	video, err := o.processor.ProcessID(ctx, j.videoID)
	if err != nil {
		outcome.Status = model.OutcomeSkipped
		outcome.Reason = process.StageFetch
		var se *process.StageError
		if errors.As(err, &se) {
			outcome.Reason = se.Stage
		}
		outcome.Err = err
		return outcome
	}

	// a fully summarized video is kept even when the run is cancelled meanwhile
	if err := o.store.Upsert(context.WithoutCancel(ctx), video); err != nil {
		outcome.Status = model.OutcomeFailed
		outcome.Reason = process.StagePersist
		outcome.Err = err
		return outcome
	}

	o.pause(ctx)
	outcome.Status = model.OutcomeSuccess
	outcome.Title = video.Title
	outcome.Author = video.Author

	return outcome
}

func (o *Orchestrator) pause(ctx context.Context) {
	if o.courtesyDelay == 0 {
		return
	}
	timer := time.NewTimer(o.courtesyDelay)
	defer timer.Stop()
	select {
	case <-timer.C:
	case <-ctx.Done():
	}
}

func logOutcome(logger *slog.Logger, outcome model.Outcome) {
	attrs := []any{
		slog.Int("position", outcome.Position),
		slog.Int("total", outcome.Total),
		slog.String("video", string(outcome.VideoID)),
		slog.String("status", string(outcome.Status)),
	}
	switch outcome.Status {
	case model.OutcomeSuccess:
		logger.Info("video saved", append(attrs, slog.String("title", outcome.Title), slog.String("author", outcome.Author))...)
	case model.OutcomeSkipped:
		logger.Warn("video skipped", append(attrs, slog.String("reason", outcome.Reason), slog.String("error", outcome.Cause()))...)
	default:
		logger.Error("video failed", append(attrs, slog.String("reason", outcome.Reason), slog.String("error", outcome.Cause()))...)
	}
}
