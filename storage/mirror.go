package storage

import (
	"context"
	"errors"

	"ewintr.nl/ytsum/model"
	"golang.org/x/exp/slog"
)

// Mirror copies every change of the history store to a vector index. The
// history store stays the source of truth: index failures are logged and do
// not fail the write.
type Mirror struct {
	HistoryStore
	index  VectorIndex
	logger *slog.Logger
}

func NewMirror(store HistoryStore, index VectorIndex, logger *slog.Logger) *Mirror {
	return &Mirror{
		HistoryStore: store,
		index:        index,
		logger:       logger,
	}
}

func (m *Mirror) Init(ctx context.Context) error {
	if err := m.HistoryStore.Init(ctx); err != nil {
		return err
	}
	if err := m.index.EnsureSchema(ctx); err != nil {
		m.logger.Warn("could not prepare vector index", slog.String("error", err.Error()))
	}

	return nil
}

func (m *Mirror) Upsert(ctx context.Context, video *model.VideoRecord) error {
	if err := m.HistoryStore.Upsert(ctx, video); err != nil {
		return err
	}
	if err := m.index.Save(ctx, *video); err != nil {
		m.logger.Warn("could not save video in vector index", slog.String("video", string(video.ID)), slog.String("error", err.Error()))
	}

	return nil
}

func (m *Mirror) Delete(ctx context.Context, id model.YoutubeVideoID) (bool, error) {
	deleted, err := m.HistoryStore.Delete(ctx, id)
	if err != nil {
		return false, err
	}
	if err := m.index.Delete(ctx, id); err != nil {
		m.logger.Warn("could not delete video from vector index", slog.String("video", string(id)), slog.String("error", err.Error()))
	}

	return deleted, nil
}

func (m *Mirror) Clear(ctx context.Context) error {
	if err := m.HistoryStore.Clear(ctx); err != nil {
		return err
	}
	if err := m.index.Reset(ctx); err != nil {
		m.logger.Warn("could not reset vector index", slog.String("error", err.Error()))
	}

	return nil
}

// Search looks up the closest videos in the index and returns them as stored
// in the history. Videos that are indexed but no longer stored are skipped.
func (m *Mirror) Search(ctx context.Context, query string, limit int) ([]model.VideoRecord, error) {
	ids, err := m.index.Search(ctx, query, limit)
	if err != nil {
		return nil, err
	}

	videos := []model.VideoRecord{}
	for _, id := range ids {
		video, err := m.HistoryStore.Get(ctx, id)
		switch {
		case errors.Is(err, ErrNotFound):
			continue
		case err != nil:
			return nil, err
		}
		videos = append(videos, video)
	}

	return videos, nil
}
