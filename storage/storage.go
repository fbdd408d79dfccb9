package storage

import (
	"context"
	"errors"

	"ewintr.nl/ytsum/model"
)

var ErrNotFound = errors.New("video not found")

// HistoryStore keeps exactly one record per video id. Every operation is
// atomic, implementations serialize their own writes.
type HistoryStore interface {
	Init(ctx context.Context) error
	Upsert(ctx context.Context, video *model.VideoRecord) error
	Get(ctx context.Context, id model.YoutubeVideoID) (model.VideoRecord, error)
	List(ctx context.Context) ([]model.VideoRecord, error)
	Delete(ctx context.Context, id model.YoutubeVideoID) (bool, error)
	Clear(ctx context.Context) error
	Close() error
}

type VectorIndex interface {
	EnsureSchema(ctx context.Context) error
	Save(ctx context.Context, video model.VideoRecord) error
	Delete(ctx context.Context, id model.YoutubeVideoID) error
	Reset(ctx context.Context) error
	Search(ctx context.Context, query string, limit int) ([]model.YoutubeVideoID, error)
}
