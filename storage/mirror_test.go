package storage

import (
	"context"
	"errors"
	"io"
	"testing"

	"ewintr.nl/ytsum/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/weaviate/weaviate/entities/models"
	"golang.org/x/exp/slog"
)

type memoryIndex struct {
	videos  map[model.YoutubeVideoID]model.VideoRecord
	resets  int
	failing bool
	found   []model.YoutubeVideoID
}

func newMemoryIndex() *memoryIndex {
	return &memoryIndex{videos: map[model.YoutubeVideoID]model.VideoRecord{}}
}

func (mi *memoryIndex) err() error {
	if mi.failing {
		return errors.New("index unavailable")
	}
	return nil
}

func (mi *memoryIndex) EnsureSchema(_ context.Context) error { return mi.err() }

func (mi *memoryIndex) Save(_ context.Context, video model.VideoRecord) error {
	if err := mi.err(); err != nil {
		return err
	}
	mi.videos[video.ID] = video
	return nil
}

func (mi *memoryIndex) Delete(_ context.Context, id model.YoutubeVideoID) error {
	if err := mi.err(); err != nil {
		return err
	}
	delete(mi.videos, id)
	return nil
}

func (mi *memoryIndex) Reset(_ context.Context) error {
	if err := mi.err(); err != nil {
		return err
	}
	mi.resets++
	mi.videos = map[model.YoutubeVideoID]model.VideoRecord{}
	return nil
}

func (mi *memoryIndex) Search(_ context.Context, _ string, _ int) ([]model.YoutubeVideoID, error) {
	return mi.found, mi.err()
}

func newTestMirror(t *testing.T) (*Mirror, *memoryIndex) {
	t.Helper()
	index := newMemoryIndex()
	mirror := NewMirror(newTestSQLite(t), index, slog.New(slog.NewTextHandler(io.Discard, nil)))
	require.NoError(t, mirror.Init(context.Background()))
	return mirror, index
}

func TestMirrorKeepsIndexInSync(t *testing.T) {
	mirror, index := newTestMirror(t)
	ctx := context.Background()

	require.NoError(t, mirror.Upsert(ctx, testVideo("a", "A")))
	require.NoError(t, mirror.Upsert(ctx, testVideo("b", "B")))
	assert.Len(t, index.videos, 2)

	deleted, err := mirror.Delete(ctx, "a")
	require.NoError(t, err)
	assert.True(t, deleted)
	assert.NotContains(t, index.videos, model.YoutubeVideoID("a"))

	require.NoError(t, mirror.Clear(ctx))
	assert.Empty(t, index.videos)
	assert.Equal(t, 1, index.resets)
}

func TestMirrorIndexFailureDoesNotFailWrite(t *testing.T) {
	mirror, index := newTestMirror(t)
	index.failing = true
	ctx := context.Background()

	require.NoError(t, mirror.Upsert(ctx, testVideo("a", "A")))
	act, err := mirror.Get(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, "A", act.Title)

	deleted, err := mirror.Delete(ctx, "a")
	require.NoError(t, err)
	assert.True(t, deleted)
}

func TestMirrorSearch(t *testing.T) {
	mirror, index := newTestMirror(t)
	ctx := context.Background()
	require.NoError(t, mirror.Upsert(ctx, testVideo("a", "A")))
	require.NoError(t, mirror.Upsert(ctx, testVideo("b", "B")))
	index.found = []model.YoutubeVideoID{"b", "gone", "a"}

	act, err := mirror.Search(ctx, "anything", 3)
	require.NoError(t, err)
	require.Len(t, act, 2)
	assert.Equal(t, model.YoutubeVideoID("b"), act[0].ID)
	assert.Equal(t, model.YoutubeVideoID("a"), act[1].ID)
}

func TestParseSearchResult(t *testing.T) {
	data := map[string]models.JSONObject{
		"Get": map[string]any{
			className: []any{
				map[string]any{"videoId": "v1"},
				map[string]any{"other": "x"},
				map[string]any{"videoId": "v2"},
			},
		},
	}
	assert.Equal(t, []model.YoutubeVideoID{"v1", "v2"}, parseSearchResult(data))
	assert.Empty(t, parseSearchResult(map[string]models.JSONObject{}))
}

func TestObjectIDIsDeterministic(t *testing.T) {
	assert.Equal(t, objectID("abc"), objectID("abc"))
	assert.NotEqual(t, objectID("abc"), objectID("abd"))
}
