package process

import (
	"context"
	"errors"
	"io"
	"testing"

	"ewintr.nl/ytsum/fetcher"
	"ewintr.nl/ytsum/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/exp/slog"
)

type fakeInfo struct {
	calls []model.YoutubeVideoID
	info  fetcher.VideoInfo
	err   error
}

func (f *fakeInfo) FetchInfo(_ context.Context, videoID model.YoutubeVideoID) (fetcher.VideoInfo, error) {
	f.calls = append(f.calls, videoID)
	return f.info, f.err
}

type fakeSummarizer struct {
	calls   int
	summary string
	err     error
}

func (f *fakeSummarizer) Summarize(_ context.Context, transcript, _ string) (string, error) {
	f.calls++
	if transcript == "" {
		return "", ErrEmptyInput
	}
	return f.summary, f.err
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestProcessLink(t *testing.T) {
	t.Run("invalid link makes no calls", func(t *testing.T) {
		info, sum := &fakeInfo{}, &fakeSummarizer{}
		rec, err := NewProcessor(info, sum, testLogger()).ProcessLink(context.Background(), "not-a-link")
		assert.Nil(t, rec)
		assert.ErrorIs(t, err, fetcher.ErrInvalidLink)
		var se *StageError
		require.ErrorAs(t, err, &se)
		assert.Equal(t, StageResolve, se.Stage)
		assert.Empty(t, info.calls)
		assert.Zero(t, sum.calls)
	})

	t.Run("success", func(t *testing.T) {
		info := &fakeInfo{info: fetcher.VideoInfo{Transcript: "words", Title: "Title", Author: "Author"}}
		sum := &fakeSummarizer{summary: "- bullet"}
		rec, err := NewProcessor(info, sum, testLogger()).ProcessLink(context.Background(), "https://www.youtube.com/watch?v=ABC123&t=5")
		require.NoError(t, err)
		assert.Equal(t, &model.VideoRecord{
			ID:         "ABC123",
			URL:        "https://www.youtube.com/watch?v=ABC123",
			Title:      "Title",
			Author:     "Author",
			Summary:    "- bullet",
			Transcript: "words",
		}, rec)
		assert.Equal(t, []model.YoutubeVideoID{"ABC123"}, info.calls)
	})
}

func TestProcessIDStageErrors(t *testing.T) {
	fetchErr := fetcher.ErrTranscriptsDisabled
	genErr := errors.New("model overloaded")

	for _, tc := range []struct {
		name      string
		info      *fakeInfo
		sum       *fakeSummarizer
		expStage  string
		expErr    error
		expSumCnt int
	}{
		{
			name:      "fetch failure skips summarize",
			info:      &fakeInfo{err: fetchErr},
			sum:       &fakeSummarizer{summary: "x"},
			expStage:  StageFetch,
			expErr:    fetchErr,
			expSumCnt: 0,
		},
		{
			name:      "summarize failure",
			info:      &fakeInfo{info: fetcher.VideoInfo{Transcript: "words", Title: "t", Author: "a"}},
			sum:       &fakeSummarizer{err: genErr},
			expStage:  StageSummarize,
			expErr:    genErr,
			expSumCnt: 1,
		},
		{
			name:      "empty transcript",
			info:      &fakeInfo{info: fetcher.VideoInfo{Title: "t", Author: "a"}},
			sum:       &fakeSummarizer{summary: "x"},
			expStage:  StageSummarize,
			expErr:    ErrEmptyInput,
			expSumCnt: 1,
		},
	} {
		t.Run(tc.name, func(t *testing.T) {
			rec, err := NewProcessor(tc.info, tc.sum, testLogger()).ProcessID(context.Background(), "vid")
			assert.Nil(t, rec)
			assert.ErrorIs(t, err, tc.expErr)
			var se *StageError
			require.ErrorAs(t, err, &se)
			assert.Equal(t, tc.expStage, se.Stage)
			assert.Equal(t, model.YoutubeVideoID("vid"), se.VideoID)
			assert.Equal(t, tc.expSumCnt, tc.sum.calls)
		})
	}
}
