package fetcher

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"ewintr.nl/ytsum/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/api/option"
	"google.golang.org/api/youtube/v3"
)

func newTestYoutube(t *testing.T, handler http.HandlerFunc) *Youtube {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	svc, err := youtube.NewService(context.Background(),
		option.WithEndpoint(srv.URL+"/"),
		option.WithoutAuthentication(),
	)
	require.NoError(t, err)
	return NewYoutube(svc)
}

func TestYoutubePlaylistVideos(t *testing.T) {
	var playlistIDs []string
	yt := newTestYoutube(t, func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasSuffix(r.URL.Path, "/playlistItems") {
			http.NotFound(w, r)
			return
		}
		playlistIDs = append(playlistIDs, r.URL.Query().Get("playlistId"))
		switch r.URL.Query().Get("pageToken") {
		case "":
			fmt.Fprint(w, `{"items":[{"contentDetails":{"videoId":"v1"}},{"contentDetails":{"videoId":"v2"}},{}],"nextPageToken":"p2"}`)
		case "p2":
			fmt.Fprint(w, `{"items":[{"contentDetails":{"videoId":"v3"}}]}`)
		}
	})

	act, err := yt.PlaylistVideos(context.Background(), "PL1")
	require.NoError(t, err)
	assert.Equal(t, []model.YoutubeVideoID{"v1", "v2", "v3"}, act)
	assert.Equal(t, []string{"PL1", "PL1"}, playlistIDs)
}

func TestYoutubePlaylistVideosNotFound(t *testing.T) {
	yt := newTestYoutube(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusNotFound)
		fmt.Fprint(w, `{"error":{"code":404,"message":"playlist not found"}}`)
	})

	_, err := yt.PlaylistVideos(context.Background(), "PLmissing")
	assert.ErrorIs(t, err, ErrEnumeration)
}

func TestYoutubeFetchMetadata(t *testing.T) {
	yt := newTestYoutube(t, func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasSuffix(r.URL.Path, "/videos") {
			http.NotFound(w, r)
			return
		}
		fmt.Fprint(w, `{"items":[{"id":"v1","snippet":{"title":"First","channelTitle":"Chan"}},{"id":"v2"}]}`)
	})

	act, err := yt.FetchMetadata(context.Background(), []model.YoutubeVideoID{"v1", "v2"})
	require.NoError(t, err)
	assert.Equal(t, map[model.YoutubeVideoID]Metadata{"v1": {Title: "First", Author: "Chan"}}, act)
}

type fakeFeeds struct {
	refs []string
}

func (f *fakeFeeds) FeedVideos(_ context.Context, feedRef string) ([]model.YoutubeVideoID, error) {
	f.refs = append(f.refs, feedRef)
	return []model.YoutubeVideoID{"f1"}, nil
}

func TestPlaylistSourceEnumerate(t *testing.T) {
	yt := newTestYoutube(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"items":[{"contentDetails":{"videoId":"v1"}}]}`)
	})
	feeds := &fakeFeeds{}

	t.Run("youtube playlist", func(t *testing.T) {
		act, err := NewPlaylistSource(yt, feeds).Enumerate(context.Background(), "https://www.youtube.com/playlist?list=PL1")
		require.NoError(t, err)
		assert.Equal(t, []model.YoutubeVideoID{"v1"}, act)
	})

	t.Run("miniflux feed", func(t *testing.T) {
		act, err := NewPlaylistSource(yt, feeds).Enumerate(context.Background(), "miniflux:42")
		require.NoError(t, err)
		assert.Equal(t, []model.YoutubeVideoID{"f1"}, act)
		assert.Equal(t, []string{"42"}, feeds.refs)
	})

	t.Run("invalid reference", func(t *testing.T) {
		_, err := NewPlaylistSource(yt, feeds).Enumerate(context.Background(), "https://example.com/nothing")
		assert.ErrorIs(t, err, ErrEnumeration)
		assert.ErrorIs(t, err, ErrInvalidPlaylist)
	})

	t.Run("not configured", func(t *testing.T) {
		_, err := NewPlaylistSource(nil, nil).Enumerate(context.Background(), "PL1")
		assert.ErrorIs(t, err, ErrEnumeration)
		_, err = NewPlaylistSource(nil, nil).Enumerate(context.Background(), "miniflux:1")
		assert.ErrorIs(t, err, ErrEnumeration)
	})
}

func TestMinifluxFeedVideos(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasSuffix(r.URL.Path, "/feeds/7/entries") {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"total":3,"entries":[
{"id":1,"feed_id":7,"url":"https://www.youtube.com/watch?v=m1"},
{"id":2,"feed_id":7,"url":"https://example.com/post"},
{"id":3,"feed_id":7,"url":"https://youtu.be/m2"}]}`)
	}))
	defer srv.Close()

	mflx := NewMiniflux(MinifluxInfo{Endpoint: srv.URL, ApiKey: "key"})
	act, err := mflx.FeedVideos(context.Background(), "7")
	require.NoError(t, err)
	assert.Equal(t, []model.YoutubeVideoID{"m1", "m2"}, act)

	_, err = mflx.FeedVideos(context.Background(), "seven")
	assert.ErrorIs(t, err, ErrEnumeration)
}
