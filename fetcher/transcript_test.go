package fetcher

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const timedTextXML = `<?xml version="1.0" encoding="utf-8" ?><transcript>
<text start="0" dur="1.5">Ciao  a tutti</text>
<text start="1.5" dur="2">oggi parliamo di &amp;amp; Go</text>
<text start="3.5" dur="1"> </text>
</transcript>`

func newTranscriptServer(t *testing.T, playerJSON func(base string) string) (*httptest.Server, *int) {
	t.Helper()
	playerCalls := 0
	var srv *httptest.Server
	srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/watch":
			fmt.Fprintf(w, `<html><script>var ytInitialPlayerResponse = %s;var meta = {};</script></html>`, playerJSON(srv.URL))
		case "/player":
			playerCalls++
			fmt.Fprint(w, playerJSON(srv.URL))
		case "/timedtext":
			if r.URL.Query().Get("lang") != "it" {
				http.Error(w, "wrong track", http.StatusNotFound)
				return
			}
			fmt.Fprint(w, timedTextXML)
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(srv.Close)
	return srv, &playerCalls
}

func newTestTranscript(srv *httptest.Server) *YoutubeTranscript {
	yt := NewYoutubeTranscript(srv.Client(), []string{"it", "en"}, 0, discardLogger())
	yt.watchURL = srv.URL + "/watch"
	yt.playerURL = srv.URL + "/player"
	yt.retry = testRetry
	return yt
}

func TestYoutubeTranscriptFetch(t *testing.T) {
	srv, playerCalls := newTranscriptServer(t, func(base string) string {
		return fmt.Sprintf(`{"playabilityStatus":{"status":"OK"},
"videoDetails":{"title":"Go in {10} minuti","author":"Gopher \"Italia\""},
"captions":{"playerCaptionsTracklistRenderer":{"captionTracks":[
{"baseUrl":"%[1]s/timedtext?lang=en","languageCode":"en"},
{"baseUrl":"%[1]s/timedtext?lang=it&kind=asr","languageCode":"it","kind":"asr"},
{"baseUrl":"%[1]s/timedtext?lang=it","languageCode":"it"}]}}}`, base)
	})

	act, err := newTestTranscript(srv).FetchTranscript(context.Background(), "abc")
	require.NoError(t, err)
	assert.Equal(t, "Ciao a tutti\noggi parliamo di & Go", act.Text)
	assert.Equal(t, "Go in {10} minuti", act.Title)
	assert.Equal(t, `Gopher "Italia"`, act.Author)
	assert.Equal(t, 0, *playerCalls)
}

func TestYoutubeTranscriptDisabled(t *testing.T) {
	srv, playerCalls := newTranscriptServer(t, func(string) string {
		return `{"playabilityStatus":{"status":"OK"},"videoDetails":{"title":"t","author":"a"}}`
	})

	_, err := newTestTranscript(srv).FetchTranscript(context.Background(), "abc")
	assert.ErrorIs(t, err, ErrTranscriptsDisabled)
	assert.Equal(t, 0, *playerCalls)
}

func TestYoutubeTranscriptRetrievalFailed(t *testing.T) {
	srv, playerCalls := newTranscriptServer(t, func(string) string {
		return `{"playabilityStatus":{"status":"LOGIN_REQUIRED","reason":"Sign in to confirm you're not a bot"}}`
	})

	_, err := newTestTranscript(srv).FetchTranscript(context.Background(), "abc")
	assert.ErrorIs(t, err, ErrRetrievalFailed)
	assert.NotErrorIs(t, err, ErrTranscriptsDisabled)
	assert.Equal(t, 1, *playerCalls)
}

func TestPickBestTrack(t *testing.T) {
	tracks := []captionTrack{
		{BaseURL: "u1&exp=xpe", LanguageCode: "it"},
		{BaseURL: "u2", LanguageCode: "de"},
		{BaseURL: "u3", LanguageCode: "en-GB", Kind: "asr"},
	}

	act, ok := pickBestTrack(tracks, []string{"it"})
	require.True(t, ok)
	assert.Equal(t, "u3", act.BaseURL)

	act, ok = pickBestTrack(tracks, []string{"de"})
	require.True(t, ok)
	assert.Equal(t, "u2", act.BaseURL)

	_, ok = pickBestTrack(tracks[:1], []string{"it"})
	assert.False(t, ok)
}

func TestExtractJSON(t *testing.T) {
	in := []byte(`{"a":"}\"{","b":{"c":1}};var x = {}`)
	assert.Equal(t, `{"a":"}\"{","b":{"c":1}}`, string(extractJSON(in)))
	assert.Nil(t, extractJSON([]byte(`[1]`)))
	assert.Nil(t, extractJSON([]byte(`{"open":`)))
}
