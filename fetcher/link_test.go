package fetcher

import (
	"testing"

	"ewintr.nl/ytsum/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolveVideoID(t *testing.T) {
	for _, tc := range []struct {
		name string
		link string
		exp  model.YoutubeVideoID
	}{
		{name: "watch link with extra params", link: "https://www.youtube.com/watch?v=ABC123&t=5", exp: "ABC123"},
		{name: "short link", link: "https://youtu.be/XYZ789?si=foo", exp: "XYZ789"},
		{name: "v not first param", link: "https://www.youtube.com/watch?feature=share&v=QWE456", exp: "QWE456"},
		{name: "short link without query", link: "youtu.be/abc", exp: "abc"},
	} {
		t.Run(tc.name, func(t *testing.T) {
			act, err := ResolveVideoID(tc.link)
			require.NoError(t, err)
			assert.Equal(t, tc.exp, act)
		})
	}
}

func TestResolveVideoIDInvalid(t *testing.T) {
	for _, link := range []string{"not-a-link", "", "https://www.youtube.com/watch?v=", "https://youtu.be/?si=x"} {
		t.Run(link, func(t *testing.T) {
			_, err := ResolveVideoID(link)
			assert.ErrorIs(t, err, ErrInvalidLink)
		})
	}
}

func TestResolvePlaylistID(t *testing.T) {
	for _, tc := range []struct {
		name   string
		ref    string
		exp    model.YoutubePlaylistID
		expErr bool
	}{
		{name: "playlist url", ref: "https://www.youtube.com/playlist?list=PL9PLR7E2lKYqup&index=2", exp: "PL9PLR7E2lKYqup"},
		{name: "watch url in playlist", ref: "https://www.youtube.com/watch?v=abc&list=PLxyz", exp: "PLxyz"},
		{name: "bare id", ref: "PLabc_-123", exp: "PLabc_-123"},
		{name: "empty", ref: "", expErr: true},
		{name: "url without list", ref: "https://www.youtube.com/watch?v=abc", expErr: true},
		{name: "empty list param", ref: "https://www.youtube.com/playlist?list=", expErr: true},
	} {
		t.Run(tc.name, func(t *testing.T) {
			act, err := ResolvePlaylistID(tc.ref)
			if tc.expErr {
				assert.ErrorIs(t, err, ErrInvalidPlaylist)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.exp, act)
		})
	}
}
