package fetcher

import (
	"errors"
	"strings"

	"ewintr.nl/ytsum/model"
)

var (
	ErrInvalidLink     = errors.New("invalid youtube link")
	ErrInvalidPlaylist = errors.New("invalid playlist reference")
)

// ResolveVideoID extracts the video id from a watch link (v= parameter) or a
// short link (youtu.be/).
func ResolveVideoID(link string) (model.YoutubeVideoID, error) {
	var id string
	switch {
	case strings.Contains(link, "v="):
		id = strings.SplitN(link, "v=", 2)[1]
		id, _, _ = strings.Cut(id, "&")
	case strings.Contains(link, "youtu.be/"):
		id = strings.SplitN(link, "youtu.be/", 2)[1]
		id, _, _ = strings.Cut(id, "?")
	}
	id = strings.TrimSpace(id)
	if id == "" {
		return "", ErrInvalidLink
	}

	return model.YoutubeVideoID(id), nil
}

// ResolvePlaylistID accepts a playlist url with a list= parameter, or a bare
// playlist id.
func ResolvePlaylistID(ref string) (model.YoutubePlaylistID, error) {
	ref = strings.TrimSpace(ref)
	if _, after, ok := strings.Cut(ref, "list="); ok {
		id, _, _ := strings.Cut(after, "&")
		if id == "" {
			return "", ErrInvalidPlaylist
		}
		return model.YoutubePlaylistID(id), nil
	}
	if ref == "" || strings.ContainsAny(ref, "/?&=: ") {
		return "", ErrInvalidPlaylist
	}

	return model.YoutubePlaylistID(ref), nil
}
