package model

import "time"

const (
	TitleUnavailable  = "title unavailable"
	AuthorUnavailable = "author unavailable"
)

type YoutubeVideoID string

type YoutubePlaylistID string

// VideoRecord is a processed video as it is kept in the history store.
type VideoRecord struct {
	ID         YoutubeVideoID `json:"id"`
	URL        string         `json:"url"`
	Title      string         `json:"title"`
	Author     string         `json:"author"`
	Summary    string         `json:"summary"`
	Transcript string         `json:"transcript"`
	CreatedAt  time.Time      `json:"created_at"`
}

func WatchURL(id YoutubeVideoID) string {
	return "https://www.youtube.com/watch?v=" + string(id)
}
