package fetcher

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"ewintr.nl/ytsum/model"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/youtube/v3"
)

const pageSize = 50

type Youtube struct {
	Client *youtube.Service
}

func NewYoutube(client *youtube.Service) *Youtube {
	return &Youtube{Client: client}
}

// PlaylistVideos pages through all items of a playlist and returns the video
// ids in playlist order.
func (y *Youtube) PlaylistVideos(ctx context.Context, playlistID model.YoutubePlaylistID) ([]model.YoutubeVideoID, error) {
	ids := []model.YoutubeVideoID{}
	pageToken := ""
	for {
		call := y.Client.PlaylistItems.
			List([]string{"contentDetails"}).
			PlaylistId(string(playlistID)).
			MaxResults(pageSize).
			Context(ctx)
		if pageToken != "" {
			call.PageToken(pageToken)
		}

		response, err := call.Do()
		if err != nil {
			var apiErr *googleapi.Error
			if errors.As(err, &apiErr) && apiErr.Code == http.StatusNotFound {
				return nil, fmt.Errorf("%w: playlist %s not found", ErrEnumeration, playlistID)
			}
			return nil, fmt.Errorf("%w: %w", ErrEnumeration, err)
		}
		for _, item := range response.Items {
			if item.ContentDetails == nil || item.ContentDetails.VideoId == "" {
				continue
			}
			ids = append(ids, model.YoutubeVideoID(item.ContentDetails.VideoId))
		}

		pageToken = response.NextPageToken
		if pageToken == "" {
			return ids, nil
		}
	}
}

func (y *Youtube) FetchMetadata(ctx context.Context, ytIDs []model.YoutubeVideoID) (map[model.YoutubeVideoID]Metadata, error) {
	mds := make(map[model.YoutubeVideoID]Metadata, len(ytIDs))
	for start := 0; start < len(ytIDs); start += pageSize {
		end := min(start+pageSize, len(ytIDs))
		strIDs := make([]string, 0, end-start)
		for _, id := range ytIDs[start:end] {
			strIDs = append(strIDs, string(id))
		}

		response, err := y.Client.Videos.
			List([]string{"snippet"}).
			Id(strIDs...).
			Context(ctx).
			Do()
		if err != nil {
			return map[model.YoutubeVideoID]Metadata{}, err
		}
		for _, item := range response.Items {
			if item.Snippet == nil {
				continue
			}
			mds[model.YoutubeVideoID(item.Id)] = Metadata{
				Title:  item.Snippet.Title,
				Author: item.Snippet.ChannelTitle,
			}
		}
	}

	return mds, nil
}
