package handler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"ewintr.nl/ytsum/history"
	"ewintr.nl/ytsum/model"
	"ewintr.nl/ytsum/process"
	"golang.org/x/exp/slog"
)

type LinkProcessor interface {
	ProcessLink(ctx context.Context, link string) (*model.VideoRecord, error)
}

type VideoAPI struct {
	view      *history.View
	processor LinkProcessor
	logger    *slog.Logger
}

func NewVideoAPI(view *history.View, processor LinkProcessor, logger *slog.Logger) *VideoAPI {
	return &VideoAPI{
		view:      view,
		processor: processor,
		logger:    logger,
	}
}

type respVideo struct {
	YoutubeID string    `json:"youtube_id"`
	URL       string    `json:"youtube_url"`
	Title     string    `json:"title"`
	Author    string    `json:"author"`
	Summary   string    `json:"summary"`
	CreatedAt time.Time `json:"created_at"`
}

func newRespVideo(video model.VideoRecord) respVideo {
	return respVideo{
		YoutubeID: string(video.ID),
		URL:       video.URL,
		Title:     video.Title,
		Author:    video.Author,
		Summary:   video.Summary,
		CreatedAt: video.CreatedAt,
	}
}

func (v *VideoAPI) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	videoID, _ := ShiftPath(r.URL.Path)

	switch {
	case r.Method == http.MethodGet && videoID == "":
		v.List(w, r)
	case r.Method == http.MethodGet:
		v.Get(w, r, model.YoutubeVideoID(videoID))
	case r.Method == http.MethodPost && videoID == "":
		v.Summarize(w, r)
	case r.Method == http.MethodDelete && videoID == "":
		v.Clear(w, r)
	case r.Method == http.MethodDelete:
		v.Delete(w, r, model.YoutubeVideoID(videoID))
	default:
		Error(w, http.StatusNotFound, "not found", fmt.Errorf("method %s with subpath %q was not registered in the video api", r.Method, videoID))
	}
}

func (v *VideoAPI) List(w http.ResponseWriter, r *http.Request) {
	resp := []respVideo{}
	for _, video := range v.view.Items() {
		resp = append(resp, newRespVideo(video))
	}

	if err := JSON(w, http.StatusOK, resp); err != nil {
		v.returnErr(r.Context(), w, http.StatusInternalServerError, "could not marshal response", err)
	}
}

func (v *VideoAPI) Get(w http.ResponseWriter, r *http.Request, videoID model.YoutubeVideoID) {
	video, ok := v.view.Get(videoID)
	if !ok {
		Error(w, http.StatusNotFound, "not found", fmt.Errorf("video %s is not in the history", videoID))
		return
	}

	resp := struct {
		respVideo
		Transcript string `json:"transcript"`
	}{newRespVideo(video), video.Transcript}
	if err := JSON(w, http.StatusOK, resp); err != nil {
		v.returnErr(r.Context(), w, http.StatusInternalServerError, "could not marshal response", err)
	}
}

func (v *VideoAPI) Summarize(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Link string `json:"link"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		Error(w, http.StatusBadRequest, "could not parse request", err)
		return
	}

	video, err := v.processor.ProcessLink(r.Context(), req.Link)
	if err != nil {
		status := http.StatusBadGateway
		var se *process.StageError
		if errors.As(err, &se) {
			switch se.Stage {
			case process.StageResolve:
				status = http.StatusBadRequest
			case process.StageFetch:
				status = http.StatusUnprocessableEntity
			}
		}
		v.returnErr(r.Context(), w, status, "could not summarize video", err)
		return
	}

	if err := v.view.Add(r.Context(), video); err != nil {
		v.returnErr(r.Context(), w, http.StatusInternalServerError, "could not save video", err)
		return
	}

	if err := JSON(w, http.StatusCreated, newRespVideo(*video)); err != nil {
		v.returnErr(r.Context(), w, http.StatusInternalServerError, "could not marshal response", err)
	}
}

func (v *VideoAPI) Delete(w http.ResponseWriter, r *http.Request, videoID model.YoutubeVideoID) {
	deleted, err := v.view.Delete(r.Context(), videoID)
	if err != nil {
		v.returnErr(r.Context(), w, http.StatusInternalServerError, "could not delete video", err)
		return
	}
	if !deleted {
		Error(w, http.StatusNotFound, "not found", fmt.Errorf("video %s is not in the history", videoID))
		return
	}

	Message(w, http.StatusOK, "video deleted", videoID)
}

func (v *VideoAPI) Clear(w http.ResponseWriter, r *http.Request) {
	if err := v.view.Clear(r.Context()); err != nil {
		v.returnErr(r.Context(), w, http.StatusInternalServerError, "could not clear history", err)
		return
	}

	Message(w, http.StatusOK, "history cleared")
}

func (v *VideoAPI) returnErr(_ context.Context, w http.ResponseWriter, status int, message string, err error, details ...any) {
	v.logger.Error(message, slog.String("err", err.Error()), slog.String("details", fmt.Sprintf("%+v", details)))
	Error(w, status, message, err, details...)
}
