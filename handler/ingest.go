package handler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"ewintr.nl/ytsum/fetcher"
	"ewintr.nl/ytsum/history"
	"ewintr.nl/ytsum/model"
	"golang.org/x/exp/slog"
)

type Ingester interface {
	Run(ctx context.Context, playlistRef string, concurrency int) (*model.IngestionReport, error)
}

type IngestAPI struct {
	ingester Ingester
	view     *history.View
	logger   *slog.Logger
}

func NewIngestAPI(ingester Ingester, view *history.View, logger *slog.Logger) *IngestAPI {
	return &IngestAPI{
		ingester: ingester,
		view:     view,
		logger:   logger,
	}
}

func (i *IngestAPI) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	sub, _ := ShiftPath(r.URL.Path)
	if r.Method != http.MethodPost || sub != "" {
		Error(w, http.StatusNotFound, "not found", fmt.Errorf("method %s with subpath %q was not registered in the ingest api", r.Method, sub))
		return
	}

	var req struct {
		Playlist    string `json:"playlist"`
		Concurrency int    `json:"concurrency"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		Error(w, http.StatusBadRequest, "could not parse request", err)
		return
	}
	if req.Playlist == "" {
		Error(w, http.StatusBadRequest, "missing playlist", errors.New("field playlist is required"))
		return
	}

	report, err := i.ingester.Run(r.Context(), req.Playlist, req.Concurrency)
	if err != nil {
		status := http.StatusBadGateway
		if errors.Is(err, fetcher.ErrInvalidPlaylist) {
			status = http.StatusBadRequest
		}
		i.logger.Error("could not ingest playlist", slog.String("playlist", req.Playlist), slog.String("err", err.Error()))
		Error(w, status, "could not ingest playlist", err)
		return
	}

	if err := i.view.Refresh(r.Context()); err != nil {
		i.logger.Warn("could not refresh history", slog.String("err", err.Error()))
	}
	if err := JSON(w, http.StatusOK, report); err != nil {
		Error(w, http.StatusInternalServerError, "could not marshal response", err)
	}
}
