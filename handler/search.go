package handler

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"ewintr.nl/ytsum/model"
	"golang.org/x/exp/slog"
)

const defaultSearchLimit = 5

type Searcher interface {
	Search(ctx context.Context, query string, limit int) ([]model.VideoRecord, error)
}

type SearchAPI struct {
	searcher Searcher
	logger   *slog.Logger
}

func NewSearchAPI(searcher Searcher, logger *slog.Logger) *SearchAPI {
	return &SearchAPI{
		searcher: searcher,
		logger:   logger,
	}
}

func (s *SearchAPI) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	sub, _ := ShiftPath(r.URL.Path)
	if r.Method != http.MethodGet || sub != "" {
		Error(w, http.StatusNotFound, "not found", fmt.Errorf("method %s with subpath %q was not registered in the search api", r.Method, sub))
		return
	}
	if s.searcher == nil {
		Error(w, http.StatusNotFound, "not found", errors.New("no search index configured"))
		return
	}

	query := r.URL.Query().Get("q")
	if query == "" {
		Error(w, http.StatusBadRequest, "missing query", errors.New("parameter q is required"))
		return
	}
	limit := defaultSearchLimit
	if l := r.URL.Query().Get("limit"); l != "" {
		var err error
		limit, err = strconv.Atoi(l)
		if err != nil || limit <= 0 {
			Error(w, http.StatusBadRequest, "invalid limit", fmt.Errorf("limit %q is not a positive number", l))
			return
		}
	}

	videos, err := s.searcher.Search(r.Context(), query, limit)
	if err != nil {
		s.logger.Error("could not search", slog.String("query", query), slog.String("err", err.Error()))
		Error(w, http.StatusInternalServerError, "could not search", err)
		return
	}

	resp := []respVideo{}
	for _, video := range videos {
		resp = append(resp, newRespVideo(video))
	}
	if err := JSON(w, http.StatusOK, resp); err != nil {
		Error(w, http.StatusInternalServerError, "could not marshal response", err)
	}
}
