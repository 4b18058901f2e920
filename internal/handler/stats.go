package handler

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"bookshelf/internal/httputil"
	"bookshelf/internal/model"
	"bookshelf/internal/service"
)

// StatsHandler serves the aggregates written by the stats worker.
type StatsHandler struct {
	statsService *service.StatsService
}

func NewStatsHandler(statsService *service.StatsService) *StatsHandler {
	return &StatsHandler{
		statsService: statsService,
	}
}

// GetBookStats handles GET /books/{isbn}/stats
func (h *StatsHandler) GetBookStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.statsService.GetBookStats(r.Context(), chi.URLParam(r, "isbn"))
	if err != nil {
		writeServiceError(w, "GetBookStats handler", err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, stats)
}

// Popular handles GET /stats/popular?limit=
func (h *StatsHandler) Popular(w http.ResponseWriter, r *http.Request) {
	h.list(w, r, "Popular handler", h.statsService.Popular)
}

// TopRated handles GET /stats/top-rated?limit=
func (h *StatsHandler) TopRated(w http.ResponseWriter, r *http.Request) {
	h.list(w, r, "TopRated handler", h.statsService.TopRated)
}

func (h *StatsHandler) list(w http.ResponseWriter, r *http.Request, op string, fetch func(ctx context.Context, limit int) ([]model.BookStats, error)) {
	limit, ok := queryLimit(r, model.DefaultStatsLimit, model.MaxListLimit)
	if !ok {
		httputil.WriteBadRequest(w, "limit must be a positive integer")
		return
	}

	stats, err := fetch(r.Context(), limit)
	if err != nil {
		writeServiceError(w, op, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"books": stats,
		"count": len(stats),
	})
}
