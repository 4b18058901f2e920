package handler

import (
	"net/http"
	"strconv"

	"bookshelf/internal/catalog"
	"bookshelf/internal/httputil"
)

// CatalogHandler proxies book searches so the Aladin key never reaches clients.
type CatalogHandler struct {
	searcher catalog.Searcher
}

func NewCatalogHandler(searcher catalog.Searcher) *CatalogHandler {
	return &CatalogHandler{
		searcher: searcher,
	}
}

// Search handles GET /api/aladin/search?query=&queryType=&maxResults=&start=&searchTarget=
func (h *CatalogHandler) Search(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	params := catalog.SearchParams{
		Query:        q.Get("query"),
		QueryType:    q.Get("queryType"),
		SearchTarget: q.Get("searchTarget"),
	}

	var err error
	if raw := q.Get("maxResults"); raw != "" {
		if params.MaxResults, err = strconv.Atoi(raw); err != nil {
			httputil.WriteBadRequest(w, "maxResults must be an integer")
			return
		}
	}
	if raw := q.Get("start"); raw != "" {
		if params.Start, err = strconv.Atoi(raw); err != nil {
			httputil.WriteBadRequest(w, "start must be an integer")
			return
		}
	}

	result, err := h.searcher.Search(r.Context(), params)
	if err != nil {
		writeServiceError(w, "CatalogSearch handler", err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, result)
}
