package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"bookshelf/internal/httputil"
	"bookshelf/internal/model"
	"bookshelf/internal/service"
	"bookshelf/internal/transport/http/middleware"
)

type LibraryHandler struct {
	libraryService *service.LibraryService
}

func NewLibraryHandler(libraryService *service.LibraryService) *LibraryHandler {
	return &LibraryHandler{
		libraryService: libraryService,
	}
}

// Register handles POST /books
func (h *LibraryHandler) Register(w http.ResponseWriter, r *http.Request) {
	userID, _ := middleware.GetUserIDFromContext(r.Context())

	var req model.RegisterBookRequest
	if err := httputil.DecodeJSON(r, &req, false); err != nil {
		httputil.WriteBadRequest(w, "Invalid request body")
		return
	}

	userBook, err := h.libraryService.RegisterBook(r.Context(), userID, &req)
	if err != nil {
		writeServiceError(w, "RegisterBook handler", err)
		return
	}

	httputil.WriteJSON(w, http.StatusCreated, userBook)
}

// ListLibrary handles GET /users/{userId}/books?status=
func (h *LibraryHandler) ListLibrary(w http.ResponseWriter, r *http.Request) {
	ownerID := chi.URLParam(r, "userId")
	viewerID, _ := middleware.GetUserIDFromContext(r.Context())

	status := r.URL.Query().Get("status")
	if status != "" && status != model.StatusReading && status != model.StatusCompleted {
		httputil.WriteBadRequest(w, "status must be reading or completed")
		return
	}

	books, err := h.libraryService.ListLibrary(r.Context(), ownerID, viewerID, status)
	if err != nil {
		writeServiceError(w, "ListLibrary handler", err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"userBooks": books,
		"count":     len(books),
	})
}

// GetUserBook handles GET /user-books/{id}
func (h *LibraryHandler) GetUserBook(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	viewerID, _ := middleware.GetUserIDFromContext(r.Context())

	userBook, err := h.libraryService.GetUserBook(r.Context(), id, viewerID)
	if err != nil {
		writeServiceError(w, "GetUserBook handler", err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, userBook)
}

// UpdateUserBook handles PATCH /user-books/{id}
func (h *LibraryHandler) UpdateUserBook(w http.ResponseWriter, r *http.Request) {
	userID, _ := middleware.GetUserIDFromContext(r.Context())
	id := chi.URLParam(r, "id")

	var req model.UpdateUserBookRequest
	if err := httputil.DecodeJSON(r, &req, false); err != nil {
		httputil.WriteBadRequest(w, "Invalid request body")
		return
	}

	userBook, err := h.libraryService.UpdateUserBook(r.Context(), userID, id, &req)
	if err != nil {
		writeServiceError(w, "UpdateUserBook handler", err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, userBook)
}

// DeleteUserBook handles DELETE /user-books/{id}
func (h *LibraryHandler) DeleteUserBook(w http.ResponseWriter, r *http.Request) {
	userID, _ := middleware.GetUserIDFromContext(r.Context())
	id := chi.URLParam(r, "id")

	if err := h.libraryService.DeleteUserBook(r.Context(), userID, id); err != nil {
		writeServiceError(w, "DeleteUserBook handler", err)
		return
	}

	httputil.WriteNoContent(w)
}

// GetBook handles GET /books/{isbn}
func (h *LibraryHandler) GetBook(w http.ResponseWriter, r *http.Request) {
	book, err := h.libraryService.GetBook(r.Context(), chi.URLParam(r, "isbn"))
	if err != nil {
		writeServiceError(w, "GetBook handler", err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, book)
}

// RecentBooks handles GET /books/recent?limit=
func (h *LibraryHandler) RecentBooks(w http.ResponseWriter, r *http.Request) {
	limit, ok := queryLimit(r, model.DefaultRecentBooksLimit, model.MaxListLimit)
	if !ok {
		httputil.WriteBadRequest(w, "limit must be a positive integer")
		return
	}

	books, err := h.libraryService.RecentBooks(r.Context(), limit)
	if err != nil {
		writeServiceError(w, "RecentBooks handler", err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"books": books,
		"count": len(books),
	})
}
