package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"bookshelf/internal/httputil"
	"bookshelf/internal/model"
	"bookshelf/internal/service"
	"bookshelf/internal/transport/http/middleware"
	"bookshelf/internal/validation"
)

// SocialHandler serves likes, follows and bookmarks.
type SocialHandler struct {
	socialService *service.SocialService
}

func NewSocialHandler(socialService *service.SocialService) *SocialHandler {
	return &SocialHandler{
		socialService: socialService,
	}
}

type likeResponse struct {
	UserBookID string `json:"userBookId"`
	Liked      bool   `json:"liked"`
}

type followResponse struct {
	UserID    string `json:"userId"`
	Following bool   `json:"following"`
}

// Like handles POST /user-books/{id}/like
func (h *SocialHandler) Like(w http.ResponseWriter, r *http.Request) {
	userID, _ := middleware.GetUserIDFromContext(r.Context())
	userBookID := chi.URLParam(r, "id")

	if err := h.socialService.Like(r.Context(), userID, userBookID); err != nil {
		writeServiceError(w, "Like handler", err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, likeResponse{UserBookID: userBookID, Liked: true})
}

// Unlike handles DELETE /user-books/{id}/like
func (h *SocialHandler) Unlike(w http.ResponseWriter, r *http.Request) {
	userID, _ := middleware.GetUserIDFromContext(r.Context())
	userBookID := chi.URLParam(r, "id")

	if err := h.socialService.Unlike(r.Context(), userID, userBookID); err != nil {
		writeServiceError(w, "Unlike handler", err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, likeResponse{UserBookID: userBookID, Liked: false})
}

// ListLikes handles GET /user-books/{id}/likes
func (h *SocialHandler) ListLikes(w http.ResponseWriter, r *http.Request) {
	likes, err := h.socialService.ListLikes(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeServiceError(w, "ListLikes handler", err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"likes": likes,
		"count": len(likes),
	})
}

// Follow handles POST /users/{userId}/follow
func (h *SocialHandler) Follow(w http.ResponseWriter, r *http.Request) {
	followerID, _ := middleware.GetUserIDFromContext(r.Context())
	followingID := chi.URLParam(r, "userId")

	if err := h.socialService.Follow(r.Context(), followerID, followingID); err != nil {
		writeServiceError(w, "Follow handler", err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, followResponse{UserID: followingID, Following: true})
}

// Unfollow handles DELETE /users/{userId}/follow
func (h *SocialHandler) Unfollow(w http.ResponseWriter, r *http.Request) {
	followerID, _ := middleware.GetUserIDFromContext(r.Context())
	followingID := chi.URLParam(r, "userId")

	if err := h.socialService.Unfollow(r.Context(), followerID, followingID); err != nil {
		writeServiceError(w, "Unfollow handler", err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, followResponse{UserID: followingID, Following: false})
}

// GetFollowers handles GET /users/{userId}/followers
func (h *SocialHandler) GetFollowers(w http.ResponseWriter, r *http.Request) {
	viewerID, _ := middleware.GetUserIDFromContext(r.Context())

	resp, err := h.socialService.GetFollowers(r.Context(), chi.URLParam(r, "userId"), viewerID)
	if err != nil {
		writeServiceError(w, "GetFollowers handler", err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, resp)
}

// GetFollowings handles GET /users/{userId}/followings
func (h *SocialHandler) GetFollowings(w http.ResponseWriter, r *http.Request) {
	viewerID, _ := middleware.GetUserIDFromContext(r.Context())

	resp, err := h.socialService.GetFollowings(r.Context(), chi.URLParam(r, "userId"), viewerID)
	if err != nil {
		writeServiceError(w, "GetFollowings handler", err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, resp)
}

// Bookmark handles POST /bookmarks/{isbn}. The body may carry catalog
// metadata for books the server has not stored yet.
func (h *SocialHandler) Bookmark(w http.ResponseWriter, r *http.Request) {
	userID, _ := middleware.GetUserIDFromContext(r.Context())
	isbn := chi.URLParam(r, "isbn")
	if !validation.ValidISBN(isbn) {
		writeInvalidISBN(w)
		return
	}

	var req model.BookmarkRequest
	if err := httputil.DecodeJSON(r, &req, true); err != nil {
		httputil.WriteBadRequest(w, "Invalid request body")
		return
	}

	mark, err := h.socialService.Bookmark(r.Context(), userID, isbn, req.Book)
	if err != nil {
		writeServiceError(w, "Bookmark handler", err)
		return
	}

	httputil.WriteJSON(w, http.StatusCreated, mark)
}

// Unbookmark handles DELETE /bookmarks/{isbn}
func (h *SocialHandler) Unbookmark(w http.ResponseWriter, r *http.Request) {
	userID, _ := middleware.GetUserIDFromContext(r.Context())
	isbn := chi.URLParam(r, "isbn")
	if !validation.ValidISBN(isbn) {
		writeInvalidISBN(w)
		return
	}

	if err := h.socialService.Unbookmark(r.Context(), userID, isbn); err != nil {
		writeServiceError(w, "Unbookmark handler", err)
		return
	}

	httputil.WriteNoContent(w)
}

// ListBookmarks handles GET /me/bookmarks
func (h *SocialHandler) ListBookmarks(w http.ResponseWriter, r *http.Request) {
	userID, _ := middleware.GetUserIDFromContext(r.Context())

	marks, err := h.socialService.ListBookmarks(r.Context(), userID)
	if err != nil {
		writeServiceError(w, "ListBookmarks handler", err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"bookmarks": marks,
		"count":     len(marks),
	})
}

func writeInvalidISBN(w http.ResponseWriter) {
	httputil.WriteValidationError(w, model.CodeValidation, map[string]string{
		"isbn": "must be a 10 or 13 digit ISBN",
	})
}
