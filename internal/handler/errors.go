package handler

import (
	"errors"
	"log"
	"net/http"
	"strconv"

	"bookshelf/internal/catalog"
	"bookshelf/internal/httputil"
	"bookshelf/internal/model"
)

// writeServiceError maps a domain error to its HTTP response. Anything it does
// not recognise is logged and reported as a 500 without the cause.
func writeServiceError(w http.ResponseWriter, op string, err error) {
	var validationErr *model.ValidationError
	var upstreamErr *catalog.UpstreamError

	switch {
	case errors.As(err, &validationErr):
		httputil.WriteValidationError(w, model.CodeValidation, validationErr.Fields)

	case errors.Is(err, model.ErrInvalidIDToken):
		httputil.WriteUnauthorizedWithCode(w, model.CodeTokenInvalid, "Invalid identity token")

	case errors.Is(err, model.ErrUserIDTaken):
		httputil.WriteConflictWithCode(w, model.CodeUserIDTaken, "User ID already in use")
	case errors.Is(err, model.ErrNicknameTaken):
		httputil.WriteConflictWithCode(w, model.CodeNicknameTaken, "Nickname already in use")
	case errors.Is(err, model.ErrProfileExists):
		httputil.WriteConflictWithCode(w, model.CodeProfileExists, "Profile already exists")
	case errors.Is(err, model.ErrAlreadyRegistered):
		httputil.WriteConflictWithCode(w, model.CodeAlreadyRegistered, "Book already registered in library")
	case errors.Is(err, model.ErrAlreadyLiked):
		httputil.WriteConflictWithCode(w, model.CodeAlreadyLiked, "Already liked")
	case errors.Is(err, model.ErrAlreadyFollowing):
		httputil.WriteConflictWithCode(w, model.CodeAlreadyFollowing, "Already following this user")
	case errors.Is(err, model.ErrAlreadyBookmarked):
		httputil.WriteConflictWithCode(w, model.CodeAlreadyBookmarked, "Book already bookmarked")

	case errors.Is(err, model.ErrNotUserBookOwner):
		httputil.WriteForbidden(w, "You do not own this library entry")
	case errors.Is(err, model.ErrLibraryPrivate):
		httputil.WriteError(w, http.StatusForbidden, model.CodeLibraryPrivate, "This library is not visible to you")

	case errors.Is(err, model.ErrUserNotFound):
		httputil.WriteNotFound(w, "User not found")
	case errors.Is(err, model.ErrBookNotFound):
		httputil.WriteNotFound(w, "Book not found")
	case errors.Is(err, model.ErrUserBookNotFound):
		httputil.WriteNotFound(w, "Library entry not found")
	case errors.Is(err, model.ErrLikeNotFound):
		httputil.WriteNotFound(w, "Like not found")
	case errors.Is(err, model.ErrNotFollowing):
		httputil.WriteNotFound(w, "Not following this user")
	case errors.Is(err, model.ErrBookmarkNotFound):
		httputil.WriteNotFound(w, "Bookmark not found")
	case errors.Is(err, model.ErrStatsNotFound):
		httputil.WriteNotFound(w, "No statistics for this book yet")

	case errors.Is(err, model.ErrCannotFollowSelf):
		httputil.WriteBadRequest(w, "You cannot follow yourself")
	case errors.Is(err, model.ErrCannotLikeOwn):
		httputil.WriteBadRequest(w, "You cannot like your own library entry")
	case errors.Is(err, model.ErrTooManyTags):
		httputil.WriteBadRequest(w, "Too many tags")
	case errors.Is(err, model.ErrFileTooLarge):
		httputil.WriteBadRequestWithCode(w, model.CodeFileTooLarge, "Image exceeds 5MB limit")
	case errors.Is(err, model.ErrInvalidImageType):
		httputil.WriteBadRequestWithCode(w, model.CodeInvalidImageType, "Only JPEG, PNG, GIF or WebP images are allowed")
	case errors.Is(err, model.ErrStorageDisabled):
		httputil.WriteError(w, http.StatusServiceUnavailable, httputil.ErrCodeInternal, "Image uploads are not available")

	case errors.Is(err, catalog.ErrMissingQuery):
		httputil.WriteBadRequest(w, "Query parameter 'query' is required")
	case errors.Is(err, catalog.ErrMissingKey):
		log.Printf("[ERROR] %s: %v", op, err)
		httputil.WriteInternalError(w, "Book search is not configured")
	case errors.As(err, &upstreamErr):
		log.Printf("[ERROR] %s: %v", op, err)
		httputil.WriteUpstreamError(w, upstreamErr.Status, "Aladin API error: "+upstreamErr.Reason)

	default:
		log.Printf("[ERROR] %s: %v", op, err)
		if model.IsPersistence(err) {
			httputil.WriteInternalError(w, err.Error())
			return
		}
		httputil.WriteInternalError(w, "Internal server error")
	}
}

// queryLimit reads ?limit=, falling back to def and capping at max.
func queryLimit(r *http.Request, def, max int) (int, bool) {
	raw := r.URL.Query().Get("limit")
	if raw == "" {
		return def, true
	}
	limit, err := strconv.Atoi(raw)
	if err != nil || limit < 1 {
		return 0, false
	}
	if limit > max {
		limit = max
	}
	return limit, true
}
