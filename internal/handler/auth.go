package handler

import (
	"net/http"
	"strings"

	"bookshelf/internal/httputil"
	"bookshelf/internal/model"
	"bookshelf/internal/service"
)

// AuthHandler exchanges identity-provider tokens for application sessions.
type AuthHandler struct {
	authService *service.AuthService
}

func NewAuthHandler(authService *service.AuthService) *AuthHandler {
	return &AuthHandler{
		authService: authService,
	}
}

// CreateSession handles POST /auth/session. The ID token may come in the JSON
// body or as a Bearer header.
func (h *AuthHandler) CreateSession(w http.ResponseWriter, r *http.Request) {
	var req model.SessionRequest
	if err := httputil.DecodeJSON(r, &req, true); err != nil {
		httputil.WriteBadRequest(w, "Invalid request body")
		return
	}
	if req.IDToken == "" {
		if auth := r.Header.Get("Authorization"); strings.HasPrefix(auth, "Bearer ") {
			req.IDToken = strings.TrimPrefix(auth, "Bearer ")
		}
	}
	if req.IDToken == "" {
		httputil.WriteBadRequest(w, "idToken is required")
		return
	}

	session, err := h.authService.CreateSession(r.Context(), req.IDToken)
	if err != nil {
		writeServiceError(w, "CreateSession handler", err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, session)
}
