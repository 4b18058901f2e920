package handler

import (
	"errors"
	"mime"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"bookshelf/internal/httputil"
	"bookshelf/internal/model"
	"bookshelf/internal/service"
	"bookshelf/internal/transport/http/middleware"
)

// maxFormSize leaves room for the text fields next to a full-size image.
const maxFormSize = int64(model.MaxProfileImageBytes) + 1024*1024

type UserHandler struct {
	userService *service.UserService
	authService *service.AuthService
}

func NewUserHandler(userService *service.UserService, authService *service.AuthService) *UserHandler {
	return &UserHandler{
		userService: userService,
		authService: authService,
	}
}

type availabilityResponse struct {
	Available bool `json:"available"`
}

type signupResponse struct {
	User    *model.User    `json:"user"`
	Session *model.Session `json:"session"`
}

// CheckUserID handles GET /users/check-id?userId=
func (h *UserHandler) CheckUserID(w http.ResponseWriter, r *http.Request) {
	userID := strings.TrimSpace(r.URL.Query().Get("userId"))
	if userID == "" {
		httputil.WriteBadRequest(w, "Query parameter 'userId' is required")
		return
	}
	httputil.WriteJSON(w, http.StatusOK, availabilityResponse{
		Available: h.userService.CheckUserIDAvailable(r.Context(), userID),
	})
}

// CheckNickname handles GET /users/check-nickname?nickname=
func (h *UserHandler) CheckNickname(w http.ResponseWriter, r *http.Request) {
	nickname := strings.TrimSpace(r.URL.Query().Get("nickname"))
	if nickname == "" {
		httputil.WriteBadRequest(w, "Query parameter 'nickname' is required")
		return
	}
	httputil.WriteJSON(w, http.StatusOK, availabilityResponse{
		Available: h.userService.CheckNicknameAvailable(r.Context(), nickname),
	})
}

// Create handles POST /users. It accepts a JSON body, or a multipart form
// with an optional "photo" file. The response carries a fresh session whose
// token includes the new userId.
func (h *UserHandler) Create(w http.ResponseWriter, r *http.Request) {
	identity, ok := middleware.GetIdentityFromContext(r.Context())
	if !ok {
		httputil.WriteUnauthorized(w, "Unauthorized")
		return
	}

	var req model.CreateUserRequest
	var photo *model.ImageFile

	if isMultipart(r) {
		r.Body = http.MaxBytesReader(w, r.Body, maxFormSize)
		if err := r.ParseMultipartForm(maxFormSize); err != nil {
			writeFormError(w, err)
			return
		}
		req = createRequestFromForm(r)

		file, header, err := r.FormFile("photo")
		switch {
		case err == nil:
			defer file.Close()
			photo = &model.ImageFile{
				Filename:    header.Filename,
				ContentType: header.Header.Get("Content-Type"),
				Size:        header.Size,
				Body:        file,
			}
		case errors.Is(err, http.ErrMissingFile):
		default:
			httputil.WriteBadRequest(w, "Invalid photo upload")
			return
		}
	} else if err := httputil.DecodeJSON(r, &req, false); err != nil {
		httputil.WriteBadRequest(w, "Invalid request body")
		return
	}

	principal := &model.Principal{UID: identity.UID, Email: identity.Email}
	user, err := h.userService.CreateUser(r.Context(), principal, &req, photo)
	if err != nil {
		writeServiceError(w, "CreateUser handler", err)
		return
	}

	session, err := h.authService.IssueSession(principal, user.UserID)
	if err != nil {
		writeServiceError(w, "CreateUser handler", err)
		return
	}

	httputil.WriteJSON(w, http.StatusCreated, signupResponse{User: user, Session: session})
}

// GetMe handles GET /me
func (h *UserHandler) GetMe(w http.ResponseWriter, r *http.Request) {
	userID, _ := middleware.GetUserIDFromContext(r.Context())

	profile, err := h.userService.GetProfile(r.Context(), userID, userID)
	if err != nil {
		writeServiceError(w, "GetMe handler", err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, profile)
}

// UpdateMe handles PATCH /me
func (h *UserHandler) UpdateMe(w http.ResponseWriter, r *http.Request) {
	userID, _ := middleware.GetUserIDFromContext(r.Context())

	var req model.UpdateProfileRequest
	if err := httputil.DecodeJSON(r, &req, false); err != nil {
		httputil.WriteBadRequest(w, "Invalid request body")
		return
	}

	user, err := h.userService.UpdateProfile(r.Context(), userID, &req)
	if err != nil {
		writeServiceError(w, "UpdateMe handler", err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, user)
}

// UpdatePhoto handles POST /me/photo with a multipart "photo" file.
func (h *UserHandler) UpdatePhoto(w http.ResponseWriter, r *http.Request) {
	userID, _ := middleware.GetUserIDFromContext(r.Context())

	r.Body = http.MaxBytesReader(w, r.Body, maxFormSize)
	if err := r.ParseMultipartForm(maxFormSize); err != nil {
		writeFormError(w, err)
		return
	}

	file, header, err := r.FormFile("photo")
	if err != nil {
		httputil.WriteBadRequest(w, "Photo file is required")
		return
	}
	defer file.Close()

	user, err := h.userService.UpdatePhoto(r.Context(), userID, &model.ImageFile{
		Filename:    header.Filename,
		ContentType: header.Header.Get("Content-Type"),
		Size:        header.Size,
		Body:        file,
	})
	if err != nil {
		writeServiceError(w, "UpdatePhoto handler", err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, user)
}

// GetProfile handles GET /users/{userId}
func (h *UserHandler) GetProfile(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userId")
	viewerID, _ := middleware.GetUserIDFromContext(r.Context())

	profile, err := h.userService.GetProfile(r.Context(), userID, viewerID)
	if err != nil {
		writeServiceError(w, "GetProfile handler", err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, profile)
}

func isMultipart(r *http.Request) bool {
	mediaType, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	return err == nil && mediaType == "multipart/form-data"
}

func writeFormError(w http.ResponseWriter, err error) {
	var maxErr *http.MaxBytesError
	if errors.As(err, &maxErr) || strings.Contains(err.Error(), "request body too large") {
		httputil.WriteBadRequestWithCode(w, model.CodeFileTooLarge, "Image exceeds 5MB limit")
		return
	}
	httputil.WriteBadRequest(w, "Invalid form data")
}

// createRequestFromForm reads the signup fields of a multipart form. Optional
// fields left blank stay nil.
func createRequestFromForm(r *http.Request) model.CreateUserRequest {
	return model.CreateUserRequest{
		Email:             strings.TrimSpace(r.FormValue("email")),
		UserID:            strings.TrimSpace(r.FormValue("userId")),
		Nickname:          strings.TrimSpace(r.FormValue("nickname")),
		Gender:            formOptional(r, "gender"),
		Birth:             formOptional(r, "birth"),
		Bio:               formOptional(r, "bio"),
		LibraryVisibility: strings.TrimSpace(r.FormValue("libraryVisibility")),
	}
}

func formOptional(r *http.Request, key string) *string {
	v := strings.TrimSpace(r.FormValue(key))
	if v == "" {
		return nil
	}
	return &v
}
