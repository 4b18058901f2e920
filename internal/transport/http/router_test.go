package http

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"bookshelf/internal/catalog"
	"bookshelf/internal/config"
	"bookshelf/internal/docstore"
	"bookshelf/internal/handler"
	"bookshelf/internal/model"
	"bookshelf/internal/repository"
	"bookshelf/internal/service"
	"bookshelf/internal/validation"
)

const routerSecret = "router-secret"

type noCatalog struct{}

func (noCatalog) Search(ctx context.Context, params catalog.SearchParams) (*catalog.SearchResult, error) {
	if params.Query == "" {
		return nil, catalog.ErrMissingQuery
	}
	return &catalog.SearchResult{}, nil
}

type noVerifier struct{}

func (noVerifier) Verify(ctx context.Context, idToken string) (*model.Principal, error) {
	return nil, model.ErrInvalidIDToken
}

// newTestRouter wires the full router over an in-memory store with alice
// and bob already signed up.
func newTestRouter(t *testing.T) http.Handler {
	t.Helper()
	store := docstore.NewMemoryStore()
	users := repository.NewUserRepository(store)
	books := repository.NewBookRepository(store)
	userBooks := repository.NewUserBookRepository(store)
	likes := repository.NewLikeRepository(store)
	followers := repository.NewFollowerRepository(store)
	bookmarks := repository.NewBookmarkRepository(store)
	stats := repository.NewBookStatsRepository(store)
	v := validation.New()
	cfg := &config.Config{JWTSecret: routerSecret, AccessTokenMaxAge: 900}

	for _, id := range []string{"alice", "bob"} {
		if _, err := users.Create(context.Background(), &model.CreateUserRequest{
			UID: "uid-" + id, UserID: id, Nickname: id, Email: id + "@example.com",
			LibraryVisibility: model.VisibilityPublic,
		}); err != nil {
			t.Fatalf("create %s: %v", id, err)
		}
	}

	authService := service.NewAuthService(noVerifier{}, users, cfg)
	return NewRouter(RouterConfig{
		AuthHandler:    handler.NewAuthHandler(authService),
		UserHandler:    handler.NewUserHandler(service.NewUserService(users, followers, nil, v, nil), authService),
		LibraryHandler: handler.NewLibraryHandler(service.NewLibraryService(books, userBooks, users, followers, likes, noCatalog{}, v, nil)),
		SocialHandler:  handler.NewSocialHandler(service.NewSocialService(likes, followers, bookmarks, userBooks, users, books, noCatalog{}, nil)),
		StatsHandler:   handler.NewStatsHandler(service.NewStatsService(stats, books)),
		CatalogHandler: handler.NewCatalogHandler(noCatalog{}),
		JWTSecret:      routerSecret,
		CORSOrigins:    []string{"http://localhost:3000"},
	})
}

func bearer(t *testing.T, userID string) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"uid":     "uid-" + userID,
		"user_id": userID,
		"exp":     time.Now().Add(time.Hour).Unix(),
		"iat":     time.Now().Unix(),
	}).SignedString([]byte(routerSecret))
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	return "Bearer " + token
}

func call(t *testing.T, h http.Handler, method, path, userID string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if userID != "" {
		req.Header.Set("Authorization", bearer(t, userID))
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func errorCode(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var body struct {
		Error struct {
			Code string `json:"code"`
		} `json:"error"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decode error: %v", err)
	}
	return body.Error.Code
}

func TestRouter_LibraryAndLikes(t *testing.T) {
	// ARRANGE
	router := newTestRouter(t)
	register := map[string]interface{}{
		"isbn":     "8937460440",
		"status":   model.StatusReading,
		"isPublic": true,
		"rating":   5,
		"book":     map[string]string{"title": "Demian", "author": "Hermann Hesse"},
	}

	// ACT + ASSERT
	rec := call(t, router, http.MethodPost, "/books", "alice", register)
	if rec.Code != http.StatusCreated {
		t.Fatalf("register: status %d body %s", rec.Code, rec.Body.String())
	}
	var entry model.UserBook
	if err := json.NewDecoder(rec.Body).Decode(&entry); err != nil {
		t.Fatalf("decode entry: %v", err)
	}
	if entry.ID == "" || entry.Book == nil || entry.Book.Title != "Demian" {
		t.Fatalf("entry = %+v", entry)
	}

	rec = call(t, router, http.MethodPost, "/books", "alice", register)
	if rec.Code != http.StatusConflict || errorCode(t, rec) != model.CodeAlreadyRegistered {
		t.Errorf("duplicate register: status %d", rec.Code)
	}

	if rec = call(t, router, http.MethodPost, "/user-books/"+entry.ID+"/like", "bob", nil); rec.Code != http.StatusOK {
		t.Fatalf("like: status %d body %s", rec.Code, rec.Body.String())
	}
	rec = call(t, router, http.MethodPost, "/user-books/"+entry.ID+"/like", "bob", nil)
	if rec.Code != http.StatusConflict || errorCode(t, rec) != model.CodeAlreadyLiked {
		t.Errorf("second like: status %d", rec.Code)
	}
	if rec = call(t, router, http.MethodPost, "/user-books/"+entry.ID+"/like", "alice", nil); rec.Code != http.StatusBadRequest {
		t.Errorf("own like: status %d", rec.Code)
	}

	rec = call(t, router, http.MethodGet, "/user-books/"+entry.ID, "bob", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("get entry: status %d", rec.Code)
	}
	var seen model.UserBook
	if err := json.NewDecoder(rec.Body).Decode(&seen); err != nil {
		t.Fatalf("decode entry: %v", err)
	}
	if seen.LikesCount != 1 || !seen.IsLiked {
		t.Errorf("viewer sees likesCount=%d isLiked=%t", seen.LikesCount, seen.IsLiked)
	}

	if rec = call(t, router, http.MethodDelete, "/user-books/"+entry.ID, "bob", nil); rec.Code != http.StatusForbidden {
		t.Errorf("delete by other: status %d", rec.Code)
	}
	if rec = call(t, router, http.MethodDelete, "/user-books/"+entry.ID, "alice", nil); rec.Code != http.StatusNoContent {
		t.Errorf("delete by owner: status %d", rec.Code)
	}
	if rec = call(t, router, http.MethodGet, "/user-books/"+entry.ID, "", nil); rec.Code != http.StatusNotFound {
		t.Errorf("get deleted: status %d", rec.Code)
	}
}

func TestRouter_AuthGates(t *testing.T) {
	router := newTestRouter(t)

	tests := []struct {
		name       string
		method     string
		path       string
		userID     string
		wantStatus int
	}{
		{"health is public", http.MethodGet, "/health", "", http.StatusOK},
		{"me needs a token", http.MethodGet, "/me", "", http.StatusUnauthorized},
		{"me with profile", http.MethodGet, "/me", "alice", http.StatusOK},
		{"profiles are public", http.MethodGet, "/users/bob", "", http.StatusOK},
		{"unknown profile", http.MethodGet, "/users/ghost", "", http.StatusNotFound},
		{"follow needs a token", http.MethodPost, "/users/bob/follow", "", http.StatusUnauthorized},
		{"self follow", http.MethodPost, "/users/alice/follow", "alice", http.StatusBadRequest},
		{"no stats yet", http.MethodGet, "/books/8937460440/stats", "", http.StatusNotFound},
		{"bad limit", http.MethodGet, "/stats/popular?limit=zero", "", http.StatusBadRequest},
		{"search needs a query", http.MethodGet, "/api/aladin/search", "", http.StatusBadRequest},
		{"bookmark rejects non-isbn", http.MethodPost, "/bookmarks/1234567890_123", "alice", http.StatusBadRequest},
		{"bookmark rejects short isbn", http.MethodPost, "/bookmarks/12345", "alice", http.StatusBadRequest},
		{"unbookmark rejects non-isbn", http.MethodDelete, "/bookmarks/abcdefghij", "alice", http.StatusBadRequest},
		{"unbookmark unknown isbn", http.MethodDelete, "/bookmarks/8937460440", "alice", http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := call(t, router, tt.method, tt.path, tt.userID, nil)
			if rec.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d (body %s)", rec.Code, tt.wantStatus, rec.Body.String())
			}
		})
	}
}

func TestRouter_TokenWithoutProfile(t *testing.T) {
	router := newTestRouter(t)

	rec := call(t, router, http.MethodPost, "/bookmarks/8937460440", "", nil)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("anonymous bookmark: status %d", rec.Code)
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"uid": "uid-new",
		"exp": time.Now().Add(time.Hour).Unix(),
	}).SignedString([]byte(routerSecret))
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	req := httptest.NewRequest(http.MethodPost, "/bookmarks/8937460440", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusForbidden || errorCode(t, rec) != model.CodeProfileMissing {
		t.Errorf("bookmark without profile: status %d", rec.Code)
	}
}
