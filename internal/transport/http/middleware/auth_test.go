package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"bookshelf/internal/httputil"
	"bookshelf/internal/model"
)

const testSecret = "test-secret"

func signToken(t *testing.T, secret string, claims jwt.MapClaims) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return token
}

func validClaims(userID string) jwt.MapClaims {
	now := time.Now()
	return jwt.MapClaims{
		"uid":     "uid-1",
		"user_id": userID,
		"email":   "alice@example.com",
		"exp":     now.Add(time.Hour).Unix(),
		"iat":     now.Unix(),
	}
}

// echoIdentity writes the caller's user ID, or "anonymous".
var echoIdentity = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
	id, ok := GetIdentityFromContext(r.Context())
	if !ok {
		w.Write([]byte("anonymous"))
		return
	}
	w.Write([]byte(id.UID + "/" + id.UserID))
})

func errorCode(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var body httputil.ErrorResponse
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decode error body: %v", err)
	}
	return body.Error.Code
}

func TestAuthMiddleware(t *testing.T) {
	expired := validClaims("alice")
	expired["exp"] = time.Now().Add(-time.Minute).Unix()
	noUID := validClaims("alice")
	delete(noUID, "uid")

	tests := []struct {
		name       string
		setup      func(r *http.Request)
		wantStatus int
		wantCode   string
		wantBody   string
	}{
		{
			name: "bearer token",
			setup: func(r *http.Request) {
				r.Header.Set("Authorization", "Bearer "+signToken(t, testSecret, validClaims("alice")))
			},
			wantStatus: http.StatusOK,
			wantBody:   "uid-1/alice",
		},
		{
			name: "cookie token",
			setup: func(r *http.Request) {
				r.AddCookie(&http.Cookie{Name: "access_token", Value: signToken(t, testSecret, validClaims(""))})
			},
			wantStatus: http.StatusOK,
			wantBody:   "uid-1/",
		},
		{
			name:       "missing token",
			setup:      func(r *http.Request) {},
			wantStatus: http.StatusUnauthorized,
		},
		{
			name: "expired token",
			setup: func(r *http.Request) {
				r.Header.Set("Authorization", "Bearer "+signToken(t, testSecret, expired))
			},
			wantStatus: http.StatusUnauthorized,
			wantCode:   model.CodeTokenExpired,
		},
		{
			name: "wrong secret",
			setup: func(r *http.Request) {
				r.Header.Set("Authorization", "Bearer "+signToken(t, "other-secret", validClaims("alice")))
			},
			wantStatus: http.StatusUnauthorized,
			wantCode:   model.CodeTokenInvalid,
		},
		{
			name: "no uid claim",
			setup: func(r *http.Request) {
				r.Header.Set("Authorization", "Bearer "+signToken(t, testSecret, noUID))
			},
			wantStatus: http.StatusUnauthorized,
			wantCode:   model.CodeTokenInvalid,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/me", nil)
			tt.setup(req)
			rec := httptest.NewRecorder()

			AuthMiddleware(testSecret)(echoIdentity).ServeHTTP(rec, req)

			if rec.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
			if tt.wantBody != "" && rec.Body.String() != tt.wantBody {
				t.Errorf("body = %q, want %q", rec.Body.String(), tt.wantBody)
			}
			if tt.wantCode != "" {
				if code := errorCode(t, rec); code != tt.wantCode {
					t.Errorf("code = %q, want %q", code, tt.wantCode)
				}
			}
		})
	}
}

func TestOptionalAuth(t *testing.T) {
	handler := OptionalAuth(testSecret)(echoIdentity)

	anon := httptest.NewRecorder()
	handler.ServeHTTP(anon, httptest.NewRequest(http.MethodGet, "/users/alice", nil))
	if anon.Code != http.StatusOK || anon.Body.String() != "anonymous" {
		t.Errorf("anonymous: %d %q", anon.Code, anon.Body.String())
	}

	bad := httptest.NewRequest(http.MethodGet, "/users/alice", nil)
	bad.Header.Set("Authorization", "Bearer not-a-jwt")
	badRec := httptest.NewRecorder()
	handler.ServeHTTP(badRec, bad)
	if badRec.Code != http.StatusOK || badRec.Body.String() != "anonymous" {
		t.Errorf("invalid token should read as anonymous: %d %q", badRec.Code, badRec.Body.String())
	}

	good := httptest.NewRequest(http.MethodGet, "/users/alice", nil)
	good.Header.Set("Authorization", "Bearer "+signToken(t, testSecret, validClaims("bob")))
	goodRec := httptest.NewRecorder()
	handler.ServeHTTP(goodRec, good)
	if goodRec.Body.String() != "uid-1/bob" {
		t.Errorf("identified: %q", goodRec.Body.String())
	}
}

func TestRequireProfile(t *testing.T) {
	handler := AuthMiddleware(testSecret)(RequireProfile(echoIdentity))

	noProfile := httptest.NewRequest(http.MethodPost, "/books", nil)
	noProfile.Header.Set("Authorization", "Bearer "+signToken(t, testSecret, validClaims("")))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, noProfile)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("status = %d, want 403", rec.Code)
	}
	if code := errorCode(t, rec); code != model.CodeProfileMissing {
		t.Errorf("code = %q, want %q", code, model.CodeProfileMissing)
	}

	withProfile := httptest.NewRequest(http.MethodPost, "/books", nil)
	withProfile.Header.Set("Authorization", "Bearer "+signToken(t, testSecret, validClaims("alice")))
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, withProfile)
	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", rec.Code)
	}
	if userID, ok := GetUserIDFromContext(withProfile.Context()); ok || userID != "" {
		t.Error("original request context should not carry identity")
	}
}
