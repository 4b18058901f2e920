package service

import (
	"context"
	"errors"
	"testing"

	"github.com/golang-jwt/jwt/v5"

	"bookshelf/internal/config"
	"bookshelf/internal/model"
)

type fakeVerifier struct {
	principals map[string]*model.Principal
	err        error
}

func (f *fakeVerifier) Verify(ctx context.Context, idToken string) (*model.Principal, error) {
	if f.err != nil {
		return nil, f.err
	}
	p, ok := f.principals[idToken]
	if !ok {
		return nil, model.ErrInvalidIDToken
	}
	return p, nil
}

func newAuthTestService(users *mockUserRepository, verifier *fakeVerifier) *AuthService {
	cfg := &config.Config{JWTSecret: "test-secret", AccessTokenMaxAge: 900}
	return NewAuthService(verifier, users, cfg)
}

func parseClaims(t *testing.T, token string) jwt.MapClaims {
	t.Helper()
	parsed, err := jwt.Parse(token, func(*jwt.Token) (interface{}, error) {
		return []byte("test-secret"), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		t.Fatalf("token does not verify: %v", err)
	}
	return parsed.Claims.(jwt.MapClaims)
}

func TestAuthService_CreateSession_Registered(t *testing.T) {
	// ARRANGE
	users := &mockUserRepository{
		getByUIDFn: func(ctx context.Context, uid string) (*model.User, error) {
			return &model.User{UID: uid, UserID: "alice"}, nil
		},
	}
	verifier := &fakeVerifier{principals: map[string]*model.Principal{
		"id-token": {UID: "uid-1", Email: "alice@example.com"},
	}}
	svc := newAuthTestService(users, verifier)

	// ACT
	session, err := svc.CreateSession(context.Background(), "id-token")

	// ASSERT
	if err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}
	if !session.Registered || session.UserID != "alice" || session.SuggestedUserID != "" {
		t.Errorf("session = %+v", session)
	}
	if session.ExpiresIn != 900 {
		t.Errorf("ExpiresIn = %d, want 900", session.ExpiresIn)
	}

	claims := parseClaims(t, session.AccessToken)
	if claims["uid"] != "uid-1" || claims["user_id"] != "alice" || claims["email"] != "alice@example.com" {
		t.Errorf("claims = %v", claims)
	}
}

func TestAuthService_CreateSession_NewAccount(t *testing.T) {
	verifier := &fakeVerifier{principals: map[string]*model.Principal{
		"id-token": {UID: "uid-2", Email: "new.reader+books@example.com"},
	}}
	svc := newAuthTestService(&mockUserRepository{}, verifier)

	session, err := svc.CreateSession(context.Background(), "id-token")

	if err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}
	if session.Registered || session.UserID != "" {
		t.Errorf("session = %+v, want unregistered", session)
	}
	if session.SuggestedUserID != "newreaderbooks" {
		t.Errorf("SuggestedUserID = %q", session.SuggestedUserID)
	}
	if claims := parseClaims(t, session.AccessToken); claims["user_id"] != "" {
		t.Errorf("user_id claim = %v, want empty", claims["user_id"])
	}
}

func TestAuthService_CreateSession_InvalidToken(t *testing.T) {
	tests := []struct {
		name     string
		token    string
		verifier *fakeVerifier
	}{
		{"empty", "", &fakeVerifier{}},
		{"unknown", "forged", &fakeVerifier{}},
		{"verifier failure", "id-token", &fakeVerifier{err: errors.New("certificate fetch failed")}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := newAuthTestService(&mockUserRepository{}, tt.verifier)

			_, err := svc.CreateSession(context.Background(), tt.token)

			if !errors.Is(err, model.ErrInvalidIDToken) {
				t.Fatalf("expected ErrInvalidIDToken, got %v", err)
			}
		})
	}
}
