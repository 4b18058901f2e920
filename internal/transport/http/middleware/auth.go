package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"

	"bookshelf/internal/httputil"
	"bookshelf/internal/model"
)

// contextKey is a custom type for context keys to avoid collisions
type contextKey string

const (
	// IdentityKey is the context key for the authenticated caller
	IdentityKey contextKey = "identity"
)

// Identity is the caller as asserted by a valid access token. UserID is
// empty until the account has created a profile.
type Identity struct {
	UID    string
	UserID string
	Email  string
}

// AuthMiddleware rejects requests without a valid access token.
// Checks Authorization header first, then falls back to the access_token cookie.
func AuthMiddleware(jwtSecret string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tokenString := tokenFromRequest(r)
			if tokenString == "" {
				httputil.WriteUnauthorized(w, "Missing authentication token")
				return
			}

			id, err := parseIdentity(tokenString, jwtSecret)
			if err != nil {
				if errors.Is(err, jwt.ErrTokenExpired) {
					httputil.WriteUnauthorizedWithCode(w, model.CodeTokenExpired, "Access token has expired")
					return
				}
				httputil.WriteUnauthorizedWithCode(w, model.CodeTokenInvalid, "Invalid authentication token")
				return
			}

			next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), IdentityKey, id)))
		})
	}
}

// OptionalAuth attaches the caller's identity when a valid token is present
// and lets anonymous requests through untouched.
func OptionalAuth(jwtSecret string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if tokenString := tokenFromRequest(r); tokenString != "" {
				if id, err := parseIdentity(tokenString, jwtSecret); err == nil {
					r = r.WithContext(context.WithValue(r.Context(), IdentityKey, id))
				}
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RequireProfile rejects authenticated callers that have no profile yet.
// It must run after AuthMiddleware.
func RequireProfile(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if id, ok := GetIdentityFromContext(r.Context()); !ok || id.UserID == "" {
			httputil.WriteError(w, http.StatusForbidden, model.CodeProfileMissing, "Create a profile first")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func tokenFromRequest(r *http.Request) string {
	if authHeader := r.Header.Get("Authorization"); authHeader != "" {
		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) == 2 && strings.EqualFold(parts[0], "Bearer") {
			return parts[1]
		}
	}
	if cookie, err := r.Cookie("access_token"); err == nil {
		return cookie.Value
	}
	return ""
}

func parseIdentity(tokenString, jwtSecret string) (*Identity, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return []byte(jwtSecret), nil
	})
	if err != nil {
		return nil, err
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return nil, jwt.ErrTokenInvalidClaims
	}

	uid, _ := claims["uid"].(string)
	if uid == "" {
		return nil, jwt.ErrTokenInvalidClaims
	}
	userID, _ := claims["user_id"].(string)
	email, _ := claims["email"].(string)

	return &Identity{UID: uid, UserID: userID, Email: email}, nil
}

// GetIdentityFromContext returns the caller attached by AuthMiddleware or
// OptionalAuth.
func GetIdentityFromContext(ctx context.Context) (*Identity, bool) {
	id, ok := ctx.Value(IdentityKey).(*Identity)
	return id, ok && id != nil
}

// GetUserIDFromContext returns the caller's profile ID, or "" and false for
// anonymous callers and accounts without a profile.
func GetUserIDFromContext(ctx context.Context) (string, bool) {
	id, ok := GetIdentityFromContext(ctx)
	if !ok || id.UserID == "" {
		return "", false
	}
	return id.UserID, true
}
