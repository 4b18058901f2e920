package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"bookshelf/internal/config"
	"bookshelf/internal/model"
	"bookshelf/internal/repository"
)

// IdentityVerifier checks identity-provider ID tokens.
type IdentityVerifier interface {
	Verify(ctx context.Context, idToken string) (*model.Principal, error)
}

// AuthService exchanges identity-provider tokens for application sessions.
type AuthService struct {
	verifier IdentityVerifier
	users    repository.UserRepository
	config   *config.Config
}

func NewAuthService(verifier IdentityVerifier, users repository.UserRepository, cfg *config.Config) *AuthService {
	return &AuthService{
		verifier: verifier,
		users:    users,
		config:   cfg,
	}
}

// CreateSession verifies idToken and issues an access token. The session
// tells the client whether the identity already owns a profile, and suggests
// a user ID when it does not.
func (s *AuthService) CreateSession(ctx context.Context, idToken string) (*model.Session, error) {
	if idToken == "" {
		return nil, model.ErrInvalidIDToken
	}

	principal, err := s.verifier.Verify(ctx, idToken)
	if err != nil {
		if errors.Is(err, model.ErrInvalidIDToken) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %v", model.ErrInvalidIDToken, err)
	}

	user, err := s.users.GetByUID(ctx, principal.UID)
	if err != nil {
		return nil, err
	}

	userID := ""
	if user != nil {
		userID = user.UserID
	}

	session, err := s.IssueSession(principal, userID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		session.SuggestedUserID = model.DefaultUserID(principal.Email)
	}

	log.Printf("[AuthService] CreateSession OK: uid=%s userId=%s registered=%t", principal.UID, userID, session.Registered)
	return session, nil
}

// IssueSession signs an access token for principal. userID is empty for
// identities that have not created a profile yet.
func (s *AuthService) IssueSession(principal *model.Principal, userID string) (*model.Session, error) {
	token, err := s.generateAccessToken(principal, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to generate access token: %w", err)
	}
	return &model.Session{
		AccessToken: token,
		ExpiresIn:   s.config.AccessTokenMaxAge,
		UID:         principal.UID,
		UserID:      userID,
		Registered:  userID != "",
	}, nil
}

func (s *AuthService) generateAccessToken(principal *model.Principal, userID string) (string, error) {
	now := time.Now()
	claims := jwt.MapClaims{
		"uid":     principal.UID,
		"user_id": userID,
		"email":   principal.Email,
		"exp":     now.Add(time.Duration(s.config.AccessTokenMaxAge) * time.Second).Unix(),
		"iat":     now.Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(s.config.JWTSecret))
}
