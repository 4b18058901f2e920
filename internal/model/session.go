package model

import "errors"

// Principal is the identity asserted by a verified identity-provider token.
type Principal struct {
	UID         string
	Email       string
	DisplayName string
	PhotoURL    string
}

// Session is the application session issued in exchange for an identity
// token. UserID is empty until the account has created a profile.
type Session struct {
	AccessToken string `json:"accessToken"`
	ExpiresIn   int    `json:"expiresIn"` // Seconds until access token expires
	UID         string `json:"uid"`
	UserID      string `json:"userId,omitempty"`
	Registered  bool   `json:"registered"`

	// SuggestedUserID is offered to accounts without a profile.
	SuggestedUserID string `json:"suggestedUserId,omitempty"`
}

// SessionRequest is the request body for POST /auth/session
type SessionRequest struct {
	IDToken string `json:"idToken"`
}

var (
	ErrInvalidIDToken = errors.New("invalid identity token")
)

// Token API error codes (used in HTTP responses)
const (
	CodeTokenExpired = "TOKEN_EXPIRED"
	CodeTokenInvalid = "TOKEN_INVALID"
)
