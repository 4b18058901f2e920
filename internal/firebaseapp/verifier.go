package firebaseapp

import (
	"context"
	"fmt"
	"log"

	"firebase.google.com/go/v4/auth"

	"bookshelf/internal/model"
)

// Verifier checks Firebase ID tokens issued to signed-in clients.
type Verifier struct {
	client *auth.Client
}

func NewVerifier(ctx context.Context, app *App) (*Verifier, error) {
	client, err := app.Auth(ctx)
	if err != nil {
		return nil, fmt.Errorf("get auth client: %w", err)
	}
	return &Verifier{client: client}, nil
}

// Verify returns the identity behind idToken. Any verification failure is
// reported as model.ErrInvalidIDToken.
func (v *Verifier) Verify(ctx context.Context, idToken string) (*model.Principal, error) {
	token, err := v.client.VerifyIDToken(ctx, idToken)
	if err != nil {
		log.Printf("[Auth] VerifyIDToken FAILED: err=%v", err)
		return nil, fmt.Errorf("%w: %v", model.ErrInvalidIDToken, err)
	}

	return &model.Principal{
		UID:         token.UID,
		Email:       claimString(token.Claims, "email"),
		DisplayName: claimString(token.Claims, "name"),
		PhotoURL:    claimString(token.Claims, "picture"),
	}, nil
}

func claimString(claims map[string]interface{}, key string) string {
	s, _ := claims[key].(string)
	return s
}
