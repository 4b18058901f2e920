// Package firebaseapp initializes the Firebase Admin SDK from environment
// credentials and exposes the pieces the server needs: Firestore, Auth and
// Cloud Storage.
package firebaseapp

import (
	"context"
	"fmt"
	"log"
	"strings"

	"cloud.google.com/go/firestore"
	firebase "firebase.google.com/go/v4"
	"google.golang.org/api/option"

	"bookshelf/internal/config"
)

// App wraps the initialized Firebase app.
type App struct {
	*firebase.App
	ProjectID string
	Bucket    string
}

// New builds a Firebase app from the service account fields in cfg.
//
// The private key in .env has literal "\n" sequences; the SDK expects real
// newlines in the PEM block. With no client email set the SDK falls back to
// application default credentials.
func New(ctx context.Context, cfg *config.Config) (*App, error) {
	var opts []option.ClientOption
	if cfg.FirebaseClientEmail != "" {
		privateKey := strings.ReplaceAll(cfg.FirebasePrivateKey, "\\n", "\n")
		credsJSON := fmt.Sprintf(`{
			"type": "service_account",
			"project_id": %q,
			"private_key": %q,
			"client_email": %q,
			"token_uri": "https://oauth2.googleapis.com/token"
		}`, cfg.FirebaseProjectID, privateKey, cfg.FirebaseClientEmail)
		opts = append(opts, option.WithCredentialsJSON([]byte(credsJSON)))
	}

	app, err := firebase.NewApp(ctx, &firebase.Config{
		ProjectID:     cfg.FirebaseProjectID,
		StorageBucket: cfg.FirebaseStorageBucket,
	}, opts...)
	if err != nil {
		return nil, fmt.Errorf("initialize firebase app: %w", err)
	}

	log.Printf("[Firebase] Initialized for project: %s", cfg.FirebaseProjectID)
	return &App{App: app, ProjectID: cfg.FirebaseProjectID, Bucket: cfg.FirebaseStorageBucket}, nil
}

// Firestore returns a Firestore client for the app's project.
func (a *App) Firestore(ctx context.Context) (*firestore.Client, error) {
	client, err := a.App.Firestore(ctx)
	if err != nil {
		return nil, fmt.Errorf("get firestore client: %w", err)
	}
	return client, nil
}
