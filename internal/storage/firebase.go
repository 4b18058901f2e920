package storage

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/url"

	gcs "cloud.google.com/go/storage"
	"github.com/google/uuid"

	"bookshelf/internal/firebaseapp"
)

// FirebaseStore uploads to the app's Firebase Storage bucket. Objects are
// served through the Firebase download endpoint with a per-object token.
type FirebaseStore struct {
	bucket     *gcs.BucketHandle
	bucketName string
}

func NewFirebaseStore(ctx context.Context, app *firebaseapp.App) (*FirebaseStore, error) {
	if app.Bucket == "" {
		return nil, fmt.Errorf("missing FIREBASE_STORAGE_BUCKET")
	}
	client, err := app.Storage(ctx)
	if err != nil {
		return nil, fmt.Errorf("get storage client: %w", err)
	}
	bucket, err := client.Bucket(app.Bucket)
	if err != nil {
		return nil, fmt.Errorf("open bucket %s: %w", app.Bucket, err)
	}
	return &FirebaseStore{bucket: bucket, bucketName: app.Bucket}, nil
}

func (s *FirebaseStore) Put(ctx context.Context, key string, body []byte, contentType, cacheControl string) (string, error) {
	token := uuid.NewString()

	w := s.bucket.Object(key).NewWriter(ctx)
	w.ContentType = contentType
	w.CacheControl = cacheControl
	w.Metadata = map[string]string{"firebaseStorageDownloadTokens": token}

	if _, err := w.Write(body); err != nil {
		_ = w.Close()
		log.Printf("[Storage] Firebase Put FAILED: key=%s err=%v", key, err)
		return "", fmt.Errorf("failed to upload to firebase storage: %w", err)
	}
	if err := w.Close(); err != nil {
		log.Printf("[Storage] Firebase Put FAILED: key=%s err=%v", key, err)
		return "", fmt.Errorf("failed to upload to firebase storage: %w", err)
	}
	return DownloadURL(s.bucketName, key, token), nil
}

func (s *FirebaseStore) Delete(ctx context.Context, key string) error {
	if key == "" {
		return nil
	}
	err := s.bucket.Object(key).Delete(ctx)
	if err != nil && !errors.Is(err, gcs.ErrObjectNotExist) {
		return fmt.Errorf("failed to delete from firebase storage: %w", err)
	}
	return nil
}

// DownloadURL builds the tokenized Firebase Storage download URL for key.
func DownloadURL(bucket, key, token string) string {
	return fmt.Sprintf("https://firebasestorage.googleapis.com/v0/b/%s/o/%s?alt=media&token=%s",
		bucket, url.PathEscape(key), url.QueryEscape(token))
}
