// Package storage puts and deletes public objects in a bucket.
package storage

import "context"

// ObjectStore is a bucket that serves uploaded objects at a public URL.
type ObjectStore interface {
	// Put uploads body under key and returns the URL it is served from.
	Put(ctx context.Context, key string, body []byte, contentType, cacheControl string) (string, error)
	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error
}
