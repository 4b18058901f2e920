package repository

import (
	"context"
	"errors"
	"fmt"

	"bookshelf/internal/docstore"
	"bookshelf/internal/model"
)

// persistence hides the store error behind a generic message.
func persistence(message string, err error) error {
	return model.NewPersistenceError(message, err)
}

// getDoc fetches one document and decodes it into T. A missing document
// yields (nil, nil).
func getDoc[T any](ctx context.Context, store docstore.Store, collection, id string) (*T, string, error) {
	snap, err := store.Get(ctx, collection, id)
	if errors.Is(err, docstore.ErrNotFound) {
		return nil, "", nil
	}
	if err != nil {
		return nil, "", err
	}
	var v T
	if err := snap.DataTo(&v); err != nil {
		return nil, "", fmt.Errorf("decode %s/%s: %w", collection, id, err)
	}
	return &v, snap.ID, nil
}

// queryDocs runs q and decodes every result into T, calling setID with each
// document key.
func queryDocs[T any](ctx context.Context, store docstore.Store, q docstore.Query, setID func(*T, string)) ([]T, error) {
	snaps, err := store.Query(ctx, q)
	if err != nil {
		return nil, err
	}
	out := make([]T, 0, len(snaps))
	for _, snap := range snaps {
		var v T
		if err := snap.DataTo(&v); err != nil {
			return nil, fmt.Errorf("decode %s/%s: %w", q.Collection, snap.ID, err)
		}
		if setID != nil {
			setID(&v, snap.ID)
		}
		out = append(out, v)
	}
	return out, nil
}

// firstDoc returns the first match of q, or nil when there is none.
func firstDoc[T any](ctx context.Context, store docstore.Store, q docstore.Query, setID func(*T, string)) (*T, error) {
	docs, err := queryDocs(ctx, store, q.Take(1), setID)
	if err != nil || len(docs) == 0 {
		return nil, err
	}
	return &docs[0], nil
}

func clampLimit(limit, fallback int) int {
	if limit <= 0 {
		return fallback
	}
	if limit > model.MaxListLimit {
		return model.MaxListLimit
	}
	return limit
}
