package repository

import (
	"context"

	"bookshelf/internal/docstore"
	"bookshelf/internal/model"
)

type bookStatsRepository struct {
	store docstore.Store
}

func NewBookStatsRepository(store docstore.Store) BookStatsRepository {
	return &bookStatsRepository{store: store}
}

func (r *bookStatsRepository) GetByISBN(ctx context.Context, isbn string) (*model.BookStats, error) {
	s, _, err := getDoc[model.BookStats](ctx, r.store, CollectionBookStats, isbn)
	if err != nil {
		return nil, persistence("failed to get book stats", err)
	}
	return s, nil
}

// GetPopular ranks books by how many public libraries hold them.
func (r *bookStatsRepository) GetPopular(ctx context.Context, limit int) ([]model.BookStats, error) {
	q := docstore.From(CollectionBookStats).
		OrderBy("totalReaders", docstore.Desc).
		Take(clampLimit(limit, model.DefaultStatsLimit))
	out, err := queryDocs[model.BookStats](ctx, r.store, q, nil)
	if err != nil {
		return nil, persistence("failed to get popular books", err)
	}
	return out, nil
}

func (r *bookStatsRepository) GetTopRated(ctx context.Context, limit int) ([]model.BookStats, error) {
	q := docstore.From(CollectionBookStats).
		OrderBy("averageRating", docstore.Desc).
		Take(clampLimit(limit, model.DefaultStatsLimit))
	out, err := queryDocs[model.BookStats](ctx, r.store, q, nil)
	if err != nil {
		return nil, persistence("failed to get top rated books", err)
	}
	return out, nil
}
