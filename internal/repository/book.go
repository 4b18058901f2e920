package repository

import (
	"context"
	"errors"
	"log"

	"bookshelf/internal/docstore"
	"bookshelf/internal/model"
)

type bookRepository struct {
	store docstore.Store
}

func NewBookRepository(store docstore.Store) BookRepository {
	return &bookRepository{store: store}
}

// Create writes books/{isbn}. Callers check Exists first so a second
// registration of the same book leaves the stored record alone.
func (r *bookRepository) Create(ctx context.Context, book *model.BookMetadata) (string, error) {
	fields := docstore.Fields{
		"isbn":      book.ISBN,
		"title":     book.Title,
		"author":    book.Author,
		"publisher": book.Publisher,
		"pubDate":   book.PubDate,
		"cover":     book.Cover,
		"createdAt": docstore.ServerTimestamp,
		"updatedAt": docstore.ServerTimestamp,
	}
	if book.ISBN13 != nil {
		fields["isbn13"] = *book.ISBN13
	}
	if book.Description != nil {
		fields["description"] = *book.Description
	}
	if book.CategoryName != nil {
		fields["categoryName"] = *book.CategoryName
	}
	if book.PriceStandard != nil {
		fields["priceStandard"] = *book.PriceStandard
	}

	if err := r.store.Set(ctx, CollectionBooks, book.ISBN, fields); err != nil {
		return "", persistence("failed to create book", err)
	}
	return book.ISBN, nil
}

func (r *bookRepository) GetByISBN(ctx context.Context, isbn string) (*model.Book, error) {
	b, _, err := getDoc[model.Book](ctx, r.store, CollectionBooks, isbn)
	if err != nil {
		return nil, persistence("failed to get book", err)
	}
	return b, nil
}

// GetRecent returns the most recently stored books.
func (r *bookRepository) GetRecent(ctx context.Context, limit int) ([]model.Book, error) {
	q := docstore.From(CollectionBooks).
		OrderBy("createdAt", docstore.Desc).
		Take(clampLimit(limit, model.DefaultRecentBooksLimit))
	books, err := queryDocs[model.Book](ctx, r.store, q, nil)
	if err != nil {
		return nil, persistence("failed to get recent books", err)
	}
	return books, nil
}

func (r *bookRepository) Delete(ctx context.Context, isbn string) error {
	if err := r.store.Delete(ctx, CollectionBooks, isbn); err != nil {
		return persistence("failed to delete book", err)
	}
	return nil
}

func (r *bookRepository) Exists(ctx context.Context, isbn string) bool {
	_, err := r.store.Get(ctx, CollectionBooks, isbn)
	if err == nil {
		return true
	}
	if !errors.Is(err, docstore.ErrNotFound) {
		log.Printf("[BookRepository] Exists FAILED: isbn=%s err=%v", isbn, err)
	}
	return false
}
