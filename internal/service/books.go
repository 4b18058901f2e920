package service

import (
	"context"
	"fmt"
	"log"

	"bookshelf/internal/catalog"
	"bookshelf/internal/model"
	"bookshelf/internal/repository"
)

// bookResolver makes sure a shared Book record exists before something in a
// library or bookmark list points at it.
type bookResolver struct {
	books   repository.BookRepository
	catalog catalog.Searcher // optional
}

// ensureBook returns books/{isbn}, creating it from meta or, failing that,
// from a catalog lookup. An existing record is never overwritten.
func (r *bookResolver) ensureBook(ctx context.Context, isbn string, meta *model.BookMetadata) (*model.Book, error) {
	book, err := r.books.GetByISBN(ctx, isbn)
	if err != nil {
		return nil, err
	}
	if book != nil {
		return book, nil
	}

	if meta == nil {
		if r.catalog == nil {
			return nil, model.ErrBookNotFound
		}
		meta, err = catalog.LookupISBN(ctx, r.catalog, isbn)
		if err != nil {
			return nil, fmt.Errorf("catalog lookup: %w", err)
		}
		if meta == nil {
			return nil, model.ErrBookNotFound
		}
	}

	stored := *meta
	stored.ISBN = isbn
	if _, err := r.books.Create(ctx, &stored); err != nil {
		return nil, err
	}
	log.Printf("[BookResolver] Stored new book: isbn=%s title=%q", isbn, stored.Title)

	return r.books.GetByISBN(ctx, isbn)
}

// bookCache memoizes book lookups while decorating a list.
type bookCache struct {
	books repository.BookRepository
	seen  map[string]*model.Book
}

func newBookCache(books repository.BookRepository) *bookCache {
	return &bookCache{books: books, seen: make(map[string]*model.Book)}
}

// get returns the book or nil. Lookup failures are logged and read as
// missing so one bad record does not fail a whole list.
func (c *bookCache) get(ctx context.Context, isbn string) *model.Book {
	if b, ok := c.seen[isbn]; ok {
		return b
	}
	b, err := c.books.GetByISBN(ctx, isbn)
	if err != nil {
		log.Printf("[BookCache] GetByISBN FAILED: isbn=%s err=%v", isbn, err)
	}
	c.seen[isbn] = b
	return b
}
