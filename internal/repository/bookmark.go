package repository

import (
	"context"
	"errors"
	"log"

	"bookshelf/internal/docstore"
	"bookshelf/internal/model"
)

type bookmarkRepository struct {
	store docstore.Store
}

func NewBookmarkRepository(store docstore.Store) BookmarkRepository {
	return &bookmarkRepository{store: store}
}

func setBookmarkID(b *model.Bookmark, id string) { b.ID = id }

// bookmarkKey makes one (user, book) pair map to one document. userIds
// cannot contain ':', so the first ':' always ends the user part.
func bookmarkKey(userID, isbn string) string {
	return userID + ":" + isbn
}

func (r *bookmarkRepository) Create(ctx context.Context, userID, isbn string) (string, error) {
	id := bookmarkKey(userID, isbn)
	err := r.store.Create(ctx, CollectionBookmarks, id, docstore.Fields{
		"userId":    userID,
		"isbn":      isbn,
		"createdAt": docstore.ServerTimestamp,
	})
	if errors.Is(err, docstore.ErrAlreadyExists) {
		return "", model.ErrAlreadyBookmarked
	}
	if err != nil {
		return "", persistence("failed to create bookmark", err)
	}
	return id, nil
}

func (r *bookmarkRepository) GetByUserID(ctx context.Context, userID string) ([]model.Bookmark, error) {
	q := docstore.From(CollectionBookmarks).
		Where("userId", docstore.OpEqual, userID).
		OrderBy("createdAt", docstore.Desc)
	marks, err := queryDocs(ctx, r.store, q, setBookmarkID)
	if err != nil {
		return nil, persistence("failed to get bookmarks", err)
	}
	return marks, nil
}

func (r *bookmarkRepository) GetByUserIDAndISBN(ctx context.Context, userID, isbn string) (*model.Bookmark, error) {
	q := docstore.From(CollectionBookmarks).
		Where("userId", docstore.OpEqual, userID).
		Where("isbn", docstore.OpEqual, isbn)
	mark, err := firstDoc(ctx, r.store, q, setBookmarkID)
	if err != nil {
		return nil, persistence("failed to get bookmark", err)
	}
	return mark, nil
}

// Delete looks the bookmark up first and fails with ErrBookmarkNotFound when
// the user has not bookmarked the book.
func (r *bookmarkRepository) Delete(ctx context.Context, userID, isbn string) error {
	mark, err := r.GetByUserIDAndISBN(ctx, userID, isbn)
	if err != nil {
		return err
	}
	if mark == nil {
		return model.ErrBookmarkNotFound
	}
	if err := r.store.Delete(ctx, CollectionBookmarks, mark.ID); err != nil {
		return persistence("failed to delete bookmark", err)
	}
	return nil
}

func (r *bookmarkRepository) IsBookmarked(ctx context.Context, userID, isbn string) bool {
	mark, err := r.GetByUserIDAndISBN(ctx, userID, isbn)
	if err != nil {
		log.Printf("[BookmarkRepository] IsBookmarked FAILED: userId=%s isbn=%s err=%v", userID, isbn, errors.Unwrap(err))
		return false
	}
	return mark != nil
}
