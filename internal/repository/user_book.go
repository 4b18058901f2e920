package repository

import (
	"context"
	"errors"
	"log"

	"bookshelf/internal/docstore"
	"bookshelf/internal/model"
)

type userBookRepository struct {
	store docstore.Store
}

func NewUserBookRepository(store docstore.Store) UserBookRepository {
	return &userBookRepository{store: store}
}

func setUserBookID(ub *model.UserBook, id string) { ub.ID = id }

// Create adds an auto-keyed library entry with likesCount 0.
func (r *userBookRepository) Create(ctx context.Context, ub *model.NewUserBook) (string, error) {
	fields := docstore.Fields{
		"userId":     ub.UserID,
		"isbn":       ub.ISBN,
		"status":     ub.Status,
		"isPublic":   ub.IsPublic,
		"rating":     ub.Rating,
		"likesCount": 0,
		"createdAt":  docstore.ServerTimestamp,
		"updatedAt":  docstore.ServerTimestamp,
	}
	if ub.Review != nil {
		fields["review"] = *ub.Review
	}
	if ub.Memo != nil {
		fields["memo"] = *ub.Memo
	}
	if len(ub.Tags) > 0 {
		fields["tags"] = ub.Tags
	}
	if ub.StartDate != nil {
		fields["startDate"] = *ub.StartDate
	}
	if ub.EndDate != nil {
		fields["endDate"] = *ub.EndDate
	}

	id, err := r.store.Add(ctx, CollectionUserBooks, fields)
	if err != nil {
		return "", persistence("failed to create user book", err)
	}
	return id, nil
}

func (r *userBookRepository) GetByID(ctx context.Context, id string) (*model.UserBook, error) {
	ub, key, err := getDoc[model.UserBook](ctx, r.store, CollectionUserBooks, id)
	if err != nil {
		return nil, persistence("failed to get user book", err)
	}
	if ub != nil {
		ub.ID = key
	}
	return ub, nil
}

// GetByUserID lists a user's library, newest first. Without includePrivate
// only entries marked public are returned.
func (r *userBookRepository) GetByUserID(ctx context.Context, userID string, includePrivate bool) ([]model.UserBook, error) {
	q := docstore.From(CollectionUserBooks).Where("userId", docstore.OpEqual, userID)
	if !includePrivate {
		q = q.Where("isPublic", docstore.OpEqual, true)
	}
	q = q.OrderBy("createdAt", docstore.Desc)

	books, err := queryDocs(ctx, r.store, q, setUserBookID)
	if err != nil {
		return nil, persistence("failed to get user books", err)
	}
	return books, nil
}

func (r *userBookRepository) GetByStatus(ctx context.Context, userID, status string, includePrivate bool) ([]model.UserBook, error) {
	q := docstore.From(CollectionUserBooks).
		Where("userId", docstore.OpEqual, userID).
		Where("status", docstore.OpEqual, status)
	if !includePrivate {
		q = q.Where("isPublic", docstore.OpEqual, true)
	}
	q = q.OrderBy("createdAt", docstore.Desc)

	books, err := queryDocs(ctx, r.store, q, setUserBookID)
	if err != nil {
		return nil, persistence("failed to get user books", err)
	}
	return books, nil
}

func (r *userBookRepository) GetByUserIDAndISBN(ctx context.Context, userID, isbn string) (*model.UserBook, error) {
	q := docstore.From(CollectionUserBooks).
		Where("userId", docstore.OpEqual, userID).
		Where("isbn", docstore.OpEqual, isbn)
	ub, err := firstDoc(ctx, r.store, q, setUserBookID)
	if err != nil {
		return nil, persistence("failed to get user book", err)
	}
	return ub, nil
}

// GetPublicByISBN lists every public entry for a book across all users.
func (r *userBookRepository) GetPublicByISBN(ctx context.Context, isbn string) ([]model.UserBook, error) {
	q := docstore.From(CollectionUserBooks).
		Where("isbn", docstore.OpEqual, isbn).
		Where("isPublic", docstore.OpEqual, true)
	books, err := queryDocs(ctx, r.store, q, setUserBookID)
	if err != nil {
		return nil, persistence("failed to get user books", err)
	}
	return books, nil
}

// Update merges the set fields of upd and stamps updatedAt. The entry's
// owner, book and creation time cannot be changed through it.
func (r *userBookRepository) Update(ctx context.Context, id string, upd *model.UserBookUpdate) error {
	updates := []docstore.Update{{Path: "updatedAt", Value: docstore.ServerTimestamp}}
	if upd.Status != nil {
		updates = append(updates, docstore.Update{Path: "status", Value: *upd.Status})
	}
	if upd.IsPublic != nil {
		updates = append(updates, docstore.Update{Path: "isPublic", Value: *upd.IsPublic})
	}
	if upd.Rating != nil {
		updates = append(updates, docstore.Update{Path: "rating", Value: *upd.Rating})
	}
	if upd.Review != nil {
		updates = append(updates, docstore.Update{Path: "review", Value: *upd.Review})
	}
	if upd.Memo != nil {
		updates = append(updates, docstore.Update{Path: "memo", Value: *upd.Memo})
	}
	if upd.Tags != nil {
		updates = append(updates, docstore.Update{Path: "tags", Value: *upd.Tags})
	}
	if upd.StartDate != nil {
		updates = append(updates, docstore.Update{Path: "startDate", Value: *upd.StartDate})
	}
	if upd.EndDate != nil {
		updates = append(updates, docstore.Update{Path: "endDate", Value: *upd.EndDate})
	}

	err := r.store.Update(ctx, CollectionUserBooks, id, updates)
	if errors.Is(err, docstore.ErrNotFound) {
		return model.ErrUserBookNotFound
	}
	if err != nil {
		return persistence("failed to update user book", err)
	}
	return nil
}

func (r *userBookRepository) Delete(ctx context.Context, id string) error {
	if err := r.store.Delete(ctx, CollectionUserBooks, id); err != nil {
		return persistence("failed to delete user book", err)
	}
	return nil
}

// CheckDuplicate reports whether the user already has the book. Store errors
// read as "no duplicate".
func (r *userBookRepository) CheckDuplicate(ctx context.Context, userID, isbn string) bool {
	snaps, err := r.store.Query(ctx, docstore.From(CollectionUserBooks).
		Where("userId", docstore.OpEqual, userID).
		Where("isbn", docstore.OpEqual, isbn).
		Take(1))
	if err != nil {
		log.Printf("[UserBookRepository] CheckDuplicate FAILED: userId=%s isbn=%s err=%v", userID, isbn, err)
		return false
	}
	return len(snaps) > 0
}
