package repository

import (
	"context"
	"errors"
	"log"

	"bookshelf/internal/docstore"
	"bookshelf/internal/model"
)

type likeRepository struct {
	store docstore.Store
}

func NewLikeRepository(store docstore.Store) LikeRepository {
	return &likeRepository{store: store}
}

func setLikeID(l *model.Like, id string) { l.ID = id }

// likeKey makes one (entry, user) pair map to one document, so the batch
// create below rejects a second like inside the same commit that moves the
// counter.
func likeKey(userBookID, userID string) string {
	return userBookID + ":" + userID
}

// Create stores the like and bumps the entry's likesCount in one atomic
// batch. A repeated like fails with ErrAlreadyLiked and changes nothing.
func (r *likeRepository) Create(ctx context.Context, userBookID, userID string) (string, error) {
	id := likeKey(userBookID, userID)

	err := r.store.Batch().
		Create(CollectionLikes, id, docstore.Fields{
			"userBookId": userBookID,
			"userId":     userID,
			"createdAt":  docstore.ServerTimestamp,
		}).
		Update(CollectionUserBooks, userBookID, []docstore.Update{
			{Path: "likesCount", Value: docstore.Increment(1)},
			{Path: "updatedAt", Value: docstore.ServerTimestamp},
		}).
		Commit(ctx)

	switch {
	case err == nil:
		return id, nil
	case errors.Is(err, docstore.ErrAlreadyExists):
		return "", model.ErrAlreadyLiked
	case errors.Is(err, docstore.ErrNotFound):
		return "", model.ErrUserBookNotFound
	}
	return "", persistence("failed to like user book", err)
}

// Delete removes the like and decrements likesCount in one atomic batch.
// It fails with ErrLikeNotFound when there is nothing to remove.
func (r *likeRepository) Delete(ctx context.Context, userBookID, userID string) error {
	like, err := r.GetByUserBookIDAndUserID(ctx, userBookID, userID)
	if err != nil {
		return err
	}
	if like == nil {
		return model.ErrLikeNotFound
	}

	err = r.store.Batch().
		Delete(CollectionLikes, like.ID).
		Update(CollectionUserBooks, userBookID, []docstore.Update{
			{Path: "likesCount", Value: docstore.Increment(-1)},
			{Path: "updatedAt", Value: docstore.ServerTimestamp},
		}).
		Commit(ctx)

	if errors.Is(err, docstore.ErrNotFound) {
		return model.ErrUserBookNotFound
	}
	if err != nil {
		return persistence("failed to unlike user book", err)
	}
	return nil
}

func (r *likeRepository) GetByUserBookIDAndUserID(ctx context.Context, userBookID, userID string) (*model.Like, error) {
	q := docstore.From(CollectionLikes).
		Where("userBookId", docstore.OpEqual, userBookID).
		Where("userId", docstore.OpEqual, userID)
	like, err := firstDoc(ctx, r.store, q, setLikeID)
	if err != nil {
		return nil, persistence("failed to get like", err)
	}
	return like, nil
}

func (r *likeRepository) GetByUserID(ctx context.Context, userID string) ([]model.Like, error) {
	q := docstore.From(CollectionLikes).
		Where("userId", docstore.OpEqual, userID).
		OrderBy("createdAt", docstore.Desc)
	likes, err := queryDocs(ctx, r.store, q, setLikeID)
	if err != nil {
		return nil, persistence("failed to get likes", err)
	}
	return likes, nil
}

func (r *likeRepository) GetByUserBookID(ctx context.Context, userBookID string) ([]model.Like, error) {
	q := docstore.From(CollectionLikes).
		Where("userBookId", docstore.OpEqual, userBookID).
		OrderBy("createdAt", docstore.Desc)
	likes, err := queryDocs(ctx, r.store, q, setLikeID)
	if err != nil {
		return nil, persistence("failed to get likes", err)
	}
	return likes, nil
}

func (r *likeRepository) IsLiked(ctx context.Context, userBookID, userID string) bool {
	like, err := r.GetByUserBookIDAndUserID(ctx, userBookID, userID)
	if err != nil {
		log.Printf("[LikeRepository] IsLiked FAILED: userBookId=%s userId=%s err=%v", userBookID, userID, errors.Unwrap(err))
		return false
	}
	return like != nil
}
