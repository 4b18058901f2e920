package repository

import (
	"context"
	"errors"
	"log"

	"bookshelf/internal/docstore"
	"bookshelf/internal/model"
)

type followerRepository struct {
	store docstore.Store
}

func NewFollowerRepository(store docstore.Store) FollowerRepository {
	return &followerRepository{store: store}
}

func setFollowerID(f *model.Follower, id string) { f.ID = id }

// followKey joins the pair with ':', which userIds cannot contain, so two
// different pairs never share a document.
func followKey(followerID, followingID string) string {
	return followerID + ":" + followingID
}

func (r *followerRepository) Create(ctx context.Context, followerID, followingID string) (string, error) {
	id := followKey(followerID, followingID)
	err := r.store.Create(ctx, CollectionFollowers, id, docstore.Fields{
		"followerId":  followerID,
		"followingId": followingID,
		"createdAt":   docstore.ServerTimestamp,
	})
	if errors.Is(err, docstore.ErrAlreadyExists) {
		return "", model.ErrAlreadyFollowing
	}
	if err != nil {
		return "", persistence("failed to follow user", err)
	}
	return id, nil
}

// Delete fails with ErrNotFollowing when no follow relation exists.
func (r *followerRepository) Delete(ctx context.Context, followerID, followingID string) error {
	f, err := r.GetByFollowerIDAndFollowingID(ctx, followerID, followingID)
	if err != nil {
		return err
	}
	if f == nil {
		return model.ErrNotFollowing
	}
	if err := r.store.Delete(ctx, CollectionFollowers, f.ID); err != nil {
		return persistence("failed to unfollow user", err)
	}
	return nil
}

func (r *followerRepository) GetByFollowerIDAndFollowingID(ctx context.Context, followerID, followingID string) (*model.Follower, error) {
	q := docstore.From(CollectionFollowers).
		Where("followerId", docstore.OpEqual, followerID).
		Where("followingId", docstore.OpEqual, followingID)
	f, err := firstDoc(ctx, r.store, q, setFollowerID)
	if err != nil {
		return nil, persistence("failed to get follow", err)
	}
	return f, nil
}

// GetFollowings lists who userID follows, newest first.
func (r *followerRepository) GetFollowings(ctx context.Context, userID string) ([]model.Follower, error) {
	q := docstore.From(CollectionFollowers).
		Where("followerId", docstore.OpEqual, userID).
		OrderBy("createdAt", docstore.Desc)
	out, err := queryDocs(ctx, r.store, q, setFollowerID)
	if err != nil {
		return nil, persistence("failed to get followings", err)
	}
	return out, nil
}

// GetFollowers lists who follows userID, newest first.
func (r *followerRepository) GetFollowers(ctx context.Context, userID string) ([]model.Follower, error) {
	q := docstore.From(CollectionFollowers).
		Where("followingId", docstore.OpEqual, userID).
		OrderBy("createdAt", docstore.Desc)
	out, err := queryDocs(ctx, r.store, q, setFollowerID)
	if err != nil {
		return nil, persistence("failed to get followers", err)
	}
	return out, nil
}

func (r *followerRepository) IsFollowing(ctx context.Context, followerID, followingID string) bool {
	f, err := r.GetByFollowerIDAndFollowingID(ctx, followerID, followingID)
	if err != nil {
		log.Printf("[FollowerRepository] IsFollowing FAILED: follower=%s following=%s err=%v", followerID, followingID, errors.Unwrap(err))
		return false
	}
	return f != nil
}
