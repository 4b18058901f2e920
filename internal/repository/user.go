package repository

import (
	"context"
	"errors"
	"log"

	"bookshelf/internal/docstore"
	"bookshelf/internal/model"
)

// userRepository stores profiles in the users collection, keyed by userId.
type userRepository struct {
	store docstore.Store
}

// NewUserRepository creates a new user repository
func NewUserRepository(store docstore.Store) UserRepository {
	return &userRepository{store: store}
}

// Create writes the profile at users/{userId}. It is a plain set, so a
// concurrent signup with the same userId overwrites: uniqueness is only as
// strong as the caller's preceding CheckUserIDExists.
func (r *userRepository) Create(ctx context.Context, req *model.CreateUserRequest) (string, error) {
	nickname := req.Nickname
	if nickname == "" {
		nickname = req.UserID
	}
	visibility := req.LibraryVisibility
	if visibility == "" {
		visibility = model.VisibilityPublic
	}

	fields := docstore.Fields{
		"userId":            req.UserID,
		"uid":               req.UID,
		"nickname":          nickname,
		"email":             req.Email,
		"libraryVisibility": visibility,
		"createdAt":         docstore.ServerTimestamp,
		"updatedAt":         docstore.ServerTimestamp,
	}
	if req.PhotoURL != nil {
		fields["photoURL"] = *req.PhotoURL
	}
	if req.Bio != nil {
		fields["bio"] = *req.Bio
	}
	if req.Birth != nil {
		fields["birth"] = *req.Birth
	}
	if req.Gender != nil {
		fields["gender"] = *req.Gender
	}

	if err := r.store.Set(ctx, CollectionUsers, req.UserID, fields); err != nil {
		return "", persistence("failed to create user", err)
	}
	return req.UserID, nil
}

// GetByID retrieves a user by their userId
func (r *userRepository) GetByID(ctx context.Context, userID string) (*model.User, error) {
	u, _, err := getDoc[model.User](ctx, r.store, CollectionUsers, userID)
	if err != nil {
		return nil, persistence("failed to get user", err)
	}
	return u, nil
}

// GetByUID retrieves the profile owned by an identity-provider subject
func (r *userRepository) GetByUID(ctx context.Context, uid string) (*model.User, error) {
	q := docstore.From(CollectionUsers).Where("uid", docstore.OpEqual, uid)
	u, err := firstDoc[model.User](ctx, r.store, q, nil)
	if err != nil {
		return nil, persistence("failed to get user", err)
	}
	return u, nil
}

// Update merges the non-nil fields of req and stamps updatedAt.
func (r *userRepository) Update(ctx context.Context, userID string, req *model.UpdateProfileRequest) error {
	updates := []docstore.Update{{Path: "updatedAt", Value: docstore.ServerTimestamp}}
	add := func(path string, v *string) {
		if v != nil {
			updates = append(updates, docstore.Update{Path: path, Value: *v})
		}
	}
	add("nickname", req.Nickname)
	add("gender", req.Gender)
	add("birth", req.Birth)
	add("bio", req.Bio)
	add("photoURL", req.PhotoURL)
	add("libraryVisibility", req.LibraryVisibility)

	err := r.store.Update(ctx, CollectionUsers, userID, updates)
	if errors.Is(err, docstore.ErrNotFound) {
		return model.ErrUserNotFound
	}
	if err != nil {
		return persistence("failed to update user", err)
	}
	return nil
}

func (r *userRepository) Delete(ctx context.Context, userID string) error {
	if err := r.store.Delete(ctx, CollectionUsers, userID); err != nil {
		return persistence("failed to delete user", err)
	}
	return nil
}

// CheckUserIDExists reports whether users/{userId} exists. Store errors read
// as "does not exist".
func (r *userRepository) CheckUserIDExists(ctx context.Context, userID string) bool {
	_, err := r.store.Get(ctx, CollectionUsers, userID)
	if err == nil {
		return true
	}
	if !errors.Is(err, docstore.ErrNotFound) {
		log.Printf("[UserRepository] CheckUserIDExists FAILED: userId=%s err=%v", userID, err)
	}
	return false
}

func (r *userRepository) CheckNicknameExists(ctx context.Context, nickname string) bool {
	snaps, err := r.store.Query(ctx, docstore.From(CollectionUsers).
		Where("nickname", docstore.OpEqual, nickname).
		Take(1))
	if err != nil {
		log.Printf("[UserRepository] CheckNicknameExists FAILED: nickname=%s err=%v", nickname, err)
		return false
	}
	return len(snaps) > 0
}
