package repository

import (
	"context"

	"bookshelf/internal/model"
)

// Collection names in the document store.
const (
	CollectionUsers     = "users"
	CollectionBooks     = "books"
	CollectionUserBooks = "userBooks"
	CollectionBookmarks = "bookmarks"
	CollectionLikes     = "userBookLikes"
	CollectionFollowers = "followers"
	CollectionBookStats = "bookStats"
)

// Lookups return (nil, nil) when nothing matches. Store failures come back as
// *model.PersistenceError. The Check/Is/Exists family never fails: a store
// error is logged and reported as false.

type UserRepository interface {
	Create(ctx context.Context, req *model.CreateUserRequest) (string, error)
	GetByID(ctx context.Context, userID string) (*model.User, error)
	GetByUID(ctx context.Context, uid string) (*model.User, error)
	Update(ctx context.Context, userID string, req *model.UpdateProfileRequest) error
	Delete(ctx context.Context, userID string) error
	CheckUserIDExists(ctx context.Context, userID string) bool
	CheckNicknameExists(ctx context.Context, nickname string) bool
}

type BookRepository interface {
	Create(ctx context.Context, book *model.BookMetadata) (string, error)
	GetByISBN(ctx context.Context, isbn string) (*model.Book, error)
	GetRecent(ctx context.Context, limit int) ([]model.Book, error)
	Delete(ctx context.Context, isbn string) error
	Exists(ctx context.Context, isbn string) bool
}

type UserBookRepository interface {
	Create(ctx context.Context, ub *model.NewUserBook) (string, error)
	GetByID(ctx context.Context, id string) (*model.UserBook, error)
	GetByUserID(ctx context.Context, userID string, includePrivate bool) ([]model.UserBook, error)
	GetByStatus(ctx context.Context, userID, status string, includePrivate bool) ([]model.UserBook, error)
	GetByUserIDAndISBN(ctx context.Context, userID, isbn string) (*model.UserBook, error)
	GetPublicByISBN(ctx context.Context, isbn string) ([]model.UserBook, error)
	Update(ctx context.Context, id string, upd *model.UserBookUpdate) error
	Delete(ctx context.Context, id string) error
	CheckDuplicate(ctx context.Context, userID, isbn string) bool
}

type BookmarkRepository interface {
	Create(ctx context.Context, userID, isbn string) (string, error)
	GetByUserID(ctx context.Context, userID string) ([]model.Bookmark, error)
	GetByUserIDAndISBN(ctx context.Context, userID, isbn string) (*model.Bookmark, error)
	Delete(ctx context.Context, userID, isbn string) error
	IsBookmarked(ctx context.Context, userID, isbn string) bool
}

type LikeRepository interface {
	// Create stores the like and increments the entry's likesCount atomically.
	Create(ctx context.Context, userBookID, userID string) (string, error)
	// Delete removes the like and decrements the entry's likesCount atomically.
	Delete(ctx context.Context, userBookID, userID string) error
	GetByUserBookIDAndUserID(ctx context.Context, userBookID, userID string) (*model.Like, error)
	GetByUserID(ctx context.Context, userID string) ([]model.Like, error)
	GetByUserBookID(ctx context.Context, userBookID string) ([]model.Like, error)
	IsLiked(ctx context.Context, userBookID, userID string) bool
}

type FollowerRepository interface {
	Create(ctx context.Context, followerID, followingID string) (string, error)
	Delete(ctx context.Context, followerID, followingID string) error
	GetByFollowerIDAndFollowingID(ctx context.Context, followerID, followingID string) (*model.Follower, error)
	GetFollowings(ctx context.Context, userID string) ([]model.Follower, error)
	GetFollowers(ctx context.Context, userID string) ([]model.Follower, error)
	IsFollowing(ctx context.Context, followerID, followingID string) bool
}

// BookStatsRepository is read only; stats are written by the aggregator.
type BookStatsRepository interface {
	GetByISBN(ctx context.Context, isbn string) (*model.BookStats, error)
	GetPopular(ctx context.Context, limit int) ([]model.BookStats, error)
	GetTopRated(ctx context.Context, limit int) ([]model.BookStats, error)
}
