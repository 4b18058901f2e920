package model

import (
	"errors"
	"time"
)

// Like is a user's like on another user's library entry. Creating or
// deleting one always moves the entry's LikesCount in the same commit.
type Like struct {
	ID         string    `firestore:"-" json:"id"`
	UserBookID string    `firestore:"userBookId" json:"userBookId"`
	UserID     string    `firestore:"userId" json:"userId"`
	CreatedAt  time.Time `firestore:"createdAt" json:"createdAt"`
}

// Error codes for HTTP responses
const (
	CodeAlreadyLiked = "ALREADY_LIKED"
)

var (
	ErrAlreadyLiked  = errors.New("already liked this user book")
	ErrLikeNotFound  = errors.New("like not found")
	ErrCannotLikeOwn = errors.New("cannot like your own user book")
)
