package model

import (
	"errors"
	"time"
)

// Follower records that FollowerID follows FollowingID.
type Follower struct {
	ID          string    `firestore:"-" json:"id"`
	FollowerID  string    `firestore:"followerId" json:"followerId"`
	FollowingID string    `firestore:"followingId" json:"followingId"`
	CreatedAt   time.Time `firestore:"createdAt" json:"createdAt"`
}

type FollowListResponse struct {
	Users []UserSummary `json:"users"`
	Count int           `json:"count"`
}

// Error codes for HTTP responses
const (
	CodeAlreadyFollowing = "ALREADY_FOLLOWING"
)

var (
	ErrAlreadyFollowing = errors.New("already following this user")
	ErrNotFollowing     = errors.New("not following this user")
	ErrCannotFollowSelf = errors.New("cannot follow yourself")
)
