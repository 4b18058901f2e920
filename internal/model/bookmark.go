package model

import (
	"errors"
	"time"
)

// Bookmark marks a book a user wants to read later.
type Bookmark struct {
	ID        string    `firestore:"-" json:"id"`
	UserID    string    `firestore:"userId" json:"userId"`
	ISBN      string    `firestore:"isbn" json:"isbn"`
	CreatedAt time.Time `firestore:"createdAt" json:"createdAt"`

	Book *Book `firestore:"-" json:"book,omitempty"`
}

// BookmarkRequest optionally carries catalog metadata so the book can be
// stored without a second catalog lookup.
type BookmarkRequest struct {
	Book *BookMetadata `json:"book"`
}

// Error codes for HTTP responses
const (
	CodeAlreadyBookmarked = "ALREADY_BOOKMARKED"
)

var (
	ErrBookmarkNotFound  = errors.New("bookmark not found")
	ErrAlreadyBookmarked = errors.New("book already bookmarked")
)
