package model

import (
	"errors"
	"time"
)

// Reading statuses.
const (
	StatusReading   = "reading"
	StatusCompleted = "completed"
)

// Allowed ratings. 0 means unrated and 10 is the "best book" mark.
var AllowedRatings = []int{0, 1, 2, 3, 4, 5, 10}

const (
	MaxReviewLength = 100
	MaxTags         = 10
)

// UserBook is one book in a user's library.
type UserBook struct {
	ID         string     `firestore:"-" json:"id"`
	UserID     string     `firestore:"userId" json:"userId"`
	ISBN       string     `firestore:"isbn" json:"isbn"`
	Status     string     `firestore:"status" json:"status"`
	IsPublic   bool       `firestore:"isPublic" json:"isPublic"`
	Rating     int        `firestore:"rating" json:"rating"`
	Review     *string    `firestore:"review" json:"review,omitempty"`
	Memo       *string    `firestore:"memo" json:"memo,omitempty"`
	Tags       []string   `firestore:"tags" json:"tags,omitempty"`
	StartDate  *time.Time `firestore:"startDate" json:"startDate,omitempty"`
	EndDate    *time.Time `firestore:"endDate" json:"endDate,omitempty"`
	LikesCount int        `firestore:"likesCount" json:"likesCount"`
	CreatedAt  time.Time  `firestore:"createdAt" json:"createdAt"`
	UpdatedAt  time.Time  `firestore:"updatedAt" json:"updatedAt"`

	// Joined for display, never stored.
	Book    *Book `firestore:"-" json:"book,omitempty"`
	IsLiked bool  `firestore:"-" json:"isLiked"`
}

// NewUserBook holds the fields of a library entry at creation.
type NewUserBook struct {
	UserID    string
	ISBN      string
	Status    string
	IsPublic  bool
	Rating    int
	Review    *string
	Memo      *string
	Tags      []string
	StartDate *time.Time
	EndDate   *time.Time
}

// UserBookUpdate is a partial update. Identity fields (id, userId, isbn,
// createdAt) are deliberately absent.
type UserBookUpdate struct {
	Status    *string
	IsPublic  *bool
	Rating    *int
	Review    *string
	Memo      *string
	Tags      *[]string
	StartDate *time.Time
	EndDate   *time.Time
}

// RegisterBookRequest adds a book to the caller's library. Book may carry
// catalog metadata already fetched by the client; otherwise the server looks
// the ISBN up.
type RegisterBookRequest struct {
	ISBN      string        `json:"isbn" validate:"required,isbn10or13"`
	Book      *BookMetadata `json:"book"`
	Status    string        `json:"status" validate:"required,oneof=reading completed"`
	IsPublic  bool          `json:"isPublic"`
	Rating    int           `json:"rating" validate:"oneof=0 1 2 3 4 5 10"`
	Review    string        `json:"review" validate:"max=100"`
	Memo      string        `json:"memo"`
	Tags      string        `json:"tags"` // comma separated, at most MaxTags
	StartDate string        `json:"startDate" validate:"omitempty,datetime=2006-01-02"`
	EndDate   string        `json:"endDate" validate:"omitempty,datetime=2006-01-02"`
}

// UpdateUserBookRequest edits a library entry.
type UpdateUserBookRequest struct {
	Status    *string   `json:"status" validate:"omitempty,oneof=reading completed"`
	IsPublic  *bool     `json:"isPublic"`
	Rating    *int      `json:"rating" validate:"omitempty,oneof=0 1 2 3 4 5 10"`
	Review    *string   `json:"review" validate:"omitempty,max=100"`
	Memo      *string   `json:"memo"`
	Tags      *[]string `json:"tags" validate:"omitempty,max=10"`
	StartDate *string   `json:"startDate" validate:"omitempty,datetime=2006-01-02"`
	EndDate   *string   `json:"endDate" validate:"omitempty,datetime=2006-01-02"`
}

// Error codes for HTTP responses
const (
	CodeAlreadyRegistered = "ALREADY_REGISTERED"
	CodeLibraryPrivate    = "LIBRARY_PRIVATE"
)

var (
	ErrUserBookNotFound  = errors.New("user book not found")
	ErrNotUserBookOwner  = errors.New("not the owner of this user book")
	ErrAlreadyRegistered = errors.New("book already registered in library")
	ErrLibraryPrivate    = errors.New("library is not visible to this viewer")
	ErrTooManyTags       = errors.New("too many tags")
)
