package model

import (
	"errors"
	"regexp"
	"strings"
	"time"
)

// Library visibility levels.
const (
	VisibilityPublic    = "public"
	VisibilityFollowers = "followers"
	VisibilityPrivate   = "private"
)

// Genders accepted on profiles.
const (
	GenderMale   = "male"
	GenderFemale = "female"
	GenderOther  = "other"
)

// User is a profile document keyed by its user-chosen UserID.
type User struct {
	UserID            string    `firestore:"userId" json:"userId"`
	UID               string    `firestore:"uid" json:"uid"`
	Nickname          string    `firestore:"nickname" json:"nickname"`
	Email             string    `firestore:"email" json:"email"`
	PhotoURL          *string   `firestore:"photoURL" json:"photoURL,omitempty"`
	Bio               *string   `firestore:"bio" json:"bio,omitempty"`
	Birth             *string   `firestore:"birth" json:"birth,omitempty"` // YYMMDD
	Gender            *string   `firestore:"gender" json:"gender,omitempty"`
	LibraryVisibility string    `firestore:"libraryVisibility" json:"libraryVisibility"`
	CreatedAt         time.Time `firestore:"createdAt" json:"createdAt"`
	UpdatedAt         time.Time `firestore:"updatedAt" json:"updatedAt"`
}

// CreateUserRequest is the signup form. UID and Email come from the verified
// identity token, never from the request body.
type CreateUserRequest struct {
	UID               string  `json:"-"`
	Email             string  `json:"email" validate:"required,email"`
	UserID            string  `json:"userId" validate:"required,min=3,max=20,userid"`
	Nickname          string  `json:"nickname" validate:"required,min=2,max=20"`
	Gender            *string `json:"gender" validate:"omitempty,oneof=male female other"`
	Birth             *string `json:"birth" validate:"omitempty,birth"`
	Bio               *string `json:"bio"`
	PhotoURL          *string `json:"photoURL" validate:"omitempty,url"`
	LibraryVisibility string  `json:"libraryVisibility" validate:"omitempty,oneof=public followers private"`
}

// UpdateProfileRequest carries the editable profile fields. Nil fields are
// left untouched.
type UpdateProfileRequest struct {
	Nickname          *string `json:"nickname" validate:"omitempty,min=2,max=20"`
	Gender            *string `json:"gender" validate:"omitempty,oneof=male female other"`
	Birth             *string `json:"birth" validate:"omitempty,birth"`
	Bio               *string `json:"bio"`
	PhotoURL          *string `json:"photoURL" validate:"omitempty,url"`
	LibraryVisibility *string `json:"libraryVisibility" validate:"omitempty,oneof=public followers private"`
}

// UserSummary is the compact form used in follower lists.
type UserSummary struct {
	UserID      string  `json:"userId"`
	Nickname    string  `json:"nickname"`
	PhotoURL    *string `json:"photoURL,omitempty"`
	IsFollowing bool    `json:"isFollowing"`
}

// UserProfile is a user as seen by a viewer.
type UserProfile struct {
	User
	FollowerCount  int  `json:"followerCount"`
	FollowingCount int  `json:"followingCount"`
	IsFollowing    bool `json:"isFollowing"`
	IsMe           bool `json:"isMe"`
}

func (u *User) Summary() UserSummary {
	return UserSummary{
		UserID:   u.UserID,
		Nickname: u.Nickname,
		PhotoURL: u.PhotoURL,
	}
}

// Error codes for HTTP responses
const (
	CodeUserIDTaken    = "USER_ID_TAKEN"
	CodeNicknameTaken  = "NICKNAME_TAKEN"
	CodeProfileExists  = "PROFILE_EXISTS"
	CodeProfileMissing = "PROFILE_REQUIRED"
)

var (
	// ErrUserNotFound is returned when a user cannot be found
	ErrUserNotFound = errors.New("user not found")

	// ErrUserIDTaken is returned when the chosen user ID is already in use
	ErrUserIDTaken = errors.New("user id already in use")

	// ErrNicknameTaken is returned when the chosen nickname is already in use
	ErrNicknameTaken = errors.New("nickname already in use")

	// ErrProfileExists is returned when the identity already owns a profile
	ErrProfileExists = errors.New("profile already exists for this account")
)

var nonUserIDChars = regexp.MustCompile(`[^a-zA-Z0-9_-]`)

// DefaultUserID suggests a user ID from the local part of an email address.
func DefaultUserID(email string) string {
	local := email
	if i := strings.Index(email, "@"); i >= 0 {
		local = email[:i]
	}
	return nonUserIDChars.ReplaceAllString(local, "")
}
