package model

import (
	"errors"
	"time"
)

// Book is the shared catalog record, keyed by ISBN.
type Book struct {
	ISBN          string    `firestore:"isbn" json:"isbn"`
	ISBN13        *string   `firestore:"isbn13" json:"isbn13,omitempty"`
	Title         string    `firestore:"title" json:"title"`
	Author        string    `firestore:"author" json:"author"`
	Publisher     string    `firestore:"publisher" json:"publisher"`
	PubDate       string    `firestore:"pubDate" json:"pubDate"`
	Description   *string   `firestore:"description" json:"description,omitempty"`
	Cover         string    `firestore:"cover" json:"cover"`
	CategoryName  *string   `firestore:"categoryName" json:"categoryName,omitempty"`
	PriceStandard *int      `firestore:"priceStandard" json:"priceStandard,omitempty"`
	CreatedAt     time.Time `firestore:"createdAt" json:"createdAt"`
	UpdatedAt     time.Time `firestore:"updatedAt" json:"updatedAt"`
}

// BookMetadata describes a book as delivered by the catalog, before it is
// stored.
type BookMetadata struct {
	ISBN          string  `json:"isbn"`
	ISBN13        *string `json:"isbn13,omitempty"`
	Title         string  `json:"title" validate:"required"`
	Author        string  `json:"author"`
	Publisher     string  `json:"publisher"`
	PubDate       string  `json:"pubDate"`
	Description   *string `json:"description,omitempty"`
	Cover         string  `json:"cover"`
	CategoryName  *string `json:"categoryName,omitempty"`
	PriceStandard *int    `json:"priceStandard,omitempty"`
}

const (
	DefaultRecentBooksLimit = 20
	MaxListLimit            = 100
)

var (
	ErrBookNotFound = errors.New("book not found")
)
