package model

import (
	"errors"
	"time"
)

// BookStats is the aggregate view of a book across public libraries. It is
// produced by the stats worker and only read by the API.
type BookStats struct {
	ISBN               string         `firestore:"isbn" json:"isbn"`
	TotalReaders       int            `firestore:"totalReaders" json:"totalReaders"`
	TotalLikes         int            `firestore:"totalLikes" json:"totalLikes"`
	AverageRating      float64        `firestore:"averageRating" json:"averageRating"`
	RatingDistribution map[string]int `firestore:"ratingDistribution" json:"ratingDistribution"`
	GenderStats        *GenderStats   `firestore:"genderStats" json:"genderStats,omitempty"`
	AgeStats           map[string]int `firestore:"ageStats" json:"ageStats,omitempty"`
	UpdatedAt          time.Time      `firestore:"updatedAt" json:"updatedAt"`

	Book *Book `firestore:"-" json:"book,omitempty"`
}

type GenderStats struct {
	Male   int `firestore:"male" json:"male"`
	Female int `firestore:"female" json:"female"`
	Other  int `firestore:"other" json:"other"`
}

const DefaultStatsLimit = 20

var (
	ErrStatsNotFound = errors.New("book stats not found")
)
