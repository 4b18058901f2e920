package worker

import (
	"context"
	"fmt"
	"math"
	"strconv"
	"time"

	"bookshelf/internal/docstore"
	"bookshelf/internal/model"
	"bookshelf/internal/repository"
)

// StatsWriter persists recomputed aggregates.
type StatsWriter interface {
	Save(ctx context.Context, stats *model.BookStats) error
	Delete(ctx context.Context, isbn string) error
}

type docstoreStatsWriter struct {
	store docstore.Store
}

// NewStatsWriter writes bookStats documents keyed by ISBN.
func NewStatsWriter(store docstore.Store) StatsWriter {
	return &docstoreStatsWriter{store: store}
}

func (w *docstoreStatsWriter) Save(ctx context.Context, s *model.BookStats) error {
	fields := docstore.Fields{
		"isbn":               s.ISBN,
		"totalReaders":       s.TotalReaders,
		"totalLikes":         s.TotalLikes,
		"averageRating":      s.AverageRating,
		"ratingDistribution": s.RatingDistribution,
		"ageStats":           s.AgeStats,
		"updatedAt":          docstore.ServerTimestamp,
	}
	if s.GenderStats != nil {
		fields["genderStats"] = docstore.Fields{
			"male":   s.GenderStats.Male,
			"female": s.GenderStats.Female,
			"other":  s.GenderStats.Other,
		}
	}
	return w.store.Set(ctx, repository.CollectionBookStats, s.ISBN, fields)
}

func (w *docstoreStatsWriter) Delete(ctx context.Context, isbn string) error {
	return w.store.Delete(ctx, repository.CollectionBookStats, isbn)
}

// Aggregator recomputes a book's stats from scratch out of the public
// entries held in public libraries.
type Aggregator struct {
	userBooks repository.UserBookRepository
	users     repository.UserRepository
	writer    StatsWriter
	now       func() time.Time
}

func NewAggregator(userBooks repository.UserBookRepository, users repository.UserRepository, writer StatsWriter) *Aggregator {
	return &Aggregator{
		userBooks: userBooks,
		users:     users,
		writer:    writer,
		now:       time.Now,
	}
}

// Recompute rebuilds bookStats/{isbn}. A book nobody shows publicly any more
// has its stats removed.
func (a *Aggregator) Recompute(ctx context.Context, isbn string) (*model.BookStats, error) {
	entries, err := a.userBooks.GetPublicByISBN(ctx, isbn)
	if err != nil {
		return nil, fmt.Errorf("get public entries: %w", err)
	}

	owners := make(map[string]*model.User)
	readers := make([]readerEntry, 0, len(entries))
	for _, ub := range entries {
		owner, seen := owners[ub.UserID]
		if !seen {
			owner, err = a.users.GetByID(ctx, ub.UserID)
			if err != nil {
				return nil, fmt.Errorf("get owner %s: %w", ub.UserID, err)
			}
			owners[ub.UserID] = owner
		}
		if owner == nil || owner.LibraryVisibility != model.VisibilityPublic {
			continue
		}
		readers = append(readers, readerEntry{entry: ub, owner: owner})
	}

	if len(readers) == 0 {
		if err := a.writer.Delete(ctx, isbn); err != nil {
			return nil, fmt.Errorf("delete stats: %w", err)
		}
		return nil, nil
	}

	stats := computeStats(isbn, readers, a.now())
	if err := a.writer.Save(ctx, stats); err != nil {
		return nil, fmt.Errorf("save stats: %w", err)
	}
	return stats, nil
}

type readerEntry struct {
	entry model.UserBook
	owner *model.User
}

func computeStats(isbn string, readers []readerEntry, now time.Time) *model.BookStats {
	stats := &model.BookStats{
		ISBN:               isbn,
		TotalReaders:       len(readers),
		RatingDistribution: make(map[string]int, len(model.AllowedRatings)),
		GenderStats:        &model.GenderStats{},
		AgeStats:           make(map[string]int),
	}
	for _, r := range model.AllowedRatings {
		stats.RatingDistribution[strconv.Itoa(r)] = 0
	}

	var ratingSum, rated int
	for _, r := range readers {
		stats.TotalLikes += r.entry.LikesCount

		// Unrated entries are counted under "0" but stay out of the average.
		stats.RatingDistribution[strconv.Itoa(r.entry.Rating)]++
		if r.entry.Rating > 0 {
			ratingSum += effectiveRating(r.entry.Rating)
			rated++
		}

		if r.owner.Gender != nil {
			switch *r.owner.Gender {
			case model.GenderMale:
				stats.GenderStats.Male++
			case model.GenderFemale:
				stats.GenderStats.Female++
			case model.GenderOther:
				stats.GenderStats.Other++
			}
		}

		if r.owner.Birth != nil {
			if group, ok := AgeGroup(*r.owner.Birth, now); ok {
				stats.AgeStats[group]++
			}
		}
	}

	if rated > 0 {
		stats.AverageRating = math.Round(float64(ratingSum)/float64(rated)*100) / 100
	}
	return stats
}

// effectiveRating counts the "best book" mark as a five.
func effectiveRating(r int) int {
	if r == 10 {
		return 5
	}
	return r
}

// AgeGroup buckets a YYMMDD birth date by decade of age, e.g. "20s". Two-digit
// years after the current one are read as 19xx.
func AgeGroup(birth string, now time.Time) (string, bool) {
	if len(birth) != 6 {
		return "", false
	}
	yy, err1 := strconv.Atoi(birth[0:2])
	mm, err2 := strconv.Atoi(birth[2:4])
	dd, err3 := strconv.Atoi(birth[4:6])
	if err1 != nil || err2 != nil || err3 != nil || mm < 1 || mm > 12 || dd < 1 || dd > 31 {
		return "", false
	}

	year := 2000 + yy
	if year > now.Year() {
		year -= 100
	}
	age := now.Year() - year
	if now.Month() < time.Month(mm) || (now.Month() == time.Month(mm) && now.Day() < dd) {
		age--
	}
	if age < 0 {
		return "", false
	}
	return strconv.Itoa(age/10*10) + "s", true
}
