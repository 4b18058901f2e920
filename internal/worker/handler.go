package worker

import (
	"context"
	"fmt"
	"log"
	"time"

	"bookshelf/internal/queue"
	"bookshelf/internal/repository"
)

// Handler turns library events into stats recomputations.
type Handler struct {
	aggregator *Aggregator
	userBooks  repository.UserBookRepository
}

// NewHandler creates a new event handler.
func NewHandler(aggregator *Aggregator, userBooks repository.UserBookRepository) *Handler {
	return &Handler{
		aggregator: aggregator,
		userBooks:  userBooks,
	}
}

// HandleEvent routes an event to the appropriate handler based on type.
func (h *Handler) HandleEvent(ctx context.Context, event queue.LibraryEvent) error {
	startTime := time.Now()
	var err error

	switch event.Type {
	case queue.EventUserBookRegistered,
		queue.EventUserBookUpdated,
		queue.EventUserBookDeleted,
		queue.EventUserBookLiked,
		queue.EventUserBookUnliked:
		err = h.handleBookChanged(ctx, event)
	case queue.EventProfileUpdated:
		err = h.handleProfileUpdated(ctx, event)
	default:
		log.Printf("[Worker] Unknown event type: %s", event.Type)
		return fmt.Errorf("unknown event type: %s", event.Type)
	}

	if err != nil {
		log.Printf("[Worker] HandleEvent FAILED: type=%s duration=%v err=%v",
			event.Type, time.Since(startTime), err)
		return err
	}

	log.Printf("[Worker] HandleEvent OK: type=%s duration=%v", event.Type, time.Since(startTime))
	return nil
}

func (h *Handler) handleBookChanged(ctx context.Context, event queue.LibraryEvent) error {
	if event.ISBN == "" {
		return fmt.Errorf("%s event without isbn", event.Type)
	}

	stats, err := h.aggregator.Recompute(ctx, event.ISBN)
	if err != nil {
		return err
	}

	if stats == nil {
		log.Printf("[Worker] BookChanged: isbn=%s has no public readers, stats removed", event.ISBN)
		return nil
	}
	log.Printf("[Worker] BookChanged DONE: isbn=%s readers=%d likes=%d avg=%.2f",
		event.ISBN, stats.TotalReaders, stats.TotalLikes, stats.AverageRating)
	return nil
}

// handleProfileUpdated recomputes every book in the user's public shelf, since
// gender, birth and library visibility all feed the aggregates.
func (h *Handler) handleProfileUpdated(ctx context.Context, event queue.LibraryEvent) error {
	entries, err := h.userBooks.GetByUserID(ctx, event.UserID, false)
	if err != nil {
		return fmt.Errorf("get user books: %w", err)
	}

	var failCount int
	seen := make(map[string]bool, len(entries))
	for _, ub := range entries {
		if seen[ub.ISBN] {
			continue
		}
		seen[ub.ISBN] = true

		if _, err := h.aggregator.Recompute(ctx, ub.ISBN); err != nil {
			log.Printf("[Worker] ProfileUpdated: recompute isbn=%s FAILED: %v", ub.ISBN, err)
			failCount++
		}
	}

	log.Printf("[Worker] ProfileUpdated DONE: user=%s books=%d failed=%d", event.UserID, len(seen), failCount)
	if failCount > 0 {
		return fmt.Errorf("%d of %d recomputations failed", failCount, len(seen))
	}
	return nil
}
