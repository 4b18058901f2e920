package service

import (
	"context"

	"bookshelf/internal/model"
	"bookshelf/internal/repository"
)

// StatsService serves the aggregates written by the stats worker.
type StatsService struct {
	statsRepo repository.BookStatsRepository
	books     repository.BookRepository
}

func NewStatsService(statsRepo repository.BookStatsRepository, books repository.BookRepository) *StatsService {
	return &StatsService{statsRepo: statsRepo, books: books}
}

func (s *StatsService) GetBookStats(ctx context.Context, isbn string) (*model.BookStats, error) {
	stats, err := s.statsRepo.GetByISBN(ctx, isbn)
	if err != nil {
		return nil, err
	}
	if stats == nil {
		return nil, model.ErrStatsNotFound
	}
	return stats, nil
}

// Popular ranks books by readers and attaches their catalog records.
func (s *StatsService) Popular(ctx context.Context, limit int) ([]model.BookStats, error) {
	stats, err := s.statsRepo.GetPopular(ctx, limit)
	if err != nil {
		return nil, err
	}
	return s.withBooks(ctx, stats), nil
}

func (s *StatsService) TopRated(ctx context.Context, limit int) ([]model.BookStats, error) {
	stats, err := s.statsRepo.GetTopRated(ctx, limit)
	if err != nil {
		return nil, err
	}
	return s.withBooks(ctx, stats), nil
}

func (s *StatsService) withBooks(ctx context.Context, stats []model.BookStats) []model.BookStats {
	cache := newBookCache(s.books)
	for i := range stats {
		stats[i].Book = cache.get(ctx, stats[i].ISBN)
	}
	return stats
}
