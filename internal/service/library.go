package service

import (
	"context"
	"log"
	"time"

	"bookshelf/internal/catalog"
	"bookshelf/internal/model"
	"bookshelf/internal/queue"
	"bookshelf/internal/repository"
	"bookshelf/internal/validation"
)

const dateLayout = "2006-01-02"

// LibraryService manages users' libraries of read books.
type LibraryService struct {
	bookResolver
	userBooks repository.UserBookRepository
	users     repository.UserRepository
	followers repository.FollowerRepository
	likes     repository.LikeRepository
	validator *validation.Validator
	publisher queue.Publisher
}

func NewLibraryService(
	books repository.BookRepository,
	userBooks repository.UserBookRepository,
	users repository.UserRepository,
	followers repository.FollowerRepository,
	likes repository.LikeRepository,
	searcher catalog.Searcher,
	validator *validation.Validator,
	publisher queue.Publisher,
) *LibraryService {
	return &LibraryService{
		bookResolver: bookResolver{books: books, catalog: searcher},
		userBooks:    userBooks,
		users:        users,
		followers:    followers,
		likes:        likes,
		validator:    validator,
		publisher:    publisher,
	}
}

// RegisterBook adds a book to userID's library. The shared Book record is
// created first if missing; a second entry for the same book is rejected.
func (s *LibraryService) RegisterBook(ctx context.Context, userID string, req *model.RegisterBookRequest) (*model.UserBook, error) {
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}

	book, err := s.ensureBook(ctx, req.ISBN, req.Book)
	if err != nil {
		return nil, err
	}

	if s.userBooks.CheckDuplicate(ctx, userID, req.ISBN) {
		return nil, model.ErrAlreadyRegistered
	}

	tags := validation.SplitTags(req.Tags)
	if len(tags) > model.MaxTags {
		return nil, model.ErrTooManyTags
	}

	entry := &model.NewUserBook{
		UserID:    userID,
		ISBN:      req.ISBN,
		Status:    req.Status,
		IsPublic:  req.IsPublic,
		Rating:    req.Rating,
		Review:    optionalString(req.Review),
		Memo:      optionalString(req.Memo),
		Tags:      tags,
		StartDate: parseDate(req.StartDate),
		EndDate:   parseDate(req.EndDate),
	}

	id, err := s.userBooks.Create(ctx, entry)
	if err != nil {
		return nil, err
	}
	log.Printf("[LibraryService] RegisterBook OK: userId=%s isbn=%s id=%s", userID, req.ISBN, id)

	queue.Publish(ctx, s.publisher, "LibraryService",
		queue.NewUserBookEvent(queue.EventUserBookRegistered, req.ISBN, userID, id))

	ub, err := s.userBooks.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if ub == nil {
		return nil, model.ErrUserBookNotFound
	}
	ub.Book = book
	return ub, nil
}

// ListLibrary returns ownerID's library as seen by viewerID (empty for
// anonymous). Owners see every entry; others see public entries, and only
// when the owner's library visibility lets them in. status filters when set.
func (s *LibraryService) ListLibrary(ctx context.Context, ownerID, viewerID, status string) ([]model.UserBook, error) {
	owner, err := s.users.GetByID(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	if owner == nil {
		return nil, model.ErrUserNotFound
	}

	isOwner := viewerID == ownerID
	if !isOwner {
		if err := s.checkLibraryAccess(ctx, owner, viewerID); err != nil {
			return nil, err
		}
	}

	var entries []model.UserBook
	if status != "" {
		entries, err = s.userBooks.GetByStatus(ctx, ownerID, status, isOwner)
	} else {
		entries, err = s.userBooks.GetByUserID(ctx, ownerID, isOwner)
	}
	if err != nil {
		return nil, err
	}

	cache := newBookCache(s.books)
	for i := range entries {
		entries[i].Book = cache.get(ctx, entries[i].ISBN)
		if viewerID != "" && !isOwner {
			entries[i].IsLiked = s.likes.IsLiked(ctx, entries[i].ID, viewerID)
		}
	}
	return entries, nil
}

// checkLibraryAccess applies the owner's libraryVisibility to a non-owner.
func (s *LibraryService) checkLibraryAccess(ctx context.Context, owner *model.User, viewerID string) error {
	switch owner.LibraryVisibility {
	case model.VisibilityPrivate:
		return model.ErrLibraryPrivate
	case model.VisibilityFollowers:
		if viewerID == "" || !s.followers.IsFollowing(ctx, viewerID, owner.UserID) {
			return model.ErrLibraryPrivate
		}
	}
	return nil
}

// GetUserBook returns one entry. Entries the viewer may not see read as not
// found rather than forbidden.
func (s *LibraryService) GetUserBook(ctx context.Context, id, viewerID string) (*model.UserBook, error) {
	ub, err := s.userBooks.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if ub == nil {
		return nil, model.ErrUserBookNotFound
	}

	if ub.UserID != viewerID {
		if !ub.IsPublic {
			return nil, model.ErrUserBookNotFound
		}
		owner, err := s.users.GetByID(ctx, ub.UserID)
		if err != nil {
			return nil, err
		}
		if owner == nil || s.checkLibraryAccess(ctx, owner, viewerID) != nil {
			return nil, model.ErrUserBookNotFound
		}
		if viewerID != "" {
			ub.IsLiked = s.likes.IsLiked(ctx, ub.ID, viewerID)
		}
	}

	ub.Book = newBookCache(s.books).get(ctx, ub.ISBN)
	return ub, nil
}

// owned loads an entry and checks it belongs to userID.
func (s *LibraryService) owned(ctx context.Context, userID, id string) (*model.UserBook, error) {
	ub, err := s.userBooks.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if ub == nil {
		return nil, model.ErrUserBookNotFound
	}
	if ub.UserID != userID {
		return nil, model.ErrNotUserBookOwner
	}
	return ub, nil
}

// UpdateUserBook edits an entry owned by userID.
func (s *LibraryService) UpdateUserBook(ctx context.Context, userID, id string, req *model.UpdateUserBookRequest) (*model.UserBook, error) {
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}
	ub, err := s.owned(ctx, userID, id)
	if err != nil {
		return nil, err
	}

	upd := &model.UserBookUpdate{
		Status:    req.Status,
		IsPublic:  req.IsPublic,
		Rating:    req.Rating,
		Review:    req.Review,
		Memo:      req.Memo,
		StartDate: parseDatePtr(req.StartDate),
		EndDate:   parseDatePtr(req.EndDate),
	}
	if req.Tags != nil {
		tags := make([]string, 0, len(*req.Tags))
		for _, t := range *req.Tags {
			tags = append(tags, validation.SplitTags(t)...)
		}
		if len(tags) > model.MaxTags {
			return nil, model.ErrTooManyTags
		}
		upd.Tags = &tags
	}

	if err := s.userBooks.Update(ctx, id, upd); err != nil {
		return nil, err
	}

	queue.Publish(ctx, s.publisher, "LibraryService",
		queue.NewUserBookEvent(queue.EventUserBookUpdated, ub.ISBN, userID, id))

	return s.GetUserBook(ctx, id, userID)
}

// DeleteUserBook removes an entry owned by userID together with its likes.
func (s *LibraryService) DeleteUserBook(ctx context.Context, userID, id string) error {
	ub, err := s.owned(ctx, userID, id)
	if err != nil {
		return err
	}

	likes, err := s.likes.GetByUserBookID(ctx, id)
	if err != nil {
		return err
	}
	for _, like := range likes {
		if err := s.likes.Delete(ctx, id, like.UserID); err != nil {
			log.Printf("[LibraryService] DeleteUserBook like cleanup FAILED: id=%s liker=%s err=%v", id, like.UserID, err)
		}
	}

	if err := s.userBooks.Delete(ctx, id); err != nil {
		return err
	}
	log.Printf("[LibraryService] DeleteUserBook OK: userId=%s id=%s", userID, id)

	queue.Publish(ctx, s.publisher, "LibraryService",
		queue.NewUserBookEvent(queue.EventUserBookDeleted, ub.ISBN, userID, id))
	return nil
}

// GetBook returns the shared catalog record for isbn.
func (s *LibraryService) GetBook(ctx context.Context, isbn string) (*model.Book, error) {
	book, err := s.books.GetByISBN(ctx, isbn)
	if err != nil {
		return nil, err
	}
	if book == nil {
		return nil, model.ErrBookNotFound
	}
	return book, nil
}

func (s *LibraryService) RecentBooks(ctx context.Context, limit int) ([]model.Book, error) {
	return s.books.GetRecent(ctx, limit)
}

func optionalString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// parseDate reads a validated YYYY-MM-DD value; empty yields nil.
func parseDate(s string) *time.Time {
	if s == "" {
		return nil
	}
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		return nil
	}
	return &t
}

func parseDatePtr(s *string) *time.Time {
	if s == nil {
		return nil
	}
	return parseDate(*s)
}
