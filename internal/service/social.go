package service

import (
	"context"
	"log"

	"bookshelf/internal/catalog"
	"bookshelf/internal/model"
	"bookshelf/internal/queue"
	"bookshelf/internal/repository"
)

// SocialService covers likes, follows and bookmarks.
type SocialService struct {
	bookResolver
	likes     repository.LikeRepository
	followers repository.FollowerRepository
	bookmarks repository.BookmarkRepository
	userBooks repository.UserBookRepository
	users     repository.UserRepository
	publisher queue.Publisher
}

func NewSocialService(
	likes repository.LikeRepository,
	followers repository.FollowerRepository,
	bookmarks repository.BookmarkRepository,
	userBooks repository.UserBookRepository,
	users repository.UserRepository,
	books repository.BookRepository,
	searcher catalog.Searcher,
	publisher queue.Publisher,
) *SocialService {
	return &SocialService{
		bookResolver: bookResolver{books: books, catalog: searcher},
		likes:        likes,
		followers:    followers,
		bookmarks:    bookmarks,
		userBooks:    userBooks,
		users:        users,
		publisher:    publisher,
	}
}

// likeTarget loads a public entry that userID may like.
func (s *SocialService) likeTarget(ctx context.Context, userID, userBookID string) (*model.UserBook, error) {
	ub, err := s.userBooks.GetByID(ctx, userBookID)
	if err != nil {
		return nil, err
	}
	if ub == nil || !ub.IsPublic {
		return nil, model.ErrUserBookNotFound
	}
	if ub.UserID == userID {
		return nil, model.ErrCannotLikeOwn
	}
	return ub, nil
}

// Like records userID's like and bumps the entry's likesCount in one commit.
func (s *SocialService) Like(ctx context.Context, userID, userBookID string) error {
	ub, err := s.likeTarget(ctx, userID, userBookID)
	if err != nil {
		return err
	}

	if _, err := s.likes.Create(ctx, userBookID, userID); err != nil {
		return err
	}
	log.Printf("[SocialService] Like OK: userId=%s userBookId=%s", userID, userBookID)

	queue.Publish(ctx, s.publisher, "SocialService",
		queue.NewUserBookEvent(queue.EventUserBookLiked, ub.ISBN, userID, userBookID))
	return nil
}

// Unlike removes userID's like and decrements likesCount in one commit.
func (s *SocialService) Unlike(ctx context.Context, userID, userBookID string) error {
	ub, err := s.userBooks.GetByID(ctx, userBookID)
	if err != nil {
		return err
	}
	if ub == nil {
		return model.ErrUserBookNotFound
	}

	if err := s.likes.Delete(ctx, userBookID, userID); err != nil {
		return err
	}
	log.Printf("[SocialService] Unlike OK: userId=%s userBookId=%s", userID, userBookID)

	queue.Publish(ctx, s.publisher, "SocialService",
		queue.NewUserBookEvent(queue.EventUserBookUnliked, ub.ISBN, userID, userBookID))
	return nil
}

func (s *SocialService) IsLiked(ctx context.Context, userID, userBookID string) bool {
	return s.likes.IsLiked(ctx, userBookID, userID)
}

// ListLikes returns the likes on one entry, newest first.
func (s *SocialService) ListLikes(ctx context.Context, userBookID string) ([]model.Like, error) {
	return s.likes.GetByUserBookID(ctx, userBookID)
}

func (s *SocialService) Follow(ctx context.Context, followerID, followingID string) error {
	if followerID == followingID {
		return model.ErrCannotFollowSelf
	}

	target, err := s.users.GetByID(ctx, followingID)
	if err != nil {
		return err
	}
	if target == nil {
		return model.ErrUserNotFound
	}

	if _, err := s.followers.Create(ctx, followerID, followingID); err != nil {
		return err
	}
	log.Printf("[SocialService] Follow OK: follower=%s following=%s", followerID, followingID)
	return nil
}

func (s *SocialService) Unfollow(ctx context.Context, followerID, followingID string) error {
	if followerID == followingID {
		return model.ErrCannotFollowSelf
	}
	return s.followers.Delete(ctx, followerID, followingID)
}

func (s *SocialService) IsFollowing(ctx context.Context, followerID, followingID string) bool {
	return s.followers.IsFollowing(ctx, followerID, followingID)
}

// GetFollowers lists who follows userID. viewerID, when set, fills each
// summary's IsFollowing flag.
func (s *SocialService) GetFollowers(ctx context.Context, userID, viewerID string) (*model.FollowListResponse, error) {
	if err := s.requireUser(ctx, userID); err != nil {
		return nil, err
	}
	rels, err := s.followers.GetFollowers(ctx, userID)
	if err != nil {
		return nil, err
	}
	ids := make([]string, len(rels))
	for i, r := range rels {
		ids[i] = r.FollowerID
	}
	return s.summaries(ctx, ids, viewerID), nil
}

// GetFollowings lists who userID follows.
func (s *SocialService) GetFollowings(ctx context.Context, userID, viewerID string) (*model.FollowListResponse, error) {
	if err := s.requireUser(ctx, userID); err != nil {
		return nil, err
	}
	rels, err := s.followers.GetFollowings(ctx, userID)
	if err != nil {
		return nil, err
	}
	ids := make([]string, len(rels))
	for i, r := range rels {
		ids[i] = r.FollowingID
	}
	return s.summaries(ctx, ids, viewerID), nil
}

func (s *SocialService) requireUser(ctx context.Context, userID string) error {
	u, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return err
	}
	if u == nil {
		return model.ErrUserNotFound
	}
	return nil
}

// summaries resolves user IDs to summaries, skipping accounts that no longer
// exist or cannot be read.
func (s *SocialService) summaries(ctx context.Context, ids []string, viewerID string) *model.FollowListResponse {
	users := make([]model.UserSummary, 0, len(ids))
	for _, id := range ids {
		u, err := s.users.GetByID(ctx, id)
		if err != nil {
			log.Printf("[SocialService] summary lookup FAILED: userId=%s err=%v", id, err)
			continue
		}
		if u == nil {
			continue
		}
		summary := u.Summary()
		if viewerID != "" && viewerID != id {
			summary.IsFollowing = s.followers.IsFollowing(ctx, viewerID, id)
		}
		users = append(users, summary)
	}
	return &model.FollowListResponse{Users: users, Count: len(users)}
}

// Bookmark saves isbn to userID's bookmarks, storing the book first if it is
// not known yet.
func (s *SocialService) Bookmark(ctx context.Context, userID, isbn string, meta *model.BookMetadata) (*model.Bookmark, error) {
	book, err := s.ensureBook(ctx, isbn, meta)
	if err != nil {
		return nil, err
	}

	if _, err := s.bookmarks.Create(ctx, userID, isbn); err != nil {
		return nil, err
	}

	mark, err := s.bookmarks.GetByUserIDAndISBN(ctx, userID, isbn)
	if err != nil {
		return nil, err
	}
	if mark == nil {
		return nil, model.ErrBookmarkNotFound
	}
	mark.Book = book
	return mark, nil
}

func (s *SocialService) Unbookmark(ctx context.Context, userID, isbn string) error {
	return s.bookmarks.Delete(ctx, userID, isbn)
}

func (s *SocialService) IsBookmarked(ctx context.Context, userID, isbn string) bool {
	return s.bookmarks.IsBookmarked(ctx, userID, isbn)
}

// ListBookmarks returns userID's bookmarks with their books, newest first.
func (s *SocialService) ListBookmarks(ctx context.Context, userID string) ([]model.Bookmark, error) {
	marks, err := s.bookmarks.GetByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}
	cache := newBookCache(s.books)
	for i := range marks {
		marks[i].Book = cache.get(ctx, marks[i].ISBN)
	}
	return marks, nil
}
