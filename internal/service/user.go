package service

import (
	"context"
	"log"

	"bookshelf/internal/model"
	"bookshelf/internal/queue"
	"bookshelf/internal/repository"
	"bookshelf/internal/validation"
)

// UserService handles business logic for profiles
type UserService struct {
	repo         repository.UserRepository
	followerRepo repository.FollowerRepository
	media        *MediaService // optional, needed for photo uploads
	validator    *validation.Validator
	publisher    queue.Publisher
}

func NewUserService(
	repo repository.UserRepository,
	followerRepo repository.FollowerRepository,
	media *MediaService,
	validator *validation.Validator,
	publisher queue.Publisher,
) *UserService {
	return &UserService{
		repo:         repo,
		followerRepo: followerRepo,
		media:        media,
		validator:    validator,
		publisher:    publisher,
	}
}

// CheckUserIDAvailable reports whether userID can still be claimed.
func (s *UserService) CheckUserIDAvailable(ctx context.Context, userID string) bool {
	return !s.repo.CheckUserIDExists(ctx, userID)
}

// CheckNicknameAvailable reports whether nickname can still be claimed.
func (s *UserService) CheckNicknameAvailable(ctx context.Context, nickname string) bool {
	return !s.repo.CheckNicknameExists(ctx, nickname)
}

// CreateUser signs up the verified identity, optionally with a profile photo.
// The uniqueness checks and the write are separate steps, so two concurrent
// signups racing for one userId end with the later write winning.
func (s *UserService) CreateUser(ctx context.Context, principal *model.Principal, req *model.CreateUserRequest, photo *model.ImageFile) (*model.User, error) {
	req.UID = principal.UID
	if req.Email == "" {
		req.Email = principal.Email
	}
	if req.PhotoURL == nil && principal.PhotoURL != "" {
		photo := principal.PhotoURL
		req.PhotoURL = &photo
	}

	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}

	existing, err := s.repo.GetByUID(ctx, req.UID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, model.ErrProfileExists
	}

	if s.repo.CheckUserIDExists(ctx, req.UserID) {
		return nil, model.ErrUserIDTaken
	}
	if s.repo.CheckNicknameExists(ctx, req.Nickname) {
		return nil, model.ErrNicknameTaken
	}

	var upload *model.UploadResult
	if photo != nil {
		if s.media == nil {
			return nil, model.ErrStorageDisabled
		}
		upload, err = s.media.UploadProfileImage(ctx, req.UserID, photo)
		if err != nil {
			return nil, err
		}
		req.PhotoURL = &upload.URL
	}

	if _, err := s.repo.Create(ctx, req); err != nil {
		if upload != nil {
			s.discardUpload(ctx, upload.Key)
		}
		return nil, err
	}
	log.Printf("[UserService] CreateUser OK: userId=%s uid=%s", req.UserID, req.UID)

	return s.GetByID(ctx, req.UserID)
}

// GetByID returns the user or ErrUserNotFound.
func (s *UserService) GetByID(ctx context.Context, userID string) (*model.User, error) {
	user, err := s.repo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, model.ErrUserNotFound
	}
	return user, nil
}

// GetByUID returns the profile owned by an identity, or ErrUserNotFound.
func (s *UserService) GetByUID(ctx context.Context, uid string) (*model.User, error) {
	user, err := s.repo.GetByUID(ctx, uid)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, model.ErrUserNotFound
	}
	return user, nil
}

// GetProfile returns userID's profile as seen by viewerID, which may be empty
// for anonymous viewers.
func (s *UserService) GetProfile(ctx context.Context, userID, viewerID string) (*model.UserProfile, error) {
	user, err := s.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	profile := &model.UserProfile{User: *user, IsMe: viewerID == userID}

	if followers, err := s.followerRepo.GetFollowers(ctx, userID); err == nil {
		profile.FollowerCount = len(followers)
	} else {
		log.Printf("[UserService] GetProfile followers FAILED: userId=%s err=%v", userID, err)
	}
	if followings, err := s.followerRepo.GetFollowings(ctx, userID); err == nil {
		profile.FollowingCount = len(followings)
	} else {
		log.Printf("[UserService] GetProfile followings FAILED: userId=%s err=%v", userID, err)
	}

	if viewerID != "" && !profile.IsMe {
		profile.IsFollowing = s.followerRepo.IsFollowing(ctx, viewerID, userID)
	}
	return profile, nil
}

// UpdateProfile applies the non-nil fields of req to userID's profile.
func (s *UserService) UpdateProfile(ctx context.Context, userID string, req *model.UpdateProfileRequest) (*model.User, error) {
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}

	current, err := s.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if req.Nickname != nil && *req.Nickname != current.Nickname && s.repo.CheckNicknameExists(ctx, *req.Nickname) {
		return nil, model.ErrNicknameTaken
	}

	if err := s.repo.Update(ctx, userID, req); err != nil {
		return nil, err
	}

	// Gender, birth and visibility feed into book stats.
	if req.Gender != nil || req.Birth != nil || req.LibraryVisibility != nil {
		queue.Publish(ctx, s.publisher, "UserService", queue.NewProfileUpdatedEvent(userID))
	}

	return s.GetByID(ctx, userID)
}

// UpdatePhoto uploads a new profile image and points the profile at it. The
// uploaded object is removed again if the profile update fails.
func (s *UserService) UpdatePhoto(ctx context.Context, userID string, file *model.ImageFile) (*model.User, error) {
	if s.media == nil {
		return nil, model.ErrStorageDisabled
	}

	upload, err := s.media.UploadProfileImage(ctx, userID, file)
	if err != nil {
		return nil, err
	}

	user, err := s.UpdateProfile(ctx, userID, &model.UpdateProfileRequest{PhotoURL: &upload.URL})
	if err != nil {
		s.discardUpload(ctx, upload.Key)
		return nil, err
	}
	return user, nil
}

func (s *UserService) discardUpload(ctx context.Context, key string) {
	if err := s.media.DeleteObject(ctx, key); err != nil {
		log.Printf("[UserService] upload cleanup FAILED: key=%s err=%v", key, err)
	}
}
