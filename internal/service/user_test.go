package service

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/png"
	"testing"

	"bookshelf/internal/model"
	"bookshelf/internal/queue"
	"bookshelf/internal/validation"
)

// =============================================================================
// MOCKS
// =============================================================================

type mockUserRepository struct {
	createFn              func(ctx context.Context, req *model.CreateUserRequest) (string, error)
	getByIDFn             func(ctx context.Context, userID string) (*model.User, error)
	getByUIDFn            func(ctx context.Context, uid string) (*model.User, error)
	updateFn              func(ctx context.Context, userID string, req *model.UpdateProfileRequest) error
	checkUserIDExistsFn   func(ctx context.Context, userID string) bool
	checkNicknameExistsFn func(ctx context.Context, nickname string) bool

	createCalls []*model.CreateUserRequest
	updateCalls []*model.UpdateProfileRequest
}

func (m *mockUserRepository) Create(ctx context.Context, req *model.CreateUserRequest) (string, error) {
	m.createCalls = append(m.createCalls, req)
	if m.createFn != nil {
		return m.createFn(ctx, req)
	}
	return req.UserID, nil
}

func (m *mockUserRepository) GetByID(ctx context.Context, userID string) (*model.User, error) {
	if m.getByIDFn != nil {
		return m.getByIDFn(ctx, userID)
	}
	return nil, nil
}

func (m *mockUserRepository) GetByUID(ctx context.Context, uid string) (*model.User, error) {
	if m.getByUIDFn != nil {
		return m.getByUIDFn(ctx, uid)
	}
	return nil, nil
}

func (m *mockUserRepository) Update(ctx context.Context, userID string, req *model.UpdateProfileRequest) error {
	m.updateCalls = append(m.updateCalls, req)
	if m.updateFn != nil {
		return m.updateFn(ctx, userID, req)
	}
	return nil
}

func (m *mockUserRepository) Delete(ctx context.Context, userID string) error {
	return nil
}

func (m *mockUserRepository) CheckUserIDExists(ctx context.Context, userID string) bool {
	if m.checkUserIDExistsFn != nil {
		return m.checkUserIDExistsFn(ctx, userID)
	}
	return false
}

func (m *mockUserRepository) CheckNicknameExists(ctx context.Context, nickname string) bool {
	if m.checkNicknameExistsFn != nil {
		return m.checkNicknameExistsFn(ctx, nickname)
	}
	return false
}

type mockFollowerRepository struct {
	followers   []model.Follower
	followings  []model.Follower
	isFollowing bool
}

func (m *mockFollowerRepository) Create(ctx context.Context, followerID, followingID string) (string, error) {
	return followerID + ":" + followingID, nil
}

func (m *mockFollowerRepository) Delete(ctx context.Context, followerID, followingID string) error {
	return nil
}

func (m *mockFollowerRepository) GetByFollowerIDAndFollowingID(ctx context.Context, followerID, followingID string) (*model.Follower, error) {
	return nil, nil
}

func (m *mockFollowerRepository) GetFollowings(ctx context.Context, userID string) ([]model.Follower, error) {
	return m.followings, nil
}

func (m *mockFollowerRepository) GetFollowers(ctx context.Context, userID string) ([]model.Follower, error) {
	return m.followers, nil
}

func (m *mockFollowerRepository) IsFollowing(ctx context.Context, followerID, followingID string) bool {
	return m.isFollowing
}

type recordingPublisher struct {
	events []queue.LibraryEvent
}

func (p *recordingPublisher) Publish(ctx context.Context, stream string, event queue.LibraryEvent) (string, error) {
	p.events = append(p.events, event)
	return "1-0", nil
}

type memoryObjectStore struct {
	objects map[string][]byte
	putErr  error
}

func newMemoryObjectStore() *memoryObjectStore {
	return &memoryObjectStore{objects: make(map[string][]byte)}
}

func (s *memoryObjectStore) Put(ctx context.Context, key string, body []byte, contentType, cacheControl string) (string, error) {
	if s.putErr != nil {
		return "", s.putErr
	}
	s.objects[key] = body
	return "https://cdn.example.com/" + key, nil
}

func (s *memoryObjectStore) Delete(ctx context.Context, key string) error {
	delete(s.objects, key)
	return nil
}

// userFromRequest simulates the stored profile produced by Create.
func userFromRequest(req *model.CreateUserRequest) *model.User {
	return &model.User{
		UserID:            req.UserID,
		UID:               req.UID,
		Nickname:          req.Nickname,
		Email:             req.Email,
		PhotoURL:          req.PhotoURL,
		LibraryVisibility: model.VisibilityPublic,
	}
}

func pngImage(t *testing.T, w, h int) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, w, h))); err != nil {
		t.Fatalf("encode png: %v", err)
	}
	return buf.Bytes()
}

var alicePrincipal = &model.Principal{UID: "firebase-alice", Email: "alice@example.com"}

func validSignup() *model.CreateUserRequest {
	return &model.CreateUserRequest{
		UserID:   "alice_reads",
		Nickname: "Alice",
	}
}

// =============================================================================
// CREATE USER TESTS
// =============================================================================

func TestUserService_CreateUser_Success(t *testing.T) {
	// ARRANGE
	var stored *model.User
	mockRepo := &mockUserRepository{}
	mockRepo.createFn = func(ctx context.Context, req *model.CreateUserRequest) (string, error) {
		stored = userFromRequest(req)
		return req.UserID, nil
	}
	mockRepo.getByIDFn = func(ctx context.Context, userID string) (*model.User, error) {
		return stored, nil
	}
	svc := NewUserService(mockRepo, &mockFollowerRepository{}, nil, validation.New(), nil)

	// ACT
	user, err := svc.CreateUser(context.Background(), alicePrincipal, validSignup(), nil)

	// ASSERT
	if err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}
	if user.UserID != "alice_reads" {
		t.Errorf("userId = %q, want %q", user.UserID, "alice_reads")
	}
	if len(mockRepo.createCalls) != 1 {
		t.Fatalf("Create called %d times, want 1", len(mockRepo.createCalls))
	}
	created := mockRepo.createCalls[0]
	if created.UID != alicePrincipal.UID {
		t.Errorf("uid = %q, want the verified identity %q", created.UID, alicePrincipal.UID)
	}
	if created.Email != alicePrincipal.Email {
		t.Errorf("email = %q, want %q", created.Email, alicePrincipal.Email)
	}
}

func TestUserService_CreateUser_Rejections(t *testing.T) {
	tests := []struct {
		name    string
		repo    *mockUserRepository
		req     func() *model.CreateUserRequest
		wantErr error
	}{
		{
			name: "identity already has a profile",
			repo: &mockUserRepository{
				getByUIDFn: func(ctx context.Context, uid string) (*model.User, error) {
					return &model.User{UserID: "someone"}, nil
				},
			},
			req:     validSignup,
			wantErr: model.ErrProfileExists,
		},
		{
			name: "user id taken",
			repo: &mockUserRepository{
				checkUserIDExistsFn: func(ctx context.Context, userID string) bool { return true },
			},
			req:     validSignup,
			wantErr: model.ErrUserIDTaken,
		},
		{
			name: "nickname taken",
			repo: &mockUserRepository{
				checkNicknameExistsFn: func(ctx context.Context, nickname string) bool { return true },
			},
			req:     validSignup,
			wantErr: model.ErrNicknameTaken,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := NewUserService(tt.repo, &mockFollowerRepository{}, nil, validation.New(), nil)

			_, err := svc.CreateUser(context.Background(), alicePrincipal, tt.req(), nil)

			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("expected %v, got %v", tt.wantErr, err)
			}
			if len(tt.repo.createCalls) != 0 {
				t.Error("Create should not be called")
			}
		})
	}
}

func TestUserService_CreateUser_InvalidUserID(t *testing.T) {
	mockRepo := &mockUserRepository{}
	svc := NewUserService(mockRepo, &mockFollowerRepository{}, nil, validation.New(), nil)

	req := validSignup()
	req.UserID = "no spaces!"
	_, err := svc.CreateUser(context.Background(), alicePrincipal, req, nil)

	var vErr *model.ValidationError
	if !errors.As(err, &vErr) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	if _, ok := vErr.Fields["userId"]; !ok {
		t.Errorf("expected a userId message, got %v", vErr.Fields)
	}
}

func TestUserService_CreateUser_PersistenceError(t *testing.T) {
	dbErr := model.NewPersistenceError("failed to create user", errors.New("deadline exceeded"))
	mockRepo := &mockUserRepository{
		createFn: func(ctx context.Context, req *model.CreateUserRequest) (string, error) {
			return "", dbErr
		},
	}
	svc := NewUserService(mockRepo, &mockFollowerRepository{}, nil, validation.New(), nil)

	_, err := svc.CreateUser(context.Background(), alicePrincipal, validSignup(), nil)

	if !errors.Is(err, dbErr) {
		t.Fatalf("expected persistence error, got %v", err)
	}
}

func TestUserService_CreateUser_PhotoWithoutStorage(t *testing.T) {
	mockRepo := &mockUserRepository{}
	svc := NewUserService(mockRepo, &mockFollowerRepository{}, nil, validation.New(), nil)

	photo := &model.ImageFile{ContentType: model.ContentTypePNG, Body: bytes.NewReader(nil)}
	_, err := svc.CreateUser(context.Background(), alicePrincipal, validSignup(), photo)

	if !errors.Is(err, model.ErrStorageDisabled) {
		t.Fatalf("expected ErrStorageDisabled, got %v", err)
	}
	if len(mockRepo.createCalls) != 0 {
		t.Error("Create should not be called")
	}
}

func TestUserService_CreateUser_PhotoCleanedUpWhenCreateFails(t *testing.T) {
	// ARRANGE
	objects := newMemoryObjectStore()
	mockRepo := &mockUserRepository{
		createFn: func(ctx context.Context, req *model.CreateUserRequest) (string, error) {
			if req.PhotoURL == nil {
				t.Error("expected the uploaded photo URL on the request")
			}
			return "", model.NewPersistenceError("failed to create user", errors.New("boom"))
		},
	}
	svc := NewUserService(mockRepo, &mockFollowerRepository{}, NewMediaService(objects), validation.New(), nil)

	data := pngImage(t, 10, 10)
	photo := &model.ImageFile{ContentType: model.ContentTypePNG, Size: int64(len(data)), Body: bytes.NewReader(data)}

	// ACT
	_, err := svc.CreateUser(context.Background(), alicePrincipal, validSignup(), photo)

	// ASSERT
	if err == nil {
		t.Fatal("expected an error")
	}
	if len(objects.objects) != 0 {
		t.Errorf("uploaded object should have been removed, found %d", len(objects.objects))
	}
}

// =============================================================================
// PROFILE TESTS
// =============================================================================

func TestUserService_GetProfile(t *testing.T) {
	mockRepo := &mockUserRepository{
		getByIDFn: func(ctx context.Context, userID string) (*model.User, error) {
			return &model.User{UserID: userID, Nickname: "Alice"}, nil
		},
	}
	followers := &mockFollowerRepository{
		followers:   []model.Follower{{FollowerID: "bob"}, {FollowerID: "carol"}},
		followings:  []model.Follower{{FollowingID: "bob"}},
		isFollowing: true,
	}
	svc := NewUserService(mockRepo, followers, nil, validation.New(), nil)

	profile, err := svc.GetProfile(context.Background(), "alice", "bob")
	if err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}
	if profile.FollowerCount != 2 || profile.FollowingCount != 1 {
		t.Errorf("counts = %d/%d, want 2/1", profile.FollowerCount, profile.FollowingCount)
	}
	if !profile.IsFollowing || profile.IsMe {
		t.Errorf("flags = following:%t me:%t, want true/false", profile.IsFollowing, profile.IsMe)
	}

	self, err := svc.GetProfile(context.Background(), "alice", "alice")
	if err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}
	if !self.IsMe || self.IsFollowing {
		t.Errorf("self flags = following:%t me:%t, want false/true", self.IsFollowing, self.IsMe)
	}
}

func TestUserService_GetProfile_NotFound(t *testing.T) {
	svc := NewUserService(&mockUserRepository{}, &mockFollowerRepository{}, nil, validation.New(), nil)

	_, err := svc.GetProfile(context.Background(), "ghost", "")

	if !errors.Is(err, model.ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound, got %v", err)
	}
}

func TestUserService_UpdateProfile_NicknameTaken(t *testing.T) {
	mockRepo := &mockUserRepository{
		getByIDFn: func(ctx context.Context, userID string) (*model.User, error) {
			return &model.User{UserID: userID, Nickname: "Alice"}, nil
		},
		checkNicknameExistsFn: func(ctx context.Context, nickname string) bool { return true },
	}
	svc := NewUserService(mockRepo, &mockFollowerRepository{}, nil, validation.New(), nil)

	nickname := "Bobby"
	_, err := svc.UpdateProfile(context.Background(), "alice", &model.UpdateProfileRequest{Nickname: &nickname})
	if !errors.Is(err, model.ErrNicknameTaken) {
		t.Fatalf("expected ErrNicknameTaken, got %v", err)
	}

	// Keeping one's own nickname is not a conflict.
	same := "Alice"
	if _, err := svc.UpdateProfile(context.Background(), "alice", &model.UpdateProfileRequest{Nickname: &same}); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
}

func TestUserService_UpdateProfile_PublishesWhenStatsInputsChange(t *testing.T) {
	mockRepo := &mockUserRepository{
		getByIDFn: func(ctx context.Context, userID string) (*model.User, error) {
			return &model.User{UserID: userID, Nickname: "Alice"}, nil
		},
	}
	publisher := &recordingPublisher{}
	svc := NewUserService(mockRepo, &mockFollowerRepository{}, nil, validation.New(), publisher)
	ctx := context.Background()

	bio := "reading everything"
	if _, err := svc.UpdateProfile(ctx, "alice", &model.UpdateProfileRequest{Bio: &bio}); err != nil {
		t.Fatalf("bio update failed: %v", err)
	}
	if len(publisher.events) != 0 {
		t.Errorf("bio change published %d events, want 0", len(publisher.events))
	}

	private := model.VisibilityPrivate
	if _, err := svc.UpdateProfile(ctx, "alice", &model.UpdateProfileRequest{LibraryVisibility: &private}); err != nil {
		t.Fatalf("visibility update failed: %v", err)
	}
	if len(publisher.events) != 1 {
		t.Fatalf("visibility change published %d events, want 1", len(publisher.events))
	}
	if ev := publisher.events[0]; ev.Type != queue.EventProfileUpdated || ev.UserID != "alice" {
		t.Errorf("unexpected event: %+v", ev)
	}
}

func TestUserService_UpdateProfile_Invalid(t *testing.T) {
	mockRepo := &mockUserRepository{}
	svc := NewUserService(mockRepo, &mockFollowerRepository{}, nil, validation.New(), nil)

	birth := "991340"
	_, err := svc.UpdateProfile(context.Background(), "alice", &model.UpdateProfileRequest{Birth: &birth})

	var vErr *model.ValidationError
	if !errors.As(err, &vErr) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	if len(mockRepo.updateCalls) != 0 {
		t.Error("Update should not be called")
	}
}

func TestUserService_UpdatePhoto(t *testing.T) {
	// ARRANGE
	objects := newMemoryObjectStore()
	var photoURL *string
	mockRepo := &mockUserRepository{
		getByIDFn: func(ctx context.Context, userID string) (*model.User, error) {
			return &model.User{UserID: userID, Nickname: "Alice", PhotoURL: photoURL}, nil
		},
		updateFn: func(ctx context.Context, userID string, req *model.UpdateProfileRequest) error {
			photoURL = req.PhotoURL
			return nil
		},
	}
	svc := NewUserService(mockRepo, &mockFollowerRepository{}, NewMediaService(objects), validation.New(), nil)
	data := pngImage(t, 20, 20)

	// ACT
	user, err := svc.UpdatePhoto(context.Background(), "alice", &model.ImageFile{
		ContentType: model.ContentTypePNG,
		Size:        int64(len(data)),
		Body:        bytes.NewReader(data),
	})

	// ASSERT
	if err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}
	if user.PhotoURL == nil {
		t.Fatal("expected the profile to point at the upload")
	}
	if len(objects.objects) != 1 {
		t.Errorf("stored %d objects, want 1", len(objects.objects))
	}
}
