package service

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/disintegration/imaging"

	"bookshelf/internal/model"
	"bookshelf/internal/storage"
)

// MediaService validates profile images and stores them in object storage.
type MediaService struct {
	store storage.ObjectStore
	now   func() time.Time
}

func NewMediaService(store storage.ObjectStore) *MediaService {
	return &MediaService{store: store, now: time.Now}
}

// UploadProfileImage stores an image under profiles/{userId}_{unixMillis}.{ext}.
// Images larger than the profile bound are scaled down keeping their format.
func (s *MediaService) UploadProfileImage(ctx context.Context, userID string, file *model.ImageFile) (*model.UploadResult, error) {
	data, contentType, err := readAndValidateImage(file, model.MaxProfileImageBytes)
	if err != nil {
		return nil, err
	}

	body, err := boundImage(data, contentType, model.ProfileImageMaxSide)
	if err != nil {
		return nil, err
	}

	key := fmt.Sprintf("%s/%s_%d.%s", model.ProfileImageFolder, userID, s.now().UnixMilli(), model.ImageExtension(contentType))

	url, err := s.store.Put(ctx, key, body, contentType, model.ProfileCacheControl)
	if err != nil {
		return nil, err
	}
	log.Printf("[MediaService] UploadProfileImage OK: userId=%s key=%s bytes=%d", userID, key, len(body))

	return &model.UploadResult{URL: url, Key: key}, nil
}

// DeleteObject removes an object by key.
func (s *MediaService) DeleteObject(ctx context.Context, key string) error {
	return s.store.Delete(ctx, key)
}

// readAndValidateImage loads the upload into memory with size and type checks.
func readAndValidateImage(file *model.ImageFile, maxSize int64) ([]byte, string, error) {
	if file.Size > maxSize {
		return nil, "", model.ErrFileTooLarge
	}

	data, err := io.ReadAll(io.LimitReader(file.Body, maxSize+1))
	if err != nil {
		return nil, "", fmt.Errorf("failed to read upload: %w", err)
	}
	if int64(len(data)) > maxSize {
		return nil, "", model.ErrFileTooLarge
	}

	contentType := file.ContentType
	if contentType == "" && len(data) > 0 {
		contentType = http.DetectContentType(data[:min(len(data), 512)])
	}
	if idx := strings.Index(contentType, ";"); idx != -1 {
		contentType = strings.TrimSpace(contentType[:idx])
	}
	if !model.IsAllowedImageType(contentType) {
		return nil, "", model.ErrInvalidImageType
	}

	return data, contentType, nil
}

// boundImage fits the image inside maxSide x maxSide, re-encoding in its own
// format. WebP has no encoder here and is stored as uploaded.
func boundImage(data []byte, contentType string, maxSide int) ([]byte, error) {
	if contentType == model.ContentTypeWebP {
		return data, nil
	}

	img, err := imaging.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, model.ErrInvalidImageType
	}
	b := img.Bounds()
	if b.Dx() <= maxSide && b.Dy() <= maxSide {
		return data, nil
	}

	format, err := imaging.FormatFromExtension(model.ImageExtension(contentType))
	if err != nil {
		return nil, model.ErrInvalidImageType
	}

	resized := imaging.Fit(img, maxSide, maxSide, imaging.Lanczos)
	var buf bytes.Buffer
	if err := imaging.Encode(&buf, resized, format, imaging.JPEGQuality(85)); err != nil {
		return nil, fmt.Errorf("failed to encode image: %w", err)
	}
	return buf.Bytes(), nil
}
