package model

import (
	"errors"
	"io"
	"strings"
)

const (
	MaxProfileImageBytes = 5 * 1024 * 1024 // 5 MiB
	ProfileImageMaxSide  = 512
	ProfileImageFolder   = "profiles"
	ProfileCacheControl  = "public, max-age=31536000" // 1 year
)

// Supported image content types for upload validation
const (
	ContentTypeJPEG = "image/jpeg"
	ContentTypePNG  = "image/png"
	ContentTypeGIF  = "image/gif"
	ContentTypeWebP = "image/webp"
)

var imageExtensions = map[string]string{
	ContentTypeJPEG: "jpg",
	ContentTypePNG:  "png",
	ContentTypeGIF:  "gif",
	ContentTypeWebP: "webp",
}

// Error codes for HTTP responses
const (
	CodeFileTooLarge     = "FILE_TOO_LARGE"
	CodeInvalidImageType = "INVALID_IMAGE_TYPE"
)

// Domain errors for media operations
var (
	ErrFileTooLarge     = errors.New("file too large")
	ErrInvalidImageType = errors.New("invalid image type")
	ErrStorageDisabled  = errors.New("image uploads are not configured")
)

// ImageFile is an uploaded image as received from a multipart form.
type ImageFile struct {
	Filename    string
	ContentType string
	Size        int64
	Body        io.Reader
}

// UploadResult represents the uploaded object location
// URL is the public-facing URL
// Key is the object key inside the bucket (useful for cleanup)
type UploadResult struct {
	URL string `json:"url"`
	Key string `json:"key"`
}

// IsAllowedImageType reports if the provided content type is supported
func IsAllowedImageType(contentType string) bool {
	if !strings.HasPrefix(contentType, "image/") {
		return false
	}
	_, ok := imageExtensions[contentType]
	return ok
}

// ImageExtension returns the file extension used for a content type.
func ImageExtension(contentType string) string {
	return imageExtensions[contentType]
}
