package service

import (
	"bytes"
	"context"
	"errors"
	"image"
	"strings"
	"testing"
	"time"

	"bookshelf/internal/model"
)

func TestMediaService_UploadProfileImage(t *testing.T) {
	// ARRANGE
	objects := newMemoryObjectStore()
	svc := NewMediaService(objects)
	svc.now = func() time.Time { return time.UnixMilli(1700000000000) }
	data := pngImage(t, 1024, 256)

	// ACT
	res, err := svc.UploadProfileImage(context.Background(), "alice", &model.ImageFile{
		Size: int64(len(data)),
		Body: bytes.NewReader(data),
	})

	// ASSERT
	if err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}
	if res.Key != "profiles/alice_1700000000000.png" {
		t.Errorf("key = %q", res.Key)
	}
	if !strings.HasSuffix(res.URL, res.Key) {
		t.Errorf("url %q does not end with key", res.URL)
	}

	img, _, err := image.Decode(bytes.NewReader(objects.objects[res.Key]))
	if err != nil {
		t.Fatalf("stored object is not an image: %v", err)
	}
	if b := img.Bounds(); b.Dx() != model.ProfileImageMaxSide || b.Dy() != model.ProfileImageMaxSide/4 {
		t.Errorf("stored size = %dx%d, want %dx%d", b.Dx(), b.Dy(), model.ProfileImageMaxSide, model.ProfileImageMaxSide/4)
	}
}

func TestMediaService_SmallImageStoredAsIs(t *testing.T) {
	objects := newMemoryObjectStore()
	svc := NewMediaService(objects)
	data := pngImage(t, 64, 64)

	res, err := svc.UploadProfileImage(context.Background(), "alice", &model.ImageFile{
		ContentType: "image/png; charset=binary",
		Size:        int64(len(data)),
		Body:        bytes.NewReader(data),
	})

	if err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}
	if !bytes.Equal(objects.objects[res.Key], data) {
		t.Error("small image should be stored unchanged")
	}
}

func TestMediaService_Rejections(t *testing.T) {
	tests := []struct {
		name    string
		file    *model.ImageFile
		wantErr error
	}{
		{
			name:    "declared size too large",
			file:    &model.ImageFile{Size: model.MaxProfileImageBytes + 1, Body: bytes.NewReader(nil)},
			wantErr: model.ErrFileTooLarge,
		},
		{
			name: "body larger than declared",
			file: &model.ImageFile{
				ContentType: model.ContentTypePNG,
				Body:        bytes.NewReader(make([]byte, model.MaxProfileImageBytes+1)),
			},
			wantErr: model.ErrFileTooLarge,
		},
		{
			name:    "not an image",
			file:    &model.ImageFile{Body: strings.NewReader("%PDF-1.4 not an image")},
			wantErr: model.ErrInvalidImageType,
		},
		{
			name:    "claims png but is garbage",
			file:    &model.ImageFile{ContentType: model.ContentTypePNG, Body: strings.NewReader("garbage")},
			wantErr: model.ErrInvalidImageType,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			objects := newMemoryObjectStore()
			svc := NewMediaService(objects)

			_, err := svc.UploadProfileImage(context.Background(), "alice", tt.file)

			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("expected %v, got %v", tt.wantErr, err)
			}
			if len(objects.objects) != 0 {
				t.Error("nothing should be stored")
			}
		})
	}
}

func TestMediaService_StoreFailure(t *testing.T) {
	objects := newMemoryObjectStore()
	objects.putErr = errors.New("bucket unavailable")
	svc := NewMediaService(objects)
	data := pngImage(t, 8, 8)

	_, err := svc.UploadProfileImage(context.Background(), "alice", &model.ImageFile{
		ContentType: model.ContentTypePNG,
		Body:        bytes.NewReader(data),
	})

	if !errors.Is(err, objects.putErr) {
		t.Fatalf("expected store error, got %v", err)
	}
}
