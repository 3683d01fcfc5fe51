package service

import (
	"bytes"
	"context"
	"fmt"
	"io"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"

	"github.com/tripshare/backend/internal/domain"
)

// sniffLen is how many leading bytes are read to detect the content type.
const sniffLen = 512

// BlobStore stores bytes under a key and returns a URL clients can fetch.
type BlobStore interface {
	Put(ctx context.Context, key, contentType string, body io.Reader, size int64) (string, error)
}

// UploadFile is one file from a multipart upload.
type UploadFile struct {
	Filename string
	Size     int64
	Body     io.Reader
}

// UploadService validates uploaded files and hands them to a BlobStore.
type UploadService struct {
	store    BlobStore
	maxBytes int64
}

// NewUploadService constructs an UploadService. Files larger than maxBytes
// are rejected.
func NewUploadService(store BlobStore, maxBytes int64) *UploadService {
	return &UploadService{store: store, maxBytes: maxBytes}
}

// Upload stores every file under a fresh random key and returns their URLs
// in request order. Sizes are checked before anything is stored.
func (s *UploadService) Upload(ctx context.Context, who *domain.Identity, files []UploadFile) ([]string, error) {
	if who == nil {
		return nil, fmt.Errorf("service.UploadService.Upload: %w", domain.ErrUnauthorized)
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("service.UploadService.Upload: %w: no files uploaded", domain.ErrValidation)
	}
	for _, f := range files {
		if f.Size > s.maxBytes {
			return nil, fmt.Errorf("service.UploadService.Upload: %w: file too large (max %dMB)",
				domain.ErrValidation, s.maxBytes>>20)
		}
	}

	urls := make([]string, 0, len(files))
	for _, f := range files {
		head := make([]byte, sniffLen)
		n, err := io.ReadFull(f.Body, head)
		if err != nil && err != io.ErrUnexpectedEOF && err != io.EOF {
			return nil, fmt.Errorf("service.UploadService.Upload: read %q: %w", f.Filename, err)
		}
		mt := mimetype.Detect(head[:n])

		ext := mt.Extension()
		if ext == "" {
			ext = ".bin"
		}
		key := uuid.NewString() + ext

		body := io.MultiReader(bytes.NewReader(head[:n]), f.Body)
		url, err := s.store.Put(ctx, key, mt.String(), body, f.Size)
		if err != nil {
			return nil, fmt.Errorf("service.UploadService.Upload: store %q: %w", f.Filename, err)
		}
		urls = append(urls, url)
	}
	return urls, nil
}
