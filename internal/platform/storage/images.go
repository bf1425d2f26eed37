// Package storage wraps Google Cloud Storage access for product imagery.
package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"cloud.google.com/go/storage"
)

var (
	errInvalidBucket = errors.New("storage: bucket name is required")
	errInvalidObject = errors.New("storage: object name is required")
	errEmptyPayload  = errors.New("storage: payload is empty")
)

// ImageStore persists product images as bucket objects. The object path
// returned from Save is what gets recorded on the product document.
type ImageStore struct {
	client *storage.Client
	bucket string
}

// NewImageStore constructs an image store bound to a bucket.
func NewImageStore(client *storage.Client, bucket string) (*ImageStore, error) {
	if client == nil {
		return nil, errors.New("storage: client is required")
	}
	bucket = strings.TrimSpace(bucket)
	if bucket == "" {
		return nil, errInvalidBucket
	}
	return &ImageStore{client: client, bucket: bucket}, nil
}

// Save writes the image bytes and returns the stored object path.
func (s *ImageStore) Save(ctx context.Context, path string, data []byte, contentType string) (string, error) {
	if s == nil || s.client == nil {
		return "", errors.New("storage: image store not initialised")
	}
	path = normalizeObjectPath(path)
	if path == "" {
		return "", errInvalidObject
	}
	if len(data) == 0 {
		return "", errEmptyPayload
	}

	writer := s.client.Bucket(s.bucket).Object(path).NewWriter(ctx)
	if ct := strings.TrimSpace(contentType); ct != "" {
		writer.ContentType = ct
	}
	if _, err := writer.Write(data); err != nil {
		_ = writer.Close()
		return "", fmt.Errorf("storage: write object %s: %w", path, err)
	}
	if err := writer.Close(); err != nil {
		return "", fmt.Errorf("storage: finalize object %s: %w", path, err)
	}
	return path, nil
}

// Delete removes a stored image. Missing objects are treated as deleted.
func (s *ImageStore) Delete(ctx context.Context, path string) error {
	if s == nil || s.client == nil {
		return errors.New("storage: image store not initialised")
	}
	path = normalizeObjectPath(path)
	if path == "" {
		return errInvalidObject
	}

	err := s.client.Bucket(s.bucket).Object(path).Delete(ctx)
	if err != nil && !errors.Is(err, storage.ErrObjectNotExist) {
		return fmt.Errorf("storage: delete object %s: %w", path, err)
	}
	return nil
}

func normalizeObjectPath(path string) string {
	return strings.Trim(strings.TrimSpace(path), "/")
}
