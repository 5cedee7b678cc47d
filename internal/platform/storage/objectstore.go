package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	gcs "cloud.google.com/go/storage"
)

// ObjectStore writes objects to Cloud Storage and produces signed download
// URLs for them. It backs the services-layer object store contract.
type ObjectStore struct {
	client *gcs.Client
	signer *Client
}

// NewObjectStore constructs an ObjectStore from a Cloud Storage client and a
// signed URL client.
func NewObjectStore(client *gcs.Client, signer *Client) (*ObjectStore, error) {
	if client == nil {
		return nil, errors.New("object store: client is required")
	}
	if signer == nil {
		return nil, errors.New("object store: signer is required")
	}
	return &ObjectStore{client: client, signer: signer}, nil
}

// Upload writes data to bucket/object with the given content type.
func (s *ObjectStore) Upload(ctx context.Context, bucket, object, contentType string, data []byte) error {
	if s == nil || s.client == nil {
		return errors.New("object store: not initialised")
	}
	bucket = strings.TrimSpace(bucket)
	if bucket == "" {
		return errInvalidBucket
	}
	object = strings.TrimSpace(object)
	if object == "" {
		return errInvalidObject
	}
	if len(data) == 0 {
		return errors.New("object store: data is required")
	}

	w := s.client.Bucket(bucket).Object(object).NewWriter(ctx)
	if contentType = strings.TrimSpace(contentType); contentType != "" {
		w.ContentType = contentType
	}
	if _, err := w.Write(data); err != nil {
		_ = w.Close()
		return fmt.Errorf("object store: write %s/%s: %w", bucket, object, err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("object store: close %s/%s: %w", bucket, object, err)
	}
	return nil
}

// SignedDownloadURL returns a time-limited download URL for bucket/object.
func (s *ObjectStore) SignedDownloadURL(ctx context.Context, bucket, object string, ttl time.Duration) (string, error) {
	if s == nil || s.signer == nil {
		return "", errors.New("object store: not initialised")
	}
	result, err := s.signer.SignedURL(ctx, bucket, object, SignedURLOptions{
		Download: &DownloadOptions{
			ExpiresIn:      ttl,
			AllowAnonymous: true,
		},
	})
	if err != nil {
		return "", err
	}
	return result.URL, nil
}
