// Package gcs archives scan reports in a Google Cloud Storage bucket.
package gcs

import (
	"context"
	"fmt"
	"io"
	"strings"

	"cloud.google.com/go/storage"
)

// Config holds the GCS connection parameters.
type Config struct {
	Bucket string
}

// BlobStore uploads scan reports to a single bucket.
type BlobStore struct {
	bucket *storage.BucketHandle
	name   string
}

// New builds a BlobStore over an existing client.
func New(client *storage.Client, cfg Config) (*BlobStore, error) {
	if client == nil {
		return nil, fmt.Errorf("storage client is required")
	}
	if cfg.Bucket == "" {
		return nil, fmt.Errorf("bucket name is required")
	}
	return &BlobStore{
		bucket: client.Bucket(cfg.Bucket),
		name:   cfg.Bucket,
	}, nil
}

// PutObject streams r into the bucket at path and returns the gs:// URI.
// The object only becomes visible once the writer closes cleanly.
func (s *BlobStore) PutObject(ctx context.Context, path string, contentType string, r io.Reader) (string, error) {
	if strings.TrimSpace(path) == "" {
		return "", fmt.Errorf("object path is required")
	}

	w := s.bucket.Object(path).NewWriter(ctx)
	if contentType != "" {
		w.ContentType = contentType
	}
	if _, err := io.Copy(w, r); err != nil {
		// Close releases the upload session even after a failed copy.
		if cerr := w.Close(); cerr != nil {
			return "", fmt.Errorf("upload %s: %w (close: %v)", path, err, cerr)
		}
		return "", fmt.Errorf("upload %s: %w", path, err)
	}
	if err := w.Close(); err != nil {
		return "", fmt.Errorf("finalize %s: %w", path, err)
	}
	return fmt.Sprintf("gs://%s/%s", s.name, path), nil
}
