package report

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"

	gcs "cloud.google.com/go/storage"
	"google.golang.org/api/googleapi"
)

// GCSStorage stores report documents in a Google Cloud Storage bucket.
type GCSStorage struct {
	client *gcs.Client
	bucket *gcs.BucketHandle
	name   string
}

// NewGCSStorage connects to bucket with Application Default Credentials.
func NewGCSStorage(ctx context.Context, bucket string) (*GCSStorage, error) {
	if bucket == "" {
		return nil, fmt.Errorf("gcs bucket is empty")
	}
	client, err := gcs.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("create gcs client: %w", err)
	}
	return &GCSStorage{client: client, bucket: client.Bucket(bucket), name: bucket}, nil
}

// Put creates the object at key in a single request. An existing object is
// left untouched and reported as ErrExists.
func (s *GCSStorage) Put(ctx context.Context, key string, data []byte) error {
	w := s.bucket.Object(key).If(gcs.Conditions{DoesNotExist: true}).NewWriter(ctx)
	w.ContentType = "application/json"
	w.ChunkSize = 0

	if _, err := w.Write(data); err != nil {
		w.Close()
		return fmt.Errorf("gcs write gs://%s/%s: %w", s.name, key, err)
	}
	err := w.Close()
	if err == nil {
		return nil
	}
	var gerr *googleapi.Error
	if errors.As(err, &gerr) && gerr.Code == http.StatusPreconditionFailed {
		return ErrExists
	}
	return fmt.Errorf("gcs write gs://%s/%s: %w", s.name, key, err)
}

// Get reads the object at key.
func (s *GCSStorage) Get(ctx context.Context, key string) ([]byte, error) {
	r, err := s.bucket.Object(key).NewReader(ctx)
	if err != nil {
		return nil, fmt.Errorf("gcs read gs://%s/%s: %w", s.name, key, err)
	}
	defer r.Close()
	return io.ReadAll(r)
}

// Close releases the client.
func (s *GCSStorage) Close() error {
	return s.client.Close()
}
