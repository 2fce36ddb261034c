package report

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"
)

// ErrExists is returned by a BlobStore when a key is already taken.
// Report documents are written once.
var ErrExists = errors.New("blob already exists")

// BlobStore abstracts write-once blob storage for report documents.
type BlobStore interface {
	Put(ctx context.Context, key string, data []byte) error
	Get(ctx context.Context, key string) ([]byte, error)
}

// LocalStorage implements BlobStore using the local filesystem.
type LocalStorage struct {
	BaseDir string
}

// NewLocalStorage creates a LocalStorage rooted at the given directory.
func NewLocalStorage(baseDir string) *LocalStorage {
	return &LocalStorage{BaseDir: baseDir}
}

func (s *LocalStorage) path(key string) string {
	return filepath.Join(s.BaseDir, filepath.FromSlash(key))
}

// Put creates a blob, creating parent directories as needed.
func (s *LocalStorage) Put(ctx context.Context, key string, data []byte) error {
	p := s.path(key)
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		return fmt.Errorf("create directory: %w", err)
	}
	f, err := os.OpenFile(p, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		if errors.Is(err, fs.ErrExist) {
			return ErrExists
		}
		return err
	}
	if _, err := f.Write(data); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// Get reads a blob.
func (s *LocalStorage) Get(ctx context.Context, key string) ([]byte, error) {
	return os.ReadFile(s.path(key))
}

// BlobSink publishes reports as JSON documents under prefix/reports/<id>.json.
type BlobSink struct {
	store  BlobStore
	prefix string
}

// NewBlobSink returns a sink writing to store under prefix.
func NewBlobSink(store BlobStore, prefix string) *BlobSink {
	return &BlobSink{store: store, prefix: strings.Trim(prefix, "/")}
}

// Key returns the blob key of a report.
func (s *BlobSink) Key(id string) string {
	return path.Join(s.prefix, "reports", id+".json")
}

// Publish stores the report. Publishing the same report twice is a no-op.
func (s *BlobSink) Publish(ctx context.Context, r *Report) error {
	data, err := r.Marshal()
	if err != nil {
		return err
	}
	err = s.store.Put(ctx, s.Key(r.ID), data)
	if errors.Is(err, ErrExists) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("publish report %s: %w", r.ID, err)
	}
	return nil
}

// Close releases the underlying store if it holds resources.
func (s *BlobSink) Close() error {
	if c, ok := s.store.(interface{ Close() error }); ok {
		return c.Close()
	}
	return nil
}
