package report

import (
	"context"
	"fmt"
	"net/url"
	"path/filepath"
	"strings"
)

// Open returns the sink for target:
//
//	/some/dir or file:///some/dir    local directory
//	s3://bucket/prefix                AWS S3 or an S3-compatible store
//	gs://bucket/prefix                Google Cloud Storage
//	postgres://user@host/db           Postgres table shortcut_runs
//
// An empty target returns a nil sink.
func Open(ctx context.Context, target string, s3cfg S3Config) (Sink, error) {
	target = strings.TrimSpace(target)
	if target == "" {
		return nil, nil
	}

	u, err := url.Parse(target)
	if err != nil || isLocalPath(u) {
		return NewBlobSink(NewLocalStorage(target), ""), nil
	}

	switch u.Scheme {
	case "file":
		dir := u.Path
		if dir == "" {
			dir = u.Opaque
		}
		if dir == "" {
			return nil, fmt.Errorf("report target %q has no path", target)
		}
		return NewBlobSink(NewLocalStorage(filepath.FromSlash(dir)), ""), nil

	case "s3":
		s3cfg.Bucket = u.Host
		store, err := NewS3Storage(ctx, s3cfg)
		if err != nil {
			return nil, err
		}
		return NewBlobSink(store, u.Path), nil

	case "gs":
		store, err := NewGCSStorage(ctx, u.Host)
		if err != nil {
			return nil, err
		}
		return NewBlobSink(store, u.Path), nil

	case "postgres", "postgresql":
		sink, err := OpenPostgres(ctx, target)
		if err != nil {
			return nil, err
		}
		return sink, nil

	default:
		return nil, fmt.Errorf("unsupported report target scheme %q (expected a directory, file://, s3://, gs:// or postgres://)", u.Scheme)
	}
}

// isLocalPath reports whether a parsed target is a plain filesystem path.
// A single-letter scheme is a Windows drive letter.
func isLocalPath(u *url.URL) bool {
	return u.Scheme == "" || len(u.Scheme) == 1
}
