// Package localstore keeps uploads on the local filesystem, one directory
// per bucket, for development and single-host deployments.
package localstore

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/Zachkp/portfolio/internal/objectstore"
)

type Store struct {
	root    string
	baseURL string
}

// New serves files under root; baseURL is the prefix the HTTP server exposes
// root at, e.g. "/uploads".
func New(root, baseURL string) *Store {
	return &Store{root: root, baseURL: strings.TrimRight(baseURL, "/")}
}

func (s *Store) Root() string { return s.root }

// EnsureBucket creates the bucket directory.
func (s *Store) EnsureBucket(bucket string) error {
	if err := checkName(bucket); err != nil {
		return err
	}
	return os.MkdirAll(filepath.Join(s.root, bucket), 0o755)
}

func (s *Store) Upload(ctx context.Context, bucket, name string, data []byte, _ string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := checkName(bucket); err != nil {
		return err
	}

	dir := filepath.Join(s.root, bucket)
	info, err := os.Stat(dir)
	if errors.Is(err, fs.ErrNotExist) || (err == nil && !info.IsDir()) {
		return &objectstore.BucketNotFoundError{Bucket: bucket}
	}
	if err != nil {
		return fmt.Errorf("stat bucket: %w", err)
	}

	dst, err := s.objectPath(bucket, name)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return fmt.Errorf("create folder: %w", err)
	}
	// O_EXCL mirrors the hosted store refusing to overwrite objects.
	f, err := os.OpenFile(dst, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("create object: %w", err)
	}
	if _, err := f.Write(data); err != nil {
		f.Close()
		return fmt.Errorf("write object: %w", err)
	}
	return f.Close()
}

func (s *Store) PublicURL(bucket, name string) string {
	return s.baseURL + "/" + bucket + "/" + strings.TrimLeft(filepath.ToSlash(name), "/")
}

func (s *Store) objectPath(bucket, name string) (string, error) {
	base := filepath.Join(s.root, bucket)
	p := filepath.Join(base, filepath.FromSlash(name))
	rel, err := filepath.Rel(base, p)
	if err != nil || rel == "." || strings.HasPrefix(rel, "..") {
		return "", fmt.Errorf("%w: bad object name %q", objectstore.ErrInvalidFile, name)
	}
	return p, nil
}

func checkName(bucket string) error {
	if bucket == "" || strings.ContainsAny(bucket, `/\`) || bucket == "." || bucket == ".." {
		return fmt.Errorf("%w: bad bucket name %q", objectstore.ErrInvalidFile, bucket)
	}
	return nil
}
