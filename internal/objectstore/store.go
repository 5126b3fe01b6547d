// Package objectstore uploads images into named buckets and resolves their
// public URLs.
package objectstore

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrBucketNotFound means the bucket has not been provisioned.
	ErrBucketNotFound = errors.New("storage bucket not found")
	// ErrNotConfigured is returned when no storage backend is configured.
	ErrNotConfigured = errors.New("object storage not configured")
	// ErrInvalidFile covers size and content type rejections.
	ErrInvalidFile = errors.New("invalid file")
)

type Store interface {
	Upload(ctx context.Context, bucket, path string, data []byte, contentType string) error
	PublicURL(bucket, path string) string
}

// BucketNotFoundError explains how to provision the missing bucket by hand.
type BucketNotFoundError struct {
	Bucket string
}

func (e *BucketNotFoundError) Error() string {
	return fmt.Sprintf("bucket %q not found", e.Bucket)
}

func (e *BucketNotFoundError) Unwrap() error { return ErrBucketNotFound }

// Steps lists the manual setup needed before uploads can succeed.
func (e *BucketNotFoundError) Steps() []string {
	return []string{
		"Open the storage dashboard of your backend project",
		fmt.Sprintf("Create a new bucket named %q", e.Bucket),
		"Mark the bucket as public so uploaded images can be displayed",
		"Allow uploads for the role the site uses (insert policy on the bucket)",
		"Retry the upload",
	}
}

func (e *BucketNotFoundError) Instructions() string {
	steps := e.Steps()
	var b strings.Builder
	fmt.Fprintf(&b, "Storage bucket %q does not exist. Set it up manually:", e.Bucket)
	for i, s := range steps {
		fmt.Fprintf(&b, "\n%d. %s", i+1, s)
	}
	return b.String()
}

// Disabled rejects uploads when storage is not configured.
type Disabled struct{}

func (Disabled) Upload(context.Context, string, string, []byte, string) error {
	return ErrNotConfigured
}

func (Disabled) PublicURL(string, string) string { return "" }
