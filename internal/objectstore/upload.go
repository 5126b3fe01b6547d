package objectstore

import (
	"context"
	"fmt"
	"io"
	"path"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
)

// MaxImageBytes is the upload size ceiling for every image field.
const MaxImageBytes = 5 << 20

// Policy restricts what a field accepts. Empty Allowed means any image/* type.
type Policy struct {
	MaxBytes int64
	Allowed  []string
}

var (
	AnyImage = Policy{MaxBytes: MaxImageBytes}
	// CertificateImage matches the certificate form's accept list.
	CertificateImage = Policy{MaxBytes: MaxImageBytes, Allowed: []string{"image/jpeg", "image/png", "image/webp"}}
)

// Check validates data against the policy by sniffing its content and
// returns the detected MIME type and extension.
func (p Policy) Check(data []byte) (string, string, error) {
	if len(data) == 0 {
		return "", "", fmt.Errorf("%w: empty file", ErrInvalidFile)
	}
	if p.MaxBytes > 0 && int64(len(data)) > p.MaxBytes {
		return "", "", fmt.Errorf("%w: file size must be less than %dMB", ErrInvalidFile, p.MaxBytes>>20)
	}

	mt := mimetype.Detect(data)
	if len(p.Allowed) == 0 {
		if !strings.HasPrefix(mt.String(), "image/") {
			return "", "", fmt.Errorf("%w: please select an image file", ErrInvalidFile)
		}
		return mt.String(), mt.Extension(), nil
	}
	for _, a := range p.Allowed {
		if mt.Is(a) {
			return a, mt.Extension(), nil
		}
	}
	return "", "", fmt.Errorf("%w: only %s are allowed", ErrInvalidFile, strings.Join(p.Allowed, ", "))
}

// ObjectName builds "<folder>/<uuid>-<unix millis><ext>"; folder may be empty.
func ObjectName(folder, ext string, now time.Time) string {
	name := fmt.Sprintf("%s-%d%s", uuid.NewString(), now.UnixMilli(), ext)
	if folder == "" {
		return name
	}
	return path.Join(folder, name)
}

// Target names where a field's uploads go.
type Target struct {
	Bucket string
	Folder string
	Policy Policy
}

// Uploader validates and uploads images, returning public URLs.
type Uploader struct {
	store Store
	now   func() time.Time
}

func NewUploader(store Store) *Uploader {
	return &Uploader{store: store, now: time.Now}
}

// Upload reads at most one byte past the policy limit so oversized files are
// rejected without buffering them whole.
func (u *Uploader) Upload(ctx context.Context, t Target, r io.Reader) (string, error) {
	limit := t.Policy.MaxBytes
	if limit <= 0 {
		limit = MaxImageBytes
	}
	data, err := io.ReadAll(io.LimitReader(r, limit+1))
	if err != nil {
		return "", fmt.Errorf("read upload: %w", err)
	}

	contentType, ext, err := t.Policy.Check(data)
	if err != nil {
		return "", err
	}

	name := ObjectName(t.Folder, ext, u.now())
	if err := u.store.Upload(ctx, t.Bucket, name, data, contentType); err != nil {
		return "", err
	}
	return u.store.PublicURL(t.Bucket, name), nil
}

// Resolve picks the value for an image field that takes either a URL or a
// file. Supplying both is rejected; supplying neither returns "".
func (u *Uploader) Resolve(ctx context.Context, t Target, url string, file io.Reader) (string, error) {
	url = strings.TrimSpace(url)
	if file == nil {
		return url, nil
	}
	if url != "" {
		return "", fmt.Errorf("%w: provide either an image URL or a file, not both", ErrInvalidFile)
	}
	return u.Upload(ctx, t, file)
}
