package supabase

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/Zachkp/portfolio/internal/objectstore"
)

// Storage implements objectstore.Store on Supabase Storage.
type Storage struct {
	c *Client
}

func (c *Client) Storage() *Storage { return &Storage{c: c} }

func escapePath(p string) string {
	parts := strings.Split(strings.TrimLeft(p, "/"), "/")
	for i, s := range parts {
		parts[i] = url.PathEscape(s)
	}
	return strings.Join(parts, "/")
}

func (s *Storage) Upload(ctx context.Context, bucket, path string, data []byte, contentType string) error {
	u := s.c.baseURL + "/storage/v1/object/" + url.PathEscape(bucket) + "/" + escapePath(path)
	req, err := s.c.newRequest(ctx, http.MethodPost, u, bytes.NewReader(data))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Cache-Control", "3600")
	req.Header.Set("x-upsert", "false")

	resp, err := s.c.do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 300 {
		return nil
	}

	ae := readAPIError(resp)
	msg := strings.ToLower(ae.Message + " " + ae.Error)
	if strings.Contains(msg, "bucket not found") {
		return &objectstore.BucketNotFoundError{Bucket: bucket}
	}
	return fmt.Errorf("upload %s/%s: %s (status %d)", bucket, path, ae.Message, resp.StatusCode)
}

func (s *Storage) PublicURL(bucket, path string) string {
	return s.c.baseURL + "/storage/v1/object/public/" + url.PathEscape(bucket) + "/" + escapePath(path)
}
