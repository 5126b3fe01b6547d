package supabase

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Zachkp/portfolio/internal/objectstore"
	"github.com/Zachkp/portfolio/internal/remote"
)

func newTestClient(t *testing.T, h http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return New(srv.URL+"/", "anon-key")
}

func TestSelectBuildsPostgRESTQuery(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/rest/v1/portfolio_comments", r.URL.Path)
		assert.Equal(t, "anon-key", r.Header.Get("apikey"))
		assert.Equal(t, "Bearer anon-key", r.Header.Get("Authorization"))

		q := r.URL.Query()
		assert.Equal(t, "*", q.Get("select"))
		assert.Equal(t, "eq.true", q.Get("is_pinned"))
		assert.Equal(t, "created_at.desc,id.asc", q.Get("order"))
		assert.Equal(t, "5", q.Get("limit"))

		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `[{"id":12,"user_name":"ana","is_pinned":true}]`)
	})

	rows, err := c.Table().Select(context.Background(), "portfolio_comments", remote.Query{
		Filters: []remote.Filter{remote.Where("is_pinned", remote.Eq, true)},
		Order:   []remote.Order{remote.Desc("created_at"), remote.Asc("id")},
		Limit:   5,
	})
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, json.Number("12"), rows[0]["id"])
	assert.Equal(t, "ana", rows[0]["user_name"])
}

func TestCountReadsContentRange(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodHead, r.Method)
		assert.Equal(t, "count=exact", r.Header.Get("Prefer"))
		w.Header().Set("Content-Range", "0-24/42")
	})

	n, err := c.Table().Count(context.Background(), "projects")
	require.NoError(t, err)
	assert.Equal(t, int64(42), n)
}

func TestInsertReturnsRepresentation(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "return=representation", r.Header.Get("Prefer"))

		var body map[string]any
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "Go", body["name"])

		w.WriteHeader(http.StatusCreated)
		_, _ = io.WriteString(w, `[{"id":3,"name":"Go","icon_url":"x","sort_order":0}]`)
	})

	row, err := c.Table().Insert(context.Background(), "tech_stack", remote.Row{"name": "Go", "icon_url": "x"})
	require.NoError(t, err)
	assert.Equal(t, json.Number("3"), row["id"])
}

func TestUpdateMissingRow(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPatch, r.Method)
		assert.Equal(t, "eq.9", r.URL.Query().Get("id"))
		_, _ = io.WriteString(w, `[]`)
	})

	_, err := c.Table().Update(context.Background(), "projects", 9, remote.Row{"Title": "x", "id": 9})
	assert.ErrorIs(t, err, remote.ErrNotFound)
}

func TestDeleteCountsRows(t *testing.T) {
	calls := 0
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls++
		assert.Equal(t, http.MethodDelete, r.Method)
		assert.Equal(t, "eq.4", r.URL.Query().Get("id"))
		if calls == 1 {
			w.Header().Set("Content-Range", "*/1")
		} else {
			w.Header().Set("Content-Range", "*/0")
		}
		w.WriteHeader(http.StatusNoContent)
	})

	require.NoError(t, c.Table().Delete(context.Background(), "certificates", 4))
	assert.ErrorIs(t, c.Table().Delete(context.Background(), "certificates", 4), remote.ErrNotFound)
}

func TestServiceErrorsCarryMessage(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusConflict)
		_, _ = io.WriteString(w, `{"code":"23505","message":"duplicate key value","details":null,"hint":null}`)
	})

	_, err := c.Table().Insert(context.Background(), "profile_settings", remote.Row{"id": 1})
	require.Error(t, err)
	assert.ErrorIs(t, err, remote.ErrValidation)

	var rerr *remote.Error
	require.ErrorAs(t, err, &rerr)
	assert.Equal(t, http.StatusConflict, rerr.Status)
	assert.Equal(t, "duplicate key value", rerr.Message)
}

func TestDeleteWhereRequiresFilters(t *testing.T) {
	c := New("http://unused", "k")
	_, err := c.Table().DeleteWhere(context.Background(), "page_visits")
	assert.ErrorIs(t, err, remote.ErrValidation)
}

func TestParseContentRange(t *testing.T) {
	n, err := parseContentRange("*/7")
	require.NoError(t, err)
	assert.Equal(t, int64(7), n)

	_, err = parseContentRange("0-9/*")
	assert.Error(t, err)
	_, err = parseContentRange("")
	assert.Error(t, err)
}

func TestStorageUpload(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/storage/v1/object/profile-images/projects/a%20b.png", r.URL.EscapedPath())
		assert.Equal(t, "image/png", r.Header.Get("Content-Type"))
		assert.Equal(t, "false", r.Header.Get("x-upsert"))
		body, _ := io.ReadAll(r.Body)
		assert.Equal(t, "png", string(body))
		_, _ = io.WriteString(w, `{"Key":"profile-images/projects/a b.png"}`)
	})

	s := c.Storage()
	require.NoError(t, s.Upload(context.Background(), "profile-images", "projects/a b.png", []byte("png"), "image/png"))
	assert.Equal(t, c.baseURL+"/storage/v1/object/public/profile-images/projects/a%20b.png", s.PublicURL("profile-images", "projects/a b.png"))
}

func TestStorageBucketNotFound(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = io.WriteString(w, `{"statusCode":"404","error":"Bucket not found","message":"Bucket not found"}`)
	})

	err := c.Storage().Upload(context.Background(), "certificates", "certificates/x.jpg", []byte("x"), "image/jpeg")
	require.ErrorIs(t, err, objectstore.ErrBucketNotFound)

	var bnf *objectstore.BucketNotFoundError
	require.ErrorAs(t, err, &bnf)
	assert.Equal(t, "certificates", bnf.Bucket)
}

func TestStorageOtherError(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		_, _ = io.WriteString(w, `{"statusCode":"403","error":"Unauthorized","message":"new row violates row-level security policy"}`)
	})

	err := c.Storage().Upload(context.Background(), "certificates", "x.jpg", []byte("x"), "image/jpeg")
	require.Error(t, err)
	assert.NotErrorIs(t, err, objectstore.ErrBucketNotFound)
	assert.Contains(t, err.Error(), "row-level security")
}
