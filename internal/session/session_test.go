package session

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAuthenticator(t *testing.T) {
	a := NewAuthenticator("andika", "s3cret")

	tests := []struct {
		name     string
		user     string
		pass     string
		expected bool
	}{
		{name: "valid", user: "andika", pass: "s3cret", expected: true},
		{name: "wrong password", user: "andika", pass: "nope", expected: false},
		{name: "wrong user", user: "admin", pass: "s3cret", expected: false},
		{name: "empty", user: "", pass: "", expected: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, a.Check(tt.user, tt.pass))
		})
	}
}

func TestMemoryStore(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	m := NewMemoryStore(time.Hour)
	m.now = func() time.Time { return now }

	s, err := m.Create(ctx, "andika")
	require.NoError(t, err)
	assert.Len(t, s.Token, 64)
	assert.Equal(t, now.Add(time.Hour), s.ExpiresAt)

	got, err := m.Get(ctx, s.Token)
	require.NoError(t, err)
	assert.Equal(t, "andika", got.Username)

	_, err = m.Get(ctx, "unknown")
	assert.ErrorIs(t, err, ErrNoSession)

	now = now.Add(2 * time.Hour)
	_, err = m.Get(ctx, s.Token)
	assert.ErrorIs(t, err, ErrNoSession)

	s2, err := m.Create(ctx, "andika")
	require.NoError(t, err)
	require.NoError(t, m.Delete(ctx, s2.Token))
	_, err = m.Get(ctx, s2.Token)
	assert.ErrorIs(t, err, ErrNoSession)
}

func TestRedisStore(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	ctx := context.Background()
	r := NewRedisStore(client, time.Hour)

	s, err := r.Create(ctx, "andika")
	require.NoError(t, err)
	assert.Equal(t, time.Hour, mr.TTL(sessionKeyPrefix+s.Token))

	got, err := r.Get(ctx, s.Token)
	require.NoError(t, err)
	assert.Equal(t, "andika", got.Username)
	assert.Equal(t, s.Token, got.Token)

	mr.FastForward(2 * time.Hour)
	_, err = r.Get(ctx, s.Token)
	assert.ErrorIs(t, err, ErrNoSession)

	s2, err := r.Create(ctx, "andika")
	require.NoError(t, err)
	require.NoError(t, r.Delete(ctx, s2.Token))
	_, err = r.Get(ctx, s2.Token)
	assert.ErrorIs(t, err, ErrNoSession)

	_, err = r.Get(ctx, "")
	assert.ErrorIs(t, err, ErrNoSession)
}

func TestLimiter(t *testing.T) {
	l := NewLimiter(0, 2)

	assert.True(t, l.Allow("a"))
	assert.True(t, l.Allow("a"))
	assert.False(t, l.Allow("a"))
	assert.True(t, l.Allow("b"), "keys are limited independently")
}

func setupGuardRouter(store Store) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/admin/api/me", Guard(store), func(c *gin.Context) {
		s, ok := From(c)
		if !ok {
			c.Status(http.StatusInternalServerError)
			return
		}
		c.JSON(http.StatusOK, gin.H{"username": s.Username})
	})
	return r
}

func TestGuard(t *testing.T) {
	store := NewMemoryStore(time.Hour)
	s, err := store.Create(context.Background(), "andika")
	require.NoError(t, err)
	router := setupGuardRouter(store)

	tests := []struct {
		name   string
		setup  func(r *http.Request)
		status int
	}{
		{name: "no credentials", setup: func(*http.Request) {}, status: http.StatusUnauthorized},
		{name: "unknown cookie", setup: func(r *http.Request) {
			r.AddCookie(&http.Cookie{Name: CookieName, Value: "bogus"})
		}, status: http.StatusUnauthorized},
		{name: "cookie", setup: func(r *http.Request) {
			r.AddCookie(&http.Cookie{Name: CookieName, Value: s.Token})
		}, status: http.StatusOK},
		{name: "bearer", setup: func(r *http.Request) {
			r.Header.Set("Authorization", "Bearer "+s.Token)
		}, status: http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/admin/api/me", nil)
			tt.setup(req)
			rr := httptest.NewRecorder()
			router.ServeHTTP(rr, req)

			assert.Equal(t, tt.status, rr.Code)
			if tt.status == http.StatusOK {
				assert.JSONEq(t, `{"username":"andika"}`, rr.Body.String())
			}
		})
	}
}

func TestGuardStoreUnavailable(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr(), MaxRetries: -1})
	t.Cleanup(func() { _ = client.Close() })

	store := NewRedisStore(client, time.Hour)
	s, err := store.Create(context.Background(), "andika")
	require.NoError(t, err)
	mr.Close()

	req := httptest.NewRequest(http.MethodGet, "/admin/api/me", nil)
	req.Header.Set("Authorization", "Bearer "+s.Token)
	rr := httptest.NewRecorder()
	setupGuardRouter(store).ServeHTTP(rr, req)

	assert.Equal(t, http.StatusServiceUnavailable, rr.Code)
	assert.Contains(t, rr.Body.String(), "session store unavailable")
}

func TestSetAndClearCookie(t *testing.T) {
	gin.SetMode(gin.TestMode)
	rr := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rr)
	c.Request = httptest.NewRequest(http.MethodPost, "/admin/api/login", nil)

	SetCookie(c, &Session{Token: "tok", ExpiresAt: time.Now().Add(time.Hour)}, true)
	cookie := rr.Header().Get("Set-Cookie")
	assert.Contains(t, cookie, CookieName+"=tok")
	assert.Contains(t, cookie, "Path=/admin")
	assert.Contains(t, cookie, "HttpOnly")
	assert.Contains(t, cookie, "Secure")
}
