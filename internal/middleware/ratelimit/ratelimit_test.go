package ratelimit

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type stepClock struct{ t time.Time }

func (c *stepClock) now() time.Time          { return c.t }
func (c *stepClock) advance(d time.Duration) { c.t = c.t.Add(d) }

func newTestStore(cfg Config) (*MemoryStore, *stepClock) {
	clock := &stepClock{t: time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)}
	s := NewMemoryStore(cfg)
	s.now = clock.now
	s.lastSweep = clock.t
	return s, clock
}

func TestMemoryStoreSlidingWindow(t *testing.T) {
	s, clock := newTestStore(Config{Limit: 3, Window: time.Minute, Capacity: 10})

	for i := 0; i < 3; i++ {
		ok, err := s.Allow("10.0.0.1")
		require.NoError(t, err)
		assert.True(t, ok)
		clock.advance(10 * time.Second)
	}
	ok, _ := s.Allow("10.0.0.1")
	assert.False(t, ok, "fourth request inside the window")

	ok, _ = s.Allow("10.0.0.2")
	assert.True(t, ok, "other clients are independent")

	// The first request leaves the window 60s after it was made.
	clock.advance(30 * time.Second)
	ok, _ = s.Allow("10.0.0.1")
	assert.True(t, ok)
	ok, _ = s.Allow("10.0.0.1")
	assert.False(t, ok)
}

func TestMemoryStoreIsBounded(t *testing.T) {
	s, _ := newTestStore(Config{Limit: 1, Window: time.Minute, Capacity: 2})

	_, _ = s.Allow("a")
	_, _ = s.Allow("b")
	_, _ = s.Allow("a") // a becomes most recent
	_, _ = s.Allow("c") // evicts b
	assert.Equal(t, 2, s.Len())

	ok, _ := s.Allow("a")
	assert.False(t, ok, "a is still tracked")
	ok, _ = s.Allow("b")
	assert.True(t, ok, "b was evicted and starts fresh")
}

func TestMemoryStoreSweepsIdleClients(t *testing.T) {
	s, clock := newTestStore(Config{Limit: 5, Window: time.Minute, Capacity: 100})
	for _, ip := range []string{"a", "b", "c"} {
		_, _ = s.Allow(ip)
	}
	require.Equal(t, 3, s.Len())

	clock.advance(2 * time.Minute)
	_, _ = s.Allow("d")
	assert.Equal(t, 1, s.Len())
}

func TestMiddlewareRejectsWithRetryAfter(t *testing.T) {
	store, _ := newTestStore(Config{Limit: 1, Window: 30 * time.Second, Capacity: 10})
	e := echo.New()
	e.Use(Middleware(store, 30*time.Second, zap.NewNop(), func(p string) bool { return p == "/health" }))
	e.GET("/logs", func(c echo.Context) error { return c.NoContent(http.StatusOK) })
	e.GET("/health", func(c echo.Context) error { return c.NoContent(http.StatusOK) })

	call := func(path string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		req.Header.Set(echo.HeaderXRealIP, "192.0.2.7")
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, req)
		return rec
	}

	assert.Equal(t, http.StatusOK, call("/logs").Code)
	rec := call("/logs")
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "30", rec.Header().Get("Retry-After"))
	assert.Contains(t, rec.Body.String(), "RATE_LIMITED")

	assert.Equal(t, http.StatusOK, call("/health").Code)
}

func TestRedisStoreFailsOpen(t *testing.T) {
	client := redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 50 * time.Millisecond,
		MaxRetries:  -1,
	})
	defer client.Close()

	s := NewRedisStore(client, Config{Limit: 1, Window: time.Minute}, zap.NewNop())
	for i := 0; i < 3; i++ {
		ok, err := s.Allow("192.0.2.9")
		require.NoError(t, err)
		assert.True(t, ok)
	}
}
