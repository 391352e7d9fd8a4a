package requestlog

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wekeepgrowing/semo-syslog/internal/domain/entity"
	"github.com/wekeepgrowing/semo-syslog/internal/usecase"
)

type fakeRecorder struct {
	mu       sync.Mutex
	requests []usecase.APIRequest
	errs     []error
	metrics  []string
	auth     []usecase.AuthEvent
	events   []string
}

func (f *fakeRecorder) LogAPIRequest(req usecase.APIRequest, reqErr error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.requests = append(f.requests, req)
	f.errs = append(f.errs, reqErr)
}

func (f *fakeRecorder) LogPerformanceMetric(metric string, _ float64, _ *float64) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.metrics = append(f.metrics, metric)
}

func (f *fakeRecorder) LogAuthEvent(event usecase.AuthEvent, _ string, _ map[string]interface{}, _ *usecase.RequestContext) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.auth = append(f.auth, event)
}

func (f *fakeRecorder) LogEvent(_ entity.Level, message, _ string, _ usecase.EventOptions) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, message)
}

func newServer(rec *fakeRecorder, cfg Config) *echo.Echo {
	e := echo.New()
	e.Use(Middleware(rec, cfg))
	e.GET("/api/system-logs/:id", func(c echo.Context) error {
		return c.JSON(http.StatusOK, echo.Map{"id": c.Param("id")})
	})
	e.GET("/health", func(c echo.Context) error { return c.NoContent(http.StatusOK) })
	e.GET("/boom", func(c echo.Context) error { return errors.New("kaboom") })
	e.GET("/slow", func(c echo.Context) error {
		time.Sleep(30 * time.Millisecond)
		return c.NoContent(http.StatusOK)
	})
	e.GET("/denied", func(c echo.Context) error { return c.NoContent(http.StatusForbidden) })
	e.GET("/limited", func(c echo.Context) error { return c.NoContent(http.StatusTooManyRequests) })
	return e
}

func get(e *echo.Echo, target string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, target, nil)
	req.Header.Set(echo.HeaderXRealIP, "198.51.100.4")
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func TestRecordsCompletedRequest(t *testing.T) {
	rec := &fakeRecorder{}
	e := newServer(rec, Config{})

	get(e, "/api/system-logs/abc?level=error")

	require.Len(t, rec.requests, 1)
	r := rec.requests[0]
	assert.Equal(t, http.MethodGet, r.Method)
	assert.Equal(t, "/api/system-logs/abc", r.Path)
	assert.Equal(t, http.StatusOK, r.StatusCode)
	assert.Equal(t, "abc", r.Params["id"])
	assert.Equal(t, []string{"error"}, r.Query["level"])
	assert.Equal(t, "198.51.100.4", r.IP)
	assert.Nil(t, rec.errs[0])
}

func TestSkipsHealthProbes(t *testing.T) {
	rec := &fakeRecorder{}
	e := newServer(rec, Config{})
	get(e, "/health")
	assert.Empty(t, rec.requests)
}

func TestServerErrorCarriesError(t *testing.T) {
	rec := &fakeRecorder{}
	e := newServer(rec, Config{})

	res := get(e, "/boom")

	assert.Equal(t, http.StatusInternalServerError, res.Code)
	require.Len(t, rec.requests, 1)
	assert.Equal(t, http.StatusInternalServerError, rec.requests[0].StatusCode)
	assert.EqualError(t, rec.errs[0], "kaboom")
}

func TestSlowRequestMetric(t *testing.T) {
	rec := &fakeRecorder{}
	e := newServer(rec, Config{SlowThreshold: 10 * time.Millisecond})

	get(e, "/slow")
	get(e, "/api/system-logs/x")

	assert.Equal(t, []string{"slow_request_GET__slow"}, rec.metrics)
}

func TestSecurityEvents(t *testing.T) {
	rec := &fakeRecorder{}
	e := newServer(rec, Config{})

	get(e, "/denied")
	get(e, "/limited")

	assert.Equal(t, []usecase.AuthEvent{usecase.AuthUnauthorizedAccess}, rec.auth)
	assert.Equal(t, []string{"Rate limit exceeded: 198.51.100.4"}, rec.events)
}
