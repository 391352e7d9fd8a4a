package http

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestServerAssignsRequestID(t *testing.T) {
	s := NewServer()
	s.RegisterRoutes(func(e *echo.Echo) {
		e.GET("/echo-id", func(c echo.Context) error {
			return c.String(http.StatusOK, c.Response().Header().Get(echo.HeaderXRequestID))
		})
	})

	rec := httptest.NewRecorder()
	s.GetEcho().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/echo-id", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, rec.Body.String(), 21)
	assert.Equal(t, rec.Body.String(), rec.Header().Get(echo.HeaderXRequestID))

	req := httptest.NewRequest(http.MethodGet, "/echo-id", nil)
	req.Header.Set(echo.HeaderXRequestID, "upstream-id")
	rec = httptest.NewRecorder()
	s.GetEcho().ServeHTTP(rec, req)
	assert.Equal(t, "upstream-id", rec.Body.String())
}

func TestServerRecoversPanics(t *testing.T) {
	s := NewServer()
	s.RegisterRoutes(func(e *echo.Echo) {
		e.GET("/panic", func(c echo.Context) error { panic("handler bug") })
	})

	rec := httptest.NewRecorder()
	s.GetEcho().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/panic", nil))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestServerExtraMiddlewareAndHealth(t *testing.T) {
	var hits int
	s := NewServer(WithMiddleware(func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			hits++
			return next(c)
		}
	}))

	rec := httptest.NewRecorder()
	s.GetEcho().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"healthy"}`, rec.Body.String())
	assert.Equal(t, 1, hits)
}
