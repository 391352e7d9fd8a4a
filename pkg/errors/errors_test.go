package errors

import (
	"context"
	"fmt"
	"net/http"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestCodeOf(t *testing.T) {
	assert.Equal(t, ErrNotFound, CodeOf(fmt.Errorf("load: %w", NotFound("system log not found", nil))))
	assert.Equal(t, ErrInvalidArgument, CodeOf(NewValidationError("level", "is invalid")))
	assert.Equal(t, ErrInternal, CodeOf(New("boom")))
}

func TestWrapKeepsCode(t *testing.T) {
	err := Wrap(InvalidArgument("bad level", nil), "failed to list")
	assert.Equal(t, ErrInvalidArgument, CodeOf(err))
	assert.Equal(t, "failed to list: bad level", err.Error())
	assert.Nil(t, Wrap(nil, "ignored"))
	assert.Equal(t, ErrInternal, CodeOf(Wrap(New("raw"), "wrapped")))
}

func TestStatusOf(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"nil", nil, http.StatusOK},
		{"validation", NewValidationError("f", "m"), http.StatusBadRequest},
		{"not found", NotFound("x", nil), http.StatusNotFound},
		{"timeout code", Timeout("x", nil), http.StatusGatewayTimeout},
		{"echo", echo.NewHTTPError(http.StatusConflict, "dup"), http.StatusConflict},
		{"deadline", fmt.Errorf("query: %w", context.DeadlineExceeded), http.StatusGatewayTimeout},
		{"plain", New("boom"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, StatusOf(tt.err))
		})
	}
}

func TestPublicMessageHidesInternalDetail(t *testing.T) {
	assert.Equal(t, "Internal Server Error", PublicMessage(Internal("db down", New("dial tcp")), "Internal Server Error"))
	assert.Equal(t, "System log not found", PublicMessage(NotFound("System log not found", New("no documents")), "fallback"))
	assert.Equal(t, "dup", PublicMessage(echo.NewHTTPError(http.StatusConflict, "dup"), "fallback"))
}

func TestToHTTPError(t *testing.T) {
	he := ToHTTPError(InvalidArgument("bad", nil))
	assert.Equal(t, http.StatusBadRequest, he.Code)
	assert.Equal(t, "bad", he.Message)
	assert.Nil(t, ToHTTPError(nil))
}

func TestValidationError(t *testing.T) {
	var v ValidationError
	assert.NoError(t, v.OrNil())

	v.Add("level", "is invalid")
	v.Add("message", "is required")
	err := v.OrNil()
	assert.EqualError(t, err, "validation failed: level: is invalid; message: is required")
}

func TestLogErrorLevels(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	logger := zap.New(core)

	LogError(logger, NotFound("gone", nil), "lookup failed")
	LogError(logger, New("boom"), "insert failed", zap.String("id", "1"))
	LogError(logger, nil, "ignored")

	entries := logs.All()
	if assert.Len(t, entries, 2) {
		assert.Equal(t, zapcore.WarnLevel, entries[0].Level)
		assert.Equal(t, "NOT_FOUND", entries[0].ContextMap()["error_code"])
		assert.Equal(t, zapcore.ErrorLevel, entries[1].Level)
		assert.Equal(t, "1", entries[1].ContextMap()["id"])
	}
}
