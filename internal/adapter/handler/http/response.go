package http

import (
	"context"
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/wekeepgrowing/semo-syslog/internal/usecase"
	apperrors "github.com/wekeepgrowing/semo-syslog/pkg/errors"
)

// Response is the envelope of every system-logs endpoint.
type Response struct {
	Success bool                   `json:"success"`
	Data    interface{}            `json:"data,omitempty"`
	Message string                 `json:"message,omitempty"`
	Error   string                 `json:"error,omitempty"`
	Errors  []apperrors.FieldError `json:"errors,omitempty"`
}

func respond(c echo.Context, status int, data interface{}, message string) error {
	return c.JSON(status, Response{Success: true, Data: data, Message: message})
}

// fail maps err to a status and writes the error envelope. Server errors
// carry the generic fallback message only.
func (h *SystemLogHandler) fail(c echo.Context, err error, fallback string) error {
	err = classify(err)
	status := apperrors.StatusOf(err)
	apperrors.LogError(h.logger, err, fallback,
		zap.String("method", c.Request().Method),
		zap.String("path", c.Path()),
		zap.Int("status", status))

	resp := Response{Success: false, Message: apperrors.PublicMessage(err, fallback)}
	var verr *apperrors.ValidationError
	if errors.As(err, &verr) {
		resp.Message = "Validation errors"
		resp.Errors = verr.Fields
	}
	if status >= http.StatusInternalServerError {
		resp.Error = http.StatusText(status)
	} else {
		resp.Error = apperrors.CodeOf(err)
	}
	return c.JSON(status, resp)
}

// classify turns usecase errors into coded application errors.
func classify(err error) error {
	var verr *apperrors.ValidationError
	if errors.As(err, &verr) {
		return err
	}
	var appErr *apperrors.AppError
	if errors.As(err, &appErr) {
		return err
	}

	switch {
	case errors.Is(err, usecase.ErrLogNotFound):
		return apperrors.NotFound("System log not found", err)
	case errors.Is(err, usecase.ErrInvalidLevel),
		errors.Is(err, usecase.ErrInvalidTimeRange),
		errors.Is(err, usecase.ErrInvalidHours),
		errors.Is(err, usecase.ErrInvalidRetention),
		errors.Is(err, usecase.ErrInvalidLogRecord),
		errors.Is(err, usecase.ErrUnsupportedFormat),
		errors.Is(err, usecase.ErrUnfilteredClear):
		return apperrors.InvalidArgument(err.Error(), err)
	case errors.Is(err, context.DeadlineExceeded):
		// Query budget exhausted: reported like any other storage failure.
		return apperrors.Internal("query timed out", err)
	}
	return apperrors.Internal("internal error", err)
}
