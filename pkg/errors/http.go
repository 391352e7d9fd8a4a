package errors

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"
)

// StatusOf는 에러에 대응하는 HTTP 상태 코드를 반환합니다
func StatusOf(err error) int {
	if err == nil {
		return http.StatusOK
	}

	var valErr *ValidationError
	if As(err, &valErr) {
		return http.StatusBadRequest
	}

	var appErr *AppError
	if As(err, &appErr) {
		return ToHTTPStatus(appErr.Code())
	}

	var echoErr *echo.HTTPError
	if As(err, &echoErr) {
		return echoErr.Code
	}

	if Is(err, context.DeadlineExceeded) {
		return http.StatusGatewayTimeout
	}
	return http.StatusInternalServerError
}

// PublicMessage는 클라이언트에 노출할 메시지를 반환합니다. 5xx는 일반 메시지로 대체됩니다
func PublicMessage(err error, fallback string) string {
	if StatusOf(err) >= http.StatusInternalServerError {
		return fallback
	}

	var appErr *AppError
	if As(err, &appErr) {
		return appErr.Message()
	}

	var echoErr *echo.HTTPError
	if As(err, &echoErr) {
		if m, ok := echoErr.Message.(string); ok {
			return m
		}
	}
	return err.Error()
}

// ToHTTPError는 에러를 Echo HTTP 에러로 변환합니다
func ToHTTPError(err error) *echo.HTTPError {
	if err == nil {
		return nil
	}

	var echoErr *echo.HTTPError
	if As(err, &echoErr) {
		return echoErr
	}

	status := StatusOf(err)
	return echo.NewHTTPError(status, PublicMessage(err, http.StatusText(status))).SetInternal(err)
}
