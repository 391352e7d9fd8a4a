package errors

import (
	"errors"
	"fmt"
)

// 표준 라이브러리 함수 재노출
var (
	New    = errors.New
	Unwrap = errors.Unwrap
	Is     = errors.Is
	As     = errors.As
	Join   = errors.Join
)

// Error는 기본 에러 인터페이스를 확장합니다
type Error interface {
	error
	Code() string
	Unwrap() error
}

// AppError는 코드와 사용자용 메시지를 가진 애플리케이션 에러입니다
type AppError struct {
	code    string
	message string
	err     error
}

func (e *AppError) Error() string {
	if e.err != nil {
		return fmt.Sprintf("%s: %s", e.message, e.err.Error())
	}
	return e.message
}

func (e *AppError) Code() string { return e.code }

// Message는 내부 원인을 제외한 메시지만 반환합니다
func (e *AppError) Message() string { return e.message }

func (e *AppError) Unwrap() error { return e.err }

// NewAppError는 새 애플리케이션 에러를 생성합니다
func NewAppError(code string, message string, err error) *AppError {
	return &AppError{code: code, message: message, err: err}
}

// Wrap은 기존 에러를 래핑합니다. AppError인 경우 코드를 유지합니다
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}

	var appErr *AppError
	if As(err, &appErr) {
		return NewAppError(appErr.Code(), message, err)
	}
	return NewAppError(ErrInternal, message, err)
}

// CodeOf는 에러 체인에서 코드를 가진 에러를 찾습니다. 없으면 INTERNAL입니다
func CodeOf(err error) string {
	var coded Error
	if As(err, &coded) {
		return coded.Code()
	}
	return ErrInternal
}

func NotFound(message string, err error) *AppError {
	return NewAppError(ErrNotFound, message, err)
}

func InvalidArgument(message string, err error) *AppError {
	return NewAppError(ErrInvalidArgument, message, err)
}

func Internal(message string, err error) *AppError {
	return NewAppError(ErrInternal, message, err)
}

func Timeout(message string, err error) *AppError {
	return NewAppError(ErrTimeout, message, err)
}
