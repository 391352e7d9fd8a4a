package errors

import (
	"strings"
)

// FieldError는 단일 필드의 검증 실패입니다
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationError는 필드 에러 목록을 담는 INVALID_ARGUMENT 에러입니다
type ValidationError struct {
	Fields []FieldError
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		parts = append(parts, f.Field+": "+f.Message)
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

func (e *ValidationError) Code() string  { return ErrInvalidArgument }
func (e *ValidationError) Unwrap() error { return nil }

// Add는 필드 에러를 추가합니다
func (e *ValidationError) Add(field, message string) {
	e.Fields = append(e.Fields, FieldError{Field: field, Message: message})
}

// OrNil은 필드 에러가 없으면 nil을 반환합니다
func (e *ValidationError) OrNil() error {
	if e == nil || len(e.Fields) == 0 {
		return nil
	}
	return e
}

// NewValidationError는 단일 필드 에러로 ValidationError를 생성합니다
func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{Fields: []FieldError{{Field: field, Message: message}}}
}
