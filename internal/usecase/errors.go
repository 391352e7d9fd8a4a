package usecase

import "errors"

var (
	ErrLogNotFound       = errors.New("system log not found")
	ErrUnfilteredClear   = errors.New("clearing every log requires all=true")
	ErrInvalidLevel      = errors.New("invalid log level")
	ErrInvalidTimeRange  = errors.New("invalid time range")
	ErrInvalidHours      = errors.New("hours must be between 1 and 168")
	ErrInvalidRetention  = errors.New("days to keep must be positive")
	ErrIngestionClosed   = errors.New("ingestion service is closed")
	ErrInvalidLogRecord  = errors.New("invalid log record")
	ErrUnsupportedFormat = errors.New("unsupported export format")
)
