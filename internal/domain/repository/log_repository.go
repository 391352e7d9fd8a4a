package repository

import (
	"context"
	"errors"
	"time"

	"github.com/wekeepgrowing/semo-syslog/internal/domain/entity"
)

// ErrLogNotFound is returned when an id is unknown or malformed.
var ErrLogNotFound = errors.New("system log not found")

// LogRepository is the event store.
type LogRepository interface {
	// Insert stores a new record and returns its id. The record's ID is set on success.
	Insert(ctx context.Context, record *entity.LogRecord) (string, error)
	FindByID(ctx context.Context, id string) (*entity.LogRecord, error)
	// Find returns one page sorted by createdAt descending, plus the total match count.
	Find(ctx context.Context, filter entity.LogFilter, skip int64, limit int64) ([]*entity.LogRecord, int64, error)
	Count(ctx context.Context, filter entity.LogFilter) (int64, error)
	// CountByLevel returns counts sorted by count descending.
	CountByLevel(ctx context.Context, filter entity.LogFilter) ([]entity.LevelCount, error)
	TopSources(ctx context.Context, filter entity.LogFilter, limit int64) ([]entity.SourceCount, error)
	CountBySourceLevel(ctx context.Context, filter entity.LogFilter) ([]entity.SourceLevelCount, error)
	// AggregateByHourLevel buckets records created at or after since by absolute hour in loc.
	AggregateByHourLevel(ctx context.Context, since time.Time, loc *time.Location) ([]entity.HourLevelCount, error)
	// Distinct returns the distinct values of "source" or "category", sorted.
	Distinct(ctx context.Context, field string) ([]string, error)
	// Resolve marks a record resolved. The first resolvedAt is kept; resolvedBy is overwritten.
	Resolve(ctx context.Context, id, userID string, at time.Time) error
	// AutoResolve resolves unresolved records of the given levels created before cutoff.
	// resolvedAt is set to createdAt + entity.AutoResolveAge.
	AutoResolve(ctx context.Context, levels []entity.Level, cutoff, now time.Time) (int64, error)
	DeleteMany(ctx context.Context, filter entity.LogFilter) (int64, error)
}

// Distinct fields accepted by LogRepository.Distinct.
const (
	FieldSource   = "source"
	FieldCategory = "category"
)
