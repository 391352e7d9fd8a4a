package usecase_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/wekeepgrowing/semo-syslog/internal/adapter/repository"
	"github.com/wekeepgrowing/semo-syslog/internal/domain/entity"
	"github.com/wekeepgrowing/semo-syslog/internal/usecase"
)

var errStoreDown = errors.New("store unavailable")

// testNow is a Monday afternoon, far from any DST change.
var testNow = time.Date(2025, 3, 10, 15, 30, 0, 0, time.UTC)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock(t time.Time) *fakeClock { return &fakeClock{now: t} }

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

func (c *fakeClock) Clock() usecase.Clock { return c.Now }

type seed struct {
	level    entity.Level
	message  string
	source   string
	category string
	age      time.Duration
	tags     []string
}

func insert(t *testing.T, repo *repository.MemoryLogRepository, now time.Time, s seed) *entity.LogRecord {
	t.Helper()
	if s.message == "" {
		s.message = "event"
	}
	if s.source == "" {
		s.source = "api"
	}
	rec := &entity.LogRecord{
		Level:    s.level,
		Message:  s.message,
		Source:   s.source,
		Category: s.category,
		Tags:     s.tags,
	}
	rec.CreatedAt = now.Add(-s.age)
	rec.Normalize(now, entity.EnvProduction)
	_, err := repo.Insert(context.Background(), rec)
	require.NoError(t, err)
	return rec
}

func insertN(t *testing.T, repo *repository.MemoryLogRepository, now time.Time, n int, s seed) {
	t.Helper()
	for i := 0; i < n; i++ {
		insert(t, repo, now, s)
	}
}

// failingRepo fails Count or Find when flagged and delegates the rest.
type failingRepo struct {
	*repository.MemoryLogRepository
	failCount bool
	failFind  bool
}

func (r *failingRepo) Count(ctx context.Context, f entity.LogFilter) (int64, error) {
	if r.failCount {
		return 0, errStoreDown
	}
	return r.MemoryLogRepository.Count(ctx, f)
}

func (r *failingRepo) Find(ctx context.Context, f entity.LogFilter, skip, limit int64) ([]*entity.LogRecord, int64, error) {
	if r.failFind {
		return nil, 0, errStoreDown
	}
	return r.MemoryLogRepository.Find(ctx, f, skip, limit)
}

// recordingLogger captures fire-and-forget events.
type recordingLogger struct {
	mu     sync.Mutex
	events []recordedEvent
}

type recordedEvent struct {
	level   entity.Level
	message string
	source  string
	opts    usecase.EventOptions
}

func (l *recordingLogger) LogEvent(level entity.Level, message, source string, opts usecase.EventOptions) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.events = append(l.events, recordedEvent{level, message, source, opts})
}

func (l *recordingLogger) Events() []recordedEvent {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]recordedEvent(nil), l.events...)
}
