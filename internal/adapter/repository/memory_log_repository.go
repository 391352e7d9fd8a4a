package repository

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/wekeepgrowing/semo-syslog/internal/domain/entity"
	domainRepo "github.com/wekeepgrowing/semo-syslog/internal/domain/repository"
)

// MemoryLogRepository is an in-process LogRepository with the same filter
// semantics as the MongoDB store. Used for local runs and tests.
type MemoryLogRepository struct {
	mu      sync.RWMutex
	records map[string]*entity.LogRecord
}

// NewMemoryLogRepository returns an empty in-memory store.
func NewMemoryLogRepository() *MemoryLogRepository {
	return &MemoryLogRepository{records: make(map[string]*entity.LogRecord)}
}

var _ domainRepo.LogRepository = (*MemoryLogRepository)(nil)

func (r *MemoryLogRepository) Insert(ctx context.Context, record *entity.LogRecord) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if _, err := primitive.ObjectIDFromHex(record.ID); err != nil {
		record.ID = primitive.NewObjectID().Hex()
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.records[record.ID]; exists {
		return "", fmt.Errorf("duplicate system log id %s", record.ID)
	}
	r.records[record.ID] = record.Clone()
	return record.ID, nil
}

func (r *MemoryLogRepository) FindByID(ctx context.Context, id string) (*entity.LogRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	rec, ok := r.records[id]
	if !ok {
		return nil, domainRepo.ErrLogNotFound
	}
	return rec.Clone(), nil
}

func (r *MemoryLogRepository) Find(ctx context.Context, filter entity.LogFilter, skip, limit int64) ([]*entity.LogRecord, int64, error) {
	matched, err := r.match(ctx, filter)
	if err != nil {
		return nil, 0, err
	}
	total := int64(len(matched))

	if skip >= total {
		return []*entity.LogRecord{}, total, nil
	}
	end := total
	if limit > 0 && skip+limit < total {
		end = skip + limit
	}

	return matched[skip:end], total, nil
}

func (r *MemoryLogRepository) Count(ctx context.Context, filter entity.LogFilter) (int64, error) {
	matched, err := r.match(ctx, filter)
	if err != nil {
		return 0, err
	}
	return int64(len(matched)), nil
}

func (r *MemoryLogRepository) CountByLevel(ctx context.Context, filter entity.LogFilter) ([]entity.LevelCount, error) {
	matched, err := r.match(ctx, filter)
	if err != nil {
		return nil, err
	}

	counts := map[entity.Level]int64{}
	for _, rec := range matched {
		counts[rec.Level]++
	}
	out := make([]entity.LevelCount, 0, len(counts))
	for level, n := range counts {
		out = append(out, entity.LevelCount{Level: level, Count: n})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Level < out[j].Level
	})
	return out, nil
}

func (r *MemoryLogRepository) TopSources(ctx context.Context, filter entity.LogFilter, limit int64) ([]entity.SourceCount, error) {
	matched, err := r.match(ctx, filter)
	if err != nil {
		return nil, err
	}

	counts := map[string]int64{}
	for _, rec := range matched {
		counts[rec.Source]++
	}
	out := make([]entity.SourceCount, 0, len(counts))
	for source, n := range counts {
		out = append(out, entity.SourceCount{Source: source, Count: n})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Source < out[j].Source
	})
	if limit > 0 && int64(len(out)) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r *MemoryLogRepository) CountBySourceLevel(ctx context.Context, filter entity.LogFilter) ([]entity.SourceLevelCount, error) {
	matched, err := r.match(ctx, filter)
	if err != nil {
		return nil, err
	}

	type key struct {
		source string
		level  entity.Level
	}
	groups := map[key]*entity.SourceLevelCount{}
	for _, rec := range matched {
		k := key{rec.Source, rec.Level}
		g, ok := groups[k]
		if !ok {
			g = &entity.SourceLevelCount{Source: rec.Source, Level: rec.Level}
			groups[k] = g
		}
		g.Count++
		if rec.CreatedAt.After(g.LastSeen) {
			g.LastSeen = rec.CreatedAt
		}
	}

	out := make([]entity.SourceLevelCount, 0, len(groups))
	for _, g := range groups {
		out = append(out, *g)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		if out[i].Source != out[j].Source {
			return out[i].Source < out[j].Source
		}
		return out[i].Level < out[j].Level
	})
	return out, nil
}

func (r *MemoryLogRepository) AggregateByHourLevel(ctx context.Context, since time.Time, loc *time.Location) ([]entity.HourLevelCount, error) {
	matched, err := r.match(ctx, entity.LogFilter{Since: since})
	if err != nil {
		return nil, err
	}

	type key struct {
		hour  int64
		level entity.Level
	}
	counts := map[key]int64{}
	for _, rec := range matched {
		counts[key{entity.TruncateHour(rec.CreatedAt, loc).Unix(), rec.Level}]++
	}

	out := make([]entity.HourLevelCount, 0, len(counts))
	for k, n := range counts {
		out = append(out, entity.HourLevelCount{Hour: time.Unix(k.hour, 0).In(loc), Level: k.level, Count: n})
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].Hour.Equal(out[j].Hour) {
			return out[i].Hour.Before(out[j].Hour)
		}
		return out[i].Level < out[j].Level
	})
	return out, nil
}

func (r *MemoryLogRepository) Distinct(ctx context.Context, field string) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var get func(*entity.LogRecord) string
	switch field {
	case domainRepo.FieldSource:
		get = func(rec *entity.LogRecord) string { return rec.Source }
	case domainRepo.FieldCategory:
		get = func(rec *entity.LogRecord) string { return rec.Category }
	default:
		return nil, fmt.Errorf("distinct not supported on field %q", field)
	}

	r.mu.RLock()
	seen := map[string]struct{}{}
	for _, rec := range r.records {
		if v := get(rec); v != "" {
			seen[v] = struct{}{}
		}
	}
	r.mu.RUnlock()

	out := make([]string, 0, len(seen))
	for v := range seen {
		out = append(out, v)
	}
	sort.Strings(out)
	return out, nil
}

func (r *MemoryLogRepository) Resolve(ctx context.Context, id, userID string, at time.Time) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	rec, ok := r.records[id]
	if !ok {
		return domainRepo.ErrLogNotFound
	}
	rec.Resolve(userID, at)
	return nil
}

func (r *MemoryLogRepository) AutoResolve(ctx context.Context, levels []entity.Level, cutoff, now time.Time) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	filter := entity.LogFilter{Levels: levels, Before: cutoff}

	r.mu.Lock()
	defer r.mu.Unlock()
	var n int64
	for _, rec := range r.records {
		if rec.Resolved || !filter.Matches(rec) {
			continue
		}
		at := rec.CreatedAt.Add(entity.AutoResolveAge)
		rec.Resolved = true
		rec.ResolvedAt = &at
		rec.UpdatedAt = now
		n++
	}
	return n, nil
}

func (r *MemoryLogRepository) DeleteMany(ctx context.Context, filter entity.LogFilter) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int64
	for id, rec := range r.records {
		if filter.Matches(rec) {
			delete(r.records, id)
			n++
		}
	}
	return n, nil
}

// Len returns the number of stored records.
func (r *MemoryLogRepository) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.records)
}

// match returns copies of matching records sorted by createdAt descending.
func (r *MemoryLogRepository) match(ctx context.Context, filter entity.LogFilter) ([]*entity.LogRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	out := make([]*entity.LogRecord, 0, len(r.records))
	for _, rec := range r.records {
		if filter.Matches(rec) {
			out = append(out, rec.Clone())
		}
	}
	r.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID > out[j].ID
	})
	return out, nil
}
