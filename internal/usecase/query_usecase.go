package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/wekeepgrowing/semo-syslog/internal/domain/dto"
	"github.com/wekeepgrowing/semo-syslog/internal/domain/entity"
	"github.com/wekeepgrowing/semo-syslog/internal/domain/repository"
)

const (
	DefaultExportLimit = 10000

	auditSource   = "system-logs"
	auditCategory = "admin"
	defaultActor  = "System"
)

// EventLogger is the fire-and-forget sink used for audit records.
type EventLogger interface {
	LogEvent(level entity.Level, message, source string, opts EventOptions)
}

// Actor identifies who performed an admin action.
type Actor struct {
	ID        string
	Name      string
	IP        string
	UserAgent string
	RequestID string
}

func (a Actor) name() string {
	if a.Name == "" {
		return defaultActor
	}
	return a.Name
}

// QueryConfig tunes the query engine.
type QueryConfig struct {
	ExportLimit int
}

// QueryUseCase serves filtered, paginated and exportable views of the store.
type QueryUseCase struct {
	repo     repository.LogRepository
	audit    EventLogger
	decorate recordDecorator
	logger   *zap.Logger
	cfg      QueryConfig
	clock    Clock
}

func NewQueryUseCase(repo repository.LogRepository, users repository.UserDirectory, audit EventLogger, logger *zap.Logger, cfg QueryConfig) *QueryUseCase {
	if cfg.ExportLimit <= 0 {
		cfg.ExportLimit = DefaultExportLimit
	}
	return &QueryUseCase{
		repo:     repo,
		audit:    audit,
		decorate: recordDecorator{users: users, logger: logger},
		logger:   logger,
		cfg:      cfg,
	}
}

// WithClock overrides the time source.
func (u *QueryUseCase) WithClock(c Clock) *QueryUseCase {
	u.clock = c
	return u
}

// ValidateQuery rejects unknown levels, time ranges and environments.
func ValidateQuery(q entity.LogQuery) error {
	if q.Level != "" && !strings.EqualFold(q.Level, entity.AllLevels) {
		if _, ok := entity.ParseLevel(q.Level); !ok {
			return fmt.Errorf("%w: %q", ErrInvalidLevel, q.Level)
		}
	}
	if q.TimeRange != "" {
		if _, ok := entity.TimeRange(q.TimeRange).Duration(); !ok {
			return fmt.Errorf("%w: %q", ErrInvalidTimeRange, q.TimeRange)
		}
	}
	if q.Environment != "" && !entity.Environment(q.Environment).Valid() {
		return fmt.Errorf("%w: environment %q", ErrInvalidLogRecord, q.Environment)
	}
	return nil
}

func (u *QueryUseCase) ListLogs(ctx context.Context, q entity.LogQuery) (*dto.LogListResponse, error) {
	if err := ValidateQuery(q); err != nil {
		return nil, err
	}
	q.Page, q.Limit = entity.NormalizePage(q.Page, q.Limit)
	now := u.clock.now()

	records, total, err := u.repo.Find(ctx, q.ToFilter(now), entity.Offset(q.Page, q.Limit), int64(q.Limit))
	if err != nil {
		return nil, fmt.Errorf("list system logs: %w", err)
	}
	u.decorate.apply(ctx, now, records...)

	return &dto.LogListResponse{
		Logs:       records,
		Pagination: entity.NewPagination(q.Page, q.Limit, total),
		Filters:    q,
	}, nil
}

func (u *QueryUseCase) GetLog(ctx context.Context, id string) (*entity.LogRecord, error) {
	record, err := u.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrLogNotFound) {
			return nil, ErrLogNotFound
		}
		return nil, fmt.Errorf("get system log: %w", err)
	}
	u.decorate.apply(ctx, u.clock.now(), record)
	return record, nil
}

// ExportLogs returns every record matching q, newest first, up to the export limit.
func (u *QueryUseCase) ExportLogs(ctx context.Context, q entity.LogQuery, actor Actor) (*dto.ExportDocument, error) {
	if err := ValidateQuery(q); err != nil {
		return nil, err
	}
	q.Page, q.Limit = 0, 0
	now := u.clock.now()

	records, total, err := u.repo.Find(ctx, q.ToFilter(now), 0, int64(u.cfg.ExportLimit))
	if err != nil {
		return nil, fmt.Errorf("export system logs: %w", err)
	}
	u.decorate.apply(ctx, now, records...)

	doc := &dto.ExportDocument{
		ExportID:    uuid.NewString(),
		GeneratedAt: now,
		ExportedBy:  actor.name(),
		TotalLogs:   len(records),
		Truncated:   total > int64(len(records)),
		Filters:     q,
		Logs:        records,
	}

	u.auditEvent(entity.LevelInfo, fmt.Sprintf("%s exported %d system logs", actor.name(), len(records)), actor, map[string]interface{}{
		"exportId":    doc.ExportID,
		"exportCount": len(records),
		"truncated":   doc.Truncated,
	})
	return doc, nil
}

// ClearLogs deletes the selected records. A request without level or age
// selection must set All.
func (u *QueryUseCase) ClearLogs(ctx context.Context, req dto.ClearRequest) (*dto.ClearResult, error) {
	if req.OlderThanDays < 0 {
		return nil, ErrInvalidRetention
	}
	now := u.clock.now()

	var filter entity.LogFilter
	if req.Level != "" && !strings.EqualFold(req.Level, entity.AllLevels) {
		level, ok := entity.ParseLevel(req.Level)
		if !ok {
			return nil, fmt.Errorf("%w: %q", ErrInvalidLevel, req.Level)
		}
		filter.Levels = []entity.Level{level}
	}
	if req.OlderThanDays > 0 {
		filter.Before = now.AddDate(0, 0, -req.OlderThanDays)
	}
	if filter.IsEmpty() && !req.All {
		return nil, ErrUnfilteredClear
	}

	deleted, err := u.repo.DeleteMany(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("clear system logs: %w", err)
	}

	actor := Actor{ID: req.ActorID, Name: req.ActorName, IP: req.IP, UserAgent: req.UserAgent}
	u.auditEvent(entity.LevelWarning, fmt.Sprintf("%s cleared %d system logs", actor.name(), deleted), actor, map[string]interface{}{
		"deletedCount":  deleted,
		"level":         req.Level,
		"olderThanDays": req.OlderThanDays,
		"all":           req.All,
	})
	return &dto.ClearResult{DeletedCount: deleted}, nil
}

// ResolveLog marks a record resolved by actor. Repeated calls keep the first
// resolvedAt and record the latest resolver.
func (u *QueryUseCase) ResolveLog(ctx context.Context, id string, actor Actor) (*entity.LogRecord, error) {
	now := u.clock.now()
	if err := u.repo.Resolve(ctx, id, actor.ID, now); err != nil {
		if errors.Is(err, repository.ErrLogNotFound) {
			return nil, ErrLogNotFound
		}
		return nil, fmt.Errorf("resolve system log: %w", err)
	}

	record, err := u.GetLog(ctx, id)
	if err != nil {
		return nil, err
	}

	message := record.Message
	if runes := []rune(message); len(runes) > 50 {
		message = string(runes[:50]) + "..."
	}
	u.auditEvent(entity.LevelInfo, fmt.Sprintf("%s resolved system log: %s", actor.name(), message), actor, map[string]interface{}{
		"logId":     record.ID,
		"logLevel":  string(record.Level),
		"logSource": record.Source,
	})
	return record, nil
}

func (u *QueryUseCase) GetFilterOptions(ctx context.Context) (*dto.FilterOptions, error) {
	sources, err := u.repo.Distinct(ctx, repository.FieldSource)
	if err != nil {
		return nil, fmt.Errorf("distinct sources: %w", err)
	}
	categories, err := u.repo.Distinct(ctx, repository.FieldCategory)
	if err != nil {
		return nil, fmt.Errorf("distinct categories: %w", err)
	}

	// Casers keep state; one per call.
	title := cases.Title(language.English)
	opts := &dto.FilterOptions{
		Levels:       []dto.FilterOption{{Value: entity.AllLevels, Label: entity.AllLevels}},
		Sources:      filterOptions(title, sources),
		Categories:   filterOptions(title, categories),
		TimeRanges:   make([]string, 0, len(entity.TimeRanges)),
		Environments: make([]string, 0, len(entity.Environments)),
	}
	for _, l := range entity.Levels {
		opts.Levels = append(opts.Levels, dto.FilterOption{Value: string(l), Label: title.String(string(l))})
	}
	for _, t := range entity.TimeRanges {
		opts.TimeRanges = append(opts.TimeRanges, string(t))
	}
	for _, e := range entity.Environments {
		opts.Environments = append(opts.Environments, string(e))
	}
	return opts, nil
}

func filterOptions(title cases.Caser, values []string) []dto.FilterOption {
	out := make([]dto.FilterOption, 0, len(values))
	for _, v := range values {
		out = append(out, dto.FilterOption{Value: v, Label: title.String(v)})
	}
	return out
}

func (u *QueryUseCase) auditEvent(level entity.Level, message string, actor Actor, details map[string]interface{}) {
	if u.audit == nil {
		return
	}
	u.audit.LogEvent(level, message, auditSource, EventOptions{
		Category:  auditCategory,
		Details:   details,
		UserID:    actor.ID,
		IP:        actor.IP,
		UserAgent: actor.UserAgent,
		RequestID: actor.RequestID,
		Tags:      []string{"audit"},
	})
}
