package usecase

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/wekeepgrowing/semo-syslog/internal/domain/dto"
	"github.com/wekeepgrowing/semo-syslog/internal/domain/entity"
	"github.com/wekeepgrowing/semo-syslog/internal/domain/repository"
)

const (
	DefaultTrendHours = 24
	MaxTrendHours     = 168

	topSourcesLimit   = 10
	recentErrorsLimit = 10
	recentAlertsLimit = 10
)

// FallbackUptime is shown when the uptime estimate cannot be computed.
const FallbackUptime = "99.50"

// AggregationConfig tunes the dashboard aggregations.
type AggregationConfig struct {
	Location *time.Location
	Policy   entity.HealthPolicy
	Services []entity.ServiceMapping

	// ServiceWindow is the look-back of per-service status.
	ServiceWindow time.Duration
	// ServiceWarningLimit is the warning count a service may reach and stay online.
	ServiceWarningLimit int64

	UptimeWindow     time.Duration
	UptimeCategories []string
	UptimeFloor      decimal.Decimal
	UptimePenalty    decimal.Decimal
}

// DefaultAggregationConfig returns the standard dashboard settings.
func DefaultAggregationConfig() AggregationConfig {
	return AggregationConfig{
		Location:            time.Local,
		Policy:              entity.DefaultHealthPolicy(),
		Services:            entity.DefaultServiceMappings(),
		ServiceWindow:       5 * time.Minute,
		ServiceWarningLimit: 2,
		UptimeWindow:        24 * time.Hour,
		UptimeCategories:    []string{"system", "database", "api"},
		UptimeFloor:         decimal.NewFromInt(95),
		UptimePenalty:       decimal.NewFromFloat(0.1),
	}
}

// AggregationUseCase derives dashboard metrics from stored records.
type AggregationUseCase struct {
	repo     repository.LogRepository
	decorate recordDecorator
	logger   *zap.Logger
	cfg      AggregationConfig
	clock    Clock
}

func NewAggregationUseCase(repo repository.LogRepository, users repository.UserDirectory, logger *zap.Logger, cfg AggregationConfig) *AggregationUseCase {
	def := DefaultAggregationConfig()
	if cfg.Location == nil {
		cfg.Location = def.Location
	}
	if cfg.Policy == (entity.HealthPolicy{}) {
		cfg.Policy = def.Policy
	}
	if len(cfg.Services) == 0 {
		cfg.Services = def.Services
	}
	if cfg.ServiceWindow <= 0 {
		cfg.ServiceWindow = def.ServiceWindow
	}
	if cfg.UptimeWindow <= 0 {
		cfg.UptimeWindow = def.UptimeWindow
	}
	if len(cfg.UptimeCategories) == 0 {
		cfg.UptimeCategories = def.UptimeCategories
	}
	if cfg.UptimeFloor.IsZero() {
		cfg.UptimeFloor = def.UptimeFloor
	}
	if cfg.UptimePenalty.IsZero() {
		cfg.UptimePenalty = def.UptimePenalty
	}

	return &AggregationUseCase{
		repo:     repo,
		decorate: recordDecorator{users: users, logger: logger},
		logger:   logger,
		cfg:      cfg,
	}
}

// WithClock overrides the time source.
func (u *AggregationUseCase) WithClock(c Clock) *AggregationUseCase {
	u.clock = c
	return u
}

// Location is the zone used for day and hour boundaries.
func (u *AggregationUseCase) Location() *time.Location { return u.cfg.Location }

func (u *AggregationUseCase) GetLogStatistics(ctx context.Context) (*entity.LogStatistics, error) {
	now := u.clock.now()
	stats := entity.EmptyStatistics()

	var today []entity.LevelCount
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		stats.TotalLogs, err = u.repo.Count(gctx, entity.LogFilter{})
		return err
	})
	g.Go(func() (err error) {
		today, err = u.repo.CountByLevel(gctx, entity.LogFilter{Since: entity.StartOfDay(now, u.cfg.Location)})
		return err
	})
	g.Go(func() (err error) {
		stats.LevelDistribution, err = u.repo.CountByLevel(gctx, entity.LogFilter{})
		return err
	})
	g.Go(func() (err error) {
		stats.TopSources, err = u.repo.TopSources(gctx, entity.LogFilter{}, topSourcesLimit)
		return err
	})
	g.Go(func() (err error) {
		stats.RecentErrors, _, err = u.repo.Find(gctx, entity.LogFilter{Levels: []entity.Level{entity.LevelError}}, 0, recentErrorsLimit)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("log statistics: %w", err)
	}

	for _, c := range today {
		stats.Today.Set(c.Level, c.Count)
	}
	u.decorate.apply(ctx, now, stats.RecentErrors...)
	return stats, nil
}

func (u *AggregationUseCase) GetSystemHealth(ctx context.Context) (*entity.SystemHealth, error) {
	now := u.clock.now()
	p := u.cfg.Policy
	health := &entity.SystemHealth{CheckedAt: now}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		health.RecentErrors, err = u.repo.Count(gctx, entity.LogFilter{
			Levels: []entity.Level{entity.LevelError},
			Since:  now.Add(-p.ErrorWindow),
		})
		return err
	})
	g.Go(func() (err error) {
		health.RecentWarnings, err = u.repo.Count(gctx, entity.LogFilter{
			Levels: []entity.Level{entity.LevelWarning},
			Since:  now.Add(-p.WarningWindow),
		})
		return err
	})
	g.Go(func() (err error) {
		health.SystemStatus, err = u.repo.CountBySourceLevel(gctx, entity.LogFilter{Since: now.Add(-p.StatusWindow)})
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("system health: %w", err)
	}

	health.Status = p.Classify(health.RecentErrors, health.RecentWarnings)
	return health, nil
}

// GetActivityTrend returns one bucket per hour, oldest first, ending with the current hour.
func (u *AggregationUseCase) GetActivityTrend(ctx context.Context, hours int) ([]entity.TrendBucket, error) {
	if hours < 1 || hours > MaxTrendHours {
		return nil, ErrInvalidHours
	}
	now := u.clock.now()
	loc := u.cfg.Location

	counts, err := u.repo.AggregateByHourLevel(ctx, entity.TrendWindowStart(hours, now, loc), loc)
	if err != nil {
		return nil, fmt.Errorf("activity trend: %w", err)
	}
	return entity.BuildTrend(counts, hours, now, loc), nil
}

func (u *AggregationUseCase) GetServiceStatuses(ctx context.Context) ([]entity.ServiceStatus, error) {
	now := u.clock.now()
	counts, err := u.repo.CountBySourceLevel(ctx, entity.LogFilter{
		Levels: []entity.Level{entity.LevelError, entity.LevelWarning},
		Since:  now.Add(-u.cfg.ServiceWindow),
	})
	if err != nil {
		return nil, fmt.Errorf("service statuses: %w", err)
	}

	bySource := make(map[string]*entity.ServiceStatus, len(u.cfg.Services))
	out := make([]entity.ServiceStatus, len(u.cfg.Services))
	for i, m := range u.cfg.Services {
		out[i] = entity.ServiceStatus{Name: m.Name, Source: m.Source, Status: entity.ServiceOnline}
		bySource[m.Source] = &out[i]
	}

	for _, c := range counts {
		s, ok := bySource[c.Source]
		if !ok {
			continue
		}
		switch c.Level {
		case entity.LevelError:
			s.Errors += c.Count
			if s.LastError == nil || c.LastSeen.After(*s.LastError) {
				t := c.LastSeen
				s.LastError = &t
			}
		case entity.LevelWarning:
			s.Warnings += c.Count
		}
	}

	for i := range out {
		switch {
		case out[i].Errors > 0:
			out[i].Status = entity.ServiceError
		case out[i].Warnings > u.cfg.ServiceWarningLimit:
			out[i].Status = entity.ServiceWarning
		}
	}
	return out, nil
}

// GetSystemStatus bundles service states with the health summary.
func (u *AggregationUseCase) GetSystemStatus(ctx context.Context) (*dto.SystemStatusResponse, error) {
	services, err := u.GetServiceStatuses(ctx)
	if err != nil {
		return nil, err
	}
	health, err := u.GetSystemHealth(ctx)
	if err != nil {
		return nil, err
	}
	return &dto.SystemStatusResponse{
		OverallStatus: entity.OverallStatus(services),
		Services:      services,
		Health:        health,
	}, nil
}

// GetUptime estimates uptime from critical errors in the last day, as a percentage with two decimals.
func (u *AggregationUseCase) GetUptime(ctx context.Context) (string, error) {
	now := u.clock.now()
	n, err := u.repo.Count(ctx, entity.LogFilter{
		Levels:     []entity.Level{entity.LevelError},
		Categories: u.cfg.UptimeCategories,
		Since:      now.Add(-u.cfg.UptimeWindow),
	})
	if err != nil {
		return "", fmt.Errorf("uptime: %w", err)
	}
	return uptimeFor(n, u.cfg.UptimeFloor, u.cfg.UptimePenalty), nil
}

func uptimeFor(criticalErrors int64, floor, penalty decimal.Decimal) string {
	v := decimal.NewFromInt(100).Sub(penalty.Mul(decimal.NewFromInt(criticalErrors)))
	return decimal.Max(floor, v).StringFixed(2)
}

// GetRecentAlerts returns the latest error and warning records.
func (u *AggregationUseCase) GetRecentAlerts(ctx context.Context, limit int) ([]*entity.LogRecord, error) {
	if limit <= 0 {
		limit = recentAlertsLimit
	}
	records, _, err := u.repo.Find(ctx, entity.LogFilter{
		Levels: []entity.Level{entity.LevelError, entity.LevelWarning},
	}, 0, int64(limit))
	if err != nil {
		return nil, fmt.Errorf("recent alerts: %w", err)
	}
	u.decorate.apply(ctx, u.clock.now(), records...)
	return records, nil
}

// GetOverview computes every dashboard part concurrently. A failing part is
// logged and replaced by its default so the rest of the page still renders.
func (u *AggregationUseCase) GetOverview(ctx context.Context) *dto.Overview {
	now := u.clock.now()
	ov := &dto.Overview{
		Statistics:   entity.EmptyStatistics(),
		RecentAlerts: []*entity.LogRecord{},
		Health:       &entity.SystemHealth{Status: entity.HealthOperational, SystemStatus: []entity.SourceLevelCount{}, CheckedAt: now},
		Trend:        entity.BuildTrend(nil, DefaultTrendHours, now, u.cfg.Location),
		Uptime:       FallbackUptime,
		Now:          now,
	}

	var (
		wg sync.WaitGroup
		mu sync.Mutex
	)
	run := func(part string, fn func() error) {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := fn(); err != nil {
				u.logger.Error("overview part failed", zap.String("part", part), zap.Error(err))
			}
		}()
	}

	run("statistics", func() error {
		stats, err := u.GetLogStatistics(ctx)
		if err != nil {
			return err
		}
		mu.Lock()
		ov.Statistics = stats
		mu.Unlock()
		return nil
	})
	run("recentAlerts", func() error {
		alerts, err := u.GetRecentAlerts(ctx, recentAlertsLimit)
		if err != nil {
			return err
		}
		mu.Lock()
		ov.RecentAlerts = alerts
		mu.Unlock()
		return nil
	})
	run("health", func() error {
		health, err := u.GetSystemHealth(ctx)
		if err != nil {
			return err
		}
		mu.Lock()
		ov.Health = health
		mu.Unlock()
		return nil
	})
	run("trend", func() error {
		trend, err := u.GetActivityTrend(ctx, DefaultTrendHours)
		if err != nil {
			return err
		}
		mu.Lock()
		ov.Trend = trend
		mu.Unlock()
		return nil
	})
	run("uptime", func() error {
		uptime, err := u.GetUptime(ctx)
		if err != nil {
			return err
		}
		mu.Lock()
		ov.Uptime = uptime
		mu.Unlock()
		return nil
	})

	wg.Wait()
	return ov
}
