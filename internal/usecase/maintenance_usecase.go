package usecase

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/wekeepgrowing/semo-syslog/internal/domain/entity"
	"github.com/wekeepgrowing/semo-syslog/internal/domain/repository"
)

const (
	DefaultRetentionDays       = 90
	DefaultMaintenanceInterval = 24 * time.Hour
	// severeRetentionGrace keeps errors and warnings this much longer than info and debug.
	severeRetentionGrace = 30
)

// CleanupResult reports one retention run.
type CleanupResult struct {
	InfoDeleted  int64     `json:"infoLogsDeleted"`
	ErrorDeleted int64     `json:"errorLogsDeleted"`
	Cutoff       time.Time `json:"cutoffDate"`
}

// Total is the number of records removed.
func (r CleanupResult) Total() int64 { return r.InfoDeleted + r.ErrorDeleted }

// MaintenanceUseCase applies retention and age-based resolution in bulk.
type MaintenanceUseCase struct {
	repo   repository.LogRepository
	events EventLogger
	logger *zap.Logger
	clock  Clock
}

func NewMaintenanceUseCase(repo repository.LogRepository, events EventLogger, logger *zap.Logger) *MaintenanceUseCase {
	return &MaintenanceUseCase{repo: repo, events: events, logger: logger.Named("maintenance")}
}

// WithClock overrides the time source.
func (u *MaintenanceUseCase) WithClock(c Clock) *MaintenanceUseCase {
	u.clock = c
	return u
}

// CleanupOldLogs deletes info and debug records older than daysToKeep, and
// error and warning records older than daysToKeep plus 30 days.
func (u *MaintenanceUseCase) CleanupOldLogs(ctx context.Context, daysToKeep int) (*CleanupResult, error) {
	if daysToKeep <= 0 {
		return nil, ErrInvalidRetention
	}
	cutoff := u.clock.now().AddDate(0, 0, -daysToKeep)
	res := &CleanupResult{Cutoff: cutoff}

	var err error
	res.InfoDeleted, err = u.repo.DeleteMany(ctx, entity.LogFilter{
		Levels: []entity.Level{entity.LevelInfo, entity.LevelDebug},
		Before: cutoff,
	})
	if err != nil {
		return nil, fmt.Errorf("cleanup info logs: %w", err)
	}
	res.ErrorDeleted, err = u.repo.DeleteMany(ctx, entity.LogFilter{
		Levels: []entity.Level{entity.LevelError, entity.LevelWarning},
		Before: cutoff.AddDate(0, 0, -severeRetentionGrace),
	})
	if err != nil {
		return res, fmt.Errorf("cleanup error logs: %w", err)
	}

	if total := res.Total(); total > 0 && u.events != nil {
		u.events.LogEvent(entity.LevelInfo, fmt.Sprintf("Cleaned up %d old log entries", total), "system", EventOptions{
			Category: "maintenance",
			Details: map[string]interface{}{
				"infoLogsDeleted":  res.InfoDeleted,
				"errorLogsDeleted": res.ErrorDeleted,
				"cutoffDate":       cutoff,
			},
			Tags: []string{"cleanup", "maintenance"},
		})
	}
	return res, nil
}

// AutoResolveStale persists age-based resolution for info and debug records.
func (u *MaintenanceUseCase) AutoResolveStale(ctx context.Context) (int64, error) {
	now := u.clock.now()
	n, err := u.repo.AutoResolve(ctx, entity.AutoResolveLevels, now.Add(-entity.AutoResolveAge), now)
	if err != nil {
		return 0, fmt.Errorf("auto resolve stale logs: %w", err)
	}
	return n, nil
}

// Run applies retention and auto-resolution every interval until ctx ends.
// A non-positive interval falls back to DefaultMaintenanceInterval.
func (u *MaintenanceUseCase) Run(ctx context.Context, interval time.Duration, daysToKeep int) {
	if interval <= 0 {
		u.logger.Warn("invalid maintenance interval, using default",
			zap.Duration("interval", interval), zap.Duration("default", DefaultMaintenanceInterval))
		interval = DefaultMaintenanceInterval
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	u.runOnce(ctx, daysToKeep)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			u.runOnce(ctx, daysToKeep)
		}
	}
}

func (u *MaintenanceUseCase) runOnce(ctx context.Context, daysToKeep int) {
	if res, err := u.CleanupOldLogs(ctx, daysToKeep); err != nil {
		u.logger.Error("log retention failed", zap.Error(err))
	} else {
		u.logger.Info("log retention applied",
			zap.Int64("info_deleted", res.InfoDeleted),
			zap.Int64("error_deleted", res.ErrorDeleted),
			zap.Time("cutoff", res.Cutoff),
		)
	}

	if n, err := u.AutoResolveStale(ctx); err != nil {
		u.logger.Error("auto resolve failed", zap.Error(err))
	} else if n > 0 {
		u.logger.Info("stale logs resolved", zap.Int64("count", n))
	}
}
