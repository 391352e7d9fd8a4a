package dto

import (
	"time"

	"github.com/wekeepgrowing/semo-syslog/internal/domain/entity"
)

// LogListResponse is one page of the log list.
type LogListResponse struct {
	Logs       []*entity.LogRecord `json:"logs"`
	Pagination entity.Pagination   `json:"pagination"`
	Filters    entity.LogQuery     `json:"filters"`
}

// ExportDocument is the downloadable export payload.
type ExportDocument struct {
	ExportID    string              `json:"exportId"`
	GeneratedAt time.Time           `json:"generatedAt"`
	ExportedBy  string              `json:"exportedBy"`
	TotalLogs   int                 `json:"totalLogs"`
	Truncated   bool                `json:"truncated"`
	Filters     entity.LogQuery     `json:"filters"`
	Logs        []*entity.LogRecord `json:"logs"`
}

// ClearRequest selects records for bulk deletion. An empty selection requires All.
type ClearRequest struct {
	Level         string
	OlderThanDays int
	All           bool
	ActorID       string
	ActorName     string
	IP            string
	UserAgent     string
}

// ClearResult reports a bulk deletion.
type ClearResult struct {
	DeletedCount int64 `json:"deletedCount"`
}

// FilterOption is a value with its display label.
type FilterOption struct {
	Value string `json:"value"`
	Label string `json:"label"`
}

// FilterOptions is the vocabulary for the list filters.
type FilterOptions struct {
	Levels       []FilterOption `json:"levels"`
	Sources      []FilterOption `json:"sources"`
	Categories   []FilterOption `json:"categories"`
	TimeRanges   []string       `json:"timeRanges"`
	Environments []string       `json:"environments"`
}

// SystemStatusResponse is the service status panel.
type SystemStatusResponse struct {
	OverallStatus string                 `json:"overallStatus"`
	Services      []entity.ServiceStatus `json:"services"`
	Health        *entity.SystemHealth   `json:"health"`
}

// Overview bundles every dashboard aggregation. Parts that failed hold defaults.
type Overview struct {
	Statistics   *entity.LogStatistics
	RecentAlerts []*entity.LogRecord
	Health       *entity.SystemHealth
	Trend        []entity.TrendBucket
	Uptime       string
	Now          time.Time
}
