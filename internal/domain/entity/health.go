package entity

import "time"

// HealthStatus is the derived condition of the whole system.
type HealthStatus string

const (
	HealthOperational HealthStatus = "operational"
	HealthMinorIssues HealthStatus = "minor_issues"
	HealthMajorIssues HealthStatus = "major_issues"
)

// HealthPolicy holds the thresholds used to derive HealthStatus.
type HealthPolicy struct {
	ErrorWindow       time.Duration
	WarningWindow     time.Duration
	MajorErrorCount   int64 // errors above this => major_issues
	MinorWarningCount int64 // warnings above this => minor_issues
	StatusWindow      time.Duration
}

// DefaultHealthPolicy returns the standard thresholds.
func DefaultHealthPolicy() HealthPolicy {
	return HealthPolicy{
		ErrorWindow:       5 * time.Minute,
		WarningWindow:     time.Hour,
		MajorErrorCount:   10,
		MinorWarningCount: 20,
		StatusWindow:      time.Hour,
	}
}

// Classify derives the health status from recent error and warning counts.
func (p HealthPolicy) Classify(recentErrors, recentWarnings int64) HealthStatus {
	switch {
	case recentErrors > p.MajorErrorCount:
		return HealthMajorIssues
	case recentErrors > 0 || recentWarnings > p.MinorWarningCount:
		return HealthMinorIssues
	default:
		return HealthOperational
	}
}

// SystemHealth is the health summary.
type SystemHealth struct {
	Status         HealthStatus       `json:"status"`
	RecentErrors   int64              `json:"recentErrors"`
	RecentWarnings int64              `json:"recentWarnings"`
	SystemStatus   []SourceLevelCount `json:"systemStatus"`
	CheckedAt      time.Time          `json:"checkedAt"`
}

// ServiceState is the status of one named service.
type ServiceState string

const (
	ServiceOnline  ServiceState = "online"
	ServiceWarning ServiceState = "warning"
	ServiceError   ServiceState = "error"
)

// ServiceMapping maps a source tag to a display name.
type ServiceMapping struct {
	Source string
	Name   string
}

// DefaultServiceMappings is the built-in service list in display order.
func DefaultServiceMappings() []ServiceMapping {
	return []ServiceMapping{
		{Source: "api", Name: "API Services"},
		{Source: "database", Name: "Database"},
		{Source: "cache", Name: "Cache System"},
		{Source: "auth", Name: "Authentication"},
		{Source: "file-system", Name: "File System"},
		{Source: "websocket", Name: "WebSocket"},
		{Source: "email", Name: "Email Service"},
	}
}

// ServiceStatus is the derived state of one service.
type ServiceStatus struct {
	Name      string       `json:"name"`
	Source    string       `json:"source"`
	Status    ServiceState `json:"status"`
	Errors    int64        `json:"errors"`
	Warnings  int64        `json:"warnings"`
	LastError *time.Time   `json:"lastError,omitempty"`
}

const (
	OverallIssues      = "System issues detected"
	OverallMinorIssues = "Minor issues detected"
	OverallOperational = "All systems operational"
)

// OverallStatus summarises service states into one line.
func OverallStatus(services []ServiceStatus) string {
	hasWarning := false
	for _, s := range services {
		switch s.Status {
		case ServiceError:
			return OverallIssues
		case ServiceWarning:
			hasWarning = true
		}
	}
	if hasWarning {
		return OverallMinorIssues
	}
	return OverallOperational
}
