package config

import (
	"time"

	"github.com/wekeepgrowing/semo-syslog/pkg/config"
)

// Alert sinks for error records.
const (
	AlertsNone     = "none"
	AlertsLog      = "log"
	AlertsRedis    = "redis"
	AlertsRabbitMQ = "rabbitmq"
)

// Ingestion 비동기 기록 큐 설정
type Ingestion struct {
	QueueSize            int
	Workers              int
	InsertTimeout        time.Duration
	SlowRequestThreshold time.Duration
	Alerts               string
	AlertTopic           string
}

// Query 조회 설정
type Query struct {
	Timeout     time.Duration
	ExportLimit int
}

// Maintenance 보존 기간 정리 작업 설정
type Maintenance struct {
	Enabled    bool
	Interval   time.Duration
	DaysToKeep int
}

// Aggregation 상태 판정 임계값
type Aggregation struct {
	MajorErrorCount   int64
	MinorWarningCount int64
}

// Health 주기적 상태 점검 설정
type Health struct {
	Enabled        bool
	Interval       time.Duration
	HeapWarningMB  int
	HeapCriticalMB int
}

func loadIngestion(cfg config.Config) Ingestion {
	return Ingestion{
		QueueSize:            cfg.GetInt("ingestion.queue_size"),
		Workers:              cfg.GetInt("ingestion.workers"),
		InsertTimeout:        cfg.GetDuration("ingestion.insert_timeout"),
		SlowRequestThreshold: cfg.GetDuration("ingestion.slow_request_threshold"),
		Alerts:               cfg.GetString("ingestion.alerts"),
		AlertTopic:           cfg.GetString("ingestion.alert_topic"),
	}
}

func loadQuery(cfg config.Config) Query {
	return Query{
		Timeout:     cfg.GetDuration("query.timeout"),
		ExportLimit: cfg.GetInt("query.export_limit"),
	}
}

func loadMaintenance(cfg config.Config) Maintenance {
	return Maintenance{
		Enabled:    cfg.GetBool("maintenance.enabled"),
		Interval:   cfg.GetDuration("maintenance.interval"),
		DaysToKeep: cfg.GetInt("maintenance.days_to_keep"),
	}
}

func loadHealth(cfg config.Config) Health {
	return Health{
		Enabled:        cfg.GetBool("health.enabled"),
		Interval:       cfg.GetDuration("health.interval"),
		HeapWarningMB:  cfg.GetInt("health.heap_warning_mb"),
		HeapCriticalMB: cfg.GetInt("health.heap_critical_mb"),
	}
}

func loadAggregation(cfg config.Config) Aggregation {
	return Aggregation{
		MajorErrorCount:   int64(cfg.GetInt("aggregation.major_error_count")),
		MinorWarningCount: int64(cfg.GetInt("aggregation.minor_warning_count")),
	}
}
