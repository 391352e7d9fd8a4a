package config

import (
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/wekeepgrowing/semo-syslog/pkg/config"
	"github.com/wekeepgrowing/semo-syslog/pkg/logger"
)

// ServiceName is the config file name and the environment variable prefix (SYSLOG_).
const ServiceName = "syslog"

// Config 시스템 로그 서비스 설정 구조체
type Config struct {
	Service     Service
	Server      Server
	Store       Store
	MongoDB     MongoDB
	Redis       Redis
	RabbitMQ    RabbitMQ
	JWT         JWT
	Ingestion   Ingestion
	Query       Query
	Maintenance Maintenance
	Aggregation Aggregation
	Health      Health
	RateLimit   RateLimit
	Log         Log
	Location    *time.Location
	Logger      *zap.Logger
}

// Service 서비스 정보
type Service struct {
	Name        string
	Version     string
	Environment string
	Timezone    string
}

// Log 로그 설정
type Log struct {
	Level    string
	Format   string
	Output   string
	FilePath string
}

func defaults() map[string]interface{} {
	return map[string]interface{}{
		"service.name":        "system-logs",
		"service.version":     "dev",
		"service.environment": "development",
		"service.timezone":    "Local",

		"server.port":             8080,
		"server.timeout":          30,
		"server.debug":            false,
		"server.shutdown_timeout": "15s",
		"server.cors_origins":     []string{"*"},

		"store.driver": StoreMongo,

		"mongodb.uri":              "mongodb://localhost:27017",
		"mongodb.database":         "semo",
		"mongodb.collection":       "systemlogs",
		"mongodb.users_collection": "users",
		"mongodb.connect_timeout":  "10s",

		"redis.enabled": false,
		"redis.addr":    "localhost:6379",
		"redis.db":      0,

		"rabbitmq.enabled":  false,
		"rabbitmq.exchange": "system-logs",

		"jwt.admin_roles": []string{"admin"},

		"ingestion.queue_size":             1024,
		"ingestion.workers":                4,
		"ingestion.insert_timeout":         "10s",
		"ingestion.slow_request_threshold": "1s",
		"ingestion.alerts":                 "log",
		"ingestion.alert_topic":            "system-logs.alerts",

		"query.timeout":      "10s",
		"query.export_limit": 10000,

		"maintenance.enabled":      false,
		"maintenance.interval":     "24h",
		"maintenance.days_to_keep": 90,

		"health.enabled":          false,
		"health.interval":         "5m",
		"health.heap_warning_mb":  512,
		"health.heap_critical_mb": 1024,

		"aggregation.major_error_count":   10,
		"aggregation.minor_warning_count": 20,

		"ratelimit.enabled":  true,
		"ratelimit.backend":  "memory",
		"ratelimit.limit":    300,
		"ratelimit.window":   "1m",
		"ratelimit.capacity": 10000,

		"log.level":  "info",
		"log.format": "json",
		"log.output": "stdout",
	}
}

// Load 설정 파일 로드. configFile이 비어 있으면 configs/{APP_ENV}/syslog.yaml을 찾습니다.
func Load(configFile string) (*Config, error) {
	cfg, err := config.Load(ServiceName, configFile, defaults())
	if err != nil {
		return nil, err
	}

	appConfig := &Config{}

	// 서비스 정보
	appConfig.Service.Name = cfg.GetString("service.name")
	appConfig.Service.Version = cfg.GetString("service.version")
	appConfig.Service.Environment = cfg.GetString("service.environment")
	appConfig.Service.Timezone = cfg.GetString("service.timezone")

	appConfig.Server = loadServer(cfg)
	appConfig.Store = loadStore(cfg)
	appConfig.MongoDB = loadMongoDB(cfg)
	appConfig.Redis = loadRedis(cfg)
	appConfig.RabbitMQ = loadRabbitMQ(cfg)
	appConfig.JWT = loadJWT(cfg)
	appConfig.Ingestion = loadIngestion(cfg)
	appConfig.Query = loadQuery(cfg)
	appConfig.Maintenance = loadMaintenance(cfg)
	appConfig.Aggregation = loadAggregation(cfg)
	appConfig.Health = loadHealth(cfg)
	appConfig.RateLimit = loadRateLimit(cfg)

	// 로그 설정
	appConfig.Log.Level = cfg.GetString("log.level")
	appConfig.Log.Format = cfg.GetString("log.format")
	appConfig.Log.Output = cfg.GetString("log.output")
	appConfig.Log.FilePath = cfg.GetString("log.file_path")

	if err := appConfig.Validate(); err != nil {
		return nil, err
	}

	appConfig.Location, err = resolveLocation(appConfig.Service.Timezone)
	if err != nil {
		return nil, fmt.Errorf("invalid service.timezone %q: %w", appConfig.Service.Timezone, err)
	}

	appConfig.Logger, err = logger.NewZapLogger(logger.Config{
		Level:       appConfig.Log.Level,
		Format:      appConfig.Log.Format,
		Output:      appConfig.Log.Output,
		FilePath:    appConfig.Log.FilePath,
		Development: appConfig.Server.Debug,
		Service:     appConfig.Service.Name,
		Version:     appConfig.Service.Version,
	})
	if err != nil {
		return nil, err
	}

	return appConfig, nil
}

// Validate 필수 값과 선택지 검사
func (c *Config) Validate() error {
	var problems []string
	switch c.Store.Driver {
	case StoreMongo:
		if c.MongoDB.URI == "" {
			problems = append(problems, "mongodb.uri is required")
		}
	case StoreMemory:
	default:
		problems = append(problems, fmt.Sprintf("store.driver must be mongo or memory (got %q)", c.Store.Driver))
	}
	if c.JWT.Secret == "" {
		problems = append(problems, "jwt.secret is required")
	}
	switch c.Ingestion.Alerts {
	case AlertsNone, AlertsLog, AlertsRedis, AlertsRabbitMQ:
	default:
		problems = append(problems, fmt.Sprintf("ingestion.alerts must be one of none, log, redis, rabbitmq (got %q)", c.Ingestion.Alerts))
	}
	if c.Ingestion.Alerts == AlertsRedis && !c.Redis.Enabled {
		problems = append(problems, "ingestion.alerts=redis requires redis.enabled")
	}
	if c.Ingestion.Alerts == AlertsRabbitMQ && (!c.RabbitMQ.Enabled || c.RabbitMQ.URL == "") {
		problems = append(problems, "ingestion.alerts=rabbitmq requires rabbitmq.enabled and rabbitmq.url")
	}
	switch c.RateLimit.Backend {
	case "memory":
	case "redis":
		if c.RateLimit.Enabled && !c.Redis.Enabled {
			problems = append(problems, "ratelimit.backend=redis requires redis.enabled")
		}
	default:
		problems = append(problems, fmt.Sprintf("ratelimit.backend must be memory or redis (got %q)", c.RateLimit.Backend))
	}
	if c.Aggregation.MajorErrorCount < 0 || c.Aggregation.MinorWarningCount < 0 {
		problems = append(problems, "aggregation thresholds must not be negative")
	}
	if c.Maintenance.Enabled && c.Maintenance.Interval <= 0 {
		problems = append(problems, "maintenance.interval must be a positive duration")
	}
	if c.Health.Enabled && c.Health.Interval <= 0 {
		problems = append(problems, "health.interval must be a positive duration")
	}
	if c.Maintenance.DaysToKeep <= 0 {
		problems = append(problems, "maintenance.days_to_keep must be positive")
	}
	if len(problems) > 0 {
		return fmt.Errorf("invalid configuration: %s", strings.Join(problems, "; "))
	}
	return nil
}
