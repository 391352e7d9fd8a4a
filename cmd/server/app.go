package main

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/wekeepgrowing/semo-syslog/internal/adapter/repository"
	"github.com/wekeepgrowing/semo-syslog/internal/config"
	"github.com/wekeepgrowing/semo-syslog/internal/domain/entity"
	domainRepo "github.com/wekeepgrowing/semo-syslog/internal/domain/repository"
	"github.com/wekeepgrowing/semo-syslog/internal/infrastructure/alert"
	"github.com/wekeepgrowing/semo-syslog/internal/infrastructure/db"
	"github.com/wekeepgrowing/semo-syslog/internal/infrastructure/health"
	"github.com/wekeepgrowing/semo-syslog/internal/usecase"
	"github.com/wekeepgrowing/semo-syslog/pkg/messaging"
)

// app holds the wired dependencies shared by every command.
type app struct {
	cfg    *config.Config
	logger *zap.Logger

	mongo  *db.Mongo // nil with the memory store
	redis  *redis.Client
	alerts domainRepo.AlertPublisher
	repo   domainRepo.LogRepository

	ingestion   *usecase.IngestionUseCase
	aggregation *usecase.AggregationUseCase
	query       *usecase.QueryUseCase
	maintenance *usecase.MaintenanceUseCase
}

func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfgFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, fmt.Errorf("설정 로드 실패: %w", err)
	}
	return cfg, nil
}

func newApp(ctx context.Context, cfg *config.Config) (*app, error) {
	log := cfg.Logger
	a := &app{cfg: cfg, logger: log}

	var (
		users    domainRepo.UserDirectory
		indexErr error
		err      error
	)
	switch cfg.Store.Driver {
	case config.StoreMemory:
		log.Warn("메모리 저장소 사용 중. 종료 시 로그가 사라집니다")
		a.repo = repository.NewMemoryLogRepository()
		users = repository.StaticUserDirectory{}
	default:
		a.mongo, err = db.NewMongo(ctx, cfg.MongoDB, log)
		if err != nil {
			return nil, err
		}
		indexErr = a.mongo.EnsureLogIndexes(ctx)
		if indexErr != nil {
			log.Warn("로그 인덱스 생성 실패", zap.Error(indexErr))
		}
		a.repo = repository.NewMongoLogRepository(a.mongo.Logs, log)
		users = repository.NewMongoUserDirectory(a.mongo.Users)
	}

	a.redis, err = db.NewRedis(ctx, cfg.Redis)
	if err != nil {
		a.close(ctx)
		return nil, err
	}

	a.alerts, err = newAlertPublisher(cfg, a.redis, log)
	if err != nil {
		a.close(ctx)
		return nil, err
	}

	a.ingestion = usecase.NewIngestionUseCase(a.repo, a.alerts, log, usecase.IngestionConfig{
		QueueSize:     cfg.Ingestion.QueueSize,
		Workers:       cfg.Ingestion.Workers,
		InsertTimeout: cfg.Ingestion.InsertTimeout,
		Environment:   entity.Environment(cfg.Service.Environment),
	})
	a.ingestion.Start()
	if a.mongo != nil {
		a.ingestion.LogDatabaseOperation("CREATE_INDEX", cfg.MongoDB.Collection, map[string]interface{}{
			"indexes": len(db.LogIndexes()),
		}, indexErr)
	}

	aggCfg := usecase.DefaultAggregationConfig()
	aggCfg.Location = cfg.Location
	aggCfg.Policy.MajorErrorCount = cfg.Aggregation.MajorErrorCount
	aggCfg.Policy.MinorWarningCount = cfg.Aggregation.MinorWarningCount
	a.aggregation = usecase.NewAggregationUseCase(a.repo, users, log, aggCfg)
	a.query = usecase.NewQueryUseCase(a.repo, users, a.ingestion, log, usecase.QueryConfig{
		ExportLimit: cfg.Query.ExportLimit,
	})
	a.maintenance = usecase.NewMaintenanceUseCase(a.repo, a.ingestion, log)

	return a, nil
}

func newAlertPublisher(cfg *config.Config, rdb *redis.Client, log *zap.Logger) (domainRepo.AlertPublisher, error) {
	switch cfg.Ingestion.Alerts {
	case config.AlertsRedis:
		return alert.NewBrokerPublisher(messaging.NewRedisPublisher(rdb), cfg.Ingestion.AlertTopic), nil
	case config.AlertsRabbitMQ:
		pub, err := messaging.NewRabbitPublisher(cfg.RabbitMQ.URL, cfg.RabbitMQ.Exchange)
		if err != nil {
			return nil, err
		}
		return alert.NewBrokerPublisher(pub, cfg.Ingestion.AlertTopic), nil
	case config.AlertsLog:
		return alert.NewLogPublisher(log), nil
	}
	return nil, nil
}

// healthChecks lists the periodic checks for the wired backends.
func (a *app) healthChecks() []health.Check {
	var checks []health.Check
	if a.mongo != nil {
		checks = append(checks, health.NewPingCheck("database", a.mongo.Ping))
	}
	checks = append(checks, health.NewMemoryCheck(a.cfg.Health.HeapWarningMB, a.cfg.Health.HeapCriticalMB))
	if a.redis != nil {
		checks = append(checks, health.NewPingCheck("cache", func(ctx context.Context) error {
			return a.redis.Ping(ctx).Err()
		}))
	}
	return checks
}

// close drains ingestion first so queued records still reach the store.
func (a *app) close(ctx context.Context) {
	if a.ingestion != nil {
		if err := a.ingestion.Close(ctx); err != nil {
			a.logger.Warn("ingestion drain incomplete", zap.Error(err))
		}
	}
	if a.alerts != nil {
		if err := a.alerts.Close(); err != nil {
			a.logger.Warn("알림 발행자 종료 실패", zap.Error(err))
		}
	}
	if a.redis != nil {
		if err := a.redis.Close(); err != nil {
			a.logger.Warn("Redis 연결 종료 실패", zap.Error(err))
		}
	}
	if a.mongo != nil {
		if err := a.mongo.Close(ctx); err != nil {
			a.logger.Warn("MongoDB 연결 종료 실패", zap.Error(err))
		}
	}
	_ = a.logger.Sync()
}
