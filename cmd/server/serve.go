package main

import (
	"context"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	httpHandler "github.com/wekeepgrowing/semo-syslog/internal/adapter/handler/http"
	"github.com/wekeepgrowing/semo-syslog/internal/config"
	"github.com/wekeepgrowing/semo-syslog/internal/infrastructure/health"
	httpServer "github.com/wekeepgrowing/semo-syslog/internal/infrastructure/http"
	"github.com/wekeepgrowing/semo-syslog/internal/middleware/auth"
	"github.com/wekeepgrowing/semo-syslog/internal/middleware/ratelimit"
	"github.com/wekeepgrowing/semo-syslog/internal/middleware/requestlog"
	"github.com/wekeepgrowing/semo-syslog/pkg/logger"
)

func newServeCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API with background ingestion, retention and health checks",
		RunE:  runServe,
	}
	cmd.Flags().Int("port", 0, "override server.port")
	return cmd
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if port, _ := cmd.Flags().GetInt("port"); port > 0 {
		cfg.Server.Port = port
	}
	log := cfg.Logger
	log.Info("시스템 로그 서비스 시작",
		zap.String("environment", cfg.Service.Environment),
		zap.String("timezone", cfg.Location.String()))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := newApp(ctx, cfg)
	if err != nil {
		return err
	}
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		a.close(closeCtx)
	}()

	middlewares := []echo.MiddlewareFunc{
		requestlog.Middleware(a.ingestion, requestlog.Config{SlowThreshold: cfg.Ingestion.SlowRequestThreshold}),
	}
	if cfg.RateLimit.Enabled {
		middlewares = append(middlewares, rateLimiter(cfg, a, log))
	}

	srv := httpServer.NewServer(
		httpServer.WithPort(cfg.Server.Port),
		httpServer.WithLogger(log),
		httpServer.WithTimeout(time.Duration(cfg.Server.Timeout)*time.Second),
		httpServer.WithCORSOrigins(cfg.Server.CORSOrigins),
		httpServer.WithValidator(httpHandler.NewRequestValidator()),
		httpServer.WithMiddleware(middlewares...),
	)

	handler := httpHandler.NewSystemLogHandler(a.aggregation, a.query, a.ingestion, log, cfg.Query.Timeout)
	srv.RegisterRoutes(func(e *echo.Echo) {
		handler.RegisterRoutes(e,
			auth.JWTMiddleware(auth.JWTConfig{
				Secret: cfg.JWT.Secret,
				Issuer: cfg.JWT.Issuer,
				Logger: log,
			}),
			auth.RequireRole(log, cfg.JWT.AdminRoles...),
		)
	})

	var background sync.WaitGroup
	if cfg.Maintenance.Enabled {
		background.Add(1)
		go func() {
			defer background.Done()
			a.maintenance.Run(ctx, cfg.Maintenance.Interval, cfg.Maintenance.DaysToKeep)
		}()
	}
	if cfg.Health.Enabled {
		monitor := health.NewMonitor(a.ingestion, cfg.Health.Interval, log, a.healthChecks()...)
		background.Add(1)
		go func() {
			defer background.Done()
			monitor.Run(ctx)
		}()
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()

	select {
	case <-ctx.Done():
		log.Info("서버 종료 중...")
	case err = <-errCh:
		if err != nil {
			log.Error("HTTP 서버 에러", zap.Error(err))
		}
		stop()
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if shutdownErr := srv.Shutdown(shutdownCtx); shutdownErr != nil {
		log.Error("서버 강제 종료", zap.Error(shutdownErr))
	}
	background.Wait()

	log.Info("서버 종료 완료")
	return err
}

func rateLimiter(cfg *config.Config, a *app, log *zap.Logger) echo.MiddlewareFunc {
	rl := ratelimit.Config{
		Limit:    cfg.RateLimit.Limit,
		Window:   cfg.RateLimit.Window,
		Capacity: cfg.RateLimit.Capacity,
	}
	var store echomw.RateLimiterStore = ratelimit.NewMemoryStore(rl)
	if cfg.RateLimit.Backend == "redis" && a.redis != nil {
		store = ratelimit.NewRedisStore(a.redis, rl, log)
	}
	return ratelimit.Middleware(store, rl.Window, log, logger.IsSkippedPath)
}
