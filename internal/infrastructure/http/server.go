package http

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	gonanoid "github.com/matoous/go-nanoid/v2"
	"go.uber.org/zap"

	"github.com/wekeepgrowing/semo-syslog/pkg/logger"
)

// Server HTTP 서버 구조체입니다.
type Server struct {
	echo        *echo.Echo
	logger      *zap.Logger
	port        int
	timeout     time.Duration
	corsOrigins []string
	validator   echo.Validator
	middlewares []echo.MiddlewareFunc
}

// ServerOption Server 생성을 위한 옵션 함수 타입입니다.
type ServerOption func(*Server)

// WithPort 서버 포트를 설정하는 옵션입니다.
func WithPort(port int) ServerOption {
	return func(s *Server) {
		s.port = port
	}
}

// WithLogger 로거를 설정하는 옵션입니다.
func WithLogger(logger *zap.Logger) ServerOption {
	return func(s *Server) {
		s.logger = logger
	}
}

// WithTimeout 읽기/쓰기 타임아웃을 설정합니다.
func WithTimeout(d time.Duration) ServerOption {
	return func(s *Server) {
		s.timeout = d
	}
}

// WithCORSOrigins 허용할 origin 목록을 설정합니다.
func WithCORSOrigins(origins []string) ServerOption {
	return func(s *Server) {
		s.corsOrigins = origins
	}
}

// WithValidator 요청 검증기를 설정합니다.
func WithValidator(v echo.Validator) ServerOption {
	return func(s *Server) {
		s.validator = v
	}
}

// WithMiddleware 기본 미들웨어 뒤에 실행될 미들웨어를 추가합니다.
func WithMiddleware(m ...echo.MiddlewareFunc) ServerOption {
	return func(s *Server) {
		s.middlewares = append(s.middlewares, m...)
	}
}

// NewRequestID 요청 ID 생성 (nanoid 21자)
func NewRequestID() string {
	id, err := gonanoid.New()
	if err != nil {
		return fmt.Sprintf("req-%d", time.Now().UnixNano())
	}
	return id
}

// NewServer HTTP 서버를 생성합니다.
func NewServer(opts ...ServerOption) *Server {
	s := &Server{
		echo:        echo.New(),
		logger:      zap.NewNop(),
		port:        8080,
		timeout:     30 * time.Second,
		corsOrigins: []string{"*"},
	}
	for _, opt := range opts {
		opt(s)
	}

	e := s.echo
	e.HideBanner = true
	e.HidePort = true
	if s.validator != nil {
		e.Validator = s.validator
	}

	logger.WithEchoLogger(e, s.logger)

	e.Use(middleware.RequestIDWithConfig(middleware.RequestIDConfig{Generator: NewRequestID}))
	e.Use(middleware.Recover())
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins:  s.corsOrigins,
		AllowMethods:  []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowHeaders:  []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept, echo.HeaderAuthorization},
		ExposeHeaders: []string{echo.HeaderContentDisposition, echo.HeaderXRequestID},
	}))
	e.Use(logger.NewEchoRequestLogger(s.logger))
	e.Use(s.middlewares...)

	e.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{
			"status": "healthy",
		})
	})
	e.GET("/ping", func(c echo.Context) error {
		return c.String(http.StatusOK, "pong")
	})

	return s
}

// RegisterRoutes 라우트를 등록하는 메서드입니다.
func (s *Server) RegisterRoutes(registerFunc func(e *echo.Echo)) {
	registerFunc(s.echo)
}

// Start 서버를 시작합니다. Shutdown으로 종료되면 nil을 반환합니다.
func (s *Server) Start() error {
	addr := fmt.Sprintf(":%d", s.port)
	s.logger.Info("HTTP 서버 시작", zap.String("addr", addr))

	srv := &http.Server{
		Addr:         addr,
		Handler:      s.echo,
		ReadTimeout:  s.timeout,
		WriteTimeout: s.timeout,
		IdleTimeout:  2 * s.timeout,
	}
	if err := s.echo.StartServer(srv); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown 서버를 안전하게 종료합니다.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("HTTP 서버 종료 중...")
	return s.echo.Shutdown(ctx)
}

// GetEcho 내부 Echo 인스턴스를 반환합니다.
func (s *Server) GetEcho() *echo.Echo {
	return s.echo
}
