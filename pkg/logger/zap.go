// Package logger는 zap 기반 로거와 Echo 연동 헬퍼를 제공합니다.
package logger

import (
	"fmt"
	"os"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config 로거 설정
type Config struct {
	// Level 로그 레벨 (debug, info, warn, error, dpanic, panic, fatal)
	Level string
	// Format 로그 포맷 (json, console)
	Format string
	// Output 로그 출력 대상 (stdout, stderr, file)
	Output string
	// FilePath Output이 file일 때 사용할 경로
	FilePath string
	// Development 개발 모드 여부
	Development bool
	// Service 모든 로그에 붙는 service 필드
	Service string
	// Version 모든 로그에 붙는 version 필드
	Version string
}

// NewZapLogger 새로운 zap 로거를 생성합니다.
func NewZapLogger(config Config) (*zap.Logger, error) {
	level := zap.NewAtomicLevelAt(zapcore.InfoLevel)
	if config.Level != "" {
		parsed, err := zapcore.ParseLevel(strings.ToLower(config.Level))
		if err != nil {
			return nil, fmt.Errorf("invalid log level %q: %w", config.Level, err)
		}
		level.SetLevel(parsed)
	}

	encoderConfig := zap.NewProductionEncoderConfig()
	encoderConfig.TimeKey = "@timestamp"
	encoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	encoderConfig.LevelKey = "log.level"
	encoderConfig.MessageKey = "message"
	encoderConfig.CallerKey = "caller"

	if config.Development {
		encoderConfig = zap.NewDevelopmentEncoderConfig()
		encoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	}

	var encoder zapcore.Encoder
	if config.Format == "console" {
		encoder = zapcore.NewConsoleEncoder(encoderConfig)
	} else {
		encoder = zapcore.NewJSONEncoder(encoderConfig)
	}

	writeSyncer, err := newWriteSyncer(config)
	if err != nil {
		return nil, err
	}

	logger := zap.New(zapcore.NewCore(encoder, writeSyncer, level),
		zap.AddStacktrace(zapcore.ErrorLevel),
	)

	// 개발 모드이면 호출자 정보 추가
	if config.Development {
		logger = logger.WithOptions(zap.AddCaller())
	}

	var fields []zap.Field
	if config.Service != "" {
		fields = append(fields, zap.String("service", config.Service))
	}
	if config.Version != "" {
		fields = append(fields, zap.String("version", config.Version))
	}
	if len(fields) > 0 {
		logger = logger.With(fields...)
	}

	return logger, nil
}

func newWriteSyncer(config Config) (zapcore.WriteSyncer, error) {
	switch config.Output {
	case "stderr":
		return zapcore.Lock(os.Stderr), nil
	case "file":
		if config.FilePath == "" {
			return zapcore.Lock(os.Stdout), nil
		}
		file, err := os.OpenFile(config.FilePath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
		if err != nil {
			return nil, fmt.Errorf("open log file %s: %w", config.FilePath, err)
		}
		return zapcore.AddSync(file), nil
	default:
		return zapcore.Lock(os.Stdout), nil
	}
}

// DefaultZapLogger 기본 설정으로 zap 로거를 생성합니다.
func DefaultZapLogger() *zap.Logger {
	logger, err := NewZapLogger(Config{Level: "info", Format: "json", Output: "stdout"})
	if err != nil {
		// 로거 생성 실패 시 기본 로거 반환
		return zap.NewExample()
	}
	return logger
}
