package logger

import (
	stderrors "errors"
	"io"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/labstack/gommon/log"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// SkippedPaths 액세스 로그와 요청 수집에서 제외되는 경로
var SkippedPaths = []string{"/health", "/ping", "/api/system-logs/health"}

// IsSkippedPath는 경로가 로그 대상에서 제외되는지 확인합니다.
func IsSkippedPath(path string) bool {
	for _, p := range SkippedPaths {
		if path == p {
			return true
		}
	}
	return false
}

// NewEchoRequestLogger는 zap으로 HTTP 요청과 응답을 기록하는 Echo 미들웨어를 생성합니다.
func NewEchoRequestLogger(logger *zap.Logger) echo.MiddlewareFunc {
	return middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		Skipper: func(c echo.Context) bool {
			return IsSkippedPath(c.Request().URL.Path)
		},
		HandleError: true,

		LogLatency:      true,
		LogRemoteIP:     true,
		LogMethod:       true,
		LogURI:          true,
		LogURIPath:      true,
		LogRoutePath:    true,
		LogRequestID:    true,
		LogUserAgent:    true,
		LogStatus:       true,
		LogError:        true,
		LogResponseSize: true,
		LogHeaders:      []string{"Authorization"},
		LogQueryParams:  []string{"level", "source", "category", "timeRange", "page", "limit"},

		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			fields := []zap.Field{
				zap.String("request.remote_ip", v.RemoteIP),
				zap.String("request.method", v.Method),
				zap.String("request.uri", v.URI),
				zap.String("request.path", v.URIPath),
				zap.String("request.route", v.RoutePath),
				zap.String("request.user_agent", v.UserAgent),
				zap.String("request.request_id", v.RequestID),
				zap.Int("response.status", v.Status),
				zap.Duration("response.latency", v.Latency),
				zap.Int64("response.response_size", v.ResponseSize),
			}

			if values := v.Headers["Authorization"]; len(values) > 0 {
				fields = append(fields, zap.String("request.authorization", maskToken(values[0])))
			}
			if len(v.QueryParams) > 0 {
				fields = append(fields, zap.Any("request.query_params", v.QueryParams))
			}

			switch {
			case v.Error != nil:
				fields = append(fields, zap.Error(v.Error))
				logger.Error("Request failed", fields...)
			case v.Status >= http.StatusInternalServerError:
				logger.Error("Server error", fields...)
			case v.Status >= http.StatusBadRequest:
				logger.Warn("Client error", fields...)
			default:
				logger.Info("Request completed", fields...)
			}
			return nil
		},
	})
}

// Bearer 토큰 일부만 표시
func maskToken(val string) string {
	if len(val) > 15 {
		return val[:10] + "..." + val[len(val)-5:]
	}
	return "[MASKED]"
}

// WithEchoLogger는 Echo의 Logger와 에러 핸들러를 zap 기반으로 교체합니다.
// 에러 응답은 {success:false, error} 형태의 JSON으로 작성됩니다.
func WithEchoLogger(e *echo.Echo, logger *zap.Logger) {
	e.Logger = NewEchoZapLogger(logger)

	e.HTTPErrorHandler = func(err error, c echo.Context) {
		code := http.StatusInternalServerError
		message := http.StatusText(code)

		var he *echo.HTTPError
		if stderrors.As(err, &he) {
			code = he.Code
			if m, ok := he.Message.(string); ok && code < http.StatusInternalServerError {
				message = m
			} else {
				message = http.StatusText(code)
			}
		}

		fields := []zap.Field{
			zap.Error(err),
			zap.Int("status", code),
			zap.String("method", c.Request().Method),
			zap.String("path", c.Request().URL.Path),
			zap.String("ip", c.RealIP()),
		}
		if code >= http.StatusInternalServerError {
			logger.Error("HTTP error", fields...)
		} else {
			logger.Debug("HTTP error", fields...)
		}

		if c.Response().Committed {
			return
		}
		if c.Request().Method == http.MethodHead {
			err = c.NoContent(code)
		} else {
			err = c.JSON(code, map[string]interface{}{
				"success": false,
				"error":   message,
			})
		}
		if err != nil {
			logger.Error("Failed to send error response", zap.Error(err))
		}
	}
}

// EchoZapLogger는 echo.Logger 인터페이스를 구현한 zap 로거 래퍼입니다.
type EchoZapLogger struct {
	Logger *zap.Logger
	prefix string
}

// NewEchoZapLogger는 Echo의 Logger 인터페이스를 구현한 zap 로거 래퍼를 생성합니다.
func NewEchoZapLogger(logger *zap.Logger) *EchoZapLogger {
	return &EchoZapLogger{Logger: logger}
}

func (l *EchoZapLogger) sugar() *zap.SugaredLogger { return l.Logger.Sugar() }

func (l *EchoZapLogger) Output() io.Writer     { return &zapWriter{logger: l.Logger} }
func (l *EchoZapLogger) SetOutput(w io.Writer) {}
func (l *EchoZapLogger) SetHeader(h string)    {}
func (l *EchoZapLogger) Prefix() string        { return l.prefix }
func (l *EchoZapLogger) SetPrefix(p string)    { l.prefix = p }
func (l *EchoZapLogger) SetLevel(v log.Lvl)    {}

// Level는 zap 코어에서 활성화된 가장 낮은 레벨을 gommon 레벨로 변환합니다.
func (l *EchoZapLogger) Level() log.Lvl {
	core := l.Logger.Core()
	switch {
	case core.Enabled(zapcore.DebugLevel):
		return log.DEBUG
	case core.Enabled(zapcore.InfoLevel):
		return log.INFO
	case core.Enabled(zapcore.WarnLevel):
		return log.WARN
	case core.Enabled(zapcore.ErrorLevel):
		return log.ERROR
	default:
		return log.OFF
	}
}

func (l *EchoZapLogger) Print(i ...interface{})                 { l.sugar().Info(i...) }
func (l *EchoZapLogger) Printf(format string, i ...interface{}) { l.sugar().Infof(format, i...) }
func (l *EchoZapLogger) Printj(j log.JSON)                      { l.Logger.Info("json_message", zap.Any("json", j)) }
func (l *EchoZapLogger) Debug(i ...interface{})                 { l.sugar().Debug(i...) }
func (l *EchoZapLogger) Debugf(format string, i ...interface{}) { l.sugar().Debugf(format, i...) }
func (l *EchoZapLogger) Debugj(j log.JSON)                      { l.Logger.Debug("json_message", zap.Any("json", j)) }
func (l *EchoZapLogger) Info(i ...interface{})                  { l.sugar().Info(i...) }
func (l *EchoZapLogger) Infof(format string, i ...interface{})  { l.sugar().Infof(format, i...) }
func (l *EchoZapLogger) Infoj(j log.JSON)                       { l.Logger.Info("json_message", zap.Any("json", j)) }
func (l *EchoZapLogger) Warn(i ...interface{})                  { l.sugar().Warn(i...) }
func (l *EchoZapLogger) Warnf(format string, i ...interface{})  { l.sugar().Warnf(format, i...) }
func (l *EchoZapLogger) Warnj(j log.JSON)                       { l.Logger.Warn("json_message", zap.Any("json", j)) }
func (l *EchoZapLogger) Error(i ...interface{})                 { l.sugar().Error(i...) }
func (l *EchoZapLogger) Errorf(format string, i ...interface{}) { l.sugar().Errorf(format, i...) }
func (l *EchoZapLogger) Errorj(j log.JSON)                      { l.Logger.Error("json_message", zap.Any("json", j)) }
func (l *EchoZapLogger) Fatal(i ...interface{})                 { l.sugar().Fatal(i...) }
func (l *EchoZapLogger) Fatalf(format string, i ...interface{}) { l.sugar().Fatalf(format, i...) }
func (l *EchoZapLogger) Fatalj(j log.JSON)                      { l.Logger.Fatal("json_message", zap.Any("json", j)) }
func (l *EchoZapLogger) Panic(i ...interface{})                 { l.sugar().Panic(i...) }
func (l *EchoZapLogger) Panicf(format string, i ...interface{}) { l.sugar().Panicf(format, i...) }
func (l *EchoZapLogger) Panicj(j log.JSON)                      { l.Logger.Panic("json_message", zap.Any("json", j)) }

// zapWriter는 io.Writer 인터페이스를 구현한 zap 로거 래퍼입니다.
type zapWriter struct {
	logger *zap.Logger
}

func (w *zapWriter) Write(p []byte) (n int, err error) {
	w.logger.Info(strings.TrimRight(string(p), "\n"))
	return len(p), nil
}
