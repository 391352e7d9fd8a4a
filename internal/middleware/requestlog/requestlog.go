package requestlog

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/wekeepgrowing/semo-syslog/internal/domain/entity"
	"github.com/wekeepgrowing/semo-syslog/internal/middleware/auth"
	"github.com/wekeepgrowing/semo-syslog/internal/usecase"
)

// Recorder is the ingestion surface used by the middleware.
type Recorder interface {
	LogAPIRequest(req usecase.APIRequest, reqErr error)
	LogPerformanceMetric(metric string, value float64, threshold *float64)
	LogAuthEvent(event usecase.AuthEvent, userID string, details map[string]interface{}, reqCtx *usecase.RequestContext)
	LogEvent(level entity.Level, message, source string, opts usecase.EventOptions)
}

// Config controls which requests are recorded.
type Config struct {
	// SlowThreshold marks requests slower than this as performance warnings. Zero disables.
	SlowThreshold time.Duration
}

// Middleware records every completed request as a system log entry after
// the handler returns. Health and ping probes are not recorded.
func Middleware(rec Recorder, cfg Config) echo.MiddlewareFunc {
	return middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		Skipper: func(c echo.Context) bool {
			p := c.Request().URL.Path
			return strings.Contains(p, "/health") || strings.Contains(p, "/ping")
		},
		HandleError:  true,
		LogStatus:    true,
		LogLatency:   true,
		LogMethod:    true,
		LogURIPath:   true,
		LogRemoteIP:  true,
		LogUserAgent: true,
		LogRequestID: true,
		LogError:     true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			record(c, rec, cfg, v)
			return nil
		},
	})
}

func record(c echo.Context, rec Recorder, cfg Config, v middleware.RequestLoggerValues) {
	reqCtx := usecase.RequestContext{IP: v.RemoteIP, UserAgent: v.UserAgent, RequestID: v.RequestID}
	var userID string
	if user, err := auth.GetUserFromContext(c); err == nil {
		userID = user.UserID
	}

	var reqErr error
	if v.Error != nil && v.Status >= http.StatusInternalServerError {
		reqErr = v.Error
	}
	rec.LogAPIRequest(usecase.APIRequest{
		Method:         v.Method,
		Path:           v.URIPath,
		StatusCode:     v.Status,
		ResponseTime:   v.Latency,
		Query:          c.QueryParams(),
		Params:         params(c),
		UserID:         userID,
		RequestContext: reqCtx,
	}, reqErr)

	if cfg.SlowThreshold > 0 && v.Latency > cfg.SlowThreshold {
		threshold := float64(cfg.SlowThreshold.Milliseconds())
		metric := fmt.Sprintf("slow_request_%s_%s", v.Method, strings.ReplaceAll(v.URIPath, "/", "_"))
		rec.LogPerformanceMetric(metric, float64(v.Latency.Milliseconds()), &threshold)
	}

	switch v.Status {
	case http.StatusUnauthorized, http.StatusForbidden:
		rec.LogAuthEvent(usecase.AuthUnauthorizedAccess, userID, map[string]interface{}{
			"resource": v.URIPath,
			"method":   v.Method,
			"reason":   "Unauthorized access attempt",
		}, &reqCtx)
	case http.StatusTooManyRequests:
		rec.LogEvent(entity.LevelWarning, "Rate limit exceeded: "+v.RemoteIP, "security", usecase.EventOptions{
			Category: "security",
			Details: map[string]interface{}{
				"ip":        v.RemoteIP,
				"userAgent": v.UserAgent,
				"path":      v.URIPath,
				"method":    v.Method,
			},
			IP:        v.RemoteIP,
			UserAgent: v.UserAgent,
			RequestID: v.RequestID,
			Tags:      []string{"rate-limit", "security"},
		})
	}
}

func params(c echo.Context) map[string]string {
	names := c.ParamNames()
	if len(names) == 0 {
		return nil
	}
	values := c.ParamValues()
	out := make(map[string]string, len(names))
	for i, n := range names {
		if i < len(values) {
			out[n] = values[i]
		}
	}
	return out
}
