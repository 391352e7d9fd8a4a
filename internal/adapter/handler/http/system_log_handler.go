package http

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/wekeepgrowing/semo-syslog/internal/domain/dto"
	"github.com/wekeepgrowing/semo-syslog/internal/middleware/auth"
	"github.com/wekeepgrowing/semo-syslog/internal/usecase"
)

const (
	BasePath = "/api/system-logs"

	defaultQueryTimeout = 10 * time.Second
	overviewTrendStep   = 2
)

// SystemLogHandler serves the system-logs REST API.
type SystemLogHandler struct {
	aggregation *usecase.AggregationUseCase
	query       *usecase.QueryUseCase
	ingestion   *usecase.IngestionUseCase
	logger      *zap.Logger
	timeout     time.Duration
	now         func() time.Time
}

// NewSystemLogHandler creates the handler. timeout bounds every store-backed request.
func NewSystemLogHandler(
	aggregation *usecase.AggregationUseCase,
	query *usecase.QueryUseCase,
	ingestion *usecase.IngestionUseCase,
	logger *zap.Logger,
	timeout time.Duration,
) *SystemLogHandler {
	if timeout <= 0 {
		timeout = defaultQueryTimeout
	}
	return &SystemLogHandler{
		aggregation: aggregation,
		query:       query,
		ingestion:   ingestion,
		logger:      logger,
		timeout:     timeout,
		now:         time.Now,
	}
}

// RegisterRoutes mounts the API. protect guards every route except /health.
func (h *SystemLogHandler) RegisterRoutes(e *echo.Echo, protect ...echo.MiddlewareFunc) {
	e.GET(BasePath+"/health", h.Health)

	g := e.Group(BasePath, protect...)
	g.GET("", h.ListLogs)
	g.GET("/", h.ListLogs)
	g.POST("", h.CreateLog)
	g.POST("/", h.CreateLog)
	g.GET("/overview", h.GetOverview)
	g.GET("/status", h.GetSystemStatus)
	g.GET("/activity-trend", h.GetActivityTrend)
	g.GET("/export", h.ExportLogs)
	g.GET("/filters", h.GetFilterOptions)
	g.GET("/stats", h.GetStatistics)
	g.DELETE("/clear", h.ClearLogs)
	g.GET("/:id", h.GetLog)
	g.PUT("/:id/resolve", h.ResolveLog)
}

func (h *SystemLogHandler) requestContext(c echo.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(c.Request().Context(), h.timeout)
}

func actorFrom(c echo.Context) usecase.Actor {
	actor := usecase.Actor{
		IP:        c.RealIP(),
		UserAgent: c.Request().UserAgent(),
		RequestID: c.Response().Header().Get(echo.HeaderXRequestID),
	}
	if user, err := auth.GetUserFromContext(c); err == nil {
		actor.ID = user.UserID
		actor.Name = user.Username
		if actor.Name == "" {
			actor.Name = user.Email
		}
	}
	return actor
}

// Health godoc
// @Summary Liveness of the system-logs API
// @Router /api/system-logs/health [get]
func (h *SystemLogHandler) Health(c echo.Context) error {
	return respond(c, http.StatusOK, echo.Map{
		"status":    "ok",
		"timestamp": h.now().UTC(),
		"dropped":   h.ingestion.Dropped(),
	}, "")
}

// GetOverview godoc
// @Summary Dashboard overview: stat cards, recent alerts, health and a 24h trend
// @Router /api/system-logs/overview [get]
func (h *SystemLogHandler) GetOverview(c echo.Context) error {
	ctx, cancel := h.requestContext(c)
	defer cancel()

	ov := h.aggregation.GetOverview(ctx)
	loc := h.aggregation.Location()
	return respond(c, http.StatusOK, OverviewResponse{
		Stats:         statCards(ov.Statistics, ov.Uptime),
		RecentAlerts:  alerts(ov.RecentAlerts, ov.Now, loc),
		SystemHealth:  ov.Health,
		ActivityTrend: trendPoints(ov.Trend, overviewTrendStep),
	}, "")
}

// ListLogs godoc
// @Summary Filtered, paginated list of system logs
// @Param page query int false "page (>=1)"
// @Param limit query int false "page size (1-100)"
// @Router /api/system-logs [get]
func (h *SystemLogHandler) ListLogs(c echo.Context) error {
	q, err := bindLogQuery(c)
	if err != nil {
		return h.fail(c, err, "Failed to retrieve system logs")
	}

	ctx, cancel := h.requestContext(c)
	defer cancel()

	res, err := h.query.ListLogs(ctx, q)
	if err != nil {
		return h.fail(c, err, "Failed to retrieve system logs")
	}
	return respond(c, http.StatusOK, res, "")
}

// GetSystemStatus godoc
// @Summary Per-service status and overall health
// @Router /api/system-logs/status [get]
func (h *SystemLogHandler) GetSystemStatus(c echo.Context) error {
	ctx, cancel := h.requestContext(c)
	defer cancel()

	status, err := h.aggregation.GetSystemStatus(ctx)
	if err != nil {
		return h.fail(c, err, "Failed to retrieve system status")
	}
	return respond(c, http.StatusOK, status, "")
}

// GetActivityTrend godoc
// @Summary Hourly activity series
// @Param hours query int false "window in hours (1-168, default 24)"
// @Param step query int false "keep every n-th hour (default 1)"
// @Router /api/system-logs/activity-trend [get]
func (h *SystemLogHandler) GetActivityTrend(c echo.Context) error {
	p, err := bindTrendParams(c)
	if err != nil {
		return h.fail(c, err, "Failed to retrieve activity trend")
	}

	ctx, cancel := h.requestContext(c)
	defer cancel()

	trend, err := h.aggregation.GetActivityTrend(ctx, p.Hours)
	if err != nil {
		return h.fail(c, err, "Failed to retrieve activity trend")
	}
	return respond(c, http.StatusOK, trendPoints(trend, p.Step), "")
}

// CreateLog godoc
// @Summary Record a system log entry
// @Router /api/system-logs [post]
func (h *SystemLogHandler) CreateLog(c echo.Context) error {
	body, err := readBody(c)
	if err != nil {
		return h.fail(c, err, "Failed to create system log")
	}
	req, err := parseCreateLog(body)
	if err != nil {
		return h.fail(c, err, "Failed to create system log")
	}
	if err := c.Validate(&req); err != nil {
		return h.fail(c, err, "Failed to create system log")
	}

	actor := actorFrom(c)
	record := req.toRecord()
	record.UserID = actor.ID
	record.IP = actor.IP
	record.UserAgent = actor.UserAgent
	record.RequestID = actor.RequestID

	ctx, cancel := h.requestContext(c)
	defer cancel()

	created, err := h.ingestion.Create(ctx, record)
	if err != nil {
		return h.fail(c, err, "Failed to create system log")
	}
	return respond(c, http.StatusCreated, created, "System log created successfully")
}

// GetLog godoc
// @Summary Single system log
// @Router /api/system-logs/{id} [get]
func (h *SystemLogHandler) GetLog(c echo.Context) error {
	ctx, cancel := h.requestContext(c)
	defer cancel()

	record, err := h.query.GetLog(ctx, c.Param("id"))
	if err != nil {
		return h.fail(c, err, "Failed to retrieve system log")
	}
	return respond(c, http.StatusOK, record, "")
}

// ResolveLog godoc
// @Summary Mark a system log resolved by the caller
// @Router /api/system-logs/{id}/resolve [put]
func (h *SystemLogHandler) ResolveLog(c echo.Context) error {
	ctx, cancel := h.requestContext(c)
	defer cancel()

	record, err := h.query.ResolveLog(ctx, c.Param("id"), actorFrom(c))
	if err != nil {
		return h.fail(c, err, "Failed to resolve system log")
	}
	return respond(c, http.StatusOK, record, "System log resolved successfully")
}

// ExportLogs godoc
// @Summary Download matching logs as JSON or CSV
// @Param format query string false "json (default) or csv"
// @Param compress query string false "gzip or zstd"
// @Router /api/system-logs/export [get]
func (h *SystemLogHandler) ExportLogs(c echo.Context) error {
	var p exportParams
	if err := (&echo.DefaultBinder{}).BindQueryParams(c, &p); err != nil {
		return h.fail(c, err, "Failed to export system logs")
	}
	if err := c.Validate(&p); err != nil {
		return h.fail(c, err, "Failed to export system logs")
	}
	format, err := usecase.ParseExportFormat(p.Format)
	if err != nil {
		return h.fail(c, err, "Failed to export system logs")
	}
	compression, err := usecase.ParseExportCompression(p.Compress)
	if err != nil {
		return h.fail(c, err, "Failed to export system logs")
	}
	q, err := bindLogQuery(c)
	if err != nil {
		return h.fail(c, err, "Failed to export system logs")
	}

	ctx, cancel := h.requestContext(c)
	defer cancel()

	doc, err := h.query.ExportLogs(ctx, q, actorFrom(c))
	if err != nil {
		return h.fail(c, err, "Failed to export system logs")
	}

	res := c.Response()
	res.Header().Set(echo.HeaderContentType, format.ContentType())
	fileName := usecase.ExportFileName(doc.GeneratedAt, format, compression)
	res.Header().Set(echo.HeaderContentDisposition, "attachment; filename="+fileName)
	switch compression {
	case usecase.CompressGzip:
		res.Header().Set(echo.HeaderContentEncoding, "gzip")
	case usecase.CompressZstd:
		res.Header().Set(echo.HeaderContentEncoding, "zstd")
	}
	res.WriteHeader(http.StatusOK)

	before := res.Size
	err = usecase.WriteExport(res, doc, format, compression)
	h.ingestion.LogFileOperation("export", fileName, res.Size-before, err)
	if err != nil {
		// Headers are already sent; the client sees a truncated download.
		h.logger.Error("export write failed", zap.Error(err), zap.String("export_id", doc.ExportID))
	}
	return nil
}

// ClearLogs godoc
// @Summary Bulk delete logs by level and age. An empty selection requires all=true
// @Router /api/system-logs/clear [delete]
func (h *SystemLogHandler) ClearLogs(c echo.Context) error {
	body, err := readBody(c)
	if err != nil {
		return h.fail(c, err, "Failed to clear system logs")
	}
	req, err := parseClearLogs(body)
	if err != nil {
		return h.fail(c, err, "Failed to clear system logs")
	}
	if err := c.Validate(&req); err != nil {
		return h.fail(c, err, "Failed to clear system logs")
	}

	actor := actorFrom(c)
	ctx, cancel := h.requestContext(c)
	defer cancel()

	res, err := h.query.ClearLogs(ctx, dto.ClearRequest{
		Level:         req.Level,
		OlderThanDays: req.OlderThan,
		All:           req.All,
		ActorID:       actor.ID,
		ActorName:     actor.Name,
		IP:            actor.IP,
		UserAgent:     actor.UserAgent,
	})
	if err != nil {
		return h.fail(c, err, "Failed to clear system logs")
	}
	return respond(c, http.StatusOK, res, "Successfully cleared "+formatCount(res.DeletedCount)+" system logs")
}

// GetFilterOptions godoc
// @Summary Filter vocabulary for the list view
// @Router /api/system-logs/filters [get]
func (h *SystemLogHandler) GetFilterOptions(c echo.Context) error {
	ctx, cancel := h.requestContext(c)
	defer cancel()

	opts, err := h.query.GetFilterOptions(ctx)
	if err != nil {
		return h.fail(c, err, "Failed to retrieve filter options")
	}
	return respond(c, http.StatusOK, opts, "")
}

// GetStatistics godoc
// @Summary Log statistics
// @Router /api/system-logs/stats [get]
func (h *SystemLogHandler) GetStatistics(c echo.Context) error {
	ctx, cancel := h.requestContext(c)
	defer cancel()

	stats, err := h.aggregation.GetLogStatistics(ctx)
	if err != nil {
		return h.fail(c, err, "Failed to retrieve log statistics")
	}
	return respond(c, http.StatusOK, stats, "")
}
