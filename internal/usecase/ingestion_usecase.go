package usecase

import (
	"context"
	"fmt"
	"maps"
	"slices"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/wekeepgrowing/semo-syslog/internal/domain/entity"
	"github.com/wekeepgrowing/semo-syslog/internal/domain/repository"
)

// IngestionConfig tunes the background writer.
type IngestionConfig struct {
	QueueSize     int
	Workers       int
	InsertTimeout time.Duration
	Environment   entity.Environment
}

// DefaultIngestionConfig returns the standard queue settings.
func DefaultIngestionConfig() IngestionConfig {
	return IngestionConfig{
		QueueSize:     1024,
		Workers:       4,
		InsertTimeout: 10 * time.Second,
		Environment:   entity.EnvDevelopment,
	}
}

// EventOptions carries the optional fields of a log event.
type EventOptions struct {
	Category    string
	Details     map[string]interface{}
	UserID      string
	IP          string
	UserAgent   string
	RequestID   string
	StackTrace  string
	Tags        []string
	Environment entity.Environment
	// Alert forwards error-level records to the alert publisher.
	Alert bool
}

// RequestContext identifies the HTTP request an event came from.
type RequestContext struct {
	IP        string
	UserAgent string
	RequestID string
}

// APIRequest describes a completed HTTP request.
type APIRequest struct {
	Method       string
	Path         string
	StatusCode   int
	ResponseTime time.Duration
	Query        map[string][]string
	Params       map[string]string
	UserID       string
	RequestContext
}

type ingestJob struct {
	record *entity.LogRecord
	alert  bool
}

// IngestionUseCase records events without blocking or failing the caller.
// Records are queued on a bounded channel and written by background workers.
type IngestionUseCase struct {
	repo   repository.LogRepository
	alerts repository.AlertPublisher
	logger *zap.Logger
	cfg    IngestionConfig
	clock  Clock

	queue     chan ingestJob
	wg        sync.WaitGroup
	mu        sync.RWMutex
	closed    bool
	startOnce sync.Once
	dropped   atomic.Int64
	written   atomic.Int64
}

// NewIngestionUseCase creates the service. Call Start to launch the workers.
func NewIngestionUseCase(repo repository.LogRepository, alerts repository.AlertPublisher, logger *zap.Logger, cfg IngestionConfig) *IngestionUseCase {
	def := DefaultIngestionConfig()
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = def.QueueSize
	}
	if cfg.Workers <= 0 {
		cfg.Workers = def.Workers
	}
	if cfg.InsertTimeout <= 0 {
		cfg.InsertTimeout = def.InsertTimeout
	}
	if !cfg.Environment.Valid() {
		cfg.Environment = def.Environment
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &IngestionUseCase{
		repo:   repo,
		alerts: alerts,
		logger: logger.Named("ingestion"),
		cfg:    cfg,
		queue:  make(chan ingestJob, cfg.QueueSize),
	}
}

// WithClock overrides the time source.
func (u *IngestionUseCase) WithClock(c Clock) *IngestionUseCase {
	u.clock = c
	return u
}

// Start launches the worker goroutines. Later calls are no-ops.
func (u *IngestionUseCase) Start() {
	u.startOnce.Do(func() {
		for i := 0; i < u.cfg.Workers; i++ {
			u.wg.Add(1)
			go u.worker()
		}
		u.logger.Info("ingestion workers started",
			zap.Int("workers", u.cfg.Workers),
			zap.Int("queue_size", u.cfg.QueueSize))
	})
}

// Close stops accepting events and waits for queued records to be written.
func (u *IngestionUseCase) Close(ctx context.Context) error {
	u.mu.Lock()
	if u.closed {
		u.mu.Unlock()
		return nil
	}
	u.closed = true
	close(u.queue)
	u.mu.Unlock()

	// Drain with the caller's goroutine if Start was never called.
	u.startOnce.Do(func() {
		u.wg.Add(1)
		go u.worker()
	})

	done := make(chan struct{})
	go func() {
		u.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		u.logger.Info("ingestion drained",
			zap.Int64("written", u.written.Load()),
			zap.Int64("dropped", u.dropped.Load()))
		return nil
	case <-ctx.Done():
		return fmt.Errorf("ingestion drain interrupted: %w", ctx.Err())
	}
}

// Dropped returns the number of events discarded because the queue was full or closed.
func (u *IngestionUseCase) Dropped() int64 { return u.dropped.Load() }

// LogEvent queues a record. It never blocks and never reports failure.
func (u *IngestionUseCase) LogEvent(level entity.Level, message, source string, opts EventOptions) {
	if parsed, ok := entity.ParseLevel(string(level)); ok {
		level = parsed
	} else {
		u.logger.Warn("unknown log level, recording as info", zap.String("level", string(level)))
		level = entity.LevelInfo
	}

	record := &entity.LogRecord{
		Level:       level,
		Message:     message,
		Source:      source,
		Category:    opts.Category,
		Details:     maps.Clone(opts.Details),
		UserID:      opts.UserID,
		IP:          opts.IP,
		UserAgent:   opts.UserAgent,
		RequestID:   opts.RequestID,
		StackTrace:  opts.StackTrace,
		Tags:        slices.Clone(opts.Tags),
		Environment: opts.Environment,
	}
	record.Normalize(u.clock.now().UTC(), u.cfg.Environment)

	u.enqueue(ingestJob{record: record, alert: opts.Alert})
}

func (u *IngestionUseCase) enqueue(job ingestJob) {
	u.mu.RLock()
	defer u.mu.RUnlock()

	if u.closed {
		u.drop(job, "closed")
		return
	}
	select {
	case u.queue <- job:
	default:
		u.drop(job, "queue full")
	}
}

func (u *IngestionUseCase) drop(job ingestJob, reason string) {
	u.dropped.Add(1)
	u.logger.Warn("system log dropped",
		zap.String("reason", reason),
		zap.String("level", string(job.record.Level)),
		zap.String("source", job.record.Source),
		zap.String("message", job.record.Message))
}

func (u *IngestionUseCase) worker() {
	defer u.wg.Done()
	for job := range u.queue {
		u.write(job)
	}
}

// write persists one record. Failures and panics stay inside the worker.
func (u *IngestionUseCase) write(job ingestJob) {
	defer func() {
		if r := recover(); r != nil {
			u.logger.Error("panic while writing system log",
				zap.Any("panic", r),
				zap.String("source", job.record.Source))
		}
	}()

	ctx, cancel := context.WithTimeout(context.Background(), u.cfg.InsertTimeout)
	defer cancel()

	if _, err := u.repo.Insert(ctx, job.record); err != nil {
		u.logger.Error("failed to create system log",
			zap.Error(err),
			zap.String("level", string(job.record.Level)),
			zap.String("source", job.record.Source),
			zap.String("message", job.record.Message))
		return
	}
	u.written.Add(1)

	if job.alert && job.record.Level == entity.LevelError && u.alerts != nil {
		if err := u.alerts.PublishAlert(ctx, job.record); err != nil {
			u.logger.Error("failed to send alert", zap.Error(err), zap.String("log_id", job.record.ID))
		}
	}
}

// Create validates and stores a record synchronously. Used by the API.
func (u *IngestionUseCase) Create(ctx context.Context, record *entity.LogRecord) (*entity.LogRecord, error) {
	level, ok := entity.ParseLevel(string(record.Level))
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrInvalidLevel, record.Level)
	}
	record.Level = level
	if strings.TrimSpace(record.Message) == "" || strings.TrimSpace(record.Source) == "" {
		return nil, fmt.Errorf("%w: message and source are required", ErrInvalidLogRecord)
	}
	record.ID = ""
	record.Resolved = false
	record.CreatedAt = time.Time{}
	record.Normalize(u.clock.now().UTC(), u.cfg.Environment)

	if _, err := u.repo.Insert(ctx, record); err != nil {
		return nil, fmt.Errorf("create system log: %w", err)
	}
	return record, nil
}

// LogAPIRequest records a completed HTTP request.
func (u *IngestionUseCase) LogAPIRequest(req APIRequest, reqErr error) {
	level := entity.LevelInfo
	message := fmt.Sprintf("API Request: %s %s - %d", req.Method, req.Path, req.StatusCode)
	switch {
	case reqErr != nil:
		level = entity.LevelError
		message = fmt.Sprintf("API Error: %s %s - %s", req.Method, req.Path, reqErr.Error())
	case req.StatusCode >= 400:
		level = entity.LevelWarning
	}

	details := map[string]interface{}{
		"method":       req.Method,
		"path":         req.Path,
		"statusCode":   req.StatusCode,
		"responseTime": fmt.Sprintf("%dms", req.ResponseTime.Milliseconds()),
		"userAgent":    req.UserAgent,
		"query":        queryDetails(req.Query),
		"params":       paramDetails(req.Params),
	}
	opts := EventOptions{
		Category:  "api",
		Details:   details,
		UserID:    req.UserID,
		IP:        req.IP,
		UserAgent: req.UserAgent,
		RequestID: req.RequestID,
		Tags:      []string{"api", strings.ToLower(req.Method)},
	}
	if reqErr != nil {
		details["error"] = reqErr.Error()
		opts.StackTrace = fmt.Sprintf("%+v", reqErr)
	}

	u.LogEvent(level, message, "api", opts)
}

// LogDatabaseOperation records a database operation.
func (u *IngestionUseCase) LogDatabaseOperation(operation, collection string, details map[string]interface{}, opErr error) {
	level := entity.LevelInfo
	message := fmt.Sprintf("Database Operation: %s on %s", operation, collection)
	if opErr != nil {
		level = entity.LevelError
		message = fmt.Sprintf("Database Error: %s on %s - %s", operation, collection, opErr.Error())
	}

	merged := map[string]interface{}{
		"operation":  operation,
		"collection": collection,
	}
	for k, v := range details {
		merged[k] = v
	}
	opts := EventOptions{
		Category: "database",
		Details:  merged,
		Tags:     []string{"database", strings.ToLower(operation), collection},
	}
	if opErr != nil {
		merged["error"] = opErr.Error()
		opts.StackTrace = fmt.Sprintf("%+v", opErr)
	}

	u.LogEvent(level, message, "database", opts)
}

// LogAuthEvent records an authentication event.
func (u *IngestionUseCase) LogAuthEvent(event AuthEvent, userID string, details map[string]interface{}, reqCtx *RequestContext) {
	level := entity.LevelInfo
	if event.IsWarning() {
		level = entity.LevelWarning
	}

	merged := map[string]interface{}{
		"event":     string(event),
		"timestamp": u.clock.now().UTC(),
	}
	for k, v := range details {
		merged[k] = v
	}

	opts := EventOptions{
		Category: "security",
		Details:  merged,
		UserID:   userID,
		Tags:     []string{"auth", string(event)},
	}
	if reqCtx != nil {
		opts.IP = reqCtx.IP
		opts.UserAgent = reqCtx.UserAgent
		opts.RequestID = reqCtx.RequestID
	}

	u.LogEvent(level, authMessage(event, details), "auth", opts)
}

// LogHealthCheck records the result of a health probe.
func (u *IngestionUseCase) LogHealthCheck(service, status string, metrics map[string]interface{}) {
	level := entity.LevelError
	switch status {
	case "healthy":
		level = entity.LevelInfo
	case "warning":
		level = entity.LevelWarning
	}

	u.LogEvent(level, fmt.Sprintf("Health Check: %s - %s", service, status), "health", EventOptions{
		Category: "system",
		Details: map[string]interface{}{
			"service":   service,
			"status":    status,
			"metrics":   metrics,
			"timestamp": u.clock.now().UTC(),
		},
		Tags: []string{"health", service, status},
	})
}

// LogFileOperation records a file operation. size < 0 means unknown.
func (u *IngestionUseCase) LogFileOperation(operation, filename string, size int64, opErr error) {
	level := entity.LevelInfo
	message := fmt.Sprintf("File Operation: %s %s", operation, filename)
	if opErr != nil {
		level = entity.LevelError
		message = fmt.Sprintf("File Error: %s %s - %s", operation, filename, opErr.Error())
	}

	details := map[string]interface{}{
		"operation": operation,
		"filename":  filename,
		"size":      nil,
	}
	if size >= 0 {
		details["size"] = size
	}
	opts := EventOptions{
		Category: "file",
		Details:  details,
		Tags:     []string{"file", strings.ToLower(operation)},
	}
	if opErr != nil {
		details["error"] = opErr.Error()
		opts.StackTrace = fmt.Sprintf("%+v", opErr)
	}

	u.LogEvent(level, message, "file-system", opts)
}

// LogPerformanceMetric records a metric sample. A nil threshold disables the warning.
func (u *IngestionUseCase) LogPerformanceMetric(metric string, value float64, threshold *float64) {
	level := entity.LevelInfo
	message := fmt.Sprintf("Performance: %s = %s", metric, formatNumber(value))
	var thresholdDetail interface{}
	if threshold != nil {
		message += fmt.Sprintf(" (threshold: %s)", formatNumber(*threshold))
		thresholdDetail = *threshold
		if value > *threshold {
			level = entity.LevelWarning
		}
	}

	u.LogEvent(level, message, "performance", EventOptions{
		Category: "performance",
		Details: map[string]interface{}{
			"metric":    metric,
			"value":     value,
			"threshold": thresholdDetail,
			"timestamp": u.clock.now().UTC(),
		},
		Tags: []string{"performance", metric},
	})
}

func formatNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func queryDetails(q map[string][]string) map[string]interface{} {
	out := make(map[string]interface{}, len(q))
	for k, vs := range q {
		if len(vs) == 1 {
			out[k] = vs[0]
			continue
		}
		values := make([]interface{}, len(vs))
		for i, v := range vs {
			values[i] = v
		}
		out[k] = values
	}
	return out
}

func paramDetails(p map[string]string) map[string]interface{} {
	out := make(map[string]interface{}, len(p))
	for k, v := range p {
		out[k] = v
	}
	return out
}
