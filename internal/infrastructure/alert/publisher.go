// Package alert forwards error-level system logs to an external sink.
package alert

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/wekeepgrowing/semo-syslog/internal/domain/entity"
	"github.com/wekeepgrowing/semo-syslog/internal/domain/repository"
	"github.com/wekeepgrowing/semo-syslog/pkg/messaging"
)

// Message is the payload published for an error record.
type Message struct {
	ID          string                 `json:"id"`
	Level       entity.Level           `json:"level"`
	Message     string                 `json:"message"`
	Source      string                 `json:"source"`
	Category    string                 `json:"category"`
	Environment entity.Environment     `json:"environment"`
	Details     map[string]interface{} `json:"details,omitempty"`
	RequestID   string                 `json:"requestId,omitempty"`
	CreatedAt   time.Time              `json:"createdAt"`
}

func newMessage(r *entity.LogRecord) Message {
	return Message{
		ID:          r.ID,
		Level:       r.Level,
		Message:     r.Message,
		Source:      r.Source,
		Category:    r.Category,
		Environment: r.Environment,
		Details:     r.Details,
		RequestID:   r.RequestID,
		CreatedAt:   r.CreatedAt,
	}
}

type logPublisher struct {
	logger *zap.Logger
}

// NewLogPublisher writes alerts to the process logger only.
func NewLogPublisher(logger *zap.Logger) repository.AlertPublisher {
	return &logPublisher{logger: logger.Named("alert")}
}

func (p *logPublisher) PublishAlert(_ context.Context, r *entity.LogRecord) error {
	p.logger.Error("system alert",
		zap.String("log_id", r.ID),
		zap.String("source", r.Source),
		zap.String("category", r.Category),
		zap.String("message", r.Message))
	return nil
}

func (p *logPublisher) Close() error { return nil }

type brokerPublisher struct {
	pub   messaging.Publisher
	topic string
}

// NewBrokerPublisher publishes alerts as JSON on topic through pub
// (a Redis channel or a RabbitMQ routing key).
func NewBrokerPublisher(pub messaging.Publisher, topic string) repository.AlertPublisher {
	return &brokerPublisher{pub: pub, topic: topic}
}

func (p *brokerPublisher) PublishAlert(ctx context.Context, r *entity.LogRecord) error {
	if err := p.pub.Publish(ctx, p.topic, newMessage(r)); err != nil {
		return fmt.Errorf("publish alert %s: %w", r.ID, err)
	}
	return nil
}

func (p *brokerPublisher) Close() error { return p.pub.Close() }
