package repository

import (
	"context"

	"github.com/wekeepgrowing/semo-syslog/internal/domain/entity"
)

// AlertPublisher forwards error records to an external alert sink.
type AlertPublisher interface {
	PublishAlert(ctx context.Context, record *entity.LogRecord) error
	Close() error
}
