package db

import (
	"context"

	"github.com/redis/go-redis/v9"

	"github.com/wekeepgrowing/semo-syslog/internal/config"
	"github.com/wekeepgrowing/semo-syslog/pkg/messaging"
)

// NewRedis Redis가 활성화된 경우 클라이언트를 생성합니다. 비활성화면 nil을 반환합니다.
func NewRedis(ctx context.Context, cfg config.Redis) (*redis.Client, error) {
	if !cfg.Enabled {
		return nil, nil
	}
	return messaging.NewRedisClient(ctx, cfg.Addr, cfg.Password, cfg.DB)
}
