package messaging

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// redisPublisher Redis pub/sub 발행자
type redisPublisher struct {
	client *redis.Client
}

// NewRedisClient Redis 클라이언트를 생성하고 연결을 확인합니다.
func NewRedisClient(ctx context.Context, addr, password string, db int) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("Redis 연결 실패: %w", err)
	}
	return client, nil
}

// NewRedisPublisher 기존 클라이언트를 공유하는 발행자를 생성합니다. Close는 클라이언트를 닫지 않습니다.
func NewRedisPublisher(client *redis.Client) Publisher {
	return &redisPublisher{client: client}
}

// Publish 메시지 발행
func (r *redisPublisher) Publish(ctx context.Context, channel string, message interface{}) error {
	payload, err := marshal(message)
	if err != nil {
		return err
	}
	if err := r.client.Publish(ctx, channel, payload).Err(); err != nil {
		return fmt.Errorf("Redis 발행 실패 (%s): %w", channel, err)
	}
	return nil
}

// Close 공유 클라이언트는 소유자가 닫습니다.
func (r *redisPublisher) Close() error { return nil }
