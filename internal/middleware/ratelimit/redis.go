package ratelimit

import (
	"context"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const redisKeyPrefix = "syslog:ratelimit:"

// RedisStore keeps one sorted set per client, scored by request time in
// microseconds. Shared by every replica behind the same Redis.
type RedisStore struct {
	client  redis.UniversalClient
	cfg     Config
	logger  *zap.Logger
	timeout time.Duration
	now     func() time.Time
}

// NewRedisStore creates a store on client. Redis failures let the request through.
func NewRedisStore(client redis.UniversalClient, cfg Config, logger *zap.Logger) *RedisStore {
	return &RedisStore{
		client:  client,
		cfg:     cfg.withDefaults(),
		logger:  logger,
		timeout: 500 * time.Millisecond,
		now:     time.Now,
	}
}

// Allow implements middleware.RateLimiterStore.
func (s *RedisStore) Allow(identifier string) (bool, error) {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	now := s.now()
	key := redisKeyPrefix + identifier
	score := now.UnixMicro()
	floor := now.Add(-s.cfg.Window).UnixMicro()
	member := strconv.FormatInt(score, 10) + ":" + strconv.FormatInt(time.Now().UnixNano(), 36)

	var card *redis.IntCmd
	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.ZRemRangeByScore(ctx, key, "-inf", strconv.FormatInt(floor, 10))
		pipe.ZAdd(ctx, key, redis.Z{Score: float64(score), Member: member})
		card = pipe.ZCard(ctx, key)
		pipe.PExpire(ctx, key, s.cfg.Window)
		return nil
	})
	if err != nil {
		s.logger.Warn("rate limiter store unavailable", zap.Error(err), zap.String("ip", identifier))
		return true, nil
	}

	if card.Val() > int64(s.cfg.Limit) {
		// Rejected attempts do not occupy the window.
		if err := s.client.ZRem(ctx, key, member).Err(); err != nil {
			s.logger.Warn("rate limiter cleanup failed", zap.Error(err), zap.String("ip", identifier))
		}
		return false, nil
	}
	return true, nil
}
