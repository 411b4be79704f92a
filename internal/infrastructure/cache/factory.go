package cache

import (
	"context"
	"fmt"

	"github.com/salesflow/backend/internal/domain/shared"
	"github.com/salesflow/backend/internal/infrastructure/config"
	"go.uber.org/zap"
)

// NewIdempotencyStore picks the store for cfg. An empty Host selects the
// in-memory store. With a Host set, Redis must be reachable unless
// allowFallback is true, in which case an unreachable Redis is logged and
// the in-memory store is used.
func NewIdempotencyStore(ctx context.Context, cfg config.RedisConfig, allowFallback bool, logger *zap.Logger) (shared.IdempotencyStore, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.Host == "" {
		logger.Info("redis not configured, using in-memory idempotency store")
		return NewInMemoryIdempotencyStore(0), nil
	}

	store, err := NewRedisIdempotencyStore(ctx, cfg)
	if err == nil {
		logger.Info("using redis idempotency store", zap.String("addr", cfg.Addr()))
		return store, nil
	}
	if !allowFallback {
		return nil, fmt.Errorf("redis required for webhook idempotency: %w", err)
	}

	logger.Warn("redis unavailable, falling back to in-memory idempotency store; "+
		"duplicate webhooks are only detected per instance",
		zap.Error(err),
	)
	return NewInMemoryIdempotencyStore(0), nil
}
