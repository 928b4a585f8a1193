package cache

import (
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/thegridhub/backend/internal/domain/shared"
	"go.uber.org/zap"
)

// sweepInterval for the in-memory fallback
const sweepInterval = 5 * time.Minute

// NewIdempotencyStore returns a Redis-backed store when a client is available
// and an in-memory store otherwise.
func NewIdempotencyStore(client *redis.Client, logger *zap.Logger) shared.IdempotencyStore {
	if client != nil {
		logger.Info("Using Redis webhook idempotency store")
		return NewRedisIdempotencyStore(client, "")
	}

	logger.Warn("Redis disabled, using in-memory webhook idempotency store; " +
		"duplicate deliveries across instances are caught by the database only")
	return NewInMemoryIdempotencyStore(sweepInterval)
}
