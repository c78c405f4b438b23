// Package cache provides the optional stage-board cache: a side collaborator
// that never participates in correctness. Entries are invalidated on every
// placement write touching their stage and expire on a short TTL regardless.
package cache

import (
	"context"
	"fmt"
	"time"

	"crm_pipeline_backend/platform/logger"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// StageKey identifies one stage column's cached listing.
type StageKey struct {
	PipelineID uuid.UUID
	StageID    uuid.UUID
}

// Board caches serialized stage listings.
type Board interface {
	Get(ctx context.Context, key StageKey) ([]byte, bool)
	Set(ctx context.Context, key StageKey, payload []byte)
	Invalidate(ctx context.Context, keys ...StageKey)
}

// RedisBoard is the redis-backed Board implementation.
type RedisBoard struct {
	client *redis.Client
	ttl    time.Duration
	log    *logger.Logger
}

// NewRedisBoard creates a Board over the given redis client.
func NewRedisBoard(client *redis.Client, ttl time.Duration, log *logger.Logger) *RedisBoard {
	return &RedisBoard{client: client, ttl: ttl, log: log}
}

func cacheKey(key StageKey) string {
	return fmt.Sprintf("stageboard:%s:%s", key.PipelineID, key.StageID)
}

func (b *RedisBoard) Get(ctx context.Context, key StageKey) ([]byte, bool) {
	payload, err := b.client.Get(ctx, cacheKey(key)).Bytes()
	if err != nil {
		return nil, false
	}
	return payload, true
}

func (b *RedisBoard) Set(ctx context.Context, key StageKey, payload []byte) {
	if err := b.client.Set(ctx, cacheKey(key), payload, b.ttl).Err(); err != nil && b.log != nil {
		b.log.Warn("stage board cache set failed", "error", err)
	}
}

func (b *RedisBoard) Invalidate(ctx context.Context, keys ...StageKey) {
	for _, key := range keys {
		if err := b.client.Del(ctx, cacheKey(key)).Err(); err != nil && b.log != nil {
			b.log.Warn("stage board cache invalidation failed", "error", err)
		}
	}
}

// NoopBoard is used when redis is not configured.
type NoopBoard struct{}

func (NoopBoard) Get(ctx context.Context, key StageKey) ([]byte, bool) { return nil, false }

func (NoopBoard) Set(ctx context.Context, key StageKey, payload []byte) {}

func (NoopBoard) Invalidate(ctx context.Context, keys ...StageKey) {}
