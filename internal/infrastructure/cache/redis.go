package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/rand"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/RodolfoDevApp/eventshop-stockledger-go/internal/domain"
)

// tombstone marks a recently invalidated product. Set does not overwrite it, so a load
// that started before the write cannot put the old copy back.
const (
	tombstone    = "-"
	tombstoneTTL = 5 * time.Second
)

type RedisCache struct {
	client  *redis.Client
	baseTTL time.Duration
}

func NewRedisCache(client *redis.Client, baseTTL time.Duration) *RedisCache {
	if baseTTL <= 0 {
		baseTTL = 5 * time.Minute
	}
	return &RedisCache{
		client:  client,
		baseTTL: baseTTL,
	}
}

func (r *RedisCache) Get(ctx context.Context, id uuid.UUID) (*domain.Product, error) {
	data, err := r.client.Get(ctx, cacheKey(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, domain.ErrCacheMiss
	}
	if err != nil {
		return nil, fmt.Errorf("redis get failed: %w", err)
	}
	if string(data) == tombstone {
		return nil, domain.ErrCacheMiss
	}

	var p domain.Product
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("unmarshal product failed: %w", err)
	}
	return &p, nil
}

// Set stores p unless the key already holds a product or a tombstone.
func (r *RedisCache) Set(ctx context.Context, p *domain.Product) error {
	data, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("marshal product failed: %w", err)
	}

	// jitter spreads expiry so hot products do not all reload at once
	jitter := time.Duration(rand.Int63n(int64(r.baseTTL/5) + 1))
	if err := r.client.SetNX(ctx, cacheKey(p.ID), data, r.baseTTL+jitter).Err(); err != nil {
		return fmt.Errorf("redis set failed: %w", err)
	}
	return nil
}

// Delete replaces the entry with a short-lived tombstone.
func (r *RedisCache) Delete(ctx context.Context, id uuid.UUID) error {
	if err := r.client.Set(ctx, cacheKey(id), tombstone, tombstoneTTL).Err(); err != nil {
		return fmt.Errorf("redis delete failed: %w", err)
	}
	return nil
}

func cacheKey(id uuid.UUID) string {
	return fmt.Sprintf("product:%s", id)
}
