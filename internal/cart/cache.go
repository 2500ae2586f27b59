package cart

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/rand"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/vouchhq/vouch/internal/models"
)

// ErrCacheMiss is returned when the owner's cart is not cached.
var ErrCacheMiss = errors.New("cache miss")

// Cache is the read-through cart cache.
type Cache interface {
	Get(ctx context.Context, ownerID string) (*models.Cart, error)
	Set(ctx context.Context, ownerID string, cart *models.Cart) error
	Delete(ctx context.Context, ownerID string) error
}

type RedisCache struct {
	client  *redis.Client
	baseTTL time.Duration
}

func NewRedisCache(client *redis.Client) *RedisCache {
	return &RedisCache{
		client:  client,
		baseTTL: 15 * time.Minute,
	}
}

func (r *RedisCache) Get(ctx context.Context, ownerID string) (*models.Cart, error) {
	data, err := r.client.Get(ctx, cacheKey(ownerID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrCacheMiss
	}
	if err != nil {
		return nil, fmt.Errorf("redis get failed: %w", err)
	}

	var cart models.Cart
	if err := json.Unmarshal(data, &cart); err != nil {
		return nil, fmt.Errorf("unmarshal cart failed: %w", err)
	}
	return &cart, nil
}

func (r *RedisCache) Set(ctx context.Context, ownerID string, cart *models.Cart) error {
	data, err := json.Marshal(cart)
	if err != nil {
		return fmt.Errorf("marshal cart failed: %w", err)
	}

	// Jitter spreads expiry so carts cached together don't all miss together.
	ttl := r.baseTTL + time.Duration(rand.Intn(5))*time.Minute
	if err := r.client.Set(ctx, cacheKey(ownerID), data, ttl).Err(); err != nil {
		return fmt.Errorf("redis set failed: %w", err)
	}
	return nil
}

func (r *RedisCache) Delete(ctx context.Context, ownerID string) error {
	if err := r.client.Del(ctx, cacheKey(ownerID)).Err(); err != nil {
		return fmt.Errorf("redis delete failed: %w", err)
	}
	return nil
}

func cacheKey(ownerID string) string {
	return fmt.Sprintf("cart:%s", ownerID)
}
