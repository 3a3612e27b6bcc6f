package lookup

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/rand"
	"time"

	"github.com/akashcruz/pos-system-lkvoice/internal/domain"
	"github.com/redis/go-redis/v9"
)

// NewRedisCache wraps a Redis client as a ProductCache. Product snapshots
// are short-lived; the TTL gets a small jitter so a bulk inventory load does
// not expire all at once.
func NewRedisCache(client *redis.Client) *RedisCache {
	return &RedisCache{
		client:  client,
		baseTTL: 5 * time.Minute,
	}
}

type RedisCache struct {
	client  *redis.Client
	baseTTL time.Duration
}

func (r *RedisCache) Get(ctx context.Context, barcode string) (*domain.Product, error) {
	data, err := r.client.Get(ctx, cacheKey(barcode)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrCacheMiss
	}
	if err != nil {
		return nil, fmt.Errorf("redis get failed: %w", err)
	}

	var product domain.Product
	if err := json.Unmarshal(data, &product); err != nil {
		return nil, fmt.Errorf("unmarshal product failed: %w", err)
	}
	return &product, nil
}

func (r *RedisCache) Set(ctx context.Context, product *domain.Product) error {
	data, err := json.Marshal(product)
	if err != nil {
		return fmt.Errorf("marshal product failed: %w", err)
	}

	jitter := time.Duration(rand.Intn(30)) * time.Second
	if err := r.client.Set(ctx, cacheKey(product.Barcode), data, r.baseTTL+jitter).Err(); err != nil {
		return fmt.Errorf("redis set failed: %w", err)
	}
	return nil
}

func (r *RedisCache) Delete(ctx context.Context, barcodes ...string) error {
	if len(barcodes) == 0 {
		return nil
	}
	keys := make([]string, len(barcodes))
	for i, barcode := range barcodes {
		keys[i] = cacheKey(barcode)
	}
	if err := r.client.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("redis delete failed: %w", err)
	}
	return nil
}

func cacheKey(barcode string) string {
	return fmt.Sprintf("product:%s", barcode)
}
