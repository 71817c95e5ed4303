package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/zigwangles/tokydownloader/internal/config"
)

// keyPrefix namespaces page entries in a shared Redis/Valkey database
const keyPrefix = "tokydownloader:page:"

const redisOpTimeout = 2 * time.Second

func init() {
	Register("redis", newRedisCache)
}

// redisCache stores each page as a plain string key with a TTL. Size is not
// enforced here; Redis maxmemory policies handle eviction.
type redisCache struct {
	client *redis.Client
	ttl    time.Duration
}

func newRedisCache(opts Options) (PageCache, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     opts.RedisAddress,
		Password: opts.RedisPassword,
		DB:       opts.RedisDB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}

	return &redisCache{client: client, ttl: opts.TTL}, nil
}

func (r *redisCache) Get(ctx context.Context, url string) ([]byte, bool) {
	ctx, cancel := context.WithTimeout(ctx, redisOpTimeout)
	defer cancel()

	page, err := r.client.Get(ctx, keyPrefix+url).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			logger := config.GetLogger()
			logger.Warn().Err(err).Str("url", url).Msg("Redis page cache read failed")
		}
		return nil, false
	}
	return page, true
}

func (r *redisCache) Set(ctx context.Context, url string, page []byte) {
	ctx, cancel := context.WithTimeout(ctx, redisOpTimeout)
	defer cancel()

	if err := r.client.Set(ctx, keyPrefix+url, page, r.ttl).Err(); err != nil {
		logger := config.GetLogger()
		logger.Warn().Err(err).Str("url", url).Msg("Redis page cache write failed")
	}
}

// Len counts the page keys with SCAN so other keys in the database are ignored.
func (r *redisCache) Len() int {
	ctx, cancel := context.WithTimeout(context.Background(), redisOpTimeout)
	defer cancel()

	count := 0
	iter := r.client.Scan(ctx, 0, keyPrefix+"*", 100).Iterator()
	for iter.Next(ctx) {
		count++
	}
	if err := iter.Err(); err != nil {
		logger := config.GetLogger()
		logger.Warn().Err(err).Msg("Redis page cache scan failed")
	}
	return count
}

func (r *redisCache) Close() error {
	return r.client.Close()
}
