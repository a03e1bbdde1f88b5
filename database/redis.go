package database

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/redis/go-redis/v9"
)

// Cache stores catalog read results in Redis. Keys are namespaced by a
// generation counter so a single INCR invalidates every cached entry.
type Cache struct {
	client *redis.Client
	ttl    time.Duration
	prefix string
}

func ConnectRedis(ctx context.Context, url string, ttl time.Duration) (*Cache, error) {
	opt, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	client := redis.NewClient(opt)

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, err
	}

	log.Printf("Connected to Redis at %s", opt.Addr)
	return NewCache(client, ttl), nil
}

func NewCache(client *redis.Client, ttl time.Duration) *Cache {
	return &Cache{client: client, ttl: ttl, prefix: "nexamart:catalog"}
}

func (c *Cache) generationKey() string {
	return c.prefix + ":gen"
}

func (c *Cache) key(ctx context.Context, name string) (string, error) {
	gen, err := c.client.Get(ctx, c.generationKey()).Int64()
	if err != nil && !errors.Is(err, redis.Nil) {
		return "", err
	}
	return fmt.Sprintf("%s:%d:%s", c.prefix, gen, name), nil
}

// Get decodes the cached value for name into dest and reports whether it
// was present. The returned key is pinned to the generation that was read:
// a fill stored under it after a concurrent Invalidate is never served.
func (c *Cache) Get(ctx context.Context, name string, dest interface{}) (string, bool, error) {
	key, err := c.key(ctx, name)
	if err != nil {
		return "", false, err
	}
	raw, err := c.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return key, false, nil
	}
	if err != nil {
		return "", false, err
	}
	if err := json.Unmarshal(raw, dest); err != nil {
		return key, false, err
	}
	return key, true, nil
}

// Set stores value under a key returned by Get.
func (c *Cache) Set(ctx context.Context, key string, value interface{}) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, key, raw, c.ttl).Err()
}

// Invalidate drops every cached entry by moving to the next generation.
// Entries of older generations expire on their own TTL.
func (c *Cache) Invalidate(ctx context.Context) error {
	return c.client.Incr(ctx, c.generationKey()).Err()
}

func (c *Cache) Close() error {
	return c.client.Close()
}
