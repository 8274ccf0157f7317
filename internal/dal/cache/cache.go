package cache

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/corray333/backend-labs/storefront/internal/config"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/viper"
)

// Cache is a namespaced key/value cache backed by Redis.
type Cache struct {
	client *redis.Client
	prefix string
}

// MustNewCache connects to redis.addr and panics when it is unreachable.
func MustNewCache() *Cache {
	client := redis.NewClient(&redis.Options{
		Addr:     viper.GetString("redis.addr"),
		Password: config.Env().RedisPassword,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		panic(fmt.Sprintf("failed to connect to redis: %v", err))
	}

	return NewCache(client, viper.GetString("redis.prefix"))
}

func NewCache(client *redis.Client, prefix string) *Cache {
	return &Cache{
		client: client,
		prefix: prefix,
	}
}

func (c *Cache) Set(ctx context.Context, key string, value any, ttl time.Duration) error {
	return c.client.Set(ctx, key, value, ttl).Err()
}

// Get returns an empty string for a missing key.
func (c *Cache) Get(ctx context.Context, key string) (string, error) {
	value, err := c.client.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return "", nil
	}
	if err != nil {
		return "", err
	}

	return value, nil
}

// GenerateKey builds "<prefix>:<operation>:<key>".
func (c *Cache) GenerateKey(operation, key string) string {
	return fmt.Sprintf("%s:%s:%s", c.prefix, operation, key)
}

func (c *Cache) Close() {
	if err := c.client.Close(); err != nil {
		slog.Error("Failed to close redis client", "error", err)
	}
}
