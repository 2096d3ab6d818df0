package services

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	log "github.com/sirupsen/logrus"

	"amora_server/models"
)

// RedisProfileCache keeps JSON copies of profile documents in Redis.
type RedisProfileCache struct {
	Client *redis.Client
	TTL    time.Duration
	Prefix string
}

// NewRedisProfileCache connects and pings Redis.
func NewRedisProfileCache(ctx context.Context, addr, password string, ttl time.Duration) (*RedisProfileCache, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
	})
	if _, err := rdb.Ping(ctx).Result(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}
	log.Info("Successfully connected to Redis")
	return &RedisProfileCache{Client: rdb, TTL: ttl, Prefix: "profile:"}, nil
}

func (c *RedisProfileCache) key(id string) string {
	return c.Prefix + id
}

func (c *RedisProfileCache) Get(ctx context.Context, id string) (*models.User, bool) {
	val, err := c.Client.Get(ctx, c.key(id)).Bytes()
	if err == redis.Nil {
		return nil, false
	}
	if err != nil {
		log.Warnf("Error getting key %s from Redis: %v", c.key(id), err)
		return nil, false
	}
	var user models.User
	if err := json.Unmarshal(val, &user); err != nil {
		log.Warnf("dropping corrupt cache entry %s: %v", c.key(id), err)
		c.Invalidate(ctx, id)
		return nil, false
	}
	return &user, true
}

func (c *RedisProfileCache) Set(ctx context.Context, user *models.User) {
	val, err := json.Marshal(user)
	if err != nil {
		log.Warnf("failed to encode profile %s for cache: %v", user.ID, err)
		return
	}
	if err := c.Client.Set(ctx, c.key(user.ID), val, c.TTL).Err(); err != nil {
		log.Warnf("Error setting key %s in Redis: %v", c.key(user.ID), err)
	}
}

func (c *RedisProfileCache) Invalidate(ctx context.Context, id string) {
	if err := c.Client.Del(ctx, c.key(id)).Err(); err != nil {
		log.Warnf("Error deleting key %s from Redis: %v", c.key(id), err)
	}
}

// Close releases the connection pool.
func (c *RedisProfileCache) Close() error {
	return c.Client.Close()
}
