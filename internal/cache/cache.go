// Package cache provides an optional redis read-through cache for catalog
// reference data. When redis is not configured every operation is a no-op
// and callers fall back to the repository.
package cache

import (
	"context"
	"encoding/json"
	"time"

	"github.com/ramirezvene/token-desconto/internal/config"
	"github.com/redis/go-redis/v9"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

type Cache struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
	log    *zap.Logger
}

// New builds the cache from configuration. A disabled cache is a valid,
// inert instance.
func New(cfg config.Config, log *zap.Logger) *Cache {
	c := &Cache{
		prefix: cfg.Redis.Prefix,
		ttl:    time.Duration(cfg.Redis.TTLSec) * time.Second,
		log:    log.Named("cache"),
	}
	if !cfg.Redis.Enabled {
		return c
	}
	c.client = redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	return c
}

// Enabled reports whether a redis backend is attached.
func (c *Cache) Enabled() bool {
	return c != nil && c.client != nil
}

// GetJSON loads key into dest. Returns false on miss, disabled cache, or
// decode failure; cache failures never fail a request.
func (c *Cache) GetJSON(ctx context.Context, key string, dest interface{}) bool {
	if !c.Enabled() {
		return false
	}
	raw, err := c.client.Get(ctx, c.prefix+":"+key).Bytes()
	if err != nil {
		if err != redis.Nil {
			c.log.Warn("cache get failed", zap.String("key", key), zap.Error(err))
		}
		return false
	}
	if err := json.Unmarshal(raw, dest); err != nil {
		c.log.Warn("cache decode failed", zap.String("key", key), zap.Error(err))
		return false
	}
	return true
}

// SetJSON stores value under key with the configured TTL.
func (c *Cache) SetJSON(ctx context.Context, key string, value interface{}) {
	if !c.Enabled() {
		return
	}
	raw, err := json.Marshal(value)
	if err != nil {
		return
	}
	if err := c.client.Set(ctx, c.prefix+":"+key, raw, c.ttl).Err(); err != nil {
		c.log.Warn("cache set failed", zap.String("key", key), zap.Error(err))
	}
}

// Delete drops a key, used after corrective catalog edits.
func (c *Cache) Delete(ctx context.Context, key string) {
	if !c.Enabled() {
		return
	}
	if err := c.client.Del(ctx, c.prefix+":"+key).Err(); err != nil {
		c.log.Warn("cache delete failed", zap.String("key", key), zap.Error(err))
	}
}

func registerHooks(lc fx.Lifecycle, c *Cache) {
	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			_ = ctx
			if !c.Enabled() {
				return nil
			}
			return c.client.Close()
		},
	})
}

// Module wires the catalog cache.
var Module = fx.Module("cache",
	fx.Provide(New),
	fx.Invoke(registerHooks),
)
