package utils

import (
	"context"
	"net"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/yatube/yatube/config"
)

// NewRedisClient builds a Redis client from configuration and pings it once.
// A failed ping is logged, not fatal: stores report errors and callers fall back to rendering.
func NewRedisClient(cfg config.AppConfig) *redis.Client {
	rc := redis.NewClient(&redis.Options{
		Addr:         net.JoinHostPort(cfg.RedisHost, strconv.Itoa(cfg.RedisPort)),
		Password:     cfg.RedisPassword,
		DB:           cfg.RedisDB,
		DialTimeout:  3 * time.Second,
		ReadTimeout:  2 * time.Second,
		WriteTimeout: 2 * time.Second,
	})
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := rc.Ping(ctx).Err(); err != nil {
		Sugar.Warnf("redis ping failed addr=%s err=%v", rc.Options().Addr, err)
	}
	return rc
}

// Stores groups the namespaced stores the application needs.
type Stores struct {
	Fragments  Store
	Revoked    Store
	OAuthState Store
	Captcha    Store
}

// NewStores selects the cache backend from configuration.
func NewStores(cfg config.AppConfig) Stores {
	if cfg.CacheBackend == "redis" {
		rc := NewRedisClient(cfg)
		return Stores{
			Fragments:  NewRedisStore(rc, "yatube:cache:"),
			Revoked:    NewRedisStore(rc, "yatube:jwt:blacklist:"),
			OAuthState: NewRedisStore(rc, "yatube:oauth:state:"),
			Captcha:    NewRedisStore(rc, "yatube:captcha:"),
		}
	}
	return NewMemoryStores()
}

// NewMemoryStores returns process-local stores backed by the wall clock.
func NewMemoryStores() Stores {
	return Stores{
		Fragments:  NewMemoryStore(nil),
		Revoked:    NewMemoryStore(nil),
		OAuthState: NewMemoryStore(nil),
		Captcha:    NewMemoryStore(nil),
	}
}
