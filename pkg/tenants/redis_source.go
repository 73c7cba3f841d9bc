package tenants

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisConfig holds the connection settings for the Redis-backed tenant
// configuration provider.
type RedisConfig struct {
	ConnectionURL  string        `env:"TENANTS_REDIS_URL,required"`                       // ConnectionURL should be in the format "redis://:password@localhost:6379/0"
	KeyPrefix      string        `env:"TENANTS_REDIS_KEY_PREFIX" envDefault:"notifyq"`    // KeyPrefix namespaces tenant keys.
	RetryAttempts  int           `env:"TENANTS_REDIS_RETRY_ATTEMPTS" envDefault:"3"`      // RetryAttempts is the number of connection attempts.
	RetryInterval  time.Duration `env:"TENANTS_REDIS_RETRY_INTERVAL" envDefault:"5s"`     // RetryInterval is the delay between attempts.
	ConnectTimeout time.Duration `env:"TENANTS_REDIS_CONNECT_TIMEOUT" envDefault:"30s"`   // ConnectTimeout bounds the whole connect phase.
}

// Connect establishes a Redis client for the tenant configuration store,
// retrying with the configured interval until the server responds to ping.
func Connect(ctx context.Context, cfg RedisConfig) (*redis.Client, error) {
	ctx, cancel := context.WithTimeout(ctx, cfg.ConnectTimeout)
	defer cancel()

	opt, err := redis.ParseURL(cfg.ConnectionURL)
	if err != nil {
		return nil, errors.Join(ErrInvalidRedisURL, err)
	}

	for i := 0; i < cfg.RetryAttempts; i++ {
		client := redis.NewClient(opt)
		if err := client.Ping(ctx).Err(); err == nil {
			return client, nil
		}
		_ = client.Close()

		select {
		case <-ctx.Done():
			return nil, errors.Join(ErrRedisNotReady, ctx.Err())
		case <-time.After(cfg.RetryInterval):
		}
	}

	return nil, ErrRedisNotReady
}

// RedisSource reads tenant configurations from Redis. Tenant ids live in the
// set "<prefix>:tenants"; each configuration is a JSON document under
// "<prefix>:tenants:<id>".
type RedisSource struct {
	client *redis.Client
	prefix string
}

// NewRedisSource creates a tenant configuration source backed by Redis.
func NewRedisSource(client *redis.Client, keyPrefix string) (*RedisSource, error) {
	if client == nil {
		return nil, ErrClientNil
	}
	if keyPrefix == "" {
		keyPrefix = "notifyq"
	}
	return &RedisSource{client: client, prefix: keyPrefix}, nil
}

// FetchAll loads the full tenant configuration set. Tenants whose document
// is missing are skipped; a corrupt document fails the whole fetch since a
// partial configuration set could silently route traffic wrong.
func (s *RedisSource) FetchAll(ctx context.Context) ([]Tenant, error) {
	ids, err := s.client.SMembers(ctx, s.prefix+":tenants").Result()
	if err != nil {
		return nil, fmt.Errorf("fetch tenant ids: %w", err)
	}
	if len(ids) == 0 {
		return nil, nil
	}

	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = s.prefix + ":tenants:" + id
	}

	docs, err := s.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, fmt.Errorf("fetch tenant configs: %w", err)
	}

	out := make([]Tenant, 0, len(docs))
	for i, doc := range docs {
		if doc == nil {
			continue
		}
		raw, ok := doc.(string)
		if !ok {
			return nil, fmt.Errorf("%w: tenant %q", ErrCorruptTenantConfig, ids[i])
		}
		var t Tenant
		if err := json.Unmarshal([]byte(raw), &t); err != nil {
			return nil, fmt.Errorf("%w: tenant %q: %w", ErrCorruptTenantConfig, ids[i], err)
		}
		if t.ID == "" {
			t.ID = ids[i]
		}
		out = append(out, t)
	}
	return out, nil
}
