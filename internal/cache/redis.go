package cache

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

// redisProjection guarda un hash por subject: HSET profile:<id> <flag> 1|0.
type redisProjection struct {
	client redis.Cmdable
	closer func() error
	prefix string
	ttl    time.Duration
}

// NewRedis abre un cliente Redis propio y verifica la conexión.
func NewRedis(ctx context.Context, cfg Config) (*redisProjection, error) {
	addr := cfg.Addr
	if addr == "" {
		addr = "localhost:6379"
	}
	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	// Verificar conexión
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("cache: redis ping failed: %w", err)
	}

	p := NewRedisFromClient(rdb, cfg.Prefix, cfg.TTL)
	p.closer = rdb.Close
	return p, nil
}

// NewRedisFromClient reutiliza un cliente existente (por ejemplo el del
// rate limiter). Close no cierra el cliente.
func NewRedisFromClient(client redis.Cmdable, prefix string, ttl time.Duration) *redisProjection {
	if prefix == "" {
		prefix = "profile"
	}
	return &redisProjection{client: client, prefix: prefix, ttl: ttl}
}

func (r *redisProjection) SetFlag(ctx context.Context, subjectID, flag string, value bool) error {
	k := key(r.prefix, subjectID)
	pipe := r.client.TxPipeline()
	pipe.HSet(ctx, k, flag, strconv.FormatBool(value))
	if r.ttl > 0 {
		pipe.Expire(ctx, k, r.ttl)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("cache: set flag: %w", err)
	}
	return nil
}

func (r *redisProjection) Flags(ctx context.Context, subjectID string) (map[string]bool, error) {
	vals, err := r.client.HGetAll(ctx, key(r.prefix, subjectID)).Result()
	if err != nil {
		return nil, fmt.Errorf("cache: get flags: %w", err)
	}
	out := make(map[string]bool, len(vals))
	for f, v := range vals {
		b, _ := strconv.ParseBool(v)
		out[f] = b
	}
	return out, nil
}

func (r *redisProjection) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

func (r *redisProjection) Close() error {
	if r.closer == nil {
		return nil
	}
	return r.closer()
}
