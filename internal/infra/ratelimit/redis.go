package ratelimit

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

const keyPrefix = "leads:ratelimit:"

// Redis é a mesma janela fixa compartilhada entre réplicas. Cada janela vira
// uma chave própria que expira sozinha.
type Redis struct {
	Client *redis.Client
	limit  int
	window time.Duration
	now    func() time.Time
}

func NewRedis(client *redis.Client, limit int, window time.Duration) *Redis {
	return &Redis{
		Client: client,
		limit:  limit,
		window: window,
		now:    time.Now,
	}
}

func (r *Redis) Allow(ctx context.Context, key string) (bool, error) {
	k := r.key(key)

	pipe := r.Client.TxPipeline()
	incr := pipe.Incr(ctx, k)
	pipe.Expire(ctx, k, r.window)
	if _, err := pipe.Exec(ctx); err != nil {
		return false, fmt.Errorf("rate limit redis: %w", err)
	}

	return incr.Val() <= int64(r.limit), nil
}

// StatusCheck falha se o Redis não responder ao PING.
func (r *Redis) StatusCheck(ctx context.Context) error {
	return r.Client.Ping(ctx).Err()
}

func (r *Redis) key(client string) string {
	bucket := r.now().UnixNano() / int64(r.window)
	return keyPrefix + client + ":" + strconv.FormatInt(bucket, 10)
}
