// Package redislock implements core.CommitLock on Redis so that importer
// instances sharing one catalog serialize their commits.
package redislock

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const keyPrefix = "catalog-import:lock:"

// releaseScript deletes the key only while it still holds our token, so an
// expired lock re-acquired by another instance is left alone.
var releaseScript = redis.NewScript(`
	if redis.call("get", KEYS[1]) == ARGV[1] then
		return redis.call("del", KEYS[1])
	end
	return 0
`)

// Lock is a SET NX PX lock with token-checked release.
type Lock struct {
	client redis.UniversalClient
	ttl    time.Duration
	retry  time.Duration
}

// New returns a Lock on client. ttl bounds how long a crashed holder can
// block others; retry is the polling interval while waiting.
func New(client redis.UniversalClient, ttl, retry time.Duration) *Lock {
	if retry <= 0 {
		retry = 100 * time.Millisecond
	}
	return &Lock{client: client, ttl: ttl, retry: retry}
}

// Connect parses a redis:// URL and verifies the server answers.
func Connect(ctx context.Context, url string) (*redis.Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	client := redis.NewClient(opts)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("connect to redis at %s: %w", opts.Addr, err)
	}
	return client, nil
}

// Lock polls until the key is free or ctx is done.
func (l *Lock) Lock(ctx context.Context, key string) (func(), error) {
	redisKey := keyPrefix + key
	token := uuid.NewString()

	for {
		ok, err := l.client.SetNX(ctx, redisKey, token, l.ttl).Result()
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			return nil, fmt.Errorf("acquire catalog lock %s: %w", key, err)
		}
		if ok {
			return l.unlocker(redisKey, token), nil
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(l.retry):
		}
	}
}

func (l *Lock) unlocker(redisKey, token string) func() {
	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		deleted, err := releaseScript.Run(ctx, l.client, []string{redisKey}, token).Int64()
		switch {
		case err != nil:
			slog.Warn("release catalog lock failed", "key", redisKey, "error", err)
		case deleted == 0:
			slog.Warn("catalog lock expired before release", "key", redisKey)
		}
	}
}
