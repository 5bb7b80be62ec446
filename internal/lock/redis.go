package lock

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// releaseScript deletes the lock only while it still carries our token, so
// an expired lease taken over by another holder is never released by us.
var releaseScript = redis.NewScript(`
	if redis.call('GET', KEYS[1]) == ARGV[1] then
		return redis.call('DEL', KEYS[1])
	end
	return 0
`)

// extendScript pushes the lease expiry out while it still carries our token.
var extendScript = redis.NewScript(`
	if redis.call('GET', KEYS[1]) == ARGV[1] then
		return redis.call('PEXPIRE', KEYS[1], ARGV[2])
	end
	return 0
`)

// RedisLocker is a Locker backed by SET NX PX on a shared Redis server, so
// several API replicas observe the same per-venue locks. The lease TTL
// bounds how long a crashed holder can block a venue; a live holder renews
// it every TTL/3 until it unlocks. There is no fencing token, so a holder
// that cannot reach Redis for a whole TTL loses exclusivity without noticing.
type RedisLocker struct {
	rdb    *redis.Client
	prefix string
	ttl    time.Duration
	wait   time.Duration
	poll   time.Duration
}

// NewRedisLocker returns a RedisLocker storing keys under prefix.
func NewRedisLocker(rdb *redis.Client, prefix string, ttl, wait time.Duration) *RedisLocker {
	if ttl <= 0 {
		ttl = 30 * time.Second
	}
	return &RedisLocker{rdb: rdb, prefix: prefix, ttl: ttl, wait: wait, poll: 25 * time.Millisecond}
}

// Lock polls until the key is set by us, ctx is done or the wait bound
// elapses. Redis errors abort the acquisition.
func (r *RedisLocker) Lock(ctx context.Context, key string) (func(), error) {
	if r.wait > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.wait)
		defer cancel()
	}
	full := r.prefix + ":" + key
	token := uuid.NewString()

	ticker := time.NewTicker(r.poll)
	defer ticker.Stop()
	for {
		ok, err := r.rdb.SetNX(ctx, full, token, r.ttl).Result()
		if err != nil {
			if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
				return nil, ErrTimeout
			}
			return nil, fmt.Errorf("lock %s: %w", full, err)
		}
		if ok {
			return r.hold(full, token), nil
		}
		select {
		case <-ctx.Done():
			return nil, ErrTimeout
		case <-ticker.C:
		}
	}
}

// hold keeps the lease alive in the background and returns its release.
func (r *RedisLocker) hold(key, token string) func() {
	ctx, stop := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		r.renew(ctx, key, token)
	}()

	var once sync.Once
	return func() {
		once.Do(func() {
			stop()
			<-done
			rctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			_ = releaseScript.Run(rctx, r.rdb, []string{key}, token).Err()
		})
	}
}

// renew extends the lease until ctx ends or the lease is found taken over.
func (r *RedisLocker) renew(ctx context.Context, key, token string) {
	ticker := time.NewTicker(max(r.ttl/3, time.Millisecond))
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
		n, err := extendScript.Run(ctx, r.rdb, []string{key}, token, r.ttl.Milliseconds()).Int()
		if err != nil {
			// transient; the next tick retries while the lease may still be ours
			continue
		}
		if n == 0 {
			return
		}
	}
}
