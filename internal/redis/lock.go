package redisclient

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

var (
	ErrLockNotAcquired = errors.New("clinic booking lock not acquired")
)

const retryInterval = 25 * time.Millisecond

// Locker serialises booking writes per clinic across api-server replicas.
type Locker interface {
	WithClinicLock(ctx context.Context, clinicID uuid.UUID, fn func(ctx context.Context) error) error
}

type redisClinicLocker struct {
	client *redis.Client
	ttl    time.Duration
	wait   time.Duration
}

// NewRedisClinicLocker creates a locker keyed on lock:clinic:<id>:booking.
// A busy lock is retried until wait elapses; wait <= 0 means a single attempt.
func NewRedisClinicLocker(client *redis.Client, ttl, wait time.Duration) Locker {
	return &redisClinicLocker{
		client: client,
		ttl:    ttl,
		wait:   wait,
	}
}

func lockKey(clinicID uuid.UUID) string {
	return fmt.Sprintf("lock:clinic:%s:booking", clinicID.String())
}

func (l *redisClinicLocker) WithClinicLock(ctx context.Context, clinicID uuid.UUID, fn func(ctx context.Context) error) error {
	key := lockKey(clinicID)
	token := uuid.NewString()

	if err := l.acquire(ctx, key, token); err != nil {
		return err
	}

	defer func() {
		// release on a fresh context so a cancelled request still frees the key
		releaseCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), time.Second)
		defer cancel()
		_ = l.release(releaseCtx, key, token)
	}()

	ctxWithTimeout, cancel := context.WithTimeout(ctx, l.ttl)
	defer cancel()

	return fn(ctxWithTimeout)
}

func (l *redisClinicLocker) acquire(ctx context.Context, key, token string) error {
	deadline := time.Now().Add(l.wait)
	for {
		ok, err := l.client.SetNX(ctx, key, token, l.ttl).Result()
		if err != nil {
			return fmt.Errorf("acquire clinic lock: %w", err)
		}
		if ok {
			return nil
		}
		if !time.Now().Add(retryInterval).Before(deadline) {
			return ErrLockNotAcquired
		}

		timer := time.NewTimer(retryInterval)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}
}

var unlockScript = redis.NewScript(`
local val = redis.call("GET", KEYS[1])
if val == ARGV[1] then
  return redis.call("DEL", KEYS[1])
else
  return 0
end
`)

func (l *redisClinicLocker) release(ctx context.Context, key, token string) error {
	_, err := unlockScript.Run(ctx, l.client, []string{key}, token).Result()
	if err != nil && !errors.Is(err, redis.Nil) {
		return fmt.Errorf("release clinic lock: %w", err)
	}
	return nil
}
