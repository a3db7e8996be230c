// Package lock serialises bookings of one room on one day across API
// instances. A request that finds the lock held waits for it, so two
// bookings of the same room and day run one after the other. The database
// exclusion constraint remains the final guard.
package lock

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/aslima544/consultorio-api/pkg/logger"
)

const retryInterval = 25 * time.Millisecond

var (
	// ErrLockNotAcquired means another request held the room-day lock for
	// the whole wait.
	ErrLockNotAcquired = errors.New("slot lock not acquired")
	// ErrLockUnavailable means the lock backend could not be reached.
	ErrLockUnavailable = errors.New("slot lock backend unavailable")
)

// Locker guards the check-then-write section of a booking.
type Locker interface {
	WithRoomLock(ctx context.Context, roomID uuid.UUID, day time.Time, fn func(ctx context.Context) error) error
}

// Key names the lock for a room on the UTC calendar day of day.
func Key(roomID uuid.UUID, day time.Time) string {
	return fmt.Sprintf("lock:room:%s:%s", roomID, day.UTC().Format("2006-01-02"))
}

type redisRoomLocker struct {
	client *redis.Client
	ttl    time.Duration
	wait   time.Duration
	logger *logger.Logger
}

// NewRedisLocker creates a locker backed by one Redis key per room and day.
// ttl bounds how long a holder keeps the key; wait bounds how long a caller
// retries a held key before giving up.
func NewRedisLocker(client *redis.Client, ttl, wait time.Duration, log *logger.Logger) Locker {
	if ttl <= 0 {
		ttl = 5 * time.Second
	}
	if wait < 0 {
		wait = 0
	}
	if log == nil {
		log = logger.Nop()
	}
	return &redisRoomLocker{client: client, ttl: ttl, wait: wait, logger: log.With("lock")}
}

func (l *redisRoomLocker) WithRoomLock(ctx context.Context, roomID uuid.UUID, day time.Time, fn func(ctx context.Context) error) error {
	key := Key(roomID, day)
	token := uuid.NewString()

	if err := l.acquire(ctx, key, token); err != nil {
		return err
	}

	defer func() {
		// release on a fresh context so a canceled request still frees the key
		releaseCtx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		if err := l.release(releaseCtx, key, token); err != nil {
			l.logger.Warn("failed to release slot lock, it expires with its ttl", "key", key, "error", err.Error())
		}
	}()

	ctxWithTimeout, cancel := context.WithTimeout(ctx, l.ttl)
	defer cancel()

	return fn(ctxWithTimeout)
}

// acquire polls SET NX until it wins, the wait runs out or ctx is done.
func (l *redisRoomLocker) acquire(ctx context.Context, key, token string) error {
	deadline := time.Now().Add(l.wait)
	for {
		ok, err := l.client.SetNX(ctx, key, token, l.ttl).Result()
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return ctxErr
			}
			return fmt.Errorf("%w: %v", ErrLockUnavailable, err)
		}
		if ok {
			return nil
		}
		if !time.Now().Before(deadline) {
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

func (l *redisRoomLocker) release(ctx context.Context, key, token string) error {
	_, err := unlockScript.Run(ctx, l.client, []string{key}, token).Result()
	if err != nil && !errors.Is(err, redis.Nil) {
		return fmt.Errorf("release slot lock: %w", err)
	}
	return nil
}

type noopLocker struct{}

// NewNoopLocker runs fn directly. It is used when Redis is not configured.
func NewNoopLocker() Locker {
	return noopLocker{}
}

func (noopLocker) WithRoomLock(ctx context.Context, _ uuid.UUID, _ time.Time, fn func(ctx context.Context) error) error {
	return fn(ctx)
}
