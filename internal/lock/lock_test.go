package lock

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aslima544/consultorio-api/pkg/logger"
)

func TestKeyUsesUTCDay(t *testing.T) {
	room := uuid.MustParse("5f1c2a9e-0000-4000-8000-000000000001")
	brt := time.FixedZone("BRT", -3*60*60)

	// 22:30 in São Paulo is already the next day in UTC
	key := Key(room, time.Date(2030, 1, 7, 22, 30, 0, 0, brt))
	assert.Equal(t, "lock:room:5f1c2a9e-0000-4000-8000-000000000001:2030-01-08", key)
}

func TestNoopLockerRunsFn(t *testing.T) {
	called := false
	err := NewNoopLocker().WithRoomLock(context.Background(), uuid.New(), time.Now(), func(context.Context) error {
		called = true
		return nil
	})
	assert.NoError(t, err)
	assert.True(t, called)

	boom := errors.New("boom")
	err = NewNoopLocker().WithRoomLock(context.Background(), uuid.New(), time.Now(), func(context.Context) error { return boom })
	assert.Equal(t, boom, err)
}

func TestRedisLockerReportsUnreachableBackend(t *testing.T) {
	client := redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 100 * time.Millisecond,
		MaxRetries:  -1,
	})
	defer client.Close()

	called := false
	err := NewRedisLocker(client, time.Second, 0, logger.Nop()).WithRoomLock(context.Background(), uuid.New(), time.Now(), func(context.Context) error {
		called = true
		return nil
	})
	assert.ErrorIs(t, err, ErrLockUnavailable)
	assert.False(t, called)
}

func newMiniredis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return mr, client
}

func TestRedisLockerWaitsForHeldKey(t *testing.T) {
	mr, client := newMiniredis(t)
	room := uuid.New()
	day := time.Date(2030, 1, 7, 16, 0, 0, 0, time.UTC)
	key := Key(room, day)
	require.NoError(t, mr.Set(key, "other-request"))

	go func() {
		time.Sleep(100 * time.Millisecond)
		mr.Del(key)
	}()

	called := false
	err := NewRedisLocker(client, time.Second, 2*time.Second, logger.Nop()).
		WithRoomLock(context.Background(), room, day.Add(-6*time.Hour), func(context.Context) error {
			called = true
			return nil
		})
	require.NoError(t, err)
	assert.True(t, called)
	assert.False(t, mr.Exists(key), "lock released after fn")
}

func TestRedisLockerGivesUpAfterWait(t *testing.T) {
	mr, client := newMiniredis(t)
	room := uuid.New()
	day := time.Date(2030, 1, 7, 9, 0, 0, 0, time.UTC)
	require.NoError(t, mr.Set(Key(room, day), "other-request"))

	called := false
	err := NewRedisLocker(client, time.Second, 100*time.Millisecond, logger.Nop()).
		WithRoomLock(context.Background(), room, day, func(context.Context) error {
			called = true
			return nil
		})
	assert.ErrorIs(t, err, ErrLockNotAcquired)
	assert.False(t, called)
}

func TestRedisLockerStopsWaitingWhenContextEnds(t *testing.T) {
	mr, client := newMiniredis(t)
	room := uuid.New()
	day := time.Date(2030, 1, 7, 9, 0, 0, 0, time.UTC)
	require.NoError(t, mr.Set(Key(room, day), "other-request"))

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	err := NewRedisLocker(client, time.Second, 5*time.Second, logger.Nop()).
		WithRoomLock(ctx, room, day, func(context.Context) error { return nil })
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestRedisLockerLeavesForeignTokenInPlace(t *testing.T) {
	mr, client := newMiniredis(t)
	room := uuid.New()
	day := time.Date(2030, 1, 7, 9, 0, 0, 0, time.UTC)
	key := Key(room, day)

	err := NewRedisLocker(client, time.Second, 0, logger.Nop()).
		WithRoomLock(context.Background(), room, day, func(context.Context) error {
			// the key expired and another request took it
			return mr.Set(key, "next-request")
		})
	require.NoError(t, err)

	got, err := mr.Get(key)
	require.NoError(t, err)
	assert.Equal(t, "next-request", got)
}
