package redisclient

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func TestBookingKey(t *testing.T) {
	doctor := uuid.MustParse("6f1c2a8e-0000-4000-8000-000000000001")
	start := time.Date(2026, 10, 26, 14, 0, 0, 0, time.UTC)

	assert.Equal(t, "lock:booking:6f1c2a8e-0000-4000-8000-000000000001:1793023200", BookingKey(doctor, start))

	berlin, err := time.LoadLocation("Europe/Berlin")
	require.NoError(t, err)
	assert.Equal(t, BookingKey(doctor, start), BookingKey(doctor, start.In(berlin)), "key depends on the instant only")
}

func TestRedisLocker(t *testing.T) {
	addr := os.Getenv("TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("TEST_REDIS_ADDR not set")
	}

	ctx := context.Background()
	rdb, err := NewRedisClient(ctx, Options{Addr: addr, MaxRetries: 1}, zaptest.NewLogger(t))
	require.NoError(t, err)
	t.Cleanup(func() { _ = rdb.Close() })

	l := NewRedisLocker(rdb, 2*time.Second)
	key := BookingKey(uuid.New(), time.Now())

	err = l.WithLock(ctx, key, func(ctx context.Context) error {
		inner := l.WithLock(ctx, key, func(context.Context) error { return nil })
		assert.ErrorIs(t, inner, ErrLockNotAcquired)
		return nil
	})
	require.NoError(t, err)

	exists, err := rdb.Exists(ctx, key).Result()
	require.NoError(t, err)
	assert.Zero(t, exists, "lock released")
}
