package lock

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNoopRunsSection(t *testing.T) {
	called := false
	err := Noop{}.WithLock(context.Background(), "staff:1", func(context.Context) error {
		called = true
		return nil
	})
	require.NoError(t, err)
	assert.True(t, called)

	boom := errors.New("boom")
	err = Noop{}.WithLock(context.Background(), "staff:1", func(context.Context) error { return boom })
	assert.ErrorIs(t, err, boom)
}

func TestRedisLockerUnreachable(t *testing.T) {
	client := redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 100 * time.Millisecond,
		MaxRetries:  -1,
	})
	defer client.Close()

	called := false
	err := NewRedisLocker(client, "scheduling:lock", time.Second).WithLock(context.Background(), "staff:1", func(context.Context) error {
		called = true
		return nil
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "acquire lock")
	assert.False(t, called)
}
