package redis_test

import (
	"context"
	"testing"
	"time"

	"github.com/capstone-ai/dna/pkg/adapters/redis"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocker_AcquireRelease(t *testing.T) {
	mr, client := newClient(t)
	locker := redis.NewLocker(client, "dna:")
	ctx := context.Background()

	unlock, err := locker.Lock(ctx, "cid", 10*time.Second)
	require.NoError(t, err)
	assert.True(t, mr.Exists("dna:lock:cid"))

	// A second holder waits until its context gives up.
	short, cancel := context.WithTimeout(ctx, 250*time.Millisecond)
	defer cancel()
	_, err = locker.Lock(short, "cid", 10*time.Second)
	assert.ErrorIs(t, err, redis.ErrLockAcquire)
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	require.NoError(t, unlock(ctx))
	assert.False(t, mr.Exists("dna:lock:cid"))

	unlock2, err := locker.Lock(ctx, "cid", 10*time.Second)
	require.NoError(t, err)
	require.NoError(t, unlock2(ctx))
}

func TestLocker_StaleUnlockKeepsNewHolder(t *testing.T) {
	mr, client := newClient(t)
	locker := redis.NewLocker(client, "dna:")
	ctx := context.Background()

	staleUnlock, err := locker.Lock(ctx, "cid", time.Second)
	require.NoError(t, err)

	mr.FastForward(2 * time.Second)

	freshUnlock, err := locker.Lock(ctx, "cid", 10*time.Second)
	require.NoError(t, err)

	require.NoError(t, staleUnlock(ctx))
	assert.True(t, mr.Exists("dna:lock:cid"), "stale holder must not release the new lock")

	require.NoError(t, freshUnlock(ctx))
	assert.False(t, mr.Exists("dna:lock:cid"))
}
