package session_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/capstone-ai/dna/pkg/ports"
	"github.com/capstone-ai/dna/pkg/session"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestManager_SerializesSameConversation(t *testing.T) {
	manager := session.NewManager()
	ctx := context.Background()

	var (
		mu      sync.Mutex
		inside  int
		maxSeen int
		counter int
	)

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := manager.WithLock(ctx, "race-test", func(context.Context) error {
				mu.Lock()
				inside++
				if inside > maxSeen {
					maxSeen = inside
				}
				mu.Unlock()

				// Read-modify-write that would lose updates without the lock.
				v := counter
				time.Sleep(2 * time.Millisecond)
				counter = v + 1

				mu.Lock()
				inside--
				mu.Unlock()
				return nil
			})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	assert.Equal(t, 10, counter)
	assert.Equal(t, 1, maxSeen)
	assert.Zero(t, manager.Active())
}

func TestManager_DifferentConversationsRunConcurrently(t *testing.T) {
	manager := session.NewManager()
	ctx := context.Background()

	entered := make(chan struct{})
	release := make(chan struct{})
	done := make(chan error, 1)

	go func() {
		done <- manager.WithLock(ctx, "a", func(context.Context) error {
			close(entered)
			<-release
			return nil
		})
	}()
	<-entered

	err := manager.WithLock(ctx, "b", func(context.Context) error { return nil })
	require.NoError(t, err)

	close(release)
	require.NoError(t, <-done)
}

func TestManager_PropagatesError(t *testing.T) {
	manager := session.NewManager()
	boom := errors.New("boom")

	err := manager.WithLock(context.Background(), "x", func(context.Context) error { return boom })
	assert.ErrorIs(t, err, boom)
	assert.Zero(t, manager.Active())
}

type fakeLocker struct {
	mu       sync.Mutex
	locked   []string
	unlocked []string
	ttl      time.Duration
	err      error
}

func (f *fakeLocker) Lock(_ context.Context, key string, ttl time.Duration) (ports.UnlockFunc, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.mu.Lock()
	f.locked = append(f.locked, key)
	f.ttl = ttl
	f.mu.Unlock()
	return func(context.Context) error {
		f.mu.Lock()
		defer f.mu.Unlock()
		f.unlocked = append(f.unlocked, key)
		return nil
	}, nil
}

func TestManager_DistributedLocker(t *testing.T) {
	t.Run("Lock And Release", func(t *testing.T) {
		locker := &fakeLocker{}
		manager := session.NewManager(session.WithLocker(locker), session.WithLockTTL(5*time.Second))

		called := false
		err := manager.WithLock(context.Background(), "cid", func(context.Context) error {
			called = true
			assert.Equal(t, []string{"cid"}, locker.locked)
			assert.Empty(t, locker.unlocked)
			return nil
		})
		require.NoError(t, err)
		assert.True(t, called)
		assert.Equal(t, []string{"cid"}, locker.unlocked)
		assert.Equal(t, 5*time.Second, locker.ttl)
	})

	t.Run("Acquire Failure Skips Work", func(t *testing.T) {
		locker := &fakeLocker{err: errors.New("redis down")}
		manager := session.NewManager(session.WithLocker(locker))

		called := false
		err := manager.WithLock(context.Background(), "cid", func(context.Context) error {
			called = true
			return nil
		})
		assert.Error(t, err)
		assert.False(t, called)
		assert.Zero(t, manager.Active())
	})
}
