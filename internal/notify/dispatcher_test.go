package notify

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDispatcher_RunsSubmittedTasks(t *testing.T) {
	d := NewDispatcher(3, 16, time.Second)
	d.Start()

	var ran atomic.Int32
	for i := 0; i < 10; i++ {
		ok := d.Submit("count", func(ctx context.Context) error {
			ran.Add(1)
			return nil
		})
		require.True(t, ok)
	}

	require.NoError(t, d.Close(context.Background()))
	assert.Equal(t, int32(10), ran.Load(), "Close must drain queued tasks")
}

func TestDispatcher_DropsWhenQueueFull(t *testing.T) {
	d := NewDispatcher(1, 1, time.Second)

	noop := func(ctx context.Context) error { return nil }
	assert.True(t, d.Submit("first", noop))
	assert.False(t, d.Submit("second", noop), "queue of one is full until a worker starts")

	d.Start()
	require.NoError(t, d.Close(context.Background()))
}

func TestDispatcher_SubmitAfterClose(t *testing.T) {
	d := NewDispatcher(1, 4, time.Second)
	d.Start()
	require.NoError(t, d.Close(context.Background()))

	assert.False(t, d.Submit("late", func(ctx context.Context) error { return nil }))
	assert.ErrorIs(t, d.Close(context.Background()), ErrDispatcherClosed)
}

func TestDispatcher_TaskTimeout(t *testing.T) {
	d := NewDispatcher(1, 1, 20*time.Millisecond)
	d.Start()

	result := make(chan error, 1)
	d.Submit("slow", func(ctx context.Context) error {
		_, hasDeadline := ctx.Deadline()
		if !hasDeadline {
			result <- errors.New("task context has no deadline")
			return nil
		}
		<-ctx.Done()
		result <- ctx.Err()
		return ctx.Err()
	})

	select {
	case err := <-result:
		assert.ErrorIs(t, err, context.DeadlineExceeded)
	case <-time.After(2 * time.Second):
		t.Fatal("task was never cancelled")
	}
	require.NoError(t, d.Close(context.Background()))
}

func TestDispatcher_RecoversFromPanic(t *testing.T) {
	d := NewDispatcher(1, 4, time.Second)
	d.Start()

	var after atomic.Bool
	d.Submit("boom", func(ctx context.Context) error { panic("boom") })
	d.Submit("after", func(ctx context.Context) error {
		after.Store(true)
		return nil
	})

	require.NoError(t, d.Close(context.Background()))
	assert.True(t, after.Load(), "worker must survive a panicking task")
}

func TestDispatcher_FailedTaskDoesNotStopWorker(t *testing.T) {
	d := NewDispatcher(1, 4, time.Second)
	d.Start()

	var ran atomic.Int32
	d.Submit("fail", func(ctx context.Context) error {
		ran.Add(1)
		return errors.New("smtp down")
	})
	d.Submit("ok", func(ctx context.Context) error {
		ran.Add(1)
		return nil
	})

	require.NoError(t, d.Close(context.Background()))
	assert.Equal(t, int32(2), ran.Load())
}

func TestDispatcher_CloseHonoursContext(t *testing.T) {
	d := NewDispatcher(1, 1, time.Minute)
	d.Start()

	release := make(chan struct{})
	var started sync.WaitGroup
	started.Add(1)
	d.Submit("stuck", func(ctx context.Context) error {
		started.Done()
		<-release
		return nil
	})
	started.Wait()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, d.Close(ctx), context.DeadlineExceeded)

	close(release)
}

func TestNewDispatcher_Defaults(t *testing.T) {
	d := NewDispatcher(0, -1, 0)

	assert.Equal(t, 1, d.workers)
	assert.Equal(t, 0, cap(d.jobs))
	assert.Equal(t, 10*time.Second, d.timeout)
}
