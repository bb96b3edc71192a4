package work

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

func TestRunChunkReturnsResultsInTaskOrder(t *testing.T) {
	tasks := make([]Executor[int], 0, 10)
	for i := 0; i < 10; i++ {
		i := i
		tasks = append(tasks, MustNewTask(func(ctx context.Context) (int, error) {
			// Later tasks finish first to prove ordering is by index.
			time.Sleep(time.Duration(10-i) * time.Millisecond)
			return i, nil
		}))
	}

	results := RunChunk(context.Background(), 10, tasks)
	require.Len(t, results, 10)
	for i, res := range results {
		require.NoError(t, res.Error)
		assert.Equal(t, i, res.Result)
		assert.True(t, res.IsSuccess())
	}
}

func TestRunChunkBoundsConcurrency(t *testing.T) {
	var mu sync.Mutex
	inFlight, maxInFlight := 0, 0

	tasks := make([]Executor[struct{}], 0, 20)
	for i := 0; i < 20; i++ {
		tasks = append(tasks, MustNewTask(func(ctx context.Context) (struct{}, error) {
			mu.Lock()
			inFlight++
			if inFlight > maxInFlight {
				maxInFlight = inFlight
			}
			mu.Unlock()

			time.Sleep(5 * time.Millisecond)

			mu.Lock()
			inFlight--
			mu.Unlock()
			return struct{}{}, nil
		}))
	}

	RunChunk(context.Background(), 3, tasks)

	assert.LessOrEqual(t, maxInFlight, 3)
	assert.Greater(t, maxInFlight, 1)
}

func TestRunChunkIsolatesFailures(t *testing.T) {
	boom := errors.New("boom")
	tasks := []Executor[string]{
		MustNewTask(func(ctx context.Context) (string, error) { return "ok", nil }),
		MustNewTask(func(ctx context.Context) (string, error) { return "", boom }),
		MustNewTask(func(ctx context.Context) (string, error) { return "also ok", nil }),
	}

	results := RunChunk(context.Background(), 2, tasks)
	require.Len(t, results, 3)
	assert.NoError(t, results[0].Error)
	assert.ErrorIs(t, results[1].Error, boom)
	assert.NoError(t, results[2].Error)
	assert.Equal(t, "also ok", results[2].Result)
}

func TestRunChunkContainsPanics(t *testing.T) {
	tasks := []Executor[int]{
		MustNewTask(func(ctx context.Context) (int, error) { panic("task exploded") }),
		MustNewTask(func(ctx context.Context) (int, error) { return 7, nil }),
	}

	results := RunChunk(context.Background(), 2, tasks)
	require.Len(t, results, 2)
	require.Error(t, results[0].Error)
	assert.Contains(t, results[0].Error.Error(), "task exploded")
	assert.Equal(t, 7, results[1].Result)
}

func TestRunChunkTaskTimeout(t *testing.T) {
	task := MustNewTask(func(ctx context.Context) (int, error) {
		select {
		case <-time.After(time.Second):
			return 1, nil
		case <-ctx.Done():
			return 0, ctx.Err()
		}
	}, WithTimeout[int](10*time.Millisecond))

	results := RunChunk(context.Background(), 1, []Executor[int]{task})
	require.Len(t, results, 1)
	assert.ErrorIs(t, results[0].Error, ErrTaskTimeout)
}

func TestRunChunkInvokesErrorHandler(t *testing.T) {
	var handled atomic.Bool
	boom := errors.New("boom")
	task := MustNewTask(func(ctx context.Context) (int, error) {
		return 0, boom
	}, WithErrorHandler[int](func(err error) {
		handled.Store(errors.Is(err, boom))
	}))

	RunChunk(context.Background(), 1, []Executor[int]{task})
	assert.True(t, handled.Load())
}

func TestTaskOptions(t *testing.T) {
	task, err := NewTask(func(ctx context.Context) (int, error) { return 0, nil },
		WithID[int]("custom-id"),
		WithTimeout[int](time.Second),
	)
	require.NoError(t, err)
	assert.Equal(t, "custom-id", task.ExecutorID())
	assert.Equal(t, time.Second, task.Timeout())
}
