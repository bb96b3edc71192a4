package work

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
)

var (
	ErrInvalidConcurrency = errors.New("invalid concurrency limit")
	ErrTaskTimeout        = errors.New("task execution timeout")
)

// TaskResult represents the result of a task execution with type safety
type TaskResult[T any] struct {
	TaskID    string
	Result    T
	Error     error
	StartTime time.Time
	EndTime   time.Time
	Duration  time.Duration
}

// IsSuccess returns true if the task completed successfully
func (tr *TaskResult[T]) IsSuccess() bool {
	return tr.Error == nil
}

// Executor interface for all tasks - generic for type safety
type Executor[T any] interface {
	ExecutorID() string
	Execute(ctx context.Context) (T, error)
	OnError(error)
	Timeout() time.Duration // Optional timeout for the task (0 means none)
}

// RunChunk executes all tasks concurrently, bounded by limit, and blocks
// until every task has finished. Results are returned in task order; a
// failed task carries its error in the result instead of aborting siblings.
func RunChunk[T any](ctx context.Context, limit int, tasks []Executor[T]) []TaskResult[T] {
	if limit <= 0 {
		limit = 1
	}

	results := make([]TaskResult[T], len(tasks))
	sem := make(chan struct{}, limit)
	var wg sync.WaitGroup

	for i, task := range tasks {
		wg.Add(1)
		sem <- struct{}{}
		go func(i int, task Executor[T]) {
			defer wg.Done()
			defer func() { <-sem }()
			results[i] = executeTask(ctx, task)
		}(i, task)
	}

	wg.Wait()
	return results
}

// executeTask executes a single task with timeout and panic containment
func executeTask[T any](ctx context.Context, task Executor[T]) TaskResult[T] {
	taskID := task.ExecutorID()
	startTime := time.Now()

	taskCtx := ctx
	if timeout := task.Timeout(); timeout > 0 {
		var cancel context.CancelFunc
		taskCtx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	log.Debug().
		Str("taskID", taskID).
		Msg("Executing task")

	// A panicking task must not take down the rest of the chunk.
	result, err := func() (result T, err error) {
		defer func() {
			if r := recover(); r != nil {
				err = fmt.Errorf("task panicked: %v", r)
			}
		}()
		return task.Execute(taskCtx)
	}()
	endTime := time.Now()
	duration := endTime.Sub(startTime)

	if err != nil && (errors.Is(err, context.DeadlineExceeded) || taskCtx.Err() == context.DeadlineExceeded) {
		err = ErrTaskTimeout
	}

	if err != nil {
		task.OnError(err)
	}

	log.Debug().
		Str("taskID", taskID).
		Dur("duration", duration).
		Bool("success", err == nil).
		Msg("Task completed")

	return TaskResult[T]{
		TaskID:    taskID,
		Result:    result,
		Error:     err,
		StartTime: startTime,
		EndTime:   endTime,
		Duration:  duration,
	}
}
