package loop

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
)

// ErrCancelled is the error a task's cell is settled with when the task
// observed cancellation before completing.
var ErrCancelled = errors.New("cancelled")

// Task is a cancellable unit of work. Its function runs in its own
// goroutine; its outcome settles the task's cell through the loop.
type Task struct {
	cell      *Cell
	cancel    context.CancelFunc
	cancelled atomic.Bool
}

// Spawn starts fn in a new goroutine with a cancellable context. When fn
// returns, the task's cell settles with its result. A panic in fn settles
// the cell with an error. If the completion observes cancellation, meaning
// fn returned a context cancellation error or any error after Cancel was
// called, the cell settles with ErrCancelled.
func (l *Loop) Spawn(fn func(ctx context.Context) (Value, error)) *Task {
	ctx, cancel := context.WithCancel(context.Background())
	t := &Task{cell: l.NewCell(), cancel: cancel}

	go func() {
		defer cancel()

		val, err := runTask(ctx, fn)
		if err != nil {
			if errors.Is(err, context.Canceled) || t.cancelled.Load() {
				err = ErrCancelled
			}
			_ = t.cell.SetError(err)
			return
		}
		_ = t.cell.SetValue(val)
	}()

	return t
}

func runTask(ctx context.Context, fn func(ctx context.Context) (Value, error)) (val Value, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic in task: %v", r)
		}
	}()
	return fn(ctx)
}

// Cell returns the cell the task settles on completion.
func (t *Task) Cell() *Cell {
	return t.cell
}

// Cancel requests cancellation of the task. It is advisory: the task's cell
// settles only once the task function returns. Cancelling a task whose cell
// has already settled is a no-op. Cancel is idempotent.
func (t *Task) Cancel() {
	if t.cell.Settled() {
		return
	}
	t.cancelled.Store(true)
	t.cancel()
}

// Cancelled reports whether cancellation was requested before the task
// completed. It reflects the cancellation flag, not the cell state.
func (t *Task) Cancelled() bool {
	return t.cancelled.Load()
}
