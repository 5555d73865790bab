package loop

import (
	"errors"
	"sync"
)

// ErrAlreadySettled is returned when attempting to settle a cell that
// already holds a result or an error. The first settlement always stands.
var ErrAlreadySettled = errors.New("already settled")

// Cell is a single-assignment result slot. It is settled exactly once, with
// either a value or an error, and delivers every completion callback exactly
// once, asynchronously on the owning loop, in registration order.
//
// A Cell has a single writer at a time by convention; the methods themselves
// are safe for concurrent use.
type Cell struct {
	loop *Loop

	mu      sync.Mutex
	settled bool
	val     Value
	err     error
	subs    []func(Value, error)
	done    chan struct{}
}

// NewCell creates a pending cell owned by l.
func (l *Loop) NewCell() *Cell {
	return &Cell{loop: l, done: make(chan struct{})}
}

// Loop returns the loop the cell delivers its callbacks on.
func (c *Cell) Loop() *Loop {
	return c.loop
}

// SetValue settles the cell with val. It returns ErrAlreadySettled if the
// cell was settled before; the original outcome is left untouched.
func (c *Cell) SetValue(val Value) error {
	return c.settle(val, nil)
}

// SetError settles the cell with err. It returns ErrAlreadySettled if the
// cell was settled before; the original outcome is left untouched.
func (c *Cell) SetError(err error) error {
	return c.settle(nil, err)
}

func (c *Cell) settle(val Value, err error) error {
	c.mu.Lock()
	if c.settled {
		c.mu.Unlock()
		return ErrAlreadySettled
	}
	c.settled = true
	c.val, c.err = val, err
	subs := c.subs
	c.subs = nil
	close(c.done)
	c.mu.Unlock()

	for _, fn := range subs {
		c.post(fn)
	}
	return nil
}

// Subscribe registers fn to be invoked exactly once with the cell's outcome,
// asynchronously on the loop, after settlement. Subscribing after settlement
// delivers on the next loop turn. Callbacks of one cell fire in the order
// they were subscribed.
func (c *Cell) Subscribe(fn func(val Value, err error)) {
	c.mu.Lock()
	if !c.settled {
		c.subs = append(c.subs, fn)
		c.mu.Unlock()
		return
	}
	c.mu.Unlock()
	c.post(fn)
}

func (c *Cell) post(fn func(Value, error)) {
	val, err := c.val, c.err
	c.loop.Post(func() {
		fn(val, err)
	})
}

// Settled reports whether the cell holds an outcome.
func (c *Cell) Settled() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.settled
}

// Done returns a channel that is closed once the cell settles.
func (c *Cell) Done() <-chan struct{} {
	return c.done
}

// Result returns the settled outcome. It is only meaningful after Done is
// closed; a pending cell yields zero values.
func (c *Cell) Result() (Value, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.val, c.err
}
