package renewal

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/MrEthical07/goGateway/credential"
)

// ErrClosed is returned by Await when a renewal would have to start after Close.
var ErrClosed = errors.New("renewal: coordinator closed")

// State is the coordinator's tagged state.
type State uint8

const (
	// Idle means no renewal is in flight.
	Idle State = iota
	// Refreshing means exactly one renewal is in flight and waiters may be queued.
	Refreshing
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Refreshing:
		return "refreshing"
	default:
		return "unknown"
	}
}

// RenewFunc performs one renewal attempt, including persisting the new pair on success
// and clearing stored credentials on failure.
type RenewFunc func(ctx context.Context) (credential.Pair, error)

// Outcome is what a waiter learns once it is released.
type Outcome struct {
	// Pair is the renewed credential when Err is nil and Superseded is false.
	Pair credential.Pair
	// Generation is the credential generation after the attempt settled.
	Generation uint64
	// Err is the renewal failure shared by every waiter of the attempt.
	Err error
	// Superseded reports that the credential changed after the caller read it, so no
	// renewal was needed. The caller should re-read the credential store.
	Superseded bool
	// Initiated reports that this caller started the attempt.
	Initiated bool
}

type waiter struct {
	ch        chan Outcome
	initiator bool
}

// Coordinator owns the renewal state of one gateway client.
type Coordinator struct {
	renew   RenewFunc
	timeout time.Duration

	mu         sync.Mutex
	state      State
	generation uint64
	waiters    []*waiter
	closed     bool

	wg sync.WaitGroup
}

// New creates an Idle [Coordinator]. timeout bounds each renewal attempt; zero leaves
// it unbounded.
func New(renew RenewFunc, timeout time.Duration) *Coordinator {
	return &Coordinator{
		renew:   renew,
		timeout: timeout,
	}
}

// Generation returns the current credential generation.
func (c *Coordinator) Generation() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.generation
}

// State returns the current state.
func (c *Coordinator) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Pending returns the number of queued waiters.
func (c *Coordinator) Pending() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.waiters)
}

// Advance bumps the generation outside of a renewal, e.g. after a login or logout
// replaced the stored credential. It is a no-op while Refreshing because settling the
// attempt advances the generation anyway.
func (c *Coordinator) Advance() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state == Idle {
		c.generation++
	}
	return c.generation
}

// Await reports an expiry failure for a credential read at generation seen and blocks
// until a fresh credential is known.
//
// While Refreshing the caller always joins the in-flight attempt. While Idle, a stale
// seen returns a Superseded outcome immediately; otherwise the caller starts a new
// attempt and waits for it like everyone else. After Close no new attempt starts
// and Await returns [ErrClosed] instead.
func (c *Coordinator) Await(ctx context.Context, seen uint64) (Outcome, error) {
	c.mu.Lock()
	if c.state == Idle && c.generation != seen {
		out := Outcome{Generation: c.generation, Superseded: true}
		c.mu.Unlock()
		return out, nil
	}
	if c.state == Idle && c.closed {
		c.mu.Unlock()
		return Outcome{}, ErrClosed
	}

	w := &waiter{ch: make(chan Outcome, 1)}
	if c.state == Idle {
		c.state = Refreshing
		w.initiator = true
		c.wg.Add(1)
		go c.run(context.WithoutCancel(ctx))
	}
	c.waiters = append(c.waiters, w)
	c.mu.Unlock()

	select {
	case out := <-w.ch:
		return out, nil
	case <-ctx.Done():
	}

	if c.remove(w) {
		return Outcome{}, ctx.Err()
	}
	// Settled concurrently with the cancellation; the outcome is already on its way.
	return <-w.ch, nil
}

// Wait blocks until no renewal goroutine is running.
func (c *Coordinator) Wait() {
	c.wg.Wait()
}

// Close stops new attempts from starting and waits for the in-flight one to settle.
// Callers may still join an attempt that was already running.
func (c *Coordinator) Close() {
	c.mu.Lock()
	c.closed = true
	c.mu.Unlock()
	c.wg.Wait()
}

func (c *Coordinator) run(ctx context.Context) {
	defer c.wg.Done()

	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	pair, err := c.renew(ctx)

	c.mu.Lock()
	c.state = Idle
	c.generation++
	out := Outcome{Generation: c.generation, Err: err}
	if err == nil {
		out.Pair = pair
	}
	waiters := c.waiters
	c.waiters = nil
	c.mu.Unlock()

	for _, w := range waiters {
		o := out
		o.Initiated = w.initiator
		w.ch <- o
	}
}

func (c *Coordinator) remove(target *waiter) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	for i, w := range c.waiters {
		if w == target {
			c.waiters = append(c.waiters[:i], c.waiters[i+1:]...)
			return true
		}
	}
	return false
}
