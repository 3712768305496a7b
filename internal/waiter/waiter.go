// internal/waiter/waiter.go
// Package waiter converts the engine's fire-and-forget store into a bounded
// synchronous operation by polling backend pending-put queues.
package waiter

import (
	"time"

	"github.com/benchkit/chunkbench/internal/device"
	"github.com/benchkit/chunkbench/internal/engine"
)

// Status reports how a store-and-wait concluded.
type Status int

const (
	// StatusCompleted means every backend drained its pending puts.
	StatusCompleted Status = iota
	// StatusIndeterminate means the timeout elapsed with puts still
	// pending. Not an error: callers proceed after a settle delay.
	StatusIndeterminate
)

func (s Status) String() string {
	if s == StatusCompleted {
		return "completed"
	}
	return "indeterminate"
}

const (
	// DefaultTimeout bounds the poll loop.
	DefaultTimeout = 30 * time.Second
	// DefaultPollInterval keeps the busy-wait cost small.
	DefaultPollInterval = 50 * time.Millisecond
)

// Options tunes the poll loop. Zero values select the defaults.
type Options struct {
	Timeout      time.Duration
	PollInterval time.Duration
}

func (o Options) timeout() time.Duration {
	if o.Timeout <= 0 {
		return DefaultTimeout
	}
	return o.Timeout
}

func (o Options) pollInterval() time.Duration {
	if o.PollInterval <= 0 {
		return DefaultPollInterval
	}
	return o.PollInterval
}

// StoreAndWait invokes Store and then polls every registered backend until
// all pending-put queues are empty or the timeout elapses. An error from
// Store propagates unchanged and is fatal for the configuration; a timeout
// is reported as StatusIndeterminate, never as an error.
func StoreAndWait(e engine.Engine, reg engine.Registry, tokens []int64, pages []*device.Tensor, slotMapping []int, opts Options) (Status, error) {
	if err := e.Store(tokens, pages, slotMapping); err != nil {
		return StatusIndeterminate, err
	}

	deadline := time.Now().Add(opts.timeout())
	for {
		if drained(reg) {
			return StatusCompleted, nil
		}
		if time.Now().After(deadline) {
			return StatusIndeterminate, nil
		}
		time.Sleep(opts.pollInterval())
	}
}

// drained reports whether every backend's pending-put queue is empty. Each
// PendingPuts call synchronizes under that backend's own lock.
func drained(reg engine.Registry) bool {
	for _, b := range reg.Backends() {
		if b.PendingPuts() > 0 {
			return false
		}
	}
	return true
}
