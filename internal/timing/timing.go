// internal/timing/timing.go
// Package timing provides a scoped stopwatch bracketed by device
// synchronization barriers, so measured intervals reflect completed device
// work rather than host-side call return.
package timing

import (
	"sort"
	"sync"
	"time"

	"github.com/benchkit/chunkbench/internal/device"
)

// Collector accumulates elapsed samples keyed by operation name. Samples
// are append-only; aggregation happens elsewhere.
type Collector struct {
	mu      sync.Mutex
	samples map[string][]float64
}

// NewCollector returns an empty Collector.
func NewCollector() *Collector {
	return &Collector{samples: make(map[string][]float64)}
}

// Start issues a synchronization barrier, then begins timing under name.
// Pair with Timer.Stop, typically via defer.
func (c *Collector) Start(rt device.Runtime, name string) *Timer {
	rt.Synchronize()
	return &Timer{collector: c, rt: rt, name: name, start: time.Now()}
}

func (c *Collector) append(name string, seconds float64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.samples[name] = append(c.samples[name], seconds)
}

// Samples returns a copy of the recorded samples for name, in append order.
func (c *Collector) Samples(name string) []float64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]float64(nil), c.samples[name]...)
}

// Names returns the recorded operation names, sorted.
func (c *Collector) Names() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	names := make([]string, 0, len(c.samples))
	for name := range c.samples {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Timer is one in-flight measurement. Stop is idempotent: exactly one
// sample is recorded per Start, even when the timed operation panics and
// Stop runs from a defer.
type Timer struct {
	collector *Collector
	rt        device.Runtime
	name      string
	start     time.Time
	stopped   bool
}

// Stop issues the closing barrier and records the elapsed sample.
func (t *Timer) Stop() {
	if t.stopped {
		return
	}
	t.stopped = true
	t.rt.Synchronize()
	t.collector.append(t.name, time.Since(t.start).Seconds())
}

// Discard ends the measurement without recording a sample. Use it when the
// timed operation failed: a failed iteration must not contribute a latency
// sample. The closing barrier is still issued so device state is settled.
func (t *Timer) Discard() {
	if t.stopped {
		return
	}
	t.stopped = true
	t.rt.Synchronize()
}
