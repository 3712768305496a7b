package waiter

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/benchkit/chunkbench/internal/device"
	"github.com/benchkit/chunkbench/internal/engine"
)

// countdownBackend reports pending puts for a fixed number of polls, then
// drains. Deterministic, no timers.
type countdownBackend struct {
	mu        sync.Mutex
	pollsLeft int
}

func (b *countdownBackend) Name() string { return "countdown" }

func (b *countdownBackend) PendingPuts() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.pollsLeft > 0 {
		b.pollsLeft--
		return 1
	}
	return 0
}

type fakeEngine struct {
	storeErr    error
	storeCalled bool
	backends    []engine.Backend
}

func (e *fakeEngine) Store(tokens []int64, pages []*device.Tensor, slotMapping []int) error {
	e.storeCalled = true
	return e.storeErr
}

func (e *fakeEngine) Retrieve(tokens []int64, pages []*device.Tensor, slotMapping []int) ([]bool, error) {
	return nil, nil
}

func (e *fakeEngine) Backends() []engine.Backend { return e.backends }

func TestStoreAndWaitCompletes(t *testing.T) {
	e := &fakeEngine{backends: []engine.Backend{&countdownBackend{pollsLeft: 3}}}

	status, err := StoreAndWait(e, e, nil, nil, nil, Options{PollInterval: time.Millisecond})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if status != StatusCompleted {
		t.Fatalf("status = %v, want completed", status)
	}
	if !e.storeCalled {
		t.Fatal("store was never invoked")
	}
}

func TestStoreAndWaitImmediateWhenDrained(t *testing.T) {
	e := &fakeEngine{backends: []engine.Backend{&countdownBackend{}}}

	start := time.Now()
	status, err := StoreAndWait(e, e, nil, nil, nil, Options{})
	if err != nil || status != StatusCompleted {
		t.Fatalf("status=%v err=%v", status, err)
	}
	if elapsed := time.Since(start); elapsed > time.Second {
		t.Fatalf("drained store took %s, expected immediate return", elapsed)
	}
}

func TestStoreAndWaitIndeterminateOnTimeout(t *testing.T) {
	// A backend that never drains.
	e := &fakeEngine{backends: []engine.Backend{&countdownBackend{pollsLeft: 1 << 30}}}

	status, err := StoreAndWait(e, e, nil, nil, nil, Options{
		Timeout:      20 * time.Millisecond,
		PollInterval: time.Millisecond,
	})
	if err != nil {
		t.Fatalf("timeout must not be an error, got: %v", err)
	}
	if status != StatusIndeterminate {
		t.Fatalf("status = %v, want indeterminate", status)
	}
}

func TestStoreAndWaitPropagatesStoreError(t *testing.T) {
	boom := errors.New("store exploded")
	e := &fakeEngine{storeErr: boom}

	_, err := StoreAndWait(e, e, nil, nil, nil, Options{})
	if !errors.Is(err, boom) {
		t.Fatalf("store error not propagated unchanged: %v", err)
	}
}

func TestStoreAndWaitChecksEveryBackend(t *testing.T) {
	// The second backend stays pending longer than the first; completion
	// requires both to drain.
	fast := &countdownBackend{pollsLeft: 1}
	slow := &countdownBackend{pollsLeft: 4}
	e := &fakeEngine{backends: []engine.Backend{fast, slow}}

	status, err := StoreAndWait(e, e, nil, nil, nil, Options{PollInterval: time.Millisecond})
	if err != nil || status != StatusCompleted {
		t.Fatalf("status=%v err=%v", status, err)
	}
	if slow.PendingPuts() != 0 {
		t.Fatal("completed before the slow backend drained")
	}
}

func TestOptionsDefaults(t *testing.T) {
	var o Options
	if o.timeout() != DefaultTimeout {
		t.Fatalf("default timeout = %v", o.timeout())
	}
	if o.pollInterval() != DefaultPollInterval {
		t.Fatalf("default poll interval = %v", o.pollInterval())
	}
}
