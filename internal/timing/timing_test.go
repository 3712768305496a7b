package timing

import (
	"testing"

	"github.com/benchkit/chunkbench/internal/device"
)

// barrierCounter counts synchronization barriers so tests can assert the
// timed interval is bracketed on both ends.
type barrierCounter struct {
	device.HostRuntime
	syncs int
}

func (b *barrierCounter) Synchronize() { b.syncs++ }

func TestTimerRecordsOneSample(t *testing.T) {
	rt := &barrierCounter{}
	c := NewCollector()

	timer := c.Start(rt, "retrieve_total")
	timer.Stop()

	samples := c.Samples("retrieve_total")
	if len(samples) != 1 {
		t.Fatalf("sample count = %d, want 1", len(samples))
	}
	if samples[0] < 0 {
		t.Fatalf("negative elapsed sample: %f", samples[0])
	}
	if rt.syncs != 2 {
		t.Fatalf("barrier count = %d, want 2 (entry and exit)", rt.syncs)
	}
}

func TestTimerStopIdempotent(t *testing.T) {
	rt := &barrierCounter{}
	c := NewCollector()

	timer := c.Start(rt, "op")
	timer.Stop()
	timer.Stop()

	if got := len(c.Samples("op")); got != 1 {
		t.Fatalf("sample count after double stop = %d, want 1", got)
	}
}

func TestTimerDiscardRecordsNoSample(t *testing.T) {
	rt := &barrierCounter{}
	c := NewCollector()

	timer := c.Start(rt, "op")
	timer.Discard()

	if got := len(c.Samples("op")); got != 0 {
		t.Fatalf("sample count after discard = %d, want 0", got)
	}
	if rt.syncs != 2 {
		t.Fatalf("barrier count = %d, want 2 (discard still settles the device)", rt.syncs)
	}

	// A discarded timer is finished: neither Stop nor a second Discard may
	// record or re-synchronize.
	timer.Stop()
	timer.Discard()
	if got := len(c.Samples("op")); got != 0 {
		t.Fatalf("sample count after discard+stop = %d, want 0", got)
	}
	if rt.syncs != 2 {
		t.Fatalf("barrier count after discard+stop = %d, want 2", rt.syncs)
	}
}

func TestTimerRecordsOnPanicPath(t *testing.T) {
	rt := &barrierCounter{}
	c := NewCollector()

	func() {
		defer func() { _ = recover() }()
		timer := c.Start(rt, "op")
		defer timer.Stop()
		panic("boom")
	}()

	if got := len(c.Samples("op")); got != 1 {
		t.Fatalf("sample count after panic = %d, want 1", got)
	}
}

func TestCollectorNamesSorted(t *testing.T) {
	rt := &barrierCounter{}
	c := NewCollector()
	c.Start(rt, "zeta").Stop()
	c.Start(rt, "alpha").Stop()
	c.Start(rt, "alpha").Stop()

	names := c.Names()
	if len(names) != 2 || names[0] != "alpha" || names[1] != "zeta" {
		t.Fatalf("names = %v", names)
	}
	if got := len(c.Samples("alpha")); got != 2 {
		t.Fatalf("alpha samples = %d", got)
	}
}

func TestSamplesReturnsCopy(t *testing.T) {
	rt := &barrierCounter{}
	c := NewCollector()
	c.Start(rt, "op").Stop()

	samples := c.Samples("op")
	samples[0] = -1
	if c.Samples("op")[0] == -1 {
		t.Fatal("Samples must return a copy, not the backing slice")
	}
}
