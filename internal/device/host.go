// internal/device/host.go
package device

import (
	"fmt"
	"math/rand"
	"runtime"
	"runtime/debug"
)

// HostRuntime is a host-memory Runtime. Generation is backed by a seeded
// math/rand source so repeated calls with the same seed are byte-identical.
type HostRuntime struct {
	current int
}

// NewHostRuntime returns a Runtime targeting host memory.
func NewHostRuntime() *HostRuntime {
	return &HostRuntime{}
}

// Synchronize is a barrier; host-memory work completes inline, so there is
// nothing to wait for.
func (h *HostRuntime) Synchronize() {}

// ReleaseCache hands unused allocations back to the OS.
func (h *HostRuntime) ReleaseCache() {
	debug.FreeOSMemory()
}

// RandTensor allocates a tensor filled from a seeded source.
func (h *HostRuntime) RandTensor(seed int64, elemWidth int, shape ...int) (*Tensor, error) {
	if elemWidth <= 0 {
		return nil, fmt.Errorf("invalid element width %d", elemWidth)
	}
	n := 1
	for _, d := range shape {
		if d <= 0 {
			return nil, fmt.Errorf("invalid tensor dimension %d", d)
		}
		n *= d
	}
	data := make([]byte, n*elemWidth)
	rng := rand.New(rand.NewSource(seed))
	if _, err := rng.Read(data); err != nil {
		return nil, fmt.Errorf("fill tensor: %w", err)
	}
	return &Tensor{Shape: append([]int(nil), shape...), ElemWidth: elemWidth, Data: data}, nil
}

// RandInts returns n seeded integers in [0, max).
func (h *HostRuntime) RandInts(seed int64, n int, max int64) []int64 {
	rng := rand.New(rand.NewSource(seed))
	out := make([]int64, n)
	for i := range out {
		out[i] = rng.Int63n(max)
	}
	return out
}

// Perm returns a seeded permutation of [0, n).
func (h *HostRuntime) Perm(seed int64, n int) []int {
	rng := rand.New(rand.NewSource(seed))
	return rng.Perm(n)
}

// Devices reports a single host device.
func (h *HostRuntime) Devices() []Info {
	return []Info{{
		Index:            0,
		Name:             fmt.Sprintf("host (%d CPUs)", runtime.NumCPU()),
		TotalMemoryBytes: totalHostMemory(),
	}}
}

// SetDevice selects the active device.
func (h *HostRuntime) SetDevice(index int) error {
	if err := ValidateIndex(h, index); err != nil {
		return err
	}
	h.current = index
	return nil
}
