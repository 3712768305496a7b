// internal/device/device.go
// Package device defines the runtime surface the harness needs from a
// tensor device: deterministic data generation, a synchronization barrier,
// cache release, and device introspection.
package device

import "fmt"

// Tensor is a dense buffer of fixed-width elements with an explicit shape.
type Tensor struct {
	Shape     []int
	ElemWidth int
	Data      []byte
}

// NumElements returns the product of the tensor's shape dimensions.
func (t *Tensor) NumElements() int {
	n := 1
	for _, d := range t.Shape {
		n *= d
	}
	return n
}

// SizeBytes returns the total byte size of the tensor's data.
func (t *Tensor) SizeBytes() int {
	return t.NumElements() * t.ElemWidth
}

// Info describes one device visible to the runtime.
type Info struct {
	Index            int
	Name             string
	TotalMemoryBytes uint64
}

// Runtime is the device runtime consumed by the harness. Implementations
// must produce bit-identical output for identical seeds.
type Runtime interface {
	// Synchronize blocks until all outstanding device work has completed.
	Synchronize()
	// ReleaseCache returns unused cached allocations to the device.
	ReleaseCache()
	// RandTensor allocates a tensor of the given shape filled with
	// seed-deterministic pseudo-random bytes.
	RandTensor(seed int64, elemWidth int, shape ...int) (*Tensor, error)
	// RandInts returns n seed-deterministic integers in [0, max).
	RandInts(seed int64, n int, max int64) []int64
	// Perm returns a seed-deterministic permutation of [0, n).
	Perm(seed int64, n int) []int
	// Devices lists the devices the runtime can target.
	Devices() []Info
	// SetDevice selects the active device by index.
	SetDevice(index int) error
}

// ValidateIndex checks that index addresses a device known to rt.
func ValidateIndex(rt Runtime, index int) error {
	devices := rt.Devices()
	if index < 0 || index >= len(devices) {
		return fmt.Errorf("device %d not available (have %d device(s), indices 0-%d)", index, len(devices), len(devices)-1)
	}
	return nil
}
