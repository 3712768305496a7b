// internal/engine/engine.go
// Package engine defines the cache-engine surface the harness consumes and
// provides an in-process reference engine with asynchronous store backends.
package engine

import (
	"fmt"
	"sync"

	"github.com/benchkit/chunkbench/internal/device"
)

// Engine is the store/retrieve surface of a chunked KV cache. Store is
// fire-and-forget: it returns once work is enqueued, not once it is durable.
type Engine interface {
	Store(tokens []int64, pages []*device.Tensor, slotMapping []int) error
	// Retrieve fills pages from the cache and returns a per-token hit mask.
	Retrieve(tokens []int64, pages []*device.Tensor, slotMapping []int) ([]bool, error)
}

// Backend is one named storage backend with an inspectable pending-put
// queue. PendingPuts takes the backend's own lock; callers never lock.
type Backend interface {
	Name() string
	PendingPuts() int
}

// Registry exposes an engine's registered storage backends.
type Registry interface {
	Backends() []Backend
}

// Config selects and tunes an engine's storage backend.
type Config struct {
	ChunkSize int
	// CachePath roots the filesystem backend. Ignored when UseMemory is set.
	CachePath string
	UseMemory bool
	// PutWorkers is the number of asynchronous store workers (default 2).
	PutWorkers int
}

// Metadata identifies the model layout an engine caches for. LayerCount is
// part of the identity so differing layer configurations never share keys.
type Metadata struct {
	ModelName  string
	WorldSize  int
	WorkerID   int
	LayerCount int
	NumHeads   int
	HeadSize   int
}

var (
	buildMu sync.Mutex
	engines = make(map[string]*LocalEngine)
)

// GetOrCreate returns the engine registered under id, creating it on first
// use. Each benchmark configuration uses a distinct id so cached state is
// never shared across configurations.
func GetOrCreate(id string, cfg Config, md Metadata) (*LocalEngine, error) {
	buildMu.Lock()
	defer buildMu.Unlock()

	if e, ok := engines[id]; ok {
		return e, nil
	}
	e, err := newLocalEngine(id, cfg, md)
	if err != nil {
		return nil, fmt.Errorf("create engine %q: %w", id, err)
	}
	engines[id] = e
	return e, nil
}

// Destroy tears down the engine registered under id. Unknown ids are a no-op
// so cleanup paths can call it unconditionally.
func Destroy(id string) {
	buildMu.Lock()
	e, ok := engines[id]
	if ok {
		delete(engines, id)
	}
	buildMu.Unlock()

	if ok {
		e.close()
	}
}
