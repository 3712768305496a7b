// internal/engine/backend.go
package engine

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sync"
)

// memoryBackend keeps stored chunks in a map. Puts flow through a worker
// pool so the pending-task queue is observable while writes are in flight.
type memoryBackend struct {
	mu      sync.Mutex
	pending map[string]struct{}
	objects map[string][]byte
	queue   chan putTask
	wg      sync.WaitGroup
}

func newMemoryBackend(workers int) *memoryBackend {
	b := &memoryBackend{
		pending: make(map[string]struct{}),
		objects: make(map[string][]byte),
		queue:   make(chan putTask, 64),
	}
	for i := 0; i < workers; i++ {
		b.wg.Add(1)
		go b.putWorker()
	}
	return b
}

func (b *memoryBackend) Name() string { return "memory" }

func (b *memoryBackend) PendingPuts() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.pending)
}

func (b *memoryBackend) enqueue(task putTask) {
	b.mu.Lock()
	b.pending[task.key] = struct{}{}
	b.mu.Unlock()
	b.queue <- task
}

func (b *memoryBackend) putWorker() {
	defer b.wg.Done()
	for task := range b.queue {
		b.mu.Lock()
		b.objects[task.key] = task.payload
		delete(b.pending, task.key)
		b.mu.Unlock()
	}
}

func (b *memoryBackend) get(key string) ([]byte, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	payload, ok := b.objects[key]
	return payload, ok
}

func (b *memoryBackend) close() {
	close(b.queue)
	b.wg.Wait()
}

// fsBackend persists chunks as files under a root directory, one file per
// chunk key. Files written by a previous engine with the same keys remain
// readable, matching a shared-filesystem cache mount.
type fsBackend struct {
	root    string
	mu      sync.Mutex
	pending map[string]struct{}
	queue   chan putTask
	wg      sync.WaitGroup
}

func newFSBackend(root string, workers int) (*fsBackend, error) {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("create cache directory %q: %w", root, err)
	}
	b := &fsBackend{
		root:    root,
		pending: make(map[string]struct{}),
		queue:   make(chan putTask, 64),
	}
	for i := 0; i < workers; i++ {
		b.wg.Add(1)
		go b.putWorker()
	}
	return b, nil
}

func (b *fsBackend) Name() string { return "fs" }

func (b *fsBackend) PendingPuts() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.pending)
}

func (b *fsBackend) enqueue(task putTask) {
	b.mu.Lock()
	b.pending[task.key] = struct{}{}
	b.mu.Unlock()
	b.queue <- task
}

func (b *fsBackend) putWorker() {
	defer b.wg.Done()
	for task := range b.queue {
		// Write-then-rename so readers never observe a partial chunk.
		path := b.chunkPath(task.key)
		tmp := path + ".tmp"
		err := os.WriteFile(tmp, task.payload, 0o644)
		if err == nil {
			err = os.Rename(tmp, path)
		}
		if err != nil {
			log.Printf("fs backend: write chunk %s: %v", task.key, err)
		}
		b.mu.Lock()
		delete(b.pending, task.key)
		b.mu.Unlock()
	}
}

func (b *fsBackend) get(key string) ([]byte, bool) {
	payload, err := os.ReadFile(b.chunkPath(key))
	if err != nil {
		return nil, false
	}
	return payload, true
}

func (b *fsBackend) close() {
	close(b.queue)
	b.wg.Wait()
}

func (b *fsBackend) chunkPath(key string) string {
	return filepath.Join(b.root, key+".kv")
}

// ClearCacheDir removes every entry under a filesystem cache root and
// returns how many were removed. A missing root counts as already clear.
func ClearCacheDir(root string) (int, error) {
	entries, err := os.ReadDir(root)
	if err != nil {
		if os.IsNotExist(err) {
			return 0, nil
		}
		return 0, fmt.Errorf("read cache directory %q: %w", root, err)
	}
	removed := 0
	for _, entry := range entries {
		if err := os.RemoveAll(filepath.Join(root, entry.Name())); err != nil {
			return removed, fmt.Errorf("remove %q: %w", entry.Name(), err)
		}
		removed++
	}
	return removed, nil
}
