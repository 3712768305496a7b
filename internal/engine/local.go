// internal/engine/local.go
package engine

import (
	"fmt"
	"hash/fnv"

	"github.com/benchkit/chunkbench/internal/device"
)

const defaultPutWorkers = 2

// LocalEngine is the in-process reference Engine. Tokens are grouped into
// chunks of cfg.ChunkSize; each chunk's K/V bytes are gathered from the
// paged tensors and handed to an asynchronous store backend.
type LocalEngine struct {
	id      string
	cfg     Config
	md      Metadata
	backend storeBackend
}

// storeBackend is the internal write/read surface shared by the memory and
// filesystem backends.
type storeBackend interface {
	Backend
	enqueue(task putTask)
	get(key string) ([]byte, bool)
	close()
}

type putTask struct {
	key     string
	payload []byte
}

func newLocalEngine(id string, cfg Config, md Metadata) (*LocalEngine, error) {
	if cfg.ChunkSize <= 0 {
		return nil, fmt.Errorf("chunk size must be positive, got %d", cfg.ChunkSize)
	}
	workers := cfg.PutWorkers
	if workers <= 0 {
		workers = defaultPutWorkers
	}

	var backend storeBackend
	if cfg.UseMemory || cfg.CachePath == "" {
		backend = newMemoryBackend(workers)
	} else {
		fs, err := newFSBackend(cfg.CachePath, workers)
		if err != nil {
			return nil, err
		}
		backend = fs
	}

	return &LocalEngine{id: id, cfg: cfg, md: md, backend: backend}, nil
}

// ID returns the engine's registry identifier.
func (e *LocalEngine) ID() string { return e.id }

// Backends implements Registry.
func (e *LocalEngine) Backends() []Backend {
	return []Backend{e.backend}
}

// Store enqueues every chunk of the token sequence for asynchronous
// storage. Validation failures surface synchronously; completion does not.
func (e *LocalEngine) Store(tokens []int64, pages []*device.Tensor, slotMapping []int) error {
	if err := e.validate(tokens, pages, slotMapping); err != nil {
		return err
	}
	for ci, span := range chunkSpans(len(tokens), e.cfg.ChunkSize) {
		payload, err := gatherChunk(pages, slotMapping, span[0], span[1])
		if err != nil {
			return fmt.Errorf("gather chunk %d: %w", ci, err)
		}
		e.backend.enqueue(putTask{
			key:     e.chunkKey(ci, tokens[span[0]:span[1]]),
			payload: payload,
		})
	}
	return nil
}

// Retrieve scatters stored chunk bytes back into pages and reports a
// per-token hit mask. A chunk still in flight or absent yields misses for
// all of its tokens; that is not an error.
func (e *LocalEngine) Retrieve(tokens []int64, pages []*device.Tensor, slotMapping []int) ([]bool, error) {
	if err := e.validate(tokens, pages, slotMapping); err != nil {
		return nil, err
	}
	mask := make([]bool, len(tokens))
	for ci, span := range chunkSpans(len(tokens), e.cfg.ChunkSize) {
		payload, ok := e.backend.get(e.chunkKey(ci, tokens[span[0]:span[1]]))
		if !ok {
			continue
		}
		if err := scatterChunk(pages, slotMapping, span[0], span[1], payload); err != nil {
			return nil, fmt.Errorf("scatter chunk %d: %w", ci, err)
		}
		for i := span[0]; i < span[1]; i++ {
			mask[i] = true
		}
	}
	return mask, nil
}

func (e *LocalEngine) validate(tokens []int64, pages []*device.Tensor, slotMapping []int) error {
	if len(tokens) == 0 {
		return fmt.Errorf("empty token sequence")
	}
	if len(tokens) != len(slotMapping) {
		return fmt.Errorf("slot mapping length %d does not match token count %d", len(slotMapping), len(tokens))
	}
	if len(pages) != e.md.LayerCount {
		return fmt.Errorf("got %d page tensors, engine metadata declares %d layers", len(pages), e.md.LayerCount)
	}
	for layer, t := range pages {
		if len(t.Shape) != 5 || t.Shape[0] != 2 {
			return fmt.Errorf("layer %d: page tensor must be shaped [2, blocks, blockSize, heads, headSize]", layer)
		}
	}
	return nil
}

// chunkKey identifies one stored chunk. The engine id (which encodes the
// benchmark configuration) and the chunk's token prefix are both part of
// the key, so no two configurations can alias.
func (e *LocalEngine) chunkKey(index int, chunkTokens []int64) string {
	h := fnv.New64a()
	fmt.Fprintf(h, "%s|%s|%d|", e.id, e.md.ModelName, index)
	for _, tok := range chunkTokens {
		fmt.Fprintf(h, "%d,", tok)
	}
	return fmt.Sprintf("%016x", h.Sum64())
}

func (e *LocalEngine) close() {
	e.backend.close()
}

// chunkSpans splits n tokens into [start, end) spans of at most chunkSize.
func chunkSpans(n, chunkSize int) [][2]int {
	spans := make([][2]int, 0, (n+chunkSize-1)/chunkSize)
	for start := 0; start < n; start += chunkSize {
		end := start + chunkSize
		if end > n {
			end = n
		}
		spans = append(spans, [2]int{start, end})
	}
	return spans
}

// gatherChunk copies the K and V rows for tokens [start, end) out of every
// layer's paged tensor into one contiguous payload.
func gatherChunk(pages []*device.Tensor, slotMapping []int, start, end int) ([]byte, error) {
	rowLen := tokenRowBytes(pages[0])
	payload := make([]byte, 0, (end-start)*len(pages)*2*rowLen)
	for i := start; i < end; i++ {
		for _, t := range pages {
			for kv := 0; kv < 2; kv++ {
				off, err := tokenOffset(t, kv, slotMapping[i])
				if err != nil {
					return nil, err
				}
				payload = append(payload, t.Data[off:off+rowLen]...)
			}
		}
	}
	return payload, nil
}

// scatterChunk is the inverse of gatherChunk.
func scatterChunk(pages []*device.Tensor, slotMapping []int, start, end int, payload []byte) error {
	rowLen := tokenRowBytes(pages[0])
	if want := (end - start) * len(pages) * 2 * rowLen; len(payload) != want {
		return fmt.Errorf("payload is %d bytes, want %d", len(payload), want)
	}
	pos := 0
	for i := start; i < end; i++ {
		for _, t := range pages {
			for kv := 0; kv < 2; kv++ {
				off, err := tokenOffset(t, kv, slotMapping[i])
				if err != nil {
					return err
				}
				copy(t.Data[off:off+rowLen], payload[pos:pos+rowLen])
				pos += rowLen
			}
		}
	}
	return nil
}

// tokenRowBytes is the byte length of one token's K (or V) row in a paged
// tensor shaped [2, blocks, blockSize, heads, headSize].
func tokenRowBytes(t *device.Tensor) int {
	return t.Shape[3] * t.Shape[4] * t.ElemWidth
}

// tokenOffset locates a token slot's K or V row within the tensor buffer.
func tokenOffset(t *device.Tensor, kv, slot int) (int, error) {
	blocks, blockSize := t.Shape[1], t.Shape[2]
	if slot < 0 || slot >= blocks*blockSize {
		return 0, fmt.Errorf("slot %d outside page space [0, %d)", slot, blocks*blockSize)
	}
	row := tokenRowBytes(t)
	return ((kv*blocks+slot/blockSize)*blockSize + slot%blockSize) * row, nil
}
