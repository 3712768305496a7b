// internal/workload/workload.go
// Package workload generates deterministic synthetic benchmark data: token
// sequences, paged key/value tensors, and slot mappings.
package workload

import (
	"fmt"

	"github.com/benchkit/chunkbench/internal/device"
)

const (
	// Seed fixes all generation so identical inputs produce identical data.
	Seed = 42
	// VocabSize bounds generated token IDs.
	VocabSize = 32000
	// BlockSize is the number of token slots per page block.
	BlockSize = 16
	// NumHeads and HeadSize describe the simulated attention layout.
	NumHeads = 32
	HeadSize = 128
	// ElemWidth is the per-element byte width (bf16).
	ElemWidth = 2
)

// Params describes one workload's dimensions.
type Params struct {
	TokenCount int
	LayerCount int
	BlockSize  int
	NumHeads   int
	HeadSize   int
}

// DefaultParams returns Params with the fixed model layout constants.
func DefaultParams(tokenCount, layerCount int) Params {
	return Params{
		TokenCount: tokenCount,
		LayerCount: layerCount,
		BlockSize:  BlockSize,
		NumHeads:   NumHeads,
		HeadSize:   HeadSize,
	}
}

// NumBlocks returns the block count covering tokenCount slots.
func (p Params) NumBlocks() int {
	return (p.TokenCount + p.BlockSize - 1) / p.BlockSize
}

// Workload bundles the generated data for one configuration.
type Workload struct {
	Tokens      []int64
	KVPages     []*device.Tensor
	SlotMapping []int
}

// Generate produces the full workload for p. Same params, same bytes.
func Generate(rt device.Runtime, p Params) (*Workload, error) {
	if p.TokenCount <= 0 || p.LayerCount <= 0 {
		return nil, fmt.Errorf("invalid workload params: tokens=%d layers=%d", p.TokenCount, p.LayerCount)
	}

	tokens := rt.RandInts(Seed, p.TokenCount, VocabSize)

	pages, err := GeneratePages(rt, p)
	if err != nil {
		return nil, err
	}

	// A truncated permutation of the block-expanded slot space, so no two
	// tokens alias the same physical slot.
	slots := rt.Perm(Seed, p.NumBlocks()*p.BlockSize)[:p.TokenCount]

	return &Workload{Tokens: tokens, KVPages: pages, SlotMapping: slots}, nil
}

// GeneratePages allocates one paged K/V tensor per layer, each shaped
// [2, blocks, blockSize, heads, headSize]. Retrieve destinations are
// regenerated from this per iteration so stale data cannot mask a miss.
func GeneratePages(rt device.Runtime, p Params) ([]*device.Tensor, error) {
	pages := make([]*device.Tensor, 0, p.LayerCount)
	for layer := 0; layer < p.LayerCount; layer++ {
		t, err := rt.RandTensor(Seed, ElemWidth, 2, p.NumBlocks(), p.BlockSize, p.NumHeads, p.HeadSize)
		if err != nil {
			return nil, fmt.Errorf("allocate layer %d pages: %w", layer, err)
		}
		pages = append(pages, t)
	}
	return pages, nil
}

// PayloadBytes is the total cached byte size for a configuration:
// tokens x layers x 2 (K,V) x heads x headSize x element width.
func PayloadBytes(tokenCount, layerCount int) int64 {
	return int64(tokenCount) * int64(layerCount) * 2 * NumHeads * HeadSize * ElemWidth
}

// PayloadMB converts PayloadBytes to mebibytes.
func PayloadMB(tokenCount, layerCount int) float64 {
	return float64(PayloadBytes(tokenCount, layerCount)) / (1024 * 1024)
}

// BytesPerToken is the cached footprint of a single token.
func BytesPerToken(layerCount int) int64 {
	return PayloadBytes(1, layerCount)
}
