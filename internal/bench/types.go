// internal/bench/types.go
// Package bench is the benchmark orchestration engine: it drives isolated
// single-configuration runs across the chunk-size x token-count sweep,
// aggregates timings, and reports results.
package bench

import (
	"fmt"
	"math"
	"time"

	"github.com/benchkit/chunkbench/internal/engine"
	"github.com/benchkit/chunkbench/internal/profiling"
	"github.com/benchkit/chunkbench/internal/stats"
)

// RunConfig fully describes one benchmark configuration. Immutable per run;
// the sweep controller constructs one per sweep point.
type RunConfig struct {
	ChunkSize  int
	TokenCount int
	LayerCount int
	Iterations int

	Engine engine.Config

	EnableProfiling bool
	ProfilerKind    profiling.Kind
	ProfilerCaps    profiling.Capabilities
	SaveHTMLReport  bool
	ProfilingSleep  time.Duration

	StoreTimeout time.Duration
	SettleDelay  time.Duration

	// ArtifactDir receives profile reports; empty means the working dir.
	ArtifactDir string
}

// NumChunks is the chunk count covering the configured token sequence.
func (c RunConfig) NumChunks() int {
	return (c.TokenCount + c.ChunkSize - 1) / c.ChunkSize
}

// EngineID is the composite registry identifier for this configuration, so
// no two configurations ever share cached engine state.
func (c RunConfig) EngineID() string {
	return fmt.Sprintf("bench-chunk%d-tokens%d-layers%d", c.ChunkSize, c.TokenCount, c.LayerCount)
}

// Result is the immutable outcome record for one configuration.
type Result struct {
	ChunkSize  int
	TokenCount int
	NumChunks  int
	// RetrieveSeconds is the mean retrieve latency, +Inf when every
	// iteration failed.
	RetrieveSeconds float64
	ThroughputGBps  float64
	PayloadMB       float64
	Timings         map[string]stats.Aggregate
	ProfilingReport string
	ErrorCount      int
	Errors          []string
}

// Failed reports whether every retrieve iteration failed.
func (r *Result) Failed() bool {
	return math.IsInf(r.RetrieveSeconds, 1)
}
