// internal/bench/sweep.go
package bench

import (
	"fmt"

	"github.com/benchkit/chunkbench/internal/appconfig"
	"github.com/benchkit/chunkbench/internal/device"
	"github.com/benchkit/chunkbench/internal/engine"
	"github.com/benchkit/chunkbench/internal/logging"
	"github.com/benchkit/chunkbench/internal/profiling"
	"github.com/benchkit/chunkbench/internal/workload"
)

// ProgressFunc observes sweep progress: completed and total tuple counts
// plus a short description of the tuple that just finished.
type ProgressFunc func(completed, total int, description string)

// Sweep drives one isolated benchmark run per (chunk size, token count)
// tuple of the configured cross-product, in declared order. A tuple that
// fails outright is logged and skipped; the sweep always continues. The
// returned error covers only result serialization, never per-tuple failures.
func Sweep(rt device.Runtime, cfg appconfig.Config, caps profiling.Capabilities, progress ProgressFunc) ([]*Result, error) {
	logging.LogEvent("Running benchmark sweep with:")
	logging.LogEvent("  Chunk sizes: %v", cfg.ChunkSizes)
	logging.LogEvent("  Token counts: %v", cfg.TokenCounts)
	logging.LogEvent("  Iterations per config: %d", cfg.Iterations)
	logging.LogEvent("  Layers: %d (%.1f KB per token)", cfg.NumLayers, float64(workload.BytesPerToken(cfg.NumLayers))/1024)
	logging.LogEvent("  Profiling enabled: %t (type: %s)", cfg.EnableProfiling, cfg.ProfilerType)
	logging.LogEvent("  Clear cache: %t", cfg.ClearCache)

	total := len(cfg.ChunkSizes) * len(cfg.TokenCounts)
	results := make([]*Result, 0, total)
	completed := 0

	for ci, chunkSize := range cfg.ChunkSizes {
		for ti, tokenCount := range cfg.TokenCounts {
			// Stale persistent state must not leak into the sweep, but
			// repeated clearing wastes time and races in-flight cleanup:
			// clear exactly once, on the very first tuple.
			if cfg.ClearCache && ci == 0 && ti == 0 && !cfg.UseMemory {
				removed, err := engine.ClearCacheDir(cfg.CachePath)
				if err != nil {
					logging.LogEvent("WARNING: failed to clear cache directory: %v", err)
				} else {
					logging.LogEvent("Cleared cache directory %s (%d entries removed)", cfg.CachePath, removed)
				}
			}

			runCfg := buildRunConfig(cfg, caps, chunkSize, tokenCount)
			result, err := runTuple(rt, runCfg)
			if err != nil {
				logging.LogEvent("ERROR in chunk_size=%d, tokens=%d: %v", chunkSize, tokenCount, err)
			} else {
				results = append(results, result)
			}

			completed++
			if progress != nil {
				progress(completed, total, fmt.Sprintf("chunk=%d tokens=%d", chunkSize, tokenCount))
			}

			// Release lingering allocations and cool down so one tuple's
			// residue cannot skew the next tuple's timings.
			rt.ReleaseCache()
			if completed < total {
				sleep(cfg.Cooldown())
			}
		}
	}

	if cfg.Output != "" {
		if err := WriteResults(cfg.Output, results); err != nil {
			return results, fmt.Errorf("write results: %w", err)
		}
		logging.LogEvent("Results saved to %s", cfg.Output)
	}

	PrintSummary(results)

	totalErrors := 0
	for _, r := range results {
		totalErrors += r.ErrorCount
	}
	logging.LogEvent("Benchmark sweep complete! Tested %d configurations.", len(results))
	if totalErrors > 0 {
		PrintHints(totalErrors)
	}

	return results, nil
}

// runTuple isolates one configuration: a panic inside the run is converted
// to an error so a single tuple cannot abort the sweep.
func runTuple(rt device.Runtime, cfg RunConfig) (result *Result, err error) {
	defer func() {
		if r := recover(); r != nil {
			result = nil
			err = fmt.Errorf("panic during benchmark run: %v", r)
		}
	}()
	return RunConfiguration(rt, cfg)
}

func buildRunConfig(cfg appconfig.Config, caps profiling.Capabilities, chunkSize, tokenCount int) RunConfig {
	kind, _ := profiling.ParseKind(cfg.ProfilerType)
	return RunConfig{
		ChunkSize:  chunkSize,
		TokenCount: tokenCount,
		LayerCount: cfg.NumLayers,
		Iterations: cfg.Iterations,
		Engine: engine.Config{
			ChunkSize: chunkSize,
			CachePath: cfg.CachePath,
			UseMemory: cfg.UseMemory,
		},
		EnableProfiling: cfg.EnableProfiling,
		ProfilerKind:    kind,
		ProfilerCaps:    caps,
		SaveHTMLReport:  cfg.SaveHTMLReports,
		ProfilingSleep:  cfg.ProfilingSleep(),
		StoreTimeout:    cfg.StoreTimeout(),
		SettleDelay:     cfg.SettleDelay(),
	}
}
