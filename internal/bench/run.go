// internal/bench/run.go
package bench

import (
	"fmt"
	"math"
	"path/filepath"
	"strings"
	"time"

	"github.com/benchkit/chunkbench/internal/device"
	"github.com/benchkit/chunkbench/internal/engine"
	"github.com/benchkit/chunkbench/internal/logging"
	"github.com/benchkit/chunkbench/internal/profiling"
	"github.com/benchkit/chunkbench/internal/stats"
	"github.com/benchkit/chunkbench/internal/timing"
	"github.com/benchkit/chunkbench/internal/waiter"
	"github.com/benchkit/chunkbench/internal/workload"
)

// benchEngine is the engine surface a run needs: store/retrieve plus the
// backend registry the completion-wait adapter polls.
type benchEngine interface {
	engine.Engine
	engine.Registry
}

// Swappable seams for tests, following the package-var convention used for
// collaborator construction.
var (
	getOrCreateEngine = func(id string, cfg engine.Config, md engine.Metadata) (benchEngine, error) {
		return engine.GetOrCreate(id, cfg, md)
	}
	destroyEngine = engine.Destroy
	sleep         = time.Sleep
)

// RunConfiguration benchmarks a single (chunk size, token count, layers)
// configuration: one completion-awaited store, then Iterations timed
// retrieves. A store failure yields a failed Result; a retrieve failure is
// counted and the remaining iterations continue. A returned error means the
// configuration produced no result at all (the sweep skips the tuple).
func RunConfiguration(rt device.Runtime, cfg RunConfig) (*Result, error) {
	logging.LogEvent("=== Benchmarking chunk_size=%d, tokens=%d, layers=%d ===", cfg.ChunkSize, cfg.TokenCount, cfg.LayerCount)

	params := workload.DefaultParams(cfg.TokenCount, cfg.LayerCount)

	id := cfg.EngineID()
	eng, err := getOrCreateEngine(id, cfg.Engine, engine.Metadata{
		ModelName:  fmt.Sprintf("benchmarkModel-layers%d", cfg.LayerCount),
		WorldSize:  1,
		LayerCount: cfg.LayerCount,
		NumHeads:   params.NumHeads,
		HeadSize:   params.HeadSize,
	})
	if err != nil {
		return nil, fmt.Errorf("create engine: %w", err)
	}
	defer destroyEngine(id)

	w, err := workload.Generate(rt, params)
	if err != nil {
		return nil, fmt.Errorf("generate workload: %w", err)
	}

	logging.LogEvent("  Storing data once for cache...")
	rt.ReleaseCache()
	rt.Synchronize()

	status, err := waiter.StoreAndWait(eng, eng, w.Tokens, w.KVPages, w.SlotMapping, waiter.Options{Timeout: cfg.StoreTimeout})
	rt.Synchronize()
	if err != nil {
		msg := fmt.Sprintf("initial store failed: %v", err)
		logging.LogEvent("    ERROR: %s", msg)
		return failedResult(cfg, msg), nil
	}
	if status == waiter.StatusCompleted {
		logging.LogEvent("  Store completed (async operations finished)")
	} else {
		// Completion could not be confirmed before the timeout. Proceed
		// after a settle delay; this is not an error.
		logging.LogEvent("  Store indeterminate (async operations may still be pending), settling for %s", cfg.SettleDelay)
		sleep(cfg.SettleDelay)
	}

	collector := timing.NewCollector()
	errorCount := 0
	var errorMsgs []string
	var profilingReport string

	for i := 0; i < cfg.Iterations; i++ {
		final := i == cfg.Iterations-1
		logging.LogEvent("  Retrieve iteration %d/%d", i+1, cfg.Iterations)

		if cfg.EnableProfiling && final && cfg.ProfilingSleep > 0 {
			// Lets an out-of-process observer attach before the profiled
			// iteration.
			logging.LogEvent("    Profiled iteration - sleeping %s for external coordination...", cfg.ProfilingSleep)
			sleep(cfg.ProfilingSleep)
		}

		// Fresh destination tensors every iteration, so residual data from
		// a previous iteration cannot mask a retrieval bug.
		dest, err := workload.GeneratePages(rt, params)
		if err != nil {
			errorCount++
			msg := fmt.Sprintf("allocate destination pages in iteration %d: %v", i, err)
			errorMsgs = append(errorMsgs, msg)
			logging.LogEvent("    ERROR: %s", msg)
			continue
		}
		rt.ReleaseCache()
		rt.Synchronize()

		var prof *profiling.Profiler
		if cfg.EnableProfiling && final {
			prof = profiling.New(cfg.ProfilerKind, cfg.ProfilerCaps)
			prof.Start()
		}

		timer := collector.Start(rt, "retrieve_total")
		mask, retrieveErr := eng.Retrieve(w.Tokens, dest, w.SlotMapping)

		if retrieveErr != nil {
			// A failed iteration contributes an error, never a latency
			// sample: the mean must cover successful retrieves only.
			timer.Discard()
			if prof != nil && prof.Active() {
				prof.Stop()
			}
			errorCount++
			msg := fmt.Sprintf("retrieve error in iteration %d: %v", i, retrieveErr)
			errorMsgs = append(errorMsgs, msg)
			logging.LogEvent("    ERROR: %s", msg)
			continue
		}
		timer.Stop()

		samples := collector.Samples("retrieve_total")
		logging.LogEvent("    Retrieve time: %.4fs", samples[len(samples)-1])

		hits := 0
		for _, hit := range mask {
			if hit {
				hits++
			}
		}
		logging.LogEvent("    Retrieved: %d/%d tokens", hits, cfg.TokenCount)
		if hits != cfg.TokenCount {
			logging.LogEvent("    WARNING: hit mask covers %d of %d tokens", hits, cfg.TokenCount)
		}

		if prof != nil && prof.Active() {
			profilingReport = finishProfiledIteration(cfg, prof)
		}
	}

	samples := collector.Samples("retrieve_total")
	logTimingSummary(samples)

	if cfg.SaveHTMLReport && len(samples) > 0 {
		htmlPath := filepath.Join(cfg.ArtifactDir, fmt.Sprintf("report_chunk%d_tokens%d_layers%d.html", cfg.ChunkSize, cfg.TokenCount, cfg.LayerCount))
		if writeTimingChart(htmlPath, cfg, samples) {
			logging.LogEvent("  Interactive HTML report saved to %s", htmlPath)
		}
	}

	mean := stats.Mean(samples)
	payloadMB := workload.PayloadMB(cfg.TokenCount, cfg.LayerCount)

	timings := make(map[string]stats.Aggregate)
	for _, name := range collector.Names() {
		if s := collector.Samples(name); len(s) > 0 {
			timings[name] = stats.Compute(s)
		}
	}

	result := &Result{
		ChunkSize:       cfg.ChunkSize,
		TokenCount:      cfg.TokenCount,
		NumChunks:       cfg.NumChunks(),
		RetrieveSeconds: mean,
		ThroughputGBps:  stats.Throughput(payloadMB, mean),
		PayloadMB:       payloadMB,
		Timings:         timings,
		ProfilingReport: profilingReport,
		ErrorCount:      errorCount,
		Errors:          errorMsgs,
	}

	if errorCount > 0 {
		logging.LogEvent("  ERRORS: %d", errorCount)
		for _, msg := range errorMsgs {
			logging.LogEvent("    - %s", msg)
		}
	}
	if result.Failed() {
		logging.LogEvent("  Results: Retrieve=FAILED")
	} else {
		logging.LogEvent("  Results: Retrieve=%.4fs, Throughput=%.2f GB/s", mean, result.ThroughputGBps)
	}

	return result, nil
}

// finishProfiledIteration stops the profiler and writes its artifacts:
// a text report, the raw profile, and optionally an HTML timing report.
func finishProfiledIteration(cfg RunConfig, prof *profiling.Profiler) string {
	report := prof.Stop()
	if report == "" {
		return ""
	}

	base := fmt.Sprintf("profile_retrieve_chunk%d_tokens%d_layers%d", cfg.ChunkSize, cfg.TokenCount, cfg.LayerCount)
	txtPath := filepath.Join(cfg.ArtifactDir, base+".txt")

	var sb strings.Builder
	fmt.Fprintf(&sb, "Retrieve Operation Profile - Chunk Size: %d, Tokens: %d, Layers: %d\n", cfg.ChunkSize, cfg.TokenCount, cfg.LayerCount)
	sb.WriteString(strings.Repeat("=", 80) + "\n")
	sb.WriteString(report)
	if err := writeTextFile(txtPath, sb.String()); err != nil {
		logging.LogEvent("  WARNING: could not write profile report %s: %v", txtPath, err)
	} else {
		logging.LogEvent("  Retrieve profiling saved to %s", txtPath)
	}

	if prof.SaveArtifact(filepath.Join(cfg.ArtifactDir, base+prof.ArtifactExt())) {
		logging.LogEvent("  Raw profile artifact saved alongside the report")
	}
	return report
}

// logTimingSummary prints the per-iteration retrieve times with outliers
// marked, then the aggregate line.
func logTimingSummary(samples []float64) {
	if len(samples) == 0 {
		return
	}
	agg := stats.Compute(samples)
	flags := stats.Outliers(samples)

	var sb strings.Builder
	for i, v := range samples {
		if flags[i] {
			fmt.Fprintf(&sb, "%.4fs* ", v)
		} else {
			fmt.Fprintf(&sb, "%.4fs ", v)
		}
	}
	ratio := math.Inf(1)
	if agg.Min > 0 {
		ratio = agg.Max / agg.Min
	}
	logging.LogEvent("  Retrieve times: %s(avg: %.4fs, std: %.4fs, max/min: %.2fx)", sb.String(), agg.Mean, agg.Std, ratio)
	logging.LogEvent("  (* indicates outlier > 1.5 std dev from mean)")
}

// failedResult records a configuration whose store path failed outright.
// No retrieve iterations were attempted.
func failedResult(cfg RunConfig, msg string) *Result {
	return &Result{
		ChunkSize:       cfg.ChunkSize,
		TokenCount:      cfg.TokenCount,
		NumChunks:       cfg.NumChunks(),
		RetrieveSeconds: math.Inf(1),
		ThroughputGBps:  0,
		PayloadMB:       0,
		Timings:         map[string]stats.Aggregate{},
		ErrorCount:      1,
		Errors:          []string{msg},
	}
}
