// internal/bench/htmlreport.go
package bench

import (
	"fmt"
	"os"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"

	"github.com/benchkit/chunkbench/internal/logging"
)

// writeTimingChart renders an interactive per-iteration retrieve-latency
// chart for one configuration. Failures are swallowed and reported as
// false; an HTML report is never worth failing a benchmark over.
func writeTimingChart(path string, cfg RunConfig, samples []float64) bool {
	bar := charts.NewBar()
	bar.SetGlobalOptions(
		charts.WithTitleOpts(opts.Title{
			Title:    "chunkbench: retrieve latency per iteration",
			Subtitle: fmt.Sprintf("chunk_size=%d tokens=%d layers=%d", cfg.ChunkSize, cfg.TokenCount, cfg.LayerCount),
		}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
	)

	labels := make([]string, 0, len(samples))
	values := make([]opts.BarData, 0, len(samples))
	for i, v := range samples {
		labels = append(labels, fmt.Sprintf("iter %d", i+1))
		values = append(values, opts.BarData{Value: v})
	}
	bar.SetXAxis(labels).AddSeries("retrieve_total (s)", values)

	file, err := os.Create(path)
	if err != nil {
		logging.LogEvent("  WARNING: could not create HTML report %s: %v", path, err)
		return false
	}
	defer file.Close()

	if err := bar.Render(file); err != nil {
		logging.LogEvent("  WARNING: could not render HTML report %s: %v", path, err)
		return false
	}
	return true
}
