// internal/bench/report.go
package bench

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/charmbracelet/lipgloss"
	"github.com/fatih/color"

	"github.com/benchkit/chunkbench/internal/stats"
)

// resultRecord is the JSON shape of one configuration's result. The mean
// retrieve latency is a pointer so a fully failed configuration serializes
// as null rather than an unrepresentable +Inf.
type resultRecord struct {
	ChunkSize        int                        `json:"chunk_size"`
	NumTokens        int                        `json:"num_tokens"`
	NumChunks        int                        `json:"num_chunks"`
	RetrieveTime     *float64                   `json:"retrieve_time"`
	ThroughputGBps   float64                    `json:"throughput_gbps"`
	DataSizeMB       float64                    `json:"data_size_mb"`
	DetailedTimings  map[string]stats.Aggregate `json:"detailed_timings"`
	HasProfilingData bool                       `json:"has_profiling_data"`
	ErrorCount       int                        `json:"error_count"`
	ErrorDetails     []string                   `json:"error_details"`
}

func toRecord(r *Result) resultRecord {
	record := resultRecord{
		ChunkSize:        r.ChunkSize,
		NumTokens:        r.TokenCount,
		NumChunks:        r.NumChunks,
		ThroughputGBps:   r.ThroughputGBps,
		DataSizeMB:       r.PayloadMB,
		DetailedTimings:  r.Timings,
		HasProfilingData: r.ProfilingReport != "",
		ErrorCount:       r.ErrorCount,
		ErrorDetails:     r.Errors,
	}
	if record.ErrorDetails == nil {
		record.ErrorDetails = []string{}
	}
	if !r.Failed() {
		t := r.RetrieveSeconds
		record.RetrieveTime = &t
	}
	return record
}

// WriteResults writes the sweep's result records to a JSON file.
func WriteResults(path string, results []*Result) error {
	if dir := filepath.Dir(path); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("error creating results directory: %w", err)
		}
	}

	records := make([]resultRecord, 0, len(results))
	for _, r := range results {
		records = append(records, toRecord(r))
	}

	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("error creating result file: %w", err)
	}
	defer file.Close()

	encoder := json.NewEncoder(file)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(records); err != nil {
		return fmt.Errorf("error writing results to file: %w", err)
	}
	return nil
}

var (
	summaryHeaderStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("255"))
	summaryRowStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("86"))
	summaryFailStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
)

// PrintSummary renders the sweep's tabular summary to stdout.
func PrintSummary(results []*Result) {
	fmt.Println()
	fmt.Println(summaryHeaderStyle.Render("BENCHMARK SUMMARY"))
	fmt.Println(summaryHeaderStyle.Render(fmt.Sprintf("%-12s %-8s %-8s %-12s %-16s %-10s",
		"Chunk Size", "Tokens", "Chunks", "Retrieve(s)", "Throughput(GB/s)", "Errors")))

	for _, r := range results {
		retrieve := "FAILED"
		style := summaryFailStyle
		if !r.Failed() {
			retrieve = fmt.Sprintf("%.4f", r.RetrieveSeconds)
			style = summaryRowStyle
		}
		errStr := "-"
		if r.ErrorCount > 0 {
			errStr = fmt.Sprintf("%d", r.ErrorCount)
		}
		fmt.Println(style.Render(fmt.Sprintf("%-12d %-8d %-8d %-12s %-16.2f %-10s",
			r.ChunkSize, r.TokenCount, r.NumChunks, retrieve, r.ThroughputGBps, errStr)))
	}
	fmt.Println()
}

// PrintHints prints remediation suggestions after a sweep with failures.
func PrintHints(totalErrors int) {
	warn := color.New(color.FgYellow)
	warn.Printf("Total errors across the sweep: %d\n", totalErrors)
	warn.Println("SUGGESTED FIXES:")
	warn.Println("  * Retrieve errors usually mean chunks never became durable; check the per-iteration messages above")
	warn.Println("  * Try clearing the cache directory with --clear-cache")
	warn.Println("  * Try the in-memory backend with --use-memory to rule out filesystem issues")
	warn.Println("  * Try raising --store-timeout-seconds if stores time out as indeterminate")
}

func writeTextFile(path, content string) error {
	return os.WriteFile(path, []byte(content), 0o644)
}
