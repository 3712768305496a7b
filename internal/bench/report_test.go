package bench

import (
	"encoding/json"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/benchkit/chunkbench/internal/stats"
)

func TestWriteResultsSerializesFailureAsNull(t *testing.T) {
	results := []*Result{
		{
			ChunkSize:       256,
			TokenCount:      1024,
			NumChunks:       4,
			RetrieveSeconds: 0.0123,
			ThroughputGBps:  5.1,
			PayloadMB:       64,
			Timings:         map[string]stats.Aggregate{"retrieve_total": {Mean: 0.0123}},
		},
		{
			ChunkSize:       512,
			TokenCount:      1024,
			NumChunks:       2,
			RetrieveSeconds: math.Inf(1),
			ErrorCount:      1,
			Errors:          []string{"initial store failed: disk full"},
		},
	}

	path := filepath.Join(t.TempDir(), "out", "results.json")
	if err := WriteResults(path, results); err != nil {
		t.Fatalf("write: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	var records []struct {
		ChunkSize    int      `json:"chunk_size"`
		RetrieveTime *float64 `json:"retrieve_time"`
		ErrorDetails []string `json:"error_details"`
	}
	if err := json.Unmarshal(data, &records); err != nil {
		t.Fatalf("results file is not valid JSON: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("record count = %d, want 2", len(records))
	}
	if records[0].RetrieveTime == nil || *records[0].RetrieveTime != 0.0123 {
		t.Fatalf("healthy record retrieve_time: %v", records[0].RetrieveTime)
	}
	if records[1].RetrieveTime != nil {
		t.Fatalf("failed record must serialize retrieve_time as null, got %v", *records[1].RetrieveTime)
	}
	if records[1].ErrorDetails == nil {
		t.Fatal("error_details must be an array, not null")
	}
	if records[0].ErrorDetails == nil {
		t.Fatal("empty error_details must serialize as [], not null")
	}
}

func TestPrintSummaryHandlesFailedRows(t *testing.T) {
	// Smoke test: a mixed healthy/failed result set must render without
	// panicking on the +Inf sentinel.
	PrintSummary([]*Result{
		{ChunkSize: 64, TokenCount: 256, NumChunks: 4, RetrieveSeconds: 0.01, ThroughputGBps: 1.5},
		{ChunkSize: 128, TokenCount: 256, NumChunks: 2, RetrieveSeconds: math.Inf(1), ErrorCount: 3},
	})
}
