package stats

import (
	"math"
	"testing"
)

func TestComputeKnownValues(t *testing.T) {
	agg := Compute([]float64{1, 2, 3, 4})
	if agg.Mean != 2.5 {
		t.Fatalf("mean = %f", agg.Mean)
	}
	if agg.Min != 1 || agg.Max != 4 {
		t.Fatalf("min/max = %f/%f", agg.Min, agg.Max)
	}
	// Population std of {1,2,3,4} is sqrt(1.25).
	if want := math.Sqrt(1.25); math.Abs(agg.Std-want) > 1e-12 {
		t.Fatalf("std = %f, want %f", agg.Std, want)
	}
}

func TestComputeIdempotent(t *testing.T) {
	samples := []float64{0.13, 0.11, 0.45, 0.12}
	first := Compute(samples)
	second := Compute(samples)
	if first != second {
		t.Fatalf("aggregation not idempotent: %+v vs %+v", first, second)
	}
}

func TestComputeEmpty(t *testing.T) {
	if agg := Compute(nil); agg != (Aggregate{}) {
		t.Fatalf("empty aggregate = %+v", agg)
	}
}

func TestMeanEmptyIsInf(t *testing.T) {
	if !math.IsInf(Mean(nil), 1) {
		t.Fatal("mean of no samples must be +Inf")
	}
	if got := Mean([]float64{2, 4}); got != 3 {
		t.Fatalf("mean = %f", got)
	}
}

func TestOutliersShortSequencesNeverFlagged(t *testing.T) {
	cases := [][]float64{
		{},
		{100},
		{0.001, 100000},
	}
	for _, samples := range cases {
		for i, flagged := range Outliers(samples) {
			if flagged {
				t.Fatalf("sample %d of %v flagged despite sequence length %d", i, samples, len(samples))
			}
		}
	}
}

func TestOutliersFlagged(t *testing.T) {
	samples := []float64{0.10, 0.11, 0.10, 0.12, 0.90}
	flags := Outliers(samples)
	if !flags[4] {
		t.Fatal("expected the 0.90 sample to be flagged")
	}
	for i := 0; i < 4; i++ {
		if flags[i] {
			t.Fatalf("sample %d unexpectedly flagged", i)
		}
	}
}

func TestThroughput(t *testing.T) {
	if got := Throughput(64, math.Inf(1)); got != 0 {
		t.Fatalf("throughput at +Inf latency = %f", got)
	}
	if got := Throughput(64, 0); got != 0 {
		t.Fatalf("throughput at zero latency = %f", got)
	}
	if got := Throughput(64, -1); got != 0 {
		t.Fatalf("throughput at negative latency = %f", got)
	}
	want := 64.0 / 0.5 / 1024
	if got := Throughput(64, 0.5); math.Abs(got-want) > 1e-12 {
		t.Fatalf("throughput = %f, want %f", got, want)
	}
}
