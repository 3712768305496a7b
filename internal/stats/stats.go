// internal/stats/stats.go
// Package stats aggregates timing samples and derives throughput.
package stats

import "math"

// outlierThreshold flags samples more than this many standard deviations
// from the mean.
const outlierThreshold = 1.5

// Aggregate holds the summary statistics for one operation's samples.
type Aggregate struct {
	Mean float64 `json:"mean"`
	Std  float64 `json:"std"`
	Min  float64 `json:"min"`
	Max  float64 `json:"max"`
}

// Compute returns the mean, population standard deviation, min, and max of
// samples. An empty sequence yields a zero Aggregate.
func Compute(samples []float64) Aggregate {
	if len(samples) == 0 {
		return Aggregate{}
	}
	agg := Aggregate{Min: samples[0], Max: samples[0]}
	var sum float64
	for _, v := range samples {
		sum += v
		if v < agg.Min {
			agg.Min = v
		}
		if v > agg.Max {
			agg.Max = v
		}
	}
	agg.Mean = sum / float64(len(samples))

	var sq float64
	for _, v := range samples {
		d := v - agg.Mean
		sq += d * d
	}
	agg.Std = math.Sqrt(sq / float64(len(samples)))
	return agg
}

// Mean returns the arithmetic mean of samples, or +Inf when the sequence is
// empty (the sentinel for "every iteration failed").
func Mean(samples []float64) float64 {
	if len(samples) == 0 {
		return math.Inf(1)
	}
	var sum float64
	for _, v := range samples {
		sum += v
	}
	return sum / float64(len(samples))
}

// Outliers flags samples deviating from the mean by more than 1.5 standard
// deviations. Sequences of two or fewer samples are never flagged: with so
// few points the deviation estimate degenerates.
func Outliers(samples []float64) []bool {
	flags := make([]bool, len(samples))
	if len(samples) <= 2 {
		return flags
	}
	agg := Compute(samples)
	for i, v := range samples {
		if math.Abs(v-agg.Mean) > outlierThreshold*agg.Std {
			flags[i] = true
		}
	}
	return flags
}

// Throughput derives GB/s from a payload size in MB and a mean latency in
// seconds. Defined as 0 for infinite or non-positive latencies.
func Throughput(payloadMB, meanSeconds float64) float64 {
	if math.IsInf(meanSeconds, 1) || meanSeconds <= 0 {
		return 0
	}
	return payloadMB / meanSeconds / 1024
}
