package models

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestCheckSummaryAddResult(t *testing.T) {
	var s CheckSummary
	s.AddResult(CheckResult{Operation: "ping", Passed: true})
	s.AddResult(CheckResult{Operation: "download", Error: "boom"})

	assert.Equal(t, 2, s.TotalChecks)
	assert.Equal(t, 1, s.Passed)
	assert.Equal(t, 1, s.Failed)
	assert.Len(t, s.Results, 2)
}

func TestBenchmarkSummaryAggregates(t *testing.T) {
	var s BenchmarkSummary
	s.AddResult(BenchmarkResult{
		Operation:    "ping",
		Iterations:   10,
		SuccessCount: 10,
		MinTime:      2 * time.Millisecond,
		MaxTime:      4 * time.Millisecond,
		AvgTime:      3 * time.Millisecond,
		StatusCodes:  map[int]int{200: 10},
	})
	s.AddResult(BenchmarkResult{
		Operation:    "download",
		Args:         []string{"obj"},
		Iterations:   30,
		SuccessCount: 20,
		ErrorCount:   10,
		MinTime:      time.Millisecond,
		MaxTime:      9 * time.Millisecond,
		AvgTime:      6 * time.Millisecond,
		StatusCodes:  map[int]int{303: 20, 500: 10},
	})
	s.Finalize(2 * time.Second)

	assert.Equal(t, 2, s.TotalOperations)
	assert.Equal(t, 40, s.TotalRequests)
	assert.Equal(t, 30, s.TotalSuccesses)
	assert.Equal(t, 10, s.TotalErrors)
	assert.Equal(t, 25.0, s.OverallErrorRate)
	assert.Equal(t, time.Millisecond, s.OverallMinTime)
	assert.Equal(t, 9*time.Millisecond, s.OverallMaxTime)
	// weighted by successful calls: (10*3 + 20*6) / 30
	assert.Equal(t, 5*time.Millisecond, s.OverallAvgTime)
	assert.Equal(t, 20.0, s.OverallReqsPerSec)
	assert.Equal(t, map[int]int{200: 10, 303: 20, 500: 10}, s.StatusCodes)

	r, ok := s.Result("download")
	assert.True(t, ok)
	assert.Equal(t, "download obj", r.Target())
	_, ok = s.Result("uploadObject")
	assert.False(t, ok)
}

func TestBenchmarkSummarySkipsFailedLatencies(t *testing.T) {
	var s BenchmarkSummary
	s.AddResult(BenchmarkResult{
		Operation:    "ping",
		Iterations:   4,
		SuccessCount: 4,
		MinTime:      3 * time.Millisecond,
		MaxTime:      5 * time.Millisecond,
		AvgTime:      4 * time.Millisecond,
	})

	failed := BenchmarkResult{Operation: "download", Iterations: 4}
	failed.MarkFailed(errors.New("connection refused"))
	s.AddResult(failed)

	assert.Equal(t, 3*time.Millisecond, s.OverallMinTime)
	assert.Equal(t, 4*time.Millisecond, s.OverallAvgTime)
	assert.Equal(t, 50.0, s.OverallErrorRate)
	assert.Equal(t, []string{"connection refused"}, s.Results[1].SampleErrors)
}

func TestPercentile(t *testing.T) {
	sorted := []time.Duration{10, 20, 30, 40, 50}

	assert.Equal(t, time.Duration(10), Percentile(sorted, 0))
	assert.Equal(t, time.Duration(30), Percentile(sorted, 50))
	assert.Equal(t, time.Duration(50), Percentile(sorted, 100))
	assert.Equal(t, time.Duration(25), Percentile([]time.Duration{10, 20, 30, 40}, 50))
	assert.Equal(t, time.Duration(0), Percentile(nil, 50))
}

func TestBenchmarkResultTally(t *testing.T) {
	r := BenchmarkResult{Operation: "ping", Iterations: 8, TotalDuration: 2 * time.Second}
	samples := []CallSample{
		{Duration: 40 * time.Millisecond, StatusCode: 200},
		{Duration: 10 * time.Millisecond, StatusCode: 200},
		{Duration: time.Millisecond, Error: "call failed: eof"},
	}
	for i := 0; i < 5; i++ {
		samples = append(samples, CallSample{Duration: time.Millisecond, StatusCode: 500 + i, Error: fmt.Sprintf("status %d", 500+i)})
	}
	r.Tally(samples)

	assert.Equal(t, 2, r.SuccessCount)
	assert.Equal(t, 6, r.ErrorCount)
	assert.Equal(t, 75.0, r.ErrorRate)
	assert.Equal(t, 4.0, r.RequestsPerSec)
	assert.Equal(t, 10*time.Millisecond, r.MinTime)
	assert.Equal(t, 40*time.Millisecond, r.MaxTime)
	assert.Equal(t, 25*time.Millisecond, r.AvgTime)
	assert.Len(t, r.SampleErrors, maxSampleErrors)
	assert.Equal(t, "call failed: eof", r.SampleErrors[0])
	assert.Equal(t, 2, r.StatusCodes[200])
	assert.NotContains(t, r.StatusCodes, 0)
}
