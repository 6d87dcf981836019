package models

import (
	"sort"
	"time"
)

// maxSampleErrors bounds the distinct error messages kept per operation
const maxSampleErrors = 5

// CallSample is the outcome of one benchmarked call
type CallSample struct {
	Duration   time.Duration
	StatusCode int
	Error      string
}

// BenchmarkResult holds latency and error statistics of one operation call
// repeated with fixed arguments
type BenchmarkResult struct {
	Operation string   `json:"operation"`
	Method    string   `json:"method"`
	Route     string   `json:"route"`
	Args      []string `json:"args,omitempty"`

	Iterations  int `json:"iterations"`
	Concurrency int `json:"concurrency"`
	WarmupRuns  int `json:"warmup_runs"`

	// Latencies of successful calls, nanoseconds in JSON
	MinTime time.Duration `json:"min_time_ns"`
	MaxTime time.Duration `json:"max_time_ns"`
	AvgTime time.Duration `json:"avg_time_ns"`
	P50Time time.Duration `json:"p50_time_ns"`
	P90Time time.Duration `json:"p90_time_ns"`
	P99Time time.Duration `json:"p99_time_ns"`

	RequestsPerSec float64       `json:"requests_per_sec"`
	TotalDuration  time.Duration `json:"total_duration_ns"`

	SuccessCount int     `json:"success_count"`
	ErrorCount   int     `json:"error_count"`
	ErrorRate    float64 `json:"error_rate"`

	StatusCodes  map[int]int `json:"status_codes"`
	SampleErrors []string    `json:"sample_errors,omitempty"`
}

// Target names the call, e.g. "download my/object"
func (r BenchmarkResult) Target() string {
	if len(r.Args) == 0 {
		return r.Operation
	}
	target := r.Operation
	for _, a := range r.Args {
		target += " " + a
	}
	return target
}

// Tally folds samples into the result. Latency figures only count calls
// that succeeded; every sample with a status code lands in StatusCodes.
// Throughput and error rate use Iterations and TotalDuration, which must be
// set beforehand.
func (r *BenchmarkResult) Tally(samples []CallSample) {
	if r.StatusCodes == nil {
		r.StatusCodes = make(map[int]int)
	}

	var latencies []time.Duration
	var sum time.Duration
	seen := make(map[string]bool)
	for _, s := range samples {
		if s.StatusCode > 0 {
			r.StatusCodes[s.StatusCode]++
		}
		if s.Error == "" {
			r.SuccessCount++
			latencies = append(latencies, s.Duration)
			sum += s.Duration
			continue
		}
		r.ErrorCount++
		if len(r.SampleErrors) < maxSampleErrors && !seen[s.Error] {
			r.SampleErrors = append(r.SampleErrors, s.Error)
			seen[s.Error] = true
		}
	}

	if len(latencies) > 0 {
		sort.Slice(latencies, func(i, j int) bool { return latencies[i] < latencies[j] })
		r.MinTime = latencies[0]
		r.MaxTime = latencies[len(latencies)-1]
		r.AvgTime = sum / time.Duration(len(latencies))
		r.P50Time = Percentile(latencies, 50)
		r.P90Time = Percentile(latencies, 90)
		r.P99Time = Percentile(latencies, 99)
	}

	if r.TotalDuration > 0 {
		r.RequestsPerSec = float64(r.Iterations) / r.TotalDuration.Seconds()
	}
	if r.Iterations > 0 {
		r.ErrorRate = float64(r.ErrorCount) / float64(r.Iterations) * 100
	}
}

// MarkFailed records a benchmark that could not run at all
func (r *BenchmarkResult) MarkFailed(err error) {
	r.SampleErrors = append(r.SampleErrors, err.Error())
	r.ErrorCount = r.Iterations
	r.ErrorRate = 100
}

// Percentile interpolates the p-th percentile of sorted durations
func Percentile(sorted []time.Duration, p int) time.Duration {
	if len(sorted) == 0 {
		return 0
	}
	if p <= 0 {
		return sorted[0]
	}
	if p >= 100 {
		return sorted[len(sorted)-1]
	}

	index := float64(len(sorted)-1) * float64(p) / 100.0
	lower := int(index)
	upper := lower + 1
	if upper >= len(sorted) {
		return sorted[lower]
	}

	weight := index - float64(lower)
	return time.Duration(float64(sorted[lower])*(1-weight) + float64(sorted[upper])*weight)
}

// BenchmarkSummary aggregates the results of one benchmark run
type BenchmarkSummary struct {
	TotalOperations int `json:"total_operations"`
	Iterations      int `json:"iterations_per_operation"`
	Concurrency     int `json:"concurrency"`
	WarmupRuns      int `json:"warmup_runs"`

	OverallMinTime time.Duration `json:"overall_min_time_ns"`
	OverallMaxTime time.Duration `json:"overall_max_time_ns"`
	OverallAvgTime time.Duration `json:"overall_avg_time_ns"`

	TotalRequests     int           `json:"total_requests"`
	TotalSuccesses    int           `json:"total_successes"`
	TotalErrors       int           `json:"total_errors"`
	OverallErrorRate  float64       `json:"overall_error_rate"`
	TotalDuration     time.Duration `json:"total_duration_ns"`
	OverallReqsPerSec float64       `json:"overall_requests_per_sec"`

	// Status codes seen across all operations
	StatusCodes map[int]int `json:"status_codes,omitempty"`

	Results []BenchmarkResult `json:"results"`
}

// AddResult appends a result and recomputes the aggregates
func (s *BenchmarkSummary) AddResult(result BenchmarkResult) {
	s.Results = append(s.Results, result)
	s.aggregate()
}

// Result returns the first result for the named operation
func (s *BenchmarkSummary) Result(operation string) (BenchmarkResult, bool) {
	for _, r := range s.Results {
		if r.Operation == operation {
			return r, true
		}
	}
	return BenchmarkResult{}, false
}

// aggregate rebuilds the totals from Results. Operations without a single
// successful call have no latencies and are left out of min, max and the
// average, which is weighted by successful calls.
func (s *BenchmarkSummary) aggregate() {
	s.TotalOperations = len(s.Results)
	s.TotalRequests, s.TotalSuccesses, s.TotalErrors = 0, 0, 0
	s.OverallMinTime, s.OverallMaxTime, s.OverallAvgTime = 0, 0, 0
	s.OverallErrorRate = 0
	s.StatusCodes = nil

	var weighted time.Duration
	for _, r := range s.Results {
		s.TotalRequests += r.Iterations
		s.TotalSuccesses += r.SuccessCount
		s.TotalErrors += r.ErrorCount

		for code, n := range r.StatusCodes {
			if s.StatusCodes == nil {
				s.StatusCodes = make(map[int]int)
			}
			s.StatusCodes[code] += n
		}

		if r.SuccessCount == 0 {
			continue
		}
		if s.OverallMinTime == 0 || r.MinTime < s.OverallMinTime {
			s.OverallMinTime = r.MinTime
		}
		if r.MaxTime > s.OverallMaxTime {
			s.OverallMaxTime = r.MaxTime
		}
		weighted += r.AvgTime * time.Duration(r.SuccessCount)
	}

	if s.TotalRequests > 0 {
		s.OverallErrorRate = float64(s.TotalErrors) / float64(s.TotalRequests) * 100
	}
	if s.TotalSuccesses > 0 {
		s.OverallAvgTime = weighted / time.Duration(s.TotalSuccesses)
	}
}

// Finalize records the wall-clock duration of the run
func (s *BenchmarkSummary) Finalize(totalDuration time.Duration) {
	s.TotalDuration = totalDuration
	if totalDuration > 0 {
		s.OverallReqsPerSec = float64(s.TotalRequests) / totalDuration.Seconds()
	}
}
