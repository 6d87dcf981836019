package benchmarker

import (
	"context"
	"net/http"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/moamenhredeen/tcobject/internal/client"
	"github.com/moamenhredeen/tcobject/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var downloadOp = models.Operation{Name: "download", Method: "GET", Route: "/download/{name}", Args: []string{"name"}}

// fakeCaller answers every call with status, failing every failEvery-th call
// with a 500 when failEvery is set
type fakeCaller struct {
	calls     int64
	status    int
	failEvery int64
}

func (f *fakeCaller) Call(ctx context.Context, name string, args []string, payload, result interface{}, opts ...client.CallOption) (*client.CallSummary, error) {
	n := atomic.AddInt64(&f.calls, 1)
	time.Sleep(time.Millisecond)
	if f.failEvery > 0 && n%f.failEvery == 0 {
		summary := &client.CallSummary{Operation: name, StatusCode: http.StatusInternalServerError, Attempts: 1}
		return summary, &client.HTTPError{Operation: name, StatusCode: http.StatusInternalServerError}
	}
	return &client.CallSummary{Operation: name, StatusCode: f.status, Attempts: 1}, nil
}

func TestProcessResults(t *testing.T) {
	b := NewBenchmarker(&fakeCaller{}, Config{Iterations: 4, Concurrency: 1})

	result := b.processResults(models.BenchmarkResult{
		Iterations:    4,
		TotalDuration: time.Second,
		StatusCodes:   make(map[int]int),
	}, []requestResult{
		{Duration: 10 * time.Millisecond, StatusCode: 200},
		{Duration: 30 * time.Millisecond, StatusCode: 200},
		{Duration: 5 * time.Millisecond, StatusCode: 500, Error: "status 500"},
		{Duration: 5 * time.Millisecond, StatusCode: 500, Error: "status 500"},
	})

	assert.Equal(t, 2, result.SuccessCount)
	assert.Equal(t, 2, result.ErrorCount)
	assert.Equal(t, 50.0, result.ErrorRate)
	assert.Equal(t, 4.0, result.RequestsPerSec)
	assert.Equal(t, 10*time.Millisecond, result.MinTime)
	assert.Equal(t, 30*time.Millisecond, result.MaxTime)
	assert.Equal(t, 20*time.Millisecond, result.AvgTime)
	assert.Equal(t, map[int]int{200: 2, 500: 2}, result.StatusCodes)
	assert.Equal(t, []string{"status 500"}, result.SampleErrors)
}

func TestBenchmarkTarget(t *testing.T) {
	caller := &fakeCaller{status: http.StatusSeeOther}
	b := NewBenchmarker(caller, Config{Iterations: 40, Concurrency: 4, WarmupRuns: 5})

	var mu sync.Mutex
	seen := make(map[EventType]int)
	result, err := b.BenchmarkTarget(context.Background(), Target{Operation: downloadOp, Args: []string{"obj"}}, func(e BenchmarkEvent) {
		mu.Lock()
		defer mu.Unlock()
		seen[e.Type]++
	}, 0, 1)
	require.NoError(t, err)

	assert.Equal(t, int64(45), atomic.LoadInt64(&caller.calls))
	assert.Equal(t, "download", result.Operation)
	assert.Equal(t, "/download/{name}", result.Route)
	assert.Equal(t, []string{"obj"}, result.Args)
	assert.Equal(t, 40, result.SuccessCount)
	assert.Equal(t, map[int]int{http.StatusSeeOther: 40}, result.StatusCodes)
	assert.Greater(t, result.P99Time, time.Duration(0))

	assert.Equal(t, 1, seen[EventWarmupStarting])
	assert.Equal(t, 1, seen[EventWarmupCompleted])
	assert.Equal(t, 1, seen[EventBenchmarkStarting])
	assert.Equal(t, 1, seen[EventBenchmarkCompleted])
	assert.Equal(t, 20, seen[EventBenchmarkProgress])
}

func TestBenchmarkTargetCountsErrors(t *testing.T) {
	caller := &fakeCaller{status: http.StatusOK, failEvery: 2}
	b := NewBenchmarker(caller, Config{Iterations: 10, Concurrency: 1})

	result, err := b.BenchmarkTarget(context.Background(), Target{Operation: downloadOp, Args: []string{"obj"}}, nil, 0, 1)
	require.NoError(t, err)

	assert.Equal(t, 5, result.ErrorCount)
	assert.Equal(t, 5, result.SuccessCount)
	assert.Equal(t, map[int]int{200: 5, 500: 5}, result.StatusCodes)
	assert.Equal(t, []string{"status 500"}, result.SampleErrors)
}

func TestBenchmarkTargetsInvalidArgs(t *testing.T) {
	caller := &fakeCaller{status: http.StatusOK}
	b := NewBenchmarker(caller, Config{Iterations: 10, Concurrency: 2})

	summary := b.BenchmarkTargets(context.Background(), []Target{{Operation: downloadOp}}, nil)

	require.Len(t, summary.Results, 1)
	assert.Equal(t, 100.0, summary.Results[0].ErrorRate)
	assert.Equal(t, 10, summary.TotalErrors)
	assert.Equal(t, int64(0), atomic.LoadInt64(&caller.calls))
}

func TestBenchmarkTargetsRateLimit(t *testing.T) {
	caller := &fakeCaller{status: http.StatusOK}
	b := NewBenchmarker(caller, Config{Iterations: 6, Concurrency: 2, RateLimit: 20})

	start := time.Now()
	summary := b.BenchmarkTargets(context.Background(), []Target{{Operation: downloadOp, Args: []string{"obj"}}}, nil)

	// a burst of 20 is allowed, so only check that everything ran
	assert.Equal(t, 6, summary.TotalSuccesses)
	assert.Equal(t, 1, summary.TotalOperations)
	assert.Greater(t, summary.OverallReqsPerSec, 0.0)
	assert.Less(t, time.Since(start), 5*time.Second)
}

func TestBenchmarkTargetsCanceled(t *testing.T) {
	caller := &fakeCaller{status: http.StatusOK}
	b := NewBenchmarker(caller, Config{Iterations: 10, Concurrency: 1})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	summary := b.BenchmarkTargets(ctx, []Target{{Operation: downloadOp, Args: []string{"obj"}}}, nil)
	assert.Empty(t, summary.Results)
	assert.Equal(t, int64(0), atomic.LoadInt64(&caller.calls))
}

func TestHTTPClient(t *testing.T) {
	hc := HTTPClient(Config{Timeout: 3 * time.Second, Concurrency: 8, DisableKeepAlive: true})

	assert.Equal(t, 3*time.Second, hc.Timeout)
	transport, ok := hc.Transport.(*http.Transport)
	require.True(t, ok)
	assert.True(t, transport.DisableKeepAlives)
	assert.Equal(t, 8, transport.MaxIdleConnsPerHost)
}
