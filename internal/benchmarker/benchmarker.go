package benchmarker

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/moamenhredeen/tcobject/internal/client"
	"github.com/moamenhredeen/tcobject/internal/models"
	"golang.org/x/time/rate"
)

// EventType represents the type of benchmark event
type EventType int

const (
	// EventWarmupStarting indicates warmup phase is starting for an operation
	EventWarmupStarting EventType = iota
	// EventWarmupProgress indicates warmup progress
	EventWarmupProgress
	// EventWarmupCompleted indicates warmup phase completed
	EventWarmupCompleted
	// EventBenchmarkStarting indicates benchmark is starting for an operation
	EventBenchmarkStarting
	// EventBenchmarkProgress indicates benchmark progress (periodic updates)
	EventBenchmarkProgress
	// EventBenchmarkCompleted indicates benchmark completed for an operation
	EventBenchmarkCompleted
)

// BenchmarkEvent represents an event during benchmark execution
type BenchmarkEvent struct {
	Type     EventType
	Target   Target
	Result   *models.BenchmarkResult // nil until completed
	Index    int                     // current target index (0-based)
	Total    int                     // total number of targets
	Progress int                     // current iteration count
	MaxIter  int                     // max iterations for this phase

	// Running stats (for progress events)
	RunningAvg    time.Duration
	RunningReqSec float64
	ErrorCount    int
}

// OnBenchmarkEvent is a callback function for benchmark events
type OnBenchmarkEvent func(event BenchmarkEvent)

// Target is one operation call to repeat
type Target struct {
	Operation models.Operation
	Args      []string
	Payload   interface{}
}

// Caller executes object service operations by name
type Caller interface {
	Call(ctx context.Context, name string, args []string, payload, result interface{}, opts ...client.CallOption) (*client.CallSummary, error)
}

// Config holds benchmark configuration
type Config struct {
	Iterations       int           // Number of calls per operation
	Concurrency      int           // Number of concurrent workers
	WarmupRuns       int           // Number of warmup iterations (discarded)
	RateLimit        float64       // Max requests per second (0 = unlimited)
	Timeout          time.Duration // Per-request timeout
	DisableKeepAlive bool          // Disable HTTP connection reuse
}

// DefaultConfig returns default benchmark configuration
func DefaultConfig() Config {
	return Config{
		Iterations:       100,
		Concurrency:      1,
		WarmupRuns:       5,
		RateLimit:        0,
		Timeout:          30 * time.Second,
		DisableKeepAlive: false,
	}
}

// HTTPClient returns an HTTP client tuned for the configured concurrency and
// keepalive settings, to be handed to the client runtime
func HTTPClient(config Config) *http.Client {
	transport := &http.Transport{
		Proxy:               http.ProxyFromEnvironment,
		DisableKeepAlives:   config.DisableKeepAlive,
		MaxIdleConns:        100,
		MaxIdleConnsPerHost: max(1, config.Concurrency),
		IdleConnTimeout:     90 * time.Second,
		DialContext: (&net.Dialer{
			Timeout:   30 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
	}

	return &http.Client{
		Timeout:   config.Timeout,
		Transport: transport,
	}
}

// Benchmarker repeats object service calls and measures their latency
type Benchmarker struct {
	config  Config
	caller  Caller
	limiter *rate.Limiter
}

// NewBenchmarker creates a new benchmarker instance. Calls go through caller,
// which should not retry so that failures are counted as they happen.
func NewBenchmarker(caller Caller, config Config) *Benchmarker {
	if config.Concurrency < 1 {
		config.Concurrency = 1
	}

	// Create rate limiter if configured
	var limiter *rate.Limiter
	if config.RateLimit > 0 {
		limiter = rate.NewLimiter(rate.Limit(config.RateLimit), max(1, int(config.RateLimit)))
	}

	return &Benchmarker{
		config:  config,
		caller:  caller,
		limiter: limiter,
	}
}

// requestResult holds the result of a single call
type requestResult = models.CallSample

// BenchmarkTarget benchmarks a single operation call
func (b *Benchmarker) BenchmarkTarget(
	ctx context.Context,
	target Target,
	onEvent OnBenchmarkEvent,
	index, total int,
) (models.BenchmarkResult, error) {
	op := target.Operation
	result := models.BenchmarkResult{
		Operation:   op.Name,
		Method:      op.Method,
		Route:       op.Route,
		Args:        target.Args,
		Iterations:  b.config.Iterations,
		Concurrency: b.config.Concurrency,
		WarmupRuns:  b.config.WarmupRuns,
		StatusCodes: make(map[int]int),
	}

	// A call that cannot be built fails the same way every time
	if _, err := op.ExpandRoute(target.Args, client.Escape); err != nil {
		return result, fmt.Errorf("invalid target: %w", err)
	}

	// Warmup phase
	if b.config.WarmupRuns > 0 && onEvent != nil {
		onEvent(BenchmarkEvent{
			Type:    EventWarmupStarting,
			Target:  target,
			Index:   index,
			Total:   total,
			MaxIter: b.config.WarmupRuns,
		})
	}

	// Run warmup (single-threaded, no stats collection)
	for i := 0; i < b.config.WarmupRuns; i++ {
		select {
		case <-ctx.Done():
			return result, ctx.Err()
		default:
		}

		b.execute(ctx, target)

		if onEvent != nil && (i+1)%max(1, b.config.WarmupRuns/5) == 0 {
			onEvent(BenchmarkEvent{
				Type:     EventWarmupProgress,
				Target:   target,
				Index:    index,
				Total:    total,
				Progress: i + 1,
				MaxIter:  b.config.WarmupRuns,
			})
		}
	}

	if b.config.WarmupRuns > 0 && onEvent != nil {
		onEvent(BenchmarkEvent{
			Type:   EventWarmupCompleted,
			Target: target,
			Index:  index,
			Total:  total,
		})
	}

	// Benchmark phase
	if onEvent != nil {
		onEvent(BenchmarkEvent{
			Type:    EventBenchmarkStarting,
			Target:  target,
			Index:   index,
			Total:   total,
			MaxIter: b.config.Iterations,
		})
	}

	startTime := time.Now()
	results := b.runConcurrentBenchmark(ctx, target, onEvent, index, total)
	result.TotalDuration = time.Since(startTime)

	result = b.processResults(result, results)

	if onEvent != nil {
		onEvent(BenchmarkEvent{
			Type:   EventBenchmarkCompleted,
			Target: target,
			Result: &result,
			Index:  index,
			Total:  total,
		})
	}

	return result, ctx.Err()
}

// runConcurrentBenchmark executes the benchmark with worker pool
func (b *Benchmarker) runConcurrentBenchmark(
	ctx context.Context,
	target Target,
	onEvent OnBenchmarkEvent,
	index, total int,
) []requestResult {
	results := make([]requestResult, b.config.Iterations)
	jobs := make(chan int, b.config.Iterations)

	var wg sync.WaitGroup
	var mu sync.Mutex
	var completed int
	var errorCount int
	start := time.Now()

	// Progress reporting interval
	progressInterval := max(1, b.config.Iterations/20) // ~5% intervals

	for w := 0; w < b.config.Concurrency; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				if ctx.Err() != nil {
					results[i] = requestResult{Error: ctx.Err().Error()}
					continue
				}

				if b.limiter != nil {
					if err := b.limiter.Wait(ctx); err != nil {
						results[i] = requestResult{Error: fmt.Sprintf("rate limiter: %v", err)}
						continue
					}
				}

				res := b.execute(ctx, target)
				results[i] = res

				mu.Lock()
				completed++
				if res.Error != "" {
					errorCount++
				}
				currentCompleted := completed
				currentErrorCount := errorCount
				mu.Unlock()

				if onEvent != nil && currentCompleted%progressInterval == 0 {
					elapsed := time.Since(start)
					var reqsPerSec float64
					if elapsed > 0 {
						reqsPerSec = float64(currentCompleted) / elapsed.Seconds()
					}

					onEvent(BenchmarkEvent{
						Type:          EventBenchmarkProgress,
						Target:        target,
						Index:         index,
						Total:         total,
						Progress:      currentCompleted,
						MaxIter:       b.config.Iterations,
						RunningAvg:    elapsed / time.Duration(currentCompleted) * time.Duration(b.config.Concurrency),
						RunningReqSec: reqsPerSec,
						ErrorCount:    currentErrorCount,
					})
				}
			}
		}()
	}

	for i := 0; i < b.config.Iterations; i++ {
		jobs <- i
	}
	close(jobs)

	wg.Wait()
	return results
}

// execute performs one call and returns its timing. A 4xx or 5xx answer
// counts as an error but keeps its status code.
func (b *Benchmarker) execute(ctx context.Context, target Target) requestResult {
	result := requestResult{}

	startTime := time.Now()
	summary, err := b.caller.Call(ctx, target.Operation.Name, target.Args, target.Payload, nil)
	result.Duration = time.Since(startTime)

	if summary != nil {
		result.StatusCode = summary.StatusCode
	}
	if err != nil {
		var httpErr *client.HTTPError
		if errors.As(err, &httpErr) {
			result.StatusCode = httpErr.StatusCode
			result.Error = fmt.Sprintf("status %d", httpErr.StatusCode)
		} else {
			result.Error = fmt.Sprintf("call failed: %v", err)
		}
	}
	return result
}

// processResults calculates statistics from raw results
func (b *Benchmarker) processResults(result models.BenchmarkResult, rawResults []requestResult) models.BenchmarkResult {
	if len(rawResults) == 0 {
		return result
	}
	result.Tally(rawResults)
	return result
}

// BenchmarkTargets benchmarks several calls one after another with live
// event reporting
func (b *Benchmarker) BenchmarkTargets(
	ctx context.Context,
	targets []Target,
	onEvent OnBenchmarkEvent,
) models.BenchmarkSummary {
	summary := models.BenchmarkSummary{
		Iterations:  b.config.Iterations,
		Concurrency: b.config.Concurrency,
		WarmupRuns:  b.config.WarmupRuns,
		Results:     make([]models.BenchmarkResult, 0, len(targets)),
	}

	startTime := time.Now()

	for i, target := range targets {
		if ctx.Err() != nil {
			break
		}

		result, err := b.BenchmarkTarget(ctx, target, onEvent, i, len(targets))
		if err != nil && result.SuccessCount == 0 {
			result.MarkFailed(err)
		}
		summary.AddResult(result)
	}

	summary.Finalize(time.Since(startTime))
	return summary
}
