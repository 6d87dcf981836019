/*
Copyright © 2026 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"sort"
	"strings"
	"syscall"
	"time"

	"github.com/briandowns/spinner"
	"github.com/moamenhredeen/tcobject/internal/apispec"
	"github.com/moamenhredeen/tcobject/internal/benchmarker"
	"github.com/moamenhredeen/tcobject/internal/client"
	"github.com/moamenhredeen/tcobject/internal/generator"
	"github.com/moamenhredeen/tcobject/internal/models"
	"github.com/moamenhredeen/tcobject/internal/object"
	"github.com/moamenhredeen/tcobject/internal/output"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	// Benchmark-specific flags
	benchIterations   int
	benchConcurrency  int
	benchWarmup       int
	benchRateLimit    float64
	benchNoKeepAlive  bool
	benchPayloadFile  string
	benchOutputFormat string
	benchOutputFile   string
)

// benchmarkCmd represents the benchmark command
var benchmarkCmd = &cobra.Command{
	Use:   "benchmark <operation> [args...]",
	Short: "Benchmark an object service operation",
	Long: `Benchmark one operation by calling it repeatedly and measuring response
times and throughput.

Positional arguments after the operation name fill its route, e.g. the object
name of download. Missing arguments and request bodies are generated from the
API description; use --payload-file to send a fixed body instead. Calls are
not retried, so every failure is counted.

Examples:
  # Basic benchmark with defaults (100 iterations, 1 concurrent)
  tcobject benchmark ping

  # High-load benchmark of the download redirect
  tcobject benchmark download my/object -n 1000 -c 10

  # Rate-limited benchmark
  tcobject benchmark fetchObjectMetadata my/object -n 500 --rate 50

  # Export results to JSON
  tcobject benchmark ping -o json --output-file results.json`,
	Args: cobra.MinimumNArgs(1),
	RunE: runBenchmark,
}

func runBenchmark(cmd *cobra.Command, args []string) error {
	op, ok := object.Lookup(args[0])
	if !ok {
		names := make([]string, 0)
		for _, o := range object.Operations() {
			names = append(names, o.Name)
		}
		return fmt.Errorf("unknown operation %q, expected one of %s", args[0], strings.Join(names, ", "))
	}

	target, err := benchmarkTarget(op, args[1:])
	if err != nil {
		return err
	}

	config := benchmarker.Config{
		Iterations:       benchIterations,
		Concurrency:      benchConcurrency,
		WarmupRuns:       benchWarmup,
		RateLimit:        benchRateLimit,
		Timeout:          viper.GetDuration("timeout"),
		DisableKeepAlive: benchNoKeepAlive,
	}

	obj, err := newObject(
		client.WithHTTPClient(benchmarker.HTTPClient(config)),
		client.WithRetry(client.Retry{Retries: 1, Timeout: config.Timeout}),
	)
	if err != nil {
		return err
	}

	fmt.Printf("\n%s\n", white("=== Benchmark Configuration ==="))
	fmt.Printf("Operation:   %s %s %s\n", op.Name, op.Method, op.Route)
	if len(target.Args) > 0 {
		fmt.Printf("Arguments:   %s\n", strings.Join(target.Args, " "))
	}
	fmt.Printf("Iterations:  %d\n", config.Iterations)
	fmt.Printf("Concurrency: %d\n", config.Concurrency)
	fmt.Printf("Warmup:      %d iterations\n", config.WarmupRuns)
	if config.RateLimit > 0 {
		fmt.Printf("Rate Limit:  %.0f req/sec\n", config.RateLimit)
	}
	fmt.Printf("Timeout:     %v\n", config.Timeout)
	fmt.Printf("Keep-Alive:  %v\n", !config.DisableKeepAlive)
	fmt.Println()

	bench := benchmarker.NewBenchmarker(obj, config)

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	context.AfterFunc(ctx, func() {
		if cmd.Context().Err() == nil {
			fmt.Println("\n\nBenchmark interrupted, generating partial results...")
		}
	})

	summary := bench.BenchmarkTargets(ctx, []benchmarker.Target{target}, benchmarkEventPrinter())

	if benchOutputFormat != "" {
		format, err := output.ParseFormat(benchOutputFormat)
		if err != nil {
			return err
		}

		if err := output.ExportBenchmarkSummary(summary, format, benchOutputFile); err != nil {
			return fmt.Errorf("exporting results: %w", err)
		}

		// If writing to file, still show summary
		if benchOutputFile != "" {
			fmt.Printf("\nResults exported to: %s\n", benchOutputFile)
			displayBenchmarkSummary(summary)
		}
		// If writing to stdout, skip display (already output)
		return nil
	}

	displayBenchmarkSummary(summary)
	return nil
}

// benchmarkTarget fills in the call to repeat. Missing route arguments and
// the request body are generated from the API description.
func benchmarkTarget(op models.Operation, args []string) (benchmarker.Target, error) {
	target := benchmarker.Target{Operation: op, Args: args}

	spec, err := apispec.Load()
	if err != nil {
		return target, err
	}
	gen := generator.NewGenerator()

	if len(args) == 0 && len(op.Args) > 0 {
		details, err := spec.OperationDetails(op.Name)
		if err != nil {
			return target, err
		}
		if target.Args, err = gen.GenerateArgs(details); err != nil {
			return target, err
		}
		logger.WithField("args", target.Args).Info("generated route arguments")
	}

	if !op.HasBody() {
		if benchPayloadFile != "" {
			return target, fmt.Errorf("%s takes no payload", op.Name)
		}
		return target, nil
	}

	if benchPayloadFile != "" {
		data, err := os.ReadFile(benchPayloadFile)
		if err != nil {
			return target, err
		}
		if !json.Valid(data) {
			return target, fmt.Errorf("%s does not contain JSON", benchPayloadFile)
		}
		target.Payload = json.RawMessage(data)
		return target, nil
	}

	target.Payload, err = gen.GeneratePayload(spec, op.Input)
	return target, err
}

// benchmarkEventPrinter reports benchmark progress, with a spinner on a terminal
func benchmarkEventPrinter() benchmarker.OnBenchmarkEvent {
	var s *spinner.Spinner
	var phaseStartTime time.Time

	return func(event benchmarker.BenchmarkEvent) {
		op := event.Target.Operation
		switch event.Type {
		case benchmarker.EventWarmupStarting:
			phaseStartTime = time.Now()
			if isTTY {
				s = spinner.New(spinner.CharSets[14], 100*time.Millisecond)
				s.Suffix = fmt.Sprintf(" [%d/%d] %s %s - Warming up...",
					event.Index+1, event.Total, op.Method, op.Name)
				s.Start()
			} else {
				fmt.Printf("[%d/%d] %s %s - Warming up (%d iterations)...\n",
					event.Index+1, event.Total, op.Method, op.Name, event.MaxIter)
			}

		case benchmarker.EventWarmupProgress:
			if isTTY && s != nil {
				s.Suffix = fmt.Sprintf(" [%d/%d] %s %s - Warmup %d/%d",
					event.Index+1, event.Total, op.Method, op.Name,
					event.Progress, event.MaxIter)
			}

		case benchmarker.EventWarmupCompleted:
			if isTTY && s != nil {
				s.Stop()
			}
			elapsed := time.Since(phaseStartTime)
			fmt.Printf("[%d/%d] %s Warmup completed in %v\n",
				event.Index+1, event.Total, yellow("●"), elapsed.Round(time.Millisecond))

		case benchmarker.EventBenchmarkStarting:
			phaseStartTime = time.Now()
			if isTTY {
				s = spinner.New(spinner.CharSets[14], 100*time.Millisecond)
				s.Suffix = fmt.Sprintf(" [%d/%d] %s %s - Benchmarking 0/%d...",
					event.Index+1, event.Total, op.Method, op.Name, event.MaxIter)
				s.Start()
			} else {
				fmt.Printf("[%d/%d] %s %s - Running benchmark (%d iterations)...\n",
					event.Index+1, event.Total, op.Method, op.Name, event.MaxIter)
			}

		case benchmarker.EventBenchmarkProgress:
			if isTTY && s != nil {
				avgMs := float64(event.RunningAvg.Microseconds()) / 1000
				s.Suffix = fmt.Sprintf(" [%d/%d] %s %s - %d/%d (avg: %.1fms, %.1f req/s, %d errors)",
					event.Index+1, event.Total, op.Method, op.Name,
					event.Progress, event.MaxIter, avgMs, event.RunningReqSec, event.ErrorCount)
			}

		case benchmarker.EventBenchmarkCompleted:
			if isTTY && s != nil {
				s.Stop()
			}

			result := event.Result
			elapsed := time.Since(phaseStartTime)
			prefix := fmt.Sprintf("[%d/%d]", event.Index+1, event.Total)

			// Status indicator based on error rate
			var status string
			if result.ErrorRate == 0 {
				status = green("✓")
			} else if result.ErrorRate < 5 {
				status = yellow("●")
			} else {
				status = red("✗")
			}

			fmt.Printf("%s %s %s %s\n", prefix, status, result.Method, result.Target())

			avgMs := float64(result.AvgTime.Microseconds()) / 1000
			p99Ms := float64(result.P99Time.Microseconds()) / 1000
			fmt.Printf("    %s avg: %.2fms | p99: %.2fms | %.1f req/s | errors: %d (%.1f%%)\n",
				cyan("→"),
				avgMs, p99Ms, result.RequestsPerSec,
				result.ErrorCount, result.ErrorRate)

			if verbose {
				minMs := float64(result.MinTime.Microseconds()) / 1000
				maxMs := float64(result.MaxTime.Microseconds()) / 1000
				p50Ms := float64(result.P50Time.Microseconds()) / 1000
				p90Ms := float64(result.P90Time.Microseconds()) / 1000

				fmt.Printf("    Latency:  min=%.2fms | p50=%.2fms | p90=%.2fms | max=%.2fms\n",
					minMs, p50Ms, p90Ms, maxMs)
				fmt.Printf("    Duration: %v | Success: %d | Errors: %d\n",
					elapsed.Round(time.Millisecond), result.SuccessCount, result.ErrorCount)

				if len(result.StatusCodes) > 0 {
					var codes []string
					for code, count := range result.StatusCodes {
						codes = append(codes, fmt.Sprintf("%d:%d", code, count))
					}
					sort.Strings(codes)
					fmt.Printf("    Status codes: %s\n", strings.Join(codes, ", "))
				}

				if len(result.SampleErrors) > 0 {
					fmt.Printf("    Sample errors:\n")
					for _, e := range result.SampleErrors {
						fmt.Printf("      - %s\n", red(e))
					}
				}
			}
		}
	}
}

func displayBenchmarkSummary(summary models.BenchmarkSummary) {
	fmt.Println()
	fmt.Printf("%s\n", white("=== Benchmark Summary ==="))
	fmt.Printf("Total Operations:   %d\n", summary.TotalOperations)
	fmt.Printf("Total Requests:     %d\n", summary.TotalRequests)
	fmt.Printf("Total Duration:     %v\n", summary.TotalDuration.Round(time.Millisecond))
	fmt.Printf("Overall Throughput: %s\n", cyan(fmt.Sprintf("%.1f req/sec", summary.OverallReqsPerSec)))
	fmt.Println()

	fmt.Printf("%s\n", white("Latency Overview:"))
	fmt.Printf("  Min: %.2fms\n", float64(summary.OverallMinTime.Microseconds())/1000)
	fmt.Printf("  Avg: %.2fms\n", float64(summary.OverallAvgTime.Microseconds())/1000)
	fmt.Printf("  Max: %.2fms\n", float64(summary.OverallMaxTime.Microseconds())/1000)
	fmt.Println()

	if summary.TotalErrors > 0 {
		fmt.Printf("%s\n", white("Error Summary:"))
		fmt.Printf("  Total Errors: %s\n", red(summary.TotalErrors))
		fmt.Printf("  Error Rate:   %s\n", red(fmt.Sprintf("%.2f%%", summary.OverallErrorRate)))
		fmt.Println()
	} else {
		fmt.Printf("Errors: %s\n", green("0"))
		fmt.Println()
	}

	fmt.Printf("%s\n", white("Per-Operation Results:"))
	fmt.Printf("%-8s %-40s %10s %10s %10s %10s\n",
		"METHOD", "ROUTE", "AVG(ms)", "P99(ms)", "REQ/S", "ERR%")
	fmt.Println(strings.Repeat("-", 90))

	for _, r := range summary.Results {
		route := r.Route
		if len(route) > 38 {
			route = route[:35] + "..."
		}
		fmt.Printf("%-8s %-40s %10.2f %10.2f %10.1f %10.1f\n",
			r.Method, route,
			float64(r.AvgTime.Microseconds())/1000,
			float64(r.P99Time.Microseconds())/1000,
			r.RequestsPerSec,
			r.ErrorRate)
	}
}

func init() {
	rootCmd.AddCommand(benchmarkCmd)

	benchmarkCmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "Show detailed output")

	// Benchmark-specific flags
	benchmarkCmd.Flags().IntVarP(&benchIterations, "iterations", "n", 100, "Number of calls")
	benchmarkCmd.Flags().IntVarP(&benchConcurrency, "concurrency", "c", 1, "Number of concurrent calls")
	benchmarkCmd.Flags().IntVarP(&benchWarmup, "warmup", "w", 5, "Number of warmup iterations (discarded from stats)")
	benchmarkCmd.Flags().Float64VarP(&benchRateLimit, "rate", "r", 0, "Max requests per second (0 = unlimited)")
	benchmarkCmd.Flags().BoolVar(&benchNoKeepAlive, "no-keepalive", false, "Disable HTTP connection reuse")
	benchmarkCmd.Flags().StringVar(&benchPayloadFile, "payload-file", "", "JSON request body to send")

	// Output flags
	benchmarkCmd.Flags().StringVarP(&benchOutputFormat, "output", "o", "", "Output format: json, csv")
	benchmarkCmd.Flags().StringVar(&benchOutputFile, "output-file", "", "Write output to file (default: stdout)")
}
