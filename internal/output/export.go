package output

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/moamenhredeen/tcobject/internal/models"
)

// Format represents the output format type
type Format string

const (
	FormatJSON Format = "json"
	FormatCSV  Format = "csv"
)

// ExportCheckSummary exports check results to the specified format
func ExportCheckSummary(summary models.CheckSummary, format Format, filePath string) error {
	return export(filePath, func(w io.Writer) error {
		return WriteCheckSummary(w, summary, format)
	})
}

// ExportBenchmarkSummary exports benchmark results to the specified format
func ExportBenchmarkSummary(summary models.BenchmarkSummary, format Format, filePath string) error {
	return export(filePath, func(w io.Writer) error {
		return WriteBenchmarkSummary(w, summary, format)
	})
}

// ExportOperations exports the operation table to the specified format
func ExportOperations(ops []models.Operation, format Format, filePath string) error {
	return export(filePath, func(w io.Writer) error {
		return WriteOperations(w, ops, format)
	})
}

// WriteCheckSummary writes check results to w
func WriteCheckSummary(w io.Writer, summary models.CheckSummary, format Format) error {
	switch format {
	case FormatJSON:
		return writeJSON(w, summary)
	case FormatCSV:
		return writeCheckCSV(w, summary)
	default:
		return fmt.Errorf("unsupported format: %s", format)
	}
}

// WriteBenchmarkSummary writes benchmark results to w
func WriteBenchmarkSummary(w io.Writer, summary models.BenchmarkSummary, format Format) error {
	switch format {
	case FormatJSON:
		return writeJSON(w, summary)
	case FormatCSV:
		return writeBenchmarkCSV(w, summary)
	default:
		return fmt.Errorf("unsupported format: %s", format)
	}
}

// WriteOperations writes the operation table to w
func WriteOperations(w io.Writer, ops []models.Operation, format Format) error {
	switch format {
	case FormatJSON:
		return writeJSON(w, ops)
	case FormatCSV:
		return writeOperationsCSV(w, ops)
	default:
		return fmt.Errorf("unsupported format: %s", format)
	}
}

// export runs write against stdout or a newly created file
func export(filePath string, write func(io.Writer) error) error {
	if filePath == "" {
		return write(os.Stdout)
	}

	f, err := os.Create(filePath)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	if err := write(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func writeJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func writeCheckCSV(w io.Writer, summary models.CheckSummary) error {
	cw := csv.NewWriter(w)

	header := []string{
		"operation", "method", "route", "args", "passed", "status_code",
		"response_time_ms", "attempts", "error",
	}
	if err := cw.Write(header); err != nil {
		return err
	}

	for _, r := range summary.Results {
		row := []string{
			r.Operation,
			r.Method,
			r.Route,
			strings.Join(r.Args, " "),
			strconv.FormatBool(r.Passed),
			strconv.Itoa(r.StatusCode),
			millis(r.ResponseTime.Microseconds()),
			strconv.Itoa(r.Attempts),
			r.Error,
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}

	cw.Flush()
	return cw.Error()
}

func writeBenchmarkCSV(w io.Writer, summary models.BenchmarkSummary) error {
	cw := csv.NewWriter(w)

	header := []string{
		"operation", "method", "route", "iterations", "concurrency",
		"min_ms", "max_ms", "avg_ms", "p50_ms", "p90_ms", "p99_ms",
		"requests_per_sec", "success_count", "error_count", "error_rate",
	}
	if err := cw.Write(header); err != nil {
		return err
	}

	for _, r := range summary.Results {
		row := []string{
			r.Operation,
			r.Method,
			r.Route,
			strconv.Itoa(r.Iterations),
			strconv.Itoa(r.Concurrency),
			millis(r.MinTime.Microseconds()),
			millis(r.MaxTime.Microseconds()),
			millis(r.AvgTime.Microseconds()),
			millis(r.P50Time.Microseconds()),
			millis(r.P90Time.Microseconds()),
			millis(r.P99Time.Microseconds()),
			fmt.Sprintf("%.2f", r.RequestsPerSec),
			strconv.Itoa(r.SuccessCount),
			strconv.Itoa(r.ErrorCount),
			fmt.Sprintf("%.2f", r.ErrorRate),
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}

	cw.Flush()
	return cw.Error()
}

func writeOperationsCSV(w io.Writer, ops []models.Operation) error {
	cw := csv.NewWriter(w)

	header := []string{"name", "method", "route", "args", "input", "output", "stability", "title"}
	if err := cw.Write(header); err != nil {
		return err
	}

	for _, op := range ops {
		row := []string{
			op.Name,
			op.Method,
			op.Route,
			strings.Join(op.Args, " "),
			op.Input,
			op.Output,
			string(op.Stability),
			op.Title,
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}

	cw.Flush()
	return cw.Error()
}

func millis(us int64) string {
	return fmt.Sprintf("%.2f", float64(us)/1000)
}

// ParseFormat parses a string into a Format, returning error if invalid
func ParseFormat(s string) (Format, error) {
	switch s {
	case "json":
		return FormatJSON, nil
	case "csv":
		return FormatCSV, nil
	default:
		return "", fmt.Errorf("invalid format '%s': must be 'json' or 'csv'", s)
	}
}
