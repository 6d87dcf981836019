/*
Copyright © 2026 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"fmt"
	"strings"
	"time"

	"github.com/briandowns/spinner"
	"github.com/moamenhredeen/tcobject/internal/apispec"
	"github.com/moamenhredeen/tcobject/internal/checker"
	"github.com/moamenhredeen/tcobject/internal/models"
	"github.com/moamenhredeen/tcobject/internal/output"
	"github.com/spf13/cobra"
)

var (
	checkProject      string
	checkExpires      time.Duration
	checkOnly         []string
	checkOutputFormat string
	checkOutputFile   string
	verbose           bool
)

// checkCmd represents the check command
var checkCmd = &cobra.Command{
	Use:   "check <name>",
	Short: "Check a deployment against the object service API",
	Long: `Check a deployment by calling every operation on one object: ping, upload
the object, ask how to download it and resolve its download redirect.
Every answer is validated against the published API description.

Examples:
  # Check with a throwaway object
  tcobject check tcobject-check/1 --project my-project

  # Only ping and download, export results to JSON
  tcobject check obj --project p --only ping,download -o json --output-file check.json`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		obj, err := newObject()
		if err != nil {
			return err
		}
		spec, err := apispec.Load()
		if err != nil {
			return err
		}

		probes := filterProbes(checker.DefaultProbes(args[0], checkProject, checkExpires), checkOnly)
		if len(probes) == 0 {
			fmt.Println("No operations found matching the criteria")
			return nil
		}

		var s *spinner.Spinner
		onEvent := func(event checker.CheckEvent) {
			switch event.Type {
			case checker.EventStarting:
				if isTTY {
					s = spinner.New(spinner.CharSets[14], 100*time.Millisecond)
					s.Suffix = fmt.Sprintf(" [%d/%d] %s", event.Index+1, event.Total, event.Probe.Operation)
					s.Start()
				}
			case checker.EventCompleted:
				if s != nil {
					s.Stop()
				}
				status := green("PASS")
				if !event.Result.Passed {
					status = red("FAIL")
				}
				fmt.Printf("[%d/%d] %s %s %s\n", event.Index+1, event.Total, status, event.Result.Method, event.Result.Operation)
			}
		}

		summary := checker.New(obj, spec).CheckAll(cmd.Context(), probes, onEvent)

		if checkOutputFormat != "" {
			format, err := output.ParseFormat(checkOutputFormat)
			if err != nil {
				return err
			}
			if err := output.ExportCheckSummary(summary, format, checkOutputFile); err != nil {
				return fmt.Errorf("exporting results: %w", err)
			}
			if checkOutputFile != "" {
				fmt.Printf("\nResults exported to: %s\n", checkOutputFile)
			}
		}

		displayResults(summary, verbose)

		if summary.Failed > 0 {
			return fmt.Errorf("%d check(s) failed", summary.Failed)
		}
		return nil
	},
}

func filterProbes(probes []models.Probe, only []string) []models.Probe {
	if len(only) == 0 {
		return probes
	}

	var filtered []models.Probe
	for _, p := range probes {
		for _, name := range only {
			if p.Operation == name {
				filtered = append(filtered, p)
				break
			}
		}
	}
	return filtered
}

func displayResults(summary models.CheckSummary, verbose bool) {
	fmt.Println("\n=== Check Results ===")
	fmt.Printf("Total Checks: %d\n", summary.TotalChecks)
	fmt.Printf("Passed: %d\n", summary.Passed)
	fmt.Printf("Failed: %d\n", summary.Failed)
	fmt.Println()

	for _, result := range summary.Results {
		status := "✓ PASS"
		if !result.Passed {
			status = "✗ FAIL"
		}

		if !verbose {
			fmt.Printf("%s %s %s", status, result.Method, result.Route)
			if !result.Passed && result.Error != "" {
				fmt.Printf(" - %s", result.Error)
			}
			fmt.Println()
			continue
		}

		fmt.Printf("%s %s %s\n", status, result.Method, result.Route)
		fmt.Printf("  Operation: %s %s\n", result.Operation, strings.Join(result.Args, " "))
		fmt.Printf("  Status Code: %d\n", result.StatusCode)
		fmt.Printf("  Response Time: %v (%d attempt(s))\n", result.ResponseTime, result.Attempts)

		if !result.Passed {
			if result.Error != "" {
				fmt.Printf("  Error: %s\n", result.Error)
			}
			if len(result.ValidationErrors) > 0 {
				fmt.Printf("  Validation Errors:\n")
				for _, ve := range result.ValidationErrors {
					fmt.Printf("    - %s: %s\n", ve.Field, ve.Message)
				}
			}
		}
		fmt.Println()
	}
}

func init() {
	rootCmd.AddCommand(checkCmd)

	checkCmd.Flags().StringVarP(&checkProject, "project", "p", "", "Project of the uploaded object")
	checkCmd.Flags().DurationVar(&checkExpires, "expires", time.Hour, "Lifetime of the uploaded object")
	checkCmd.Flags().StringSliceVar(&checkOnly, "only", nil, "Only check these operations")
	checkCmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "Show detailed output")
	checkCmd.Flags().StringVarP(&checkOutputFormat, "output", "o", "", "Output format: json, csv")
	checkCmd.Flags().StringVar(&checkOutputFile, "output-file", "", "Write output to file (default: stdout)")
	checkCmd.MarkFlagRequired("project")
}
