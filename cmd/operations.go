/*
Copyright © 2026 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"fmt"
	"strings"

	"github.com/moamenhredeen/tcobject/internal/object"
	"github.com/moamenhredeen/tcobject/internal/output"
	"github.com/spf13/cobra"
)

var (
	opsOutputFormat string
	opsOutputFile   string
)

// operationsCmd lists the operation table
var operationsCmd = &cobra.Command{
	Use:   "operations",
	Short: "List the operations of the object service",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ops := object.Operations()

		if opsOutputFormat != "" {
			format, err := output.ParseFormat(opsOutputFormat)
			if err != nil {
				return err
			}
			return output.ExportOperations(ops, format, opsOutputFile)
		}

		fmt.Printf("%-20s %-6s %-26s %-13s %s\n", "NAME", "METHOD", "ROUTE", "STABILITY", "TITLE")
		fmt.Println(strings.Repeat("-", 90))
		for _, op := range ops {
			fmt.Printf("%-20s %-6s %-26s %-13s %s\n", op.Name, op.Method, op.Route, op.Stability, op.Title)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(operationsCmd)

	operationsCmd.Flags().StringVarP(&opsOutputFormat, "output", "o", "", "Output format: json, csv")
	operationsCmd.Flags().StringVar(&opsOutputFile, "output-file", "", "Write output to file (default: stdout)")
}
