// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/pdiddy/concept-refinery/internal/report"
)

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Render refine logs into a spreadsheet",
	Long: `Report reads the refine logs in --output-dir and writes an XLSX
workbook with a per-segment sheet and a concept frequency sheet.`,
	RunE: runReport,
}

func init() {
	reportCmd.Flags().String("output-dir", "output", "directory scanned for refine logs")
	reportCmd.Flags().String("out", "report.xlsx", "workbook path")

	rootCmd.AddCommand(reportCmd)
}

func runReport(cmd *cobra.Command, args []string) error {
	outDir, _ := cmd.Flags().GetString("output-dir")
	path, _ := cmd.Flags().GetString("out")

	if err := report.Write(outDir, path); err != nil {
		return err
	}
	fmt.Fprintf(os.Stdout, "report written to %s\n", path)
	return nil
}
