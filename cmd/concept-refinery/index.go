// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pdiddy/concept-refinery/internal/index"
	"github.com/pdiddy/concept-refinery/pkg/types"
)

var indexCmd = &cobra.Command{
	Use:   "index",
	Short: "Manage the concept index (store, retrieve, export)",
	Long: `Index manages a local SQLite index built from refine logs. Use
subcommands to ingest logs, query concepts, or export the index.`,
}

// --- store subcommand ---

var indexStoreCmd = &cobra.Command{
	Use:   "store",
	Short: "Ingest refine logs into the concept index",
	Long: `Store reads refine log YAML files from --output-dir, ingests them
into a SQLite database with FTS5 indexing over concept terms. Unchanged
logs are skipped on subsequent runs.`,
	RunE: runIndexStore,
}

func runIndexStore(cmd *cobra.Command, args []string) error {
	store, err := openIndex(cmd)
	if err != nil {
		return err
	}
	defer store.Close()

	outDir, _ := cmd.Flags().GetString("output-dir")
	summary, err := store.Ingest(context.Background(), outDir, os.Stdout)
	if err != nil {
		return err
	}
	if summary.Failed > 0 {
		return fmt.Errorf("%d refine log(s) failed indexing", summary.Failed)
	}
	return nil
}

// --- retrieve subcommand ---

var indexRetrieveCmd = &cobra.Command{
	Use:   "retrieve [query]",
	Short: "Query the concept index with full-text search and filters",
	Long: `Retrieve searches indexed concepts using FTS5 full-text search,
structured filters (transcript, retained-only), or a combination.
Results include the support and capacity scores behind each retention
decision.`,
	RunE: runIndexRetrieve,
}

func runIndexRetrieve(cmd *cobra.Command, args []string) error {
	store, err := openIndex(cmd)
	if err != nil {
		return err
	}
	defer store.Close()

	opts := queryOptsFromFlags(cmd, args)
	if opts.IsEmpty() {
		return fmt.Errorf("query or filter required: provide a search query, --transcript, or --retained-only")
	}

	results, err := store.Retrieve(context.Background(), opts)
	if err != nil {
		return err
	}

	jsonOutput, _ := cmd.Flags().GetBool("json")
	return formatRetrieveOutput(results, jsonOutput)
}

func formatRetrieveOutput(results []index.QueryResult, jsonOutput bool) error {
	if jsonOutput {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(results)
	}

	if len(results) == 0 {
		fmt.Println("No results found.")
		return nil
	}

	fmt.Fprintf(os.Stdout, "%-4s  %-30s  %-20s  %-14s  %-7s  %s\n",
		"Rank", "Concept", "Transcript", "Timespan", "Ratio", "Retained")
	fmt.Fprintln(os.Stdout, strings.Repeat("-", 90))

	for i, r := range results {
		term := r.Term
		if len(term) > 30 {
			term = term[:27] + "..."
		}
		transcript := r.Transcript
		if len(transcript) > 20 {
			transcript = transcript[:17] + "..."
		}
		fmt.Fprintf(os.Stdout, "%-4d  %-30s  %-20s  %-14s  %-7.2f  %v\n",
			i+1, term, transcript, r.Timespan, r.Ratio(), r.Retained)
	}

	fmt.Fprintf(os.Stdout, "\n%d results\n", len(results))
	return nil
}

// --- export subcommand ---

var indexExportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export the concept index to YAML or JSON",
	Long: `Export writes the full concept index (or a filtered subset) to
export.yaml or export.json in the index directory. Supports the same
filter flags as retrieve.`,
	RunE: runIndexExport,
}

func runIndexExport(cmd *cobra.Command, args []string) error {
	format, _ := cmd.Flags().GetString("format")

	store, err := openIndex(cmd)
	if err != nil {
		return err
	}
	defer store.Close()

	opts := queryOptsFromFlags(cmd, args)

	switch format {
	case "yaml", "":
		if err := store.ExportYAML(context.Background(), opts); err != nil {
			return err
		}
		fmt.Println("Exported to export.yaml")
	case "json":
		if err := store.ExportJSON(context.Background(), opts); err != nil {
			return err
		}
		fmt.Println("Exported to export.json")
	default:
		return fmt.Errorf("unsupported format %q: use yaml or json", format)
	}

	return nil
}

// --- shared helpers ---

func openIndex(cmd *cobra.Command) (*index.Store, error) {
	indexDir, _ := cmd.Flags().GetString("index-dir")
	maxResults, _ := cmd.Flags().GetInt("max-results")
	return index.NewStore(types.IndexConfig{IndexDir: indexDir, MaxResults: maxResults})
}

func queryOptsFromFlags(cmd *cobra.Command, args []string) index.QueryOptions {
	var opts index.QueryOptions
	if len(args) > 0 {
		opts.Query = strings.Join(args, " ")
	}
	opts.Transcript, _ = cmd.Flags().GetString("transcript")
	opts.RetainedOnly, _ = cmd.Flags().GetBool("retained-only")
	opts.MaxResults, _ = cmd.Flags().GetInt("max-results")
	return opts
}

func addIndexFlags(cmd *cobra.Command) {
	cmd.Flags().String("index-dir", "index", "directory holding the concept database")
	cmd.Flags().Int("max-results", 20, "maximum results returned")
	cmd.Flags().String("transcript", "", "filter by transcript ID")
	cmd.Flags().Bool("retained-only", false, "only concepts that survived retention")
}

func init() {
	indexStoreCmd.Flags().String("index-dir", "index", "directory holding the concept database")
	indexStoreCmd.Flags().Int("max-results", 20, "maximum results returned")
	indexStoreCmd.Flags().String("output-dir", "output", "directory scanned for refine logs")

	addIndexFlags(indexRetrieveCmd)
	indexRetrieveCmd.Flags().Bool("json", false, "emit results as JSON")

	addIndexFlags(indexExportCmd)
	indexExportCmd.Flags().String("format", "yaml", "export format: yaml or json")

	indexCmd.AddCommand(indexStoreCmd, indexRetrieveCmd, indexExportCmd)
	rootCmd.AddCommand(indexCmd)
}
