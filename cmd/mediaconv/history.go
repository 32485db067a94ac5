// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/pdiddy/mediaconv/internal/history"
	"github.com/pdiddy/mediaconv/pkg/types"
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show or export the conversion history",
	Long: `History reads the local conversion log. Recording is off unless
history.enabled is set; only names, types, sizes, outcomes, and timings are
kept, never file contents.`,
}

var historyListCmd = &cobra.Command{
	Use:   "list",
	Short: "List recent conversions, newest first",
	Args:  cobra.NoArgs,
	RunE:  runHistoryList,
}

func runHistoryList(cmd *cobra.Command, args []string) error {
	store, err := history.NewStore(cfg.History)
	if err != nil {
		return err
	}
	defer store.Close()

	limit, _ := cmd.Flags().GetInt("limit")
	records, err := store.List(cmd.Context(), limit)
	if err != nil {
		return err
	}

	jsonOutput, _ := cmd.Flags().GetBool("json")
	return formatHistory(cmd.OutOrStdout(), records, jsonOutput)
}

func formatHistory(w io.Writer, records []types.ConversionRecord, jsonOutput bool) error {
	if jsonOutput {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(records)
	}

	if len(records) == 0 {
		fmt.Fprintln(w, "No conversions recorded.")
		return nil
	}

	fmt.Fprintf(w, "%-19s  %-30s  %-5s  %-9s  %s\n", "Started", "Source", "To", "Outcome", "Detail")
	fmt.Fprintln(w, strings.Repeat("-", 90))
	for _, r := range records {
		source := r.SourceName
		if len(source) > 30 {
			source = source[:27] + "..."
		}
		detail := r.OutputName
		if r.Error != "" {
			detail = r.Error
		}
		fmt.Fprintf(w, "%-19s  %-30s  %-5s  %-9s  %s\n",
			r.StartedAt.Local().Format(time.DateTime), source, r.TargetExtension, r.Outcome, detail)
	}
	fmt.Fprintf(w, "\n%d conversions\n", len(records))
	return nil
}

var historyExportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export the conversion history to YAML or JSON",
	Long: `Export writes the full history to export.yaml or export.json in the
history directory.`,
	Args: cobra.NoArgs,
	RunE: runHistoryExport,
}

func runHistoryExport(cmd *cobra.Command, args []string) error {
	format, _ := cmd.Flags().GetString("format")

	store, err := history.NewStore(cfg.History)
	if err != nil {
		return err
	}
	defer store.Close()

	var path string
	switch format {
	case "yaml", "":
		path, err = store.ExportYAML(cmd.Context())
	case "json":
		path, err = store.ExportJSON(cmd.Context())
	default:
		return fmt.Errorf("unsupported format %q: use yaml or json", format)
	}
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Exported to %s\n", path)
	return nil
}

func init() {
	historyListCmd.Flags().Int("limit", 0, "maximum records (0 = history.max_results)")
	historyListCmd.Flags().Bool("json", false, "output as JSON")

	historyExportCmd.Flags().String("format", "yaml", "export format: yaml or json")

	historyCmd.AddCommand(historyListCmd)
	historyCmd.AddCommand(historyExportCmd)

	rootCmd.AddCommand(historyCmd)
}
