package main

import (
	"fmt"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

var evidenceCmd = &cobra.Command{
	Use:   "evidence <run-id>",
	Short: "List the screenshots captured for a run",
	Args:  cobra.ExactArgs(1),
	RunE:  runEvidence,
}

func init() {
	rootCmd.AddCommand(evidenceCmd)
}

func runEvidence(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	logger, err := buildLogger(cfg)
	if err != nil {
		return err
	}
	store, closeStore, err := openStore(cfg, logger)
	if err != nil {
		return err
	}
	defer func() { _ = closeStore() }()

	if _, err := store.Run(args[0]); err != nil {
		return err
	}
	records, err := store.EvidenceByRun(args[0])
	if err != nil {
		return err
	}
	if len(records) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "No evidence recorded for this run.")
		return nil
	}

	t := table.NewWriter()
	t.SetOutputMirror(cmd.OutOrStdout())
	t.SetStyle(table.StyleRounded)
	t.AppendHeader(table.Row{"KIND", "PATH", "SIZE", "CAPTURED AT"})
	for _, rec := range records {
		t.AppendRow(table.Row{
			rec.Kind,
			rec.Path,
			formatSize(rec.Size),
			rec.CapturedAt.Local().Format("2006-01-02 15:04:05"),
		})
	}
	t.Render()
	return nil
}

func formatSize(n int64) string {
	switch {
	case n >= 1<<20:
		return fmt.Sprintf("%.1f MiB", float64(n)/(1<<20))
	case n >= 1<<10:
		return fmt.Sprintf("%.1f KiB", float64(n)/(1<<10))
	default:
		return fmt.Sprintf("%d B", n)
	}
}
