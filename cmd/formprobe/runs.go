package main

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/spf13/cobra"

	"formprobe/config"
	"formprobe/runner"
)

var runsCmd = &cobra.Command{
	Use:   "runs",
	Short: "Inspect stored runs",
	Long: `Inspect runs in the configured store.

With the mysql storage driver this shows the same history as the server.
The memory driver holds nothing between invocations, so listings are only
useful inside a process that created runs itself.`,
}

var runsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List stored runs",
	Example: `  # All runs, newest first
  formprobe --config formprobe.yaml runs list

  # Only runs for one form
  formprobe --config formprobe.yaml runs list --form signup`,
	RunE: runRunsList,
}

var runsShowCmd = &cobra.Command{
	Use:   "show <run-id>",
	Short: "Print one run as JSON",
	Long: `Print the full stored record of one run, including the generated
data and the per-field results.`,
	Args: cobra.ExactArgs(1),
	RunE: runRunsShow,
}

func init() {
	rootCmd.AddCommand(runsCmd)
	runsCmd.AddCommand(runsListCmd)
	runsCmd.AddCommand(runsShowCmd)

	runsListCmd.Flags().String("form", "", "Only list runs for this form")
}

func runRunsList(cmd *cobra.Command, args []string) error {
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

	formID, err := cmd.Flags().GetString("form")
	if err != nil {
		return err
	}

	var runs []*runner.Run
	if formID != "" {
		runs, err = store.RunsByForm(formID)
	} else {
		runs, err = store.Runs()
	}
	if err != nil {
		return err
	}

	if len(runs) == 0 {
		if cfg.Storage.Driver == config.DriverMemory {
			fmt.Fprintln(cmd.OutOrStdout(), "No runs. The memory storage driver keeps no history; use the mysql driver to share runs with the server.")
		} else {
			fmt.Fprintln(cmd.OutOrStdout(), "No runs.")
		}
		return nil
	}

	t := table.NewWriter()
	t.SetOutputMirror(cmd.OutOrStdout())
	t.SetStyle(table.StyleRounded)
	t.AppendHeader(table.Row{"RUN ID", "FORM", "STATUS", "CREATED", "DURATION", "PASSED", "FAILED"})
	for _, run := range runs {
		t.AppendRow(runRow(run))
	}
	t.Render()
	return nil
}

func runRow(run *runner.Run) table.Row {
	duration := "-"
	if run.StartedAt != nil {
		duration = run.Duration().Round(time.Millisecond).String()
	}
	passed, failed := "-", "-"
	if run.Summary != nil {
		passed = fmt.Sprintf("%d", run.Summary.Passed)
		failed = fmt.Sprintf("%d", run.Summary.Failed)
	}
	return table.Row{
		run.ID,
		run.FormID,
		colorStatus(run.Status),
		run.CreatedAt.Local().Format("2006-01-02 15:04:05"),
		duration,
		passed,
		failed,
	}
}

func colorStatus(status runner.Status) string {
	switch status {
	case runner.StatusCompleted:
		return text.FgGreen.Sprint(status)
	case runner.StatusFailed:
		return text.FgRed.Sprint(status)
	case runner.StatusRunning:
		return text.FgCyan.Sprint(status)
	default:
		return text.FgYellow.Sprint(status)
	}
}

func runRunsShow(cmd *cobra.Command, args []string) error {
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

	run, err := store.Run(args[0])
	if err != nil {
		return err
	}
	out, err := json.MarshalIndent(run, "", "  ")
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), string(out))
	return nil
}
