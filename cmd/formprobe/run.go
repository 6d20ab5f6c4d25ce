package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/briandowns/spinner"
	"github.com/fatih/color"
	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"formprobe/browser"
	"formprobe/datagen"
	"formprobe/evidence"
	"formprobe/metadata"
	"formprobe/metrics"
	"formprobe/runner"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Execute a test run against a live page",
	Long: `Load a descriptor file, generate test data, and drive a browser through
every scenario, filling each field and capturing screenshot evidence.

The run executes locally; no formprobe server is involved. Results are
printed as a colored summary, or as full run JSON with --json.

Examples:
  formprobe run -f signup.yaml
  formprobe run -f signup.yaml -u https://staging.example.com/signup
  formprobe run -f signup.yaml --scenarios valid,invalid --count 1 --json
  formprobe run -c config.yaml -f signup.yaml --push`,
	RunE: runRun,
}

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().StringP("file", "f", "", "Descriptor file (JSON or YAML)")
	runCmd.Flags().StringP("url", "u", "", "Target page URL, overrides the descriptor's page_url")
	runCmd.Flags().StringSlice("scenarios", nil, "Scenario tags to run (default: configured scenarios)")
	runCmd.Flags().Int("count", 0, "Values per field per scenario (default: configured count)")
	runCmd.Flags().Int64("seed", 0, "Deterministic generator seed")
	runCmd.Flags().Bool("json", false, "Print the full run as JSON instead of a summary")
	runCmd.Flags().Bool("push", false, "Push run metrics to the configured monitoring.push_url")
	runCmd.MarkFlagRequired("file")
}

func runRun(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	logger, err := buildLogger(cfg)
	if err != nil {
		return err
	}

	file, _ := cmd.Flags().GetString("file")
	doc, err := metadata.LoadFile(file)
	if err != nil {
		return err
	}
	if doc.FormID == "" {
		doc.FormID = uuid.New().String()
	}

	targetURL, _ := cmd.Flags().GetString("url")
	if targetURL == "" {
		targetURL = doc.PageURL
	}
	if targetURL == "" {
		return fmt.Errorf("descriptor has no page_url; pass one with --url")
	}

	tags, _ := cmd.Flags().GetStringSlice("scenarios")
	var scenarios []datagen.Scenario
	if len(tags) > 0 {
		scenarios, err = datagen.ParseScenarios(tags)
	} else {
		scenarios, err = cfg.Generator.ScenarioList()
	}
	if err != nil {
		return err
	}

	count, _ := cmd.Flags().GetInt("count")
	if count <= 0 {
		count = cfg.Generator.CountPerScenario
	}

	seed, _ := cmd.Flags().GetInt64("seed")
	if seed == 0 {
		seed = cfg.Generator.Seed
	}
	var genOpts []datagen.Option
	if seed != 0 {
		genOpts = append(genOpts, datagen.WithSeed(seed))
	}
	gen := datagen.New(logger, genOpts...)

	store := runner.NewMemoryStore()
	if err := store.CreateForm(doc); err != nil {
		return err
	}

	mgr, err := evidence.NewManager(cfg.Evidence.Dir, logger)
	if err != nil {
		return err
	}

	run := runner.NewRun(doc.FormID, targetURL)
	run.Data = gen.Generate(doc.Fields, scenarios, count)
	if err := store.CreateRun(run); err != nil {
		return err
	}

	execOpts := []runner.ExecutorOption{
		runner.WithEvidenceManager(mgr),
		runner.WithGenerator(gen),
		runner.WithFieldPause(cfg.Browser.FieldPause),
	}

	if push, _ := cmd.Flags().GetBool("push"); push {
		if cfg.Monitoring.PushURL == "" {
			return fmt.Errorf("--push requires monitoring.push_url in the config")
		}
		instance := cfg.Monitoring.Instance
		if instance == "" {
			instance, _ = os.Hostname()
		}
		registry := metrics.NewPushRegistry(metrics.PushConfig{
			URL:      cfg.Monitoring.PushURL,
			Prefix:   cfg.Monitoring.MetricsPrefix,
			Job:      cfg.Monitoring.JobName,
			Instance: instance,
		})
		rm, err := metrics.NewRunMetrics(registry, "")
		if err != nil {
			return err
		}
		execOpts = append(execOpts, runner.WithObserver(rm))
	}

	// The spinner covers session startup; the first field attempt swaps it
	// for the progress bar.
	spin := spinner.New(spinner.CharSets[14], 100*time.Millisecond)
	spin.Suffix = " Starting browser session..."
	spin.Writer = os.Stderr

	var (
		barOnce sync.Once
		bar     *fillProgress
	)
	total := len(run.Data.Scenarios()) * len(doc.Fields)
	execOpts = append(execOpts, runner.WithProgress(func(sc datagen.Scenario, field metadata.Field, res runner.Result) {
		barOnce.Do(func() {
			spin.Stop()
			bar = newFillProgress(total)
		})
		bar.Record(res.Success)
	}))

	sessions := func(ctx context.Context) (runner.Page, error) {
		return browser.NewSession(ctx, cfg.Browser.SessionConfig(), logger)
	}
	exec := runner.NewExecutor(logger, store, store, sessions, execOpts...)

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	spin.Start()
	execErr := exec.Execute(ctx, run.ID)
	spin.Stop()
	if bar != nil {
		bar.Finish()
	}

	final, err := store.Run(run.ID)
	if err != nil {
		return err
	}
	records, err := store.EvidenceByRun(run.ID)
	if err != nil {
		return err
	}

	if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
		out, err := json.MarshalIndent(final, "", "  ")
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), string(out))
		return execErr
	}

	printRunSummary(final, records, mgr.Dir())
	return execErr
}

func printRunSummary(run *runner.Run, records []evidence.Record, evidenceDir string) {
	fmt.Println()

	status := color.GreenString(string(run.Status))
	if run.Status != runner.StatusCompleted {
		status = color.RedString(string(run.Status))
	}
	fmt.Printf("Run %s: %s (%s)\n", run.ID, status, run.Duration().Round(time.Millisecond))

	if run.Error != "" {
		fmt.Printf("Error: %s\n", color.RedString(run.Error))
	}
	if run.Summary != nil {
		fmt.Printf("Fields: %d  %s  %s\n",
			run.Summary.Total,
			color.GreenString("passed: %d", run.Summary.Passed),
			color.RedString("failed: %d", run.Summary.Failed),
		)
		for _, sc := range run.Data.Scenarios() {
			tally := run.Summary.Scenarios[sc]
			fmt.Printf("  %-10s %d/%d passed\n", sc, tally.Passed, tally.Total)
		}
	}
	if len(records) > 0 {
		fmt.Printf("Evidence: %d screenshots in %s\n", len(records), evidenceDir)
	}
}
