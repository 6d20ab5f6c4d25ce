// Command formprobe is the one-shot CLI: it generates test data from
// descriptor files, executes runs against live pages without the server, and
// inspects stored runs and evidence.
package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"formprobe/config"
	"formprobe/logging"
	"formprobe/runner"
)

var rootCmd = &cobra.Command{
	Use:          "formprobe",
	Short:        "Metadata-driven form testing tool",
	SilenceUsage: true,
	Long: `Formprobe generates scenario-conditioned test data from form field
descriptors and drives a real browser through fill attempts, recording
per-field results and screenshot evidence.

Most commands read the same YAML config as the formprobe server. Without
--config, built-in defaults apply (in-memory storage, headless browser).`,
}

func init() {
	rootCmd.PersistentFlags().StringP("config", "c", "", "Path to config file")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// loadConfig reads the config file named by --config, or returns the
// built-in defaults when the flag is unset.
func loadConfig(cmd *cobra.Command) (config.Config, error) {
	path, err := cmd.Flags().GetString("config")
	if err != nil {
		return config.Config{}, err
	}
	if path == "" {
		var cfg config.Config
		cfg.SetDefaults()
		return cfg, nil
	}
	return config.LoadConfig(path)
}

func buildLogger(cfg config.Config) (*slog.Logger, error) {
	logger, err := logging.New(logging.Config{
		Level:     cfg.Logging.Level,
		Format:    cfg.Logging.Format,
		Output:    cfg.Logging.Output,
		AddSource: cfg.Logging.AddSource,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	return logger, nil
}

// openStore opens the run store named by the config. The caller must call
// the returned close function.
func openStore(cfg config.Config, logger *slog.Logger) (runner.Store, func() error, error) {
	if cfg.Storage.Driver == config.DriverMySQL {
		store, err := runner.NewMySQLStore(cfg.Storage.ResolveDSN(), logger)
		if err != nil {
			return nil, nil, fmt.Errorf("opening mysql store: %w", err)
		}
		return store, store.Close, nil
	}
	return runner.NewMemoryStore(), func() error { return nil }, nil
}
