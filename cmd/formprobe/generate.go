package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"formprobe/datagen"
	"formprobe/metadata"
)

var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Generate test data from a descriptor file",
	Long: `Generate scenario-conditioned test data for the fields of a descriptor
file and print the batch as JSON. No browser is started and nothing is stored.

Examples:
  formprobe generate -f signup.yaml
  formprobe generate -f signup.json --scenarios valid,boundary --count 5
  formprobe generate -f signup.yaml --seed 42 -o batch.json`,
	RunE: runGenerate,
}

func init() {
	rootCmd.AddCommand(generateCmd)

	generateCmd.Flags().StringP("file", "f", "", "Descriptor file (JSON or YAML)")
	generateCmd.Flags().StringSlice("scenarios", nil, "Scenario tags to generate (default: configured scenarios)")
	generateCmd.Flags().Int("count", 0, "Values per field per scenario (default: configured count)")
	generateCmd.Flags().Int64("seed", 0, "Deterministic generator seed")
	generateCmd.Flags().StringP("output", "o", "", "Write the batch to a file instead of stdout")
	generateCmd.MarkFlagRequired("file")
}

func runGenerate(cmd *cobra.Command, args []string) error {
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
	batch := gen.Generate(doc.Fields, scenarios, count)

	out, err := json.MarshalIndent(batch, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding batch: %w", err)
	}
	out = append(out, '\n')

	if path, _ := cmd.Flags().GetString("output"); path != "" {
		return os.WriteFile(path, out, 0o644)
	}
	_, err = cmd.OutOrStdout().Write(out)
	return err
}
