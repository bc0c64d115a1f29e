// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/concept-refinery/internal/completion"
	"github.com/pdiddy/concept-refinery/internal/driver"
	"github.com/pdiddy/concept-refinery/internal/extract"
	"github.com/pdiddy/concept-refinery/internal/refine"
	"github.com/pdiddy/concept-refinery/internal/registry"
	"github.com/pdiddy/concept-refinery/pkg/types"
)

var processCmd = &cobra.Command{
	Use:   "process [transcripts...]",
	Short: "Extract and refine concepts from transcript files",
	Long: `Process runs the full pipeline over the given transcript files, or over
every transcript in --input-dir when no files are named. Each transcript
produces an extraction log, a refine log, and a final concepts file in
--output-dir; all retained concepts accumulate in <subject>_registry.json.

Transcripts whose final concepts file already exists are skipped, with
their concepts loaded back into the registry, so interrupted runs can be
resumed without reissuing completion calls.`,
	RunE: runProcess,
}

func init() {
	processCmd.Flags().String("subject", "", "subject label used in prompts (required)")
	processCmd.Flags().String("input-dir", "transcripts", "directory scanned for transcripts when no files are named")
	processCmd.Flags().String("output-dir", "output", "directory for artifacts")
	processCmd.Flags().StringSlice("backends", nil, "backend IDs used as refinement judges (default: all configured)")
	processCmd.Flags().String("extraction-backend", "", "backend ID for initial extraction (default: first configured)")
	processCmd.Flags().Int("iterations", 3, "feedback/filter rounds per backend")
	processCmd.Flags().Float64("threshold", 0.6, "support/capacity ratio required for retention")
	processCmd.Flags().Bool("perfect-score-rule", false, "also retain concepts a single backend kept every iteration")
	processCmd.Flags().Int("max-retries", 5, "retry attempts per completion call")
	processCmd.Flags().Duration("base-delay", 2*time.Second, "backoff base delay between retries")
	processCmd.Flags().Duration("timeout", 70*time.Second, "per-call timeout")
	processCmd.Flags().Int("call-budget", 0, "total completion calls allowed for the run (0 = unlimited)")

	rootCmd.AddCommand(processCmd)
}

func runProcess(cmd *cobra.Command, args []string) error {
	cfg, err := pipelineConfig(cmd)
	if err != nil {
		return err
	}

	entry := logrus.NewEntry(log)
	client, err := buildClient(cfg, entry)
	if err != nil {
		return err
	}

	outDir := viperString(cmd, "output-dir")
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return fmt.Errorf("creating output dir: %w", err)
	}

	reg := registry.New()
	registryPath := filepath.Join(outDir, cfg.Refine.Subject+"_registry.json")
	if err := reg.LoadJSON(registryPath); err != nil {
		return err
	}

	extractor := extract.New(client, cfg.Extraction, cfg.Refine.Subject, entry)
	refiner := refine.New(client, cfg.Refine, entry)
	d := driver.New(extractor, refiner, reg, cfg.Refine.Subject, entry)

	ctx := cmd.Context()

	if len(args) == 0 {
		inputDir := viperString(cmd, "input-dir")
		if err := d.ProcessDir(ctx, inputDir, outDir, os.Stdout); err != nil {
			return err
		}
	} else {
		for _, path := range args {
			if err := d.ProcessTranscript(ctx, path, outDir, os.Stdout); err != nil {
				fmt.Fprintf(os.Stdout, "failed %s: %v\n", filepath.Base(path), err)
			}
		}
	}

	if err := reg.WriteJSON(registryPath); err != nil {
		return err
	}
	fmt.Fprintf(os.Stdout, "registry: %d concepts (%s)\n", reg.Len(), registryPath)
	if budget := client.Budget(); budget.Exhausted() {
		fmt.Fprintln(os.Stdout, "call budget exhausted; some segments degraded to partial results")
	} else {
		fmt.Fprintf(os.Stdout, "completion calls used: %d\n", budget.Used())
	}
	return nil
}

// buildClient assembles the completion client from configured backends.
func buildClient(cfg types.PipelineConfig, entry *logrus.Entry) (*completion.Client, error) {
	if len(cfg.Backends) == 0 {
		return nil, fmt.Errorf("no backends configured: add a backends section to the config file")
	}
	backends, err := completion.NewBackends(cfg.Backends, loadedSecrets)
	if err != nil {
		return nil, err
	}
	return completion.NewClient(cfg.Completion, backends, entry), nil
}

// pipelineConfig merges the config file with command-line flags. Flags win
// when set explicitly.
func pipelineConfig(cmd *cobra.Command) (types.PipelineConfig, error) {
	var cfg types.PipelineConfig
	if err := viper.UnmarshalKey("backends", &cfg.Backends); err != nil {
		return cfg, fmt.Errorf("parsing backends config: %w", err)
	}
	if err := viper.UnmarshalKey("completion", &cfg.Completion); err != nil {
		return cfg, fmt.Errorf("parsing completion config: %w", err)
	}
	if err := viper.UnmarshalKey("refine", &cfg.Refine); err != nil {
		return cfg, fmt.Errorf("parsing refine config: %w", err)
	}
	if err := viper.UnmarshalKey("extraction", &cfg.Extraction); err != nil {
		return cfg, fmt.Errorf("parsing extraction config: %w", err)
	}

	if cmd.Flags().Changed("subject") || cfg.Refine.Subject == "" {
		cfg.Refine.Subject, _ = cmd.Flags().GetString("subject")
	}
	if cfg.Refine.Subject == "" {
		return cfg, fmt.Errorf("subject required: use --subject or set refine.subject in the config file")
	}

	if cmd.Flags().Changed("backends") || len(cfg.Refine.Backends) == 0 {
		ids, _ := cmd.Flags().GetStringSlice("backends")
		if len(ids) == 0 {
			for _, b := range cfg.Backends {
				ids = append(ids, b.ID)
			}
		}
		cfg.Refine.Backends = ids
	}

	if cmd.Flags().Changed("extraction-backend") || cfg.Extraction.Backend == "" {
		cfg.Extraction.Backend, _ = cmd.Flags().GetString("extraction-backend")
		if cfg.Extraction.Backend == "" && len(cfg.Backends) > 0 {
			cfg.Extraction.Backend = cfg.Backends[0].ID
		}
	}

	if cmd.Flags().Changed("iterations") || cfg.Refine.Iterations == 0 {
		cfg.Refine.Iterations, _ = cmd.Flags().GetInt("iterations")
	}
	if cmd.Flags().Changed("threshold") || cfg.Refine.Threshold == 0 {
		cfg.Refine.Threshold, _ = cmd.Flags().GetFloat64("threshold")
	}
	if cmd.Flags().Changed("perfect-score-rule") {
		cfg.Refine.PerBackendPerfect, _ = cmd.Flags().GetBool("perfect-score-rule")
	}

	if cmd.Flags().Changed("max-retries") || cfg.Completion.MaxRetries == 0 {
		cfg.Completion.MaxRetries, _ = cmd.Flags().GetInt("max-retries")
	}
	if cmd.Flags().Changed("base-delay") || cfg.Completion.BaseDelay == 0 {
		cfg.Completion.BaseDelay, _ = cmd.Flags().GetDuration("base-delay")
	}
	if cmd.Flags().Changed("timeout") || cfg.Completion.Timeout == 0 {
		cfg.Completion.Timeout, _ = cmd.Flags().GetDuration("timeout")
	}
	if cmd.Flags().Changed("call-budget") {
		cfg.Completion.CallBudget, _ = cmd.Flags().GetInt("call-budget")
	}

	return cfg, nil
}

// viperString resolves a flag with a viper fallback of the same name.
func viperString(cmd *cobra.Command, name string) string {
	if cmd.Flags().Changed(name) {
		v, _ := cmd.Flags().GetString(name)
		return v
	}
	if v := viper.GetString(name); v != "" {
		return v
	}
	v, _ := cmd.Flags().GetString(name)
	return v
}
