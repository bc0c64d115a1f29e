// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/pdiddy/concept-refinery/internal/driver"
	"github.com/pdiddy/concept-refinery/internal/extract"
	"github.com/pdiddy/concept-refinery/internal/refine"
	"github.com/pdiddy/concept-refinery/internal/registry"
	"github.com/pdiddy/concept-refinery/internal/watch"
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Process transcripts as they appear in a directory",
	Long: `Watch monitors --input-dir and runs the pipeline on every transcript
file created there, updating the registry after each one. Stop with
SIGINT or SIGTERM; the registry is flushed after every transcript so an
interrupted watch loses nothing.`,
	RunE: runWatch,
}

func init() {
	watchCmd.Flags().AddFlagSet(processCmd.Flags())
	rootCmd.AddCommand(watchCmd)
}

func runWatch(cmd *cobra.Command, args []string) error {
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
	registryPath := filepath.Join(outDir, cfg.Refine.Subject+"_registry.json")

	reg := registry.New()
	if err := reg.LoadJSON(registryPath); err != nil {
		return err
	}

	extractor := extract.New(client, cfg.Extraction, cfg.Refine.Subject, entry)
	refiner := refine.New(client, cfg.Refine, entry)
	d := driver.New(extractor, refiner, reg, cfg.Refine.Subject, entry)

	handler := func(ctx context.Context, path string) error {
		if err := d.ProcessTranscript(ctx, path, outDir, os.Stdout); err != nil {
			return err
		}
		return reg.WriteJSON(registryPath)
	}

	inputDir := viperString(cmd, "input-dir")
	w, err := watch.New(inputDir, handler, entry)
	if err != nil {
		return err
	}
	defer w.Stop()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	err = w.Start(ctx)
	if errors.Is(err, context.Canceled) {
		fmt.Fprintln(os.Stdout, "watch stopped")
		return nil
	}
	return err
}
