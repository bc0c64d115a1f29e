// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package main is the entry point for the concept-refinery CLI.
package main

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/concept-refinery/internal/logging"
	"github.com/pdiddy/concept-refinery/internal/secrets"
)

// version is set at build time via ldflags.
var version = "dev"

// loadedSecrets holds API keys loaded from .secrets/ at startup.
var loadedSecrets secrets.Secrets

// log is the process-wide logger shared by all subcommands.
var log *logrus.Logger

// rootCmd is the base command for the concept-refinery CLI.
var rootCmd = &cobra.Command{
	Use:   "concept-refinery",
	Short: "Consensus-driven concept extraction from lecture transcripts",
	Long: `concept-refinery extracts domain concepts from timestamped lecture
transcripts and refines them by consensus: several completion backends
independently critique and filter each candidate list over multiple
iterations, and only concepts with enough accumulated support survive.

Each stage is a subcommand: process runs the extraction and refinement
pipeline over transcripts, watch keeps a directory under observation,
index manages the searchable concept store, enrich builds a glossary,
and report renders a spreadsheet summary.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// .env is optional and never an error.
		godotenv.Load()

		s, err := secrets.Load(".secrets/")
		if err != nil {
			return err
		}
		loadedSecrets = s
		if len(s) > 0 {
			keys := make([]string, 0, len(s))
			for k := range s {
				keys = append(keys, k)
			}
			sort.Strings(keys)
			fmt.Fprintf(os.Stderr, "Loaded secrets: %v\n", keys)
		}
		return nil
	},
}

func init() {
	log = logging.New()
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().String("config", "", "config file (default: ./concept-refinery.yaml or ~/.config/concept-refinery/config.yaml)")
}

func initConfig() {
	cfgFile, _ := rootCmd.PersistentFlags().GetString("config")
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("concept-refinery")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")

		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(filepath.Join(home, ".config", "concept-refinery"))
		}
	}

	viper.SetEnvPrefix("CONCEPT_REFINERY")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
