// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/pdiddy/concept-refinery/internal/enrich"
	"github.com/pdiddy/concept-refinery/internal/registry"
	"github.com/pdiddy/concept-refinery/pkg/types"
)

var enrichCmd = &cobra.Command{
	Use:   "enrich <registry.json>",
	Short: "Annotate registered concepts with encyclopedia summaries",
	Long: `Enrich looks up every concept in a registry file against Wikipedia and
writes a YAML glossary. With --translate, Chinese concepts are machine
translated to the lookup language first (requires baidu-translate-appid
and baidu-translate-appkey in .secrets/).`,
	Args: cobra.ExactArgs(1),
	RunE: runEnrich,
}

func init() {
	enrichCmd.Flags().String("language", "en", "Wikipedia language edition")
	enrichCmd.Flags().String("user-agent", "concept-refinery/"+version, "User-Agent for encyclopedia requests")
	enrichCmd.Flags().Duration("timeout", 10*time.Second, "per-lookup timeout")
	enrichCmd.Flags().Int("max-retries", 3, "retries per lookup")
	enrichCmd.Flags().Bool("translate", false, "translate Chinese concepts before lookup")
	enrichCmd.Flags().String("glossary", "glossary.yaml", "output glossary path")

	rootCmd.AddCommand(enrichCmd)
}

func runEnrich(cmd *cobra.Command, args []string) error {
	reg := registry.New()
	if err := reg.LoadJSON(args[0]); err != nil {
		return err
	}
	if reg.Len() == 0 {
		return fmt.Errorf("registry %s holds no concepts", args[0])
	}

	cfg := enrichConfigFromFlags(cmd)

	var translator *enrich.Translator
	if cfg.Translate {
		translator = &enrich.Translator{
			AppID:      loadedSecrets.Get("baidu-translate-appid", os.Getenv("BAIDU_TRANSLATE_APPID")),
			AppKey:     loadedSecrets.Get("baidu-translate-appkey", os.Getenv("BAIDU_TRANSLATE_APPKEY")),
			MaxRetries: cfg.MaxRetries,
		}
	}

	e := enrich.New(cfg, translator)
	entries := e.Enrich(context.Background(), reg.Concepts(), os.Stdout)

	glossaryPath, _ := cmd.Flags().GetString("glossary")
	if err := enrich.WriteGlossary(glossaryPath, entries); err != nil {
		return err
	}
	fmt.Fprintf(os.Stdout, "glossary: %d entries (%s)\n", len(entries), glossaryPath)
	return nil
}

func enrichConfigFromFlags(cmd *cobra.Command) types.EnrichConfig {
	var cfg types.EnrichConfig
	cfg.Language, _ = cmd.Flags().GetString("language")
	cfg.UserAgent, _ = cmd.Flags().GetString("user-agent")
	cfg.Timeout, _ = cmd.Flags().GetDuration("timeout")
	cfg.MaxRetries, _ = cmd.Flags().GetInt("max-retries")
	cfg.Translate, _ = cmd.Flags().GetBool("translate")
	return cfg
}
