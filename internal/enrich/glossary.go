// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package enrich

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"
	"unicode"

	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/concept-refinery/pkg/types"
)

// GlossaryEntry is one enriched concept in the glossary artifact.
type GlossaryEntry struct {
	Concept     string `json:"concept" yaml:"concept"`
	Translation string `json:"translation,omitempty" yaml:"translation,omitempty"`
	Title       string `json:"title,omitempty" yaml:"title,omitempty"`
	Summary     string `json:"summary,omitempty" yaml:"summary,omitempty"`
	URL         string `json:"url,omitempty" yaml:"url,omitempty"`
	Missing     bool   `json:"missing,omitempty" yaml:"missing,omitempty"`
}

// Enricher builds glossaries from retained concepts.
type Enricher struct {
	wiki       *WikipediaClient
	translator *Translator
	translate  bool
}

// New builds an enricher. translator may be nil when cfg.Translate is off.
func New(cfg types.EnrichConfig, translator *Translator) *Enricher {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	client := &http.Client{Timeout: timeout}
	if translator != nil && translator.Client == nil {
		translator.Client = client
	}
	return &Enricher{
		wiki: &WikipediaClient{
			Client:     client,
			Language:   cfg.Language,
			UserAgent:  cfg.UserAgent,
			MaxRetries: cfg.MaxRetries,
		},
		translator: translator,
		translate:  cfg.Translate && translator != nil,
	}
}

// Enrich looks up every concept and reports progress on w. A concept with
// no entry is kept in the glossary flagged as missing; lookup failures are
// reported and skipped so one bad term never aborts the batch.
func (e *Enricher) Enrich(ctx context.Context, concepts []string, w io.Writer) []GlossaryEntry {
	entries := make([]GlossaryEntry, 0, len(concepts))
	for _, concept := range concepts {
		entry := GlossaryEntry{Concept: concept}
		term := concept

		if e.translate && hasHan(concept) {
			translated, err := e.translator.Translate(ctx, concept, "zh", "en")
			if err != nil {
				fmt.Fprintf(w, "failed  %s: translate: %v\n", concept, err)
				entries = append(entries, entry)
				continue
			}
			entry.Translation = translated
			term = translated
		}

		summary, err := e.wiki.Lookup(ctx, term)
		switch {
		case errors.Is(err, ErrNotFound):
			entry.Missing = true
			fmt.Fprintf(w, "missing %s\n", concept)
		case err != nil:
			fmt.Fprintf(w, "failed  %s: %v\n", concept, err)
			entries = append(entries, entry)
			continue
		default:
			entry.Title = summary.Title
			entry.Summary = summary.Extract
			entry.URL = summary.URL
			fmt.Fprintf(w, "enriched %s\n", concept)
		}
		entries = append(entries, entry)
	}
	return entries
}

// WriteGlossary writes entries to path as YAML.
func WriteGlossary(path string, entries []GlossaryEntry) error {
	data, err := yaml.Marshal(entries)
	if err != nil {
		return fmt.Errorf("marshaling glossary: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing glossary: %w", err)
	}
	return nil
}

// hasHan reports whether s contains at least one Han character.
func hasHan(s string) bool {
	for _, r := range s {
		if unicode.Is(unicode.Han, r) {
			return true
		}
	}
	return false
}
