// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package extract produces the initial candidate pool for one transcript
// segment with a single completion call.
package extract

import (
	"context"

	"github.com/sirupsen/logrus"

	"github.com/pdiddy/concept-refinery/internal/pool"
	"github.com/pdiddy/concept-refinery/pkg/types"
)

// Completer issues one completion call to a named backend. Satisfied by
// *completion.Client; tests supply a mock.
type Completer interface {
	Complete(ctx context.Context, backendID, prompt string) (string, error)
}

// Extractor turns segment text into candidate pools.
type Extractor struct {
	client  Completer
	backend string
	subject string
	log     *logrus.Entry
}

// New builds an extractor using the given backend ID for every call.
func New(client Completer, cfg types.ExtractionConfig, subject string, log *logrus.Entry) *Extractor {
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}
	return &Extractor{
		client:  client,
		backend: cfg.Backend,
		subject: subject,
		log:     log.WithField("component", "extract"),
	}
}

// Extract sends the segment text plus the extraction instruction and parses
// the bullet-line response into a pool. Empty segment text short-circuits to
// an empty pool without a network call; a failed call degrades to an empty
// pool rather than an error.
func (e *Extractor) Extract(ctx context.Context, segmentText string) *pool.Pool {
	if isBlank(segmentText) {
		return pool.New()
	}

	prompt, err := renderExtractionPrompt(e.subject, segmentText)
	if err != nil {
		e.log.WithError(err).Warn("rendering extraction prompt")
		return pool.New()
	}

	response, err := e.client.Complete(ctx, e.backend, prompt)
	if err != nil {
		e.log.WithField("backend", e.backend).WithError(err).
			Warn("extraction call failed, yielding empty pool")
		return pool.New()
	}

	return pool.New(pool.ParseBullets(response)...)
}

func isBlank(s string) bool {
	for _, r := range s {
		if r != ' ' && r != '\t' && r != '\n' && r != '\r' {
			return false
		}
	}
	return true
}
