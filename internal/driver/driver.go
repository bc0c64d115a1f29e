// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package driver walks transcripts segment by segment, runs extraction and
// refinement, and writes the per-transcript artifacts.
package driver

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/concept-refinery/internal/pool"
	"github.com/pdiddy/concept-refinery/internal/refine"
	"github.com/pdiddy/concept-refinery/internal/registry"
	"github.com/pdiddy/concept-refinery/internal/transcript"
	"github.com/pdiddy/concept-refinery/pkg/types"
)

// traceSnippetLimit caps the trace excerpt stored per record in the refine
// log. The full exchange is not worth persisting per segment.
const traceSnippetLimit = 500

// Extractor produces the initial candidate pool for a segment.
type Extractor interface {
	Extract(ctx context.Context, segmentText string) *pool.Pool
}

// Refiner runs the consensus loop over a pool.
type Refiner interface {
	Refine(ctx context.Context, p *pool.Pool) refine.Result
}

// Driver processes transcripts sequentially and folds retained concepts
// into the run registry.
type Driver struct {
	extractor Extractor
	refiner   Refiner
	registry  *registry.Registry
	subject   string
	log       *logrus.Entry
}

// New builds a driver over the given stages.
func New(extractor Extractor, refiner Refiner, reg *registry.Registry, subject string, log *logrus.Entry) *Driver {
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}
	return &Driver{
		extractor: extractor,
		refiner:   refiner,
		registry:  reg,
		subject:   subject,
		log:       log.WithField("component", "driver"),
	}
}

// ProcessSegment extracts a segment's candidates, refines a non-empty pool,
// registers the survivors, and returns the record for the refine log. An
// empty extracted pool skips refinement entirely.
func (d *Driver) ProcessSegment(ctx context.Context, seg types.Segment) types.RefineRecord {
	rec := types.RefineRecord{Timespan: seg.Timespan}

	p := d.extractor.Extract(ctx, seg.Text)
	rec.Initial = p.Concepts()
	if p.Len() == 0 {
		return rec
	}

	res := d.refiner.Refine(ctx, p)
	rec.Retained = res.Retained
	rec.Support = res.Support
	rec.Capacity = make(map[string]int, p.Len())
	for _, c := range rec.Initial {
		rec.Capacity[c] = res.Capacity
	}
	rec.TraceSnippet = renderTraceSnippet(res.Trace)

	d.registry.Add(res.Retained...)
	return rec
}

// ProcessTranscript runs every segment of one transcript file and writes
// its three artifacts under outDir. If the final-concepts artifact already
// exists the transcript is skipped after loading those concepts back into
// the registry, so a resumed run converges on the same registry without
// reissuing calls. Progress and warnings go to w.
func (d *Driver) ProcessTranscript(ctx context.Context, path, outDir string, w io.Writer) error {
	base := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	finalPath := filepath.Join(outDir, base+"_concepts.txt")

	if _, err := os.Stat(finalPath); err == nil {
		if err := d.registry.LoadConceptsFile(finalPath); err != nil {
			return err
		}
		fmt.Fprintf(w, "skipped %s: final artifact exists\n", filepath.Base(path))
		return nil
	}

	segments, err := transcript.ReadFile(path, w)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return fmt.Errorf("creating output dir: %w", err)
	}

	runLog := types.RefineLog{
		Transcript: filepath.Base(path),
		Subject:    d.subject,
		RunID:      uuid.NewString(),
		Records:    make([]types.RefineRecord, 0, len(segments)),
	}
	var extraction, final strings.Builder
	retainedTotal := 0

	for _, seg := range segments {
		rec := d.ProcessSegment(ctx, seg)
		runLog.Records = append(runLog.Records, rec)

		fmt.Fprintf(&extraction, "Timestamp: %s\nConcepts: %s\n", rec.Timespan, strings.Join(rec.Initial, ", "))

		// Every segment gets a line so a resumed run sees the same
		// coverage; concept-less lines carry only the timestamp.
		sorted := append([]string(nil), rec.Retained...)
		sort.Strings(sorted)
		if len(sorted) == 0 {
			fmt.Fprintf(&final, "%s\n", rec.Timespan)
		} else {
			fmt.Fprintf(&final, "%s %s\n", rec.Timespan, strings.Join(sorted, " "))
		}
		retainedTotal += len(rec.Retained)
	}

	if err := os.WriteFile(filepath.Join(outDir, base+"_extraction.log"), []byte(extraction.String()), 0o644); err != nil {
		return fmt.Errorf("writing extraction log: %w", err)
	}
	data, err := yaml.Marshal(&runLog)
	if err != nil {
		return fmt.Errorf("marshaling refine log: %w", err)
	}
	if err := os.WriteFile(filepath.Join(outDir, base+"_refine.yaml"), data, 0o644); err != nil {
		return fmt.Errorf("writing refine log: %w", err)
	}
	if err := os.WriteFile(finalPath, []byte(final.String()), 0o644); err != nil {
		return fmt.Errorf("writing concepts file: %w", err)
	}

	fmt.Fprintf(w, "processed %s: %d segments, %d concepts retained\n", filepath.Base(path), len(segments), retainedTotal)
	return nil
}

// ProcessDir processes every transcript in dir, skipping artifact files. A
// transcript that fails is reported on w and does not stop the batch.
func (d *Driver) ProcessDir(ctx context.Context, dir, outDir string, w io.Writer) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return fmt.Errorf("reading transcript dir: %w", err)
	}

	failed := 0
	for _, e := range entries {
		if e.IsDir() || !IsTranscript(e.Name()) {
			continue
		}
		if err := d.ProcessTranscript(ctx, filepath.Join(dir, e.Name()), outDir, w); err != nil {
			failed++
			d.log.WithField("transcript", e.Name()).WithError(err).Warn("transcript failed")
			fmt.Fprintf(w, "failed %s: %v\n", e.Name(), err)
		}
	}
	if failed > 0 {
		fmt.Fprintf(w, "%d transcript(s) failed\n", failed)
	}
	return nil
}

// IsTranscript reports whether name looks like an input transcript rather
// than a produced artifact.
func IsTranscript(name string) bool {
	if !strings.HasSuffix(name, ".txt") {
		return false
	}
	return !strings.HasSuffix(name, "_concepts.txt")
}

func renderTraceSnippet(trace []refine.TraceEntry) string {
	var b strings.Builder
	for _, t := range trace {
		fmt.Fprintf(&b, "[%s#%d] feedback: %s | kept: %s\n", t.Backend, t.Iteration, t.Feedback, strings.Join(t.Working, ", "))
	}
	r := []rune(b.String())
	if len(r) <= traceSnippetLimit {
		return b.String()
	}
	return string(r[:traceSnippetLimit])
}
