// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package report renders run results into a spreadsheet for review. It
// reads the refine logs a run produced and writes one workbook with a
// per-segment sheet and a concept frequency sheet.
package report

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/xuri/excelize/v2"
	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/concept-refinery/pkg/types"
)

const (
	segmentsSheet = "Segments"
	conceptsSheet = "Concepts"
)

// conceptStat aggregates one concept's appearances across a run.
type conceptStat struct {
	term        string
	retained    int
	candidate   int
	transcripts map[string]struct{}
}

// Write scans outDir for refine logs and writes the workbook to path.
func Write(outDir, path string) error {
	logs, err := loadLogs(outDir)
	if err != nil {
		return err
	}
	if len(logs) == 0 {
		return fmt.Errorf("no refine logs found in %s", outDir)
	}

	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", segmentsSheet); err != nil {
		return fmt.Errorf("naming segments sheet: %w", err)
	}
	if _, err := f.NewSheet(conceptsSheet); err != nil {
		return fmt.Errorf("creating concepts sheet: %w", err)
	}

	if err := writeSegments(f, logs); err != nil {
		return err
	}
	if err := writeConcepts(f, logs); err != nil {
		return err
	}

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("saving report: %w", err)
	}
	return nil
}

func loadLogs(outDir string) ([]types.RefineLog, error) {
	entries, err := os.ReadDir(outDir)
	if err != nil {
		return nil, fmt.Errorf("reading output directory %s: %w", outDir, err)
	}

	var logs []types.RefineLog
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), "_refine.yaml") {
			continue
		}
		data, err := os.ReadFile(filepath.Join(outDir, entry.Name()))
		if err != nil {
			return nil, fmt.Errorf("reading %s: %w", entry.Name(), err)
		}
		var runLog types.RefineLog
		if err := yaml.Unmarshal(data, &runLog); err != nil {
			return nil, fmt.Errorf("parsing %s: %w", entry.Name(), err)
		}
		logs = append(logs, runLog)
	}
	sort.Slice(logs, func(i, j int) bool { return logs[i].Transcript < logs[j].Transcript })
	return logs, nil
}

func writeSegments(f *excelize.File, logs []types.RefineLog) error {
	headers := []string{"Transcript", "Timespan", "Candidates", "Retained", "Retained Concepts"}
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		if err := f.SetCellValue(segmentsSheet, cell, h); err != nil {
			return fmt.Errorf("writing segments header: %w", err)
		}
	}

	row := 2
	for _, runLog := range logs {
		for _, rec := range runLog.Records {
			values := []any{
				runLog.Transcript,
				rec.Timespan,
				len(rec.Initial),
				len(rec.Retained),
				strings.Join(rec.Retained, ", "),
			}
			for i, v := range values {
				cell, _ := excelize.CoordinatesToCellName(i+1, row)
				if err := f.SetCellValue(segmentsSheet, cell, v); err != nil {
					return fmt.Errorf("writing segment row: %w", err)
				}
			}
			row++
		}
	}
	return nil
}

func writeConcepts(f *excelize.File, logs []types.RefineLog) error {
	stats := make(map[string]*conceptStat)
	for _, runLog := range logs {
		for _, rec := range runLog.Records {
			retained := make(map[string]bool, len(rec.Retained))
			for _, c := range rec.Retained {
				retained[c] = true
			}
			for _, concept := range rec.Initial {
				st, ok := stats[concept]
				if !ok {
					st = &conceptStat{term: concept, transcripts: make(map[string]struct{})}
					stats[concept] = st
				}
				st.candidate++
				if retained[concept] {
					st.retained++
				}
				st.transcripts[runLog.Transcript] = struct{}{}
			}
		}
	}

	ordered := make([]*conceptStat, 0, len(stats))
	for _, st := range stats {
		ordered = append(ordered, st)
	}
	// Most retained first, ties broken lexicographically.
	sort.Slice(ordered, func(i, j int) bool {
		if ordered[i].retained != ordered[j].retained {
			return ordered[i].retained > ordered[j].retained
		}
		return ordered[i].term < ordered[j].term
	})

	headers := []string{"Concept", "Retained Count", "Candidate Count", "Transcripts"}
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		if err := f.SetCellValue(conceptsSheet, cell, h); err != nil {
			return fmt.Errorf("writing concepts header: %w", err)
		}
	}

	for row, st := range ordered {
		values := []any{st.term, st.retained, st.candidate, len(st.transcripts)}
		for i, v := range values {
			cell, _ := excelize.CoordinatesToCellName(i+1, row+2)
			if err := f.SetCellValue(conceptsSheet, cell, v); err != nil {
				return fmt.Errorf("writing concept row: %w", err)
			}
		}
	}
	return nil
}
