package index

import (
	"context"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/concept-refinery/pkg/types"
)

// --- test helpers ---

func testSetup(t *testing.T) (*Store, string) {
	t.Helper()
	tmpDir := t.TempDir()

	outDir := filepath.Join(tmpDir, "output")
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		t.Fatal(err)
	}

	cfg := types.IndexConfig{
		IndexDir:   filepath.Join(tmpDir, "index"),
		MaxResults: 20,
	}
	store, err := NewStore(cfg)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { store.Close() })

	return store, outDir
}

func writeRefineLog(t *testing.T, outDir, transcriptID string, runLog types.RefineLog) {
	t.Helper()
	data, err := yaml.Marshal(&runLog)
	if err != nil {
		t.Fatal(err)
	}
	path := filepath.Join(outDir, transcriptID+"_refine.yaml")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatal(err)
	}
}

func sampleLog(transcriptID string) types.RefineLog {
	return types.RefineLog{
		Transcript: transcriptID + ".txt",
		Subject:    "biology",
		RunID:      "run-0001",
		Records: []types.RefineRecord{
			{
				Timespan: "00:00-00:30",
				Initial:  []string{"光合作用", "细胞核"},
				Retained: []string{"光合作用"},
				Support:  map[string]int{"光合作用": 6, "细胞核": 2},
				Capacity: map[string]int{"光合作用": 6, "细胞核": 6},
			},
			{
				Timespan: "00:30-01:00",
				Initial:  []string{"mitosis"},
				Retained: []string{"mitosis"},
				Support:  map[string]int{"mitosis": 5},
				Capacity: map[string]int{"mitosis": 6},
			},
		},
	}
}

func ingestHelper(t *testing.T, s *Store, outDir string) IngestSummary {
	t.Helper()
	summary, err := s.Ingest(context.Background(), outDir, io.Discard)
	if err != nil {
		t.Fatal(err)
	}
	return summary
}

// --- tests ---

func TestIngestNewLog(t *testing.T) {
	store, outDir := testSetup(t)
	writeRefineLog(t, outDir, "lecture01", sampleLog("lecture01"))

	summary := ingestHelper(t, store, outDir)
	if summary.Indexed != 1 || summary.Failed != 0 {
		t.Fatalf("summary = %+v, want 1 indexed", summary)
	}

	results, err := store.Retrieve(context.Background(), QueryOptions{Transcript: "lecture01"})
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 3 {
		t.Fatalf("results = %d, want 3", len(results))
	}
	if results[0].Subject != "biology" {
		t.Errorf("subject = %q, want biology", results[0].Subject)
	}
}

func TestIngestSkipsUnchanged(t *testing.T) {
	store, outDir := testSetup(t)
	writeRefineLog(t, outDir, "lecture01", sampleLog("lecture01"))

	ingestHelper(t, store, outDir)
	summary := ingestHelper(t, store, outDir)
	if summary.Skipped != 1 || summary.Indexed != 0 {
		t.Fatalf("summary = %+v, want 1 skipped", summary)
	}
}

func TestIngestUpdatesChanged(t *testing.T) {
	store, outDir := testSetup(t)
	writeRefineLog(t, outDir, "lecture01", sampleLog("lecture01"))
	ingestHelper(t, store, outDir)

	// Rewrite with a different mod time and one fewer record.
	changed := sampleLog("lecture01")
	changed.Records = changed.Records[:1]
	writeRefineLog(t, outDir, "lecture01", changed)
	path := filepath.Join(outDir, "lecture01_refine.yaml")
	future := time.Now().Add(2 * time.Second)
	if err := os.Chtimes(path, future, future); err != nil {
		t.Fatal(err)
	}

	summary := ingestHelper(t, store, outDir)
	if summary.Updated != 1 {
		t.Fatalf("summary = %+v, want 1 updated", summary)
	}

	results, err := store.Retrieve(context.Background(), QueryOptions{Transcript: "lecture01"})
	if err != nil {
		t.Fatal(err)
	}
	// Old rows must be replaced, not accumulated.
	if len(results) != 2 {
		t.Errorf("results = %d, want 2", len(results))
	}
}

func TestIngestMalformedLog(t *testing.T) {
	store, outDir := testSetup(t)
	path := filepath.Join(outDir, "broken_refine.yaml")
	if err := os.WriteFile(path, []byte("{not yaml"), 0o644); err != nil {
		t.Fatal(err)
	}
	writeRefineLog(t, outDir, "lecture01", sampleLog("lecture01"))

	summary := ingestHelper(t, store, outDir)
	if summary.Failed != 1 || summary.Indexed != 1 {
		t.Fatalf("summary = %+v, want 1 failed and 1 indexed", summary)
	}
}

func TestRetrieveFullText(t *testing.T) {
	store, outDir := testSetup(t)
	writeRefineLog(t, outDir, "lecture01", sampleLog("lecture01"))
	ingestHelper(t, store, outDir)

	results, err := store.Retrieve(context.Background(), QueryOptions{Query: "mitosis"})
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 1 || results[0].Term != "mitosis" {
		t.Fatalf("results = %+v, want one mitosis row", results)
	}
	if got := results[0].Ratio(); got < 0.83 || got > 0.84 {
		t.Errorf("ratio = %v, want 5/6", got)
	}
}

func TestRetrieveRetainedOnly(t *testing.T) {
	store, outDir := testSetup(t)
	writeRefineLog(t, outDir, "lecture01", sampleLog("lecture01"))
	ingestHelper(t, store, outDir)

	results, err := store.Retrieve(context.Background(), QueryOptions{RetainedOnly: true})
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 2 {
		t.Fatalf("results = %d, want 2 retained", len(results))
	}
	for _, r := range results {
		if !r.Retained {
			t.Errorf("result %q not retained", r.Term)
		}
		if r.Term == "细胞核" {
			t.Errorf("dropped concept %q returned", r.Term)
		}
	}
}

func TestRetrieveMaxResults(t *testing.T) {
	store, outDir := testSetup(t)
	writeRefineLog(t, outDir, "lecture01", sampleLog("lecture01"))
	ingestHelper(t, store, outDir)

	results, err := store.Retrieve(context.Background(), QueryOptions{MaxResults: 1})
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 1 {
		t.Fatalf("results = %d, want 1", len(results))
	}
}

func TestQueryOptionsIsEmpty(t *testing.T) {
	if !(QueryOptions{}).IsEmpty() {
		t.Error("zero options should be empty")
	}
	if (QueryOptions{Query: "x"}).IsEmpty() {
		t.Error("query options should not be empty")
	}
	if (QueryOptions{RetainedOnly: true}).IsEmpty() {
		t.Error("retained-only options should not be empty")
	}
}

func TestExportJSONAndYAML(t *testing.T) {
	store, outDir := testSetup(t)
	writeRefineLog(t, outDir, "lecture01", sampleLog("lecture01"))
	ingestHelper(t, store, outDir)

	ctx := context.Background()
	if err := store.ExportJSON(ctx, QueryOptions{RetainedOnly: true}); err != nil {
		t.Fatal(err)
	}
	if err := store.ExportYAML(ctx, QueryOptions{}); err != nil {
		t.Fatal(err)
	}

	jsonData, err := os.ReadFile(filepath.Join(store.indexDir, "export.json"))
	if err != nil {
		t.Fatal(err)
	}
	var exported []QueryResult
	if err := json.Unmarshal(jsonData, &exported); err != nil {
		t.Fatal(err)
	}
	if len(exported) != 2 {
		t.Errorf("exported = %d, want 2 retained", len(exported))
	}

	yamlData, err := os.ReadFile(filepath.Join(store.indexDir, "export.yaml"))
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(yamlData), "光合作用") {
		t.Errorf("yaml export missing concept: %s", yamlData)
	}
}
