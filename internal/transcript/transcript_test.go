// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package transcript

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestParseLine(t *testing.T) {
	tests := []struct {
		name         string
		line         string
		wantTimespan string
		wantText     string
		wantErr      bool
	}{
		{
			name:         "basic line",
			line:         `"00:10-00:45": "光合作用将光能转化为化学能"`,
			wantTimespan: "00:10-00:45",
			wantText:     "光合作用将光能转化为化学能",
		},
		{
			name:         "hour-minute timespan",
			line:         `"01:02-01:15": "the cell nucleus stores DNA"`,
			wantTimespan: "01:02-01:15",
			wantText:     "the cell nucleus stores DNA",
		},
		{
			name:         "spaces around colon",
			line:         `"00:10-00:45"  :  "content"`,
			wantTimespan: "00:10-00:45",
			wantText:     "content",
		},
		{
			name:         "escaped quotes unescaped",
			line:         `"00:10-00:45": "the term \"osmosis\" appears here"`,
			wantTimespan: "00:10-00:45",
			wantText:     `the term "osmosis" appears here`,
		},
		{
			name:    "missing timestamp",
			line:    `"some content with no timestamp"`,
			wantErr: true,
		},
		{
			name:    "empty content",
			line:    `"00:10-00:45": ""`,
			wantErr: true,
		},
		{
			name:    "plain prose",
			line:    "not a transcript line at all",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			seg, err := ParseLine(tt.line)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("ParseLine(%q): expected error, got %+v", tt.line, seg)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseLine(%q): %v", tt.line, err)
			}
			if seg.Timespan != tt.wantTimespan {
				t.Errorf("Timespan = %q, want %q", seg.Timespan, tt.wantTimespan)
			}
			if seg.Text != tt.wantText {
				t.Errorf("Text = %q, want %q", seg.Text, tt.wantText)
			}
		})
	}
}

func TestReadFileSkipsMalformed(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "lesson.txt")
	content := `"00:00-00:30": "first segment"

garbage line
"00:30-01:00": "second segment"
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	var warnings strings.Builder
	segments, err := ReadFile(path, &warnings)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}

	if len(segments) != 2 {
		t.Fatalf("got %d segments, want 2", len(segments))
	}
	if segments[0].Timespan != "00:00-00:30" || segments[1].Timespan != "00:30-01:00" {
		t.Errorf("segments out of file order: %+v", segments)
	}
	if !strings.Contains(warnings.String(), "malformed transcript line") {
		t.Errorf("expected a warning for the garbage line, got %q", warnings.String())
	}
}

func TestReadFileMissing(t *testing.T) {
	var warnings strings.Builder
	_, err := ReadFile(filepath.Join(t.TempDir(), "absent.txt"), &warnings)
	if err == nil {
		t.Fatal("expected error for missing file")
	}
}
