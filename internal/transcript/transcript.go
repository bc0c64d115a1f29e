// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package transcript parses timestamped transcript files. Each line has the
// form `"HH:MM-HH:MM": "content"`; content may contain escaped quotes.
package transcript

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"regexp"
	"strings"

	"github.com/pdiddy/concept-refinery/pkg/types"
)

var lineRE = regexp.MustCompile(`^"([^"]+)"\s*:\s*"(.+)"$`)

// ParseLine parses a single transcript line into a segment. Escaped quotes
// inside the content are unescaped.
func ParseLine(line string) (types.Segment, error) {
	m := lineRE.FindStringSubmatch(line)
	if m == nil {
		return types.Segment{}, fmt.Errorf("malformed transcript line: %q", truncateLine(line))
	}
	return types.Segment{
		Timespan: m[1],
		Text:     strings.ReplaceAll(m[2], `\"`, `"`),
	}, nil
}

// ReadFile reads all segments of a transcript in file order. Blank lines are
// ignored; malformed lines are skipped with a warning on w so a single bad
// line never aborts the transcript.
func ReadFile(path string, w io.Writer) ([]types.Segment, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening transcript %s: %w", path, err)
	}
	defer f.Close()

	var segments []types.Segment
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		seg, err := ParseLine(line)
		if err != nil {
			fmt.Fprintf(w, "warning: %s:%d: %v\n", path, lineNo, err)
			continue
		}
		segments = append(segments, seg)
	}
	if err := scanner.Err(); err != nil {
		return segments, fmt.Errorf("reading transcript %s: %w", path, err)
	}
	return segments, nil
}

func truncateLine(line string) string {
	const max = 50
	r := []rune(line)
	if len(r) <= max {
		return line
	}
	return string(r[:max]) + "..."
}
