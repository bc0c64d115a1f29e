// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package registry accumulates the retained concepts of a run across
// transcripts and persists them as a JSON array.
package registry

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strings"
	"sync"
)

// Registry is a deduplicated concept set safe for concurrent use.
type Registry struct {
	mu  sync.Mutex
	set map[string]struct{}
}

// New returns an empty registry.
func New() *Registry {
	return &Registry{set: make(map[string]struct{})}
}

// Add records concepts, ignoring empties and duplicates.
func (r *Registry) Add(concepts ...string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, c := range concepts {
		c = strings.TrimSpace(c)
		if c == "" {
			continue
		}
		r.set[c] = struct{}{}
	}
}

// Len reports the number of distinct concepts.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.set)
}

// Concepts returns the registered concepts sorted lexicographically.
func (r *Registry) Concepts() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, 0, len(r.set))
	for c := range r.set {
		out = append(out, c)
	}
	sort.Strings(out)
	return out
}

// WriteJSON writes the sorted concepts to path as a JSON array.
func (r *Registry) WriteJSON(path string) error {
	data, err := json.MarshalIndent(r.Concepts(), "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling registry: %w", err)
	}
	if err := os.WriteFile(path, append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("writing registry: %w", err)
	}
	return nil
}

// LoadJSON merges an existing registry file into r. A missing file is not
// an error.
func (r *Registry) LoadJSON(path string) error {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("reading registry: %w", err)
	}
	var concepts []string
	if err := json.Unmarshal(data, &concepts); err != nil {
		return fmt.Errorf("parsing registry %s: %w", path, err)
	}
	r.Add(concepts...)
	return nil
}

// LoadConceptsFile merges a final-concepts artifact into r. Each line reads
// "<timestamp> <concept> <concept> ..."; a line with only a timestamp marks
// a segment that yielded nothing.
func (r *Registry) LoadConceptsFile(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("opening concepts file: %w", err)
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		fields := strings.Fields(scanner.Text())
		if len(fields) < 2 {
			continue
		}
		r.Add(fields[1:]...)
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("reading concepts file %s: %w", path, err)
	}
	return nil
}
