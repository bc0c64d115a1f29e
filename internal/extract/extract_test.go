// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package extract

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/pdiddy/concept-refinery/pkg/types"
)

type scriptedCompleter struct {
	response string
	err      error
	calls    int
	prompts  []string
	backends []string
}

func (s *scriptedCompleter) Complete(_ context.Context, backendID, prompt string) (string, error) {
	s.calls++
	s.backends = append(s.backends, backendID)
	s.prompts = append(s.prompts, prompt)
	return s.response, s.err
}

func newTestExtractor(c Completer) *Extractor {
	return New(c, types.ExtractionConfig{Backend: "primary"}, "biology", nil)
}

func TestExtractParsesBullets(t *testing.T) {
	c := &scriptedCompleter{response: "- 光合作用\n- 细胞核\nnot a bullet\n- 光合作用\n"}
	e := newTestExtractor(c)

	p := e.Extract(context.Background(), "今天我们讲光合作用和细胞核。")
	got := p.Concepts()
	want := []string{"光合作用", "细胞核"}
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("concept %d: got %q, want %q", i, got[i], want[i])
		}
	}
	if c.calls != 1 {
		t.Errorf("calls = %d, want 1", c.calls)
	}
	if c.backends[0] != "primary" {
		t.Errorf("backend = %q, want primary", c.backends[0])
	}
}

func TestExtractPromptContents(t *testing.T) {
	c := &scriptedCompleter{response: ""}
	e := newTestExtractor(c)

	e.Extract(context.Background(), "segment body here")
	if c.calls != 1 {
		t.Fatalf("calls = %d, want 1", c.calls)
	}
	prompt := c.prompts[0]
	if !strings.Contains(prompt, "biology") {
		t.Errorf("prompt missing subject: %q", prompt)
	}
	if !strings.Contains(prompt, "segment body here") {
		t.Errorf("prompt missing segment text: %q", prompt)
	}
}

func TestExtractEmptyTextSkipsCall(t *testing.T) {
	for _, text := range []string{"", "   ", "\n\t\n"} {
		c := &scriptedCompleter{response: "- should not appear"}
		e := newTestExtractor(c)

		p := e.Extract(context.Background(), text)
		if p.Len() != 0 {
			t.Errorf("text %q: pool len = %d, want 0", text, p.Len())
		}
		if c.calls != 0 {
			t.Errorf("text %q: calls = %d, want 0", text, c.calls)
		}
	}
}

func TestExtractFailureYieldsEmptyPool(t *testing.T) {
	c := &scriptedCompleter{err: errors.New("backend down")}
	e := newTestExtractor(c)

	p := e.Extract(context.Background(), "some content")
	if p.Len() != 0 {
		t.Errorf("pool len = %d, want 0", p.Len())
	}
	if c.calls != 1 {
		t.Errorf("calls = %d, want 1", c.calls)
	}
}

func TestExtractNoBulletsYieldsEmptyPool(t *testing.T) {
	c := &scriptedCompleter{response: "The segment contains no relevant concepts."}
	e := newTestExtractor(c)

	p := e.Extract(context.Background(), "off topic chatter")
	if p.Len() != 0 {
		t.Errorf("pool len = %d, want 0", p.Len())
	}
}
