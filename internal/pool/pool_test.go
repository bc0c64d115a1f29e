// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package pool

import (
	"reflect"
	"testing"
)

func TestNewDedupesAndSorts(t *testing.T) {
	tests := []struct {
		name string
		in   []string
		want []string
	}{
		{
			name: "sorted unique input",
			in:   []string{"atom", "cell", "enzyme"},
			want: []string{"atom", "cell", "enzyme"},
		},
		{
			name: "duplicates removed",
			in:   []string{"cell", "atom", "cell", "atom"},
			want: []string{"atom", "cell"},
		},
		{
			name: "empty strings dropped",
			in:   []string{"", "cell", ""},
			want: []string{"cell"},
		},
		{
			name: "chinese concepts sort by byte order",
			in:   []string{"细胞核", "光合作用"},
			want: []string{"光合作用", "细胞核"},
		},
		{
			name: "empty input",
			in:   nil,
			want: []string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := New(tt.in...)
			if got := p.Concepts(); !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Concepts() = %v, want %v", got, tt.want)
			}
			if p.Len() != len(tt.want) {
				t.Errorf("Len() = %d, want %d", p.Len(), len(tt.want))
			}
		})
	}
}

func TestPoolIndexStable(t *testing.T) {
	p := New("enzyme", "atom", "cell")

	for i, c := range p.Concepts() {
		idx, ok := p.Index(c)
		if !ok {
			t.Fatalf("Index(%q) not found", c)
		}
		if idx != i {
			t.Errorf("Index(%q) = %d, want %d", c, idx, i)
		}
	}

	if _, ok := p.Index("missing"); ok {
		t.Error("Index of absent concept should report false")
	}
	if p.Contains("missing") {
		t.Error("Contains of absent concept should be false")
	}
}

func TestPoolConceptsReturnsCopy(t *testing.T) {
	p := New("atom", "cell")
	got := p.Concepts()
	got[0] = "mutated"

	if p.Concepts()[0] != "atom" {
		t.Error("mutating the returned slice must not change the pool")
	}
}

func TestFilterPreservesOrder(t *testing.T) {
	p := New("atom", "cell", "enzyme", "gene")

	sub := p.Filter(func(c string) bool { return c != "cell" })

	want := []string{"atom", "enzyme", "gene"}
	if got := sub.Concepts(); !reflect.DeepEqual(got, want) {
		t.Errorf("Filter() = %v, want %v", got, want)
	}

	// Retained pool is always a subset of the original.
	for _, c := range sub.Concepts() {
		if !p.Contains(c) {
			t.Errorf("filtered pool invented concept %q", c)
		}
	}
}

func TestNewVectorZero(t *testing.T) {
	p := New("atom", "cell")
	v := NewVector(p)

	if len(v) != p.Len() {
		t.Fatalf("vector has %d keys, want %d", len(v), p.Len())
	}
	for _, c := range p.Concepts() {
		if v[c] != 0 {
			t.Errorf("v[%q] = %d, want 0", c, v[c])
		}
	}
}

func TestParseBullets(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want []string
	}{
		{
			name: "plain list",
			in:   "- 光合作用\n- 细胞核\n- 叶绿体",
			want: []string{"光合作用", "细胞核", "叶绿体"},
		},
		{
			name: "marker-less lines dropped",
			in:   "Here are the concepts:\n- cell\nnot a bullet\n- atom",
			want: []string{"cell", "atom"},
		},
		{
			name: "whitespace around markers",
			in:   "  -  cell \n\t- atom",
			want: []string{"cell", "atom"},
		},
		{
			name: "duplicates keep first position",
			in:   "- cell\n- atom\n- cell",
			want: []string{"cell", "atom"},
		},
		{
			name: "bare marker dropped",
			in:   "-\n- cell\n-   ",
			want: []string{"cell"},
		},
		{
			name: "empty input",
			in:   "",
			want: nil,
		},
		{
			name: "no markers at all",
			in:   "nothing useful here",
			want: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ParseBullets(tt.in); !reflect.DeepEqual(got, tt.want) {
				t.Errorf("ParseBullets(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}
