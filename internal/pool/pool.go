// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package pool models candidate concept pools and their score vectors.
// A pool's order is fixed at creation so indices stay stable while
// per-backend working lists diverge during refinement.
package pool

import (
	"sort"
	"strings"
)

// Pool is an ordered, duplicate-free sequence of concept strings. Identity
// is the exact string value.
type Pool struct {
	concepts []string
	index    map[string]int
}

// New builds a pool from the given concepts, dropping duplicates and
// empty strings and fixing lexicographic order.
func New(concepts ...string) *Pool {
	seen := make(map[string]struct{}, len(concepts))
	unique := make([]string, 0, len(concepts))
	for _, c := range concepts {
		if c == "" {
			continue
		}
		if _, ok := seen[c]; ok {
			continue
		}
		seen[c] = struct{}{}
		unique = append(unique, c)
	}
	sort.Strings(unique)

	p := &Pool{concepts: unique, index: make(map[string]int, len(unique))}
	for i, c := range unique {
		p.index[c] = i
	}
	return p
}

// Len returns the number of concepts in the pool.
func (p *Pool) Len() int {
	return len(p.concepts)
}

// Concepts returns a copy of the pool's concepts in pool order.
func (p *Pool) Concepts() []string {
	out := make([]string, len(p.concepts))
	copy(out, p.concepts)
	return out
}

// Contains reports whether the pool holds the exact concept string.
func (p *Pool) Contains(c string) bool {
	_, ok := p.index[c]
	return ok
}

// Index returns the stable position of a concept within the pool.
func (p *Pool) Index(c string) (int, bool) {
	i, ok := p.index[c]
	return i, ok
}

// Filter returns a new pool holding only the concepts keep accepts,
// preserving the receiver's order.
func (p *Pool) Filter(keep func(string) bool) *Pool {
	sub := &Pool{index: make(map[string]int)}
	for _, c := range p.concepts {
		if keep(c) {
			sub.index[c] = len(sub.concepts)
			sub.concepts = append(sub.concepts, c)
		}
	}
	return sub
}

// Vector maps every concept of an originating pool to an integer count.
// Support and capacity vectors always share the pool's key domain.
type Vector map[string]int

// NewVector returns a vector with a zero entry for every pool concept.
func NewVector(p *Pool) Vector {
	v := make(Vector, p.Len())
	for _, c := range p.concepts {
		v[c] = 0
	}
	return v
}

// ParseBullets extracts concepts from LLM output using the strict
// line-prefix convention: each retained line begins with "-" and the
// trimmed remainder is the concept. Marker-less or empty lines are
// silently dropped; duplicates keep their first position.
func ParseBullets(s string) []string {
	if s == "" {
		return nil
	}

	var out []string
	seen := make(map[string]struct{})
	for _, line := range strings.Split(s, "\n") {
		line = strings.TrimSpace(line)
		if !strings.HasPrefix(line, "-") {
			continue
		}
		concept := strings.TrimSpace(strings.TrimPrefix(line, "-"))
		if concept == "" {
			continue
		}
		if _, ok := seen[concept]; ok {
			continue
		}
		seen[concept] = struct{}{}
		out = append(out, concept)
	}
	return out
}
