// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package refine

import "github.com/pdiddy/concept-refinery/internal/pool"

// Policy controls which candidates survive refinement.
type Policy struct {
	// Threshold is the support over capacity ratio a candidate must
	// exceed, strictly, to be retained.
	Threshold float64
	// PerBackendPerfect additionally retains a candidate when at least
	// one backend granted it support in every iteration.
	PerBackendPerfect bool
	// Iterations is the per-backend iteration count, the perfect score
	// for one backend.
	Iterations int
}

// Retain applies the policy and returns survivors in pool order. A zero
// capacity retains nothing.
func Retain(p *pool.Pool, support pool.Vector, capacity int, perBackend map[string]pool.Vector, pol Policy) []string {
	if capacity <= 0 {
		return nil
	}
	retained := p.Filter(func(concept string) bool {
		ratio := float64(support[concept]) / float64(capacity)
		if ratio > pol.Threshold {
			return true
		}
		if pol.PerBackendPerfect && pol.Iterations > 0 {
			for _, v := range perBackend {
				if v[concept] == pol.Iterations {
					return true
				}
			}
		}
		return false
	})
	if retained.Len() == 0 {
		return nil
	}
	return retained.Concepts()
}
