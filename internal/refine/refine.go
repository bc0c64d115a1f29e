// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package refine runs the multi-backend consensus loop over a candidate
// pool and decides which concepts survive.
//
// Each configured backend independently works a copy of the pool through a
// fixed number of feedback and filter iterations. Every time a surviving
// list still contains an original candidate, that candidate gains one unit
// of support. Capacity counts the units a candidate could have earned:
// iterations times backends. Retention compares the two.
package refine

import (
	"context"

	"github.com/sirupsen/logrus"

	"github.com/pdiddy/concept-refinery/internal/pool"
	"github.com/pdiddy/concept-refinery/pkg/types"
)

// Completer issues one completion call to a named backend.
type Completer interface {
	Complete(ctx context.Context, backendID, prompt string) (string, error)
}

// TraceEntry records one iteration of one backend's loop for the run
// artifact.
type TraceEntry struct {
	Backend   string   `json:"backend" yaml:"backend"`
	Iteration int      `json:"iteration" yaml:"iteration"`
	Feedback  string   `json:"feedback" yaml:"feedback"`
	Working   []string `json:"working" yaml:"working"`
}

// Result is the outcome of refining one segment's pool.
type Result struct {
	// Retained holds the surviving concepts in pool order.
	Retained []string
	// Support maps each original candidate to its aggregate support.
	Support pool.Vector
	// Capacity is the support a candidate could have earned.
	Capacity int
	// PerBackend maps backend ID to that backend's support vector.
	PerBackend map[string]pool.Vector
	// Trace records every iteration for the run artifact.
	Trace []TraceEntry
}

// Controller drives the consensus loop.
type Controller struct {
	client Completer
	cfg    types.RefineConfig
	log    *logrus.Entry
}

// New builds a controller. Iterations and backends come from cfg; a zero
// iteration count means no loop runs and nothing is ever retained.
func New(client Completer, cfg types.RefineConfig, log *logrus.Entry) *Controller {
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}
	return &Controller{
		client: client,
		cfg:    cfg,
		log:    log.WithField("component", "refine"),
	}
}

// Refine runs every backend's loop over p and applies the retention policy.
// Backend call failures degrade: a failed feedback call contributes no
// feedback, a failed filter call empties the working list so the candidates
// earn no support from that backend's remaining iterations. An empty pool
// returns an empty result without any calls.
func (c *Controller) Refine(ctx context.Context, p *pool.Pool) Result {
	res := Result{
		Support:    pool.NewVector(p),
		PerBackend: make(map[string]pool.Vector, len(c.cfg.Backends)),
	}
	res.Capacity = c.cfg.Iterations * len(c.cfg.Backends)

	if p.Len() == 0 {
		for _, id := range c.cfg.Backends {
			res.PerBackend[id] = pool.NewVector(p)
		}
		return res
	}

	for _, id := range c.cfg.Backends {
		support, trace := c.runBackend(ctx, id, p)
		res.PerBackend[id] = support
		for concept, n := range support {
			res.Support[concept] += n
		}
		res.Trace = append(res.Trace, trace...)
	}

	res.Retained = Retain(p, res.Support, res.Capacity, res.PerBackend, Policy{
		Threshold:         c.cfg.Threshold,
		PerBackendPerfect: c.cfg.PerBackendPerfect,
		Iterations:        c.cfg.Iterations,
	})
	return res
}

// runBackend executes one backend's feedback and filter loop and returns
// the support that backend granted plus its trace.
func (c *Controller) runBackend(ctx context.Context, backendID string, p *pool.Pool) (pool.Vector, []TraceEntry) {
	support := pool.NewVector(p)
	working := p.Concepts()
	var trace []TraceEntry

	blog := c.log.WithField("backend", backendID)
	for i := 1; i <= c.cfg.Iterations; i++ {
		if len(working) == 0 {
			// Nothing left to judge. Later iterations still count
			// toward capacity but issue no calls.
			trace = append(trace, TraceEntry{Backend: backendID, Iteration: i})
			continue
		}

		feedback := ""
		fbPrompt, err := renderFeedbackPrompt(c.cfg.Subject, working)
		if err == nil {
			feedback, err = c.client.Complete(ctx, backendID, fbPrompt)
		}
		if err != nil {
			blog.WithField("iteration", i).WithError(err).Warn("feedback call failed")
			feedback = ""
		}

		var next []string
		flPrompt, err := renderFilterPrompt(c.cfg.Subject, working, feedback)
		if err == nil {
			var raw string
			raw, err = c.client.Complete(ctx, backendID, flPrompt)
			if err == nil {
				next = pool.ParseBullets(raw)
			}
		}
		if err != nil {
			blog.WithField("iteration", i).WithError(err).Warn("filter call failed, dropping working list")
			next = nil
		}
		working = next

		for _, concept := range working {
			if p.Contains(concept) {
				support[concept]++
			}
		}
		trace = append(trace, TraceEntry{
			Backend:   backendID,
			Iteration: i,
			Feedback:  feedback,
			Working:   append([]string(nil), working...),
		})
	}
	return support, trace
}
