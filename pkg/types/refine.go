// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

// RefineRecord is the per-timestamp entry of the refine log artifact. It
// pairs the initial candidate list with the retained set and the score
// vectors that produced the retention decision.
type RefineRecord struct {
	Timespan string `json:"timespan" yaml:"timespan"`

	// Initial lists the candidates that entered refinement, in pool order.
	Initial []string `json:"initial" yaml:"initial"`

	// Retained lists the concepts that survived, in pool order.
	Retained []string `json:"retained" yaml:"retained"`

	// Support counts how many backend×iteration rounds validated each
	// initial concept. Capacity is the matching normalization ceiling.
	Support  map[string]int `json:"support" yaml:"support"`
	Capacity map[string]int `json:"capacity" yaml:"capacity"`

	// TraceSnippet is the feedback/filter exchange trace, truncated for
	// readability. The full trace is never consumed by later stages.
	TraceSnippet string `json:"trace_snippet" yaml:"trace_snippet"`
}

// RefineLog is the refine artifact written for one transcript.
type RefineLog struct {
	Transcript string         `json:"transcript" yaml:"transcript"`
	Subject    string         `json:"subject" yaml:"subject"`
	RunID      string         `json:"run_id" yaml:"run_id"`
	Records    []RefineRecord `json:"records" yaml:"records"`
}
