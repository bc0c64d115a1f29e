// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

// Segment is one timestamp-labeled unit of transcript text. The timespan
// (e.g. "03:15-04:40") is an opaque ordering key used for identity and
// output labeling; it is never parsed as a duration.
type Segment struct {
	Timespan string `json:"timespan" yaml:"timespan"`
	Text     string `json:"text" yaml:"text"`
}
