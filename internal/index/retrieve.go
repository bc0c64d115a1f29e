// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package index

import (
	"context"
	"fmt"
	"strings"
)

// QueryOptions holds parameters for concept index queries.
type QueryOptions struct {
	// Query is the FTS5 full-text search string over concept terms.
	Query string

	// Transcript filters by transcript ID.
	Transcript string

	// RetainedOnly drops candidates that failed retention.
	RetainedOnly bool

	// MaxResults limits result count. Zero uses the store default.
	MaxResults int
}

// IsEmpty reports whether the query has no search terms or filters.
func (q QueryOptions) IsEmpty() bool {
	return q.Query == "" && q.Transcript == "" && !q.RetainedOnly
}

// QueryResult is one indexed concept occurrence with its score context.
type QueryResult struct {
	Term       string `json:"term" yaml:"term"`
	Transcript string `json:"transcript" yaml:"transcript"`
	Subject    string `json:"subject" yaml:"subject"`
	Timespan   string `json:"timespan" yaml:"timespan"`
	Support    int    `json:"support" yaml:"support"`
	Capacity   int    `json:"capacity" yaml:"capacity"`
	Retained   bool   `json:"retained" yaml:"retained"`
}

// Ratio returns support over capacity, 0 when capacity is 0.
func (r QueryResult) Ratio() float64 {
	if r.Capacity == 0 {
		return 0
	}
	return float64(r.Support) / float64(r.Capacity)
}

// Retrieve queries the concept index with optional full-text search and
// structured filters. Full-text queries rank by relevance; structured-only
// queries sort by transcript and timespan.
func (s *Store) Retrieve(ctx context.Context, opts QueryOptions) ([]QueryResult, error) {
	maxResults := opts.MaxResults
	if maxResults <= 0 {
		maxResults = s.maxResults
	}

	var (
		qb     strings.Builder
		args   []any
		useFTS = opts.Query != ""
	)

	if useFTS {
		qb.WriteString(
			`SELECT c.term, c.transcript_id, t.subject, c.timespan,
				c.support, c.capacity, c.retained
			FROM concepts_fts
			JOIN concepts c ON c.rowid = concepts_fts.rowid
			LEFT JOIN transcripts t ON c.transcript_id = t.id
			WHERE concepts_fts MATCH ?`)
		args = append(args, opts.Query)
	} else {
		qb.WriteString(
			`SELECT c.term, c.transcript_id, t.subject, c.timespan,
				c.support, c.capacity, c.retained
			FROM concepts c
			LEFT JOIN transcripts t ON c.transcript_id = t.id
			WHERE 1=1`)
	}

	if opts.Transcript != "" {
		qb.WriteString(` AND c.transcript_id = ?`)
		args = append(args, opts.Transcript)
	}

	if opts.RetainedOnly {
		qb.WriteString(` AND c.retained = 1`)
	}

	if useFTS {
		qb.WriteString(` ORDER BY concepts_fts.rank`)
	} else {
		qb.WriteString(` ORDER BY c.transcript_id, c.timespan, c.term`)
	}

	qb.WriteString(` LIMIT ?`)
	args = append(args, maxResults)

	rows, err := s.db.QueryContext(ctx, qb.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("querying concept index: %w", err)
	}
	defer rows.Close()

	var results []QueryResult
	for rows.Next() {
		var (
			qr       QueryResult
			retained int
		)
		if err := rows.Scan(
			&qr.Term, &qr.Transcript, &qr.Subject, &qr.Timespan,
			&qr.Support, &qr.Capacity, &retained,
		); err != nil {
			return nil, fmt.Errorf("scanning row: %w", err)
		}
		qr.Retained = retained == 1
		results = append(results, qr)
	}

	return results, rows.Err()
}
