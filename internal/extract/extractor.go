// Package extract provides local subject extraction strategies for transcript text.
//
// Three independent strategies, all rule-based and fully local:
// - Keyword: frequency scoring of tokens and compound phrases
// - Entity: capitalization-cue named-entity recognition
// - Topic: n-gram phrase modeling with TF-IDF-style scoring
//
// Each extractor is a pure function over its static lexical resources and is
// safe for concurrent use. The orchestrator in internal/identify fans out to
// all three and merges their outputs.
package extract

import (
	"context"
	"errors"
	"fmt"
)

// ErrInvalidInput indicates the caller supplied empty or too-short text.
// Never retried; surfaced immediately.
var ErrInvalidInput = errors.New("invalid input text")

// ProcessingError wraps an internal extractor failure. Callers degrade
// gracefully on this rather than aborting the whole pipeline.
type ProcessingError struct {
	Extractor string
	Err       error
}

func (e *ProcessingError) Error() string {
	return fmt.Sprintf("%s extractor: %v", e.Extractor, e.Err)
}

func (e *ProcessingError) Unwrap() error { return e.Err }

// Scored is a single extracted surface form with its confidence.
// Results are ordered first-seen so downstream merging stays deterministic.
type Scored struct {
	Name  string
	Score float64
}

// Result is the output of one extractor run.
type Result struct {
	Subjects []Scored
	Metadata map[string]any
}

// Scores returns the results as a name-to-confidence map. Duplicate surface
// forms are merged before an extractor returns, so the map is lossless apart
// from ordering.
func (r *Result) Scores() map[string]float64 {
	out := make(map[string]float64, len(r.Subjects))
	for _, s := range r.Subjects {
		out[s.Name] = s.Score
	}
	return out
}

// Extractor is the shared contract for all subject extraction strategies.
type Extractor interface {
	// Name identifies the strategy ("keyword", "entity", "topic").
	Name() string
	// Process extracts scored surface forms from text. Text must be non-empty;
	// otherwise Process fails with ErrInvalidInput.
	Process(ctx context.Context, text string) (*Result, error)
}

func clampScore(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
