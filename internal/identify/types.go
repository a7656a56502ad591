// Package identify orchestrates the subject extraction strategies: it runs
// the keyword, entity, and topic extractors concurrently under a global time
// budget, merges and deduplicates their outputs, and assembles one
// AnalysisResult per call.
package identify

import (
	"strings"

	"github.com/ploverbay/iconsense/internal/extract"
)

// SubjectType classifies which strategy produced a subject.
type SubjectType string

const (
	SubjectKeyword SubjectType = "KEYWORD"
	SubjectEntity  SubjectType = "ENTITY"
	SubjectTopic   SubjectType = "TOPIC"
)

func subjectTypeFor(extractorName string) SubjectType {
	switch extractorName {
	case extract.EntityName:
		return SubjectEntity
	case extract.TopicName:
		return SubjectTopic
	default:
		return SubjectKeyword
	}
}

// Context carries caller-supplied processing hints. Immutable once passed in.
type Context struct {
	Domain     string  `json:"domain,omitempty"`
	Language   string  `json:"language,omitempty"`
	Confidence float64 `json:"confidence,omitempty"`
}

// Subject is one identified unit of meaning. Name is lowercase-normalized;
// Confidence is clamped to [0,1]. Subjects are value objects created fresh
// per identification call.
type Subject struct {
	Name       string      `json:"name"`
	Type       SubjectType `json:"type"`
	Confidence float64     `json:"confidence"`
	Context    *Context    `json:"context,omitempty"`
}

// Category is the coarse grouping label for an extractor that produced
// results, e.g. {ID: "KEYWORD", Name: "keyword"}.
type Category struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Metadata documents how an identification run went, including which
// extractors degraded and why. Errors is always non-nil, possibly empty.
type Metadata struct {
	ProcessingTimeMS  int64             `json:"processing_time_ms"`
	MemoryDeltaMB     float64           `json:"memory_delta_mb"`
	TextLength        int               `json:"text_length"`
	ParallelExecution bool              `json:"parallel_execution"`
	LanguagesDetected []string          `json:"languages_detected,omitempty"`
	Errors            map[string]string `json:"errors,omitempty"`
}

// AnalysisResult is the aggregate output of one identification call.
// Caller-owned and immutable after return.
type AnalysisResult struct {
	Subjects   []Subject  `json:"subjects"`
	Categories []Category `json:"categories"`
	Metadata   Metadata   `json:"metadata"`
}

// Keywords flattens the subjects into a name-to-confidence map, the shape
// the icon matcher consumes.
func (r *AnalysisResult) Keywords() map[string]float64 {
	out := make(map[string]float64, len(r.Subjects))
	for _, s := range r.Subjects {
		out[s.Name] = s.Confidence
	}
	return out
}

func categoryFor(extractorName string) Category {
	return Category{
		ID:   strings.ToUpper(extractorName),
		Name: extractorName,
	}
}
