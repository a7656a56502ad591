package identify

import (
	"context"

	"github.com/ploverbay/iconsense/internal/match"
)

// DefaultMatchLimit caps how many ranked icon matches a pipeline run
// returns.
const DefaultMatchLimit = 5

// Pipeline wires subject identification to icon matching and ranking:
// text in, ranked icon matches out.
type Pipeline struct {
	identifier *Identifier
	matcher    *match.Matcher
	limit      int
}

// PipelineOption configures a Pipeline.
type PipelineOption func(*Pipeline)

// WithMatchLimit overrides the ranked-result cap. A value <= 0 disables
// truncation.
func WithMatchLimit(n int) PipelineOption {
	return func(p *Pipeline) { p.limit = n }
}

// NewPipeline builds a pipeline over an identifier and a matcher.
func NewPipeline(identifier *Identifier, matcher *match.Matcher, opts ...PipelineOption) *Pipeline {
	p := &Pipeline{identifier: identifier, matcher: matcher, limit: DefaultMatchLimit}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// PipelineResult carries both stages' outputs.
type PipelineResult struct {
	Analysis *AnalysisResult   `json:"analysis"`
	Matches  []match.IconMatch `json:"matches"`
}

// Run identifies subjects in text and matches them against the icon corpus.
// Identification errors abort the run; an empty subject set yields an empty
// match list, not an error.
func (p *Pipeline) Run(ctx context.Context, text string, ictx *Context) (*PipelineResult, error) {
	analysis, err := p.identifier.IdentifySubjects(ctx, text, ictx)
	if err != nil {
		return nil, err
	}

	keywords := analysis.Keywords()
	matches, err := p.matcher.Match(ctx, keywords)
	if err != nil {
		return nil, err
	}

	return &PipelineResult{
		Analysis: analysis,
		Matches:  match.RankResults(matches, keywords, p.limit),
	}, nil
}
