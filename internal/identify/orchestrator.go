package identify

import (
	"context"
	"fmt"
	"math"
	"os"
	"runtime"
	"strings"
	"time"

	"github.com/ploverbay/iconsense/internal/extract"
	"github.com/ploverbay/iconsense/internal/language"
)

const (
	// DefaultTimeout is the global time budget for one identification call.
	DefaultTimeout = 500 * time.Millisecond

	// MinTextLength is the minimum input size in characters.
	MinTextLength = 10

	// maxWorkers bounds the extraction pool: one worker per strategy.
	maxWorkers = 3

	// fallbackShare is the per-extractor budget fraction for strategies
	// without an explicit share.
	fallbackShare = 0.15
)

// extractorShares allots each strategy a fraction of the global budget.
// The remainder is reserved for orchestration and merge overhead. The
// enforced wait per extractor is min(remaining global time, share).
var extractorShares = map[string]float64{
	extract.KeywordName: 0.40,
	extract.EntityName:  0.15,
	extract.TopicName:   0.15,
}

// Identifier runs all extraction strategies concurrently and merges their
// outputs into a single deduplicated AnalysisResult.
type Identifier struct {
	extractors []extract.Extractor
	cache      ResultCache
	timeout    time.Duration
}

// Option configures an Identifier.
type Option func(*Identifier)

// WithTimeout overrides the global time budget.
func WithTimeout(d time.Duration) Option {
	return func(id *Identifier) {
		if d > 0 {
			id.timeout = d
		}
	}
}

// WithCache injects a result cache. Pass a fresh cache per test to keep
// cases isolated.
func WithCache(c ResultCache) Option {
	return func(id *Identifier) { id.cache = c }
}

// WithExtractors replaces the default strategy set.
func WithExtractors(exs ...extract.Extractor) Option {
	return func(id *Identifier) { id.extractors = exs }
}

// NewIdentifier creates an Identifier with the three default extractors, a
// 500ms budget, and a bounded LRU result cache.
func NewIdentifier(opts ...Option) *Identifier {
	id := &Identifier{
		extractors: []extract.Extractor{
			extract.NewKeywordExtractor(),
			extract.NewEntityExtractor(),
			extract.NewTopicExtractor(),
		},
		timeout: DefaultTimeout,
	}
	for _, opt := range opts {
		opt(id)
	}
	if id.cache == nil {
		cache, err := NewLRUCache(DefaultCacheSize)
		if err == nil {
			id.cache = cache
		}
	}
	return id
}

type outcome struct {
	res *extract.Result
	err error
}

// IdentifySubjects extracts subjects from text, running all extractors
// concurrently under the global time budget.
//
// Per-extractor failures and timeouts are contained: the run degrades,
// recording the cause in Metadata.Errors. Validation failures and a breach
// of the overall budget are not contained and return an error.
func (id *Identifier) IdentifySubjects(ctx context.Context, text string, ictx *Context) (result *AnalysisResult, err error) {
	defer func() {
		if r := recover(); r != nil {
			result = nil
			err = &ProcessingError{Msg: fmt.Sprintf("unexpected panic: %v", r)}
		}
	}()

	start := time.Now()
	var memBefore runtime.MemStats
	runtime.ReadMemStats(&memBefore)

	trimmed := strings.TrimSpace(text)
	if len(trimmed) < MinTextLength {
		return nil, fmt.Errorf("text must be at least %d characters: %w", MinTextLength, extract.ErrInvalidInput)
	}

	deadline := start.Add(id.timeout)

	// Best-effort; an empty list is not fatal.
	langs := language.Detect(text)

	// Fan out: one future per extractor, pool bounded to maxWorkers.
	// Futures are collected in submission order, not completion order, so
	// the merge (and the dedup winner) stays deterministic.
	sem := make(chan struct{}, maxWorkers)
	futures := make([]chan outcome, len(id.extractors))
	for i, ex := range id.extractors {
		ch := make(chan outcome, 1)
		futures[i] = ch

		if id.cache != nil {
			if cached, ok := id.cache.Get(cacheKey(ex.Name(), text)); ok {
				ch <- outcome{res: cached}
				continue
			}
		}

		go func(ex extract.Extractor) {
			sem <- struct{}{}
			defer func() { <-sem }()
			res, perr := safeProcess(ctx, ex, text)
			ch <- outcome{res: res, err: perr}
		}(ex)
	}

	errs := make(map[string]string)
	collected := make([]*extract.Result, len(id.extractors))
	for i, ex := range id.extractors {
		remaining := time.Until(deadline)
		if remaining <= 0 {
			return nil, &ProcessingError{Msg: fmt.Sprintf("after %dms", id.timeout.Milliseconds()), Err: ErrTimeout}
		}

		wait := id.shareTimeout(ex.Name())
		if wait > remaining {
			wait = remaining
		}

		select {
		case out := <-futures[i]:
			if out.err != nil {
				fmt.Fprintf(os.Stderr, "Warning: %s extractor failed: %v\n", ex.Name(), out.err)
				errs[ex.Name()+"_error"] = out.err.Error()
				continue
			}
			collected[i] = out.res
			if id.cache != nil {
				id.cache.Add(cacheKey(ex.Name(), text), out.res)
			}
		case <-time.After(wait):
			// Advisory cancellation: the goroutine may run to completion in
			// the background, but its result is discarded.
			fmt.Fprintf(os.Stderr, "Warning: %s extractor timed out after %dms\n", ex.Name(), wait.Milliseconds())
			errs[ex.Name()+"_error"] = fmt.Sprintf("timed out after %dms", wait.Milliseconds())
		case <-ctx.Done():
			return nil, &ProcessingError{Msg: "canceled", Err: ctx.Err()}
		}
	}

	subjects, categories := id.merge(collected, ictx)

	if time.Now().After(deadline) {
		return nil, &ProcessingError{Msg: fmt.Sprintf("after %dms", id.timeout.Milliseconds()), Err: ErrTimeout}
	}

	var memAfter runtime.MemStats
	runtime.ReadMemStats(&memAfter)
	memDelta := (float64(memAfter.HeapAlloc) - float64(memBefore.HeapAlloc)) / (1 << 20)

	return &AnalysisResult{
		Subjects:   subjects,
		Categories: categories,
		Metadata: Metadata{
			ProcessingTimeMS:  time.Since(start).Milliseconds(),
			MemoryDeltaMB:     memDelta,
			TextLength:        len(text),
			ParallelExecution: true,
			LanguagesDetected: langs,
			Errors:            errs,
		},
	}, nil
}

// merge folds extractor results into typed, deduplicated subjects. Results
// are processed in submission order; first-accepted subject wins on a
// near-duplicate collision.
func (id *Identifier) merge(collected []*extract.Result, ictx *Context) ([]Subject, []Category) {
	subjects := make([]Subject, 0, 16)
	categories := make([]Category, 0, len(id.extractors))

	for i, ex := range id.extractors {
		res := collected[i]
		if res == nil || len(res.Subjects) == 0 {
			continue
		}

		categories = append(categories, categoryFor(ex.Name()))
		stype := subjectTypeFor(ex.Name())

		for _, sc := range res.Subjects {
			name := strings.Join(strings.Fields(strings.ToLower(sc.Name)), " ")
			if name == "" {
				continue
			}

			dup := false
			for _, existing := range subjects {
				if isDuplicateName(existing.Name, name) {
					dup = true
					break
				}
			}
			if dup {
				continue
			}

			subjects = append(subjects, Subject{
				Name:       name,
				Type:       stype,
				Confidence: coerceScore(sc.Score),
				Context:    ictx,
			})
		}
	}

	return subjects, categories
}

// shareTimeout returns the soft per-extractor budget.
func (id *Identifier) shareTimeout(name string) time.Duration {
	share, ok := extractorShares[name]
	if !ok {
		share = fallbackShare
	}
	return time.Duration(share * float64(id.timeout))
}

// coerceScore maps a raw extractor score into [0,1]. Unusable values
// (NaN, infinities) default to 0.5.
func coerceScore(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0.5
	}
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// safeProcess runs one extractor, converting panics into ProcessingError so
// a misbehaving strategy cannot take down the whole run.
func safeProcess(ctx context.Context, ex extract.Extractor, text string) (res *extract.Result, err error) {
	defer func() {
		if r := recover(); r != nil {
			res = nil
			err = &extract.ProcessingError{Extractor: ex.Name(), Err: fmt.Errorf("panic: %v", r)}
		}
	}()
	return ex.Process(ctx, text)
}
