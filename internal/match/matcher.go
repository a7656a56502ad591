// Package match scores an icon corpus against an identified subject set.
//
// Matching is layered: compound phrases beat exact single-word matches,
// which beat semantic (embedding-similarity) matches. A pronoun on its own
// can never justify a match.
package match

import (
	"context"
	"fmt"
	"math"
	"os"
	"sort"
	"strings"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/ploverbay/iconsense/internal/embed"
	"github.com/ploverbay/iconsense/internal/extract"
	"github.com/ploverbay/iconsense/internal/iconstore"
)

const (
	// minKeywordConfidence is the floor below which a keyword contributes
	// nothing to any icon.
	minKeywordConfidence = 0.3

	// minSemanticSimilarity is the cosine-similarity floor for accepting a
	// non-literal match.
	minSemanticSimilarity = 0.3

	// corroborationStep raises the combined score for every keyword beyond
	// the first that matched the same icon.
	corroborationStep = 0.1

	// vectorCacheSize bounds the per-matcher embedding cache.
	vectorCacheSize = 512
)

// IconMatch pairs an icon with the evidence that matched it.
type IconMatch struct {
	Icon            iconstore.Icon `json:"icon"`
	Confidence      float64        `json:"confidence"`
	MatchReason     string         `json:"match_reason"`
	SubjectsMatched []string       `json:"subjects_matched"`
}

// IconMatchingError reports an unexpected internal matcher failure.
type IconMatchingError struct {
	Msg string
	Err error
}

func (e *IconMatchingError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("icon matching: %s: %v", e.Msg, e.Err)
	}
	return fmt.Sprintf("icon matching: %s", e.Msg)
}

func (e *IconMatchingError) Unwrap() error { return e.Err }

// Matcher scores a fixed icon corpus against keyword maps. Safe for
// concurrent use when the embedder is.
type Matcher struct {
	icons    []iconstore.Icon
	embedder embed.Embedder
	vectors  *lru.Cache[string, []float32]
}

// Option configures a Matcher.
type Option func(*Matcher)

// WithEmbedder enables the semantic-similarity layer. Without one the
// matcher only does compound and exact matching.
func WithEmbedder(e embed.Embedder) Option {
	return func(m *Matcher) { m.embedder = e }
}

// NewMatcher builds a matcher over the given corpus.
func NewMatcher(icons []iconstore.Icon, opts ...Option) *Matcher {
	m := &Matcher{icons: icons}
	for _, opt := range opts {
		opt(m)
	}
	m.vectors, _ = lru.New[string, []float32](vectorCacheSize)
	return m
}

// layer identifies which strategy produced a keyword's score. Lower is
// stronger.
type layer int

const (
	layerCompound layer = iota
	layerExact
	layerSemantic
)

func (l layer) String() string {
	switch l {
	case layerCompound:
		return "compound match"
	case layerExact:
		return "keyword match"
	default:
		return "semantic match"
	}
}

type evidence struct {
	keyword string
	score   float64
	layer   layer
}

// Match scores every icon in the corpus against the keyword map and returns
// the qualifying set in corpus order. An empty or nil map short-circuits to
// an empty result. Ranking is the caller's job.
func (m *Matcher) Match(ctx context.Context, keywords map[string]float64) (result []IconMatch, err error) {
	defer func() {
		if r := recover(); r != nil {
			result = nil
			err = &IconMatchingError{Msg: fmt.Sprintf("panic: %v", r)}
		}
	}()

	result = []IconMatch{}
	if len(keywords) == 0 {
		return result, nil
	}

	usable := m.usableKeywords(keywords)
	if len(usable) == 0 {
		return result, nil
	}

	for _, icon := range m.icons {
		ev := m.scoreIcon(ctx, icon, usable)
		if len(ev) == 0 {
			continue
		}
		result = append(result, buildMatch(icon, ev))
	}
	return result, nil
}

type weightedKeyword struct {
	name       string
	confidence float64
}

// usableKeywords filters out pronouns, sub-threshold entries, and malformed
// scores, returning the survivors in deterministic order.
func (m *Matcher) usableKeywords(keywords map[string]float64) []weightedKeyword {
	names := make([]string, 0, len(keywords))
	for name := range keywords {
		names = append(names, name)
	}
	sort.Strings(names)

	usable := make([]weightedKeyword, 0, len(names))
	for _, name := range names {
		conf := keywords[name]
		if math.IsNaN(conf) || math.IsInf(conf, 0) {
			conf = 0
		}
		if conf < minKeywordConfidence {
			continue
		}
		normalized := strings.ToLower(strings.TrimSpace(name))
		if normalized == "" || extract.IsPronoun(normalized) {
			continue
		}
		if conf > 1 {
			conf = 1
		}
		usable = append(usable, weightedKeyword{name: normalized, confidence: conf})
	}
	return usable
}

// scoreIcon runs the matching layers for one icon and returns the best
// evidence per keyword.
func (m *Matcher) scoreIcon(ctx context.Context, icon iconstore.Icon, keywords []weightedKeyword) []evidence {
	tags := make([]string, 0, len(icon.Subjects))
	for _, tag := range icon.Subjects {
		tag = strings.ToLower(strings.TrimSpace(tag))
		if tag != "" {
			tags = append(tags, tag)
		}
	}
	if len(tags) == 0 {
		return nil
	}

	var out []evidence
	for _, kw := range keywords {
		if ev, ok := m.literalScore(kw, tags); ok {
			out = append(out, ev)
			continue
		}
		if ev, ok := m.semanticScore(ctx, kw, tags); ok {
			out = append(out, ev)
		}
	}
	return out
}

// literalScore checks the compound and exact layers. Compound matches score
// strictly above any single-word score so that multi-word phrases stay the
// stronger signal.
func (m *Matcher) literalScore(kw weightedKeyword, tags []string) (evidence, bool) {
	isCompound := strings.Contains(kw.name, " ")
	for _, tag := range tags {
		if isCompound && compoundVariant(kw.name, tag) {
			return evidence{
				keyword: kw.name,
				score:   0.65 + 0.1*kw.confidence,
				layer:   layerCompound,
			}, true
		}
		if tag == kw.name {
			return evidence{
				keyword: kw.name,
				score:   math.Min(0.6, 0.4+0.2*kw.confidence),
				layer:   layerExact,
			}, true
		}
	}
	return evidence{}, false
}

// compoundVariant reports whether an icon tag is the compound keyword or a
// close variant of it (one contains the other on whole-word boundaries, so
// "ice cream" does not variant-match "rice cream").
func compoundVariant(keyword, tag string) bool {
	if tag == keyword {
		return true
	}
	return containsWords(tag, keyword) || containsWords(keyword, tag)
}

// containsWords reports whether needle occurs in haystack aligned to word
// boundaries.
func containsWords(haystack, needle string) bool {
	return strings.Contains(" "+haystack+" ", " "+needle+" ")
}

// semanticScore compares a keyword against every tag by embedding cosine
// similarity and keeps the best result above the floor. Embedding failures
// degrade to no match rather than failing the call.
func (m *Matcher) semanticScore(ctx context.Context, kw weightedKeyword, tags []string) (evidence, bool) {
	if m.embedder == nil {
		return evidence{}, false
	}

	kwVec, err := m.vector(ctx, kw.name)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: embedding %q failed: %v\n", kw.name, err)
		return evidence{}, false
	}

	best := 0.0
	for _, tag := range tags {
		tagVec, err := m.vector(ctx, tag)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Warning: embedding %q failed: %v\n", tag, err)
			continue
		}
		if sim := embed.CosineSimilarity(kwVec, tagVec); sim > best {
			best = sim
		}
	}
	if best < minSemanticSimilarity {
		return evidence{}, false
	}

	return evidence{
		keyword: kw.name,
		score:   math.Min(0.6, best*(0.5+0.5*kw.confidence)),
		layer:   layerSemantic,
	}, true
}

// vector embeds a term through the LRU cache.
func (m *Matcher) vector(ctx context.Context, term string) ([]float32, error) {
	if vec, ok := m.vectors.Get(term); ok {
		return vec, nil
	}
	vec, err := m.embedder.Embed(ctx, term)
	if err != nil {
		return nil, err
	}
	m.vectors.Add(term, vec)
	return vec, nil
}

// buildMatch combines per-keyword evidence into one IconMatch. Confidence is
// the best single score plus a step per additional contributing keyword,
// capped at 1.0.
func buildMatch(icon iconstore.Icon, ev []evidence) IconMatch {
	best := 0.0
	bestLayer := layerSemantic
	subjects := make([]string, 0, len(ev))
	for _, e := range ev {
		subjects = append(subjects, e.keyword)
		if e.score > best || (e.score == best && e.layer < bestLayer) {
			best = e.score
			bestLayer = e.layer
		}
	}

	confidence := best + corroborationStep*float64(len(ev)-1)
	if confidence > 1 {
		confidence = 1
	}

	return IconMatch{
		Icon:            icon,
		Confidence:      confidence,
		MatchReason:     fmt.Sprintf("%s: %s", bestLayer, strings.Join(subjects, ", ")),
		SubjectsMatched: subjects,
	}
}
