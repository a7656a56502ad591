package extract

import (
	"context"
	"fmt"
	"regexp"
	"strings"
)

const (
	// EntityName identifies the entity extraction strategy.
	EntityName = "entity"

	multiWordEntityBonus    = 0.05
	maxMultiWordEntityBonus = 0.15
)

// Entity type categories with their base confidence. Organizations and
// people score higher than locations; uncued capitalized spans lowest.
const (
	entityPerson       = "person"
	entityOrganization = "organization"
	entityLocation     = "location"
	entityMisc         = "misc"
)

var entityBaseConfidence = map[string]float64{
	entityPerson:       0.85,
	entityOrganization: 0.85,
	entityLocation:     0.7,
	entityMisc:         0.6,
}

var personTitles = map[string]struct{}{
	"mr": {}, "mrs": {}, "ms": {}, "dr": {}, "miss": {},
	"professor": {}, "captain": {}, "king": {}, "queen": {},
	"prince": {}, "princess": {}, "sir": {}, "lady": {},
	"uncle": {}, "aunt": {}, "grandma": {}, "grandpa": {},
}

var organizationSuffixes = map[string]struct{}{
	"inc": {}, "corp": {}, "company": {}, "co": {}, "ltd": {},
	"school": {}, "university": {}, "academy": {}, "club": {},
	"band": {}, "orchestra": {}, "circus": {}, "zoo": {},
}

var locationPrepositions = map[string]struct{}{
	"in": {}, "at": {}, "near": {}, "from": {}, "to": {},
}

// capitalizedSpanRE matches runs of capitalized words, allowing internal
// connectives like "of" ("Kingdom of Far Far Away").
var capitalizedSpanRE = regexp.MustCompile(`\b[A-Z][a-zA-Z'’]*(?:\s+(?:of\s+)?[A-Z][a-zA-Z'’]*)*`)

// EntityExtractor recognizes named entities from capitalization cues and
// classifies them with type-based confidence weighting.
type EntityExtractor struct{}

// NewEntityExtractor creates an entity extractor.
func NewEntityExtractor() *EntityExtractor { return &EntityExtractor{} }

// Name implements Extractor.
func (e *EntityExtractor) Name() string { return EntityName }

// Process implements Extractor. Identical surface forms are deduplicated
// case-sensitively; confidence is base-by-type plus a capped multi-word
// bonus, clamped to 1.0.
func (e *EntityExtractor) Process(ctx context.Context, text string) (*Result, error) {
	if strings.TrimSpace(text) == "" {
		return nil, fmt.Errorf("entity extraction: %w", ErrInvalidInput)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	seen := make(map[string]struct{})
	subjects := make([]Scored, 0, 8)
	typeCounts := make(map[string]int)

	words := strings.Fields(text)
	for _, span := range capitalizedSpanRE.FindAllStringIndex(text, -1) {
		surface := strings.TrimSpace(text[span[0]:span[1]])
		surface = trimEntitySpan(surface, span[0] == 0 || isSentenceStart(text, span[0]))
		if surface == "" {
			continue
		}
		if _, dup := seen[surface]; dup {
			continue
		}

		kind := classifyEntity(surface, precedingWord(text, span[0]))
		conf := entityBaseConfidence[kind]
		extraWords := len(strings.Fields(surface)) - 1
		if extraWords > 0 {
			bonus := float64(extraWords) * multiWordEntityBonus
			if bonus > maxMultiWordEntityBonus {
				bonus = maxMultiWordEntityBonus
			}
			conf += bonus
		}

		seen[surface] = struct{}{}
		typeCounts[kind]++
		subjects = append(subjects, Scored{Name: surface, Score: clampScore(conf)})
	}

	return &Result{
		Subjects: subjects,
		Metadata: map[string]any{
			"word_count":  len(words),
			"type_counts": typeCounts,
		},
	}, nil
}

// trimEntitySpan drops a sentence-initial function word that only looks like
// an entity because of its position ("The dragon..." is not the entity "The").
func trimEntitySpan(surface string, sentenceStart bool) string {
	parts := strings.Fields(surface)
	if len(parts) == 0 {
		return ""
	}
	if sentenceStart && IsStopword(parts[0]) {
		parts = parts[1:]
	}
	// Single remaining stopword is never an entity regardless of casing.
	if len(parts) == 1 && IsStopword(parts[0]) {
		return ""
	}
	return strings.Join(parts, " ")
}

func classifyEntity(surface, preceding string) string {
	parts := strings.Fields(strings.ToLower(surface))
	if len(parts) == 0 {
		return entityMisc
	}
	if _, ok := personTitles[strings.TrimRight(parts[0], ".")]; ok {
		return entityPerson
	}
	last := strings.TrimRight(parts[len(parts)-1], ".")
	if _, ok := organizationSuffixes[last]; ok {
		return entityOrganization
	}
	if _, ok := locationPrepositions[strings.ToLower(preceding)]; ok {
		return entityLocation
	}
	return entityMisc
}

// precedingWord returns the word immediately before byte offset pos.
func precedingWord(text string, pos int) string {
	if pos <= 0 {
		return ""
	}
	before := strings.Fields(text[:pos])
	if len(before) == 0 {
		return ""
	}
	return strings.Trim(before[len(before)-1], ".,!?;:\"'")
}

// isSentenceStart reports whether pos follows a sentence boundary.
func isSentenceStart(text string, pos int) bool {
	for i := pos - 1; i >= 0; i-- {
		c := text[i]
		switch {
		case c == ' ' || c == '\n' || c == '\t' || c == '\r':
			continue
		case c == '.' || c == '!' || c == '?':
			return true
		default:
			return false
		}
	}
	return true
}
