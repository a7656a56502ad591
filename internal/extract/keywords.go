package extract

import (
	"context"
	"fmt"
	"strings"
)

const (
	// KeywordName identifies the keyword extraction strategy.
	KeywordName = "keyword"

	minTokenLength     = 3
	keywordBaseScore   = 0.3
	maxKeywordScore    = 0.95
	repetitionStep     = 0.1
	maxRepetitionBonus = 0.4
)

// KeywordExtractor scores tokens and compound phrases by frequency.
// Compound phrases are scanned first and removed from the text so their
// constituent words are not counted twice.
type KeywordExtractor struct {
	phrases []string
}

// NewKeywordExtractor creates a keyword extractor with the built-in
// compound-phrase dictionary.
func NewKeywordExtractor() *KeywordExtractor {
	return &KeywordExtractor{phrases: CompoundPhrases()}
}

// Name implements Extractor.
func (e *KeywordExtractor) Name() string { return KeywordName }

// Process implements Extractor.
//
// Score per surface form: min(0.95, base + freqFraction + repetitionBonus)
// where repetitionBonus = min(0.4, (count-1)*0.1). Ties keep first-seen order.
func (e *KeywordExtractor) Process(ctx context.Context, text string) (*Result, error) {
	if strings.TrimSpace(text) == "" {
		return nil, fmt.Errorf("keyword extraction: %w", ErrInvalidInput)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	normalized := NormalizeText(text)

	// Compound phrases first. Each occurrence is cut out of the text after
	// matching so single-word counting below never sees its words. The text
	// is space-padded and phrases searched with surrounding spaces so matches
	// land on whole words only ("notice cream" is not "ice cream").
	order := make([]string, 0, 16)
	counts := make(map[string]int, 16)
	compoundMatches := 0
	padded := " " + normalized + " "
	for _, phrase := range e.phrases {
		needle := " " + phrase + " "
		for strings.Contains(padded, needle) {
			if counts[phrase] == 0 {
				order = append(order, phrase)
			}
			counts[phrase]++
			compoundMatches++
			padded = strings.Replace(padded, needle, " ", 1)
		}
	}

	tokens := strings.Fields(padded)
	kept := 0
	for _, tok := range tokens {
		tok = strings.Trim(tok, "'")
		if len(tok) < minTokenLength {
			continue
		}
		if IsStopword(tok) {
			continue
		}
		if counts[tok] == 0 {
			order = append(order, tok)
		}
		counts[tok]++
		kept++
	}

	total := kept + compoundMatches
	if total == 0 {
		return &Result{Metadata: map[string]any{
			"total_tokens":     len(tokens),
			"kept_tokens":      0,
			"compound_matches": compoundMatches,
		}}, nil
	}

	subjects := make([]Scored, 0, len(order))
	for _, name := range order {
		count := counts[name]
		freqFraction := float64(count) / float64(total)
		repetitionBonus := float64(count-1) * repetitionStep
		if repetitionBonus > maxRepetitionBonus {
			repetitionBonus = maxRepetitionBonus
		}
		score := keywordBaseScore + freqFraction + repetitionBonus
		if score > maxKeywordScore {
			score = maxKeywordScore
		}
		subjects = append(subjects, Scored{Name: name, Score: clampScore(score)})
	}

	return &Result{
		Subjects: subjects,
		Metadata: map[string]any{
			"total_tokens":     len(tokens),
			"kept_tokens":      kept,
			"compound_matches": compoundMatches,
			"unique_terms":     len(order),
		},
	}, nil
}
