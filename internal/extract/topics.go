package extract

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strings"
)

const (
	// TopicName identifies the topic extraction strategy.
	TopicName = "topic"

	maxPhraseLength   = 3
	topicTopK         = 5
	minTopicScore     = 0.3
	defaultTopicWords = 10
	phraseLengthStep  = 0.2
	importanceFactor  = 1.2
	maxTopicScore     = 0.95
)

// TopicExtractor builds unigram through trigram phrases from
// stopword-filtered tokens and scores them with a TF×IDF-like formula.
type TopicExtractor struct{}

// NewTopicExtractor creates a topic extractor.
func NewTopicExtractor() *TopicExtractor { return &TopicExtractor{} }

// Name implements Extractor.
func (e *TopicExtractor) Name() string { return TopicName }

// minimumTopicWords is the word-count floor below which topic modeling has
// nothing to work with: half the fixed default, never below 3.
func minimumTopicWords() int {
	min := defaultTopicWords / 2
	if min < 3 {
		min = 3
	}
	return min
}

// Process implements Extractor.
//
// Per phrase: tf = count/maxFreq, idf = 1+log((totalWords+1)/(count+1)),
// multiplied by a length bonus favoring multi-word phrases and an importance
// bonus for domain-signal words. The top 5 phrases above the minimum score
// are returned; if none qualify, the single best phrase is, so output is
// non-empty whenever any phrase was found.
func (e *TopicExtractor) Process(ctx context.Context, text string) (*Result, error) {
	if strings.TrimSpace(text) == "" {
		return nil, fmt.Errorf("topic extraction: %w", ErrInvalidInput)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	allTokens := Tokenize(text)
	totalWords := len(allTokens)
	if totalWords < minimumTopicWords() {
		return nil, fmt.Errorf("topic extraction: %d words, need at least %d: %w",
			totalWords, minimumTopicWords(), ErrInvalidInput)
	}

	tokens := make([]string, 0, totalWords)
	for _, tok := range allTokens {
		if len(tok) < minTokenLength || IsStopword(tok) {
			continue
		}
		tokens = append(tokens, tok)
	}
	if len(tokens) == 0 {
		return &Result{Metadata: map[string]any{"total_words": totalWords}}, nil
	}

	order := make([]string, 0, len(tokens)*2)
	counts := make(map[string]int, len(tokens)*2)
	for n := 1; n <= maxPhraseLength; n++ {
		for i := 0; i+n <= len(tokens); i++ {
			phrase := strings.Join(tokens[i:i+n], " ")
			if counts[phrase] == 0 {
				order = append(order, phrase)
			}
			counts[phrase]++
		}
	}

	maxFreq := 0
	for _, c := range counts {
		if c > maxFreq {
			maxFreq = c
		}
	}

	// Raw scores are normalized by the idf ceiling so confidences land in
	// [0,1] and the minimum-score threshold is meaningful.
	idfCeiling := 1 + math.Log(float64(totalWords+1))
	scored := make([]Scored, 0, len(order))
	for _, phrase := range order {
		count := counts[phrase]
		tf := float64(count) / float64(maxFreq)
		idf := 1 + math.Log(float64(totalWords+1)/float64(count+1))
		lengthBonus := 1 + phraseLengthStep*float64(strings.Count(phrase, " "))
		importance := 1.0
		for _, w := range strings.Fields(phrase) {
			if _, ok := importanceWords[w]; ok {
				importance = importanceFactor
				break
			}
		}
		raw := tf * idf * lengthBonus * importance
		score := raw / idfCeiling
		if score > maxTopicScore {
			score = maxTopicScore
		}
		scored = append(scored, Scored{Name: phrase, Score: clampScore(score)})
	}

	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].Score > scored[j].Score
	})

	top := make([]Scored, 0, topicTopK)
	for _, s := range scored {
		if s.Score < minTopicScore {
			continue
		}
		top = append(top, s)
		if len(top) == topicTopK {
			break
		}
	}
	if len(top) == 0 && len(scored) > 0 {
		// Fallback: the single highest-scoring phrase.
		top = append(top, scored[0])
	}

	return &Result{
		Subjects: top,
		Metadata: map[string]any{
			"total_words":     totalWords,
			"candidate_count": len(scored),
			"max_frequency":   maxFreq,
		},
	}, nil
}
