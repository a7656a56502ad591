package match

import (
	"context"
	"testing"

	"github.com/ploverbay/iconsense/internal/iconstore"
)

func testCorpus() []iconstore.Icon {
	return []iconstore.Icon{
		{ID: 1, Title: "Fairy Tales", Subjects: []string{"fairy tale", "magic", "princess", "castle"}},
		{ID: 2, Title: "Jazz Night", Subjects: []string{"jazz", "music", "piano"}},
		{ID: 3, Title: "Frozen", Subjects: []string{"princess", "snow", "ice", "winter", "royal"}},
		{ID: 4, Title: "Space", Subjects: []string{"rocket", "planet"}},
	}
}

func TestMatchEmptyKeywords(t *testing.T) {
	m := NewMatcher(testCorpus())
	ctx := context.Background()

	for _, keywords := range []map[string]float64{nil, {}} {
		matches, err := m.Match(ctx, keywords)
		if err != nil {
			t.Fatalf("Match(%v): %v", keywords, err)
		}
		if matches == nil {
			t.Fatal("expected empty slice, got nil")
		}
		if len(matches) != 0 {
			t.Errorf("Match(%v) returned %d matches, want 0", keywords, len(matches))
		}
	}
}

func TestMatchExactKeyword(t *testing.T) {
	m := NewMatcher(testCorpus())

	matches, err := m.Match(context.Background(), map[string]float64{
		"jazz":  0.9,
		"piano": 0.7,
	})
	if err != nil {
		t.Fatalf("Match: %v", err)
	}
	if len(matches) != 1 {
		t.Fatalf("expected 1 match, got %d", len(matches))
	}

	got := matches[0]
	if got.Icon.Title != "Jazz Night" {
		t.Errorf("matched %q, want %q", got.Icon.Title, "Jazz Night")
	}
	if len(got.SubjectsMatched) != 2 {
		t.Errorf("subjects matched = %v, want jazz and piano", got.SubjectsMatched)
	}
	if got.Confidence <= 0 || got.Confidence > 1 {
		t.Errorf("confidence %v out of bounds", got.Confidence)
	}
	if got.MatchReason == "" {
		t.Error("expected a non-empty match reason")
	}
}

func TestMatchCompoundPhraseBeatsSingleWord(t *testing.T) {
	m := NewMatcher(testCorpus())
	ctx := context.Background()

	compound, err := m.Match(ctx, map[string]float64{"fairy tale": 0.8})
	if err != nil {
		t.Fatalf("Match: %v", err)
	}
	if len(compound) != 1 || compound[0].Icon.Title != "Fairy Tales" {
		t.Fatalf("expected a single Fairy Tales match, got %v", compound)
	}
	if compound[0].Confidence <= 0.6 {
		t.Errorf("compound confidence = %v, want > 0.6", compound[0].Confidence)
	}

	single, err := m.Match(ctx, map[string]float64{"magic": 0.8})
	if err != nil {
		t.Fatalf("Match: %v", err)
	}
	if len(single) != 1 {
		t.Fatalf("expected 1 match for magic, got %d", len(single))
	}
	if single[0].Confidence >= compound[0].Confidence {
		t.Errorf("single-word confidence %v should be below compound %v",
			single[0].Confidence, compound[0].Confidence)
	}
}

func TestCompoundVariantWordBoundaries(t *testing.T) {
	cases := []struct {
		keyword string
		tag     string
		want    bool
	}{
		{"ice cream", "ice cream", true},
		{"ice cream", "ice cream truck", true},
		{"ice cream sundae", "ice cream", true},
		{"ice cream", "rice cream", false},
		{"ice cream", "ice creamery", false},
	}
	for _, tc := range cases {
		if got := compoundVariant(tc.keyword, tc.tag); got != tc.want {
			t.Errorf("compoundVariant(%q, %q) = %v, want %v",
				tc.keyword, tc.tag, got, tc.want)
		}
	}
}

func TestMatchPronounNeverJustifies(t *testing.T) {
	m := NewMatcher(testCorpus())

	matches, err := m.Match(context.Background(), map[string]float64{
		"her":  0.8,
		"tale": 0.9,
	})
	if err != nil {
		t.Fatalf("Match: %v", err)
	}
	for _, match := range matches {
		for _, subject := range match.SubjectsMatched {
			if subject == "her" {
				t.Errorf("%q cited pronoun %q as justification", match.Icon.Title, subject)
			}
		}
	}
}

func TestMatchSubjectsNeverEmpty(t *testing.T) {
	m := NewMatcher(testCorpus())

	matches, err := m.Match(context.Background(), map[string]float64{
		"princess": 0.9,
		"rocket":   0.6,
		"unknown":  0.9,
	})
	if err != nil {
		t.Fatalf("Match: %v", err)
	}
	if len(matches) == 0 {
		t.Fatal("expected at least one match")
	}
	for _, match := range matches {
		if len(match.SubjectsMatched) == 0 {
			t.Errorf("%q returned with no matched subjects", match.Icon.Title)
		}
		if match.Confidence < 0 || match.Confidence > 1 {
			t.Errorf("%q confidence %v out of bounds", match.Icon.Title, match.Confidence)
		}
	}
}

func TestMatchLowConfidenceKeywordsIgnored(t *testing.T) {
	m := NewMatcher(testCorpus())

	matches, err := m.Match(context.Background(), map[string]float64{
		"jazz": 0.1,
	})
	if err != nil {
		t.Fatalf("Match: %v", err)
	}
	if len(matches) != 0 {
		t.Errorf("sub-threshold keyword produced %d matches, want 0", len(matches))
	}
}

func TestMatchMalformedScoresSkipped(t *testing.T) {
	m := NewMatcher(testCorpus())

	nan := 0.0
	nan /= nan
	matches, err := m.Match(context.Background(), map[string]float64{
		"jazz": nan,
	})
	if err != nil {
		t.Fatalf("Match: %v", err)
	}
	if len(matches) != 0 {
		t.Errorf("NaN-scored keyword produced %d matches, want 0", len(matches))
	}
}

// fixedEmbedder returns canned unit vectors so semantic similarity is
// predictable without a model.
type fixedEmbedder struct {
	vectors map[string][]float32
}

func (f *fixedEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	if vec, ok := f.vectors[text]; ok {
		return vec, nil
	}
	return []float32{0, 0, 1}, nil
}

func (f *fixedEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, text := range texts {
		vec, err := f.Embed(ctx, text)
		if err != nil {
			return nil, err
		}
		out[i] = vec
	}
	return out, nil
}

func (f *fixedEmbedder) Dimensions() int { return 3 }

func TestMatchSemanticLayer(t *testing.T) {
	emb := &fixedEmbedder{vectors: map[string][]float32{
		"monarch": {1, 0, 0},
		"royal":   {0.95, 0.312, 0},
	}}
	m := NewMatcher(testCorpus(), WithEmbedder(emb))

	matches, err := m.Match(context.Background(), map[string]float64{"monarch": 0.9})
	if err != nil {
		t.Fatalf("Match: %v", err)
	}
	if len(matches) != 1 {
		t.Fatalf("expected 1 semantic match, got %d", len(matches))
	}
	got := matches[0]
	if got.Icon.Title != "Frozen" {
		t.Errorf("matched %q, want %q", got.Icon.Title, "Frozen")
	}
	if got.Confidence <= 0.3 || got.Confidence > 0.6 {
		t.Errorf("semantic confidence = %v, want in (0.3, 0.6]", got.Confidence)
	}
	if len(got.SubjectsMatched) != 1 || got.SubjectsMatched[0] != "monarch" {
		t.Errorf("subjects matched = %v, want [monarch]", got.SubjectsMatched)
	}
}
