package match

import "sort"

const (
	// corroborationBonus rewards matches backed by more than one subject.
	corroborationBonus = 0.1

	// sparsityPenalty docks icons whose own tag list is too short to be
	// descriptive.
	sparsityPenalty = 0.02

	// sparseTagThreshold is the tag count at or below which the sparsity
	// penalty applies.
	sparseTagThreshold = 2
)

// RankResults orders matches by adjusted confidence and truncates to limit.
// A limit <= 0 means no truncation. The input slice is not mutated; adjusted
// copies are returned. Ties keep their relative input order.
func RankResults(matches []IconMatch, subjects map[string]float64, limit int) []IconMatch {
	ranked := make([]IconMatch, len(matches))
	for i, m := range matches {
		adjusted := m.Confidence
		if len(m.SubjectsMatched) > 1 {
			adjusted += corroborationBonus
		}
		if len(m.Icon.Subjects) <= sparseTagThreshold {
			adjusted -= sparsityPenalty
		}
		if adjusted > 1 {
			adjusted = 1
		}
		if adjusted < 0 {
			adjusted = 0
		}
		m.Confidence = adjusted
		ranked[i] = m
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Confidence > ranked[j].Confidence
	})

	if limit > 0 && len(ranked) > limit {
		ranked = ranked[:limit]
	}
	return ranked
}
