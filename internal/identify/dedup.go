package identify

import "strings"

const (
	dedupMaxLengthDelta  = 3
	dedupOverlapFraction = 0.8
)

// isDuplicateName reports whether two lowercase-normalized subject names are
// near-identical. Three tests, any of which marks a duplicate:
//
//  1. exact match
//  2. one is a substring of the other and the length difference is <= 3
//  3. the word sets overlap by >= 0.8 of the smaller set
//
// On collision the first-accepted subject wins; the later one is dropped,
// not merged.
func isDuplicateName(a, b string) bool {
	if a == b {
		return true
	}

	longer, shorter := a, b
	if len(shorter) > len(longer) {
		longer, shorter = shorter, longer
	}
	if strings.Contains(longer, shorter) && len(longer)-len(shorter) <= dedupMaxLengthDelta {
		return true
	}

	return wordOverlap(a, b) >= dedupOverlapFraction
}

// wordOverlap returns the shared-word fraction relative to the smaller
// name's word set.
func wordOverlap(a, b string) float64 {
	wordsA := strings.Fields(a)
	wordsB := strings.Fields(b)
	if len(wordsA) == 0 || len(wordsB) == 0 {
		return 0
	}

	setA := make(map[string]struct{}, len(wordsA))
	for _, w := range wordsA {
		setA[w] = struct{}{}
	}
	setB := make(map[string]struct{}, len(wordsB))
	for _, w := range wordsB {
		setB[w] = struct{}{}
	}

	smaller := setA
	if len(setB) < len(setA) {
		smaller = setB
	}

	shared := 0
	for w := range setA {
		if _, ok := setB[w]; ok {
			shared++
		}
	}
	return float64(shared) / float64(len(smaller))
}
