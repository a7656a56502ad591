// Package language provides best-effort language detection for transcript
// text. Detection is marker-word based: each supported language carries a
// small set of high-frequency function words, and languages with enough
// marker hits are reported. Failures are never fatal; callers treat an empty
// result as "unknown".
package language

import "strings"

type entry struct {
	code    string   // ISO 639-1
	display string   // human-readable name
	markers []string // high-frequency function words
}

var languages = []entry{
	{"en", "English", []string{"the", "and", "is", "was", "with", "that", "this", "they", "have", "about"}},
	{"es", "Spanish", []string{"el", "la", "los", "las", "que", "una", "con", "para", "por", "como"}},
	{"fr", "French", []string{"le", "la", "les", "des", "une", "est", "avec", "pour", "dans", "que"}},
	{"de", "German", []string{"der", "die", "das", "und", "ist", "mit", "ein", "eine", "nicht", "sich"}},
	{"it", "Italian", []string{"il", "la", "che", "una", "con", "per", "sono", "della", "questo", "come"}},
	{"pt", "Portuguese", []string{"o", "a", "os", "que", "uma", "com", "para", "por", "não", "como"}},
}

var byCode map[string]*entry

func init() {
	byCode = make(map[string]*entry, len(languages))
	for i := range languages {
		byCode[languages[i].code] = &languages[i]
	}
}

// minMarkerHits is the detection floor: fewer distinct marker words than
// this and a language is not reported.
const minMarkerHits = 2

// Detect returns the ISO 639-1 codes of languages plausibly present in
// text, strongest signal first. Returns nil when nothing clears the floor.
func Detect(text string) []string {
	tokens := strings.Fields(strings.ToLower(text))
	if len(tokens) == 0 {
		return nil
	}

	present := make(map[string]struct{}, len(tokens))
	for _, tok := range tokens {
		present[strings.Trim(tok, ".,!?;:\"'()")] = struct{}{}
	}

	type hit struct {
		code  string
		count int
	}
	hits := make([]hit, 0, 2)
	for _, lang := range languages {
		count := 0
		for _, marker := range lang.markers {
			if _, ok := present[marker]; ok {
				count++
			}
		}
		if count >= minMarkerHits {
			hits = append(hits, hit{lang.code, count})
		}
	}

	// Insertion order is table order; sort by hit count, stable.
	for i := 1; i < len(hits); i++ {
		for j := i; j > 0 && hits[j].count > hits[j-1].count; j-- {
			hits[j], hits[j-1] = hits[j-1], hits[j]
		}
	}

	out := make([]string, len(hits))
	for i, h := range hits {
		out[i] = h.code
	}
	return out
}

// Display returns the human-readable name for an ISO 639-1 code, or the
// code itself when unknown.
func Display(code string) string {
	if e, ok := byCode[strings.ToLower(strings.TrimSpace(code))]; ok {
		return e.display
	}
	return code
}
