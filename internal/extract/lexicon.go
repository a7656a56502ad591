package extract

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// stopwords are common English function words excluded from keyword and
// topic candidates. Pronouns live here too, which is what keeps a lone
// "her" from ever justifying an icon match downstream.
var stopwords = map[string]struct{}{}

var stopwordList = []string{
	"a", "an", "the", "and", "or", "but", "nor", "so", "yet",
	"is", "am", "are", "was", "were", "be", "been", "being",
	"have", "has", "had", "do", "does", "did", "will", "would",
	"shall", "should", "can", "could", "may", "might", "must",
	"i", "you", "he", "she", "it", "we", "they",
	"me", "him", "her", "us", "them",
	"my", "your", "his", "its", "our", "their",
	"mine", "yours", "hers", "ours", "theirs",
	"this", "that", "these", "those", "there", "here",
	"who", "whom", "whose", "which", "what", "when", "where", "why", "how",
	"to", "of", "in", "on", "at", "by", "for", "with", "about",
	"from", "into", "onto", "over", "under", "after", "before",
	"up", "down", "out", "off", "not", "no", "then", "than",
	"as", "if", "because", "while", "during", "through",
	"all", "any", "both", "each", "few", "more", "most", "some", "such",
	"only", "own", "same", "too", "very", "just", "also", "once", "again",
	"said", "says", "say", "get", "got", "went", "going", "upon",
}

// pronouns are the subset of stopwords that must never appear in a match
// justification even when a caller hands them through as keywords.
var pronouns = map[string]struct{}{}

var pronounList = []string{
	"i", "you", "he", "she", "it", "we", "they",
	"me", "him", "her", "us", "them",
	"my", "your", "his", "its", "our", "their",
	"mine", "yours", "hers", "ours", "theirs",
	"this", "that", "these", "those",
}

// compoundPhrases are multi-word sequences treated as a single subject.
// Scanned before tokenization; each match is removed from the text so its
// constituent words are not double counted.
var compoundPhrases = []string{
	"fairy tale",
	"once upon a time",
	"happily ever after",
	"bedtime story",
	"magic wand",
	"ice cream",
	"teddy bear",
	"tree house",
	"pirate ship",
	"treasure chest",
	"outer space",
	"solar system",
	"dinosaur bones",
	"fire truck",
	"police car",
	"train station",
	"jazz band",
	"rock band",
	"music box",
	"sing along",
	"nursery rhyme",
	"big bad wolf",
	"gingerbread man",
	"magic carpet",
	"polar bear",
	"sea turtle",
	"rain forest",
	"north pole",
}

// importanceWords signal the content domains this catalog serves; phrases
// containing one get a scoring bonus in the topic extractor.
var importanceWords = map[string]struct{}{}

var importanceWordList = []string{
	"story", "stories", "tale", "tales", "adventure", "magic", "magical",
	"music", "song", "songs", "animal", "animals", "dragon", "princess",
	"prince", "king", "queen", "castle", "forest", "ocean", "space",
	"dinosaur", "pirate", "wizard", "fairy", "monster", "robot", "rocket",
	"friend", "friends", "family", "school", "birthday",
}

func init() {
	for _, w := range stopwordList {
		stopwords[w] = struct{}{}
	}
	for _, w := range pronounList {
		pronouns[w] = struct{}{}
	}
	for _, w := range importanceWordList {
		importanceWords[w] = struct{}{}
	}
}

// IsStopword reports whether the lowercase token is a function word.
func IsStopword(token string) bool {
	_, ok := stopwords[strings.ToLower(token)]
	return ok
}

// IsPronoun reports whether the lowercase token is a pronoun or determiner
// that can never justify a match on its own.
func IsPronoun(token string) bool {
	_, ok := pronouns[strings.ToLower(token)]
	return ok
}

// CompoundPhrases returns the configured compound-phrase dictionary.
func CompoundPhrases() []string {
	out := make([]string, len(compoundPhrases))
	copy(out, compoundPhrases)
	return out
}

// diacriticFold strips combining marks so "café" and "cafe" compare equal.
var diacriticFold = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// FoldDiacritics returns s with diacritical marks removed.
func FoldDiacritics(s string) string {
	out, _, err := transform.String(diacriticFold, s)
	if err != nil {
		return s
	}
	return out
}

// NormalizeText lowercases, folds diacritics, and replaces punctuation with
// spaces, leaving a space-separated token stream.
func NormalizeText(text string) string {
	folded := FoldDiacritics(strings.ToLower(text))
	var b strings.Builder
	b.Grow(len(folded))
	for _, r := range folded {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || r == '\'' {
			b.WriteRune(r)
		} else {
			b.WriteByte(' ')
		}
	}
	return strings.Join(strings.Fields(b.String()), " ")
}

// Tokenize splits normalized text into tokens.
func Tokenize(text string) []string {
	return strings.Fields(NormalizeText(text))
}
