// Package text implements the shared query/name normalization rules: case and
// diacritic folding, the curated dataset's "c/" convention, and significant
// token extraction.
package text

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var (
	parentheticalRegex = regexp.MustCompile(`\([^)]*\)`)
	punctuationRegex   = regexp.MustCompile(`[^\p{L}\p{N}/\s]`)
	multiSpaceRegex    = regexp.MustCompile(`\s+`)

	// NFD + strip combining marks + NFC. Not safe for concurrent use through
	// a single transformer, so each call builds its own chain.
	diacriticChain = func() transform.Transformer {
		return transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	}
)

// stopwords are never significant tokens. Spanish connectives plus the few
// English fillers that show up in branded and reference food names.
var stopwords = map[string]bool{
	"de": true, "del": true, "la": true, "las": true, "el": true, "los": true,
	"con": true, "sin": true, "en": true, "al": true, "a": true, "y": true,
	"o": true, "u": true, "un": true, "una": true, "unos": true, "unas": true,
	"para": true, "por": true, "que": true, "se": true, "su": true, "lo": true,
	"como": true, "mas": true, "muy": true, "the": true, "and": true,
	"with": true, "of": true, "or": true, "in": true, "for": true,
}

// cookingStateWords are stripped before fuzzy comparison so that a query for
// the food itself still matches a name qualified by preparation state.
var cookingStateWords = map[string]bool{
	"crudo": true, "cruda": true, "crudos": true, "crudas": true,
	"cocido": true, "cocida": true, "cocidos": true, "cocidas": true,
	"hervido": true, "hervida": true, "frito": true, "frita": true,
	"fritos": true, "fritas": true, "asado": true, "asada": true,
	"horneado": true, "horneada": true, "empanizado": true, "empanizada": true,
	"plancha": true, "raw": true, "cooked": true, "boiled": true,
	"grilled": true, "baked": true, "fried": true, "roasted": true,
}

// StripDiacritics removes combining marks: "plátano" -> "platano".
func StripDiacritics(s string) string {
	out, _, err := transform.String(diacriticChain(), s)
	if err != nil {
		return s
	}
	return out
}

// Fold lowercases, strips diacritics and punctuation, and collapses
// whitespace. The "/" survives folding because the curated dataset uses the
// "c/" shorthand in names.
func Fold(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	s = StripDiacritics(s)
	s = punctuationRegex.ReplaceAllString(s, " ")
	s = multiSpaceRegex.ReplaceAllString(s, " ")
	return strings.TrimSpace(s)
}

// NormalizeQuery folds a query and rewrites the standalone word "con" to the
// curated dataset's "c/" convention so substring matching lines up with
// curated names like "arroz c/ pollo".
func NormalizeQuery(s string) string {
	folded := Fold(s)
	if folded == "" {
		return ""
	}
	words := strings.Fields(folded)
	for i, w := range words {
		if w == "con" {
			words[i] = "c/"
		}
	}
	return strings.Join(words, " ")
}

// CleanName prepares a food name for fuzzy comparison: parenthetical
// qualifiers like "(cocido)" are removed and cooking-state words dropped.
func CleanName(s string) string {
	s = parentheticalRegex.ReplaceAllString(s, " ")
	folded := Fold(s)
	if folded == "" {
		return ""
	}
	words := strings.Fields(folded)
	kept := words[:0]
	for _, w := range words {
		if cookingStateWords[w] {
			continue
		}
		kept = append(kept, w)
	}
	return strings.Join(kept, " ")
}

// SignificantTokens returns the tokens of s that are longer than 2 runes, not
// pure numbers, and not stopwords. Input is folded first.
func SignificantTokens(s string) []string {
	var tokens []string
	for _, w := range strings.Fields(Fold(s)) {
		if len([]rune(w)) <= 2 {
			continue
		}
		if IsNumber(w) {
			continue
		}
		if stopwords[w] {
			continue
		}
		tokens = append(tokens, w)
	}
	return tokens
}

// TokenSet converts a token list into a set.
func TokenSet(tokens []string) map[string]bool {
	set := make(map[string]bool, len(tokens))
	for _, t := range tokens {
		set[t] = true
	}
	return set
}

// IsNumber reports whether s consists only of digits, separators and signs,
// e.g. "150", "1.5", "1/2".
func IsNumber(s string) bool {
	if s == "" {
		return false
	}
	digits := 0
	for _, r := range s {
		switch {
		case r >= '0' && r <= '9':
			digits++
		case r == '.' || r == ',' || r == '/' || r == '-':
		default:
			return false
		}
	}
	return digits > 0
}

// IsStopword reports whether w is in the stopword set.
func IsStopword(w string) bool {
	return stopwords[w]
}
