// Package parser splits free-text meal descriptions into discrete food items
// with quantity, cooking method and portion size. Parsing never fails:
// unparsable text yields an empty item list.
package parser

import (
	"regexp"
	"strconv"
	"strings"

	"nutrition-resolver/internal/core/food/synonym"
	"nutrition-resolver/internal/core/food/text"
	"nutrition-resolver/internal/pkg/common"
)

// Cooking method categories.
const (
	MethodRaw     = "raw"
	MethodBoiled  = "boiled"
	MethodGrilled = "grilled"
	MethodBaked   = "baked"
	MethodBreaded = "breaded"
	MethodFried   = "fried"
)

// cookingPatterns are checked in this fixed order; the first pattern that
// matches anywhere in the description classifies the whole meal. "empanizado
// y frito" therefore resolves to the breaded category, not plain fried.
var cookingPatterns = []struct {
	re     *regexp.Regexp
	method string
}{
	{regexp.MustCompile(`\bcrud[oa]s?\b`), MethodRaw},
	{regexp.MustCompile(`\b(hervid[oa]s?|cocid[oa]s?|al vapor)\b`), MethodBoiled},
	{regexp.MustCompile(`\b(a la plancha|a la parrilla|asad[oa]s?)\b`), MethodGrilled},
	{regexp.MustCompile(`\b(al horno|hornead[oa]s?)\b`), MethodBaked},
	{regexp.MustCompile(`\b(empanizad[oa]s?|apanad[oa]s?|rebozad[oa]s?)\b`), MethodBreaded},
	{regexp.MustCompile(`\bfrit[oa]s?\b`), MethodFried},
}

// portionPatterns are checked in order; first match wins and the phrase is
// stripped from the description.
var portionPatterns = []struct {
	re   *regexp.Regexp
	size common.PortionSize
}{
	{regexp.MustCompile(`\b(plato|porcion|racion)?\s*(extra grande|extra)\b`), common.PortionExtra},
	{regexp.MustCompile(`\b(plato|porcion|racion)?\s*(pequen[oa]|chic[oa])\b`), common.PortionSmall},
	{regexp.MustCompile(`\b(plato|porcion|racion)?\s*median[oa]\b`), common.PortionMedium},
	{regexp.MustCompile(`\b(plato|porcion|racion)?\s*grande\b`), common.PortionLarge},
}

var (
	fragmentSplitRegex = regexp.MustCompile(`\s+(?:y|con|e)\s+|[,+]`)
	gramsRegex         = regexp.MustCompile(`\b(\d+(?:[.,]\d+)?)\s*(?:g|gr|grs|gramos)\b`)
	leadingNumberRegex = regexp.MustCompile(`^(\d+(?:[.,]\d+)?|\d+/\d+)\s+`)
)

// numberWords maps literal Spanish number words to quantities.
var numberWords = map[string]float64{
	"un": 1, "una": 1, "uno": 1,
	"dos": 2, "tres": 3, "cuatro": 4, "cinco": 5, "seis": 6,
	"medio": 0.5, "media": 0.5,
	"doble": 2, "triple": 3,
}

// Parser turns meal descriptions into parsed items.
type Parser struct {
	synonyms *synonym.Resolver
}

// New creates a parser using the given synonym resolver.
func New(synonyms *synonym.Resolver) *Parser {
	return &Parser{synonyms: synonyms}
}

// Parse splits description into food items. Items keep input order; identical
// tags coalesce by summing quantity. When nothing parses, the whole cleaned
// description becomes a single item with quantity 1; empty input yields an
// empty list. Parse never returns an error.
func (p *Parser) Parse(description string) common.ParsedMeal {
	meal := common.ParsedMeal{RawDescription: description}

	// Lowercase and strip accents but keep punctuation: the fragment split
	// still needs "," and "+" as separators. Fragments are folded after the
	// split.
	cleaned := multiSpace(text.StripDiacritics(strings.ToLower(strings.TrimSpace(description))))
	if cleaned == "" {
		return meal
	}

	cleaned, portion := extractPortion(cleaned)
	cleaned, method := extractCookingMethod(cleaned)
	cleaned = strings.TrimSpace(multiSpace(cleaned))

	fragments := fragmentSplitRegex.Split(cleaned, -1)

	var order []string
	items := make(map[string]*common.ParsedMealItem)

	for _, frag := range fragments {
		item, ok := p.parseFragment(frag)
		if !ok {
			continue
		}
		item.CookingMethod = method
		item.Portion = portion

		if existing, seen := items[item.Tag]; seen {
			existing.Quantity += item.Quantity
			if existing.Grams == 0 {
				existing.Grams = item.Grams
			}
			continue
		}
		items[item.Tag] = &item
		order = append(order, item.Tag)
	}

	// Nothing parsed: treat the whole description as one item.
	if folded := text.Fold(cleaned); len(order) == 0 && len([]rune(folded)) >= 2 {
		tag := p.synonyms.ResolveToCanonical(folded)
		meal.Items = []common.ParsedMealItem{{
			Tag:           tag,
			Quantity:      1,
			CookingMethod: method,
			Portion:       portion,
		}}
		return meal
	}

	for _, tag := range order {
		meal.Items = append(meal.Items, *items[tag])
	}
	return meal
}

// parseFragment parses one split fragment into an item. Returns ok=false for
// noise fragments and unresolvable bare number words.
func (p *Parser) parseFragment(frag string) (common.ParsedMealItem, bool) {
	frag = strings.TrimSpace(multiSpace(frag))
	if frag == "" {
		return common.ParsedMealItem{}, false
	}

	item := common.ParsedMealItem{Quantity: 1}

	// Numeric extraction runs before folding, which would split decimals like
	// "1.5" into separate tokens.
	if m := gramsRegex.FindStringSubmatch(frag); m != nil {
		item.Grams = parseDecimal(m[1])
		frag = strings.TrimSpace(multiSpace(gramsRegex.ReplaceAllString(frag, " ")))
	}

	if m := leadingNumberRegex.FindStringSubmatch(frag); m != nil {
		item.Quantity = parseQuantity(m[1])
		frag = strings.TrimSpace(frag[len(m[0]):])
	}

	frag = trimConnectives(text.Fold(frag))
	if len([]rune(frag)) < 2 {
		return common.ParsedMealItem{}, false
	}

	// Literal number words: "dos panes", "media manzana". A number word with
	// no following noun is ambiguous and the fragment is dropped.
	words := strings.Fields(frag)
	if qty, ok := numberWords[words[0]]; ok && item.Quantity == 1 {
		if len(words) == 1 {
			return common.ParsedMealItem{}, false
		}
		item.Quantity = qty
		frag = strings.Join(words[1:], " ")
		if len([]rune(frag)) < 2 {
			return common.ParsedMealItem{}, false
		}
	}

	item.Tag = p.synonyms.ResolveToCanonical(frag)
	return item, true
}

// trimConnectives drops leading and trailing stopwords left behind by phrase
// stripping, e.g. "pollo y" after the cooking words are removed.
func trimConnectives(s string) string {
	words := strings.Fields(s)
	for len(words) > 0 && text.IsStopword(words[0]) {
		words = words[1:]
	}
	for len(words) > 0 && text.IsStopword(words[len(words)-1]) {
		words = words[:len(words)-1]
	}
	return strings.Join(words, " ")
}

// extractPortion strips the first portion-size phrase and returns its preset.
func extractPortion(s string) (string, common.PortionSize) {
	for _, p := range portionPatterns {
		if loc := p.re.FindStringIndex(s); loc != nil {
			return s[:loc[0]] + " " + s[loc[1]:], p.size
		}
	}
	return s, ""
}

// extractCookingMethod classifies by the first matching pattern in priority
// order, then removes every cooking phrase from the text so method words do
// not survive as food fragments.
func extractCookingMethod(s string) (string, string) {
	method := ""
	for _, c := range cookingPatterns {
		if c.re.MatchString(s) {
			if method == "" {
				method = c.method
			}
			s = c.re.ReplaceAllString(s, " ")
		}
	}
	return s, method
}

func parseQuantity(tok string) float64 {
	if num, den, ok := strings.Cut(tok, "/"); ok {
		n := parseDecimal(num)
		d := parseDecimal(den)
		if d > 0 {
			return n / d
		}
		return 1
	}
	return parseDecimal(tok)
}

func parseDecimal(tok string) float64 {
	tok = strings.ReplaceAll(tok, ",", ".")
	v, err := strconv.ParseFloat(tok, 64)
	if err != nil || v <= 0 {
		return 1
	}
	return v
}

var multiSpaceRegex = regexp.MustCompile(`\s+`)

func multiSpace(s string) string {
	return multiSpaceRegex.ReplaceAllString(s, " ")
}
