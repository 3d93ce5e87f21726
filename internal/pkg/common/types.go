package common

// Source identifiers. Records carry the source that produced them; the merge
// engine uses these against the configured priority order.
const (
	SourceLocal = "local"
	SourceOFF   = "off"
	SourceFDC   = "fdc"
)

// MatchType classifies a result batch.
type MatchType string

const (
	MatchExact   MatchType = "exact"
	MatchPartial MatchType = "partial"
	MatchFuzzy   MatchType = "fuzzy"
)

// FatBreakdown is the optional fat sub-breakdown of a record, in grams per
// reference serving.
type FatBreakdown struct {
	Saturated float64 `json:"saturated,omitempty"`
	Mono      float64 `json:"mono,omitempty"`
	Poly      float64 `json:"poly,omitempty"`
	Trans     float64 `json:"trans,omitempty"`
}

// Micronutrient is a single named micronutrient amount.
type Micronutrient struct {
	Name   string  `json:"name"`
	Amount float64 `json:"amount"`
	Unit   string  `json:"unit"`
}

// FoodRecord is a resolved nutrition entity. Macros are always per the stated
// serving size and unit, never implicitly per gram. Records are immutable
// after construction; a merge produces a new record.
type FoodRecord struct {
	ID             string          `json:"id"`
	Name           string          `json:"name"`
	Brand          string          `json:"brand,omitempty"`
	Source         string          `json:"source"`
	ServingSize    float64         `json:"serving_size"`
	ServingUnit    string          `json:"serving_unit"`
	Calories       float64         `json:"calories"`
	Protein        float64         `json:"protein"`
	Carbs          float64         `json:"carbs"`
	Fats           float64         `json:"fats"`
	FatDetail      *FatBreakdown   `json:"fat_detail,omitempty"`
	Micronutrients []Micronutrient `json:"micronutrients,omitempty"`
	ImageURL       string          `json:"image_url,omitempty"`
	Custom         bool            `json:"custom"`
}

// PortionSize is the portion preset extracted from a meal description.
type PortionSize string

const (
	PortionSmall  PortionSize = "small"
	PortionMedium PortionSize = "medium"
	PortionLarge  PortionSize = "large"
	PortionExtra  PortionSize = "extra"
)

// ParsedMealItem is one food mention extracted from a free-text description.
type ParsedMealItem struct {
	Tag           string      `json:"tag"`
	Quantity      float64     `json:"quantity"`
	Grams         float64     `json:"grams,omitempty"`
	CookingMethod string      `json:"cooking_method,omitempty"`
	Portion       PortionSize `json:"portion,omitempty"`
	Approximate   bool        `json:"approximate"`
}

// ParsedMeal is the result of parsing a meal description.
type ParsedMeal struct {
	Items          []ParsedMealItem `json:"items"`
	RawDescription string           `json:"raw_description"`
}

// SearchResult is the answer set for one query.
type SearchResult struct {
	Results   []FoodRecord `json:"results"`
	MatchType MatchType    `json:"match_type"`
}
