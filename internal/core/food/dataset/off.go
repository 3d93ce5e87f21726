package dataset

import (
	"encoding/json"
	"fmt"
	"strconv"

	"nutrition-resolver/internal/pkg/common"
)

// offProduct is the subset of an Open Food Facts product record this engine
// reads. Nutriments stay loosely typed; OFF mixes numbers and strings.
type offProduct struct {
	Code          string         `json:"code"`
	ProductName   string         `json:"product_name"`
	ProductNameEs string         `json:"product_name_es"`
	GenericName   string         `json:"generic_name"`
	Brands        string         `json:"brands"`
	ImageURL      string         `json:"image_url"`
	Nutriments    map[string]any `json:"nutriments"`
}

// name returns the best available product name:
// product_name_es -> product_name -> generic_name.
func (p *offProduct) name() string {
	if p.ProductNameEs != "" {
		return p.ProductNameEs
	}
	if p.ProductName != "" {
		return p.ProductName
	}
	return p.GenericName
}

// offMicronutrientKeys is the fixed map from OFF per-100g nutriment keys to
// the micronutrients this engine keeps.
var offMicronutrientKeys = []struct {
	key  string
	name string
	unit string
}{
	{"fiber_100g", "Fibra", "g"},
	{"sugars_100g", "Azúcares", "g"},
	{"sodium_100g", "Sodio", "g"},
	{"calcium_100g", "Calcio", "g"},
	{"iron_100g", "Hierro", "g"},
	{"potassium_100g", "Potasio", "g"},
	{"vitamin-c_100g", "Vitamina C", "g"},
}

// offDocument is the bundled dataset wrapper shape. The file may also be a
// bare product array.
type offDocument struct {
	Products []offProduct `json:"products"`
}

// ParseOFFProducts normalizes a raw Open Food Facts payload (wrapped or bare
// array) into FoodRecords. Malformed payloads yield nil, never an error.
func ParseOFFProducts(raw []byte) []common.FoodRecord {
	var doc offDocument
	if err := json.Unmarshal(raw, &doc); err != nil || doc.Products == nil {
		var bare []offProduct
		if err := json.Unmarshal(raw, &bare); err != nil {
			return nil
		}
		doc.Products = bare
	}

	records := make([]common.FoodRecord, 0, len(doc.Products))
	for i, p := range doc.Products {
		if rec, ok := adaptOFFProduct(p, i); ok {
			records = append(records, rec)
		}
	}
	return records
}

// adaptOFFProduct converts one OFF product into a FoodRecord. All nutrient
// fields are per 100 g, which becomes the reference serving.
func adaptOFFProduct(p offProduct, ordinal int) (common.FoodRecord, bool) {
	name := p.name()
	if name == "" {
		return common.FoodRecord{}, false
	}

	id := p.Code
	if id == "" {
		id = fmt.Sprintf("%d", ordinal+1)
	}

	rec := common.FoodRecord{
		ID:          "off_" + id,
		Name:        name,
		Brand:       p.Brands,
		Source:      common.SourceOFF,
		ServingSize: 100,
		ServingUnit: "g",
		ImageURL:    p.ImageURL,
	}

	if v, ok := nutrimentFloat(p.Nutriments, "energy-kcal_100g"); ok {
		rec.Calories = v
	} else if v, ok := nutrimentFloat(p.Nutriments, "energy-kj_100g"); ok {
		rec.Calories = v / 4.184
	}
	if v, ok := nutrimentFloat(p.Nutriments, "proteins_100g"); ok {
		rec.Protein = v
	}
	if v, ok := nutrimentFloat(p.Nutriments, "carbohydrates_100g"); ok {
		rec.Carbs = v
	}
	if v, ok := nutrimentFloat(p.Nutriments, "fat_100g"); ok {
		rec.Fats = v
	}

	detail := common.FatBreakdown{}
	hasDetail := false
	if v, ok := nutrimentFloat(p.Nutriments, "saturated-fat_100g"); ok {
		detail.Saturated = v
		hasDetail = true
	}
	if v, ok := nutrimentFloat(p.Nutriments, "monounsaturated-fat_100g"); ok {
		detail.Mono = v
		hasDetail = true
	}
	if v, ok := nutrimentFloat(p.Nutriments, "polyunsaturated-fat_100g"); ok {
		detail.Poly = v
		hasDetail = true
	}
	if v, ok := nutrimentFloat(p.Nutriments, "trans-fat_100g"); ok {
		detail.Trans = v
		hasDetail = true
	}
	if hasDetail {
		rec.FatDetail = &detail
	}

	for _, mk := range offMicronutrientKeys {
		if v, ok := nutrimentFloat(p.Nutriments, mk.key); ok && v > 0 {
			rec.Micronutrients = append(rec.Micronutrients, common.Micronutrient{
				Name:   mk.name,
				Amount: v,
				Unit:   mk.unit,
			})
		}
	}

	return rec, true
}

// nutrimentFloat coerces a nutriments value to float64. OFF stores numbers
// both as JSON numbers and as strings.
func nutrimentFloat(m map[string]any, key string) (float64, bool) {
	v, ok := m[key]
	if !ok {
		return 0, false
	}
	switch x := v.(type) {
	case float64:
		return x, true
	case string:
		if f, err := strconv.ParseFloat(x, 64); err == nil {
			return f, true
		}
	}
	return 0, false
}
