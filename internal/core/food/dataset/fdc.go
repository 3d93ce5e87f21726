package dataset

import (
	"encoding/json"
	"fmt"
	"strings"

	"nutrition-resolver/internal/pkg/common"
)

// nutrientKind classifies a named nutrient into the fields of FoodRecord.
type nutrientKind int

const (
	kindIgnore nutrientKind = iota
	kindCalories
	kindProtein
	kindCarbs
	kindFat
	kindSatFat
	kindMonoFat
	kindPolyFat
	kindTransFat
	kindMicro
)

// nutrientPatterns maps FoodData Central nutrient names to record fields.
// Checked in order; first match classifies. The saturated/mono/poly/trans
// rows must precede the generic fat row.
var nutrientPatterns = []struct {
	substr string
	kind   nutrientKind
	micro  string
}{
	{"protein", kindProtein, ""},
	{"carbohydrate", kindCarbs, ""},
	{"total saturated", kindSatFat, ""},
	{"total monounsaturated", kindMonoFat, ""},
	{"total polyunsaturated", kindPolyFat, ""},
	{"total trans", kindTransFat, ""},
	{"total lipid", kindFat, ""},
	{"energy", kindCalories, ""},
	{"fiber", kindMicro, "Fibra"},
	{"calcium", kindMicro, "Calcio"},
	{"iron", kindMicro, "Hierro"},
	{"sodium", kindMicro, "Sodio"},
	{"potassium", kindMicro, "Potasio"},
	{"vitamin c", kindMicro, "Vitamina C"},
}

func classifyNutrient(name string) (nutrientKind, string) {
	lower := strings.ToLower(name)
	for _, p := range nutrientPatterns {
		if strings.Contains(lower, p.substr) {
			return p.kind, p.micro
		}
	}
	return kindIgnore, ""
}

// fdcFoundationFood is one entry of the bundled FoodData Central foundation
// foods dump, where each nutrient is nested under a "nutrient" object.
type fdcFoundationFood struct {
	FdcID         int    `json:"fdcId"`
	Description   string `json:"description"`
	FoodNutrients []struct {
		Nutrient struct {
			Name     string `json:"name"`
			UnitName string `json:"unitName"`
		} `json:"nutrient"`
		Amount float64 `json:"amount"`
	} `json:"foodNutrients"`
}

// fdcFoundationDocument is the bundled dataset wrapper shape. The file may
// also be a bare array.
type fdcFoundationDocument struct {
	FoundationFoods []fdcFoundationFood `json:"FoundationFoods"`
}

// ParseFDCFoundation normalizes a raw foundation-foods payload (wrapped or
// bare array) into FoodRecords. Malformed payloads yield nil, never an error.
func ParseFDCFoundation(raw []byte) []common.FoodRecord {
	var doc fdcFoundationDocument
	if err := json.Unmarshal(raw, &doc); err != nil || doc.FoundationFoods == nil {
		var bare []fdcFoundationFood
		if err := json.Unmarshal(raw, &bare); err != nil {
			return nil
		}
		doc.FoundationFoods = bare
	}

	records := make([]common.FoodRecord, 0, len(doc.FoundationFoods))
	for _, f := range doc.FoundationFoods {
		if f.Description == "" {
			continue
		}
		rec := newFDCRecord(f.FdcID, f.Description)
		for _, n := range f.FoodNutrients {
			applyNutrient(&rec, n.Nutrient.Name, n.Nutrient.UnitName, n.Amount)
		}
		finishFDCRecord(&rec)
		records = append(records, rec)
	}
	return records
}

// FDCSearchFood is one entry of the FoodData Central search API response,
// where nutrients are flat {nutrientName, unitName, value} triples.
type FDCSearchFood struct {
	FdcID         int    `json:"fdcId"`
	Description   string `json:"description"`
	BrandName     string `json:"brandName"`
	FoodNutrients []struct {
		NutrientName string  `json:"nutrientName"`
		UnitName     string  `json:"unitName"`
		Value        float64 `json:"value"`
	} `json:"foodNutrients"`
}

// AdaptFDCSearchFood converts one search API entry into a FoodRecord.
func AdaptFDCSearchFood(f FDCSearchFood) (common.FoodRecord, bool) {
	if f.Description == "" {
		return common.FoodRecord{}, false
	}
	rec := newFDCRecord(f.FdcID, f.Description)
	rec.Brand = f.BrandName
	for _, n := range f.FoodNutrients {
		applyNutrient(&rec, n.NutrientName, n.UnitName, n.Value)
	}
	finishFDCRecord(&rec)
	return rec, true
}

func newFDCRecord(fdcID int, description string) common.FoodRecord {
	return common.FoodRecord{
		ID:          fmt.Sprintf("fdc_%d", fdcID),
		Name:        description,
		Source:      common.SourceFDC,
		ServingSize: 100,
		ServingUnit: "g",
	}
}

// applyNutrient routes one named nutrient amount into the record.
func applyNutrient(rec *common.FoodRecord, name, unit string, amount float64) {
	kind, microName := classifyNutrient(name)
	switch kind {
	case kindCalories:
		// FDC lists energy in both kcal and kJ; keep only kcal.
		if strings.EqualFold(unit, "kcal") {
			rec.Calories = amount
		}
	case kindProtein:
		rec.Protein = amount
	case kindCarbs:
		rec.Carbs = amount
	case kindFat:
		rec.Fats = amount
	case kindSatFat:
		fatDetail(rec).Saturated = amount
	case kindMonoFat:
		fatDetail(rec).Mono = amount
	case kindPolyFat:
		fatDetail(rec).Poly = amount
	case kindTransFat:
		fatDetail(rec).Trans = amount
	case kindMicro:
		if amount > 0 {
			rec.Micronutrients = append(rec.Micronutrients, common.Micronutrient{
				Name:   microName,
				Amount: amount,
				Unit:   strings.ToLower(unit),
			})
		}
	}
}

func fatDetail(rec *common.FoodRecord) *common.FatBreakdown {
	if rec.FatDetail == nil {
		rec.FatDetail = &common.FatBreakdown{}
	}
	return rec.FatDetail
}

// finishFDCRecord drops an all-zero fat breakdown.
func finishFDCRecord(rec *common.FoodRecord) {
	if rec.FatDetail != nil && *rec.FatDetail == (common.FatBreakdown{}) {
		rec.FatDetail = nil
	}
}
