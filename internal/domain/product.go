// Path: internal/domain/product.go
package domain

import (
	"encoding/json"
	"strconv"
	"strings"
)

// --- Custom Type for nutriment values ---

// FlexibleFloat is a custom float type that can be unmarshaled from a JSON
// number or a numeric JSON string. Open Food Facts mixes both in the
// "nutriments" object.
type FlexibleFloat float64

// UnmarshalJSON implements the json.Unmarshaler interface for FlexibleFloat.
func (ff *FlexibleFloat) UnmarshalJSON(data []byte) error {
	var f float64
	if err := json.Unmarshal(data, &f); err == nil {
		*ff = FlexibleFloat(f)
		return nil
	}

	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		// Unparseable nutriment values are dropped rather than failing the
		// whole product decode.
		*ff = 0
		return nil
	}

	parsed, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		*ff = 0
		return nil
	}
	*ff = FlexibleFloat(parsed)
	return nil
}

// SortOrder selects how a product list is ordered.
type SortOrder string

const (
	SortDefault   SortOrder = "default"
	SortNameAsc   SortOrder = "name_asc"
	SortNameDesc  SortOrder = "name_desc"
	SortGradeAsc  SortOrder = "grade_asc"
	SortGradeDesc SortOrder = "grade_desc"
)

// SearchMode selects between free-text and exact-barcode search.
type SearchMode string

const (
	ModeByName    SearchMode = "name"
	ModeByBarcode SearchMode = "barcode"
)

// gradeRanks maps a nutrition grade letter to its sort rank. Missing or
// unrecognized grades rank last.
var gradeRanks = map[string]int{
	"a": 1,
	"b": 2,
	"c": 3,
	"d": 4,
	"e": 5,
}

// UnknownGradeRank is the rank assigned to products without a usable grade.
const UnknownGradeRank = 6

// Product represents a single food product from the Open Food Facts API.
// Only the fields the explorer renders are decoded; everything else in the
// upstream document is ignored.
type Product struct {
	Code            string                   `json:"code"`
	ProductName     string                   `json:"product_name"`
	ImageURL        string                   `json:"image_url"`
	Categories      string                   `json:"categories"`
	IngredientsText string                   `json:"ingredients_text"`
	NutritionGrades string                   `json:"nutrition_grades"`
	Nutriments      map[string]FlexibleFloat `json:"nutriments"`
	Labels          string                   `json:"labels"`
}

// Name returns the product name, or the empty string when missing. Sorting
// and display both treat a missing name as "".
func (p *Product) Name() string {
	return p.ProductName
}

// GradeRank returns the sort rank for the product's nutrition grade:
// a=1 .. e=5, anything else (including absent) = 6.
func (p *Product) GradeRank() int {
	if rank, ok := gradeRanks[strings.ToLower(p.NutritionGrades)]; ok {
		return rank
	}
	return UnknownGradeRank
}

// Nutriment returns the value for a well-known nutriment key and whether it
// was present.
func (p *Product) Nutriment(key string) (float64, bool) {
	v, ok := p.Nutriments[key]
	return float64(v), ok
}

// CategoryList splits the comma-separated categories field.
func (p *Product) CategoryList() []string {
	return splitCSV(p.Categories)
}

// LabelList splits the comma-separated labels field.
func (p *Product) LabelList() []string {
	return splitCSV(p.Labels)
}

func splitCSV(s string) []string {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

// Category is an entry from the category taxonomy, carrying the number of
// products tagged with it.
type Category struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Products int    `json:"products"`
}

// NutrimentLabel describes how a well-known per-100g nutriment key renders.
type NutrimentLabel struct {
	Key   string
	Label string
	Unit  string
}

// NutrimentLabels lists the nutriment rows the detail view shows, in display
// order.
var NutrimentLabels = []NutrimentLabel{
	{Key: "energy-kcal_100g", Label: "Energy", Unit: "kcal"},
	{Key: "energy_100g", Label: "Energy (kJ)", Unit: "kJ"},
	{Key: "fat_100g", Label: "Fat", Unit: "g"},
	{Key: "saturated-fat_100g", Label: "Saturated Fat", Unit: "g"},
	{Key: "carbohydrates_100g", Label: "Carbohydrates", Unit: "g"},
	{Key: "sugars_100g", Label: "Sugars", Unit: "g"},
	{Key: "fiber_100g", Label: "Fiber", Unit: "g"},
	{Key: "proteins_100g", Label: "Proteins", Unit: "g"},
	{Key: "salt_100g", Label: "Salt", Unit: "g"},
	{Key: "sodium_100g", Label: "Sodium", Unit: "g"},
}
