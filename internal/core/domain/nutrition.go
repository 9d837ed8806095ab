package domain

import (
	"encoding/json"
	"fmt"
	"math"
	"strings"
)

// NutritionRecord is one row of the Indian-food nutrition dataset. JSON field
// names match the dataset file verbatim, spaces and units included.
type NutritionRecord struct {
	Category    string  `json:"Category"`
	DishName    string  `json:"Dish Name"`
	Region      string  `json:"Region"`
	ServingSize string  `json:"Serving Size"`
	Calories    float64 `json:"Calories (kcal)"`
	Protein     float64 `json:"Protein (g)"`
	Carbs       float64 `json:"Carbs (g)"`
	Sugar       float64 `json:"Sugar (g)"`
	Fat         float64 `json:"Fat (g)"`
	Fiber       float64 `json:"Fiber (g)"`
	Sodium      float64 `json:"Sodium (mg)"`
	Vitamins    string  `json:"Key Vitamins & Minerals"`
}

// NumericColumns lists the aggregatable dataset columns, in dataset order.
var NumericColumns = []string{
	"Calories (kcal)", "Protein (g)", "Carbs (g)", "Sugar (g)",
	"Fat (g)", "Fiber (g)", "Sodium (mg)",
}

// SearchableText is the lowercase "dish name + category" text fuzzy matching
// runs against.
func (r NutritionRecord) SearchableText() string {
	return strings.ToLower(r.DishName) + " " + strings.ToLower(r.Category)
}

// numericValue returns the record's value for a NumericColumns entry.
func (r NutritionRecord) numericValue(column string) float64 {
	switch column {
	case "Calories (kcal)":
		return r.Calories
	case "Protein (g)":
		return r.Protein
	case "Carbs (g)":
		return r.Carbs
	case "Sugar (g)":
		return r.Sugar
	case "Fat (g)":
		return r.Fat
	case "Fiber (g)":
		return r.Fiber
	case "Sodium (mg)":
		return r.Sodium
	}
	return 0
}

// MealTotals aggregates the numeric columns across a set of found dishes,
// rounded to two decimals.
func MealTotals(records []NutritionRecord) map[string]float64 {
	totals := make(map[string]float64, len(NumericColumns))
	for _, col := range NumericColumns {
		sum := 0.0
		for _, r := range records {
			sum += r.numericValue(col)
		}
		totals[col] = math.Round(sum*100) / 100
	}
	return totals
}

// FormatRecord renders a record as the human-readable markdown block tools
// embed in their answers.
func FormatRecord(r NutritionRecord) string {
	return fmt.Sprintf(
		"**%s** (%s, %s)\n- Serving Size: %s\n- Calories: %s kcal\n- Protein: %sg | Carbs: %sg | Fat: %sg | Fiber: %sg\n- Key Nutrients: %s",
		r.DishName, r.Category, r.Region, r.ServingSize,
		trimFloat(r.Calories), trimFloat(r.Protein), trimFloat(r.Carbs),
		trimFloat(r.Fat), trimFloat(r.Fiber), r.Vitamins,
	)
}

func trimFloat(v float64) string {
	s := fmt.Sprintf("%.2f", v)
	s = strings.TrimRight(s, "0")
	return strings.TrimRight(s, ".")
}

// ParseNutritionData decodes a raw dataset payload and validates its shape:
// a non-empty JSON array whose first record carries the required fields.
func ParseNutritionData(raw []byte) ([]NutritionRecord, error) {
	var probe []map[string]json.RawMessage
	if err := json.Unmarshal(raw, &probe); err != nil {
		return nil, fmt.Errorf("invalid JSON format: %w", err)
	}
	if len(probe) == 0 {
		return nil, fmt.Errorf("data must be a non-empty list of nutrition records")
	}
	required := []string{"Dish Name", "Category", "Calories (kcal)", "Protein (g)"}
	for _, field := range required {
		if _, ok := probe[0][field]; !ok {
			return nil, fmt.Errorf("invalid data structure, required fields: %s", strings.Join(required, ", "))
		}
	}
	var records []NutritionRecord
	if err := json.Unmarshal(raw, &records); err != nil {
		return nil, fmt.Errorf("decode records: %w", err)
	}
	return records, nil
}

// FallbackNutritionData is the builtin dataset used when the configured
// dataset file is missing or corrupt.
func FallbackNutritionData() []NutritionRecord {
	return []NutritionRecord{
		{
			Category: "Breads & Roti", DishName: "Plain Roti / Chapati (Whole Wheat)",
			Region: "Pan-India", ServingSize: "1 medium",
			Calories: 95, Protein: 3, Carbs: 18, Sugar: 0, Fat: 1, Fiber: 3, Sodium: 150,
			Vitamins: "Iron, Magnesium, B-Vitamins",
		},
		{
			Category: "Rice & Grains", DishName: "Cooked Rice (White)",
			Region: "Pan-India", ServingSize: "1 cup",
			Calories: 205, Protein: 4.3, Carbs: 45, Sugar: 0.1, Fat: 0.4, Fiber: 0.6, Sodium: 2,
			Vitamins: "Manganese, Selenium",
		},
		{
			Category: "Legumes & Dal", DishName: "Cooked Lentils (Mixed Dal)",
			Region: "Pan-India", ServingSize: "1 cup",
			Calories: 230, Protein: 18, Carbs: 40, Sugar: 4, Fat: 0.8, Fiber: 16, Sodium: 4,
			Vitamins: "Iron, Folate, Potassium, Magnesium",
		},
	}
}
