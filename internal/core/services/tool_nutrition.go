package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/suprovo-labs/aahar/internal/core/domain"
)

const nonVegVsVegComparison = `**Comparing Non-Vegetarian vs. Vegetarian Nutrition:**

**Non-Vegetarian (e.g., Chicken Breast - 100g cooked):**
- Calories: ~165 kcal
- Protein: ~31g (complete protein with all essential amino acids)
- Fat: ~3.6g (low in saturated fat if skinless)
- Carbs: 0g
- Key nutrients: B vitamins (B12, niacin), iron (heme), zinc, selenium

**Vegetarian Protein Sources:**

*Lentils (100g cooked):*
- Calories: ~116 kcal
- Protein: ~9g (incomplete, but becomes complete when paired with grains)
- Fat: ~0.4g (very low)
- Carbs: ~20g
- Key nutrients: Fiber (8g), folate, potassium, iron (non-heme), magnesium

*Paneer (100g):*
- Calories: ~265 kcal
- Protein: ~18g (complete protein)
- Fat: ~20g (higher in saturated fat)
- Carbs: ~1.2g
- Key nutrients: Calcium (208mg), phosphorus, Vitamin B12

**Summary:** Non-vegetarian options provide complete proteins and better iron/B12 bioavailability. Vegetarian diets excel in fiber, diverse micronutrients, and can be lower in saturated fat. Both can meet nutritional needs with proper planning.`

func (t *Toolset) nutritionLookupTool() *domain.Tool {
	return &domain.Tool{
		Name:        "lookup_nutrition_facts",
		Description: "Looks up detailed nutrition facts for a food item from the database. Input: {\"food_item\": string}.",
		Run: func(ctx context.Context, call domain.ToolCall) (string, error) {
			input, err := domain.DecodeToolInput[domain.NutritionLookupInput]("lookup_nutrition_facts", call.RawInput)
			if err != nil {
				return "", err
			}
			item := input.FoodItem
			if item == "" {
				item = "unknown"
			}
			t.logger.Info("executing tool", "tool", "lookup_nutrition_facts", "food_item", item)
			return t.lookupNutritionFacts(item), nil
		},
	}
}

func (t *Toolset) lookupNutritionFacts(foodItem string) string {
	if matches := t.catalog.Search(foodItem, 3); len(matches) > 0 {
		var b strings.Builder
		fmt.Fprintf(&b, "**Detailed Nutrition Information for '%s':**\n\n", foodItem)
		for i, m := range matches {
			fmt.Fprintf(&b, "**Option %d:** %s\n\n", i+1, domain.FormatRecord(m))
		}
		return b.String()
	}

	clean := strings.ToLower(strings.TrimSpace(foodItem))
	if strings.Contains(clean, "non veg vs veg") || strings.Contains(clean, "non-veg vs veg") {
		return nonVegVsVegComparison
	}

	return fmt.Sprintf("Specific nutrition data for '%s' not found in our database. For accurate nutrition information, please specify a common Indian food item or dish name.", foodItem)
}

func (t *Toolset) nutritionComparisonTool() *domain.Tool {
	return &domain.Tool{
		Name:        "get_nutrition_comparison",
		Description: "Compares nutrition between multiple food items. Input: {\"food_items\": [string, ...]} with at least 2 items.",
		Run: func(ctx context.Context, call domain.ToolCall) (string, error) {
			input, err := domain.DecodeToolInput[domain.CompareInput]("get_nutrition_comparison", call.RawInput)
			if err != nil {
				return "", err
			}
			t.logger.Info("executing tool", "tool", "get_nutrition_comparison", "items", len(input.FoodItems))
			return t.compareNutrition(input.FoodItems), nil
		},
	}
}

func (t *Toolset) compareNutrition(foodItems []string) string {
	if len(foodItems) < 2 {
		return "Please provide at least 2 food items for comparison."
	}

	if len(foodItems) > 5 {
		foodItems = foodItems[:5]
	}

	divider := strings.Repeat("=", 50)
	var b strings.Builder
	b.WriteString("**Nutrition Comparison:**\n\n")
	for _, item := range foodItems {
		if matches := t.catalog.Search(item, 1); len(matches) > 0 {
			b.WriteString(domain.FormatRecord(matches[0]) + "\n" + divider + "\n")
		} else {
			fmt.Fprintf(&b, "**%s:** Nutrition data not available\n%s\n", item, divider)
		}
	}
	return b.String()
}
