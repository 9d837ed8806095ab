package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/suprovo-labs/aahar/internal/core/domain"
)

var builtinRecipes = []struct {
	match string
	text  string
}{
	{
		match: "dal makhani",
		text:  "Recipe for Dal Makhani: Ingredients - Black lentils, kidney beans, butter, cream, tomatoes, ginger-garlic paste. Steps - Soak overnight, boil lentils, prepare tempering, simmer with spices and cream. Serve hot with naan or rice.",
	},
	{
		match: "paneer tikka",
		text:  "Recipe for Paneer Tikka: Ingredients - Paneer, yogurt, ginger-garlic paste, red chili powder, garam masala, bell peppers, onions. Steps - Cut paneer and vegetables, marinate with spices, skewer and grill/bake until golden.",
	},
	{
		match: "chicken tikka masala",
		text:  "Recipe for Chicken Tikka Masala: Ingredients - Chicken, yogurt, ginger-garlic paste, spices, tomatoes, cream, onions. Steps - Marinate chicken, grill/bake, prepare rich tomato-cream sauce, combine and simmer.",
	},
}

func (t *Toolset) recipeTool() *domain.Tool {
	return &domain.Tool{
		Name:        "fetch_recipe",
		Description: "Fetches a recipe for a named Indian dish, with its nutrition data when known. Input: {\"recipe_name\": string}.",
		Run: func(ctx context.Context, call domain.ToolCall) (string, error) {
			input, err := domain.DecodeToolInput[domain.RecipeInput]("fetch_recipe", call.RawInput)
			if err != nil {
				return "", err
			}
			name := input.RecipeName
			if name == "" {
				name = "unknown"
			}
			t.logger.Info("executing tool", "tool", "fetch_recipe", "recipe", name)
			return t.fetchRecipe(name), nil
		},
	}
}

func (t *Toolset) fetchRecipe(name string) string {
	lower := strings.ToLower(name)

	recipe := ""
	for _, r := range builtinRecipes {
		if strings.Contains(lower, r.match) {
			recipe = r.text
			break
		}
	}
	if recipe == "" {
		recipe = fmt.Sprintf("Recipe for %s: Detailed recipe unavailable, but typically involves fresh ingredients and traditional Indian cooking methods.", name)
	}

	if matches := t.catalog.Search(name, 1); len(matches) > 0 {
		return fmt.Sprintf("%s\n\n**Nutrition Information:**\n%s", recipe, domain.FormatRecord(matches[0]))
	}
	return recipe
}
