package services

import (
	"context"

	"github.com/suprovo-labs/aahar/internal/core/domain"
)

const minReformatLength = 50

func (t *Toolset) reformatTool() *domain.Tool {
	return &domain.Tool{
		Name:        "reformat_diet_plan",
		Description: "Reformats the previous diet plan, e.g. into a markdown table. Input: {\"dietary_type\": string, \"goal\": string, \"region\": string, \"wants_table\": bool}.",
		Run: func(ctx context.Context, call domain.ToolCall) (string, error) {
			input, err := domain.DecodeToolInput[domain.DietPlanInput]("reformat_diet_plan", call.RawInput)
			if err != nil {
				return "", err
			}
			input.ApplyDefaults()
			t.logger.Info("executing tool", "tool", "reformat_diet_plan", "wants_table", input.WantsTable)
			return t.reformatDietPlan(ctx, call, input)
		},
	}
}

func (t *Toolset) reformatDietPlan(ctx context.Context, call domain.ToolCall, input domain.DietPlanInput) (string, error) {
	previous := domain.LastSubstantialAssistantTurn(call.History, minReformatLength)
	if previous == "" {
		return "No substantial previous diet plan found to reformat.", nil
	}

	nutritionSection := t.regionalNutritionSection(input.Region, input.DietaryType, input.Goal, 5,
		"Available Nutrition Data:\n", false)

	merge := MergePrompt{
		RAGSection:            "Previous Answer to Reformat:\n" + previous,
		AdditionalSuggestions: "",
		NutritionSection:      nutritionSection,
		DietaryType:           input.DietaryType,
		Goal:                  input.Goal,
		Region:                input.Region,
		WantsTable:            input.WantsTable,
	}
	rendered, err := merge.Render()
	if err != nil {
		return "", err
	}
	return t.llm.GenerateText(ctx, rendered)
}
