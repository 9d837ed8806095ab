package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/suprovo-labs/aahar/internal/core/domain"
	"github.com/suprovo-labs/aahar/internal/core/ports"
)

func (t *Toolset) dietPlanTool() *domain.Tool {
	return &domain.Tool{
		Name:        "generate_diet_plan",
		Description: "Generates a comprehensive diet plan using the knowledge base, multiple models and the nutrition database. Input: {\"dietary_type\": string, \"goal\": string, \"region\": string, \"wants_table\": bool}.",
		Run: func(ctx context.Context, call domain.ToolCall) (string, error) {
			input, err := domain.DecodeToolInput[domain.DietPlanInput]("generate_diet_plan", call.RawInput)
			if err != nil {
				return "", err
			}
			input.ApplyDefaults()
			t.logger.Info("executing tool", "tool", "generate_diet_plan",
				"dietary_type", input.DietaryType, "goal", input.Goal, "region", input.Region)
			return t.generateDietPlan(ctx, call, input)
		},
	}
}

func (t *Toolset) generateDietPlan(ctx context.Context, call domain.ToolCall, input domain.DietPlanInput) (string, error) {
	ragAnswer := t.ragAnswer(ctx, call, input)

	suggestions := t.ensemble.DietSuggestions(ctx, ports.EnsembleQuery{
		Query:       call.Query,
		DietaryType: input.DietaryType,
		Goal:        input.Goal,
		Region:      input.Region,
	})

	nutritionSection := t.regionalNutritionSection(input.Region, input.DietaryType, input.Goal, 8,
		"Detailed Nutrition Database Information:\n", true)

	merge := MergePrompt{
		RAGSection:            "Primary RAG Answer:\n" + ragAnswer,
		AdditionalSuggestions: formatEnsembleSuggestions(suggestions),
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

	plan, err := t.llm.GenerateText(ctx, rendered)
	if err != nil {
		t.logger.Error("merge generation failed", "error", err)
		return "Error generating comprehensive diet plan.", nil
	}
	return plan, nil
}

// ragAnswer runs retrieval and the grounded suggestion prompt. Failures fold
// into a placeholder answer so the merge step still has something to weigh.
func (t *Toolset) ragAnswer(ctx context.Context, call domain.ToolCall, input domain.DietPlanInput) string {
	kbContext, err := t.retriever.Retrieve(ctx, call.Query)
	if err != nil {
		t.logger.Error("knowledge base retrieval failed", "error", err)
		return "Error retrieving from knowledge base."
	}

	prompt := RAGPrompt{
		DietaryType:      input.DietaryType,
		Goal:             input.Goal,
		Region:           input.Region,
		ChatHistory:      domain.RenderHistory(call.History),
		Context:          kbContext,
		NutritionContext: t.catalog.NutritionContext(call.Query, input.DietaryType, input.Goal, input.Region),
		Query:            call.Query,
	}
	rendered, err := prompt.Render()
	if err != nil {
		t.logger.Error("rag prompt render failed", "error", err)
		return "Error retrieving from knowledge base."
	}

	answer, err := t.llm.GenerateText(ctx, rendered)
	if err != nil {
		t.logger.Error("rag generation failed", "error", err)
		return "Error retrieving from knowledge base."
	}
	return answer
}

func (t *Toolset) regionalNutritionSection(region, dietaryType, goal string, limit int, header string, detailed bool) string {
	records := t.catalog.Regional(region, dietaryType, goal)
	if len(records) == 0 {
		return ""
	}
	if len(records) > limit {
		records = records[:limit]
	}

	var b strings.Builder
	b.WriteString(header)
	for _, r := range records {
		if detailed {
			b.WriteString(domain.FormatRecord(r) + "\n")
		} else {
			fmt.Fprintf(&b, "- %s (%s kcal)\n", r.DishName, trimCalories(r.Calories))
		}
	}
	return b.String()
}

func trimCalories(v float64) string {
	return strings.TrimSuffix(strings.TrimSuffix(fmt.Sprintf("%.1f", v), "0"), ".")
}

func formatEnsembleSuggestions(suggestions map[string]string) string {
	get := func(key string) string {
		if v, ok := suggestions[key]; ok && v != "" {
			return v
		}
		return "N/A"
	}
	return fmt.Sprintf("- LLaMA: %s\n- Gemma: %s\n- Mixtral: %s",
		get("llama"), get("gemma"), get("mixtral"))
}
