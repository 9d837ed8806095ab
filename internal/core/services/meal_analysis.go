package services

import (
	"context"
	"encoding/json"
	"log/slog"
	"strings"

	"github.com/suprovo-labs/aahar/internal/core/domain"
	"github.com/suprovo-labs/aahar/internal/core/ports"
)

const (
	noDishesFoundAnalysis = "No dishes from your list were found in our database. We are unable to provide an analysis."
	analysisErrorText     = "An error occurred while generating the AI analysis for this meal."
)

// MealAnalysis is the full result of analyzing one meal.
type MealAnalysis struct {
	Analysis       string                   `json:"analysis"`
	Totals         map[string]float64       `json:"totals"`
	FoundDishes    []domain.NutritionRecord `json:"found_dishes"`
	NotFoundDishes []string                 `json:"not_found_dishes"`
}

// MealAnalyzer resolves dish names against the catalog, sums their nutrition
// and asks the model for a short commentary.
type MealAnalyzer struct {
	logger  *slog.Logger
	catalog *Catalog
	llm     ports.CompletionProvider
}

func NewMealAnalyzer(logger *slog.Logger, catalog *Catalog, llm ports.CompletionProvider) *MealAnalyzer {
	return &MealAnalyzer{
		logger:  logger.With("component", "meal_analyzer"),
		catalog: catalog,
		llm:     llm,
	}
}

// Analyze resolves each dish name to its best catalog match and aggregates the
// numeric columns across the matches. Unmatched names are reported, not fatal.
func (a *MealAnalyzer) Analyze(ctx context.Context, dishNames []string) MealAnalysis {
	a.logger.Info("analyzing meal", "dishes", len(dishNames))

	var found []domain.NutritionRecord
	notFound := []string{}
	for _, name := range dishNames {
		if matches := a.catalog.Search(name, 1); len(matches) > 0 {
			found = append(found, matches[0])
		} else {
			notFound = append(notFound, name)
		}
	}

	if len(found) == 0 {
		return MealAnalysis{
			Analysis:       noDishesFoundAnalysis,
			Totals:         map[string]float64{},
			FoundDishes:    []domain.NutritionRecord{},
			NotFoundDishes: notFound,
		}
	}

	totals := domain.MealTotals(found)

	return MealAnalysis{
		Analysis:       a.commentary(ctx, found, totals, notFound),
		Totals:         totals,
		FoundDishes:    found,
		NotFoundDishes: notFound,
	}
}

func (a *MealAnalyzer) commentary(ctx context.Context, found []domain.NutritionRecord,
	totals map[string]float64, notFound []string) string {

	var dishes []string
	for _, d := range found {
		dishes = append(dishes, "- "+d.DishName)
	}

	totalsJSON, err := json.MarshalIndent(totals, "", "  ")
	if err != nil {
		totalsJSON = []byte("{}")
	}

	prompt := MealAnalysisPrompt{
		DishList:      strings.Join(dishes, "\n"),
		TotalsSummary: string(totalsJSON),
		NotFoundList:  strings.Join(notFound, ", "),
	}
	rendered, err := prompt.Render()
	if err != nil {
		a.logger.Error("meal analysis prompt render failed", "error", err)
		return analysisErrorText
	}

	analysis, err := a.llm.GenerateText(ctx, rendered)
	if err != nil {
		a.logger.Error("meal analysis generation failed", "error", err)
		return analysisErrorText
	}
	return strings.TrimSpace(analysis)
}
