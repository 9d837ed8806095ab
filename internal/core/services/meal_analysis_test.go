package services

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAnalyzeMeal(t *testing.T) {
	analyzer := NewMealAnalyzer(testLogger(), testCatalog(t),
		&scriptedProvider{responses: []string{"A balanced light meal."}})

	result := analyzer.Analyze(context.Background(), []string{"Cooked Rice (White)", "NotARealDish123"})

	assert.Equal(t, "A balanced light meal.", result.Analysis)
	assert.Equal(t, 205.0, result.Totals["Calories (kcal)"])
	require.Len(t, result.FoundDishes, 1)
	assert.Equal(t, "Cooked Rice (White)", result.FoundDishes[0].DishName)
	assert.Equal(t, []string{"NotARealDish123"}, result.NotFoundDishes)
}

func TestAnalyzeMealNothingFound(t *testing.T) {
	provider := &scriptedProvider{responses: []string{"should not be called"}}
	analyzer := NewMealAnalyzer(testLogger(), testCatalog(t), provider)

	result := analyzer.Analyze(context.Background(), []string{"zzz1", "zzz2"})

	assert.Equal(t, noDishesFoundAnalysis, result.Analysis)
	assert.Empty(t, result.Totals)
	assert.Empty(t, result.FoundDishes)
	assert.Equal(t, []string{"zzz1", "zzz2"}, result.NotFoundDishes)
	assert.Equal(t, 0, provider.callCount())
}

func TestAnalyzeMealSumsAcrossDishes(t *testing.T) {
	analyzer := NewMealAnalyzer(testLogger(), testCatalog(t),
		&scriptedProvider{responses: []string{"High protein."}})

	result := analyzer.Analyze(context.Background(),
		[]string{"Cooked Rice (White)", "Lentils (Dal, cooked)"})
	assert.Equal(t, 435.0, result.Totals["Calories (kcal)"])
	assert.Len(t, result.FoundDishes, 2)
	assert.Empty(t, result.NotFoundDishes)

	// A fully matched meal serializes with an empty list, not null.
	raw, err := json.Marshal(result)
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"not_found_dishes":[]`)
}

func TestAnalyzeMealModelFailureDegrades(t *testing.T) {
	analyzer := NewMealAnalyzer(testLogger(), testCatalog(t),
		&scriptedProvider{err: assert.AnError})

	result := analyzer.Analyze(context.Background(), []string{"Cooked Rice (White)"})
	assert.Equal(t, analysisErrorText, result.Analysis)
	// Totals remain usable even when the commentary fails.
	assert.Equal(t, 205.0, result.Totals["Calories (kcal)"])
}
