package services

import (
	"fmt"
	"log/slog"
	"os"
	"sort"
	"strings"
	"sync"

	"github.com/lithammer/fuzzysearch/fuzzy"

	"github.com/suprovo-labs/aahar/internal/core/domain"
)

// fuzzyScoreThreshold gates the last stage of the search cascade: only
// candidates scoring above 85/100 are returned, to avoid wildly wrong dishes.
const fuzzyScoreThreshold = 85

// Catalog is the process-wide, read-mostly nutrition table. The whole table
// can be replaced atomically by the upload endpoint; readers never observe a
// partial replace.
type Catalog struct {
	logger *slog.Logger

	mu      sync.RWMutex
	records []domain.NutritionRecord
}

func NewCatalog(logger *slog.Logger) *Catalog {
	return &Catalog{logger: logger}
}

// LoadFile reads the dataset from disk. A missing or corrupt file degrades to
// the builtin fallback dataset instead of failing startup.
func (c *Catalog) LoadFile(path string) {
	raw, err := os.ReadFile(path)
	if err != nil {
		c.logger.Warn("nutrition dataset not found, using fallback data", "path", path, "error", err)
		c.Replace(domain.FallbackNutritionData())
		return
	}
	records, err := domain.ParseNutritionData(raw)
	if err != nil {
		c.logger.Error("nutrition dataset unreadable, using fallback data", "path", path, "error", err)
		c.Replace(domain.FallbackNutritionData())
		return
	}
	c.Replace(records)
	c.logger.Info("nutrition dataset loaded", "path", path, "records", len(records))
}

// Replace atomically swaps in a new table.
func (c *Catalog) Replace(records []domain.NutritionRecord) {
	c.mu.Lock()
	c.records = records
	c.mu.Unlock()
}

// Len returns the current record count.
func (c *Catalog) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.records)
}

// Search runs the match cascade: exact dish-name match, then substring match
// (shortest dish names first), then fuzzy matching above the threshold.
// Returns at most limit records; an exhausted cascade returns nil rather than
// an overly broad category guess.
func (c *Catalog) Search(query string, limit int) []domain.NutritionRecord {
	if limit <= 0 {
		limit = 5
	}
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return nil
	}

	c.mu.RLock()
	records := c.records
	c.mu.RUnlock()

	// 1. Exact dish-name match.
	var exact []domain.NutritionRecord
	for _, r := range records {
		if strings.ToLower(r.DishName) == q {
			exact = append(exact, r)
			if len(exact) == limit {
				break
			}
		}
	}
	if len(exact) > 0 {
		return exact
	}

	// 2. Substring match, shorter names first so the closest dish wins.
	var contains []domain.NutritionRecord
	for _, r := range records {
		if strings.Contains(strings.ToLower(r.DishName), q) {
			contains = append(contains, r)
		}
	}
	if len(contains) > 0 {
		sort.SliceStable(contains, func(i, j int) bool {
			return len(contains[i].DishName) < len(contains[j].DishName)
		})
		if len(contains) > limit {
			contains = contains[:limit]
		}
		return contains
	}

	// 3. Fuzzy match over "dish name + category" text.
	type scored struct {
		record domain.NutritionRecord
		score  int
	}
	var candidates []scored
	for _, r := range records {
		s := fuzzyScore(q, r.SearchableText())
		if s > fuzzyScoreThreshold {
			candidates = append(candidates, scored{record: r, score: s})
		}
	}
	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].score > candidates[j].score
	})
	if len(candidates) > limit {
		candidates = candidates[:limit]
	}
	out := make([]domain.NutritionRecord, 0, len(candidates))
	for _, cand := range candidates {
		out = append(out, cand.record)
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

// fuzzyScore approximates a token-set ratio on a 0-100 scale: full credit when
// every query token appears in the candidate's token set, otherwise the best
// of token overlap and normalized edit distance.
func fuzzyScore(query, candidate string) int {
	qTokens := strings.Fields(query)
	cTokens := strings.Fields(candidate)
	if len(qTokens) == 0 || len(cTokens) == 0 {
		return 0
	}

	cSet := make(map[string]struct{}, len(cTokens))
	for _, t := range cTokens {
		cSet[t] = struct{}{}
	}
	matched := 0
	for _, t := range qTokens {
		if _, ok := cSet[t]; ok {
			matched++
		}
	}
	overlap := matched * 100 / len(qTokens)
	if overlap == 100 {
		return 100
	}

	dist := fuzzy.LevenshteinDistance(query, candidate)
	longest := len(query)
	if len(candidate) > longest {
		longest = len(candidate)
	}
	editScore := 0
	if longest > 0 {
		editScore = (longest - dist) * 100 / longest
	}
	if editScore > overlap {
		return editScore
	}
	return overlap
}

// veganCategories whitelists plant-based dataset categories.
var veganCategories = []string{
	"Breads & Roti", "Rice & Grains", "Legumes & Dal",
	"Vegetables", "Fruits", "Nuts & Seeds",
}

// nonVegKeywords blacklists dishes for the vegetarian filter.
var nonVegKeywords = []string{"chicken", "fish", "mutton", "beef", "pork", "egg"}

// Regional returns up to 10 suggestions filtered by region and dietary type,
// ordered by the stated goal.
func (c *Catalog) Regional(region, dietaryType, goal string) []domain.NutritionRecord {
	c.mu.RLock()
	records := c.records
	c.mu.RUnlock()

	filtered := make([]domain.NutritionRecord, len(records))
	copy(filtered, records)

	if region != "" && region != "Indian" {
		var regional []domain.NutritionRecord
		for _, r := range filtered {
			if strings.Contains(strings.ToLower(r.Region), strings.ToLower(region)) {
				regional = append(regional, r)
			}
		}
		// An unknown region falls back to the full table rather than nothing.
		if len(regional) > 0 {
			filtered = regional
		}
	}

	switch dietaryType {
	case "vegan":
		var vegan []domain.NutritionRecord
		for _, r := range filtered {
			for _, cat := range veganCategories {
				if strings.Contains(strings.ToLower(r.Category), strings.ToLower(cat)) {
					vegan = append(vegan, r)
					break
				}
			}
		}
		filtered = vegan
	case "vegetarian":
		var veg []domain.NutritionRecord
	recordLoop:
		for _, r := range filtered {
			name := strings.ToLower(r.DishName)
			for _, kw := range nonVegKeywords {
				if strings.Contains(name, kw) {
					continue recordLoop
				}
			}
			veg = append(veg, r)
		}
		filtered = veg
	}

	switch goal {
	case "weight loss":
		sort.SliceStable(filtered, func(i, j int) bool {
			if filtered[i].Calories != filtered[j].Calories {
				return filtered[i].Calories < filtered[j].Calories
			}
			return filtered[i].Fiber > filtered[j].Fiber
		})
	case "weight gain":
		sort.SliceStable(filtered, func(i, j int) bool {
			if filtered[i].Calories != filtered[j].Calories {
				return filtered[i].Calories > filtered[j].Calories
			}
			return filtered[i].Protein > filtered[j].Protein
		})
	default:
		sort.SliceStable(filtered, func(i, j int) bool {
			return filtered[i].Fiber > filtered[j].Fiber
		})
	}

	if len(filtered) > 10 {
		filtered = filtered[:10]
	}
	return filtered
}

// Categories returns all categories sorted, plus per-category item counts.
func (c *Catalog) Categories() ([]string, map[string]int) {
	c.mu.RLock()
	records := c.records
	c.mu.RUnlock()

	counts := make(map[string]int)
	for _, r := range records {
		counts[r.Category]++
	}
	names := make([]string, 0, len(counts))
	for name := range counts {
		names = append(names, name)
	}
	sort.Strings(names)
	return names, counts
}

// ByCategory returns up to limit dishes in a category (case-insensitive).
// ok is false when the category does not exist.
func (c *Catalog) ByCategory(category string, limit int) (records []domain.NutritionRecord, ok bool) {
	if limit <= 0 {
		limit = 50
	}
	c.mu.RLock()
	all := c.records
	c.mu.RUnlock()

	for _, r := range all {
		if strings.EqualFold(r.Category, category) {
			ok = true
			if len(records) < limit {
				records = append(records, r)
			}
		}
	}
	return records, ok
}

// NutritionContext formats specific matches plus regional suggestions for a
// prompt's nutrition section.
func (c *Catalog) NutritionContext(query, dietaryType, goal, region string) string {
	var sb strings.Builder

	if matches := c.Search(query, 3); len(matches) > 0 {
		sb.WriteString("Specific Nutrition Information:\n")
		for _, m := range matches {
			sb.WriteString(domain.FormatRecord(m))
			sb.WriteString("\n\n")
		}
	}

	if suggestions := c.Regional(region, dietaryType, goal); len(suggestions) > 0 {
		fmt.Fprintf(&sb, "Recommended %s foods for %s in %s context:\n", dietaryType, goal, region)
		for i, s := range suggestions {
			if i == 5 {
				break
			}
			fmt.Fprintf(&sb, "- %s (%.0f kcal, %.1fg protein)\n", s.DishName, s.Calories, s.Protein)
		}
	}

	return strings.TrimSpace(sb.String())
}
