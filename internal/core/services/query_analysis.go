package services

import "strings"

// Keyword extraction over user queries. These lists mirror the dataset's
// regional vocabulary; extraction is intentionally dumb keyword matching so
// behavior is predictable and testable.

// CleanQuery strips punctuation and lowercases for keyword matching.
func CleanQuery(query string) string {
	var sb strings.Builder
	sb.Grow(len(query))
	for _, r := range query {
		if strings.ContainsRune(`!"#$%&'()*+,-./:;<=>?@[\]^_`+"`"+`{|}~`, r) {
			continue
		}
		sb.WriteRune(r)
	}
	return strings.ToLower(strings.TrimSpace(sb.String()))
}

// ExtractDietPreference returns non-vegetarian, vegan, vegetarian or any.
func ExtractDietPreference(query string) string {
	q := strings.ToLower(query)
	for _, kw := range []string{"non-veg", "non veg", "nonvegetarian"} {
		if strings.Contains(q, kw) {
			return "non-vegetarian"
		}
	}
	if strings.Contains(q, "vegan") {
		return "vegan"
	}
	if strings.Contains(q, "veg") || strings.Contains(q, "vegetarian") {
		return "vegetarian"
	}
	return "any"
}

// ExtractDietGoal returns weight loss, weight gain or diet.
func ExtractDietGoal(query string) string {
	q := strings.ToLower(query)
	for _, kw := range []string{"lose weight", "loss weight", "cut weight", "reduce weight", "lose fat", "cut fat"} {
		if strings.Contains(q, kw) {
			return "weight loss"
		}
	}
	for _, kw := range []string{"gain weight", "weight gain", "muscle gain"} {
		if strings.Contains(q, kw) {
			return "weight gain"
		}
	}
	if strings.Contains(q, "loss") {
		return "weight loss"
	}
	if strings.Contains(q, "gain") {
		return "weight gain"
	}
	return "diet"
}

var regionKeywords = []struct {
	region   string
	keywords []string
}{
	{"Bengali", []string{"kolkata", "bengali"}},
	{"South Indian", []string{"south indian", "tamil", "kannada", "telugu", "malayalam", "kanyakumari"}},
	{"North Indian", []string{"north indian", "punjabi"}},
	{"West Indian", []string{"west indian", "maharashtrian", "gujarati"}},
	{"East Indian", []string{"east indian", "odisha", "oriya", "bhubaneswar", "cuttack", "angul"}},
}

// ExtractRegionalPreference maps location/cuisine mentions to a dataset
// region, defaulting to Indian.
func ExtractRegionalPreference(query string) string {
	q := strings.ToLower(query)
	for _, entry := range regionKeywords {
		for _, kw := range entry.keywords {
			if strings.Contains(q, kw) {
				return entry.region
			}
		}
	}
	return "Indian"
}

// ContainsTableRequest reports whether the query explicitly asks for tabular
// output.
func ContainsTableRequest(query string) bool {
	q := strings.ToLower(query)
	for _, kw := range []string{"table", "tabular", "chart", "in a table", "in table format", "as a table"} {
		if strings.Contains(q, kw) {
			return true
		}
	}
	return false
}
