package services

import "fmt"

// Prompt templates are typed records validated before rendering, so a missing
// parameter fails fast instead of producing a partially-substituted prompt.

type missingFieldError struct {
	prompt string
	field  string
}

func (e *missingFieldError) Error() string {
	return fmt.Sprintf("prompt %s: missing required field %s", e.prompt, e.field)
}

func requireFields(prompt string, fields map[string]string) error {
	for name, value := range fields {
		if value == "" {
			return &missingFieldError{prompt: prompt, field: name}
		}
	}
	return nil
}

// OrchestratorPrompt asks the decision model to pick the next action.
type OrchestratorPrompt struct {
	ToolList    string
	ChatHistory string // may be empty on a fresh session
	Query       string
	Scratchpad  string // may be empty on the first iteration
}

const orchestratorTemplate = `You are AAHAR, an intelligent AI agent specialized in Indian diet and nutrition with access to a comprehensive nutrition database.
Your goal is to assist users with diet-related queries by thinking step-by-step and providing accurate, data-driven answers.

You have access to a detailed nutrition database containing information about Indian foods including calories, protein, carbs, fats, fiber, and key vitamins/minerals.

Available Tools:
%s
**Current State:**
Chat History: %s
Current User Query: "%s"
Agent Scratchpad: %s

**Decision Making:**
- If user asks for nutrition facts or comparisons, use lookup_nutrition_facts or get_nutrition_comparison
- If user asks for recipes, use fetch_recipe (will include nutrition data)
- For diet plans, use generate_diet_plan (enhanced with nutrition database)
- For weather-based suggestions, use get_weather_based_suggestion
- If you've executed a tool that answers the user's query, set final_answer and stop
- Always provide nutritionally accurate information using the database

Respond with a single JSON object with optional fields "thought", "tool_name", "tool_input" (object), "final_answer":`

func (p OrchestratorPrompt) Render() (string, error) {
	if err := requireFields("orchestrator", map[string]string{
		"tool_list": p.ToolList,
		"query":     p.Query,
	}); err != nil {
		return "", err
	}
	return fmt.Sprintf(orchestratorTemplate, p.ToolList, p.ChatHistory, p.Query, p.Scratchpad), nil
}

// RAGPrompt produces the retrieval-grounded diet suggestion.
type RAGPrompt struct {
	DietaryType      string
	Goal             string
	Region           string
	ChatHistory      string
	Context          string
	NutritionContext string
	Query            string
}

const ragTemplate = `You are an AI assistant specialized in Indian diet and nutrition created by Suprovo.
Based on the following conversation history and the user's query, provide a simple, practical, and culturally relevant **%[1]s** food suggestion suitable for Indian users aiming for **%[2]s**.
If a specific region like **%[3]s** is mentioned or inferred, prioritize food suggestions from that region.

You have access to detailed nutrition information from a comprehensive Indian food database.
Use this information to provide accurate nutritional details and make informed recommendations.
Focus on readily available ingredients and common Indian dietary patterns for the specified region.

Be helpful, encouraging, and specific where possible.
Use the chat history to understand the context of the user's current query and maintain continuity.
Strictly adhere to the **%[1]s** and **%[2]s** requirements, and the **%[3]s** preference if specified.

Chat History:
%[4]s

Context from Knowledge Base:
%[5]s

Nutrition Data Context:
%[6]s

User Query:
%[7]s

%[1]s %[2]s Food Suggestion (Tailored for %[3]s Indian context):`

func (p RAGPrompt) Render() (string, error) {
	if err := requireFields("rag", map[string]string{
		"dietary_type": p.DietaryType,
		"goal":         p.Goal,
		"region":       p.Region,
		"query":        p.Query,
	}); err != nil {
		return "", err
	}
	return fmt.Sprintf(ragTemplate, p.DietaryType, p.Goal, p.Region,
		p.ChatHistory, p.Context, p.NutritionContext, p.Query), nil
}

// MergePrompt combines the RAG answer, ensemble suggestions and nutrition data
// into one final plan. WantsTable switches to the markdown-table rendition.
type MergePrompt struct {
	RAGSection            string
	AdditionalSuggestions string
	NutritionSection      string
	DietaryType           string
	Goal                  string
	Region                string
	WantsTable            bool
}

const mergeTemplateHeader = `You are an AI assistant specialized in Indian diet and nutrition.
Your task is to provide a single, coherent, and practical %[1]s food suggestion or diet plan for %[2]s, tailored for a %[3]s Indian context.
`

const mergeTableDirective = `**You MUST present the final diet plan as a clear markdown table. Include columns for Meal, Food Items, Serving Size, Calories, and Key Nutrients.**
`

const mergeTemplateBody = `
You have access to detailed nutrition information from a comprehensive database. Use this information to provide accurate nutritional details and calorie counts.

Here's the information available:
%[4]s
%[5]s
%[6]s

Instructions:
1. Prioritize the "Primary RAG Answer" if it is specific, relevant, and not an error message.
2. Use the nutrition data to provide accurate calorie, protein, and nutrient information.
3. If the "Primary RAG Answer" is generic or insufficient, rely on "Additional Suggestions" and nutrition data.
4. Combine information logically and seamlessly, without mentioning the source of each piece.
5. Ensure the final plan is clear, actionable, culturally relevant, and nutritionally accurate.
6. Include specific nutritional values where possible (calories, protein, etc.).

Final %[1]s %[2]s Food Suggestion/Diet Plan (Tailored for %[3]s Indian context):`

func (p MergePrompt) Render() (string, error) {
	if err := requireFields("merge", map[string]string{
		"dietary_type": p.DietaryType,
		"goal":         p.Goal,
		"region":       p.Region,
		"rag_section":  p.RAGSection,
	}); err != nil {
		return "", err
	}
	template := mergeTemplateHeader
	if p.WantsTable {
		template += mergeTableDirective
	}
	template += mergeTemplateBody
	return fmt.Sprintf(template, p.DietaryType, p.Goal, p.Region,
		p.RAGSection, p.AdditionalSuggestions, p.NutritionSection), nil
}

// WeatherPrompt asks for a weather-appropriate suggestion.
type WeatherPrompt struct {
	City        string
	Temperature float64
	Condition   string
	Humidity    int
	DietaryType string
	Goal        string
	Query       string
}

const weatherTemplate = `You are an AI assistant specialized in Indian diet and nutrition with access to detailed nutrition data.
The user wants a diet suggestion for the city of **%s**.
Current weather: Temperature: **%.1f°C**, Condition: **%s**, Humidity: **%d%%**.

Based on this weather, provide a practical **%s** food suggestion for **%s**.
Use your nutrition database knowledge to suggest appropriate foods with calorie and nutrient information.
For hot weather, suggest cooling foods. For cold/rainy weather, suggest warm, comforting foods.

User's query: "%s"

Weather-Appropriate Food Suggestion with Nutrition Details:`

func (p WeatherPrompt) Render() (string, error) {
	if err := requireFields("weather", map[string]string{
		"city":         p.City,
		"dietary_type": p.DietaryType,
		"goal":         p.Goal,
		"query":        p.Query,
	}); err != nil {
		return "", err
	}
	return fmt.Sprintf(weatherTemplate, p.City, p.Temperature, p.Condition, p.Humidity,
		p.DietaryType, p.Goal, p.Query), nil
}

// MealAnalysisPrompt asks for a short meal commentary.
type MealAnalysisPrompt struct {
	DishList      string
	TotalsSummary string
	NotFoundList  string
}

const mealAnalysisTemplate = `You are an expert AI nutritionist. A user has provided a list of Indian dishes they have eaten in a meal.
Based on the nutritional data provided, give a concise and helpful analysis of the meal.

**Meal Composition:**
%s

**Identified Items' Total Nutritional Summary:**
%s

**Items Not Found in Database:**
%s

**Your Task:**
Provide a brief, helpful analysis of this meal in 3-5 clear sentences.
1.  Comment on the overall balance (e.g., "This meal is well-balanced in protein and carbs...", "This meal is high in fat...").
2.  Mention its caloric content (e.g., "It's a high-calorie meal suitable for weight gain...", "This is a light meal...").
3.  Point out any notable health aspects (e.g., "It offers a good amount of fiber...", "Be mindful of the high sodium content...").
4.  Conclude with a summary of its suitability (e.g., "Overall, a great post-workout recovery meal.", "A decent choice for a light lunch, but could use more protein.").
5.  If any dishes were not found, briefly mention that the analysis is based only on the identified items. Do not lecture the user.

**Meal Analysis:**`

func (p MealAnalysisPrompt) Render() (string, error) {
	if err := requireFields("meal_analysis", map[string]string{
		"dish_list":      p.DishList,
		"totals_summary": p.TotalsSummary,
	}); err != nil {
		return "", err
	}
	notFound := p.NotFoundList
	if notFound == "" {
		notFound = "None"
	}
	return fmt.Sprintf(mealAnalysisTemplate, p.DishList, p.TotalsSummary, notFound), nil
}
