package services

import (
	"context"
	"fmt"

	"github.com/suprovo-labs/aahar/internal/core/domain"
)

func (t *Toolset) weatherTool() *domain.Tool {
	return &domain.Tool{
		Name:        "get_weather_based_suggestion",
		Description: "Suggests food appropriate for the current weather in a city. Input: {\"city\": string}.",
		Run: func(ctx context.Context, call domain.ToolCall) (string, error) {
			input, err := domain.DecodeToolInput[domain.WeatherInput]("get_weather_based_suggestion", call.RawInput)
			if err != nil {
				return "", err
			}
			t.logger.Info("executing tool", "tool", "get_weather_based_suggestion", "city", input.City)
			return t.weatherSuggestion(ctx, call, input.City)
		},
	}
}

func (t *Toolset) weatherSuggestion(ctx context.Context, call domain.ToolCall, city string) (string, error) {
	if city == "" {
		return "City not provided for weather suggestion.", nil
	}

	conditions, err := t.weather.Current(ctx, city)
	if err != nil || conditions == nil {
		if err != nil {
			t.logger.Warn("weather fetch failed", "city", city, "error", err)
		}
		return fmt.Sprintf("Couldn't retrieve weather for %s. Please check the city name.", city), nil
	}

	prompt := WeatherPrompt{
		City:        conditions.City,
		Temperature: conditions.Temperature,
		Condition:   conditions.Condition,
		Humidity:    conditions.Humidity,
		DietaryType: ExtractDietPreference(call.Query),
		Goal:        ExtractDietGoal(call.Query),
		Query:       call.Query,
	}
	rendered, err := prompt.Render()
	if err != nil {
		return "", err
	}
	return t.llm.GenerateText(ctx, rendered)
}
