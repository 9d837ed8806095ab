// Package weather adapts the OpenWeatherMap current-conditions API.
package weather

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/suprovo-labs/aahar/internal/core/ports"
)

// OpenWeatherClient fetches current conditions for a city. Without an API key
// the client is degraded: Current returns nil data and nil error.
type OpenWeatherClient struct {
	client  *http.Client
	baseURL string
	apiKey  string
}

func NewOpenWeatherClient(apiKey string) *OpenWeatherClient {
	return &OpenWeatherClient{
		client:  &http.Client{Timeout: 10 * time.Second},
		baseURL: "https://api.openweathermap.org/data/2.5",
		apiKey:  apiKey,
	}
}

// SetBaseURL overrides the API endpoint, used by tests.
func (c *OpenWeatherClient) SetBaseURL(url string) { c.baseURL = url }

// Configured reports whether an API key is present.
func (c *OpenWeatherClient) Configured() bool { return c.apiKey != "" }

type openWeatherResponse struct {
	Main struct {
		Temp     float64 `json:"temp"`
		Humidity int     `json:"humidity"`
	} `json:"main"`
	Weather []struct {
		Description string `json:"description"`
	} `json:"weather"`
	Message string `json:"message"`
}

// Current returns the city's weather in metric units.
func (c *OpenWeatherClient) Current(ctx context.Context, city string) (*ports.Weather, error) {
	if c.apiKey == "" {
		return nil, nil
	}

	endpoint := fmt.Sprintf("%s/weather?q=%s&appid=%s&units=metric", c.baseURL, url.QueryEscape(city), c.apiKey)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("call openweathermap: %w", err)
	}
	defer resp.Body.Close()

	var data openWeatherResponse
	if err := json.NewDecoder(resp.Body).Decode(&data); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		msg := data.Message
		if msg == "" {
			msg = "unable to fetch weather"
		}
		return nil, fmt.Errorf("weather for %s: %s", city, msg)
	}

	condition := ""
	if len(data.Weather) > 0 {
		condition = data.Weather[0].Description
	}
	return &ports.Weather{
		City:        city,
		Temperature: data.Main.Temp,
		Condition:   condition,
		Humidity:    data.Main.Humidity,
	}, nil
}
