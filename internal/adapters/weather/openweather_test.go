package weather

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCurrentWithoutKey(t *testing.T) {
	c := NewOpenWeatherClient("")
	assert.False(t, c.Configured())

	conditions, err := c.Current(context.Background(), "Delhi")
	require.NoError(t, err)
	assert.Nil(t, conditions)
}

func TestCurrent(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/weather", r.URL.Path)
		assert.Equal(t, "New Delhi", r.URL.Query().Get("q"))
		assert.Equal(t, "metric", r.URL.Query().Get("units"))

		fmt.Fprint(w, `{"main": {"temp": 31.4, "humidity": 58}, "weather": [{"description": "haze"}]}`)
	}))
	defer server.Close()

	c := NewOpenWeatherClient("test-key")
	c.SetBaseURL(server.URL)

	conditions, err := c.Current(context.Background(), "New Delhi")
	require.NoError(t, err)
	require.NotNil(t, conditions)
	assert.Equal(t, "New Delhi", conditions.City)
	assert.Equal(t, 31.4, conditions.Temperature)
	assert.Equal(t, "haze", conditions.Condition)
	assert.Equal(t, 58, conditions.Humidity)
}

func TestCurrentUnknownCity(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		fmt.Fprint(w, `{"cod": "404", "message": "city not found"}`)
	}))
	defer server.Close()

	c := NewOpenWeatherClient("test-key")
	c.SetBaseURL(server.URL)

	_, err := c.Current(context.Background(), "Atlantis")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "city not found")
}
