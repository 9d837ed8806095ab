package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Config holds everything the kernel reads from the environment.
type Config struct {
	Port int

	// GeminiAPIKey drives both the answer model and the orchestrator model.
	// Required: the service refuses to start without it.
	GeminiAPIKey string

	// GroqAPIKey enables the secondary-model ensemble. Optional: without it
	// ensemble calls produce "key not available" text.
	GroqAPIKey string

	// OpenWeatherAPIKey enables weather-based suggestions. Optional.
	OpenWeatherAPIKey string

	DBPath            string
	NutritionDataPath string
	VectorDir         string
	KnowledgeBaseURL  string
}

const defaultKnowledgeBaseURL = "https://huggingface.co/datasets/Dyno1307/chromadb-diet/resolve/main/corpus.json"

// Load reads configuration from a .env file (when present) and the process
// environment. Returns an error only for the fatal case: a missing Gemini key.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		Port:              10000,
		GeminiAPIKey:      os.Getenv("GEMINI_API_KEY"),
		GroqAPIKey:        os.Getenv("GROQ_API_KEY"),
		OpenWeatherAPIKey: os.Getenv("OPENWEATHER_API_KEY"),
		DBPath:            envOr("AAHAR_DB_PATH", "aahar.db"),
		NutritionDataPath: envOr("NUTRITION_DATA_PATH", "nutrition_data.json"),
		VectorDir:         envOr("AAHAR_VECTOR_DIR", "/tmp/aahar_vectors"),
		KnowledgeBaseURL:  envOr("AAHAR_KB_URL", defaultKnowledgeBaseURL),
	}

	if raw := os.Getenv("PORT"); raw != "" {
		port, err := strconv.Atoi(raw)
		if err != nil || port <= 0 {
			return nil, fmt.Errorf("invalid PORT %q", raw)
		}
		cfg.Port = port
	}

	if cfg.GeminiAPIKey == "" {
		return nil, fmt.Errorf("GEMINI_API_KEY is not set")
	}

	return cfg, nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
