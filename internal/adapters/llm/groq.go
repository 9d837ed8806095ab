package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/suprovo-labs/aahar/internal/core/ports"
	"golang.org/x/sync/errgroup"
)

// groqModels maps the ensemble's short names to concrete Groq model IDs.
var groqModels = map[string]string{
	"llama":   "llama3-70b-8192",
	"gemma":   "gemma2-9b-it",
	"mixtral": "mixtral-8x7b-32768",
}

// GroqEnsemble fans a diet query out to the fixed Groq model set. It is the
// one place in the system where a single tool call runs external requests
// concurrently; all results are joined before the tool proceeds.
type GroqEnsemble struct {
	logger  *slog.Logger
	client  *http.Client
	baseURL string
	apiKey  string
}

func NewGroqEnsemble(logger *slog.Logger, apiKey string) *GroqEnsemble {
	return &GroqEnsemble{
		logger:  logger,
		client:  &http.Client{Timeout: 30 * time.Second},
		baseURL: "https://api.groq.com/openai/v1",
		apiKey:  apiKey,
	}
}

// SetBaseURL overrides the API endpoint, used by tests.
func (g *GroqEnsemble) SetBaseURL(url string) { g.baseURL = url }

// DietSuggestions queries every ensemble model concurrently and returns one
// text per short model name. Endpoint failures become per-model error strings;
// the fan-out itself never fails.
func (g *GroqEnsemble) DietSuggestions(ctx context.Context, q ports.EnsembleQuery) map[string]string {
	results := make(map[string]string, len(groqModels))
	if g.apiKey == "" {
		g.logger.Warn("groq key not configured, skipping ensemble")
		for name := range groqModels {
			results[name] = "Groq API key not available."
		}
		return results
	}

	var mu sync.Mutex
	eg, egCtx := errgroup.WithContext(ctx)
	for name, model := range groqModels {
		eg.Go(func() error {
			text, err := g.complete(egCtx, model, ensemblePrompt(q))
			if err != nil {
				g.logger.Error("ensemble model failed", "model", name, "error", err)
				text = fmt.Sprintf("Error from %s: %v", name, err)
			}
			mu.Lock()
			results[name] = text
			mu.Unlock()
			return nil
		})
	}
	_ = eg.Wait() // goroutines never return errors

	return results
}

func ensemblePrompt(q ports.EnsembleQuery) string {
	return fmt.Sprintf(
		"User query: '%s'. Provide a concise, practical %s diet suggestion or food item for %s, "+
			"tailored for a %s Indian context. Focus on readily available ingredients. Be brief and to the point.",
		q.Query, q.DietaryType, q.Goal, q.Region,
	)
}

type groqChatRequest struct {
	Model       string        `json:"model"`
	Messages    []groqMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
	MaxTokens   int           `json:"max_tokens"`
}

type groqMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type groqChatResponse struct {
	Choices []struct {
		Message groqMessage `json:"message"`
	} `json:"choices"`
}

func (g *GroqEnsemble) complete(ctx context.Context, model, prompt string) (string, error) {
	payload := groqChatRequest{
		Model:       model,
		Messages:    []groqMessage{{Role: "user", Content: prompt}},
		Temperature: 0.5,
		MaxTokens:   250,
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("marshal payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.baseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+g.apiKey)

	resp, err := g.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("call groq: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		raw, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("groq returned status %d: %s", resp.StatusCode, string(raw))
	}

	var result groqChatResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", fmt.Errorf("decode response: %w", err)
	}
	if len(result.Choices) == 0 {
		return "", fmt.Errorf("no suggestion from %s", model)
	}
	return result.Choices[0].Message.Content, nil
}
