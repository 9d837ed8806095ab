// Package rag provides retrieval over the diet knowledge base: a chromem-go
// vector store fed by Gemini embeddings.
package rag

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
)

// EmbedderConfig holds embedding configuration.
type EmbedderConfig struct {
	APIKey    string
	Model     string // default "embedding-001"
	BaseURL   string
	CacheSize int // LRU cache size, default 4096
}

// Embedder generates text embeddings.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// geminiEmbedder implements Embedder against the Generative Language
// embedContent endpoint, with an LRU cache in front of the API.
type geminiEmbedder struct {
	config EmbedderConfig
	client *http.Client
	cache  *lru.Cache[string, []float32]
}

// NewEmbedder creates a Gemini-backed embedder.
func NewEmbedder(config EmbedderConfig) (Embedder, error) {
	if config.Model == "" {
		config.Model = "embedding-001"
	}
	if config.BaseURL == "" {
		config.BaseURL = "https://generativelanguage.googleapis.com/v1beta"
	}
	if config.CacheSize == 0 {
		config.CacheSize = 4096
	}

	cache, err := lru.New[string, []float32](config.CacheSize)
	if err != nil {
		return nil, fmt.Errorf("create cache: %w", err)
	}

	return &geminiEmbedder{
		config: config,
		client: &http.Client{Timeout: 60 * time.Second},
		cache:  cache,
	}, nil
}

type embedRequest struct {
	Content struct {
		Parts []struct {
			Text string `json:"text"`
		} `json:"parts"`
	} `json:"content"`
}

type embedResponse struct {
	Embedding struct {
		Values []float32 `json:"values"`
	} `json:"embedding"`
}

func (e *geminiEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	if cached, ok := e.cache.Get(text); ok {
		return cached, nil
	}

	var payload embedRequest
	payload.Content.Parts = []struct {
		Text string `json:"text"`
	}{{Text: text}}
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal payload: %w", err)
	}

	url := fmt.Sprintf("%s/models/%s:embedContent?key=%s", e.config.BaseURL, e.config.Model, e.config.APIKey)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := e.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("call embedding API: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		raw, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("embedding API returned status %d: %s", resp.StatusCode, string(raw))
	}

	var result embedResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	if len(result.Embedding.Values) == 0 {
		return nil, fmt.Errorf("empty embedding")
	}

	e.cache.Add(text, result.Embedding.Values)
	return result.Embedding.Values, nil
}
