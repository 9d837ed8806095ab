package rag

import (
	"context"
	"fmt"
	"strings"
)

// RetrieverConfig holds retrieval configuration.
type RetrieverConfig struct {
	TopK          int     // default 5
	MinSimilarity float32 // default 0.3
}

// Retriever searches the knowledge base and formats results for prompts.
type Retriever struct {
	config RetrieverConfig
	store  VectorStore
}

func NewRetriever(config RetrieverConfig, store VectorStore) *Retriever {
	if config.TopK == 0 {
		config.TopK = 5
	}
	if config.MinSimilarity == 0 {
		config.MinSimilarity = 0.3
	}
	return &Retriever{config: config, store: store}
}

// Retrieve returns the top-K matching documents joined by blank lines, ready
// to embed as prompt context. An empty store yields an empty context.
func (r *Retriever) Retrieve(ctx context.Context, query string) (string, error) {
	if query == "" {
		return "", fmt.Errorf("empty query")
	}

	results, err := r.store.SearchByText(ctx, query, r.config.TopK, r.config.MinSimilarity)
	if err != nil {
		return "", fmt.Errorf("search store: %w", err)
	}

	parts := make([]string, 0, len(results))
	for _, res := range results {
		parts = append(parts, res.Document.Content)
	}
	return strings.Join(parts, "\n\n"), nil
}
