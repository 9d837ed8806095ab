package rag

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"
)

// corpusEntry is one document in the downloadable knowledge-base corpus.
type corpusEntry struct {
	ID      string `json:"id"`
	Content string `json:"content"`
	Source  string `json:"source,omitempty"`
}

// Bootstrap fills an empty vector store from the configured corpus URL. An
// already-populated store skips the download entirely.
func Bootstrap(ctx context.Context, logger *slog.Logger, store VectorStore, corpusURL string) error {
	if store.Count() > 0 {
		logger.Info("knowledge base already indexed, skipping download", "documents", store.Count())
		return nil
	}

	logger.Info("downloading knowledge-base corpus", "url", corpusURL)

	dlCtx, cancel := context.WithTimeout(ctx, 120*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(dlCtx, http.MethodGet, corpusURL, nil)
	if err != nil {
		return fmt.Errorf("create corpus request: %w", err)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return fmt.Errorf("download corpus: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("corpus download returned status %d", resp.StatusCode)
	}

	var entries []corpusEntry
	if err := json.NewDecoder(resp.Body).Decode(&entries); err != nil {
		return fmt.Errorf("decode corpus: %w", err)
	}
	if len(entries) == 0 {
		return fmt.Errorf("corpus is empty")
	}

	docs := make([]Document, 0, len(entries))
	for i, e := range entries {
		id := e.ID
		if id == "" {
			id = fmt.Sprintf("doc-%d", i)
		}
		meta := map[string]string{}
		if e.Source != "" {
			meta["source"] = e.Source
		}
		docs = append(docs, Document{ID: id, Content: e.Content, Metadata: meta})
	}

	if err := store.Add(ctx, docs); err != nil {
		return fmt.Errorf("index corpus: %w", err)
	}
	logger.Info("knowledge base indexed", "documents", len(docs))
	return nil
}
