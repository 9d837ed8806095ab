package rag

import (
	"context"
	"fmt"
	"path/filepath"

	chromem "github.com/philippgille/chromem-go"
)

// StoreConfig holds vector store configuration.
type StoreConfig struct {
	PersistPath string // directory for the persisted store; empty = in-memory
	Collection  string
}

// Document is a stored knowledge-base entry.
type Document struct {
	ID       string
	Content  string
	Metadata map[string]string
}

// SearchResult pairs a document with its similarity to the query.
type SearchResult struct {
	Document   Document
	Similarity float32
}

// VectorStore manages embeddings and similarity search over the knowledge base.
type VectorStore interface {
	Add(ctx context.Context, docs []Document) error
	SearchByText(ctx context.Context, query string, topK int, minSimilarity float32) ([]SearchResult, error)
	Count() int
}

// chromemStore implements VectorStore using chromem-go.
type chromemStore struct {
	db         *chromem.DB
	collection *chromem.Collection
}

// NewVectorStore creates a vector store, persisted under config.PersistPath
// when set.
func NewVectorStore(config StoreConfig, embedder Embedder) (VectorStore, error) {
	if config.Collection == "" {
		config.Collection = "diet-knowledge"
	}

	var db *chromem.DB
	var err error
	if config.PersistPath != "" {
		db, err = chromem.NewPersistentDB(filepath.Join(config.PersistPath, "chromem.gob"), false)
		if err != nil {
			return nil, fmt.Errorf("create persistent DB: %w", err)
		}
	} else {
		db = chromem.NewDB()
	}

	embeddingFunc := func(ctx context.Context, text string) ([]float32, error) {
		return embedder.Embed(ctx, text)
	}
	collection, err := db.GetOrCreateCollection(config.Collection, nil, embeddingFunc)
	if err != nil {
		return nil, fmt.Errorf("create collection: %w", err)
	}

	return &chromemStore{db: db, collection: collection}, nil
}

func (s *chromemStore) Add(ctx context.Context, docs []Document) error {
	for _, doc := range docs {
		err := s.collection.AddDocument(ctx, chromem.Document{
			ID:       doc.ID,
			Content:  doc.Content,
			Metadata: doc.Metadata,
		})
		if err != nil {
			return fmt.Errorf("add document %s: %w", doc.ID, err)
		}
	}
	return nil
}

func (s *chromemStore) SearchByText(ctx context.Context, query string, topK int, minSimilarity float32) ([]SearchResult, error) {
	count := s.collection.Count()
	if count == 0 {
		return nil, nil
	}
	if topK > count {
		topK = count
	}

	results, err := s.collection.Query(ctx, query, topK, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("query collection: %w", err)
	}

	out := make([]SearchResult, 0, len(results))
	for _, res := range results {
		if res.Similarity < minSimilarity {
			continue
		}
		out = append(out, SearchResult{
			Document: Document{
				ID:       res.ID,
				Content:  res.Content,
				Metadata: res.Metadata,
			},
			Similarity: res.Similarity,
		})
	}
	return out, nil
}

func (s *chromemStore) Count() int {
	return s.collection.Count()
}
