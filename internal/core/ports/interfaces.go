// Package ports defines the boundary interfaces between the core services and
// the adapters that talk to external systems.
package ports

import (
	"context"

	"github.com/suprovo-labs/aahar/internal/core/domain"
)

// CompletionProvider is an opaque prompt-in/text-out LLM endpoint.
type CompletionProvider interface {
	GenerateText(ctx context.Context, prompt string) (string, error)
}

// EnsembleQuery parameterizes one ensemble fan-out round.
type EnsembleQuery struct {
	Query       string
	DietaryType string
	Goal        string
	Region      string
}

// EnsembleProvider fans a diet query out to a fixed set of named secondary
// models and joins all results. Individual endpoint failures are folded into
// per-model error strings, never into an error return.
type EnsembleProvider interface {
	DietSuggestions(ctx context.Context, q EnsembleQuery) map[string]string
}

// Weather is a current-conditions snapshot for one city.
type Weather struct {
	City        string  `json:"city"`
	Temperature float64 `json:"temperature"`
	Condition   string  `json:"condition"`
	Humidity    int     `json:"humidity"`
}

// WeatherProvider fetches current conditions. A nil result with nil error
// means the provider is unconfigured (no API key).
type WeatherProvider interface {
	Current(ctx context.Context, city string) (*Weather, error)
}

// Retriever performs nearest-neighbor retrieval over the knowledge base and
// returns the joined document text to embed in a prompt.
type Retriever interface {
	Retrieve(ctx context.Context, query string) (string, error)
}

// QueryStat is one aggregated analytics counter.
type QueryStat struct {
	Category string `json:"category"`
	Count    int64  `json:"count"`
}

// Repository persists sessions, turns and analytics counters.
type Repository interface {
	CreateSession(ctx context.Context, s domain.Session) error
	GetSession(ctx context.Context, id domain.SessionID) (domain.Session, error)
	AppendTurn(ctx context.Context, id domain.SessionID, t domain.ConversationTurn) error
	ListTurns(ctx context.Context, id domain.SessionID, limit int) ([]domain.ConversationTurn, error)
	CountSessions(ctx context.Context) (int64, error)
	BumpQueryStat(ctx context.Context, category string, delta int64) error
	TopQueryStats(ctx context.Context, limit int) ([]QueryStat, error)
	Close() error
}
