package services

import (
	"context"
	"log/slog"

	"github.com/suprovo-labs/aahar/internal/core/domain"
	"github.com/suprovo-labs/aahar/internal/core/ports"
)

const (
	greetingAnswer = "Namaste! I'm AAHAR, your AI nutrition assistant with access to a comprehensive Indian food database. How can I help you with healthy diet suggestions today?"
	identityAnswer = "I am AAHAR, an AI assistant specialized in Indian diet and nutrition, created by Suprovo. I have access to a detailed nutrition database with information about Indian foods and their nutritional values."
)

// Toolset owns the dependencies the agent tools need and assembles them into
// a registry for the loop.
type Toolset struct {
	logger    *slog.Logger
	catalog   *Catalog
	retriever ports.Retriever
	llm       ports.CompletionProvider
	ensemble  ports.EnsembleProvider
	weather   ports.WeatherProvider
}

func NewToolset(logger *slog.Logger, catalog *Catalog, retriever ports.Retriever,
	llm ports.CompletionProvider, ensemble ports.EnsembleProvider, weather ports.WeatherProvider) *Toolset {
	return &Toolset{
		logger:    logger.With("component", "toolset"),
		catalog:   catalog,
		retriever: retriever,
		llm:       llm,
		ensemble:  ensemble,
		weather:   weather,
	}
}

// Registry builds the tool registry the decision engine advertises.
func (t *Toolset) Registry() *domain.ToolRegistry {
	reg := domain.NewToolRegistry()
	for _, tool := range []*domain.Tool{
		t.greetingTool(),
		t.identityTool(),
		t.recipeTool(),
		t.nutritionLookupTool(),
		t.nutritionComparisonTool(),
		t.dietPlanTool(),
		t.reformatTool(),
		t.weatherTool(),
	} {
		if err := reg.Register(tool); err != nil {
			t.logger.Error("failed to register tool", "tool", tool.Name, "error", err)
		}
	}
	return reg
}

func (t *Toolset) greetingTool() *domain.Tool {
	return &domain.Tool{
		Name:        "handle_greeting",
		Description: "Responds to simple greetings like 'hi', 'hello', 'namaste'.",
		Run: func(ctx context.Context, call domain.ToolCall) (string, error) {
			if _, err := domain.DecodeToolInput[domain.GreetingInput]("handle_greeting", call.RawInput); err != nil {
				return "", err
			}
			return greetingAnswer, nil
		},
	}
}

func (t *Toolset) identityTool() *domain.Tool {
	return &domain.Tool{
		Name:        "handle_identity",
		Description: "Answers questions about who the assistant is and who created it.",
		Run: func(ctx context.Context, call domain.ToolCall) (string, error) {
			if _, err := domain.DecodeToolInput[domain.IdentityInput]("handle_identity", call.RawInput); err != nil {
				return "", err
			}
			return identityAnswer, nil
		},
	}
}
