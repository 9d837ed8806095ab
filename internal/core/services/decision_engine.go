package services

import (
	"context"
	"encoding/json"
	"log/slog"
	"strings"

	"github.com/kaptinlin/jsonrepair"

	"github.com/suprovo-labs/aahar/internal/core/domain"
	"github.com/suprovo-labs/aahar/internal/core/ports"
)

const decisionErrorAnswer = "An internal system error occurred while processing the AI's decision. Please try again."

// DecisionEngine asks the completion model what the agent should do next and
// parses its JSON reply into an AgentAction. A reply that cannot be parsed,
// even after repair, becomes a terminal action carrying a user-facing error
// rather than a Go error.
type DecisionEngine struct {
	logger   *slog.Logger
	provider ports.CompletionProvider
}

func NewDecisionEngine(logger *slog.Logger, provider ports.CompletionProvider) *DecisionEngine {
	return &DecisionEngine{
		logger:   logger.With("component", "decision_engine"),
		provider: provider,
	}
}

// Decide builds the orchestration prompt and returns the model's chosen action.
func (e *DecisionEngine) Decide(ctx context.Context, toolList, history, query, scratchpad string) (domain.AgentAction, error) {
	prompt := OrchestratorPrompt{
		ToolList:    toolList,
		ChatHistory: history,
		Query:       query,
		Scratchpad:  scratchpad,
	}
	rendered, err := prompt.Render()
	if err != nil {
		return domain.AgentAction{}, err
	}

	text, err := e.provider.GenerateText(ctx, rendered)
	if err != nil {
		return domain.AgentAction{}, err
	}

	return e.parseAction(text), nil
}

func (e *DecisionEngine) parseAction(text string) domain.AgentAction {
	payload := extractJSONBlock(text)

	var action domain.AgentAction
	if err := json.Unmarshal([]byte(payload), &action); err == nil {
		return action
	}

	repaired, err := jsonrepair.JSONRepair(payload)
	if err == nil {
		if err := json.Unmarshal([]byte(repaired), &action); err == nil {
			e.logger.Debug("decision JSON required repair")
			return action
		}
	}

	e.logger.Error("unparseable decision from model", "raw", truncateForLog(text, 500))
	return domain.AgentAction{
		Thought:     "The model's decision could not be parsed.",
		FinalAnswer: decisionErrorAnswer,
	}
}

// extractJSONBlock returns the contents of the first fenced ```json block, or
// the whole reply when no fence is present.
func extractJSONBlock(text string) string {
	const fence = "```json"
	start := strings.Index(text, fence)
	if start == -1 {
		return strings.TrimSpace(text)
	}
	rest := text[start+len(fence):]
	if end := strings.Index(rest, "```"); end != -1 {
		rest = rest[:end]
	}
	return strings.TrimSpace(rest)
}

func truncateForLog(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max] + "..."
}
