package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/suprovo-labs/aahar/internal/core/domain"
)

const (
	maxAgentIterations = 6

	exhaustedAnswer = "I couldn't finalize my response after several attempts. Please try rephrasing your request."
	recoveryAnswer  = "I'm experiencing a technical issue. Please try again later."
	malformedAnswer = "Unknown tool 'None' requested."

	historyWindow = 20
)

// AgentLoop runs the decide-act cycle for a chat turn. Every decision outcome
// is one-shot: a final answer, a tool's output, a tool error, an unknown tool
// name and a decision naming neither all end the turn with that text as the
// reply. The iteration bound is a safety net, not a planning budget.
type AgentLoop struct {
	logger    *slog.Logger
	engine    *DecisionEngine
	tools     *domain.ToolRegistry
	sessions  *SessionStore
	analytics *Analytics
}

func NewAgentLoop(logger *slog.Logger, engine *DecisionEngine, tools *domain.ToolRegistry,
	sessions *SessionStore, analytics *Analytics) *AgentLoop {
	return &AgentLoop{
		logger:    logger.With("component", "agent_loop"),
		engine:    engine,
		tools:     tools,
		sessions:  sessions,
		analytics: analytics,
	}
}

// Run answers a user query within a session. It always returns a user-facing
// reply and always records both turns, whatever happened inside the loop.
func (l *AgentLoop) Run(ctx context.Context, sessionID domain.SessionID, query string) string {
	response := l.run(ctx, sessionID, query)

	if err := l.sessions.AppendTurn(ctx, sessionID, domain.RoleUser, query); err != nil {
		l.logger.Error("failed to record user turn", "session_id", sessionID, "error", err)
	}
	if err := l.sessions.AppendTurn(ctx, sessionID, domain.RoleAssistant, response); err != nil {
		l.logger.Error("failed to record assistant turn", "session_id", sessionID, "error", err)
	}

	if l.analytics != nil {
		l.analytics.RecordQuery(query)
	}
	return response
}

func (l *AgentLoop) run(ctx context.Context, sessionID domain.SessionID, query string) (response string) {
	defer func() {
		if r := recover(); r != nil {
			l.logger.Error("panic in agent loop", "session_id", sessionID, "panic", r)
			response = recoveryAnswer
		}
	}()

	history := l.sessions.History(ctx, sessionID, historyWindow)
	toolList := l.tools.FormatForPrompt()

	var scratchpad domain.Scratchpad
	for i := 0; i < maxAgentIterations; i++ {
		l.logger.Info("agent iteration", "session_id", sessionID, "iteration", i+1, "max", maxAgentIterations)

		action, err := l.engine.Decide(ctx, toolList, history, query, scratchpad.Render())
		if err != nil {
			l.logger.Error("decision call failed", "session_id", sessionID, "error", err)
			return recoveryAnswer
		}

		if action.FinalAnswer != "" {
			l.logger.Info("final answer", "session_id", sessionID, "iteration", i+1)
			return action.FinalAnswer
		}

		if action.IsMalformed() {
			l.logger.Warn("decision named neither a tool nor a final answer", "session_id", sessionID)
			return malformedAnswer
		}

		call := domain.ToolCall{
			Query:    query,
			History:  l.sessions.Turns(ctx, sessionID),
			RawInput: action.ToolInput,
		}
		output, err := l.tools.Execute(ctx, action.ToolName, call)
		switch {
		case errors.Is(err, domain.ErrUnknownTool):
			l.logger.Warn("unknown tool requested", "session_id", sessionID, "tool", action.ToolName)
			return fmt.Sprintf("Unknown tool '%s' requested.", action.ToolName)
		case err != nil:
			l.logger.Error("tool execution failed", "session_id", sessionID, "tool", action.ToolName, "error", err)
			return fmt.Sprintf("Error executing tool '%s': %v", action.ToolName, err)
		default:
			l.logger.Info("tool executed", "session_id", sessionID, "tool", action.ToolName, "iteration", i+1)
			return output
		}
	}

	l.logger.Warn("agent loop exhausted without final answer", "session_id", sessionID)
	return exhaustedAnswer
}
