package domain

import (
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
)

// SessionID uniquely identifies a chat session. IDs are opaque client-facing
// tokens; a client that wants continuity echoes the ID back on every request.
type SessionID string

// TurnRole identifies who authored a conversation turn.
type TurnRole string

const (
	RoleUser      TurnRole = "user"
	RoleAssistant TurnRole = "assistant"
)

// ConversationTurn is a single user or assistant message within a session.
type ConversationTurn struct {
	Role      TurnRole  `json:"role"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}

// Session owns the ordered conversation history for one session ID.
type Session struct {
	ID        SessionID          `json:"id"`
	Turns     []ConversationTurn `json:"turns"`
	CreatedAt time.Time          `json:"created_at"`
	UpdatedAt time.Time          `json:"updated_at"`
}

var ErrSessionNotFound = errors.New("session not found")

// NewSessionID generates a fresh opaque session token.
func NewSessionID() SessionID {
	return SessionID("session_" + strings.ReplaceAll(uuid.NewString(), "-", ""))
}

// RenderHistory formats turns as the "chat history" text fed to every
// orchestrator call: "User: ..." / "AI: ..." lines in append order.
func RenderHistory(turns []ConversationTurn) string {
	var sb strings.Builder
	sb.Grow(len(turns) * 80)
	for _, t := range turns {
		switch t.Role {
		case RoleUser:
			sb.WriteString("User: ")
		case RoleAssistant:
			sb.WriteString("AI: ")
		default:
			continue
		}
		sb.WriteString(t.Content)
		sb.WriteByte('\n')
	}
	return sb.String()
}

// LastSubstantialAssistantTurn returns the content of the most recent
// assistant turn longer than minLen, or "" if none exists. Used by the
// reformat tool to find a previous diet plan worth re-rendering.
func LastSubstantialAssistantTurn(turns []ConversationTurn, minLen int) string {
	for i := len(turns) - 1; i >= 0; i-- {
		if turns[i].Role == RoleAssistant && len(turns[i].Content) > minLen {
			return turns[i].Content
		}
	}
	return ""
}
