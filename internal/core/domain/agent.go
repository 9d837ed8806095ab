package domain

import (
	"encoding/json"
	"fmt"
	"strings"
)

// AgentAction is the structured decision emitted by the orchestrator model.
// Exactly one of ToolName or FinalAnswer drives the next loop step; an action
// carrying neither is treated as malformed.
type AgentAction struct {
	Thought     string          `json:"thought,omitempty"`
	ToolName    string          `json:"tool_name,omitempty"`
	ToolInput   json.RawMessage `json:"tool_input,omitempty"`
	FinalAnswer string          `json:"final_answer,omitempty"`
}

// IsMalformed reports whether the action carries neither a tool selection nor
// a final answer.
func (a AgentAction) IsMalformed() bool {
	return a.ToolName == "" && a.FinalAnswer == ""
}

// ScratchpadEntry records one tool invocation within a single request.
type ScratchpadEntry struct {
	ToolName   string
	ToolInput  string
	ToolOutput string
}

// Scratchpad is the per-request, append-only log of tool calls. It exists only
// for the lifetime of one agent loop and is never persisted to the session.
type Scratchpad []ScratchpadEntry

// Append adds an entry after a tool invocation.
func (s *Scratchpad) Append(name, input, output string) {
	*s = append(*s, ScratchpadEntry{ToolName: name, ToolInput: input, ToolOutput: output})
}

// Render serializes the scratchpad into the text form the orchestrator prompt
// expects: one Tool/Input/Output triple per entry, newline-joined.
func (s Scratchpad) Render() string {
	parts := make([]string, 0, len(s))
	for _, e := range s {
		parts = append(parts, fmt.Sprintf("Tool: %s\nInput: %s\nOutput: %s", e.ToolName, e.ToolInput, e.ToolOutput))
	}
	return strings.Join(parts, "\n")
}
