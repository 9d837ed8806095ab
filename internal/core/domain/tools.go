package domain

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
)

// ToolCall carries everything a tool may need for one invocation: the raw
// parameters the orchestrator chose plus the request context tools like
// reformat and weather read from.
type ToolCall struct {
	Query    string
	History  []ConversationTurn
	RawInput json.RawMessage
}

// ToolRunner executes a tool and returns its text result.
type ToolRunner func(ctx context.Context, call ToolCall) (string, error)

// ToolParams describes a tool's input schema for the orchestrator prompt.
type ToolParams struct {
	Properties map[string]string // param name -> type
	Required   []string
}

// Tool is one named capability the agent can dispatch to.
type Tool struct {
	Name        string
	Description string
	Params      ToolParams
	Run         ToolRunner
}

// InvalidToolInputError marks a tool input that failed typed decoding. The
// agent loop folds it into the malformed-decision taxonomy rather than the
// tool-execution one.
type InvalidToolInputError struct {
	Tool string
	Err  error
}

func (e *InvalidToolInputError) Error() string {
	return fmt.Sprintf("invalid input for tool %q: %v", e.Tool, e.Err)
}

func (e *InvalidToolInputError) Unwrap() error { return e.Err }

// Typed tool inputs. Each tool name maps to exactly one of these records;
// decoding happens at the dispatch boundary so type mismatches surface as
// InvalidToolInputError instead of silently-missing dict keys.
type (
	GreetingInput struct{}
	IdentityInput struct{}

	RecipeInput struct {
		RecipeName string `json:"recipe_name"`
	}

	NutritionLookupInput struct {
		FoodItem string `json:"food_item"`
	}

	CompareInput struct {
		FoodItems []string `json:"food_items"`
	}

	DietPlanInput struct {
		DietaryType string `json:"dietary_type"`
		Goal        string `json:"goal"`
		Region      string `json:"region"`
		WantsTable  bool   `json:"wants_table"`
	}

	WeatherInput struct {
		City string `json:"city"`
	}
)

// ApplyDefaults fills the fields the orchestrator commonly omits.
func (in *DietPlanInput) ApplyDefaults() {
	if in.DietaryType == "" {
		in.DietaryType = "any"
	}
	if in.Goal == "" {
		in.Goal = "diet"
	}
	if in.Region == "" {
		in.Region = "Indian"
	}
}

// DecodeToolInput decodes raw orchestrator parameters into a typed input
// record. Empty input decodes to the zero value; a type mismatch is an error.
func DecodeToolInput[T any](toolName string, raw json.RawMessage) (T, error) {
	var in T
	if len(raw) == 0 || string(raw) == "null" {
		return in, nil
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	if err := dec.Decode(&in); err != nil {
		return in, &InvalidToolInputError{Tool: toolName, Err: err}
	}
	return in, nil
}

// ToolRegistry holds the fixed set of tools the orchestrator may select.
type ToolRegistry struct {
	tools map[string]*Tool
}

func NewToolRegistry() *ToolRegistry {
	return &ToolRegistry{tools: make(map[string]*Tool)}
}

// Register adds a tool. Registering an unnamed tool is a programming error.
func (r *ToolRegistry) Register(tool *Tool) error {
	if tool.Name == "" {
		return fmt.Errorf("tool name cannot be empty")
	}
	r.tools[tool.Name] = tool
	return nil
}

var ErrUnknownTool = fmt.Errorf("unknown tool")

// Execute dispatches a named tool. An unknown name is reported, not fuzzily
// corrected: a bad tool name ends the conversation turn.
func (r *ToolRegistry) Execute(ctx context.Context, name string, call ToolCall) (string, error) {
	tool, ok := r.tools[name]
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrUnknownTool, name)
	}
	return tool.Run(ctx, call)
}

// Names returns registered tool names, sorted.
func (r *ToolRegistry) Names() []string {
	names := make([]string, 0, len(r.tools))
	for name := range r.tools {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// FormatForPrompt renders the numbered tool list embedded in the orchestrator
// prompt. Output is deterministic (sorted by name) so prompts are stable.
func (r *ToolRegistry) FormatForPrompt() string {
	var sb strings.Builder
	for i, name := range r.Names() {
		tool := r.tools[name]
		fmt.Fprintf(&sb, "%d. **%s**: %s", i+1, tool.Name, tool.Description)
		if len(tool.Params.Properties) > 0 {
			params := make([]string, 0, len(tool.Params.Properties))
			for pName := range tool.Params.Properties {
				params = append(params, pName)
			}
			sort.Strings(params)
			for j, p := range params {
				params[j] = "`" + p + "`"
			}
			fmt.Fprintf(&sb, "\n    - Input: %s", strings.Join(params, ", "))
		}
		sb.WriteByte('\n')
	}
	return sb.String()
}
