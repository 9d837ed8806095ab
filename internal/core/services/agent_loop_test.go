package services

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/suprovo-labs/aahar/internal/core/domain"
)

type loopFixture struct {
	loop     *AgentLoop
	repo     *memoryRepo
	sessions *SessionStore
	provider *scriptedProvider
}

func newLoopFixture(t *testing.T, decisions ...string) *loopFixture {
	t.Helper()
	logger := testLogger()
	repo := newMemoryRepo()
	sessions := NewSessionStore(logger, repo)
	bus := NewEventBus(logger)
	analytics := NewAnalytics(logger, repo, bus)

	answerLLM := &scriptedProvider{responses: []string{"generated answer"}}
	toolset := NewToolset(logger, testCatalog(t), &stubRetriever{text: "kb context"},
		answerLLM, &stubEnsemble{}, &stubWeather{})

	provider := &scriptedProvider{responses: decisions}
	engine := NewDecisionEngine(logger, provider)
	loop := NewAgentLoop(logger, engine, toolset.Registry(), sessions, analytics)

	return &loopFixture{loop: loop, repo: repo, sessions: sessions, provider: provider}
}

func TestAgentLoopFinalAnswer(t *testing.T) {
	f := newLoopFixture(t, `{"final_answer": "Eat more dal."}`)

	answer := f.loop.Run(context.Background(), "session_test1", "what should I eat?")
	assert.Equal(t, "Eat more dal.", answer)
	assert.Equal(t, 1, f.provider.callCount())
}

func TestAgentLoopRecordsBothTurns(t *testing.T) {
	f := newLoopFixture(t, `{"final_answer": "Done."}`)

	f.loop.Run(context.Background(), "session_test2", "hello")
	require.Equal(t, 2, f.repo.turnCount("session_test2"))

	turns := f.sessions.Turns(context.Background(), "session_test2")
	require.Len(t, turns, 2)
	assert.Equal(t, domain.RoleUser, turns[0].Role)
	assert.Equal(t, "hello", turns[0].Content)
	assert.Equal(t, domain.RoleAssistant, turns[1].Role)
	assert.Equal(t, "Done.", turns[1].Content)
}

func TestAgentLoopToolSuccessTerminates(t *testing.T) {
	f := newLoopFixture(t, `{"tool_name": "handle_greeting", "tool_input": {}}`)

	answer := f.loop.Run(context.Background(), "session_test3", "hi")
	assert.Equal(t, greetingAnswer, answer)
	assert.Equal(t, 1, f.provider.callCount())
}

func TestAgentLoopUnknownToolTerminates(t *testing.T) {
	f := newLoopFixture(t, `{"tool_name": "summon_chef", "tool_input": {}}`)

	answer := f.loop.Run(context.Background(), "session_test4", "cook for me")
	assert.Equal(t, "Unknown tool 'summon_chef' requested.", answer)
	assert.Equal(t, 1, f.provider.callCount())
}

func TestAgentLoopToolErrorTerminates(t *testing.T) {
	// food_items as a string fails typed decoding inside the tool.
	f := newLoopFixture(t, `{"tool_name": "get_nutrition_comparison", "tool_input": {"food_items": "rice"}}`)

	answer := f.loop.Run(context.Background(), "session_test5", "compare foods")
	assert.Contains(t, answer, "Error executing tool 'get_nutrition_comparison':")
	assert.Equal(t, 1, f.provider.callCount())
}

func TestAgentLoopMalformedDecisionTerminates(t *testing.T) {
	// A decision naming neither a tool nor a final answer ends the turn
	// immediately, without re-prompting the orchestrator.
	f := newLoopFixture(t, `{"thought": "still thinking"}`)

	answer := f.loop.Run(context.Background(), "session_test6", "help")
	assert.Equal(t, malformedAnswer, answer)
	assert.Equal(t, 1, f.provider.callCount())
	assert.Equal(t, 2, f.repo.turnCount("session_test6"))
}

func TestAgentLoopDecisionFailureRecovers(t *testing.T) {
	logger := testLogger()
	repo := newMemoryRepo()
	sessions := NewSessionStore(logger, repo)
	toolset := NewToolset(logger, testCatalog(t), &stubRetriever{}, &scriptedProvider{}, &stubEnsemble{}, &stubWeather{})
	engine := NewDecisionEngine(logger, &scriptedProvider{err: errors.New("upstream down")})
	loop := NewAgentLoop(logger, engine, toolset.Registry(), sessions, nil)

	answer := loop.Run(context.Background(), "session_test7", "hello")
	assert.Equal(t, recoveryAnswer, answer)
	assert.Equal(t, 2, repo.turnCount("session_test7"))
}

func TestAgentLoopUnparseableDecisionIsFinal(t *testing.T) {
	f := newLoopFixture(t, "total garbage, not json at all <<<")

	answer := f.loop.Run(context.Background(), "session_test8", "hello")
	assert.Equal(t, decisionErrorAnswer, answer)
	assert.Equal(t, 1, f.provider.callCount())
}

func TestAgentLoopDietPlanFlow(t *testing.T) {
	f := newLoopFixture(t, `{"tool_name": "generate_diet_plan", "tool_input": {"dietary_type": "vegetarian", "goal": "weight loss"}}`)

	answer := f.loop.Run(context.Background(), "session_test9", "veg plan for weight loss")
	// The scripted answer model replies the same text for RAG and merge calls.
	assert.Equal(t, "generated answer", answer)
}
