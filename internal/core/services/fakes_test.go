package services

import (
	"context"
	"sync"

	"github.com/suprovo-labs/aahar/internal/core/domain"
	"github.com/suprovo-labs/aahar/internal/core/ports"
)

// scriptedProvider returns canned completions in order, repeating the last one
// once the script runs out.
type scriptedProvider struct {
	mu        sync.Mutex
	responses []string
	err       error
	calls     int
	prompts   []string
}

func (p *scriptedProvider) GenerateText(ctx context.Context, prompt string) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.calls++
	p.prompts = append(p.prompts, prompt)
	if p.err != nil {
		return "", p.err
	}
	if len(p.responses) == 0 {
		return "", nil
	}
	idx := p.calls - 1
	if idx >= len(p.responses) {
		idx = len(p.responses) - 1
	}
	return p.responses[idx], nil
}

func (p *scriptedProvider) callCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.calls
}

type stubRetriever struct {
	text string
	err  error
}

func (r *stubRetriever) Retrieve(ctx context.Context, query string) (string, error) {
	return r.text, r.err
}

type stubEnsemble struct {
	suggestions map[string]string
}

func (e *stubEnsemble) DietSuggestions(ctx context.Context, q ports.EnsembleQuery) map[string]string {
	if e.suggestions == nil {
		return map[string]string{"llama": "N/A", "gemma": "N/A", "mixtral": "N/A"}
	}
	return e.suggestions
}

type stubWeather struct {
	conditions *ports.Weather
	err        error
}

func (w *stubWeather) Current(ctx context.Context, city string) (*ports.Weather, error) {
	return w.conditions, w.err
}

// memoryRepo is an in-memory ports.Repository for service tests.
type memoryRepo struct {
	mu       sync.Mutex
	sessions map[domain.SessionID]*domain.Session
	stats    map[string]int64
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{
		sessions: make(map[domain.SessionID]*domain.Session),
		stats:    make(map[string]int64),
	}
}

func (r *memoryRepo) CreateSession(ctx context.Context, s domain.Session) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.sessions[s.ID]; !ok {
		copied := s
		r.sessions[s.ID] = &copied
	}
	return nil
}

func (r *memoryRepo) GetSession(ctx context.Context, id domain.SessionID) (domain.Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sessions[id]
	if !ok {
		return domain.Session{}, domain.ErrSessionNotFound
	}
	return *s, nil
}

func (r *memoryRepo) AppendTurn(ctx context.Context, id domain.SessionID, t domain.ConversationTurn) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sessions[id]
	if !ok {
		return domain.ErrSessionNotFound
	}
	s.Turns = append(s.Turns, t)
	return nil
}

func (r *memoryRepo) ListTurns(ctx context.Context, id domain.SessionID, limit int) ([]domain.ConversationTurn, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sessions[id]
	if !ok {
		return nil, domain.ErrSessionNotFound
	}
	turns := s.Turns
	if limit > 0 && len(turns) > limit {
		turns = turns[len(turns)-limit:]
	}
	return turns, nil
}

func (r *memoryRepo) CountSessions(ctx context.Context) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return int64(len(r.sessions)), nil
}

func (r *memoryRepo) BumpQueryStat(ctx context.Context, category string, delta int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.stats[category] += delta
	return nil
}

func (r *memoryRepo) TopQueryStats(ctx context.Context, limit int) ([]ports.QueryStat, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	stats := make([]ports.QueryStat, 0, len(r.stats))
	for cat, count := range r.stats {
		stats = append(stats, ports.QueryStat{Category: cat, Count: count})
	}
	if limit > 0 && len(stats) > limit {
		stats = stats[:limit]
	}
	return stats, nil
}

func (r *memoryRepo) Close() error { return nil }

func (r *memoryRepo) turnCount(id domain.SessionID) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	if s, ok := r.sessions[id]; ok {
		return len(s.Turns)
	}
	return 0
}
