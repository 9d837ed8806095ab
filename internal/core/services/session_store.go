package services

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"

	"github.com/suprovo-labs/aahar/internal/core/domain"
	"github.com/suprovo-labs/aahar/internal/core/ports"
)

const (
	sessionCacheSize = 1024
	sessionTTL       = 24 * time.Hour
)

// sessionEntry pairs a cached session with its lock. All access to the
// session's turns goes through this lock so concurrent requests on the same
// session id never tear the slice.
type sessionEntry struct {
	mu   sync.Mutex
	sess *domain.Session
}

// SessionStore keeps recent conversations in an expiring in-memory cache and
// writes every turn through to the repository, so an evicted session can be
// rehydrated instead of silently restarting the conversation.
type SessionStore struct {
	logger *slog.Logger
	repo   ports.Repository

	// mu serializes cache misses so two concurrent first touches of the same
	// session id resolve to a single entry.
	mu    sync.Mutex
	cache *expirable.LRU[string, *sessionEntry]
}

func NewSessionStore(logger *slog.Logger, repo ports.Repository) *SessionStore {
	return &SessionStore{
		logger: logger.With("component", "session_store"),
		repo:   repo,
		cache:  expirable.NewLRU[string, *sessionEntry](sessionCacheSize, nil, sessionTTL),
	}
}

// getOrCreate returns the live entry for id, rehydrating from the repository
// when the cache has evicted it and creating a fresh session when it has never
// existed.
func (s *SessionStore) getOrCreate(ctx context.Context, id domain.SessionID) (*sessionEntry, error) {
	if entry, ok := s.cache.Get(string(id)); ok {
		return entry, nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if entry, ok := s.cache.Get(string(id)); ok {
		return entry, nil
	}

	loaded, err := s.repo.GetSession(ctx, id)
	switch {
	case err == nil:
		entry := &sessionEntry{sess: &loaded}
		s.cache.Add(string(id), entry)
		return entry, nil
	case errors.Is(err, domain.ErrSessionNotFound):
		now := time.Now().UTC()
		sess := &domain.Session{ID: id, CreatedAt: now, UpdatedAt: now}
		if err := s.repo.CreateSession(ctx, *sess); err != nil {
			return nil, err
		}
		entry := &sessionEntry{sess: sess}
		s.cache.Add(string(id), entry)
		return entry, nil
	default:
		return nil, err
	}
}

// lookup returns the entry for an existing session without creating one.
func (s *SessionStore) lookup(ctx context.Context, id domain.SessionID) (*sessionEntry, bool) {
	if entry, ok := s.cache.Get(string(id)); ok {
		return entry, true
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if entry, ok := s.cache.Get(string(id)); ok {
		return entry, true
	}

	loaded, err := s.repo.GetSession(ctx, id)
	if err != nil {
		if !errors.Is(err, domain.ErrSessionNotFound) {
			s.logger.Warn("failed to load session", "session_id", id, "error", err)
		}
		return nil, false
	}
	entry := &sessionEntry{sess: &loaded}
	s.cache.Add(string(id), entry)
	return entry, true
}

// GetOrCreate returns a snapshot of the session, creating it when it does not
// exist yet.
func (s *SessionStore) GetOrCreate(ctx context.Context, id domain.SessionID) (domain.Session, error) {
	entry, err := s.getOrCreate(ctx, id)
	if err != nil {
		return domain.Session{}, err
	}

	entry.mu.Lock()
	defer entry.mu.Unlock()
	snap := *entry.sess
	snap.Turns = append([]domain.ConversationTurn(nil), entry.sess.Turns...)
	return snap, nil
}

// AppendTurn records a turn in both the cached session and the repository. A
// persistence failure is logged but does not lose the in-memory turn.
func (s *SessionStore) AppendTurn(ctx context.Context, id domain.SessionID, role domain.TurnRole, content string) error {
	entry, err := s.getOrCreate(ctx, id)
	if err != nil {
		return err
	}

	entry.mu.Lock()
	defer entry.mu.Unlock()

	turn := domain.ConversationTurn{Role: role, Content: content, CreatedAt: time.Now().UTC()}
	entry.sess.Turns = append(entry.sess.Turns, turn)
	entry.sess.UpdatedAt = turn.CreatedAt

	if err := s.repo.AppendTurn(ctx, id, turn); err != nil {
		s.logger.Error("failed to persist turn", "session_id", id, "error", err)
	}
	return nil
}

// History renders the most recent turns of a session for prompt embedding.
// Unknown sessions yield an empty history rather than an error.
func (s *SessionStore) History(ctx context.Context, id domain.SessionID, maxTurns int) string {
	entry, ok := s.lookup(ctx, id)
	if !ok {
		return ""
	}

	entry.mu.Lock()
	defer entry.mu.Unlock()

	turns := entry.sess.Turns
	if maxTurns > 0 && len(turns) > maxTurns {
		turns = turns[len(turns)-maxTurns:]
	}
	return domain.RenderHistory(turns)
}

// Turns returns a copy of the session's turns, loading from the repository
// when needed.
func (s *SessionStore) Turns(ctx context.Context, id domain.SessionID) []domain.ConversationTurn {
	entry, err := s.getOrCreate(ctx, id)
	if err != nil {
		return nil
	}

	entry.mu.Lock()
	defer entry.mu.Unlock()
	return append([]domain.ConversationTurn(nil), entry.sess.Turns...)
}

// ActiveCount reports how many sessions are currently held in memory.
func (s *SessionStore) ActiveCount() int {
	return s.cache.Len()
}

// PersistedCount reports how many sessions the repository holds in total,
// including ones evicted from the cache.
func (s *SessionStore) PersistedCount(ctx context.Context) int64 {
	n, err := s.repo.CountSessions(ctx)
	if err != nil {
		s.logger.Warn("failed to count sessions", "error", err)
		return 0
	}
	return n
}
