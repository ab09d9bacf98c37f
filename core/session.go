package core

import (
	"context"
	"errors"
	"sync"
	"time"
)

// Turn couples one user input with its complete, ordered output. A turn is
// mutable only while the engine executes it; once committed to a session it
// must never change.
type Turn struct {
	ID       string     `json:"id"`
	Input    string     `json:"input"`
	Messages []Message  `json:"messages"`
	Status   TurnStatus `json:"status"`
	Created  time.Time  `json:"created"`
}

// NewTurn creates an empty turn for the given user input.
func NewTurn(input string) Turn {
	return Turn{ID: NewID(), Input: input, Created: time.Now().UTC()}
}

// Session is the full ordered history of committed turns for one
// conversation. It is safe for concurrent read access; mutation is reserved
// for the engine holding the session's single-writer lock.
//
// Contract:
//   - Turns are strictly ordered and append-only
//   - AppendTurn is idempotent per turn ID (duplicate commits are dropped;
//     reusing a turn ID with different content is a conflict)
//   - Turns returns a defensive copy to avoid external mutation
//   - Clone performs deep copies for safe divergence
type Session struct {
	ID       string            `json:"id"`
	Turns    []Turn            `json:"turns"`
	Created  time.Time         `json:"created"`
	Updated  time.Time         `json:"updated"`
	Metadata map[string]string `json:"metadata"`
	mu       sync.RWMutex
}

// NewSession creates an empty session with the given ID.
func NewSession(id string) *Session {
	now := time.Now().UTC()
	return &Session{ID: id, Turns: []Turn{}, Created: now, Updated: now, Metadata: map[string]string{}}
}

// AppendTurn appends a committed turn. A turn whose ID is already present
// with the same content is ignored so duplicate commits never duplicate
// messages; reusing a turn ID with different content returns ErrConflict.
func (s *Session) AppendTurn(t Turn) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.Turns {
		if existing.ID == t.ID {
			if sameTurn(existing, t) {
				return nil
			}
			return ErrConflict
		}
	}
	s.Turns = append(s.Turns, t)
	s.Updated = time.Now().UTC()
	return nil
}

// sameTurn compares two turns by input, status and message identity, enough
// to tell an idempotent duplicate commit from a racing writer reusing an ID.
func sameTurn(a, b Turn) bool {
	if a.Input != b.Input || a.Status != b.Status || len(a.Messages) != len(b.Messages) {
		return false
	}
	for i := range a.Messages {
		if a.Messages[i].ID != b.Messages[i].ID {
			return false
		}
	}
	return true
}

// GetTurns returns a defensive copy of the committed turn history.
func (s *Session) GetTurns() []Turn {
	s.mu.RLock()
	defer s.mu.RUnlock()
	turns := make([]Turn, len(s.Turns))
	copy(turns, s.Turns)
	return turns
}

// LastTurn returns the most recent committed turn, if any.
func (s *Session) LastTurn() (Turn, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if len(s.Turns) == 0 {
		return Turn{}, false
	}
	return s.Turns[len(s.Turns)-1], true
}

// Clone returns a deep copy of the session safe for independent mutation.
func (s *Session) Clone() *Session {
	s.mu.RLock()
	defer s.mu.RUnlock()
	clone := &Session{
		ID:       s.ID,
		Turns:    make([]Turn, len(s.Turns)),
		Created:  s.Created,
		Updated:  s.Updated,
		Metadata: make(map[string]string, len(s.Metadata)),
	}
	copy(clone.Turns, s.Turns)
	for k, v := range s.Metadata {
		clone.Metadata[k] = v
	}
	return clone
}

// Store errors returned by SessionStore implementations.
var (
	// ErrSessionNotFound indicates the session ID is unknown to the store.
	ErrSessionNotFound = errors.New("session not found")
	// ErrConflict indicates a commit reused an existing turn ID with
	// different content; the caller should reload and retry the whole turn.
	ErrConflict = errors.New("session commit conflict")
)

// SessionStore persists sessions and their committed turn history.
//
// Commit must be idempotent per turn ID: committing the same turn twice must
// not duplicate it in the session.
type SessionStore interface {
	Create(ctx context.Context, id string) (*Session, error)
	Load(ctx context.Context, id string) (*Session, error)
	Commit(ctx context.Context, sessionID string, turn Turn) error
	List(ctx context.Context) ([]*Session, error)
}
