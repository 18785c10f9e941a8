package biz

import (
	"errors"
	"sync"
	"time"

	"github.com/kart-io/propertyai/internal/model"
	"github.com/kart-io/propertyai/pkg/id"
)

// ErrSessionNotFound is returned when a session ID does not exist.
var ErrSessionNotFound = errors.New("session not found")

// ErrIngestInProgress is returned when a session already has an ingest
// running; at most one ingest runs per session at a time.
var ErrIngestInProgress = errors.New("ingest already in progress for this session")

// SessionManager keeps sessions in memory. Sessions are cheap bookkeeping
// around chat history and ingest state, so process-local storage is enough.
type SessionManager struct {
	mu       sync.RWMutex
	sessions map[string]*model.Session
	idGen    *id.UUIDGenerator
}

func NewSessionManager() *SessionManager {
	return &SessionManager{
		sessions: make(map[string]*model.Session),
		idGen:    id.NewUUIDGenerator(),
	}
}

// Create starts a new session and returns a copy of it.
func (m *SessionManager) Create() model.Session {
	s := &model.Session{
		ID:        m.idGen.Generate(),
		CreatedAt: time.Now(),
	}

	m.mu.Lock()
	m.sessions[s.ID] = s
	m.mu.Unlock()

	return snapshot(s)
}

// Get returns a copy of the session.
func (m *SessionManager) Get(sessionID string) (model.Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	s, ok := m.sessions[sessionID]
	if !ok {
		return model.Session{}, ErrSessionNotFound
	}
	return snapshot(s), nil
}

// AppendMessage records one chat turn on the session.
func (m *SessionManager) AppendMessage(sessionID, role, content string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, ok := m.sessions[sessionID]
	if !ok {
		return ErrSessionNotFound
	}
	s.ChatHistory = append(s.ChatHistory, model.ChatMessage{
		Role:      role,
		Content:   content,
		CreatedAt: time.Now(),
	})
	return nil
}

// StartProcessing claims the session's ingest slot. Fails when an ingest is
// already running so concurrent uploads on one session are rejected.
func (m *SessionManager) StartProcessing(sessionID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, ok := m.sessions[sessionID]
	if !ok {
		return ErrSessionNotFound
	}
	if s.Processing {
		return ErrIngestInProgress
	}
	s.Processing = true
	return nil
}

// StopProcessing releases the session's ingest slot without marking files
// processed, used when an ingest fails.
func (m *SessionManager) StopProcessing(sessionID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, ok := m.sessions[sessionID]
	if !ok {
		return ErrSessionNotFound
	}
	s.Processing = false
	return nil
}

// MarkFilesProcessed records a completed ingest on the session.
func (m *SessionManager) MarkFilesProcessed(sessionID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, ok := m.sessions[sessionID]
	if !ok {
		return ErrSessionNotFound
	}
	s.FilesProcessed = true
	s.Processing = false
	return nil
}

// Delete removes the session. Deleting an unknown ID is not an error.
func (m *SessionManager) Delete(sessionID string) {
	m.mu.Lock()
	delete(m.sessions, sessionID)
	m.mu.Unlock()
}

// Count returns the number of live sessions.
func (m *SessionManager) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

// snapshot copies a session so callers never share the internal history slice.
func snapshot(s *model.Session) model.Session {
	out := *s
	out.ChatHistory = make([]model.ChatMessage, len(s.ChatHistory))
	copy(out.ChatHistory, s.ChatHistory)
	return out
}
