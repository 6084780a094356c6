package session

import (
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/ragulg06/RAP-HeadLine-HQ/internal/config"
	"github.com/ragulg06/RAP-HeadLine-HQ/pkg/models"
)

// ErrNotFound is returned when a session ID is unknown or expired.
var ErrNotFound = errors.New("session not found")

// Manager owns conversation sessions: creation, lookup, bounded turn
// history, sticky preferences, and the state machine that tracks whether a
// company has been resolved yet.
type Manager struct {
	mu       sync.RWMutex
	sessions map[string]*models.Session
	cfg      config.SessionConfig
	now      func() time.Time
}

// NewManager creates a session manager.
func NewManager(cfg config.SessionConfig) *Manager {
	return &Manager{
		sessions: make(map[string]*models.Session),
		cfg:      cfg,
		now:      time.Now,
	}
}

// Create starts a new idle session with the configured default preferences.
func (m *Manager) Create() *models.Session {
	now := m.now()
	sess := &models.Session{
		ID:    uuid.NewString(),
		State: models.StateIdle,
		Preferences: models.Preferences{
			Style:     m.cfg.DefaultStyle,
			TimeRange: m.cfg.DefaultRange,
		},
		CreatedAt: now,
		UpdatedAt: now,
	}
	m.mu.Lock()
	m.sessions[sess.ID] = sess
	m.mu.Unlock()
	return sess
}

// Get returns the session for the ID, or ErrNotFound.
func (m *Manager) Get(id string) (*models.Session, error) {
	m.mu.RLock()
	sess, ok := m.sessions[id]
	m.mu.RUnlock()
	if !ok {
		return nil, ErrNotFound
	}
	return sess, nil
}

// GetOrCreate resolves the ID, falling back to a fresh session when the ID
// is empty or unknown.
func (m *Manager) GetOrCreate(id string) *models.Session {
	if id != "" {
		if sess, err := m.Get(id); err == nil {
			return sess
		}
	}
	return m.Create()
}

// Delete removes a session. Deleting an unknown ID is not an error.
func (m *Manager) Delete(id string) {
	m.mu.Lock()
	delete(m.sessions, id)
	m.mu.Unlock()
}

// AppendTurn records a conversation turn, evicting the oldest turns so the
// history never exceeds the configured bound.
func (m *Manager) AppendTurn(sess *models.Session, role models.TurnRole, text string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	sess.History = append(sess.History, models.ConversationTurn{
		Role:      role,
		Text:      text,
		Timestamp: m.now(),
	})
	if over := len(sess.History) - m.cfg.HistoryLimit; over > 0 {
		sess.History = append([]models.ConversationTurn(nil), sess.History[over:]...)
	}
	sess.UpdatedAt = m.now()
}

// History returns a copy of the session's turns, oldest first.
func (m *Manager) History(sess *models.Session) []models.ConversationTurn {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]models.ConversationTurn(nil), sess.History...)
}

// ResolveCompany applies a company mention to the session state machine. A
// non-empty company moves the session to ready and becomes the sticky
// company for follow-up turns; an empty one on a session with no prior
// company moves it to awaiting clarification.
func (m *Manager) ResolveCompany(sess *models.Session, company string) (string, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if company != "" {
		sess.LastResolvedCompany = company
		sess.State = models.StateReady
		sess.UpdatedAt = m.now()
		return company, true
	}
	if sess.LastResolvedCompany != "" {
		sess.State = models.StateReady
		return sess.LastResolvedCompany, true
	}
	sess.State = models.StateAwaitingCompany
	sess.UpdatedAt = m.now()
	return "", false
}

// UpdatePreferences overlays any non-zero request preferences onto the
// session. Unset fields keep their previous values, so preferences persist
// across turns until the user overrides them.
func (m *Manager) UpdatePreferences(sess *models.Session, prefs models.Preferences) models.Preferences {
	m.mu.Lock()
	defer m.mu.Unlock()
	if prefs.Style != "" {
		sess.Preferences.Style = prefs.Style
	}
	if prefs.TimeRange != "" {
		sess.Preferences.TimeRange = prefs.TimeRange
	}
	if prefs.ImpactThreshold > 0 {
		sess.Preferences.ImpactThreshold = prefs.ImpactThreshold
	}
	sess.UpdatedAt = m.now()
	return sess.Preferences
}

// Count reports the number of live sessions.
func (m *Manager) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}
