// Path: internal/session/manager.go
package session

import (
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"food-explorer/internal/cart"
	"food-explorer/internal/config"
	"food-explorer/internal/search"
)

// Session bundles the controller pair owned by one browser session. State is
// volatile: it lives exactly as long as the session does.
type Session struct {
	ID       string
	Search   *search.Controller
	Cart     *cart.Controller
	lastSeen time.Time
}

// Factory builds the controller pair for a new session.
type Factory func() (*search.Controller, *cart.Controller)

// Manager hands out per-session controllers keyed by a session cookie, and
// evicts sessions that have been idle past the TTL.
type Manager struct {
	cfg     config.SessionConfig
	factory Factory
	log     logrus.FieldLogger

	mu       sync.Mutex
	sessions map[string]*Session
	stopChan chan struct{}
}

// NewManager creates a session manager and starts its eviction janitor.
func NewManager(cfg config.SessionConfig, factory Factory, log logrus.FieldLogger) *Manager {
	m := &Manager{
		cfg:      cfg,
		factory:  factory,
		log:      log,
		sessions: make(map[string]*Session),
		stopChan: make(chan struct{}),
	}
	go m.janitor()
	return m
}

// Get returns the session for the request, creating it (and setting the
// session cookie) on first sight. Access refreshes the idle timer.
func (m *Manager) Get(w http.ResponseWriter, r *http.Request) *Session {
	var id string
	if c, err := r.Cookie(m.cfg.CookieName); err == nil {
		id = c.Value
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if id != "" {
		if s, ok := m.sessions[id]; ok {
			s.lastSeen = time.Now()
			return s
		}
	}

	id = uuid.NewString()
	searchCtl, cartCtl := m.factory()
	s := &Session{
		ID:       id,
		Search:   searchCtl,
		Cart:     cartCtl,
		lastSeen: time.Now(),
	}
	m.sessions[id] = s

	http.SetCookie(w, &http.Cookie{
		Name:     m.cfg.CookieName,
		Value:    id,
		Path:     "/",
		MaxAge:   int(m.cfg.TTL.Seconds()),
		HttpOnly: true,
	})
	m.log.WithField("session", id).Debug("session created")
	return s
}

// Count returns the number of live sessions.
func (m *Manager) Count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}

// Stop halts the eviction janitor.
func (m *Manager) Stop() {
	close(m.stopChan)
}

func (m *Manager) janitor() {
	ticker := time.NewTicker(m.cfg.JanitorInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			m.evictExpired()
		case <-m.stopChan:
			return
		}
	}
}

func (m *Manager) evictExpired() {
	cutoff := time.Now().Add(-m.cfg.TTL)

	m.mu.Lock()
	defer m.mu.Unlock()
	for id, s := range m.sessions {
		if s.lastSeen.Before(cutoff) {
			delete(m.sessions, id)
			m.log.WithField("session", id).Debug("session evicted")
		}
	}
}
