package catalog

import (
	"sync"
	"time"

	"github.com/irc-library/maktaba/model"
	"github.com/irc-library/maktaba/store"
)

const (
	sessionTTL = 30 * time.Minute
	sweepEvery = time.Minute
)

// Manager hands out one Engine per viewer session so that "load more"
// requests keep appending to the same accumulated page. Idle sessions are
// swept and their engines closed.
type Manager struct {
	store      *store.Store
	pageSize   int
	watchBatch int

	mu       sync.Mutex
	sessions map[string]*session
	done     chan struct{}
	once     sync.Once
}

type session struct {
	engine   *Engine
	lastSeen time.Time
}

func NewManager(s *store.Store, pageSize, watchBatch int) *Manager {
	m := &Manager{
		store:      s,
		pageSize:   pageSize,
		watchBatch: watchBatch,
		sessions:   make(map[string]*session),
		done:       make(chan struct{}),
	}
	go m.sweep()
	return m
}

// Session returns the engine for the given session id, creating it on
// first use.
func (m *Manager) Session(id string) *Engine {
	m.mu.Lock()
	defer m.mu.Unlock()

	if sess, ok := m.sessions[id]; ok {
		sess.lastSeen = time.Now()
		return sess.engine
	}
	sess := &session{
		engine:   NewEngine(m.store, m.pageSize, m.watchBatch),
		lastSeen: time.Now(),
	}
	m.sessions[id] = sess
	return sess.engine
}

// Patch pushes a locally edited book into every live session.
func (m *Manager) Patch(book *model.Book) {
	for _, engine := range m.engines() {
		engine.Patch(book)
	}
}

// Remove drops a deleted book from every live session.
func (m *Manager) Remove(bookID string) {
	for _, engine := range m.engines() {
		engine.Remove(bookID)
	}
}

func (m *Manager) engines() []*Engine {
	m.mu.Lock()
	defer m.mu.Unlock()
	engines := make([]*Engine, 0, len(m.sessions))
	for _, sess := range m.sessions {
		engines = append(engines, sess.engine)
	}
	return engines
}

// Drop closes and forgets one session, e.g. on sign-out.
func (m *Manager) Drop(id string) {
	m.mu.Lock()
	sess, ok := m.sessions[id]
	delete(m.sessions, id)
	m.mu.Unlock()

	if ok {
		sess.engine.Close()
	}
}

func (m *Manager) Close() {
	m.once.Do(func() { close(m.done) })

	m.mu.Lock()
	sessions := m.sessions
	m.sessions = make(map[string]*session)
	m.mu.Unlock()

	for _, sess := range sessions {
		sess.engine.Close()
	}
}

func (m *Manager) sweep() {
	ticker := time.NewTicker(sweepEvery)
	defer ticker.Stop()
	for {
		select {
		case <-m.done:
			return
		case <-ticker.C:
		}

		cutoff := time.Now().Add(-sessionTTL)
		var expired []*session
		m.mu.Lock()
		for id, sess := range m.sessions {
			if sess.lastSeen.Before(cutoff) {
				expired = append(expired, sess)
				delete(m.sessions, id)
			}
		}
		m.mu.Unlock()

		for _, sess := range expired {
			sess.engine.Close()
		}
	}
}
