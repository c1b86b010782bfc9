package session

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// DefaultIdleTTL is how long a session may stay untouched before Sweep closes it.
const DefaultIdleTTL = 30 * time.Minute

// Manager owns at most one live controller per user.
type Manager struct {
	backend  Backend
	idleTTL  time.Duration
	opts     []Option
	log      zerolog.Logger
	onLoaded func(outcome Phase)

	mu       sync.Mutex
	sessions map[string]*Controller
	stop     chan struct{}
	stopOnce sync.Once
}

// ManagerOption configures a Manager.
type ManagerOption func(*Manager)

// WithIdleTTL sets the idle time after which Sweep closes a session.
func WithIdleTTL(d time.Duration) ManagerOption {
	return func(m *Manager) {
		if d > 0 {
			m.idleTTL = d
		}
	}
}

// WithControllerOptions applies opts to every controller the manager creates.
func WithControllerOptions(opts ...Option) ManagerOption {
	return func(m *Manager) {
		m.opts = append(m.opts, opts...)
	}
}

// WithManagerLogger sets the manager's logger. Controllers inherit it.
func WithManagerLogger(l zerolog.Logger) ManagerOption {
	return func(m *Manager) {
		m.log = l
	}
}

// WithLoadObserver registers fn to be called with the phase reached by every Open.
func WithLoadObserver(fn func(outcome Phase)) ManagerOption {
	return func(m *Manager) {
		m.onLoaded = fn
	}
}

// NewManager returns an empty session manager.
func NewManager(backend Backend, opts ...ManagerOption) *Manager {
	m := &Manager{
		backend:  backend,
		idleTTL:  DefaultIdleTTL,
		log:      zerolog.Nop(),
		sessions: make(map[string]*Controller),
		stop:     make(chan struct{}),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Open replaces any existing session of the user with a freshly loaded one.
// Sessions that load into a terminal phase are not kept. The controller is
// returned even when Load fails so callers can render its phase.
func (m *Manager) Open(ctx context.Context, userID string) (*Controller, error) {
	opts := append([]Option{WithLogger(m.log)}, m.opts...)
	c := NewController(m.backend, userID, opts...)

	m.mu.Lock()
	if old, ok := m.sessions[userID]; ok {
		old.Close()
	}
	m.sessions[userID] = c
	m.mu.Unlock()

	err := c.Load(ctx)
	phase := c.Phase()
	if m.onLoaded != nil {
		m.onLoaded(phase)
	}
	if phase != PhaseInProgress {
		m.remove(userID, c)
	}
	return c, err
}

// Get returns the live session of the user.
func (m *Manager) Get(userID string) (*Controller, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.sessions[userID]
	return c, ok
}

// Release drops a session that reached a terminal phase. It is a no-op when
// the user has since opened a different session.
func (m *Manager) Release(userID string, c *Controller) {
	m.remove(userID, c)
}

// Close ends the user's session if there is one.
func (m *Manager) Close(userID string) bool {
	m.mu.Lock()
	c, ok := m.sessions[userID]
	delete(m.sessions, userID)
	m.mu.Unlock()
	if ok {
		c.Close()
	}
	return ok
}

// Sweep closes sessions idle for longer than the TTL and returns how many
// were closed.
func (m *Manager) Sweep(now time.Time) int {
	var stale []*Controller

	m.mu.Lock()
	for id, c := range m.sessions {
		if now.Sub(c.LastActive()) > m.idleTTL {
			stale = append(stale, c)
			delete(m.sessions, id)
		}
	}
	m.mu.Unlock()

	for _, c := range stale {
		c.Close()
	}
	return len(stale)
}

// StartSweeper runs Sweep every interval until ctx is done or StopSweeper is called.
func (m *Manager) StartSweeper(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	m.log.Info().Dur("interval", interval).Dur("idle_ttl", m.idleTTL).Msg("session sweeper started")

	for {
		select {
		case <-ctx.Done():
			m.log.Info().Msg("session sweeper stopped (context cancelled)")
			return
		case <-m.stop:
			m.log.Info().Msg("session sweeper stopped")
			return
		case now := <-ticker.C:
			if n := m.Sweep(now); n > 0 {
				m.log.Info().Int("closed", n).Msg("closed idle review sessions")
			}
		}
	}
}

// StopSweeper signals the sweeper loop to exit.
func (m *Manager) StopSweeper() {
	m.stopOnce.Do(func() { close(m.stop) })
}

// CloseAll ends every live session.
func (m *Manager) CloseAll() {
	m.mu.Lock()
	all := m.sessions
	m.sessions = make(map[string]*Controller)
	m.mu.Unlock()

	for _, c := range all {
		c.Close()
	}
}

// Len returns the number of live sessions.
func (m *Manager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}

func (m *Manager) remove(userID string, c *Controller) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if cur, ok := m.sessions[userID]; ok && cur == c {
		delete(m.sessions, userID)
	}
}
