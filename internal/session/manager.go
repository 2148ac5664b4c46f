package session

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"sync"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/kimberlykao/gifforge/internal/logging"
)

// CookieName is the browser cookie that carries the session token.
const CookieName = "gifforge_session"

// DefaultTTL is how long an idle session survives.
const DefaultTTL = 60 * time.Minute

// janitorInterval is how often expired sessions are swept.
const janitorInterval = time.Minute

// ManagerConfig configures the session manager.
type ManagerConfig struct {
	// WorkRoot hosts one working directory per session.
	WorkRoot string

	// TTL is the sliding idle timeout. Zero means DefaultTTL.
	TTL time.Duration

	// MaxFiles caps uploads per session. Zero means unlimited.
	MaxFiles int

	// PassphraseHash is a bcrypt hash of the access passphrase. Empty
	// disables the gate and every new session starts authorized.
	PassphraseHash string
}

// Manager owns every live session. Sessions are memory-only: the map is
// the single source of truth and an unknown token simply gets a fresh
// session.
type Manager struct {
	workRoot string
	ttl      time.Duration
	maxFiles int
	passHash string

	mu       sync.Mutex
	sessions map[string]*State

	done     chan struct{}
	stopOnce sync.Once
}

// NewManager creates a Manager and its on-disk work root.
func NewManager(cfg ManagerConfig) (*Manager, error) {
	if cfg.WorkRoot == "" {
		return nil, fmt.Errorf("session work root is required")
	}
	if err := os.MkdirAll(cfg.WorkRoot, 0o755); err != nil {
		return nil, fmt.Errorf("create session work root: %w", err)
	}

	ttl := cfg.TTL
	if ttl <= 0 {
		ttl = DefaultTTL
	}

	return &Manager{
		workRoot: cfg.WorkRoot,
		ttl:      ttl,
		maxFiles: cfg.MaxFiles,
		passHash: cfg.PassphraseHash,
		sessions: make(map[string]*State),
		done:     make(chan struct{}),
	}, nil
}

// TTL returns the configured idle timeout.
func (m *Manager) TTL() time.Duration {
	return m.ttl
}

// Start launches the background janitor.
func (m *Manager) Start() {
	go func() {
		ticker := time.NewTicker(janitorInterval)
		defer ticker.Stop()

		for {
			select {
			case <-m.done:
				return
			case <-ticker.C:
				m.sweep()
			}
		}
	}()
}

// Stop halts the janitor. Live sessions are left alone; PurgeAll removes
// them.
func (m *Manager) Stop() {
	m.stopOnce.Do(func() { close(m.done) })
}

// sweep closes sessions idle past the TTL.
func (m *Manager) sweep() {
	cutoff := time.Now().Add(-m.ttl)

	m.mu.Lock()
	var expired []*State
	for token, st := range m.sessions {
		if st.LastSeen().Before(cutoff) {
			delete(m.sessions, token)
			expired = append(expired, st)
		}
	}
	m.mu.Unlock()

	for _, st := range expired {
		logging.Info("Session %s expired (%d files)", shortToken(st.Token), st.FileCount())
		st.Close()
	}
}

// PurgeAll closes every session. Called during shutdown so no uploads
// outlive the process.
func (m *Manager) PurgeAll() {
	m.mu.Lock()
	all := make([]*State, 0, len(m.sessions))
	for token, st := range m.sessions {
		delete(m.sessions, token)
		all = append(all, st)
	}
	m.mu.Unlock()

	for _, st := range all {
		st.Close()
	}
	if len(all) > 0 {
		logging.Info("Purged %d session(s)", len(all))
	}
}

// Create makes a new session with its working directory. The directory
// name is a short prefix of the token so the full credential never shows
// up in file paths or logs.
func (m *Manager) Create() (*State, error) {
	token, err := newToken()
	if err != nil {
		return nil, err
	}

	dir := filepath.Join(m.workRoot, token[:16])
	for _, sub := range []string{"uploads", "scratch", "thumbs"} {
		if err := os.MkdirAll(filepath.Join(dir, sub), 0o755); err != nil {
			return nil, fmt.Errorf("create session directory: %w", err)
		}
	}

	st := newState(token, dir, m.maxFiles, m.passHash == "")

	m.mu.Lock()
	m.sessions[token] = st
	m.mu.Unlock()

	logging.Debug("Session %s created", shortToken(token))
	return st, nil
}

// Get returns a live session by token and refreshes its expiry.
func (m *Manager) Get(token string) (*State, bool) {
	m.mu.Lock()
	st, ok := m.sessions[token]
	m.mu.Unlock()
	if !ok {
		return nil, false
	}
	st.Touch()
	return st, true
}

// FromRequest resolves the request's session, creating one and setting
// the cookie when the request carries none or a stale token. The cookie
// lasts for the browser session; the server-side TTL is what actually
// expires it.
func (m *Manager) FromRequest(w http.ResponseWriter, r *http.Request) (*State, error) {
	if c, err := r.Cookie(CookieName); err == nil && c.Value != "" {
		if st, ok := m.Get(c.Value); ok {
			return st, nil
		}
	}

	st, err := m.Create()
	if err != nil {
		return nil, err
	}
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    st.Token,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	return st, nil
}

// GateEnabled reports whether a passphrase is required.
func (m *Manager) GateEnabled() bool { return m.passHash != "" }

// Authorize checks a passphrase against the configured bcrypt hash.
// Always true when the gate is disabled.
func (m *Manager) Authorize(passphrase string) bool {
	if m.passHash == "" {
		return true
	}
	return bcrypt.CompareHashAndPassword([]byte(m.passHash), []byte(passphrase)) == nil
}

// Stats is a point-in-time aggregate over live sessions.
type Stats struct {
	ActiveSessions    int
	TotalFiles        int
	CachedConversions int
	CacheBytes        int64
	UploadBytes       int64
}

// Snapshot aggregates counters across every live session.
func (m *Manager) Snapshot() Stats {
	m.mu.Lock()
	states := make([]*State, 0, len(m.sessions))
	for _, st := range m.sessions {
		states = append(states, st)
	}
	m.mu.Unlock()

	stats := Stats{ActiveSessions: len(states)}
	for _, st := range states {
		stats.TotalFiles += st.FileCount()
		stats.CachedConversions += st.Cache().Len()
		stats.CacheBytes += st.Cache().Bytes()
		stats.UploadBytes += st.UploadBytes()
	}
	return stats
}

// newToken returns a 64-character random hex token.
func newToken() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generate session token: %w", err)
	}
	return hex.EncodeToString(buf), nil
}

// shortToken trims a token for logs.
func shortToken(token string) string {
	if len(token) > 8 {
		return token[:8]
	}
	return token
}
