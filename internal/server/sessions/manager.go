// Package sessions owns the per-client authentication state: the pending
// SIWE nonce, the verified wallet address and its expiry. Sessions live in
// memory, keyed by an opaque identifier carried in a signed cookie.
package sessions

import (
	"context"
	"crypto/subtle"
	"sync"
	"time"

	"github.com/0xkotaromiyabi/decentranews-v2/internal/logging"
	"github.com/0xkotaromiyabi/decentranews-v2/internal/shared"
	"github.com/google/uuid"
)

// Session holds the authentication state for one client.
//
// Invariant: Address is only ever set by Establish, which requires that the
// caller consumed the exact nonce issued for this session. All mutation goes
// through the session mutex, so a nonce issued after a consume can never be
// taken by a stale in-flight verification.
type Session struct {
	mu            sync.Mutex
	ID            string
	Nonce         string
	NonceIssuedAt time.Time
	Address       string
	EstablishedAt time.Time
}

// Manager stores sessions and enforces the nonce and expiry rules.
type Manager struct {
	mu       sync.RWMutex
	sessions map[string]*Session
	ttl      time.Duration
	logger   logging.Logger
}

func NewManager(ttl time.Duration, logger logging.Logger) *Manager {
	return &Manager{
		sessions: make(map[string]*Session),
		ttl:      ttl,
		logger:   logger.With("module", "sessions"),
	}
}

// NewSessionID returns a fresh opaque session identifier.
func (m *Manager) NewSessionID() string {
	return uuid.New().String()
}

// GetOrCreate returns the session for id, creating it on first use.
func (m *Manager) GetOrCreate(id string) *Session {
	m.mu.RLock()
	s, ok := m.sessions[id]
	m.mu.RUnlock()
	if ok {
		return s
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if s, ok := m.sessions[id]; ok {
		return s
	}
	s = &Session{ID: id}
	m.sessions[id] = s
	return s
}

// IssueNonce generates a fresh single-use nonce for the session,
// overwriting any pending one.
func (m *Manager) IssueNonce(s *Session) (string, error) {
	nonce, err := shared.MakeRandHexString(16)
	if err != nil {
		return "", err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.Nonce = nonce
	s.NonceIssuedAt = time.Now()

	return nonce, nil
}

// TakeNonce atomically removes and returns the pending nonce. Every
// verification attempt takes it, matched or not, so a nonce can never be
// presented twice.
func (m *Manager) TakeNonce(s *Session) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	pending := s.Nonce
	s.Nonce = ""

	return pending, pending != ""
}

// ConsumeNonce takes the pending nonce and compares it against the
// presented value in constant time.
func (m *Manager) ConsumeNonce(s *Session, presented string) bool {
	pending, ok := m.TakeNonce(s)
	if !ok || presented == "" {
		return false
	}

	return subtle.ConstantTimeCompare([]byte(pending), []byte(presented)) == 1
}

// PendingNonce returns the nonce currently awaiting verification, if any.
func (m *Manager) PendingNonce(s *Session) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.Nonce, s.Nonce != ""
}

// Establish marks the session authenticated for address. Any pending nonce
// is discarded.
func (m *Manager) Establish(s *Session, address string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Nonce = ""
	s.Address = address
	s.EstablishedAt = time.Now()
}

// Reset clears all authentication state. Used on failed verification so a
// failure never leaves partial state behind.
func (m *Manager) Reset(s *Session) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Nonce = ""
	s.Address = ""
	s.EstablishedAt = time.Time{}
}

// Authenticated returns the session's address while it is within its TTL.
func (m *Manager) Authenticated(s *Session) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.Address == "" {
		return "", false
	}
	if time.Since(s.EstablishedAt) > m.ttl {
		return "", false
	}
	return s.Address, true
}

// Destroy removes the session entirely (explicit sign-out).
func (m *Manager) Destroy(id string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, id)
}

// sweep drops sessions with neither a live nonce nor unexpired
// authentication. A nonce counts as live only within the TTL, so sessions
// abandoned after requesting a challenge do not accumulate.
func (m *Manager) sweep(ctx context.Context) {
	m.mu.Lock()
	defer m.mu.Unlock()

	removed := 0
	for id, s := range m.sessions {
		s.mu.Lock()
		stale := (s.Nonce == "" || time.Since(s.NonceIssuedAt) > m.ttl) &&
			(s.Address == "" || time.Since(s.EstablishedAt) > m.ttl)
		s.mu.Unlock()
		if stale {
			delete(m.sessions, id)
			removed++
		}
	}

	if removed > 0 {
		m.logger.Debug(ctx, "swept stale sessions", "count", removed)
	}
}

// RunCleanup periodically sweeps expired sessions until ctx is cancelled.
func (m *Manager) RunCleanup(ctx context.Context, interval time.Duration) {
	t := time.NewTicker(interval)
	defer t.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			m.sweep(ctx)
		}
	}
}
