package sessions

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/0xkotaromiyabi/decentranews-v2/internal/logging"
)

func newManager(t *testing.T, ttl time.Duration) *Manager {
	t.Helper()
	l := logging.NewSlogLogger(slog.New(slog.NewTextHandler(io.Discard, nil)))
	return NewManager(ttl, l)
}

func TestIssueAndConsumeNonce(t *testing.T) {
	m := newManager(t, time.Hour)
	s := m.GetOrCreate(m.NewSessionID())

	nonce, err := m.IssueNonce(s)
	if err != nil {
		t.Fatalf("IssueNonce error: %v", err)
	}
	if len(nonce) != 32 {
		t.Fatalf("unexpected nonce length: %d", len(nonce))
	}

	if !m.ConsumeNonce(s, nonce) {
		t.Fatal("expected consume to succeed")
	}
	if _, ok := m.PendingNonce(s); ok {
		t.Fatal("nonce must be cleared after a successful attempt")
	}
}

func TestConsumeNonce_FailureClearsNonce(t *testing.T) {
	m := newManager(t, time.Hour)
	s := m.GetOrCreate(m.NewSessionID())

	nonce, err := m.IssueNonce(s)
	if err != nil {
		t.Fatalf("IssueNonce error: %v", err)
	}

	if m.ConsumeNonce(s, "wrong-value") {
		t.Fatal("expected consume to fail")
	}
	if _, ok := m.PendingNonce(s); ok {
		t.Fatal("nonce must be cleared after a failed attempt")
	}

	// The original nonce is gone for good.
	if m.ConsumeNonce(s, nonce) {
		t.Fatal("cleared nonce must not be consumable")
	}
}

func TestIssueNonce_OverwritesPending(t *testing.T) {
	m := newManager(t, time.Hour)
	s := m.GetOrCreate(m.NewSessionID())

	first, err := m.IssueNonce(s)
	if err != nil {
		t.Fatalf("IssueNonce error: %v", err)
	}
	if _, err := m.IssueNonce(s); err != nil {
		t.Fatalf("IssueNonce error: %v", err)
	}

	if m.ConsumeNonce(s, first) {
		t.Fatal("an overwritten nonce must not be consumable")
	}
}

func TestNoncesAreSessionScoped(t *testing.T) {
	m := newManager(t, time.Hour)
	a := m.GetOrCreate(m.NewSessionID())
	b := m.GetOrCreate(m.NewSessionID())

	nonceA, err := m.IssueNonce(a)
	if err != nil {
		t.Fatalf("IssueNonce error: %v", err)
	}
	if _, err := m.IssueNonce(b); err != nil {
		t.Fatalf("IssueNonce error: %v", err)
	}

	if m.ConsumeNonce(b, nonceA) {
		t.Fatal("a nonce issued to one session must not verify another")
	}
}

func TestEstablishAndExpiry(t *testing.T) {
	m := newManager(t, 50*time.Millisecond)
	s := m.GetOrCreate(m.NewSessionID())

	m.Establish(s, "0xabc")

	if addr, ok := m.Authenticated(s); !ok || addr != "0xabc" {
		t.Fatalf("expected authenticated session, got %q %v", addr, ok)
	}

	time.Sleep(80 * time.Millisecond)

	if _, ok := m.Authenticated(s); ok {
		t.Fatal("expired session must behave as unauthenticated")
	}
}

func TestReset_FailsClosed(t *testing.T) {
	m := newManager(t, time.Hour)
	s := m.GetOrCreate(m.NewSessionID())

	m.Establish(s, "0xabc")
	if _, err := m.IssueNonce(s); err != nil {
		t.Fatalf("IssueNonce error: %v", err)
	}

	m.Reset(s)

	if _, ok := m.Authenticated(s); ok {
		t.Fatal("reset session must be unauthenticated")
	}
	if _, ok := m.PendingNonce(s); ok {
		t.Fatal("reset session must have no pending nonce")
	}
}

func TestDestroy(t *testing.T) {
	m := newManager(t, time.Hour)
	id := m.NewSessionID()
	s := m.GetOrCreate(id)
	m.Establish(s, "0xabc")

	m.Destroy(id)

	fresh := m.GetOrCreate(id)
	if _, ok := m.Authenticated(fresh); ok {
		t.Fatal("destroyed session must not come back authenticated")
	}
}

// Two racing verification attempts against one nonce: exactly one wins.
func TestConsumeNonce_SingleWinnerUnderRace(t *testing.T) {
	m := newManager(t, time.Hour)
	s := m.GetOrCreate(m.NewSessionID())

	nonce, err := m.IssueNonce(s)
	if err != nil {
		t.Fatalf("IssueNonce error: %v", err)
	}

	const attempts = 16
	var wg sync.WaitGroup
	results := make(chan bool, attempts)

	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			results <- m.ConsumeNonce(s, nonce)
		}()
	}
	wg.Wait()
	close(results)

	wins := 0
	for ok := range results {
		if ok {
			wins++
		}
	}
	if wins != 1 {
		t.Fatalf("expected exactly one winner, got %d", wins)
	}
}

func TestSweep_RemovesExpired(t *testing.T) {
	m := newManager(t, 10*time.Millisecond)
	id := m.NewSessionID()
	s := m.GetOrCreate(id)
	m.Establish(s, "0xabc")

	time.Sleep(20 * time.Millisecond)
	m.sweep(context.Background())

	m.mu.RLock()
	_, ok := m.sessions[id]
	m.mu.RUnlock()
	if ok {
		t.Fatal("expired session should have been swept")
	}
}

// A visitor who requests a nonce and never verifies must not occupy the
// store forever; a freshly issued nonce must survive the sweep.
func TestSweep_RemovesAbandonedNonceSessions(t *testing.T) {
	m := newManager(t, 10*time.Millisecond)

	abandonedID := m.NewSessionID()
	if _, err := m.IssueNonce(m.GetOrCreate(abandonedID)); err != nil {
		t.Fatalf("IssueNonce error: %v", err)
	}

	time.Sleep(20 * time.Millisecond)

	pendingID := m.NewSessionID()
	if _, err := m.IssueNonce(m.GetOrCreate(pendingID)); err != nil {
		t.Fatalf("IssueNonce error: %v", err)
	}

	m.sweep(context.Background())

	m.mu.RLock()
	_, abandoned := m.sessions[abandonedID]
	_, pending := m.sessions[pendingID]
	m.mu.RUnlock()

	if abandoned {
		t.Fatal("abandoned nonce-only session should have been swept")
	}
	if !pending {
		t.Fatal("session with a live nonce must survive the sweep")
	}
}
