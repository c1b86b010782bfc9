package session_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/landtube/landtube-go/internal/session"
	"github.com/landtube/landtube-go/internal/session/sessiontest"
	"github.com/landtube/landtube-go/internal/watchgate"
)

func newManager(b session.Backend, opts ...session.ManagerOption) *session.Manager {
	base := []session.ManagerOption{
		session.WithControllerOptions(
			session.WithWatchThreshold(1),
			session.WithGateOptions(watchgate.WithInterval(time.Millisecond)),
		),
	}
	return session.NewManager(b, append(base, opts...)...)
}

func TestManager_OpenReplacesExistingSession(t *testing.T) {
	b := sessiontest.NewBackend(sessiontest.FiveVideos()...)
	m := newManager(b)
	defer m.CloseAll()

	first, err := m.Open(context.Background(), testUser)
	if err != nil {
		t.Fatal(err)
	}
	second, err := m.Open(context.Background(), testUser)
	if err != nil {
		t.Fatal(err)
	}

	if first.Phase() != session.PhaseClosed {
		t.Errorf("old session phase = %q, want closed", first.Phase())
	}
	got, ok := m.Get(testUser)
	if !ok || got != second {
		t.Error("Get should return the newest session")
	}
	if m.Len() != 1 {
		t.Errorf("len = %d, want 1", m.Len())
	}
}

func TestManager_TerminalOutcomesAreNotKept(t *testing.T) {
	b := sessiontest.NewBackend(sessiontest.FiveVideos()...)
	b.List.IsCompleted = true

	var outcomes []session.Phase
	m := newManager(b, session.WithLoadObserver(func(p session.Phase) {
		outcomes = append(outcomes, p)
	}))

	c, err := m.Open(context.Background(), testUser)
	if !errors.Is(err, session.ErrAlreadyCompleted) {
		t.Fatalf("err = %v, want ErrAlreadyCompleted", err)
	}
	if c.Phase() != session.PhaseAlreadyCompleted {
		t.Errorf("phase = %q, want already_completed", c.Phase())
	}
	if _, ok := m.Get(testUser); ok {
		t.Error("terminal session should not be kept")
	}
	if len(outcomes) != 1 || outcomes[0] != session.PhaseAlreadyCompleted {
		t.Errorf("observed outcomes = %v", outcomes)
	}
}

func TestManager_Close(t *testing.T) {
	b := sessiontest.NewBackend(sessiontest.FiveVideos()...)
	m := newManager(b)

	c, err := m.Open(context.Background(), testUser)
	if err != nil {
		t.Fatal(err)
	}
	if !m.Close(testUser) {
		t.Error("Close should report an existing session")
	}
	if c.Phase() != session.PhaseClosed {
		t.Errorf("phase = %q, want closed", c.Phase())
	}
	if m.Close(testUser) {
		t.Error("second Close should report nothing to close")
	}
}

func TestManager_ReleaseIgnoresReplacedSession(t *testing.T) {
	b := sessiontest.NewBackend(sessiontest.FiveVideos()...)
	m := newManager(b)
	defer m.CloseAll()

	old, _ := m.Open(context.Background(), testUser)
	current, _ := m.Open(context.Background(), testUser)

	m.Release(testUser, old)
	if got, ok := m.Get(testUser); !ok || got != current {
		t.Error("releasing a replaced session removed the current one")
	}
	m.Release(testUser, current)
	if _, ok := m.Get(testUser); ok {
		t.Error("release should drop the current session")
	}
}

func TestManager_SweepClosesIdleSessions(t *testing.T) {
	b := sessiontest.NewBackend(sessiontest.FiveVideos()...)
	m := newManager(b, session.WithIdleTTL(time.Minute))

	c, err := m.Open(context.Background(), testUser)
	if err != nil {
		t.Fatal(err)
	}

	if n := m.Sweep(time.Now()); n != 0 {
		t.Errorf("swept %d fresh sessions, want 0", n)
	}
	if n := m.Sweep(time.Now().Add(2 * time.Minute)); n != 1 {
		t.Errorf("swept %d, want 1", n)
	}
	if c.Phase() != session.PhaseClosed {
		t.Errorf("phase = %q, want closed", c.Phase())
	}
	if m.Len() != 0 {
		t.Errorf("len = %d, want 0", m.Len())
	}
}

func TestManager_SweeperStops(t *testing.T) {
	m := newManager(sessiontest.NewBackend(sessiontest.FiveVideos()...))

	done := make(chan struct{})
	go func() {
		m.StartSweeper(context.Background(), time.Millisecond)
		close(done)
	}()

	m.StopSweeper()
	m.StopSweeper()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("sweeper did not stop")
	}
}
