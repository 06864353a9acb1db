package cli

import (
	"bytes"
	"context"
	"sync"
	"testing"
	"time"

	"github.com/dmitrijs2005/cryptify/internal/logging"
	"github.com/dmitrijs2005/cryptify/internal/vault"
	"github.com/stretchr/testify/assert"
)

// fakeSession only tracks authentication state.
type fakeSession struct {
	Session

	mu      sync.Mutex
	state   vault.State
	logouts int
}

func (f *fakeSession) State() vault.State {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.state
}

func (f *fakeSession) Username() string { return "alice" }

func (f *fakeSession) Logout(context.Context) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.state = vault.StateAnonymous
	f.logouts++
}

func (f *fakeSession) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.logouts
}

type syncBuffer struct {
	mu sync.Mutex
	b  bytes.Buffer
}

func (s *syncBuffer) Write(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.b.Write(p)
}

func (s *syncBuffer) String() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.b.String()
}

func TestIdleCheckInterval(t *testing.T) {
	assert.Equal(t, 10*time.Millisecond, idleCheckInterval(time.Millisecond))
	assert.Equal(t, 50*time.Millisecond, idleCheckInterval(500*time.Millisecond))
	assert.Equal(t, time.Second, idleCheckInterval(10*time.Minute))
}

func TestIdleWatcher_LogsOutAfterTimeout(t *testing.T) {
	sess := &fakeSession{state: vault.StateAuthenticated}
	out := &syncBuffer{}
	app := NewApp(sess, logging.Discard(), nil, out, 0)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := make(chan struct{})
	go func() {
		app.StartIdleWatcher(ctx, 50*time.Millisecond)
		close(done)
	}()

	assert.Eventually(t, func() bool { return sess.count() == 1 }, 2*time.Second, 10*time.Millisecond)
	assert.Contains(t, out.String(), "Logged out after 50ms of inactivity")

	time.Sleep(100 * time.Millisecond)
	assert.Equal(t, 1, sess.count(), "an anonymous session is not logged out again")

	cancel()
	<-done
}

func TestIdleWatcher_ActivityKeepsSessionOpen(t *testing.T) {
	sess := &fakeSession{state: vault.StateAuthenticated}
	app := NewApp(sess, logging.Discard(), nil, &syncBuffer{}, 0)

	var (
		mu  sync.Mutex
		now = time.Now()
	)
	app.now = func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		return now
	}
	app.markActive()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		app.StartIdleWatcher(ctx, time.Minute)
		close(done)
	}()

	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, 0, sess.count())

	mu.Lock()
	now = now.Add(2 * time.Minute)
	mu.Unlock()

	assert.Eventually(t, func() bool { return sess.count() == 1 }, 3*time.Second, 20*time.Millisecond)

	cancel()
	<-done
}
