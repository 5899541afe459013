package ui

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/maskline/maskline/config"
	"github.com/maskline/maskline/domain"
	"github.com/maskline/maskline/pairsync"
	"github.com/maskline/maskline/player"
)

// stubHandle is a minimal in-memory MediaHandle for driving a coordinator
// under the UI without a decoder.
type stubHandle struct {
	name string

	mu    sync.Mutex
	ready domain.ReadyState
	err   *domain.MediaError
	pos   float64

	events chan player.Event
}

func newStubHandle(name string) *stubHandle {
	return &stubHandle{
		name:   name,
		events: make(chan player.Event, 16),
	}
}

func (s *stubHandle) Name() string       { return s.name }
func (s *stubHandle) Load() error        { return nil }
func (s *stubHandle) Play() error        { return nil }
func (s *stubHandle) Pause() error       { return nil }
func (s *stubHandle) Seek(float64) error { return nil }
func (s *stubHandle) Cleanup()           {}

func (s *stubHandle) Position() (float64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pos, nil
}

func (s *stubHandle) Duration() (float64, error) { return 100, nil }

func (s *stubHandle) ReadyState() domain.ReadyState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ready
}

func (s *stubHandle) LastError() *domain.MediaError {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

func (s *stubHandle) Events() <-chan player.Event { return s.events }

func (s *stubHandle) setReady(state domain.ReadyState) {
	s.mu.Lock()
	s.ready = state
	s.mu.Unlock()
	s.events <- player.Event{Kind: player.EventReadiness, Ready: state}
}

func (s *stubHandle) fail(message string) {
	mediaErr := &domain.MediaError{
		Kind:    domain.ErrSourceUnavailable,
		Source:  s.name,
		Message: message,
	}
	s.mu.Lock()
	s.err = mediaErr
	s.mu.Unlock()
	s.events <- player.Event{Kind: player.EventError, Err: mediaErr}
}

func newStubCoordinator(t *testing.T) (*pairsync.Coordinator, *stubHandle, *stubHandle) {
	t.Helper()
	content := newStubHandle("content")
	mask := newStubHandle("mask")
	c := pairsync.NewCoordinator(pairsync.SyncPair{Primary: content, Follower: mask}, time.Hour, 0.1)
	t.Cleanup(c.Close)

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	require.NoError(t, c.Start(ctx))
	return c, content, mask
}

func TestWatchStateCatchesUpEarlyReadiness(t *testing.T) {
	c, content, mask := newStubCoordinator(t)

	// The pair goes Ready before the UI subscribes.
	content.setReady(domain.ReadyFuture)
	mask.setReady(domain.ReadyFuture)
	require.Eventually(t, func() bool {
		return c.State() == domain.SyncReady
	}, time.Second, 10*time.Millisecond)

	app := NewApp(context.Background(), config.DefaultConfig(), c, nil, nil)
	app.watchState()

	state, _ := app.status.Get()
	assert.Equal(t, domain.SyncReady, state, "readiness before subscription must still be reflected")

	// Later transitions flow through the callback as usual.
	require.NoError(t, c.Play())
	require.Eventually(t, func() bool {
		state, _ := app.status.Get()
		return state == domain.SyncPlaying
	}, time.Second, 10*time.Millisecond)
}

func TestWatchStateCatchesUpEarlyError(t *testing.T) {
	c, content, mask := newStubCoordinator(t)

	content.setReady(domain.ReadyFuture)
	mask.setReady(domain.ReadyFuture)
	mask.fail("mask stream went away")
	require.Eventually(t, func() bool {
		return c.State() == domain.SyncError
	}, time.Second, 10*time.Millisecond)

	app := NewApp(context.Background(), config.DefaultConfig(), c, nil, nil)
	app.watchState()

	state, lastError := app.status.Get()
	assert.Equal(t, domain.SyncError, state)
	assert.Contains(t, lastError, "mask stream went away")
}

func TestWatchStateKeepsWelcomeBeforeFirstTransition(t *testing.T) {
	c, _, _ := newStubCoordinator(t)

	app := NewApp(context.Background(), config.DefaultConfig(), c, nil, nil)
	app.watchState()

	state, _ := app.status.Get()
	assert.Equal(t, domain.SyncNotReady, state)
}
