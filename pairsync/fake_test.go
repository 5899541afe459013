package pairsync

import (
	"sync"

	"github.com/maskline/maskline/domain"
	"github.com/maskline/maskline/player"
)

// callLog records transport calls across both fakes so tests can assert
// ordering between the primary and the follower.
type callLog struct {
	mu    sync.Mutex
	calls []string
}

func (l *callLog) add(call string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.calls = append(l.calls, call)
}

func (l *callLog) snapshot() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]string, len(l.calls))
	copy(out, l.calls)
	return out
}

// fakeHandle is an in-memory MediaHandle for driving the gate, corrector
// and coordinator without a decoder.
type fakeHandle struct {
	name string
	log  *callLog

	mu       sync.Mutex
	ready    domain.ReadyState
	err      *domain.MediaError
	position float64
	duration float64
	playing  bool
	seeks    []float64
	seekErr  error
	cleanups int

	events chan player.Event
}

func newFakeHandle(name string, log *callLog) *fakeHandle {
	return &fakeHandle{
		name:     name,
		log:      log,
		duration: 100,
		events:   make(chan player.Event, 16),
	}
}

func (f *fakeHandle) Name() string { return f.name }

func (f *fakeHandle) Load() error {
	if f.log != nil {
		f.log.add("load:" + f.name)
	}
	return nil
}

func (f *fakeHandle) Play() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.playing = true
	if f.log != nil {
		f.log.add("play:" + f.name)
	}
	return nil
}

func (f *fakeHandle) Pause() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.playing = false
	if f.log != nil {
		f.log.add("pause:" + f.name)
	}
	return nil
}

func (f *fakeHandle) Seek(seconds float64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.seekErr != nil {
		return f.seekErr
	}
	if seconds < 0 {
		seconds = 0
	}
	if seconds > f.duration {
		seconds = f.duration
	}
	f.position = seconds
	f.seeks = append(f.seeks, seconds)
	if f.log != nil {
		f.log.add("seek:" + f.name)
	}
	return nil
}

func (f *fakeHandle) Position() (float64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.position, nil
}

func (f *fakeHandle) Duration() (float64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.duration, nil
}

func (f *fakeHandle) ReadyState() domain.ReadyState {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.ready
}

func (f *fakeHandle) LastError() *domain.MediaError {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.err
}

func (f *fakeHandle) Events() <-chan player.Event { return f.events }

func (f *fakeHandle) Cleanup() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.cleanups++
}

func (f *fakeHandle) cleanupCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.cleanups
}

func (f *fakeHandle) setPosition(seconds float64) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.position = seconds
}

func (f *fakeHandle) isPlaying() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.playing
}

func (f *fakeHandle) seekHistory() []float64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]float64, len(f.seeks))
	copy(out, f.seeks)
	return out
}

// setReady updates the readiness ordinal and emits a readiness event, the
// way a decoder callback would.
func (f *fakeHandle) setReady(state domain.ReadyState) {
	f.mu.Lock()
	f.ready = state
	f.mu.Unlock()
	f.events <- player.Event{Kind: player.EventReadiness, Ready: state}
}

// fail puts the handle into an error state and emits the error event.
func (f *fakeHandle) fail(kind domain.ErrorKind, message string) {
	mediaErr := &domain.MediaError{Kind: kind, Source: f.name, Message: message}
	f.mu.Lock()
	f.err = mediaErr
	f.mu.Unlock()
	f.events <- player.Event{Kind: player.EventError, Err: mediaErr}
}
