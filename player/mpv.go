package player

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/wildeyedskies/go-mpv/mpv"

	"github.com/maskline/maskline/domain"
	"github.com/maskline/maskline/mpvplayer"
)

// MPVHandle implements MediaHandle on top of a dedicated libmpv instance.
type MPVHandle struct {
	handle      *mpvplayer.Handle
	events      chan Event
	cleanupOnce sync.Once

	mu        sync.RWMutex
	lastReady domain.ReadyState
	lastError *domain.MediaError
}

// NewMPVHandle creates a media handle for one source locator. The handle
// starts in the NoData state; call Load to begin decoding.
func NewMPVHandle(ctx context.Context, name, uri string, opts domain.HandleOptions) (*MPVHandle, error) {
	instance, err := mpvplayer.CreateInstance(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to create mpv instance for %s: %w", name, err)
	}

	h := &MPVHandle{
		handle: &mpvplayer.Handle{
			Mpv:  instance,
			Name: name,
			URI:  uri,
		},
		events:    make(chan Event, 16),
		lastReady: domain.ReadyNoData,
	}
	go h.eventLoop(ctx)
	return h, nil
}

// Name identifies the handle in logs and errors.
func (h *MPVHandle) Name() string {
	return h.handle.Name
}

// Load begins asynchronous loading of the source.
func (h *MPVHandle) Load() error {
	if err := h.handle.Load(); err != nil {
		return fmt.Errorf("failed to load %s: %w", h.handle.URI, err)
	}
	return nil
}

// Play unpauses the stream. The unpause settles asynchronously inside mpv;
// a source that subsequently fails reports through the event channel.
func (h *MPVHandle) Play() error {
	if err := h.LastError(); err != nil {
		return err
	}
	loaded, err := h.handle.IsFileLoaded()
	if err != nil || !loaded {
		return &domain.MediaError{
			Kind:    domain.ErrPlaybackRejected,
			Source:  h.handle.URI,
			Message: "no media loaded",
		}
	}
	// Already unpaused means a previous play settled; nothing to issue.
	if paused, err := h.handle.IsPaused(); err == nil && !paused {
		return nil
	}
	return h.handle.SetPause(false)
}

// Pause pauses the stream. Idempotent: setting pause on an already paused
// stream is a no-op inside mpv.
func (h *MPVHandle) Pause() error {
	return h.handle.SetPause(true)
}

// Seek moves to an absolute position, clamped to the known duration.
func (h *MPVHandle) Seek(seconds float64) error {
	if seconds < 0 {
		seconds = 0
	}
	if duration, err := h.handle.GetDuration(); err == nil && seconds > duration {
		seconds = duration
	}
	return h.handle.SeekTo(seconds)
}

// Position returns the current playback position in seconds.
func (h *MPVHandle) Position() (float64, error) {
	return h.handle.GetPosition()
}

// Duration returns the total duration in seconds, if known.
func (h *MPVHandle) Duration() (float64, error) {
	return h.handle.GetDuration()
}

// ReadyState returns the most recently derived readiness ordinal.
func (h *MPVHandle) ReadyState() domain.ReadyState {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.lastReady
}

// LastError returns the most recent media error, or nil.
func (h *MPVHandle) LastError() *domain.MediaError {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if h.lastError == nil {
		return nil
	}
	return h.lastError
}

// Events returns the channel of readiness and error notifications.
func (h *MPVHandle) Events() <-chan Event {
	return h.events
}

// Cleanup terminates the mpv instance and releases decoder resources. The
// instance is destroyed at most once; repeated calls are no-ops, since
// touching a destroyed libmpv handle is a use-after-free.
func (h *MPVHandle) Cleanup() {
	h.cleanupOnce.Do(func() {
		defer func() {
			if r := recover(); r != nil {
				logrus.WithFields(logrus.Fields{
					"handle": h.handle.Name,
					"panic":  r,
				}).Warn("recovered during mpv cleanup")
			}
		}()
		h.handle.Stop()
		h.handle.TerminateDestroy()
	})
}

// eventLoop pumps mpv events and translates them into handle events. Every
// event that can move the readiness ladder triggers a re-derivation; only
// actual transitions are forwarded.
func (h *MPVHandle) eventLoop(ctx context.Context) {
	defer close(h.events)
	for {
		select {
		case <-ctx.Done():
			return
		default:
			e := h.handle.WaitEvent(1)
			if e == nil {
				time.Sleep(10 * time.Millisecond)
				continue
			}
			switch e.Event_Id {
			case mpv.EVENT_SHUTDOWN:
				return
			case mpv.EVENT_END_FILE:
				h.handleEndFile(ctx)
			case mpv.EVENT_FILE_LOADED, mpv.EVENT_PROPERTY_CHANGE,
				mpv.EVENT_PLAYBACK_RESTART, mpv.EVENT_SEEK:
				h.refreshReadiness(ctx)
			}
		}
	}
}

// handleEndFile distinguishes a load failure from a normal end of stream:
// a stream that ends before ever reporting metadata never decoded at all.
func (h *MPVHandle) handleEndFile(ctx context.Context) {
	h.mu.Lock()
	failed := h.lastReady < domain.ReadyMetadata && h.lastError == nil
	if failed {
		h.lastError = &domain.MediaError{
			Kind:    domain.ErrSourceUnavailable,
			Source:  h.handle.URI,
			Message: fmt.Sprintf("failed to open %s", h.handle.URI),
		}
	}
	mediaErr := h.lastError
	h.mu.Unlock()

	if failed {
		logrus.WithFields(logrus.Fields{
			"handle": h.handle.Name,
			"source": h.handle.URI,
		}).Error("media source failed to load")
		h.emit(ctx, Event{Kind: EventError, Err: mediaErr})
		return
	}
	h.refreshReadiness(ctx)
}

// refreshReadiness re-derives the readiness ordinal from the handle's
// observed properties and emits a readiness event on change.
func (h *MPVHandle) refreshReadiness(ctx context.Context) {
	state := h.handle.ReadyState()

	h.mu.Lock()
	changed := state != h.lastReady
	h.lastReady = state
	h.mu.Unlock()

	if !changed {
		return
	}
	logrus.WithFields(logrus.Fields{
		"handle": h.handle.Name,
		"ready":  state.String(),
	}).Debug("readiness changed")
	h.emit(ctx, Event{Kind: EventReadiness, Ready: state})
}

func (h *MPVHandle) emit(ctx context.Context, ev Event) {
	select {
	case h.events <- ev:
	case <-ctx.Done():
	}
}
