package player

import (
	"github.com/maskline/maskline/domain"
)

// EventKind discriminates handle events.
type EventKind int

const (
	// EventReadiness signals that the handle's ReadyState changed.
	EventReadiness EventKind = iota
	// EventError signals that the handle entered an error state.
	EventError
)

// Event is an asynchronous notification from a media handle. Errors are
// delivered as state here; they never escape the subscriber boundary as
// panics.
type Event struct {
	Kind  EventKind
	Ready domain.ReadyState
	Err   *domain.MediaError
}

// MediaHandle wraps one playable media source behind the transport
// operations the sync pair needs. Implementations are exclusively owned by
// the component that created them; only transport calls and the decoder's
// own asynchronous callbacks mutate a handle.
type MediaHandle interface {
	// Name identifies the handle in logs and errors ("content", "mask").
	Name() string

	// Load begins asynchronous loading of the source. Readiness progress is
	// reported through Events.
	Load() error

	// Play begins playback. It fails with a MediaError if the source has
	// errored or no media is loaded; the actual start settles asynchronously.
	Play() error

	// Pause pauses playback. Always succeeds and is idempotent.
	Pause() error

	// Seek moves to an absolute position in seconds, clamped to
	// [0, duration] when the duration is known.
	Seek(seconds float64) error

	// Position returns the current playback position in seconds.
	Position() (float64, error)

	// Duration returns the total duration in seconds, if known.
	Duration() (float64, error)

	// ReadyState returns the current readiness ordinal.
	ReadyState() domain.ReadyState

	// LastError returns the most recent media error, or nil.
	LastError() *domain.MediaError

	// Events returns the channel of readiness and error notifications.
	Events() <-chan Event

	// Cleanup releases decoder resources. The handle is unusable afterwards.
	Cleanup()
}
