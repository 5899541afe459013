package domain

import (
	"sync"
	"time"
)

// ReadyState is the ordinal buffering state of a single media handle,
// mirroring the readiness ladder the underlying decoder reports.
type ReadyState int

const (
	ReadyNoData   ReadyState = iota // no media loaded
	ReadyMetadata                   // duration/resolution known
	ReadyCurrent                    // data for the current position only
	ReadyFuture                     // enough buffered to play without stalling
	ReadyEnough                     // buffering complete
)

// String returns a human-readable label for the ready state.
func (s ReadyState) String() string {
	switch s {
	case ReadyNoData:
		return "NoData"
	case ReadyMetadata:
		return "Metadata"
	case ReadyCurrent:
		return "CurrentData"
	case ReadyFuture:
		return "FutureData"
	case ReadyEnough:
		return "EnoughData"
	default:
		return "Unknown"
	}
}

// SyncState is the state of a synchronized pair as a whole.
type SyncState int

const (
	SyncNotReady SyncState = iota
	SyncReady
	SyncPlaying
	SyncPaused
	SyncError
)

// String returns a human-readable label for the sync state.
func (s SyncState) String() string {
	switch s {
	case SyncNotReady:
		return "NotReady"
	case SyncReady:
		return "Ready"
	case SyncPlaying:
		return "Playing"
	case SyncPaused:
		return "Paused"
	case SyncError:
		return "Error"
	default:
		return "Unknown"
	}
}

// HandleOptions configures a media handle at creation time. Autoplay is
// intentionally absent: the coordinator is the only component allowed to
// start playback.
type HandleOptions struct {
	Muted bool
	Loop  bool
	// KeepOpen keeps the last frame displayed instead of unloading at EOF,
	// so a paused pair at the end of the stream stays seekable.
	KeepOpen bool
}

// DriftMeasurement is one observation of positional divergence between the
// primary and follower handles. Ephemeral; recomputed every corrector tick.
type DriftMeasurement struct {
	DeltaSeconds float64
	ObservedAt   time.Time
}

// ErrorKind classifies a media handle failure.
type ErrorKind int

const (
	ErrSourceUnavailable ErrorKind = iota
	ErrUnsupportedFormat
	ErrPlaybackRejected
)

// String returns a human-readable label for the error kind.
func (k ErrorKind) String() string {
	switch k {
	case ErrSourceUnavailable:
		return "source unavailable"
	case ErrUnsupportedFormat:
		return "unsupported format"
	case ErrPlaybackRejected:
		return "playback rejected"
	default:
		return "media error"
	}
}

// MediaError is a handle-level failure carrying a human-readable cause.
// It is delivered as state through handle events, never as a panic.
type MediaError struct {
	Kind    ErrorKind
	Source  string
	Message string
}

// Error implements the error interface.
func (e *MediaError) Error() string {
	if e.Message == "" {
		return e.Kind.String()
	}
	return e.Kind.String() + ": " + e.Message
}

// PairStatus manages the observable state of a sync pair in a thread-safe
// manner for the presentation layer.
type PairStatus struct {
	state     SyncState
	lastError string
	position  float64
	duration  float64
	mux       sync.RWMutex
}

// NewPairStatus creates a PairStatus in the NotReady state.
func NewPairStatus() *PairStatus {
	return &PairStatus{state: SyncNotReady}
}

// Get returns the current pair state and the last error message (thread-safe).
func (s *PairStatus) Get() (state SyncState, lastError string) {
	s.mux.RLock()
	defer s.mux.RUnlock()
	return s.state, s.lastError
}

// Progress returns the cached playback position and duration (thread-safe).
func (s *PairStatus) Progress() (position, duration float64) {
	s.mux.RLock()
	defer s.mux.RUnlock()
	return s.position, s.duration
}

// SetState updates the pair state (thread-safe).
func (s *PairStatus) SetState(state SyncState) {
	s.mux.Lock()
	defer s.mux.Unlock()
	s.state = state
}

// SetError records an error message and moves the pair to the Error state
// (thread-safe).
func (s *PairStatus) SetError(message string) {
	s.mux.Lock()
	defer s.mux.Unlock()
	s.state = SyncError
	s.lastError = message
}

// SetProgress updates the cached position and duration (thread-safe).
func (s *PairStatus) SetProgress(position, duration float64) {
	s.mux.Lock()
	defer s.mux.Unlock()
	s.position = position
	s.duration = duration
}
