package mpvplayer

import (
	"fmt"

	"github.com/wildeyedskies/go-mpv/mpv"

	"github.com/maskline/maskline/domain"
)

// FutureDataCacheSeconds is the demuxer lookahead at which a stream is
// considered buffered enough to play without immediately stalling.
const FutureDataCacheSeconds = 0.5

// Handle wraps one libmpv instance driving a single video stream.
type Handle struct {
	*mpv.Mpv
	Name string
	URI  string
}

// GetPosition returns the current playback position in seconds.
func (h *Handle) GetPosition() (float64, error) {
	pos, err := h.GetProperty("time-pos", mpv.FORMAT_DOUBLE)
	if err != nil {
		return 0, err
	}
	return pos.(float64), nil
}

// GetDuration returns the total duration in seconds, or an error while the
// duration is still unknown.
func (h *Handle) GetDuration() (float64, error) {
	duration, err := h.GetProperty("duration", mpv.FORMAT_DOUBLE)
	if err != nil {
		return 0, err
	}
	return duration.(float64), nil
}

// IsFileLoaded reports whether a file is currently loaded.
func (h *Handle) IsFileLoaded() (bool, error) {
	idle, err := h.GetProperty("idle-active", mpv.FORMAT_FLAG)
	if err != nil {
		return false, err
	}
	return !idle.(bool), nil
}

// IsPaused reports whether playback is paused.
func (h *Handle) IsPaused() (bool, error) {
	pause, err := h.GetProperty("pause", mpv.FORMAT_FLAG)
	if err != nil {
		return false, err
	}
	return pause.(bool), nil
}

// CacheSeconds returns the buffered demuxer lookahead in seconds.
func (h *Handle) CacheSeconds() (float64, error) {
	cache, err := h.GetProperty("demuxer-cache-duration", mpv.FORMAT_DOUBLE)
	if err != nil {
		return 0, err
	}
	return cache.(float64), nil
}

// BufferingPercent returns the cache buffering state, 0-100.
func (h *Handle) BufferingPercent() (int64, error) {
	state, err := h.GetProperty("cache-buffering-state", mpv.FORMAT_INT64)
	if err != nil {
		return 0, err
	}
	return state.(int64), nil
}

// Load starts loading the handle's source. Playback stays paused until the
// coordinator explicitly unpauses.
func (h *Handle) Load() error {
	return h.Command([]string{"loadfile", h.URI})
}

// SetPause sets the pause flag explicitly. Unlike a pause toggle this is
// idempotent, which the transport contract requires.
func (h *Handle) SetPause(paused bool) error {
	v := "no"
	if paused {
		v = "yes"
	}
	return h.Command([]string{"set", "pause", v})
}

// SeekTo seeks to an absolute position in seconds.
func (h *Handle) SeekTo(seconds float64) error {
	return h.Command([]string{"seek", fmt.Sprintf("%.3f", seconds), "absolute"})
}

// Stop stops playback and unloads the current file.
func (h *Handle) Stop() error {
	return h.Command([]string{"stop"})
}

// ReadyState derives the readiness ordinal from the observed properties.
// The ladder only climbs as far as the properties can prove.
func (h *Handle) ReadyState() domain.ReadyState {
	loaded, err := h.IsFileLoaded()
	if err != nil || !loaded {
		return domain.ReadyNoData
	}
	if _, err := h.GetDuration(); err != nil {
		return domain.ReadyNoData
	}

	cache, cacheErr := h.CacheSeconds()
	buffering, bufErr := h.BufferingPercent()

	if bufErr == nil && buffering >= 100 {
		return domain.ReadyEnough
	}
	if cacheErr == nil && cache >= FutureDataCacheSeconds {
		return domain.ReadyFuture
	}
	if cacheErr == nil && cache > 0 {
		return domain.ReadyCurrent
	}
	return domain.ReadyMetadata
}

// CreateInstance creates and initializes a libmpv instance for one stream.
// Video output is disabled: mpv acts as decoder and clock, the preview
// pipeline does its own rendering.
func CreateInstance(opts domain.HandleOptions) (*mpv.Mpv, error) {
	instance := mpv.Create()

	instance.SetOptionString("vo", "null")
	instance.SetOptionString("audio-display", "no")
	instance.SetOptionString("pause", "yes")
	if opts.Muted {
		instance.SetOptionString("mute", "yes")
	}
	if opts.Loop {
		instance.SetOptionString("loop-file", "inf")
	}
	if opts.KeepOpen {
		instance.SetOptionString("keep-open", "yes")
	}
	instance.ObserveProperty(0, "cache-buffering-state", mpv.FORMAT_INT64)
	instance.ObserveProperty(0, "demuxer-cache-duration", mpv.FORMAT_INT64)

	err := instance.Initialize()
	if err != nil {
		instance.TerminateDestroy()
		return nil, err
	}
	return instance, nil
}
