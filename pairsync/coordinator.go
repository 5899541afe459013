package pairsync

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/maskline/maskline/domain"
)

var (
	// ErrNotReady is returned for transport operations issued before both
	// handles are playable.
	ErrNotReady = errors.New("pair is not ready")
	// ErrPairFailed is returned once the pair has entered its terminal
	// error state; a full reconstruction is required to retry.
	ErrPairFailed = errors.New("pair has failed")
)

// Coordinator orchestrates start, stop and seek as atomic-as-possible dual
// operations over a sync pair, owns the drift corrector's lifecycle, and
// exposes a single synchronized-transport contract to the presentation
// layer. Every state transition, including the corrector start or stop it
// implies, happens in one locked critical section, so transitions are safe
// from any goroutine and the corrector can never outlive the Playing state
// that started it.
type Coordinator struct {
	pair      SyncPair
	gate      *ReadinessGate
	corrector *DriftCorrector

	mu        sync.Mutex
	state     domain.SyncState
	lastError *domain.MediaError
	started   bool
	closeOnce sync.Once

	onState func(state domain.SyncState)
}

// NewCoordinator creates a coordinator over the pair. interval and threshold
// tune the drift corrector; zero values select the defaults.
func NewCoordinator(pair SyncPair, interval time.Duration, threshold float64) *Coordinator {
	c := &Coordinator{
		pair:      pair,
		corrector: NewDriftCorrector(pair, interval, threshold),
		state:     domain.SyncNotReady,
	}
	c.gate = NewReadinessGate(pair, c.onGateChange, c.onHandleError)
	return c
}

// SetStateCallback registers a callback fired after every state transition.
// The callback runs outside the coordinator lock, so it may call back into
// transport methods.
func (c *Coordinator) SetStateCallback(fn func(state domain.SyncState)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onState = fn
}

// Start loads both sources and begins watching readiness. The pair becomes
// Ready through the gate once both handles report FutureData.
func (c *Coordinator) Start(ctx context.Context) error {
	if err := c.pair.Primary.Load(); err != nil {
		return err
	}
	if err := c.pair.Follower.Load(); err != nil {
		return err
	}
	c.gate.Watch(ctx)
	return nil
}

// State returns the current pair state.
func (c *Coordinator) State() domain.SyncState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// LastError returns the error that failed the pair, or nil.
func (c *Coordinator) LastError() *domain.MediaError {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastError
}

// Progress returns the primary handle's position and duration. The primary
// is the pair's reference clock, so its progress is the pair's progress.
func (c *Coordinator) Progress() (position, duration float64) {
	position, _ = c.pair.Primary.Position()
	duration, _ = c.pair.Primary.Duration()
	return position, duration
}

// Drift returns the corrector's most recent measurement.
func (c *Coordinator) Drift() domain.DriftMeasurement {
	return c.corrector.LastMeasurement()
}

// Play starts synchronized playback. It fails with ErrNotReady unless the
// pair is Ready or Paused, and is a no-op while already Playing. Both
// handles are aligned to the same start position (zero on first play, the
// primary's position on resume), the primary is started first, and the
// drift corrector begins ticking.
func (c *Coordinator) Play() error {
	c.mu.Lock()
	switch c.state {
	case domain.SyncPlaying:
		c.mu.Unlock()
		return nil
	case domain.SyncError:
		c.mu.Unlock()
		return ErrPairFailed
	case domain.SyncReady, domain.SyncPaused:
	default:
		c.mu.Unlock()
		return ErrNotReady
	}

	target := 0.0
	if c.state == domain.SyncPaused || c.started {
		if pos, err := c.pair.Primary.Position(); err == nil {
			target = pos
		}
	}

	// Align both handles before either starts; the issued plays settle
	// asynchronously and the corrector absorbs whatever offset remains.
	if err := c.pair.Primary.Seek(target); err != nil {
		logrus.WithError(err).Warn("primary start alignment failed")
	}
	if err := c.pair.Follower.Seek(target); err != nil {
		logrus.WithError(err).Warn("follower start alignment failed")
	}

	// Primary first: follower correction depends on the primary already
	// running as master clock.
	if err := c.pair.Primary.Play(); err != nil {
		c.mu.Unlock()
		return err
	}
	if err := c.pair.Follower.Play(); err != nil {
		c.pair.Primary.Pause()
		c.mu.Unlock()
		return err
	}

	c.started = true
	c.state = domain.SyncPlaying
	// Inside the critical section: a concurrent Pause serializes behind
	// this transition and cannot observe Playing without the corrector.
	c.corrector.Start()
	notify := c.onState
	c.mu.Unlock()

	logrus.WithFields(logrus.Fields{"position": target}).Info("synchronized playback started")
	if notify != nil {
		notify(domain.SyncPlaying)
	}
	return nil
}

// Pause stops synchronized playback. The corrector is stopped before either
// handle is touched so no correction can race the pause. Idempotent while
// already Paused.
func (c *Coordinator) Pause() error {
	c.mu.Lock()
	if c.state == domain.SyncError {
		c.mu.Unlock()
		return ErrPairFailed
	}
	if c.state != domain.SyncPlaying {
		c.mu.Unlock()
		return nil
	}

	// Corrector first, still inside the critical section: no correction
	// tick can land after the handles pause, and a concurrent Play cannot
	// restart the corrector against a pair about to be paused.
	c.corrector.Stop()

	if err := c.pair.Primary.Pause(); err != nil {
		logrus.WithError(err).Warn("primary pause failed")
	}
	if err := c.pair.Follower.Pause(); err != nil {
		logrus.WithError(err).Warn("follower pause failed")
	}
	c.state = domain.SyncPaused
	notify := c.onState
	c.mu.Unlock()

	logrus.Info("synchronized playback paused")
	if notify != nil {
		notify(domain.SyncPaused)
	}
	return nil
}

// Seek moves both handles to the same clamped timestamp. While Playing,
// drift correction is suppressed for one tick so the just-issued seek is not
// immediately corrected against.
func (c *Coordinator) Seek(seconds float64) error {
	c.mu.Lock()
	switch c.state {
	case domain.SyncError:
		c.mu.Unlock()
		return ErrPairFailed
	case domain.SyncNotReady:
		c.mu.Unlock()
		return ErrNotReady
	}
	playing := c.state == domain.SyncPlaying
	c.mu.Unlock()

	if seconds < 0 {
		seconds = 0
	}
	if duration, err := c.pair.Primary.Duration(); err == nil && seconds > duration {
		seconds = duration
	}

	if playing {
		c.corrector.SuppressNextTick()
	}
	if err := c.pair.Primary.Seek(seconds); err != nil {
		return err
	}
	if err := c.pair.Follower.Seek(seconds); err != nil {
		return err
	}
	logrus.WithFields(logrus.Fields{"position": seconds}).Debug("synchronized seek issued")
	return nil
}

// Close stops correction and releases both handles. The coordinator owns
// handle teardown; each handle is released exactly once no matter how many
// times Close is called.
func (c *Coordinator) Close() {
	c.closeOnce.Do(func() {
		c.corrector.Stop()
		c.pair.Primary.Cleanup()
		c.pair.Follower.Cleanup()
	})
}

// onGateChange reacts to pair-readiness transitions. Readiness only governs
// entry into Ready; once playback has begun, transient buffer dips are the
// corrector's problem, not a state regression.
func (c *Coordinator) onGateChange(ready bool) {
	c.mu.Lock()
	var next domain.SyncState
	changed := false
	switch {
	case ready && c.state == domain.SyncNotReady:
		c.state = domain.SyncReady
		next = domain.SyncReady
		changed = true
	case !ready && c.state == domain.SyncReady:
		c.state = domain.SyncNotReady
		next = domain.SyncNotReady
		changed = true
	}
	notify := c.onState
	c.mu.Unlock()

	if changed && notify != nil {
		notify(next)
	}
}

// onHandleError fails the pair: either handle's error halts correction,
// pauses the surviving stream and moves the pair to its terminal Error
// state. Synchronized playback cannot continue with only one stream, so no
// partial-success state is exposed.
func (c *Coordinator) onHandleError(err *domain.MediaError) {
	c.mu.Lock()
	if c.state == domain.SyncError {
		c.mu.Unlock()
		return
	}
	c.corrector.Stop()
	c.state = domain.SyncError
	c.lastError = err
	notify := c.onState
	c.mu.Unlock()

	c.pair.Primary.Pause()
	c.pair.Follower.Pause()

	logrus.WithFields(logrus.Fields{
		"error": err.Error(),
	}).Error("pair failed")
	if notify != nil {
		notify(domain.SyncError)
	}
}
