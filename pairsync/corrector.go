package pairsync

import (
	"math"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/maskline/maskline/domain"
)

const (
	// DefaultInterval is how often drift is measured during playback.
	DefaultInterval = 500 * time.Millisecond
	// DefaultThreshold is the drift in seconds beyond which the follower is
	// corrected. Seeking every tick stalls the decoder visibly, so
	// correction is threshold-gated rather than continuous.
	DefaultThreshold = 0.1
)

// DriftCorrector periodically measures positional divergence between the
// pair's handles and nudges the follower back onto the primary's clock.
// The primary is never mutated.
type DriftCorrector struct {
	pair      SyncPair
	interval  time.Duration
	threshold float64

	mu       sync.Mutex
	running  bool
	stop     chan struct{}
	skipNext bool
	last     domain.DriftMeasurement
}

// NewDriftCorrector creates a corrector for the pair. Zero values select the
// defaults.
func NewDriftCorrector(pair SyncPair, interval time.Duration, threshold float64) *DriftCorrector {
	if interval <= 0 {
		interval = DefaultInterval
	}
	if threshold <= 0 {
		threshold = DefaultThreshold
	}
	return &DriftCorrector{
		pair:      pair,
		interval:  interval,
		threshold: threshold,
	}
}

// Start begins periodic correction. Starting an already running corrector is
// a no-op.
func (c *DriftCorrector) Start() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.running {
		return
	}
	c.running = true
	c.skipNext = false
	c.stop = make(chan struct{})
	go c.loop(c.stop)
}

// Stop cancels correction. Stopping an already stopped corrector is a no-op.
// The stop is effective before the next scheduled tick fires: any tick that
// races the stop re-checks liveness under the lock and backs off.
func (c *DriftCorrector) Stop() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.running {
		return
	}
	c.running = false
	close(c.stop)
}

// Running reports whether the corrector is active.
func (c *DriftCorrector) Running() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.running
}

// SuppressNextTick skips exactly one upcoming correction, so a just-issued
// seek is not immediately re-corrected against stale positions.
func (c *DriftCorrector) SuppressNextTick() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.skipNext = true
}

// LastMeasurement returns the most recent drift observation.
func (c *DriftCorrector) LastMeasurement() domain.DriftMeasurement {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.last
}

func (c *DriftCorrector) loop(stop chan struct{}) {
	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()
	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			select {
			case <-stop:
				return
			default:
			}
			c.correct()
		}
	}
}

// correct performs one measurement and, when warranted, one follower seek.
// Correction failures are logged only: synchronization is best-effort and
// never escalates to a pair error.
func (c *DriftCorrector) correct() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.running {
		return
	}
	if c.skipNext {
		c.skipNext = false
		return
	}

	primaryPos, err := c.pair.Primary.Position()
	if err != nil {
		logrus.WithError(err).Debug("drift check skipped, primary position unavailable")
		return
	}
	followerPos, err := c.pair.Follower.Position()
	if err != nil {
		logrus.WithError(err).Debug("drift check skipped, follower position unavailable")
		return
	}

	c.last = domain.DriftMeasurement{
		DeltaSeconds: math.Abs(primaryPos - followerPos),
		ObservedAt:   time.Now(),
	}
	if c.last.DeltaSeconds <= c.threshold {
		return
	}

	logrus.WithFields(logrus.Fields{
		"primary":  primaryPos,
		"follower": followerPos,
		"drift":    c.last.DeltaSeconds,
	}).Debug("correcting follower drift")
	if err := c.pair.Follower.Seek(primaryPos); err != nil {
		logrus.WithError(err).Warn("drift correction seek failed")
	}
}
