package pairsync

import (
	"context"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/maskline/maskline/domain"
	"github.com/maskline/maskline/player"
)

// SyncPair holds the two handles of a synchronized pair. The primary is
// always the timing reference; the follower is corrected toward it, never
// the reverse.
type SyncPair struct {
	Primary  player.MediaHandle
	Follower player.MediaHandle
}

// ReadinessGate observes both handles of a pair and computes the single
// boolean that permits synchronized playback: both handles at or above
// FutureData and neither in an error state.
type ReadinessGate struct {
	pair     SyncPair
	onChange func(ready bool)
	onError  func(err *domain.MediaError)

	mu    sync.Mutex
	ready bool
}

// NewReadinessGate creates a gate over the pair. onChange fires exactly once
// per actual transition of the pair-ready boolean; onError fires for every
// handle error event. The gate evaluates eagerly at construction, since
// cached media may already satisfy the condition before any event arrives.
func NewReadinessGate(pair SyncPair, onChange func(ready bool), onError func(err *domain.MediaError)) *ReadinessGate {
	g := &ReadinessGate{
		pair:     pair,
		onChange: onChange,
		onError:  onError,
	}
	g.evaluate()
	return g
}

// Ready returns the current pair-ready boolean.
func (g *ReadinessGate) Ready() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.ready
}

// Watch consumes both handles' event streams until the context is done.
// Readiness events re-evaluate the gate; error events are forwarded and
// also force the gate to not-ready.
func (g *ReadinessGate) Watch(ctx context.Context) {
	go g.watchHandle(ctx, g.pair.Primary)
	go g.watchHandle(ctx, g.pair.Follower)
}

func (g *ReadinessGate) watchHandle(ctx context.Context, h player.MediaHandle) {
	for {
		select {
		case ev, ok := <-h.Events():
			if !ok {
				return
			}
			if ev.Kind == player.EventError {
				g.evaluate()
				if g.onError != nil {
					g.onError(ev.Err)
				}
				continue
			}
			g.evaluate()
		case <-ctx.Done():
			return
		}
	}
}

// evaluate recomputes the pair-ready boolean. Holding the mutex across the
// whole pass, callback included, coalesces rapid flapping (concurrent
// evaluations serialize and identical results report nothing) and keeps
// transition notifications in transition order.
func (g *ReadinessGate) evaluate() {
	g.mu.Lock()
	defer g.mu.Unlock()

	ready := g.handleReady(g.pair.Primary) && g.handleReady(g.pair.Follower)
	if ready == g.ready {
		return
	}
	g.ready = ready

	logrus.WithFields(logrus.Fields{
		"primary":  g.pair.Primary.ReadyState().String(),
		"follower": g.pair.Follower.ReadyState().String(),
		"ready":    ready,
	}).Info("pair readiness changed")
	if g.onChange != nil {
		g.onChange(ready)
	}
}

func (g *ReadinessGate) handleReady(h player.MediaHandle) bool {
	return h.LastError() == nil && h.ReadyState() >= domain.ReadyFuture
}
