package pairsync

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/maskline/maskline/domain"
)

func newTestCoordinator(t *testing.T) (*Coordinator, *fakeHandle, *fakeHandle, *callLog) {
	t.Helper()
	log := &callLog{}
	primary := newFakeHandle("content", log)
	follower := newFakeHandle("mask", log)
	c := NewCoordinator(SyncPair{Primary: primary, Follower: follower}, longInterval, DefaultThreshold)
	return c, primary, follower, log
}

// makeReady drives both fakes to FutureData and waits for the coordinator
// to observe the gate transition.
func makeReady(t *testing.T, c *Coordinator, primary, follower *fakeHandle) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	require.NoError(t, c.Start(ctx))

	primary.setReady(domain.ReadyFuture)
	follower.setReady(domain.ReadyFuture)
	require.Eventually(t, func() bool {
		return c.State() == domain.SyncReady
	}, time.Second, 10*time.Millisecond)
}

func TestPlayRejectedBeforeReady(t *testing.T) {
	c, _, _, _ := newTestCoordinator(t)

	err := c.Play()
	assert.ErrorIs(t, err, ErrNotReady)
	assert.Equal(t, domain.SyncNotReady, c.State())
}

func TestPlayStartsBothPrimaryFirst(t *testing.T) {
	c, primary, follower, log := newTestCoordinator(t)
	makeReady(t, c, primary, follower)

	require.NoError(t, c.Play())
	assert.Equal(t, domain.SyncPlaying, c.State())
	assert.True(t, primary.isPlaying())
	assert.True(t, follower.isPlaying())
	assert.True(t, c.corrector.Running())

	// First play aligns both handles to zero before starting, primary first.
	assert.Equal(t, []string{
		"load:content", "load:mask",
		"seek:content", "seek:mask",
		"play:content", "play:mask",
	}, log.snapshot())
	assert.Equal(t, []float64{0}, primary.seekHistory())
	assert.Equal(t, []float64{0}, follower.seekHistory())
}

func TestPlayIdempotentWhilePlaying(t *testing.T) {
	c, primary, follower, log := newTestCoordinator(t)
	makeReady(t, c, primary, follower)
	require.NoError(t, c.Play())

	before := len(log.snapshot())
	require.NoError(t, c.Play())
	assert.Equal(t, domain.SyncPlaying, c.State())
	assert.Len(t, log.snapshot(), before, "repeated play must produce no duplicate side effects")
}

func TestPauseStopsCorrectorFirstAndIsIdempotent(t *testing.T) {
	c, primary, follower, log := newTestCoordinator(t)
	makeReady(t, c, primary, follower)
	require.NoError(t, c.Play())

	require.NoError(t, c.Pause())
	assert.Equal(t, domain.SyncPaused, c.State())
	assert.False(t, c.corrector.Running(), "no correction tick may fire after pause")
	assert.False(t, primary.isPlaying())
	assert.False(t, follower.isPlaying())

	before := len(log.snapshot())
	require.NoError(t, c.Pause())
	assert.Equal(t, domain.SyncPaused, c.State())
	assert.Len(t, log.snapshot(), before)
}

func TestResumeAlignsToPrimaryPosition(t *testing.T) {
	c, primary, follower, _ := newTestCoordinator(t)
	makeReady(t, c, primary, follower)
	require.NoError(t, c.Play())
	require.NoError(t, c.Pause())

	primary.setPosition(12.5)
	follower.setPosition(11.0)
	require.NoError(t, c.Play())

	assert.Equal(t, domain.SyncPlaying, c.State())
	seeks := follower.seekHistory()
	assert.Equal(t, 12.5, seeks[len(seeks)-1], "resume aligns follower to the primary position")
	assert.True(t, c.corrector.Running())
}

func TestSeekMovesBothAndSuppressesOneTick(t *testing.T) {
	c, primary, follower, _ := newTestCoordinator(t)
	makeReady(t, c, primary, follower)
	require.NoError(t, c.Play())

	require.NoError(t, c.Seek(42))
	pSeeks := primary.seekHistory()
	fSeeks := follower.seekHistory()
	assert.Equal(t, 42.0, pSeeks[len(pSeeks)-1])
	assert.Equal(t, 42.0, fSeeks[len(fSeeks)-1])

	// The tick racing the seek must not correct against stale positions.
	follower.setPosition(41.0)
	before := len(follower.seekHistory())
	c.corrector.correct()
	assert.Len(t, follower.seekHistory(), before)

	c.corrector.correct()
	assert.Len(t, follower.seekHistory(), before+1, "correction resumes after one tick")
}

func TestSeekClampsToDuration(t *testing.T) {
	c, primary, follower, _ := newTestCoordinator(t)
	makeReady(t, c, primary, follower)

	require.NoError(t, c.Seek(500))
	pSeeks := primary.seekHistory()
	assert.Equal(t, 100.0, pSeeks[len(pSeeks)-1])

	require.NoError(t, c.Seek(-3))
	pSeeks = primary.seekHistory()
	assert.Equal(t, 0.0, pSeeks[len(pSeeks)-1])
}

func TestHandleErrorFailsPairAndPausesSurvivor(t *testing.T) {
	c, primary, follower, _ := newTestCoordinator(t)
	makeReady(t, c, primary, follower)
	require.NoError(t, c.Play())

	follower.fail(domain.ErrSourceUnavailable, "mask decode failed")
	require.Eventually(t, func() bool {
		return c.State() == domain.SyncError
	}, time.Second, 10*time.Millisecond)

	assert.False(t, c.corrector.Running())
	require.Eventually(t, func() bool { return !primary.isPlaying() },
		time.Second, 10*time.Millisecond, "surviving stream must be paused")

	require.NotNil(t, c.LastError())
	assert.Contains(t, c.LastError().Error(), "mask decode failed")
}

func TestErrorStateIsTerminal(t *testing.T) {
	c, primary, follower, _ := newTestCoordinator(t)
	makeReady(t, c, primary, follower)
	require.NoError(t, c.Play())

	primary.fail(domain.ErrUnsupportedFormat, "bad codec")
	require.Eventually(t, func() bool {
		return c.State() == domain.SyncError
	}, time.Second, 10*time.Millisecond)

	assert.ErrorIs(t, c.Play(), ErrPairFailed)
	assert.ErrorIs(t, c.Pause(), ErrPairFailed)
	assert.ErrorIs(t, c.Seek(1), ErrPairFailed)
}

func TestConcurrentPlayPauseNeverLeavesCorrectorRunning(t *testing.T) {
	c, primary, follower, _ := newTestCoordinator(t)
	makeReady(t, c, primary, follower)

	// A pause landing anywhere inside a concurrent play must either lose
	// (pair keeps playing, corrector ticking) or win (pair paused, corrector
	// stopped); a paused pair with a live corrector is never a valid outcome.
	for i := 0; i < 200; i++ {
		var wg sync.WaitGroup
		wg.Add(2)
		go func() {
			defer wg.Done()
			c.Play()
		}()
		go func() {
			defer wg.Done()
			c.Pause()
		}()
		wg.Wait()

		if c.State() == domain.SyncPaused {
			require.False(t, c.corrector.Running(), "paused pair must not tick")
		}

		require.NoError(t, c.Pause())
		require.Equal(t, domain.SyncPaused, c.State())
		require.False(t, c.corrector.Running())
	}
}

func TestCloseReleasesEachHandleOnce(t *testing.T) {
	c, primary, follower, _ := newTestCoordinator(t)
	makeReady(t, c, primary, follower)
	require.NoError(t, c.Play())

	c.Close()
	c.Close()

	assert.Equal(t, 1, primary.cleanupCount(), "repeated Close must not re-destroy the primary")
	assert.Equal(t, 1, follower.cleanupCount(), "repeated Close must not re-destroy the follower")
	assert.False(t, c.corrector.Running())
}

func TestStateCallbackSeesTransitions(t *testing.T) {
	c, primary, follower, _ := newTestCoordinator(t)

	var seen []domain.SyncState
	done := make(chan struct{}, 8)
	c.SetStateCallback(func(state domain.SyncState) {
		seen = append(seen, state)
		done <- struct{}{}
	})

	makeReady(t, c, primary, follower)
	<-done
	require.NoError(t, c.Play())
	<-done
	require.NoError(t, c.Pause())
	<-done

	assert.Equal(t, []domain.SyncState{domain.SyncReady, domain.SyncPlaying, domain.SyncPaused}, seen)
}
