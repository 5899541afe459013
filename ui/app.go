package ui

import (
	"context"
	"fmt"
	"image"
	"time"

	"github.com/rivo/tview"
	"github.com/sirupsen/logrus"

	"github.com/maskline/maskline/ascii"
	"github.com/maskline/maskline/config"
	"github.com/maskline/maskline/domain"
	"github.com/maskline/maskline/pairsync"
	"github.com/maskline/maskline/probe"
)

// App represents the TUI application. It holds the coordinator by reference
// and only ever drives it through its transport methods; it never touches a
// media handle directly.
type App struct {
	tviewApp    *tview.Application
	cfg         *config.Config
	coordinator *pairsync.Coordinator
	ctx         context.Context
	source      *probe.SourceInfo
	frames      <-chan *image.RGBA
	converter   *ascii.Converter
	status      *domain.PairStatus

	rootFlex    *tview.Flex
	statusBar   *tview.TextView
	previewPane *tview.TextView
	progressBar *tview.TextView
	helpView    *HelpView
	keys        *KeyBindingManager
}

// NewApp creates a new TUI application with dependency injection. frames may
// be nil when the preview pipeline is disabled.
func NewApp(ctx context.Context, cfg *config.Config, coordinator *pairsync.Coordinator, source *probe.SourceInfo, frames <-chan *image.RGBA) *App {
	previewWidth := cfg.Preview.Width
	// Terminal cells are roughly twice as tall as wide; halve the height to
	// keep the frame's aspect.
	previewHeight := previewWidth * 9 / 32

	return &App{
		tviewApp:    tview.NewApplication(),
		cfg:         cfg,
		coordinator: coordinator,
		ctx:         ctx,
		source:      source,
		frames:      frames,
		converter:   ascii.NewConverter(previewWidth, previewHeight),
		status:      domain.NewPairStatus(),
	}
}

// Run starts the application
func (a *App) Run() error {
	a.createLayout()
	a.registerKeyBindings()

	a.watchState()

	go a.updateProgressBar()
	if a.frames != nil {
		go a.handlePreviewFrames()
	}

	logrus.Info("starting maskline ui")
	return a.tviewApp.Run()
}

// Stop stops the application
func (a *App) Stop() {
	if a.tviewApp != nil {
		a.tviewApp.Stop()
	}
}

// watchState subscribes the status pane to coordinator transitions. The
// coordinator has been watching readiness since before the UI came up, so
// any transition that already landed is caught up explicitly; without that
// a pair that went Ready early would leave the status on the welcome text.
func (a *App) watchState() {
	a.coordinator.SetStateCallback(func(state domain.SyncState) {
		a.applyState(state)
		go a.refreshStatus()
	})

	if state := a.coordinator.State(); state != domain.SyncNotReady {
		a.applyState(state)
		go a.refreshStatus()
	}
}

// applyState records a coordinator transition in the cached pair status.
func (a *App) applyState(state domain.SyncState) {
	if state == domain.SyncError {
		message := "pair failed"
		if err := a.coordinator.LastError(); err != nil {
			message = err.Error()
		}
		a.status.SetError(message)
		return
	}
	a.status.SetState(state)
}

// togglePlayback flips between playing and paused. While the pair is not
// ready the transport stays disabled and the status explains why.
func (a *App) togglePlayback() {
	switch a.coordinator.State() {
	case domain.SyncPlaying:
		if err := a.coordinator.Pause(); err != nil {
			logrus.WithError(err).Warn("pause failed")
		}
	case domain.SyncReady, domain.SyncPaused:
		if err := a.coordinator.Play(); err != nil {
			logrus.WithError(err).Warn("play failed")
			a.updateStatusHint(fmt.Sprintf("[red]%v", err))
		}
	case domain.SyncNotReady:
		a.updateStatusHint("[yellow]Still buffering, transport disabled")
	case domain.SyncError:
		a.updateStatusHint("[red]Pair failed, restart to retry")
	}
}

// seekRelative seeks both streams by a signed offset from the current
// position.
func (a *App) seekRelative(deltaSeconds float64) {
	position, _ := a.coordinator.Progress()
	if err := a.coordinator.Seek(position + deltaSeconds); err != nil {
		logrus.WithError(err).Debug("relative seek rejected")
	}
}

// seekPreset jumps to tenth n of the stream (0 rewinds to the start).
func (a *App) seekPreset(n int) {
	_, duration := a.coordinator.Progress()
	if duration <= 0 {
		return
	}
	if err := a.coordinator.Seek(duration * float64(n) / 10); err != nil {
		logrus.WithError(err).Debug("preset seek rejected")
	}
}

// refreshStatus redraws the status pane from the cached pair status.
func (a *App) refreshStatus() {
	state, lastError := a.status.Get()

	width, height := 0, 0
	if a.source != nil {
		width, height = a.source.Width, a.source.Height
	}
	text := FormatStatus(state, lastError, a.cfg.Video.Source, width, height)

	a.tviewApp.QueueUpdateDraw(func() {
		if a.statusBar != nil {
			a.statusBar.SetText(text)
		}
	})
}

// updateStatusHint overlays a one-line hint without recomputing the full
// status block.
func (a *App) updateStatusHint(hint string) {
	a.tviewApp.QueueUpdateDraw(func() {
		if a.statusBar != nil {
			a.statusBar.SetText(hint)
		}
	})
}

// updateProgressBar periodically redraws playback progress and the latest
// drift measurement.
func (a *App) updateProgressBar() {
	ticker := time.NewTicker(1 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			state, _ := a.status.Get()
			if state != domain.SyncPlaying && state != domain.SyncPaused {
				continue
			}
			position, duration := a.coordinator.Progress()
			a.status.SetProgress(position, duration)
			drift := a.coordinator.Drift()

			progress := 0.0
			if duration > 0 {
				progress = position / duration
			}
			text := fmt.Sprintf("%s\n[darkgray]%s / %s  %s",
				CreateProgressBar(progress, a.cfg.UI.ProgressBarWidth),
				FormatDuration(position), FormatDuration(duration),
				FormatDrift(drift))

			a.tviewApp.QueueUpdateDraw(func() {
				if a.progressBar != nil {
					a.progressBar.SetText(text)
				}
			})
		case <-a.ctx.Done():
			return
		}
	}
}

// handlePreviewFrames feeds composited frames into the preview pane for as
// long as the pipeline produces them.
func (a *App) handlePreviewFrames() {
	defer func() {
		if r := recover(); r != nil {
			logrus.WithField("panic", r).Warn("preview handler stopped")
		}
	}()

	for {
		select {
		case frame, ok := <-a.frames:
			if !ok {
				a.tviewApp.QueueUpdateDraw(func() {
					if a.previewPane != nil {
						a.previewPane.SetText(a.converter.Placeholder())
					}
				})
				return
			}
			text := a.converter.Convert(frame)
			a.tviewApp.QueueUpdateDraw(func() {
				if a.previewPane != nil {
					a.previewPane.SetText(text)
				}
			})
		case <-a.ctx.Done():
			return
		}
	}
}
