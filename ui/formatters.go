package ui

import (
	"fmt"

	"github.com/maskline/maskline/domain"
)

// FormatDuration converts seconds to MM:SS format
func FormatDuration(seconds float64) string {
	if seconds < 0 {
		seconds = 0
	}
	total := int(seconds)
	return fmt.Sprintf("%02d:%02d", total/60, total%60)
}

// CreateProgressBar creates a visual progress bar
func CreateProgressBar(progress float64, width int) string {
	if progress < 0 {
		progress = 0
	}
	if progress > 1 {
		progress = 1
	}
	filledWidth := int(progress * float64(width))
	var bar string
	for i := 0; i < width; i++ {
		if i < filledWidth {
			bar += "[lightgreen]▓"
		} else {
			bar += "[darkgray]░"
		}
	}
	return bar + fmt.Sprintf("[white] %.1f%%", progress*100)
}

// FormatStatus creates the status readout for the current pair state
func FormatStatus(state domain.SyncState, lastError string, sourceLabel string, width, height int) string {
	var line string
	switch state {
	case domain.SyncNotReady:
		line = "[yellow]Loading..."
	case domain.SyncReady:
		line = "[lightgreen]Ready [darkgray](SPACE to play)"
	case domain.SyncPlaying:
		line = "[lightgreen]Playing"
	case domain.SyncPaused:
		line = "[yellow]Paused"
	case domain.SyncError:
		line = fmt.Sprintf("[red]Error: %s", lastError)
	}

	resolution := "unknown"
	if width > 0 {
		resolution = fmt.Sprintf("%dx%d", width, height)
	}

	return fmt.Sprintf(`
[white]%s

[gray]Source: [white]%s
[gray]Resolution: [white]%s

[darkgray] SPACE (play/pause)
[darkgray] ←/→ (seek ±5s)
[darkgray] 0-9 (jump)
[darkgray] ? (help)
[darkgray] ESC (quit)`, line, sourceLabel, resolution)
}

// FormatDrift renders the most recent drift measurement for the status line
func FormatDrift(m domain.DriftMeasurement) string {
	if m.ObservedAt.IsZero() {
		return "[darkgray]drift: --"
	}
	color := "[lightgreen]"
	if m.DeltaSeconds > 0.1 {
		color = "[yellow]"
	}
	return fmt.Sprintf("[darkgray]drift: %s%.0f ms", color, m.DeltaSeconds*1000)
}

// CreateWelcomeMessage creates the startup message shown before readiness
func CreateWelcomeMessage(source, mask string) string {
	return fmt.Sprintf(`
[lightgreen] Maskline
[darkgray]Synchronized dual-stream outline playback

[gray]content: [white]%s
[gray]mask:    [white]%s

[yellow]Waiting for both streams to buffer...`, source, mask)
}
