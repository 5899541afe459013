package ui

import (
	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"
)

// createLayout sets up the UI layout
func (a *App) createLayout() {
	a.previewPane = tview.NewTextView().
		SetDynamicColors(true).
		SetScrollable(false).
		SetWrap(false)
	a.previewPane.SetBorder(true).SetTitle(" Preview ")
	a.previewPane.SetText(a.converter.Placeholder())

	a.statusBar = tview.NewTextView().
		SetDynamicColors(true).
		SetScrollable(false).
		SetWrap(true)
	a.statusBar.SetBorder(false)
	a.statusBar.SetText(CreateWelcomeMessage(a.cfg.Video.Source, a.cfg.Video.Mask))

	a.progressBar = tview.NewTextView().
		SetDynamicColors(true)
	a.progressBar.SetBorder(false)

	a.helpView = NewHelpView(a)
	a.keys = NewKeyBindingManager()

	mainLayout := tview.NewFlex().
		SetDirection(tview.FlexColumn).
		AddItem(a.previewPane, 0, 2, false).
		AddItem(a.statusBar, 0, 1, true)

	a.rootFlex = tview.NewFlex().
		SetDirection(tview.FlexRow).
		AddItem(mainLayout, 0, 1, true).
		AddItem(a.progressBar, 3, 0, false)

	a.tviewApp.SetRoot(a.rootFlex, true)
	a.tviewApp.SetInputCapture(a.handleInput)
}

// registerKeyBindings wires the transport and view actions into the key
// binding manager
func (a *App) registerKeyBindings() {
	a.keys.RegisterKeyBinding(KeyAction{
		name:    "toggle playback",
		handler: func() { go a.togglePlayback() },
	}, nil, []rune{' '})

	a.keys.RegisterKeyBinding(KeyAction{
		name:    "seek back",
		handler: func() { go a.seekRelative(-5) },
	}, []tcell.Key{tcell.KeyLeft}, []rune{'h'})

	a.keys.RegisterKeyBinding(KeyAction{
		name:    "seek forward",
		handler: func() { go a.seekRelative(5) },
	}, []tcell.Key{tcell.KeyRight}, []rune{'l'})

	for digit := 0; digit <= 9; digit++ {
		d := digit
		a.keys.RegisterKeyBinding(KeyAction{
			name:    "seek preset",
			handler: func() { go a.seekPreset(d) },
		}, nil, []rune{rune('0' + d)})
	}

	a.keys.RegisterKeyBinding(KeyAction{
		name:    "help",
		handler: func() { a.helpView.Show() },
	}, nil, []rune{'?'})

	a.keys.RegisterKeyBinding(KeyAction{
		name:    "quit",
		handler: func() { a.Stop() },
	}, []tcell.Key{tcell.KeyCtrlC, tcell.KeyEscape}, []rune{'q'})
}

// handleInput routes keyboard events. The help overlay swallows everything
// except its dismiss keys.
func (a *App) handleInput(event *tcell.EventKey) *tcell.EventKey {
	if a.helpView.IsActive() {
		if event.Key() == tcell.KeyEscape ||
			(event.Key() == tcell.KeyRune && event.Rune() == '?') {
			a.helpView.Close()
		}
		return nil
	}

	if a.keys.HandleKey(event) {
		return nil
	}
	return event
}
