package tui

import (
	"fmt"
	"time"

	"github.com/derailed/tview"
)

const statusIdleText = "Triage TUI | / search · i ingest · r refresh · p prompts | q to quit"

func (a *App) buildStatus() tview.Primitive {
	a.statusView = tview.NewTextView().SetDynamicColors(true)
	a.statusView.SetText(statusIdleText)
	a.statusView.SetTextColor(a.Theme.Status.InfoColor.Color())
	return a.statusView
}

// showStatusMessage displays a transient message in the status bar
func (a *App) showStatusMessage(msg string) {
	a.statusView.SetText(fmt.Sprintf("Triage TUI | %s", msg))
	go func() {
		time.Sleep(3 * time.Second)
		a.queueRedraw(func() {
			a.statusView.SetText(statusIdleText)
		})
	}()
}

// showInfo shows an info message via the status bar
func (a *App) showInfo(msg string) {
	a.showStatusMessage(msg)
}

// showError shows an error message via the status bar
func (a *App) showError(msg string) {
	a.showStatusMessage(fmt.Sprintf("[%s]%s[-]", a.Theme.Status.ErrorColor, msg))
}
