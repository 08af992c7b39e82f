package tui

import (
	"fmt"
	"strings"

	"github.com/derailed/tcell/v2"
	"github.com/derailed/tview"
	"github.com/mailpilot/triage-tui/internal/models"
	"github.com/mailpilot/triage-tui/internal/render"
	"github.com/mailpilot/triage-tui/internal/session"
)

const detailBodyWidth = 100

// buildDetail assembles the message pane and the assistant pane.
func (a *App) buildDetail() tview.Primitive {
	a.detailView = tview.NewTextView().SetDynamicColors(true).SetWrap(true)
	a.detailView.SetBorder(true).SetTitle(" Message ")
	a.detailView.SetInputCapture(func(event *tcell.EventKey) *tcell.EventKey {
		if event.Key() == tcell.KeyEscape {
			a.backToInbox()
			return nil
		}
		if event.Rune() == 'q' {
			a.backToInbox()
			return nil
		}
		return a.globalKeys(event)
	})

	a.chatView = tview.NewTextView().SetDynamicColors(true).SetWrap(true)
	a.chatView.SetBorder(true).SetTitle(" 🤖 Agent Assistant ")
	a.chatView.SetChangedFunc(func() {
		a.chatView.ScrollToEnd()
	})

	a.chatInput = tview.NewInputField().
		SetLabel(" > ").
		SetPlaceholder("Ask me anything...").
		SetFieldWidth(0)
	a.chatInput.SetDoneFunc(func(key tcell.Key) {
		switch key {
		case tcell.KeyEnter:
			text := a.chatInput.GetText()
			if a.session.SendMessage(a.ctx, text) {
				a.chatInput.SetText("")
				a.renderAssistant()
			}
		case tcell.KeyEscape:
			a.backToInbox()
		}
	})
	a.chatInput.SetInputCapture(func(event *tcell.EventKey) *tcell.EventKey {
		switch event.Key() {
		case tcell.KeyCtrlS:
			if a.session.Quick(a.ctx, session.QuickSummarize) {
				a.renderAssistant()
			}
			return nil
		case tcell.KeyCtrlT:
			if a.session.Quick(a.ctx, session.QuickExtractTasks) {
				a.renderAssistant()
			}
			return nil
		case tcell.KeyCtrlD:
			if a.session.RequestDraft(a.ctx, "") {
				a.renderAssistant()
			} else {
				a.showInfo("Draft generation already running")
			}
			return nil
		}
		return a.globalKeys(event)
	})

	hints := tview.NewTextView().SetDynamicColors(true)
	hints.SetText(fmt.Sprintf("[%s] C-s summarize · C-t extract tasks · C-d draft reply · Esc back[-]",
		a.Theme.Status.InfoColor))

	assistant := tview.NewFlex().SetDirection(tview.FlexRow)
	assistant.AddItem(a.chatView, 0, 1, false)
	assistant.AddItem(hints, 1, 0, false)
	assistant.AddItem(a.chatInput, 1, 0, true)

	layout := tview.NewFlex().SetDirection(tview.FlexColumn)
	layout.AddItem(a.detailView, 0, 2, false)
	layout.AddItem(assistant, 0, 1, true)
	return layout
}

// renderDetail paints the message pane: header, analysis card, body.
// Unanalyzed fields render as placeholders, never as errors.
func (a *App) renderDetail(email models.Email) {
	var b strings.Builder

	fmt.Fprintf(&b, "[::b]%s[-:-:-]\n", tview.Escape(email.Subject))
	fmt.Fprintf(&b, "[%s]From: %s[-]\n", a.Theme.List.UnreadColor, tview.Escape(email.Sender))
	if !email.Timestamp.IsZero() {
		fmt.Fprintf(&b, "[%s]Date: %s[-]\n", a.Theme.Status.InfoColor, email.Timestamp.Format("Mon, 2 Jan 2006 15:04"))
	}
	category := email.Category
	if category == "" {
		category = render.PlaceholderCategory
	}
	fmt.Fprintf(&b, "[%s]Category: %s[-]\n\n", a.Theme.List.CategoryColor, tview.Escape(category))

	summary := email.Summary
	if summary == "" {
		summary = render.PlaceholderSummary
	}
	fmt.Fprintf(&b, "[%s::b]AI Summary[-:-:-]\n%s\n", a.Theme.List.SelectedColor, tview.Escape(summary))
	if len(email.ActionItems) > 0 {
		fmt.Fprintf(&b, "\n[%s::b]Action Items[-:-:-]\n", a.Theme.List.SelectedColor)
		for _, item := range email.ActionItems {
			if item.Deadline != "" {
				fmt.Fprintf(&b, "- %s [%s](%s)[-]\n", tview.Escape(item.Task), a.Theme.Status.ErrorColor, tview.Escape(item.Deadline))
			} else {
				fmt.Fprintf(&b, "- %s\n", tview.Escape(item.Task))
			}
		}
	}

	b.WriteString("\n────────────────────\n\n")
	b.WriteString(tview.Escape(render.FormatBody(email.Body, detailBodyWidth)))

	a.detailView.SetText(b.String())
	a.detailView.ScrollToBeginning()
}

// renderAssistant repaints the transcript pane from a session snapshot.
func (a *App) renderAssistant() {
	view := a.session.Snapshot()
	var b strings.Builder

	for _, turn := range view.Transcript {
		if turn.Role == models.RoleUser {
			fmt.Fprintf(&b, "[%s::b]You[-:-:-]\n%s\n\n", a.Theme.Chat.UserColor, tview.Escape(turn.Content))
		} else {
			fmt.Fprintf(&b, "[%s::b]Agent[-:-:-]\n%s\n\n", a.Theme.Chat.AgentColor, tview.Escape(turn.Content))
		}
	}
	if view.ChatPending {
		fmt.Fprintf(&b, "[%s]Agent is thinking...[-]\n", a.Theme.Status.InfoColor)
	}
	if view.DraftPending {
		fmt.Fprintf(&b, "[%s]Drafting a reply...[-]\n", a.Theme.Status.InfoColor)
	}
	if view.Draft != nil {
		fmt.Fprintf(&b, "\n[%s::b]── Draft Generated ──[-:-:-]\n", a.Theme.List.SelectedColor)
		fmt.Fprintf(&b, "[%s]Subject:[-] %s\n\n", a.Theme.Status.InfoColor, tview.Escape(view.Draft.Subject))
		b.WriteString(tview.Escape(view.Draft.Body))
		b.WriteString("\n")
	}

	a.chatView.SetText(b.String())
}
