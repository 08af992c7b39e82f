package tui

import (
	"fmt"

	"github.com/derailed/tcell/v2"
	"github.com/derailed/tview"
)

// The prompt editor: one field per template, persisted when the field is
// left (Enter/Tab), not per keystroke.

type promptRow struct {
	promptType  string
	displayName string
	field       *tview.InputField
}

func (a *App) buildPrompts() tview.Primitive {
	a.promptsHeader = tview.NewTextView().SetDynamicColors(true)
	a.promptsHeader.SetText(fmt.Sprintf(
		"[::b]🧠 Agent Brain[-:-:-]\n[%s]These prompts define how the agent perceives and acts on your email. Enter/Tab saves a field, Esc returns to the inbox.[-]",
		a.Theme.Status.InfoColor))

	a.promptsList = tview.NewFlex().SetDirection(tview.FlexRow)
	a.promptsList.SetBorder(true).SetTitle(" Prompt Templates ")

	layout := tview.NewFlex().SetDirection(tview.FlexRow)
	layout.AddItem(a.promptsHeader, 3, 0, false)
	layout.AddItem(a.promptsList, 0, 1, true)
	return layout
}

// populatePrompts rebuilds the editor rows from the loaded template set.
// Called once per view activation; later refreshes only touch labels so an
// edit in progress is never clobbered.
func (a *App) populatePrompts() {
	a.promptsList.Clear()
	a.promptRows = a.promptRows[:0]

	templates := a.prompts.Templates()
	for i, tmpl := range templates {
		row := &promptRow{promptType: tmpl.PromptType, displayName: tmpl.DisplayName()}
		row.field = tview.NewInputField().
			SetText(tmpl.TemplateText).
			SetFieldWidth(0)
		idx := i
		promptType := tmpl.PromptType
		row.field.SetDoneFunc(func(key tcell.Key) {
			if key == tcell.KeyEscape {
				a.backToInbox()
				return
			}
			a.prompts.Save(a.ctx, promptType, row.field.GetText())
			a.focusPromptRow(idx + 1)
		})
		a.promptRows = append(a.promptRows, row)
		a.promptsList.AddItem(row.field, 1, 0, i == 0)
	}
	a.renderPrompts()
}

// renderPrompts refreshes row labels with the save state.
func (a *App) renderPrompts() {
	for _, row := range a.promptRows {
		label := fmt.Sprintf(" %s: ", row.displayName)
		if a.prompts.Dirty(row.promptType) {
			label = fmt.Sprintf(" %s [unsaved]: ", row.displayName)
		}
		row.field.SetLabel(label)
	}
}

func (a *App) focusPromptRow(idx int) {
	if len(a.promptRows) == 0 {
		return
	}
	if idx >= len(a.promptRows) {
		idx = 0
	}
	a.SetFocus(a.promptRows[idx].field)
}
