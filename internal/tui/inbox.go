package tui

import (
	"fmt"

	"github.com/derailed/tcell/v2"
	"github.com/derailed/tview"
	"github.com/mailpilot/triage-tui/internal/filter"
	"github.com/mailpilot/triage-tui/internal/models"
	"github.com/mailpilot/triage-tui/internal/render"
)

// buildInbox assembles the filter bar and the message table.
func (a *App) buildInbox() tview.Primitive {
	a.searchField = tview.NewInputField().
		SetLabel(" Search: ").
		SetPlaceholder("subject, sender or body...").
		SetFieldWidth(0)
	a.searchField.SetChangedFunc(func(text string) {
		a.mu.Lock()
		a.criteria.Query = text
		a.mu.Unlock()
		a.refreshInbox()
	})
	a.searchField.SetDoneFunc(func(key tcell.Key) {
		a.SetFocus(a.inboxTable)
	})

	a.categoryDrop = tview.NewDropDown().SetLabel(" Category: ")
	a.statusDrop = tview.NewDropDown().SetLabel(" Status: ")

	// SetOptions replaces the stored selected handler, and SetCurrentOption
	// invokes it; guard the programmatic setup the same way
	// refreshCategoryOptions guards the rebuild.
	a.syncingFilters = true
	a.categoryDrop.SetOptions([]string{filter.CategoryAll}, a.onCategorySelected)
	a.categoryDrop.SetCurrentOption(0)
	a.statusDrop.SetOptions([]string{
		string(filter.StatusAll), string(filter.StatusUnread), string(filter.StatusRead),
	}, a.onStatusSelected)
	a.statusDrop.SetCurrentOption(0)
	a.syncingFilters = false

	a.inboxCounter = tview.NewTextView().SetTextAlign(tview.AlignRight)
	a.inboxCounter.SetTextColor(a.Theme.Status.InfoColor.Color())

	filterBar := tview.NewFlex().SetDirection(tview.FlexColumn)
	filterBar.AddItem(a.searchField, 0, 2, false)
	filterBar.AddItem(a.categoryDrop, 0, 1, false)
	filterBar.AddItem(a.statusDrop, 0, 1, false)
	filterBar.AddItem(a.inboxCounter, 8, 0, false)

	a.inboxTable = tview.NewTable().SetSelectable(true, false)
	a.inboxTable.SetBorder(true).
		SetTitle(" 📧 Inbox ").
		SetTitleAlign(tview.AlignCenter)
	a.inboxTable.SetSelectedFunc(func(row, col int) {
		if id, ok := a.rowEmailID(row); ok {
			a.openEmail(id)
		}
	})
	a.inboxTable.SetInputCapture(a.inboxKeys)

	layout := tview.NewFlex().SetDirection(tview.FlexRow)
	layout.AddItem(filterBar, 1, 0, false)
	layout.AddItem(a.inboxTable, 0, 1, true)
	return layout
}

// onCategorySelected is handed to SetOptions on every dropdown rebuild;
// installing it once via SetSelectedFunc would not survive
// refreshCategoryOptions.
func (a *App) onCategorySelected(text string, index int) {
	if a.syncingFilters {
		return
	}
	a.mu.Lock()
	a.criteria.Category = text
	a.mu.Unlock()
	a.refreshInbox()
	a.SetFocus(a.inboxTable)
}

func (a *App) onStatusSelected(text string, index int) {
	if a.syncingFilters {
		return
	}
	a.mu.Lock()
	a.criteria.Status = filter.Status(text)
	a.mu.Unlock()
	a.refreshInbox()
	a.SetFocus(a.inboxTable)
}

// inboxKeys handles single-key actions while the table is focused.
func (a *App) inboxKeys(event *tcell.EventKey) *tcell.EventKey {
	switch event.Rune() {
	case 'q':
		a.Stop()
		return nil
	case '/':
		a.SetFocus(a.searchField)
		return nil
	case 'i':
		a.reloadEmails(true)
		return nil
	case 'r':
		a.reloadEmails(false)
		return nil
	case 'p':
		a.openPrompts()
		return nil
	case 'c':
		a.SetFocus(a.categoryDrop)
		return nil
	case 's':
		a.SetFocus(a.statusDrop)
		return nil
	}
	return a.globalKeys(event)
}

// refreshInbox recomputes the filtered view and repaints the table. Works
// from one snapshot so the rows never mix pre- and post-mutation data.
func (a *App) refreshInbox() {
	records := a.emails.Snapshot()

	a.mu.RLock()
	criteria := a.criteria
	selected := a.selected
	a.mu.RUnlock()

	visible := filter.Apply(records, criteria)
	a.refreshCategoryOptions(records, criteria.Category)

	a.inboxTable.Clear()
	a.visibleIDs = a.visibleIDs[:0]
	for row, email := range visible {
		a.visibleIDs = append(a.visibleIDs, email.ID)
		a.inboxTable.SetCell(row, 0, tview.NewTableCell(a.formatRow(&email)).SetExpansion(1))
		if email.ID == selected {
			a.inboxTable.Select(row, 0)
		}
	}
	a.inboxCounter.SetText(fmt.Sprintf("%d ", len(visible)))

	if len(visible) == 0 {
		// Valid display state, not an error.
		a.inboxTable.SetCell(0, 0, tview.NewTableCell("No emails found.").
			SetTextColor(a.Theme.Status.InfoColor.Color()).
			SetSelectable(false))
	}
}

// refreshCategoryOptions rebuilds the dropdown; analysis completing in the
// background can surface categories that were absent a moment ago.
func (a *App) refreshCategoryOptions(records []models.Email, current string) {
	options := filter.Categories(records)
	selected := 0
	for i, opt := range options {
		if opt == current {
			selected = i
			break
		}
	}
	// The handler must be re-passed here or SetOptions drops it, and the
	// programmatic SetCurrentOption must not fire it: its refreshInbox
	// would re-enter this rebuild.
	a.syncingFilters = true
	a.categoryDrop.SetOptions(options, a.onCategorySelected)
	a.categoryDrop.SetCurrentOption(selected)
	a.syncingFilters = false
}

func (a *App) formatRow(email *models.Email) string {
	category := email.Category
	if category == "" {
		category = render.PlaceholderCategory
	}
	marker := " "
	senderColor := a.Theme.Body.FgColor
	if !email.IsRead {
		marker = "●"
		senderColor = a.Theme.List.UnreadColor
	}
	date := ""
	if !email.Timestamp.IsZero() {
		date = email.Timestamp.Format("Jan 02")
	}
	return fmt.Sprintf("[%s]%s %-24.24s[-] [%s]%-14.14s[-] %s  [%s]%s[-]",
		senderColor, marker, email.Sender,
		a.Theme.List.CategoryColor, category,
		email.Subject, a.Theme.Status.InfoColor, date)
}

func (a *App) rowEmailID(row int) (int, bool) {
	if row < 0 || row >= len(a.visibleIDs) {
		return 0, false
	}
	return a.visibleIDs[row], true
}
