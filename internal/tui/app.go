package tui

import (
	"context"
	"log"
	"os"
	"sync"
	"sync/atomic"

	"github.com/derailed/tcell/v2"
	"github.com/derailed/tview"
	"github.com/mailpilot/triage-tui/internal/api"
	"github.com/mailpilot/triage-tui/internal/config"
	"github.com/mailpilot/triage-tui/internal/filter"
	"github.com/mailpilot/triage-tui/internal/prompts"
	"github.com/mailpilot/triage-tui/internal/session"
	"github.com/mailpilot/triage-tui/internal/store"
)

// Page names.
const (
	pageInbox   = "inbox"
	pageDetail  = "detail"
	pagePrompts = "prompts"
)

// App encapsulates the terminal UI and the triage backend client.
type App struct {
	*tview.Application
	Pages  *tview.Pages
	Config *config.Config
	Theme  *config.Theme

	gateway api.Gateway
	emails  *store.EmailStore
	session *session.Controller
	prompts *prompts.Store

	ctx      context.Context
	cancel   context.CancelFunc
	stopping atomic.Bool

	mu       sync.RWMutex
	views    map[string]tview.Primitive
	criteria filter.Criteria
	selected int // selected email id, 0 when none

	// syncingFilters suppresses the dropdown selected handlers while
	// refreshInbox syncs their options programmatically. Event goroutine
	// only.
	syncingFilters bool

	// Inbox widgets
	inboxTable   *tview.Table
	searchField  *tview.InputField
	categoryDrop *tview.DropDown
	statusDrop   *tview.DropDown
	inboxCounter *tview.TextView
	visibleIDs   []int // table row -> email id

	// Detail widgets
	detailView *tview.TextView
	chatView   *tview.TextView
	chatInput  *tview.InputField

	// Prompt editor widgets
	promptsHeader *tview.TextView
	promptsList   *tview.Flex
	promptRows    []*promptRow

	statusView *tview.TextView

	// Debug logging
	logger  *log.Logger
	logFile *os.File
}

// NewApp creates the application and builds all views.
func NewApp(cfg *config.Config, theme *config.Theme, gateway api.Gateway) *App {
	ctx, cancel := context.WithCancel(context.Background())

	a := &App{
		Application: tview.NewApplication(),
		Pages:       tview.NewPages(),
		Config:      cfg,
		Theme:       theme,
		gateway:     gateway,
		emails:      store.NewEmailStore(gateway),
		session:     session.NewController(gateway),
		prompts:     prompts.NewStore(gateway),
		ctx:         ctx,
		cancel:      cancel,
		views:       make(map[string]tview.Primitive),
		criteria:    filter.Criteria{Category: filter.CategoryAll, Status: filter.StatusAll},
	}

	a.initLogger()
	a.initViews()

	// Backend completions land on worker goroutines; hop onto the UI loop
	// to apply. Synchronous transitions are rendered at the call site and
	// never pass through here: QueueUpdate from the event goroutine would
	// block the loop on itself.
	a.session.SetNotify(func() {
		a.queueRedraw(a.renderAssistant)
	})
	a.prompts.SetNotify(func() {
		a.queueRedraw(a.renderPrompts)
	})

	a.SetRoot(a.rootLayout(), true)
	return a
}

func (a *App) initLogger() {
	if a.Config.LogFile == "" {
		return
	}
	f, err := os.OpenFile(a.Config.LogFile, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o600)
	if err != nil {
		return
	}
	a.logFile = f
	a.logger = log.New(f, "", log.LstdFlags)
	a.emails.SetLogger(a.logger)
	a.session.SetLogger(a.logger)
	a.prompts.SetLogger(a.logger)
}

func (a *App) initViews() {
	a.views["inbox"] = a.buildInbox()
	a.views["detail"] = a.buildDetail()
	a.views["prompts"] = a.buildPrompts()
	a.views["status"] = a.buildStatus()

	a.Pages.AddPage(pageInbox, a.views["inbox"], true, true)
	a.Pages.AddPage(pageDetail, a.views["detail"], true, false)
	a.Pages.AddPage(pagePrompts, a.views["prompts"], true, false)
}

func (a *App) rootLayout() tview.Primitive {
	root := tview.NewFlex().SetDirection(tview.FlexRow)
	root.SetBackgroundColor(a.Theme.Body.BgColor.Color())
	root.AddItem(a.Pages, 0, 1, true)
	root.AddItem(a.views["status"], 1, 0, false)
	return root
}

// Run starts the UI and kicks off the initial email load.
func (a *App) Run() error {
	defer a.shutdown()

	go func() {
		if err := a.emails.Load(a.ctx); err != nil {
			a.queueRedraw(func() {
				a.showError("Could not load emails; backend unreachable?")
			})
			return
		}
		a.queueRedraw(a.refreshInbox)
	}()

	return a.Application.Run()
}

func (a *App) shutdown() {
	a.stopping.Store(true)
	a.cancel()
	a.session.Wait()
	a.prompts.Wait()
	if a.logFile != nil {
		_ = a.logFile.Close()
	}
}

// queueRedraw hands a repaint to the event loop without ever blocking the
// caller. QueueUpdate waits for the loop to drain it, and a completion can
// land after Run has returned when nothing drains the queue anymore, so
// the wait happens on a throwaway goroutine.
func (a *App) queueRedraw(render func()) {
	if a.stopping.Load() {
		return
	}
	go a.QueueUpdateDraw(render)
}

// reloadEmails re-fetches the collection, optionally triggering backend
// ingestion first.
func (a *App) reloadEmails(ingest bool) {
	if ingest {
		a.showInfo("Ingesting new mail...")
	} else {
		a.showInfo("Refreshing...")
	}
	go func() {
		var err error
		if ingest {
			err = a.emails.Ingest(a.ctx)
		} else {
			err = a.emails.Load(a.ctx)
		}
		a.queueRedraw(func() {
			if err != nil {
				a.showError("Refresh failed; showing last known inbox")
				return
			}
			a.refreshInbox()
			a.showInfo("Inbox up to date")
		})
	}()
}

// openEmail activates an email: read flip, fresh assistant session, detail
// page.
func (a *App) openEmail(id int) {
	email, ok := a.emails.Find(id)
	if !ok {
		return
	}
	a.emails.MarkRead(id)

	a.mu.Lock()
	a.selected = id
	a.mu.Unlock()

	a.session.Select(email)
	a.renderDetail(email)
	a.renderAssistant()
	a.Pages.SwitchToPage(pageDetail)
	a.SetFocus(a.chatInput)
}

// backToInbox leaves the detail view. The session keeps running; a reply
// that arrives for a since-superseded session is discarded by the
// controller, not here.
func (a *App) backToInbox() {
	a.refreshInbox()
	a.Pages.SwitchToPage(pageInbox)
	a.SetFocus(a.inboxTable)
}

func (a *App) openPrompts() {
	a.showInfo("Loading prompt templates...")
	go func() {
		err := a.prompts.Load(a.ctx)
		a.queueRedraw(func() {
			if err != nil {
				a.showError("Could not load prompt templates")
				return
			}
			a.populatePrompts()
			a.Pages.SwitchToPage(pagePrompts)
			a.focusPromptRow(0)
		})
	}()
}

// globalKeys handles keys that apply regardless of the focused widget.
func (a *App) globalKeys(event *tcell.EventKey) *tcell.EventKey {
	switch event.Key() {
	case tcell.KeyCtrlC:
		a.Stop()
		return nil
	}
	return event
}
