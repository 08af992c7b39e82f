// Package session owns the per-email conversational state: the chat
// transcript, the in-flight request flags and the current reply draft.
package session

import (
	"context"
	"fmt"
	"log"
	"strings"
	"sync"

	"github.com/mailpilot/triage-tui/internal/api"
	"github.com/mailpilot/triage-tui/internal/models"
)

// Assistant-authored transcript text. One consistent set of strings for
// every entry point into the session.
const (
	greetingFormat     = "Hello! I've analyzed this email from %s. How can I help?"
	chatFailureMessage = "Sorry, I encountered an error."
	draftReadyMessage  = "I've drafted a reply for you below."
)

// QuickAction is a predefined instruction shortcut. It behaves exactly like
// a typed message, including the optimistic echo of the synthesized prompt.
type QuickAction string

const (
	QuickSummarize    QuickAction = "summarize"
	QuickExtractTasks QuickAction = "extract_tasks"
)

var quickActionPrompts = map[QuickAction]string{
	QuickSummarize:    "Please summarize this email",
	QuickExtractTasks: "Extract all action items from this email",
}

// View is a point-in-time copy of session state safe to render from.
type View struct {
	EmailID      int
	Transcript   []models.ChatTurn
	ChatPending  bool
	DraftPending bool
	Draft        *models.Draft
}

// Controller runs the session state machine for the currently selected
// email. Exactly one session is active; selecting an email always starts a
// fresh one. Completions of calls issued for an earlier session are
// recognized by a generation counter and discarded, so a slow response for
// email A can never leak into email B's transcript.
type Controller struct {
	gateway api.Gateway
	logger  *log.Logger // Optional - for debug logging
	notify  func()

	mu           sync.Mutex
	generation   uint64
	emailID      int
	transcript   []models.ChatTurn
	chatPending  bool
	draftPending bool
	draft        *models.Draft

	wg sync.WaitGroup
}

// NewController creates a session controller backed by the given gateway.
func NewController(gateway api.Gateway) *Controller {
	return &Controller{gateway: gateway}
}

// SetLogger sets the logger for debug output.
func (c *Controller) SetLogger(logger *log.Logger) {
	c.logger = logger
}

// SetNotify registers a callback invoked when a background completion
// lands. Synchronous transitions (Select, the optimistic user turn, the
// pending flags) are rendered by the caller on its own goroutine; the
// callback is only the hop back to the UI for results arriving on worker
// goroutines. It is called without the controller lock held, so it may
// call Snapshot.
func (c *Controller) SetNotify(fn func()) {
	c.notify = fn
}

// Select activates a fresh session for the given email: a single greeting
// turn referencing its sender, no draft, no pending work. Any outstanding
// call from the previous session keeps running but its result is discarded
// on arrival.
func (c *Controller) Select(email models.Email) {
	c.mu.Lock()
	c.generation++
	c.emailID = email.ID
	c.transcript = []models.ChatTurn{{
		Role:    models.RoleAgent,
		Content: fmt.Sprintf(greetingFormat, email.Sender),
	}}
	c.chatPending = false
	c.draftPending = false
	c.draft = nil
	c.mu.Unlock()

	if c.logger != nil {
		c.logger.Printf("Session: activated email %d (%s)", email.ID, email.Sender)
	}
}

// SendMessage appends the user's turn optimistically and asks the agent for
// a reply. Empty or whitespace-only text is ignored, as is a send while a
// chat call is already outstanding. Returns whether a call was issued.
func (c *Controller) SendMessage(ctx context.Context, text string) bool {
	text = strings.TrimSpace(text)
	if text == "" {
		return false
	}

	c.mu.Lock()
	if c.chatPending {
		c.mu.Unlock()
		return false
	}
	c.transcript = append(c.transcript, models.ChatTurn{Role: models.RoleUser, Content: text})
	c.chatPending = true
	gen := c.generation
	emailID := c.emailID
	c.mu.Unlock()

	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		response, err := c.gateway.Chat(ctx, emailID, text)

		c.mu.Lock()
		if c.generation != gen {
			c.mu.Unlock()
			if c.logger != nil {
				c.logger.Printf("Session: discarding chat reply for superseded email %d", emailID)
			}
			return
		}
		if err != nil {
			// Chat failures surface in the transcript, never as a dialog.
			if c.logger != nil {
				c.logger.Printf("Session: chat failed for email %d: %v", emailID, err)
			}
			c.transcript = append(c.transcript, models.ChatTurn{Role: models.RoleAgent, Content: chatFailureMessage})
		} else {
			c.transcript = append(c.transcript, models.ChatTurn{Role: models.RoleAgent, Content: response})
		}
		c.chatPending = false
		c.mu.Unlock()
		c.changed()
	}()
	return true
}

// Quick runs a quick action as an ordinary chat turn. Unknown actions are
// ignored.
func (c *Controller) Quick(ctx context.Context, action QuickAction) bool {
	prompt, ok := quickActionPrompts[action]
	if !ok {
		return false
	}
	return c.SendMessage(ctx, prompt)
}

// RequestDraft asks the backend for a reply draft. Ignored while a draft
// call is already outstanding. Chat and drafting are independent: a pending
// chat reply does not block a draft request. Failures are logged without
// touching the transcript; on success the draft slot fills and the agent
// announces it. Returns whether a call was issued.
func (c *Controller) RequestDraft(ctx context.Context, instruction string) bool {
	c.mu.Lock()
	if c.draftPending {
		c.mu.Unlock()
		return false
	}
	c.draftPending = true
	gen := c.generation
	emailID := c.emailID
	c.mu.Unlock()

	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		draft, err := c.gateway.GenerateDraft(ctx, emailID, instruction)

		c.mu.Lock()
		if c.generation != gen {
			c.mu.Unlock()
			if c.logger != nil {
				c.logger.Printf("Session: discarding draft for superseded email %d", emailID)
			}
			return
		}
		if err != nil {
			if c.logger != nil {
				c.logger.Printf("Session: draft generation failed for email %d: %v", emailID, err)
			}
		} else {
			c.draft = draft
			c.transcript = append(c.transcript, models.ChatTurn{Role: models.RoleAgent, Content: draftReadyMessage})
		}
		c.draftPending = false
		c.mu.Unlock()
		c.changed()
	}()
	return true
}

// Snapshot returns a copy of the active session's state.
func (c *Controller) Snapshot() View {
	c.mu.Lock()
	defer c.mu.Unlock()
	view := View{
		EmailID:      c.emailID,
		Transcript:   make([]models.ChatTurn, len(c.transcript)),
		ChatPending:  c.chatPending,
		DraftPending: c.draftPending,
	}
	copy(view.Transcript, c.transcript)
	if c.draft != nil {
		draft := *c.draft
		view.Draft = &draft
	}
	return view
}

// Wait blocks until all in-flight gateway calls have completed. Used on
// shutdown and by tests to make completion ordering deterministic.
func (c *Controller) Wait() {
	c.wg.Wait()
}

func (c *Controller) changed() {
	if c.notify != nil {
		c.notify()
	}
}
