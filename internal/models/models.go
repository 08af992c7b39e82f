package models

import (
	"fmt"
	"strings"
	"time"
)

// Timestamp unmarshals the instants the triage backend emits. The backend
// serializes naive datetimes without a zone offset, which strict RFC3339
// parsing rejects, so both forms are accepted.
type Timestamp struct {
	time.Time
}

// UnmarshalJSON accepts RFC3339 with or without a zone offset.
func (t *Timestamp) UnmarshalJSON(data []byte) error {
	s := strings.Trim(string(data), `"`)
	if s == "" || s == "null" {
		t.Time = time.Time{}
		return nil
	}
	for _, layout := range []string{time.RFC3339Nano, "2006-01-02T15:04:05.999999999", "2006-01-02 15:04:05"} {
		if parsed, err := time.Parse(layout, s); err == nil {
			t.Time = parsed
			return nil
		}
	}
	return fmt.Errorf("unrecognized timestamp %q", s)
}

// MarshalJSON emits RFC3339.
func (t Timestamp) MarshalJSON() ([]byte, error) {
	if t.IsZero() {
		return []byte(`""`), nil
	}
	return []byte(`"` + t.Format(time.RFC3339) + `"`), nil
}

// ActionItem is one extracted task from an email, optionally with a deadline.
type ActionItem struct {
	Task     string `json:"task"`
	Deadline string `json:"deadline,omitempty"`
}

// Email is one ingested message. Category, Summary and ActionItems start
// empty and populate once backend analysis completes; consumers must
// tolerate the partially analyzed form.
type Email struct {
	ID          int          `json:"id"`
	Sender      string       `json:"sender"`
	Subject     string       `json:"subject"`
	Body        string       `json:"body"`
	Timestamp   Timestamp    `json:"timestamp"`
	IsRead      bool         `json:"is_read"`
	Category    string       `json:"category,omitempty"`
	Summary     string       `json:"summary,omitempty"`
	ActionItems []ActionItem `json:"action_items,omitempty"`
}

// Analyzed reports whether backend analysis has produced a category yet.
func (e *Email) Analyzed() bool {
	return e.Category != ""
}

// Draft is a generated reply candidate. Immutable once received.
type Draft struct {
	ID        int       `json:"id"`
	EmailID   int       `json:"email_id"`
	Subject   string    `json:"subject"`
	Body      string    `json:"body"`
	Status    string    `json:"status"`
	CreatedAt Timestamp `json:"created_at"`
}

// PromptTemplate is one named prompt the backend agent runs.
// PromptType is the unique key.
type PromptTemplate struct {
	ID           int       `json:"id"`
	PromptType   string    `json:"prompt_type"`
	TemplateText string    `json:"template_text"`
	LastUpdated  Timestamp `json:"last_updated"`
}

// DisplayName returns the human form of the prompt type key.
func (p *PromptTemplate) DisplayName() string {
	return strings.ReplaceAll(p.PromptType, "_", " ")
}

// Chat turn roles.
const (
	RoleUser  = "user"
	RoleAgent = "agent"
)

// ChatTurn is one entry in a session transcript.
type ChatTurn struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}
