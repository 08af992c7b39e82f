// Package filter computes derived views of the email collection. Everything
// here is a pure function of its inputs so the inbox can recompute on every
// keystroke without hidden caches.
package filter

import (
	"sort"
	"strings"

	"github.com/mailpilot/triage-tui/internal/models"
)

// Status narrows by read state.
type Status string

const (
	StatusAll    Status = "All"
	StatusRead   Status = "Read"
	StatusUnread Status = "Unread"
)

// CategoryAll passes every record regardless of category.
const CategoryAll = "All"

// Criteria is the transient filter state owned by the inbox view.
type Criteria struct {
	Query    string
	Category string
	Status   Status
}

// Matches reports whether a single record passes all three predicates.
func (c Criteria) Matches(e *models.Email) bool {
	if q := strings.ToLower(c.Query); q != "" {
		if !strings.Contains(strings.ToLower(e.Subject), q) &&
			!strings.Contains(strings.ToLower(e.Body), q) &&
			!strings.Contains(strings.ToLower(e.Sender), q) {
			return false
		}
	}
	if c.Category != "" && c.Category != CategoryAll && e.Category != c.Category {
		return false
	}
	switch c.Status {
	case StatusRead:
		if !e.IsRead {
			return false
		}
	case StatusUnread:
		if e.IsRead {
			return false
		}
	}
	return true
}

// Apply returns the records passing the criteria, preserving the input's
// relative order. Zero results is a valid outcome, not an error.
func Apply(records []models.Email, criteria Criteria) []models.Email {
	out := make([]models.Email, 0, len(records))
	for i := range records {
		if criteria.Matches(&records[i]) {
			out = append(out, records[i])
		}
	}
	return out
}

// Categories returns the filter choices for the category dropdown: "All"
// followed by the distinct non-empty categories observed, sorted ascending.
// Recomputed whenever the collection changes since analysis completes late.
func Categories(records []models.Email) []string {
	seen := make(map[string]struct{})
	for i := range records {
		if c := records[i].Category; c != "" {
			seen[c] = struct{}{}
		}
	}
	cats := make([]string, 0, len(seen))
	for c := range seen {
		cats = append(cats, c)
	}
	sort.Strings(cats)
	return append([]string{CategoryAll}, cats...)
}
