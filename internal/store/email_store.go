package store

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/mailpilot/triage-tui/internal/api"
	"github.com/mailpilot/triage-tui/internal/models"
)

// EmailStore holds the authoritative in-memory email collection. Reads hand
// out copies so a render pass never observes a half-applied mutation.
type EmailStore struct {
	gateway api.Gateway
	logger  *log.Logger // Optional - for debug logging

	mu       sync.RWMutex
	emails   []models.Email
	loadedAt time.Time
}

// NewEmailStore creates an email store backed by the given gateway.
func NewEmailStore(gateway api.Gateway) *EmailStore {
	return &EmailStore{gateway: gateway}
}

// SetLogger sets the logger for debug output.
func (s *EmailStore) SetLogger(logger *log.Logger) {
	s.logger = logger
}

// Load replaces the whole collection from the backend. On failure the prior
// collection is left untouched: stale but consistent.
func (s *EmailStore) Load(ctx context.Context) error {
	emails, err := s.gateway.ListEmails(ctx)
	if err != nil {
		if s.logger != nil {
			s.logger.Printf("EmailStore: load failed: %v", err)
		}
		return fmt.Errorf("load emails: %w", err)
	}

	s.mu.Lock()
	s.emails = emails
	s.loadedAt = time.Now()
	s.mu.Unlock()

	if s.logger != nil {
		s.logger.Printf("EmailStore: loaded %d emails", len(emails))
	}
	return nil
}

// Ingest asks the backend to pull new mail, then reloads the collection.
func (s *EmailStore) Ingest(ctx context.Context) error {
	if err := s.gateway.TriggerIngest(ctx); err != nil {
		if s.logger != nil {
			s.logger.Printf("EmailStore: ingest trigger failed: %v", err)
		}
		return fmt.Errorf("trigger ingest: %w", err)
	}
	return s.Load(ctx)
}

// Snapshot returns a copy of the current collection in insertion order.
func (s *EmailStore) Snapshot() []models.Email {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.Email, len(s.emails))
	copy(out, s.emails)
	return out
}

// Find returns the email with the given id.
func (s *EmailStore) Find(id int) (models.Email, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for i := range s.emails {
		if s.emails[i].ID == id {
			return s.emails[i], true
		}
	}
	return models.Email{}, false
}

// MarkRead flips is_read to true. Idempotent; unknown ids are ignored.
func (s *EmailStore) MarkRead(id int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.emails {
		if s.emails[i].ID == id {
			s.emails[i].IsRead = true
			return
		}
	}
}

// Len returns the collection size.
func (s *EmailStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.emails)
}

// LoadedAt returns the time of the last successful load.
func (s *EmailStore) LoadedAt() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loadedAt
}
