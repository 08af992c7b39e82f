// Package prompts caches the backend's named prompt templates and persists
// edits. Saves fire on loss of focus, not per keystroke, so the store only
// has to order whole-field writes.
package prompts

import (
	"context"
	"fmt"
	"log"
	"sort"
	"sync"

	"github.com/mailpilot/triage-tui/internal/api"
	"github.com/mailpilot/triage-tui/internal/models"
)

// Store is the client-side cache of prompt templates, keyed by prompt type.
// Saves of different types are unordered; saves of the same type carry a
// per-type sequence so a late response for an older save never overwrites a
// newer one.
type Store struct {
	gateway api.Gateway
	logger  *log.Logger // Optional - for debug logging
	notify  func()

	mu        sync.Mutex
	templates map[string]models.PromptTemplate
	dirty     map[string]bool
	issued    map[string]uint64
	applied   map[string]uint64

	wg sync.WaitGroup
}

// NewStore creates a prompt template store backed by the given gateway.
func NewStore(gateway api.Gateway) *Store {
	return &Store{
		gateway:   gateway,
		templates: make(map[string]models.PromptTemplate),
		dirty:     make(map[string]bool),
		issued:    make(map[string]uint64),
		applied:   make(map[string]uint64),
	}
}

// SetLogger sets the logger for debug output.
func (s *Store) SetLogger(logger *log.Logger) {
	s.logger = logger
}

// SetNotify registers a callback invoked when a background save
// completes. Load is synchronous and its caller renders the result
// itself.
func (s *Store) SetNotify(fn func()) {
	s.notify = fn
}

// Load fetches the full template set. On failure the cache is left
// untouched and the error is logged and returned.
func (s *Store) Load(ctx context.Context) error {
	prompts, err := s.gateway.ListPrompts(ctx)
	if err != nil {
		if s.logger != nil {
			s.logger.Printf("PromptStore: load failed: %v", err)
		}
		return fmt.Errorf("load prompts: %w", err)
	}

	s.mu.Lock()
	s.templates = make(map[string]models.PromptTemplate, len(prompts))
	for _, p := range prompts {
		s.templates[p.PromptType] = p
	}
	s.dirty = make(map[string]bool)
	s.mu.Unlock()
	return nil
}

// Templates returns the cached templates sorted by prompt type for stable
// display.
func (s *Store) Templates() []models.PromptTemplate {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.PromptTemplate, 0, len(s.templates))
	for _, p := range s.templates {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].PromptType < out[j].PromptType })
	return out
}

// Dirty reports whether the last save of the given type failed, i.e. the
// editor shows text the server has not acknowledged.
func (s *Store) Dirty(promptType string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.dirty[promptType]
}

// Save persists one template. Called when the editor for that type loses
// focus. The latest issued save wins: a success response for an older save
// arriving late is discarded, and a failure only marks the type unsaved if
// no newer save has been issued since.
func (s *Store) Save(ctx context.Context, promptType, text string) {
	s.mu.Lock()
	s.issued[promptType]++
	seq := s.issued[promptType]
	s.mu.Unlock()

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		updated, err := s.gateway.UpdatePrompt(ctx, promptType, text)

		s.mu.Lock()
		if err != nil {
			if s.logger != nil {
				s.logger.Printf("PromptStore: save failed for %q: %v", promptType, err)
			}
			if seq == s.issued[promptType] && seq > s.applied[promptType] {
				s.dirty[promptType] = true
			}
			s.mu.Unlock()
			s.changed()
			return
		}
		if seq > s.applied[promptType] {
			s.applied[promptType] = seq
			s.templates[promptType] = *updated
			if seq == s.issued[promptType] {
				s.dirty[promptType] = false
			}
		}
		s.mu.Unlock()
		s.changed()
	}()
}

// Wait blocks until all in-flight saves have completed.
func (s *Store) Wait() {
	s.wg.Wait()
}

func (s *Store) changed() {
	if s.notify != nil {
		s.notify()
	}
}
