// Package session tracks the currently open note: its in-memory content,
// dirty state, and debounced autosave.
//
// Autosave correctness hinges on one rule: every edit captures a single
// pending {path, content} record, and the deferred save fires only if the
// captured path still equals the currently open note when the timer elapses.
// A stale timer from a previously open note is silently discarded, so an
// autosave can never write one note's content to another note's path.
package session

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/haldor/ansuz/internal/apperr"
	"github.com/haldor/ansuz/internal/state"
	"github.com/haldor/ansuz/internal/storage"
)

// DefaultAutosaveDelay is the quiet period after the last edit before an
// autosave fires.
const DefaultAutosaveDelay = 800 * time.Millisecond

// pendingWrite is the single-slot record captured by an edit.
type pendingWrite struct {
	path    string
	content string
}

// Session owns the open note. Safe for concurrent use.
type Session struct {
	store  storage.Provider
	states *state.Store
	logger *slog.Logger
	delay  time.Duration

	mu      sync.Mutex
	path    string // "" when no note is open
	content string
	dirty   bool
	saving  bool
	timer   *time.Timer
	pending *pendingWrite
}

// Status is a snapshot of the session state.
type Status struct {
	Path    string `json:"path"`
	Content string `json:"content"`
	Dirty   bool   `json:"dirty"`
	Saving  bool   `json:"saving"`
}

// New creates a Session. A non-positive delay falls back to the default.
func New(store storage.Provider, states *state.Store, logger *slog.Logger, delay time.Duration) *Session {
	if logger == nil {
		logger = slog.Default()
	}
	if delay <= 0 {
		delay = DefaultAutosaveDelay
	}
	return &Session{store: store, states: states, logger: logger, delay: delay}
}

// Load opens the note at path, flushing any unsaved content of the
// previously open note first (using the values captured at the moment of
// the switch). The opened path is pushed to the front of the recents list.
func (s *Session) Load(path string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.flushLocked()

	data, err := s.store.Read(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", fmt.Errorf("session: load %s: %w", path, apperr.ErrNotFound)
		}
		return "", fmt.Errorf("session: load: %w", err)
	}

	s.path = path
	s.content = string(data)
	s.dirty = false

	if s.states != nil {
		if err := s.states.Touch(path); err != nil {
			s.logger.Warn("session: recents update failed", slog.String("error", err.Error()))
		}
	}
	return s.content, nil
}

// SetContent replaces the in-memory content of the open note, marks the
// session dirty, and (re)arms the autosave timer with a fresh captured
// pending-write record. A no-op when no note is open.
func (s *Session) SetContent(text string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.path == "" {
		return
	}
	s.content = text
	s.dirty = true

	p := &pendingWrite{path: s.path, content: text}
	s.pending = p
	if s.timer != nil {
		s.timer.Stop()
	}
	s.timer = time.AfterFunc(s.delay, func() { s.autosave(p) })
}

// autosave is the deferred save armed by SetContent. It discards itself
// when a newer edit replaced the pending record or when the captured path
// no longer matches the open note.
func (s *Session) autosave(p *pendingWrite) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.pending != p {
		return
	}
	s.pending = nil
	if p.path != s.path {
		s.logger.Debug("session: stale autosave discarded", slog.String("path", p.path))
		return
	}

	s.saving = true
	err := s.store.Write(p.path, []byte(p.content))
	s.saving = false
	if err != nil {
		s.logger.Error("session: autosave failed", slog.String("path", p.path), slog.String("error", err.Error()))
		return
	}
	if s.content == p.content {
		s.dirty = false
	}
	s.logger.Debug("session: autosaved", slog.String("path", p.path))
}

// Save writes the current content to the open note. A no-op unless dirty.
func (s *Session) Save() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.path == "" || !s.dirty {
		return nil
	}
	s.disarmLocked()
	s.saving = true
	err := s.store.Write(s.path, []byte(s.content))
	s.saving = false
	if err != nil {
		return fmt.Errorf("session: save %s: %w", s.path, err)
	}
	s.dirty = false
	return nil
}

// Close flushes any unsaved content and returns the session to the empty
// state.
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.flushLocked()
	s.path = ""
	s.content = ""
	s.dirty = false
}

// DiscardIf drops the open note without flushing when its path matches,
// reporting whether it did. Used after the open note is deleted from disk.
func (s *Session) DiscardIf(path string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.path != path {
		return false
	}
	s.disarmLocked()
	s.path = ""
	s.content = ""
	s.dirty = false
	return true
}

// Rebase updates the open note's path after a rename or move so later saves
// land at the new location. Prefix rebasing covers an open note inside a
// moved folder.
func (s *Session) Rebase(oldPath, newPath string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch {
	case s.path == oldPath:
		s.path = newPath
	case len(s.path) > len(oldPath) && s.path[:len(oldPath)+1] == oldPath+"/":
		s.path = newPath + s.path[len(oldPath):]
	default:
		return
	}
	// Any pending autosave still carries the old path; rearm it.
	if s.dirty {
		p := &pendingWrite{path: s.path, content: s.content}
		s.pending = p
		if s.timer != nil {
			s.timer.Stop()
		}
		s.timer = time.AfterFunc(s.delay, func() { s.autosave(p) })
	}
}

// Status returns a snapshot of the session.
func (s *Session) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Status{Path: s.path, Content: s.content, Dirty: s.dirty, Saving: s.saving}
}

// Path returns the open note's path, or "" when empty.
func (s *Session) Path() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.path
}

// flushLocked synchronously writes unsaved dirty content for the currently
// open note using the values held at this moment. Callers must hold s.mu.
func (s *Session) flushLocked() {
	s.disarmLocked()
	if s.path == "" || !s.dirty {
		return
	}
	if err := s.store.Write(s.path, []byte(s.content)); err != nil {
		s.logger.Error("session: flush failed", slog.String("path", s.path), slog.String("error", err.Error()))
		return
	}
	s.dirty = false
	s.logger.Debug("session: flushed", slog.String("path", s.path))
}

// disarmLocked cancels any armed autosave. Callers must hold s.mu.
func (s *Session) disarmLocked() {
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
	s.pending = nil
}
