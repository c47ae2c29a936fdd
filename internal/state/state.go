// Package state persists the lightweight application state that lives
// outside the vault: favorites, recently opened notes, and UI settings.
package state

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// maxRecents caps the recently-opened list.
const maxRecents = 10

// Settings is the persisted key-value document.
type Settings struct {
	Favorites   []string `json:"favorites"`
	RecentNotes []string `json:"recent_notes"`
	Theme       string   `json:"theme,omitempty"`
	ViewMode    string   `json:"view_mode,omitempty"`
	NotesFolder string   `json:"notes_folder,omitempty"`
}

// Store owns the settings document and persists every mutation atomically.
// Safe for concurrent use.
type Store struct {
	mu       sync.Mutex
	path     string
	settings Settings
}

// Load reads the settings document at path, or starts from defaults when
// the file does not exist yet.
func Load(path string) (*Store, error) {
	st := &Store{path: path, settings: Settings{
		Favorites:   []string{},
		RecentNotes: []string{},
	}}
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return st, nil
		}
		return nil, fmt.Errorf("state: read %s: %w", path, err)
	}
	if err := json.Unmarshal(data, &st.settings); err != nil {
		return nil, fmt.Errorf("state: parse %s: %w", path, err)
	}
	if st.settings.Favorites == nil {
		st.settings.Favorites = []string{}
	}
	if st.settings.RecentNotes == nil {
		st.settings.RecentNotes = []string{}
	}
	if len(st.settings.RecentNotes) > maxRecents {
		st.settings.RecentNotes = st.settings.RecentNotes[:maxRecents]
	}
	return st, nil
}

// ToggleFavorite flips membership of path in the favorites set, persists the
// change, and returns the new membership state.
func (st *Store) ToggleFavorite(path string) (bool, error) {
	st.mu.Lock()
	defer st.mu.Unlock()

	idx := -1
	for i, p := range st.settings.Favorites {
		if p == path {
			idx = i
			break
		}
	}
	fav := idx < 0
	if fav {
		st.settings.Favorites = append(st.settings.Favorites, path)
	} else {
		st.settings.Favorites = append(st.settings.Favorites[:idx], st.settings.Favorites[idx+1:]...)
	}
	if err := st.persistLocked(); err != nil {
		return false, err
	}
	return fav, nil
}

// IsFavorite reports whether path is in the favorites set.
func (st *Store) IsFavorite(path string) bool {
	st.mu.Lock()
	defer st.mu.Unlock()
	for _, p := range st.settings.Favorites {
		if p == path {
			return true
		}
	}
	return false
}

// Favorites returns a copy of the favorites set.
func (st *Store) Favorites() []string {
	st.mu.Lock()
	defer st.mu.Unlock()
	return append([]string{}, st.settings.Favorites...)
}

// Touch moves path to the front of the recents list, deduplicated and
// capped, and persists the result.
func (st *Store) Touch(path string) error {
	st.mu.Lock()
	defer st.mu.Unlock()

	recents := make([]string, 0, maxRecents)
	recents = append(recents, path)
	for _, p := range st.settings.RecentNotes {
		if p == path {
			continue
		}
		recents = append(recents, p)
		if len(recents) == maxRecents {
			break
		}
	}
	st.settings.RecentNotes = recents
	return st.persistLocked()
}

// Forget removes path, and everything under it when path is a folder, from
// both favorites and recents, persisting only if something changed. Used when
// an item is deleted or moved away.
func (st *Store) Forget(path string) error {
	st.mu.Lock()
	defer st.mu.Unlock()

	prefix := path + "/"
	gone := func(p string) bool {
		return p == path || strings.HasPrefix(p, prefix)
	}

	changed := false
	favs := st.settings.Favorites[:0]
	for _, p := range st.settings.Favorites {
		if gone(p) {
			changed = true
			continue
		}
		favs = append(favs, p)
	}
	st.settings.Favorites = favs

	recents := st.settings.RecentNotes[:0]
	for _, p := range st.settings.RecentNotes {
		if gone(p) {
			changed = true
			continue
		}
		recents = append(recents, p)
	}
	st.settings.RecentNotes = recents

	if !changed {
		return nil
	}
	return st.persistLocked()
}

// Recents returns a copy of the recently-opened list, most recent first.
func (st *Store) Recents() []string {
	st.mu.Lock()
	defer st.mu.Unlock()
	return append([]string{}, st.settings.RecentNotes...)
}

// Snapshot returns a copy of the full settings document.
func (st *Store) Snapshot() Settings {
	st.mu.Lock()
	defer st.mu.Unlock()
	s := st.settings
	s.Favorites = append([]string{}, st.settings.Favorites...)
	s.RecentNotes = append([]string{}, st.settings.RecentNotes...)
	return s
}

// SetUI updates the UI preferences (theme, view mode) and persists.
func (st *Store) SetUI(theme, viewMode string) error {
	st.mu.Lock()
	defer st.mu.Unlock()
	if theme != "" {
		st.settings.Theme = theme
	}
	if viewMode != "" {
		st.settings.ViewMode = viewMode
	}
	return st.persistLocked()
}

// SetNotesFolder records the vault location and persists.
func (st *Store) SetNotesFolder(folder string) error {
	st.mu.Lock()
	defer st.mu.Unlock()
	st.settings.NotesFolder = folder
	return st.persistLocked()
}

// persistLocked writes the document atomically: tmp file → fsync → rename.
// Callers must hold st.mu.
func (st *Store) persistLocked() error {
	data, err := json.MarshalIndent(st.settings, "", "  ")
	if err != nil {
		return fmt.Errorf("state: marshal: %w", err)
	}

	dir := filepath.Dir(st.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("state: mkdir: %w", err)
	}
	tmp, err := os.CreateTemp(dir, ".ansuz-state-*")
	if err != nil {
		return fmt.Errorf("state: create temp: %w", err)
	}
	tmpName := tmp.Name()

	success := false
	defer func() {
		if !success {
			_ = tmp.Close()
			_ = os.Remove(tmpName)
		}
	}()

	if _, err := tmp.Write(data); err != nil {
		return fmt.Errorf("state: write temp: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		return fmt.Errorf("state: fsync: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("state: close temp: %w", err)
	}
	if err := os.Rename(tmpName, st.path); err != nil {
		return fmt.Errorf("state: rename: %w", err)
	}
	success = true
	return nil
}
