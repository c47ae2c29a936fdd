package api

import (
	"fmt"
	"sync"
	"time"

	"github.com/haldor/ansuz/internal/scan"
	"github.com/haldor/ansuz/internal/session"
	"github.com/haldor/ansuz/internal/state"
	"github.com/haldor/ansuz/internal/tree"
	"github.com/haldor/ansuz/internal/vault"
)

// Service is the composition point the UI layer talks to. It owns the
// current tree snapshot and coordinates mutators, indexers, the note
// session, and the favorites/recents store.
//
// The tree is replaced wholesale after every successful mutation (and on
// explicit refresh); a published tree is never mutated in place, so readers
// holding a snapshot can keep using it after the lock is released.
type Service struct {
	vault   *vault.Vault
	builder *tree.Builder
	scanner *scan.Scanner
	session *session.Session
	states  *state.Store

	mu   sync.RWMutex
	tree []tree.Node
}

// NewService wires the engine components and builds the initial tree.
func NewService(v *vault.Vault, b *tree.Builder, sc *scan.Scanner, sess *session.Session, st *state.Store) *Service {
	s := &Service{vault: v, builder: b, scanner: sc, session: sess, states: st}
	s.Refresh()
	return s
}

// Tree returns the current tree snapshot.
func (s *Service) Tree() []tree.Node {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.tree
}

// Refresh rebuilds the tree from storage and overlays favorite marks.
func (s *Service) Refresh() {
	fresh := s.builder.Build("")
	tree.ApplyFavorites(fresh, s.states.IsFavorite)

	s.mu.Lock()
	s.tree = fresh
	s.mu.Unlock()
}

// CreateNote creates a note and rebuilds the tree.
func (s *Service) CreateNote(folder, name string) (string, error) {
	path, err := s.vault.CreateNote(folder, name)
	if err != nil {
		return "", err
	}
	s.Refresh()
	return path, nil
}

// CreateFolder creates a folder and rebuilds the tree.
func (s *Service) CreateFolder(parent, name string) (string, error) {
	path, err := s.vault.CreateFolder(parent, name)
	if err != nil {
		return "", err
	}
	s.Refresh()
	return path, nil
}

// DeleteItem deletes a note or folder, clears the session if the open note
// was inside the deleted subtree, drops stale favorite/recent marks, and
// rebuilds the tree.
func (s *Service) DeleteItem(path string) error {
	if err := s.vault.DeleteItem(path); err != nil {
		return err
	}
	if open := s.session.Path(); open == path || isUnder(open, path) {
		s.session.DiscardIf(open)
	}
	if err := s.states.Forget(path); err != nil {
		return fmt.Errorf("api: forget %s: %w", path, err)
	}
	s.Refresh()
	return nil
}

// RenameItem renames an item, rebases the session if the open note was
// affected, and rebuilds the tree.
func (s *Service) RenameItem(oldPath, newName string) (string, error) {
	newPath, err := s.vault.RenameItem(oldPath, newName)
	if err != nil {
		return "", err
	}
	s.session.Rebase(oldPath, newPath)
	s.Refresh()
	return newPath, nil
}

// MoveItem moves an item into targetFolder, rebases the session if needed,
// and rebuilds the tree.
func (s *Service) MoveItem(sourcePath, targetFolder string) (string, error) {
	newPath, err := s.vault.MoveItem(sourcePath, targetFolder)
	if err != nil {
		return "", err
	}
	s.session.Rebase(sourcePath, newPath)
	s.Refresh()
	return newPath, nil
}

// OpenDailyNote creates or finds the daily note for date and rebuilds the
// tree when a new file was written.
func (s *Service) OpenDailyNote(date time.Time) (vault.DailyNote, error) {
	dn, err := s.vault.OpenDailyNote(date)
	if err != nil {
		return vault.DailyNote{}, err
	}
	if dn.IsNew {
		s.Refresh()
	}
	return dn, nil
}

// SaveAttachment stores an uploaded file under the assets folder and
// rebuilds the tree (the folder itself may be new).
func (s *Service) SaveAttachment(data []byte, fileName string) (string, error) {
	path, err := s.vault.SaveAttachment(data, fileName)
	if err != nil {
		return "", err
	}
	s.Refresh()
	return path, nil
}

// Search runs a full-text scan over the current tree. The bool is false
// when a newer search superseded this one mid-scan.
func (s *Service) Search(query string) ([]scan.SearchResult, bool) {
	return s.scanner.Search(query, s.Tree())
}

// Tags returns the tag index for the current tree.
func (s *Service) Tags() []scan.TagInfo {
	return s.scanner.Tags(s.Tree())
}

// Backlinks returns the notes linking to noteName via [[noteName]].
func (s *Service) Backlinks(noteName string) []scan.Backlink {
	return s.scanner.Backlinks(noteName, s.Tree())
}

// Headings reads the note at path and extracts its headings.
func (s *Service) Headings(path string) ([]scan.Heading, error) {
	data, err := s.vault.Store().Read(path)
	if err != nil {
		return nil, fmt.Errorf("api: headings %s: %w", path, err)
	}
	return scan.Headings(string(data)), nil
}

// ToggleFavorite flips a path's favorite mark, persists it, and re-derives
// the flag on matching nodes without a storage rebuild. Published trees are
// immutable once handed out, so the flag is set on a clone which is then
// swapped in wholesale, the same publication rule Refresh follows.
func (s *Service) ToggleFavorite(path string) (bool, error) {
	fav, err := s.states.ToggleFavorite(path)
	if err != nil {
		return false, err
	}
	s.mu.Lock()
	fresh := tree.Clone(s.tree)
	tree.SetFavorite(fresh, path, fav)
	s.tree = fresh
	s.mu.Unlock()
	return fav, nil
}

// Recents returns the recently-opened note paths, most recent first.
func (s *Service) Recents() []string {
	return s.states.Recents()
}

// Settings returns the persisted settings document.
func (s *Service) Settings() state.Settings {
	return s.states.Snapshot()
}

// UpdateSettings stores UI preferences.
func (s *Service) UpdateSettings(theme, viewMode string) error {
	return s.states.SetUI(theme, viewMode)
}

// OpenNote loads a note into the session (flushing the previous one) and
// returns its content.
func (s *Service) OpenNote(path string) (string, error) {
	return s.session.Load(path)
}

// SetContent replaces the open note's in-memory content and arms autosave.
func (s *Service) SetContent(text string) {
	s.session.SetContent(text)
}

// SaveNote flushes the open note if dirty.
func (s *Service) SaveNote() error {
	return s.session.Save()
}

// CloseNote flushes and closes the session.
func (s *Service) CloseNote() {
	s.session.Close()
}

// SessionStatus returns a snapshot of the session state.
func (s *Service) SessionStatus() session.Status {
	return s.session.Status()
}

// isUnder reports whether p lies strictly inside the subtree rooted at dir.
func isUnder(p, dir string) bool {
	return p != "" && len(p) > len(dir) && p[:len(dir)+1] == dir+"/"
}
