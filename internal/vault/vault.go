// Package vault implements the repository mutators: every operation that
// changes the note folder on disk.
//
// Mutators never touch the in-memory tree. Each one validates its inputs,
// performs a single storage operation (or a small fixed sequence), and
// returns the new canonical path or an error. Callers rebuild the tree after
// every successful mutation, so storage and displayed state cannot diverge.
package vault

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/haldor/ansuz/internal/apperr"
	"github.com/haldor/ansuz/internal/pathguard"
	"github.com/haldor/ansuz/internal/storage"
	"github.com/haldor/ansuz/internal/tree"
)

// Vault wraps a storage provider with validated mutation operations.
type Vault struct {
	store  storage.Provider
	logger *slog.Logger
}

// New creates a Vault over the given provider.
func New(store storage.Provider, logger *slog.Logger) *Vault {
	if logger == nil {
		logger = slog.Default()
	}
	return &Vault{store: store, logger: logger}
}

// Store exposes the underlying provider for read-only collaborators.
func (v *Vault) Store() storage.Provider {
	return v.store
}

// CreateNote creates a new note named name under folder ("" for the vault
// root), writing a templated body. The note extension is appended when
// absent. Fails with apperr.ErrAlreadyExists if the target path is taken.
func (v *Vault) CreateNote(folder, name string) (string, error) {
	clean, ok := pathguard.Clean(name)
	if !ok {
		return "", fmt.Errorf("vault: create note %q: %w", name, apperr.ErrInvalidName)
	}
	if !strings.HasSuffix(clean, tree.NoteExt) {
		clean += tree.NoteExt
	}
	path := joinPath(folder, clean)
	if v.store.Exists(path) {
		return "", fmt.Errorf("vault: create note %s: %w", path, apperr.ErrAlreadyExists)
	}
	title := strings.TrimSuffix(clean, tree.NoteExt)
	if err := v.store.Write(path, []byte("# "+title+"\n\n")); err != nil {
		return "", fmt.Errorf("vault: create note: %w", err)
	}
	v.logger.Info("vault: note created", slog.String("path", path))
	return path, nil
}

// CreateFolder creates a new folder named name under parent.
func (v *Vault) CreateFolder(parent, name string) (string, error) {
	clean, ok := pathguard.Clean(name)
	if !ok {
		return "", fmt.Errorf("vault: create folder %q: %w", name, apperr.ErrInvalidName)
	}
	path := joinPath(parent, clean)
	if v.store.Exists(path) {
		return "", fmt.Errorf("vault: create folder %s: %w", path, apperr.ErrAlreadyExists)
	}
	if err := v.store.MakeDir(path); err != nil {
		return "", fmt.Errorf("vault: create folder: %w", err)
	}
	v.logger.Info("vault: folder created", slog.String("path", path))
	return path, nil
}

// DeleteItem removes the note or folder at path, recursively.
func (v *Vault) DeleteItem(path string) error {
	if err := v.store.Remove(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("vault: delete %s: %w", path, apperr.ErrNotFound)
		}
		return fmt.Errorf("vault: delete: %w", err)
	}
	v.logger.Info("vault: item deleted", slog.String("path", path))
	return nil
}

// RenameItem renames the item at oldPath to newName within the same parent
// folder. A note keeps its extension when newName omits it.
func (v *Vault) RenameItem(oldPath, newName string) (string, error) {
	clean, ok := pathguard.Clean(newName)
	if !ok {
		return "", fmt.Errorf("vault: rename to %q: %w", newName, apperr.ErrInvalidName)
	}
	if !v.store.Exists(oldPath) {
		return "", fmt.Errorf("vault: rename %s: %w", oldPath, apperr.ErrNotFound)
	}
	if strings.HasSuffix(oldPath, tree.NoteExt) && !strings.HasSuffix(clean, tree.NoteExt) {
		clean += tree.NoteExt
	}
	newPath := joinPath(parentOf(oldPath), clean)
	if newPath == oldPath {
		return oldPath, nil
	}
	if v.store.Exists(newPath) {
		return "", fmt.Errorf("vault: rename to %s: %w", newPath, apperr.ErrAlreadyExists)
	}
	if err := v.store.Rename(oldPath, newPath); err != nil {
		return "", fmt.Errorf("vault: rename: %w", err)
	}
	v.logger.Info("vault: item renamed", slog.String("from", oldPath), slog.String("to", newPath))
	return newPath, nil
}

// MoveItem moves the item at sourcePath into targetFolder, keeping its base
// name. Moving an item into itself or into its own subtree fails with
// apperr.ErrSelfMove before any storage access; an occupied destination
// fails with apperr.ErrAlreadyExists (no silent overwrite).
func (v *Vault) MoveItem(sourcePath, targetFolder string) (string, error) {
	if targetFolder == sourcePath || strings.HasPrefix(targetFolder, sourcePath+"/") {
		return "", fmt.Errorf("vault: move %s into %s: %w", sourcePath, targetFolder, apperr.ErrSelfMove)
	}
	if !v.store.Exists(sourcePath) {
		return "", fmt.Errorf("vault: move %s: %w", sourcePath, apperr.ErrNotFound)
	}
	dest := joinPath(targetFolder, baseOf(sourcePath))
	if dest == sourcePath {
		return sourcePath, nil
	}
	if v.store.Exists(dest) {
		return "", fmt.Errorf("vault: move to %s: %w", dest, apperr.ErrAlreadyExists)
	}
	if err := v.store.Rename(sourcePath, dest); err != nil {
		return "", fmt.Errorf("vault: move: %w", err)
	}
	v.logger.Info("vault: item moved", slog.String("from", sourcePath), slog.String("to", dest))
	return dest, nil
}

// joinPath concatenates root-relative segments with forward slashes.
func joinPath(dir, name string) string {
	if dir == "" {
		return name
	}
	return dir + "/" + name
}

// parentOf returns the folder portion of a root-relative path, "" at root.
func parentOf(path string) string {
	if i := strings.LastIndex(path, "/"); i >= 0 {
		return path[:i]
	}
	return ""
}

// baseOf returns the final segment of a root-relative path.
func baseOf(path string) string {
	if i := strings.LastIndex(path, "/"); i >= 0 {
		return path[i+1:]
	}
	return path
}
