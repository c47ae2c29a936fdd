package vault

import (
	"context"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/haldor/ansuz/internal/tree"
)

// EventCallback is called for every vault change seen on disk.
// kind is one of "created", "updated", "deleted".
type EventCallback func(kind, path string)

// Watch starts an fsnotify watcher on the vault root and reports external
// file changes until ctx is cancelled. The engine itself does not consume
// these events (mutators trigger explicit rebuilds); they exist so the UI
// can refetch the tree when the folder is modified outside the app.
//
// New directories created at runtime are added to the watch list. Rename
// events fire on the old path only, so a short debounce timer coalesces the
// follow-up into a single "changed" sweep.
func Watch(ctx context.Context, root string, logger *slog.Logger, cb EventCallback) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer w.Close()

	if err := addDirsRecursive(w, root); err != nil {
		return err
	}

	logger.Info("watcher: started", slog.String("root", root))

	var sweepTimer *time.Timer
	var sweepCh <-chan time.Time

	scheduleSweep := func() {
		if sweepTimer == nil {
			sweepTimer = time.NewTimer(200 * time.Millisecond)
			sweepCh = sweepTimer.C
		} else {
			sweepTimer.Reset(200 * time.Millisecond)
		}
	}

	for {
		select {
		case <-ctx.Done():
			if sweepTimer != nil {
				sweepTimer.Stop()
			}
			logger.Info("watcher: stopped")
			return nil

		case <-sweepCh:
			if cb != nil {
				cb("updated", "")
			}

		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}

			name := filepath.Base(ev.Name)
			if strings.HasPrefix(name, ".") {
				continue
			}

			// New directories join the watch list.
			if ev.Op&fsnotify.Create != 0 {
				if info, statErr := os.Stat(ev.Name); statErr == nil && info.IsDir() {
					if addErr := addDirsRecursive(w, ev.Name); addErr != nil {
						logger.Warn("watcher: add new dir failed",
							slog.String("path", ev.Name),
							slog.String("error", addErr.Error()))
					}
					scheduleSweep()
					continue
				}
			}

			if !strings.HasSuffix(ev.Name, tree.NoteExt) {
				// Folder deletes/renames arrive without extension.
				if ev.Op&(fsnotify.Remove|fsnotify.Rename) != 0 {
					scheduleSweep()
				}
				continue
			}

			rel, relErr := filepath.Rel(root, ev.Name)
			if relErr != nil {
				continue
			}
			rel = filepath.ToSlash(rel)

			switch {
			case ev.Op&fsnotify.Create != 0:
				logger.Debug("watcher: note created", slog.String("path", rel))
				if cb != nil {
					cb("created", rel)
				}
			case ev.Op&fsnotify.Write != 0:
				logger.Debug("watcher: note updated", slog.String("path", rel))
				if cb != nil {
					cb("updated", rel)
				}
			case ev.Op&fsnotify.Remove != 0:
				logger.Debug("watcher: note deleted", slog.String("path", rel))
				if cb != nil {
					cb("deleted", rel)
				}
			case ev.Op&fsnotify.Rename != 0:
				// Old path only; the new path arrives as its own Create.
				logger.Debug("watcher: note renamed away", slog.String("path", rel))
				if cb != nil {
					cb("deleted", rel)
				}
				scheduleSweep()
			}

		case watchErr, ok := <-w.Errors:
			if !ok {
				return nil
			}
			logger.Error("watcher: error", slog.String("error", watchErr.Error()))
		}
	}
}

// addDirsRecursive adds root and all its non-hidden subdirectories to the
// watcher.
func addDirsRecursive(w *fsnotify.Watcher, root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if path != root && strings.HasPrefix(d.Name(), ".") {
			return fs.SkipDir
		}
		return w.Add(path)
	})
}
