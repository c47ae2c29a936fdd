// Package tree builds the in-memory mirror of the vault folder hierarchy.
//
// The tree is a single-owner structure: Builder constructs it wholesale and
// callers replace their copy after every mutation. Nothing ever patches a
// tree in place, except the favorite flag overlay which touches no structure.
package tree

import (
	"log/slog"
	"sort"
	"strings"

	"github.com/haldor/ansuz/internal/storage"
)

// NoteExt is the file extension that marks a file as a note.
const NoteExt = ".md"

// Node is one entry (file or directory) in the vault tree. Path is relative
// to the vault root with forward slashes and always equals parent + "/" + name.
type Node struct {
	Name     string `json:"name"`
	Path     string `json:"path"`
	IsDir    bool   `json:"is_dir"`
	Children []Node `json:"children,omitempty"`
	Favorite bool   `json:"favorite,omitempty"`
}

// Builder lists directories through a storage.Provider and produces sorted,
// filtered Node trees.
type Builder struct {
	store  storage.Provider
	logger *slog.Logger
}

// NewBuilder creates a Builder over the given provider.
func NewBuilder(store storage.Provider, logger *slog.Logger) *Builder {
	if logger == nil {
		logger = slog.Default()
	}
	return &Builder{store: store, logger: logger}
}

// Build returns the node tree rooted at dir ("" for the vault root).
// Hidden entries (leading dot) and files without the note extension are
// skipped. A listing failure yields an empty subtree rather than aborting
// the whole build; the error is logged and swallowed.
func (b *Builder) Build(dir string) []Node {
	entries, err := b.store.ListDir(dir)
	if err != nil {
		b.logger.Warn("tree: list failed", slog.String("dir", dir), slog.String("error", err.Error()))
		return []Node{}
	}

	nodes := make([]Node, 0, len(entries))
	for _, e := range entries {
		if strings.HasPrefix(e.Name, ".") {
			continue
		}
		p := joinPath(dir, e.Name)
		if e.IsDir {
			nodes = append(nodes, Node{
				Name:     e.Name,
				Path:     p,
				IsDir:    true,
				Children: b.Build(p),
			})
			continue
		}
		if !strings.HasSuffix(e.Name, NoteExt) {
			continue
		}
		nodes = append(nodes, Node{Name: e.Name, Path: p})
	}

	sortNodes(nodes)
	return nodes
}

// sortNodes orders siblings directories-first, then case-insensitively by name.
func sortNodes(nodes []Node) {
	sort.SliceStable(nodes, func(i, j int) bool {
		if nodes[i].IsDir != nodes[j].IsDir {
			return nodes[i].IsDir
		}
		return strings.ToLower(nodes[i].Name) < strings.ToLower(nodes[j].Name)
	})
}

// joinPath concatenates root-relative path segments with forward slashes.
func joinPath(dir, name string) string {
	if dir == "" {
		return name
	}
	return dir + "/" + name
}

// Clone returns a deep copy of the tree. Mutating the copy (or its nested
// children) never touches the original, so an already-published tree can be
// re-flagged safely on a clone and swapped in.
func Clone(nodes []Node) []Node {
	out := make([]Node, len(nodes))
	for i, n := range nodes {
		out[i] = n
		if n.IsDir {
			out[i].Children = Clone(n.Children)
		}
	}
	return out
}

// ApplyFavorites walks the tree and sets the Favorite flag on every node
// whose path the predicate reports as favorited.
func ApplyFavorites(nodes []Node, isFavorite func(path string) bool) {
	for i := range nodes {
		nodes[i].Favorite = isFavorite(nodes[i].Path)
		if nodes[i].IsDir {
			ApplyFavorites(nodes[i].Children, isFavorite)
		}
	}
}

// SetFavorite flips the Favorite flag on every node matching path, including
// nested children, without rebuilding the tree.
func SetFavorite(nodes []Node, path string, fav bool) {
	for i := range nodes {
		if nodes[i].Path == path {
			nodes[i].Favorite = fav
		}
		if nodes[i].IsDir {
			SetFavorite(nodes[i].Children, path, fav)
		}
	}
}

// Walk calls fn for every node in depth-first traversal order. Traversal
// stops early when fn returns false.
func Walk(nodes []Node, fn func(n *Node) bool) bool {
	for i := range nodes {
		if !fn(&nodes[i]) {
			return false
		}
		if nodes[i].IsDir {
			if !Walk(nodes[i].Children, fn) {
				return false
			}
		}
	}
	return true
}

// FindNode returns the node with the given path, or nil if absent.
func FindNode(nodes []Node, path string) *Node {
	var found *Node
	Walk(nodes, func(n *Node) bool {
		if n.Path == path {
			found = n
			return false
		}
		return true
	})
	return found
}
