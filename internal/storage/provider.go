// Package storage defines the vault file-system abstraction.
package storage

// Entry is one item returned by a shallow directory listing.
type Entry struct {
	Name  string
	IsDir bool
}

// Provider is the interface for vault file operations. All paths are
// relative to the vault root and use forward slashes.
type Provider interface {
	// ListDir returns the direct children of dir, unsorted.
	ListDir(dir string) ([]Entry, error)
	// Read returns the raw bytes of the file at path.
	Read(path string) ([]byte, error)
	// Write atomically writes content to path, creating parent directories.
	Write(path string, content []byte) error
	// MakeDir creates the directory at path and any missing parents.
	MakeDir(path string) error
	// Remove deletes the file or directory at path; directories are
	// removed recursively.
	Remove(path string) error
	// Rename moves oldPath to newPath.
	Rename(oldPath, newPath string) error
	// Exists reports whether a file or directory exists at path.
	Exists(path string) bool
}
