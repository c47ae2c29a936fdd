package vault

import (
	"errors"
	"strings"
	"testing"

	"github.com/haldor/ansuz/internal/apperr"
	"github.com/haldor/ansuz/internal/testutil"
)

func testVault(t *testing.T) *Vault {
	t.Helper()
	_, store := testutil.TestVault(t)
	return New(store, nil)
}

func TestCreateNote_RoundTrip(t *testing.T) {
	v := testVault(t)
	path, err := v.CreateNote("", "Test")
	if err != nil {
		t.Fatalf("CreateNote: %v", err)
	}
	if path != "Test.md" {
		t.Errorf("path = %q, want Test.md", path)
	}
	data, err := v.Store().Read(path)
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if !strings.HasPrefix(string(data), "# Test") {
		t.Errorf("content = %q, want templated title", data)
	}
}

func TestCreateNote_InFolder(t *testing.T) {
	v := testVault(t)
	if _, err := v.CreateFolder("", "Work"); err != nil {
		t.Fatal(err)
	}
	path, err := v.CreateNote("Work", "task.md")
	if err != nil {
		t.Fatalf("CreateNote: %v", err)
	}
	if path != "Work/task.md" {
		t.Errorf("path = %q", path)
	}
}

func TestCreateNote_RejectsBadNames(t *testing.T) {
	v := testVault(t)
	for _, name := range []string{"", "   ", "..", ".hidden", "???"} {
		if _, err := v.CreateNote("", name); !errors.Is(err, apperr.ErrInvalidName) {
			t.Errorf("CreateNote(%q) err = %v, want ErrInvalidName", name, err)
		}
	}
	// Separators are stripped rather than rejected; the sanitized name is used.
	path, err := v.CreateNote("", "a/b")
	if err != nil || path != "ab.md" {
		t.Errorf("CreateNote(a/b) = %q, %v; want sanitized ab.md", path, err)
	}
}

func TestCreateNote_NoOverwrite(t *testing.T) {
	v := testVault(t)
	if _, err := v.CreateNote("", "dup"); err != nil {
		t.Fatal(err)
	}
	if _, err := v.CreateNote("", "dup"); !errors.Is(err, apperr.ErrAlreadyExists) {
		t.Errorf("err = %v, want ErrAlreadyExists", err)
	}
}

func TestCreateFolder(t *testing.T) {
	v := testVault(t)
	path, err := v.CreateFolder("", "Projects")
	if err != nil {
		t.Fatalf("CreateFolder: %v", err)
	}
	if path != "Projects" || !v.Store().Exists("Projects") {
		t.Errorf("folder not created: %q", path)
	}
	if _, err := v.CreateFolder("", "Projects"); !errors.Is(err, apperr.ErrAlreadyExists) {
		t.Errorf("err = %v, want ErrAlreadyExists", err)
	}
}

func TestDeleteItem_Recursive(t *testing.T) {
	v := testVault(t)
	_ = v.Store().Write("dir/a.md", []byte("x"))
	_ = v.Store().Write("dir/sub/b.md", []byte("y"))
	if err := v.DeleteItem("dir"); err != nil {
		t.Fatalf("DeleteItem: %v", err)
	}
	if v.Store().Exists("dir") {
		t.Error("dir should be gone")
	}
	if err := v.DeleteItem("dir"); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestRenameItem_KeepsExtension(t *testing.T) {
	v := testVault(t)
	_ = v.Store().Write("old.md", []byte("body"))
	newPath, err := v.RenameItem("old.md", "renamed")
	if err != nil {
		t.Fatalf("RenameItem: %v", err)
	}
	if newPath != "renamed.md" {
		t.Errorf("newPath = %q", newPath)
	}
	if v.Store().Exists("old.md") || !v.Store().Exists("renamed.md") {
		t.Error("rename did not move the file")
	}
}

func TestRenameItem_SameParent(t *testing.T) {
	v := testVault(t)
	_ = v.Store().Write("dir/note.md", []byte("x"))
	newPath, err := v.RenameItem("dir/note.md", "other")
	if err != nil {
		t.Fatalf("RenameItem: %v", err)
	}
	if newPath != "dir/other.md" {
		t.Errorf("newPath = %q, want sibling path", newPath)
	}
}

func TestRenameItem_Conflicts(t *testing.T) {
	v := testVault(t)
	_ = v.Store().Write("a.md", []byte("a"))
	_ = v.Store().Write("b.md", []byte("b"))
	if _, err := v.RenameItem("a.md", "b.md"); !errors.Is(err, apperr.ErrAlreadyExists) {
		t.Errorf("err = %v, want ErrAlreadyExists", err)
	}
	if _, err := v.RenameItem("missing.md", "x"); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
	if _, err := v.RenameItem("a.md", ".."); !errors.Is(err, apperr.ErrInvalidName) {
		t.Errorf("err = %v, want ErrInvalidName", err)
	}
}

func TestMoveItem(t *testing.T) {
	v := testVault(t)
	_ = v.Store().Write("note.md", []byte("x"))
	_ = v.Store().MakeDir("Archive")
	newPath, err := v.MoveItem("note.md", "Archive")
	if err != nil {
		t.Fatalf("MoveItem: %v", err)
	}
	if newPath != "Archive/note.md" {
		t.Errorf("newPath = %q", newPath)
	}
}

func TestMoveItem_SelfMoveGuards(t *testing.T) {
	v := testVault(t)
	_ = v.Store().Write("dir/sub/a.md", []byte("x"))

	if _, err := v.MoveItem("dir", "dir"); !errors.Is(err, apperr.ErrSelfMove) {
		t.Errorf("move into self: err = %v, want ErrSelfMove", err)
	}
	if _, err := v.MoveItem("dir", "dir/sub"); !errors.Is(err, apperr.ErrSelfMove) {
		t.Errorf("move into own subtree: err = %v, want ErrSelfMove", err)
	}
	// A sibling with a shared name prefix is not a descendant.
	_ = v.Store().MakeDir("dir2")
	if _, err := v.MoveItem("dir", "dir2"); err != nil {
		t.Errorf("move into prefix-sibling failed: %v", err)
	}
}

func TestMoveItem_NoOverwrite(t *testing.T) {
	v := testVault(t)
	_ = v.Store().Write("note.md", []byte("src"))
	_ = v.Store().Write("dest/note.md", []byte("existing"))
	if _, err := v.MoveItem("note.md", "dest"); !errors.Is(err, apperr.ErrAlreadyExists) {
		t.Errorf("err = %v, want ErrAlreadyExists", err)
	}
	// Source untouched on failure.
	data, err := v.Store().Read("note.md")
	if err != nil || string(data) != "src" {
		t.Errorf("source modified after failed move: %q, %v", data, err)
	}
}
