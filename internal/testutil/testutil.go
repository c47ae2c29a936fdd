// Package testutil provides shared test helpers for setting up vaults and state stores.
package testutil

import (
	"path/filepath"
	"testing"

	"github.com/haldor/ansuz/internal/state"
	"github.com/haldor/ansuz/internal/storage"
)

// TestVault creates a temporary vault directory with a storage.Provider.
func TestVault(t *testing.T) (string, storage.Provider) {
	t.Helper()
	vaultDir := t.TempDir()
	store, err := storage.NewFS(vaultDir)
	if err != nil {
		t.Fatal(err)
	}
	return vaultDir, store
}

// TestState creates a state store persisted to a temporary file.
func TestState(t *testing.T) *state.Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "state.json")
	st, err := state.Load(path)
	if err != nil {
		t.Fatal(err)
	}
	return st
}
