package session

import (
	"errors"
	"testing"
	"time"

	"github.com/haldor/ansuz/internal/apperr"
	"github.com/haldor/ansuz/internal/storage"
	"github.com/haldor/ansuz/internal/testutil"
)

const testDelay = 30 * time.Millisecond

func testSession(t *testing.T) (*Session, storage.Provider) {
	t.Helper()
	_, store := testutil.TestVault(t)
	states := testutil.TestState(t)
	sess := New(store, states, nil, testDelay)
	return sess, store
}

func read(t *testing.T, store storage.Provider, path string) string {
	t.Helper()
	data, err := store.Read(path)
	if err != nil {
		t.Fatalf("Read %s: %v", path, err)
	}
	return string(data)
}

func TestLoad_ReadsAndTracksRecents(t *testing.T) {
	_, store := testutil.TestVault(t)
	states := testutil.TestState(t)
	sess := New(store, states, nil, testDelay)

	_ = store.Write("a.md", []byte("alpha"))
	content, err := sess.Load("a.md")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if content != "alpha" {
		t.Errorf("content = %q", content)
	}
	if st := sess.Status(); st.Path != "a.md" || st.Dirty {
		t.Errorf("status = %+v", st)
	}
	recents := states.Recents()
	if len(recents) != 1 || recents[0] != "a.md" {
		t.Errorf("recents = %v", recents)
	}
}

func TestLoad_Missing(t *testing.T) {
	sess, _ := testSession(t)
	if _, err := sess.Load("nope.md"); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestSetContent_RequiresOpenNote(t *testing.T) {
	sess, _ := testSession(t)
	sess.SetContent("orphan edit")
	if st := sess.Status(); st.Dirty || st.Content != "" {
		t.Errorf("status = %+v, want untouched empty session", st)
	}
}

func TestSave_NoOpUnlessDirty(t *testing.T) {
	sess, store := testSession(t)
	_ = store.Write("a.md", []byte("original"))
	_, _ = sess.Load("a.md")

	if err := sess.Save(); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if got := read(t, store, "a.md"); got != "original" {
		t.Errorf("clean save modified file: %q", got)
	}

	sess.SetContent("edited")
	if err := sess.Save(); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if got := read(t, store, "a.md"); got != "edited" {
		t.Errorf("content = %q", got)
	}
	if sess.Status().Dirty {
		t.Error("session should be clean after save")
	}
}

func TestAutosave_FiresAfterQuietPeriod(t *testing.T) {
	sess, store := testSession(t)
	_ = store.Write("a.md", []byte("original"))
	_, _ = sess.Load("a.md")

	sess.SetContent("draft 1")
	sess.SetContent("draft 2")

	time.Sleep(4 * testDelay)
	if got := read(t, store, "a.md"); got != "draft 2" {
		t.Errorf("content = %q, want last edit autosaved", got)
	}
	if sess.Status().Dirty {
		t.Error("session should be clean after autosave")
	}
}

func TestAutosave_StalePathDiscarded(t *testing.T) {
	sess, store := testSession(t)
	_ = store.Write("a.md", []byte("a-original"))
	_ = store.Write("b.md", []byte("b-original"))

	// Open A, edit it, and switch to B before the debounce timer fires.
	_, _ = sess.Load("a.md")
	sess.SetContent("a-edited")
	if _, err := sess.Load("b.md"); err != nil {
		t.Fatal(err)
	}

	// The switch must have flushed A synchronously with A's content.
	if got := read(t, store, "a.md"); got != "a-edited" {
		t.Errorf("a.md = %q, want flushed edit", got)
	}

	// After the timer window, B must be untouched by A's stale autosave.
	time.Sleep(4 * testDelay)
	if got := read(t, store, "b.md"); got != "b-original" {
		t.Errorf("b.md = %q, stale autosave leaked across notes", got)
	}
}

func TestAutosave_TimerResetOnEachEdit(t *testing.T) {
	sess, store := testSession(t)
	_ = store.Write("a.md", []byte("original"))
	_, _ = sess.Load("a.md")

	// Keep editing inside the quiet period; nothing may hit disk yet.
	for i := 0; i < 3; i++ {
		sess.SetContent("burst")
		time.Sleep(testDelay / 3)
	}
	if got := read(t, store, "a.md"); got != "original" {
		t.Errorf("autosave fired during burst: %q", got)
	}

	time.Sleep(4 * testDelay)
	if got := read(t, store, "a.md"); got != "burst" {
		t.Errorf("content = %q, want autosaved burst", got)
	}
}

func TestClose_FlushesDirtyContent(t *testing.T) {
	sess, store := testSession(t)
	_ = store.Write("a.md", []byte("original"))
	_, _ = sess.Load("a.md")
	sess.SetContent("unsaved")

	sess.Close()
	if got := read(t, store, "a.md"); got != "unsaved" {
		t.Errorf("content = %q, want flushed on close", got)
	}
	if st := sess.Status(); st.Path != "" || st.Dirty {
		t.Errorf("status = %+v, want empty session", st)
	}
}

func TestDiscardIf_DropsWithoutFlush(t *testing.T) {
	sess, store := testSession(t)
	_ = store.Write("a.md", []byte("original"))
	_, _ = sess.Load("a.md")
	sess.SetContent("doomed edit")

	if !sess.DiscardIf("a.md") {
		t.Fatal("DiscardIf should match the open note")
	}
	time.Sleep(4 * testDelay)
	if got := read(t, store, "a.md"); got != "original" {
		t.Errorf("content = %q, discard must not write", got)
	}
	if sess.DiscardIf("a.md") {
		t.Error("DiscardIf on empty session should report false")
	}
}

func TestRebase_MovesPendingSave(t *testing.T) {
	sess, store := testSession(t)
	_ = store.Write("dir/a.md", []byte("original"))
	_, _ = sess.Load("dir/a.md")
	sess.SetContent("edited")

	// The note's folder is renamed while an edit is pending.
	if err := store.Rename("dir/a.md", "moved/a.md"); err != nil {
		t.Fatal(err)
	}
	sess.Rebase("dir", "moved")

	time.Sleep(4 * testDelay)
	if got := read(t, store, "moved/a.md"); got != "edited" {
		t.Errorf("moved note = %q, want autosave at new path", got)
	}
	if store.Exists("dir/a.md") {
		t.Error("autosave resurrected the old path")
	}
}

func TestLoad_SwitchFlushUsesCapturedValues(t *testing.T) {
	sess, store := testSession(t)
	_ = store.Write("a.md", []byte("a0"))
	_ = store.Write("b.md", []byte("b0"))

	_, _ = sess.Load("a.md")
	sess.SetContent("a1")
	_, _ = sess.Load("b.md")
	sess.SetContent("b1")
	_, _ = sess.Load("a.md")

	time.Sleep(4 * testDelay)
	if got := read(t, store, "a.md"); got != "a1" {
		t.Errorf("a.md = %q", got)
	}
	if got := read(t, store, "b.md"); got != "b1" {
		t.Errorf("b.md = %q", got)
	}
}
