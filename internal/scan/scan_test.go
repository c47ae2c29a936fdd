package scan

import (
	"reflect"
	"testing"
	"unicode/utf8"

	"github.com/haldor/ansuz/internal/storage"
	"github.com/haldor/ansuz/internal/tree"
)

func scanVault(t *testing.T, files map[string]string) (*Scanner, []tree.Node) {
	t.Helper()
	store, err := storage.NewFS(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	for p, body := range files {
		if err := store.Write(p, []byte(body)); err != nil {
			t.Fatal(err)
		}
	}
	nodes := tree.NewBuilder(store, nil).Build("")
	return NewScanner(store, nil), nodes
}

func TestSearch_BlankQueryIsEmpty(t *testing.T) {
	s, nodes := scanVault(t, map[string]string{"a.md": "hello"})
	results, ok := s.Search("   ", nodes)
	if !ok {
		t.Fatal("search superseded unexpectedly")
	}
	if len(results) != 0 {
		t.Errorf("results = %+v, want none", results)
	}
}

func TestSearch_LineMatches(t *testing.T) {
	s, nodes := scanVault(t, map[string]string{
		"a.md": "hello #work",
		"b.md": "[[a]]",
	})
	results, ok := s.Search("hello", nodes)
	if !ok {
		t.Fatal("search superseded unexpectedly")
	}
	if len(results) != 1 {
		t.Fatalf("results = %+v, want 1", results)
	}
	r := results[0]
	if r.Path != "a.md" || len(r.Matches) != 1 {
		t.Fatalf("result = %+v", r)
	}
	if r.Matches[0].Line != 1 || r.Matches[0].Text != "hello #work" {
		t.Errorf("match = %+v", r.Matches[0])
	}
}

func TestSearch_CaseInsensitiveAndCapped(t *testing.T) {
	s, nodes := scanVault(t, map[string]string{
		"a.md": "Todo one\ntodo two\nTODO three\ntodo four",
	})
	results, _ := s.Search("todo", nodes)
	if len(results) != 1 {
		t.Fatalf("results = %+v", results)
	}
	if len(results[0].Matches) != 3 {
		t.Errorf("matches = %d, want capped at 3", len(results[0].Matches))
	}
}

func TestSearch_FilenameQualifies(t *testing.T) {
	s, nodes := scanVault(t, map[string]string{
		"Meeting Notes.md": "nothing relevant here",
	})
	results, _ := s.Search("meeting", nodes)
	if len(results) != 1 {
		t.Fatalf("results = %+v, want filename match", results)
	}
	if len(results[0].Matches) != 0 {
		t.Errorf("matches = %+v, want none", results[0].Matches)
	}
	// Filename-only hits still carry an empty list so the JSON shape is
	// stable across result kinds.
	if results[0].Matches == nil {
		t.Error("matches is nil, want empty slice")
	}
}

func TestSearch_TraversalOrder(t *testing.T) {
	s, nodes := scanVault(t, map[string]string{
		"dir/inner.md": "target",
		"a.md":         "target",
		"z.md":         "target",
	})
	results, _ := s.Search("target", nodes)
	var paths []string
	for _, r := range results {
		paths = append(paths, r.Path)
	}
	// Dirs sort before files, so the nested note comes first.
	want := []string{"dir/inner.md", "a.md", "z.md"}
	if !reflect.DeepEqual(paths, want) {
		t.Errorf("paths = %v, want %v", paths, want)
	}
}

// interceptStore wraps a Provider and runs a hook on every Read.
type interceptStore struct {
	storage.Provider
	onRead func()
}

func (i *interceptStore) Read(path string) ([]byte, error) {
	if i.onRead != nil {
		i.onRead()
	}
	return i.Provider.Read(path)
}

func TestSearch_SupersededByNewerScan(t *testing.T) {
	store, err := storage.NewFS(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	if err := store.Write("a.md", []byte("x")); err != nil {
		t.Fatal(err)
	}
	nodes := tree.NewBuilder(store, nil).Build("")

	wrapped := &interceptStore{Provider: store}
	s := NewScanner(wrapped, nil)

	// A newer search starting mid-scan bumps the generation; the running
	// scan must report itself stale.
	fired := false
	wrapped.onRead = func() {
		if !fired {
			fired = true
			s.gen.Add(1)
		}
	}
	if _, ok := s.Search("x", nodes); ok {
		t.Error("superseded search should report stale")
	}

	wrapped.onRead = nil
	results, ok := s.Search("x", nodes)
	if !ok || len(results) != 1 {
		t.Errorf("latest search should win: ok=%v results=%v", ok, results)
	}
}

func TestBacklinks_Scenario(t *testing.T) {
	s, nodes := scanVault(t, map[string]string{
		"a.md": "hello #work",
		"b.md": "[[a]]",
	})
	bl := s.Backlinks("a", nodes)
	if len(bl) != 1 {
		t.Fatalf("backlinks = %+v, want 1", bl)
	}
	if bl[0].Path != "b.md" || bl[0].Name != "b" || bl[0].Context != "[[a]]" {
		t.Errorf("backlink = %+v", bl[0])
	}
}

func TestBacklinks_CaseInsensitiveOnePerNote(t *testing.T) {
	s, nodes := scanVault(t, map[string]string{
		"linker.md": "see [[My Note]]\nagain [[my note]]",
	})
	bl := s.Backlinks("My Note", nodes)
	if len(bl) != 1 {
		t.Fatalf("backlinks = %+v, want 1 per note", bl)
	}
	if bl[0].Context != "see [[My Note]]" {
		t.Errorf("context = %q, want first matching line", bl[0].Context)
	}
}

func TestBacklinks_EscapesRegexMeta(t *testing.T) {
	s, nodes := scanVault(t, map[string]string{
		"x.md": "link to [[note (v2)]]",
		"y.md": "no link",
	})
	bl := s.Backlinks("note (v2)", nodes)
	if len(bl) != 1 || bl[0].Path != "x.md" {
		t.Fatalf("backlinks = %+v", bl)
	}
}

func TestBacklinks_ContextTruncated(t *testing.T) {
	long := "[[a]]"
	for len(long) < 200 {
		long += " padding"
	}
	s, nodes := scanVault(t, map[string]string{"b.md": long})
	bl := s.Backlinks("a", nodes)
	if len(bl) != 1 {
		t.Fatalf("backlinks = %+v", bl)
	}
	if len(bl[0].Context) > 100 {
		t.Errorf("context length = %d, want <= 100", len(bl[0].Context))
	}
}

func TestBacklinks_TruncationKeepsRunesIntact(t *testing.T) {
	long := "[[a]] каждый символ здесь занимает два байта и строка продолжается пока не перевалит за лимит контекста"
	s, nodes := scanVault(t, map[string]string{"b.md": long})
	bl := s.Backlinks("a", nodes)
	if len(bl) != 1 {
		t.Fatalf("backlinks = %+v", bl)
	}
	ctx := bl[0].Context
	if len(ctx) > 100 {
		t.Errorf("context length = %d, want <= 100", len(ctx))
	}
	if !utf8.ValidString(ctx) {
		t.Errorf("context cut mid-rune: %q", ctx)
	}
}

func TestTags_ScenarioAndExclusions(t *testing.T) {
	s, nodes := scanVault(t, map[string]string{
		"a.md": "hello #work",
		"b.md": "[[a]]",
	})
	tags := s.Tags(nodes)
	want := []TagInfo{{Tag: "work", Count: 1}}
	if !reflect.DeepEqual(tags, want) {
		t.Errorf("tags = %+v, want %+v", tags, want)
	}
}

func TestTags_HeadingsAndMidwordExcluded(t *testing.T) {
	s, nodes := scanVault(t, map[string]string{
		"a.md": "# Heading\nword#notatag\n#Real-Tag_1 and #9bad\n#also",
	})
	tags := s.Tags(nodes)
	got := map[string]int{}
	for _, ti := range tags {
		got[ti.Tag] = ti.Count
	}
	if len(got) != 2 || got["real-tag_1"] != 1 || got["also"] != 1 {
		t.Errorf("tags = %+v", tags)
	}
}

func TestTags_CountsAndOrdering(t *testing.T) {
	s, nodes := scanVault(t, map[string]string{
		"a.md": "#beta #alpha #beta",
		"b.md": "#BETA",
	})
	tags := s.Tags(nodes)
	want := []TagInfo{{Tag: "beta", Count: 3}, {Tag: "alpha", Count: 1}}
	if !reflect.DeepEqual(tags, want) {
		t.Errorf("tags = %+v, want %+v", tags, want)
	}
}

func TestTags_Idempotent(t *testing.T) {
	s, nodes := scanVault(t, map[string]string{
		"a.md": "#one #two #one",
		"b.md": "#two",
	})
	first := s.Tags(nodes)
	second := s.Tags(nodes)
	if !reflect.DeepEqual(first, second) {
		t.Errorf("tag scan not idempotent: %+v vs %+v", first, second)
	}
}
