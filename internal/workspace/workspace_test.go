package workspace

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func newTestWorkspace(t *testing.T, cfg Config) *Workspace {
	t.Helper()
	ws, err := New(cfg, nil)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { ws.Close() })
	return ws
}

func TestAnalyzeAndGet(t *testing.T) {
	t.Parallel()
	ws := newTestWorkspace(t, Config{})

	ns, err := ws.Analyze(context.Background(), "suites/health.robot", []byte(healthSuite))
	if err != nil {
		t.Fatal(err)
	}
	got, ok := ws.Get("suites/health.robot")
	if !ok || got != ns {
		t.Fatalf("Get returned %v, %t", got, ok)
	}
	if _, ok := ws.Get("suites/other.robot"); ok {
		t.Error("unknown path should not resolve")
	}
}

func TestAnalyzeReplacesNamespace(t *testing.T) {
	t.Parallel()
	ws := newTestWorkspace(t, Config{})
	ctx := context.Background()

	first, err := ws.Analyze(ctx, "suites/health.robot", []byte(healthSuite))
	if err != nil {
		t.Fatal(err)
	}
	second, err := ws.Analyze(ctx, "suites/health.robot", []byte(healthSuite))
	if err != nil {
		t.Fatal(err)
	}
	if first.PassID == second.PassID {
		t.Error("reanalysis must mint a new pass identity")
	}
	got, _ := ws.Get("suites/health.robot")
	if got != second {
		t.Error("Get must see the latest pass")
	}
}

func TestNamespacesSorted(t *testing.T) {
	t.Parallel()
	ws := newTestWorkspace(t, Config{})
	ctx := context.Background()

	for _, path := range []string{"suites/b.robot", "suites/a.robot", "suites/c.resource"} {
		if _, err := ws.Analyze(ctx, path, []byte(healthSuite)); err != nil {
			t.Fatal(err)
		}
	}
	all := ws.Namespaces()
	if len(all) != 3 {
		t.Fatalf("got %d namespaces", len(all))
	}
	want := []string{"suites/a.robot", "suites/b.robot", "suites/c.resource"}
	for i, ns := range all {
		if ns.Source != want[i] {
			t.Errorf("namespace %d = %s, want %s", i, ns.Source, want[i])
		}
	}
}

func TestScan(t *testing.T) {
	t.Parallel()
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "a.robot"), healthSuite)
	writeFile(t, filepath.Join(root, "b.resource"), healthSuite)
	writeFile(t, filepath.Join(root, "notes.txt"), "not a suite")
	writeFile(t, filepath.Join(root, "build", "c.robot"), healthSuite)

	ws := newTestWorkspace(t, Config{
		Roots:       []string{root},
		ExcludeDirs: []string{"build"},
	})
	if err := ws.Scan(context.Background()); err != nil {
		t.Fatal(err)
	}

	all := ws.Namespaces()
	if len(all) != 2 {
		t.Fatalf("got %d namespaces, want 2", len(all))
	}
	for _, ns := range all {
		if filepath.Base(ns.Source) == "c.robot" {
			t.Error("excluded directory was scanned")
		}
	}
}

func TestHandleChanges(t *testing.T) {
	t.Parallel()
	root := t.TempDir()
	path := filepath.Join(root, "a.robot")
	writeFile(t, path, healthSuite)

	ws := newTestWorkspace(t, Config{})
	ctx := context.Background()

	ws.HandleChanges(ctx, []string{path, filepath.Join(root, "ignored.txt")})
	if _, ok := ws.Get(path); !ok {
		t.Fatal("changed suite file was not analyzed")
	}
	if len(ws.Namespaces()) != 1 {
		t.Fatal("non-suite path was analyzed")
	}

	if err := os.Remove(path); err != nil {
		t.Fatal(err)
	}
	ws.HandleChanges(ctx, []string{path})
	if _, ok := ws.Get(path); ok {
		t.Error("deleted file should be dropped")
	}
}

func TestWorkspaceWithStore(t *testing.T) {
	t.Parallel()
	root := t.TempDir()
	path := filepath.Join(root, "a.robot")
	writeFile(t, path, healthSuite)

	ws := newTestWorkspace(t, Config{
		StorePath:  filepath.Join(root, "state", "symbols.db"),
		ProjectKey: "test",
	})
	if _, err := ws.AnalyzeFile(context.Background(), path); err != nil {
		t.Fatal(err)
	}

	recs, err := ws.Store().DefinitionsByName("${BASE}")
	if err != nil {
		t.Fatal(err)
	}
	if len(recs) != 1 || recs[0].Source != path {
		t.Errorf("persisted records = %v", recs)
	}

	ws.Remove(path)
	recs, err = ws.Store().DefinitionsByName("${BASE}")
	if err != nil {
		t.Fatal(err)
	}
	if len(recs) != 0 {
		t.Errorf("records remained after removal: %v", recs)
	}
}

func TestIsSuiteFile(t *testing.T) {
	t.Parallel()
	tests := []struct {
		path string
		want bool
	}{
		{"suites/login.robot", true},
		{"suites/common.resource", true},
		{"suites/LOGIN.ROBOT", true},
		{"suites/login.robot.bak", false},
		{"suites/notes.txt", false},
		{"suites/robot", false},
	}
	for _, tc := range tests {
		if got := IsSuiteFile(tc.path); got != tc.want {
			t.Errorf("IsSuiteFile(%q) = %t, want %t", tc.path, got, tc.want)
		}
	}
}

func TestWatcherDeliversSuiteChanges(t *testing.T) {
	root := t.TempDir()

	batches := make(chan []string, 4)
	w, err := NewWatcher(50*time.Millisecond, nil, nil, func(paths []string) {
		batches <- paths
	})
	if err != nil {
		t.Fatal(err)
	}
	defer w.Close()

	if err := w.Watch([]string{root}); err != nil {
		t.Fatal(err)
	}

	writeFile(t, filepath.Join(root, "notes.txt"), "ignored")
	writeFile(t, filepath.Join(root, "a.robot"), healthSuite)

	select {
	case paths := <-batches:
		if len(paths) != 1 || filepath.Base(paths[0]) != "a.robot" {
			t.Errorf("batch = %v", paths)
		}
	case <-time.After(3 * time.Second):
		t.Fatal("no change batch delivered")
	}
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}
