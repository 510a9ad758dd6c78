package watcher

import (
	"context"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"
)

type recorder struct {
	mu    sync.Mutex
	paths []string
}

func (r *recorder) handle(_ context.Context, path string) {
	r.mu.Lock()
	r.paths = append(r.paths, path)
	r.mu.Unlock()
}

func (r *recorder) snapshot() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.paths...)
}

func (r *recorder) count(suffix string) int {
	n := 0
	for _, p := range r.snapshot() {
		if strings.HasSuffix(p, suffix) {
			n++
		}
	}
	return n
}

// waitFor polls cond until it holds or the deadline passes.
func waitFor(t *testing.T, cond func() bool) bool {
	t.Helper()
	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return true
		}
		time.Sleep(20 * time.Millisecond)
	}
	return cond()
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatal(err)
	}
}

func TestMatchExtension(t *testing.T) {
	tests := []struct {
		path       string
		extensions []string
		want       bool
	}{
		{"/inbox/pool.json", []string{".json"}, true},
		{"/inbox/K1.PDF", []string{"pdf"}, true},
		{"/inbox/pool.md", []string{".json", ".csv"}, false},
		{"/inbox/noext", nil, true},
		{"/inbox/noext", []string{}, true},
	}
	for _, tt := range tests {
		if got := matchExtension(tt.path, tt.extensions); got != tt.want {
			t.Errorf("matchExtension(%q, %v) = %v, want %v", tt.path, tt.extensions, got, tt.want)
		}
	}
}

func TestWatcher_DebouncesWrites(t *testing.T) {
	dir := t.TempDir()
	rec := &recorder{}
	w := New([]string{dir}, []string{".json"}, rec.handle, WithDebounce(150*time.Millisecond))
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := w.Start(ctx); err != nil {
		t.Fatal(err)
	}
	defer w.Stop()

	path := filepath.Join(dir, "pool.json")
	for i := 0; i < 3; i++ {
		writeFile(t, path, strings.Repeat("[]", i+1))
		time.Sleep(20 * time.Millisecond)
	}
	writeFile(t, filepath.Join(dir, "ignored.xyz"), "x")

	if !waitFor(t, func() bool { return rec.count("pool.json") >= 1 }) {
		t.Fatalf("pool.json not handled, got %v", rec.snapshot())
	}
	time.Sleep(300 * time.Millisecond)
	if n := rec.count("pool.json"); n != 1 {
		t.Errorf("pool.json handled %d times, want 1", n)
	}
	if rec.count("ignored.xyz") != 0 {
		t.Error("ignored.xyz should not be handled")
	}
}

func TestWatcher_NewDirectory(t *testing.T) {
	dir := t.TempDir()
	rec := &recorder{}
	w := New([]string{dir}, []string{".txt", ".csv"}, rec.handle, WithDebounce(100*time.Millisecond))
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := w.Start(ctx); err != nil {
		t.Fatal(err)
	}
	defer w.Stop()

	nested := filepath.Join(dir, "batch", "summaries")
	if err := os.MkdirAll(nested, 0755); err != nil {
		t.Fatal(err)
	}
	writeFile(t, filepath.Join(nested, "K252417.txt"), "summary")
	writeFile(t, filepath.Join(dir, "batch", "pool.csv"), "k_number,product_code\n")

	ok := waitFor(t, func() bool {
		return rec.count("K252417.txt") >= 1 && rec.count("pool.csv") >= 1
	})
	if !ok {
		t.Errorf("expected nested files to be handled, got %v", rec.snapshot())
	}
}

func TestWatcher_SyncExisting(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "b.csv"), "x")
	writeFile(t, filepath.Join(dir, "a.json"), "x")
	writeFile(t, filepath.Join(dir, "skip.xyz"), "x")
	if err := os.Mkdir(filepath.Join(dir, "sub"), 0755); err != nil {
		t.Fatal(err)
	}
	writeFile(t, filepath.Join(dir, "sub", "c.json"), "x")

	tests := []struct {
		name      string
		recursive bool
		want      []string
	}{
		{"recursive", true, []string{"a.json", "b.csv", "c.json"}},
		{"top level only", false, []string{"a.json", "b.csv"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := &recorder{}
			w := New([]string{dir}, []string{".json", ".csv"}, rec.handle, WithRecursive(tt.recursive))
			w.SyncExisting(context.Background())

			var got []string
			for _, p := range rec.snapshot() {
				got = append(got, filepath.Base(p))
			}
			sort.Strings(got)
			if strings.Join(got, ",") != strings.Join(tt.want, ",") {
				t.Errorf("got %v, want %v", got, tt.want)
			}
		})
	}
}

func TestWatcher_StartCreatesMissingRoot(t *testing.T) {
	root := filepath.Join(t.TempDir(), "inbox", "incoming")
	w := New([]string{root}, nil, nil)
	if err := w.Start(context.Background()); err != nil {
		t.Fatal(err)
	}
	defer w.Stop()

	if _, err := os.Stat(root); err != nil {
		t.Errorf("root should exist after Start: %v", err)
	}
	if dirs := w.Directories(); len(dirs) != 1 || dirs[0] != root {
		t.Errorf("Directories() = %v", dirs)
	}
}

func TestWatcher_StopIsIdempotent(t *testing.T) {
	w := New([]string{t.TempDir()}, nil, nil)
	if err := w.Start(context.Background()); err != nil {
		t.Fatal(err)
	}
	w.Stop()
	w.Stop()
}
