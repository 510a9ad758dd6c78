// Package watcher watches import inbox directories with fsnotify and hands settled files to a callback.
package watcher

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

const defaultDebounce = 500 * time.Millisecond

// Handler is called once a file has been quiet for the debounce interval.
type Handler func(ctx context.Context, path string)

// Watcher watches inbox directories and calls a Handler for new or changed files.
// Removals are ignored: deleting a file from the inbox does not delete what it imported.
type Watcher struct {
	roots      []string
	extensions []string
	recursive  bool
	debounce   time.Duration
	handler    Handler
	logger     *zap.Logger

	mu      sync.Mutex
	fsw     *fsnotify.Watcher
	pending map[string]*time.Timer
	ctx     context.Context
	done    chan struct{}
	stop    sync.Once
}

// Option configures a Watcher.
type Option func(*Watcher)

// WithLogger sets a logger for debug output.
func WithLogger(l *zap.Logger) Option {
	return func(w *Watcher) {
		if l != nil {
			w.logger = l
		}
	}
}

// WithDebounce sets how long a file must be quiet before it is handled. Non-positive keeps the default.
func WithDebounce(d time.Duration) Option {
	return func(w *Watcher) {
		if d > 0 {
			w.debounce = d
		}
	}
}

// WithRecursive sets whether subdirectories are watched. Defaults to true.
func WithRecursive(recursive bool) Option {
	return func(w *Watcher) { w.recursive = recursive }
}

// New creates a watcher over roots. extensions filters handled files; empty handles all.
func New(roots, extensions []string, handler Handler, opts ...Option) *Watcher {
	w := &Watcher{
		roots:      cleanRoots(roots),
		extensions: extensions,
		recursive:  true,
		debounce:   defaultDebounce,
		handler:    handler,
		logger:     zap.NewNop(),
		pending:    make(map[string]*time.Timer),
		done:       make(chan struct{}),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

func cleanRoots(roots []string) []string {
	out := make([]string, 0, len(roots))
	for _, r := range roots {
		if abs, err := filepath.Abs(r); err == nil {
			out = append(out, abs)
		}
	}
	return out
}

// Start begins watching. Missing roots are created. The watcher runs until ctx is
// canceled or Stop is called.
func (w *Watcher) Start(ctx context.Context) error {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	for _, root := range w.roots {
		if err := os.MkdirAll(root, 0755); err != nil {
			_ = fsw.Close()
			return err
		}
		if err := w.addTree(fsw, root); err != nil {
			_ = fsw.Close()
			return err
		}
	}

	w.mu.Lock()
	w.fsw = fsw
	w.ctx = ctx
	w.mu.Unlock()

	w.logger.Debug("Watcher started",
		zap.Strings("roots", w.roots),
		zap.Strings("extensions", w.extensions),
		zap.Bool("recursive", w.recursive))
	go w.run(ctx, fsw)
	return nil
}

func (w *Watcher) addTree(fsw *fsnotify.Watcher, dir string) error {
	if !w.recursive {
		return fsw.Add(dir)
	}
	return filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return fsw.Add(path)
		}
		return nil
	})
}

func (w *Watcher) run(ctx context.Context, fsw *fsnotify.Watcher) {
	for {
		select {
		case <-ctx.Done():
			w.Stop()
			return
		case <-w.done:
			return
		case ev, ok := <-fsw.Events:
			if !ok {
				return
			}
			w.handleEvent(fsw, ev)
		case err, ok := <-fsw.Errors:
			if !ok {
				return
			}
			w.logger.Debug("Watcher error", zap.Error(err))
		}
	}
}

func (w *Watcher) handleEvent(fsw *fsnotify.Watcher, ev fsnotify.Event) {
	if !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Write) {
		return
	}
	info, err := os.Stat(ev.Name)
	if err != nil {
		return
	}
	if info.IsDir() {
		// A directory moved or copied in: watch it and pick up what it already holds.
		if w.recursive {
			if err := w.addTree(fsw, ev.Name); err != nil {
				w.logger.Debug("Watcher failed to add directory", zap.String("path", ev.Name), zap.Error(err))
			}
		}
		w.walk(ev.Name, w.schedule)
		return
	}
	if matchExtension(ev.Name, w.extensions) {
		w.schedule(ev.Name)
	}
}

// schedule (re)starts the debounce timer for path.
func (w *Watcher) schedule(path string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if t, ok := w.pending[path]; ok {
		t.Stop()
	}
	w.pending[path] = time.AfterFunc(w.debounce, func() {
		w.mu.Lock()
		delete(w.pending, path)
		ctx := w.ctx
		w.mu.Unlock()
		if ctx == nil {
			ctx = context.Background()
		}
		w.logger.Debug("Watcher handling file", zap.String("path", path))
		if w.handler != nil {
			w.handler(ctx, path)
		}
	})
}

// walk calls fn for each matching file under root, or root alone when not recursive.
func (w *Watcher) walk(root string, fn func(path string)) {
	_ = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if d.IsDir() {
			if path != root && !w.recursive {
				return filepath.SkipDir
			}
			return nil
		}
		if matchExtension(path, w.extensions) {
			fn(path)
		}
		return nil
	})
}

// SyncExisting handles every matching file already present in the roots, synchronously and
// in lexical order. Call it after Start to import files that arrived while the service was down.
func (w *Watcher) SyncExisting(ctx context.Context) {
	for _, root := range w.roots {
		w.walk(root, func(path string) {
			if ctx.Err() == nil && w.handler != nil {
				w.handler(ctx, path)
			}
		})
	}
}

// Directories returns the watched root directories.
func (w *Watcher) Directories() []string {
	return append([]string(nil), w.roots...)
}

// Stop stops the watcher and drops pending debounced files.
func (w *Watcher) Stop() {
	w.stop.Do(func() {
		w.mu.Lock()
		for path, t := range w.pending {
			t.Stop()
			delete(w.pending, path)
		}
		fsw := w.fsw
		w.mu.Unlock()
		close(w.done)
		if fsw != nil {
			_ = fsw.Close()
		}
	})
}

func matchExtension(path string, extensions []string) bool {
	if len(extensions) == 0 {
		return true
	}
	ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(path)), ".")
	for _, e := range extensions {
		if strings.TrimPrefix(strings.ToLower(e), ".") == ext {
			return true
		}
	}
	return false
}
