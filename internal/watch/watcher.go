// Package watch observes plugin sources and reports debounced changes
// so the release pipeline can be re-run.
package watch

import (
	"context"
	"io/fs"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/dosanma1/crossdeck/internal/release"
)

// Change is one debounced source modification.
type Change struct {
	Path string
	At   time.Time
}

// Options control what the watcher reacts to.
type Options struct {
	// Root is the repository to watch.
	Root string

	// Patterns are file name globs that report a change.
	Patterns []string

	// Dirs are repo-relative directories whose whole subtree reports
	// changes regardless of Patterns.
	Dirs []string

	// Ignore are name globs for files and directories never watched.
	Ignore []string

	// Debounce folds rapid successive events on one path into a
	// single change.
	Debounce time.Duration
}

// DefaultOptions watches the cargo sources and plugin resources that
// feed a release, ignoring everything the pipeline itself writes.
func DefaultOptions(root string, cfg *release.Config) *Options {
	ignore := []string{".git", ".idea", ".vscode", "node_modules", "target"}
	seen := make(map[string]bool, len(ignore))
	for _, name := range ignore {
		seen[name] = true
	}
	for _, dir := range []string{cfg.Build.Dir, cfg.Staging.Dir, cfg.Dist.Dir} {
		if dir == "" {
			continue
		}
		// Pruning happens per directory name, so only the first
		// path component matters.
		first := strings.SplitN(filepath.ToSlash(dir), "/", 2)[0]
		if !seen[first] {
			seen[first] = true
			ignore = append(ignore, first)
		}
	}

	return &Options{
		Root:     root,
		Patterns: []string{"*.rs", "Cargo.toml", "Cargo.lock", release.ConfigFileName, filepath.Base(cfg.Manifest)},
		Dirs:     []string{cfg.Assets},
		Ignore:   ignore,
		Debounce: 400 * time.Millisecond,
	}
}

// Watcher watches a repository for source changes.
type Watcher struct {
	opts    *Options
	watcher *fsnotify.Watcher
	changes chan Change
	errs    chan error
	done    chan struct{}

	mu      sync.Mutex
	running bool

	pendingMu sync.Mutex
	pending   map[string]*time.Timer
}

// NewWatcher creates a watcher over the repository described by opts.
func NewWatcher(opts *Options) (*Watcher, error) {
	fsWatcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	return &Watcher{
		opts:    opts,
		watcher: fsWatcher,
		changes: make(chan Change, 64),
		errs:    make(chan error, 8),
		done:    make(chan struct{}),
		pending: make(map[string]*time.Timer),
	}, nil
}

// Start begins watching. It returns once the directory tree is
// registered; changes arrive on Changes until Stop or ctx ends.
func (w *Watcher) Start(ctx context.Context) error {
	w.mu.Lock()
	if w.running {
		w.mu.Unlock()
		return nil
	}
	w.running = true
	w.mu.Unlock()

	if err := w.addRecursive(w.opts.Root); err != nil {
		return err
	}

	go w.loop(ctx)
	return nil
}

// Stop stops the watcher and releases its OS watches.
func (w *Watcher) Stop() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if !w.running {
		return nil
	}
	w.running = false
	close(w.done)

	return w.watcher.Close()
}

// Changes returns the channel of debounced source changes.
func (w *Watcher) Changes() <-chan Change {
	return w.changes
}

// Errors returns the channel of watch errors.
func (w *Watcher) Errors() <-chan error {
	return w.errs
}

// addRecursive registers root and every non-ignored subdirectory.
func (w *Watcher) addRecursive(root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if path != root && w.ignoredName(d.Name()) {
			return filepath.SkipDir
		}
		return w.watcher.Add(path)
	})
}

func (w *Watcher) loop(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-w.done:
			return
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			w.handle(event)
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			select {
			case w.errs <- err:
			default:
			}
		}
	}
}

func (w *Watcher) handle(event fsnotify.Event) {
	if event.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Remove|fsnotify.Rename) == 0 {
		return
	}
	if w.ignored(event.Name) || !w.matches(event.Name) {
		return
	}
	w.debounce(event.Name)
}

// debounce schedules a change for path, replacing any still-pending
// one so editor save bursts emit a single change.
func (w *Watcher) debounce(path string) {
	w.pendingMu.Lock()
	defer w.pendingMu.Unlock()

	if timer, ok := w.pending[path]; ok {
		timer.Stop()
	}

	w.pending[path] = time.AfterFunc(w.opts.Debounce, func() {
		w.pendingMu.Lock()
		delete(w.pending, path)
		w.pendingMu.Unlock()

		select {
		case w.changes <- Change{Path: path, At: time.Now()}:
		default:
			// Channel full, consumer is already rebuilding.
		}
	})
}

// matches reports whether a path is interesting: inside a watched
// subtree, or matching a file pattern.
func (w *Watcher) matches(path string) bool {
	if rel, err := filepath.Rel(w.opts.Root, path); err == nil {
		for _, dir := range w.opts.Dirs {
			if dir == "" {
				continue
			}
			dir = filepath.FromSlash(dir)
			if rel == dir || strings.HasPrefix(rel, dir+string(filepath.Separator)) {
				return true
			}
		}
	}

	if len(w.opts.Patterns) == 0 {
		return true
	}
	base := filepath.Base(path)
	for _, pattern := range w.opts.Patterns {
		if matched, _ := filepath.Match(pattern, base); matched {
			return true
		}
	}
	return false
}

// ignored reports whether any component of the repo-relative path
// matches an ignore glob.
func (w *Watcher) ignored(path string) bool {
	rel, err := filepath.Rel(w.opts.Root, path)
	if err != nil {
		rel = path
	}
	for _, part := range strings.Split(rel, string(filepath.Separator)) {
		if w.ignoredName(part) {
			return true
		}
	}
	return false
}

func (w *Watcher) ignoredName(name string) bool {
	for _, pattern := range w.opts.Ignore {
		if matched, _ := filepath.Match(pattern, name); matched {
			return true
		}
	}
	return false
}
