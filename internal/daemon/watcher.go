package daemon

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"git.home.luguber.info/inful/hugoci/internal/logfields"
)

// SourceWatcher reports changes below a set of directories, coalescing bursts of events
// into a single callback once the tree has been quiet for the debounce window.
type SourceWatcher struct {
	roots    []string
	ignore   []string
	debounce time.Duration
	onChange func()

	watcher *fsnotify.Watcher
	mu      sync.Mutex
	timer   *time.Timer
	started bool
	stopped bool
	done    chan struct{}
}

// NewSourceWatcher watches roots recursively. Paths under any ignore prefix (the build
// output, the scratch area) never trigger. An ignore entry may also be a
// filepath.Match pattern, such as a file name followed by "*" to cover the
// sibling files a writer creates next to it.
func NewSourceWatcher(roots, ignore []string, debounce time.Duration, onChange func()) (*SourceWatcher, error) {
	if len(roots) == 0 {
		return nil, fmt.Errorf("no directories to watch")
	}
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create file watcher: %w", err)
	}
	absRoots := make([]string, 0, len(roots))
	for _, r := range roots {
		abs, err := filepath.Abs(r)
		if err != nil {
			_ = w.Close()
			return nil, fmt.Errorf("failed to resolve %s: %w", r, err)
		}
		absRoots = append(absRoots, abs)
	}
	cleaned := make([]string, 0, len(ignore))
	for _, p := range ignore {
		if p != "" {
			cleaned = append(cleaned, filepath.Clean(p))
		}
	}
	return &SourceWatcher{
		roots:    absRoots,
		ignore:   cleaned,
		debounce: debounce,
		onChange: onChange,
		watcher:  w,
		done:     make(chan struct{}),
	}, nil
}

// Start registers the directory trees and begins delivering events.
func (sw *SourceWatcher) Start(ctx context.Context) error {
	for _, root := range sw.roots {
		if err := sw.addDirsRecursive(root); err != nil {
			return fmt.Errorf("failed to watch %s: %w", root, err)
		}
		slog.Info("Watching sources", logfields.Dir(root))
	}
	sw.mu.Lock()
	sw.started = true
	sw.mu.Unlock()
	go sw.loop(ctx)
	return nil
}

// Stop releases the watcher and cancels a pending callback.
func (sw *SourceWatcher) Stop() error {
	sw.mu.Lock()
	sw.stopped = true
	if sw.timer != nil {
		sw.timer.Stop()
	}
	started := sw.started
	sw.mu.Unlock()
	err := sw.watcher.Close()
	if started {
		<-sw.done
	}
	return err
}

func (sw *SourceWatcher) loop(ctx context.Context) {
	defer close(sw.done)
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-sw.watcher.Events:
			if !ok {
				return
			}
			sw.handle(ev)
		case err, ok := <-sw.watcher.Errors:
			if !ok {
				return
			}
			slog.Error("Source watcher error", logfields.Error(err))
		}
	}
}

func (sw *SourceWatcher) handle(ev fsnotify.Event) {
	if sw.ignored(ev.Name) || ev.Op == fsnotify.Chmod {
		return
	}
	if ev.Op&fsnotify.Create == fsnotify.Create {
		if fi, err := os.Stat(ev.Name); err == nil && fi.IsDir() {
			_ = sw.addDirsRecursive(ev.Name)
		}
	}
	slog.Debug("Source change detected", logfields.Path(ev.Name), slog.String("op", ev.Op.String()))

	sw.mu.Lock()
	defer sw.mu.Unlock()
	if sw.stopped {
		return
	}
	if sw.timer != nil {
		sw.timer.Stop()
	}
	sw.timer = time.AfterFunc(sw.debounce, sw.onChange)
}

func (sw *SourceWatcher) addDirsRecursive(root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if path == root {
				return err
			}
			return nil
		}
		if !d.IsDir() {
			return nil
		}
		if path != root && sw.ignored(path) {
			return filepath.SkipDir
		}
		if err := sw.watcher.Add(path); err != nil {
			slog.Warn("Watch add failed", logfields.Dir(path), logfields.Error(err))
		}
		return nil
	})
}

func (sw *SourceWatcher) ignored(path string) bool {
	path = filepath.Clean(path)
	if strings.HasPrefix(filepath.Base(path), ".") {
		return true
	}
	for _, p := range sw.ignore {
		if path == p || strings.HasPrefix(path, p+string(filepath.Separator)) {
			return true
		}
		if ok, _ := filepath.Match(p, path); ok {
			return true
		}
	}
	return false
}
