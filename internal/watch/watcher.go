package watch

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/fsnotify/fsnotify"

	"git.home.luguber.info/inful/codedoc/internal/logfields"
)

// Watcher turns file system events below the input directory and on the
// configuration file into rebuild requests.
type Watcher struct {
	root       string
	configPath string
	ignore     []string
	notify     func(Request)
	logger     *slog.Logger

	mu      sync.Mutex
	watcher *fsnotify.Watcher
	done    chan struct{}
}

// NewWatcher watches root recursively. configPath may be empty. Events below
// any of the ignore directories (typically the output directory) are dropped.
func NewWatcher(root, configPath string, ignore []string, notify func(Request), logger *slog.Logger) (*Watcher, error) {
	if logger == nil {
		logger = slog.Default()
	}
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("resolve input path: %w", err)
	}
	w := &Watcher{root: absRoot, notify: notify, logger: logger, done: make(chan struct{})}
	if configPath != "" {
		if w.configPath, err = filepath.Abs(configPath); err != nil {
			return nil, fmt.Errorf("resolve config path: %w", err)
		}
	}
	for _, dir := range ignore {
		abs, err := filepath.Abs(dir)
		if err != nil {
			return nil, fmt.Errorf("resolve ignored path: %w", err)
		}
		w.ignore = append(w.ignore, abs)
	}
	return w, nil
}

// Start registers the watches and begins delivering requests.
func (w *Watcher) Start(ctx context.Context) error {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create file watcher: %w", err)
	}
	if err := w.addTree(fw, w.root); err != nil {
		_ = fw.Close()
		return err
	}
	// Watch the directory containing the config file; editors replace files on save.
	if w.configPath != "" {
		if err := fw.Add(filepath.Dir(w.configPath)); err != nil {
			_ = fw.Close()
			return fmt.Errorf("failed to watch config directory: %w", err)
		}
	}

	w.mu.Lock()
	w.watcher = fw
	w.mu.Unlock()

	w.logger.Info("Starting file watcher", logfields.Path(w.root), slog.String("config_path", w.configPath))
	go w.loop(ctx, fw)
	return nil
}

// Close stops the watcher.
func (w *Watcher) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.watcher == nil {
		return nil
	}
	err := w.watcher.Close()
	w.watcher = nil
	<-w.done
	return err
}

func (w *Watcher) addTree(fw *fsnotify.Watcher, root string) error {
	return filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if p != root && (strings.HasPrefix(d.Name(), ".") || w.ignored(p)) {
			return filepath.SkipDir
		}
		if err := fw.Add(p); err != nil {
			return fmt.Errorf("failed to watch directory %s: %w", p, err)
		}
		return nil
	})
}

func (w *Watcher) loop(ctx context.Context, fw *fsnotify.Watcher) {
	defer close(w.done)
	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-fw.Events:
			if !ok {
				return
			}
			w.handle(fw, event)
		case err, ok := <-fw.Errors:
			if !ok {
				return
			}
			w.logger.Error("File watcher error", logfields.Error(err))
		}
	}
}

func (w *Watcher) handle(fw *fsnotify.Watcher, event fsnotify.Event) {
	if event.Op == fsnotify.Chmod {
		return
	}
	name := filepath.Clean(event.Name)

	if w.configPath != "" && name == w.configPath {
		if event.Has(fsnotify.Remove) {
			w.logger.Warn("Config file removed", logfields.Path(name))
			return
		}
		w.logger.Debug("Config file change detected", logfields.Path(name), slog.String("op", event.Op.String()))
		w.notify(Request{Reason: ReasonConfig, Path: name})
		return
	}

	if !w.inRoot(name) || w.ignored(name) || strings.HasPrefix(filepath.Base(name), ".") {
		return
	}
	if event.Has(fsnotify.Create) {
		if info, err := os.Stat(name); err == nil && info.IsDir() {
			if err := w.addTree(fw, name); err != nil {
				w.logger.Warn("Failed to watch new directory", logfields.Path(name), logfields.Error(err))
			}
			w.notify(Request{Reason: ReasonSource, Path: name})
			return
		}
	}
	// Removed directories have no extension either; a rebuild prunes their pages.
	ext := filepath.Ext(name)
	if ext != "" && !strings.EqualFold(ext, ".md") {
		return
	}
	w.logger.Debug("Source change detected", logfields.Path(name), slog.String("op", event.Op.String()))
	w.notify(Request{Reason: ReasonSource, Path: name})
}

func (w *Watcher) inRoot(p string) bool {
	return p == w.root || strings.HasPrefix(p, w.root+string(filepath.Separator))
}

func (w *Watcher) ignored(p string) bool {
	for _, dir := range w.ignore {
		if p == dir || strings.HasPrefix(p, dir+string(filepath.Separator)) {
			return true
		}
	}
	return false
}
