package themedev

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// DefaultDebounce is how long a path must stay quiet before it is reloaded.
const DefaultDebounce = 100 * time.Millisecond

// Watcher keeps a FileSystem in sync with the disk.
type Watcher struct {
	fs       *FileSystem
	watcher  *fsnotify.Watcher
	logger   *zap.Logger
	debounce time.Duration

	mu      sync.Mutex
	pending map[string]time.Time

	closeOnce sync.Once
	closeErr  error

	// OnChange, when set, is called with each key after it is reloaded or
	// removed.
	OnChange func(key string)
}

// NewWatcher watches the theme directories of fs.
func NewWatcher(fs *FileSystem, logger *zap.Logger) (*Watcher, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create file watcher: %w", err)
	}
	tw := &Watcher{
		fs:       fs,
		watcher:  w,
		logger:   logger.Named("watcher"),
		debounce: DefaultDebounce,
		pending:  make(map[string]time.Time),
	}
	for _, dir := range ThemeDirectories {
		if err := tw.addTree(filepath.Join(fs.Root(), dir)); err != nil {
			_ = w.Close()
			return nil, err
		}
	}
	return tw, nil
}

// fsnotify is not recursive, so every directory is added.
func (w *Watcher) addTree(root string) error {
	err := filepath.WalkDir(root, func(p string, d os.DirEntry, err error) error {
		if err != nil {
			if errors.Is(err, os.ErrNotExist) {
				return filepath.SkipDir
			}
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if err := w.watcher.Add(p); err != nil {
			return fmt.Errorf("watch %s: %w", p, err)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("watch theme: %w", err)
	}
	return nil
}

// Close releases the underlying watcher. It is safe to call more than once
// and is called by Run on return.
func (w *Watcher) Close() error {
	w.closeOnce.Do(func() { w.closeErr = w.watcher.Close() })
	return w.closeErr
}

// Run processes events until ctx is canceled. It closes the watcher on
// return.
func (w *Watcher) Run(ctx context.Context) error {
	defer w.Close()

	ticker := time.NewTicker(max(w.debounce/2, 10*time.Millisecond))
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-w.watcher.Events:
			if !ok {
				return nil
			}
			w.handleEvent(event)

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn("watch error", zap.Error(err))

		case <-ticker.C:
			w.flush()
		}
	}
}

func (w *Watcher) handleEvent(event fsnotify.Event) {
	if event.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Remove|fsnotify.Rename) == 0 {
		return
	}
	if event.Op&fsnotify.Create != 0 {
		if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
			if err := w.addTree(event.Name); err != nil {
				w.logger.Warn("watch new directory", zap.String("dir", event.Name), zap.Error(err))
			}
			return
		}
	}
	if strings.HasPrefix(filepath.Base(event.Name), ".") {
		return
	}

	w.mu.Lock()
	w.pending[event.Name] = time.Now()
	w.mu.Unlock()
}

// flush reloads paths that have settled past the debounce window.
func (w *Watcher) flush() {
	w.mu.Lock()
	now := time.Now()
	var settled []string
	for p, at := range w.pending {
		if now.Sub(at) >= w.debounce {
			settled = append(settled, p)
			delete(w.pending, p)
		}
	}
	w.mu.Unlock()

	for _, p := range settled {
		key, err := w.fs.keyFor(p)
		if err != nil {
			continue
		}
		if _, err := os.Stat(p); errors.Is(err, os.ErrNotExist) {
			w.fs.Delete(key)
			w.logger.Debug("removed", zap.String("key", key))
		} else if _, err := w.fs.Read(key); err != nil {
			w.logger.Warn("reload failed", zap.String("key", key), zap.Error(err))
			continue
		} else {
			w.logger.Debug("reloaded", zap.String("key", key))
		}
		if w.OnChange != nil {
			w.OnChange(key)
		}
	}
}
