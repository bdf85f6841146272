package templates

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

const reloadDebounce = 300 * time.Millisecond

// Watcher reloads region hints and drops cached images when files in the
// templates directory change
type Watcher struct {
	registry *Registry
	watcher  *fsnotify.Watcher
	done     chan struct{}
	mu       sync.Mutex
}

// Watch starts watching the templates directory and its immediate
// subdirectories until ctx is cancelled or Stop is called
func (r *Registry) Watch(ctx context.Context) (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := fw.Add(r.dir); err != nil {
		fw.Close()
		return nil, err
	}
	if entries, err := os.ReadDir(r.dir); err == nil {
		for _, e := range entries {
			if e.IsDir() {
				if err := fw.Add(filepath.Join(r.dir, e.Name())); err != nil {
					r.logger.Warn("Cannot watch " + e.Name() + ": " + err.Error())
				}
			}
		}
	}

	w := &Watcher{registry: r, watcher: fw, done: make(chan struct{})}
	r.logger.InfoWithContext("Watching templates directory", map[string]interface{}{"path": r.dir})
	go w.loop(ctx)
	return w, nil
}

// Stop ends the watch loop
func (w *Watcher) Stop() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.watcher == nil {
		return
	}
	close(w.done)
	w.watcher.Close()
	w.watcher = nil
}

func (w *Watcher) loop(ctx context.Context) {
	var reloadTimer *time.Timer
	defer func() {
		if reloadTimer != nil {
			reloadTimer.Stop()
		}
	}()

	events := w.watcher.Events
	errs := w.watcher.Errors
	for {
		select {
		case <-ctx.Done():
			w.Stop()
			return
		case <-w.done:
			return
		case event, ok := <-events:
			if !ok {
				return
			}
			if event.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Remove|fsnotify.Rename) == 0 {
				continue
			}
			if filepath.Base(event.Name) == MetadataFile {
				if reloadTimer != nil {
					reloadTimer.Stop()
				}
				reloadTimer = time.AfterFunc(reloadDebounce, func() {
					_ = w.registry.Load()
				})
				continue
			}
			if isImage(event.Name) {
				w.registry.cache.Invalidate(event.Name)
				w.registry.logger.Debug("Template changed: " + event.Name)
			}
		case err, ok := <-errs:
			if !ok {
				return
			}
			w.registry.logger.Error("Template watcher error", err)
		}
	}
}

func isImage(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	return ext == ".png" || ext == ".jpg" || ext == ".jpeg"
}
