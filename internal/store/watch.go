package store

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/anon96881/PythiaEvolution/internal/config"
	"github.com/anon96881/PythiaEvolution/internal/logging"
)

// watchDebounce coalesces bursts of file events (e.g. a results directory
// being rewritten) into one invalidation.
const watchDebounce = 200 * time.Millisecond

// Watcher invalidates a Cache entry whenever a series file of that model
// changes under the data root.
type Watcher struct {
	cache   *Cache
	models  []config.ModelVariant
	root    string
	watcher *fsnotify.Watcher
	logger  *slog.Logger

	// dirModels maps each search dir path to the keys of the models using it.
	dirModels map[string][]string

	// missing holds search dirs that did not exist yet. Their nearest
	// existing ancestor is watched instead until they appear.
	missing map[string]bool
}

// NewWatcher watches every search directory of models under root. A search
// dir that does not exist yet is picked up once it is created.
func NewWatcher(cache *Cache, root string, models []config.ModelVariant, logger *slog.Logger) (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create file watcher: %w", err)
	}

	w := &Watcher{
		cache:     cache,
		models:    models,
		root:      filepath.Clean(root),
		watcher:   fw,
		logger:    logging.Component(logger, "watcher"),
		dirModels: make(map[string][]string),
		missing:   make(map[string]bool),
	}

	for _, m := range models {
		for _, dir := range m.SearchDirs {
			path := filepath.Join(w.root, dir)
			w.dirModels[path] = append(w.dirModels[path], m.Key)
		}
	}
	for path := range w.dirModels {
		if err := fw.Add(path); err != nil {
			w.logger.Debug("search dir not there yet", "dir", path, "error", err)
			w.missing[path] = true
			continue
		}
		w.logger.Debug("watching search dir", "dir", path)
	}
	w.watchAncestors()

	return w, nil
}

// watchAncestors watches the nearest existing ancestor (never above root)
// of each missing search dir, so that its creation produces an event.
func (w *Watcher) watchAncestors() {
	for path := range w.missing {
		for dir := filepath.Dir(path); ; dir = filepath.Dir(dir) {
			if err := w.watcher.Add(dir); err == nil {
				break
			}
			if dir == w.root || dir == filepath.Dir(dir) || !strings.HasPrefix(dir, w.root) {
				break
			}
		}
	}
}

// addMissing starts watching search dirs that have appeared and returns
// the keys of the models using them.
func (w *Watcher) addMissing() []string {
	var keys []string
	for path := range w.missing {
		if err := w.watcher.Add(path); err != nil {
			continue
		}
		delete(w.missing, path)
		w.logger.Info("watching new search dir", "dir", path)
		keys = append(keys, w.dirModels[path]...)
	}
	if len(w.missing) > 0 {
		w.watchAncestors()
	}
	return keys
}

// Watched returns the directories currently being watched.
func (w *Watcher) Watched() []string {
	return w.watcher.WatchList()
}

// Run processes file events until ctx is cancelled, then closes the watcher.
func (w *Watcher) Run(ctx context.Context) error {
	defer w.watcher.Close()

	pending := make(map[string]bool)
	timer := time.NewTimer(watchDebounce)
	if !timer.Stop() {
		<-timer.C
	}

	for {
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil

		case event, ok := <-w.watcher.Events:
			if !ok {
				return nil
			}
			if event.Has(fsnotify.Create) && len(w.missing) > 0 {
				// Files may land in a new dir before it is watched.
				for _, key := range w.addMissing() {
					pending[key] = true
					timer.Reset(watchDebounce)
				}
			}
			key := w.modelFor(event.Name)
			if key == "" {
				continue
			}
			w.logger.Debug("series file changed", "file", event.Name, "op", event.Op.String(), "model", key)
			pending[key] = true
			timer.Reset(watchDebounce)

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn("file watcher error", "error", err)

		case <-timer.C:
			for key := range pending {
				w.cache.Invalidate(key)
				w.logger.Info("dataset invalidated", "model", key)
			}
			clear(pending)
		}
	}
}

// modelFor returns the key of the model whose series suffix name carries.
func (w *Watcher) modelFor(name string) string {
	base := filepath.Base(name)
	for _, m := range w.models {
		if strings.HasSuffix(base, m.Suffix()) {
			return m.Key
		}
	}
	return ""
}
