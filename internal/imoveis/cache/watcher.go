package cache

import (
	"path/filepath"
	"sync"

	"github.com/farxc/imoveis_dashboard/internal/imoveis/downloader"
	"github.com/farxc/imoveis_dashboard/internal/logger"
	"github.com/fsnotify/fsnotify"
	"github.com/rotisserie/eris"
)

// Watcher invalidates cache entries of local snapshots when their files
// change. Directories are watched rather than files so that editors and
// exporters that replace the file through a rename are still noticed.
type Watcher struct {
	cache   *Cache
	watcher *fsnotify.Watcher
	logger  *logger.Logger

	mu      sync.Mutex
	sources map[string]string // cleaned path -> source key
	dirs    map[string]bool
	done    chan struct{}
	wg      sync.WaitGroup
}

func NewWatcher(cache *Cache, appLogger *logger.Logger) (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, eris.Wrap(err, "failed to create file watcher")
	}

	w := &Watcher{
		cache:   cache,
		watcher: fw,
		logger:  appLogger,
		sources: make(map[string]string),
		dirs:    make(map[string]bool),
		done:    make(chan struct{}),
	}
	w.wg.Add(1)
	go w.run()
	return w, nil
}

// Watch starts tracking a source. URLs are ignored since there is nothing
// local to observe.
func (w *Watcher) Watch(source string) error {
	if downloader.IsURL(source) {
		return nil
	}

	path, err := filepath.Abs(downloader.LocalPath(source))
	if err != nil {
		return eris.Wrapf(err, "failed to resolve %s", source)
	}
	path = filepath.Clean(path)
	dir := filepath.Dir(path)

	w.mu.Lock()
	defer w.mu.Unlock()

	if !w.dirs[dir] {
		if err := w.watcher.Add(dir); err != nil {
			return eris.Wrapf(err, "failed to watch %s", dir)
		}
		w.dirs[dir] = true
	}
	w.sources[path] = source
	w.logger.Info("Watcher", "Watching source=%s", source)
	return nil
}

func (w *Watcher) run() {
	const component = "Watcher"
	defer w.wg.Done()

	for {
		select {
		case <-w.done:
			return
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) &&
				!event.Has(fsnotify.Remove) && !event.Has(fsnotify.Rename) {
				continue
			}

			w.mu.Lock()
			source, tracked := w.sources[filepath.Clean(event.Name)]
			w.mu.Unlock()
			if !tracked {
				continue
			}

			w.logger.Debug(component, "Change detected path=%s op=%s", event.Name, event.Op)
			w.cache.Invalidate(source)
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Warn(component, "Watcher error: %v", err)
		}
	}
}

// Close stops watching and waits for the event loop to exit.
func (w *Watcher) Close() error {
	close(w.done)
	err := w.watcher.Close()
	w.wg.Wait()
	return err
}
