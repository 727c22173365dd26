package catalog

import (
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"
	"github.com/spaghettifunk/atelier/engine/core"
)

// Watcher hot-reloads a catalog file when it changes on disk. A reload that
// fails validation is logged and skipped; the last good catalog stays live.
type Watcher struct {
	catalog  *Catalog
	path     string
	fsnotify *fsnotify.Watcher
	onReload func(*Catalog)

	done     chan struct{}
	wg       sync.WaitGroup
	isClosed bool
	mu       sync.Mutex
}

// Watch starts watching the catalog file's directory. The onReload callback
// (optional) fires after every successful reload.
func Watch(c *Catalog, path string, onReload func(*Catalog)) (*Watcher, error) {
	fsWatch, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	// Watch the directory, not the file: editors replace files on save.
	if err := fsWatch.Add(filepath.Dir(path)); err != nil {
		fsWatch.Close()
		return nil, err
	}

	w := &Watcher{
		catalog:  c,
		path:     path,
		fsnotify: fsWatch,
		onReload: onReload,
		done:     make(chan struct{}),
	}

	w.wg.Add(1)
	go w.start()
	return w, nil
}

func (w *Watcher) start() {
	defer w.wg.Done()
	for {
		select {
		case e, ok := <-w.fsnotify.Events:
			if !ok {
				return
			}
			if filepath.Clean(e.Name) != filepath.Clean(w.path) {
				continue
			}
			if e.Op&(fsnotify.Create|fsnotify.Write) != 0 {
				w.reload()
			}

		case err, ok := <-w.fsnotify.Errors:
			if !ok {
				return
			}
			core.LogError("catalog watcher: %s", err.Error())

		case <-w.done:
			return
		}
	}
}

func (w *Watcher) reload() {
	fresh, err := Load(w.path)
	if err != nil {
		core.LogWarn("catalog reload rejected, keeping previous contents: %s", err.Error())
		return
	}
	w.catalog.replace(fresh)
	core.LogInfo("catalog reloaded: %d garments", w.catalog.Len())
	if w.onReload != nil {
		w.onReload(w.catalog)
	}
}

// Close stops watching. Safe to call more than once.
func (w *Watcher) Close() error {
	w.mu.Lock()
	if w.isClosed {
		w.mu.Unlock()
		return nil
	}
	w.isClosed = true
	w.mu.Unlock()

	close(w.done)
	err := w.fsnotify.Close()
	w.wg.Wait()
	return err
}
