package schemafile

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// Watcher notices writes to a schema document's file and calls a
// callback with the document's path; parsing the document is left to
// that callback. Grounded on the same
// debounced single-file watch pattern used for hot-reloading the schema
// during development.
type Watcher struct {
	file    string
	watcher *fsnotify.Watcher
	done    chan struct{}
}

// OnReload is invoked with the document path every time it changes.
type OnReload func(path string) error

// NewWatcher watches the directory containing file and invokes onReload,
// debounced, whenever file is written. It does not call onReload when
// the watch starts.
func NewWatcher(file string, onReload OnReload) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("schemafile: create watcher: %w", err)
	}

	absPath, err := filepath.Abs(file)
	if err != nil {
		fsw.Close()
		return nil, fmt.Errorf("schemafile: resolve path: %w", err)
	}

	if err := fsw.Add(filepath.Dir(absPath)); err != nil {
		fsw.Close()
		return nil, fmt.Errorf("schemafile: watch directory: %w", err)
	}

	w := &Watcher{file: absPath, watcher: fsw, done: make(chan struct{})}

	go w.run(absPath, onReload, fsw)
	return w, nil
}

func (w *Watcher) run(absPath string, onReload OnReload, fsw *fsnotify.Watcher) {
	debounce := time.NewTimer(500 * time.Millisecond)
	debounce.Stop()
	var ch <-chan time.Time

	for {
		select {
		case event, ok := <-fsw.Events:
			if !ok {
				return
			}
			if event.Op&fsnotify.Write == fsnotify.Write {
				if eventPath, err := filepath.Abs(event.Name); err == nil && eventPath == absPath {
					debounce.Reset(500 * time.Millisecond)
					ch = debounce.C
				}
			}
		case <-ch:
			if err := onReload(absPath); err != nil {
				fmt.Fprintf(os.Stderr, "schemafile: reload error: %v\n", err)
			}
			ch = nil
		case err, ok := <-fsw.Errors:
			if !ok {
				return
			}
			fmt.Fprintf(os.Stderr, "schemafile: watch error: %v\n", err)
		case <-w.done:
			fsw.Close()
			return
		}
	}
}

// Stop ends the watch goroutine and closes the underlying watcher.
func (w *Watcher) Stop() {
	close(w.done)
}
