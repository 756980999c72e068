package store

import (
	"fmt"

	"github.com/fsnotify/fsnotify"
)

// Watcher reports mutations of the store's root directory. The console's
// file manager uses it to notice that an enumeration has gone stale behind
// its back.
type Watcher struct {
	fsWatcher *fsnotify.Watcher
	changes   chan struct{}
	done      chan struct{}
}

// Watch starts watching the store root. Create, remove, rename and write
// events coalesce into at most one pending change notification.
func (s *Store) Watch() (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("store: watch: %w", err)
	}
	if err := fsw.Add(s.root); err != nil {
		fsw.Close()
		return nil, fmt.Errorf("store: watch %s: %w", s.root, err)
	}

	w := &Watcher{
		fsWatcher: fsw,
		changes:   make(chan struct{}, 1),
		done:      make(chan struct{}),
	}
	go w.run()
	return w, nil
}

// Changes delivers one value per batch of observed mutations.
func (w *Watcher) Changes() <-chan struct{} {
	return w.changes
}

// Close stops the watcher.
func (w *Watcher) Close() error {
	close(w.done)
	return w.fsWatcher.Close()
}

func (w *Watcher) run() {
	for {
		select {
		case ev, ok := <-w.fsWatcher.Events:
			if !ok {
				return
			}
			if ev.Op&(fsnotify.Create|fsnotify.Remove|fsnotify.Rename|fsnotify.Write) == 0 {
				continue
			}
			select {
			case w.changes <- struct{}{}:
			default:
			}
		case _, ok := <-w.fsWatcher.Errors:
			if !ok {
				return
			}
		case <-w.done:
			return
		}
	}
}
