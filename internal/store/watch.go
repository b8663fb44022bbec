package store

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/sirupsen/logrus"
)

// Change is a bit set of the documents that changed on disk.
type Change uint8

const (
	PlacesChanged Change = 1 << iota
	RoutesChanged
)

func (c Change) Has(other Change) bool { return c&other != 0 }

// Watch reports changes to places.json and routes.json, including edits
// made outside this process. Bursts of events are folded into a single
// call to fn once the directory has been quiet for debounce.
// Watch returns once the watcher is running; it stops when ctx is done.
func (s *Store) Watch(ctx context.Context, debounce time.Duration, fn func(Change)) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	if err := w.Add(s.dir); err != nil {
		w.Close()
		return fmt.Errorf("watch %s: %w", s.dir, err)
	}
	logrus.WithField("dir", s.dir).Info("watching content files")

	go s.watchLoop(ctx, w, debounce, fn)
	return nil
}

func (s *Store) watchLoop(ctx context.Context, w *fsnotify.Watcher, debounce time.Duration, fn func(Change)) {
	defer w.Close()

	var pending Change
	timer := time.NewTimer(time.Hour)
	timer.Stop()
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return

		case event, ok := <-w.Events:
			if !ok {
				return
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename|fsnotify.Remove) == 0 {
				continue
			}
			switch filepath.Base(event.Name) {
			case PlacesFile:
				pending |= PlacesChanged
			case RoutesFile:
				pending |= RoutesChanged
			default:
				continue
			}
			timer.Reset(debounce)

		case err, ok := <-w.Errors:
			if !ok {
				return
			}
			logrus.WithError(err).Warn("content watcher error")

		case <-timer.C:
			if pending != 0 {
				logrus.WithField("change", pending).Debug("content files changed")
				fn(pending)
				pending = 0
			}
		}
	}
}
