package webui

import (
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/fsnotify/fsnotify"
)

// watcher loads images dropped into a directory. Create and Write both
// trigger a load attempt; a half-written file fails to decode and is
// retried on the next event for the same path.
type watcher struct {
	fsw     *fsnotify.Watcher
	log     *slog.Logger
	onImage func(path string)
	done    chan struct{}
}

func newWatcher(dir string, log *slog.Logger, onImage func(string)) (*watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := fsw.Add(dir); err != nil {
		fsw.Close()
		return nil, err
	}

	w := &watcher{
		fsw:     fsw,
		log:     log,
		onImage: onImage,
		done:    make(chan struct{}),
	}
	go w.run()
	w.log.Info("watching directory", "dir", dir)

	return w, nil
}

func (w *watcher) run() {
	for {
		select {
		case ev, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			if ev.Op&(fsnotify.Create|fsnotify.Write) == 0 {
				continue
			}
			if !isImageFile(ev.Name) {
				continue
			}
			w.onImage(ev.Name)

		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			w.log.Warn("watcher error", "error", err)

		case <-w.done:
			return
		}
	}
}

func (w *watcher) close() {
	close(w.done)
	w.fsw.Close()
}

func isImageFile(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".png", ".jpg", ".jpeg", ".gif":
		return true
	}

	return false
}
