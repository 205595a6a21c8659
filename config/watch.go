package config

import (
	"log/slog"

	"github.com/fsnotify/fsnotify"
)

// Watcher reloads the global config whenever its source file changes on
// disk, for iterating on tuning values without a process restart.
type Watcher struct {
	fsw  *fsnotify.Watcher
	path string
	log  *slog.Logger
}

// Watch starts watching path for writes and applies Init(path) on each
// one. The caller must call Close when done.
func Watch(path string, log *slog.Logger) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := fsw.Add(path); err != nil {
		fsw.Close()
		return nil, err
	}
	w := &Watcher{fsw: fsw, path: path, log: log}
	go w.loop()
	return w, nil
}

func (w *Watcher) loop() {
	for {
		select {
		case ev, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			if ev.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			if err := Init(w.path); err != nil {
				if w.log != nil {
					w.log.Error("config: reload failed", "path", w.path, "error", err)
				}
				continue
			}
			if w.log != nil {
				w.log.Info("config: reloaded", "path", w.path)
			}
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			if w.log != nil {
				w.log.Error("config: watch error", "error", err)
			}
		}
	}
}

// Close stops the watcher.
func (w *Watcher) Close() error {
	return w.fsw.Close()
}
