package config

import (
	"errors"
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"
	"github.com/spaghettifunk/lumen/engine/core"
)

// Watcher reloads a configuration file whenever it is written and hands the
// new configuration to the registered callback.
type Watcher struct {
	path     string
	onReload func(*Config)

	fsnotify *fsnotify.Watcher
	done     chan struct{}
	stopped  chan struct{}
	once     sync.Once
}

func NewWatcher(path string, onReload func(*Config)) (*Watcher, error) {
	if onReload == nil {
		return nil, core.InvalidArgument("config watcher needs a reload callback")
	}
	fsWatch, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	// Watch the directory so editors that replace the file are still seen.
	if err := fsWatch.Add(filepath.Dir(path)); err != nil {
		fsWatch.Close()
		return nil, err
	}
	w := &Watcher{
		path:     filepath.Clean(path),
		onReload: onReload,
		fsnotify: fsWatch,
		done:     make(chan struct{}),
		stopped:  make(chan struct{}),
	}
	go w.start()
	return w, nil
}

func (w *Watcher) start() {
	defer close(w.stopped)
	for {
		select {
		case e, ok := <-w.fsnotify.Events:
			if !ok {
				return
			}
			if filepath.Clean(e.Name) != w.path {
				continue
			}
			if e.Op&(fsnotify.Create|fsnotify.Write) == 0 {
				continue
			}
			cfg, err := Load(w.path)
			if err != nil {
				core.LogError("config reload failed: %s", err)
				continue
			}
			core.LogInfo("configuration reloaded from %s", w.path)
			w.onReload(cfg)
			core.EventFire(core.EVENT_CODE_CONFIG_RELOADED, w, core.EventContext{Path: w.path})

		case err, ok := <-w.fsnotify.Errors:
			if !ok {
				return
			}
			core.LogError(err.Error())

		case <-w.done:
			return
		}
	}
}

// Close stops watching. Safe to call more than once.
func (w *Watcher) Close() error {
	var err error
	w.once.Do(func() {
		close(w.done)
		<-w.stopped
		err = w.fsnotify.Close()
	})
	if errors.Is(err, fsnotify.ErrClosed) {
		return nil
	}
	return err
}
