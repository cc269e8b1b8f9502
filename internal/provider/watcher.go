package provider

import (
	"fmt"
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"
)

// Watcher keeps a Binder in sync with the manifests of a directory. A
// changed file unbinds its old provider and binds the new one; a removed
// file unbinds. Invalid manifests are logged and leave the old provider
// bound.
type Watcher struct {
	dir    string
	binder Binder
	logger zerolog.Logger

	mu       sync.Mutex
	bound    map[string]*Static // absolute path -> provider
	watcher  *fsnotify.Watcher
	stopOnce sync.Once
	stopCh   chan struct{}
	done     chan struct{}
}

// NewWatcher returns a Watcher for dir. Call Start to load and watch.
func NewWatcher(dir string, binder Binder, logger zerolog.Logger) (*Watcher, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("absolute path: %w", err)
	}
	return &Watcher{
		dir:    abs,
		binder: binder,
		logger: logger.With().Str("component", "provider-watcher").Logger(),
		bound:  make(map[string]*Static),
		stopCh: make(chan struct{}),
		done:   make(chan struct{}),
	}, nil
}

// Start binds the manifests currently in the directory and begins
// watching it.
func (w *Watcher) Start() error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	if err := watcher.Add(w.dir); err != nil {
		watcher.Close()
		return fmt.Errorf("watch directory: %w", err)
	}
	w.watcher = watcher

	providers, err := LoadDir(w.dir)
	if err != nil {
		watcher.Close()
		return err
	}
	for _, p := range providers {
		w.bind(p.Source(), p)
	}

	go w.watchLoop()
	w.logger.Info().Str("dir", w.dir).Int("providers", len(providers)).Msg("watching provider manifests")
	return nil
}

// Stop ends watching. Bound providers stay bound.
func (w *Watcher) Stop() {
	w.stopOnce.Do(func() {
		close(w.stopCh)
		if w.watcher != nil {
			w.watcher.Close()
			<-w.done
		}
	})
}

// Bound returns the number of providers bound by w.
func (w *Watcher) Bound() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return len(w.bound)
}

func (w *Watcher) watchLoop() {
	defer close(w.done)
	for {
		select {
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			w.handle(event)
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Error().Err(err).Msg("file watcher error")
		case <-w.stopCh:
			return
		}
	}
}

func (w *Watcher) handle(event fsnotify.Event) {
	if !IsManifest(event.Name) {
		return
	}
	path := filepath.Clean(event.Name)
	w.logger.Debug().Str("event", event.Op.String()).Str("file", path).Msg("manifest changed")

	switch {
	case event.Op&(fsnotify.Remove|fsnotify.Rename) != 0:
		w.unbind(path)
	case event.Op&(fsnotify.Write|fsnotify.Create) != 0:
		p, err := LoadFile(path)
		if err != nil {
			w.logger.Error().Err(err).Str("file", path).Msg("manifest reload failed, keeping old provider")
			return
		}
		w.bind(path, p)
	}
}

func (w *Watcher) bind(path string, p *Static) {
	w.mu.Lock()
	old := w.bound[path]
	w.bound[path] = p
	w.mu.Unlock()
	if old != nil {
		w.binder.Unbind(old)
	}
	w.binder.Bind(p)
}

func (w *Watcher) unbind(path string) {
	w.mu.Lock()
	old, ok := w.bound[path]
	delete(w.bound, path)
	w.mu.Unlock()
	if ok {
		w.binder.Unbind(old)
	}
}
