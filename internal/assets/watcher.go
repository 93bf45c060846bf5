package assets

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"

	"github.com/Faultbox/rpgmap/internal/logger"
)

// Watcher reports changed assets under a set of roots as asset names.
type Watcher struct {
	fs      *fsnotify.Watcher
	roots   []string
	names   chan string
	onEvent func(name string)
}

// NewWatcher watches every directory below the given roots.
func NewWatcher(roots ...string) (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("creating watcher: %w", err)
	}
	w := &Watcher{
		fs:    fw,
		roots: roots,
		names: make(chan string, 64),
	}
	for _, root := range roots {
		if err := w.addTree(root); err != nil {
			fw.Close()
			return nil, err
		}
	}
	return w, nil
}

// Watch starts a watcher over the manager's roots. Changed assets are
// dropped from the byte cache before their names are delivered.
func (m *Manager) Watch(ctx context.Context) (<-chan string, error) {
	w, err := NewWatcher(m.Roots()...)
	if err != nil {
		return nil, err
	}
	w.onEvent = m.Forget
	go func() {
		if err := w.Run(ctx); err != nil {
			logger.Error("asset watcher stopped", zap.Error(err))
		}
	}()
	return w.Names(), nil
}

func (w *Watcher) addTree(root string) error {
	return filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if err := w.fs.Add(p); err != nil {
			return fmt.Errorf("watching %s: %w", p, err)
		}
		return nil
	})
}

// Names returns the stream of changed asset names. It is closed when Run
// returns.
func (w *Watcher) Names() <-chan string {
	return w.names
}

// Run forwards file system events until ctx is cancelled.
func (w *Watcher) Run(ctx context.Context) error {
	defer close(w.names)
	defer w.fs.Close()

	logger.Info("watching assets", zap.Strings("roots", w.roots))
	for {
		select {
		case <-ctx.Done():
			return nil
		case err, ok := <-w.fs.Errors:
			if !ok {
				return nil
			}
			logger.Warn("asset watcher error", zap.Error(err))
		case ev, ok := <-w.fs.Events:
			if !ok {
				return nil
			}
			name, changed := w.handle(ev)
			if !changed {
				continue
			}
			if w.onEvent != nil {
				w.onEvent(name)
			}
			select {
			case w.names <- name:
			case <-ctx.Done():
				return nil
			}
		}
	}
}

// handle maps an event to an asset name. New directories are watched too.
func (w *Watcher) handle(ev fsnotify.Event) (string, bool) {
	if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) &&
		!ev.Has(fsnotify.Remove) && !ev.Has(fsnotify.Rename) {
		return "", false
	}
	if ev.Has(fsnotify.Create) {
		if info, err := os.Stat(ev.Name); err == nil && info.IsDir() {
			if err := w.addTree(ev.Name); err != nil {
				logger.Warn("watching new directory", zap.String("dir", ev.Name), zap.Error(err))
			}
			return "", false
		}
	}
	for _, root := range w.roots {
		if name, ok := NameOf(root, ev.Name); ok {
			logger.Debug("asset changed", zap.String("name", name), zap.Stringer("op", ev.Op))
			return name, true
		}
	}
	return "", false
}

// Close stops watching. It is only needed when Run was never started.
func (w *Watcher) Close() error {
	return w.fs.Close()
}
