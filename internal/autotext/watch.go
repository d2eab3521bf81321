package autotext

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"textinput/internal/logging"
)

const reloadDebounce = 100 * time.Millisecond

// ErrWatcherClosed is returned by Reload after Close.
var ErrWatcherClosed = errors.New("autotext: watcher closed")

// Watcher reloads a dictionary file into a Store whenever it changes on
// disk. A file that fails to load leaves the previous dictionary in place.
type Watcher struct {
	path   string
	store  *Store
	logger *slog.Logger

	watcher  *fsnotify.Watcher
	cancel   context.CancelFunc
	done     chan struct{}
	errChan  chan error
	mu       sync.Mutex
	onReload []func(*Dictionary)

	// reloadMu serializes reloads with Close; no swap happens once
	// closed is set.
	reloadMu sync.Mutex
	closed   bool
}

// NewWatcher creates a watcher for path feeding store.
func NewWatcher(path string, store *Store, logger *slog.Logger) *Watcher {
	return &Watcher{
		path:    path,
		store:   store,
		logger:  logging.Component(logger, "autotext"),
		errChan: make(chan error, 1),
	}
}

// OnReload registers a callback invoked after each successful reload.
func (w *Watcher) OnReload(cb func(*Dictionary)) {
	w.mu.Lock()
	w.onReload = append(w.onReload, cb)
	w.mu.Unlock()
}

// Start loads the file once and then watches its directory, so editors
// that replace the file by rename are picked up too.
func (w *Watcher) Start(ctx context.Context) error {
	if err := w.Reload(); err != nil {
		return err
	}

	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	if err := fw.Add(filepath.Dir(w.path)); err != nil {
		fw.Close()
		return fmt.Errorf("watch directory: %w", err)
	}
	w.watcher = fw

	ctx, w.cancel = context.WithCancel(ctx)
	w.done = make(chan struct{})
	go w.loop(ctx)
	return nil
}

func (w *Watcher) loop(ctx context.Context) {
	defer close(w.done)

	var timer *time.Timer
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return

		case ev, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if filepath.Base(ev.Name) != filepath.Base(w.path) {
				continue
			}
			if ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			if timer != nil {
				timer.Stop()
			}
			timer = time.AfterFunc(reloadDebounce, func() {
				if ctx.Err() != nil {
					return
				}
				if err := w.Reload(); err != nil && !errors.Is(err, ErrWatcherClosed) {
					w.report(err)
				}
			})

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.report(err)
		}
	}
}

// Reload loads the file now and swaps it into the store.
func (w *Watcher) Reload() error {
	w.reloadMu.Lock()
	defer w.reloadMu.Unlock()
	if w.closed {
		return ErrWatcherClosed
	}

	d, err := LoadFile(w.path)
	if err != nil {
		return fmt.Errorf("reload dictionary: %w", err)
	}
	w.store.Swap(d)
	w.logger.Info("dictionary loaded", "path", w.path, "locale", d.Locale(), "entries", d.Len())

	w.mu.Lock()
	cbs := append([]func(*Dictionary){}, w.onReload...)
	w.mu.Unlock()
	for _, cb := range cbs {
		cb(d)
	}
	return nil
}

func (w *Watcher) report(err error) {
	w.logger.Warn("dictionary watch", "error", err)
	select {
	case w.errChan <- err:
	default:
	}
}

// Errors returns a channel receiving reload and watch errors. Errors are
// dropped when nobody reads them.
func (w *Watcher) Errors() <-chan error {
	return w.errChan
}

// Close stops watching. Once it returns the store is no longer
// written, even by a reload that was already pending.
func (w *Watcher) Close() error {
	if w.cancel != nil {
		w.cancel()
	}
	w.reloadMu.Lock()
	w.closed = true
	w.reloadMu.Unlock()

	var err error
	if w.watcher != nil {
		err = w.watcher.Close()
	}
	if w.done != nil {
		<-w.done
	}
	return err
}
