package store

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// ErrWatcherFailed indicates the filesystem watcher failed to initialize.
var ErrWatcherFailed = errors.New("failed to initialize filesystem watcher")

// ChangeEvent reports that a document's live content changed and any cached
// result for it is stale.
type ChangeEvent struct {
	// DocumentID is the store-relative ID of the changed document.
	DocumentID string

	// Timestamp is when the change was detected.
	Timestamp time.Time
}

// Watcher watches a vault for document edits and emits invalidation events.
type Watcher struct {
	root    string
	watcher *fsnotify.Watcher
	events  chan ChangeEvent
	stop    chan struct{}
	logger  *zap.Logger
}

// NewWatcher creates a watcher over the vault's root directory.
func NewWatcher(vault *Vault, logger *zap.Logger) (*Watcher, error) {
	if vault == nil {
		return nil, errors.New("vault is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrWatcherFailed, err)
	}

	return &Watcher{
		root:    vault.Root(),
		watcher: fsw,
		events:  make(chan ChangeEvent, 64),
		stop:    make(chan struct{}),
		logger:  logger,
	}, nil
}

// Start registers the vault's directories and begins emitting events.
// fsnotify watches are not recursive, so every non-hidden subdirectory is
// registered, and directories created later are picked up from their
// create events.
func (w *Watcher) Start(ctx context.Context) error {
	err := filepath.WalkDir(w.root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if path != w.root && strings.HasPrefix(d.Name(), ".") {
			return filepath.SkipDir
		}
		return w.watcher.Add(path)
	})
	if err != nil {
		return fmt.Errorf("failed to register vault directories: %w", err)
	}

	go w.processEvents(ctx)
	return nil
}

// Events returns the channel of invalidation events.
func (w *Watcher) Events() <-chan ChangeEvent {
	return w.events
}

// Stop stops the watcher and releases resources.
func (w *Watcher) Stop() {
	select {
	case <-w.stop:
		return
	default:
		close(w.stop)
		_ = w.watcher.Close()
	}
}

func (w *Watcher) processEvents(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-w.stop:
			return
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			w.handleEvent(event)
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Warn("watcher error", zap.Error(err))
		}
	}
}

func (w *Watcher) handleEvent(event fsnotify.Event) {
	base := filepath.Base(event.Name)
	if strings.HasPrefix(base, ".") {
		return
	}

	// New directories need their own watch registration.
	if event.Op.Has(fsnotify.Create) {
		if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
			if err := w.watcher.Add(event.Name); err != nil {
				w.logger.Warn("failed to watch new directory",
					zap.String("path", event.Name), zap.Error(err))
			}
			return
		}
	}

	if !strings.EqualFold(filepath.Ext(base), ".md") {
		return
	}
	if !event.Op.Has(fsnotify.Write) && !event.Op.Has(fsnotify.Create) &&
		!event.Op.Has(fsnotify.Remove) && !event.Op.Has(fsnotify.Rename) {
		return
	}

	rel, err := filepath.Rel(w.root, event.Name)
	if err != nil {
		return
	}

	ce := ChangeEvent{
		DocumentID: filepath.ToSlash(rel),
		Timestamp:  time.Now(),
	}
	select {
	case w.events <- ce:
	default:
		w.logger.Warn("dropping change event, channel full",
			zap.String("document_id", ce.DocumentID))
	}
}
