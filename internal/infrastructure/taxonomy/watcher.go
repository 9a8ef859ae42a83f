package taxonomy

import (
	"bytes"
	"context"
	"crypto/sha256"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"

	"github.com/pantrymatch/backend/internal/domain"
)

const defaultDebounce = 500 * time.Millisecond

// Swapper installs a new taxonomy table, keeping the old one on error
type Swapper interface {
	Swap(entries []domain.TaxonomyEntry) error
}

// ReloadRecorder counts reload attempts
type ReloadRecorder interface {
	TaxonomyReload(success bool)
}

// Watcher reloads a taxonomy file into a Swapper whenever it changes on disk.
// Bursts of events are collapsed into one reload per debounce window.
type Watcher struct {
	path     string
	debounce time.Duration
	target   Swapper
	fsw      *fsnotify.Watcher
	logger   *zap.Logger
	recorder ReloadRecorder

	mu       sync.Mutex
	pending  bool
	lastHash []byte

	started bool
	done    chan struct{}
}

// NewWatcher creates a watcher for path. recorder may be nil.
func NewWatcher(path string, debounce time.Duration, target Swapper, logger *zap.Logger, recorder ReloadRecorder) (*Watcher, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("resolve taxonomy path: %w", err)
	}
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create fs watcher: %w", err)
	}
	if debounce <= 0 {
		debounce = defaultDebounce
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Watcher{
		path:     abs,
		debounce: debounce,
		target:   target,
		fsw:      fsw,
		logger:   logger.With(zap.String("taxonomy_path", abs)),
		recorder: recorder,
		done:     make(chan struct{}),
	}, nil
}

// Start watches the file's directory so editor rename-and-replace saves are seen
func (w *Watcher) Start(ctx context.Context) error {
	if err := w.fsw.Add(filepath.Dir(w.path)); err != nil {
		return fmt.Errorf("watch taxonomy dir: %w", err)
	}
	if data, err := os.ReadFile(w.path); err == nil {
		w.lastHash = hashOf(data)
	}

	w.started = true
	go w.processEvents(ctx)

	w.logger.Info("taxonomy watcher started", zap.Duration("debounce", w.debounce))
	return nil
}

// Stop stops watching and waits for the event loop to exit
func (w *Watcher) Stop() error {
	err := w.fsw.Close()
	if w.started {
		<-w.done
	}
	return err
}

// Reload reads, parses and installs the file now. Unchanged content is skipped.
func (w *Watcher) Reload() error {
	data, err := os.ReadFile(w.path)
	if err != nil {
		w.record(false)
		return fmt.Errorf("read taxonomy file: %w", err)
	}

	sum := hashOf(data)
	w.mu.Lock()
	unchanged := bytes.Equal(sum, w.lastHash)
	w.mu.Unlock()
	if unchanged {
		return nil
	}

	entries, err := Parse(data)
	if err == nil {
		err = w.target.Swap(entries)
	}
	if err != nil {
		w.record(false)
		return err
	}

	w.mu.Lock()
	w.lastHash = sum
	w.mu.Unlock()
	w.record(true)
	w.logger.Info("taxonomy reloaded", zap.Int("entries", len(entries)))
	return nil
}

func (w *Watcher) processEvents(ctx context.Context) {
	defer close(w.done)
	ticker := time.NewTicker(w.debounce)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return

		case event, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != w.path {
				continue
			}
			if event.Has(fsnotify.Write) || event.Has(fsnotify.Create) || event.Has(fsnotify.Rename) {
				w.mu.Lock()
				w.pending = true
				w.mu.Unlock()
			}

		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			w.logger.Error("taxonomy watcher error", zap.Error(err))

		case <-ticker.C:
			w.flushPending()
		}
	}
}

func (w *Watcher) flushPending() {
	w.mu.Lock()
	if !w.pending {
		w.mu.Unlock()
		return
	}
	w.pending = false
	w.mu.Unlock()

	if err := w.Reload(); err != nil {
		// Previous table stays in effect
		w.logger.Warn("taxonomy reload failed", zap.Error(err))
	}
}

func (w *Watcher) record(success bool) {
	if w.recorder != nil {
		w.recorder.TaxonomyReload(success)
	}
}

func hashOf(data []byte) []byte {
	sum := sha256.Sum256(data)
	return sum[:]
}
