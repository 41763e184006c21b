package preview

import (
	"context"
	"os"
	"sync"
	"time"
)

// Watcher polls one file and reports when its modification time or size
// changes.
type Watcher struct {
	path     string
	interval time.Duration
	onChange func(path string)
	mu       sync.Mutex
	running  bool
	stopCh   chan struct{}
	modTime  time.Time
	size     int64
}

// NewWatcher creates a watcher for path. A zero interval polls every 500ms.
func NewWatcher(path string, interval time.Duration) *Watcher {
	if interval <= 0 {
		interval = 500 * time.Millisecond
	}
	return &Watcher{path: path, interval: interval}
}

// OnChange sets the callback for file changes.
func (w *Watcher) OnChange(fn func(path string)) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.onChange = fn
}

// Start records the current state of the file and polls until ctx is done
// or Stop is called. A file that does not exist yet reports once it appears.
// Both ways of stopping are a normal shutdown and return nil.
func (w *Watcher) Start(ctx context.Context) error {
	w.mu.Lock()
	if w.running {
		w.mu.Unlock()
		return nil
	}
	w.running = true
	w.stopCh = make(chan struct{})
	stopCh := w.stopCh
	w.mu.Unlock()

	w.scanInitial()

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			w.Stop()
			return nil
		case <-stopCh:
			return nil
		case <-ticker.C:
			w.checkForChanges()
		}
	}
}

// Stop stops the watcher.
func (w *Watcher) Stop() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.running {
		close(w.stopCh)
		w.running = false
	}
}

// IsRunning returns whether the watcher is running.
func (w *Watcher) IsRunning() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.running
}

func (w *Watcher) scanInitial() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if info, err := os.Stat(w.path); err == nil {
		w.modTime, w.size = info.ModTime(), info.Size()
	}
}

func (w *Watcher) checkForChanges() {
	info, err := os.Stat(w.path)
	if err != nil {
		// Missing or being replaced; try again next tick.
		return
	}

	w.mu.Lock()
	changed := !info.ModTime().Equal(w.modTime) || info.Size() != w.size
	if changed {
		w.modTime, w.size = info.ModTime(), info.Size()
	}
	callback := w.onChange
	w.mu.Unlock()

	if changed && callback != nil {
		callback(w.path)
	}
}
