package daemon

import (
	"context"
	"fmt"
	"log"
	"os"
	"sync"
	"time"

	"github.com/johnfriz/AppForms-Template/internal/storage"
)

// Store is the part of a sync store the daemon drives.
type Store interface {
	Name() string
	Key() string
	EnsureInit(ctx context.Context) error
	Refresh(ctx context.Context) (bool, error)
	Reload(ctx context.Context) error
}

// Config holds configuration for the daemon.
type Config struct {
	// RefreshInterval is how often to call the list endpoint. Zero disables
	// periodic refresh.
	RefreshInterval time.Duration

	// DebounceInterval is how long a storage file must stay quiet before it
	// is reloaded. This batches rapid writes together.
	DebounceInterval time.Duration

	// DataDir is the file storage directory to watch. Empty disables
	// watching, as for the sqlite and memory backends.
	DataDir string

	// Logger for daemon activity
	Logger *log.Logger
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		RefreshInterval:  5 * time.Minute,
		DebounceInterval: 100 * time.Millisecond,
		Logger:           log.New(os.Stderr, "[daemon] ", log.LstdFlags),
	}
}

// Daemon keeps a store current: it refreshes from the list endpoint on a
// ticker and reloads local data when the storage file is changed by another
// process.
type Daemon struct {
	store  Store
	config *Config

	watcherMu     sync.Mutex
	watcher       *FileWatcher
	changeQueue   map[string]time.Time // path -> last event
	changeQueueMu sync.Mutex

	statsMu     sync.Mutex
	refreshes   int
	reloads     int
	lastRefresh time.Time
	lastErr     error

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// Stats summarizes daemon activity.
type Stats struct {
	Refreshes   int
	Reloads     int
	LastRefresh time.Time
	LastError   error
}

// New creates a Daemon with default configuration.
func New(store Store) (*Daemon, error) {
	return NewWithConfig(store, DefaultConfig())
}

// NewWithConfig creates a daemon with custom configuration.
func NewWithConfig(store Store, config *Config) (*Daemon, error) {
	if store == nil {
		return nil, fmt.Errorf("store cannot be nil")
	}
	if config == nil {
		config = DefaultConfig()
	}
	if config.Logger == nil {
		config.Logger = DefaultConfig().Logger
	}
	if config.DebounceInterval <= 0 {
		config.DebounceInterval = DefaultConfig().DebounceInterval
	}

	ctx, cancel := context.WithCancel(context.Background())

	return &Daemon{
		store:       store,
		config:      config,
		changeQueue: make(map[string]time.Time),
		ctx:         ctx,
		cancel:      cancel,
	}, nil
}

// Start initializes the store, starts the background loops and blocks until
// ctx is cancelled or Stop is called.
func (d *Daemon) Start(ctx context.Context) error {
	d.config.Logger.Printf("Starting daemon for %s", d.store.Name())

	if err := d.store.EnsureInit(ctx); err != nil {
		return fmt.Errorf("initial sync failed: %w", err)
	}

	if d.config.DataDir != "" {
		watcher, err := NewFileWatcher()
		if err != nil {
			return err
		}
		if err := watcher.Start(d.config.DataDir, storage.FilenameForKey(d.store.Key())); err != nil {
			watcher.Stop()
			return err
		}
		d.watcherMu.Lock()
		d.watcher = watcher
		d.watcherMu.Unlock()
		d.config.Logger.Printf("Watching: %s", d.config.DataDir)

		d.wg.Add(2)
		go d.watchFileEvents(watcher)
		go d.processChangeQueue()
	}

	if d.config.RefreshInterval > 0 {
		d.wg.Add(1)
		go d.refreshLoop()
	}

	select {
	case <-ctx.Done():
		d.config.Logger.Println("Shutdown signal received")
		return d.Stop()
	case <-d.ctx.Done():
		return nil
	}
}

// Stop gracefully shuts down the daemon.
func (d *Daemon) Stop() error {
	d.config.Logger.Println("Stopping daemon")

	d.cancel()

	d.watcherMu.Lock()
	watcher := d.watcher
	d.watcherMu.Unlock()
	if watcher != nil {
		if err := watcher.Stop(); err != nil {
			d.config.Logger.Printf("Error closing watcher: %v", err)
		}
	}

	d.wg.Wait()

	d.config.Logger.Println("Daemon stopped")
	return nil
}

// SyncNow refreshes the store from the list endpoint immediately.
func (d *Daemon) SyncNow(ctx context.Context) error {
	updated, err := d.store.Refresh(ctx)

	d.statsMu.Lock()
	d.refreshes++
	d.lastRefresh = time.Now()
	d.lastErr = err
	d.statsMu.Unlock()

	if err != nil {
		return fmt.Errorf("failed to refresh %s: %w", d.store.Name(), err)
	}
	if updated {
		d.config.Logger.Printf("Refreshed %s with remote changes", d.store.Name())
	}
	return nil
}

// Stats returns a snapshot of daemon activity.
func (d *Daemon) Stats() Stats {
	d.statsMu.Lock()
	defer d.statsMu.Unlock()
	return Stats{
		Refreshes:   d.refreshes,
		Reloads:     d.reloads,
		LastRefresh: d.lastRefresh,
		LastError:   d.lastErr,
	}
}

func (d *Daemon) watchFileEvents(watcher *FileWatcher) {
	defer d.wg.Done()

	for {
		select {
		case <-d.ctx.Done():
			return

		case event, ok := <-watcher.Events():
			if !ok {
				return
			}
			if event.Op == OpDelete {
				continue
			}

			d.config.Logger.Printf("File event: %s %s", event.Op, event.Path)
			d.queueChange(event.Path)

		case err, ok := <-watcher.Errors():
			if !ok {
				return
			}
			d.config.Logger.Printf("Watcher error: %v", err)
		}
	}
}

func (d *Daemon) queueChange(path string) {
	d.changeQueueMu.Lock()
	defer d.changeQueueMu.Unlock()

	d.changeQueue[path] = time.Now()
}

func (d *Daemon) processChangeQueue() {
	defer d.wg.Done()

	ticker := time.NewTicker(d.config.DebounceInterval)
	defer ticker.Stop()

	for {
		select {
		case <-d.ctx.Done():
			return

		case <-ticker.C:
			d.processPendingChanges()
		}
	}
}

// processPendingChanges reloads the store once for every batch of changes
// that has been quiet for the debounce interval.
func (d *Daemon) processPendingChanges() {
	d.changeQueueMu.Lock()
	now := time.Now()
	ready := false
	for path, queuedAt := range d.changeQueue {
		if now.Sub(queuedAt) < d.config.DebounceInterval {
			continue
		}
		delete(d.changeQueue, path)
		ready = true
	}
	d.changeQueueMu.Unlock()

	if !ready {
		return
	}

	if err := d.store.Reload(d.ctx); err != nil {
		d.config.Logger.Printf("Error reloading %s: %v", d.store.Name(), err)
		return
	}

	d.statsMu.Lock()
	d.reloads++
	d.statsMu.Unlock()
}

func (d *Daemon) refreshLoop() {
	defer d.wg.Done()

	ticker := time.NewTicker(d.config.RefreshInterval)
	defer ticker.Stop()

	for {
		select {
		case <-d.ctx.Done():
			return

		case <-ticker.C:
			if err := d.SyncNow(d.ctx); err != nil {
				d.config.Logger.Printf("Error refreshing: %v", err)
			}
		}
	}
}
