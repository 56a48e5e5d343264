package daemon

import (
	"context"
	"errors"
	"io"
	"log"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/johnfriz/AppForms-Template/internal/storage"
)

// fakeStore counts calls made by the daemon.
type fakeStore struct {
	mu         sync.Mutex
	inits      int
	refreshes  int
	reloads    int
	initErr    error
	refreshErr error
}

func (s *fakeStore) Name() string { return "forms" }
func (s *fakeStore) Key() string  { return "forms0.3" }

func (s *fakeStore) EnsureInit(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.inits++
	return s.initErr
}

func (s *fakeStore) Refresh(ctx context.Context) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.refreshes++
	return s.refreshErr == nil, s.refreshErr
}

func (s *fakeStore) Reload(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reloads++
	return nil
}

func (s *fakeStore) counts() (inits, refreshes, reloads int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.inits, s.refreshes, s.reloads
}

func testConfig(dataDir string) *Config {
	return &Config{
		RefreshInterval:  20 * time.Millisecond,
		DebounceInterval: 20 * time.Millisecond,
		DataDir:          dataDir,
		Logger:           log.New(io.Discard, "", 0),
	}
}

// waitFor polls cond until it holds or the timeout elapses.
func waitFor(t *testing.T, timeout time.Duration, cond func() bool) bool {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return true
		}
		time.Sleep(10 * time.Millisecond)
	}
	return cond()
}

func TestNew(t *testing.T) {
	if _, err := New(nil); err == nil {
		t.Error("New(nil) should fail")
	}

	d, err := NewWithConfig(&fakeStore{}, nil)
	if err != nil {
		t.Fatalf("NewWithConfig() failed: %v", err)
	}
	if d.config.DebounceInterval != 100*time.Millisecond {
		t.Errorf("DebounceInterval = %v, want default", d.config.DebounceInterval)
	}
}

func TestDaemon_SyncNow(t *testing.T) {
	store := &fakeStore{}
	d, err := NewWithConfig(store, testConfig(""))
	if err != nil {
		t.Fatalf("NewWithConfig() failed: %v", err)
	}

	if err := d.SyncNow(context.Background()); err != nil {
		t.Fatalf("SyncNow() failed: %v", err)
	}

	store.refreshErr = errors.New("offline")
	if err := d.SyncNow(context.Background()); err == nil {
		t.Error("SyncNow() should report refresh failures")
	}

	stats := d.Stats()
	if stats.Refreshes != 2 {
		t.Errorf("Refreshes = %d, want 2", stats.Refreshes)
	}
	if stats.LastError == nil {
		t.Error("LastError should be set")
	}
}

func TestDaemon_StartInitFailure(t *testing.T) {
	store := &fakeStore{initErr: errors.New("offline")}
	d, err := NewWithConfig(store, testConfig(""))
	if err != nil {
		t.Fatalf("NewWithConfig() failed: %v", err)
	}

	if err := d.Start(context.Background()); err == nil {
		t.Error("Start() should fail when the store cannot initialize")
	}
}

func TestDaemon_PeriodicRefresh(t *testing.T) {
	store := &fakeStore{}
	d, err := NewWithConfig(store, testConfig(""))
	if err != nil {
		t.Fatalf("NewWithConfig() failed: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- d.Start(ctx) }()

	ok := waitFor(t, 2*time.Second, func() bool {
		_, refreshes, _ := store.counts()
		return refreshes >= 2
	})
	cancel()

	if err := <-done; err != nil {
		t.Fatalf("Start() returned %v", err)
	}
	if !ok {
		t.Error("expected periodic refreshes")
	}
	if inits, _, _ := store.counts(); inits != 1 {
		t.Errorf("inits = %d, want 1", inits)
	}
}

func TestDaemon_ReloadsOnStorageWrite(t *testing.T) {
	dataDir := t.TempDir()
	files, err := storage.NewFileStore(dataDir)
	if err != nil {
		t.Fatalf("NewFileStore() failed: %v", err)
	}

	store := &fakeStore{}
	config := testConfig(dataDir)
	config.RefreshInterval = 0
	d, err := NewWithConfig(store, config)
	if err != nil {
		t.Fatalf("NewWithConfig() failed: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go d.Start(ctx)
	defer d.Stop()

	// Give watcher time to stabilize
	time.Sleep(100 * time.Millisecond)

	// Another key's file is ignored
	if err := files.Set(ctx, "other0.3", []byte(`{}`)); err != nil {
		t.Fatalf("Set() failed: %v", err)
	}
	time.Sleep(150 * time.Millisecond)
	if _, _, reloads := store.counts(); reloads != 0 {
		t.Errorf("reloads = %d after unrelated write, want 0", reloads)
	}

	// Rapid writes to the store's key are batched
	for i := 0; i < 3; i++ {
		if err := files.Set(ctx, store.Key(), []byte(`{"a":{"id":"a"}}`)); err != nil {
			t.Fatalf("Set() failed: %v", err)
		}
	}

	if !waitFor(t, 2*time.Second, func() bool {
		return d.Stats().Reloads >= 1
	}) {
		t.Fatal("expected a reload after the storage file changed")
	}
}

func TestDaemon_MissingDataDir(t *testing.T) {
	config := testConfig(filepath.Join(t.TempDir(), "absent"))
	d, err := NewWithConfig(&fakeStore{}, config)
	if err != nil {
		t.Fatalf("NewWithConfig() failed: %v", err)
	}
	if err := d.Start(context.Background()); err == nil {
		t.Error("Start() should fail for a missing data directory")
	}
}

func TestDaemon_StopWithoutStart(t *testing.T) {
	d, err := NewWithConfig(&fakeStore{}, testConfig(""))
	if err != nil {
		t.Fatalf("NewWithConfig() failed: %v", err)
	}
	if err := d.Stop(); err != nil {
		t.Errorf("Stop() failed: %v", err)
	}
}
