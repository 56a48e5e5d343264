// Package loadtest drives a sync Store with concurrent clients to measure
// local read and write latency on a storage backend.
//
// Stores are seeded directly through the storage bridge so a run needs no
// cloud endpoint: reads resolve from held data and writes persist through
// the same path the CLI uses.
package loadtest

import (
	"context"
	"fmt"
	"io"
	"log"
	"math/rand"
	"sort"
	"sync"
	"time"

	"github.com/johnfriz/AppForms-Template/internal/record"
	"github.com/johnfriz/AppForms-Template/internal/storage"
	storesync "github.com/johnfriz/AppForms-Template/internal/sync"
)

// Fixture is a seeded store ready for load.
type Fixture struct {
	Store       *storesync.Store
	IDs         []string
	FullyLoaded int
}

// LatencyStats captures performance metrics from a run.
type LatencyStats struct {
	Min        time.Duration
	Max        time.Duration
	Mean       time.Duration
	P50        time.Duration // Median
	P95        time.Duration
	P99        time.Duration
	Operations int
	Writes     int
	Errors     int
}

// SeedConfig describes the data a Fixture starts with.
type SeedConfig struct {
	Name      string  // Store name (default: "loadtest")
	Records   int     // Number of records
	LoadedPct float64 // Share of records marked fully loaded, 0..1
	Logger    *log.Logger
}

// Seed writes cfg.Records records into bridge and returns an initialized
// Store over them. The caller owns bridge.
func Seed(ctx context.Context, bridge storage.Bridge, cfg SeedConfig) (*Fixture, error) {
	if cfg.Name == "" {
		cfg.Name = "loadtest"
	}
	if cfg.Records <= 0 {
		return nil, fmt.Errorf("record count must be positive, got %d", cfg.Records)
	}

	data := make(record.Mapping, cfg.Records)
	fx := &Fixture{IDs: make([]string, 0, cfg.Records)}

	// Deterministic for reproducible runs
	rng := rand.New(rand.NewSource(42))
	for _, rec := range generateRecords(cfg.Records) {
		if rng.Float64() < cfg.LoadedPct {
			rec.MarkFullDataLoaded(true)
			fx.FullyLoaded++
		}
		id := rec.ID("id")
		data[id] = rec
		fx.IDs = append(fx.IDs, id)
	}

	payload, err := data.Encode()
	if err != nil {
		return nil, fmt.Errorf("failed to encode seed data: %w", err)
	}
	if err := bridge.Set(ctx, cfg.Name+storesync.LocalStoreVersion, payload); err != nil {
		return nil, fmt.Errorf("failed to write seed data: %w", err)
	}

	store, err := storesync.New(bridge, nil, storesync.Options{Name: cfg.Name, Logger: cfg.Logger})
	if err != nil {
		return nil, err
	}
	if err := store.Init(ctx); err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("failed to load seeded store: %w", err)
	}
	fx.Store = store
	return fx, nil
}

// Close stops the store.
func (fx *Fixture) Close() error {
	if fx.Store != nil {
		return fx.Store.Close()
	}
	return nil
}

// RunConcurrentReads has numClients clients each read readsPerClient random
// records through Route.
func (fx *Fixture) RunConcurrentReads(ctx context.Context, numClients, readsPerClient int) (*LatencyStats, error) {
	var wg sync.WaitGroup
	resultsChan := make(chan []time.Duration, numClients)
	errorsChan := make(chan error, numClients)

	for i := 0; i < numClients; i++ {
		wg.Add(1)
		go func(clientID int) {
			defer wg.Done()

			rng := rand.New(rand.NewSource(int64(clientID)))
			durations := make([]time.Duration, 0, readsPerClient)
			for j := 0; j < readsPerClient; j++ {
				id := fx.IDs[rng.Intn(len(fx.IDs))]

				start := time.Now()
				err := fx.read(ctx, id)
				durations = append(durations, time.Since(start))

				if err != nil {
					errorsChan <- fmt.Errorf("client %d read %d failed: %w", clientID, j, err)
					break
				}
			}
			resultsChan <- durations
		}(i)
	}

	wg.Wait()
	close(resultsChan)
	close(errorsChan)

	var all []time.Duration
	for durations := range resultsChan {
		all = append(all, durations...)
	}
	if len(all) == 0 {
		return nil, fmt.Errorf("no reads completed")
	}

	stats := computeLatencyStats(all)
	for range errorsChan {
		stats.Errors++
	}
	return stats, nil
}

// RunMixed runs numClients clients for duration. One operation in
// writeEvery is an update of a random record; the rest are reads. Every
// read is checked to return the record asked for, and the record count must
// be unchanged afterwards.
func (fx *Fixture) RunMixed(ctx context.Context, numClients int, duration time.Duration, writeEvery int) (*LatencyStats, error) {
	if writeEvery <= 0 {
		writeEvery = 5
	}
	ctx, cancel := context.WithTimeout(ctx, duration)
	defer cancel()

	var (
		wg     sync.WaitGroup
		mu     sync.Mutex
		all    []time.Duration
		writes int
		errs   []error
	)

	for i := 0; i < numClients; i++ {
		wg.Add(1)
		go func(clientID int) {
			defer wg.Done()

			rng := rand.New(rand.NewSource(int64(clientID)))
			var durations []time.Duration
			n := 0
			for ctx.Err() == nil {
				id := fx.IDs[rng.Intn(len(fx.IDs))]

				start := time.Now()
				var err error
				write := n%writeEvery == 0
				if write {
					err = fx.touch(ctx, id, clientID)
				} else {
					err = fx.read(ctx, id)
				}
				durations = append(durations, time.Since(start))
				n++

				if err != nil && ctx.Err() == nil {
					mu.Lock()
					errs = append(errs, fmt.Errorf("client %d: %w", clientID, err))
					mu.Unlock()
					break
				}
				if write {
					mu.Lock()
					writes++
					mu.Unlock()
				}
			}

			mu.Lock()
			all = append(all, durations...)
			mu.Unlock()
		}(i)
	}

	wg.Wait()

	if len(errs) > 0 {
		return nil, errs[0]
	}
	if got := fx.Store.Len(); got != len(fx.IDs) {
		return nil, fmt.Errorf("record count changed under load: have %d, want %d", got, len(fx.IDs))
	}

	stats := computeLatencyStats(all)
	stats.Writes = writes
	return stats, nil
}

func (fx *Fixture) read(ctx context.Context, id string) error {
	rec := record.Record{}
	rec.SetID("id", id)
	res, err := storesync.Route(ctx, fx.Store, storesync.MethodRead, rec)
	if err != nil {
		return err
	}
	if got := res.Record.ID("id"); got != id {
		return fmt.Errorf("asked for %s, got %s", id, got)
	}
	return nil
}

func (fx *Fixture) touch(ctx context.Context, id string, clientID int) error {
	rec, err := fx.Store.Find(ctx, id)
	if err != nil {
		return err
	}
	rec["touched_by"] = clientID
	_, err = storesync.Route(ctx, fx.Store, storesync.MethodUpdate, rec)
	return err
}

// generateRecords creates form-like records with staggered versions.
func generateRecords(count int) []record.Record {
	kinds := []string{"inspection", "survey", "audit", "incident"}
	recs := make([]record.Record, count)
	for i := 0; i < count; i++ {
		kind := kinds[i%len(kinds)]
		recs[i] = record.Record{
			"id":          fmt.Sprintf("rec-%05d", i),
			"name":        fmt.Sprintf("Form %d: %s", i, kind),
			"description": fmt.Sprintf("Load test form (kind: %s)", kind),
			"version":     float64(i%7 + 1),
			"fields":      []any{map[string]any{"name": "notes", "type": "text"}},
		}
	}
	return recs
}

func computeLatencyStats(durations []time.Duration) *LatencyStats {
	if len(durations) == 0 {
		return &LatencyStats{}
	}

	sorted := make([]time.Duration, len(durations))
	copy(sorted, durations)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i] < sorted[j]
	})

	var sum time.Duration
	for _, d := range durations {
		sum += d
	}

	return &LatencyStats{
		Min:        sorted[0],
		Max:        sorted[len(sorted)-1],
		Mean:       sum / time.Duration(len(durations)),
		P50:        sorted[len(sorted)*50/100],
		P95:        sorted[len(sorted)*95/100],
		P99:        sorted[len(sorted)*99/100],
		Operations: len(durations),
	}
}

// Print writes the statistics to w.
func (s *LatencyStats) Print(w io.Writer) {
	fmt.Fprintf(w, "Latency Statistics:\n")
	fmt.Fprintf(w, "  Operations:    %d\n", s.Operations)
	fmt.Fprintf(w, "  Writes:        %d\n", s.Writes)
	fmt.Fprintf(w, "  Errors:        %d\n", s.Errors)
	fmt.Fprintf(w, "  Min:           %v\n", s.Min)
	fmt.Fprintf(w, "  P50 (Median):  %v\n", s.P50)
	fmt.Fprintf(w, "  Mean:          %v\n", s.Mean)
	fmt.Fprintf(w, "  P95:           %v\n", s.P95)
	fmt.Fprintf(w, "  P99:           %v\n", s.P99)
	fmt.Fprintf(w, "  Max:           %v\n", s.Max)
}
