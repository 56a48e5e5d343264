package loadtest

import (
	"context"
	"io"
	"log"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/johnfriz/AppForms-Template/internal/storage"
)

var quiet = log.New(io.Discard, "", 0)

func TestSeed(t *testing.T) {
	fx, err := Seed(context.Background(), storage.NewMemory(), SeedConfig{Records: 100, LoadedPct: 0.3, Logger: quiet})
	require.NoError(t, err)
	defer fx.Close()

	assert.Len(t, fx.IDs, 100)
	assert.Equal(t, 100, fx.Store.Len())
	assert.Equal(t, "loadtest0.3", fx.Store.Key())
	assert.InDelta(t, 30, fx.FullyLoaded, 15, "expected ~30 fully loaded records")
}

func TestSeed_RejectsEmpty(t *testing.T) {
	_, err := Seed(context.Background(), storage.NewMemory(), SeedConfig{Logger: quiet})
	assert.Error(t, err)
}

func TestConcurrentReads(t *testing.T) {
	fx, err := Seed(context.Background(), storage.NewMemory(), SeedConfig{Records: 50, Logger: quiet})
	require.NoError(t, err)
	defer fx.Close()

	stats, err := fx.RunConcurrentReads(context.Background(), 10, 5)
	require.NoError(t, err)

	assert.Zero(t, stats.Errors)
	assert.Equal(t, 50, stats.Operations)
	assert.LessOrEqual(t, stats.Min, stats.P50)
	assert.LessOrEqual(t, stats.P50, stats.P99)
	assert.LessOrEqual(t, stats.P99, stats.Max)
}

func TestMixed_SQLite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping load test in short mode")
	}

	db, err := storage.OpenSQLite(filepath.Join(t.TempDir(), "load.db"))
	require.NoError(t, err)
	defer db.Close()

	fx, err := Seed(context.Background(), db, SeedConfig{Records: 200, LoadedPct: 0.5, Logger: quiet})
	require.NoError(t, err)
	defer fx.Close()

	stats, err := fx.RunMixed(context.Background(), 8, 300*time.Millisecond, 4)
	require.NoError(t, err)

	require.NotZero(t, stats.Operations)
	assert.NotZero(t, stats.Writes)
	t.Logf("mixed: %d ops, %d writes, p95 %v", stats.Operations, stats.Writes, stats.P95)
}

func TestComputeLatencyStats(t *testing.T) {
	var durations []time.Duration
	for i := 1; i <= 100; i++ {
		durations = append(durations, time.Duration(i)*time.Millisecond)
	}
	stats := computeLatencyStats(durations)

	assert.Equal(t, time.Millisecond, stats.Min)
	assert.Equal(t, 100*time.Millisecond, stats.Max)
	assert.Equal(t, 51*time.Millisecond, stats.P50)
	assert.Equal(t, 50500*time.Microsecond, stats.Mean)
	assert.Equal(t, 100, stats.Operations)

	assert.Zero(t, computeLatencyStats(nil).Operations)
}
