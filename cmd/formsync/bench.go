package main

import (
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/goccy/go-json"
	"github.com/spf13/cobra"

	"github.com/johnfriz/AppForms-Template/internal/loadtest"
	"github.com/johnfriz/AppForms-Template/internal/storage"
	"github.com/johnfriz/AppForms-Template/internal/ui"
)

var benchCmd = &cobra.Command{
	Use:     "bench",
	GroupID: "advanced",
	Short:   "Measure store latency on each storage backend",
	Long: `Seed a throwaway store and drive it with concurrent clients.

Each selected backend gets a read-only run (--reads per client) followed by a
mixed run of reads and updates for --duration. Data lives in a temporary
directory and is removed afterwards.

Examples:
  formsync bench                               # sqlite, file and memory
  formsync bench --backends sqlite --clients 50
  formsync bench --json`,
	RunE: runBench,
}

type benchResult struct {
	Backend string                 `json:"backend"`
	Reads   *loadtest.LatencyStats `json:"reads"`
	Mixed   *loadtest.LatencyStats `json:"mixed"`
}

func init() {
	benchCmd.Flags().Int("clients", 20, "Number of concurrent clients")
	benchCmd.Flags().Int("records", 500, "Number of records to seed")
	benchCmd.Flags().Int("reads", 50, "Reads per client in the read-only run")
	benchCmd.Flags().Float64("loaded", 0.5, "Share of records marked fully loaded (0.0-1.0)")
	benchCmd.Flags().Duration("duration", 2*time.Second, "Length of the mixed run")
	benchCmd.Flags().StringSlice("backends", []string{storage.BackendSQLite, storage.BackendFile, storage.BackendMemory}, "Backends to measure")
	benchCmd.Flags().Bool("json", false, "Output results as JSON")
	rootCmd.AddCommand(benchCmd)
}

func runBench(cmd *cobra.Command, args []string) error {
	clients, _ := cmd.Flags().GetInt("clients")
	records, _ := cmd.Flags().GetInt("records")
	reads, _ := cmd.Flags().GetInt("reads")
	loaded, _ := cmd.Flags().GetFloat64("loaded")
	duration, _ := cmd.Flags().GetDuration("duration")
	backends, _ := cmd.Flags().GetStringSlice("backends")
	jsonOutput, _ := cmd.Flags().GetBool("json")

	if clients <= 0 || records <= 0 || reads <= 0 {
		return errors.New("--clients, --records and --reads must be positive")
	}
	if loaded < 0 || loaded > 1 {
		return errors.New("--loaded must be between 0.0 and 1.0")
	}

	tmp, err := os.MkdirTemp("", "formsync-bench-")
	if err != nil {
		return fmt.Errorf("failed to create temp dir: %w", err)
	}
	defer os.RemoveAll(tmp)

	var results []benchResult
	for _, backend := range backends {
		if !jsonOutput {
			fmt.Printf("%s Benchmarking %s (%d records, %d clients)...\n", ui.RenderAccent("⏱"), backend, records, clients)
		}
		res, err := benchBackend(cmd, backend, filepath.Join(tmp, backend), loadtest.SeedConfig{
			Records:   records,
			LoadedPct: loaded,
			Logger:    log.New(io.Discard, "", 0),
		}, clients, reads, duration)
		if err != nil {
			return fmt.Errorf("%s: %w", backend, err)
		}
		results = append(results, *res)
	}

	if jsonOutput {
		out, err := json.MarshalIndent(results, "", "  ")
		if err != nil {
			return err
		}
		fmt.Println(string(out))
		return nil
	}

	for _, res := range results {
		fmt.Printf("\n%s\n", ui.RenderBold(res.Backend))
		fmt.Println("Read-only")
		res.Reads.Print(os.Stdout)
		fmt.Println("Mixed")
		res.Mixed.Print(os.Stdout)
	}
	return nil
}

func benchBackend(cmd *cobra.Command, backend, dir string, seed loadtest.SeedConfig, clients, reads int, duration time.Duration) (*benchResult, error) {
	bridge, err := storage.Open(storage.Config{
		Backend:    backend,
		SQLitePath: filepath.Join(dir, "bench.db"),
		FileDir:    filepath.Join(dir, "data"),
		Logger:     seed.Logger,
	})
	if err != nil {
		return nil, err
	}
	defer bridge.Close()

	fx, err := loadtest.Seed(cmd.Context(), bridge, seed)
	if err != nil {
		return nil, err
	}
	defer fx.Close()

	readStats, err := fx.RunConcurrentReads(cmd.Context(), clients, reads)
	if err != nil {
		return nil, err
	}
	mixedStats, err := fx.RunMixed(cmd.Context(), clients, duration, 5)
	if err != nil {
		return nil, err
	}
	return &benchResult{Backend: bridge.Name(), Reads: readStats, Mixed: mixedStats}, nil
}
