package main

import (
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/johnfriz/AppForms-Template/internal/daemon"
	"github.com/johnfriz/AppForms-Template/internal/dashboard"
	"github.com/johnfriz/AppForms-Template/internal/ui"
)

var serveCmd = &cobra.Command{
	Use:     "serve",
	GroupID: "sync",
	Short:   "Keep the store in sync and stream changes to a WebSocket dashboard",
	Long: `Run the sync daemon together with a WebSocket dashboard.

The daemon refreshes from the list endpoint on an interval and, with the file
storage backend, reloads local data when another process rewrites it.

WebSocket messages include:
- record_update: Record created, updated, refreshed or deleted
- sync_complete: List refresh finished
- store_error: Storage or cloud failure
- collection_reset: Collection replaced after a detail refresh
- stats: Record totals

Endpoints:
  ws://localhost:8080/ws
  http://localhost:8080/records
  http://localhost:8080/stats
  http://localhost:8080/health`,
	RunE: func(cmd *cobra.Command, args []string) error {
		port := cfg.Daemon().DashboardPort
		if cmd.Flags().Changed("port") {
			port, _ = cmd.Flags().GetInt("port")
		}

		logger := log.New(os.Stderr, "[dashboard] ", log.LstdFlags)
		server := dashboard.NewServer(&dashboard.Config{Port: port, Logger: logger})
		storeSettings := cfg.Store()
		handler := dashboard.NewHandler(server, storeSettings.IDField, storeSettings.VersionField, logger)

		a, err := openApp(cmd, handler)
		if err != nil {
			return err
		}
		defer a.Close()

		a.store.Subscribe(handler.OnEvent)
		server.SetSource(handler)

		ctx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer cancel()

		if err := a.store.EnsureInit(ctx); err != nil {
			return fmt.Errorf("failed to load store: %w", err)
		}
		recs, err := a.store.FindAll(ctx)
		if err != nil {
			return err
		}
		handler.Reset(recs)

		if err := server.Start(); err != nil {
			return fmt.Errorf("failed to start dashboard: %w", err)
		}
		defer server.Stop()

		daemonSettings := cfg.Daemon()
		d, err := daemon.NewWithConfig(a.store, &daemon.Config{
			RefreshInterval:  daemonSettings.RefreshInterval,
			DebounceInterval: daemonSettings.DebounceInterval,
			DataDir:          a.fileDir(),
			Logger:           a.logs.Logger("daemon"),
		})
		if err != nil {
			return err
		}
		if err := d.Start(ctx); err != nil {
			return err
		}

		fmt.Printf("%s Serving %s (%d records) on http://localhost:%d\n", ui.RenderPass("✓"), a.store.Name(), a.store.Len(), port)
		fmt.Printf("   WebSocket endpoint: ws://localhost:%d/ws\n", port)
		if dir := a.fileDir(); dir != "" {
			fmt.Printf("   Watching: %s\n", dir)
		}
		fmt.Println("\nPress Ctrl+C to stop...")

		<-ctx.Done()

		fmt.Println("\nShutting down...")
		if err := d.Stop(); err != nil {
			return fmt.Errorf("failed to stop daemon: %w", err)
		}
		stats := d.Stats()
		fmt.Printf("%s Stopped after %d refreshes and %d reloads\n", ui.RenderAccent("○"), stats.Refreshes, stats.Reloads)
		return nil
	},
}

func init() {
	serveCmd.Flags().Int("port", 8080, "Dashboard port")
	rootCmd.AddCommand(serveCmd)
}
