package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/johnfriz/AppForms-Template/internal/record"
	storesync "github.com/johnfriz/AppForms-Template/internal/sync"
	"github.com/johnfriz/AppForms-Template/internal/ui"
)

var syncCmd = &cobra.Command{
	Use:     "sync",
	GroupID: "sync",
	Short:   "Reconcile local data with the list endpoint",
	Long: `Load local data and reconcile it with the configured list endpoint.

On first run (no local data) the list is fetched and persisted; failure is an
error. With local data present the list refresh still runs, but failures are
reported as warnings and local data is kept as is.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp(cmd, nil)
		if err != nil {
			return err
		}
		defer a.Close()

		var warnings []error
		var synced *storesync.Event
		a.store.Subscribe(func(ev storesync.Event) {
			switch ev.Type {
			case storesync.EventError:
				warnings = append(warnings, ev.Err)
			case storesync.EventSynced:
				e := ev
				synced = &e
			}
		})

		fmt.Printf("%s Syncing %s...\n", ui.RenderAccent("🔄"), a.store.Name())
		start := time.Now()

		if err := a.store.EnsureInit(cmd.Context()); err != nil {
			return fmt.Errorf("sync failed: %w", err)
		}
		a.store.Wait()

		for _, w := range warnings {
			fmt.Printf("%s %v\n", ui.RenderWarn("⚠"), w)
		}

		elapsed := time.Since(start).Round(time.Millisecond)
		switch {
		case synced == nil && cfg.Store().ListAct == "":
			fmt.Printf("%s Loaded %d records in %v (no list act configured)\n", ui.RenderPass("✓"), a.store.Len(), elapsed)
		case synced == nil:
			fmt.Printf("%s Kept %d local records\n", ui.RenderWarn("⚠"), a.store.Len())
		default:
			fmt.Printf("%s Sync complete in %v\n", ui.RenderPass("✓"), elapsed)
			fmt.Printf("   Records: %d\n", synced.Count)
			fmt.Printf("   Updated: %v\n", synced.Updated)
		}
		fmt.Printf("   Storage: %s\n", a.bridge.Name())
		return nil
	},
}

var statusCmd = &cobra.Command{
	Use:     "status",
	GroupID: "sync",
	Short:   "Show local store status without contacting the cloud",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp(cmd, nil)
		if err != nil {
			return err
		}
		defer a.Close()

		raw, err := a.bridge.Get(cmd.Context(), a.store.Key())
		if err != nil {
			return fmt.Errorf("failed to read local data: %w", err)
		}

		fmt.Printf("\n%s %s\n\n", ui.RenderAccent("📊"), ui.RenderBold("Store Status"))
		fmt.Printf("Store: %s\n", a.store.Name())
		fmt.Printf("Key: %s\n", a.store.Key())
		fmt.Printf("Storage: %s\n", a.bridge.Name())

		if raw == nil {
			fmt.Printf("\n%s No local data\n", ui.RenderWarn("⚠"))
			fmt.Printf("   Run 'formsync sync' to fetch records\n\n")
			return nil
		}

		data, err := record.Decode(raw)
		if err != nil {
			fmt.Printf("\n%s Local data is unreadable and will be replaced on next sync: %v\n\n", ui.RenderFail("✗"), err)
			return nil
		}

		loaded := 0
		for _, rec := range data {
			if rec.FullDataLoaded() {
				loaded++
			}
		}
		fmt.Printf("Size: %d bytes\n", len(raw))
		fmt.Printf("Records: %d\n", len(data))
		fmt.Printf("Fully loaded: %d\n", loaded)
		fmt.Printf("Summary only: %d\n", len(data)-loaded)
		fmt.Printf("Remote overrides: %d\n", len(cfg.Overrides()))
		fmt.Println()
		return nil
	},
}

func init() {
	rootCmd.AddCommand(syncCmd)
	rootCmd.AddCommand(statusCmd)
}
