package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/johnfriz/AppForms-Template/internal/appconfig"
)

var (
	cfgFile string
	cfg     *appconfig.Config
)

var rootCmd = &cobra.Command{
	Use:   "formsync",
	Short: "Offline-first record sync against cloud list/detail endpoints",
	Long: `formsync keeps a local copy of a remote record collection (forms, themes,
submissions) and reconciles it with the cloud "act" endpoints.

Local data lives in a SQLite key/value store, or in one file per key when
SQLite is unavailable. List endpoints provide summaries; full records are
fetched on demand and cached.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		loaded, err := appconfig.Load(cfgFile)
		if err != nil {
			return err
		}
		if err := bindFlags(cmd, loaded); err != nil {
			return err
		}
		cfg = loaded
		return nil
	},
}

// flagBindings maps persistent flags to config keys.
var flagBindings = map[string]string{
	"store":     "store.name",
	"list-act":  "store.list_act",
	"read-act":  "store.read_act",
	"backend":   "storage.backend",
	"db":        "storage.sqlite_path",
	"data-dir":  "storage.file_dir",
	"base-url":  "remote.base_url",
	"log-file":  "log.file",
	"timeout":   "remote.timeout",
	"id-field":  "store.id_field",
	"ver-field": "store.version_field",
}

func bindFlags(cmd *cobra.Command, c *appconfig.Config) error {
	for name, key := range flagBindings {
		flag := cmd.Flags().Lookup(name)
		if flag == nil {
			continue
		}
		if err := c.Viper().BindPFlag(key, flag); err != nil {
			return fmt.Errorf("failed to bind flag --%s: %w", name, err)
		}
	}
	return nil
}

func init() {
	rootCmd.AddGroup(
		&cobra.Group{ID: "records", Title: "Records:"},
		&cobra.Group{ID: "sync", Title: "Sync:"},
		&cobra.Group{ID: "advanced", Title: "Advanced:"},
	)

	flags := rootCmd.PersistentFlags()
	flags.StringVarP(&cfgFile, "config", "c", "", "Config file (toml, yaml or json)")
	flags.String("store", "", "Store name")
	flags.String("list-act", "", "List endpoint act")
	flags.String("read-act", "", "Detail endpoint act")
	flags.String("backend", "", "Storage backend: auto, sqlite, file or memory")
	flags.String("db", "", "SQLite database path")
	flags.String("data-dir", "", "File storage directory")
	flags.String("base-url", "", "Cloud base URL")
	flags.String("log-file", "", "Log file (default: stderr)")
	flags.Duration("timeout", 0, "Remote request timeout")
	flags.String("id-field", "", "Record id field")
	flags.String("ver-field", "", "Record version field")
	flags.BoolP("verbose", "v", false, "Log adapter activity to stderr")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
