package main

import (
	"fmt"
	"os"
	"sort"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/johnfriz/AppForms-Template/internal/ui"
)

var configCmd = &cobra.Command{
	Use:     "config",
	GroupID: "advanced",
	Short:   "Inspect effective configuration",
}

var configDumpCmd = &cobra.Command{
	Use:   "dump",
	Short: "Print the effective configuration as YAML",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := cfg.LoadOverrides(overridesPath()); err != nil {
			fmt.Fprintf(os.Stderr, "%s %v\n", ui.RenderWarn("⚠"), err)
		}

		enc := yaml.NewEncoder(os.Stdout)
		enc.SetIndent(2)
		if err := enc.Encode(cfg.Viper().AllSettings()); err != nil {
			return fmt.Errorf("failed to encode config: %w", err)
		}
		return enc.Close()
	},
}

var configOverridesCmd = &cobra.Command{
	Use:   "overrides",
	Short: "List config values pushed by the cloud",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := cfg.LoadOverrides(overridesPath()); err != nil {
			return err
		}
		overrides := cfg.Overrides()
		if len(overrides) == 0 {
			fmt.Printf("%s No remote overrides\n", ui.RenderMuted("○"))
			return nil
		}

		keys := make([]string, 0, len(overrides))
		for k := range overrides {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			fmt.Printf("%s = %v\n", ui.RenderBold(k), overrides[k])
		}
		return nil
	},
}

func init() {
	configCmd.AddCommand(configDumpCmd)
	configCmd.AddCommand(configOverridesCmd)
	rootCmd.AddCommand(configCmd)
}
