package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	storesync "github.com/johnfriz/AppForms-Template/internal/sync"
	"github.com/johnfriz/AppForms-Template/internal/transfer"
	"github.com/johnfriz/AppForms-Template/internal/ui"
)

var (
	exportFormat string
	exportOutput string
	importDryRun bool
)

var exportCmd = &cobra.Command{
	Use:     "export",
	GroupID: "advanced",
	Short:   "Export local records as JSONL or YAML",
	RunE: func(cmd *cobra.Command, args []string) error {
		format, err := transfer.ParseFormat(exportFormat)
		if err != nil {
			return err
		}

		a, err := openApp(cmd, nil)
		if err != nil {
			return err
		}
		defer a.Close()

		res, err := storesync.Route(cmd.Context(), a.store, storesync.MethodRead, nil)
		if err != nil {
			return err
		}

		var w io.Writer = os.Stdout
		if exportOutput != "" {
			f, err := os.Create(exportOutput)
			if err != nil {
				return fmt.Errorf("failed to create output file: %w", err)
			}
			defer f.Close()
			w = f
		}

		if err := transfer.Write(w, format, res.Records); err != nil {
			return fmt.Errorf("failed to export records: %w", err)
		}
		if exportOutput != "" {
			fmt.Fprintf(os.Stderr, "%s Exported %d records to %s\n", ui.RenderPass("✓"), len(res.Records), exportOutput)
		}
		return nil
	},
}

var importCmd = &cobra.Command{
	Use:     "import <file>",
	GroupID: "advanced",
	Short:   "Import records from a JSONL file",
	Long: `Import records from a JSONL file (one JSON object per line, - for stdin).

Each record is created as new and assigned a fresh id.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var r io.Reader = cmd.InOrStdin()
		if args[0] != "-" {
			f, err := os.Open(args[0])
			if err != nil {
				return fmt.Errorf("failed to open %s: %w", args[0], err)
			}
			defer f.Close()
			r = f
		}

		recs, err := transfer.ReadJSONL(r)
		if err != nil {
			return err
		}

		a, err := openApp(cmd, nil)
		if err != nil {
			return err
		}
		defer a.Close()

		if err := a.store.EnsureInit(cmd.Context()); err != nil {
			return err
		}

		result, err := transfer.Import(cmd.Context(), a.store, recs, transfer.ImportOptions{DryRun: importDryRun})
		if err != nil {
			return err
		}

		if importDryRun {
			fmt.Printf("%s Dry run: %d records would be imported\n", ui.RenderAccent("○"), result.Read)
			return nil
		}
		for _, msg := range result.Errors {
			fmt.Printf("%s %s\n", ui.RenderWarn("⚠"), msg)
		}
		fmt.Printf("%s Imported %d of %d records\n", ui.RenderPass("✓"), result.Imported, result.Read)
		if len(result.Errors) > 0 {
			return fmt.Errorf("%d records failed to import", len(result.Errors))
		}
		return nil
	},
}

func init() {
	exportCmd.Flags().StringVarP(&exportFormat, "format", "f", "jsonl", "Output format: jsonl or yaml")
	exportCmd.Flags().StringVarP(&exportOutput, "output", "o", "", "Output file (default: stdout)")
	importCmd.Flags().BoolVar(&importDryRun, "dry-run", false, "Preview without writing")

	rootCmd.AddCommand(exportCmd)
	rootCmd.AddCommand(importCmd)
}
