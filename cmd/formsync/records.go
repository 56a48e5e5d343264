package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/huh"
	"github.com/goccy/go-json"
	"github.com/spf13/cobra"

	"github.com/johnfriz/AppForms-Template/internal/record"
	storesync "github.com/johnfriz/AppForms-Template/internal/sync"
	"github.com/johnfriz/AppForms-Template/internal/transfer"
	"github.com/johnfriz/AppForms-Template/internal/ui"
)

var (
	listFormat string
	putData    string
	putFile    string
)

var listCmd = &cobra.Command{
	Use:     "list",
	GroupID: "records",
	Short:   "List records held locally",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp(cmd, nil)
		if err != nil {
			return err
		}
		defer a.Close()

		res, err := storesync.Route(cmd.Context(), a.store, storesync.MethodRead, nil)
		if err != nil {
			return err
		}

		if listFormat != "table" {
			format, err := transfer.ParseFormat(listFormat)
			if err != nil {
				return err
			}
			return transfer.Write(os.Stdout, format, res.Records)
		}

		if len(res.Records) == 0 {
			fmt.Printf("%s No records\n", ui.RenderMuted("○"))
			return nil
		}
		printTable(res.Records, a.store.IDField(), cfg.Store().VersionField)
		return nil
	},
}

func printTable(recs []record.Record, idField, versionField string) {
	nameWidth := ui.Width() - 60
	if nameWidth < 20 {
		nameWidth = 20
	}
	fmt.Printf("%-38s %-10s %-8s %s\n", ui.RenderBold("ID"), ui.RenderBold("VERSION"), ui.RenderBold("FULL"), ui.RenderBold("NAME"))
	for _, rec := range recs {
		version := ""
		if v, ok := rec.Version(versionField); ok {
			version = fmt.Sprintf("%v", v)
		}
		full := ui.RenderMuted("no")
		if rec.FullDataLoaded() {
			full = ui.RenderPass("yes")
		}
		name, _ := rec["name"].(string)
		fmt.Printf("%-38s %-10s %-8s %s\n", rec.ID(idField), version, full, ui.Truncate(name, nameWidth))
	}
	fmt.Printf("\n%d records\n", len(recs))
}

var getCmd = &cobra.Command{
	Use:     "get <id>",
	GroupID: "records",
	Short:   "Show one record, fetching full data when needed",
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp(cmd, nil)
		if err != nil {
			return err
		}
		defer a.Close()

		idField := a.store.IDField()
		rec := record.Record{}
		rec.SetID(idField, args[0])

		res, err := storesync.Route(cmd.Context(), a.store, storesync.MethodRead, rec)
		if err != nil {
			return err
		}
		// Let a background detail refresh land in local storage before exit.
		a.store.Wait()

		out, err := json.MarshalIndent(res.Record, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to encode record: %w", err)
		}
		fmt.Println(string(out))
		return nil
	},
}

var putCmd = &cobra.Command{
	Use:     "put",
	GroupID: "records",
	Short:   "Create or update a record",
	Long: `Create or update a record from a JSON object.

The record comes from --data, --file (use - for stdin) or, on a terminal, an
interactive form. A record whose id is already held is updated; otherwise a
new record is created and assigned a fresh id.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		raw, err := readPutInput(cmd.InOrStdin())
		if err != nil {
			return err
		}
		var rec record.Record
		if err := json.Unmarshal(raw, &rec); err != nil {
			return fmt.Errorf("invalid record JSON: %w", err)
		}
		if rec == nil {
			return errors.New("record must be a JSON object")
		}

		a, err := openApp(cmd, nil)
		if err != nil {
			return err
		}
		defer a.Close()

		if err := a.store.EnsureInit(cmd.Context()); err != nil {
			return err
		}

		method := storesync.MethodCreate
		if id := rec.ID(a.store.IDField()); id != "" && a.store.Has(id) {
			method = storesync.MethodUpdate
		}

		res, err := storesync.Route(cmd.Context(), a.store, method, rec)
		if err != nil {
			return err
		}

		verb := "Created"
		if method == storesync.MethodUpdate {
			verb = "Updated"
		}
		fmt.Printf("%s %s record %s\n", ui.RenderPass("✓"), verb, res.Record.ID(a.store.IDField()))
		return nil
	},
}

func readPutInput(stdin io.Reader) ([]byte, error) {
	switch {
	case putData != "":
		return []byte(putData), nil
	case putFile == "-":
		return io.ReadAll(stdin)
	case putFile != "":
		data, err := os.ReadFile(putFile)
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", putFile, err)
		}
		return data, nil
	case ui.IsTerminal():
		return promptRecord()
	default:
		return nil, errors.New("no record given: use --data or --file")
	}
}

func promptRecord() ([]byte, error) {
	var id, body string
	form := huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Record id").
				Description("Leave empty to create a new record").
				Value(&id),
			huh.NewText().
				Title("Fields (JSON object)").
				Placeholder(`{"name": "Inspection"}`).
				Value(&body).
				Validate(func(s string) error {
					var probe map[string]any
					if err := json.Unmarshal([]byte(s), &probe); err != nil {
						return fmt.Errorf("not a JSON object: %w", err)
					}
					return nil
				}),
		),
	)
	if err := form.Run(); err != nil {
		return nil, err
	}

	var rec record.Record
	if err := json.Unmarshal([]byte(body), &rec); err != nil {
		return nil, err
	}
	if rec == nil {
		rec = record.Record{}
	}
	if id = strings.TrimSpace(id); id != "" {
		rec.SetID(cfg.Store().IDField, id)
	}
	return json.Marshal(rec)
}

var deleteCmd = &cobra.Command{
	Use:     "delete <id>",
	GroupID: "records",
	Short:   "Delete a record from the local store",
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp(cmd, nil)
		if err != nil {
			return err
		}
		defer a.Close()

		rec := record.Record{}
		rec.SetID(a.store.IDField(), args[0])

		if _, err := storesync.Route(cmd.Context(), a.store, storesync.MethodDelete, rec); err != nil {
			return err
		}
		fmt.Printf("%s Deleted record %s\n", ui.RenderPass("✓"), args[0])
		return nil
	},
}

func init() {
	listCmd.Flags().StringVarP(&listFormat, "format", "f", "table", "Output format: table, jsonl or yaml")
	putCmd.Flags().StringVarP(&putData, "data", "d", "", "Record as a JSON object")
	putCmd.Flags().StringVar(&putFile, "file", "", "Read the record from a JSON file (- for stdin)")

	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(getCmd)
	rootCmd.AddCommand(putCmd)
	rootCmd.AddCommand(deleteCmd)
}
