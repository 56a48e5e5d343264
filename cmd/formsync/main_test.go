package main

import (
	"context"
	"path/filepath"
	"strings"
	"testing"

	"github.com/johnfriz/AppForms-Template/internal/record"
	"github.com/johnfriz/AppForms-Template/internal/storage"
)

func runCommand(t *testing.T, dir, stdin string, args ...string) error {
	t.Helper()
	putData, putFile, listFormat = "", "", "table"

	base := []string{
		"--backend", "file",
		"--data-dir", dir,
		"--db", filepath.Join(dir, "formsync.db"),
		"--store", "forms",
	}
	rootCmd.SetArgs(append(base, args...))
	rootCmd.SetIn(strings.NewReader(stdin))
	return rootCmd.Execute()
}

func readStored(t *testing.T, dir string) record.Mapping {
	t.Helper()
	fs, err := storage.NewFileStore(dir)
	if err != nil {
		t.Fatalf("NewFileStore: %v", err)
	}
	raw, err := fs.Get(context.Background(), "forms0.3")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if raw == nil {
		return nil
	}
	data, err := record.Decode(raw)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	return data
}

func TestPutGetDelete(t *testing.T) {
	dir := t.TempDir()

	if err := runCommand(t, dir, "", "put", "--data", `{"name":"Inspection"}`); err != nil {
		t.Fatalf("put: %v", err)
	}
	data := readStored(t, dir)
	if len(data) != 1 {
		t.Fatalf("stored %d records, want 1", len(data))
	}
	var id string
	for k, rec := range data {
		id = k
		if rec["name"] != "Inspection" {
			t.Errorf("name = %v", rec["name"])
		}
	}

	// An id already held updates in place.
	if err := runCommand(t, dir, `{"id":"`+id+`","name":"Audit"}`, "put", "--file", "-"); err != nil {
		t.Fatalf("put update: %v", err)
	}
	data = readStored(t, dir)
	if len(data) != 1 || data[id]["name"] != "Audit" {
		t.Fatalf("after update: %v", data)
	}

	if err := runCommand(t, dir, "", "get", id); err != nil {
		t.Fatalf("get: %v", err)
	}
	if err := runCommand(t, dir, "", "get", "missing"); err == nil {
		t.Error("get of unknown id should fail")
	}

	if err := runCommand(t, dir, "", "delete", id); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if data := readStored(t, dir); len(data) != 0 {
		t.Errorf("after delete: %v", data)
	}
}

func TestPut_RejectsNonObject(t *testing.T) {
	dir := t.TempDir()
	if err := runCommand(t, dir, "", "put", "--data", `[1,2]`); err == nil {
		t.Error("expected error for array input")
	}
	if err := runCommand(t, dir, "", "put", "--data", `null`); err == nil {
		t.Error("expected error for null input")
	}
}

func TestImportDryRun(t *testing.T) {
	dir := t.TempDir()
	in := `{"name":"a"}` + "\n" + `{"name":"b"}` + "\n"

	if err := runCommand(t, dir, in, "import", "--dry-run", "-"); err != nil {
		t.Fatalf("import: %v", err)
	}
	importDryRun = false
	if data := readStored(t, dir); len(data) != 0 {
		t.Errorf("dry run wrote %d records", len(data))
	}

	if err := runCommand(t, dir, in, "import", "-"); err != nil {
		t.Fatalf("import: %v", err)
	}
	if data := readStored(t, dir); len(data) != 2 {
		t.Errorf("imported %d records, want 2", len(data))
	}
}

func TestFlagBindingsOverrideConfig(t *testing.T) {
	dir := t.TempDir()
	t.Cleanup(func() { _ = rootCmd.PersistentFlags().Set("id-field", "id") })
	if err := runCommand(t, dir, "", "--id-field", "_id", "status"); err != nil {
		t.Fatalf("status: %v", err)
	}
	if got := cfg.Store().IDField; got != "_id" {
		t.Errorf("id field = %q, want _id", got)
	}
	if got := cfg.Storage().FileDir; got != dir {
		t.Errorf("file dir = %q, want %q", got, dir)
	}
}
