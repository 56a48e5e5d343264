package logging

import (
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestOpen_Stderr(t *testing.T) {
	out, err := Open(Config{})
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	defer out.Close()

	if out.Writer() != os.Stderr {
		t.Error("default output should be stderr")
	}

	quiet, err := Open(Config{Quiet: true})
	if err != nil {
		t.Fatalf("Open(quiet) failed: %v", err)
	}
	if quiet.Writer() != io.Discard {
		t.Error("quiet output should discard")
	}
}

func TestOpen_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "formsync.log")

	out, err := Open(Config{File: path, MaxSizeMB: 1, MaxBackups: 1})
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}

	out.Logger("sync").Printf("Refreshed %s", "forms")
	if err := out.Close(); err != nil {
		t.Fatalf("Close() failed: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("failed to read log file: %v", err)
	}
	if !strings.Contains(string(data), "[sync] ") || !strings.Contains(string(data), "Refreshed forms") {
		t.Errorf("log file = %q", data)
	}
}
