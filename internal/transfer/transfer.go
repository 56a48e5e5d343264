// Package transfer moves records in and out of a store as JSONL or YAML.
package transfer

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"io"

	"github.com/goccy/go-json"
	"gopkg.in/yaml.v3"

	"github.com/johnfriz/AppForms-Template/internal/record"
)

// maxLineSize bounds a single JSONL line; full form definitions can be large.
const maxLineSize = 16 * 1024 * 1024

// Format is an export format.
type Format string

const (
	FormatJSONL Format = "jsonl"
	FormatYAML  Format = "yaml"
)

// ParseFormat converts a format name into a Format.
func ParseFormat(name string) (Format, error) {
	switch f := Format(name); f {
	case FormatJSONL, FormatYAML:
		return f, nil
	case "yml":
		return FormatYAML, nil
	default:
		return "", fmt.Errorf("unknown format %q (want jsonl or yaml)", name)
	}
}

// ReadJSONL parses one record per line. Blank lines are skipped.
func ReadJSONL(r io.Reader) ([]record.Record, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineSize)

	var records []record.Record
	lineNum := 0
	for scanner.Scan() {
		lineNum++
		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 {
			continue
		}

		var rec record.Record
		if err := json.Unmarshal(line, &rec); err != nil {
			return nil, fmt.Errorf("invalid JSON at line %d: %w", lineNum, err)
		}
		if rec == nil {
			return nil, fmt.Errorf("invalid JSON at line %d: not an object", lineNum)
		}
		records = append(records, rec)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read JSONL: %w", err)
	}
	return records, nil
}

// WriteJSONL writes one record per line.
func WriteJSONL(w io.Writer, records []record.Record) error {
	bw := bufio.NewWriter(w)
	for _, rec := range records {
		data, err := json.Marshal(rec)
		if err != nil {
			return fmt.Errorf("failed to marshal record: %w", err)
		}
		if _, err := bw.Write(data); err != nil {
			return fmt.Errorf("failed to write record: %w", err)
		}
		if err := bw.WriteByte('\n'); err != nil {
			return fmt.Errorf("failed to write record: %w", err)
		}
	}
	if err := bw.Flush(); err != nil {
		return fmt.Errorf("failed to flush JSONL: %w", err)
	}
	return nil
}

// WriteYAML writes records as a YAML sequence.
func WriteYAML(w io.Writer, records []record.Record) error {
	if records == nil {
		records = []record.Record{}
	}

	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(records); err != nil {
		return fmt.Errorf("failed to encode YAML: %w", err)
	}
	if err := enc.Close(); err != nil {
		return fmt.Errorf("failed to flush YAML: %w", err)
	}
	return nil
}

// Write writes records in the given format.
func Write(w io.Writer, format Format, records []record.Record) error {
	switch format {
	case FormatJSONL:
		return WriteJSONL(w, records)
	case FormatYAML:
		return WriteYAML(w, records)
	default:
		return fmt.Errorf("unknown format %q", format)
	}
}

// Creator stores a record, assigning an id when it has none.
type Creator interface {
	Create(ctx context.Context, rec record.Record) (record.Record, error)
}

// ImportOptions configures Import.
type ImportOptions struct {
	DryRun bool // Preview without writing
}

// ImportResult contains statistics about an import.
type ImportResult struct {
	Read     int
	Imported int
	Errors   []string
}

// Import creates every record in dst. Individual failures are collected and
// do not stop the import.
func Import(ctx context.Context, dst Creator, records []record.Record, opts ImportOptions) (*ImportResult, error) {
	result := &ImportResult{Read: len(records)}
	if opts.DryRun {
		return result, nil
	}

	for i, rec := range records {
		if err := ctx.Err(); err != nil {
			return result, err
		}
		if _, err := dst.Create(ctx, rec); err != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("record %d: %v", i+1, err))
			continue
		}
		result.Imported++
	}
	return result, nil
}
