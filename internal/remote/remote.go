// Package remote provides the client side of the cloud "act" endpoints a
// sync Store reconciles against: a list endpoint returning record summaries
// plus optional config, and a per-record detail endpoint.
package remote

import (
	"context"
	"fmt"

	"github.com/johnfriz/AppForms-Template/internal/record"
)

// Service is the Remote Data Service.
type Service interface {
	// List calls the list endpoint identified by act.
	List(ctx context.Context, act string) (*ListResponse, error)

	// Read calls the detail endpoint identified by act for one record.
	Read(ctx context.Context, act string, req DetailRequest) (*DetailResponse, error)
}

// ListResponse is the body returned by a list endpoint.
type ListResponse struct {
	// Config holds opaque overrides for process-wide configuration
	Config map[string]any `json:"config,omitempty"`
	// Data holds summary records, each with at least the id and version fields
	Data []record.Record `json:"data,omitempty"`
	// Error is set by the endpoint to report a failure
	Error string `json:"error,omitempty"`
}

// DetailRequest asks for one record.
//
// Version is only sent when the caller already holds the full record, so
// the endpoint may skip the payload when nothing changed.
type DetailRequest struct {
	ID      string `json:"id"`
	Version any    `json:"version,omitempty"`
}

// DetailResponse is the body returned by a detail endpoint.
// Data is nil when the endpoint skipped the payload.
type DetailResponse struct {
	Data  record.Record `json:"data,omitempty"`
	Error string        `json:"error,omitempty"`
}

// ActError reports a failed act call, either a transport-level status or an
// error reported in the response body.
type ActError struct {
	Act        string
	StatusCode int
	Message    string
}

func (e *ActError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("act %s failed with status %d: %s", e.Act, e.StatusCode, e.Message)
	}
	return fmt.Sprintf("act %s failed: %s", e.Act, e.Message)
}
