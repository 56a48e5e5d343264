package sync

import (
	"context"
	"fmt"

	"github.com/johnfriz/AppForms-Template/internal/record"
)

// Method is a persistence operation dispatched by Route.
type Method string

const (
	MethodRead   Method = "read"
	MethodCreate Method = "create"
	MethodUpdate Method = "update"
	MethodDelete Method = "delete"
)

// ParseMethod converts a method name into a Method.
func ParseMethod(name string) (Method, error) {
	switch m := Method(name); m {
	case MethodRead, MethodCreate, MethodUpdate, MethodDelete:
		return m, nil
	default:
		return "", fmt.Errorf("unknown method %q", name)
	}
}

// Result holds what Route produced: Record for single-record operations,
// Records for a read without an id.
type Result struct {
	Record  record.Record
	Records []record.Record
}

// Route initializes store on first use and dispatches method.
//
// A read of a record carrying an id finds that record; any other read
// returns every record. A single-record operation that yields nothing fails
// with ErrNotFound.
func Route(ctx context.Context, store *Store, method Method, rec record.Record) (*Result, error) {
	if store == nil {
		return nil, ErrNoStore
	}
	if err := store.EnsureInit(ctx); err != nil {
		return nil, err
	}

	switch method {
	case MethodRead:
		if id := rec.ID(store.idField); id != "" {
			return single(store.Find(ctx, id))
		}
		all, err := store.FindAll(ctx)
		if err != nil {
			return nil, err
		}
		return &Result{Records: all}, nil
	case MethodCreate:
		return single(store.Create(ctx, rec))
	case MethodUpdate:
		return single(store.Update(ctx, rec))
	case MethodDelete:
		return single(store.Destroy(ctx, rec))
	default:
		return nil, fmt.Errorf("unknown method %q", method)
	}
}

func single(rec record.Record, err error) (*Result, error) {
	if err != nil {
		return nil, err
	}
	if rec == nil {
		return nil, ErrNotFound
	}
	return &Result{Record: rec}, nil
}
