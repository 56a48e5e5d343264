// Package sync provides the persistence backend that reconciles a local
// key/value store with remote list and detail endpoints.
//
// Overview
//
// A Store owns an in-memory mapping of record id to record. The mapping is
// loaded from a storage.Bridge, reconciled with a remote.Service, and written
// back to the bridge after every mutation:
//
//	storage.Bridge (sqlite / file / memory)
//	     └── key: name + "0.3"  → serialized mapping
//	                                  ↕
//	                               Store  ←→  remote.Service
//	                                  ↑        (list act, read act)
//	                                Route
//	                    (read / create / update / delete)
//
// Usage
//
//	bridge, err := storage.Open(storage.Config{SQLitePath: "formsync.db", FileDir: "data"})
//	if err != nil {
//	    return err
//	}
//	defer bridge.Close()
//
//	client, err := remote.NewHTTPClient(remote.HTTPConfig{BaseURL: "https://example.com"})
//	if err != nil {
//	    return err
//	}
//
//	store, err := sync.New(bridge, client, sync.Options{
//	    Name:    "forms",
//	    ListAct: "getForms",
//	    ReadAct: "getForm",
//	})
//	if err != nil {
//	    return err
//	}
//	defer store.Close()
//
//	// Lazily initializes the store, then lists every record
//	res, err := sync.Route(ctx, store, sync.MethodRead, nil)
//
// Initialization
//
// Init reads local data first. When local data exists the store is usable at
// once and the list refresh runs in the background. When it does not, the
// list endpoint is called synchronously and a failure is returned to the
// caller, since there is nothing to show yet.
//
// Summary merge
//
// List endpoints return summaries. A summary replaces a held record only when
// the record is absent or its version differs, and the held version value is
// kept on replacement. The record therefore stays stale (and not fully
// loaded) until a detail fetch adopts a full record. See
// record.Mapping.MergeSummaries.
//
// Error Handling
//
// Failures during first-time initialization, and detail failures for a record
// that was never fully loaded, are returned. Failures once usable data exists
// are published as EventError to subscribers so the visible state stays
// whatever was last loaded successfully.
//
// Concurrency
//
// The mapping is guarded by a mutex and no I/O happens while it is held.
// Saves are serialized, so the last save always persists the newest snapshot.
// Overlapping operations on the same record are last-write-wins. Background
// tasks run on the Store's own context and are cancelled by Close.
package sync
