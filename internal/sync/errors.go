package sync

import "errors"

var (
	// ErrNotFound is returned when a record id is not held by the store.
	ErrNotFound = errors.New("Record not found")

	// ErrLocalRead wraps failures reading the storage bridge.
	ErrLocalRead = errors.New("failed to load local data")

	// ErrLocalWrite wraps failures writing the storage bridge.
	ErrLocalWrite = errors.New("failed to save local data")

	// ErrRemoteList wraps failures of the list act.
	ErrRemoteList = errors.New("failed to list remote data")

	// ErrRemoteDetail wraps failures of the read act.
	ErrRemoteDetail = errors.New("failed to read remote data")

	// ErrMissingID is returned when an update carries no id.
	ErrMissingID = errors.New("record has no id")

	// ErrNotInitialized is returned by operations that need Init first.
	ErrNotInitialized = errors.New("store not initialized")

	// ErrNoStore is returned by Route when no store is given.
	ErrNoStore = errors.New("model is not part of a store")
)
