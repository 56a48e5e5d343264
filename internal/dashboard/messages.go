package dashboard

import (
	"time"

	"github.com/goccy/go-json"
)

// MessageType names a dashboard message.
type MessageType string

const (
	// MessageTypeRecordUpdate: a record was created, updated, deleted or refreshed
	MessageTypeRecordUpdate MessageType = "record_update"

	// MessageTypeSyncComplete: a list refresh finished
	MessageTypeSyncComplete MessageType = "sync_complete"

	// MessageTypeStoreError: the store published a failure
	MessageTypeStoreError MessageType = "store_error"

	// MessageTypeStats: record totals changed, or a client just connected
	MessageTypeStats MessageType = "stats"

	// MessageTypeCollectionReset: the full record set was replaced
	MessageTypeCollectionReset MessageType = "collection_reset"
)

// Message is the envelope written to every client.
type Message struct {
	Type      MessageType     `json:"type"`
	Timestamp time.Time       `json:"timestamp"`
	Data      json.RawMessage `json:"data,omitempty"`
}

// NewMessage encodes data into a Message stamped with the current time.
func NewMessage(typ MessageType, data any) (Message, error) {
	msg := Message{Type: typ, Timestamp: time.Now()}
	if data == nil {
		return msg, nil
	}
	raw, err := json.Marshal(data)
	if err != nil {
		return msg, err
	}
	msg.Data = raw
	return msg, nil
}

// RecordUpdateData describes a single record change.
type RecordUpdateData struct {
	Store          string `json:"store"`
	RecordID       string `json:"record_id"`
	Action         string `json:"action"` // created, updated, deleted, refreshed
	Version        any    `json:"version,omitempty"`
	FullDataLoaded bool   `json:"full_data_loaded"`
}

// SyncCompleteData describes a finished list refresh.
type SyncCompleteData struct {
	Store   string `json:"store"`
	Records int    `json:"records"`
	Updated bool   `json:"updated"`
}

// StoreErrorData carries a store failure.
type StoreErrorData struct {
	Store    string `json:"store"`
	RecordID string `json:"record_id,omitempty"`
	Error    string `json:"error"`
}

// CollectionResetData reports the size of the replaced collection.
type CollectionResetData struct {
	Records int `json:"records"`
}

// StatsData summarizes the tracked records.
type StatsData struct {
	Total       int       `json:"total"`
	FullyLoaded int       `json:"fully_loaded"`
	Stale       int       `json:"stale"`
	Errors      int       `json:"errors"`
	LastSync    time.Time `json:"last_sync,omitempty"`
}
