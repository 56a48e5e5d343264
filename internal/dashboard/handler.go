package dashboard

import (
	"log"
	"sort"
	"sync"
	"time"

	"github.com/johnfriz/AppForms-Template/internal/record"
	storesync "github.com/johnfriz/AppForms-Template/internal/sync"
)

// Handler turns store events into dashboard messages. It also serves as the
// store's Collection: Reset replaces the records it tracks and broadcasts a
// collection_reset.
type Handler struct {
	server       *Server
	logger       *log.Logger
	idField      string
	versionField string

	mu       sync.Mutex
	records  map[string]record.Record
	errors   int
	lastSync time.Time
}

// NewHandler creates a new event handler connected to a dashboard server.
// Empty field names default to "id" and "version".
func NewHandler(server *Server, idField, versionField string, logger *log.Logger) *Handler {
	if logger == nil {
		logger = log.Default()
	}
	if idField == "" {
		idField = "id"
	}
	if versionField == "" {
		versionField = "version"
	}

	return &Handler{
		server:       server,
		logger:       logger,
		idField:      idField,
		versionField: versionField,
		records:      make(map[string]record.Record),
	}
}

// OnEvent handles a store event. Pass it to Store.Subscribe.
func (h *Handler) OnEvent(ev storesync.Event) {
	switch ev.Type {
	case storesync.EventCreated, storesync.EventUpdated, storesync.EventRefreshed:
		h.mu.Lock()
		if ev.Record != nil {
			h.records[ev.ID] = ev.Record.Clone()
		}
		h.mu.Unlock()
		h.broadcastRecord(ev)
		h.broadcastStats()

	case storesync.EventDeleted:
		h.mu.Lock()
		delete(h.records, ev.ID)
		h.mu.Unlock()
		h.broadcastRecord(ev)
		h.broadcastStats()

	case storesync.EventSynced:
		h.mu.Lock()
		h.lastSync = ev.Time
		h.mu.Unlock()
		h.logger.Printf("Sync complete: %s (%d records, updated=%v)", ev.Store, ev.Count, ev.Updated)
		h.send(MessageTypeSyncComplete, SyncCompleteData{
			Store:   ev.Store,
			Records: ev.Count,
			Updated: ev.Updated,
		})

	case storesync.EventError:
		h.mu.Lock()
		h.errors++
		h.mu.Unlock()
		msg := ""
		if ev.Err != nil {
			msg = ev.Err.Error()
		}
		h.logger.Printf("Store error: %s: %s", ev.Store, msg)
		h.send(MessageTypeStoreError, StoreErrorData{
			Store:    ev.Store,
			RecordID: ev.ID,
			Error:    msg,
		})
		h.broadcastStats()
	}
}

// Reset replaces the tracked records.
func (h *Handler) Reset(records []record.Record) {
	h.mu.Lock()
	h.records = make(map[string]record.Record, len(records))
	for _, rec := range records {
		if id := rec.ID(h.idField); id != "" {
			h.records[id] = rec.Clone()
		}
	}
	count := len(h.records)
	h.mu.Unlock()

	h.logger.Printf("Collection reset: %d records", count)
	h.send(MessageTypeCollectionReset, CollectionResetData{Records: count})
	h.broadcastStats()
}

// Records returns the tracked records sorted by id.
func (h *Handler) Records() []record.Record {
	h.mu.Lock()
	defer h.mu.Unlock()

	ids := make([]string, 0, len(h.records))
	for id := range h.records {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	out := make([]record.Record, 0, len(ids))
	for _, id := range ids {
		out = append(out, h.records[id].Clone())
	}
	return out
}

// GetStats returns the current statistics
func (h *Handler) GetStats() StatsData {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.statsLocked()
}

func (h *Handler) statsLocked() StatsData {
	stats := StatsData{
		Total:    len(h.records),
		Errors:   h.errors,
		LastSync: h.lastSync,
	}
	for _, rec := range h.records {
		if rec.FullDataLoaded() {
			stats.FullyLoaded++
		} else {
			stats.Stale++
		}
	}
	return stats
}

func (h *Handler) broadcastRecord(ev storesync.Event) {
	data := RecordUpdateData{
		Store:    ev.Store,
		RecordID: ev.ID,
		Action:   string(ev.Type),
	}
	if ev.Record != nil {
		data.Version, _ = ev.Record.Version(h.versionField)
		data.FullDataLoaded = ev.Record.FullDataLoaded()
	}
	h.send(MessageTypeRecordUpdate, data)
}

func (h *Handler) broadcastStats() {
	h.send(MessageTypeStats, h.GetStats())
}

func (h *Handler) send(typ MessageType, data any) {
	msg, err := NewMessage(typ, data)
	if err != nil {
		h.logger.Printf("Failed to marshal %s data: %v", typ, err)
		return
	}
	h.server.Broadcast(msg)
}
