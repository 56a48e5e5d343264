package sync

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	stdsync "sync"
	"time"

	"github.com/johnfriz/AppForms-Template/internal/record"
	"github.com/johnfriz/AppForms-Template/internal/remote"
	"github.com/johnfriz/AppForms-Template/internal/storage"
)

// LocalStoreVersion is appended to the store name to form the storage key.
// Bumping it orphans data written by older layouts.
const LocalStoreVersion = "0.3"

// Collection receives the full record set whenever a background detail
// refresh or a reload changes what is held.
type Collection interface {
	Reset(records []record.Record)
}

// ConfigSink receives the config overrides carried by list responses.
type ConfigSink interface {
	Merge(overrides map[string]any) error
}

// Options configures a Store.
type Options struct {
	// Name identifies the store and prefixes its storage key (required)
	Name string

	// ListAct names the list endpoint. Empty disables remote listing.
	ListAct string

	// ReadAct names the detail endpoint. Empty disables detail fetches.
	ReadAct string

	// IDField is the record field holding the id (default "id")
	IDField string

	// VersionField is the record field holding the version (default "version")
	VersionField string

	// Collection, if set, is reset after background detail refreshes and reloads
	Collection Collection

	// Config, if set, receives list response config overrides
	Config ConfigSink

	// Logger defaults to stderr with a "[sync] " prefix
	Logger *log.Logger
}

// Store is the synchronization adapter for one logical collection.
type Store struct {
	name         string
	listAct      string
	readAct      string
	idField      string
	versionField string

	bridge     storage.Bridge
	remote     remote.Service
	collection Collection
	config     ConfigSink
	logger     *log.Logger
	events     *emitter

	mu   stdsync.Mutex
	data record.Mapping // nil until Init

	initMu stdsync.Mutex

	saveMu    stdsync.Mutex
	lastSaved []byte

	bgMu   stdsync.Mutex
	closed bool
	wg     stdsync.WaitGroup
	ctx    context.Context
	cancel context.CancelFunc
}

// New creates a Store over bridge and svc. svc may be nil when neither act
// is configured.
func New(bridge storage.Bridge, svc remote.Service, opts Options) (*Store, error) {
	if bridge == nil {
		return nil, errors.New("storage bridge is required")
	}
	if opts.Name == "" {
		return nil, errors.New("store name is required")
	}
	if svc == nil && (opts.ListAct != "" || opts.ReadAct != "") {
		return nil, errors.New("remote service is required when an act is configured")
	}
	if opts.IDField == "" {
		opts.IDField = "id"
	}
	if opts.VersionField == "" {
		opts.VersionField = "version"
	}
	if opts.Logger == nil {
		opts.Logger = log.New(os.Stderr, "[sync] ", log.LstdFlags)
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &Store{
		name:         opts.Name,
		listAct:      opts.ListAct,
		readAct:      opts.ReadAct,
		idField:      opts.IDField,
		versionField: opts.VersionField,
		bridge:       bridge,
		remote:       svc,
		collection:   opts.Collection,
		config:       opts.Config,
		logger:       opts.Logger,
		events:       newEmitter(),
		ctx:          ctx,
		cancel:       cancel,
	}, nil
}

// Name returns the store name.
func (s *Store) Name() string {
	return s.name
}

// Key returns the storage key the mapping is persisted under.
func (s *Store) Key() string {
	return s.name + LocalStoreVersion
}

// IDField returns the record field holding the id.
func (s *Store) IDField() string {
	return s.idField
}

// Initialized reports whether Init has produced a mapping.
func (s *Store) Initialized() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.data != nil
}

// Len returns the number of records held.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.data)
}

// Has reports whether a record is held under id.
func (s *Store) Has(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.data[id]
	return ok
}

// Subscribe registers fn for every event and returns a function that
// removes it.
func (s *Store) Subscribe(fn func(Event)) (unsubscribe func()) {
	return s.events.subscribe(fn)
}

// Init loads local data and reconciles it with the list endpoint.
//
// With local data present Init returns as soon as the data is loaded and the
// list refresh continues in the background. Without it the list endpoint is
// called synchronously and its failure is returned. Unparsable local data is
// treated as empty.
func (s *Store) Init(ctx context.Context) error {
	raw, err := s.bridge.Get(ctx, s.Key())
	if err != nil {
		s.logger.Printf("ERROR loading local data for %s: %v", s.name, err)
		return fmt.Errorf("%w: %w", ErrLocalRead, err)
	}

	local, err := record.Decode(raw)
	if err != nil {
		s.logger.Printf("Ignoring unreadable local data for %s: %v", s.name, err)
		local = record.Mapping{}
	}

	s.mu.Lock()
	s.data = local
	s.mu.Unlock()

	if len(local) > 0 {
		s.logger.Printf("Found %d records in local storage for %s", len(local), s.name)
	}

	if s.listAct == "" {
		return nil
	}

	if len(local) > 0 {
		s.goBackground(func(ctx context.Context) {
			if _, err := s.Refresh(ctx); err != nil {
				s.emitError("", err)
			}
		})
		return nil
	}

	if _, err := s.Refresh(ctx); err != nil {
		// Nothing usable was loaded; the next Route retries Init.
		s.mu.Lock()
		s.data = nil
		s.mu.Unlock()
		return err
	}
	return nil
}

// Refresh calls the list endpoint, merges config overrides and summaries,
// and persists when anything changed. It reports whether the mapping changed.
func (s *Store) Refresh(ctx context.Context) (bool, error) {
	if s.listAct == "" {
		return false, nil
	}

	s.mu.Lock()
	if s.data == nil {
		s.mu.Unlock()
		return false, ErrNotInitialized
	}
	s.mu.Unlock()

	resp, err := s.remote.List(ctx, s.listAct)
	if err != nil {
		s.logger.Printf("ERROR listing %s via %s: %v", s.name, s.listAct, err)
		return false, fmt.Errorf("%w: %w", ErrRemoteList, err)
	}

	if len(resp.Config) > 0 && s.config != nil {
		if err := s.config.Merge(resp.Config); err != nil {
			s.logger.Printf("Warning: failed to merge config from %s: %v", s.listAct, err)
		}
	}

	s.mu.Lock()
	if s.data == nil {
		s.data = record.Mapping{}
	}
	wasEmpty := len(s.data) == 0
	updated := s.data.MergeSummaries(resp.Data, s.idField, s.versionField)
	count := len(s.data)
	s.mu.Unlock()

	if updated || wasEmpty {
		// Save failures are published by Save itself.
		_ = s.Save(ctx)
	}

	s.logger.Printf("Refreshed %s: %d summaries, %d records held (updated=%v)", s.name, len(resp.Data), count, updated)
	s.emit(Event{Type: EventSynced, Count: count, Updated: updated})
	return updated, nil
}

// Reload re-reads the persisted mapping after it was changed outside the
// store. Content identical to the last save is ignored, as are empty or
// unparsable payloads.
func (s *Store) Reload(ctx context.Context) error {
	s.saveMu.Lock()
	raw, err := s.bridge.Get(ctx, s.Key())
	if err != nil {
		s.saveMu.Unlock()
		return fmt.Errorf("%w: %w", ErrLocalRead, err)
	}
	if s.lastSaved != nil && bytes.Equal(raw, s.lastSaved) {
		s.saveMu.Unlock()
		return nil
	}
	local, err := record.Decode(raw)
	if err != nil {
		s.saveMu.Unlock()
		s.logger.Printf("Ignoring unreadable local data for %s: %v", s.name, err)
		return nil
	}
	if len(local) == 0 {
		s.saveMu.Unlock()
		return nil
	}
	s.lastSaved = raw

	s.mu.Lock()
	s.data = local
	all := local.Values()
	s.mu.Unlock()
	s.saveMu.Unlock()

	s.logger.Printf("Reloaded %d records for %s from local storage", len(all), s.name)
	s.emit(Event{Type: EventReloaded, Count: len(all)})
	if s.collection != nil {
		s.collection.Reset(all)
	}
	return nil
}

// Save persists the whole mapping. Failures are returned and also published
// as EventError.
func (s *Store) Save(ctx context.Context) error {
	s.saveMu.Lock()
	defer s.saveMu.Unlock()

	s.mu.Lock()
	if s.data == nil {
		s.mu.Unlock()
		return ErrNotInitialized
	}
	payload, err := s.data.Encode()
	s.mu.Unlock()
	if err != nil {
		wrapped := fmt.Errorf("%w: %w", ErrLocalWrite, err)
		s.emitError("", wrapped)
		return wrapped
	}

	if err := s.bridge.Set(ctx, s.Key(), payload); err != nil {
		s.logger.Printf("ERROR saving data for %s: %v", s.name, err)
		wrapped := fmt.Errorf("%w: %w", ErrLocalWrite, err)
		s.emitError("", wrapped)
		return wrapped
	}
	s.lastSaved = payload
	return nil
}

// Create assigns a GUID when rec has no id, stores it and persists.
// The record is returned together with any persist error.
func (s *Store) Create(ctx context.Context, rec record.Record) (record.Record, error) {
	if rec == nil {
		rec = record.Record{}
	}

	s.mu.Lock()
	if s.data == nil {
		s.mu.Unlock()
		return nil, ErrNotInitialized
	}
	id := rec.ID(s.idField)
	if id == "" {
		id = record.NewGUID()
		rec.SetID(s.idField, id)
	}
	s.data[id] = rec.Clone()
	count := len(s.data)
	s.mu.Unlock()

	err := s.Save(ctx)
	s.emit(Event{Type: EventCreated, ID: id, Record: rec.Clone(), Count: count})
	return rec, err
}

// Update replaces the record stored under rec's id and persists.
func (s *Store) Update(ctx context.Context, rec record.Record) (record.Record, error) {
	id := rec.ID(s.idField)
	if id == "" {
		return nil, ErrMissingID
	}

	s.mu.Lock()
	if s.data == nil {
		s.mu.Unlock()
		return nil, ErrNotInitialized
	}
	s.data[id] = rec.Clone()
	count := len(s.data)
	s.mu.Unlock()

	err := s.Save(ctx)
	s.emit(Event{Type: EventUpdated, ID: id, Record: rec.Clone(), Count: count})
	return rec, err
}

// Destroy removes the record stored under rec's id and persists.
func (s *Store) Destroy(ctx context.Context, rec record.Record) (record.Record, error) {
	id := rec.ID(s.idField)

	s.mu.Lock()
	if s.data == nil {
		s.mu.Unlock()
		return nil, ErrNotInitialized
	}
	delete(s.data, id)
	count := len(s.data)
	s.mu.Unlock()

	err := s.Save(ctx)
	s.emit(Event{Type: EventDeleted, ID: id, Record: rec.Clone(), Count: count})
	return rec, err
}

// FindAll returns every held record, sorted by id.
func (s *Store) FindAll(ctx context.Context) ([]record.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.data == nil {
		return nil, ErrNotInitialized
	}
	return s.data.Values(), nil
}

// Find returns the record held under id.
//
// A fully loaded record is returned at once while a detail request carrying
// its version runs in the background; a newer version is adopted, persisted
// and pushed to the Collection. A record that is not fully loaded is fetched
// synchronously and adopted when the response carries data. When it carries
// none the held record is returned unchanged.
func (s *Store) Find(ctx context.Context, id string) (record.Record, error) {
	s.mu.Lock()
	if s.data == nil {
		s.mu.Unlock()
		return nil, ErrNotInitialized
	}
	held, ok := s.data[id]
	if !ok || held == nil {
		s.mu.Unlock()
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	held = held.Clone()
	s.mu.Unlock()

	if s.readAct == "" {
		return held, nil
	}

	req := remote.DetailRequest{ID: held.ID(s.idField)}
	if req.ID == "" {
		req.ID = id
	}

	if held.FullDataLoaded() {
		req.Version, _ = held.Version(s.versionField)
		s.goBackground(func(ctx context.Context) {
			s.fetchDetail(ctx, id, req, true)
		})
		return held, nil
	}

	return s.fetchDetail(ctx, id, req, false)
}

// fetchDetail calls the read act and adopts the response. In the background
// case errors are published instead of returned.
func (s *Store) fetchDetail(ctx context.Context, id string, req remote.DetailRequest, background bool) (record.Record, error) {
	resp, err := s.remote.Read(ctx, s.readAct, req)
	if err != nil {
		s.logger.Printf("ERROR reading %s id %s via %s: %v", s.name, id, s.readAct, err)
		wrapped := fmt.Errorf("%w: %s: %w", ErrRemoteDetail, id, err)
		if background {
			s.emitError(id, wrapped)
			return nil, nil
		}
		return nil, wrapped
	}

	s.mu.Lock()
	current, exists := s.data[id]
	if !exists {
		// Destroyed while the request was in flight.
		s.mu.Unlock()
		if background {
			return nil, nil
		}
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}

	adopt := resp.Data != nil
	if adopt && background {
		heldVersion, _ := current.Version(s.versionField)
		newVersion, _ := resp.Data.Version(s.versionField)
		adopt = !record.VersionsEqual(heldVersion, newVersion)
	}
	if adopt {
		next := resp.Data.Clone()
		if next.ID(s.idField) == "" {
			next.SetID(s.idField, id)
		}
		next.MarkFullDataLoaded(true)
		s.data[id] = next
	}
	result := s.data[id].Clone()
	var all []record.Record
	if adopt && background {
		all = s.data.Values()
	}
	count := len(s.data)
	s.mu.Unlock()

	if !adopt {
		return result, nil
	}

	s.logger.Printf("Updated %s id %s from %s", s.name, id, s.readAct)
	_ = s.Save(ctx)
	s.emit(Event{Type: EventRefreshed, ID: id, Record: result.Clone(), Count: count})
	if all != nil && s.collection != nil {
		s.collection.Reset(all)
	}
	return result, nil
}

// Wait blocks until background tasks started so far have finished.
func (s *Store) Wait() {
	s.wg.Wait()
}

// Close cancels background tasks and waits for them. It does not close the
// storage bridge.
func (s *Store) Close() error {
	s.bgMu.Lock()
	s.closed = true
	s.bgMu.Unlock()

	s.cancel()
	s.wg.Wait()
	return nil
}

// EnsureInit runs Init unless the store already holds data. Concurrent
// callers share one initialization.
func (s *Store) EnsureInit(ctx context.Context) error {
	s.initMu.Lock()
	defer s.initMu.Unlock()

	if s.Initialized() {
		return nil
	}
	return s.Init(ctx)
}

func (s *Store) goBackground(fn func(ctx context.Context)) {
	s.bgMu.Lock()
	defer s.bgMu.Unlock()
	if s.closed {
		return
	}
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		fn(s.ctx)
	}()
}

func (s *Store) emit(ev Event) {
	ev.Store = s.name
	if ev.Time.IsZero() {
		ev.Time = time.Now()
	}
	s.events.emit(ev)
}

func (s *Store) emitError(id string, err error) {
	s.emit(Event{Type: EventError, ID: id, Err: err})
}
