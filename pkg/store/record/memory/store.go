// Package memory implements an in-memory record.Store.
package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/marmos91/dittoreg/pkg/store/record"
)

// MemoryRecordStoreConfig configures the in-memory store.
type MemoryRecordStoreConfig struct {
	// MaxRecords caps the number of stored records. 0 means unlimited.
	MaxRecords int `mapstructure:"max_records"`
}

// MemoryRecordStore implements record.Store using Go maps.
//
// It is suitable for tests, development and ephemeral registries. All state
// is lost on Close.
//
// Thread Safety:
// A single read-write mutex guards the state. View holds the read lock and
// Update holds the write lock for the whole callback, so update transactions
// are serialized.
//
// Atomicity:
// Update stages writes in an overlay (puts, removals, counter) and only
// folds it into the maps after the callback returns nil.
type MemoryRecordStore struct {
	mu sync.RWMutex

	// records maps IDs to stored records. Values are never handed out
	// directly, only clones.
	records map[record.ID]*record.Record

	// nextID is the allocator counter
	nextID record.ID

	maxRecords int
	closed     bool
}

// NewMemoryRecordStore creates an empty in-memory store.
func NewMemoryRecordStore(cfg MemoryRecordStoreConfig) *MemoryRecordStore {
	return &MemoryRecordStore{
		records:    make(map[record.ID]*record.Record),
		maxRecords: cfg.MaxRecords,
	}
}

// NewMemoryRecordStoreWithDefaults creates an unlimited in-memory store.
func NewMemoryRecordStoreWithDefaults() *MemoryRecordStore {
	return NewMemoryRecordStore(MemoryRecordStoreConfig{})
}

// View implements record.Store.
func (s *MemoryRecordStore) View(ctx context.Context, fn func(tx record.Tx) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return errStoreClosed
	}

	return fn(&memoryTx{store: s, readOnly: true})
}

// Update implements record.Store.
func (s *MemoryRecordStore) Update(ctx context.Context, fn func(tx record.Tx) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return errStoreClosed
	}

	tx := &memoryTx{
		store:   s,
		puts:    make(map[record.ID]*record.Record),
		removes: make(map[record.ID]struct{}),
	}
	if err := fn(tx); err != nil {
		return err
	}

	// Check context once more before committing; a cancelled caller gets
	// no partial state.
	if err := ctx.Err(); err != nil {
		return err
	}

	if s.maxRecords > 0 && tx.projectedCount() > s.maxRecords {
		return &record.StoreError{
			Code:    record.ErrIOError,
			Message: "memory store record limit reached",
		}
	}

	for id := range tx.removes {
		delete(s.records, id)
	}
	for id, rec := range tx.puts {
		s.records[id] = rec
	}
	if tx.nextSet {
		s.nextID = tx.next
	}
	return nil
}

// Healthcheck implements record.Store.
func (s *MemoryRecordStore) Healthcheck(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return errStoreClosed
	}
	return nil
}

// Close implements record.Store.
func (s *MemoryRecordStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	s.records = nil
	return nil
}

var errStoreClosed = &record.StoreError{Code: record.ErrIOError, Message: "memory store is closed"}

// memoryTx is the record.Tx handed to View and Update callbacks. Reads see
// the staged overlay first, then the committed maps.
type memoryTx struct {
	store    *MemoryRecordStore
	readOnly bool

	puts    map[record.ID]*record.Record
	removes map[record.ID]struct{}
	next    record.ID
	nextSet bool
}

func (tx *memoryTx) Get(id record.ID) (*record.Record, error) {
	if rec, ok := tx.puts[id]; ok {
		return rec.Clone(), nil
	}
	if _, ok := tx.removes[id]; ok {
		return nil, record.NewNotFoundError(id)
	}
	rec, ok := tx.store.records[id]
	if !ok {
		return nil, record.NewNotFoundError(id)
	}
	return rec.Clone(), nil
}

func (tx *memoryTx) Put(id record.ID, rec *record.Record) error {
	if tx.readOnly {
		return record.ErrReadOnly
	}
	if rec == nil || rec.ID != id {
		var got record.ID
		if rec != nil {
			got = rec.ID
		}
		return record.NewKeyMismatchError(id, got)
	}
	delete(tx.removes, id)
	tx.puts[id] = rec.Clone()
	return nil
}

func (tx *memoryTx) Remove(id record.ID) error {
	if tx.readOnly {
		return record.ErrReadOnly
	}
	delete(tx.puts, id)
	tx.removes[id] = struct{}{}
	return nil
}

func (tx *memoryTx) NextID() (record.ID, error) {
	if tx.nextSet {
		return tx.next, nil
	}
	return tx.store.nextID, nil
}

func (tx *memoryTx) SetNextID(next record.ID) error {
	if tx.readOnly {
		return record.ErrReadOnly
	}
	tx.next = next
	tx.nextSet = true
	return nil
}

func (tx *memoryTx) ForEach(fn func(rec *record.Record) error) error {
	ids := make([]record.ID, 0, len(tx.store.records)+len(tx.puts))
	for id := range tx.store.records {
		if _, staged := tx.puts[id]; staged {
			continue
		}
		if _, removed := tx.removes[id]; removed {
			continue
		}
		ids = append(ids, id)
	}
	for id := range tx.puts {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	for _, id := range ids {
		rec, err := tx.Get(id)
		if err != nil {
			return err
		}
		if err := fn(rec); err != nil {
			return err
		}
	}
	return nil
}

// projectedCount returns the record count after the overlay is applied.
func (tx *memoryTx) projectedCount() int {
	count := len(tx.store.records)
	for id := range tx.removes {
		if _, ok := tx.store.records[id]; ok {
			count--
		}
	}
	for id := range tx.puts {
		if _, ok := tx.store.records[id]; !ok {
			count++
		}
	}
	return count
}
