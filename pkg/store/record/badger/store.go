// Package badger implements a persistent record.Store on BadgerDB.
package badger

import (
	"context"
	"errors"
	"fmt"

	badger "github.com/dgraph-io/badger/v4"
	"github.com/dgraph-io/badger/v4/options"
	"github.com/marmos91/dittoreg/internal/logger"
	"github.com/marmos91/dittoreg/pkg/store/record"
)

// BadgerRecordStore implements record.Store using BadgerDB for persistence.
//
// Records and the allocator counter live in the same database (see keys.go),
// so a registry create commits the new record and the advanced counter in a
// single BadgerDB transaction.
//
// Thread Safety:
// BadgerDB provides serializable snapshot isolation. Conflicting Update
// transactions fail with badger.ErrConflict, which Update retries a bounded
// number of times.
type BadgerRecordStore struct {
	// db is the BadgerDB database handle (thread-safe, uses internal MVCC)
	db *badger.DB

	// path is kept for log messages
	path string
}

// BadgerRecordStoreConfig contains configuration for creating a BadgerDB
// record store.
type BadgerRecordStoreConfig struct {
	// DBPath is the directory where BadgerDB stores its files.
	// Ignored when InMemory is true.
	DBPath string `mapstructure:"db_path"`

	// InMemory runs BadgerDB without touching disk (tests, dry runs)
	InMemory bool `mapstructure:"in_memory"`

	// SyncWrites makes every commit fsync before returning
	SyncWrites bool `mapstructure:"sync_writes"`

	// BlockCacheSizeMB is BadgerDB's block cache size in MB (default: 64)
	BlockCacheSizeMB int64 `mapstructure:"block_cache_size_mb"`

	// IndexCacheSizeMB is BadgerDB's index cache size in MB (default: 32)
	IndexCacheSizeMB int64 `mapstructure:"index_cache_size_mb"`

	// BadgerOptions allows full customization of BadgerDB behavior.
	// If nil, options are derived from the fields above.
	BadgerOptions *badger.Options `mapstructure:"-"`
}

// maxConflictRetries bounds how often Update re-runs a transaction that lost
// a write conflict.
const maxConflictRetries = 5

// NewBadgerRecordStore opens (or creates) a BadgerDB record store.
func NewBadgerRecordStore(ctx context.Context, config BadgerRecordStoreConfig) (*BadgerRecordStore, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var opts badger.Options
	if config.BadgerOptions != nil {
		opts = *config.BadgerOptions
	} else {
		if config.InMemory {
			opts = badger.DefaultOptions("").WithInMemory(true)
		} else {
			if config.DBPath == "" {
				return nil, fmt.Errorf("badger record store: db_path is required")
			}
			opts = badger.DefaultOptions(config.DBPath)
		}

		// Records are small JSON documents
		opts = opts.WithLoggingLevel(badger.WARNING)
		opts = opts.WithCompression(options.None)
		opts = opts.WithSyncWrites(config.SyncWrites)

		blockCacheMB := config.BlockCacheSizeMB
		if blockCacheMB == 0 {
			blockCacheMB = 64
		}
		indexCacheMB := config.IndexCacheSizeMB
		if indexCacheMB == 0 {
			indexCacheMB = 32
		}
		opts = opts.WithBlockCacheSize(blockCacheMB << 20)
		opts = opts.WithIndexCacheSize(indexCacheMB << 20)
	}

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open BadgerDB at %s: %w", config.DBPath, err)
	}

	logger.Debug("Badger record store opened: path=%s in_memory=%v", config.DBPath, config.InMemory)

	return &BadgerRecordStore{db: db, path: config.DBPath}, nil
}

// NewBadgerRecordStoreWithDefaults opens a BadgerDB record store at dbPath
// with default options.
func NewBadgerRecordStoreWithDefaults(ctx context.Context, dbPath string) (*BadgerRecordStore, error) {
	return NewBadgerRecordStore(ctx, BadgerRecordStoreConfig{DBPath: dbPath})
}

// View implements record.Store.
func (s *BadgerRecordStore) View(ctx context.Context, fn func(tx record.Tx) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return s.db.View(func(txn *badger.Txn) error {
		return fn(&badgerTx{txn: txn, readOnly: true})
	})
}

// Update implements record.Store.
//
// fn may run more than once if BadgerDB reports a write conflict, so it must
// not have side effects outside the transaction.
func (s *BadgerRecordStore) Update(ctx context.Context, fn func(tx record.Tx) error) error {
	var err error
	for attempt := 0; attempt < maxConflictRetries; attempt++ {
		if err = ctx.Err(); err != nil {
			return err
		}
		err = s.db.Update(func(txn *badger.Txn) error {
			return fn(&badgerTx{txn: txn})
		})
		if !errors.Is(err, badger.ErrConflict) {
			return err
		}
		logger.Debug("Badger transaction conflict, retrying (attempt %d)", attempt+1)
	}
	return fmt.Errorf("badger transaction failed after %d attempts: %w", maxConflictRetries, err)
}

// Healthcheck implements record.Store.
func (s *BadgerRecordStore) Healthcheck(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	// BadgerDB returns an error if it is closed
	err := s.db.View(func(txn *badger.Txn) error {
		return nil
	})
	if err != nil {
		return fmt.Errorf("healthcheck failed: %w", err)
	}
	return nil
}

// Close closes the BadgerDB database and flushes pending writes.
func (s *BadgerRecordStore) Close() error {
	if err := s.db.Close(); err != nil {
		return fmt.Errorf("failed to close BadgerDB: %w", err)
	}
	return nil
}

// badgerTx adapts a badger.Txn to record.Tx.
type badgerTx struct {
	txn      *badger.Txn
	readOnly bool
}

func (tx *badgerTx) Get(id record.ID) (*record.Record, error) {
	item, err := tx.txn.Get(keyRecord(id))
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, record.NewNotFoundError(id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get record %d: %w", id, err)
	}

	var rec *record.Record
	err = item.Value(func(val []byte) error {
		decoded, err := decodeRecord(val)
		if err != nil {
			return err
		}
		rec = decoded
		return nil
	})
	if err != nil {
		return nil, err
	}
	return rec, nil
}

func (tx *badgerTx) Put(id record.ID, rec *record.Record) error {
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

	bytes, err := encodeRecord(rec)
	if err != nil {
		return err
	}
	if err := tx.txn.Set(keyRecord(id), bytes); err != nil {
		return fmt.Errorf("failed to put record %d: %w", id, err)
	}
	return nil
}

func (tx *badgerTx) Remove(id record.ID) error {
	if tx.readOnly {
		return record.ErrReadOnly
	}
	// Deleting a missing key is a no-op in BadgerDB
	if err := tx.txn.Delete(keyRecord(id)); err != nil {
		return fmt.Errorf("failed to remove record %d: %w", id, err)
	}
	return nil
}

func (tx *badgerTx) NextID() (record.ID, error) {
	item, err := tx.txn.Get(keyNextID())
	if errors.Is(err, badger.ErrKeyNotFound) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("failed to read next id: %w", err)
	}

	var next uint64
	err = item.Value(func(val []byte) error {
		v, err := decodeUint64(val)
		if err != nil {
			return err
		}
		next = v
		return nil
	})
	if err != nil {
		return 0, err
	}
	return record.ID(next), nil
}

func (tx *badgerTx) SetNextID(next record.ID) error {
	if tx.readOnly {
		return record.ErrReadOnly
	}
	if err := tx.txn.Set(keyNextID(), encodeUint64(uint64(next))); err != nil {
		return fmt.Errorf("failed to set next id: %w", err)
	}
	return nil
}

func (tx *badgerTx) ForEach(fn func(rec *record.Record) error) error {
	opts := badger.DefaultIteratorOptions
	opts.Prefix = keyRecordPrefix()

	it := tx.txn.NewIterator(opts)
	defer it.Close()

	for it.Rewind(); it.Valid(); it.Next() {
		item := it.Item()
		id, err := idFromRecordKey(item.Key())
		if err != nil {
			return &record.StoreError{Code: record.ErrCorrupted, Message: err.Error()}
		}

		val, err := item.ValueCopy(nil)
		if err != nil {
			return fmt.Errorf("failed to read record %d: %w", id, err)
		}
		rec, err := decodeRecord(val)
		if err != nil {
			return err
		}
		if err := fn(rec); err != nil {
			return err
		}
	}
	return nil
}
