package record

import (
	"context"
)

// Store is the persistent state of a registry: a keyed collection of records
// plus the counter holding the next unused ID.
//
// All access goes through transactions. Writes made inside Update become
// visible together when the callback returns nil and are discarded entirely
// when it returns an error, which is what lets the registry allocate an ID
// and insert the record as one unit.
//
// The store is purely structural. It never checks ownership or validates
// record contents beyond the key/ID invariant.
//
// Thread Safety:
// Implementations must be safe for concurrent use by multiple goroutines.
// Update transactions are serialized.
type Store interface {
	// View runs fn in a read-only transaction. Write methods called on the
	// Tx return an ErrInvalidArgument StoreError.
	View(ctx context.Context, fn func(tx Tx) error) error

	// Update runs fn in a read-write transaction and commits iff fn returns
	// nil. The error returned by fn is passed through unchanged.
	Update(ctx context.Context, fn func(tx Tx) error) error

	// Healthcheck verifies the backend is operational.
	Healthcheck(ctx context.Context) error

	// Close releases backend resources. The store must not be used after.
	Close() error
}

// Tx is a view of the store inside one transaction. A Tx must not be used
// after its callback returns.
type Tx interface {
	// Get returns a copy of the record stored at id, or an ErrNotFound
	// StoreError.
	Get(id ID) (*Record, error)

	// Put inserts or overwrites the record at id. rec.ID must equal id.
	Put(id ID, rec *Record) error

	// Remove deletes the record at id. Removing an absent id is a no-op.
	Remove(id ID) error

	// NextID returns the persisted counter (0 if never set).
	NextID() (ID, error)

	// SetNextID persists the counter.
	SetNextID(next ID) error

	// ForEach calls fn for every stored record in ascending ID order and
	// stops at the first error.
	ForEach(fn func(rec *Record) error) error
}

// ErrReadOnly is returned by write methods of a View transaction.
var ErrReadOnly = &StoreError{Code: ErrInvalidArgument, Message: "write in read-only transaction"}
