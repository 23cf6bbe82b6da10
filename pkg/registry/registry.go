// Package registry implements the file metadata registry: identifier
// allocation, the owned-record model and the ownership-gated mutation
// protocol.
//
// Every operation runs in exactly one store transaction. A create allocates
// its ID and inserts its record atomically; an update or delete either
// applies fully or leaves the record untouched.
//
// A missing record and a record owned by someone else both yield false/nil;
// callers cannot tell them apart. Errors are reserved for identifier
// exhaustion and store failures.
package registry

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/marmos91/dittoreg/internal/logger"
	"github.com/marmos91/dittoreg/pkg/metrics"
	"github.com/marmos91/dittoreg/pkg/store/record"
)

// Call carries what the host environment attaches to every operation.
type Call struct {
	// Caller is the identity performing the operation
	Caller record.Identity

	// Timestamp is the host's current time, used to stamp new records
	Timestamp time.Time
}

// Registry is the file metadata registry.
//
// Its state lives entirely in the store it was constructed with; Registry
// itself only holds collaborators. It is safe for concurrent use as far as
// the store serializes update transactions.
type Registry struct {
	store   record.Store
	metrics metrics.RecordMetrics
}

// Option configures a Registry.
type Option func(*Registry)

// WithMetrics attaches metrics collection. A nil value keeps the no-op
// implementation.
func WithMetrics(m metrics.RecordMetrics) Option {
	return func(r *Registry) {
		if m != nil {
			r.metrics = m
		}
	}
}

// New creates a registry over store.
func New(store record.Store, opts ...Option) *Registry {
	r := &Registry{
		store:   store,
		metrics: metrics.NewNoopRecordMetrics(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Store returns the underlying store.
func (r *Registry) Store() record.Store {
	return r.store
}

// Create stores a new record owned by call.Caller and returns its ID.
//
// Returns ErrIDSpaceExhausted (unwrapped) if no ID is left; nothing is
// written in that case.
func (r *Registry) Create(ctx context.Context, call Call, fields record.Fields) (record.ID, error) {
	var (
		id   record.ID
		next record.ID
	)

	err := r.store.Update(ctx, func(tx record.Tx) error {
		allocated, err := Allocate(tx)
		if err != nil {
			return err
		}

		rec := &record.Record{
			ID:        allocated,
			CreatedAt: call.Timestamp,
			Owner:     call.Caller,
		}
		rec.Apply(fields)
		rec.Kind = rec.Kind.Normalize()

		if err := tx.Put(allocated, rec); err != nil {
			return err
		}

		id = allocated
		next = allocated + 1
		return nil
	})

	if errors.Is(err, ErrIDSpaceExhausted) {
		logger.Error("Create by %q aborted: %v", call.Caller, err)
		r.metrics.RecordOperation("create", metrics.OutcomeExhausted)
		return 0, ErrIDSpaceExhausted
	}
	if err != nil {
		r.metrics.RecordOperation("create", metrics.OutcomeError)
		return 0, fmt.Errorf("create record: %w", err)
	}

	r.metrics.RecordOperation("create", metrics.OutcomeOK)
	r.metrics.SetNextID(uint64(next))
	logger.Debug("Created record %d (%s, %s) for %q", id, fields.Name, fields.Kind, call.Caller)

	return id, nil
}

// Read returns the record stored at id, or nil if there is none. Any caller
// may read any record.
func (r *Registry) Read(ctx context.Context, id record.ID) (*record.Record, error) {
	var rec *record.Record

	err := r.store.View(ctx, func(tx record.Tx) error {
		got, err := tx.Get(id)
		if err != nil {
			return err
		}
		rec = got
		return nil
	})

	if record.IsNotFound(err) {
		r.metrics.RecordOperation("read", metrics.OutcomeNotFound)
		return nil, nil
	}
	if err != nil {
		r.metrics.RecordOperation("read", metrics.OutcomeError)
		return nil, fmt.Errorf("read record %d: %w", id, err)
	}

	r.metrics.RecordOperation("read", metrics.OutcomeOK)
	return rec, nil
}

// Update replaces name, kind, size and description of the record at id.
//
// Returns false, leaving the record unchanged, if there is no record at id
// or call.Caller does not own it. ID, owner and creation time never change.
func (r *Registry) Update(ctx context.Context, call Call, id record.ID, fields record.Fields) (bool, error) {
	outcome, err := r.mutate(ctx, "update", call, id, func(tx record.Tx, rec *record.Record) error {
		rec.Apply(fields)
		rec.Kind = rec.Kind.Normalize()
		return tx.Put(id, rec)
	})
	return outcome == metrics.OutcomeOK, err
}

// Delete removes the record at id.
//
// Returns false, leaving the record in place, if there is no record at id or
// call.Caller does not own it.
func (r *Registry) Delete(ctx context.Context, call Call, id record.ID) (bool, error) {
	outcome, err := r.mutate(ctx, "delete", call, id, func(tx record.Tx, rec *record.Record) error {
		return tx.Remove(id)
	})
	return outcome == metrics.OutcomeOK, err
}

// mutate runs apply on the record at id inside one update transaction, but
// only if the record exists and call.Caller owns it.
func (r *Registry) mutate(
	ctx context.Context,
	operation string,
	call Call,
	id record.ID,
	apply func(tx record.Tx, rec *record.Record) error,
) (metrics.Outcome, error) {
	outcome := metrics.OutcomeOK

	err := r.store.Update(ctx, func(tx record.Tx) error {
		rec, err := tx.Get(id)
		if record.IsNotFound(err) {
			outcome = metrics.OutcomeNotFound
			return nil
		}
		if err != nil {
			return err
		}

		if !Authorize(rec, call.Caller) {
			outcome = metrics.OutcomeUnauthorized
			return nil
		}

		outcome = metrics.OutcomeOK
		return apply(tx, rec)
	})

	if err != nil {
		r.metrics.RecordOperation(operation, metrics.OutcomeError)
		return metrics.OutcomeError, fmt.Errorf("%s record %d: %w", operation, id, err)
	}

	r.metrics.RecordOperation(operation, outcome)
	if outcome != metrics.OutcomeOK {
		logger.Debug("Rejected %s of record %d by %q: %s", operation, id, call.Caller, outcome)
	}
	return outcome, nil
}

// NextID returns the identifier the next create will receive.
func (r *Registry) NextID(ctx context.Context) (record.ID, error) {
	var next record.ID
	err := r.store.View(ctx, func(tx record.Tx) error {
		n, err := tx.NextID()
		next = n
		return err
	})
	if err != nil {
		return 0, fmt.Errorf("read next id: %w", err)
	}
	return next, nil
}
