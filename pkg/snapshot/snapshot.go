// Package snapshot captures and restores the complete registry state.
//
// A snapshot holds the allocator counter and every stored record. It is the
// host-side persistence path: export reads a consistent view of a store,
// import replaces a store's contents with a snapshot in one transaction.
package snapshot

import (
	"context"
	"errors"
	"fmt"

	"github.com/marmos91/dittoreg/pkg/store/record"
)

// Version is the snapshot layout version written by this package.
const Version = 1

// ErrInvalidSnapshot is returned when a decoded snapshot violates the
// registry invariants and cannot be restored.
var ErrInvalidSnapshot = errors.New("invalid snapshot")

// State is the full persisted registry state.
type State struct {
	Version int
	NextID  record.ID
	Records []*record.Record
}

// Capture reads the counter and all records from store in a single read
// transaction. Records are ordered by ascending ID.
func Capture(ctx context.Context, store record.Store) (*State, error) {
	state := &State{Version: Version}

	err := store.View(ctx, func(tx record.Tx) error {
		next, err := tx.NextID()
		if err != nil {
			return err
		}
		state.NextID = next

		return tx.ForEach(func(rec *record.Record) error {
			state.Records = append(state.Records, rec.Clone())
			return nil
		})
	})
	if err != nil {
		return nil, fmt.Errorf("capture snapshot: %w", err)
	}

	return state, nil
}

// Validate checks that state could have been produced by a registry: IDs are
// unique and every ID is below the counter.
func (s *State) Validate() error {
	if s.Version != Version {
		return fmt.Errorf("%w: unsupported version %d", ErrInvalidSnapshot, s.Version)
	}

	seen := make(map[record.ID]struct{}, len(s.Records))
	for i, rec := range s.Records {
		if rec == nil {
			return fmt.Errorf("%w: record %d is empty", ErrInvalidSnapshot, i)
		}
		if _, dup := seen[rec.ID]; dup {
			return fmt.Errorf("%w: duplicate record %d", ErrInvalidSnapshot, rec.ID)
		}
		if rec.ID >= s.NextID {
			return fmt.Errorf("%w: record %d is not below next id %d", ErrInvalidSnapshot, rec.ID, s.NextID)
		}
		seen[rec.ID] = struct{}{}
	}
	return nil
}

// Restore replaces the contents of store with state. Existing records are
// removed and the counter is overwritten; either everything applies or
// nothing does.
func Restore(ctx context.Context, store record.Store, state *State) error {
	if err := state.Validate(); err != nil {
		return err
	}

	err := store.Update(ctx, func(tx record.Tx) error {
		var existing []record.ID
		if err := tx.ForEach(func(rec *record.Record) error {
			existing = append(existing, rec.ID)
			return nil
		}); err != nil {
			return err
		}

		for _, id := range existing {
			if err := tx.Remove(id); err != nil {
				return err
			}
		}

		for _, rec := range state.Records {
			clone := rec.Clone()
			clone.Kind = clone.Kind.Normalize()
			if err := tx.Put(clone.ID, clone); err != nil {
				return err
			}
		}

		return tx.SetNextID(state.NextID)
	})
	if err != nil {
		return fmt.Errorf("restore snapshot: %w", err)
	}

	return nil
}
