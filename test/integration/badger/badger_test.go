//go:build integration

package badger_test

import (
	"context"
	"math"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/marmos91/dittoreg/pkg/registry"
	"github.com/marmos91/dittoreg/pkg/store/record"
	"github.com/marmos91/dittoreg/pkg/store/record/badger"
)

// TestBadgerRegistry_Integration runs the registry against an on-disk
// BadgerDB store.
//
// Prerequisites:
//   - None (BadgerDB is embedded, no external services needed)
//   - Run with: go test -tags=integration ./test/integration/badger/...
//
// These tests verify that the registry on BadgerDB:
//   - Can be created and initialized
//   - Persists records and the allocator counter across restarts
//   - Keeps ownership decisions across restarts
func TestBadgerRegistry_Integration(t *testing.T) {
	ctx := context.Background()

	// ========================================================================
	// Setup: Create temporary directory for test database
	// ========================================================================

	tempDir, err := os.MkdirTemp("", "dittoreg-badger-*")
	if err != nil {
		t.Fatalf("Failed to create temp directory: %v", err)
	}
	defer os.RemoveAll(tempDir)

	dbPath := filepath.Join(tempDir, "records.db")
	created := time.Date(2024, 4, 1, 9, 0, 0, 0, time.UTC)

	open := func(t *testing.T) (*badger.BadgerRecordStore, *registry.Registry) {
		t.Helper()
		store, err := badger.NewBadgerRecordStoreWithDefaults(ctx, dbPath)
		if err != nil {
			t.Fatalf("Failed to create BadgerRecordStore: %v", err)
		}
		return store, registry.New(store)
	}

	// ========================================================================
	// Test: Create store and verify healthcheck
	// ========================================================================

	t.Run("CreateStoreAndHealthcheck", func(t *testing.T) {
		store, _ := open(t)
		defer store.Close()

		if err := store.Healthcheck(ctx); err != nil {
			t.Fatalf("Healthcheck failed: %v", err)
		}
	})

	// ========================================================================
	// Test: Create records
	// ========================================================================

	t.Run("CreateRecords", func(t *testing.T) {
		store, reg := open(t)
		defer store.Close()

		for i, name := range []string{"report.pdf", "photo.png", "sheet.xls"} {
			id, err := reg.Create(ctx, registry.Call{Caller: "alice", Timestamp: created},
				record.Fields{Name: name, Kind: record.ParseKind(filepath.Ext(name)), Size: 100})
			if err != nil {
				t.Fatalf("Create %s failed: %v", name, err)
			}
			if id != record.ID(i) {
				t.Fatalf("Expected id %d, got %d", i, id)
			}
		}
	})

	// ========================================================================
	// Test: Records and counter survive a restart
	// ========================================================================

	t.Run("PersistenceAcrossRestart", func(t *testing.T) {
		store, reg := open(t)
		defer store.Close()

		rec, err := reg.Read(ctx, 1)
		if err != nil {
			t.Fatalf("Read failed: %v", err)
		}
		if rec == nil {
			t.Fatal("Expected record 1 to survive restart")
		}
		if rec.Name != "photo.png" || rec.Kind != record.KindPng || rec.Owner != "alice" {
			t.Errorf("Unexpected record after restart: %+v", rec)
		}
		if !rec.CreatedAt.Equal(created) {
			t.Errorf("Expected created_at %v, got %v", created, rec.CreatedAt)
		}

		next, err := reg.NextID(ctx)
		if err != nil {
			t.Fatalf("NextID failed: %v", err)
		}
		if next != 3 {
			t.Errorf("Expected next id 3 after restart, got %d", next)
		}

		id, err := reg.Create(ctx, registry.Call{Caller: "bob", Timestamp: created}, record.Fields{Name: "notes.txt"})
		if err != nil {
			t.Fatalf("Create failed: %v", err)
		}
		if id != 3 {
			t.Errorf("Expected id 3, got %d", id)
		}
	})

	// ========================================================================
	// Test: Ownership is enforced on persisted records
	// ========================================================================

	t.Run("OwnershipAcrossRestart", func(t *testing.T) {
		store, reg := open(t)
		defer store.Close()

		ok, err := reg.Delete(ctx, registry.Call{Caller: "bob"}, 0)
		if err != nil {
			t.Fatalf("Delete failed: %v", err)
		}
		if ok {
			t.Fatal("Expected bob to be refused deleting alice's record")
		}

		ok, err = reg.Delete(ctx, registry.Call{Caller: "alice"}, 0)
		if err != nil {
			t.Fatalf("Delete failed: %v", err)
		}
		if !ok {
			t.Fatal("Expected alice to delete her record")
		}
	})

	t.Run("DeleteSurvivesRestart", func(t *testing.T) {
		store, reg := open(t)
		defer store.Close()

		rec, err := reg.Read(ctx, 0)
		if err != nil {
			t.Fatalf("Read failed: %v", err)
		}
		if rec != nil {
			t.Fatalf("Expected record 0 to stay deleted, got %+v", rec)
		}
	})

	// ========================================================================
	// Test: Exhaustion leaves persisted state untouched
	// ========================================================================

	t.Run("Exhaustion", func(t *testing.T) {
		store, reg := open(t)
		defer store.Close()

		if err := store.Update(ctx, func(tx record.Tx) error {
			return tx.SetNextID(math.MaxUint64)
		}); err != nil {
			t.Fatalf("SetNextID failed: %v", err)
		}

		if _, err := reg.Create(ctx, registry.Call{Caller: "alice"}, record.Fields{Name: "late"}); err != registry.ErrIDSpaceExhausted {
			t.Fatalf("Expected ErrIDSpaceExhausted, got %v", err)
		}

		next, err := reg.NextID(ctx)
		if err != nil {
			t.Fatalf("NextID failed: %v", err)
		}
		if next != math.MaxUint64 {
			t.Errorf("Expected counter to stay at MaxUint64, got %d", next)
		}
	})
}
