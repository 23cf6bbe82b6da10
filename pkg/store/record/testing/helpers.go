package testing

import (
	"context"
	"testing"
	"time"

	"github.com/marmos91/dittoreg/pkg/store/record"
	"github.com/stretchr/testify/require"
)

// sampleRecord builds a record with deterministic field values.
func sampleRecord(id record.ID, owner record.Identity) *record.Record {
	return &record.Record{
		ID:          id,
		Name:        "report.pdf",
		Kind:        record.KindPdf,
		Size:        1024,
		Description: "Q1 report",
		CreatedAt:   time.Date(2024, 3, 1, 12, 0, 0, 123456789, time.UTC),
		Owner:       owner,
	}
}

// putRecord stores rec in its own transaction.
func putRecord(t *testing.T, store record.Store, rec *record.Record) {
	t.Helper()
	err := store.Update(context.Background(), func(tx record.Tx) error {
		return tx.Put(rec.ID, rec)
	})
	require.NoError(t, err)
}

// getRecord reads a record in its own transaction.
func getRecord(t *testing.T, store record.Store, id record.ID) (*record.Record, error) {
	t.Helper()
	var rec *record.Record
	err := store.View(context.Background(), func(tx record.Tx) error {
		got, err := tx.Get(id)
		rec = got
		return err
	})
	return rec, err
}

// requireSameRecord compares records field by field, using time.Equal for
// CreatedAt since backends may change the time's location.
func requireSameRecord(t *testing.T, want, got *record.Record) {
	t.Helper()
	require.NotNil(t, got)
	require.Equal(t, want.ID, got.ID)
	require.Equal(t, want.Name, got.Name)
	require.Equal(t, want.Kind, got.Kind)
	require.Equal(t, want.Size, got.Size)
	require.Equal(t, want.Description, got.Description)
	require.Equal(t, want.Owner, got.Owner)
	require.True(t, want.CreatedAt.Equal(got.CreatedAt), "created_at: want %v, got %v", want.CreatedAt, got.CreatedAt)
}
