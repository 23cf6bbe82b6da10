package testing

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"

	"github.com/marmos91/dittoreg/pkg/store/record"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// RunRecordTests executes get/put/remove tests.
func (suite *StoreTestSuite) RunRecordTests(t *testing.T) {
	t.Run("PutAndGet", suite.testPutAndGet)
	t.Run("Overwrite", suite.testOverwrite)
	t.Run("Remove", suite.testRemove)
	t.Run("KeyMismatch", suite.testKeyMismatch)
	t.Run("ForEach", suite.testForEach)
}

func (suite *StoreTestSuite) testPutAndGet(test *testing.T) {
	test.Run("RoundTrip", func(t *testing.T) {
		store := suite.newStore(t)
		want := sampleRecord(0, "alice")

		putRecord(t, store, want)

		got, err := getRecord(t, store, 0)
		require.NoError(t, err)
		requireSameRecord(t, want, got)
	})

	test.Run("MissingIsNotFound", func(t *testing.T) {
		store := suite.newStore(t)

		got, err := getRecord(t, store, 42)
		assert.Nil(t, got)
		assert.True(t, record.IsNotFound(err), "expected not found, got %v", err)
	})

	test.Run("UnknownKindSurvives", func(t *testing.T) {
		store := suite.newStore(t)
		want := sampleRecord(3, "alice")
		want.Kind = record.KindUnknown

		putRecord(t, store, want)

		got, err := getRecord(t, store, 3)
		require.NoError(t, err)
		assert.Equal(t, record.KindUnknown, got.Kind)
	})

	test.Run("LargeValues", func(t *testing.T) {
		store := suite.newStore(t)
		want := sampleRecord(math.MaxUint64-1, "bob")
		want.Size = math.MaxUint64

		putRecord(t, store, want)

		got, err := getRecord(t, store, math.MaxUint64-1)
		require.NoError(t, err)
		requireSameRecord(t, want, got)
	})

	test.Run("CreationTimeRange", func(t *testing.T) {
		store := suite.newStore(t)
		stamps := []time.Time{
			{},
			time.Date(1600, 1, 1, 0, 0, 0, 0, time.UTC),
			time.Date(1969, 12, 31, 23, 59, 59, 500000000, time.UTC),
			time.Date(2300, 1, 1, 0, 0, 0, 1, time.UTC),
			time.Date(12000, 6, 1, 12, 0, 0, 999999999, time.UTC),
		}

		for i, stamp := range stamps {
			want := sampleRecord(record.ID(i), "alice")
			want.CreatedAt = stamp
			putRecord(t, store, want)

			got, err := getRecord(t, store, want.ID)
			require.NoError(t, err)
			requireSameRecord(t, want, got)
		}
	})

	test.Run("ReturnsCopy", func(t *testing.T) {
		store := suite.newStore(t)
		putRecord(t, store, sampleRecord(1, "alice"))

		first, err := getRecord(t, store, 1)
		require.NoError(t, err)
		first.Name = "mutated"

		second, err := getRecord(t, store, 1)
		require.NoError(t, err)
		assert.Equal(t, "report.pdf", second.Name)
	})
}

func (suite *StoreTestSuite) testOverwrite(t *testing.T) {
	store := suite.newStore(t)
	putRecord(t, store, sampleRecord(5, "alice"))

	updated := sampleRecord(5, "alice")
	updated.Name = "report_v2.pdf"
	updated.Size = 2048
	putRecord(t, store, updated)

	got, err := getRecord(t, store, 5)
	require.NoError(t, err)
	requireSameRecord(t, updated, got)
}

func (suite *StoreTestSuite) testRemove(test *testing.T) {
	test.Run("Existing", func(t *testing.T) {
		store := suite.newStore(t)
		putRecord(t, store, sampleRecord(0, "alice"))

		err := store.Update(context.Background(), func(tx record.Tx) error {
			return tx.Remove(0)
		})
		require.NoError(t, err)

		_, err = getRecord(t, store, 0)
		assert.True(t, record.IsNotFound(err))
	})

	test.Run("AbsentIsNoop", func(t *testing.T) {
		store := suite.newStore(t)

		err := store.Update(context.Background(), func(tx record.Tx) error {
			return tx.Remove(99)
		})
		assert.NoError(t, err)
	})
}

func (suite *StoreTestSuite) testKeyMismatch(t *testing.T) {
	store := suite.newStore(t)

	err := store.Update(context.Background(), func(tx record.Tx) error {
		return tx.Put(1, sampleRecord(2, "alice"))
	})
	require.Error(t, err)
	assert.True(t, record.HasCode(err, record.ErrInvalidArgument))

	_, err = getRecord(t, store, 1)
	assert.True(t, record.IsNotFound(err))
	_, err = getRecord(t, store, 2)
	assert.True(t, record.IsNotFound(err))
}

func (suite *StoreTestSuite) testForEach(test *testing.T) {
	test.Run("AscendingOrder", func(t *testing.T) {
		store := suite.newStore(t)
		for _, id := range []record.ID{7, 1, 300, 0, 42} {
			putRecord(t, store, sampleRecord(id, "alice"))
		}

		var ids []record.ID
		err := store.View(context.Background(), func(tx record.Tx) error {
			return tx.ForEach(func(rec *record.Record) error {
				ids = append(ids, rec.ID)
				return nil
			})
		})
		require.NoError(t, err)
		assert.Equal(t, []record.ID{0, 1, 7, 42, 300}, ids)
	})

	test.Run("StopsOnError", func(t *testing.T) {
		store := suite.newStore(t)
		putRecord(t, store, sampleRecord(0, "alice"))
		putRecord(t, store, sampleRecord(1, "alice"))

		stop := errors.New("stop")
		calls := 0
		err := store.View(context.Background(), func(tx record.Tx) error {
			return tx.ForEach(func(rec *record.Record) error {
				calls++
				return stop
			})
		})
		assert.ErrorIs(t, err, stop)
		assert.Equal(t, 1, calls)
	})

	test.Run("Empty", func(t *testing.T) {
		store := suite.newStore(t)

		calls := 0
		err := store.View(context.Background(), func(tx record.Tx) error {
			return tx.ForEach(func(rec *record.Record) error {
				calls++
				return nil
			})
		})
		require.NoError(t, err)
		assert.Zero(t, calls)
	})
}
