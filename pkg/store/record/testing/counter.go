package testing

import (
	"context"
	"testing"

	"github.com/marmos91/dittoreg/pkg/store/record"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// RunCounterTests executes allocator counter persistence tests.
func (suite *StoreTestSuite) RunCounterTests(t *testing.T) {
	t.Run("StartsAtZero", suite.testCounterStartsAtZero)
	t.Run("SetAndRead", suite.testCounterSetAndRead)
	t.Run("IndependentOfRecords", suite.testCounterIndependentOfRecords)
}

func (suite *StoreTestSuite) testCounterStartsAtZero(t *testing.T) {
	store := suite.newStore(t)

	err := store.View(context.Background(), func(tx record.Tx) error {
		next, err := tx.NextID()
		require.NoError(t, err)
		assert.Equal(t, record.ID(0), next)
		return nil
	})
	require.NoError(t, err)
}

func (suite *StoreTestSuite) testCounterSetAndRead(t *testing.T) {
	store := suite.newStore(t)

	for _, want := range []record.ID{1, 17, ^record.ID(0)} {
		err := store.Update(context.Background(), func(tx record.Tx) error {
			return tx.SetNextID(want)
		})
		require.NoError(t, err)

		err = store.View(context.Background(), func(tx record.Tx) error {
			next, err := tx.NextID()
			require.NoError(t, err)
			assert.Equal(t, want, next)
			return nil
		})
		require.NoError(t, err)
	}
}

func (suite *StoreTestSuite) testCounterIndependentOfRecords(t *testing.T) {
	store := suite.newStore(t)

	err := store.Update(context.Background(), func(tx record.Tx) error {
		if err := tx.Put(0, sampleRecord(0, "alice")); err != nil {
			return err
		}
		return tx.SetNextID(1)
	})
	require.NoError(t, err)

	err = store.Update(context.Background(), func(tx record.Tx) error {
		return tx.Remove(0)
	})
	require.NoError(t, err)

	err = store.View(context.Background(), func(tx record.Tx) error {
		next, err := tx.NextID()
		require.NoError(t, err)
		assert.Equal(t, record.ID(1), next, "removing a record must not rewind the counter")
		return nil
	})
	require.NoError(t, err)
}
