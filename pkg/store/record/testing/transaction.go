package testing

import (
	"context"
	"errors"
	"testing"

	"github.com/marmos91/dittoreg/pkg/store/record"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// RunTransactionTests executes atomicity and isolation tests.
func (suite *StoreTestSuite) RunTransactionTests(t *testing.T) {
	t.Run("RollbackOnError", suite.testRollbackOnError)
	t.Run("ReadYourWrites", suite.testReadYourWrites)
	t.Run("ViewIsReadOnly", suite.testViewIsReadOnly)
	t.Run("CancelledContext", suite.testCancelledContext)
}

func (suite *StoreTestSuite) testRollbackOnError(t *testing.T) {
	store := suite.newStore(t)
	putRecord(t, store, sampleRecord(0, "alice"))

	abort := errors.New("abort")
	err := store.Update(context.Background(), func(tx record.Tx) error {
		if err := tx.Put(1, sampleRecord(1, "bob")); err != nil {
			return err
		}
		if err := tx.Remove(0); err != nil {
			return err
		}
		if err := tx.SetNextID(2); err != nil {
			return err
		}
		return abort
	})
	assert.ErrorIs(t, err, abort)

	_, err = getRecord(t, store, 0)
	assert.NoError(t, err, "removal must be rolled back")
	_, err = getRecord(t, store, 1)
	assert.True(t, record.IsNotFound(err), "insert must be rolled back")

	err = store.View(context.Background(), func(tx record.Tx) error {
		next, err := tx.NextID()
		require.NoError(t, err)
		assert.Equal(t, record.ID(0), next, "counter must be rolled back")
		return nil
	})
	require.NoError(t, err)
}

func (suite *StoreTestSuite) testReadYourWrites(t *testing.T) {
	store := suite.newStore(t)
	putRecord(t, store, sampleRecord(0, "alice"))

	err := store.Update(context.Background(), func(tx record.Tx) error {
		require.NoError(t, tx.Put(1, sampleRecord(1, "bob")))
		require.NoError(t, tx.Remove(0))
		require.NoError(t, tx.SetNextID(9))

		got, err := tx.Get(1)
		require.NoError(t, err)
		assert.Equal(t, record.Identity("bob"), got.Owner)

		_, err = tx.Get(0)
		assert.True(t, record.IsNotFound(err))

		next, err := tx.NextID()
		require.NoError(t, err)
		assert.Equal(t, record.ID(9), next)

		var ids []record.ID
		require.NoError(t, tx.ForEach(func(rec *record.Record) error {
			ids = append(ids, rec.ID)
			return nil
		}))
		assert.Equal(t, []record.ID{1}, ids)
		return nil
	})
	require.NoError(t, err)
}

func (suite *StoreTestSuite) testViewIsReadOnly(t *testing.T) {
	store := suite.newStore(t)

	err := store.View(context.Background(), func(tx record.Tx) error {
		return tx.Put(0, sampleRecord(0, "alice"))
	})
	require.Error(t, err)

	_, err = getRecord(t, store, 0)
	assert.True(t, record.IsNotFound(err))
}

func (suite *StoreTestSuite) testCancelledContext(t *testing.T) {
	store := suite.newStore(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	called := false
	err := store.Update(ctx, func(tx record.Tx) error {
		called = true
		return nil
	})
	assert.ErrorIs(t, err, context.Canceled)
	assert.False(t, called)
}
