// Package testing provides a conformance suite for record.Store
// implementations.
package testing

import (
	"testing"

	"github.com/marmos91/dittoreg/pkg/store/record"
)

// StoreTestSuite tests the record.Store contract, not implementation
// details, so every backend runs the same checks.
type StoreTestSuite struct {
	// NewStore creates a fresh, empty store for each test. The suite
	// closes it when the test ends.
	NewStore func(t *testing.T) record.Store
}

// Run executes all tests in the suite.
func (suite *StoreTestSuite) Run(test *testing.T) {
	test.Run("Record", suite.RunRecordTests)
	test.Run("Counter", suite.RunCounterTests)
	test.Run("Transaction", suite.RunTransactionTests)
	test.Run("Healthcheck", suite.RunHealthcheckTests)
}

func (suite *StoreTestSuite) newStore(t *testing.T) record.Store {
	t.Helper()
	store := suite.NewStore(t)
	t.Cleanup(func() { _ = store.Close() })
	return store
}
