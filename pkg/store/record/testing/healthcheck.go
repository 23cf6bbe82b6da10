package testing

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

// RunHealthcheckTests executes healthcheck tests.
func (suite *StoreTestSuite) RunHealthcheckTests(t *testing.T) {
	t.Run("Healthy", func(t *testing.T) {
		store := suite.newStore(t)
		assert.NoError(t, store.Healthcheck(context.Background()))
	})

	t.Run("CancelledContext", func(t *testing.T) {
		store := suite.newStore(t)
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		assert.Error(t, store.Healthcheck(ctx))
	})
}
