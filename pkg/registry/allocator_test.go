package registry

import (
	"errors"
	"math"
	"testing"

	"github.com/marmos91/dittoreg/pkg/store/record"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeCounter struct {
	next    record.ID
	sets    int
	readErr error
	setErr  error
}

func (c *fakeCounter) NextID() (record.ID, error) {
	return c.next, c.readErr
}

func (c *fakeCounter) SetNextID(next record.ID) error {
	if c.setErr != nil {
		return c.setErr
	}
	c.sets++
	c.next = next
	return nil
}

func TestAllocate_Sequential(t *testing.T) {
	counter := &fakeCounter{}

	for want := record.ID(0); want < 5; want++ {
		got, err := Allocate(counter)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}
	assert.Equal(t, record.ID(5), counter.next)
}

func TestAllocate_LastIssuableID(t *testing.T) {
	counter := &fakeCounter{next: math.MaxUint64 - 1}

	got, err := Allocate(counter)
	require.NoError(t, err)
	assert.Equal(t, record.ID(math.MaxUint64-1), got)
	assert.Equal(t, record.ID(math.MaxUint64), counter.next)
}

func TestAllocate_Exhausted(t *testing.T) {
	counter := &fakeCounter{next: math.MaxUint64}

	_, err := Allocate(counter)
	assert.ErrorIs(t, err, ErrIDSpaceExhausted)
	assert.Equal(t, record.ID(math.MaxUint64), counter.next)
	assert.Zero(t, counter.sets, "exhaustion must not write the counter")
}

func TestAllocate_CounterErrors(t *testing.T) {
	boom := errors.New("boom")

	_, err := Allocate(&fakeCounter{readErr: boom})
	assert.ErrorIs(t, err, boom)

	_, err = Allocate(&fakeCounter{setErr: boom})
	assert.ErrorIs(t, err, boom)
}
