package registry

import (
	"errors"
	"math"

	"github.com/marmos91/dittoreg/pkg/store/record"
)

// ErrIDSpaceExhausted is returned when the allocator counter cannot advance
// without wrapping around.
//
// It is fatal: the create that hit it changed nothing, and every later create
// will hit it too. Hosts must stop rather than retry.
var ErrIDSpaceExhausted = errors.New("identifier space exhausted")

// Counter is the persisted allocator state. record.Tx satisfies it.
type Counter interface {
	NextID() (record.ID, error)
	SetNextID(next record.ID) error
}

// Allocate returns the counter's current value and advances it by one.
//
// The last representable ID is never issued, since handing it out would
// require the counter to wrap. On error the counter is left untouched.
func Allocate(counter Counter) (record.ID, error) {
	next, err := counter.NextID()
	if err != nil {
		return 0, err
	}
	if next == math.MaxUint64 {
		return 0, ErrIDSpaceExhausted
	}
	if err := counter.SetNextID(next + 1); err != nil {
		return 0, err
	}
	return next, nil
}
