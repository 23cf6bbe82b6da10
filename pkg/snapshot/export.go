package snapshot

import (
	"bytes"
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/marmos91/dittoreg/internal/logger"
	"github.com/marmos91/dittoreg/pkg/store/record"
)

// NewKey returns a fresh, unique object key for a snapshot in format.
func NewKey(format Format) string {
	return fmt.Sprintf("dittoreg-%s.%s", uuid.NewString(), format)
}

// Export captures store, encodes it with codec and writes it to target under
// a newly generated key, which is returned.
func Export(ctx context.Context, store record.Store, codec Codec, target Target) (string, error) {
	state, err := Capture(ctx, store)
	if err != nil {
		return "", err
	}

	var buf bytes.Buffer
	if err := codec.Encode(&buf, state); err != nil {
		return "", err
	}

	key := NewKey(codec.Format())
	if err := target.Put(ctx, key, buf.Bytes()); err != nil {
		return "", err
	}

	logger.Info("Exported %d records (next id %d) to %s", len(state.Records), state.NextID, target.Describe(key))
	return key, nil
}

// Import reads the snapshot stored under key, decodes it according to the
// key's extension and replaces the contents of store with it.
func Import(ctx context.Context, store record.Store, target Target, key string) (*State, error) {
	format, err := FormatOf(key)
	if err != nil {
		return nil, err
	}
	codec, err := CodecFor(format)
	if err != nil {
		return nil, err
	}

	data, err := target.Get(ctx, key)
	if err != nil {
		return nil, err
	}

	state, err := codec.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}

	if err := Restore(ctx, store, state); err != nil {
		return nil, err
	}

	logger.Info("Imported %d records (next id %d) from %s", len(state.Records), state.NextID, target.Describe(key))
	return state, nil
}
