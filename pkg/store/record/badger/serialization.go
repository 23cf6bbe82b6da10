package badger

import (
	"encoding/binary"
	"encoding/json"
	"fmt"
	"time"

	"github.com/marmos91/dittoreg/pkg/store/record"
)

// storedRecord is the on-disk JSON form of a record.
//
// It is kept separate from record.Record so the persisted layout can evolve
// independently of the in-memory type.
type storedRecord struct {
	ID          uint64 `json:"id"`
	Name        string `json:"name"`
	Kind        string `json:"kind"`
	Size        uint64 `json:"size"`
	Description string `json:"description"`
	CreatedSec  int64  `json:"created_sec"`
	CreatedNsec int32  `json:"created_nsec"`
	Owner       string `json:"owner"`

	// LegacyCreatedAt is the creation time as written by older versions,
	// which stored it as an RFC 3339 string.
	LegacyCreatedAt *time.Time `json:"created_at,omitempty"`
}

// createdAt returns the stored creation time in UTC.
func (r *storedRecord) createdAt() time.Time {
	if r.LegacyCreatedAt != nil {
		return r.LegacyCreatedAt.UTC()
	}
	return time.Unix(r.CreatedSec, int64(r.CreatedNsec)).UTC()
}

// encodeRecord serializes a record to JSON bytes.
func encodeRecord(rec *record.Record) ([]byte, error) {
	data := storedRecord{
		ID:          uint64(rec.ID),
		Name:        rec.Name,
		Kind:        rec.Kind.String(),
		Size:        rec.Size,
		Description: rec.Description,
		CreatedSec:  rec.CreatedAt.Unix(),
		CreatedNsec: int32(rec.CreatedAt.Nanosecond()),
		Owner:       string(rec.Owner),
	}
	bytes, err := json.Marshal(&data)
	if err != nil {
		return nil, fmt.Errorf("failed to encode record: %w", err)
	}
	return bytes, nil
}

// decodeRecord deserializes a record from JSON bytes.
//
// Unknown kind names decode to record.KindUnknown.
func decodeRecord(bytes []byte) (*record.Record, error) {
	var data storedRecord
	if err := json.Unmarshal(bytes, &data); err != nil {
		return nil, &record.StoreError{
			Code:    record.ErrCorrupted,
			Message: fmt.Sprintf("failed to decode record: %v", err),
		}
	}
	return &record.Record{
		ID:          record.ID(data.ID),
		Name:        data.Name,
		Kind:        record.ParseKind(data.Kind),
		Size:        data.Size,
		Description: data.Description,
		CreatedAt:   data.createdAt(),
		Owner:       record.Identity(data.Owner),
	}, nil
}

// encodeUint64 serializes a uint64 to 8 big-endian bytes.
func encodeUint64(value uint64) []byte {
	bytes := make([]byte, 8)
	binary.BigEndian.PutUint64(bytes, value)
	return bytes
}

// decodeUint64 deserializes a uint64 from 8 big-endian bytes.
func decodeUint64(bytes []byte) (uint64, error) {
	if len(bytes) != 8 {
		return 0, &record.StoreError{
			Code:    record.ErrCorrupted,
			Message: fmt.Sprintf("invalid uint64 bytes: expected 8 bytes, got %d", len(bytes)),
		}
	}
	return binary.BigEndian.Uint64(bytes), nil
}
