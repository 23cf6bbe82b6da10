package badger

import (
	"encoding/binary"
	"fmt"

	"github.com/marmos91/dittoreg/pkg/store/record"
)

// Database Key Namespace Design
// ==============================
//
// Data Type        Prefix   Key Format              Value Type
// ================================================================
// Records          "r:"     r:<id, 8 bytes BE>      storedRecord (JSON)
// Registry state   "cfg:"   cfg:next_id             uint64 (8 bytes BE)
//
// Record IDs are encoded big-endian so that BadgerDB's lexicographic key
// order equals numeric ID order, which gives ForEach its ascending order
// with a plain prefix scan.

const (
	// prefixRecord is the key prefix for record data
	prefixRecord = "r:"

	// prefixConfig is the key prefix for registry singletons
	prefixConfig = "cfg:"
)

// keyRecord generates the key for a record.
func keyRecord(id record.ID) []byte {
	key := make([]byte, len(prefixRecord)+8)
	copy(key, prefixRecord)
	binary.BigEndian.PutUint64(key[len(prefixRecord):], uint64(id))
	return key
}

// keyRecordPrefix is the scan prefix covering all records.
func keyRecordPrefix() []byte {
	return []byte(prefixRecord)
}

// idFromRecordKey extracts the record ID from a record key.
func idFromRecordKey(key []byte) (record.ID, error) {
	if len(key) != len(prefixRecord)+8 || string(key[:len(prefixRecord)]) != prefixRecord {
		return 0, fmt.Errorf("malformed record key %q", key)
	}
	return record.ID(binary.BigEndian.Uint64(key[len(prefixRecord):])), nil
}

// keyNextID is the singleton key of the allocator counter.
func keyNextID() []byte {
	return []byte(prefixConfig + "next_id")
}
