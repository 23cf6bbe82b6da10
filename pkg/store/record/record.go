package record

import (
	"strconv"
	"time"
)

// ID identifies a record. IDs are handed out by the registry allocator in
// strictly increasing order starting at 0 and are never reused.
type ID uint64

// String returns the decimal representation of the ID.
func (id ID) String() string {
	return strconv.FormatUint(uint64(id), 10)
}

// ParseID parses a decimal record ID.
func ParseID(s string) (ID, error) {
	v, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return 0, &StoreError{
			Code:    ErrInvalidArgument,
			Message: "invalid record id " + strconv.Quote(s),
		}
	}
	return ID(v), nil
}

// Identity is the opaque caller identity attached to an operation by the
// host environment.
//
// The registry never inspects an identity beyond comparing it for equality.
// Authentication happens before an identity reaches this package.
type Identity string

// Record is the metadata entry for one user-owned file.
//
// ID, Owner and CreatedAt are fixed at creation. Name, Kind, Size and
// Description are replaced together by an owner update.
type Record struct {
	// ID is the record key, assigned at creation
	ID ID `json:"id" yaml:"id"`

	// Name is the file name (not required to be unique)
	Name string `json:"name" yaml:"name"`

	// Kind classifies the file (KindUnknown for anything unrecognized)
	Kind Kind `json:"kind" yaml:"kind"`

	// Size is the file size in bytes
	Size uint64 `json:"size" yaml:"size"`

	// Description is free-form text supplied by the owner
	Description string `json:"description" yaml:"description"`

	// CreatedAt is the host timestamp captured when the record was created
	CreatedAt time.Time `json:"created_at" yaml:"created_at"`

	// Owner is the identity that created the record
	Owner Identity `json:"owner" yaml:"owner"`
}

// Clone returns a copy of the record. Stores hand out clones so callers can
// never mutate stored state in place.
func (r *Record) Clone() *Record {
	if r == nil {
		return nil
	}
	c := *r
	return &c
}

// Fields holds the fields an owner may replace with an update.
type Fields struct {
	Name        string
	Kind        Kind
	Size        uint64
	Description string
}

// Apply overwrites the mutable fields of r, leaving ID, Owner and CreatedAt
// untouched.
func (r *Record) Apply(m Fields) {
	r.Name = m.Name
	r.Kind = m.Kind
	r.Size = m.Size
	r.Description = m.Description
}
