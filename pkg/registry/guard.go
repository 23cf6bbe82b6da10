package registry

import "github.com/marmos91/dittoreg/pkg/store/record"

// Authorize reports whether caller may mutate or remove rec, i.e. whether
// caller is the record's owner. A nil record is never authorized.
func Authorize(rec *record.Record, caller record.Identity) bool {
	return rec != nil && rec.Owner == caller
}
