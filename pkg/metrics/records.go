package metrics

// Outcome labels the result of a registry operation.
type Outcome string

const (
	// OutcomeOK means the operation applied (or, for reads, found a record)
	OutcomeOK Outcome = "ok"

	// OutcomeNotFound means no record exists at the requested ID
	OutcomeNotFound Outcome = "not_found"

	// OutcomeUnauthorized means the caller does not own the record
	OutcomeUnauthorized Outcome = "unauthorized"

	// OutcomeExhausted means the identifier space is used up
	OutcomeExhausted Outcome = "exhausted"

	// OutcomeError means the store failed
	OutcomeError Outcome = "error"
)

// RecordMetrics provides observability for registry operations.
//
// Callers see NotFound and Unauthorized as the same false result. Metrics
// keep them apart for operators.
type RecordMetrics interface {
	// RecordOperation counts one completed operation.
	//
	// Parameters:
	//   - operation: "create", "read", "update" or "delete"
	//   - outcome: how the operation ended
	RecordOperation(operation string, outcome Outcome)

	// SetNextID publishes the allocator counter after a create.
	SetNextID(next uint64)
}

// NewNoopRecordMetrics returns a RecordMetrics that does nothing.
func NewNoopRecordMetrics() RecordMetrics {
	return noopRecordMetrics{}
}

// noopRecordMetrics is a no-op implementation of RecordMetrics with zero overhead.
type noopRecordMetrics struct{}

func (noopRecordMetrics) RecordOperation(operation string, outcome Outcome) {}
func (noopRecordMetrics) SetNextID(next uint64)                             {}
