package metrics

import "time"

// SnapshotMetrics provides observability for snapshot transfers.
//
// Unlike RecordMetrics it measures durations: snapshot transfers run in the
// host layer, where querying the clock is allowed.
type SnapshotMetrics interface {
	// ObserveTransfer records one snapshot transfer.
	//
	// Parameters:
	//   - operation: "put" or "get"
	//   - target: "file" or "s3"
	//   - duration: Time taken by the transfer
	//   - bytes: Payload size (0 on failure)
	//   - err: Error if the transfer failed, nil on success
	ObserveTransfer(operation, target string, duration time.Duration, bytes int, err error)
}

// NewNoopSnapshotMetrics returns a SnapshotMetrics that does nothing.
func NewNoopSnapshotMetrics() SnapshotMetrics {
	return noopSnapshotMetrics{}
}

type noopSnapshotMetrics struct{}

func (noopSnapshotMetrics) ObserveTransfer(operation, target string, duration time.Duration, bytes int, err error) {
}
