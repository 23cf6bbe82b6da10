package snapshot

import (
	"context"
	"time"

	"github.com/marmos91/dittoreg/pkg/metrics"
)

// instrumentedTarget reports every transfer of the wrapped target.
type instrumentedTarget struct {
	Target
	kind    string
	metrics metrics.SnapshotMetrics
}

// WithMetrics wraps target so each Put and Get is reported to m under the
// given target kind ("file", "s3"). A nil m returns target unchanged.
func WithMetrics(target Target, kind string, m metrics.SnapshotMetrics) Target {
	if m == nil {
		return target
	}
	return &instrumentedTarget{Target: target, kind: kind, metrics: m}
}

func (t *instrumentedTarget) Put(ctx context.Context, key string, data []byte) error {
	start := time.Now()
	err := t.Target.Put(ctx, key, data)
	n := len(data)
	if err != nil {
		n = 0
	}
	t.metrics.ObserveTransfer("put", t.kind, time.Since(start), n, err)
	return err
}

func (t *instrumentedTarget) Get(ctx context.Context, key string) ([]byte, error) {
	start := time.Now()
	data, err := t.Target.Get(ctx, key)
	t.metrics.ObserveTransfer("get", t.kind, time.Since(start), len(data), err)
	return data, err
}
