package bot

import (
	"context"
	"hash/fnv"
	"sync"
	"time"

	"pizzabot/internal/metrics"
)

// call runs fn under its own deadline and turns any failure into a
// *GatewayError tagged with op.
func call[T any](ctx context.Context, timeout time.Duration, op string, fn func(context.Context) (T, error)) (T, error) {
	cctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	v, err := fn(cctx)
	if err != nil {
		metrics.GatewayErrors.WithLabelValues(op).Inc()
		return v, &GatewayError{Op: op, Err: err}
	}
	return v, nil
}

func do(ctx context.Context, timeout time.Duration, op string, fn func(context.Context) error) error {
	_, err := call(ctx, timeout, op, func(c context.Context) (struct{}, error) {
		return struct{}{}, fn(c)
	})
	return err
}

const lockStripes = 64

// keyLock serializes events per session key inside one process. Keys share
// stripes, so unrelated users occasionally wait on each other.
type keyLock struct {
	stripes [lockStripes]sync.Mutex
}

func (l *keyLock) lock(key string) func() {
	h := fnv.New32a()
	_, _ = h.Write([]byte(key))
	m := &l.stripes[h.Sum32()%lockStripes]
	m.Lock()
	return m.Unlock
}
