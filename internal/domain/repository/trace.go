package repository

import "context"

// TraceRepository persists the monotonically increasing trace counter.
// NextValue performs a single atomic increment and returns the raw,
// unbounded sequence value; wrapping onto the 6-digit range is done by
// the allocator.
type TraceRepository interface {
	NextValue(ctx context.Context) (int64, error)
}
