package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand"

	"github.com/celustore/payserver/internal/domain/repository"
)

// traceModulus bounds the 6-digit trace space: values cycle 1..999999.
const traceModulus = 999999

// TraceAllocator produces the bounded, cyclically reused correlation
// identifier that ties every gateway message of one logical transaction
// together.
type TraceAllocator struct {
	traces repository.TraceRepository
	logger *slog.Logger
}

// NewTraceAllocator constructs TraceAllocator.
func NewTraceAllocator(traces repository.TraceRepository, logger *slog.Logger) *TraceAllocator {
	return &TraceAllocator{traces: traces, logger: logger}
}

// Next returns the next 6-digit, left-zero-padded trace number. The
// persistent counter is incremented atomically; wrapping from 999999 back
// to 000001 happens here. When the counter is unavailable the allocator
// falls back to a random value, which weakens duplicate detection at the
// gateway and is therefore logged as degraded.
func (a *TraceAllocator) Next(ctx context.Context) (string, error) {
	n, err := a.traces.NextValue(ctx)
	if err != nil {
		trace := FormatTrace(rand.Int63n(traceModulus) + 1)
		a.logger.Warn("trace counter unavailable, using random trace number",
			slog.String("trace", trace),
			slog.String("error", err.Error()),
		)
		return trace, nil
	}
	return FormatTrace(n), nil
}

// FormatTrace maps the unbounded counter sequence (starting at 1) onto
// the 6-digit cycle "000001".."999999".
func FormatTrace(n int64) string {
	return fmt.Sprintf("%06d", (n-1)%traceModulus+1)
}
