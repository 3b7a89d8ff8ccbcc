package worker

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/celustore/payserver/internal/domain/model"
)

// AuditFacade exposes the subset of application functionality required by the sweeper.
type AuditFacade interface {
	StaleCardAttempts(ctx context.Context, cutoff time.Time, limit int) ([]model.Order, error)
	FlagAttempt(ctx context.Context, orderID int64) error
}

// AttemptSweeper periodically scans for card payments stuck
// mid-authentication (the shopper never returned from the external
// authentication round-trip) and reports them for manual review.
type AttemptSweeper struct {
	facade       AuditFacade
	pollInterval time.Duration
	cutoffAge    time.Duration
	batchSize    int
	workers      int
	logger       *slog.Logger

	jobs   chan model.Order
	done   chan struct{}
	cancel context.CancelFunc
	mu     sync.Mutex
}

// NewAttemptSweeper constructs the stale-attempt sweeper.
func NewAttemptSweeper(facade AuditFacade, pollInterval, cutoffAge time.Duration, batchSize, workers int, logger *slog.Logger) *AttemptSweeper {
	if workers <= 0 {
		workers = 1
	}
	if batchSize <= 0 {
		batchSize = 1
	}
	return &AttemptSweeper{
		facade:       facade,
		pollInterval: pollInterval,
		cutoffAge:    cutoffAge,
		batchSize:    batchSize,
		workers:      workers,
		logger:       logger,
		jobs:         make(chan model.Order, batchSize*workers),
		done:         make(chan struct{}),
	}
}

// Start launches background sweeping.
func (s *AttemptSweeper) Start(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	runCtx, cancel := context.WithCancel(ctx)
	s.cancel = cancel

	group, groupCtx := errgroup.WithContext(runCtx)
	for i := 0; i < s.workers; i++ {
		group.Go(func() error {
			s.flagLoop(groupCtx)
			return nil
		})
	}
	group.Go(func() error {
		s.dispatch(groupCtx)
		return nil
	})

	go func() {
		_ = group.Wait()
		close(s.done)
	}()
}

// Stop waits for all workers to finish.
func (s *AttemptSweeper) Stop() {
	s.mu.Lock()
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
	s.mu.Unlock()

	<-s.done
}

func (s *AttemptSweeper) dispatch(ctx context.Context) {
	defer close(s.jobs)
	ticker := time.NewTicker(s.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.fetchAndDispatch(ctx)
		}
	}
}

func (s *AttemptSweeper) fetchAndDispatch(ctx context.Context) {
	cutoff := time.Now().Add(-s.cutoffAge)
	orders, err := s.facade.StaleCardAttempts(ctx, cutoff, s.batchSize)
	if err != nil {
		s.logger.Error("fetch stale card attempts failed", slog.String("error", err.Error()))
		return
	}
	for _, order := range orders {
		select {
		case <-ctx.Done():
			return
		case s.jobs <- order:
		}
	}
}

func (s *AttemptSweeper) flagLoop(ctx context.Context) {
	for order := range s.jobs {
		s.report(ctx, order)
	}
}

func (s *AttemptSweeper) report(ctx context.Context, order model.Order) {
	s.logger.Warn("card payment stuck mid-authentication, manual review required",
		slog.Int64("order", order.ID),
		slog.String("trace", order.OriginalTrace),
		slog.String("total", order.Total.StringFixed(2)),
		slog.Time("updatedAt", order.UpdatedAt),
	)
	if err := s.facade.FlagAttempt(ctx, order.ID); err != nil {
		s.logger.Error("flag stale attempt failed",
			slog.Int64("order", order.ID),
			slog.String("error", err.Error()),
		)
	}
}
