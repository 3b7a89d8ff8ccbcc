package worker

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/celustore/payserver/internal/domain/model"
)

type auditStub struct {
	mu      sync.Mutex
	stale   func(cutoff time.Time, limit int) ([]model.Order, error)
	flagged []int64
	flagErr error
}

func (s *auditStub) StaleCardAttempts(_ context.Context, cutoff time.Time, limit int) ([]model.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stale == nil {
		return nil, nil
	}
	return s.stale(cutoff, limit)
}

func (s *auditStub) FlagAttempt(_ context.Context, orderID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.flagged = append(s.flagged, orderID)
	return s.flagErr
}

func (s *auditStub) flaggedIDs() []int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]int64, len(s.flagged))
	copy(out, s.flagged)
	return out
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestSweeperFlagsStaleAttempts(t *testing.T) {
	facade := &auditStub{}
	var once sync.Once
	facade.stale = func(_ time.Time, limit int) ([]model.Order, error) {
		if limit != 2 {
			t.Errorf("expected batch size 2, got %d", limit)
		}
		var orders []model.Order
		once.Do(func() {
			orders = []model.Order{{ID: 7}, {ID: 9}}
		})
		return orders, nil
	}

	sweeper := NewAttemptSweeper(facade, 5*time.Millisecond, time.Hour, 2, 3, testLogger())
	sweeper.Start(context.Background())

	deadline := time.After(2 * time.Second)
	for len(facade.flaggedIDs()) < 2 {
		select {
		case <-deadline:
			t.Fatalf("timed out waiting for flags, got %v", facade.flaggedIDs())
		case <-time.After(5 * time.Millisecond):
		}
	}
	sweeper.Stop()

	seen := map[int64]bool{}
	for _, id := range facade.flaggedIDs() {
		seen[id] = true
	}
	if !seen[7] || !seen[9] {
		t.Fatalf("expected orders 7 and 9 flagged, got %v", facade.flaggedIDs())
	}
}

func TestSweeperSurvivesFetchErrors(t *testing.T) {
	facade := &auditStub{}
	var calls int
	var mu sync.Mutex
	facade.stale = func(time.Time, int) ([]model.Order, error) {
		mu.Lock()
		defer mu.Unlock()
		calls++
		if calls == 1 {
			return nil, errors.New("db unavailable")
		}
		if calls == 2 {
			return []model.Order{{ID: 11}}, nil
		}
		return nil, nil
	}

	sweeper := NewAttemptSweeper(facade, 5*time.Millisecond, time.Hour, 1, 1, testLogger())
	sweeper.Start(context.Background())

	deadline := time.After(2 * time.Second)
	for len(facade.flaggedIDs()) == 0 {
		select {
		case <-deadline:
			t.Fatal("sweeper must keep polling after a fetch error")
		case <-time.After(5 * time.Millisecond):
		}
	}
	sweeper.Stop()
}

func TestSweeperStopBeforeFirstPoll(t *testing.T) {
	facade := &auditStub{stale: func(time.Time, int) ([]model.Order, error) {
		t.Error("no fetch expected before the first tick")
		return nil, nil
	}}

	sweeper := NewAttemptSweeper(facade, time.Hour, time.Hour, 1, 2, testLogger())
	sweeper.Start(context.Background())

	done := make(chan struct{})
	go func() {
		sweeper.Stop()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Stop did not return")
	}
}

func TestSweeperNormalizesPoolSizes(t *testing.T) {
	sweeper := NewAttemptSweeper(&auditStub{}, time.Hour, time.Hour, 0, 0, testLogger())
	if sweeper.workers != 1 || sweeper.batchSize != 1 {
		t.Fatalf("expected minimum pool of 1/1, got %d/%d", sweeper.workers, sweeper.batchSize)
	}
}
