package usecase

import (
	"context"
	"log/slog"

	"github.com/celustore/payserver/internal/adapter/gateway"
	"github.com/celustore/payserver/internal/domain/model"
	"github.com/celustore/payserver/internal/domain/repository"
)

// ReversalCompensator issues the compensating "0400" message when a
// timeout or ambiguous code leaves the outcome of an authorization
// unknown, and records the compensation outcome on the order. A failed
// reversal is terminal (ERROR_REVERSA) and requires manual
// reconciliation; it is never retried automatically.
type ReversalCompensator struct {
	client gateway.Client
	orders repository.OrderRepository
	logger *slog.Logger
}

// NewReversalCompensator constructs ReversalCompensator.
func NewReversalCompensator(client gateway.Client, orders repository.OrderRepository, logger *slog.Logger) *ReversalCompensator {
	return &ReversalCompensator{client: client, orders: orders, logger: logger}
}

// ReverseInitial reverses a step-1 authorization (or voids a completed
// one on cancellation), reusing the original trace number and amount.
// The returned bool reports whether the reversal itself succeeded.
func (c *ReversalCompensator) ReverseInitial(ctx context.Context, orderID int64, traceNo, amountMinor, retrievalRef string) (bool, error) {
	payload := gateway.NewInitialReversal(traceNo, amountMinor, retrievalRef)
	return c.send(ctx, orderID, payload)
}

// ReverseStep reverses a failed step-3/5 call. It takes the exact payload
// object used in the failed call; only the message type changes and the
// installment field is cleared.
func (c *ReversalCompensator) ReverseStep(ctx context.Context, orderID int64, orig *gateway.TransactionRequest) (bool, error) {
	payload := gateway.NewStepReversal(orig)
	return c.send(ctx, orderID, payload)
}

func (c *ReversalCompensator) send(ctx context.Context, orderID int64, payload *gateway.TransactionRequest) (bool, error) {
	resp, err := c.client.Call(ctx, payload, gateway.TierDefault)
	if err != nil {
		c.logger.Error("reversal call failed",
			slog.Int64("order", orderID),
			slog.String("trace", payload.TraceNo),
			slog.String("error", err.Error()),
		)
		if uerr := c.orders.SetPaymentStatus(ctx, orderID, model.PaymentStatusReversalError, err.Error()); uerr != nil {
			return false, uerr
		}
		return false, nil
	}

	if gateway.IsApproved(resp.ResponseCode) {
		c.logger.Info("reversal executed",
			slog.Int64("order", orderID),
			slog.String("trace", payload.TraceNo),
		)
		if uerr := c.orders.SetPaymentStatus(ctx, orderID, model.PaymentStatusReversed, gateway.Message(resp.ResponseCode)); uerr != nil {
			return false, uerr
		}
		return true, nil
	}

	c.logger.Error("reversal rejected by gateway",
		slog.Int64("order", orderID),
		slog.String("trace", payload.TraceNo),
		slog.String("code", resp.ResponseCode),
	)
	detail := resp.ResponseCode + ": " + gateway.Message(resp.ResponseCode)
	if uerr := c.orders.SetPaymentStatus(ctx, orderID, model.PaymentStatusReversalError, detail); uerr != nil {
		return false, uerr
	}
	return false, nil
}
