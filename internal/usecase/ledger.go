package usecase

import (
	"context"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"

	"github.com/celustore/payserver/internal/adapter/gateway"
	domainErrors "github.com/celustore/payserver/internal/domain/errors"
	"github.com/celustore/payserver/internal/domain/model"
	"github.com/celustore/payserver/internal/domain/repository"
)

// OrderLedger is the transactional boundary around order creation and
// cancellation. Inventory is reserved exactly once, at creation, for
// every payment method; cancellation restores it in the same transaction
// as the status transition.
type OrderLedger struct {
	orders      repository.OrderRepository
	inventory   repository.InventoryRepository
	compensator *ReversalCompensator
	shippingFee decimal.Decimal
	logger      *slog.Logger
}

// NewOrderLedger constructs OrderLedger.
func NewOrderLedger(orders repository.OrderRepository, inventory repository.InventoryRepository, compensator *ReversalCompensator, shippingFee decimal.Decimal, logger *slog.Logger) *OrderLedger {
	return &OrderLedger{orders: orders, inventory: inventory, compensator: compensator, shippingFee: shippingFee, logger: logger}
}

// CreateOrder validates the draft and creates the order atomically:
// stock check, inventory decrement and insert happen in one transaction.
func (l *OrderLedger) CreateOrder(ctx context.Context, draft repository.OrderDraft) (*model.Order, error) {
	if len(draft.Items) == 0 {
		return nil, domainErrors.ErrEmptyOrder
	}
	for _, item := range draft.Items {
		if item.Quantity <= 0 {
			return nil, domainErrors.ErrEmptyOrder
		}
	}
	switch draft.PaymentMethod {
	case model.PaymentMethodCashOnDelivery, model.PaymentMethodBankTransfer, model.PaymentMethodCard:
	default:
		return nil, domainErrors.ErrUnsupportedMethod
	}

	// Lock-free availability check before opening the write transaction.
	// Create re-checks stock under FOR UPDATE and stays authoritative.
	for _, item := range draft.Items {
		unit, err := l.inventory.GetUnit(ctx, item.UnitID)
		if err != nil {
			return nil, err
		}
		if unit.Stock < item.Quantity {
			return nil, domainErrors.OutOfStockError{
				ProductName: unit.ProductName,
				Requested:   item.Quantity,
				Available:   unit.Stock,
			}
		}
	}

	draft.ShippingFee = l.shippingFee
	return l.orders.Create(ctx, draft)
}

// ProductUnits lists the sellable variants of one product for checkout.
func (l *OrderLedger) ProductUnits(ctx context.Context, productID int64) ([]model.InventoryUnit, error) {
	return l.inventory.ListByProduct(ctx, productID)
}

// GetOrder returns one order with its items.
func (l *OrderLedger) GetOrder(ctx context.Context, id int64) (*model.Order, error) {
	return l.orders.GetByID(ctx, id)
}

// CancelOrder cancels an order and restores its inventory. When the card
// payment was approved, the original transaction is voided first (reusing
// the stored trace number and amount); cancellation proceeds only if the
// void succeeded or was not applicable.
func (l *OrderLedger) CancelOrder(ctx context.Context, id int64) error {
	order, err := l.orders.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if order.Status == model.OrderStatusCancelled {
		return nil
	}
	if order.Status == model.OrderStatusShipped || order.Status == model.OrderStatusDelivered {
		return domainErrors.ErrInvalidOrderState
	}

	if order.PaymentMethod == model.PaymentMethodCard && order.PaymentStatus == model.PaymentStatusApproved {
		retrievalRef := ""
		if order.Voucher != nil {
			retrievalRef = order.Voucher.RetrievalRef
		}
		executed, err := l.compensator.ReverseInitial(ctx, order.ID, order.OriginalTrace, gateway.AmountMinorUnits(order.Total), retrievalRef)
		if err != nil {
			return err
		}
		if !executed {
			l.logger.Error("void failed, cancellation aborted", slog.Int64("order", order.ID))
			return domainErrors.ErrVoidFailed
		}
	}

	return l.orders.CancelAndRestock(ctx, order.ID)
}

// StaleCardAttempts lists card orders stuck mid-authentication past the
// cutoff; used by the sweeper for manual-review reporting.
func (l *OrderLedger) StaleCardAttempts(ctx context.Context, cutoff time.Time, limit int) ([]model.Order, error) {
	return l.orders.ListStaleCardAttempts(ctx, cutoff, limit)
}

// FlagAttempt records that a stale attempt was reported.
func (l *OrderLedger) FlagAttempt(ctx context.Context, orderID int64) error {
	return l.orders.FlagAttempt(ctx, orderID)
}
