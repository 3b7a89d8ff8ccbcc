package repository

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/celustore/payserver/internal/domain/model"
)

// OrderDraft is the input to transactional order creation. Totals are
// computed inside the creation transaction from current unit prices.
type OrderDraft struct {
	Customer      model.Customer
	PaymentMethod model.PaymentMethod
	ShippingFee   decimal.Decimal
	Items         []DraftItem
}

// DraftItem references an inventory unit and a requested quantity.
type DraftItem struct {
	UnitID   int64
	Quantity int32
}

// OrderRepository describes persistence operations with orders. Mutating
// operations run inside a single database transaction together with the
// inventory movement they imply.
type OrderRepository interface {
	// Create validates stock, decrements inventory and inserts the order
	// with its items atomically.
	Create(ctx context.Context, draft OrderDraft) (*model.Order, error)
	GetByID(ctx context.Context, id int64) (*model.Order, error)

	// SaveAttempt persists the gateway blob and the original trace number
	// recorded at step 1.
	SaveAttempt(ctx context.Context, orderID int64, blob []byte, originalTrace string) error
	// SaveResponse updates only the gateway blob (raw response cache).
	SaveResponse(ctx context.Context, orderID int64, blob []byte) error

	// ApprovePayment marks payment APROBADO, moves the order to
	// PROCESANDO and stores the voucher, in one transaction.
	ApprovePayment(ctx context.Context, orderID int64, voucher model.Voucher) error
	// RejectPayment records the terminal rejection code and message.
	RejectPayment(ctx context.Context, orderID int64, status model.PaymentStatus, code, message string) error
	// SetPaymentStatus records a reversal outcome, or resets a declined
	// payment to PENDIENTE when a new attempt starts.
	SetPaymentStatus(ctx context.Context, orderID int64, status model.PaymentStatus, detail string) error

	// CancelAndRestock marks the order CANCELADO and restores inventory
	// for its items atomically.
	CancelAndRestock(ctx context.Context, orderID int64) error

	// ListStaleCardAttempts returns card orders still PENDIENTE whose
	// last mutation predates cutoff and that were not flagged yet.
	ListStaleCardAttempts(ctx context.Context, cutoff time.Time, limit int) ([]model.Order, error)
	// FlagAttempt records that a stale attempt was reported.
	FlagAttempt(ctx context.Context, orderID int64) error
}
