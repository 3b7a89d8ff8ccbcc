package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// OrderStatus describes order fulfillment lifecycle. Values are persisted
// and exposed to clients verbatim.
type OrderStatus string

const (
	OrderStatusPending    OrderStatus = "PENDIENTE"
	OrderStatusProcessing OrderStatus = "PROCESANDO"
	OrderStatusShipped    OrderStatus = "ENVIADO"
	OrderStatusDelivered  OrderStatus = "ENTREGADO"
	OrderStatusCancelled  OrderStatus = "CANCELADO"
)

// PaymentStatus describes the card-payment outcome recorded on the order.
type PaymentStatus string

const (
	PaymentStatusPending       PaymentStatus = "PENDIENTE"
	PaymentStatusApproved      PaymentStatus = "APROBADO"
	PaymentStatusRejected      PaymentStatus = "RECHAZADO"
	PaymentStatusReversed      PaymentStatus = "REVERSADO"
	PaymentStatusReversalError PaymentStatus = "ERROR_REVERSA"
	PaymentStatusError         PaymentStatus = "ERROR"
)

// PaymentMethod enumerates supported checkout payment methods.
type PaymentMethod string

const (
	PaymentMethodCashOnDelivery PaymentMethod = "CONTRA_ENTREGA"
	PaymentMethodBankTransfer   PaymentMethod = "TRANSFERENCIA"
	PaymentMethodCard           PaymentMethod = "TARJETA"
)

// Customer carries the billing identity captured at checkout.
type Customer struct {
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Email     string `json:"email"`
	Phone     string `json:"phone"`
	Address   string `json:"address"`
	Locality  string `json:"locality"`
	State     string `json:"state"`
	Country   string `json:"country"`
}

// VariantSnapshot freezes the variant description at order creation time,
// since the owning product may change afterwards.
type VariantSnapshot struct {
	Color     string `json:"color,omitempty"`
	Capacity  string `json:"capacity,omitempty"`
	Condition string `json:"condition,omitempty"`
}

// OrderItem is a line item owned by an order. Immutable after creation.
type OrderItem struct {
	ID          int64
	OrderID     int64
	ProductID   int64
	ProductType string
	Quantity    int32
	UnitPrice   decimal.Decimal
	Subtotal    decimal.Decimal
	Variant     VariantSnapshot
}

// Voucher holds the fields printed on the customer receipt after approval.
type Voucher struct {
	AuthorizationID string
	RetrievalRef    string
	TransactionAt   time.Time
}

// Order is the purchase aggregate. Payment fields are mutated exclusively
// by the payment orchestrator; status and cancellation by order management.
type Order struct {
	ID            int64
	Status        OrderStatus
	PaymentStatus PaymentStatus
	PaymentMethod PaymentMethod
	Customer      Customer
	Items         []OrderItem
	Subtotal      decimal.Decimal
	Shipping      decimal.Decimal
	Total         decimal.Decimal

	// GatewayBlob stores the serialized GatewayRecord: the last raw gateway
	// response plus the cached step-1 attempt needed by steps 3 and 5.
	GatewayBlob []byte
	// OriginalTrace is the correlation id of the first authorization
	// message, required to void the transaction later.
	OriginalTrace    string
	Voucher          *Voucher
	RejectionCode    string
	RejectionMessage string
	AttemptFlaggedAt *time.Time

	CreatedAt time.Time
	UpdatedAt time.Time
}

// Terminal reports whether the payment reached a state that admits no
// further gateway traffic for this attempt.
func (s PaymentStatus) Terminal() bool {
	switch s {
	case PaymentStatusApproved, PaymentStatusRejected, PaymentStatusReversed, PaymentStatusReversalError, PaymentStatusError:
		return true
	}
	return false
}
