package model

import "github.com/shopspring/decimal"

// InventoryUnit is a sellable variant (phone variant or accessory color)
// holding a non-negative stock counter. Stock is mutated only inside the
// same transaction as the order transition that consumes or restores it.
type InventoryUnit struct {
	ID          int64
	ProductID   int64
	ProductName string
	ProductType string
	Color       string
	Capacity    string
	Condition   string
	UnitPrice   decimal.Decimal
	Stock       int32
}

// Snapshot captures the variant description for an order line.
func (u InventoryUnit) Snapshot() VariantSnapshot {
	return VariantSnapshot{Color: u.Color, Capacity: u.Capacity, Condition: u.Condition}
}
