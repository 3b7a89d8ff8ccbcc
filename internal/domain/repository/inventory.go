package repository

import (
	"context"

	"github.com/celustore/payserver/internal/domain/model"
)

// InventoryRepository exposes read access to sellable variants. Stock
// movements happen only inside order transactions (see OrderRepository).
type InventoryRepository interface {
	GetUnit(ctx context.Context, id int64) (*model.InventoryUnit, error)
	ListByProduct(ctx context.Context, productID int64) ([]model.InventoryUnit, error)
}
