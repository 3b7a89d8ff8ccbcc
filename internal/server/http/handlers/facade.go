package handlers

import (
	"context"

	"github.com/celustore/payserver/internal/domain/model"
	"github.com/celustore/payserver/internal/domain/repository"
	"github.com/celustore/payserver/internal/usecase"
)

// OrderFacade encapsulates order operations exposed via HTTP.
type OrderFacade interface {
	CreateOrder(ctx context.Context, draft repository.OrderDraft) (*model.Order, error)
	GetOrder(ctx context.Context, id int64) (*model.Order, error)
	CancelOrder(ctx context.Context, id int64) error
}

// CatalogFacade exposes read access to sellable variants.
type CatalogFacade interface {
	ProductUnits(ctx context.Context, productID int64) ([]model.InventoryUnit, error)
}

// PaymentFacade drives the card authorization sequence.
type PaymentFacade interface {
	CardPayment(ctx context.Context, in usecase.CardPaymentInput) (*usecase.StepResult, error)
	CardContinue(ctx context.Context, in usecase.ContinueInput) (*usecase.StepResult, error)
	CardChallenge(ctx context.Context, in usecase.ContinueInput) (*usecase.StepResult, error)
}

// HealthFacade reports readiness of the backing services.
type HealthFacade interface {
	Healthy(ctx context.Context) error
}

// CommerceFacade aggregates the full set of operations used across handlers.
type CommerceFacade interface {
	OrderFacade
	CatalogFacade
	PaymentFacade
	HealthFacade
}
