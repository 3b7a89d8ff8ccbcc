package app

import (
	"context"
	"time"

	"github.com/celustore/payserver/internal/domain/model"
	"github.com/celustore/payserver/internal/domain/repository"
	"github.com/celustore/payserver/internal/usecase"
)

// HealthChecker reports readiness of the backing store.
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}

// CommerceFacade aggregates the order ledger and the payment
// orchestrator behind one surface consumed by handlers and the sweeper.
type CommerceFacade struct {
	ledger   *usecase.OrderLedger
	payments *usecase.PaymentOrchestrator
	health   HealthChecker
}

// NewCommerceFacade constructs CommerceFacade.
func NewCommerceFacade(ledger *usecase.OrderLedger, payments *usecase.PaymentOrchestrator, health HealthChecker) *CommerceFacade {
	return &CommerceFacade{ledger: ledger, payments: payments, health: health}
}

func (f *CommerceFacade) CreateOrder(ctx context.Context, draft repository.OrderDraft) (*model.Order, error) {
	return f.ledger.CreateOrder(ctx, draft)
}

func (f *CommerceFacade) GetOrder(ctx context.Context, id int64) (*model.Order, error) {
	return f.ledger.GetOrder(ctx, id)
}

func (f *CommerceFacade) CancelOrder(ctx context.Context, id int64) error {
	return f.ledger.CancelOrder(ctx, id)
}

func (f *CommerceFacade) ProductUnits(ctx context.Context, productID int64) ([]model.InventoryUnit, error) {
	return f.ledger.ProductUnits(ctx, productID)
}

func (f *CommerceFacade) CardPayment(ctx context.Context, in usecase.CardPaymentInput) (*usecase.StepResult, error) {
	return f.payments.Step1(ctx, in)
}

func (f *CommerceFacade) CardContinue(ctx context.Context, in usecase.ContinueInput) (*usecase.StepResult, error) {
	return f.payments.Step3(ctx, in)
}

func (f *CommerceFacade) CardChallenge(ctx context.Context, in usecase.ContinueInput) (*usecase.StepResult, error) {
	return f.payments.Step5(ctx, in)
}

func (f *CommerceFacade) StaleCardAttempts(ctx context.Context, cutoff time.Time, limit int) ([]model.Order, error) {
	return f.ledger.StaleCardAttempts(ctx, cutoff, limit)
}

func (f *CommerceFacade) FlagAttempt(ctx context.Context, orderID int64) error {
	return f.ledger.FlagAttempt(ctx, orderID)
}

func (f *CommerceFacade) Healthy(ctx context.Context) error {
	return f.health.HealthCheck(ctx)
}
