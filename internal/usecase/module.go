package usecase

import (
	"log/slog"

	"go.uber.org/fx"

	"github.com/celustore/payserver/internal/adapter/gateway"
	"github.com/celustore/payserver/internal/config"
	"github.com/celustore/payserver/internal/domain/repository"
)

// Module provides core business use cases to the fx container.
var Module = fx.Provide(
	NewTraceAllocator,
	NewReversalCompensator,
	newOrchestrator,
	newLedger,
)

type orchestratorParams struct {
	fx.In

	Orders      repository.OrderRepository
	Traces      *TraceAllocator
	Client      gateway.Client
	Compensator *ReversalCompensator
	Notifier    OrderNotifier
	Config      *config.Config
	Logger      *slog.Logger
}

func newOrchestrator(p orchestratorParams) *PaymentOrchestrator {
	return NewPaymentOrchestrator(p.Orders, p.Traces, p.Client, p.Compensator, p.Notifier, p.Config.CallbackURL, p.Logger)
}

type ledgerParams struct {
	fx.In

	Orders      repository.OrderRepository
	Inventory   repository.InventoryRepository
	Compensator *ReversalCompensator
	Config      *config.Config
	Logger      *slog.Logger
}

func newLedger(p ledgerParams) *OrderLedger {
	return NewOrderLedger(p.Orders, p.Inventory, p.Compensator, p.Config.ShippingFee, p.Logger)
}
