package di

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/fx"

	"github.com/celustore/payserver/internal/adapter/gateway"
	"github.com/celustore/payserver/internal/app"
	"github.com/celustore/payserver/internal/config"
	"github.com/celustore/payserver/internal/domain/model"
	"github.com/celustore/payserver/internal/domain/repository"
	"github.com/celustore/payserver/internal/storage/postgres"
	"github.com/celustore/payserver/internal/usecase"
)

type orderRepositoryStub struct{}

func (orderRepositoryStub) Create(context.Context, repository.OrderDraft) (*model.Order, error) {
	return &model.Order{}, nil
}
func (orderRepositoryStub) GetByID(context.Context, int64) (*model.Order, error) {
	return &model.Order{}, nil
}
func (orderRepositoryStub) SaveAttempt(context.Context, int64, []byte, string) error { return nil }
func (orderRepositoryStub) SaveResponse(context.Context, int64, []byte) error        { return nil }
func (orderRepositoryStub) ApprovePayment(context.Context, int64, model.Voucher) error {
	return nil
}
func (orderRepositoryStub) RejectPayment(context.Context, int64, model.PaymentStatus, string, string) error {
	return nil
}
func (orderRepositoryStub) SetPaymentStatus(context.Context, int64, model.PaymentStatus, string) error {
	return nil
}
func (orderRepositoryStub) CancelAndRestock(context.Context, int64) error { return nil }
func (orderRepositoryStub) ListStaleCardAttempts(context.Context, time.Time, int) ([]model.Order, error) {
	return nil, nil
}
func (orderRepositoryStub) FlagAttempt(context.Context, int64) error { return nil }

type inventoryRepositoryStub struct{}

func (inventoryRepositoryStub) GetUnit(context.Context, int64) (*model.InventoryUnit, error) {
	return &model.InventoryUnit{}, nil
}
func (inventoryRepositoryStub) ListByProduct(context.Context, int64) ([]model.InventoryUnit, error) {
	return nil, nil
}

type traceRepositoryStub struct{}

func (traceRepositoryStub) NextValue(context.Context) (int64, error) { return 1, nil }

type gatewayClientStub struct{}

func (gatewayClientStub) Call(context.Context, *gateway.TransactionRequest, gateway.TimeoutTier) (*gateway.TransactionResponse, error) {
	return &gateway.TransactionResponse{ResponseCode: "00"}, nil
}

type notifierStub struct{}

func (notifierStub) OrderConfirmed(context.Context, *model.Order) error { return nil }

func TestModuleComposesGraphWithReplacements(t *testing.T) {
	cfg := &config.Config{
		RunAddress:      ":0",
		DatabaseURI:     "postgres://stub",
		GatewayAddress:  "https://gateway.stub/process",
		MerchantID:      "MERCH01",
		MerchantKey:     "secret",
		CallbackURL:     "https://store.stub/3ds/return",
		ShippingFee:     decimal.RequireFromString("35.00"),
		SweepInterval:   time.Millisecond,
		SweepCutoff:     time.Millisecond,
		SweepBatch:      1,
		WorkerPoolSize:  1,
		ShutdownTimeout: time.Millisecond,
	}
	logger := slog.New(slog.NewJSONHandler(io.Discard, nil))

	var facade *app.CommerceFacade
	fxApp := fx.New(
		fx.NopLogger,
		fx.Supply(context.Background()),
		Module(
			fx.Replace(cfg),
			fx.Replace(logger),
			fx.Replace(&postgres.Storage{}),
			fx.Replace(repository.OrderRepository(orderRepositoryStub{})),
			fx.Replace(repository.InventoryRepository(inventoryRepositoryStub{})),
			fx.Replace(repository.TraceRepository(traceRepositoryStub{})),
			fx.Replace(gateway.Client(gatewayClientStub{})),
			fx.Replace(usecase.OrderNotifier(notifierStub{})),
		),
		fx.Populate(&facade),
	)

	if err := fxApp.Err(); err != nil {
		t.Fatalf("fx app returned error: %v", err)
	}
	t.Cleanup(func() { _ = fxApp.Stop(context.Background()) })
	if facade == nil {
		t.Fatal("expected commerce facade instance")
	}
}
