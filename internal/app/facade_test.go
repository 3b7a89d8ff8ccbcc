package app

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/celustore/payserver/internal/adapter/gateway"
	domainErrors "github.com/celustore/payserver/internal/domain/errors"
	"github.com/celustore/payserver/internal/domain/model"
	"github.com/celustore/payserver/internal/domain/repository"
	"github.com/celustore/payserver/internal/usecase"
)

type orderRepoStub struct {
	created *repository.OrderDraft
	order   *model.Order
	flagged []int64
	stale   []model.Order
}

func (s *orderRepoStub) Create(_ context.Context, draft repository.OrderDraft) (*model.Order, error) {
	s.created = &draft
	return &model.Order{ID: 1, PaymentMethod: draft.PaymentMethod}, nil
}

func (s *orderRepoStub) GetByID(_ context.Context, id int64) (*model.Order, error) {
	if s.order == nil || s.order.ID != id {
		return nil, domainErrors.ErrNotFound
	}
	o := *s.order
	return &o, nil
}

func (s *orderRepoStub) SaveAttempt(context.Context, int64, []byte, string) error { return nil }
func (s *orderRepoStub) SaveResponse(context.Context, int64, []byte) error        { return nil }
func (s *orderRepoStub) ApprovePayment(context.Context, int64, model.Voucher) error {
	return nil
}
func (s *orderRepoStub) RejectPayment(context.Context, int64, model.PaymentStatus, string, string) error {
	return nil
}
func (s *orderRepoStub) SetPaymentStatus(context.Context, int64, model.PaymentStatus, string) error {
	return nil
}
func (s *orderRepoStub) CancelAndRestock(context.Context, int64) error { return nil }
func (s *orderRepoStub) ListStaleCardAttempts(context.Context, time.Time, int) ([]model.Order, error) {
	return s.stale, nil
}
func (s *orderRepoStub) FlagAttempt(_ context.Context, orderID int64) error {
	s.flagged = append(s.flagged, orderID)
	return nil
}

type traceRepoStub struct{}

func (traceRepoStub) NextValue(context.Context) (int64, error) { return 41, nil }

type clientStub struct{}

func (clientStub) Call(context.Context, *gateway.TransactionRequest, gateway.TimeoutTier) (*gateway.TransactionResponse, error) {
	return &gateway.TransactionResponse{ResponseCode: "00", Raw: []byte(`{}`)}, nil
}

type notifierStub struct{}

func (notifierStub) OrderConfirmed(context.Context, *model.Order) error { return nil }

type inventoryStub struct{}

func (inventoryStub) GetUnit(_ context.Context, id int64) (*model.InventoryUnit, error) {
	return &model.InventoryUnit{ID: id, ProductID: 2, ProductName: "iPhone 12", Stock: 5}, nil
}

func (inventoryStub) ListByProduct(_ context.Context, productID int64) ([]model.InventoryUnit, error) {
	return []model.InventoryUnit{{ID: 3, ProductID: productID, ProductName: "iPhone 12", Stock: 5}}, nil
}

type healthStub struct {
	err error
}

func (s healthStub) HealthCheck(context.Context) error { return s.err }

func newFacade(repo *orderRepoStub, health healthStub) *CommerceFacade {
	logger := slog.New(slog.NewJSONHandler(io.Discard, nil))
	traces := usecase.NewTraceAllocator(traceRepoStub{}, logger)
	compensator := usecase.NewReversalCompensator(clientStub{}, repo, logger)
	payments := usecase.NewPaymentOrchestrator(repo, traces, clientStub{}, compensator, notifierStub{}, "https://store.example/3ds/return", logger)
	ledger := usecase.NewOrderLedger(repo, inventoryStub{}, compensator, decimal.RequireFromString("35.00"), logger)
	return NewCommerceFacade(ledger, payments, health)
}

func TestCommerceFacadeCreateOrder(t *testing.T) {
	repo := &orderRepoStub{}
	facade := newFacade(repo, healthStub{})

	order, err := facade.CreateOrder(context.Background(), repository.OrderDraft{
		PaymentMethod: model.PaymentMethodCashOnDelivery,
		Items:         []repository.DraftItem{{UnitID: 3, Quantity: 1}},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if order.ID != 1 {
		t.Fatalf("unexpected order: %+v", order)
	}
	if repo.created == nil || !repo.created.ShippingFee.Equal(decimal.RequireFromString("35.00")) {
		t.Fatalf("shipping fee not applied: %+v", repo.created)
	}
}

func TestCommerceFacadeGetOrder(t *testing.T) {
	repo := &orderRepoStub{order: &model.Order{ID: 7, PaymentMethod: model.PaymentMethodCard}}
	facade := newFacade(repo, healthStub{})

	order, err := facade.GetOrder(context.Background(), 7)
	if err != nil || order.ID != 7 {
		t.Fatalf("unexpected result: %+v err=%v", order, err)
	}

	if _, err := facade.GetOrder(context.Background(), 99); !errors.Is(err, domainErrors.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestCommerceFacadeProductUnits(t *testing.T) {
	facade := newFacade(&orderRepoStub{}, healthStub{})

	units, err := facade.ProductUnits(context.Background(), 2)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(units) != 1 || units[0].ID != 3 {
		t.Fatalf("unexpected units %+v", units)
	}
}

func TestCommerceFacadeCardPaymentWrongMethod(t *testing.T) {
	repo := &orderRepoStub{order: &model.Order{
		ID:            7,
		PaymentMethod: model.PaymentMethodCashOnDelivery,
		PaymentStatus: model.PaymentStatusPending,
	}}
	facade := newFacade(repo, healthStub{})

	_, err := facade.CardPayment(context.Background(), usecase.CardPaymentInput{OrderID: 7})
	if !errors.Is(err, domainErrors.ErrUnsupportedMethod) {
		t.Fatalf("expected unsupported method, got %v", err)
	}
}

func TestCommerceFacadeSweeperDelegation(t *testing.T) {
	repo := &orderRepoStub{stale: []model.Order{{ID: 5}}}
	facade := newFacade(repo, healthStub{})

	orders, err := facade.StaleCardAttempts(context.Background(), time.Now(), 10)
	if err != nil || len(orders) != 1 || orders[0].ID != 5 {
		t.Fatalf("unexpected result: %v err=%v", orders, err)
	}

	if err := facade.FlagAttempt(context.Background(), 5); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(repo.flagged) != 1 || repo.flagged[0] != 5 {
		t.Fatalf("flag not delegated: %v", repo.flagged)
	}
}

func TestCommerceFacadeHealthy(t *testing.T) {
	facade := newFacade(&orderRepoStub{}, healthStub{})
	if err := facade.Healthy(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	facade = newFacade(&orderRepoStub{}, healthStub{err: errors.New("db down")})
	if err := facade.Healthy(context.Background()); err == nil {
		t.Fatal("expected error")
	}
}
