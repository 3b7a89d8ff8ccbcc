package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/celustore/payserver/internal/adapter/gateway"
	domainErrors "github.com/celustore/payserver/internal/domain/errors"
	"github.com/celustore/payserver/internal/domain/model"
	"github.com/celustore/payserver/internal/domain/repository"
)

// OrderNotifier is the external order-confirmation collaborator. Failures
// of the notification must never roll back or fail the payment transition.
type OrderNotifier interface {
	OrderConfirmed(ctx context.Context, order *model.Order) error
}

// Continuation is handed to the caller when the gateway requires the
// external device-data-collection round-trip after step 1.
type Continuation struct {
	AccessToken   string
	CollectionURL string
	ReferenceID   string
}

// Challenge is handed to the caller when the gateway requires a
// cardholder step-up challenge after step 3 (the step-4 hand-off).
type Challenge struct {
	AccessToken string
	StepUpURL   string
	ReferenceID string
	DSTransID   string
}

// StepResult is the outcome of one orchestrated authorization step.
type StepResult struct {
	Approved      bool
	Partial       bool
	PartialReason string

	TimedOut         bool
	ReversalExecuted bool

	// VerifyManually marks the non-committal "already processed
	// upstream" outcome that requires a human to reconcile.
	VerifyManually bool

	PaymentStatus model.PaymentStatus
	OrderStatus   model.OrderStatus
	ResponseCode  string
	Message       string
	// ConfigHint accompanies gateway-internal (negative) codes, which
	// usually point at a callback-URL or credential mismatch.
	ConfigHint string

	Continuation *Continuation
	Challenge    *Challenge
}

// CardPaymentInput starts the authorization sequence for an order.
type CardPaymentInput struct {
	OrderID      int64
	Card         gateway.CardDetails
	Installments int
	ClientIP     string
}

// ContinueInput resumes the sequence after an external bridge round-trip.
type ContinueInput struct {
	OrderID     int64
	ReferenceID string
	ClientIP    string
}

// PaymentOrchestrator drives the multi-step authorization sequence. All
// cross-step state lives in the persisted order row; the orchestrator
// enforces step ordering from that state, never from client input.
type PaymentOrchestrator struct {
	orders      repository.OrderRepository
	traces      *TraceAllocator
	client      gateway.Client
	compensator *ReversalCompensator
	notifier    OrderNotifier
	callbackURL string
	logger      *slog.Logger
	now         func() time.Time
}

// NewPaymentOrchestrator constructs PaymentOrchestrator.
func NewPaymentOrchestrator(
	orders repository.OrderRepository,
	traces *TraceAllocator,
	client gateway.Client,
	compensator *ReversalCompensator,
	notifier OrderNotifier,
	callbackURL string,
	logger *slog.Logger,
) *PaymentOrchestrator {
	return &PaymentOrchestrator{
		orders:      orders,
		traces:      traces,
		client:      client,
		compensator: compensator,
		notifier:    notifier,
		callbackURL: callbackURL,
		logger:      logger,
		now:         time.Now,
	}
}

// Step1 builds and sends the initial authorization / enrollment message.
func (o *PaymentOrchestrator) Step1(ctx context.Context, in CardPaymentInput) (*StepResult, error) {
	order, err := o.orders.GetByID(ctx, in.OrderID)
	if err != nil {
		return nil, err
	}
	if order.PaymentMethod != model.PaymentMethodCard {
		return nil, domainErrors.ErrUnsupportedMethod
	}
	switch order.PaymentStatus {
	case model.PaymentStatusPending, model.PaymentStatusRejected, model.PaymentStatusError:
	default:
		return nil, domainErrors.ErrInvalidOrderState
	}
	if err := ValidateCard(in.Card, o.now()); err != nil {
		return nil, err
	}
	if order.PaymentStatus != model.PaymentStatusPending {
		// A decline is terminal for that attempt only; a fresh attempt
		// starts from PENDIENTE so the continuation steps accept it.
		if err := o.orders.SetPaymentStatus(ctx, order.ID, model.PaymentStatusPending, "nuevo intento de pago"); err != nil {
			return nil, err
		}
		order.PaymentStatus = model.PaymentStatusPending
	}

	traceNo, err := o.traces.Next(ctx)
	if err != nil {
		return nil, err
	}
	referenceID := uuid.NewString()

	payload := gateway.NewAuthorization(gateway.AuthorizationParams{
		Card:         in.Card,
		Amount:       order.Total,
		TraceNo:      traceNo,
		Billing:      gateway.NormalizeBilling(order.Customer),
		Installments: in.Installments,
		OrderInfo:    fmt.Sprintf("ORD-%d", order.ID),
		ReturnURL:    o.callbackURL,
		ReferenceID:  referenceID,
		ClientIP:     in.ClientIP,
	})

	resp, err := o.client.Call(ctx, payload, gateway.TierDefault)
	if err != nil {
		if timeoutErr, ok := asTimeout(err); ok {
			return o.reverseInitialAfterTimeout(ctx, order, timeoutErr.Request)
		}
		return nil, err
	}

	if gateway.IsTimeoutSuspect(resp.ResponseCode) {
		o.logger.Warn("timeout-suspect response on step 1",
			slog.Int64("order", order.ID),
			slog.String("code", resp.ResponseCode),
		)
		return o.reverseInitialAfterTimeout(ctx, order, payload)
	}

	if resp.DeviceCollectionRequired() {
		return o.recordContinuation(ctx, order, payload, resp, referenceID)
	}

	return o.settle(ctx, order, payload, resp, gateway.StepSetup, referenceID)
}

// Step3 resumes after the external bridge reports device-fingerprint
// completion.
func (o *PaymentOrchestrator) Step3(ctx context.Context, in ContinueInput) (*StepResult, error) {
	return o.continueStep(ctx, in, gateway.StepEnrollment)
}

// Step5 resumes after the step-up challenge completes. Structurally
// identical to Step3 with the directory-server transaction id echoed.
func (o *PaymentOrchestrator) Step5(ctx context.Context, in ContinueInput) (*StepResult, error) {
	return o.continueStep(ctx, in, gateway.StepValidation)
}

func (o *PaymentOrchestrator) continueStep(ctx context.Context, in ContinueInput, step string) (*StepResult, error) {
	order, err := o.orders.GetByID(ctx, in.OrderID)
	if err != nil {
		return nil, err
	}
	if order.PaymentMethod != model.PaymentMethodCard {
		return nil, domainErrors.ErrUnsupportedMethod
	}

	// Duplicate browser postbacks resolve from persisted state, never by
	// re-calling the gateway.
	if order.PaymentStatus == model.PaymentStatusApproved {
		return &StepResult{
			Approved:      true,
			PaymentStatus: order.PaymentStatus,
			OrderStatus:   order.Status,
			ResponseCode:  gateway.CodeApproved,
			Message:       gateway.Message(gateway.CodeApproved),
		}, nil
	}
	if order.PaymentStatus != model.PaymentStatusPending {
		return nil, domainErrors.ErrInvalidOrderState
	}

	rec, err := model.DecodeGatewayRecord(order.GatewayBlob)
	if err != nil {
		return nil, fmt.Errorf("decode gateway record: %w", err)
	}
	att := rec.Attempt
	if att == nil {
		return nil, domainErrors.ErrAttemptMissing
	}
	if err := checkStepOrder(att, step); err != nil {
		return nil, err
	}

	if in.ReferenceID != "" && in.ReferenceID != att.ReferenceID {
		// Prefer the reference recorded at step 1 over client input.
		o.logger.Warn("reference id mismatch, using stored value",
			slog.Int64("order", order.ID),
			slog.String("supplied", in.ReferenceID),
			slog.String("stored", att.ReferenceID),
		)
	}

	payload := gateway.NewContinuation(att, step, o.callbackURL, in.ClientIP)

	resp, err := o.client.Call(ctx, payload, gateway.TierAuthentication)
	if err != nil {
		if timeoutErr, ok := asTimeout(err); ok {
			return o.reverseStepAfterTimeout(ctx, order, timeoutErr.Request)
		}
		return nil, err
	}

	// Keep the latest raw gateway answer on the order row.
	if cached, encErr := model.EncodeGatewayRecord(&model.GatewayRecord{Attempt: att, LastResponse: resp.Raw}); encErr == nil {
		if saveErr := o.orders.SaveResponse(ctx, order.ID, cached); saveErr != nil {
			o.logger.Warn("failed to cache gateway response",
				slog.Int64("order", order.ID),
				slog.String("error", saveErr.Error()),
			)
		}
	}

	switch {
	case gateway.IsDuplicate(resp.ResponseCode):
		return o.resolveDuplicate(ctx, order.ID, resp)
	case gateway.IsInvalidAuthentication(resp.ResponseCode):
		return o.reject(ctx, order, resp)
	case gateway.IsTimeoutSuspect(resp.ResponseCode):
		o.logger.Warn("timeout-suspect response on continuation",
			slog.Int64("order", order.ID),
			slog.String("step", step),
			slog.String("code", resp.ResponseCode),
		)
		return o.reverseStepAfterTimeout(ctx, order, payload)
	case resp.ChallengeRequired():
		if step != gateway.StepEnrollment {
			return nil, domainErrors.ErrProtocolViolation
		}
		return o.recordChallenge(ctx, order, att, resp)
	}

	return o.settle(ctx, order, payload, resp, step, att.ReferenceID)
}

// checkStepOrder enforces the persisted-state sequencing: step 3 only
// after step 1 cached its fields, step 5 only after the step-4 hand-off.
func checkStepOrder(att *model.PaymentAttempt, step string) error {
	switch step {
	case gateway.StepEnrollment:
		if att.Step != gateway.StepSetup {
			return domainErrors.ErrStepOrder
		}
	case gateway.StepValidation:
		if att.Step != gateway.StepChallenge || att.DSTransID == "" {
			return domainErrors.ErrStepOrder
		}
	}
	return nil
}

// recordContinuation persists the step-1 snapshot and returns the
// device-data-collection descriptor. The step marker must be the expected
// one and the code the exact approval (not partial); any mismatch is a
// hard rejection, not a retry.
func (o *PaymentOrchestrator) recordContinuation(ctx context.Context, order *model.Order, payload *gateway.TransactionRequest, resp *gateway.TransactionResponse, referenceID string) (*StepResult, error) {
	if resp.Authentication.Step != gateway.StepSetup || resp.ResponseCode != gateway.CodeApproved {
		o.logger.Error("authentication contract violated on step 1",
			slog.Int64("order", order.ID),
			slog.String("step", resp.Authentication.Step),
			slog.String("code", resp.ResponseCode),
		)
		return o.reject(ctx, order, resp)
	}

	if ref := resp.Authentication.ReferenceID; ref != "" {
		referenceID = ref
	}

	att := &model.PaymentAttempt{
		Version:        model.AttemptVersion,
		TraceNo:        payload.TraceNo,
		ReferenceID:    referenceID,
		ProcessingCode: payload.ProcessingCode,
		EntryMode:      payload.EntryMode,
		NetworkID:      payload.NetworkID,
		ConditionCode:  payload.ConditionCode,
		OrderInfo:      payload.OrderInfo,
		AmountMinor:    payload.AmountTrans,
		CardNetwork:    payload.CardNetwork,
		Billing:        payload.Billing,
		Step:           gateway.StepSetup,
	}
	blob, err := model.EncodeGatewayRecord(&model.GatewayRecord{Attempt: att, LastResponse: resp.Raw})
	if err != nil {
		return nil, err
	}
	if err := o.orders.SaveAttempt(ctx, order.ID, blob, payload.TraceNo); err != nil {
		return nil, err
	}

	return &StepResult{
		PaymentStatus: model.PaymentStatusPending,
		OrderStatus:   order.Status,
		ResponseCode:  resp.ResponseCode,
		Message:       gateway.Message(resp.ResponseCode),
		Continuation: &Continuation{
			AccessToken:   resp.Authentication.AccessToken,
			CollectionURL: resp.Authentication.DeviceDataCollectionURL,
			ReferenceID:   referenceID,
		},
	}, nil
}

// recordChallenge is the step-4 hand-off: persist the directory-server
// transaction id for step 5 and return the challenge descriptor. No
// gateway call happens here.
func (o *PaymentOrchestrator) recordChallenge(ctx context.Context, order *model.Order, att *model.PaymentAttempt, resp *gateway.TransactionResponse) (*StepResult, error) {
	att.Step = gateway.StepChallenge
	att.DSTransID = resp.Authentication.DSTransID
	blob, err := model.EncodeGatewayRecord(&model.GatewayRecord{Attempt: att, LastResponse: resp.Raw})
	if err != nil {
		return nil, err
	}
	if err := o.orders.SaveAttempt(ctx, order.ID, blob, att.TraceNo); err != nil {
		return nil, err
	}

	return &StepResult{
		PaymentStatus: model.PaymentStatusPending,
		OrderStatus:   order.Status,
		ResponseCode:  resp.ResponseCode,
		Message:       gateway.Message(resp.ResponseCode),
		Challenge: &Challenge{
			AccessToken: resp.Authentication.AccessToken,
			StepUpURL:   resp.Authentication.StepUpURL,
			ReferenceID: att.ReferenceID,
			DSTransID:   resp.Authentication.DSTransID,
		},
	}, nil
}

// settle maps a definitive gateway answer onto order state.
func (o *PaymentOrchestrator) settle(ctx context.Context, order *model.Order, payload *gateway.TransactionRequest, resp *gateway.TransactionResponse, step, referenceID string) (*StepResult, error) {
	switch {
	case gateway.IsApproved(resp.ResponseCode):
		return o.approve(ctx, order, payload, resp, step, referenceID)
	case gateway.IsInternal(resp.ResponseCode):
		if err := o.orders.RejectPayment(ctx, order.ID, model.PaymentStatusError, resp.ResponseCode, resp.ResponseMessage); err != nil {
			return nil, err
		}
		return &StepResult{
			PaymentStatus: model.PaymentStatusError,
			OrderStatus:   order.Status,
			ResponseCode:  resp.ResponseCode,
			Message:       resp.ResponseMessage,
			ConfigHint:    "verifique la URL de retorno y las credenciales del comercio configuradas en el gateway",
		}, nil
	default:
		return o.reject(ctx, order, resp)
	}
}

func (o *PaymentOrchestrator) approve(ctx context.Context, order *model.Order, payload *gateway.TransactionRequest, resp *gateway.TransactionResponse, step, referenceID string) (*StepResult, error) {
	att := &model.PaymentAttempt{
		Version:        model.AttemptVersion,
		TraceNo:        payload.TraceNo,
		ReferenceID:    referenceID,
		ProcessingCode: payload.ProcessingCode,
		EntryMode:      payload.EntryMode,
		NetworkID:      payload.NetworkID,
		ConditionCode:  payload.ConditionCode,
		OrderInfo:      payload.OrderInfo,
		AmountMinor:    payload.AmountTrans,
		CardNetwork:    payload.CardNetwork,
		Billing:        payload.Billing,
		Step:           step,
	}
	blob, err := model.EncodeGatewayRecord(&model.GatewayRecord{Attempt: att, LastResponse: resp.Raw})
	if err != nil {
		return nil, err
	}
	if err := o.orders.SaveAttempt(ctx, order.ID, blob, payload.TraceNo); err != nil {
		return nil, err
	}

	voucher := model.Voucher{
		AuthorizationID: resp.AuthorizationID,
		RetrievalRef:    resp.RetrievalRef,
		TransactionAt:   resp.TransactionTime(o.now()),
	}
	if err := o.orders.ApprovePayment(ctx, order.ID, voucher); err != nil {
		return nil, err
	}

	order.PaymentStatus = model.PaymentStatusApproved
	order.Status = model.OrderStatusProcessing
	order.Voucher = &voucher
	if err := o.notifier.OrderConfirmed(ctx, order); err != nil {
		o.logger.Error("order confirmation notification failed",
			slog.Int64("order", order.ID),
			slog.String("error", err.Error()),
		)
	}

	result := &StepResult{
		Approved:      true,
		Partial:       gateway.IsPartial(resp.ResponseCode),
		PaymentStatus: model.PaymentStatusApproved,
		OrderStatus:   model.OrderStatusProcessing,
		ResponseCode:  resp.ResponseCode,
		Message:       gateway.Message(resp.ResponseCode),
	}
	if result.Partial {
		result.PartialReason = resp.AlternateHostMessage
	}
	return result, nil
}

func (o *PaymentOrchestrator) reject(ctx context.Context, order *model.Order, resp *gateway.TransactionResponse) (*StepResult, error) {
	msg := resp.ResponseMessage
	if msg == "" {
		msg = gateway.Message(resp.ResponseCode)
	}
	if err := o.orders.RejectPayment(ctx, order.ID, model.PaymentStatusRejected, resp.ResponseCode, msg); err != nil {
		return nil, err
	}
	// The order keeps its prior status and its reserved inventory; the
	// payment-status field is the observable signal.
	return &StepResult{
		PaymentStatus: model.PaymentStatusRejected,
		OrderStatus:   order.Status,
		ResponseCode:  resp.ResponseCode,
		Message:       msg,
	}, nil
}

// resolveDuplicate handles the "step already done" gateway signal by
// re-reading persisted state; it never re-submits.
func (o *PaymentOrchestrator) resolveDuplicate(ctx context.Context, orderID int64, resp *gateway.TransactionResponse) (*StepResult, error) {
	order, err := o.orders.GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order.PaymentStatus == model.PaymentStatusApproved {
		return &StepResult{
			Approved:      true,
			PaymentStatus: order.PaymentStatus,
			OrderStatus:   order.Status,
			ResponseCode:  resp.ResponseCode,
			Message:       gateway.Message(resp.ResponseCode),
		}, nil
	}
	return &StepResult{
		VerifyManually: true,
		PaymentStatus:  order.PaymentStatus,
		OrderStatus:    order.Status,
		ResponseCode:   resp.ResponseCode,
		Message:        "transaccion ya procesada por el gateway, verificar manualmente",
	}, nil
}

func (o *PaymentOrchestrator) reverseInitialAfterTimeout(ctx context.Context, order *model.Order, payload *gateway.TransactionRequest) (*StepResult, error) {
	executed, err := o.compensator.ReverseInitial(ctx, order.ID, payload.TraceNo, payload.AmountTrans, "")
	if err != nil {
		return nil, err
	}
	if serr := o.orders.SaveAttempt(ctx, order.ID, order.GatewayBlob, payload.TraceNo); serr != nil {
		o.logger.Error("failed to record original trace after timeout",
			slog.Int64("order", order.ID),
			slog.String("error", serr.Error()),
		)
	}
	return o.timeoutResult(order, executed), nil
}

func (o *PaymentOrchestrator) reverseStepAfterTimeout(ctx context.Context, order *model.Order, payload *gateway.TransactionRequest) (*StepResult, error) {
	executed, err := o.compensator.ReverseStep(ctx, order.ID, payload)
	if err != nil {
		return nil, err
	}
	return o.timeoutResult(order, executed), nil
}

func (o *PaymentOrchestrator) timeoutResult(order *model.Order, executed bool) *StepResult {
	status := model.PaymentStatusReversalError
	if executed {
		status = model.PaymentStatusReversed
	}
	return &StepResult{
		TimedOut:         true,
		ReversalExecuted: executed,
		PaymentStatus:    status,
		OrderStatus:      order.Status,
		Message:          "tiempo de espera agotado, se intento una reversa",
	}
}

func asTimeout(err error) (gateway.TimeoutError, bool) {
	var timeoutErr gateway.TimeoutError
	if errors.As(err, &timeoutErr) {
		return timeoutErr, true
	}
	return gateway.TimeoutError{}, false
}
