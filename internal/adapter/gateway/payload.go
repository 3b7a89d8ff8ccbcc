package gateway

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/celustore/payserver/internal/domain/model"
)

// Message type codes of the processor envelope.
const (
	MessageTypeRequest  = "0200"
	MessageTypeReversal = "0400"
)

// Fixed protocol codes for e-commerce purchases.
const (
	ProcessingCodePurchase = "000000"
	EntryModeECommerce     = "012"
	ConditionCodeECommerce = "59"
	NetworkIDDefault       = "0003"
)

// Authentication step markers. StepChallenge never goes on the wire;
// it marks the persisted attempt between the step-up hand-off and step 5.
const (
	StepSetup      = "1"
	StepEnrollment = "3"
	StepChallenge  = "4"
	StepValidation = "5"
)

// Card network codes understood by the processor.
const (
	CardNetworkVisa       = "001"
	CardNetworkMastercard = "002"
	CardNetworkAmex       = "003"
)

// CardDetails is the raw card input from checkout. Never logged whole.
type CardDetails struct {
	PAN    string
	Expiry string // YYMM
	CVV    string
}

// AuthenticationRequest is the 3-D Secure block of an outbound message.
type AuthenticationRequest struct {
	Step        string `json:"step"`
	ReturnURL   string `json:"returnUrl,omitempty"`
	ReferenceID string `json:"referenceId,omitempty"`
	DSTransID   string `json:"directoryServerTransactionId,omitempty"`
}

// TransactionRequest is the JSON envelope posted to the processor.
type TransactionRequest struct {
	MessageType    string `json:"messageType"`
	ProcessingCode string `json:"processingCode"`
	TraceNo        string `json:"systemsTraceAuditNumber"`
	EntryMode      string `json:"posEntryMode"`
	NetworkID      string `json:"acquiringInstitutionId"`
	ConditionCode  string `json:"posConditionCode"`

	PAN    string `json:"pan"`
	Expiry string `json:"dateExpiration"`
	CVV2   string `json:"cvv2"`

	AmountTrans    string `json:"amountTrans"`
	AdditionalData string `json:"additionalData,omitempty"`
	OrderInfo      string `json:"orderInfo,omitempty"`
	CardNetwork    string `json:"cardType,omitempty"`
	RetrievalRef   string `json:"retrievalRefNo,omitempty"`

	Billing        model.BillingBlock     `json:"billTo"`
	Authentication *AuthenticationRequest `json:"authentication,omitempty"`

	// ClientIP travels as a header, not in the body.
	ClientIP string `json:"-"`
}

// AuthenticationResponse is the 3-D Secure block of a processor response.
type AuthenticationResponse struct {
	Step                    string `json:"step"`
	AccessToken             string `json:"accessToken,omitempty"`
	DeviceDataCollectionURL string `json:"deviceDataCollectionUrl,omitempty"`
	StepUpURL               string `json:"stepUpUrl,omitempty"`
	ReferenceID             string `json:"referenceId,omitempty"`
	DSTransID               string `json:"directoryServerTransactionId,omitempty"`
}

// TransactionResponse mirrors the processor reply. Response codes may be
// negative for gateway-internal failures.
type TransactionResponse struct {
	ResponseCode         string                  `json:"responseCode"`
	OperationType        string                  `json:"operationType"`
	ResponseMessage      string                  `json:"responseMessage,omitempty"`
	AlternateHostMessage string                  `json:"alternateHostMessage,omitempty"`
	AuthorizationID      string                  `json:"authorizationIdResponse,omitempty"`
	RetrievalRef         string                  `json:"retrievalRefNo,omitempty"`
	LocalDate            string                  `json:"localTransactionDate,omitempty"`
	LocalTime            string                  `json:"localTransactionTime,omitempty"`
	Authentication       *AuthenticationResponse `json:"authentication,omitempty"`

	Raw json.RawMessage `json:"-"`
}

// DeviceCollectionRequired reports whether the reply demands the external
// device-data-collection round-trip before the next step.
func (r *TransactionResponse) DeviceCollectionRequired() bool {
	return r.Authentication != nil &&
		r.Authentication.AccessToken != "" &&
		r.Authentication.DeviceDataCollectionURL != ""
}

// ChallengeRequired reports whether the reply demands a cardholder step-up
// challenge.
func (r *TransactionResponse) ChallengeRequired() bool {
	return r.Authentication != nil &&
		r.Authentication.AccessToken != "" &&
		r.Authentication.StepUpURL != ""
}

// TransactionTime reconstructs the voucher timestamp from the truncated
// MMDD/HHMMSS numeric fields, using the year of now. Zero time when the
// fields are absent or unparseable.
func (r *TransactionResponse) TransactionTime(now time.Time) time.Time {
	date := leftPad(r.LocalDate, 4)
	clock := leftPad(r.LocalTime, 6)
	if date == "" || clock == "" {
		return time.Time{}
	}
	t, err := time.ParseInLocation("20060102150405", now.Format("2006")+date+clock, now.Location())
	if err != nil {
		return time.Time{}
	}
	return t
}

func leftPad(s string, width int) string {
	if s == "" || len(s) > width {
		return ""
	}
	return strings.Repeat("0", width-len(s)) + s
}

// AuthorizationParams collects everything needed for a step-1 message.
type AuthorizationParams struct {
	Card         CardDetails
	Amount       decimal.Decimal
	TraceNo      string
	Billing      model.BillingBlock
	Installments int
	OrderInfo    string
	ReturnURL    string
	ReferenceID  string
	ClientIP     string
}

// NewAuthorization builds the initial authorization / enrollment message.
func NewAuthorization(p AuthorizationParams) *TransactionRequest {
	return &TransactionRequest{
		MessageType:    MessageTypeRequest,
		ProcessingCode: ProcessingCodePurchase,
		TraceNo:        p.TraceNo,
		EntryMode:      EntryModeECommerce,
		NetworkID:      NetworkIDDefault,
		ConditionCode:  ConditionCodeECommerce,
		PAN:            p.Card.PAN,
		Expiry:         p.Card.Expiry,
		CVV2:           p.Card.CVV,
		AmountTrans:    AmountMinorUnits(p.Amount),
		AdditionalData: InstallmentCode(p.Installments),
		OrderInfo:      p.OrderInfo,
		CardNetwork:    DetectCardNetwork(p.Card.PAN),
		Billing:        p.Billing,
		Authentication: &AuthenticationRequest{
			Step:        StepSetup,
			ReturnURL:   p.ReturnURL,
			ReferenceID: p.ReferenceID,
		},
		ClientIP: p.ClientIP,
	}
}

// NewContinuation rebuilds the step-3/step-5 message from the cached
// step-1 attempt. Card, amount and billing blocks travel empty per
// protocol; everything else is reused verbatim.
func NewContinuation(att *model.PaymentAttempt, step, returnURL, clientIP string) *TransactionRequest {
	auth := &AuthenticationRequest{
		Step:        step,
		ReturnURL:   returnURL,
		ReferenceID: att.ReferenceID,
	}
	if step == StepValidation {
		auth.DSTransID = att.DSTransID
	}
	return &TransactionRequest{
		MessageType:    MessageTypeRequest,
		ProcessingCode: att.ProcessingCode,
		TraceNo:        att.TraceNo,
		EntryMode:      att.EntryMode,
		NetworkID:      att.NetworkID,
		ConditionCode:  att.ConditionCode,
		OrderInfo:      att.OrderInfo,
		CardNetwork:    att.CardNetwork,
		Authentication: auth,
		ClientIP:       clientIP,
	}
}

// NewInitialReversal builds the compensating message for a step-1 call
// with an unknown outcome. It carries the same trace number and amount as
// the original and an empty card block.
func NewInitialReversal(traceNo, amountMinor, retrievalRef string) *TransactionRequest {
	return &TransactionRequest{
		MessageType:    MessageTypeReversal,
		ProcessingCode: ProcessingCodePurchase,
		TraceNo:        traceNo,
		EntryMode:      EntryModeECommerce,
		NetworkID:      NetworkIDDefault,
		ConditionCode:  ConditionCodeECommerce,
		AmountTrans:    amountMinor,
		RetrievalRef:   retrievalRef,
	}
}

// NewStepReversal copies the exact payload of a failed step-3/5 call,
// replacing only the message type and clearing the installment field.
// Exact reuse is a protocol requirement, not an optimization.
func NewStepReversal(orig *TransactionRequest) *TransactionRequest {
	rev := *orig
	rev.MessageType = MessageTypeReversal
	rev.AdditionalData = ""
	return &rev
}

// AmountMinorUnits renders a fixed-point amount in minor units, as the
// wire format requires: Q100.00 becomes "10000".
func AmountMinorUnits(amount decimal.Decimal) string {
	return amount.Shift(2).Truncate(0).String()
}

// DetectCardNetwork maps a PAN prefix to the processor's card type code.
// Unknown prefixes yield an empty code and are left for the gateway to
// classify.
func DetectCardNetwork(pan string) string {
	switch {
	case strings.HasPrefix(pan, "4"):
		return CardNetworkVisa
	case strings.HasPrefix(pan, "5"), strings.HasPrefix(pan, "2"):
		return CardNetworkMastercard
	case strings.HasPrefix(pan, "34"), strings.HasPrefix(pan, "37"):
		return CardNetworkAmex
	}
	return ""
}
