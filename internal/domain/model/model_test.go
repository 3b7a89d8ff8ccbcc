package model

import (
	"encoding/json"
	"testing"
)

func TestGatewayRecordRoundTrip(t *testing.T) {
	rec := &GatewayRecord{
		Attempt: &PaymentAttempt{
			Version:     AttemptVersion,
			TraceNo:     "000042",
			ReferenceID: "ref-1",
			AmountMinor: "25000",
			Step:        "4",
			DSTransID:   "ds-9",
		},
		LastResponse: json.RawMessage(`{"responseCode":"00"}`),
	}

	blob, err := EncodeGatewayRecord(rec)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}

	got, err := DecodeGatewayRecord(blob)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got.Attempt == nil || got.Attempt.TraceNo != "000042" || got.Attempt.DSTransID != "ds-9" {
		t.Fatalf("attempt not restored: %+v", got.Attempt)
	}
	if string(got.LastResponse) != `{"responseCode":"00"}` {
		t.Fatalf("raw response not restored: %s", got.LastResponse)
	}
}

func TestDecodeGatewayRecordEmptyBlob(t *testing.T) {
	for _, blob := range [][]byte{nil, {}} {
		rec, err := DecodeGatewayRecord(blob)
		if err != nil {
			t.Fatalf("empty blob must decode: %v", err)
		}
		if rec.Attempt != nil {
			t.Fatal("empty blob yields empty record")
		}
	}

	if _, err := DecodeGatewayRecord([]byte("{broken")); err == nil {
		t.Fatal("expected error for corrupt blob")
	}
}

func TestPaymentStatusTerminal(t *testing.T) {
	terminal := []PaymentStatus{
		PaymentStatusApproved,
		PaymentStatusRejected,
		PaymentStatusReversed,
		PaymentStatusReversalError,
		PaymentStatusError,
	}
	for _, status := range terminal {
		if !status.Terminal() {
			t.Fatalf("%s must be terminal", status)
		}
	}
	if PaymentStatusPending.Terminal() {
		t.Fatal("PENDIENTE is not terminal")
	}
}
