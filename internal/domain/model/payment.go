package model

import "encoding/json"

// BillingBlock is the normalized billing address sent to the gateway and
// cached between authentication steps.
type BillingBlock struct {
	FirstName  string `json:"firstName"`
	LastName   string `json:"lastName"`
	Address1   string `json:"address1"`
	Locality   string `json:"locality"`
	AdminArea  string `json:"administrativeArea"`
	PostalCode string `json:"postalCode"`
	Country    string `json:"country"`
	Email      string `json:"email"`
	PhoneNo    string `json:"phoneNumber"`
}

// PaymentAttempt is the logical state carried between step 1 and steps 3/5
// of the authentication sequence. The process is stateless between HTTP
// requests (the browser round-trips through the external authenticator),
// so the snapshot lives on the order row, not in memory.
type PaymentAttempt struct {
	Version        int          `json:"version"`
	TraceNo        string       `json:"traceNo"`
	ReferenceID    string       `json:"referenceId"`
	ProcessingCode string       `json:"processingCode"`
	EntryMode      string       `json:"entryMode"`
	NetworkID      string       `json:"networkId"`
	ConditionCode  string       `json:"conditionCode"`
	OrderInfo      string       `json:"orderInfo"`
	AmountMinor    string       `json:"amountMinor"`
	CardNetwork    string       `json:"cardNetwork"`
	Billing        BillingBlock `json:"billing"`
	// Step is the highest authentication step already completed.
	Step string `json:"step"`
	// DSTransID arrives with a step-up requirement and must be echoed
	// back in the step-5 message.
	DSTransID string `json:"dsTransId,omitempty"`
}

// AttemptVersion is the current PaymentAttempt serialization version.
const AttemptVersion = 1

// GatewayRecord is what gets serialized into Order.GatewayBlob.
type GatewayRecord struct {
	Attempt      *PaymentAttempt `json:"attempt,omitempty"`
	LastResponse json.RawMessage `json:"lastResponse,omitempty"`
}

// EncodeGatewayRecord serializes a record for storage on the order row.
func EncodeGatewayRecord(rec *GatewayRecord) ([]byte, error) {
	return json.Marshal(rec)
}

// DecodeGatewayRecord restores a record from the order row. A nil or empty
// blob yields an empty record.
func DecodeGatewayRecord(blob []byte) (*GatewayRecord, error) {
	rec := &GatewayRecord{}
	if len(blob) == 0 {
		return rec, nil
	}
	if err := json.Unmarshal(blob, rec); err != nil {
		return nil, err
	}
	return rec, nil
}
