package dto

// CardPaymentRequest is the body of POST /api/payments/:orderID/card.
type CardPaymentRequest struct {
	CardNumber   string `json:"numeroTarjeta" binding:"required"`
	Expiry       string `json:"vencimiento" binding:"required"`
	CVV          string `json:"cvv" binding:"required"`
	Installments int    `json:"cuotas"`
}

// ContinueRequest is the body of the continue/challenge resume calls.
// The reference id is advisory; the stored one wins on mismatch.
type ContinueRequest struct {
	ReferenceID string `json:"referenceId"`
}

// AuthenticationResponse describes the external round-trip the shopper
// must perform before the sequence can resume.
type AuthenticationResponse struct {
	AccessToken             string `json:"accessToken"`
	DeviceDataCollectionURL string `json:"deviceDataCollectionUrl,omitempty"`
	StepUpURL               string `json:"stepUpUrl,omitempty"`
	ReferenceID             string `json:"referenceId"`
	DSTransID               string `json:"dsTransId,omitempty"`
}

// PaymentStepResponse is the outcome of one authorization step.
type PaymentStepResponse struct {
	Approved         bool   `json:"aprobado"`
	Partial          bool   `json:"aprobacionParcial,omitempty"`
	PartialReason    string `json:"motivoParcial,omitempty"`
	TimedOut         bool   `json:"tiempoAgotado,omitempty"`
	ReversalExecuted bool   `json:"reversaEjecutada"`
	VerifyManually   bool   `json:"verificarManualmente,omitempty"`
	PaymentStatus    string `json:"estadoPago"`
	OrderStatus      string `json:"estado"`
	ResponseCode     string `json:"codigoRespuesta,omitempty"`
	Message          string `json:"mensaje"`
	ConfigHint       string `json:"sugerenciaConfiguracion,omitempty"`

	AuthenticationRequired bool                    `json:"requiereAutenticacion"`
	Authentication         *AuthenticationResponse `json:"autenticacion,omitempty"`
}
