package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/celustore/payserver/internal/adapter/gateway"
	domainErrors "github.com/celustore/payserver/internal/domain/errors"
	"github.com/celustore/payserver/internal/server/http/dto"
	"github.com/celustore/payserver/internal/usecase"
)

// PaymentHandler exposes the card authorization sequence.
type PaymentHandler struct {
	facade PaymentFacade
}

// NewPaymentHandler constructs PaymentHandler.
func NewPaymentHandler(facade PaymentFacade) *PaymentHandler {
	return &PaymentHandler{facade: facade}
}

// Start handles POST /api/payments/:id/card.
func (h *PaymentHandler) Start(c *gin.Context) {
	id, err := orderID(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{Message: "identificador invalido"})
		return
	}

	var req dto.CardPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{Message: "solicitud invalida: " + err.Error()})
		return
	}

	result, err := h.facade.CardPayment(c.Request.Context(), usecase.CardPaymentInput{
		OrderID: id,
		Card: gateway.CardDetails{
			PAN:    req.CardNumber,
			Expiry: req.Expiry,
			CVV:    req.CVV,
		},
		Installments: req.Installments,
		ClientIP:     c.ClientIP(),
	})
	if err != nil {
		h.writeError(c, err)
		return
	}

	c.JSON(stepStatus(result), toStepResponse(result))
}

// Continue handles POST /api/payments/:id/card/continue, resuming the
// sequence after device data collection.
func (h *PaymentHandler) Continue(c *gin.Context) {
	h.resume(c, h.facade.CardContinue)
}

// Challenge handles POST /api/payments/:id/card/challenge, resuming the
// sequence after the cardholder challenge.
func (h *PaymentHandler) Challenge(c *gin.Context) {
	h.resume(c, h.facade.CardChallenge)
}

func (h *PaymentHandler) resume(c *gin.Context, step func(ctx context.Context, in usecase.ContinueInput) (*usecase.StepResult, error)) {
	id, err := orderID(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{Message: "identificador invalido"})
		return
	}

	var req dto.ContinueRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, dto.ErrorResponse{Message: "solicitud invalida: " + err.Error()})
			return
		}
	}

	result, err := step(c.Request.Context(), usecase.ContinueInput{
		OrderID:     id,
		ReferenceID: req.ReferenceID,
		ClientIP:    c.ClientIP(),
	})
	if err != nil {
		h.writeError(c, err)
		return
	}

	c.JSON(stepStatus(result), toStepResponse(result))
}

func (h *PaymentHandler) writeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, domainErrors.ErrNotFound):
		c.Status(http.StatusNotFound)
	case errors.Is(err, domainErrors.ErrUnsupportedMethod):
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{Message: "el pedido no se paga con tarjeta"})
	case errors.Is(err, domainErrors.ErrInvalidCard):
		c.JSON(http.StatusUnprocessableEntity, dto.ErrorResponse{Message: "datos de tarjeta invalidos"})
	case errors.Is(err, domainErrors.ErrInvalidOrderState):
		c.JSON(http.StatusConflict, dto.ErrorResponse{Message: "el pago no es procesable en el estado actual"})
	case errors.Is(err, domainErrors.ErrStepOrder), errors.Is(err, domainErrors.ErrAttemptMissing):
		c.JSON(http.StatusConflict, dto.ErrorResponse{Message: "la secuencia de autenticacion no esta en el paso esperado"})
	case errors.Is(err, domainErrors.ErrProtocolViolation):
		c.JSON(http.StatusBadGateway, dto.ErrorResponse{Message: "respuesta inesperada del gateway"})
	default:
		c.Status(http.StatusInternalServerError)
	}
}

// stepStatus keeps settled outcomes on 200; a timeout with compensation
// is reported as 408 so the storefront can message the shopper.
func stepStatus(result *usecase.StepResult) int {
	if result.TimedOut {
		return http.StatusRequestTimeout
	}
	return http.StatusOK
}
