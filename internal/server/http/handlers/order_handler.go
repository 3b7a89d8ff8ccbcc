package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	domainErrors "github.com/celustore/payserver/internal/domain/errors"
	"github.com/celustore/payserver/internal/domain/model"
	"github.com/celustore/payserver/internal/domain/repository"
	"github.com/celustore/payserver/internal/server/http/dto"
)

// OrderHandler manages order-related endpoints.
type OrderHandler struct {
	facade OrderFacade
}

// NewOrderHandler constructs OrderHandler.
func NewOrderHandler(facade OrderFacade) *OrderHandler {
	return &OrderHandler{facade: facade}
}

// Create handles POST /api/orders.
func (h *OrderHandler) Create(c *gin.Context) {
	var req dto.CreateOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{Message: "solicitud invalida: " + err.Error()})
		return
	}

	draft := repository.OrderDraft{
		Customer: model.Customer{
			FirstName: req.Customer.FirstName,
			LastName:  req.Customer.LastName,
			Email:     req.Customer.Email,
			Phone:     req.Customer.Phone,
			Address:   req.Customer.Address,
			Locality:  req.Customer.Locality,
			State:     req.Customer.State,
			Country:   req.Customer.Country,
		},
		PaymentMethod: model.PaymentMethod(req.PaymentMethod),
	}
	for _, item := range req.Items {
		draft.Items = append(draft.Items, repository.DraftItem{UnitID: item.UnitID, Quantity: item.Quantity})
	}

	order, err := h.facade.CreateOrder(c.Request.Context(), draft)
	if err != nil {
		var outOfStock domainErrors.OutOfStockError
		switch {
		case errors.As(err, &outOfStock):
			c.JSON(http.StatusConflict, dto.ErrorResponse{Message: "sin existencias: " + outOfStock.ProductName})
		case errors.Is(err, domainErrors.ErrEmptyOrder):
			c.JSON(http.StatusBadRequest, dto.ErrorResponse{Message: "el pedido debe contener al menos un articulo"})
		case errors.Is(err, domainErrors.ErrUnsupportedMethod):
			c.JSON(http.StatusBadRequest, dto.ErrorResponse{Message: "metodo de pago no soportado"})
		case errors.Is(err, domainErrors.ErrNotFound):
			c.JSON(http.StatusUnprocessableEntity, dto.ErrorResponse{Message: "articulo inexistente"})
		default:
			c.Status(http.StatusInternalServerError)
		}
		return
	}

	c.JSON(http.StatusCreated, toOrderResponse(order))
}

// Get handles GET /api/orders/:id.
func (h *OrderHandler) Get(c *gin.Context) {
	id, err := orderID(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{Message: "identificador invalido"})
		return
	}

	order, err := h.facade.GetOrder(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, domainErrors.ErrNotFound) {
			c.Status(http.StatusNotFound)
			return
		}
		c.Status(http.StatusInternalServerError)
		return
	}

	c.JSON(http.StatusOK, toOrderResponse(order))
}

// Cancel handles DELETE /api/admin/orders/:id.
func (h *OrderHandler) Cancel(c *gin.Context) {
	id, err := orderID(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{Message: "identificador invalido"})
		return
	}

	if err := h.facade.CancelOrder(c.Request.Context(), id); err != nil {
		switch {
		case errors.Is(err, domainErrors.ErrNotFound):
			c.Status(http.StatusNotFound)
		case errors.Is(err, domainErrors.ErrInvalidOrderState):
			c.JSON(http.StatusConflict, dto.ErrorResponse{Message: "el pedido ya fue enviado o entregado"})
		case errors.Is(err, domainErrors.ErrVoidFailed):
			c.JSON(http.StatusBadGateway, dto.ErrorResponse{Message: "no se pudo anular el cobro, el pedido no fue cancelado"})
		default:
			c.Status(http.StatusInternalServerError)
		}
		return
	}

	c.Status(http.StatusNoContent)
}

func orderID(c *gin.Context) (int64, error) {
	return strconv.ParseInt(c.Param("id"), 10, 64)
}
