package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/celustore/payserver/internal/server/http/dto"
)

// CatalogHandler serves the read-only variant catalog.
type CatalogHandler struct {
	facade CatalogFacade
}

// NewCatalogHandler constructs CatalogHandler.
func NewCatalogHandler(facade CatalogFacade) *CatalogHandler {
	return &CatalogHandler{facade: facade}
}

// Units handles GET /api/products/:id/units.
func (h *CatalogHandler) Units(c *gin.Context) {
	productID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{Message: "identificador invalido"})
		return
	}

	units, err := h.facade.ProductUnits(c.Request.Context(), productID)
	if err != nil {
		c.Status(http.StatusInternalServerError)
		return
	}

	response := make([]dto.UnitResponse, 0, len(units))
	for _, unit := range units {
		response = append(response, dto.UnitResponse{
			ID:          unit.ID,
			ProductID:   unit.ProductID,
			ProductName: unit.ProductName,
			ProductType: unit.ProductType,
			Color:       unit.Color,
			Capacity:    unit.Capacity,
			Condition:   unit.Condition,
			UnitPrice:   unit.UnitPrice.StringFixed(2),
			Stock:       unit.Stock,
		})
	}
	c.JSON(http.StatusOK, response)
}
