package dto

import "time"

// CustomerPayload carries checkout billing identity. Keys follow the
// storefront's Spanish API contract.
type CustomerPayload struct {
	FirstName string `json:"nombre" binding:"required"`
	LastName  string `json:"apellido" binding:"required"`
	Email     string `json:"correo" binding:"required,email"`
	Phone     string `json:"telefono" binding:"required"`
	Address   string `json:"direccion" binding:"required"`
	Locality  string `json:"municipio"`
	State     string `json:"departamento"`
	Country   string `json:"pais"`
}

// OrderItemPayload references an inventory unit at checkout.
type OrderItemPayload struct {
	UnitID   int64 `json:"unidadId" binding:"required"`
	Quantity int32 `json:"cantidad" binding:"required"`
}

// CreateOrderRequest is the body of POST /api/orders.
type CreateOrderRequest struct {
	Customer      CustomerPayload    `json:"cliente" binding:"required"`
	PaymentMethod string             `json:"metodoPago" binding:"required"`
	Items         []OrderItemPayload `json:"items" binding:"required"`
}

// OrderItemResponse is one order line in responses.
type OrderItemResponse struct {
	ProductID   int64  `json:"productoId"`
	ProductType string `json:"tipoProducto"`
	Quantity    int32  `json:"cantidad"`
	UnitPrice   string `json:"precioUnitario"`
	Subtotal    string `json:"subtotal"`
	Color       string `json:"color,omitempty"`
	Capacity    string `json:"capacidad,omitempty"`
	Condition   string `json:"condicion,omitempty"`
}

// VoucherResponse is the receipt block returned once payment is approved.
type VoucherResponse struct {
	AuthorizationID string    `json:"autorizacion"`
	RetrievalRef    string    `json:"referencia"`
	TransactionAt   time.Time `json:"fecha"`
}

// OrderResponse is the public view of an order.
type OrderResponse struct {
	ID               int64               `json:"id"`
	Status           string              `json:"estado"`
	PaymentStatus    string              `json:"estadoPago"`
	PaymentMethod    string              `json:"metodoPago"`
	Items            []OrderItemResponse `json:"items"`
	Subtotal         string              `json:"subtotal"`
	Shipping         string              `json:"envio"`
	Total            string              `json:"total"`
	Voucher          *VoucherResponse    `json:"voucher,omitempty"`
	RejectionCode    string              `json:"codigoRechazo,omitempty"`
	RejectionMessage string              `json:"mensajeRechazo,omitempty"`
	CreatedAt        time.Time           `json:"creado"`
}

// UnitResponse is one sellable variant in the catalog listing.
type UnitResponse struct {
	ID          int64  `json:"id"`
	ProductID   int64  `json:"productoId"`
	ProductName string `json:"nombre"`
	ProductType string `json:"tipoProducto"`
	Color       string `json:"color,omitempty"`
	Capacity    string `json:"capacidad,omitempty"`
	Condition   string `json:"condicion,omitempty"`
	UnitPrice   string `json:"precio"`
	Stock       int32  `json:"existencias"`
}

// ErrorResponse is the uniform error body.
type ErrorResponse struct {
	Message string `json:"mensaje"`
}
