// dto.go
package dto

import "time"

// CartItemDTO es una línea del carrito tal como la manda el cliente.
type CartItemDTO struct {
	ID          string  `json:"id" validate:"required"`
	Name        string  `json:"name" validate:"required"`
	Price       float64 `json:"price" validate:"gte=0"`
	Quantity    int     `json:"quantity" validate:"required,min=1"`
	Observation string  `json:"observation"`
}

type QuoteRequest struct {
	Items   []CartItemDTO `json:"items" validate:"required,min=1,dive"`
	Address string        `json:"address"`
}

type QuoteResponse struct {
	Subtotal             float64 `json:"subtotal"`
	DeliveryFee          float64 `json:"deliveryFee"`
	Total                float64 `json:"total"`
	WithinDeliveryRadius bool    `json:"withinDeliveryRadius"`
}

type PaymentIntentRequest struct {
	Items []CartItemDTO `json:"items" validate:"required,min=1,dive"`
}

type PaymentIntentResponse struct {
	PaymentIntentID string `json:"paymentIntentId"`
	ClientSecret    string `json:"clientSecret"`
	Amount          int64  `json:"amount"`
	Currency        string `json:"currency"`
}

// CheckoutRequest: datos del cliente + carrito + medio de pago.
// Para "cartao" es obligatorio PaymentIntentID.
type CheckoutRequest struct {
	Name            string        `json:"name" validate:"required"`
	ContactNumber   string        `json:"contactNumber" validate:"required"`
	Address         string        `json:"address" validate:"required"`
	Items           []CartItemDTO `json:"items" validate:"required,min=1,dive"`
	PaymentMethod   string        `json:"paymentMethod" validate:"required,oneof=entrega cartao pix"`
	Troco           string        `json:"troco"`
	PaymentIntentID string        `json:"paymentIntentId" validate:"required_if=PaymentMethod cartao"`
}

type CheckoutResponse struct {
	OrderID              string  `json:"orderId"`
	TotalValue           float64 `json:"totalValue"`
	WithinDeliveryRadius bool    `json:"withinDeliveryRadius"`
	Replayed             bool    `json:"replayed"`
}

type UpdateStatusRequest struct {
	Status string `json:"status" binding:"required"`
}

type OrderStatusResponse struct {
	OrderID   string    `json:"orderId"`
	Status    string    `json:"status"`
	UpdatedAt time.Time `json:"updatedAt"`
	Final     bool      `json:"final"`
	Next      []string  `json:"next"`
}

// Comando recibido por Rabbit (o por cualquier otro micro) para mover una orden.
type StatusCommand struct {
	OrderID string `json:"orderId"`
	Status  string `json:"status"`
	Actor   string `json:"actor"`
}

// Evento publicado en el exchange order_events.
type OrderEvent struct {
	Type       string    `json:"type"`
	OrderID    string    `json:"orderId"`
	Email      string    `json:"email"`
	From       string    `json:"from,omitempty"`
	Status     string    `json:"status"`
	TotalValue float64   `json:"totalValue"`
	OccurredAt time.Time `json:"occurredAt"`
}

type StoreConfigRequest struct {
	Name         string `json:"name" validate:"required"`
	Address      string `json:"address"`
	Phone        string `json:"phone"`
	Image        string `json:"image"`
	WorkingHours string `json:"workingHours"`
	Description  string `json:"description"`
	Banner       string `json:"banner"`
	// puntero para distinguir un false explícito de un campo omitido
	DeliveryActive *bool `json:"deliveryActive" validate:"required"`
}
