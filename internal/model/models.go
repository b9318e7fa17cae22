// models.go
package model

import (
	"sort"
	"time"
)

type Status string

const (
	StatusPendente  Status = "Pendente"
	StatusPreparo   Status = "Preparo"
	StatusEntrega   Status = "Entrega"
	StatusEntregue  Status = "Entregue"
	StatusCancelado Status = "Cancelado"
)

type Order struct {
	OrderID         string         `bson:"order_id" json:"orderId"`
	CreatedAt       time.Time      `bson:"created_at" json:"createdAt"`
	UpdatedAt       time.Time      `bson:"updated_at" json:"updatedAt"`
	UserID          string         `bson:"user_id" json:"userId"`
	ContactNumber   string         `bson:"contact_number" json:"contactNumber"`
	Name            string         `bson:"name" json:"name"`
	Email           string         `bson:"email" json:"email"`
	Address         string         `bson:"address" json:"address"`
	Items           []OrderItem    `bson:"items" json:"items"`
	TotalValue      float64        `bson:"total_value" json:"totalValue"`
	Status          Status         `bson:"status" json:"status"` // único campo mutable
	PaymentMethod   string         `bson:"payment_method" json:"paymentMethod"`
	Troco           string         `bson:"troco,omitempty" json:"troco,omitempty"`
	// solo pago con tarjeta; único en la colección
	PaymentIntentID string         `bson:"payment_intent_id,omitempty" json:"paymentIntentId,omitempty"`
	History         []StatusRecord `bson:"history" json:"history,omitempty"`
}

type OrderItem struct {
	ID          string  `bson:"id" json:"id"`
	Name        string  `bson:"name" json:"name"`
	Price       float64 `bson:"price" json:"price"`
	Quantity    int     `bson:"quantity" json:"quantity"`
	Observation string  `bson:"observation,omitempty" json:"observation,omitempty"`
}

// Registro de cada cambio de estado (historial append-only)
type StatusRecord struct {
	From      Status    `bson:"from,omitempty" json:"from,omitempty"`
	To        Status    `bson:"to" json:"to"`
	Actor     string    `bson:"actor" json:"actor"`
	Timestamp time.Time `bson:"timestamp" json:"timestamp"`
}

type StoreConfig struct {
	Name           string    `bson:"name" json:"name"`
	Address        string    `bson:"address" json:"address"`
	Phone          string    `bson:"phone" json:"phone"`
	Image          string    `bson:"image" json:"image"`
	WorkingHours   string    `bson:"working_hours" json:"workingHours"`
	Description    string    `bson:"description" json:"description"`
	Banner         string    `bson:"banner" json:"banner"`
	DeliveryActive bool      `bson:"delivery_active" json:"deliveryActive"`
	UpdatedAt      time.Time `bson:"updated_at" json:"updatedAt"`
}

// SortByCreatedAtDesc ordena in-place, más recientes primero. El orden es
// responsabilidad de la presentación: ni el store ni el feed lo garantizan.
func SortByCreatedAtDesc(orders []Order) {
	sort.SliceStable(orders, func(i, j int) bool {
		return orders[i].CreatedAt.After(orders[j].CreatedAt)
	})
}
