package idempotency

import (
	"context"
	"time"
)

// Estados de una clave de checkout
const (
	StatusInProgress = "IN_PROGRESS"
	StatusDone       = "DONE"
)

type Record struct {
	Key       string    `json:"key"`
	Status    string    `json:"status"`
	OrderID   string    `json:"order_id,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Store deja que un solo intento por clave cree la orden.
//
// CreateIfNotExists devuelve true si este intento tomó la clave; false si ya
// existía (el caller consulta Get). Release borra la clave para permitir
// reintentar después de una falla.
type Store interface {
	CreateIfNotExists(ctx context.Context, key string) (bool, error)
	Get(ctx context.Context, key string) (*Record, error)
	MarkDone(ctx context.Context, key, orderID string) error
	Release(ctx context.Context, key string) error
}
