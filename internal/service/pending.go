package service

import (
	"restaurant-order-service/internal/metrics"
	"restaurant-order-service/internal/model"
)

// PendingWatcher recuerda qué órdenes ya vio un visor del panel y devuelve las
// Pendente nuevas. La alerta sonora suena una vez por orden, no por snapshot.
// No es seguro para uso concurrente: cada visor tiene el suyo.
type PendingWatcher struct {
	seen map[string]struct{}
}

func NewPendingWatcher() *PendingWatcher {
	return &PendingWatcher{seen: make(map[string]struct{})}
}

// Observe recibe un snapshot y devuelve las órdenes Pendente que este visor no
// había visto nunca.
func (w *PendingWatcher) Observe(orders []model.Order) []model.Order {
	var fresh []model.Order
	for _, o := range orders {
		if _, ok := w.seen[o.OrderID]; ok {
			continue
		}
		w.seen[o.OrderID] = struct{}{}
		if o.Status == model.StatusPendente {
			fresh = append(fresh, o)
		}
	}
	if len(fresh) > 0 {
		metrics.RecordNewPendingAlerts(len(fresh))
	}
	return fresh
}
