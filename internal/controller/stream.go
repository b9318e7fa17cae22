package controller

import (
	"io"
	"time"

	"restaurant-order-service/internal/feed"
	"restaurant-order-service/internal/middleware"
	"restaurant-order-service/internal/model"
	"restaurant-order-service/internal/service"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const (
	eventSnapshot = "snapshot"
	eventNewOrder = "new-order"
	eventPing     = "ping"
)

type streamUpdate struct {
	orders []model.Order
	fresh  []model.Order
}

// offer deja en ch solo la última actualización. Si el cliente es lento el
// snapshot viejo se descarta, pero sus órdenes nuevas se conservan para que
// la alerta no se pierda. Lo llama siempre la goroutine del feed.
func offer(ch chan streamUpdate, u streamUpdate) {
	for {
		select {
		case ch <- u:
			return
		default:
		}
		select {
		case old := <-ch:
			u.fresh = append(old.fresh, u.fresh...)
		default:
		}
	}
}

// GET /orders/mine/stream - SSE con las órdenes del usuario
func (ctl *OrderController) StreamMyOrders(c *gin.Context) {
	email := c.GetString(middleware.UserEmailKey)
	ctl.stream(c, feed.ByUserEmail(email), nil)
}

// GET /admin/orders/stream - SSE con todas las órdenes. Antes de un snapshot
// que trae Pendente nuevas se manda un evento new-order (el panel hace sonar
// la alerta con ese evento).
func (ctl *OrderController) StreamAdminOrders(c *gin.Context) {
	ctl.stream(c, feed.All, service.NewPendingWatcher())
}

func (ctl *OrderController) stream(c *gin.Context, filter feed.Predicate, watcher *service.PendingWatcher) {
	updates := make(chan streamUpdate, 1)
	unsubscribe := ctl.Feed.Subscribe(filter, func(orders []model.Order) {
		u := streamUpdate{orders: orders}
		if watcher != nil {
			// el watcher solo lo toca la goroutine del feed
			u.fresh = watcher.Observe(orders)
		}
		offer(updates, u)
	})
	defer unsubscribe()

	heartbeat := time.NewTicker(ctl.Heartbeat)
	defer heartbeat.Stop()

	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no")

	ctx := c.Request.Context()
	ctl.Log.Debug("order stream opened", zap.String("path", c.FullPath()))

	c.Stream(func(w io.Writer) bool {
		select {
		case <-ctx.Done():
			return false
		case <-heartbeat.C:
			c.SSEvent(eventPing, time.Now().UTC().Format(time.RFC3339))
			return true
		case u := <-updates:
			if len(u.fresh) > 0 {
				c.SSEvent(eventNewOrder, u.fresh)
			}
			c.SSEvent(eventSnapshot, u.orders)
			return true
		}
	})

	ctl.Log.Debug("order stream closed", zap.String("path", c.FullPath()))
}
