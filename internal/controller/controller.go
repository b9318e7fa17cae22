package controller

import (
	"net/http"
	"time"

	"restaurant-order-service/internal/dto"
	"restaurant-order-service/internal/feed"
	"restaurant-order-service/internal/middleware"
	"restaurant-order-service/internal/model"
	"restaurant-order-service/internal/service"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// OrderFeed es lo que necesitan los streams SSE del feed de órdenes.
type OrderFeed interface {
	Subscribe(filter feed.Predicate, onChange func([]model.Order)) (unsubscribe func())
}

type OrderController struct {
	Service   *service.OrderStatusService
	Feed      OrderFeed
	Log       *zap.Logger
	Heartbeat time.Duration
}

func NewOrderController(s *service.OrderStatusService, f OrderFeed, log *zap.Logger) *OrderController {
	return &OrderController{Service: s, Feed: f, Log: log, Heartbeat: 15 * time.Second}
}

// GET /orders/mine - las órdenes del usuario autenticado, por email
func (ctl *OrderController) GetMyOrders(c *gin.Context) {
	email := c.GetString(middleware.UserEmailKey)
	orders, err := ctl.Service.GetByUserEmail(c.Request.Context(), email)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, orders)
}

// GET /orders/:orderId - dueño o admin
func (ctl *OrderController) GetOrder(c *gin.Context) {
	o, ok := ctl.loadVisible(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, o)
}

// GET /orders/:orderId/latest - solo el estado actual
func (ctl *OrderController) GetLatestStatus(c *gin.Context) {
	o, ok := ctl.loadVisible(c)
	if !ok {
		return
	}

	updated := o.UpdatedAt
	if updated.IsZero() {
		updated = o.CreatedAt
	}
	next := []string{}
	for _, s := range service.NextStatuses(o.Status) {
		next = append(next, string(s))
	}
	c.JSON(http.StatusOK, dto.OrderStatusResponse{
		OrderID:   o.OrderID,
		Status:    string(o.Status),
		UpdatedAt: updated,
		Final:     service.IsTerminal(o.Status),
		Next:      next,
	})
}

func (ctl *OrderController) loadVisible(c *gin.Context) (*model.Order, bool) {
	o, err := ctl.Service.GetByOrderID(c.Request.Context(), c.Param("orderId"))
	if err != nil {
		respondError(c, err)
		return nil, false
	}

	// Validación de acceso
	owner := o.Email == c.GetString(middleware.UserEmailKey) || (o.UserID != "" && o.UserID == c.GetString(middleware.UserIDKey))
	if !owner && !middleware.IsAdmin(c) {
		c.JSON(http.StatusForbidden, gin.H{"error": "you cannot view another user's order"})
		return nil, false
	}
	return o, true
}

// GET /admin/orders - admin only (middleware AdminOnly)
func (ctl *OrderController) GetAllOrders(c *gin.Context) {
	orders, err := ctl.Service.GetAll(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, orders)
}

// GET /admin/orders/status/:status - admin only
func (ctl *OrderController) GetOrdersByStatus(c *gin.Context) {
	status := model.Status(c.Param("status"))
	if !service.IsValidStatus(status) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unknown status " + string(status)})
		return
	}

	orders, err := ctl.Service.GetByStatus(c.Request.Context(), status)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, orders)
}

// PATCH /admin/orders/:orderId/status - admin only
func (ctl *OrderController) UpdateStatus(c *gin.Context) {
	var req dto.UpdateStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	actor := c.GetString(middleware.UserEmailKey)
	if actor == "" {
		actor = c.GetString(middleware.UserIDKey)
	}

	o, err := ctl.Service.UpdateStatus(c.Request.Context(), c.Param("orderId"), model.Status(req.Status), actor)
	if err != nil {
		ctl.Log.Warn("status update rejected",
			zap.String("order_id", c.Param("orderId")),
			zap.String("status", req.Status),
			zap.Error(err),
		)
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, o)
}
