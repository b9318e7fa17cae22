package rabbit

import (
	"context"
	"encoding/json"
	"errors"

	"restaurant-order-service/internal/dto"
	"restaurant-order-service/internal/model"
	"restaurant-order-service/internal/service"

	"go.uber.org/zap"
)

type StatusUpdater interface {
	UpdateStatus(ctx context.Context, orderID string, newStatus model.Status, actor string) (*model.Order, error)
}

// StatusCommandConsumer aplica comandos de cambio de estado que llegan de otros
// micros (por ejemplo la app del repartidor marcando Entregue).
type StatusCommandConsumer struct {
	Service StatusUpdater
	log     *zap.Logger
}

func NewStatusCommandConsumer(s StatusUpdater, log *zap.Logger) *StatusCommandConsumer {
	return &StatusCommandConsumer{Service: s, log: log}
}

// Handle devuelve error solo cuando vale la pena reintentar (store caído).
// Comandos mal formados o transiciones inválidas se loguean y se descartan.
func (c *StatusCommandConsumer) Handle(ctx context.Context, msg []byte) error {
	var env Envelope
	if err := json.Unmarshal(msg, &env); err != nil {
		c.log.Error("invalid status command envelope", zap.Error(err))
		return nil
	}

	var cmd dto.StatusCommand
	if err := json.Unmarshal(env.Message, &cmd); err != nil {
		c.log.Error("invalid status command", zap.String("correlation_id", env.CorrelationID), zap.Error(err))
		return nil
	}
	if cmd.OrderID == "" || cmd.Status == "" {
		c.log.Error("incomplete status command", zap.String("correlation_id", env.CorrelationID))
		return nil
	}

	actor := cmd.Actor
	if actor == "" {
		actor = "rabbit"
	}

	_, err := c.Service.UpdateStatus(ctx, cmd.OrderID, model.Status(cmd.Status), actor)
	switch {
	case err == nil:
		c.log.Info("status command applied", zap.String("order_id", cmd.OrderID), zap.String("status", cmd.Status))
		return nil
	case errors.Is(err, service.ErrPersistence):
		c.log.Error("status command failed, will retry", zap.String("order_id", cmd.OrderID), zap.Error(err))
		return err
	default:
		c.log.Warn("status command rejected",
			zap.String("order_id", cmd.OrderID),
			zap.String("status", cmd.Status),
			zap.Error(err),
		)
		return nil
	}
}
