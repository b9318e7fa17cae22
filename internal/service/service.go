package service

import (
	"context"
	"time"

	"restaurant-order-service/internal/dto"
	"restaurant-order-service/internal/metrics"
	"restaurant-order-service/internal/model"
	"restaurant-order-service/internal/repository"

	"go.uber.org/zap"
)

// Interfaz que debe implementar repository
type OrderRepository interface {
	GetByOrderID(ctx context.Context, orderID string) (*model.Order, error)
	UpdateStatus(ctx context.Context, orderID string, expected, status model.Status, record model.StatusRecord) error
	GetAll(ctx context.Context) ([]model.Order, error)
	GetByStatus(ctx context.Context, status model.Status) ([]model.Order, error)
	GetByUserEmail(ctx context.Context, email string) ([]model.Order, error)
}

// Publisher manda eventos al broker. topic es uno de los Topic*.
type Publisher interface {
	Publish(ctx context.Context, topic string, message interface{}) error
}

const (
	TopicOrderCreated       = "order.created"
	TopicOrderStatusChanged = "order.status_changed"
	TopicPrintReceipt       = "order.print"
)

// Errores de negocio exportados (los usa el controller)
var (
	ErrNotFound       = repository.ErrNotFound
	ErrStatusConflict = repository.ErrStatusConflict
	ErrPersistence    = repository.ErrPersistence
	ErrDuplicateOrder = repository.ErrDuplicateOrder
)

type OrderStatusService struct {
	repo OrderRepository
	pub  Publisher
	log  *zap.Logger
	now  func() time.Time
}

func NewOrderStatusService(r OrderRepository, pub Publisher, log *zap.Logger) *OrderStatusService {
	return &OrderStatusService{repo: r, pub: pub, log: log, now: time.Now}
}

// Getters
func (s *OrderStatusService) GetByOrderID(ctx context.Context, orderID string) (*model.Order, error) {
	return s.repo.GetByOrderID(ctx, orderID)
}

func (s *OrderStatusService) GetAll(ctx context.Context) ([]model.Order, error) {
	orders, err := s.repo.GetAll(ctx)
	if err != nil {
		return nil, err
	}
	model.SortByCreatedAtDesc(orders)
	return orders, nil
}

func (s *OrderStatusService) GetByStatus(ctx context.Context, status model.Status) ([]model.Order, error) {
	orders, err := s.repo.GetByStatus(ctx, status)
	if err != nil {
		return nil, err
	}
	model.SortByCreatedAtDesc(orders)
	return orders, nil
}

func (s *OrderStatusService) GetByUserEmail(ctx context.Context, email string) ([]model.Order, error) {
	orders, err := s.repo.GetByUserEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	model.SortByCreatedAtDesc(orders)
	return orders, nil
}

// UpdateStatus valida la transición contra el estado actual y la escribe de
// forma condicional: si otro actor movió la orden en el medio, ErrStatusConflict.
// Los efectos secundarios corren después de escribir y sus fallas no deshacen
// el cambio.
func (s *OrderStatusService) UpdateStatus(ctx context.Context, orderID string, newStatus model.Status, actor string) (*model.Order, error) {
	ord, err := s.repo.GetByOrderID(ctx, orderID)
	if err != nil {
		return nil, err
	}

	current := ord.Status
	if err := Transition(current, newStatus); err != nil {
		return nil, err
	}

	record := model.StatusRecord{
		From:      current,
		To:        newStatus,
		Actor:     actor,
		Timestamp: s.now().UTC(),
	}
	if err := s.repo.UpdateStatus(ctx, orderID, current, newStatus, record); err != nil {
		return nil, err
	}

	ord.Status = newStatus
	ord.UpdatedAt = record.Timestamp
	ord.History = append(ord.History, record)

	s.log.Info("order status updated",
		zap.String("order_id", orderID),
		zap.String("from", string(current)),
		zap.String("to", string(newStatus)),
		zap.String("actor", actor),
	)
	s.afterTransition(ctx, ord, current)
	return ord, nil
}

func (s *OrderStatusService) afterTransition(ctx context.Context, ord *model.Order, from model.Status) {
	metrics.RecordTransition(string(from), string(ord.Status))

	if s.pub == nil {
		return
	}

	// Al aceptar la orden se imprime la comanda
	if from == model.StatusPendente && ord.Status == model.StatusPreparo {
		if err := s.pub.Publish(ctx, TopicPrintReceipt, ord); err != nil {
			s.log.Error("publish print job", zap.String("order_id", ord.OrderID), zap.Error(err))
		}
	}

	event := dto.OrderEvent{
		Type:       TopicOrderStatusChanged,
		OrderID:    ord.OrderID,
		Email:      ord.Email,
		From:       string(from),
		Status:     string(ord.Status),
		TotalValue: ord.TotalValue,
		OccurredAt: ord.UpdatedAt,
	}
	if err := s.pub.Publish(ctx, TopicOrderStatusChanged, event); err != nil {
		s.log.Error("publish status event", zap.String("order_id", ord.OrderID), zap.Error(err))
	}
}
