package checkout

import (
	"context"
	"errors"
	"fmt"

	"restaurant-order-service/internal/dto"
	"restaurant-order-service/internal/idempotency"
	"restaurant-order-service/internal/metrics"
	"restaurant-order-service/internal/model"
	"restaurant-order-service/internal/payment"
	"restaurant-order-service/internal/repository"

	validatorv10 "github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

type OrderStore interface {
	Create(ctx context.Context, o *model.Order) (string, error)
	GetByOrderID(ctx context.Context, orderID string) (*model.Order, error)
	GetByUserEmail(ctx context.Context, email string) ([]model.Order, error)
	GetByPaymentIntentID(ctx context.Context, intentID string) (*model.Order, error)
}

type RadiusChecker interface {
	Check(ctx context.Context, address string) bool
}

// StoreStatus dice si la tienda está aceptando pedidos.
type StoreStatus interface {
	DeliveryActive(ctx context.Context) (bool, error)
}

type Publisher interface {
	Publish(ctx context.Context, topic string, message interface{}) error
}

const topicOrderCreated = "order.created"

// Customer es el usuario autenticado que hace el pedido.
type Customer struct {
	UserID string
	Email  string
}

type Service struct {
	store    OrderStore
	checker  RadiusChecker
	payments payment.Processor
	idem     idempotency.Store
	pub      Publisher
	status   StoreStatus
	validate *validatorv10.Validate
	fee      decimal.Decimal
	log      *zap.Logger
}

type Options struct {
	Store       OrderStore
	Checker     RadiusChecker
	Payments    payment.Processor // nil deshabilita el pago con tarjeta
	Idempotency idempotency.Store
	Publisher   Publisher   // opcional
	StoreStatus StoreStatus // opcional; nil = siempre abierta
	Validator   *validatorv10.Validate
	DeliveryFee float64
	Logger      *zap.Logger
}

func NewService(o Options) *Service {
	return &Service{
		store:    o.Store,
		checker:  o.Checker,
		payments: o.Payments,
		idem:     o.Idempotency,
		pub:      o.Publisher,
		status:   o.StoreStatus,
		validate: o.Validator,
		fee:      decimal.NewFromFloat(o.DeliveryFee),
		log:      o.Logger,
	}
}

func (s *Service) invalid(req interface{}) error {
	if err := s.validate.Struct(req); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidRequest, err)
	}
	return nil
}

// Quote calcula los montos y si la dirección está dentro del radio. No crea nada.
func (s *Service) Quote(ctx context.Context, req dto.QuoteRequest) (*dto.QuoteResponse, error) {
	if err := s.invalid(req); err != nil {
		return nil, err
	}

	subtotal := Subtotal(req.Items)
	return &dto.QuoteResponse{
		Subtotal:             subtotal.InexactFloat64(),
		DeliveryFee:          s.fee.InexactFloat64(),
		Total:                subtotal.Add(s.fee).InexactFloat64(),
		WithinDeliveryRadius: s.checker.Check(ctx, req.Address),
	}, nil
}

// CreatePaymentIntent prepara el cobro con tarjeta por el total del carrito.
func (s *Service) CreatePaymentIntent(ctx context.Context, customer Customer, req dto.PaymentIntentRequest) (*dto.PaymentIntentResponse, error) {
	if err := s.invalid(req); err != nil {
		return nil, err
	}
	if s.payments == nil {
		return nil, ErrPaymentUnavailable
	}
	if err := s.ensureOpen(ctx); err != nil {
		return nil, err
	}
	// no cobrar a quien no va a poder cerrar el pedido
	if err := s.ensureNoPendingOrder(ctx, customer.Email); err != nil {
		return nil, err
	}

	amount := MinorUnits(Total(req.Items, s.fee))
	intent, err := s.payments.CreateIntent(ctx, amount, customer.UserID, customer.Email)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrPaymentUnavailable, err)
	}

	return &dto.PaymentIntentResponse{
		PaymentIntentID: intent.ID,
		ClientSecret:    intent.ClientSecret,
		Amount:          intent.Amount,
		Currency:        intent.Currency,
	}, nil
}

// Checkout crea la orden. Cada clave de idempotencia crea a lo sumo una orden:
// repetir después del éxito devuelve la misma orden con Replayed=true.
// Para tarjeta la clave es el paymentIntentId, global: un intent pagado crea
// una sola orden, y solo para el usuario que lo creó. Para pago en la entrega
// es la que manda el cliente en el header, por usuario.
func (s *Service) Checkout(ctx context.Context, customer Customer, idemKey string, req dto.CheckoutRequest) (*dto.CheckoutResponse, error) {
	if err := s.invalid(req); err != nil {
		return nil, err
	}

	description, ok := paymentDescriptions[req.PaymentMethod]
	if !ok {
		return nil, ErrPaymentPathUnsupported
	}

	if idemKey == "" && req.PaymentMethod != PaymentCard {
		return nil, ErrMissingIdempotencyKey
	}
	key := customer.UserID + ":" + idemKey
	if req.PaymentMethod == PaymentCard {
		key = "card:" + req.PaymentIntentID
	}

	created, err := s.idem.CreateIfNotExists(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrIdempotencyUnavailable, err)
	}
	if !created {
		return s.replay(ctx, customer, key, req.Address)
	}

	res, err := s.place(ctx, customer, req, description)
	if err != nil {
		// liberar la clave para que el cliente pueda reintentar
		if rerr := s.idem.Release(context.WithoutCancel(ctx), key); rerr != nil {
			s.log.Error("release idempotency key", zap.String("key", key), zap.Error(rerr))
		}
		return nil, err
	}

	if err := s.idem.MarkDone(context.WithoutCancel(ctx), key, res.OrderID); err != nil {
		s.log.Error("mark idempotency key done", zap.String("key", key), zap.String("order_id", res.OrderID), zap.Error(err))
	}
	return res, nil
}

func (s *Service) replay(ctx context.Context, customer Customer, key, address string) (*dto.CheckoutResponse, error) {
	rec, err := s.idem.Get(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrIdempotencyUnavailable, err)
	}
	if rec == nil || rec.Status != idempotency.StatusDone {
		return nil, ErrCheckoutInProgress
	}

	ord, err := s.store.GetByOrderID(ctx, rec.OrderID)
	if err != nil {
		return nil, err
	}
	return s.replayed(ctx, customer, ord, address)
}

// replayed responde con una orden ya creada, solo si es de este cliente.
func (s *Service) replayed(ctx context.Context, customer Customer, ord *model.Order, address string) (*dto.CheckoutResponse, error) {
	if ord.UserID != customer.UserID {
		s.log.Warn("checkout key reused by another customer",
			zap.String("order_id", ord.OrderID),
			zap.String("user_id", customer.UserID),
		)
		return nil, fmt.Errorf("%w: el pago pertenece a otro cliente", ErrPaymentNotConfirmed)
	}

	s.log.Info("checkout replayed", zap.String("order_id", ord.OrderID))
	return &dto.CheckoutResponse{
		OrderID:              ord.OrderID,
		TotalValue:           ord.TotalValue,
		WithinDeliveryRadius: s.checker.Check(ctx, address),
		Replayed:             true,
	}, nil
}

func (s *Service) place(ctx context.Context, customer Customer, req dto.CheckoutRequest, description string) (*dto.CheckoutResponse, error) {
	total := Total(req.Items, s.fee)

	switch req.PaymentMethod {
	case PaymentCard:
		// tienda abierta y pendiente ya se controlaron al crear el intent; acá el cliente ya pagó
		if err := s.confirmPayment(ctx, customer, req.PaymentIntentID, total); err != nil {
			return nil, err
		}
		// la clave de idempotencia vence; la orden guardada con el intent no
		existing, err := s.store.GetByPaymentIntentID(ctx, req.PaymentIntentID)
		if err == nil {
			return s.replayed(ctx, customer, existing, req.Address)
		}
		if !errors.Is(err, repository.ErrNotFound) {
			return nil, err
		}
	default:
		if err := s.ensureOpen(ctx); err != nil {
			return nil, err
		}
		if err := s.ensureNoPendingOrder(ctx, customer.Email); err != nil {
			return nil, err
		}
	}

	within := s.checker.Check(ctx, req.Address)

	order := &model.Order{
		UserID:        customer.UserID,
		ContactNumber: req.ContactNumber,
		Name:          req.Name,
		Email:         customer.Email,
		Address:       req.Address,
		Items:         toOrderItems(req.Items),
		TotalValue:    total.InexactFloat64(),
		Status:        model.StatusPendente,
		PaymentMethod: description,
		Troco:         NormalizeTroco(req.Troco),
	}
	if req.PaymentMethod == PaymentCard {
		order.PaymentIntentID = req.PaymentIntentID
	}

	orderID, err := s.store.Create(ctx, order)
	if errors.Is(err, repository.ErrDuplicateOrder) && req.PaymentMethod == PaymentCard {
		// otro intento con el mismo intent ganó la carrera
		return nil, ErrCheckoutInProgress
	}
	if err != nil {
		return nil, err
	}

	s.log.Info("order created",
		zap.String("order_id", orderID),
		zap.String("payment", req.PaymentMethod),
		zap.Bool("within_delivery_radius", within),
	)
	metrics.RecordOrderCreated(req.PaymentMethod)
	s.publishCreated(ctx, order)

	return &dto.CheckoutResponse{
		OrderID:              orderID,
		TotalValue:           order.TotalValue,
		WithinDeliveryRadius: within,
	}, nil
}

func (s *Service) confirmPayment(ctx context.Context, customer Customer, intentID string, total decimal.Decimal) error {
	if s.payments == nil {
		return ErrPaymentUnavailable
	}

	intent, err := s.payments.GetIntent(ctx, intentID)
	if errors.Is(err, payment.ErrIntentNotFound) {
		return fmt.Errorf("%w: intent %s no existe", ErrPaymentNotConfirmed, intentID)
	}
	if err != nil {
		return fmt.Errorf("%w: %w", ErrPaymentUnavailable, err)
	}

	if intent.UserID != customer.UserID {
		return fmt.Errorf("%w: intent %s pertenece a otro cliente", ErrPaymentNotConfirmed, intentID)
	}
	if intent.Status != payment.StatusSucceeded {
		return fmt.Errorf("%w: estado %s", ErrPaymentNotConfirmed, intent.Status)
	}
	if want := MinorUnits(total); intent.Amount != want {
		return fmt.Errorf("%w: monto %d, esperado %d", ErrPaymentNotConfirmed, intent.Amount, want)
	}
	return nil
}

func (s *Service) ensureOpen(ctx context.Context) error {
	if s.status == nil {
		return nil
	}
	open, err := s.status.DeliveryActive(ctx)
	if err != nil {
		return err
	}
	if !open {
		return ErrStoreClosed
	}
	return nil
}

func (s *Service) ensureNoPendingOrder(ctx context.Context, email string) error {
	orders, err := s.store.GetByUserEmail(ctx, email)
	if err != nil {
		return err
	}
	for _, o := range orders {
		if o.Status == model.StatusPendente {
			return ErrPendingOrderExists
		}
	}
	return nil
}

func (s *Service) publishCreated(ctx context.Context, o *model.Order) {
	if s.pub == nil {
		return
	}
	event := dto.OrderEvent{
		Type:       topicOrderCreated,
		OrderID:    o.OrderID,
		Email:      o.Email,
		Status:     string(o.Status),
		TotalValue: o.TotalValue,
		OccurredAt: o.CreatedAt,
	}
	if err := s.pub.Publish(ctx, topicOrderCreated, event); err != nil {
		s.log.Error("publish order created", zap.String("order_id", o.OrderID), zap.Error(err))
	}
}

func toOrderItems(in []dto.CartItemDTO) []model.OrderItem {
	out := make([]model.OrderItem, 0, len(in))
	for _, it := range in {
		out = append(out, model.OrderItem{
			ID:          it.ID,
			Name:        it.Name,
			Price:       it.Price,
			Quantity:    it.Quantity,
			Observation: it.Observation,
		})
	}
	return out
}
