// Package payment habla con el procesador de pagos (Stripe). Solo crea y
// consulta PaymentIntents; la confirmación la hace el cliente.
package payment

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"restaurant-order-service/internal/circuitbreaker"

	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/client"
)

const (
	CurrencyBRL     = "brl"
	StatusSucceeded = string(stripe.PaymentIntentStatusSucceeded)

	// metadata con el usuario que creó el intent
	metadataUserID = "user_id"
)

var (
	ErrIntentNotFound       = errors.New("payment intent no encontrado")
	ErrProcessorUnavailable = errors.New("procesador de pagos no disponible")
	ErrNotConfigured        = errors.New("procesador de pagos no configurado")
)

type Intent struct {
	ID           string
	ClientSecret string
	Amount       int64
	Currency     string
	Status       string
	UserID       string
}

type Processor interface {
	CreateIntent(ctx context.Context, amount int64, userID, email string) (*Intent, error)
	GetIntent(ctx context.Context, id string) (*Intent, error)
}

type StripeProcessor struct {
	api *client.API
	cb  *circuitbreaker.CircuitBreaker
}

func NewStripeProcessor(secretKey string, cb *circuitbreaker.CircuitBreaker) (*StripeProcessor, error) {
	return newStripeProcessor(secretKey, nil, cb)
}

// backends nil usa los de Stripe.
func newStripeProcessor(secretKey string, backends *stripe.Backends, cb *circuitbreaker.CircuitBreaker) (*StripeProcessor, error) {
	if secretKey == "" {
		return nil, ErrNotConfigured
	}
	api := &client.API{}
	api.Init(secretKey, backends)
	return &StripeProcessor{api: api, cb: cb}, nil
}

// CreateIntent crea un intent en BRL por amount centavos, atado a userID.
func (s *StripeProcessor) CreateIntent(ctx context.Context, amount int64, userID, email string) (*Intent, error) {
	params := &stripe.PaymentIntentParams{
		Amount:   stripe.Int64(amount),
		Currency: stripe.String(CurrencyBRL),
		AutomaticPaymentMethods: &stripe.PaymentIntentAutomaticPaymentMethodsParams{
			Enabled: stripe.Bool(true),
		},
	}
	params.AddMetadata(metadataUserID, userID)
	if email != "" {
		params.ReceiptEmail = stripe.String(email)
	}
	params.Context = ctx

	var pi *stripe.PaymentIntent
	err := s.cb.Execute(ctx, func() error {
		var err error
		pi, err = s.api.PaymentIntents.New(params)
		return err
	})
	if err != nil {
		return nil, s.wrap("create payment intent", err)
	}
	return toIntent(pi), nil
}

func (s *StripeProcessor) GetIntent(ctx context.Context, id string) (*Intent, error) {
	params := &stripe.PaymentIntentParams{}
	params.Context = ctx

	var pi *stripe.PaymentIntent
	notFound := false
	err := s.cb.Execute(ctx, func() error {
		var err error
		pi, err = s.api.PaymentIntents.Get(id, params)
		// un id inexistente no es falla del procesador
		if isNotFound(err) {
			notFound = true
			return nil
		}
		return err
	})
	if err != nil {
		return nil, s.wrap("get payment intent", err)
	}
	if notFound {
		return nil, ErrIntentNotFound
	}
	return toIntent(pi), nil
}

func (s *StripeProcessor) wrap(op string, err error) error {
	return fmt.Errorf("%s: %w: %w", op, ErrProcessorUnavailable, err)
}

func isNotFound(err error) bool {
	var se *stripe.Error
	return errors.As(err, &se) && se.HTTPStatusCode == http.StatusNotFound
}

func toIntent(pi *stripe.PaymentIntent) *Intent {
	return &Intent{
		ID:           pi.ID,
		ClientSecret: pi.ClientSecret,
		Amount:       pi.Amount,
		Currency:     string(pi.Currency),
		Status:       string(pi.Status),
		UserID:       pi.Metadata[metadataUserID],
	}
}
