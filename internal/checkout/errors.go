package checkout

import "errors"

var (
	ErrInvalidRequest         = errors.New("checkout inválido")
	ErrMissingIdempotencyKey  = errors.New("falta Idempotency-Key")
	ErrPaymentPathUnsupported = errors.New("medio de pago no soportado")
	ErrPaymentNotConfirmed    = errors.New("pago no confirmado")
	ErrPaymentUnavailable     = errors.New("procesador de pagos no disponible")
	ErrCheckoutInProgress     = errors.New("checkout en curso para esta clave")
	ErrPendingOrderExists     = errors.New("el cliente ya tiene un pedido pendiente")
	ErrStoreClosed            = errors.New("la tienda no está aceptando pedidos")
	ErrIdempotencyUnavailable = errors.New("no se pudo reservar la clave de idempotencia")
)
