package validation

import (
	"errors"

	"restaurant-order-service/internal/dto"

	validatorv10 "github.com/go-playground/validator/v10"
)

// New devuelve el validador con las reglas a nivel struct registradas.
func New() *validatorv10.Validate {
	v := validatorv10.New()
	v.RegisterStructValidation(checkoutStructValidation, dto.CheckoutRequest{})
	return v
}

// El paymentIntentId solo tiene sentido en el pago con tarjeta.
func checkoutStructValidation(sl validatorv10.StructLevel) {
	req := sl.Current().Interface().(dto.CheckoutRequest)
	if req.PaymentMethod != "cartao" && req.PaymentIntentID != "" {
		sl.ReportError(req.PaymentIntentID, "paymentIntentId", "PaymentIntentID", "intent_only_for_card", "")
	}
}

// FieldErrors arma un mapa campo -> mensaje para la respuesta 400.
func FieldErrors(err error) map[string]string {
	out := map[string]string{}
	var ve validatorv10.ValidationErrors
	if errors.As(err, &ve) {
		for _, fe := range ve {
			out[fe.StructNamespace()] = fe.Error()
		}
		return out
	}
	out["error"] = err.Error()
	return out
}
