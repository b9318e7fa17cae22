package controller

import (
	"errors"
	"net/http"

	"restaurant-order-service/internal/checkout"
	"restaurant-order-service/internal/service"
	"restaurant-order-service/internal/validation"

	"github.com/gin-gonic/gin"
)

// respondError traduce los errores de negocio a códigos HTTP. Es el único
// lugar donde se decide el status de una falla.
func respondError(c *gin.Context, err error) {
	var invalid *service.InvalidTransitionError
	if errors.As(err, &invalid) {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": err.Error(),
			"from":  invalid.From,
			"to":    invalid.To,
			"next":  service.NextStatuses(invalid.From),
		})
		return
	}

	switch {
	case errors.Is(err, checkout.ErrInvalidRequest), errors.Is(err, service.ErrInvalidStoreConfig):
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request", "fields": validation.FieldErrors(err)})
	case errors.Is(err, checkout.ErrMissingIdempotencyKey), errors.Is(err, checkout.ErrPaymentPathUnsupported):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, service.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "order not found"})
	case errors.Is(err, checkout.ErrPaymentNotConfirmed):
		c.JSON(http.StatusPaymentRequired, gin.H{"error": err.Error()})
	case errors.Is(err, service.ErrStatusConflict),
		errors.Is(err, service.ErrDuplicateOrder),
		errors.Is(err, checkout.ErrCheckoutInProgress),
		errors.Is(err, checkout.ErrPendingOrderExists),
		errors.Is(err, checkout.ErrStoreClosed):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, service.ErrPersistence),
		errors.Is(err, checkout.ErrPaymentUnavailable),
		errors.Is(err, checkout.ErrIdempotencyUnavailable):
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}
