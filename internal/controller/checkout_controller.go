package controller

import (
	"net/http"

	"restaurant-order-service/internal/checkout"
	"restaurant-order-service/internal/dto"
	"restaurant-order-service/internal/middleware"

	"github.com/gin-gonic/gin"
)

const idempotencyHeader = "Idempotency-Key"

type CheckoutController struct {
	Service *checkout.Service
}

func NewCheckoutController(s *checkout.Service) *CheckoutController {
	return &CheckoutController{Service: s}
}

func customerFrom(c *gin.Context) checkout.Customer {
	return checkout.Customer{
		UserID: c.GetString(middleware.UserIDKey),
		Email:  c.GetString(middleware.UserEmailKey),
	}
}

// POST /checkout/quote
func (ctl *CheckoutController) Quote(c *gin.Context) {
	var req dto.QuoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	res, err := ctl.Service.Quote(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

// POST /checkout/payment-intent
func (ctl *CheckoutController) PaymentIntent(c *gin.Context) {
	var req dto.PaymentIntentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	res, err := ctl.Service.CreatePaymentIntent(c.Request.Context(), customerFrom(c), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, res)
}

// POST /checkout - 201 al crear, 200 si es una repetición de un checkout ya hecho
func (ctl *CheckoutController) Checkout(c *gin.Context) {
	var req dto.CheckoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	res, err := ctl.Service.Checkout(c.Request.Context(), customerFrom(c), c.GetHeader(idempotencyHeader), req)
	if err != nil {
		respondError(c, err)
		return
	}

	if res.Replayed {
		c.JSON(http.StatusOK, res)
		return
	}
	c.JSON(http.StatusCreated, res)
}
