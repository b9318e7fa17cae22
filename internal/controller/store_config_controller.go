package controller

import (
	"net/http"

	"restaurant-order-service/internal/dto"
	"restaurant-order-service/internal/service"

	"github.com/gin-gonic/gin"
)

type StoreConfigController struct {
	Service *service.StoreConfigService
}

func NewStoreConfigController(s *service.StoreConfigService) *StoreConfigController {
	return &StoreConfigController{Service: s}
}

// GET /store/config - público
func (ctl *StoreConfigController) Get(c *gin.Context) {
	cfg, err := ctl.Service.Get(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, cfg)
}

// PUT /admin/store/config
func (ctl *StoreConfigController) Put(c *gin.Context) {
	var req dto.StoreConfigRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	cfg, err := ctl.Service.Update(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, cfg)
}
