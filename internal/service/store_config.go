package service

import (
	"context"
	"errors"
	"fmt"

	"restaurant-order-service/internal/dto"
	"restaurant-order-service/internal/model"

	validatorv10 "github.com/go-playground/validator/v10"
	"go.uber.org/zap"
)

var ErrInvalidStoreConfig = errors.New("configuración de tienda inválida")

type StoreConfigRepository interface {
	Get(ctx context.Context) (*model.StoreConfig, error)
	Save(ctx context.Context, cfg *model.StoreConfig) error
}

type StoreConfigService struct {
	repo     StoreConfigRepository
	validate *validatorv10.Validate
	log      *zap.Logger
}

func NewStoreConfigService(r StoreConfigRepository, v *validatorv10.Validate, log *zap.Logger) *StoreConfigService {
	return &StoreConfigService{repo: r, validate: v, log: log}
}

// Get devuelve la configuración guardada; si todavía no hay ninguna, una
// tienda abierta sin datos.
func (s *StoreConfigService) Get(ctx context.Context) (*model.StoreConfig, error) {
	cfg, err := s.repo.Get(ctx)
	if errors.Is(err, ErrNotFound) {
		return &model.StoreConfig{DeliveryActive: true}, nil
	}
	if err != nil {
		return nil, err
	}
	return cfg, nil
}

func (s *StoreConfigService) Update(ctx context.Context, req dto.StoreConfigRequest) (*model.StoreConfig, error) {
	if err := s.validate.Struct(req); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidStoreConfig, err)
	}

	cfg := &model.StoreConfig{
		Name:           req.Name,
		Address:        req.Address,
		Phone:          req.Phone,
		Image:          req.Image,
		WorkingHours:   req.WorkingHours,
		Description:    req.Description,
		Banner:         req.Banner,
		DeliveryActive: *req.DeliveryActive,
	}
	if err := s.repo.Save(ctx, cfg); err != nil {
		return nil, err
	}

	s.log.Info("store config updated", zap.Bool("delivery_active", cfg.DeliveryActive))
	return cfg, nil
}

// DeliveryActive indica si la tienda acepta pedidos ahora.
func (s *StoreConfigService) DeliveryActive(ctx context.Context) (bool, error) {
	cfg, err := s.Get(ctx)
	if err != nil {
		return false, err
	}
	return cfg.DeliveryActive, nil
}
