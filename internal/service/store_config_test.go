package service

import (
	"context"
	"testing"

	"restaurant-order-service/internal/dto"
	"restaurant-order-service/internal/mocks"
	"restaurant-order-service/internal/model"

	validatorv10 "github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func TestStoreConfigService_GetDefaultsToOpenStore(t *testing.T) {
	repo := &mocks.MockStoreConfigRepository{}
	repo.On("Get", mock.Anything).Return(nil, ErrNotFound)
	s := NewStoreConfigService(repo, validatorv10.New(), zaptest.NewLogger(t))

	cfg, err := s.Get(context.Background())
	require.NoError(t, err)
	assert.True(t, cfg.DeliveryActive)

	open, err := s.DeliveryActive(context.Background())
	require.NoError(t, err)
	assert.True(t, open)
}

func TestStoreConfigService_Update(t *testing.T) {
	repo := &mocks.MockStoreConfigRepository{}
	repo.On("Save", mock.Anything, mock.MatchedBy(func(c *model.StoreConfig) bool {
		return c.Name == "Pizzaria" && !c.DeliveryActive
	})).Return(nil)
	s := NewStoreConfigService(repo, validatorv10.New(), zaptest.NewLogger(t))

	closed := false
	cfg, err := s.Update(context.Background(), dto.StoreConfigRequest{Name: "Pizzaria", WorkingHours: "18h-23h", DeliveryActive: &closed})
	require.NoError(t, err)
	assert.Equal(t, "18h-23h", cfg.WorkingHours)

	_, err = s.Update(context.Background(), dto.StoreConfigRequest{DeliveryActive: &closed})
	assert.ErrorIs(t, err, ErrInvalidStoreConfig)
	repo.AssertNumberOfCalls(t, "Save", 1)
}

func TestStoreConfigService_UpdateRequiresDeliveryActive(t *testing.T) {
	repo := &mocks.MockStoreConfigRepository{}
	s := NewStoreConfigService(repo, validatorv10.New(), zaptest.NewLogger(t))

	_, err := s.Update(context.Background(), dto.StoreConfigRequest{Name: "Pizzaria", Phone: "555"})
	assert.ErrorIs(t, err, ErrInvalidStoreConfig)
	repo.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
}
