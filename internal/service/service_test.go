package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"restaurant-order-service/internal/dto"
	"restaurant-order-service/internal/mocks"
	"restaurant-order-service/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

var fixedNow = time.Date(2025, 3, 1, 20, 0, 0, 0, time.UTC)

func newTestService(t *testing.T) (*OrderStatusService, *mocks.MockOrderRepository, *mocks.MockPublisher) {
	repo := &mocks.MockOrderRepository{}
	pub := &mocks.MockPublisher{}
	s := NewOrderStatusService(repo, pub, zaptest.NewLogger(t))
	s.now = func() time.Time { return fixedNow }
	return s, repo, pub
}

func pendingOrder() *model.Order {
	return &model.Order{
		OrderID:    "ORD-123456",
		Email:      "a@x.com",
		Status:     model.StatusPendente,
		TotalValue: 35,
	}
}

func TestOrderStatusService_UpdateStatus(t *testing.T) {
	tests := []struct {
		name       string
		current    model.Status
		newStatus  model.Status
		setupMocks func(*mocks.MockOrderRepository, *mocks.MockPublisher)
		wantErr    error
		wantStatus model.Status
	}{
		{
			name:      "accept prints the receipt and publishes the change",
			current:   model.StatusPendente,
			newStatus: model.StatusPreparo,
			setupMocks: func(repo *mocks.MockOrderRepository, pub *mocks.MockPublisher) {
				repo.On("UpdateStatus", mock.Anything, "ORD-123456", model.StatusPendente, model.StatusPreparo,
					model.StatusRecord{From: model.StatusPendente, To: model.StatusPreparo, Actor: "admin-1", Timestamp: fixedNow}).
					Return(nil)
				pub.On("Publish", mock.Anything, TopicPrintReceipt, mock.AnythingOfType("*model.Order")).Return(nil)
				pub.On("Publish", mock.Anything, TopicOrderStatusChanged, mock.MatchedBy(func(e dto.OrderEvent) bool {
					return e.From == "Pendente" && e.Status == "Preparo" && e.OrderID == "ORD-123456"
				})).Return(nil)
			},
			wantStatus: model.StatusPreparo,
		},
		{
			name:      "dispatch only publishes the change",
			current:   model.StatusPreparo,
			newStatus: model.StatusEntrega,
			setupMocks: func(repo *mocks.MockOrderRepository, pub *mocks.MockPublisher) {
				repo.On("UpdateStatus", mock.Anything, "ORD-123456", model.StatusPreparo, model.StatusEntrega, mock.Anything).Return(nil)
				pub.On("Publish", mock.Anything, TopicOrderStatusChanged, mock.Anything).Return(nil)
			},
			wantStatus: model.StatusEntrega,
		},
		{
			name:      "publisher failure does not undo the write",
			current:   model.StatusEntrega,
			newStatus: model.StatusEntregue,
			setupMocks: func(repo *mocks.MockOrderRepository, pub *mocks.MockPublisher) {
				repo.On("UpdateStatus", mock.Anything, "ORD-123456", model.StatusEntrega, model.StatusEntregue, mock.Anything).Return(nil)
				pub.On("Publish", mock.Anything, TopicOrderStatusChanged, mock.Anything).Return(errors.New("broker down"))
			},
			wantStatus: model.StatusEntregue,
		},
		{
			name:       "delivered order cannot go back to preparation",
			current:    model.StatusEntregue,
			newStatus:  model.StatusPreparo,
			setupMocks: func(*mocks.MockOrderRepository, *mocks.MockPublisher) {},
			wantErr:    &InvalidTransitionError{From: model.StatusEntregue, To: model.StatusPreparo},
		},
		{
			name:       "same status is not a transition",
			current:    model.StatusPreparo,
			newStatus:  model.StatusPreparo,
			setupMocks: func(*mocks.MockOrderRepository, *mocks.MockPublisher) {},
			wantErr:    &InvalidTransitionError{From: model.StatusPreparo, To: model.StatusPreparo},
		},
		{
			name:      "concurrent change is reported as conflict",
			current:   model.StatusPendente,
			newStatus: model.StatusCancelado,
			setupMocks: func(repo *mocks.MockOrderRepository, pub *mocks.MockPublisher) {
				repo.On("UpdateStatus", mock.Anything, "ORD-123456", model.StatusPendente, model.StatusCancelado, mock.Anything).
					Return(ErrStatusConflict)
			},
			wantErr: ErrStatusConflict,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, repo, pub := newTestService(t)
			ord := pendingOrder()
			ord.Status = tt.current
			repo.On("GetByOrderID", mock.Anything, "ORD-123456").Return(ord, nil)
			tt.setupMocks(repo, pub)

			got, err := s.UpdateStatus(context.Background(), "ORD-123456", tt.newStatus, "admin-1")

			if tt.wantErr != nil {
				require.Error(t, err)
				var ite *InvalidTransitionError
				if errors.As(tt.wantErr, &ite) {
					assert.Equal(t, tt.wantErr, err)
					repo.AssertNotCalled(t, "UpdateStatus", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
				} else {
					assert.ErrorIs(t, err, tt.wantErr)
				}
				pub.AssertNotCalled(t, "Publish", mock.Anything, mock.Anything, mock.Anything)
				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.wantStatus, got.Status)
			assert.Equal(t, fixedNow, got.UpdatedAt)
			require.NotEmpty(t, got.History)
			assert.Equal(t, tt.current, got.History[len(got.History)-1].From)
			repo.AssertExpectations(t)
			pub.AssertExpectations(t)
		})
	}
}

func TestOrderStatusService_UpdateStatus_NotFound(t *testing.T) {
	s, repo, pub := newTestService(t)
	repo.On("GetByOrderID", mock.Anything, "ORD-000000").Return(nil, ErrNotFound)

	_, err := s.UpdateStatus(context.Background(), "ORD-000000", model.StatusPreparo, "admin-1")

	assert.ErrorIs(t, err, ErrNotFound)
	pub.AssertNotCalled(t, "Publish", mock.Anything, mock.Anything, mock.Anything)
}

func TestOrderStatusService_WithoutPublisher(t *testing.T) {
	repo := &mocks.MockOrderRepository{}
	s := NewOrderStatusService(repo, nil, zaptest.NewLogger(t))
	repo.On("GetByOrderID", mock.Anything, "ORD-123456").Return(pendingOrder(), nil)
	repo.On("UpdateStatus", mock.Anything, "ORD-123456", model.StatusPendente, model.StatusPreparo, mock.Anything).Return(nil)

	got, err := s.UpdateStatus(context.Background(), "ORD-123456", model.StatusPreparo, "admin-1")

	require.NoError(t, err)
	assert.Equal(t, model.StatusPreparo, got.Status)
}

func TestOrderStatusService_GetByUserEmail_SortsNewestFirst(t *testing.T) {
	s, repo, _ := newTestService(t)
	older := model.Order{OrderID: "ORD-100001", Email: "a@x.com", CreatedAt: fixedNow.Add(-time.Hour)}
	newer := model.Order{OrderID: "ORD-100002", Email: "a@x.com", CreatedAt: fixedNow}
	repo.On("GetByUserEmail", mock.Anything, "a@x.com").Return([]model.Order{older, newer}, nil)

	orders, err := s.GetByUserEmail(context.Background(), "a@x.com")

	require.NoError(t, err)
	require.Len(t, orders, 2)
	assert.Equal(t, "ORD-100002", orders[0].OrderID)
}
