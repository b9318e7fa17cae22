package rabbit

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"restaurant-order-service/internal/dto"
	"restaurant-order-service/internal/model"
	"restaurant-order-service/internal/service"

	"github.com/rabbitmq/amqp091-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

type published struct {
	exchange string
	key      string
	msg      amqp091.Publishing
}

type fakeChannel struct {
	sent []published
	err  error
}

func (f *fakeChannel) PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp091.Publishing) error {
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, published{exchange: exchange, key: key, msg: msg})
	return nil
}

func TestPublisher_RoutesByTopic(t *testing.T) {
	ch := &fakeChannel{}
	p := NewPublisher(ch, zaptest.NewLogger(t))

	require.NoError(t, p.Publish(context.Background(), service.TopicOrderStatusChanged, dto.OrderEvent{OrderID: "ORD-123456", Status: "Preparo"}))
	require.NoError(t, p.Publish(context.Background(), service.TopicPrintReceipt, model.Order{OrderID: "ORD-123456"}))

	require.Len(t, ch.sent, 2)

	assert.Equal(t, ExchangeOrderEvents, ch.sent[0].exchange)
	assert.Equal(t, service.TopicOrderStatusChanged, ch.sent[0].key)
	assert.Equal(t, "application/json", ch.sent[0].msg.ContentType)

	var env Envelope
	require.NoError(t, json.Unmarshal(ch.sent[0].msg.Body, &env))
	assert.NotEmpty(t, env.CorrelationID)
	assert.Equal(t, env.CorrelationID, ch.sent[0].msg.CorrelationId)
	var evt dto.OrderEvent
	require.NoError(t, json.Unmarshal(env.Message, &evt))
	assert.Equal(t, "ORD-123456", evt.OrderID)

	assert.Equal(t, "", ch.sent[1].exchange)
	assert.Equal(t, QueuePrint, ch.sent[1].key)
}

func TestPublisher_PropagatesErrors(t *testing.T) {
	p := NewPublisher(&fakeChannel{err: amqp091.ErrClosed}, zaptest.NewLogger(t))
	err := p.Publish(context.Background(), service.TopicOrderCreated, dto.OrderEvent{})
	assert.ErrorIs(t, err, amqp091.ErrClosed)
}

type MockStatusUpdater struct {
	mock.Mock
}

func (m *MockStatusUpdater) UpdateStatus(ctx context.Context, orderID string, newStatus model.Status, actor string) (*model.Order, error) {
	args := m.Called(ctx, orderID, newStatus, actor)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Order), args.Error(1)
}

func commandBody(t *testing.T, cmd dto.StatusCommand) []byte {
	t.Helper()
	msg, err := json.Marshal(cmd)
	require.NoError(t, err)
	body, err := json.Marshal(Envelope{CorrelationID: "c1", Exchange: ExchangeStatusCommands, Message: msg})
	require.NoError(t, err)
	return body
}

func TestStatusCommandConsumer_Handle(t *testing.T) {
	tests := []struct {
		name      string
		body      func(t *testing.T) []byte
		setup     func(*MockStatusUpdater)
		wantRetry bool
	}{
		{
			name: "applies the command",
			body: func(t *testing.T) []byte {
				return commandBody(t, dto.StatusCommand{OrderID: "ORD-123456", Status: "Entregue", Actor: "courier-7"})
			},
			setup: func(m *MockStatusUpdater) {
				m.On("UpdateStatus", mock.Anything, "ORD-123456", model.StatusEntregue, "courier-7").
					Return(&model.Order{OrderID: "ORD-123456", Status: model.StatusEntregue}, nil)
			},
		},
		{
			name: "invalid transition is dropped",
			body: func(t *testing.T) []byte {
				return commandBody(t, dto.StatusCommand{OrderID: "ORD-123456", Status: "Preparo"})
			},
			setup: func(m *MockStatusUpdater) {
				m.On("UpdateStatus", mock.Anything, "ORD-123456", model.StatusPreparo, "rabbit").
					Return(nil, &service.InvalidTransitionError{From: model.StatusEntregue, To: model.StatusPreparo})
			},
		},
		{
			name: "unknown order is dropped",
			body: func(t *testing.T) []byte {
				return commandBody(t, dto.StatusCommand{OrderID: "ORD-000000", Status: "Preparo"})
			},
			setup: func(m *MockStatusUpdater) {
				m.On("UpdateStatus", mock.Anything, "ORD-000000", model.StatusPreparo, "rabbit").Return(nil, service.ErrNotFound)
			},
		},
		{
			name: "store down asks for retry",
			body: func(t *testing.T) []byte {
				return commandBody(t, dto.StatusCommand{OrderID: "ORD-123456", Status: "Preparo"})
			},
			setup: func(m *MockStatusUpdater) {
				m.On("UpdateStatus", mock.Anything, "ORD-123456", model.StatusPreparo, "rabbit").
					Return(nil, errors.Join(service.ErrPersistence, errors.New("timeout")))
			},
			wantRetry: true,
		},
		{
			name:  "garbage is dropped",
			body:  func(*testing.T) []byte { return []byte("not json") },
			setup: func(*MockStatusUpdater) {},
		},
		{
			name: "incomplete command is dropped",
			body: func(t *testing.T) []byte {
				return commandBody(t, dto.StatusCommand{OrderID: "ORD-123456"})
			},
			setup: func(*MockStatusUpdater) {},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := &MockStatusUpdater{}
			tt.setup(m)
			c := NewStatusCommandConsumer(m, zaptest.NewLogger(t))

			err := c.Handle(context.Background(), tt.body(t))

			if tt.wantRetry {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
			m.AssertExpectations(t)
		})
	}
}

type fakeAcker struct {
	acks    int
	nacks   int
	requeue bool
	nackAt  time.Time
}

func (a *fakeAcker) Ack(tag uint64, multiple bool) error {
	a.acks++
	return nil
}

func (a *fakeAcker) Nack(tag uint64, multiple, requeue bool) error {
	a.nacks++
	a.requeue = requeue
	a.nackAt = time.Now()
	return nil
}

func (a *fakeAcker) Reject(tag uint64, requeue bool) error { return nil }

func TestHandleDelivery_AcksHandledCommands(t *testing.T) {
	m := &MockStatusUpdater{}
	m.On("UpdateStatus", mock.Anything, "ORD-123456", model.StatusPreparo, "rabbit").Return(nil, service.ErrNotFound)
	c := NewStatusCommandConsumer(m, zaptest.NewLogger(t))
	acker := &fakeAcker{}

	d := amqp091.Delivery{Acknowledger: acker, Body: commandBody(t, dto.StatusCommand{OrderID: "ORD-123456", Status: "Preparo"})}
	handleDelivery(context.Background(), c, d, time.Hour)

	assert.Equal(t, 1, acker.acks)
	assert.Equal(t, 0, acker.nacks)
}

func TestHandleDelivery_WaitsBeforeRequeue(t *testing.T) {
	m := &MockStatusUpdater{}
	m.On("UpdateStatus", mock.Anything, "ORD-123456", model.StatusPreparo, "rabbit").Return(nil, service.ErrPersistence)
	c := NewStatusCommandConsumer(m, zaptest.NewLogger(t))
	acker := &fakeAcker{}

	start := time.Now()
	d := amqp091.Delivery{Acknowledger: acker, Body: commandBody(t, dto.StatusCommand{OrderID: "ORD-123456", Status: "Preparo"})}
	handleDelivery(context.Background(), c, d, 50*time.Millisecond)

	assert.Equal(t, 0, acker.acks)
	require.Equal(t, 1, acker.nacks)
	assert.True(t, acker.requeue)
	assert.GreaterOrEqual(t, acker.nackAt.Sub(start), 50*time.Millisecond)
}

func TestHandleDelivery_CancelledContextRequeuesWithoutWaiting(t *testing.T) {
	m := &MockStatusUpdater{}
	m.On("UpdateStatus", mock.Anything, "ORD-123456", model.StatusPreparo, "rabbit").Return(nil, service.ErrPersistence)
	c := NewStatusCommandConsumer(m, zaptest.NewLogger(t))
	acker := &fakeAcker{}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	d := amqp091.Delivery{Acknowledger: acker, Body: commandBody(t, dto.StatusCommand{OrderID: "ORD-123456", Status: "Preparo"})}
	done := make(chan struct{})
	go func() {
		handleDelivery(ctx, c, d, time.Hour)
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("handleDelivery did not return after cancel")
	}
	assert.Equal(t, 1, acker.nacks)
	assert.True(t, acker.requeue)
}
