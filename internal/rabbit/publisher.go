package rabbit

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"restaurant-order-service/internal/service"

	"github.com/google/uuid"
	"github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"
)

type channel interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp091.Publishing) error
}

// Publisher manda los eventos de órdenes al exchange fanout order_events y los
// trabajos de impresión a la cola order_print.
type Publisher struct {
	mu  sync.Mutex
	ch  channel
	log *zap.Logger
}

func NewPublisher(ch channel, log *zap.Logger) *Publisher {
	return &Publisher{ch: ch, log: log}
}

func (p *Publisher) Publish(ctx context.Context, topic string, message interface{}) error {
	exchange, key := ExchangeOrderEvents, topic
	if topic == service.TopicPrintReceipt {
		// default exchange: la routing key es el nombre de la cola
		exchange, key = "", QueuePrint
	}

	payload, err := json.Marshal(message)
	if err != nil {
		return fmt.Errorf("marshal message: %w", err)
	}
	env := Envelope{
		CorrelationID: uuid.NewString(),
		Exchange:      exchange,
		RoutingKey:    key,
		Message:       payload,
	}
	body, err := json.Marshal(env)
	if err != nil {
		return fmt.Errorf("marshal envelope: %w", err)
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	err = p.ch.PublishWithContext(ctx, exchange, key, false, false, amqp091.Publishing{
		ContentType:   "application/json",
		DeliveryMode:  amqp091.Persistent,
		CorrelationId: env.CorrelationID,
		Timestamp:     time.Now(),
		Type:          topic,
		Body:          body,
	})
	if err != nil {
		return fmt.Errorf("publish %s: %w", topic, err)
	}

	p.log.Debug("message published", zap.String("topic", topic), zap.String("correlation_id", env.CorrelationID))
	return nil
}
