// setup.go
package rabbit

import (
	"context"
	"fmt"
	"time"

	"github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"
)

// DeclareTopology declara exchanges y colas que usa el servicio.
func DeclareTopology(ch *amqp091.Channel) error {
	for _, ex := range []string{ExchangeOrderEvents, ExchangeStatusCommands} {
		if err := ch.ExchangeDeclare(ex, "fanout", true, false, false, false, nil); err != nil {
			return fmt.Errorf("declare exchange %s: %w", ex, err)
		}
	}

	if _, err := ch.QueueDeclare(QueuePrint, true, false, false, false, nil); err != nil {
		return fmt.Errorf("declare queue %s: %w", QueuePrint, err)
	}

	// 1. Declarar la queue propia del micro
	q, err := ch.QueueDeclare(QueueStatusCommands, true, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("declare queue %s: %w", QueueStatusCommands, err)
	}

	// 2. Bindear al exchange fanout (ignora routing key)
	if err := ch.QueueBind(q.Name, "", ExchangeStatusCommands, false, nil); err != nil {
		return fmt.Errorf("bind %s: %w", q.Name, err)
	}
	return nil
}

// retryBackoff es la espera antes de reencolar un comando que falló por el
// store. Sin ella el broker lo reentrega enseguida y el consumer gira en vacío.
const retryBackoff = 2 * time.Second

// SetupConsumers consume comandos de estado hasta que ctx se cancela o el
// canal se cierra. Ack manual: solo se reencola si Handle pide reintento.
func SetupConsumers(ctx context.Context, ch *amqp091.Channel, consumer *StatusCommandConsumer, log *zap.Logger) error {
	if err := ch.Qos(10, 0, false); err != nil {
		return fmt.Errorf("qos: %w", err)
	}

	msgs, err := ch.ConsumeWithContext(ctx, QueueStatusCommands, "", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("consume %s: %w", QueueStatusCommands, err)
	}

	go func() {
		for m := range msgs {
			handleDelivery(ctx, consumer, m, retryBackoff)
		}
		log.Info("status command consumer stopped")
	}()

	log.Info("subscribed to exchange", zap.String("exchange", ExchangeStatusCommands))
	return nil
}

// handleDelivery confirma el mensaje o, si Handle pide reintento, lo reencola
// después de backoff. Si ctx se cancela durante la espera reencola enseguida.
func handleDelivery(ctx context.Context, consumer *StatusCommandConsumer, m amqp091.Delivery, backoff time.Duration) {
	if err := consumer.Handle(ctx, m.Body); err == nil {
		_ = m.Ack(false)
		return
	}

	t := time.NewTimer(backoff)
	defer t.Stop()
	select {
	case <-t.C:
	case <-ctx.Done():
	}
	_ = m.Nack(false, true)
}
