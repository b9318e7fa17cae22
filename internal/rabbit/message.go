package rabbit

import "encoding/json"

// Sobre común de los mensajes que circulan entre micros.
type Envelope struct {
	CorrelationID string          `json:"correlation_id"`
	Exchange      string          `json:"exchange"`
	RoutingKey    string          `json:"routing_key"`
	Message       json.RawMessage `json:"message"`
}

const (
	ExchangeOrderEvents    = "order_events"
	ExchangeStatusCommands = "order_status_commands"
	QueuePrint             = "order_print"
	QueueStatusCommands    = "order_status_service_commands"
)
