package service

import (
	"fmt"
	"slices"

	"restaurant-order-service/internal/model"
)

// Transiciones permitidas. Entregue y Cancelado son finales: no tienen salida.
var transitions = map[model.Status][]model.Status{
	model.StatusPendente: {model.StatusPreparo, model.StatusCancelado},
	model.StatusPreparo:  {model.StatusEntrega, model.StatusCancelado},
	model.StatusEntrega:  {model.StatusEntregue, model.StatusCancelado},
}

var validStates = map[model.Status]bool{
	model.StatusPendente:  true,
	model.StatusPreparo:   true,
	model.StatusEntrega:   true,
	model.StatusEntregue:  true,
	model.StatusCancelado: true,
}

type InvalidTransitionError struct {
	From model.Status
	To   model.Status
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("transición de estado inválida: %s -> %s", e.From, e.To)
}

func IsValidStatus(s model.Status) bool {
	return validStates[s]
}

func IsTerminal(s model.Status) bool {
	return validStates[s] && len(transitions[s]) == 0
}

// Transition valida un cambio de estado. Cualquier par fuera del grafo
// (incluido from == to y estados desconocidos) es *InvalidTransitionError.
func Transition(from, to model.Status) error {
	if !slices.Contains(transitions[from], to) {
		return &InvalidTransitionError{From: from, To: to}
	}
	return nil
}

// NextStatuses devuelve los estados alcanzables desde s.
func NextStatuses(s model.Status) []model.Status {
	return slices.Clone(transitions[s])
}
