package audit

import (
	"context"
	"time"
)

// Event registro append-only de una transición de estado (reserva o
// transferencia). El sink es externo y write-only.
type Event struct {
	Action      string            `json:"action"`       // reservation.created, transfer.completed, ...
	PerformedBy string            `json:"performed_by"` // ownerID u operador
	TargetID    string            `json:"target_id"`
	Details     map[string]string `json:"details,omitempty"`
	At          time.Time         `json:"at"`
}

// Sink destino de auditoría. Record es fire-and-forget: una falla al escribir
// jamás bloquea ni falla la operación que la origina.
type Sink interface {
	Record(ctx context.Context, event Event)
}
