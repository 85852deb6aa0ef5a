package auditsink

import (
	"context"

	"github.com/tu-usuario/reservas-api/internal/application/audit"
)

var _ audit.Sink = (*NoopSink)(nil)

// NoopSink descarta los eventos. Para dev y tests sin broker.
type NoopSink struct{}

// NewNoopSink construye el sink nulo.
func NewNoopSink() *NoopSink { return &NoopSink{} }

// Record no hace nada.
func (NoopSink) Record(context.Context, audit.Event) {}
