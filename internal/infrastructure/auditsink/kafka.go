package auditsink

import (
	"context"
	"encoding/json"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/tu-usuario/reservas-api/internal/application/audit"
	"github.com/tu-usuario/reservas-api/pkg/logger"
)

var _ audit.Sink = (*KafkaSink)(nil)

// KafkaSink publica eventos de auditoría en un tópico Kafka. El sink es
// write-only y best-effort: el envío corre en su propia goroutine con timeout
// y un fallo se loguea sin tocar la operación que originó el evento.
type KafkaSink struct {
	writer *kafka.Writer
	log    *logger.Logger
}

// NewKafkaSink construye el sink con su writer.
func NewKafkaSink(brokers []string, topic string, log *logger.Logger) *KafkaSink {
	writer := &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.LeastBytes{},
		RequiredAcks: kafka.RequireOne,
		Async:        false,
	}
	return &KafkaSink{writer: writer, log: log}
}

// Record serializa y publica el evento, fire-and-forget.
func (s *KafkaSink) Record(_ context.Context, event audit.Event) {
	payload, err := json.Marshal(event)
	if err != nil {
		s.log.Warn().Err(err).Str("action", event.Action).Msg("serializar evento de auditoría")
		return
	}
	// Contexto propio: el evento no debe morir con el request que lo emitió.
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		err := s.writer.WriteMessages(ctx, kafka.Message{
			Key:   []byte(event.TargetID),
			Value: payload,
		})
		if err != nil {
			s.log.Warn().Err(err).Str("action", event.Action).Str("target_id", event.TargetID).Msg("publicar evento de auditoría")
		}
	}()
}

// Close cierra el writer (apagado del proceso).
func (s *KafkaSink) Close() error {
	return s.writer.Close()
}
