package observe

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/BearBump/TrackRelay/internal/broker/messages"
)

// Sink receives structured failure records for errors the engine swallows
// at a boundary. Write-only and fire-and-forget: a sink error never
// affects reconciliation.
type Sink interface {
	Failure(ctx context.Context, source, msg string, data map[string]string)
}

type Producer interface {
	Publish(ctx context.Context, topic string, key, value []byte) error
}

// KafkaSink publishes failure records to a Kafka topic and mirrors them to
// the log so they stay visible when the broker is down.
type KafkaSink struct {
	producer Producer
	topic    string
	passID   func() string
}

func NewKafkaSink(producer Producer, topic string, passID func() string) *KafkaSink {
	if passID == nil {
		passID = func() string { return "" }
	}
	return &KafkaSink{producer: producer, topic: topic, passID: passID}
}

func (s *KafkaSink) Failure(ctx context.Context, source, msg string, data map[string]string) {
	slog.Error("reconcile failure", "source", source, "message", msg, "data", data)

	rec := messages.ReconcileFailure{
		PassID:  s.passID(),
		Source:  source,
		Message: msg,
		Data:    data,
		At:      time.Now().UTC(),
	}
	b, err := json.Marshal(rec)
	if err != nil {
		return
	}
	if err := s.producer.Publish(ctx, s.topic, []byte(source), b); err != nil {
		slog.Error("publish failure record", "error", err.Error())
	}
}

// LogSink writes failure records to the log only. Used when Kafka is not
// configured and in tests.
type LogSink struct{}

func (LogSink) Failure(_ context.Context, source, msg string, data map[string]string) {
	slog.Error("reconcile failure", "source", source, "message", msg, "data", data)
}
