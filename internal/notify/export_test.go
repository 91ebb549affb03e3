package notify

import (
	"context"
	"log/slog"
	"time"

	"github.com/segmentio/kafka-go"
)

// MessageWriterFunc adapts a func to messageWriter for tests.
type MessageWriterFunc func(ctx context.Context, msgs ...kafka.Message) error

func (f MessageWriterFunc) WriteMessages(ctx context.Context, msgs ...kafka.Message) error {
	return f(ctx, msgs...)
}

func (f MessageWriterFunc) Close() error { return nil }

// NewKafkaNotifierWithWriter builds a KafkaNotifier over a fake writer.
func NewKafkaNotifierWithWriter(w MessageWriterFunc, now func() time.Time, log *slog.Logger, backlog int) *KafkaNotifier {
	return newKafkaNotifier(w, now, log, backlog)
}
