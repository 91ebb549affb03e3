package notify

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/pkordes/rv-park/backend/internal/domain"
	"github.com/pkordes/rv-park/backend/internal/metrics"
)

// DefaultBacklog is how many events may wait for the broker before new ones
// are refused.
const DefaultBacklog = 256

const writeTimeout = 5 * time.Second

var (
	// ErrBacklogFull is returned when the broker has fallen so far behind
	// that the inbox is full. The event is dropped.
	ErrBacklogFull = errors.New("notification backlog full")
	// ErrClosed is returned for events offered after Close.
	ErrClosed = errors.New("notifier closed")
)

// messageWriter is the part of *kafka.Writer the notifier uses.
type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaNotifier publishes confirmation envelopes to a Kafka topic, keyed by
// reservation ID so all events for one reservation land on one partition.
//
// ReservationConfirmed only queues the message. A single producer goroutine
// drains the queue into the broker and logs what it could not deliver, so a
// slow or absent broker never holds up the caller.
type KafkaNotifier struct {
	w     messageWriter
	now   func() time.Time
	log   *slog.Logger
	inbox chan kafka.Message
	done  chan struct{}

	mu     sync.RWMutex
	closed bool
}

// NewKafkaNotifier returns a notifier writing to topic on brokers and starts
// its producer goroutine. Close flushes the queue and stops it.
func NewKafkaNotifier(brokers []string, topic string, log *slog.Logger) *KafkaNotifier {
	return newKafkaNotifier(&kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Topic:                  topic,
		Balancer:               &kafka.Hash{},
		RequiredAcks:           kafka.RequireAll,
		AllowAutoTopicCreation: true,
		BatchTimeout:           10 * time.Millisecond,
		WriteTimeout:           writeTimeout,
	}, time.Now, log, DefaultBacklog)
}

func newKafkaNotifier(w messageWriter, now func() time.Time, log *slog.Logger, backlog int) *KafkaNotifier {
	if log == nil {
		log = slog.Default()
	}
	n := &KafkaNotifier{
		w:     w,
		now:   now,
		log:   log,
		inbox: make(chan kafka.Message, backlog),
		done:  make(chan struct{}),
	}
	go n.run()
	return n
}

var _ Notifier = (*KafkaNotifier)(nil)

// ReservationConfirmed queues a ReservationConfirmed envelope. It never waits
// for the broker.
func (n *KafkaNotifier) ReservationConfirmed(ctx context.Context, res domain.Reservation) error {
	env, err := NewConfirmedEnvelope(res, n.now())
	if err != nil {
		return fmt.Errorf("notify.KafkaNotifier.ReservationConfirmed: encode payload: %w", err)
	}
	value, err := json.Marshal(env)
	if err != nil {
		return fmt.Errorf("notify.KafkaNotifier.ReservationConfirmed: encode envelope: %w", err)
	}

	msg := kafka.Message{
		Key:   []byte(res.ID.String()),
		Value: value,
		Time:  env.OccurredAt,
		Headers: []kafka.Header{
			{Key: "event_type", Value: []byte(env.EventType)},
			{Key: "event_id", Value: []byte(env.EventID)},
		},
	}

	n.mu.RLock()
	defer n.mu.RUnlock()
	if n.closed {
		return fmt.Errorf("notify.KafkaNotifier.ReservationConfirmed: %w", ErrClosed)
	}
	select {
	case n.inbox <- msg:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("notify.KafkaNotifier.ReservationConfirmed: %w", ctx.Err())
	default:
		return fmt.Errorf("notify.KafkaNotifier.ReservationConfirmed: %w", ErrBacklogFull)
	}
}

func (n *KafkaNotifier) run() {
	defer close(n.done)
	for msg := range n.inbox {
		ctx, cancel := context.WithTimeout(context.Background(), writeTimeout)
		err := n.w.WriteMessages(ctx, msg)
		cancel()
		if err != nil {
			metrics.NotificationFailures.Inc()
			n.log.Warn("kafka publish failed",
				"reservation_id", string(msg.Key),
				"error", err,
			)
		}
	}
}

// Close stops accepting events, waits for the queued ones to be written and
// closes the underlying writer. Calling it twice is harmless.
func (n *KafkaNotifier) Close() error {
	n.mu.Lock()
	if n.closed {
		n.mu.Unlock()
		return nil
	}
	n.closed = true
	close(n.inbox)
	n.mu.Unlock()

	<-n.done
	return n.w.Close()
}
