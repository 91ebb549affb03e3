// Package notify carries the "reservation confirmed" side channel. A failed
// notification is reported to the caller, which logs it; it never undoes the
// confirmation.
package notify

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/pkordes/rv-park/backend/internal/domain"
)

// Event types.
const (
	EventReservationConfirmed = "ReservationConfirmed"
)

// Producer identifies this service in published envelopes.
const Producer = "rv-park-api"

// Notifier is told about reservations that have just been confirmed.
type Notifier interface {
	ReservationConfirmed(ctx context.Context, res domain.Reservation) error
}

// Envelope is the wire shape of every published event.
type Envelope struct {
	EventID       string          `json:"event_id"`
	EventType     string          `json:"event_type"`
	EventVersion  int             `json:"event_version"`
	OccurredAt    time.Time       `json:"occurred_at"`
	Producer      string          `json:"producer"`
	TraceID       string          `json:"trace_id,omitempty"`
	CorrelationID string          `json:"correlation_id,omitempty"`
	Payload       json.RawMessage `json:"payload"`
}

// ReservationConfirmedPayload is the payload of EventReservationConfirmed.
type ReservationConfirmedPayload struct {
	ReservationID      string       `json:"reservation_id"`
	ConfirmationNumber string       `json:"confirmation_number"`
	CustomerID         string       `json:"customer_id"`
	CampsiteID         string       `json:"campsite_id"`
	StartDate          string       `json:"start_date"`
	EndDate            string       `json:"end_date"`
	PartySize          int          `json:"party_size"`
	TotalAmount        domain.Money `json:"total_amount"`
}

// NewConfirmedEnvelope builds the envelope for res, correlated by reservation ID.
func NewConfirmedEnvelope(res domain.Reservation, now time.Time) (Envelope, error) {
	payload, err := json.Marshal(ReservationConfirmedPayload{
		ReservationID:      res.ID.String(),
		ConfirmationNumber: res.ConfirmationNumber,
		CustomerID:         res.CustomerID.String(),
		CampsiteID:         res.CampsiteID.String(),
		StartDate:          res.Stay.Start.Format(domain.DateLayout),
		EndDate:            res.Stay.EffectiveEnd().Format(domain.DateLayout),
		PartySize:          res.PartySize,
		TotalAmount:        res.TotalAmount,
	})
	if err != nil {
		return Envelope{}, err
	}
	return Envelope{
		EventID:       uuid.NewString(),
		EventType:     EventReservationConfirmed,
		EventVersion:  1,
		OccurredAt:    now.UTC(),
		Producer:      Producer,
		CorrelationID: res.ID.String(),
		Payload:       payload,
	}, nil
}

// LogNotifier writes confirmations to the log. It is used when no broker is
// configured.
type LogNotifier struct {
	log *slog.Logger
}

// NewLogNotifier returns a LogNotifier writing to log.
func NewLogNotifier(log *slog.Logger) *LogNotifier {
	return &LogNotifier{log: log}
}

var _ Notifier = (*LogNotifier)(nil)

func (n *LogNotifier) ReservationConfirmed(ctx context.Context, res domain.Reservation) error {
	n.log.InfoContext(ctx, "reservation confirmed",
		"reservation_id", res.ID,
		"confirmation_number", res.ConfirmationNumber,
		"campsite_id", res.CampsiteID,
		"stay", res.Stay.String(),
	)
	return nil
}
