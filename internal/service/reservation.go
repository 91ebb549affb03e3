package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/pkordes/rv-park/backend/internal/domain"
	"github.com/pkordes/rv-park/backend/internal/repo"
)

// Summary holds the values derived from a reservation for display.
type Summary struct {
	Nights               int
	OutstandingBalance   domain.Money
	BalanceDue           domain.Money
	PaidInFull           bool
	DepositDue           domain.Money
	PartyFullyRegistered bool
	LateCheckOut         bool
}

// Summarize derives the display values of res under the engine's policy.
// BalanceDue is the outstanding balance clamped at zero.
func (e *Engine) Summarize(res domain.Reservation) Summary {
	out := res.OutstandingBalance()
	return Summary{
		Nights:               res.Stay.Nights(),
		OutstandingBalance:   out,
		BalanceDue:           out.ClampZero(),
		PaidInFull:           res.IsPaidInFull(),
		DepositDue:           res.DepositDue(e.policy.DepositPercent),
		PartyFullyRegistered: res.IsPartyFullyRegistered(),
		LateCheckOut:         res.IsLateCheckOut(e.policy.CheckOutTime),
	}
}

// RecordPayment adds amount to the reservation's paid amount.
// The amount must be positive and in the reservation's currency.
func (e *Engine) RecordPayment(ctx context.Context, id uuid.UUID, amount domain.Money) (domain.Reservation, error) {
	var res domain.Reservation
	err := e.withReservationLock(ctx, id, func(r repo.Repos) error {
		var err error
		res, err = r.Reservations.GetByID(ctx, id)
		if err != nil {
			return err
		}
		if err := res.RecordPayment(amount); err != nil {
			return err
		}
		res, err = r.Reservations.Update(ctx, res)
		return err
	})
	if err != nil {
		return domain.Reservation{}, fmt.Errorf("service.Engine.RecordPayment: %w", err)
	}
	e.log.InfoContext(ctx, "payment recorded",
		"reservation_id", res.ID,
		"amount", amount.String(),
		"paid", res.PaidAmount.String(),
	)
	return res, nil
}

// GetReservation returns a reservation by ID.
func (e *Engine) GetReservation(ctx context.Context, id uuid.UUID) (domain.Reservation, error) {
	res, err := e.store.Repos().Reservations.GetByID(ctx, id)
	if err != nil {
		return domain.Reservation{}, fmt.Errorf("service.Engine.GetReservation: %w", err)
	}
	return res, nil
}

// GetByConfirmationNumber returns the reservation booked under code.
func (e *Engine) GetByConfirmationNumber(ctx context.Context, code string) (domain.Reservation, error) {
	res, err := e.store.Repos().Reservations.GetByConfirmationNumber(ctx, code)
	if err != nil {
		return domain.Reservation{}, fmt.Errorf("service.Engine.GetByConfirmationNumber: %w", err)
	}
	return res, nil
}

// ListReservations returns one page of reservations and the total count.
func (e *Engine) ListReservations(ctx context.Context, p domain.PaginationParams) ([]domain.Reservation, int64, error) {
	list, total, err := e.store.Repos().Reservations.List(ctx, p)
	if err != nil {
		return nil, 0, fmt.Errorf("service.Engine.ListReservations: %w", err)
	}
	return nonNil(list), total, nil
}

// ListByCustomer returns a customer's reservations, newest stay first.
func (e *Engine) ListByCustomer(ctx context.Context, customerID uuid.UUID) ([]domain.Reservation, error) {
	if _, err := e.store.Repos().Customers.GetByID(ctx, customerID); err != nil {
		return nil, fmt.Errorf("service.Engine.ListByCustomer: %w", err)
	}
	list, err := e.store.Repos().Reservations.ListByCustomer(ctx, customerID)
	if err != nil {
		return nil, fmt.Errorf("service.Engine.ListByCustomer: %w", err)
	}
	return nonNil(list), nil
}

// ArrivalsOn returns the confirmed reservations whose stay starts on day.
func (e *Engine) ArrivalsOn(ctx context.Context, day time.Time) ([]domain.Reservation, error) {
	list, err := e.store.Repos().Reservations.ListCheckingInOn(ctx, domain.Date(day))
	if err != nil {
		return nil, fmt.Errorf("service.Engine.ArrivalsOn: %w", err)
	}
	return nonNil(list), nil
}

// DeparturesOn returns the checked-in reservations whose stay ends on day.
func (e *Engine) DeparturesOn(ctx context.Context, day time.Time) ([]domain.Reservation, error) {
	list, err := e.store.Repos().Reservations.ListCheckingOutOn(ctx, domain.Date(day))
	if err != nil {
		return nil, fmt.Errorf("service.Engine.DeparturesOn: %w", err)
	}
	return nonNil(list), nil
}

// ActiveBetween returns every active reservation overlapping stay.
func (e *Engine) ActiveBetween(ctx context.Context, stay domain.DateRange) ([]domain.Reservation, error) {
	if err := stay.Validate(); err != nil {
		return nil, err
	}
	list, err := e.store.Repos().Reservations.ListActiveBetween(ctx, stay)
	if err != nil {
		return nil, fmt.Errorf("service.Engine.ActiveBetween: %w", err)
	}
	return nonNil(list), nil
}

// GetCustomer returns a customer by ID.
func (e *Engine) GetCustomer(ctx context.Context, id uuid.UUID) (domain.Customer, error) {
	c, err := e.store.Repos().Customers.GetByID(ctx, id)
	if err != nil {
		return domain.Customer{}, fmt.Errorf("service.Engine.GetCustomer: %w", err)
	}
	return c, nil
}

func nonNil(list []domain.Reservation) []domain.Reservation {
	if list == nil {
		return []domain.Reservation{}
	}
	return list
}
