package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/pkordes/rv-park/backend/internal/domain"
	"github.com/pkordes/rv-park/backend/internal/metrics"
	"github.com/pkordes/rv-park/backend/internal/repo"
)

// Confirm moves a PENDING reservation to CONFIRMED under a freshly generated
// confirmation number. The stay is checked for conflicts again under the
// campsite lock, since pending reservations do not hold their site.
//
// A generated number that collides with an existing one is replaced and the
// whole transaction retried, up to Policy.ConfirmationRetries times; after
// that the confirm fails with domain.ErrPersistence.
func (e *Engine) Confirm(ctx context.Context, id uuid.UUID) (domain.Reservation, error) {
	current, err := e.store.Repos().Reservations.GetByID(ctx, id)
	if err != nil {
		return domain.Reservation{}, fmt.Errorf("service.Engine.Confirm: %w", err)
	}

	var res domain.Reservation
	err = e.withSiteLock(ctx, current.CampsiteID, func() error {
		return e.retryOnDuplicateCode(ctx, func(code string) error {
			return e.store.InTx(ctx, func(r repo.Repos) error {
				var err error
				res, err = e.confirm(ctx, r, id, code)
				return err
			})
		})
	})
	if err != nil {
		return domain.Reservation{}, fmt.Errorf("service.Engine.Confirm: %w", err)
	}

	e.transitioned(ctx, res)
	e.notifyConfirmed(ctx, res)
	return res, nil
}

func (e *Engine) confirm(ctx context.Context, r repo.Repos, id uuid.UUID, code string) (domain.Reservation, error) {
	res, err := r.Reservations.GetByID(ctx, id)
	if err != nil {
		return domain.Reservation{}, err
	}
	if err := res.Confirm(code); err != nil {
		return domain.Reservation{}, err
	}
	conflicts, err := r.Reservations.FindActiveOverlapping(ctx, res.CampsiteID, res.Stay, res.ID)
	if err != nil {
		return domain.Reservation{}, err
	}
	if len(conflicts) > 0 {
		return domain.Reservation{}, fmt.Errorf("%w: campsite was booked %s while this reservation was pending",
			domain.ErrResourceUnavailable, conflicts[0].Stay)
	}
	return r.Reservations.Update(ctx, res)
}

// retryOnDuplicateCode calls attempt with a new confirmation number until it
// stops failing with domain.ErrDuplicateConfirmation or retries run out.
// attempt must run its own transaction: a unique violation aborts it.
func (e *Engine) retryOnDuplicateCode(ctx context.Context, attempt func(code string) error) error {
	var err error
	for i := 0; i <= e.policy.ConfirmationRetries; i++ {
		code, genErr := e.newCode(e.policy.ConfirmationLength)
		if genErr != nil {
			return fmt.Errorf("%w: %v", domain.ErrPersistence, genErr)
		}
		err = attempt(code)
		if !errors.Is(err, domain.ErrDuplicateConfirmation) {
			return err
		}
		metrics.ConfirmationCollisions.Inc()
		e.log.WarnContext(ctx, "confirmation number collision", "attempt", i+1)
	}
	return fmt.Errorf("%w: no unique confirmation number after %d attempts: %v",
		domain.ErrPersistence, e.policy.ConfirmationRetries+1, err)
}

// notifyConfirmed hands the confirmation to the notifier on its own
// goroutine, so the caller never waits for delivery. A failure is logged and
// absorbed.
func (e *Engine) notifyConfirmed(ctx context.Context, res domain.Reservation) {
	nctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), notifyTimeout)
	e.inflight.Add(1)
	go func() {
		defer e.inflight.Done()
		defer cancel()
		if err := e.notifier.ReservationConfirmed(nctx, res); err != nil {
			metrics.NotificationFailures.Inc()
			e.log.WarnContext(nctx, "notification failed",
				"reservation_id", res.ID,
				"confirmation_number", res.ConfirmationNumber,
				"error", err,
			)
		}
	}()
}

// CheckIn moves a CONFIRMED reservation to CHECKED_IN and marks its
// campsite occupied, both in one transaction. When the policy enforces it,
// check-in before the first day of the stay is rejected.
func (e *Engine) CheckIn(ctx context.Context, id uuid.UUID) (domain.Reservation, error) {
	now := e.now()
	res, err := e.transition(ctx, id, func(_ repo.Repos, res *domain.Reservation, site *domain.Campsite) error {
		return res.CheckIn(site, now, e.policy.EnforceCheckInDate)
	})
	if err != nil {
		return domain.Reservation{}, fmt.Errorf("service.Engine.CheckIn: %w", err)
	}
	return res, nil
}

// CheckOut moves a CHECKED_IN reservation to COMPLETED and frees its
// campsite. When a later party has already checked in on the same site, the
// site stays occupied.
func (e *Engine) CheckOut(ctx context.Context, id uuid.UUID) (domain.Reservation, error) {
	now := e.now()
	res, err := e.transition(ctx, id, func(r repo.Repos, res *domain.Reservation, site *domain.Campsite) error {
		others, err := r.Reservations.ListCheckedIn(ctx, res.CampsiteID, res.ID)
		if err != nil {
			return err
		}
		if len(others) > 0 {
			return res.CheckOut(nil, now)
		}
		return res.CheckOut(site, now)
	})
	if err != nil {
		return domain.Reservation{}, fmt.Errorf("service.Engine.CheckOut: %w", err)
	}
	return res, nil
}

// Cancel moves a PENDING or CONFIRMED reservation to CANCELLED and returns
// its campsite to service. A site that is occupied by another party or
// under maintenance keeps its status.
func (e *Engine) Cancel(ctx context.Context, id uuid.UUID) (domain.Reservation, error) {
	res, err := e.transition(ctx, id, func(_ repo.Repos, res *domain.Reservation, site *domain.Campsite) error {
		if site.Status == domain.CampsiteOccupied || site.Status.RequiresMaintenance() {
			return res.Cancel(nil)
		}
		return res.Cancel(site)
	})
	if err != nil {
		return domain.Reservation{}, fmt.Errorf("service.Engine.Cancel: %w", err)
	}
	return res, nil
}

// transition applies step to a reservation and its campsite and saves both
// in one transaction, so neither is ever seen without the other.
func (e *Engine) transition(ctx context.Context, id uuid.UUID, step func(repo.Repos, *domain.Reservation, *domain.Campsite) error) (domain.Reservation, error) {
	var res domain.Reservation
	err := e.withReservationLock(ctx, id, func(r repo.Repos) error {
		var err error
		res, err = r.Reservations.GetByID(ctx, id)
		if err != nil {
			return err
		}
		site, err := r.Campsites.LockForUpdate(ctx, res.CampsiteID)
		if err != nil {
			return err
		}
		before := site.Status
		if err := step(r, &res, &site); err != nil {
			return err
		}
		if res, err = r.Reservations.Update(ctx, res); err != nil {
			return err
		}
		if site.Status != before {
			if _, err := r.Campsites.Update(ctx, site); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return domain.Reservation{}, err
	}
	e.transitioned(ctx, res)
	return res, nil
}
