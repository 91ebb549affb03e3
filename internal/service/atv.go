package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/pkordes/rv-park/backend/internal/domain"
	"github.com/pkordes/rv-park/backend/internal/repo"
)

// AddAtvPasses generates one pass per day of the stay for the holder, saves
// them and adds their price to the reservation's totals, all in one
// transaction. It returns the created passes and the updated reservation.
func (e *Engine) AddAtvPasses(ctx context.Context, reservationID uuid.UUID, holderName string, age int) ([]domain.AtvPass, domain.Reservation, error) {
	var (
		created []domain.AtvPass
		res     domain.Reservation
	)
	err := e.withReservationLock(ctx, reservationID, func(r repo.Repos) error {
		var err error
		res, err = r.Reservations.GetByID(ctx, reservationID)
		if err != nil {
			return err
		}
		passes, err := domain.GeneratePasses(res, holderName, age, e.policy.Atv)
		if err != nil {
			return err
		}
		if err := res.AddAtvCharges(passes); err != nil {
			return err
		}
		if created, err = r.AtvPasses.CreateBatch(ctx, passes); err != nil {
			return err
		}
		res, err = r.Reservations.Update(ctx, res)
		return err
	})
	if err != nil {
		return nil, domain.Reservation{}, fmt.Errorf("service.Engine.AddAtvPasses: %w", err)
	}

	e.log.InfoContext(ctx, "atv passes added",
		"reservation_id", res.ID,
		"holder", holderName,
		"passes", len(created),
		"atv_total", res.AtvTotal.String(),
	)
	return created, res, nil
}

// IssuePass hands out a wristband for a pass. A pass is issued at most once.
func (e *Engine) IssuePass(ctx context.Context, passID uuid.UUID, wristbandNumber string) (domain.AtvPass, error) {
	pass, err := e.store.Repos().AtvPasses.GetByID(ctx, passID)
	if err != nil {
		return domain.AtvPass{}, fmt.Errorf("service.Engine.IssuePass: %w", err)
	}
	// Held under the reservation's site lock so two desks cannot both issue it.
	err = e.withReservationLock(ctx, pass.ReservationID, func(r repo.Repos) error {
		var err error
		pass, err = r.AtvPasses.GetByID(ctx, passID)
		if err != nil {
			return err
		}
		if err := pass.Issue(wristbandNumber); err != nil {
			return err
		}
		pass, err = r.AtvPasses.Update(ctx, pass)
		return err
	})
	if err != nil {
		return domain.AtvPass{}, fmt.Errorf("service.Engine.IssuePass: %w", err)
	}
	return pass, nil
}

// ListAtvPasses returns a reservation's passes ordered by holder and date.
// Always returns a non-nil slice so callers can safely range over it.
func (e *Engine) ListAtvPasses(ctx context.Context, reservationID uuid.UUID) ([]domain.AtvPass, error) {
	if _, err := e.store.Repos().Reservations.GetByID(ctx, reservationID); err != nil {
		return nil, fmt.Errorf("service.Engine.ListAtvPasses: %w", err)
	}
	passes, err := e.store.Repos().AtvPasses.ListByReservation(ctx, reservationID)
	if err != nil {
		return nil, fmt.Errorf("service.Engine.ListAtvPasses: %w", err)
	}
	if passes == nil {
		return []domain.AtvPass{}, nil
	}
	return passes, nil
}
