package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/pkordes/rv-park/backend/internal/domain"
	"github.com/pkordes/rv-park/backend/internal/metrics"
	"github.com/pkordes/rv-park/backend/internal/repo"
)

// BookingRequest asks for one campsite for one stay.
// Exactly one of CustomerID and Customer is set: an existing customer is
// referenced by ID, a new one is created along with the reservation.
type BookingRequest struct {
	CustomerID   uuid.UUID
	Customer     *domain.Customer
	CampsiteID   uuid.UUID
	Stay         domain.DateRange
	PartyMembers []string
	PartySize    int
	Vehicle      *domain.VehicleInfo
	Notes        string
}

func (r BookingRequest) validate() error {
	if r.CampsiteID == uuid.Nil {
		return fmt.Errorf("%w: campsite is required", domain.ErrValidation)
	}
	switch {
	case r.Customer != nil && r.CustomerID != uuid.Nil:
		return fmt.Errorf("%w: give either a customer id or new customer details, not both", domain.ErrValidation)
	case r.Customer == nil && r.CustomerID == uuid.Nil:
		return fmt.Errorf("%w: customer information is required", domain.ErrValidation)
	case r.Customer != nil:
		if err := r.Customer.Validate(); err != nil {
			return err
		}
	}
	if r.Vehicle != nil {
		if err := r.Vehicle.Validate(); err != nil {
			return err
		}
	}
	return r.Stay.Validate()
}

// FindAvailable returns the active, available campsites matching filter
// that no active reservation holds for any day of stay.
func (e *Engine) FindAvailable(ctx context.Context, stay domain.DateRange, filter domain.CampsiteFilter) ([]domain.Campsite, error) {
	if err := stay.Validate(); err != nil {
		return nil, err
	}
	if filter.Type != "" && !filter.Type.Valid() {
		return nil, fmt.Errorf("%w: unknown site type %q", domain.ErrValidation, filter.Type)
	}
	if filter.Location != "" && !filter.Location.Valid() {
		return nil, fmt.Errorf("%w: unknown location %q", domain.ErrValidation, filter.Location)
	}
	sites, err := e.store.Repos().Campsites.FindAvailable(ctx, stay, filter)
	if err != nil {
		return nil, fmt.Errorf("service.Engine.FindAvailable: %w", err)
	}
	if sites == nil {
		return []domain.Campsite{}, nil
	}
	return sites, nil
}

// CheckConflict reports whether an active reservation other than excludeID
// holds campsiteID on any day of stay. Pass uuid.Nil to exclude nothing.
func (e *Engine) CheckConflict(ctx context.Context, campsiteID uuid.UUID, stay domain.DateRange, excludeID uuid.UUID) (bool, error) {
	if err := stay.Validate(); err != nil {
		return false, err
	}
	found, err := e.store.Repos().Reservations.FindActiveOverlapping(ctx, campsiteID, stay, excludeID)
	if err != nil {
		return false, fmt.Errorf("service.Engine.CheckConflict: %w", err)
	}
	return len(found) > 0, nil
}

// AdmitBooking creates a PENDING reservation if, at the moment of
// admission, the campsite is in service and no active reservation overlaps
// the stay. A conflict is reported as domain.ErrResourceUnavailable and is
// never retried here.
func (e *Engine) AdmitBooking(ctx context.Context, req BookingRequest) (domain.Reservation, error) {
	var res domain.Reservation
	err := e.admission(ctx, req, func() error {
		return e.store.InTx(ctx, func(r repo.Repos) error {
			var err error
			res, err = e.admit(ctx, r, req)
			return err
		})
	})
	if err != nil {
		return domain.Reservation{}, fmt.Errorf("service.Engine.AdmitBooking: %w", err)
	}
	e.transitioned(ctx, res)
	return res, nil
}

// Book admits and confirms a reservation in one transaction, the way the
// front desk books a walk-in or phone reservation. Either both steps commit
// or neither does.
func (e *Engine) Book(ctx context.Context, req BookingRequest) (domain.Reservation, error) {
	var res domain.Reservation
	err := e.admission(ctx, req, func() error {
		return e.retryOnDuplicateCode(ctx, func(code string) error {
			return e.store.InTx(ctx, func(r repo.Repos) error {
				admitted, err := e.admit(ctx, r, req)
				if err != nil {
					return err
				}
				res, err = e.confirm(ctx, r, admitted.ID, code)
				return err
			})
		})
	})
	if err != nil {
		return domain.Reservation{}, fmt.Errorf("service.Engine.Book: %w", err)
	}
	metrics.Transitions.WithLabelValues(string(domain.StatusPending)).Inc()
	e.transitioned(ctx, res)
	e.notifyConfirmed(ctx, res)
	return res, nil
}

// admission validates req, then runs step under the campsite lock while
// recording the outcome and latency.
func (e *Engine) admission(ctx context.Context, req BookingRequest, step func() error) error {
	if err := req.validate(); err != nil {
		metrics.BookingsRejected.WithLabelValues(metrics.RejectReason(err)).Inc()
		return err
	}

	start := time.Now()
	err := e.withSiteLock(ctx, req.CampsiteID, step)
	metrics.AdmissionLatency.Observe(time.Since(start).Seconds())

	if err != nil {
		metrics.BookingsRejected.WithLabelValues(metrics.RejectReason(err)).Inc()
		if errors.Is(err, domain.ErrResourceUnavailable) {
			e.log.InfoContext(ctx, "booking rejected",
				"campsite_id", req.CampsiteID,
				"stay", req.Stay.String(),
				"reason", err.Error(),
			)
		}
		return err
	}
	metrics.BookingsAdmitted.Inc()
	return nil
}

// admit is the check-then-act step of admission. The caller holds the
// campsite lock and r belongs to an open transaction.
func (e *Engine) admit(ctx context.Context, r repo.Repos, req BookingRequest) (domain.Reservation, error) {
	site, err := r.Campsites.LockForUpdate(ctx, req.CampsiteID)
	if err != nil {
		return domain.Reservation{}, err
	}
	if !site.Active || site.Status.RequiresMaintenance() {
		return domain.Reservation{}, fmt.Errorf("%w: site %d is not in service", domain.ErrResourceUnavailable, site.SiteNumber)
	}
	if site.Status == domain.CampsiteOccupied && !e.policy.AdmitOccupiedSites {
		return domain.Reservation{}, fmt.Errorf("%w: site %d is occupied", domain.ErrResourceUnavailable, site.SiteNumber)
	}
	spec, err := e.policy.Rates.Lookup(site.Type)
	if err != nil {
		return domain.Reservation{}, err
	}

	// Build before the conflict check so invalid requests never reach the store.
	res, err := domain.NewReservation(req.CustomerID, site, spec, req.Stay, req.PartyMembers, req.PartySize)
	if err != nil {
		return domain.Reservation{}, err
	}

	conflicts, err := r.Reservations.FindActiveOverlapping(ctx, site.ID, req.Stay, uuid.Nil)
	if err != nil {
		return domain.Reservation{}, err
	}
	if len(conflicts) > 0 {
		return domain.Reservation{}, fmt.Errorf("%w: site %d is booked %s",
			domain.ErrResourceUnavailable, site.SiteNumber, conflicts[0].Stay)
	}

	if req.Customer != nil {
		c, err := r.Customers.Create(ctx, *req.Customer)
		if err != nil {
			return domain.Reservation{}, err
		}
		res.CustomerID = c.ID
	} else if _, err := r.Customers.GetByID(ctx, req.CustomerID); err != nil {
		return domain.Reservation{}, fmt.Errorf("customer %s: %w", req.CustomerID, err)
	}

	res.Vehicle = req.Vehicle
	res.Notes = req.Notes
	return r.Reservations.Create(ctx, res)
}
