package repo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/pkordes/rv-park/backend/internal/domain"
)

// ReservationRepo defines the persistence operations for Reservations.
type ReservationRepo interface {
	// Create inserts a new reservation and returns the persisted record.
	Create(ctx context.Context, res domain.Reservation) (domain.Reservation, error)

	// GetByID retrieves a reservation by primary key.
	// Returns domain.ErrNotFound if no reservation with that ID exists.
	GetByID(ctx context.Context, id uuid.UUID) (domain.Reservation, error)

	// GetByConfirmationNumber retrieves a reservation by its booking code.
	GetByConfirmationNumber(ctx context.Context, code string) (domain.Reservation, error)

	// List returns one page of reservations, newest stay first, and the total count.
	List(ctx context.Context, p domain.PaginationParams) ([]domain.Reservation, int64, error)

	// ListByCustomer returns a customer's reservations, newest stay first.
	ListByCustomer(ctx context.Context, customerID uuid.UUID) ([]domain.Reservation, error)

	// FindActiveOverlapping returns the CONFIRMED or CHECKED_IN reservations
	// on campsiteID whose stay date-overlaps stay. excludeID (uuid.Nil for
	// none) is left out of the result.
	FindActiveOverlapping(ctx context.Context, campsiteID uuid.UUID, stay domain.DateRange, excludeID uuid.UUID) ([]domain.Reservation, error)

	// ListCheckedIn returns the CHECKED_IN reservations on campsiteID other
	// than excludeID (uuid.Nil for none).
	ListCheckedIn(ctx context.Context, campsiteID uuid.UUID, excludeID uuid.UUID) ([]domain.Reservation, error)

	// ListActiveBetween returns every active reservation overlapping stay.
	ListActiveBetween(ctx context.Context, stay domain.DateRange) ([]domain.Reservation, error)

	// ListCheckingInOn returns CONFIRMED reservations whose stay starts on day.
	ListCheckingInOn(ctx context.Context, day time.Time) ([]domain.Reservation, error)

	// ListCheckingOutOn returns CHECKED_IN reservations whose stay ends on day.
	ListCheckingOutOn(ctx context.Context, day time.Time) ([]domain.Reservation, error)

	// Update overwrites the mutable fields of a reservation.
	// Returns domain.ErrDuplicateConfirmation if the confirmation number is
	// already used by another reservation.
	Update(ctx context.Context, res domain.Reservation) (domain.Reservation, error)
}

// pgReservationRepo is the Postgres implementation of ReservationRepo.
type pgReservationRepo struct {
	db db
}

// NewReservationRepo constructs a ReservationRepo backed by the provided db connection.
func NewReservationRepo(db db) ReservationRepo {
	return &pgReservationRepo{db: db}
}

// Money columns are read back as text so no precision passes through a float.
const reservationColumns = `id, customer_id, campsite_id, start_date, end_date, status,
	party_members, party_size, vehicle, currency,
	campsite_total::text, atv_total::text, total_amount::text, paid_amount::text,
	confirmation_number, check_in_time, check_out_time, notes, active, created_at, updated_at`

func (r *pgReservationRepo) Create(ctx context.Context, res domain.Reservation) (domain.Reservation, error) {
	const q = `
		INSERT INTO reservations (
			customer_id, campsite_id, start_date, end_date, status,
			party_members, party_size, vehicle, currency,
			campsite_total, atv_total, total_amount, paid_amount,
			confirmation_number, check_in_time, check_out_time, notes, active)
		VALUES (
			@customer_id, @campsite_id, @start_date, @end_date, @status,
			@party_members, @party_size, @vehicle, @currency,
			@campsite_total::numeric, @atv_total::numeric, @total_amount::numeric, @paid_amount::numeric,
			NULLIF(@confirmation_number, ''), @check_in_time, @check_out_time, @notes, @active)
		RETURNING ` + reservationColumns

	args, err := reservationArgs(res)
	if err != nil {
		return domain.Reservation{}, fmt.Errorf("repo.ReservationRepo.Create: %w", err)
	}

	result, err := scanReservation(r.db.QueryRow(ctx, q, args))
	if err != nil {
		return domain.Reservation{}, fmt.Errorf("repo.ReservationRepo.Create: %w", mapPgError(err))
	}
	return result, nil
}

func (r *pgReservationRepo) GetByID(ctx context.Context, id uuid.UUID) (domain.Reservation, error) {
	const q = `SELECT ` + reservationColumns + ` FROM reservations WHERE id = @id`

	result, err := scanReservation(r.db.QueryRow(ctx, q, pgx.NamedArgs{"id": id}))
	if err != nil {
		return domain.Reservation{}, fmt.Errorf("repo.ReservationRepo.GetByID: %w", err)
	}
	return result, nil
}

func (r *pgReservationRepo) GetByConfirmationNumber(ctx context.Context, code string) (domain.Reservation, error) {
	const q = `SELECT ` + reservationColumns + ` FROM reservations WHERE confirmation_number = @code`

	result, err := scanReservation(r.db.QueryRow(ctx, q, pgx.NamedArgs{"code": code}))
	if err != nil {
		return domain.Reservation{}, fmt.Errorf("repo.ReservationRepo.GetByConfirmationNumber: %w", err)
	}
	return result, nil
}

func (r *pgReservationRepo) List(ctx context.Context, p domain.PaginationParams) ([]domain.Reservation, int64, error) {
	const countQ = `SELECT count(*) FROM reservations`
	const q = `
		SELECT ` + reservationColumns + `
		FROM reservations
		ORDER BY start_date DESC, created_at DESC
		LIMIT @limit OFFSET @offset`

	var total int64
	if err := r.db.QueryRow(ctx, countQ).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("repo.ReservationRepo.List: count: %w", err)
	}

	list, err := r.query(ctx, q, pgx.NamedArgs{"limit": p.Limit, "offset": p.Offset()})
	if err != nil {
		return nil, 0, fmt.Errorf("repo.ReservationRepo.List: %w", err)
	}
	return list, total, nil
}

func (r *pgReservationRepo) ListByCustomer(ctx context.Context, customerID uuid.UUID) ([]domain.Reservation, error) {
	const q = `
		SELECT ` + reservationColumns + `
		FROM reservations
		WHERE customer_id = @customer_id
		ORDER BY start_date DESC`

	list, err := r.query(ctx, q, pgx.NamedArgs{"customer_id": customerID})
	if err != nil {
		return nil, fmt.Errorf("repo.ReservationRepo.ListByCustomer: %w", err)
	}
	return list, nil
}

func (r *pgReservationRepo) FindActiveOverlapping(ctx context.Context, campsiteID uuid.UUID, stay domain.DateRange, excludeID uuid.UUID) ([]domain.Reservation, error) {
	const q = `
		SELECT ` + reservationColumns + `
		FROM reservations
		WHERE campsite_id = @campsite_id
		  AND id <> @exclude_id
		  AND status IN ('CONFIRMED', 'CHECKED_IN')
		  AND start_date <= @end_date
		  AND end_date >= @start_date
		ORDER BY start_date`

	args := pgx.NamedArgs{
		"campsite_id": campsiteID,
		"exclude_id":  excludeID,
		"start_date":  stay.Start,
		"end_date":    stay.EffectiveEnd(),
	}

	list, err := r.query(ctx, q, args)
	if err != nil {
		return nil, fmt.Errorf("repo.ReservationRepo.FindActiveOverlapping: %w", err)
	}
	return list, nil
}

func (r *pgReservationRepo) ListCheckedIn(ctx context.Context, campsiteID uuid.UUID, excludeID uuid.UUID) ([]domain.Reservation, error) {
	const q = `
		SELECT ` + reservationColumns + `
		FROM reservations
		WHERE campsite_id = @campsite_id
		  AND id <> @exclude_id
		  AND status = 'CHECKED_IN'
		ORDER BY start_date`

	list, err := r.query(ctx, q, pgx.NamedArgs{"campsite_id": campsiteID, "exclude_id": excludeID})
	if err != nil {
		return nil, fmt.Errorf("repo.ReservationRepo.ListCheckedIn: %w", err)
	}
	return list, nil
}

func (r *pgReservationRepo) ListActiveBetween(ctx context.Context, stay domain.DateRange) ([]domain.Reservation, error) {
	const q = `
		SELECT ` + reservationColumns + `
		FROM reservations
		WHERE status IN ('CONFIRMED', 'CHECKED_IN')
		  AND start_date <= @end_date
		  AND end_date >= @start_date
		ORDER BY start_date`

	list, err := r.query(ctx, q, pgx.NamedArgs{"start_date": stay.Start, "end_date": stay.EffectiveEnd()})
	if err != nil {
		return nil, fmt.Errorf("repo.ReservationRepo.ListActiveBetween: %w", err)
	}
	return list, nil
}

func (r *pgReservationRepo) ListCheckingInOn(ctx context.Context, day time.Time) ([]domain.Reservation, error) {
	const q = `
		SELECT ` + reservationColumns + `
		FROM reservations
		WHERE status = 'CONFIRMED' AND start_date = @day
		ORDER BY created_at`

	list, err := r.query(ctx, q, pgx.NamedArgs{"day": domain.Date(day)})
	if err != nil {
		return nil, fmt.Errorf("repo.ReservationRepo.ListCheckingInOn: %w", err)
	}
	return list, nil
}

func (r *pgReservationRepo) ListCheckingOutOn(ctx context.Context, day time.Time) ([]domain.Reservation, error) {
	const q = `
		SELECT ` + reservationColumns + `
		FROM reservations
		WHERE status = 'CHECKED_IN' AND end_date = @day
		ORDER BY created_at`

	list, err := r.query(ctx, q, pgx.NamedArgs{"day": domain.Date(day)})
	if err != nil {
		return nil, fmt.Errorf("repo.ReservationRepo.ListCheckingOutOn: %w", err)
	}
	return list, nil
}

func (r *pgReservationRepo) Update(ctx context.Context, res domain.Reservation) (domain.Reservation, error) {
	const q = `
		UPDATE reservations
		SET status              = @status,
		    start_date          = @start_date,
		    end_date            = @end_date,
		    party_members       = @party_members,
		    party_size          = @party_size,
		    vehicle             = @vehicle,
		    campsite_total      = @campsite_total::numeric,
		    atv_total           = @atv_total::numeric,
		    total_amount        = @total_amount::numeric,
		    paid_amount         = @paid_amount::numeric,
		    confirmation_number = NULLIF(@confirmation_number, ''),
		    check_in_time       = @check_in_time,
		    check_out_time      = @check_out_time,
		    notes               = @notes,
		    active              = @active,
		    updated_at          = now()
		WHERE id = @id
		RETURNING ` + reservationColumns

	args, err := reservationArgs(res)
	if err != nil {
		return domain.Reservation{}, fmt.Errorf("repo.ReservationRepo.Update: %w", err)
	}
	args["id"] = res.ID

	result, err := scanReservation(r.db.QueryRow(ctx, q, args))
	if err != nil {
		return domain.Reservation{}, fmt.Errorf("repo.ReservationRepo.Update: %w", mapPgError(err))
	}
	return result, nil
}

func (r *pgReservationRepo) query(ctx context.Context, q string, args pgx.NamedArgs) ([]domain.Reservation, error) {
	rows, err := r.db.Query(ctx, q, args)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	list := []domain.Reservation{}
	for rows.Next() {
		res, err := scanReservation(rows)
		if err != nil {
			return nil, fmt.Errorf("scan: %w", err)
		}
		list = append(list, res)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows: %w", err)
	}
	return list, nil
}

func reservationArgs(res domain.Reservation) (pgx.NamedArgs, error) {
	var vehicle []byte
	if res.Vehicle != nil {
		b, err := json.Marshal(res.Vehicle)
		if err != nil {
			return nil, fmt.Errorf("encode vehicle: %w", err)
		}
		vehicle = b
	}
	members := res.PartyMembers
	if members == nil {
		members = []string{}
	}

	return pgx.NamedArgs{
		"customer_id":         res.CustomerID,
		"campsite_id":         res.CampsiteID,
		"start_date":          res.Stay.Start,
		"end_date":            res.Stay.EffectiveEnd(),
		"status":              string(res.Status),
		"party_members":       members,
		"party_size":          res.PartySize,
		"vehicle":             vehicle, // nil becomes NULL
		"currency":            res.TotalAmount.Currency(),
		"campsite_total":      res.CampsiteTotal.Amount().StringFixed(2),
		"atv_total":           res.AtvTotal.Amount().StringFixed(2),
		"total_amount":        res.TotalAmount.Amount().StringFixed(2),
		"paid_amount":         res.PaidAmount.Amount().StringFixed(2),
		"confirmation_number": res.ConfirmationNumber,
		"check_in_time":       res.CheckInTime,
		"check_out_time":      res.CheckOutTime,
		"notes":               res.Notes,
		"active":              res.Active,
	}, nil
}

// scanReservation maps a single database row into a domain.Reservation.
// Stays are stored as whole days; time-of-day windows are park-wide and
// never persisted per reservation.
func scanReservation(s scanner) (domain.Reservation, error) {
	var (
		res                                  domain.Reservation
		id, customerID, campsiteID           pgtype.UUID
		startDate, endDate                   pgtype.Date
		status, currency                     string
		vehicle                              []byte
		campsiteTotal, atvTotal, total, paid string
		code                                 pgtype.Text
		checkIn, checkOut                    pgtype.Timestamptz
	)

	err := s.Scan(&id, &customerID, &campsiteID, &startDate, &endDate, &status,
		&res.PartyMembers, &res.PartySize, &vehicle, &currency,
		&campsiteTotal, &atvTotal, &total, &paid,
		&code, &checkIn, &checkOut, &res.Notes, &res.Active, &res.CreatedAt, &res.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Reservation{}, domain.ErrNotFound
		}
		return domain.Reservation{}, err
	}

	res.ID = uuid.UUID(id.Bytes)
	res.CustomerID = uuid.UUID(customerID.Bytes)
	res.CampsiteID = uuid.UUID(campsiteID.Bytes)
	res.Stay = domain.NewStay(startDate.Time, endDate.Time)
	res.Status = domain.ReservationStatus(status)
	res.ConfirmationNumber = code.String

	if len(vehicle) > 0 {
		var v domain.VehicleInfo
		if err := json.Unmarshal(vehicle, &v); err != nil {
			return domain.Reservation{}, fmt.Errorf("decode vehicle: %w", err)
		}
		res.Vehicle = &v
	}
	if checkIn.Valid {
		t := checkIn.Time
		res.CheckInTime = &t
	}
	if checkOut.Valid {
		t := checkOut.Time
		res.CheckOutTime = &t
	}

	for _, m := range []struct {
		dst *domain.Money
		raw string
	}{
		{&res.CampsiteTotal, campsiteTotal},
		{&res.AtvTotal, atvTotal},
		{&res.TotalAmount, total},
		{&res.PaidAmount, paid},
	} {
		money, err := domain.ParseMoney(m.raw, currency)
		if err != nil {
			return domain.Reservation{}, err
		}
		*m.dst = money
	}

	return res, nil
}
