package repo

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/pkordes/rv-park/backend/internal/domain"
)

// AtvPassRepo defines the persistence operations for ATV passes.
// Passes are deleted with their reservation (ON DELETE CASCADE).
type AtvPassRepo interface {
	// CreateBatch inserts passes in order and returns the persisted records.
	CreateBatch(ctx context.Context, passes []domain.AtvPass) ([]domain.AtvPass, error)

	// GetByID retrieves a pass by primary key.
	// Returns domain.ErrNotFound if no pass with that ID exists.
	GetByID(ctx context.Context, id uuid.UUID) (domain.AtvPass, error)

	// ListByReservation returns a reservation's passes ordered by holder and date.
	ListByReservation(ctx context.Context, reservationID uuid.UUID) ([]domain.AtvPass, error)

	// Update overwrites the issued flag and wristband number.
	Update(ctx context.Context, pass domain.AtvPass) (domain.AtvPass, error)
}

// pgAtvPassRepo is the Postgres implementation of AtvPassRepo.
type pgAtvPassRepo struct {
	db db
}

// NewAtvPassRepo constructs an AtvPassRepo backed by the provided db connection.
func NewAtvPassRepo(db db) AtvPassRepo {
	return &pgAtvPassRepo{db: db}
}

const atvPassColumns = `id, reservation_id, holder_name, age, pass_date, daily_rate::text, currency,
	issued, wristband_number, created_at`

// CreateBatch issues one INSERT per pass. Callers run it inside Store.InTx
// so a failure part way leaves no passes behind.
func (r *pgAtvPassRepo) CreateBatch(ctx context.Context, passes []domain.AtvPass) ([]domain.AtvPass, error) {
	const q = `
		INSERT INTO atv_passes (reservation_id, holder_name, age, pass_date, daily_rate, currency, issued, wristband_number)
		VALUES (@reservation_id, @holder_name, @age, @pass_date, @daily_rate::numeric, @currency, @issued, NULLIF(@wristband_number, ''))
		RETURNING ` + atvPassColumns

	out := make([]domain.AtvPass, 0, len(passes))
	for _, p := range passes {
		args := pgx.NamedArgs{
			"reservation_id":   p.ReservationID,
			"holder_name":      p.HolderName,
			"age":              p.Age,
			"pass_date":        p.PassDate,
			"daily_rate":       p.DailyRate.Amount().StringFixed(2),
			"currency":         p.DailyRate.Currency(),
			"issued":           p.Issued,
			"wristband_number": p.WristbandNumber,
		}
		created, err := scanAtvPass(r.db.QueryRow(ctx, q, args))
		if err != nil {
			return nil, fmt.Errorf("repo.AtvPassRepo.CreateBatch: %w", mapPgError(err))
		}
		out = append(out, created)
	}
	return out, nil
}

func (r *pgAtvPassRepo) GetByID(ctx context.Context, id uuid.UUID) (domain.AtvPass, error) {
	const q = `SELECT ` + atvPassColumns + ` FROM atv_passes WHERE id = @id`

	result, err := scanAtvPass(r.db.QueryRow(ctx, q, pgx.NamedArgs{"id": id}))
	if err != nil {
		return domain.AtvPass{}, fmt.Errorf("repo.AtvPassRepo.GetByID: %w", err)
	}
	return result, nil
}

func (r *pgAtvPassRepo) ListByReservation(ctx context.Context, reservationID uuid.UUID) ([]domain.AtvPass, error) {
	const q = `
		SELECT ` + atvPassColumns + `
		FROM atv_passes
		WHERE reservation_id = @reservation_id
		ORDER BY holder_name, pass_date`

	rows, err := r.db.Query(ctx, q, pgx.NamedArgs{"reservation_id": reservationID})
	if err != nil {
		return nil, fmt.Errorf("repo.AtvPassRepo.ListByReservation: %w", err)
	}
	defer rows.Close()

	passes := []domain.AtvPass{}
	for rows.Next() {
		p, err := scanAtvPass(rows)
		if err != nil {
			return nil, fmt.Errorf("repo.AtvPassRepo.ListByReservation: scan: %w", err)
		}
		passes = append(passes, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("repo.AtvPassRepo.ListByReservation: rows: %w", err)
	}
	return passes, nil
}

func (r *pgAtvPassRepo) Update(ctx context.Context, pass domain.AtvPass) (domain.AtvPass, error) {
	const q = `
		UPDATE atv_passes
		SET issued           = @issued,
		    wristband_number = NULLIF(@wristband_number, '')
		WHERE id = @id
		RETURNING ` + atvPassColumns

	args := pgx.NamedArgs{
		"id":               pass.ID,
		"issued":           pass.Issued,
		"wristband_number": pass.WristbandNumber,
	}

	result, err := scanAtvPass(r.db.QueryRow(ctx, q, args))
	if err != nil {
		return domain.AtvPass{}, fmt.Errorf("repo.AtvPassRepo.Update: %w", mapPgError(err))
	}
	return result, nil
}

func scanAtvPass(s scanner) (domain.AtvPass, error) {
	var (
		p              domain.AtvPass
		id, resID      pgtype.UUID
		passDate       pgtype.Date
		rate, currency string
		wristband      pgtype.Text
	)

	err := s.Scan(&id, &resID, &p.HolderName, &p.Age, &passDate, &rate, &currency,
		&p.Issued, &wristband, &p.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.AtvPass{}, domain.ErrNotFound
		}
		return domain.AtvPass{}, err
	}

	p.ID = uuid.UUID(id.Bytes)
	p.ReservationID = uuid.UUID(resID.Bytes)
	p.PassDate = domain.Date(passDate.Time)
	p.WristbandNumber = wristband.String
	p.DailyRate, err = domain.ParseMoney(rate, currency)
	if err != nil {
		return domain.AtvPass{}, err
	}
	return p, nil
}
