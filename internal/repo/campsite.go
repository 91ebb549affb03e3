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

// CampsiteRepo defines the persistence operations for Campsites.
// The service layer depends on this interface, not the concrete Postgres implementation,
// which allows the service to be unit-tested with a mock.
type CampsiteRepo interface {
	// Create inserts a new campsite and returns the persisted record (with
	// generated id, created_at, and updated_at populated).
	// Returns domain.ErrValidation if the site number is already taken.
	Create(ctx context.Context, site domain.Campsite) (domain.Campsite, error)

	// GetByID retrieves a single campsite by its UUID primary key.
	// Returns domain.ErrNotFound if no campsite with that ID exists.
	GetByID(ctx context.Context, id uuid.UUID) (domain.Campsite, error)

	// GetBySiteNumber retrieves a campsite by the number painted on its post.
	GetBySiteNumber(ctx context.Context, number int) (domain.Campsite, error)

	// List returns every campsite ordered by site number.
	List(ctx context.Context) ([]domain.Campsite, error)

	// FindAvailable returns the active, AVAILABLE campsites matching filter
	// that have no CONFIRMED or CHECKED_IN reservation overlapping stay,
	// ordered by site number.
	FindAvailable(ctx context.Context, stay domain.DateRange, filter domain.CampsiteFilter) ([]domain.Campsite, error)

	// Update overwrites the mutable fields (status, notes, active) and
	// returns the updated record.
	Update(ctx context.Context, site domain.Campsite) (domain.Campsite, error)

	// LockForUpdate reads a campsite and, inside a transaction, holds its
	// row lock until the transaction ends.
	LockForUpdate(ctx context.Context, id uuid.UUID) (domain.Campsite, error)
}

// pgCampsiteRepo is the Postgres implementation of CampsiteRepo.
type pgCampsiteRepo struct {
	db db
}

// NewCampsiteRepo constructs a CampsiteRepo backed by the provided db connection.
// In production pass *pgxpool.Pool; in tests pass a pgx.Tx for rollback isolation.
func NewCampsiteRepo(db db) CampsiteRepo {
	return &pgCampsiteRepo{db: db}
}

const campsiteColumns = `id, site_number, site_type, location, status, notes, active, created_at, updated_at`

func (r *pgCampsiteRepo) Create(ctx context.Context, site domain.Campsite) (domain.Campsite, error) {
	const q = `
		INSERT INTO campsites (site_number, site_type, location, status, notes, active)
		VALUES (@site_number, @site_type, @location, @status, @notes, @active)
		RETURNING ` + campsiteColumns

	args := pgx.NamedArgs{
		"site_number": site.SiteNumber,
		"site_type":   string(site.Type),
		"location":    string(site.Location),
		"status":      string(site.Status),
		"notes":       site.Notes,
		"active":      site.Active,
	}

	result, err := scanCampsite(r.db.QueryRow(ctx, q, args))
	if err != nil {
		return domain.Campsite{}, fmt.Errorf("repo.CampsiteRepo.Create: %w", mapPgError(err))
	}
	return result, nil
}

func (r *pgCampsiteRepo) GetByID(ctx context.Context, id uuid.UUID) (domain.Campsite, error) {
	q := `SELECT ` + campsiteColumns + ` FROM campsites WHERE id = @id`

	result, err := scanCampsite(r.db.QueryRow(ctx, q, pgx.NamedArgs{"id": id}))
	if err != nil {
		return domain.Campsite{}, fmt.Errorf("repo.CampsiteRepo.GetByID: %w", err)
	}
	return result, nil
}

func (r *pgCampsiteRepo) GetBySiteNumber(ctx context.Context, number int) (domain.Campsite, error) {
	q := `SELECT ` + campsiteColumns + ` FROM campsites WHERE site_number = @number`

	result, err := scanCampsite(r.db.QueryRow(ctx, q, pgx.NamedArgs{"number": number}))
	if err != nil {
		return domain.Campsite{}, fmt.Errorf("repo.CampsiteRepo.GetBySiteNumber: %w", err)
	}
	return result, nil
}

func (r *pgCampsiteRepo) List(ctx context.Context) ([]domain.Campsite, error) {
	q := `SELECT ` + campsiteColumns + ` FROM campsites ORDER BY site_number`

	sites, err := r.query(ctx, q, pgx.NamedArgs{})
	if err != nil {
		return nil, fmt.Errorf("repo.CampsiteRepo.List: %w", err)
	}
	return sites, nil
}

// FindAvailable uses the same closed-interval overlap rule as
// domain.DateRange.OverlapsDate: start <= other.end AND end >= other.start.
func (r *pgCampsiteRepo) FindAvailable(ctx context.Context, stay domain.DateRange, filter domain.CampsiteFilter) ([]domain.Campsite, error) {
	q := `
		SELECT ` + campsiteColumns + `
		FROM campsites c
		WHERE c.active
		  AND c.status = 'AVAILABLE'
		  AND (@site_type::text = '' OR c.site_type = @site_type)
		  AND (@location::text = '' OR c.location = @location)
		  AND NOT EXISTS (
		      SELECT 1 FROM reservations r
		      WHERE r.campsite_id = c.id
		        AND r.status IN ('CONFIRMED', 'CHECKED_IN')
		        AND r.start_date <= @end_date
		        AND r.end_date >= @start_date)
		ORDER BY c.site_number`

	args := pgx.NamedArgs{
		"site_type":  string(filter.Type),
		"location":   string(filter.Location),
		"start_date": stay.Start,
		"end_date":   stay.EffectiveEnd(),
	}

	sites, err := r.query(ctx, q, args)
	if err != nil {
		return nil, fmt.Errorf("repo.CampsiteRepo.FindAvailable: %w", err)
	}
	return sites, nil
}

func (r *pgCampsiteRepo) Update(ctx context.Context, site domain.Campsite) (domain.Campsite, error) {
	const q = `
		UPDATE campsites
		SET status     = @status,
		    notes      = @notes,
		    active     = @active,
		    updated_at = now()
		WHERE id = @id
		RETURNING ` + campsiteColumns

	args := pgx.NamedArgs{
		"id":     site.ID,
		"status": string(site.Status),
		"notes":  site.Notes,
		"active": site.Active,
	}

	result, err := scanCampsite(r.db.QueryRow(ctx, q, args))
	if err != nil {
		return domain.Campsite{}, fmt.Errorf("repo.CampsiteRepo.Update: %w", mapPgError(err))
	}
	return result, nil
}

func (r *pgCampsiteRepo) LockForUpdate(ctx context.Context, id uuid.UUID) (domain.Campsite, error) {
	q := `SELECT ` + campsiteColumns + ` FROM campsites WHERE id = @id FOR UPDATE`

	result, err := scanCampsite(r.db.QueryRow(ctx, q, pgx.NamedArgs{"id": id}))
	if err != nil {
		return domain.Campsite{}, fmt.Errorf("repo.CampsiteRepo.LockForUpdate: %w", err)
	}
	return result, nil
}

func (r *pgCampsiteRepo) query(ctx context.Context, q string, args pgx.NamedArgs) ([]domain.Campsite, error) {
	rows, err := r.db.Query(ctx, q, args)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	sites := []domain.Campsite{}
	for rows.Next() {
		c, err := scanCampsite(rows)
		if err != nil {
			return nil, fmt.Errorf("scan: %w", err)
		}
		sites = append(sites, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows: %w", err)
	}
	return sites, nil
}

// scanCampsite maps a single database row into a domain.Campsite.
func scanCampsite(s scanner) (domain.Campsite, error) {
	var (
		c                     domain.Campsite
		id                    pgtype.UUID
		siteType, loc, status string
	)

	err := s.Scan(&id, &c.SiteNumber, &siteType, &loc, &status, &c.Notes, &c.Active, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Campsite{}, domain.ErrNotFound
		}
		return domain.Campsite{}, err
	}

	c.ID = uuid.UUID(id.Bytes)
	c.Type = domain.SiteType(siteType)
	c.Location = domain.Location(loc)
	c.Status = domain.CampsiteStatus(status)
	return c, nil
}
