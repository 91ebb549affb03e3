// Package repo contains all persistence logic for the RV park API.
// Each resource has its own file with an interface and a Postgres implementation;
// memory.go holds an in-process implementation of the same interfaces.
// No business logic lives here, only queries and type mapping.
package repo

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/pkordes/rv-park/backend/internal/domain"
)

// db is the minimal interface satisfied by *pgxpool.Pool, pgx.Conn, and pgx.Tx.
// Accepting this interface instead of *pgxpool.Pool directly allows integration
// tests to pass a transaction that is rolled back after each test, giving free
// per-test isolation without any manual cleanup.
type db interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// scanner is satisfied by both pgx.Row and pgx.Rows, allowing the scanX
// helpers to be reused for both QueryRow and Query calls.
type scanner interface {
	Scan(dest ...any) error
}

// Repos groups the repositories that make up one unit of work. Inside
// Store.InTx every member shares the same transaction.
type Repos struct {
	Campsites    CampsiteRepo
	Reservations ReservationRepo
	AtvPasses    AtvPassRepo
	Customers    CustomerRepo
}

// Store hands out repositories. Writes made through the Repos passed to an
// InTx callback become visible together when the callback returns nil and
// are discarded when it returns an error.
type Store interface {
	// Repos returns repositories that run each call on its own.
	Repos() Repos

	// InTx runs fn inside a transaction.
	InTx(ctx context.Context, fn func(Repos) error) error
}

// Postgres error codes mapped onto domain errors.
const (
	pgUniqueViolation    = "23505"
	pgExclusionViolation = "23P01"
	pgCheckViolation     = "23514"
)

// Constraint names from migrations/00001_init.sql.
const (
	constraintConfirmationNumber = "reservations_confirmation_number_key"
	constraintNoDoubleBooking    = "reservations_no_overlap"
	constraintSiteNumber         = "campsites_site_number_key"
)

// mapPgError translates constraint violations into domain errors so callers
// can use errors.Is without knowing about Postgres.
func mapPgError(err error) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.ErrNotFound
	}
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return err
	}
	switch {
	case pgErr.Code == pgUniqueViolation && pgErr.ConstraintName == constraintConfirmationNumber:
		return fmt.Errorf("%w: %s", domain.ErrDuplicateConfirmation, pgErr.Detail)
	case pgErr.Code == pgUniqueViolation && pgErr.ConstraintName == constraintSiteNumber:
		return fmt.Errorf("%w: site number already exists", domain.ErrValidation)
	case pgErr.Code == pgExclusionViolation && pgErr.ConstraintName == constraintNoDoubleBooking:
		return fmt.Errorf("%w: campsite already booked for those dates", domain.ErrResourceUnavailable)
	case pgErr.Code == pgCheckViolation:
		return fmt.Errorf("%w: %s", domain.ErrValidation, pgErr.ConstraintName)
	}
	return err
}
