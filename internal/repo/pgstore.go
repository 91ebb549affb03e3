package repo

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
)

// txBeginner is a db that can open a transaction. *pgxpool.Pool begins a
// real transaction; pgx.Tx begins a savepoint, which lets integration tests
// run a PgStore inside their rolled-back test transaction.
type txBeginner interface {
	db
	Begin(ctx context.Context) (pgx.Tx, error)
}

// PgStore is the Postgres Store.
type PgStore struct {
	db txBeginner
}

// NewPgStore constructs a Store backed by the provided pool (or transaction).
func NewPgStore(db txBeginner) *PgStore {
	return &PgStore{db: db}
}

var _ Store = (*PgStore)(nil)

// Repos returns repositories that run directly on the pool.
func (s *PgStore) Repos() Repos {
	return reposOn(s.db)
}

// InTx runs fn in a transaction that commits when fn returns nil.
func (s *PgStore) InTx(ctx context.Context, fn func(Repos) error) error {
	err := pgx.BeginFunc(ctx, s.db, func(tx pgx.Tx) error {
		return fn(reposOn(tx))
	})
	if err != nil {
		return fmt.Errorf("repo.PgStore.InTx: %w", mapPgError(err))
	}
	return nil
}

func reposOn(d db) Repos {
	return Repos{
		Campsites:    NewCampsiteRepo(d),
		Reservations: NewReservationRepo(d),
		AtvPasses:    NewAtvPassRepo(d),
		Customers:    NewCustomerRepo(d),
	}
}
