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

// CustomerRepo defines the persistence operations for Customers.
type CustomerRepo interface {
	// Create inserts a new customer and returns the persisted record.
	Create(ctx context.Context, c domain.Customer) (domain.Customer, error)

	// GetByID retrieves a customer by primary key.
	// Returns domain.ErrNotFound if no customer with that ID exists.
	GetByID(ctx context.Context, id uuid.UUID) (domain.Customer, error)
}

// pgCustomerRepo is the Postgres implementation of CustomerRepo.
type pgCustomerRepo struct {
	db db
}

// NewCustomerRepo constructs a CustomerRepo backed by the provided db connection.
func NewCustomerRepo(db db) CustomerRepo {
	return &pgCustomerRepo{db: db}
}

const customerColumns = `id, first_name, last_name, email, phone,
	emergency_contact_name, emergency_contact_phone, created_at, updated_at`

func (r *pgCustomerRepo) Create(ctx context.Context, c domain.Customer) (domain.Customer, error) {
	const q = `
		INSERT INTO customers (first_name, last_name, email, phone, emergency_contact_name, emergency_contact_phone)
		VALUES (@first_name, @last_name, @email, @phone, @ec_name, @ec_phone)
		RETURNING ` + customerColumns

	args := pgx.NamedArgs{
		"first_name": c.FirstName,
		"last_name":  c.LastName,
		"email":      c.Email,
		"phone":      c.Phone,
		"ec_name":    c.EmergencyContactName,
		"ec_phone":   c.EmergencyContactPhone,
	}

	result, err := scanCustomer(r.db.QueryRow(ctx, q, args))
	if err != nil {
		return domain.Customer{}, fmt.Errorf("repo.CustomerRepo.Create: %w", mapPgError(err))
	}
	return result, nil
}

func (r *pgCustomerRepo) GetByID(ctx context.Context, id uuid.UUID) (domain.Customer, error) {
	const q = `SELECT ` + customerColumns + ` FROM customers WHERE id = @id`

	result, err := scanCustomer(r.db.QueryRow(ctx, q, pgx.NamedArgs{"id": id}))
	if err != nil {
		return domain.Customer{}, fmt.Errorf("repo.CustomerRepo.GetByID: %w", err)
	}
	return result, nil
}

func scanCustomer(s scanner) (domain.Customer, error) {
	var (
		c  domain.Customer
		id pgtype.UUID
	)

	err := s.Scan(&id, &c.FirstName, &c.LastName, &c.Email, &c.Phone,
		&c.EmergencyContactName, &c.EmergencyContactPhone, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Customer{}, domain.ErrNotFound
		}
		return domain.Customer{}, err
	}

	c.ID = uuid.UUID(id.Bytes)
	return c, nil
}
