package domain

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Customer is the person a reservation is booked under.
type Customer struct {
	ID                    uuid.UUID
	FirstName             string
	LastName              string
	Email                 string
	Phone                 string
	EmergencyContactName  string
	EmergencyContactPhone string
	CreatedAt             time.Time
	UpdatedAt             time.Time
}

// FullName joins first and last name.
func (c Customer) FullName() string {
	return strings.TrimSpace(c.FirstName + " " + c.LastName)
}

// PrimaryContact returns the email when present, otherwise the phone.
func (c Customer) PrimaryContact() string {
	if strings.TrimSpace(c.Email) != "" {
		return c.Email
	}
	return c.Phone
}

// Validate enforces the fields a booking cannot proceed without.
func (c Customer) Validate() error {
	if strings.TrimSpace(c.FirstName) == "" || strings.TrimSpace(c.LastName) == "" {
		return fmt.Errorf("%w: customer first and last name are required", ErrValidation)
	}
	if c.PrimaryContact() == "" {
		return fmt.Errorf("%w: customer email or phone is required", ErrValidation)
	}
	return nil
}

// VehicleInfo describes the vehicle parked at the site.
type VehicleInfo struct {
	LicensePlate string `json:"license_plate,omitempty"`
	Make         string `json:"make,omitempty"`
	Model        string `json:"model,omitempty"`
	RVLengthFeet int    `json:"rv_length_feet,omitempty"`
}

// IsRV reports whether an RV length was given.
func (v VehicleInfo) IsRV() bool { return v.RVLengthFeet > 0 }

// Validate rejects RV lengths outside what the hookup pads accept.
func (v VehicleInfo) Validate() error {
	if v.RVLengthFeet != 0 && (v.RVLengthFeet < 10 || v.RVLengthFeet > 100) {
		return fmt.Errorf("%w: rv length must be between 10 and 100 feet", ErrValidation)
	}
	return nil
}
