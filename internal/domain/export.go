package domain

import "time"

// ExportRow is a single row in the reservation export.
// It is a flat, denormalized view: one row per reservation, with the
// campsite and customer fields repeated from their records.
type ExportRow struct {
	// Reservation fields.
	ReservationID      string
	ConfirmationNumber string
	Status             ReservationStatus
	StartDate          time.Time
	EndDate            time.Time
	Nights             int
	PartySize          int

	// Campsite fields.
	SiteNumber int
	SiteType   SiteType
	Location   Location

	// Customer fields.
	CustomerName    string
	CustomerContact string

	// Money fields, all in the reservation's currency.
	TotalAmount Money
	PaidAmount  Money
	BalanceDue  Money
}
