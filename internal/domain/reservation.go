package domain

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ReservationStatus is a state of the reservation lifecycle:
//
//	PENDING → CONFIRMED → CHECKED_IN → COMPLETED
//	PENDING, CONFIRMED → CANCELLED
type ReservationStatus string

const (
	StatusPending   ReservationStatus = "PENDING"
	StatusConfirmed ReservationStatus = "CONFIRMED"
	StatusCheckedIn ReservationStatus = "CHECKED_IN"
	StatusCompleted ReservationStatus = "COMPLETED"
	StatusCancelled ReservationStatus = "CANCELLED"
)

var validNext = map[ReservationStatus]map[ReservationStatus]bool{
	StatusPending:   {StatusConfirmed: true, StatusCancelled: true},
	StatusConfirmed: {StatusCheckedIn: true, StatusCancelled: true},
	StatusCheckedIn: {StatusCompleted: true},
	StatusCompleted: {},
	StatusCancelled: {},
}

// CanTransition reports whether the lifecycle allows moving from → to.
func CanTransition(from, to ReservationStatus) bool {
	return validNext[from][to]
}

// ActiveStatuses are the states that hold a campsite for their dates.
var ActiveStatuses = []ReservationStatus{StatusConfirmed, StatusCheckedIn}

// IsActive reports whether a reservation in this state blocks its campsite.
// Pending and terminal reservations never do.
func (s ReservationStatus) IsActive() bool {
	return s == StatusConfirmed || s == StatusCheckedIn
}

// CanBeCancelled reports whether cancel is permitted from this state.
func (s ReservationStatus) CanBeCancelled() bool {
	return CanTransition(s, StatusCancelled)
}

// IsTerminal reports whether no transition leaves this state.
func (s ReservationStatus) IsTerminal() bool {
	return len(validNext[s]) == 0
}

// Valid reports whether s is a known state.
func (s ReservationStatus) Valid() bool {
	_, ok := validNext[s]
	return ok
}

// Reservation binds a customer, a campsite and a stay, and owns the
// lifecycle state machine and the money totals.
//
// Related records are held by ID only; callers look them up through the store.
type Reservation struct {
	ID                 uuid.UUID
	CustomerID         uuid.UUID
	CampsiteID         uuid.UUID
	Stay               DateRange
	Status             ReservationStatus
	PartyMembers       []string
	PartySize          int
	Vehicle            *VehicleInfo
	CampsiteTotal      Money
	AtvTotal           Money
	TotalAmount        Money
	PaidAmount         Money
	ConfirmationNumber string
	CheckInTime        *time.Time
	CheckOutTime       *time.Time
	Notes              string
	Active             bool
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

// NewReservation validates a booking request against the campsite's type
// spec and returns a PENDING reservation with its totals computed.
// The campsite total is the daily rate times the number of nights.
func NewReservation(customerID uuid.UUID, site Campsite, spec SiteTypeSpec, stay DateRange, members []string, partySize int) (Reservation, error) {
	if err := stay.Validate(); err != nil {
		return Reservation{}, err
	}
	if partySize < 1 {
		return Reservation{}, fmt.Errorf("%w: party size must be at least 1", ErrValidation)
	}
	if partySize > spec.MaxPartySize {
		return Reservation{}, fmt.Errorf("%w: party size %d exceeds site %d capacity of %d",
			ErrValidation, partySize, site.SiteNumber, spec.MaxPartySize)
	}
	cleaned := make([]string, 0, len(members))
	for _, m := range members {
		if name := strings.TrimSpace(m); name != "" {
			cleaned = append(cleaned, name)
		}
	}
	if len(cleaned) > partySize {
		return Reservation{}, fmt.Errorf("%w: %d party members listed for a party of %d",
			ErrValidation, len(cleaned), partySize)
	}

	cur := spec.DailyRate.Currency()
	campsiteTotal := spec.DailyRate.MultiplyInt(stay.Nights())
	return Reservation{
		CustomerID:    customerID,
		CampsiteID:    site.ID,
		Stay:          stay,
		Status:        StatusPending,
		PartyMembers:  cleaned,
		PartySize:     partySize,
		CampsiteTotal: campsiteTotal,
		AtvTotal:      Zero(cur),
		TotalAmount:   campsiteTotal,
		PaidAmount:    Zero(cur),
		Active:        true,
	}, nil
}

func (r *Reservation) transition(to ReservationStatus, op string) error {
	if !CanTransition(r.Status, to) {
		return fmt.Errorf("%w: cannot %s a %s reservation", ErrInvalidTransition, op, r.Status)
	}
	r.Status = to
	return nil
}

// Confirm moves PENDING → CONFIRMED and records the confirmation number.
// Uniqueness of the number is the store's concern.
func (r *Reservation) Confirm(confirmationNumber string) error {
	if strings.TrimSpace(confirmationNumber) == "" {
		return fmt.Errorf("%w: confirmation number is required", ErrValidation)
	}
	if err := r.transition(StatusConfirmed, "confirm"); err != nil {
		return err
	}
	r.ConfirmationNumber = confirmationNumber
	return nil
}

// CheckIn moves CONFIRMED → CHECKED_IN and marks the site occupied.
// With notBeforeStart set, check-in before the first day of the stay is
// rejected. site may be nil when the caller has no site to update.
func (r *Reservation) CheckIn(site *Campsite, now time.Time, notBeforeStart bool) error {
	if r.Status == StatusConfirmed && notBeforeStart && Date(now).Before(r.Stay.Start) {
		return fmt.Errorf("%w: stay does not start until %s", ErrInvalidTransition, r.Stay.Start.Format(DateLayout))
	}
	if err := r.transition(StatusCheckedIn, "check in"); err != nil {
		return err
	}
	r.CheckInTime = &now
	if site != nil {
		site.MarkOccupied()
	}
	return nil
}

// CheckOut moves CHECKED_IN → COMPLETED and frees the site.
func (r *Reservation) CheckOut(site *Campsite, now time.Time) error {
	if err := r.transition(StatusCompleted, "check out"); err != nil {
		return err
	}
	r.CheckOutTime = &now
	if site != nil {
		site.MarkAvailable()
	}
	return nil
}

// Cancel moves PENDING or CONFIRMED → CANCELLED and frees the site.
// Pass a nil site when the site must be left as it is.
func (r *Reservation) Cancel(site *Campsite) error {
	if err := r.transition(StatusCancelled, "cancel"); err != nil {
		return err
	}
	if site != nil {
		site.MarkAvailable()
	}
	return nil
}

// AddAtvCharges folds newly generated passes into the ATV and grand totals.
// Terminal reservations take no new charges.
func (r *Reservation) AddAtvCharges(passes []AtvPass) error {
	if r.Status.IsTerminal() {
		return fmt.Errorf("%w: cannot add ATV passes to a %s reservation", ErrInvalidTransition, r.Status)
	}
	atv := r.AtvTotal
	for _, p := range passes {
		next, err := atv.Add(p.DailyRate)
		if err != nil {
			return err
		}
		atv = next
	}
	total, err := r.CampsiteTotal.Add(atv)
	if err != nil {
		return err
	}
	r.AtvTotal = atv
	r.TotalAmount = total
	return nil
}

// RecordPayment adds a positive payment to the paid amount.
func (r *Reservation) RecordPayment(amount Money) error {
	if !amount.IsPositive() {
		return fmt.Errorf("%w: payment amount must be positive", ErrValidation)
	}
	if r.Status == StatusCancelled {
		return fmt.Errorf("%w: cannot take payment on a cancelled reservation", ErrInvalidTransition)
	}
	paid, err := r.PaidAmount.Add(amount)
	if err != nil {
		return err
	}
	r.PaidAmount = paid
	return nil
}

// OutstandingBalance returns total minus paid. It is negative on overpayment;
// use ClampZero for display.
func (r Reservation) OutstandingBalance() Money {
	out, err := r.TotalAmount.Subtract(r.PaidAmount)
	if err != nil {
		return r.TotalAmount
	}
	return out
}

// IsPaidInFull reports whether nothing remains outstanding.
func (r Reservation) IsPaidInFull() bool {
	out := r.OutstandingBalance()
	return out.IsZero() || out.IsNegative()
}

// DepositDue returns pct percent of the total amount.
func (r Reservation) DepositDue(pct decimal.Decimal) Money {
	return r.TotalAmount.Percentage(pct)
}

// IsPartyFullyRegistered reports whether every member of the party is named.
func (r Reservation) IsPartyFullyRegistered() bool {
	return len(r.PartyMembers) == r.PartySize
}

// IsLateCheckOut reports whether check-out happened after the standard time.
func (r Reservation) IsLateCheckOut(standard TimeOfDay) bool {
	if r.CheckOutTime == nil {
		return false
	}
	return At(r.CheckOutTime.Hour(), r.CheckOutTime.Minute()) > standard
}
