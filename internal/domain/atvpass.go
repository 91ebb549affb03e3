package domain

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// AtvRates prices a day of ATV access by the holder's age bracket.
// Holders younger than TeenAge ride free, TeenAge..AdultAge-1 pay Teen,
// AdultAge and older pay Adult.
type AtvRates struct {
	TeenAge  int
	AdultAge int
	Teen     Money
	Adult    Money
}

// DefaultAtvRates returns the park's standard ATV pricing.
func DefaultAtvRates() AtvRates {
	return AtvRates{
		TeenAge:  15,
		AdultAge: 18,
		Teen:     MoneyOf(10.00),
		Adult:    MoneyOf(20.00),
	}
}

// DailyRate returns the per-day price for a holder of the given age.
func (r AtvRates) DailyRate(age int) Money {
	switch {
	case age < r.TeenAge:
		return Zero(r.Adult.Currency())
	case age < r.AdultAge:
		return r.Teen
	default:
		return r.Adult
	}
}

// AtvPass is one day of ATV access for one holder on a reservation.
type AtvPass struct {
	ID              uuid.UUID
	ReservationID   uuid.UUID
	HolderName      string
	Age             int
	PassDate        time.Time
	DailyRate       Money
	Issued          bool
	WristbandNumber string
	CreatedAt       time.Time
}

// IsFree reports whether the pass carries no charge.
func (p AtvPass) IsFree() bool { return p.DailyRate.IsZero() }

// Issue hands out a wristband. It is a one-way step: a pass that already
// has a band is rejected so the earlier band number is not lost.
func (p *AtvPass) Issue(wristbandNumber string) error {
	if p.Issued {
		return fmt.Errorf("%w: pass %s already has wristband %s", ErrAlreadyIssued, p.ID, p.WristbandNumber)
	}
	if strings.TrimSpace(wristbandNumber) == "" {
		return fmt.Errorf("%w: wristband number is required", ErrValidation)
	}
	p.Issued = true
	p.WristbandNumber = wristbandNumber
	return nil
}

// GeneratePasses creates one pass per day of the reservation's stay for the
// named holder, starting on the first day of the stay.
func GeneratePasses(res Reservation, holderName string, age int, rates AtvRates) ([]AtvPass, error) {
	holderName = strings.TrimSpace(holderName)
	if holderName == "" {
		return nil, fmt.Errorf("%w: pass holder name is required", ErrValidation)
	}
	if age < 0 || age > 120 {
		return nil, fmt.Errorf("%w: age must be between 0 and 120", ErrValidation)
	}
	if err := res.Stay.Validate(); err != nil {
		return nil, err
	}

	rate := rates.DailyRate(age)
	days := res.Stay.Days()
	passes := make([]AtvPass, 0, len(days))
	for _, d := range days {
		passes = append(passes, AtvPass{
			ReservationID: res.ID,
			HolderName:    holderName,
			Age:           age,
			PassDate:      d,
			DailyRate:     rate,
		})
	}
	return passes, nil
}
