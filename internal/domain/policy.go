package domain

import "github.com/shopspring/decimal"

// Policy is the park's set of business rules. It is built once at startup
// (see config.Rules) and handed to the reservation engine; nothing reads it
// from global state.
type Policy struct {
	Currency string
	Rates    RateTable
	Atv      AtvRates

	// DepositPercent is the share of the total due at booking, e.g. 25.
	DepositPercent decimal.Decimal

	// EnforceCheckInDate rejects check-in before the first day of the stay.
	EnforceCheckInDate bool

	// AdmitOccupiedSites lets a site that is occupied today take bookings
	// for later, non-overlapping stays. When false only AVAILABLE sites
	// are bookable.
	AdmitOccupiedSites bool

	// Park-wide arrival and departure times. Stays never carry their own.
	CheckInTime  TimeOfDay
	CheckOutTime TimeOfDay

	// ConfirmationLength is the number of characters in a confirmation code.
	ConfirmationLength int
	// ConfirmationRetries is how many times a colliding code is regenerated
	// before the confirm fails with ErrPersistence.
	ConfirmationRetries int
}

// DefaultPolicy returns the rules the park runs with when no rules file is given.
func DefaultPolicy() Policy {
	return Policy{
		Currency:            DefaultCurrency,
		Rates:               DefaultRateTable(),
		Atv:                 DefaultAtvRates(),
		DepositPercent:      decimal.NewFromInt(25),
		EnforceCheckInDate:  true,
		AdmitOccupiedSites:  true,
		CheckInTime:         At(14, 0),
		CheckOutTime:        At(11, 0),
		ConfirmationLength:  12,
		ConfirmationRetries: 1,
	}
}
