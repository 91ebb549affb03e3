package domain

import "errors"

// ErrNotFound is returned by repo and service functions when the requested
// record does not exist in the store.
// Handlers should map this to HTTP 404.
var ErrNotFound = errors.New("not found")

// ErrValidation is returned when input fails business rule validation
// (e.g. party size above the site capacity, end date before start date).
// It is always raised before any mutation happens.
// Handlers should map this to HTTP 422 Unprocessable Entity.
var ErrValidation = errors.New("validation error")

// ErrCurrencyMismatch is returned by Money operations whose operands carry
// different currency codes. No partial arithmetic is performed.
var ErrCurrencyMismatch = errors.New("currency mismatch")

// ErrInvalidOperand is returned by Money.Divide when the divisor is zero.
var ErrInvalidOperand = errors.New("invalid operand")

// ErrResourceUnavailable is returned when a booking attempt cannot be
// admitted: the campsite is not bookable or an active reservation already
// overlaps the requested stay. Catalog state is unchanged.
// Handlers should map this to HTTP 409 Conflict.
var ErrResourceUnavailable = errors.New("resource unavailable")

// ErrConflict is an alias of ErrResourceUnavailable for callers that think
// in terms of date conflicts rather than availability.
var ErrConflict = ErrResourceUnavailable

// ErrInvalidTransition is returned when a lifecycle operation is attempted
// from a state that does not permit it.
var ErrInvalidTransition = errors.New("invalid status transition")

// ErrDuplicateConfirmation is returned by the store when a confirmation
// number is already taken. The engine regenerates and retries on it; it is
// never surfaced to HTTP callers directly.
var ErrDuplicateConfirmation = errors.New("duplicate confirmation number")

// ErrPersistence wraps store failures the engine could not recover from,
// such as running out of confirmation number retries.
var ErrPersistence = errors.New("persistence error")

// ErrAlreadyIssued is returned when issuing an ATV pass that already has a
// wristband assigned.
var ErrAlreadyIssued = errors.New("pass already issued")
