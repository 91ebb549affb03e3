package handler

import (
	"errors"
	"net/http"
	"strings"

	"github.com/pkordes/rv-park/backend/internal/domain"
)

// ErrorResponse is the body of every non-2xx response.
type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

// ErrorDetail carries a stable machine-readable code and a human message.
type ErrorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

var errBodyTooLarge = errors.New("request body too large")

// errorStatus maps a sentinel in err's chain to an HTTP status and code.
// Anything unrecognised is a 500.
func errorStatus(err error) (int, string) {
	switch {
	case errors.Is(err, errBodyTooLarge):
		return http.StatusRequestEntityTooLarge, "body_too_large"
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound, "not_found"
	case errors.Is(err, domain.ErrValidation),
		errors.Is(err, domain.ErrCurrencyMismatch),
		errors.Is(err, domain.ErrInvalidOperand):
		return http.StatusUnprocessableEntity, "validation_error"
	case errors.Is(err, domain.ErrResourceUnavailable):
		return http.StatusConflict, "unavailable"
	case errors.Is(err, domain.ErrInvalidTransition):
		return http.StatusConflict, "invalid_transition"
	case errors.Is(err, domain.ErrAlreadyIssued):
		return http.StatusConflict, "already_issued"
	default:
		return http.StatusInternalServerError, "internal_error"
	}
}

// writeError renders err as an ErrorResponse. Internal errors are logged in
// full and answered with a generic message so store details do not leak.
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status, code := errorStatus(err)
	msg := unwrapMessage(err)
	if status == http.StatusInternalServerError {
		s.log.ErrorContext(r.Context(), "request failed", "error", err)
		msg = "internal server error"
	}
	s.writeJSON(w, r, status, ErrorResponse{Error: ErrorDetail{Code: code, Message: msg}})
}

// unwrapMessage extracts the human-readable part from a wrapped sentinel error.
// e.g. "service.Engine.Book: validation error: party size 9 exceeds capacity 8"
// becomes "party size 9 exceeds capacity 8".
func unwrapMessage(err error) string {
	if err == nil {
		return ""
	}
	msg := err.Error()
	for _, sentinel := range []error{
		domain.ErrValidation,
		domain.ErrResourceUnavailable,
		domain.ErrInvalidTransition,
		domain.ErrCurrencyMismatch,
		domain.ErrInvalidOperand,
		domain.ErrAlreadyIssued,
		domain.ErrNotFound,
	} {
		prefix := sentinel.Error() + ": "
		if i := strings.Index(msg, prefix); i >= 0 && len(msg) > i+len(prefix) {
			return msg[i+len(prefix):]
		}
	}
	return msg
}
