// Package handler implements the HTTP adapter for the RV park API.
// All handlers are methods on Server. Methods are split into domain-specific
// files (health.go, campsite.go, reservation.go, atv.go, export.go) but share the same
// Server struct so they can reach the reservation engine.
package handler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/pkordes/rv-park/backend/internal/domain"
	"github.com/pkordes/rv-park/backend/internal/service"
)

// Engine defines the reservation operations the handlers depend on.
// Defining the interface here (in the consumer package) lets handler tests
// inject a mock without touching the store or the lock.
type Engine interface {
	Policy() domain.Policy
	Today() time.Time
	Summarize(res domain.Reservation) service.Summary

	CreateCampsite(ctx context.Context, site domain.Campsite) (domain.Campsite, error)
	GetCampsite(ctx context.Context, id uuid.UUID) (domain.Campsite, error)
	GetCampsiteBySiteNumber(ctx context.Context, number int) (domain.Campsite, error)
	ListCampsites(ctx context.Context) ([]domain.Campsite, error)
	MarkMaintenance(ctx context.Context, id uuid.UUID, reason string) (domain.Campsite, error)
	MarkAvailable(ctx context.Context, id uuid.UUID) (domain.Campsite, error)
	FindAvailable(ctx context.Context, stay domain.DateRange, filter domain.CampsiteFilter) ([]domain.Campsite, error)
	CheckConflict(ctx context.Context, campsiteID uuid.UUID, stay domain.DateRange, excludeID uuid.UUID) (bool, error)

	Book(ctx context.Context, req service.BookingRequest) (domain.Reservation, error)
	AdmitBooking(ctx context.Context, req service.BookingRequest) (domain.Reservation, error)
	Confirm(ctx context.Context, id uuid.UUID) (domain.Reservation, error)
	CheckIn(ctx context.Context, id uuid.UUID) (domain.Reservation, error)
	CheckOut(ctx context.Context, id uuid.UUID) (domain.Reservation, error)
	Cancel(ctx context.Context, id uuid.UUID) (domain.Reservation, error)
	RecordPayment(ctx context.Context, id uuid.UUID, amount domain.Money) (domain.Reservation, error)
	GetReservation(ctx context.Context, id uuid.UUID) (domain.Reservation, error)
	GetByConfirmationNumber(ctx context.Context, code string) (domain.Reservation, error)
	ListReservations(ctx context.Context, p domain.PaginationParams) ([]domain.Reservation, int64, error)
	ListByCustomer(ctx context.Context, customerID uuid.UUID) ([]domain.Reservation, error)
	ArrivalsOn(ctx context.Context, day time.Time) ([]domain.Reservation, error)
	DeparturesOn(ctx context.Context, day time.Time) ([]domain.Reservation, error)
	Export(ctx context.Context, stay domain.DateRange) ([]domain.ExportRow, error)

	AddAtvPasses(ctx context.Context, reservationID uuid.UUID, holderName string, age int) ([]domain.AtvPass, domain.Reservation, error)
	IssuePass(ctx context.Context, passID uuid.UUID, wristbandNumber string) (domain.AtvPass, error)
	ListAtvPasses(ctx context.Context, reservationID uuid.UUID) ([]domain.AtvPass, error)
}

// Server holds the dependencies shared by every handler.
type Server struct {
	engine Engine
	log    *slog.Logger
}

// NewServer constructs the Server with all its dependencies.
func NewServer(engine Engine, log *slog.Logger) *Server {
	if log == nil {
		log = slog.Default()
	}
	return &Server{engine: engine, log: log}
}

// NewHealthHandler returns a Server for health-check-only use.
func NewHealthHandler() *Server {
	return NewServer(nil, nil)
}

// Routes returns the API router. main.go mounts it under "/" after the
// request ID, logging and recovery middleware.
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()
	r.Get("/healthz", s.GetHealth)
	r.Get("/openapi.yaml", s.GetOpenAPI)

	r.Route("/campsites", func(r chi.Router) {
		r.Get("/", s.ListCampsites)
		r.Post("/", s.CreateCampsite)
		r.Get("/available", s.FindAvailable)
		r.Get("/site/{number}", s.GetCampsiteBySiteNumber)
		r.Get("/{id}", s.GetCampsite)
		r.Get("/{id}/conflicts", s.CheckConflict)
		r.Put("/{id}/maintenance", s.MarkMaintenance)
		r.Put("/{id}/available", s.MarkAvailable)
	})

	r.Route("/reservations", func(r chi.Router) {
		r.Get("/", s.ListReservations)
		r.Post("/", s.Book)
		r.Post("/pending", s.AdmitBooking)
		r.Get("/confirmation/{code}", s.GetByConfirmationNumber)
		r.Get("/customer/{id}", s.ListByCustomer)
		r.Get("/checkin/today", s.ArrivalsToday)
		r.Get("/checkout/today", s.DeparturesToday)
		r.Get("/{id}", s.GetReservation)
		r.Put("/{id}/confirm", s.Confirm)
		r.Put("/{id}/checkin", s.CheckIn)
		r.Put("/{id}/checkout", s.CheckOut)
		r.Put("/{id}/cancel", s.Cancel)
		r.Post("/{id}/payments", s.RecordPayment)
		r.Get("/{id}/atv-passes", s.ListAtvPasses)
		r.Post("/{id}/atv-passes", s.AddAtvPasses)
	})

	r.Put("/atv-passes/{id}/issue", s.IssuePass)
	r.Get("/export", s.GetExport)
	return r
}

// writeJSON encodes body with the given status. Encoding errors are logged;
// the status line has already been sent by then.
func (s *Server) writeJSON(w http.ResponseWriter, r *http.Request, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		s.log.WarnContext(r.Context(), "encode response", "error", err)
	}
}

// decodeJSON reads a JSON request body into dst. Unknown fields are rejected
// so typos in field names surface as 422s instead of silently dropped input.
func decodeJSON(r *http.Request, dst any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			return errBodyTooLarge
		}
		return fmt.Errorf("%w: invalid request body: %v", domain.ErrValidation, err)
	}
	return nil
}

// pathUUID parses the named chi URL parameter as a UUID.
func pathUUID(r *http.Request, name string) (uuid.UUID, error) {
	id, err := uuid.Parse(chi.URLParam(r, name))
	if err != nil {
		return uuid.Nil, fmt.Errorf("%w: %s must be a UUID", domain.ErrValidation, name)
	}
	return id, nil
}
