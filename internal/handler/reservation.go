package handler

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/oapi-codegen/runtime"
	openapi_types "github.com/oapi-codegen/runtime/types"

	"github.com/pkordes/rv-park/backend/internal/domain"
	"github.com/pkordes/rv-park/backend/internal/service"
)

// Reservation is the JSON form of a reservation, including the derived
// balance and registration values.
type Reservation struct {
	ID                   uuid.UUID           `json:"id"`
	CustomerID           uuid.UUID           `json:"customer_id"`
	CampsiteID           uuid.UUID           `json:"campsite_id"`
	StartDate            openapi_types.Date  `json:"start_date"`
	EndDate              openapi_types.Date  `json:"end_date"`
	Nights               int                 `json:"nights"`
	Status               string              `json:"status"`
	PartyMembers         []string            `json:"party_members"`
	PartySize            int                 `json:"party_size"`
	PartyFullyRegistered bool                `json:"party_fully_registered"`
	Vehicle              *domain.VehicleInfo `json:"vehicle,omitempty"`
	CampsiteTotal        domain.Money        `json:"campsite_total"`
	AtvTotal             domain.Money        `json:"atv_total"`
	TotalAmount          domain.Money        `json:"total_amount"`
	PaidAmount           domain.Money        `json:"paid_amount"`
	BalanceDue           domain.Money        `json:"balance_due"`
	DepositDue           domain.Money        `json:"deposit_due"`
	PaidInFull           bool                `json:"paid_in_full"`
	ConfirmationNumber   string              `json:"confirmation_number,omitempty"`
	CheckInTime          *time.Time          `json:"check_in_time,omitempty"`
	CheckOutTime         *time.Time          `json:"check_out_time,omitempty"`
	LateCheckOut         bool                `json:"late_check_out"`
	Notes                string              `json:"notes,omitempty"`
	CreatedAt            time.Time           `json:"created_at"`
	UpdatedAt            time.Time           `json:"updated_at"`
}

// CustomerRequest carries the details of a customer created with a booking.
type CustomerRequest struct {
	FirstName             string `json:"first_name"`
	LastName              string `json:"last_name"`
	Email                 string `json:"email"`
	Phone                 string `json:"phone"`
	EmergencyContactName  string `json:"emergency_contact_name"`
	EmergencyContactPhone string `json:"emergency_contact_phone"`
}

// BookingRequest is the body of POST /reservations and POST /reservations/pending.
// Exactly one of customer_id and customer must be given.
type BookingRequest struct {
	CustomerID   *uuid.UUID          `json:"customer_id"`
	Customer     *CustomerRequest    `json:"customer"`
	CampsiteID   uuid.UUID           `json:"campsite_id"`
	StartDate    *openapi_types.Date `json:"start_date"`
	EndDate      *openapi_types.Date `json:"end_date"`
	PartyMembers []string            `json:"party_members"`
	PartySize    int                 `json:"party_size"`
	Vehicle      *domain.VehicleInfo `json:"vehicle"`
	Notes        string              `json:"notes"`
}

// ReservationPage is the body of GET /reservations.
type ReservationPage struct {
	Data       []Reservation `json:"data"`
	Pagination Pagination    `json:"pagination"`
}

// Pagination describes the page returned and the total number of records.
type Pagination struct {
	Page  int `json:"page"`
	Limit int `json:"limit"`
	Total int `json:"total"`
	Pages int `json:"pages"`
}

// Book handles POST /reservations: admit and confirm in one step.
func (s *Server) Book(w http.ResponseWriter, r *http.Request) {
	s.booking(w, r, s.engine.Book)
}

// AdmitBooking handles POST /reservations/pending: admit only, leaving the
// reservation PENDING until PUT /reservations/{id}/confirm.
func (s *Server) AdmitBooking(w http.ResponseWriter, r *http.Request) {
	s.booking(w, r, s.engine.AdmitBooking)
}

func (s *Server) booking(w http.ResponseWriter, r *http.Request, op func(context.Context, service.BookingRequest) (domain.Reservation, error)) {
	var body BookingRequest
	if err := decodeJSON(r, &body); err != nil {
		s.writeError(w, r, err)
		return
	}
	req, err := requestToBooking(body)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	res, err := op(r.Context(), req)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, r, http.StatusCreated, s.reservationToResponse(res))
}

// ListReservations handles GET /reservations.
// Supports ?page= and ?limit= query parameters (defaults: page=1, limit=20, max=100).
// The total is also sent in the X-Total-Count header.
func (s *Server) ListReservations(w http.ResponseWriter, r *http.Request) {
	var page, limit *int
	q := r.URL.Query()
	if err := runtime.BindQueryParameter("form", true, false, "page", q, &page); err != nil {
		s.writeError(w, r, fmt.Errorf("%w: %v", domain.ErrValidation, err))
		return
	}
	if err := runtime.BindQueryParameter("form", true, false, "limit", q, &limit); err != nil {
		s.writeError(w, r, fmt.Errorf("%w: %v", domain.ErrValidation, err))
		return
	}
	params := domain.NewPaginationParams(page, limit)

	list, total, err := s.engine.ListReservations(r.Context(), params)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	w.Header().Set("X-Total-Count", strconv.FormatInt(total, 10))
	s.writeJSON(w, r, http.StatusOK, ReservationPage{
		Data: s.reservationsToResponse(list),
		Pagination: Pagination{
			Page:  params.Page,
			Limit: params.Limit,
			Total: int(total),
			Pages: params.Pages(total),
		},
	})
}

// GetReservation handles GET /reservations/{id}.
func (s *Server) GetReservation(w http.ResponseWriter, r *http.Request) {
	s.byID(w, r, s.engine.GetReservation, http.StatusOK)
}

// GetByConfirmationNumber handles GET /reservations/confirmation/{code}.
func (s *Server) GetByConfirmationNumber(w http.ResponseWriter, r *http.Request) {
	res, err := s.engine.GetByConfirmationNumber(r.Context(), chi.URLParam(r, "code"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, r, http.StatusOK, s.reservationToResponse(res))
}

// ListByCustomer handles GET /reservations/customer/{id}.
func (s *Server) ListByCustomer(w http.ResponseWriter, r *http.Request) {
	id, err := pathUUID(r, "id")
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	list, err := s.engine.ListByCustomer(r.Context(), id)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, r, http.StatusOK, s.reservationsToResponse(list))
}

// ArrivalsToday handles GET /reservations/checkin/today.
func (s *Server) ArrivalsToday(w http.ResponseWriter, r *http.Request) {
	list, err := s.engine.ArrivalsOn(r.Context(), s.engine.Today())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, r, http.StatusOK, s.reservationsToResponse(list))
}

// DeparturesToday handles GET /reservations/checkout/today.
func (s *Server) DeparturesToday(w http.ResponseWriter, r *http.Request) {
	list, err := s.engine.DeparturesOn(r.Context(), s.engine.Today())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, r, http.StatusOK, s.reservationsToResponse(list))
}

// Confirm handles PUT /reservations/{id}/confirm.
func (s *Server) Confirm(w http.ResponseWriter, r *http.Request) {
	s.byID(w, r, s.engine.Confirm, http.StatusOK)
}

// CheckIn handles PUT /reservations/{id}/checkin.
func (s *Server) CheckIn(w http.ResponseWriter, r *http.Request) {
	s.byID(w, r, s.engine.CheckIn, http.StatusOK)
}

// CheckOut handles PUT /reservations/{id}/checkout.
func (s *Server) CheckOut(w http.ResponseWriter, r *http.Request) {
	s.byID(w, r, s.engine.CheckOut, http.StatusOK)
}

// Cancel handles PUT /reservations/{id}/cancel.
func (s *Server) Cancel(w http.ResponseWriter, r *http.Request) {
	s.byID(w, r, s.engine.Cancel, http.StatusOK)
}

// RecordPayment handles POST /reservations/{id}/payments.
// The body is a money value: {"amount":"50.00","currency":"USD"}.
func (s *Server) RecordPayment(w http.ResponseWriter, r *http.Request) {
	id, err := pathUUID(r, "id")
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	var amount domain.Money
	if err := decodeJSON(r, &amount); err != nil {
		s.writeError(w, r, err)
		return
	}
	res, err := s.engine.RecordPayment(r.Context(), id, amount)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, r, http.StatusOK, s.reservationToResponse(res))
}

// byID runs a single-reservation operation keyed by the {id} path parameter.
func (s *Server) byID(w http.ResponseWriter, r *http.Request, op func(context.Context, uuid.UUID) (domain.Reservation, error), status int) {
	id, err := pathUUID(r, "id")
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	res, err := op(r.Context(), id)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, r, status, s.reservationToResponse(res))
}

// requestToBooking converts the HTTP body into a service.BookingRequest.
// Only shape checks happen here; the engine owns the business rules.
func requestToBooking(body BookingRequest) (service.BookingRequest, error) {
	if body.StartDate == nil || body.EndDate == nil {
		return service.BookingRequest{}, fmt.Errorf("%w: start_date and end_date are required", domain.ErrValidation)
	}
	req := service.BookingRequest{
		CampsiteID:   body.CampsiteID,
		Stay:         domain.NewStay(body.StartDate.Time, body.EndDate.Time),
		PartyMembers: body.PartyMembers,
		PartySize:    body.PartySize,
		Vehicle:      body.Vehicle,
		Notes:        body.Notes,
	}
	if body.CustomerID != nil {
		req.CustomerID = *body.CustomerID
	}
	if c := body.Customer; c != nil {
		req.Customer = &domain.Customer{
			FirstName:             c.FirstName,
			LastName:              c.LastName,
			Email:                 c.Email,
			Phone:                 c.Phone,
			EmergencyContactName:  c.EmergencyContactName,
			EmergencyContactPhone: c.EmergencyContactPhone,
		}
	}
	return req, nil
}

func (s *Server) reservationToResponse(res domain.Reservation) Reservation {
	sum := s.engine.Summarize(res)
	members := res.PartyMembers
	if members == nil {
		members = []string{}
	}
	return Reservation{
		ID:                   res.ID,
		CustomerID:           res.CustomerID,
		CampsiteID:           res.CampsiteID,
		StartDate:            openapi_types.Date{Time: res.Stay.Start},
		EndDate:              openapi_types.Date{Time: res.Stay.EffectiveEnd()},
		Nights:               sum.Nights,
		Status:               string(res.Status),
		PartyMembers:         members,
		PartySize:            res.PartySize,
		PartyFullyRegistered: sum.PartyFullyRegistered,
		Vehicle:              res.Vehicle,
		CampsiteTotal:        res.CampsiteTotal,
		AtvTotal:             res.AtvTotal,
		TotalAmount:          res.TotalAmount,
		PaidAmount:           res.PaidAmount,
		BalanceDue:           sum.BalanceDue,
		DepositDue:           sum.DepositDue,
		PaidInFull:           sum.PaidInFull,
		ConfirmationNumber:   res.ConfirmationNumber,
		CheckInTime:          res.CheckInTime,
		CheckOutTime:         res.CheckOutTime,
		LateCheckOut:         sum.LateCheckOut,
		Notes:                res.Notes,
		CreatedAt:            res.CreatedAt,
		UpdatedAt:            res.UpdatedAt,
	}
}

func (s *Server) reservationsToResponse(list []domain.Reservation) []Reservation {
	out := make([]Reservation, len(list))
	for i, res := range list {
		out[i] = s.reservationToResponse(res)
	}
	return out
}
