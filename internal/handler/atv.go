package handler

import (
	"net/http"
	"time"

	"github.com/google/uuid"
	openapi_types "github.com/oapi-codegen/runtime/types"

	"github.com/pkordes/rv-park/backend/internal/domain"
)

// AtvPass is the JSON form of one day of ATV access.
type AtvPass struct {
	ID              uuid.UUID          `json:"id"`
	ReservationID   uuid.UUID          `json:"reservation_id"`
	HolderName      string             `json:"holder_name"`
	Age             int                `json:"age"`
	PassDate        openapi_types.Date `json:"pass_date"`
	DailyRate       domain.Money       `json:"daily_rate"`
	Issued          bool               `json:"issued"`
	WristbandNumber string             `json:"wristband_number,omitempty"`
	CreatedAt       time.Time          `json:"created_at"`
}

// AddAtvPassesRequest is the body of POST /reservations/{id}/atv-passes.
type AddAtvPassesRequest struct {
	HolderName string `json:"holder_name"`
	Age        int    `json:"age"`
}

// AddAtvPassesResponse returns the new passes with the repriced reservation.
type AddAtvPassesResponse struct {
	Passes      []AtvPass   `json:"passes"`
	Reservation Reservation `json:"reservation"`
}

// IssuePassRequest is the body of PUT /atv-passes/{id}/issue.
type IssuePassRequest struct {
	WristbandNumber string `json:"wristband_number"`
}

// AddAtvPasses handles POST /reservations/{id}/atv-passes.
func (s *Server) AddAtvPasses(w http.ResponseWriter, r *http.Request) {
	id, err := pathUUID(r, "id")
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	var body AddAtvPassesRequest
	if err := decodeJSON(r, &body); err != nil {
		s.writeError(w, r, err)
		return
	}
	passes, res, err := s.engine.AddAtvPasses(r.Context(), id, body.HolderName, body.Age)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, r, http.StatusCreated, AddAtvPassesResponse{
		Passes:      passesToResponse(passes),
		Reservation: s.reservationToResponse(res),
	})
}

// ListAtvPasses handles GET /reservations/{id}/atv-passes.
func (s *Server) ListAtvPasses(w http.ResponseWriter, r *http.Request) {
	id, err := pathUUID(r, "id")
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	passes, err := s.engine.ListAtvPasses(r.Context(), id)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, r, http.StatusOK, passesToResponse(passes))
}

// IssuePass handles PUT /atv-passes/{id}/issue.
func (s *Server) IssuePass(w http.ResponseWriter, r *http.Request) {
	id, err := pathUUID(r, "id")
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	var body IssuePassRequest
	if err := decodeJSON(r, &body); err != nil {
		s.writeError(w, r, err)
		return
	}
	pass, err := s.engine.IssuePass(r.Context(), id, body.WristbandNumber)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, r, http.StatusOK, passToResponse(pass))
}

func passToResponse(p domain.AtvPass) AtvPass {
	return AtvPass{
		ID:              p.ID,
		ReservationID:   p.ReservationID,
		HolderName:      p.HolderName,
		Age:             p.Age,
		PassDate:        openapi_types.Date{Time: p.PassDate},
		DailyRate:       p.DailyRate,
		Issued:          p.Issued,
		WristbandNumber: p.WristbandNumber,
		CreatedAt:       p.CreatedAt,
	}
}

func passesToResponse(passes []domain.AtvPass) []AtvPass {
	out := make([]AtvPass, len(passes))
	for i, p := range passes {
		out[i] = passToResponse(p)
	}
	return out
}
