package handler

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/oapi-codegen/runtime"
	openapi_types "github.com/oapi-codegen/runtime/types"

	"github.com/pkordes/rv-park/backend/internal/domain"
)

// Campsite is the JSON form of a campsite.
type Campsite struct {
	ID          uuid.UUID `json:"id"`
	SiteNumber  int       `json:"site_number"`
	SiteType    string    `json:"site_type"`
	Location    string    `json:"location"`
	Status      string    `json:"status"`
	Notes       string    `json:"notes,omitempty"`
	Active      bool      `json:"active"`
	DisplayName string    `json:"display_name"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// CreateCampsiteRequest is the body of POST /campsites.
type CreateCampsiteRequest struct {
	SiteNumber int    `json:"site_number"`
	SiteType   string `json:"site_type"`
	Location   string `json:"location"`
	Notes      string `json:"notes"`
}

// MaintenanceRequest is the body of PUT /campsites/{id}/maintenance.
type MaintenanceRequest struct {
	Reason string `json:"reason"`
}

// ConflictResponse is the body of GET /campsites/{id}/conflicts.
type ConflictResponse struct {
	Conflict bool `json:"conflict"`
}

// ListCampsites handles GET /campsites.
func (s *Server) ListCampsites(w http.ResponseWriter, r *http.Request) {
	sites, err := s.engine.ListCampsites(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, r, http.StatusOK, s.campsitesToResponse(sites))
}

// CreateCampsite handles POST /campsites.
func (s *Server) CreateCampsite(w http.ResponseWriter, r *http.Request) {
	var body CreateCampsiteRequest
	if err := decodeJSON(r, &body); err != nil {
		s.writeError(w, r, err)
		return
	}
	site := domain.NewCampsite(body.SiteNumber, domain.SiteType(body.SiteType), domain.Location(body.Location))
	site.Notes = body.Notes

	created, err := s.engine.CreateCampsite(r.Context(), site)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, r, http.StatusCreated, s.campsiteToResponse(created))
}

// GetCampsite handles GET /campsites/{id}.
func (s *Server) GetCampsite(w http.ResponseWriter, r *http.Request) {
	id, err := pathUUID(r, "id")
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	site, err := s.engine.GetCampsite(r.Context(), id)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, r, http.StatusOK, s.campsiteToResponse(site))
}

// GetCampsiteBySiteNumber handles GET /campsites/site/{number}.
func (s *Server) GetCampsiteBySiteNumber(w http.ResponseWriter, r *http.Request) {
	number, err := strconv.Atoi(chi.URLParam(r, "number"))
	if err != nil {
		s.writeError(w, r, fmt.Errorf("%w: site number must be an integer", domain.ErrValidation))
		return
	}
	site, err := s.engine.GetCampsiteBySiteNumber(r.Context(), number)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, r, http.StatusOK, s.campsiteToResponse(site))
}

// FindAvailable handles GET /campsites/available.
// start_date and end_date are required; site_type and location narrow the search.
func (s *Server) FindAvailable(w http.ResponseWriter, r *http.Request) {
	stay, err := stayFromQuery(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	q := r.URL.Query()
	filter := domain.CampsiteFilter{
		Type:     domain.SiteType(q.Get("site_type")),
		Location: domain.Location(q.Get("location")),
	}
	if filter.Type != "" && !filter.Type.Valid() {
		s.writeError(w, r, fmt.Errorf("%w: unknown site type %q", domain.ErrValidation, filter.Type))
		return
	}
	if filter.Location != "" && !filter.Location.Valid() {
		s.writeError(w, r, fmt.Errorf("%w: unknown location %q", domain.ErrValidation, filter.Location))
		return
	}

	sites, err := s.engine.FindAvailable(r.Context(), stay, filter)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, r, http.StatusOK, s.campsitesToResponse(sites))
}

// CheckConflict handles GET /campsites/{id}/conflicts.
// An optional exclude_id skips one reservation, for rebooking checks.
func (s *Server) CheckConflict(w http.ResponseWriter, r *http.Request) {
	id, err := pathUUID(r, "id")
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	stay, err := stayFromQuery(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	excludeID := uuid.Nil
	if raw := r.URL.Query().Get("exclude_id"); raw != "" {
		if excludeID, err = uuid.Parse(raw); err != nil {
			s.writeError(w, r, fmt.Errorf("%w: exclude_id must be a UUID", domain.ErrValidation))
			return
		}
	}

	conflict, err := s.engine.CheckConflict(r.Context(), id, stay, excludeID)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, r, http.StatusOK, ConflictResponse{Conflict: conflict})
}

// MarkMaintenance handles PUT /campsites/{id}/maintenance.
func (s *Server) MarkMaintenance(w http.ResponseWriter, r *http.Request) {
	id, err := pathUUID(r, "id")
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	var body MaintenanceRequest
	if err := decodeJSON(r, &body); err != nil {
		s.writeError(w, r, err)
		return
	}
	site, err := s.engine.MarkMaintenance(r.Context(), id, body.Reason)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, r, http.StatusOK, s.campsiteToResponse(site))
}

// MarkAvailable handles PUT /campsites/{id}/available.
func (s *Server) MarkAvailable(w http.ResponseWriter, r *http.Request) {
	id, err := pathUUID(r, "id")
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	site, err := s.engine.MarkAvailable(r.Context(), id)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, r, http.StatusOK, s.campsiteToResponse(site))
}

// stayFromQuery binds the required start_date and end_date query parameters.
func stayFromQuery(r *http.Request) (domain.DateRange, error) {
	var start, end openapi_types.Date
	q := r.URL.Query()
	if err := runtime.BindQueryParameter("form", true, true, "start_date", q, &start); err != nil {
		return domain.DateRange{}, fmt.Errorf("%w: %v", domain.ErrValidation, err)
	}
	if err := runtime.BindQueryParameter("form", true, true, "end_date", q, &end); err != nil {
		return domain.DateRange{}, fmt.Errorf("%w: %v", domain.ErrValidation, err)
	}
	stay := domain.NewStay(start.Time, end.Time)
	if err := stay.Validate(); err != nil {
		return domain.DateRange{}, err
	}
	return stay, nil
}

func (s *Server) campsiteToResponse(c domain.Campsite) Campsite {
	return Campsite{
		ID:          c.ID,
		SiteNumber:  c.SiteNumber,
		SiteType:    string(c.Type),
		Location:    string(c.Location),
		Status:      string(c.Status),
		Notes:       c.Notes,
		Active:      c.Active,
		DisplayName: c.DisplayName(s.engine.Policy().Rates),
		CreatedAt:   c.CreatedAt,
		UpdatedAt:   c.UpdatedAt,
	}
}

func (s *Server) campsitesToResponse(sites []domain.Campsite) []Campsite {
	out := make([]Campsite, len(sites))
	for i, c := range sites {
		out[i] = s.campsiteToResponse(c)
	}
	return out
}
