package handler_test

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pkordes/rv-park/backend/internal/domain"
	"github.com/pkordes/rv-park/backend/internal/handler"
)

// ---- POST /campsites -------------------------------------------------------

func TestCreateCampsite_201(t *testing.T) {
	fixture := campsiteFixture()
	var got domain.Campsite
	engine := &mockEngine{
		createCampsite: func(_ context.Context, site domain.Campsite) (domain.Campsite, error) {
			got = site
			return fixture, nil
		},
	}

	body := jsonBody(t, map[string]any{
		"site_number": 101,
		"site_type":   "FULL_HOOKUP",
		"location":    "LAKE",
	})
	req := httptest.NewRequest(http.MethodPost, "/campsites", body)
	rec := httptest.NewRecorder()

	newHTTPHandler(engine).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, 101, got.SiteNumber)
	assert.Equal(t, domain.CampsiteAvailable, got.Status)
	assert.True(t, got.Active)

	var resp handler.Campsite
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, fixture.ID, resp.ID)
	assert.Equal(t, "Site 101 (Full RV Hookup (Water/Electric))", resp.DisplayName)
}

func TestCreateCampsite_422_UnknownField(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/campsites", jsonBody(t, map[string]any{"site_nmber": 3}))
	rec := httptest.NewRecorder()

	newHTTPHandler(&mockEngine{}).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Equal(t, "validation_error", decodeError(t, rec.Body).Error.Code)
}

func TestCreateCampsite_422_ValidationMessage(t *testing.T) {
	engine := &mockEngine{
		createCampsite: func(_ context.Context, _ domain.Campsite) (domain.Campsite, error) {
			return domain.Campsite{}, fmt.Errorf("service.Engine.CreateCampsite: %w",
				fmt.Errorf("%w: site number must be between 1 and 200", domain.ErrValidation))
		},
	}
	body := jsonBody(t, map[string]any{"site_number": 0, "site_type": "TENT", "location": "WOODS"})
	req := httptest.NewRequest(http.MethodPost, "/campsites", body)
	rec := httptest.NewRecorder()

	newHTTPHandler(engine).ServeHTTP(rec, req)

	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Equal(t, "site number must be between 1 and 200", decodeError(t, rec.Body).Error.Message)
}

// ---- GET /campsites --------------------------------------------------------

func TestListCampsites_200_Empty(t *testing.T) {
	engine := &mockEngine{
		listCampsites: func(_ context.Context) ([]domain.Campsite, error) { return []domain.Campsite{}, nil },
	}

	req := httptest.NewRequest(http.MethodGet, "/campsites", nil)
	rec := httptest.NewRecorder()

	newHTTPHandler(engine).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	// Must be a JSON array, not null.
	assert.JSONEq(t, "[]", rec.Body.String())
}

func TestListCampsites_500_HidesInternalError(t *testing.T) {
	engine := &mockEngine{
		listCampsites: func(_ context.Context) ([]domain.Campsite, error) {
			return nil, fmt.Errorf("repo.CampsiteRepo.List: connection refused")
		},
	}

	req := httptest.NewRequest(http.MethodGet, "/campsites", nil)
	rec := httptest.NewRecorder()

	newHTTPHandler(engine).ServeHTTP(rec, req)

	require.Equal(t, http.StatusInternalServerError, rec.Code)
	resp := decodeError(t, rec.Body)
	assert.Equal(t, "internal_error", resp.Error.Code)
	assert.NotContains(t, resp.Error.Message, "connection refused")
}

// ---- GET /campsites/{id} ---------------------------------------------------

func TestGetCampsite_200(t *testing.T) {
	fixture := campsiteFixture()
	engine := &mockEngine{
		getCampsite: func(_ context.Context, id uuid.UUID) (domain.Campsite, error) {
			assert.Equal(t, fixture.ID, id)
			return fixture, nil
		},
	}

	req := httptest.NewRequest(http.MethodGet, "/campsites/"+fixture.ID.String(), nil)
	rec := httptest.NewRecorder()

	newHTTPHandler(engine).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	var resp handler.Campsite
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, "LAKE", resp.Location)
}

func TestGetCampsite_404(t *testing.T) {
	engine := &mockEngine{
		getCampsite: func(_ context.Context, _ uuid.UUID) (domain.Campsite, error) {
			return domain.Campsite{}, domain.ErrNotFound
		},
	}

	req := httptest.NewRequest(http.MethodGet, "/campsites/"+uuid.NewString(), nil)
	rec := httptest.NewRecorder()

	newHTTPHandler(engine).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "not_found", decodeError(t, rec.Body).Error.Code)
}

func TestGetCampsite_422_BadUUID(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/campsites/not-a-uuid", nil)
	rec := httptest.NewRecorder()

	newHTTPHandler(&mockEngine{}).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}

func TestGetCampsiteBySiteNumber_200(t *testing.T) {
	fixture := campsiteFixture()
	engine := &mockEngine{
		getCampsiteBySiteNumber: func(_ context.Context, number int) (domain.Campsite, error) {
			assert.Equal(t, 101, number)
			return fixture, nil
		},
	}

	req := httptest.NewRequest(http.MethodGet, "/campsites/site/101", nil)
	rec := httptest.NewRecorder()

	newHTTPHandler(engine).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
}

// ---- GET /campsites/available ----------------------------------------------

func TestFindAvailable_200_PassesStayAndFilter(t *testing.T) {
	var (
		gotStay   domain.DateRange
		gotFilter domain.CampsiteFilter
	)
	engine := &mockEngine{
		findAvailable: func(_ context.Context, stay domain.DateRange, filter domain.CampsiteFilter) ([]domain.Campsite, error) {
			gotStay, gotFilter = stay, filter
			return []domain.Campsite{campsiteFixture()}, nil
		},
	}

	req := httptest.NewRequest(http.MethodGet,
		"/campsites/available?start_date=2025-06-01&end_date=2025-06-04&site_type=FULL_HOOKUP&location=LAKE", nil)
	rec := httptest.NewRecorder()

	newHTTPHandler(engine).ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, gotStay.Start.Equal(domain.NewDate(2025, time.June, 1)))
	assert.True(t, gotStay.EffectiveEnd().Equal(domain.NewDate(2025, time.June, 4)))
	assert.Equal(t, domain.SiteFullHookup, gotFilter.Type)
	assert.Equal(t, domain.LocationLake, gotFilter.Location)

	var resp []handler.Campsite
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Len(t, resp, 1)
}

func TestFindAvailable_422(t *testing.T) {
	tests := []struct {
		name  string
		query string
	}{
		{"missing end date", "start_date=2025-06-01"},
		{"malformed date", "start_date=06/01/2025&end_date=2025-06-04"},
		{"end before start", "start_date=2025-06-04&end_date=2025-06-01"},
		{"unknown site type", "start_date=2025-06-01&end_date=2025-06-04&site_type=YURT"},
		{"unknown location", "start_date=2025-06-01&end_date=2025-06-04&location=MOON"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/campsites/available?"+tc.query, nil)
			rec := httptest.NewRecorder()

			newHTTPHandler(&mockEngine{}).ServeHTTP(rec, req)

			assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
		})
	}
}

// ---- GET /campsites/{id}/conflicts -----------------------------------------

func TestCheckConflict_200(t *testing.T) {
	site := uuid.New()
	exclude := uuid.New()
	engine := &mockEngine{
		checkConflict: func(_ context.Context, campsiteID uuid.UUID, _ domain.DateRange, excludeID uuid.UUID) (bool, error) {
			assert.Equal(t, site, campsiteID)
			assert.Equal(t, exclude, excludeID)
			return true, nil
		},
	}

	req := httptest.NewRequest(http.MethodGet, fmt.Sprintf(
		"/campsites/%s/conflicts?start_date=2025-06-01&end_date=2025-06-04&exclude_id=%s", site, exclude), nil)
	rec := httptest.NewRecorder()

	newHTTPHandler(engine).ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"conflict":true}`, rec.Body.String())
}

// ---- PUT /campsites/{id}/maintenance|available -----------------------------

func TestMarkMaintenance_200(t *testing.T) {
	fixture := campsiteFixture()
	engine := &mockEngine{
		markMaintenance: func(_ context.Context, _ uuid.UUID, reason string) (domain.Campsite, error) {
			c := fixture
			c.MarkMaintenance(reason)
			return c, nil
		},
	}

	req := httptest.NewRequest(http.MethodPut, "/campsites/"+fixture.ID.String()+"/maintenance",
		jsonBody(t, map[string]any{"reason": "broken water line"}))
	rec := httptest.NewRecorder()

	newHTTPHandler(engine).ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var resp handler.Campsite
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, "MAINTENANCE", resp.Status)
	assert.Equal(t, "broken water line", resp.Notes)
}

func TestMarkAvailable_404(t *testing.T) {
	engine := &mockEngine{
		markAvailable: func(_ context.Context, _ uuid.UUID) (domain.Campsite, error) {
			return domain.Campsite{}, fmt.Errorf("service.Engine.MarkAvailable: %w", domain.ErrNotFound)
		},
	}

	req := httptest.NewRequest(http.MethodPut, "/campsites/"+uuid.NewString()+"/available", nil)
	rec := httptest.NewRecorder()

	newHTTPHandler(engine).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}
