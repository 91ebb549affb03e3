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

func TestAddAtvPasses_201(t *testing.T) {
	res := reservationFixture()
	passes, err := domain.GeneratePasses(res, "Kim", 16, domain.DefaultAtvRates())
	require.NoError(t, err)
	require.NoError(t, res.AddAtvCharges(passes))

	engine := &mockEngine{
		addAtvPasses: func(_ context.Context, id uuid.UUID, holder string, age int) ([]domain.AtvPass, domain.Reservation, error) {
			assert.Equal(t, res.ID, id)
			assert.Equal(t, "Kim", holder)
			assert.Equal(t, 16, age)
			return passes, res, nil
		},
	}

	req := httptest.NewRequest(http.MethodPost, "/reservations/"+res.ID.String()+"/atv-passes",
		jsonBody(t, map[string]any{"holder_name": "Kim", "age": 16}))
	rec := httptest.NewRecorder()

	newHTTPHandler(engine).ServeHTTP(rec, req)

	require.Equal(t, http.StatusCreated, rec.Code)
	var resp handler.AddAtvPassesResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Len(t, resp.Passes, len(passes))
	assert.Equal(t, "2025-06-01", resp.Passes[0].PassDate.String())
	assert.Equal(t, "10.00", resp.Passes[0].DailyRate.Amount().StringFixed(2))
	assert.True(t, resp.Reservation.AtvTotal.IsPositive())
}

func TestAddAtvPasses_422_NoHolder(t *testing.T) {
	engine := &mockEngine{
		addAtvPasses: func(_ context.Context, _ uuid.UUID, _ string, _ int) ([]domain.AtvPass, domain.Reservation, error) {
			return nil, domain.Reservation{}, fmt.Errorf("%w: holder name is required", domain.ErrValidation)
		},
	}

	req := httptest.NewRequest(http.MethodPost, "/reservations/"+uuid.NewString()+"/atv-passes",
		jsonBody(t, map[string]any{"age": 30}))
	rec := httptest.NewRecorder()

	newHTTPHandler(engine).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}

func TestListAtvPasses_200_Empty(t *testing.T) {
	engine := &mockEngine{
		listAtvPasses: func(_ context.Context, _ uuid.UUID) ([]domain.AtvPass, error) {
			return []domain.AtvPass{}, nil
		},
	}

	req := httptest.NewRequest(http.MethodGet, "/reservations/"+uuid.NewString()+"/atv-passes", nil)
	rec := httptest.NewRecorder()

	newHTTPHandler(engine).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, "[]", rec.Body.String())
}

func TestIssuePass_200(t *testing.T) {
	pass := domain.AtvPass{
		ID:            uuid.New(),
		ReservationID: uuid.New(),
		HolderName:    "Kim",
		Age:           30,
		PassDate:      domain.NewDate(2025, time.June, 2),
		DailyRate:     domain.MoneyOf(20),
	}
	engine := &mockEngine{
		issuePass: func(_ context.Context, id uuid.UUID, band string) (domain.AtvPass, error) {
			p := pass
			require.NoError(t, p.Issue(band))
			return p, nil
		},
	}

	req := httptest.NewRequest(http.MethodPut, "/atv-passes/"+pass.ID.String()+"/issue",
		jsonBody(t, map[string]any{"wristband_number": "WB-0042"}))
	rec := httptest.NewRecorder()

	newHTTPHandler(engine).ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var resp handler.AtvPass
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.True(t, resp.Issued)
	assert.Equal(t, "WB-0042", resp.WristbandNumber)
}

func TestIssuePass_409_AlreadyIssued(t *testing.T) {
	engine := &mockEngine{
		issuePass: func(_ context.Context, _ uuid.UUID, _ string) (domain.AtvPass, error) {
			return domain.AtvPass{}, fmt.Errorf("service.Engine.IssuePass: %w", domain.ErrAlreadyIssued)
		},
	}

	req := httptest.NewRequest(http.MethodPut, "/atv-passes/"+uuid.NewString()+"/issue",
		jsonBody(t, map[string]any{"wristband_number": "WB-1"}))
	rec := httptest.NewRecorder()

	newHTTPHandler(engine).ServeHTTP(rec, req)

	require.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "already_issued", decodeError(t, rec.Body).Error.Code)
}
