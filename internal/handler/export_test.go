package handler_test

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pkordes/rv-park/backend/internal/domain"
	"github.com/pkordes/rv-park/backend/internal/handler"
)

func exportFixture() []domain.ExportRow {
	return []domain.ExportRow{{
		ReservationID:      "5b0c7d56-3d8c-4a38-9b5e-0f5f3b7a1c11",
		ConfirmationNumber: "ABC123XYZ890",
		Status:             domain.StatusConfirmed,
		StartDate:          domain.NewDate(2025, time.June, 1),
		EndDate:            domain.NewDate(2025, time.June, 4),
		Nights:             3,
		PartySize:          2,
		SiteNumber:         101,
		SiteType:           domain.SiteFullHookup,
		Location:           domain.LocationLake,
		CustomerName:       "Ann Lee",
		CustomerContact:    "ann@example.com",
		TotalAmount:        domain.MoneyOf(120),
		PaidAmount:         domain.MoneyOf(30),
		BalanceDue:         domain.MoneyOf(90),
	}}
}

func TestGetExport_JSON(t *testing.T) {
	engine := &mockEngine{
		export: func(_ context.Context, stay domain.DateRange) ([]domain.ExportRow, error) {
			assert.Equal(t, 3, stay.Nights())
			return exportFixture(), nil
		},
	}

	req := httptest.NewRequest(http.MethodGet, "/export?start_date=2025-06-01&end_date=2025-06-04", nil)
	rec := httptest.NewRecorder()

	newHTTPHandler(engine).ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var resp []handler.ExportRow
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	require.Len(t, resp, 1)
	assert.Equal(t, 101, resp[0].SiteNumber)
	assert.Equal(t, "2025-06-01", resp[0].StartDate.String())
	assert.Equal(t, "90.00", resp[0].BalanceDue.Amount().StringFixed(2))
}

func TestGetExport_CSV(t *testing.T) {
	engine := &mockEngine{
		export: func(_ context.Context, _ domain.DateRange) ([]domain.ExportRow, error) {
			return exportFixture(), nil
		},
	}

	req := httptest.NewRequest(http.MethodGet, "/export?start_date=2025-06-01&end_date=2025-06-04&format=csv", nil)
	rec := httptest.NewRecorder()

	newHTTPHandler(engine).ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/csv", rec.Header().Get("Content-Type"))

	records, err := csv.NewReader(rec.Body).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 2, "header plus one row")
	assert.Equal(t, "reservation_id", records[0][0])
	assert.Equal(t, []string{
		"5b0c7d56-3d8c-4a38-9b5e-0f5f3b7a1c11", "ABC123XYZ890", "CONFIRMED", "2025-06-01", "2025-06-04",
		"3", "2", "101", "FULL_HOOKUP", "LAKE", "Ann Lee", "ann@example.com", "USD", "120.00", "30.00", "90.00",
	}, records[1])
}

func TestGetExport_422_BadFormat(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/export?start_date=2025-06-01&end_date=2025-06-04&format=xml", nil)
	rec := httptest.NewRecorder()

	newHTTPHandler(&mockEngine{}).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}
