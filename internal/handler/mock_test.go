package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/pkordes/rv-park/backend/internal/domain"
	"github.com/pkordes/rv-park/backend/internal/handler"
	"github.com/pkordes/rv-park/backend/internal/service"
)

// mockEngine is a test double for handler.Engine.
// Set only the method fields your test needs. Policy, Today and Summarize
// fall back to fixed values when unset.
type mockEngine struct {
	today     time.Time
	summarize func(res domain.Reservation) service.Summary

	createCampsite          func(ctx context.Context, site domain.Campsite) (domain.Campsite, error)
	getCampsite             func(ctx context.Context, id uuid.UUID) (domain.Campsite, error)
	getCampsiteBySiteNumber func(ctx context.Context, number int) (domain.Campsite, error)
	listCampsites           func(ctx context.Context) ([]domain.Campsite, error)
	markMaintenance         func(ctx context.Context, id uuid.UUID, reason string) (domain.Campsite, error)
	markAvailable           func(ctx context.Context, id uuid.UUID) (domain.Campsite, error)
	findAvailable           func(ctx context.Context, stay domain.DateRange, filter domain.CampsiteFilter) ([]domain.Campsite, error)
	checkConflict           func(ctx context.Context, campsiteID uuid.UUID, stay domain.DateRange, excludeID uuid.UUID) (bool, error)

	book                    func(ctx context.Context, req service.BookingRequest) (domain.Reservation, error)
	admitBooking            func(ctx context.Context, req service.BookingRequest) (domain.Reservation, error)
	confirm                 func(ctx context.Context, id uuid.UUID) (domain.Reservation, error)
	checkIn                 func(ctx context.Context, id uuid.UUID) (domain.Reservation, error)
	checkOut                func(ctx context.Context, id uuid.UUID) (domain.Reservation, error)
	cancel                  func(ctx context.Context, id uuid.UUID) (domain.Reservation, error)
	recordPayment           func(ctx context.Context, id uuid.UUID, amount domain.Money) (domain.Reservation, error)
	getReservation          func(ctx context.Context, id uuid.UUID) (domain.Reservation, error)
	getByConfirmationNumber func(ctx context.Context, code string) (domain.Reservation, error)
	listReservations        func(ctx context.Context, p domain.PaginationParams) ([]domain.Reservation, int64, error)
	listByCustomer          func(ctx context.Context, customerID uuid.UUID) ([]domain.Reservation, error)
	arrivalsOn              func(ctx context.Context, day time.Time) ([]domain.Reservation, error)
	departuresOn            func(ctx context.Context, day time.Time) ([]domain.Reservation, error)
	export                  func(ctx context.Context, stay domain.DateRange) ([]domain.ExportRow, error)

	addAtvPasses  func(ctx context.Context, reservationID uuid.UUID, holderName string, age int) ([]domain.AtvPass, domain.Reservation, error)
	issuePass     func(ctx context.Context, passID uuid.UUID, wristbandNumber string) (domain.AtvPass, error)
	listAtvPasses func(ctx context.Context, reservationID uuid.UUID) ([]domain.AtvPass, error)
}

// compile-time check: mockEngine must satisfy handler.Engine.
var _ handler.Engine = (*mockEngine)(nil)

func (m *mockEngine) Policy() domain.Policy { return domain.DefaultPolicy() }

func (m *mockEngine) Today() time.Time {
	if m.today.IsZero() {
		return domain.NewDate(2025, time.June, 1)
	}
	return m.today
}

func (m *mockEngine) Summarize(res domain.Reservation) service.Summary {
	if m.summarize != nil {
		return m.summarize(res)
	}
	return service.Summary{Nights: res.Stay.Nights(), BalanceDue: res.OutstandingBalance().ClampZero()}
}

func (m *mockEngine) CreateCampsite(ctx context.Context, site domain.Campsite) (domain.Campsite, error) {
	return m.createCampsite(ctx, site)
}
func (m *mockEngine) GetCampsite(ctx context.Context, id uuid.UUID) (domain.Campsite, error) {
	return m.getCampsite(ctx, id)
}
func (m *mockEngine) GetCampsiteBySiteNumber(ctx context.Context, number int) (domain.Campsite, error) {
	return m.getCampsiteBySiteNumber(ctx, number)
}
func (m *mockEngine) ListCampsites(ctx context.Context) ([]domain.Campsite, error) {
	return m.listCampsites(ctx)
}
func (m *mockEngine) MarkMaintenance(ctx context.Context, id uuid.UUID, reason string) (domain.Campsite, error) {
	return m.markMaintenance(ctx, id, reason)
}
func (m *mockEngine) MarkAvailable(ctx context.Context, id uuid.UUID) (domain.Campsite, error) {
	return m.markAvailable(ctx, id)
}
func (m *mockEngine) FindAvailable(ctx context.Context, stay domain.DateRange, filter domain.CampsiteFilter) ([]domain.Campsite, error) {
	return m.findAvailable(ctx, stay, filter)
}
func (m *mockEngine) CheckConflict(ctx context.Context, campsiteID uuid.UUID, stay domain.DateRange, excludeID uuid.UUID) (bool, error) {
	return m.checkConflict(ctx, campsiteID, stay, excludeID)
}
func (m *mockEngine) Book(ctx context.Context, req service.BookingRequest) (domain.Reservation, error) {
	return m.book(ctx, req)
}
func (m *mockEngine) AdmitBooking(ctx context.Context, req service.BookingRequest) (domain.Reservation, error) {
	return m.admitBooking(ctx, req)
}
func (m *mockEngine) Confirm(ctx context.Context, id uuid.UUID) (domain.Reservation, error) {
	return m.confirm(ctx, id)
}
func (m *mockEngine) CheckIn(ctx context.Context, id uuid.UUID) (domain.Reservation, error) {
	return m.checkIn(ctx, id)
}
func (m *mockEngine) CheckOut(ctx context.Context, id uuid.UUID) (domain.Reservation, error) {
	return m.checkOut(ctx, id)
}
func (m *mockEngine) Cancel(ctx context.Context, id uuid.UUID) (domain.Reservation, error) {
	return m.cancel(ctx, id)
}
func (m *mockEngine) RecordPayment(ctx context.Context, id uuid.UUID, amount domain.Money) (domain.Reservation, error) {
	return m.recordPayment(ctx, id, amount)
}
func (m *mockEngine) GetReservation(ctx context.Context, id uuid.UUID) (domain.Reservation, error) {
	return m.getReservation(ctx, id)
}
func (m *mockEngine) GetByConfirmationNumber(ctx context.Context, code string) (domain.Reservation, error) {
	return m.getByConfirmationNumber(ctx, code)
}
func (m *mockEngine) ListReservations(ctx context.Context, p domain.PaginationParams) ([]domain.Reservation, int64, error) {
	return m.listReservations(ctx, p)
}
func (m *mockEngine) ListByCustomer(ctx context.Context, customerID uuid.UUID) ([]domain.Reservation, error) {
	return m.listByCustomer(ctx, customerID)
}
func (m *mockEngine) ArrivalsOn(ctx context.Context, day time.Time) ([]domain.Reservation, error) {
	return m.arrivalsOn(ctx, day)
}
func (m *mockEngine) DeparturesOn(ctx context.Context, day time.Time) ([]domain.Reservation, error) {
	return m.departuresOn(ctx, day)
}
func (m *mockEngine) Export(ctx context.Context, stay domain.DateRange) ([]domain.ExportRow, error) {
	return m.export(ctx, stay)
}
func (m *mockEngine) AddAtvPasses(ctx context.Context, reservationID uuid.UUID, holderName string, age int) ([]domain.AtvPass, domain.Reservation, error) {
	return m.addAtvPasses(ctx, reservationID, holderName, age)
}
func (m *mockEngine) IssuePass(ctx context.Context, passID uuid.UUID, wristbandNumber string) (domain.AtvPass, error) {
	return m.issuePass(ctx, passID, wristbandNumber)
}
func (m *mockEngine) ListAtvPasses(ctx context.Context, reservationID uuid.UUID) ([]domain.AtvPass, error) {
	return m.listAtvPasses(ctx, reservationID)
}

// ---- helpers ---------------------------------------------------------------

// newHTTPHandler wires a Server with the given mock into the router.
// This mirrors exactly how main.go wires it in production.
func newHTTPHandler(engine handler.Engine) http.Handler {
	return handler.NewServer(engine, nil).Routes()
}

func jsonBody(t *testing.T, v any) *bytes.Buffer {
	t.Helper()
	b, err := json.Marshal(v)
	require.NoError(t, err)
	return bytes.NewBuffer(b)
}

func decodeError(t *testing.T, body *bytes.Buffer) handler.ErrorResponse {
	t.Helper()
	var resp handler.ErrorResponse
	require.NoError(t, json.NewDecoder(body).Decode(&resp))
	return resp
}

func campsiteFixture() domain.Campsite {
	c := domain.NewCampsite(101, domain.SiteFullHookup, domain.LocationLake)
	c.ID = uuid.New()
	c.CreatedAt = time.Now().UTC()
	c.UpdatedAt = c.CreatedAt
	return c
}

func reservationFixture() domain.Reservation {
	return domain.Reservation{
		ID:            uuid.New(),
		CustomerID:    uuid.New(),
		CampsiteID:    uuid.New(),
		Stay:          domain.NewStay(domain.NewDate(2025, time.June, 1), domain.NewDate(2025, time.June, 4)),
		Status:        domain.StatusConfirmed,
		PartyMembers:  []string{"Ann", "Bob"},
		PartySize:     2,
		CampsiteTotal: domain.MoneyOf(120),
		AtvTotal:      domain.MoneyOf(0),
		TotalAmount:   domain.MoneyOf(120),
		PaidAmount:    domain.MoneyOf(0),
		Active:        true,
		CreatedAt:     time.Now().UTC(),
		UpdatedAt:     time.Now().UTC(),
	}
}
