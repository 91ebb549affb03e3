package repo_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pkordes/rv-park/backend/internal/domain"
	"github.com/pkordes/rv-park/backend/internal/repo"
)

func day(d int) time.Time { return domain.NewDate(2024, time.June, d) }

// seedSite creates a campsite through the autocommit repos.
func seedSite(t *testing.T, s repo.Store, number int) domain.Campsite {
	t.Helper()
	site, err := s.Repos().Campsites.Create(context.Background(),
		domain.NewCampsite(number, domain.SiteFullHookup, domain.LocationLake))
	require.NoError(t, err)
	return site
}

// reservationFixture returns an unsaved reservation on site in the given status.
func reservationFixture(t *testing.T, site domain.Campsite, from, to int, status domain.ReservationStatus, code string) domain.Reservation {
	t.Helper()
	res, err := domain.NewReservation(uuid.New(), site, domain.DefaultRateTable()[site.Type],
		domain.NewStay(day(from), day(to)), []string{"Ann"}, 2)
	require.NoError(t, err)
	res.Status = status
	res.ConfirmationNumber = code
	return res
}

func TestMemoryStore_CampsiteSiteNumberUnique(t *testing.T) {
	s := repo.NewMemoryStore()
	seedSite(t, s, 101)

	_, err := s.Repos().Campsites.Create(context.Background(),
		domain.NewCampsite(101, domain.SiteTent, domain.LocationWoods))

	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestMemoryStore_GetNotFound(t *testing.T) {
	s := repo.NewMemoryStore()
	ctx := context.Background()

	_, err := s.Repos().Campsites.GetByID(ctx, uuid.New())
	assert.ErrorIs(t, err, domain.ErrNotFound)
	_, err = s.Repos().Reservations.GetByConfirmationNumber(ctx, "NOPE")
	assert.ErrorIs(t, err, domain.ErrNotFound)
	_, err = s.Repos().AtvPasses.GetByID(ctx, uuid.New())
	assert.ErrorIs(t, err, domain.ErrNotFound)
	_, err = s.Repos().Customers.GetByID(ctx, uuid.New())
	assert.ErrorIs(t, err, domain.ErrNotFound)
	_, err = s.Repos().Campsites.Update(ctx, domain.Campsite{ID: uuid.New()})
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestMemoryStore_InTxRollsBackOnError(t *testing.T) {
	s := repo.NewMemoryStore()
	site := seedSite(t, s, 101)
	ctx := context.Background()
	boom := errors.New("boom")

	err := s.InTx(ctx, func(r repo.Repos) error {
		site.MarkMaintenance("flooded")
		if _, err := r.Campsites.Update(ctx, site); err != nil {
			return err
		}
		if _, err := r.Reservations.Create(ctx, reservationFixture(t, site, 1, 3, domain.StatusPending, "")); err != nil {
			return err
		}
		return boom
	})

	require.ErrorIs(t, err, boom)
	got, err := s.Repos().Campsites.GetByID(ctx, site.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.CampsiteAvailable, got.Status)
	list, total, err := s.Repos().Reservations.List(ctx, domain.NewPaginationParams(nil, nil))
	require.NoError(t, err)
	assert.Empty(t, list)
	assert.Zero(t, total)
}

func TestMemoryStore_InTxWritesInvisibleUntilCommit(t *testing.T) {
	s := repo.NewMemoryStore()
	site := seedSite(t, s, 101)
	ctx := context.Background()

	err := s.InTx(ctx, func(r repo.Repos) error {
		site.MarkOccupied()
		_, err := r.Campsites.Update(ctx, site)
		require.NoError(t, err)

		inside, err := r.Campsites.GetByID(ctx, site.ID)
		require.NoError(t, err)
		assert.Equal(t, domain.CampsiteOccupied, inside.Status, "tx sees its own writes")

		outside, err := s.Repos().Campsites.GetByID(ctx, site.ID)
		require.NoError(t, err)
		assert.Equal(t, domain.CampsiteAvailable, outside.Status, "others do not")
		return nil
	})
	require.NoError(t, err)

	after, err := s.Repos().Campsites.GetByID(ctx, site.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.CampsiteOccupied, after.Status)
}

func TestMemoryStore_CommitRejectsDoubleBooking(t *testing.T) {
	s := repo.NewMemoryStore()
	site := seedSite(t, s, 101)
	ctx := context.Background()

	// Both transactions read before either commits.
	first := reservationFixture(t, site, 1, 3, domain.StatusConfirmed, "AAAAAAAAAAAA")
	second := reservationFixture(t, site, 2, 4, domain.StatusConfirmed, "BBBBBBBBBBBB")

	err := s.InTx(ctx, func(outer repo.Repos) error {
		_, err := outer.Reservations.Create(ctx, first)
		require.NoError(t, err)

		inner := s.InTx(ctx, func(r repo.Repos) error {
			_, err := r.Reservations.Create(ctx, second)
			return err
		})
		require.NoError(t, inner, "inner commits first")
		return nil
	})

	require.ErrorIs(t, err, domain.ErrResourceUnavailable)
	active, err := s.Repos().Reservations.FindActiveOverlapping(ctx, site.ID, domain.NewStay(day(1), day(30)), uuid.Nil)
	require.NoError(t, err)
	require.Len(t, active, 1)
	assert.Equal(t, "BBBBBBBBBBBB", active[0].ConfirmationNumber)
}

func TestMemoryStore_DuplicateConfirmationNumber(t *testing.T) {
	s := repo.NewMemoryStore()
	a := seedSite(t, s, 101)
	b := seedSite(t, s, 102)
	ctx := context.Background()

	_, err := s.Repos().Reservations.Create(ctx, reservationFixture(t, a, 1, 3, domain.StatusConfirmed, "ABC123XYZ890"))
	require.NoError(t, err)

	pending, err := s.Repos().Reservations.Create(ctx, reservationFixture(t, b, 1, 3, domain.StatusPending, ""))
	require.NoError(t, err)
	pending.Status = domain.StatusConfirmed
	pending.ConfirmationNumber = "ABC123XYZ890"

	_, err = s.Repos().Reservations.Update(ctx, pending)

	assert.ErrorIs(t, err, domain.ErrDuplicateConfirmation)
}

func TestMemoryStore_PendingReservationsDoNotBlock(t *testing.T) {
	s := repo.NewMemoryStore()
	site := seedSite(t, s, 101)
	ctx := context.Background()

	_, err := s.Repos().Reservations.Create(ctx, reservationFixture(t, site, 1, 3, domain.StatusPending, ""))
	require.NoError(t, err)
	_, err = s.Repos().Reservations.Create(ctx, reservationFixture(t, site, 2, 4, domain.StatusPending, ""))
	require.NoError(t, err)

	free, err := s.Repos().Campsites.FindAvailable(ctx, domain.NewStay(day(1), day(3)), domain.CampsiteFilter{})
	require.NoError(t, err)
	require.Len(t, free, 1)
	assert.Equal(t, site.ID, free[0].ID)
}

func TestMemoryStore_FindAvailable(t *testing.T) {
	s := repo.NewMemoryStore()
	ctx := context.Background()
	booked := seedSite(t, s, 101)
	free := seedSite(t, s, 102)
	broken := seedSite(t, s, 103)
	tent, err := s.Repos().Campsites.Create(ctx, domain.NewCampsite(104, domain.SiteTent, domain.LocationWoods))
	require.NoError(t, err)

	broken.MarkMaintenance("no power")
	_, err = s.Repos().Campsites.Update(ctx, broken)
	require.NoError(t, err)
	_, err = s.Repos().Reservations.Create(ctx, reservationFixture(t, booked, 1, 3, domain.StatusConfirmed, "AAAAAAAAAAAA"))
	require.NoError(t, err)

	got, err := s.Repos().Campsites.FindAvailable(ctx, domain.NewStay(day(3), day(5)), domain.CampsiteFilter{})
	require.NoError(t, err)
	assert.Equal(t, []uuid.UUID{free.ID, tent.ID}, ids(got), "touching end date still conflicts")

	got, err = s.Repos().Campsites.FindAvailable(ctx, domain.NewStay(day(4), day(5)), domain.CampsiteFilter{Type: domain.SiteFullHookup})
	require.NoError(t, err)
	assert.Equal(t, []uuid.UUID{booked.ID, free.ID}, ids(got))
}

func TestMemoryStore_ReservationLookups(t *testing.T) {
	s := repo.NewMemoryStore()
	ctx := context.Background()
	site := seedSite(t, s, 101)
	other := seedSite(t, s, 102)

	arriving := reservationFixture(t, site, 1, 3, domain.StatusConfirmed, "AAAAAAAAAAAA")
	arriving, err := s.Repos().Reservations.Create(ctx, arriving)
	require.NoError(t, err)

	leaving := reservationFixture(t, other, 28, 30, domain.StatusCheckedIn, "BBBBBBBBBBBB")
	leaving.Stay = domain.NewStay(domain.NewDate(2024, time.May, 29), day(1))
	leaving, err = s.Repos().Reservations.Create(ctx, leaving)
	require.NoError(t, err)

	in, err := s.Repos().Reservations.ListCheckingInOn(ctx, day(1))
	require.NoError(t, err)
	require.Len(t, in, 1)
	assert.Equal(t, arriving.ID, in[0].ID)

	out, err := s.Repos().Reservations.ListCheckingOutOn(ctx, day(1))
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, leaving.ID, out[0].ID)

	byCode, err := s.Repos().Reservations.GetByConfirmationNumber(ctx, "AAAAAAAAAAAA")
	require.NoError(t, err)
	assert.Equal(t, arriving.ID, byCode.ID)

	mine, err := s.Repos().Reservations.ListByCustomer(ctx, arriving.CustomerID)
	require.NoError(t, err)
	require.Len(t, mine, 1)

	between, err := s.Repos().Reservations.ListActiveBetween(ctx, domain.SingleDay(day(1)))
	require.NoError(t, err)
	assert.Len(t, between, 2)

	excluded, err := s.Repos().Reservations.FindActiveOverlapping(ctx, site.ID, domain.NewStay(day(1), day(3)), arriving.ID)
	require.NoError(t, err)
	assert.Empty(t, excluded)

	checkedIn, err := s.Repos().Reservations.ListCheckedIn(ctx, other.ID, uuid.Nil)
	require.NoError(t, err)
	require.Len(t, checkedIn, 1)
	assert.Equal(t, leaving.ID, checkedIn[0].ID)
	checkedIn, err = s.Repos().Reservations.ListCheckedIn(ctx, other.ID, leaving.ID)
	require.NoError(t, err)
	assert.Empty(t, checkedIn)
	checkedIn, err = s.Repos().Reservations.ListCheckedIn(ctx, site.ID, uuid.Nil)
	require.NoError(t, err)
	assert.Empty(t, checkedIn, "a confirmed arrival is not checked in yet")
}

func TestMemoryStore_ListPaged(t *testing.T) {
	s := repo.NewMemoryStore()
	ctx := context.Background()
	site := seedSite(t, s, 101)
	for d := 1; d <= 5; d++ {
		_, err := s.Repos().Reservations.Create(ctx, reservationFixture(t, site, d, d, domain.StatusPending, ""))
		require.NoError(t, err)
	}

	page, limit := 2, 2
	list, total, err := s.Repos().Reservations.List(ctx, domain.NewPaginationParams(&page, &limit))

	require.NoError(t, err)
	assert.Equal(t, int64(5), total)
	require.Len(t, list, 2)
	assert.Equal(t, day(3), list[0].Stay.Start, "newest stay first")
	assert.Equal(t, day(2), list[1].Stay.Start)

	page = 9
	list, _, err = s.Repos().Reservations.List(ctx, domain.NewPaginationParams(&page, &limit))
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestMemoryStore_ReturnsCopies(t *testing.T) {
	s := repo.NewMemoryStore()
	ctx := context.Background()
	site := seedSite(t, s, 101)

	res, err := s.Repos().Reservations.Create(ctx, reservationFixture(t, site, 1, 3, domain.StatusPending, ""))
	require.NoError(t, err)
	res.PartyMembers[0] = "Mallory"

	again, err := s.Repos().Reservations.GetByID(ctx, res.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"Ann"}, again.PartyMembers)
}

func TestMemoryStore_AtvPasses(t *testing.T) {
	s := repo.NewMemoryStore()
	ctx := context.Background()
	site := seedSite(t, s, 101)
	res, err := s.Repos().Reservations.Create(ctx, reservationFixture(t, site, 1, 3, domain.StatusConfirmed, "AAAAAAAAAAAA"))
	require.NoError(t, err)

	passes, err := domain.GeneratePasses(res, "Ann", 30, domain.DefaultAtvRates())
	require.NoError(t, err)
	created, err := s.Repos().AtvPasses.CreateBatch(ctx, passes)
	require.NoError(t, err)
	require.Len(t, created, 3)

	p := created[1]
	require.NoError(t, p.Issue("WB-7"))
	_, err = s.Repos().AtvPasses.Update(ctx, p)
	require.NoError(t, err)

	list, err := s.Repos().AtvPasses.ListByReservation(ctx, res.ID)
	require.NoError(t, err)
	require.Len(t, list, 3)
	assert.Equal(t, day(1), list[0].PassDate)
	assert.True(t, list[1].Issued)
	assert.Equal(t, "WB-7", list[1].WristbandNumber)
}

func TestMemoryStore_InTxHonoursCancelledContext(t *testing.T) {
	s := repo.NewMemoryStore()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	called := false
	err := s.InTx(ctx, func(repo.Repos) error { called = true; return nil })

	assert.ErrorIs(t, err, context.Canceled)
	assert.False(t, called)
}

func ids(sites []domain.Campsite) []uuid.UUID {
	out := make([]uuid.UUID, 0, len(sites))
	for _, s := range sites {
		out = append(out, s.ID)
	}
	return out
}
