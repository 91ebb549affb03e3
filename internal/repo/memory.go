package repo

import (
	"cmp"
	"context"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/pkordes/rv-park/backend/internal/domain"
)

// MemoryStore is an in-process Store. Reads take a shared lock on the
// committed data; a transaction buffers its writes and publishes them under
// the exclusive lock only when its callback succeeds.
//
// Commit re-checks the same constraints the Postgres schema enforces: unique
// site numbers, unique confirmation numbers, and no two active reservations
// on one campsite with overlapping stays.
type MemoryStore struct {
	mu   sync.RWMutex
	data memData
	now  func() time.Time
}

type memData struct {
	campsites    map[uuid.UUID]domain.Campsite
	reservations map[uuid.UUID]domain.Reservation
	passes       map[uuid.UUID]domain.AtvPass
	customers    map[uuid.UUID]domain.Customer
}

func newMemData() memData {
	return memData{
		campsites:    map[uuid.UUID]domain.Campsite{},
		reservations: map[uuid.UUID]domain.Reservation{},
		passes:       map[uuid.UUID]domain.AtvPass{},
		customers:    map[uuid.UUID]domain.Customer{},
	}
}

// NewMemoryStore returns an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		data: newMemData(),
		now:  func() time.Time { return time.Now().UTC() },
	}
}

var _ Store = (*MemoryStore)(nil)

// Repos returns repositories whose writes commit immediately.
func (s *MemoryStore) Repos() Repos {
	return (&memTx{store: s, autocommit: true}).repos()
}

// InTx runs fn against a private write buffer. A tx's Repos must not be
// shared between goroutines.
func (s *MemoryStore) InTx(ctx context.Context, fn func(Repos) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	tx := &memTx{store: s, pending: newMemData()}
	if err := fn(tx.repos()); err != nil {
		return err
	}
	if err := s.commit(tx.pending); err != nil {
		return fmt.Errorf("repo.MemoryStore.InTx: commit: %w", err)
	}
	return nil
}

func (s *MemoryStore) commit(p memData) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sites := overlay(s.data.campsites, p.campsites)
	for _, c := range p.campsites {
		if err := checkCampsite(c, sites); err != nil {
			return err
		}
	}
	reservations := overlay(s.data.reservations, p.reservations)
	for _, r := range p.reservations {
		if err := checkReservation(r, reservations); err != nil {
			return err
		}
	}

	for id, c := range p.campsites {
		s.data.campsites[id] = c
	}
	for id, r := range p.reservations {
		s.data.reservations[id] = r
	}
	for id, a := range p.passes {
		s.data.passes[id] = a
	}
	for id, c := range p.customers {
		s.data.customers[id] = c
	}
	return nil
}

// checkCampsite mirrors campsites_site_number_key.
func checkCampsite(c domain.Campsite, all []domain.Campsite) error {
	for _, o := range all {
		if o.ID != c.ID && o.SiteNumber == c.SiteNumber {
			return fmt.Errorf("%w: site number already exists", domain.ErrValidation)
		}
	}
	return nil
}

// checkReservation mirrors reservations_confirmation_number_key and
// reservations_no_overlap.
func checkReservation(r domain.Reservation, all []domain.Reservation) error {
	for _, o := range all {
		if o.ID == r.ID {
			continue
		}
		if r.ConfirmationNumber != "" && o.ConfirmationNumber == r.ConfirmationNumber {
			return fmt.Errorf("%w: %s", domain.ErrDuplicateConfirmation, r.ConfirmationNumber)
		}
		if r.Status.IsActive() && o.Status.IsActive() && o.CampsiteID == r.CampsiteID && o.Stay.OverlapsDate(r.Stay) {
			return fmt.Errorf("%w: campsite already booked for those dates", domain.ErrResourceUnavailable)
		}
	}
	return nil
}

// overlay returns the values of base not shadowed by top, followed by top's values.
func overlay[T any](base, top map[uuid.UUID]T) []T {
	out := make([]T, 0, len(base)+len(top))
	for id, v := range base {
		if _, ok := top[id]; !ok {
			out = append(out, v)
		}
	}
	for _, v := range top {
		out = append(out, v)
	}
	return out
}

// lookup finds id in top, then in base.
func lookup[T any](base, top map[uuid.UUID]T, id uuid.UUID) (T, bool) {
	if v, ok := top[id]; ok {
		return v, true
	}
	v, ok := base[id]
	return v, ok
}

// memTx is a unit of work over a MemoryStore. In autocommit mode each write
// is committed on its own and pending stays empty.
type memTx struct {
	store      *MemoryStore
	autocommit bool
	pending    memData
}

func (t *memTx) repos() Repos {
	return Repos{
		Campsites:    memCampsiteRepo{t},
		Reservations: memReservationRepo{t},
		AtvPasses:    memAtvPassRepo{t},
		Customers:    memCustomerRepo{t},
	}
}

// write applies fn to the pending buffer, or commits a single-entity buffer
// straight away in autocommit mode.
func (t *memTx) write(fn func(p *memData)) error {
	if !t.autocommit {
		fn(&t.pending)
		return nil
	}
	p := newMemData()
	fn(&p)
	return t.store.commit(p)
}

func (t *memTx) read(fn func(committed memData)) {
	t.store.mu.RLock()
	defer t.store.mu.RUnlock()
	fn(t.store.data)
}

func (t *memTx) campsites() []domain.Campsite {
	var out []domain.Campsite
	t.read(func(d memData) { out = overlay(d.campsites, t.pending.campsites) })
	return out
}

func (t *memTx) reservations() []domain.Reservation {
	var out []domain.Reservation
	t.read(func(d memData) { out = overlay(d.reservations, t.pending.reservations) })
	return out
}

// --- campsites --------------------------------------------------------------

type memCampsiteRepo struct{ tx *memTx }

func (r memCampsiteRepo) Create(_ context.Context, site domain.Campsite) (domain.Campsite, error) {
	if err := checkCampsite(site, r.tx.campsites()); err != nil {
		return domain.Campsite{}, fmt.Errorf("repo.CampsiteRepo.Create: %w", err)
	}
	now := r.tx.store.now()
	site.ID = uuid.New()
	site.CreatedAt, site.UpdatedAt = now, now
	if err := r.tx.write(func(p *memData) { p.campsites[site.ID] = site }); err != nil {
		return domain.Campsite{}, fmt.Errorf("repo.CampsiteRepo.Create: %w", err)
	}
	return site, nil
}

func (r memCampsiteRepo) GetByID(_ context.Context, id uuid.UUID) (domain.Campsite, error) {
	var (
		c  domain.Campsite
		ok bool
	)
	r.tx.read(func(d memData) { c, ok = lookup(d.campsites, r.tx.pending.campsites, id) })
	if !ok {
		return domain.Campsite{}, fmt.Errorf("repo.CampsiteRepo.GetByID: %w", domain.ErrNotFound)
	}
	return c, nil
}

func (r memCampsiteRepo) GetBySiteNumber(_ context.Context, number int) (domain.Campsite, error) {
	for _, c := range r.tx.campsites() {
		if c.SiteNumber == number {
			return c, nil
		}
	}
	return domain.Campsite{}, fmt.Errorf("repo.CampsiteRepo.GetBySiteNumber: %w", domain.ErrNotFound)
}

func (r memCampsiteRepo) List(_ context.Context) ([]domain.Campsite, error) {
	sites := r.tx.campsites()
	sortCampsites(sites)
	return sites, nil
}

func (r memCampsiteRepo) FindAvailable(_ context.Context, stay domain.DateRange, filter domain.CampsiteFilter) ([]domain.Campsite, error) {
	reservations := r.tx.reservations()
	out := []domain.Campsite{}
	for _, c := range r.tx.campsites() {
		if !c.IsBookable() || !filter.Matches(c) {
			continue
		}
		if !hasActiveOverlap(reservations, c.ID, stay, uuid.Nil) {
			out = append(out, c)
		}
	}
	sortCampsites(out)
	return out, nil
}

func (r memCampsiteRepo) Update(ctx context.Context, site domain.Campsite) (domain.Campsite, error) {
	existing, err := r.GetByID(ctx, site.ID)
	if err != nil {
		return domain.Campsite{}, fmt.Errorf("repo.CampsiteRepo.Update: %w", domain.ErrNotFound)
	}
	existing.Status = site.Status
	existing.Notes = site.Notes
	existing.Active = site.Active
	existing.UpdatedAt = r.tx.store.now()
	if err := r.tx.write(func(p *memData) { p.campsites[existing.ID] = existing }); err != nil {
		return domain.Campsite{}, fmt.Errorf("repo.CampsiteRepo.Update: %w", err)
	}
	return existing, nil
}

// LockForUpdate is a plain read: callers serialise on the campsite through
// lock.Locker, and commit re-checks for overlaps.
func (r memCampsiteRepo) LockForUpdate(ctx context.Context, id uuid.UUID) (domain.Campsite, error) {
	return r.GetByID(ctx, id)
}

func sortCampsites(sites []domain.Campsite) {
	slices.SortFunc(sites, func(a, b domain.Campsite) int { return cmp.Compare(a.SiteNumber, b.SiteNumber) })
}

// --- reservations -----------------------------------------------------------

type memReservationRepo struct{ tx *memTx }

func (r memReservationRepo) Create(_ context.Context, res domain.Reservation) (domain.Reservation, error) {
	now := r.tx.store.now()
	res = cloneReservation(res)
	res.ID = uuid.New()
	res.CreatedAt, res.UpdatedAt = now, now
	if err := checkReservation(res, r.tx.reservations()); err != nil {
		return domain.Reservation{}, fmt.Errorf("repo.ReservationRepo.Create: %w", err)
	}
	if err := r.tx.write(func(p *memData) { p.reservations[res.ID] = res }); err != nil {
		return domain.Reservation{}, fmt.Errorf("repo.ReservationRepo.Create: %w", err)
	}
	return cloneReservation(res), nil
}

func (r memReservationRepo) GetByID(_ context.Context, id uuid.UUID) (domain.Reservation, error) {
	var (
		res domain.Reservation
		ok  bool
	)
	r.tx.read(func(d memData) { res, ok = lookup(d.reservations, r.tx.pending.reservations, id) })
	if !ok {
		return domain.Reservation{}, fmt.Errorf("repo.ReservationRepo.GetByID: %w", domain.ErrNotFound)
	}
	return cloneReservation(res), nil
}

func (r memReservationRepo) GetByConfirmationNumber(_ context.Context, code string) (domain.Reservation, error) {
	if code != "" {
		for _, res := range r.tx.reservations() {
			if res.ConfirmationNumber == code {
				return cloneReservation(res), nil
			}
		}
	}
	return domain.Reservation{}, fmt.Errorf("repo.ReservationRepo.GetByConfirmationNumber: %w", domain.ErrNotFound)
}

func (r memReservationRepo) List(_ context.Context, p domain.PaginationParams) ([]domain.Reservation, int64, error) {
	all := r.tx.reservations()
	sortNewestStayFirst(all)
	total := int64(len(all))

	start := min(p.Offset(), len(all))
	end := min(start+p.Limit, len(all))
	return cloneReservations(all[start:end]), total, nil
}

func (r memReservationRepo) ListByCustomer(_ context.Context, customerID uuid.UUID) ([]domain.Reservation, error) {
	return r.filter(sortNewestStayFirst, func(res domain.Reservation) bool {
		return res.CustomerID == customerID
	}), nil
}

func (r memReservationRepo) FindActiveOverlapping(_ context.Context, campsiteID uuid.UUID, stay domain.DateRange, excludeID uuid.UUID) ([]domain.Reservation, error) {
	return r.filter(sortByStayStart, func(res domain.Reservation) bool {
		return activeOverlap(res, campsiteID, stay, excludeID)
	}), nil
}

func (r memReservationRepo) ListCheckedIn(_ context.Context, campsiteID uuid.UUID, excludeID uuid.UUID) ([]domain.Reservation, error) {
	return r.filter(sortByStayStart, func(res domain.Reservation) bool {
		return res.CampsiteID == campsiteID && res.ID != excludeID && res.Status == domain.StatusCheckedIn
	}), nil
}

func (r memReservationRepo) ListActiveBetween(_ context.Context, stay domain.DateRange) ([]domain.Reservation, error) {
	return r.filter(sortByStayStart, func(res domain.Reservation) bool {
		return res.Status.IsActive() && res.Stay.OverlapsDate(stay)
	}), nil
}

func (r memReservationRepo) ListCheckingInOn(_ context.Context, day time.Time) ([]domain.Reservation, error) {
	day = domain.Date(day)
	return r.filter(sortByStayStart, func(res domain.Reservation) bool {
		return res.Status == domain.StatusConfirmed && res.Stay.Start.Equal(day)
	}), nil
}

func (r memReservationRepo) ListCheckingOutOn(_ context.Context, day time.Time) ([]domain.Reservation, error) {
	day = domain.Date(day)
	return r.filter(sortByStayStart, func(res domain.Reservation) bool {
		return res.Status == domain.StatusCheckedIn && res.Stay.EffectiveEnd().Equal(day)
	}), nil
}

func (r memReservationRepo) Update(ctx context.Context, res domain.Reservation) (domain.Reservation, error) {
	existing, err := r.GetByID(ctx, res.ID)
	if err != nil {
		return domain.Reservation{}, fmt.Errorf("repo.ReservationRepo.Update: %w", domain.ErrNotFound)
	}
	res = cloneReservation(res)
	res.CustomerID, res.CampsiteID = existing.CustomerID, existing.CampsiteID
	res.CreatedAt = existing.CreatedAt
	res.UpdatedAt = r.tx.store.now()
	if err := checkReservation(res, r.tx.reservations()); err != nil {
		return domain.Reservation{}, fmt.Errorf("repo.ReservationRepo.Update: %w", err)
	}
	if err := r.tx.write(func(p *memData) { p.reservations[res.ID] = res }); err != nil {
		return domain.Reservation{}, fmt.Errorf("repo.ReservationRepo.Update: %w", err)
	}
	return cloneReservation(res), nil
}

func (r memReservationRepo) filter(sortFn func([]domain.Reservation), keep func(domain.Reservation) bool) []domain.Reservation {
	out := []domain.Reservation{}
	for _, res := range r.tx.reservations() {
		if keep(res) {
			out = append(out, cloneReservation(res))
		}
	}
	sortFn(out)
	return out
}

func activeOverlap(res domain.Reservation, campsiteID uuid.UUID, stay domain.DateRange, excludeID uuid.UUID) bool {
	return res.CampsiteID == campsiteID && res.ID != excludeID && res.Status.IsActive() && res.Stay.OverlapsDate(stay)
}

func hasActiveOverlap(all []domain.Reservation, campsiteID uuid.UUID, stay domain.DateRange, excludeID uuid.UUID) bool {
	return slices.ContainsFunc(all, func(res domain.Reservation) bool {
		return activeOverlap(res, campsiteID, stay, excludeID)
	})
}

func sortNewestStayFirst(list []domain.Reservation) {
	slices.SortFunc(list, func(a, b domain.Reservation) int {
		if c := b.Stay.Start.Compare(a.Stay.Start); c != 0 {
			return c
		}
		return b.CreatedAt.Compare(a.CreatedAt)
	})
}

func sortByStayStart(list []domain.Reservation) {
	slices.SortFunc(list, func(a, b domain.Reservation) int {
		if c := a.Stay.Start.Compare(b.Stay.Start); c != 0 {
			return c
		}
		return a.CreatedAt.Compare(b.CreatedAt)
	})
}

// cloneReservation copies the slice and pointer fields so callers can never
// mutate stored state in place.
func cloneReservation(r domain.Reservation) domain.Reservation {
	r.PartyMembers = slices.Clone(r.PartyMembers)
	if r.Vehicle != nil {
		v := *r.Vehicle
		r.Vehicle = &v
	}
	if r.CheckInTime != nil {
		t := *r.CheckInTime
		r.CheckInTime = &t
	}
	if r.CheckOutTime != nil {
		t := *r.CheckOutTime
		r.CheckOutTime = &t
	}
	if r.Stay.End != nil {
		e := *r.Stay.End
		r.Stay.End = &e
	}
	return r
}

func cloneReservations(list []domain.Reservation) []domain.Reservation {
	out := make([]domain.Reservation, 0, len(list))
	for _, r := range list {
		out = append(out, cloneReservation(r))
	}
	return out
}

// --- ATV passes -------------------------------------------------------------

type memAtvPassRepo struct{ tx *memTx }

func (r memAtvPassRepo) CreateBatch(_ context.Context, passes []domain.AtvPass) ([]domain.AtvPass, error) {
	now := r.tx.store.now()
	out := make([]domain.AtvPass, 0, len(passes))
	for _, p := range passes {
		p.ID = uuid.New()
		p.CreatedAt = now
		out = append(out, p)
	}
	err := r.tx.write(func(d *memData) {
		for _, p := range out {
			d.passes[p.ID] = p
		}
	})
	if err != nil {
		return nil, fmt.Errorf("repo.AtvPassRepo.CreateBatch: %w", err)
	}
	return out, nil
}

func (r memAtvPassRepo) GetByID(_ context.Context, id uuid.UUID) (domain.AtvPass, error) {
	var (
		p  domain.AtvPass
		ok bool
	)
	r.tx.read(func(d memData) { p, ok = lookup(d.passes, r.tx.pending.passes, id) })
	if !ok {
		return domain.AtvPass{}, fmt.Errorf("repo.AtvPassRepo.GetByID: %w", domain.ErrNotFound)
	}
	return p, nil
}

func (r memAtvPassRepo) ListByReservation(_ context.Context, reservationID uuid.UUID) ([]domain.AtvPass, error) {
	var all []domain.AtvPass
	r.tx.read(func(d memData) { all = overlay(d.passes, r.tx.pending.passes) })

	out := []domain.AtvPass{}
	for _, p := range all {
		if p.ReservationID == reservationID {
			out = append(out, p)
		}
	}
	slices.SortFunc(out, func(a, b domain.AtvPass) int {
		if c := cmp.Compare(a.HolderName, b.HolderName); c != 0 {
			return c
		}
		return a.PassDate.Compare(b.PassDate)
	})
	return out, nil
}

func (r memAtvPassRepo) Update(ctx context.Context, pass domain.AtvPass) (domain.AtvPass, error) {
	existing, err := r.GetByID(ctx, pass.ID)
	if err != nil {
		return domain.AtvPass{}, fmt.Errorf("repo.AtvPassRepo.Update: %w", domain.ErrNotFound)
	}
	existing.Issued = pass.Issued
	existing.WristbandNumber = pass.WristbandNumber
	if err := r.tx.write(func(d *memData) { d.passes[existing.ID] = existing }); err != nil {
		return domain.AtvPass{}, fmt.Errorf("repo.AtvPassRepo.Update: %w", err)
	}
	return existing, nil
}

// --- customers --------------------------------------------------------------

type memCustomerRepo struct{ tx *memTx }

func (r memCustomerRepo) Create(_ context.Context, c domain.Customer) (domain.Customer, error) {
	now := r.tx.store.now()
	c.ID = uuid.New()
	c.CreatedAt, c.UpdatedAt = now, now
	if err := r.tx.write(func(d *memData) { d.customers[c.ID] = c }); err != nil {
		return domain.Customer{}, fmt.Errorf("repo.CustomerRepo.Create: %w", err)
	}
	return c, nil
}

func (r memCustomerRepo) GetByID(_ context.Context, id uuid.UUID) (domain.Customer, error) {
	var (
		c  domain.Customer
		ok bool
	)
	r.tx.read(func(d memData) { c, ok = lookup(d.customers, r.tx.pending.customers, id) })
	if !ok {
		return domain.Customer{}, fmt.Errorf("repo.CustomerRepo.GetByID: %w", domain.ErrNotFound)
	}
	return c, nil
}
