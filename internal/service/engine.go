// Package service contains the business logic of the RV park API.
// The Engine validates requests, guards admission with a per-campsite lock,
// and runs every multi-record change inside one store transaction.
// No SQL lives here: the engine depends on repo interfaces, not implementations.
package service

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/pkordes/rv-park/backend/internal/domain"
	"github.com/pkordes/rv-park/backend/internal/lock"
	"github.com/pkordes/rv-park/backend/internal/metrics"
	"github.com/pkordes/rv-park/backend/internal/notify"
	"github.com/pkordes/rv-park/backend/internal/repo"
)

// notifyTimeout bounds the confirmation side channel once the confirmation
// itself has committed.
const notifyTimeout = 5 * time.Second

// Engine is the reservation engine: availability search, booking admission,
// the reservation lifecycle, ATV passes and payments.
//
// Every operation that changes a reservation or its campsite holds the lock
// for that campsite, so admission and lifecycle steps on one site are
// serialised while different sites proceed in parallel.
type Engine struct {
	store    repo.Store
	locker   lock.Locker
	notifier notify.Notifier
	policy   domain.Policy
	log      *slog.Logger
	now      func() time.Time
	newCode  func(length int) (string, error)

	// inflight tracks notifications still being delivered.
	inflight sync.WaitGroup
}

// Option customises an Engine.
type Option func(*Engine)

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// WithCodeGenerator replaces the random confirmation number generator.
func WithCodeGenerator(gen func(length int) (string, error)) Option {
	return func(e *Engine) { e.newCode = gen }
}

// NewEngine wires an Engine. policy is read once here and never from global state.
func NewEngine(store repo.Store, locker lock.Locker, notifier notify.Notifier, policy domain.Policy, log *slog.Logger, opts ...Option) *Engine {
	e := &Engine{
		store:    store,
		locker:   locker,
		notifier: notifier,
		policy:   policy,
		log:      log,
		now:      time.Now,
		newCode:  NewConfirmationNumber,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Drain waits until every notification already handed off has been
// delivered or has failed, or until ctx is done.
func (e *Engine) Drain(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		e.inflight.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("service.Engine.Drain: %w", ctx.Err())
	}
}

// Policy returns the business rules the engine was built with.
func (e *Engine) Policy() domain.Policy {
	return e.policy
}

// Today is the current calendar day by the engine's clock.
func (e *Engine) Today() time.Time {
	return domain.Date(e.now())
}

func campsiteKey(id uuid.UUID) string {
	return "campsite:" + id.String()
}

// withSiteLock runs fn while holding the lock for campsiteID.
func (e *Engine) withSiteLock(ctx context.Context, campsiteID uuid.UUID, fn func() error) error {
	unlock, err := e.locker.Lock(ctx, campsiteKey(campsiteID))
	if err != nil {
		return err
	}
	defer unlock()
	return fn()
}

// withReservationLock looks up the reservation's campsite, then runs fn in a
// transaction under that campsite's lock. fn re-reads the reservation itself
// through the transaction's repos.
func (e *Engine) withReservationLock(ctx context.Context, id uuid.UUID, fn func(r repo.Repos) error) error {
	res, err := e.store.Repos().Reservations.GetByID(ctx, id)
	if err != nil {
		return err
	}
	return e.withSiteLock(ctx, res.CampsiteID, func() error {
		return e.store.InTx(ctx, fn)
	})
}

// transitioned records a completed lifecycle step.
func (e *Engine) transitioned(ctx context.Context, res domain.Reservation) {
	metrics.Transitions.WithLabelValues(string(res.Status)).Inc()
	e.log.InfoContext(ctx, "reservation "+statusVerb(res.Status),
		"reservation_id", res.ID,
		"campsite_id", res.CampsiteID,
		"status", res.Status,
	)
}

func statusVerb(s domain.ReservationStatus) string {
	switch s {
	case domain.StatusPending:
		return "admitted"
	case domain.StatusConfirmed:
		return "confirmed"
	case domain.StatusCheckedIn:
		return "checked in"
	case domain.StatusCompleted:
		return "checked out"
	case domain.StatusCancelled:
		return "cancelled"
	}
	return fmt.Sprintf("moved to %s", s)
}
