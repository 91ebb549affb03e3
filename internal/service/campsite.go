package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/pkordes/rv-park/backend/internal/domain"
	"github.com/pkordes/rv-park/backend/internal/repo"
)

// CreateCampsite validates and persists a new campsite.
// Returns domain.ErrValidation for bad fields or a taken site number.
func (e *Engine) CreateCampsite(ctx context.Context, site domain.Campsite) (domain.Campsite, error) {
	if err := site.Validate(); err != nil {
		return domain.Campsite{}, err
	}
	if _, err := e.policy.Rates.Lookup(site.Type); err != nil {
		return domain.Campsite{}, err
	}
	created, err := e.store.Repos().Campsites.Create(ctx, site)
	if err != nil {
		return domain.Campsite{}, fmt.Errorf("service.Engine.CreateCampsite: %w", err)
	}
	return created, nil
}

// GetCampsite returns a campsite by ID.
func (e *Engine) GetCampsite(ctx context.Context, id uuid.UUID) (domain.Campsite, error) {
	site, err := e.store.Repos().Campsites.GetByID(ctx, id)
	if err != nil {
		return domain.Campsite{}, fmt.Errorf("service.Engine.GetCampsite: %w", err)
	}
	return site, nil
}

// GetCampsiteBySiteNumber returns a campsite by its posted number.
func (e *Engine) GetCampsiteBySiteNumber(ctx context.Context, number int) (domain.Campsite, error) {
	site, err := e.store.Repos().Campsites.GetBySiteNumber(ctx, number)
	if err != nil {
		return domain.Campsite{}, fmt.Errorf("service.Engine.GetCampsiteBySiteNumber: %w", err)
	}
	return site, nil
}

// ListCampsites returns every campsite ordered by site number.
func (e *Engine) ListCampsites(ctx context.Context) ([]domain.Campsite, error) {
	sites, err := e.store.Repos().Campsites.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("service.Engine.ListCampsites: %w", err)
	}
	if sites == nil {
		return []domain.Campsite{}, nil
	}
	return sites, nil
}

// MarkMaintenance takes a campsite out of service with a reason.
func (e *Engine) MarkMaintenance(ctx context.Context, id uuid.UUID, reason string) (domain.Campsite, error) {
	site, err := e.updateCampsite(ctx, id, func(c *domain.Campsite) { c.MarkMaintenance(reason) })
	if err != nil {
		return domain.Campsite{}, fmt.Errorf("service.Engine.MarkMaintenance: %w", err)
	}
	e.log.InfoContext(ctx, "campsite under maintenance", "site_number", site.SiteNumber, "reason", reason)
	return site, nil
}

// MarkAvailable returns a campsite to service.
func (e *Engine) MarkAvailable(ctx context.Context, id uuid.UUID) (domain.Campsite, error) {
	site, err := e.updateCampsite(ctx, id, func(c *domain.Campsite) { c.MarkAvailable() })
	if err != nil {
		return domain.Campsite{}, fmt.Errorf("service.Engine.MarkAvailable: %w", err)
	}
	return site, nil
}

func (e *Engine) updateCampsite(ctx context.Context, id uuid.UUID, cmd func(*domain.Campsite)) (domain.Campsite, error) {
	var site domain.Campsite
	err := e.withSiteLock(ctx, id, func() error {
		return e.store.InTx(ctx, func(r repo.Repos) error {
			var err error
			site, err = r.Campsites.LockForUpdate(ctx, id)
			if err != nil {
				return err
			}
			cmd(&site)
			site, err = r.Campsites.Update(ctx, site)
			return err
		})
	})
	return site, err
}
