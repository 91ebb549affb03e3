package service

import (
	"cmp"
	"context"
	"fmt"
	"slices"

	"github.com/google/uuid"

	"github.com/pkordes/rv-park/backend/internal/domain"
)

// Export returns one ExportRow per active reservation overlapping stay,
// ordered by start date and then site number. Campsites and customers are
// looked up once each however many reservations share them.
func (e *Engine) Export(ctx context.Context, stay domain.DateRange) ([]domain.ExportRow, error) {
	list, err := e.ActiveBetween(ctx, stay)
	if err != nil {
		return nil, fmt.Errorf("service.Engine.Export: %w", err)
	}

	repos := e.store.Repos()
	sites := make(map[uuid.UUID]domain.Campsite)
	customers := make(map[uuid.UUID]domain.Customer)

	rows := make([]domain.ExportRow, 0, len(list))
	for _, res := range list {
		site, ok := sites[res.CampsiteID]
		if !ok {
			if site, err = repos.Campsites.GetByID(ctx, res.CampsiteID); err != nil {
				return nil, fmt.Errorf("service.Engine.Export: campsite %s: %w", res.CampsiteID, err)
			}
			sites[res.CampsiteID] = site
		}
		cust, ok := customers[res.CustomerID]
		if !ok {
			if cust, err = repos.Customers.GetByID(ctx, res.CustomerID); err != nil {
				return nil, fmt.Errorf("service.Engine.Export: customer %s: %w", res.CustomerID, err)
			}
			customers[res.CustomerID] = cust
		}

		rows = append(rows, domain.ExportRow{
			ReservationID:      res.ID.String(),
			ConfirmationNumber: res.ConfirmationNumber,
			Status:             res.Status,
			StartDate:          res.Stay.Start,
			EndDate:            res.Stay.EffectiveEnd(),
			Nights:             res.Stay.Nights(),
			PartySize:          res.PartySize,
			SiteNumber:         site.SiteNumber,
			SiteType:           site.Type,
			Location:           site.Location,
			CustomerName:       cust.FullName(),
			CustomerContact:    cust.PrimaryContact(),
			TotalAmount:        res.TotalAmount,
			PaidAmount:         res.PaidAmount,
			BalanceDue:         res.OutstandingBalance().ClampZero(),
		})
	}

	slices.SortFunc(rows, func(a, b domain.ExportRow) int {
		if c := a.StartDate.Compare(b.StartDate); c != 0 {
			return c
		}
		return cmp.Compare(a.SiteNumber, b.SiteNumber)
	})
	return rows, nil
}
