// Package domain contains the core types of the RV park reservation system:
// money, stays, campsites, reservations and ATV passes, together with the
// rules that govern them. It does no I/O and is imported by every other
// internal package (repo, service, handler).
package domain

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Site numbers are printed on the park map; anything outside this range is
// a data entry error.
const (
	MinSiteNumber = 1
	MaxSiteNumber = 200
)

// SiteType tags the kind of campsite. Rates and capacities are looked up in
// a RateTable keyed by this tag rather than hanging off the type itself.
type SiteType string

const (
	SiteFullHookup SiteType = "FULL_HOOKUP"
	SiteTent       SiteType = "TENT"
)

// Valid reports whether t is a known site type.
func (t SiteType) Valid() bool {
	return t == SiteFullHookup || t == SiteTent
}

// Location is the area of the park a campsite belongs to.
type Location string

const (
	LocationWoods    Location = "WOODS"
	LocationATVPark  Location = "ATV_PARK"
	LocationLake     Location = "LAKE"
	LocationBaseCamp Location = "BASE_CAMP"
)

// Locations lists every park area with the number of sites it holds.
var Locations = []struct {
	Location Location
	Name     string
	Sites    int
}{
	{LocationWoods, "Woods", 20},
	{LocationATVPark, "ATV Park", 15},
	{LocationLake, "Lake", 20},
	{LocationBaseCamp, "Base Camp", 20},
}

// Valid reports whether l is a known park area.
func (l Location) Valid() bool {
	for _, loc := range Locations {
		if loc.Location == l {
			return true
		}
	}
	return false
}

// CampsiteStatus is the operational state of a site. It is independent of
// any reservation: check-in, check-out, cancel and manual maintenance move it.
type CampsiteStatus string

const (
	CampsiteAvailable   CampsiteStatus = "AVAILABLE"
	CampsiteOccupied    CampsiteStatus = "OCCUPIED"
	CampsiteMaintenance CampsiteStatus = "MAINTENANCE"
	CampsiteOutOfOrder  CampsiteStatus = "OUT_OF_ORDER"
)

// RequiresMaintenance reports whether the site is out of service.
func (s CampsiteStatus) RequiresMaintenance() bool {
	return s == CampsiteMaintenance || s == CampsiteOutOfOrder
}

// SiteTypeSpec is the rate and capacity of one site type.
type SiteTypeSpec struct {
	Description  string
	DailyRate    Money
	MaxPartySize int
}

// RateTable maps every site type to its spec.
type RateTable map[SiteType]SiteTypeSpec

// DefaultRateTable returns the park's standard rates.
func DefaultRateTable() RateTable {
	return RateTable{
		SiteFullHookup: {Description: "Full RV Hookup (Water/Electric)", DailyRate: MoneyOf(40.00), MaxPartySize: 15},
		SiteTent:       {Description: "Tent Camping", DailyRate: MoneyOf(15.00), MaxPartySize: 8},
	}
}

// Lookup returns the SiteTypeSpec for t, or ErrValidation when t has no entry.
func (rt RateTable) Lookup(t SiteType) (SiteTypeSpec, error) {
	spec, ok := rt[t]
	if !ok {
		return SiteTypeSpec{}, fmt.Errorf("%w: unknown site type %q", ErrValidation, t)
	}
	return spec, nil
}

// Campsite is a bookable unit of the park.
// Active=false is a soft delete: the site keeps its history but is never
// offered for booking.
type Campsite struct {
	ID         uuid.UUID
	SiteNumber int
	Type       SiteType
	Location   Location
	Status     CampsiteStatus
	Notes      string
	Active     bool
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// NewCampsite returns an active, available site.
func NewCampsite(number int, t SiteType, loc Location) Campsite {
	return Campsite{
		SiteNumber: number,
		Type:       t,
		Location:   loc,
		Status:     CampsiteAvailable,
		Active:     true,
	}
}

// Validate checks the static fields of a campsite.
func (c Campsite) Validate() error {
	if c.SiteNumber < MinSiteNumber || c.SiteNumber > MaxSiteNumber {
		return fmt.Errorf("%w: site number must be between %d and %d", ErrValidation, MinSiteNumber, MaxSiteNumber)
	}
	if !c.Type.Valid() {
		return fmt.Errorf("%w: unknown site type %q", ErrValidation, c.Type)
	}
	if !c.Location.Valid() {
		return fmt.Errorf("%w: unknown location %q", ErrValidation, c.Location)
	}
	return nil
}

// IsBookable reports whether the site may take a new reservation.
func (c Campsite) IsBookable() bool {
	return c.Active && c.Status == CampsiteAvailable
}

// MarkMaintenance takes the site out of service, recording why.
func (c *Campsite) MarkMaintenance(reason string) {
	c.Status = CampsiteMaintenance
	c.Notes = reason
}

// MarkAvailable returns the site to service.
func (c *Campsite) MarkAvailable() {
	c.Status = CampsiteAvailable
}

// MarkOccupied records that a party has checked in.
func (c *Campsite) MarkOccupied() {
	c.Status = CampsiteOccupied
}

// DisplayName renders e.g. "Site 101 (Full RV Hookup (Water/Electric))".
func (c Campsite) DisplayName(rates RateTable) string {
	desc := string(c.Type)
	if spec, ok := rates[c.Type]; ok {
		desc = spec.Description
	}
	return fmt.Sprintf("Site %d (%s)", c.SiteNumber, desc)
}

// CampsiteFilter narrows availability searches. Zero values match anything.
type CampsiteFilter struct {
	Type     SiteType
	Location Location
}

// Matches reports whether c satisfies the filter.
func (f CampsiteFilter) Matches(c Campsite) bool {
	if f.Type != "" && c.Type != f.Type {
		return false
	}
	if f.Location != "" && c.Location != f.Location {
		return false
	}
	return true
}
