package config

import (
	"fmt"
	"sort"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/shopspring/decimal"

	"github.com/pkordes/rv-park/backend/internal/domain"
)

// Rules is the on-disk form of the park's business rules. Amounts are
// decimal strings so the file never goes through a float.
//
// Example:
//
//	currency = "USD"
//	deposit_percent = "25"
//	enforce_check_in_date = true
//	admit_occupied_sites = true
//
//	[confirmation]
//	length = 12
//	retries = 1
//
//	[sites.TENT]
//	description = "Tent Camping"
//	daily_rate = "15.00"
//	max_party_size = 8
type Rules struct {
	Currency           string              `toml:"currency"`
	DepositPercent     string              `toml:"deposit_percent"`
	EnforceCheckInDate bool                `toml:"enforce_check_in_date"`
	AdmitOccupiedSites bool                `toml:"admit_occupied_sites"`
	CheckInTime        string              `toml:"check_in_time"`
	CheckOutTime       string              `toml:"check_out_time"`
	Confirmation       ConfirmationRules   `toml:"confirmation"`
	ATV                ATVRules            `toml:"atv"`
	Sites              map[string]SiteRule `toml:"sites"`
}

// ConfirmationRules controls confirmation code generation.
type ConfirmationRules struct {
	Length  int `toml:"length"`
	Retries int `toml:"retries"`
}

// ATVRules prices ATV passes by age bracket.
type ATVRules struct {
	TeenAge   int    `toml:"teen_age"`
	AdultAge  int    `toml:"adult_age"`
	TeenRate  string `toml:"teen_rate"`
	AdultRate string `toml:"adult_rate"`
}

// SiteRule is the rate and capacity of one site type. A [sites.X] table
// replaces the default entry for X as a whole.
type SiteRule struct {
	Description  string `toml:"description"`
	DailyRate    string `toml:"daily_rate"`
	MaxPartySize int    `toml:"max_party_size"`
}

// DefaultRules returns the rules the park runs with when no file is given.
func DefaultRules() Rules {
	return Rules{
		Currency:           domain.DefaultCurrency,
		DepositPercent:     "25",
		EnforceCheckInDate: true,
		AdmitOccupiedSites: true,
		CheckInTime:        "14:00",
		CheckOutTime:       "11:00",
		Confirmation:       ConfirmationRules{Length: 12, Retries: 1},
		ATV:                ATVRules{TeenAge: 15, AdultAge: 18, TeenRate: "10.00", AdultRate: "20.00"},
		Sites: map[string]SiteRule{
			string(domain.SiteFullHookup): {Description: "Full RV Hookup (Water/Electric)", DailyRate: "40.00", MaxPartySize: 15},
			string(domain.SiteTent):       {Description: "Tent Camping", DailyRate: "15.00", MaxPartySize: 8},
		},
	}
}

// LoadRules returns DefaultRules overlaid with the TOML file at path.
// An empty path yields the defaults. Keys the file sets that Rules does not
// know are rejected so typos do not silently fall back to defaults.
func LoadRules(path string) (Rules, error) {
	r := DefaultRules()
	if path == "" {
		return r, nil
	}
	md, err := toml.DecodeFile(path, &r)
	if err != nil {
		return Rules{}, fmt.Errorf("config.LoadRules: %w", err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, 0, len(undecoded))
		for _, k := range undecoded {
			keys = append(keys, k.String())
		}
		return Rules{}, fmt.Errorf("config.LoadRules: unknown keys in %s: %s", path, strings.Join(keys, ", "))
	}
	return r, nil
}

// Policy validates r and converts it into the engine's domain.Policy.
func (r Rules) Policy() (domain.Policy, error) {
	cur := strings.ToUpper(strings.TrimSpace(r.Currency))
	if !domain.Zero(cur).IsValidCurrency() {
		return domain.Policy{}, fmt.Errorf("rules: unknown currency %q", r.Currency)
	}

	deposit, err := decimal.NewFromString(r.DepositPercent)
	if err != nil || deposit.IsNegative() || deposit.GreaterThan(decimal.NewFromInt(100)) {
		return domain.Policy{}, fmt.Errorf("rules: deposit_percent must be between 0 and 100, got %q", r.DepositPercent)
	}

	checkIn, err := parseClock(r.CheckInTime)
	if err != nil {
		return domain.Policy{}, fmt.Errorf("rules: check_in_time: %w", err)
	}
	checkOut, err := parseClock(r.CheckOutTime)
	if err != nil {
		return domain.Policy{}, fmt.Errorf("rules: check_out_time: %w", err)
	}

	if r.Confirmation.Length < 6 || r.Confirmation.Length > 32 {
		return domain.Policy{}, fmt.Errorf("rules: confirmation length must be between 6 and 32, got %d", r.Confirmation.Length)
	}
	if r.Confirmation.Retries < 0 || r.Confirmation.Retries > 5 {
		return domain.Policy{}, fmt.Errorf("rules: confirmation retries must be between 0 and 5, got %d", r.Confirmation.Retries)
	}

	atv, err := r.ATV.rates(cur)
	if err != nil {
		return domain.Policy{}, err
	}

	rates, err := r.rateTable(cur)
	if err != nil {
		return domain.Policy{}, err
	}

	return domain.Policy{
		Currency:            cur,
		Rates:               rates,
		Atv:                 atv,
		DepositPercent:      deposit,
		EnforceCheckInDate:  r.EnforceCheckInDate,
		AdmitOccupiedSites:  r.AdmitOccupiedSites,
		CheckInTime:         checkIn,
		CheckOutTime:        checkOut,
		ConfirmationLength:  r.Confirmation.Length,
		ConfirmationRetries: r.Confirmation.Retries,
	}, nil
}

func (a ATVRules) rates(cur string) (domain.AtvRates, error) {
	if a.TeenAge < 0 || a.AdultAge < a.TeenAge {
		return domain.AtvRates{}, fmt.Errorf("rules: atv ages must satisfy 0 <= teen_age <= adult_age")
	}
	teen, err := domain.ParseMoney(a.TeenRate, cur)
	if err != nil || teen.IsNegative() {
		return domain.AtvRates{}, fmt.Errorf("rules: atv teen_rate %q is not a valid amount", a.TeenRate)
	}
	adult, err := domain.ParseMoney(a.AdultRate, cur)
	if err != nil || adult.IsNegative() {
		return domain.AtvRates{}, fmt.Errorf("rules: atv adult_rate %q is not a valid amount", a.AdultRate)
	}
	return domain.AtvRates{TeenAge: a.TeenAge, AdultAge: a.AdultAge, Teen: teen, Adult: adult}, nil
}

func (r Rules) rateTable(cur string) (domain.RateTable, error) {
	table := make(domain.RateTable, len(r.Sites))
	names := make([]string, 0, len(r.Sites))
	for name := range r.Sites {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		site := r.Sites[name]
		t := domain.SiteType(strings.ToUpper(name))
		if !t.Valid() {
			return nil, fmt.Errorf("rules: unknown site type %q", name)
		}
		rate, err := domain.ParseMoney(site.DailyRate, cur)
		if err != nil || !rate.IsPositive() {
			return nil, fmt.Errorf("rules: sites.%s daily_rate %q must be a positive amount", name, site.DailyRate)
		}
		if site.MaxPartySize < 1 {
			return nil, fmt.Errorf("rules: sites.%s max_party_size must be at least 1", name)
		}
		table[t] = domain.SiteTypeSpec{Description: site.Description, DailyRate: rate, MaxPartySize: site.MaxPartySize}
	}

	for _, t := range []domain.SiteType{domain.SiteFullHookup, domain.SiteTent} {
		if _, ok := table[t]; !ok {
			return nil, fmt.Errorf("rules: no rate configured for site type %s", t)
		}
	}
	return table, nil
}

func parseClock(s string) (domain.TimeOfDay, error) {
	var h, m int
	if _, err := fmt.Sscanf(s, "%d:%d", &h, &m); err != nil || h < 0 || h > 23 || m < 0 || m > 59 {
		return 0, fmt.Errorf("%q is not a HH:MM time", s)
	}
	return domain.At(h, m), nil
}
