package domain

import (
	"fmt"
	"strings"
	"time"
)

// DateLayout is the wire and storage format of calendar dates.
const DateLayout = "2006-01-02"

// minutesPerDay is the duration reported for all-day ranges.
const minutesPerDay = 24 * 60

// Date truncates t to midnight UTC of its calendar day (in t's own location).
// All dates held by DateRange are normalised through it so that day
// arithmetic never drifts across DST or time zones.
func Date(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// NewDate is a shorthand for building a normalised calendar date.
func NewDate(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

// ParseDate parses a "2006-01-02" string into a normalised date.
func ParseDate(s string) (time.Time, error) {
	t, err := time.Parse(DateLayout, strings.TrimSpace(s))
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: invalid date %q", ErrValidation, s)
	}
	return t, nil
}

// TimeOfDay is a wall-clock time expressed in minutes after midnight.
type TimeOfDay int

// At builds a TimeOfDay from hour and minute.
func At(hour, minute int) TimeOfDay { return TimeOfDay(hour*60 + minute) }

// Ptr returns a pointer to t, for optional DateRange fields.
func (t TimeOfDay) Ptr() *TimeOfDay { return &t }

func (t TimeOfDay) String() string {
	return fmt.Sprintf("%02d:%02d", int(t)/60, int(t)%60)
}

// DateRange is an inclusive interval of calendar days, optionally narrowed
// to a time-of-day window. A range without both times is "all day".
//
// DateRange is a value type; none of its methods mutate it.
type DateRange struct {
	Start     time.Time
	End       *time.Time // nil means a single-day range ending on Start
	StartTime *TimeOfDay
	EndTime   *TimeOfDay
}

// NewStay builds an all-day range covering start..end inclusive.
func NewStay(start, end time.Time) DateRange {
	e := Date(end)
	return DateRange{Start: Date(start), End: &e}
}

// SingleDay builds an all-day range covering one date.
func SingleDay(day time.Time) DateRange {
	return DateRange{Start: Date(day)}
}

// IsAllDay reports whether the range has no time-of-day window.
func (r DateRange) IsAllDay() bool {
	return r.StartTime == nil && r.EndTime == nil
}

// EffectiveEnd returns End, or Start when End is absent.
func (r DateRange) EffectiveEnd() time.Time {
	if r.End != nil {
		return *r.End
	}
	return r.Start
}

// IsValid reports whether End is not before Start and, when both times are
// present, EndTime is not before StartTime.
func (r DateRange) IsValid() bool {
	if r.Start.IsZero() {
		return false
	}
	if r.End != nil && r.End.Before(r.Start) {
		return false
	}
	if r.StartTime != nil && r.EndTime != nil && *r.EndTime < *r.StartTime {
		return false
	}
	return true
}

// Validate returns ErrValidation describing why the range is invalid.
func (r DateRange) Validate() error {
	switch {
	case r.Start.IsZero():
		return fmt.Errorf("%w: start date is required", ErrValidation)
	case r.End != nil && r.End.Before(r.Start):
		return fmt.Errorf("%w: end date must not be before start date", ErrValidation)
	case r.StartTime != nil && r.EndTime != nil && *r.EndTime < *r.StartTime:
		return fmt.Errorf("%w: end time must not be before start time", ErrValidation)
	}
	return nil
}

// DurationDays returns the inclusive number of days covered.
func (r DateRange) DurationDays() int {
	return daysBetween(r.Start, r.EffectiveEnd()) + 1
}

// Nights returns the number of nights a stay bills for: the day difference
// between start and end, with a single-day stay counting as one night.
func (r DateRange) Nights() int {
	n := daysBetween(r.Start, r.EffectiveEnd())
	if n < 1 {
		return 1
	}
	return n
}

// DurationMinutes returns the time-of-day window length, or a full day when
// the range is all-day. A range with only one time set has no duration.
func (r DateRange) DurationMinutes() int {
	if r.IsAllDay() {
		return minutesPerDay
	}
	if r.StartTime == nil || r.EndTime == nil {
		return 0
	}
	return int(*r.EndTime - *r.StartTime)
}

// Days returns every date in [Start, EffectiveEnd] in order.
func (r DateRange) Days() []time.Time {
	n := r.DurationDays()
	if n < 1 {
		return nil
	}
	days := make([]time.Time, 0, n)
	for i := 0; i < n; i++ {
		days = append(days, r.Start.AddDate(0, 0, i))
	}
	return days
}

// OverlapsDate reports closed-interval overlap of the two date spans.
// Touching endpoints overlap. The relation is symmetric.
func (r DateRange) OverlapsDate(other DateRange) bool {
	return !r.EffectiveEnd().Before(other.Start) && !other.EffectiveEnd().Before(r.Start)
}

// OverlapsTime reports overlap of the time-of-day windows. All-day ranges
// never produce a time conflict, so it is false whenever either side is
// all-day or has an incomplete window.
func (r DateRange) OverlapsTime(other DateRange) bool {
	if r.IsAllDay() || other.IsAllDay() {
		return false
	}
	if r.StartTime == nil || r.EndTime == nil || other.StartTime == nil || other.EndTime == nil {
		return false
	}
	return *r.EndTime >= *other.StartTime && *other.EndTime >= *r.StartTime
}

// FullyOverlaps reports a date overlap that also collides in time: either
// side being all-day makes any date overlap a full one.
func (r DateRange) FullyOverlaps(other DateRange) bool {
	return r.OverlapsDate(other) && (r.IsAllDay() || other.IsAllDay() || r.OverlapsTime(other))
}

// Contains reports whether instant falls on a covered date and, for timed
// ranges, inside the time-of-day window.
func (r DateRange) Contains(instant time.Time) bool {
	day := Date(instant)
	if day.Before(r.Start) || day.After(r.EffectiveEnd()) {
		return false
	}
	if r.IsAllDay() || r.StartTime == nil || r.EndTime == nil {
		return true
	}
	tod := At(instant.Hour(), instant.Minute())
	return tod >= *r.StartTime && tod <= *r.EndTime
}

func (r DateRange) String() string {
	var b strings.Builder
	b.WriteString(r.Start.Format(DateLayout))
	if end := r.EffectiveEnd(); !end.Equal(r.Start) {
		b.WriteString(" - ")
		b.WriteString(end.Format(DateLayout))
	}
	if r.StartTime != nil && r.EndTime != nil {
		fmt.Fprintf(&b, " %s - %s", r.StartTime, r.EndTime)
	}
	return b.String()
}

func daysBetween(a, b time.Time) int {
	return int(Date(b).Sub(Date(a)).Hours() / 24)
}
