package models

import (
	"strings"
	"time"
)

// DailyOccasionName is the reserved name of the system-managed "Daily"
// placeholder occasion. User-created occasions must never use it.
const DailyOccasionName = "Daily"

// IsReservedOccasionName reports whether a user-supplied occasion name
// collides with the reserved Daily placeholder. Comparison ignores case
// and surrounding whitespace.
func IsReservedOccasionName(name string) bool {
	return strings.EqualFold(strings.TrimSpace(name), DailyOccasionName)
}

// Occasion is a named, dated event a user plans outfits around.
type Occasion struct {
	ID             string    `json:"id"`
	UserID         string    `json:"user_id"`
	OccasionTypeID string    `json:"occasion_type_id,omitempty"` // empty = no type (required for the Daily placeholder)
	Name           string    `json:"name"`
	Description    string    `json:"description,omitempty"`
	Date           time.Time `json:"date"` // date-only semantics
	StartTime      time.Time `json:"start_time,omitempty"`
	EndTime        time.Time `json:"end_time,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// IsDailyPlaceholder reports whether the occasion is the system-managed
// Daily placeholder: reserved name with no occasion type.
func (o Occasion) IsDailyPlaceholder() bool {
	return o.OccasionTypeID == "" && strings.EqualFold(o.Name, DailyOccasionName)
}

// CalendarEntry binds one or more outfits to an occasion, or to a bare
// date in daily mode. Exactly one of the two bindings holds; the
// scheduler validates this before any entry reaches the store.
type CalendarEntry struct {
	ID         string    `json:"id"`
	UserID     string    `json:"user_id"`
	OccasionID string    `json:"occasion_id,omitempty"`
	Daily      bool      `json:"daily"`
	OutfitIDs  []string  `json:"outfit_ids"`
	UsedAt     time.Time `json:"used_at"` // effective date the outfits count as worn
	CreatedAt  time.Time `json:"created_at"`
}

// WearRecency is the result of a wear-history lookup for a single item
// against a candidate date.
type WearRecency struct {
	WithinWindow bool        `json:"within_window"`
	WornDates    []time.Time `json:"worn_dates"` // distinct, ascending, date-only
	TimesWorn    int         `json:"times_worn"`
}

// LastWorn returns the most recent worn date, or the zero time when the
// item has no wear history in range.
func (w WearRecency) LastWorn() time.Time {
	if len(w.WornDates) == 0 {
		return time.Time{}
	}
	return w.WornDates[len(w.WornDates)-1]
}

// DateOnly truncates t to its calendar date in UTC. All date
// comparisons in the scheduler and aggregator go through this so that
// time-of-day never influences bucketing or guards.
func DateOnly(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// SameDay reports whether a and b fall on the same calendar date.
func SameDay(a, b time.Time) bool {
	return DateOnly(a).Equal(DateOnly(b))
}

// Today returns the current calendar date.
func Today() time.Time {
	return DateOnly(time.Now())
}

// Period is an inclusive date range.
type Period struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// Contains reports whether d falls inside the period, comparing dates only.
func (p Period) Contains(d time.Time) bool {
	day := DateOnly(d)
	return !day.Before(DateOnly(p.Start)) && !day.After(DateOnly(p.End))
}

// WeekOf returns the Monday-to-Sunday period containing d.
func WeekOf(d time.Time) Period {
	day := DateOnly(d)
	offset := (int(day.Weekday()) + 6) % 7 // Monday = 0
	start := day.AddDate(0, 0, -offset)
	return Period{Start: start, End: start.AddDate(0, 0, 6)}
}

// MonthOf returns the first-to-last-day period of the month containing d.
func MonthOf(d time.Time) Period {
	day := DateOnly(d)
	start := time.Date(day.Year(), day.Month(), 1, 0, 0, 0, 0, time.UTC)
	return Period{Start: start, End: start.AddDate(0, 1, -1)}
}
