// Package calendar buckets occasions and entries into per-day summaries
// for week and month views. Ordering inside a day is deterministic so
// any render layer truncating the list shows the same subset.
package calendar

import (
	"sort"
	"time"

	"github.com/wardrobeapp/wearcal/internal/models"
)

// DefaultVisibleLimit caps the preview subset of a day.
const DefaultVisibleLimit = 3

// DayItem is one row of a day: an entry under its occasion, or an
// occasion that has no outfits bound yet (Entry nil), kept visible so
// planned-but-unfilled occasions still show on the calendar.
type DayItem struct {
	Occasion *models.Occasion      `json:"occasion,omitempty"`
	Entry    *models.CalendarEntry `json:"entry,omitempty"`
	Daily    bool                  `json:"daily"`
}

// OutfitCount returns how many outfits the row contributes.
func (d DayItem) OutfitCount() int {
	if d.Entry == nil {
		return 0
	}
	return len(d.Entry.OutfitIDs)
}

// DaySummary aggregates one calendar day.
type DaySummary struct {
	Date          time.Time `json:"date"`
	OccasionCount int       `json:"occasion_count"`
	OutfitCount   int       `json:"outfit_count"`
	Items         []DayItem `json:"items"`
	Visible       []DayItem `json:"visible"`
	Overflow      int       `json:"overflow"`
}

// BucketByDay groups entries and occasions by calendar date within the
// period. Days outside the period are dropped; days with nothing on
// them produce no summary. Within a day the order is: daily rows first,
// then occasion rows by start time ascending, rows without a start time
// last, ties kept in insertion order.
func BucketByDay(entries []models.CalendarEntry, occasions []models.Occasion, period models.Period, visibleLimit int) map[time.Time]*DaySummary {
	if visibleLimit <= 0 {
		visibleLimit = DefaultVisibleLimit
	}

	occByID := make(map[string]models.Occasion, len(occasions))
	for _, o := range occasions {
		occByID[o.ID] = o
	}

	days := make(map[time.Time]*DaySummary)
	day := func(d time.Time) *DaySummary {
		key := models.DateOnly(d)
		s, ok := days[key]
		if !ok {
			s = &DaySummary{Date: key}
			days[key] = s
		}
		return s
	}

	hasEntry := make(map[string]bool, len(entries))
	for i := range entries {
		e := entries[i]
		if !period.Contains(e.UsedAt) {
			continue
		}
		item := DayItem{Entry: &e, Daily: e.Daily}
		if occ, ok := occByID[e.OccasionID]; ok {
			item.Occasion = &occ
			hasEntry[occ.ID] = true
		}
		s := day(e.UsedAt)
		s.Items = append(s.Items, item)
	}

	// Occasions with no outfit bound yet still occupy their day.
	for i := range occasions {
		o := occasions[i]
		if hasEntry[o.ID] || !period.Contains(o.Date) {
			continue
		}
		s := day(o.Date)
		s.Items = append(s.Items, DayItem{Occasion: &o, Daily: o.IsDailyPlaceholder()})
	}

	for _, s := range days {
		finalize(s, visibleLimit)
	}
	return days
}

func finalize(s *DaySummary, visibleLimit int) {
	sort.SliceStable(s.Items, func(i, j int) bool {
		a, b := s.Items[i], s.Items[j]
		if a.Daily != b.Daily {
			return a.Daily
		}
		at, aok := startTime(a)
		bt, bok := startTime(b)
		if aok != bok {
			return aok // rows without a comparable time sort last
		}
		if aok && bok && !at.Equal(bt) {
			return at.Before(bt)
		}
		return false // stable: keep insertion order
	})

	seenOccasions := make(map[string]bool)
	for _, item := range s.Items {
		s.OutfitCount += item.OutfitCount()
		if item.Occasion != nil && !seenOccasions[item.Occasion.ID] {
			seenOccasions[item.Occasion.ID] = true
			s.OccasionCount++
		}
	}

	s.Visible = s.Items
	if len(s.Items) > visibleLimit {
		s.Visible = s.Items[:visibleLimit]
		s.Overflow = len(s.Items) - visibleLimit
	}
}

func startTime(d DayItem) (time.Time, bool) {
	if d.Occasion == nil || d.Occasion.StartTime.IsZero() {
		return time.Time{}, false
	}
	return d.Occasion.StartTime, true
}
