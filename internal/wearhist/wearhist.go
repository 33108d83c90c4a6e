// Package wearhist answers "was this item worn within N days of a
// date" over an in-memory list of wear events. It is a pure function
// layer; fetching the events is the store's job.
package wearhist

import (
	"sort"
	"time"

	"github.com/wardrobeapp/wearcal/internal/models"
)

// FindRecentWear scans wornDates for events inside
// [candidate - windowDays, candidate]. The check looks strictly
// backward: events after the candidate date are future plans and never
// count. The returned dates are distinct, date-only, ascending, and
// TimesWorn always equals their count.
func FindRecentWear(wornDates []time.Time, candidate time.Time, windowDays int) models.WearRecency {
	day := models.DateOnly(candidate)
	floor := day.AddDate(0, 0, -windowDays)

	seen := make(map[time.Time]struct{}, len(wornDates))
	var hits []time.Time
	for _, worn := range wornDates {
		d := models.DateOnly(worn)
		if d.Before(floor) || d.After(day) {
			continue
		}
		if _, dup := seen[d]; dup {
			continue
		}
		seen[d] = struct{}{}
		hits = append(hits, d)
	}

	sort.Slice(hits, func(i, j int) bool { return hits[i].Before(hits[j]) })

	return models.WearRecency{
		WithinWindow: len(hits) > 0,
		WornDates:    hits,
		TimesWorn:    len(hits),
	}
}
