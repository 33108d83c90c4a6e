package ics

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wardrobeapp/wearcal/internal/calendar"
	"github.com/wardrobeapp/wearcal/internal/models"
)

func day(s string) time.Time {
	t, err := time.Parse(time.DateOnly, s)
	if err != nil {
		panic(err)
	}
	return t
}

// TestExport_EmitsEvents verifies each calendar row becomes a VEVENT
// with the occasion name in the summary.
func TestExport_EmitsEvents(t *testing.T) {
	d := day("2024-05-10")
	occ := models.Occasion{
		ID: "occ-1", Name: "Gallery night", Date: d,
		StartTime: d.Add(18 * time.Hour),
		EndTime:   d.Add(21 * time.Hour),
	}
	entries := []models.CalendarEntry{
		{ID: "e1", OccasionID: occ.ID, OutfitIDs: []string{"o1", "o2"}, UsedAt: d},
	}
	period := models.Period{Start: d, End: d}
	days := calendar.BucketByDay(entries, []models.Occasion{occ}, period, 10)

	payload := Export(days)
	assert.Contains(t, payload, "BEGIN:VCALENDAR")
	assert.Contains(t, payload, "BEGIN:VEVENT")
	assert.Contains(t, payload, "Gallery night")
	assert.Contains(t, payload, "2 outfit(s)")
	assert.Contains(t, payload, "e1@wearcal")
}

// TestExport_DailyIsAllDay verifies daily rows come out as all-day
// events (date-only DTSTART).
func TestExport_DailyIsAllDay(t *testing.T) {
	d := day("2024-05-11")
	entries := []models.CalendarEntry{
		{ID: "e1", Daily: true, OutfitIDs: []string{"o1"}, UsedAt: d},
	}
	period := models.Period{Start: d, End: d}
	days := calendar.BucketByDay(entries, nil, period, 10)

	payload := Export(days)
	require.Contains(t, payload, "DTSTART;VALUE=DATE:20240511")
	assert.Contains(t, payload, models.DailyOccasionName)
}

// TestExport_EmptyCalendar verifies an empty period still serializes a
// valid, eventless document.
func TestExport_EmptyCalendar(t *testing.T) {
	payload := Export(nil)
	assert.Contains(t, payload, "BEGIN:VCALENDAR")
	assert.NotContains(t, payload, "BEGIN:VEVENT")
	assert.Equal(t, 1, strings.Count(payload, "END:VCALENDAR"))
}
