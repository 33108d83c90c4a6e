// Package ics renders a period of the outfit calendar as an iCalendar
// payload, so plans can be pulled into an external calendar app.
package ics

import (
	"fmt"
	"time"

	ical "github.com/arran4/golang-ical"

	"github.com/wardrobeapp/wearcal/internal/calendar"
	"github.com/wardrobeapp/wearcal/internal/models"
)

// Export serializes the aggregated days into an ICS document. Each
// occasion row becomes a VEVENT; daily rows and occasions without a
// start time are emitted as all-day events.
func Export(days map[time.Time]*calendar.DaySummary) string {
	cal := ical.NewCalendar()
	cal.SetMethod(ical.MethodPublish)
	cal.SetProductId("-//wardrobeapp//wearcal//EN")

	for _, day := range days {
		for i, item := range day.Items {
			uid := eventUID(day.Date, i, item)
			ev := cal.AddEvent(uid)
			ev.SetDtStampTime(time.Now().UTC())
			ev.SetSummary(summaryFor(item))

			if item.Occasion != nil && item.Occasion.Description != "" {
				ev.SetDescription(item.Occasion.Description)
			}

			start, ok := startTimeFor(item)
			if !ok {
				ev.SetAllDayStartAt(day.Date)
				ev.SetAllDayEndAt(day.Date.AddDate(0, 0, 1))
				continue
			}
			ev.SetStartAt(start)
			if item.Occasion != nil && !item.Occasion.EndTime.IsZero() {
				ev.SetEndAt(item.Occasion.EndTime)
			} else {
				ev.SetEndAt(start.Add(time.Hour))
			}
		}
	}

	return cal.Serialize()
}

func eventUID(date time.Time, idx int, item calendar.DayItem) string {
	if item.Entry != nil {
		return item.Entry.ID + "@wearcal"
	}
	if item.Occasion != nil {
		return item.Occasion.ID + "@wearcal"
	}
	return fmt.Sprintf("%s-%d@wearcal", date.Format(time.DateOnly), idx)
}

func summaryFor(item calendar.DayItem) string {
	name := models.DailyOccasionName
	if item.Occasion != nil {
		name = item.Occasion.Name
	}
	if n := item.OutfitCount(); n > 0 {
		return fmt.Sprintf("%s (%d outfit(s))", name, n)
	}
	return name
}

func startTimeFor(item calendar.DayItem) (time.Time, bool) {
	if item.Daily || item.Occasion == nil || item.Occasion.StartTime.IsZero() {
		return time.Time{}, false
	}
	return item.Occasion.StartTime, true
}
