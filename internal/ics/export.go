// Package ics renders events as an iCalendar feed for subscription by
// external calendar apps.
package ics

import (
	"fmt"

	ical "github.com/arran4/golang-ical"

	"agenda/internal/model"
)

const productID = "-//agenda//calendar//EN"

// Export serializes events as an iCalendar document.
func Export(events []model.Event) string {
	cal := ical.NewCalendar()
	cal.SetMethod(ical.MethodPublish)
	cal.SetProductId(productID)

	for _, e := range events {
		ev := cal.AddEvent(uid(e))
		ev.SetSummary(e.Title)
		if e.Description != "" {
			ev.SetDescription(e.Description)
		}
		if e.Location != "" {
			ev.SetLocation(e.Location)
		}
		ev.SetStartAt(e.Date.At(e.StartTime))
		ev.SetEndAt(e.Date.At(e.EndTime))
		ev.SetDtStampTime(e.Date.At(e.StartTime))
	}

	return cal.Serialize()
}

func uid(e model.Event) string {
	return fmt.Sprintf("agenda-%d@%s", e.ID, e.Date)
}
