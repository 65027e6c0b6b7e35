// Package calendar builds the day/week/month views rendered by the UI.
package calendar

import (
	"fmt"
	"strings"
	"time"

	"agenda/internal/model"
)

// Day is one cell of a calendar view: the date, an optional holiday label,
// and the events scheduled on it.
type Day struct {
	Date    model.Date    `json:"date"`
	InMonth bool          `json:"in_month"`
	Holiday string        `json:"holiday,omitempty"`
	Events  []model.Event `json:"events"`
}

// holidays maps fixed-date holidays by "MM-DD".
var holidays = map[string]string{
	"01-01": "New Year's Day",
	"02-14": "Valentine's Day",
	"07-04": "Independence Day",
	"10-31": "Halloween",
	"12-24": "Christmas Eve",
	"12-25": "Christmas Day",
	"12-31": "New Year's Eve",
}

// HolidayName returns the holiday label for a date, or "".
func HolidayName(d model.Date) string {
	return holidays[fmt.Sprintf("%02d-%02d", d.Month(), d.Day())]
}

// Week returns the seven days of the week containing date, Sunday first,
// each populated with its events from the given collection.
func Week(date model.Date, events []model.Event) []Day {
	sunday := date.AddDays(-int(date.Weekday()))

	days := make([]Day, 7)
	for i := range days {
		days[i] = makeDay(sunday.AddDays(i), true, events)
	}
	return days
}

// MonthGrid returns the weeks of a month as rows of seven days, Sunday
// first. Leading and trailing cells from adjacent months are included to
// square off the grid and marked with InMonth=false.
func MonthGrid(year int, month time.Month, events []model.Event) [][]Day {
	first := model.NewDate(year, month, 1)
	last := model.NewDate(year, month, model.DaysInMonth(year, month))

	cursor := first.AddDays(-int(first.Weekday()))
	gridEnd := last.AddDays(6 - int(last.Weekday()))

	var weeks [][]Day
	for !cursor.After(gridEnd) {
		week := make([]Day, 7)
		for i := range week {
			week[i] = makeDay(cursor, cursor.Month() == month, events)
			cursor = cursor.AddDays(1)
		}
		weeks = append(weeks, week)
	}
	return weeks
}

func makeDay(date model.Date, inMonth bool, events []model.Event) Day {
	day := Day{
		Date:    date,
		InMonth: inMonth,
		Holiday: HolidayName(date),
		Events:  []model.Event{},
	}
	for _, e := range events {
		if e.Date.Equal(date) {
			day.Events = append(day.Events, e)
		}
	}
	return day
}

// Filter returns the events whose title, description, or location contains
// the keyword, case-insensitively. An empty keyword matches everything.
func Filter(events []model.Event, keyword string) []model.Event {
	if keyword == "" {
		return events
	}
	kw := strings.ToLower(keyword)

	var matched []model.Event
	for _, e := range events {
		if strings.Contains(strings.ToLower(e.Title), kw) ||
			strings.Contains(strings.ToLower(e.Description), kw) ||
			strings.Contains(strings.ToLower(e.Location), kw) {
			matched = append(matched, e)
		}
	}
	return matched
}
