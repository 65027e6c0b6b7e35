package notify

import (
	"testing"
	"time"

	"agenda/internal/model"
)

func reminderEvent(date model.Date, start string, lead int) model.Event {
	st, _ := model.ParseTimeOfDay(start)
	return model.Event{
		ID:               1,
		Title:            "Meeting",
		Date:             date,
		StartTime:        st,
		EndTime:          st + 60,
		NotificationTime: lead,
	}
}

func TestDue(t *testing.T) {
	today := model.NewDate(2025, time.May, 18)
	at := func(hhmm string) time.Time {
		tod, _ := model.ParseTimeOfDay(hhmm)
		return today.At(tod)
	}

	tests := []struct {
		name  string
		event model.Event
		now   time.Time
		want  bool
	}{
		{"inside lead window", reminderEvent(today, "10:00", 10), at("09:55"), true},
		{"exactly at lead boundary", reminderEvent(today, "10:00", 10), at("09:50"), true},
		{"before window", reminderEvent(today, "10:00", 10), at("09:49"), false},
		{"already started", reminderEvent(today, "10:00", 10), at("10:00"), false},
		{"no lead time configured", reminderEvent(today, "10:00", 0), at("09:55"), false},
		{"different day", reminderEvent(model.NewDate(2025, time.May, 19), "10:00", 10), at("09:55"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Due(tt.event, tt.now); got != tt.want {
				t.Errorf("Due = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestMinutesUntil(t *testing.T) {
	today := model.NewDate(2025, time.May, 18)
	e := reminderEvent(today, "14:30", 30)

	now := today.At(14*60 + 5)
	if got := MinutesUntil(e, now); got != 25 {
		t.Errorf("MinutesUntil = %d, want 25", got)
	}

	now = today.At(14*60 + 45)
	if got := MinutesUntil(e, now); got != -15 {
		t.Errorf("MinutesUntil after start = %d, want -15", got)
	}
}
