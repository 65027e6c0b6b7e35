package model

import "time"

// RepeatType identifies how an event recurs.
type RepeatType string

const (
	RepeatNone    RepeatType = "none"
	RepeatDaily   RepeatType = "daily"
	RepeatWeekly  RepeatType = "weekly"
	RepeatMonthly RepeatType = "monthly"
	RepeatYearly  RepeatType = "yearly"
)

// RepeatRule describes the recurrence of one seed event. Non-recurring
// events carry the sentinel rule returned by NoRepeat.
type RepeatRule struct {
	Type     RepeatType `json:"type"`
	Interval int        `json:"interval"`
	EndDate  *Date      `json:"end_date,omitempty"`
	Count    int        `json:"count,omitempty"`
	GroupID  string     `json:"group_id,omitempty"`
}

// NoRepeat returns the sentinel rule for a standalone event.
func NoRepeat() RepeatRule {
	return RepeatRule{Type: RepeatNone}
}

// Repeating reports whether the rule describes actual recurrence.
func (r RepeatRule) Repeating() bool {
	return r.Type != RepeatNone && r.Type != ""
}

type Event struct {
	ID               int64      `json:"id"`
	Title            string     `json:"title"`
	Description      string     `json:"description"`
	Location         string     `json:"location"`
	Category         string     `json:"category"`
	Date             Date       `json:"date"`
	StartTime        TimeOfDay  `json:"start_time"`
	EndTime          TimeOfDay  `json:"end_time"`
	Repeat           RepeatRule `json:"repeat"`
	NotificationTime int        `json:"notification_time"`
	CreatedAt        time.Time  `json:"created_at"`
	UpdatedAt        time.Time  `json:"updated_at"`
}
