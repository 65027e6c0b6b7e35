// Package conflict detects schedule overlaps between events.
package conflict

import "agenda/internal/model"

// Overlaps reports whether two events occupy overlapping time on the same
// date. Time ranges are half-open [start, end), so ranges that merely
// touch (one ends exactly when the other starts) do not overlap. An event
// never overlaps itself: a shared non-zero id means "same event", which
// lets an edit be checked against a collection that still contains its
// previous version.
func Overlaps(a, b model.Event) bool {
	if a.ID == b.ID && a.ID != 0 {
		return false
	}
	if !a.Date.Equal(b.Date) {
		return false
	}
	return a.StartTime < b.EndTime && b.StartTime < a.EndTime
}

// FindConflicts returns the events in existing that overlap the candidate,
// order preserved. An empty result means the candidate is safe to save.
func FindConflicts(candidate model.Event, existing []model.Event) []model.Event {
	var conflicts []model.Event
	for _, e := range existing {
		if Overlaps(candidate, e) {
			conflicts = append(conflicts, e)
		}
	}
	return conflicts
}
