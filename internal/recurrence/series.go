package recurrence

import "agenda/internal/model"

// Detach converts a single instance of a recurring series into a
// standalone event: the group token is cleared and the repeat rule reset
// to the none sentinel. Editing an individual instance always detaches it,
// whatever repeat value the edit supplied, so the result no longer
// participates in whole-series operations.
func Detach(e model.Event) model.Event {
	e.Repeat = model.NoRepeat()
	return e
}

// GroupMembers returns the events belonging to the given series, order
// preserved. Membership is by value equality of the group token only;
// detached former members never match. An empty groupID matches nothing.
func GroupMembers(events []model.Event, groupID string) []model.Event {
	if groupID == "" {
		return nil
	}
	var members []model.Event
	for _, e := range events {
		if e.Repeat.GroupID == groupID {
			members = append(members, e)
		}
	}
	return members
}
