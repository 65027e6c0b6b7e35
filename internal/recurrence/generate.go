package recurrence

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"agenda/internal/model"
)

// ErrInvalidRule is returned when a repeat rule cannot drive generation:
// a non-positive interval, an unrecognized type, or the none sentinel.
// Callers are expected to have validated rules upstream, so hitting this
// is a programmer error rather than a user-data condition.
var ErrInvalidRule = errors.New("invalid repeat rule")

// DefaultUntil is the cutoff applied when a rule carries neither an end
// date nor an occurrence count.
var DefaultUntil = model.NewDate(2025, time.September, 30)

// Options tunes one generation call.
type Options struct {
	// MaxCount caps the number of emitted instances regardless of the
	// rule's own count or end date. Zero means no cap.
	MaxCount int

	// NextID allocates the id for the nth emitted instance (n starts at
	// 0). When nil, the seed keeps its own id and later instances take
	// the next ordinals. Persisted batches get their final ids from the
	// store; these are provisional within the batch.
	NextID func(n int) int64
}

// stepper computes the k-th candidate date for a rule. k = 0 is the seed
// date itself. The bool reports whether the step lands on a real calendar
// date; invalid steps return a stand-in date (the nearest valid day in the
// target month) used only for the end-date cutoff check.
//
// Candidates are always derived from the seed date, never from the
// previously emitted instance, so day-of-month and month/day anchors
// cannot drift across skipped steps.
type stepper func(seed model.Date, interval, k int) (model.Date, bool)

var steppers = map[model.RepeatType]stepper{
	model.RepeatDaily: func(seed model.Date, interval, k int) (model.Date, bool) {
		return seed.AddDays(interval * k), true
	},
	model.RepeatWeekly: func(seed model.Date, interval, k int) (model.Date, bool) {
		return seed.AddDays(7 * interval * k), true
	},
	model.RepeatMonthly: stepMonthly,
	model.RepeatYearly:  stepYearly,
}

// stepMonthly keeps the seed's day-of-month. Months that are too short
// (day 31 in a 30-day month, day 29/30 in February) are skipped entirely.
func stepMonthly(seed model.Date, interval, k int) (model.Date, bool) {
	months := int(seed.Month()) - 1 + interval*k
	year := seed.Year() + months/12
	month := time.Month(months%12 + 1)

	last := model.DaysInMonth(year, month)
	if seed.Day() > last {
		return model.NewDate(year, month, last), false
	}
	return model.NewDate(year, month, seed.Day()), true
}

// stepYearly keeps the seed's month and day. A February 29 seed skips
// non-leap years.
func stepYearly(seed model.Date, interval, k int) (model.Date, bool) {
	year := seed.Year() + interval*k

	last := model.DaysInMonth(year, seed.Month())
	if seed.Day() > last {
		return model.NewDate(year, seed.Month(), last), false
	}
	return model.NewDate(year, seed.Month(), seed.Day()), true
}

// Generate expands a seed event into its concrete occurrences under rule.
//
// The seed's own Repeat field is ignored; the explicit rule governs. Every
// emitted instance is a copy of the seed with the candidate date, a
// sequential id, and the rule stamped with one freshly generated group
// token shared by the whole batch. The first instance is the seed date
// itself.
//
// Termination, in priority order: opts.MaxCount, rule.Count, rule.EndDate
// (inclusive), DefaultUntil. Skipped steps (short months, non-leap years)
// never count toward either cap.
func Generate(seed model.Event, rule model.RepeatRule, opts Options) ([]model.Event, error) {
	if !rule.Repeating() {
		return nil, fmt.Errorf("%w: cannot expand a non-repeating rule", ErrInvalidRule)
	}
	step, ok := steppers[rule.Type]
	if !ok {
		return nil, fmt.Errorf("%w: unknown repeat type %q", ErrInvalidRule, rule.Type)
	}
	if rule.Interval < 1 {
		return nil, fmt.Errorf("%w: interval must be positive, got %d", ErrInvalidRule, rule.Interval)
	}

	limit := 0
	var until model.Date
	switch {
	case opts.MaxCount > 0:
		limit = opts.MaxCount
	case rule.Count > 0:
		limit = rule.Count
	case rule.EndDate != nil:
		until = *rule.EndDate
	default:
		until = DefaultUntil
	}

	nextID := opts.NextID
	if nextID == nil {
		nextID = func(n int) int64 { return seed.ID + int64(n) }
	}

	rule.GroupID = NewGroupID()

	var out []model.Event
	for k := 0; ; k++ {
		candidate, valid := step(seed.Date, rule.Interval, k)
		if limit == 0 && candidate.After(until) {
			break
		}
		if !valid {
			continue
		}

		inst := seed
		inst.ID = nextID(len(out))
		inst.Date = candidate
		inst.Repeat = rule
		out = append(out, inst)

		if limit > 0 && len(out) == limit {
			break
		}
	}

	return out, nil
}

// NewGroupID returns a fresh opaque token identifying one expansion batch.
func NewGroupID() string {
	return uuid.NewString()
}
