package domain

import "time"

// DeadlineState is the urgency bucket of a deadline relative to a
// reference time.
type DeadlineState string

const (
	DeadlineAbsent      DeadlineState = "absent"
	DeadlineOverdue     DeadlineState = "overdue"
	DeadlineUrgent      DeadlineState = "urgent"
	DeadlineApproaching DeadlineState = "approaching"
	DeadlineNormal      DeadlineState = "normal"
)

const (
	urgentWindowDays      = 3
	approachingWindowDays = 7
)

// ClassifyDeadline maps a deadline to an urgency bucket.
//
// Remaining days are counted in calendar days in now's location, not
// elapsed hours: a deadline today is 0 days remaining and therefore
// urgent, never overdue. Overdue means strictly before the start of
// now's day.
func ClassifyDeadline(deadline *time.Time, now time.Time) DeadlineState {
	if deadline == nil {
		return DeadlineAbsent
	}

	days := daysBetween(now, deadline.In(now.Location()))
	switch {
	case days < 0:
		return DeadlineOverdue
	case days <= urgentWindowDays:
		return DeadlineUrgent
	case days <= approachingWindowDays:
		return DeadlineApproaching
	default:
		return DeadlineNormal
	}
}

// DaysRemaining returns whole calendar days until the deadline, negative
// if it already passed. Returns 0, false when there is no deadline.
func DaysRemaining(deadline *time.Time, now time.Time) (int, bool) {
	if deadline == nil {
		return 0, false
	}
	return daysBetween(now, deadline.In(now.Location())), true
}

// daysBetween counts calendar days from the day of from to the day of
// to. Both dates are re-anchored in UTC so the count is unaffected by
// DST transitions shortening or stretching local days.
func daysBetween(from, to time.Time) int {
	f := time.Date(from.Year(), from.Month(), from.Day(), 0, 0, 0, 0, time.UTC)
	t := time.Date(to.Year(), to.Month(), to.Day(), 0, 0, 0, 0, time.UTC)
	return int(t.Sub(f).Hours() / 24)
}
