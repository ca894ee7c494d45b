package domain

import "time"

// NextOccurrence projects the next occurrence of a recurring transaction
// from base. Month and year steps use time.AddDate, so month-end overflow
// follows Go's normalization (Jan 31 + 1 month lands in early March). The
// projection is pure: same inputs, same output.
func NextOccurrence(base time.Time, interval RecurringInterval) time.Time {
	switch interval {
	case IntervalDaily:
		return base.AddDate(0, 0, 1)
	case IntervalWeekly:
		return base.AddDate(0, 0, 7)
	case IntervalMonthly:
		return base.AddDate(0, 1, 0)
	case IntervalYearly:
		return base.AddDate(1, 0, 0)
	}
	return base
}
