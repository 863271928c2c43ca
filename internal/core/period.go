package core

import "time"

const (
	PeriodDaily   Period = "daily"
	PeriodWeekly  Period = "weekly"
	PeriodMonthly Period = "monthly"
)

// Period is a UI-selectable granularity used both for filtering and for
// normalizing per-period averages.
type Period string

func (p Period) Valid() bool {
	switch p {
	case PeriodDaily, PeriodWeekly, PeriodMonthly:
		return true
	}
	return false
}

// Days returns the divisor used to normalize a total into a per-period
// average. The monthly divisor is the length of now's wall-clock month,
// not the filtered window's month.
func (p Period) Days(now time.Time) int {
	switch p {
	case PeriodDaily:
		return 1
	case PeriodWeekly:
		return 7
	case PeriodMonthly:
		return DaysInMonth(now)
	}
	return 1
}
