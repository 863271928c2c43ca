// Package metrics derives period indicators from revenue data. The
// computation is pure: dashboard totals plus the in-memory revenue list
// in, a flat Indicators record out, nothing stored.
package metrics

import (
	"time"

	"github.com/shopspring/decimal"

	"ganhos/internal/core"
)

// Indicators is the flat record of derived statistics recomputed on
// demand for period views.
type Indicators struct {
	AveragePerPeriod    decimal.Decimal `json:"average_per_period"`
	AveragePerHour      decimal.Decimal `json:"average_per_hour"`
	AveragePerKilometer decimal.Decimal `json:"average_per_kilometer"`
	AveragePerTrip      decimal.Decimal `json:"average_per_trip"`
	AverageHoursPerDay  decimal.Decimal `json:"average_hours_per_day"`
	TotalHoursWorked    decimal.Decimal `json:"total_hours_worked"`
	TotalKilometers     decimal.Decimal `json:"total_kilometers"`
	TotalTrips          int             `json:"total_trips"`
	DaysWorked          int             `json:"days_worked"`
}

// safeDiv divides a by b, returning zero when b is zero. Indicators
// never carry NaN or infinity.
func safeDiv(a, b decimal.Decimal) decimal.Decimal {
	if b.IsZero() {
		return decimal.Zero
	}
	return a.Div(b)
}

// Compute reduces dashboard totals, the current revenue list and a
// period granularity into Indicators.
//
// When revenues is non-empty the hours, kilometers, trips and
// days-worked figures are summed from the records themselves, ignoring
// whatever the dashboard totals claim; the totals are only a fallback
// for an empty list. The two sources can disagree and local data wins.
func Compute(totals core.DashboardTotals, revenues []core.Revenue, period core.Period, now time.Time) Indicators {
	var (
		hours      = totals.TotalHours
		kilometers = totals.TotalKilometers
		trips      = totals.TotalTrips
		daysWorked = totals.DaysWorked
	)

	if len(revenues) > 0 {
		hours = decimal.Zero
		kilometers = decimal.Zero
		trips = 0
		seen := make(map[string]struct{}, len(revenues))
		for _, r := range revenues {
			hours = hours.Add(r.HoursWorked)
			kilometers = kilometers.Add(r.KilometersRidden)
			trips += r.TripsCount
			seen[r.Date] = struct{}{}
		}
		daysWorked = len(seen)
		if period == core.PeriodDaily {
			// A single day's filtered records all share one date, so
			// the distinct count collapses to "worked today or not".
			daysWorked = 1
		}
	} else if period == core.PeriodDaily && daysWorked > 1 {
		daysWorked = 1
	}

	revenue := totals.TotalRevenue
	days := decimal.NewFromInt(int64(period.Days(now)))

	return Indicators{
		AveragePerPeriod:    safeDiv(revenue, days),
		AveragePerHour:      safeDiv(revenue, hours),
		AveragePerKilometer: safeDiv(revenue, kilometers),
		AveragePerTrip:      safeDiv(revenue, decimal.NewFromInt(int64(trips))),
		AverageHoursPerDay:  safeDiv(hours, decimal.NewFromInt(int64(daysWorked))),
		TotalHoursWorked:    hours,
		TotalKilometers:     kilometers,
		TotalTrips:          trips,
		DaysWorked:          daysWorked,
	}
}
