package metrics

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"ganhos/internal/core"
)

var june = time.Date(2024, time.June, 14, 12, 0, 0, 0, time.UTC) // 30-day month

func d(v float64) decimal.Decimal { return decimal.NewFromFloat(v) }

func TestComputeDivisionByZeroSafety(t *testing.T) {
	// Everything zero: no field may be non-zero, and nothing panics.
	got := Compute(core.DashboardTotals{}, nil, core.PeriodMonthly, june)
	zeroes := []decimal.Decimal{
		got.AveragePerPeriod, got.AveragePerHour, got.AveragePerKilometer,
		got.AveragePerTrip, got.AverageHoursPerDay,
		got.TotalHoursWorked, got.TotalKilometers,
	}
	for i, v := range zeroes {
		if !v.IsZero() {
			t.Fatalf("field %d: expected zero, got %s", i, v)
		}
	}
	if got.TotalTrips != 0 || got.DaysWorked != 0 {
		t.Fatalf("expected zero counts, got %+v", got)
	}

	// Revenue present but no hours/km/trips: the ratio fields stay zero.
	totals := core.DashboardTotals{TotalRevenue: d(300)}
	got = Compute(totals, nil, core.PeriodWeekly, june)
	if !got.AveragePerHour.IsZero() || !got.AveragePerKilometer.IsZero() || !got.AveragePerTrip.IsZero() {
		t.Fatalf("expected zero ratios, got %+v", got)
	}
	if want := d(300).Div(d(7)); !got.AveragePerPeriod.Equal(want) {
		t.Fatalf("per period = %s, want %s", got.AveragePerPeriod, want)
	}
}

func TestComputePrefersLocalRevenueData(t *testing.T) {
	// Dashboard totals deliberately conflict with the record sums;
	// local data must win when the list is non-empty.
	totals := core.DashboardTotals{
		TotalRevenue:    d(600),
		TotalHours:      d(999),
		TotalKilometers: d(999),
		TotalTrips:      999,
		DaysWorked:      999,
	}
	revenues := []core.Revenue{
		{Date: "2024-06-10", HoursWorked: d(8), KilometersRidden: d(120), TripsCount: 14},
		{Date: "2024-06-11", HoursWorked: d(6), KilometersRidden: d(80), TripsCount: 10},
		{Date: "2024-06-11", HoursWorked: d(2), KilometersRidden: d(40), TripsCount: 6}, // same day
	}

	got := Compute(totals, revenues, core.PeriodWeekly, june)
	if !got.TotalHoursWorked.Equal(d(16)) {
		t.Fatalf("hours = %s", got.TotalHoursWorked)
	}
	if !got.TotalKilometers.Equal(d(240)) {
		t.Fatalf("kilometers = %s", got.TotalKilometers)
	}
	if got.TotalTrips != 30 {
		t.Fatalf("trips = %d", got.TotalTrips)
	}
	if got.DaysWorked != 2 {
		t.Fatalf("days worked = %d", got.DaysWorked)
	}
	if want := d(600).Div(d(16)); !got.AveragePerHour.Equal(want) {
		t.Fatalf("per hour = %s, want %s", got.AveragePerHour, want)
	}
	if want := d(600).Div(d(240)); !got.AveragePerKilometer.Equal(want) {
		t.Fatalf("per km = %s, want %s", got.AveragePerKilometer, want)
	}
	if want := d(600).Div(d(30)); !got.AveragePerTrip.Equal(want) {
		t.Fatalf("per trip = %s, want %s", got.AveragePerTrip, want)
	}
	if want := d(16).Div(d(2)); !got.AverageHoursPerDay.Equal(want) {
		t.Fatalf("hours per day = %s, want %s", got.AverageHoursPerDay, want)
	}
}

func TestComputeFallsBackToDashboardTotals(t *testing.T) {
	totals := core.DashboardTotals{
		TotalRevenue:    d(450),
		TotalHours:      d(15),
		TotalKilometers: d(300),
		TotalTrips:      25,
		DaysWorked:      3,
	}
	got := Compute(totals, nil, core.PeriodMonthly, june)
	if !got.TotalHoursWorked.Equal(d(15)) || !got.TotalKilometers.Equal(d(300)) {
		t.Fatalf("fallback totals not used: %+v", got)
	}
	if got.TotalTrips != 25 || got.DaysWorked != 3 {
		t.Fatalf("fallback counts not used: %+v", got)
	}
	if want := d(450).Div(d(30)); !got.AveragePerPeriod.Equal(want) {
		t.Fatalf("per period = %s, want %s", got.AveragePerPeriod, want)
	}
}

func TestComputeDailyCollapsesDaysWorked(t *testing.T) {
	revenues := []core.Revenue{
		{Date: "2024-06-14", HoursWorked: d(4)},
		{Date: "2024-06-14", HoursWorked: d(3)},
	}
	got := Compute(core.DashboardTotals{TotalRevenue: d(120)}, revenues, core.PeriodDaily, june)
	if got.DaysWorked != 1 {
		t.Fatalf("daily days worked = %d, want 1", got.DaysWorked)
	}
	if want := d(120); !got.AveragePerPeriod.Equal(want) {
		t.Fatalf("daily per period = %s, want %s", got.AveragePerPeriod, want)
	}

	// No revenue at all on the day: collapses to zero, not one.
	got = Compute(core.DashboardTotals{}, nil, core.PeriodDaily, june)
	if got.DaysWorked != 0 {
		t.Fatalf("empty daily days worked = %d, want 0", got.DaysWorked)
	}
}

func TestComputeMonthlyUsesWallClockMonthLength(t *testing.T) {
	feb := time.Date(2024, time.February, 5, 0, 0, 0, 0, time.UTC)
	got := Compute(core.DashboardTotals{TotalRevenue: d(290)}, nil, core.PeriodMonthly, feb)
	if want := d(10); !got.AveragePerPeriod.Equal(want) {
		t.Fatalf("per period = %s, want %s (29-day february)", got.AveragePerPeriod, want)
	}
}
