package export

import (
	"testing"

	"github.com/shopspring/decimal"

	"ganhos/internal/core"
)

func dec(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

func TestBuildMonthReportFiltersAndTotals(t *testing.T) {
	revenues := []core.Revenue{
		{ID: "r2", Date: "2024-05-20", Amount: dec("200"), HoursWorked: dec("8"), KilometersRidden: dec("120"), TripsCount: 12, Platform: core.PlatformUber},
		{ID: "r1", Date: "2024-05-10", Amount: dec("100"), HoursWorked: dec("4"), KilometersRidden: dec("80"), TripsCount: 6, Platform: core.Platform99},
		{ID: "r3", Date: "2024-06-01", Amount: dec("999"), Platform: core.PlatformUber},
	}
	expenses := []core.Expense{
		{ID: "e1", Date: "2024-05-11", Amount: dec("50"), Category: core.CategoryFuel},
		{ID: "e2", Date: "2024-04-30", Amount: dec("999"), Category: core.CategoryFood},
	}

	rep, err := BuildMonthReport("2024-05", revenues, expenses, nil)
	if err != nil {
		t.Fatalf("BuildMonthReport: %v", err)
	}

	if len(rep.Revenues) != 2 {
		t.Fatalf("expected 2 revenues in month, got %d", len(rep.Revenues))
	}
	if rep.Revenues[0].ID != "r1" || rep.Revenues[1].ID != "r2" {
		t.Fatalf("revenues not sorted by date: %s, %s", rep.Revenues[0].ID, rep.Revenues[1].ID)
	}
	if len(rep.Expenses) != 1 {
		t.Fatalf("expected 1 expense in month, got %d", len(rep.Expenses))
	}
	if !rep.Totals.TotalRevenue.Equal(dec("300")) {
		t.Fatalf("total revenue = %s, want 300", rep.Totals.TotalRevenue)
	}
	if !rep.Totals.Balance.Equal(dec("250")) {
		t.Fatalf("balance = %s, want 250", rep.Totals.Balance)
	}
	if rep.Totals.TotalTrips != 18 {
		t.Fatalf("trips = %d, want 18", rep.Totals.TotalTrips)
	}
	if rep.Totals.DaysWorked != 2 {
		t.Fatalf("days worked = %d, want 2", rep.Totals.DaysWorked)
	}
	if !rep.Indicators.AveragePerHour.Equal(dec("25")) {
		t.Fatalf("average per hour = %s, want 25", rep.Indicators.AveragePerHour)
	}
}

func TestBuildMonthReportRejectsBadMonth(t *testing.T) {
	if _, err := BuildMonthReport("2024-5", nil, nil, nil); err == nil {
		t.Fatal("expected error for malformed month key")
	}
}

func TestReportRowsIncludeGoalOutcome(t *testing.T) {
	rep := MonthReport{
		Month: "2024-05",
		Goal: &core.GoalHistoryEntry{
			Month:          "2024-05",
			TargetAmount:   dec("1000"),
			AchievedAmount: dec("1200"),
			Percentage:     dec("120"),
			Achieved:       true,
		},
	}

	rows := reportRows(rep)

	found := false
	for _, row := range rows {
		if len(row) == 2 && row[0] == "Goal met" {
			found = true
			if row[1] != true {
				t.Fatalf("goal met cell = %v, want true", row[1])
			}
		}
	}
	if !found {
		t.Fatal("goal outcome rows missing from report")
	}
}

func TestReportRowsWithoutGoalOmitGoalSection(t *testing.T) {
	rows := reportRows(MonthReport{Month: "2024-05"})
	for _, row := range rows {
		if len(row) > 0 && row[0] == "Goal target" {
			t.Fatal("goal rows present for report without goal")
		}
	}
}
