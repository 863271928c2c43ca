package core

import "github.com/shopspring/decimal"

// DashboardTotals are the server-computed aggregates for a filter
// window. Any field may be zero when the server has no data for it;
// absent JSON fields decode to decimal zero values.
type DashboardTotals struct {
	TotalRevenue    decimal.Decimal `json:"total_revenue"`
	TotalExpenses   decimal.Decimal `json:"total_expenses"`
	Balance         decimal.Decimal `json:"balance"`
	TotalHours      decimal.Decimal `json:"total_hours"`
	TotalKilometers decimal.Decimal `json:"total_kilometers"`
	TotalTrips      int             `json:"total_trips"`
	DaysWorked      int             `json:"days_worked"`
}

// PeriodMetrics is DashboardTotals reshaped for period views. Field
// renaming only; no computation happens here.
type PeriodMetrics struct {
	Revenue    decimal.Decimal `json:"revenue"`
	Expenses   decimal.Decimal `json:"expenses"`
	Balance    decimal.Decimal `json:"balance"`
	Hours      decimal.Decimal `json:"hours"`
	Kilometers decimal.Decimal `json:"kilometers"`
	Trips      int             `json:"trips"`
	DaysWorked int             `json:"days_worked"`
}

// ToPeriodMetrics reshapes the totals into the period-view record.
func (d DashboardTotals) ToPeriodMetrics() PeriodMetrics {
	return PeriodMetrics{
		Revenue:    d.TotalRevenue,
		Expenses:   d.TotalExpenses,
		Balance:    d.Balance,
		Hours:      d.TotalHours,
		Kilometers: d.TotalKilometers,
		Trips:      d.TotalTrips,
		DaysWorked: d.DaysWorked,
	}
}
