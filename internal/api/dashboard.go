package api

import (
	"context"
	"errors"
	"net/http"
	"net/url"

	"ganhos/internal/core"
)

// GetDashboard fetches the server-computed aggregates for the filter's
// date window.
func (c *Client) GetDashboard(ctx context.Context, f core.Filter) (core.DashboardTotals, error) {
	q := url.Values{}
	if f.StartDate != "" {
		q.Set("start_date", f.StartDate)
	}
	if f.EndDate != "" {
		q.Set("end_date", f.EndDate)
	}
	data, err := c.do(ctx, http.MethodGet, "/dashboard", q, nil)
	if err != nil {
		return core.DashboardTotals{}, err
	}
	var out core.DashboardTotals
	if err := decode(data, &out); err != nil {
		return core.DashboardTotals{}, err
	}
	return out, nil
}

// GetMonthlyGoal fetches the goal for a YYYY-MM month. A missing goal
// is an expected condition and returns (nil, nil), never an error.
func (c *Client) GetMonthlyGoal(ctx context.Context, month string) (*core.MonthlyGoal, error) {
	q := url.Values{}
	q.Set("month", month)
	data, err := c.do(ctx, http.MethodGet, "/goals/monthly", q, nil)
	if err != nil {
		// Only here does a 404 mean "no goal yet"; everywhere else a
		// missing resource is a real failure with the server's message.
		var apiErr *APIError
		if errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusNotFound {
			return nil, nil
		}
		return nil, err
	}
	var out core.MonthlyGoal
	if err := decode(data, &out); err != nil {
		return nil, err
	}
	if out.ID == "" {
		// success envelope with an empty payload also means "no goal yet"
		return nil, nil
	}
	return &out, nil
}
