package api

import (
	"context"
	"net/http"
	"net/url"
	"strconv"

	"github.com/shopspring/decimal"

	"ganhos/internal/core"
)

// Pagination describes a server-paginated listing.
type Pagination struct {
	Page       int `json:"page"`
	Limit      int `json:"limit"`
	Total      int `json:"total"`
	TotalPages int `json:"total_pages"`
}

type pageEnvelope[T any] struct {
	Data       []T        `json:"data"`
	Pagination Pagination `json:"pagination"`
}

// RevenueInput is a revenue sans id, owner and timestamps, as sent on
// creation.
type RevenueInput struct {
	Amount           decimal.Decimal  `json:"amount"`
	Date             string           `json:"date"`
	Description      string           `json:"description"`
	Platform         core.Platform    `json:"platform"`
	HoursWorked      *decimal.Decimal `json:"hours_worked,omitempty"`
	KilometersRidden *decimal.Decimal `json:"kilometers_ridden,omitempty"`
	TripsCount       *int             `json:"trips_count,omitempty"`
}

// RevenueUpdate is a partial edit; nil fields stay untouched.
type RevenueUpdate struct {
	Amount           *decimal.Decimal `json:"amount,omitempty"`
	Date             *string          `json:"date,omitempty"`
	Description      *string          `json:"description,omitempty"`
	Platform         *core.Platform   `json:"platform,omitempty"`
	HoursWorked      *decimal.Decimal `json:"hours_worked,omitempty"`
	KilometersRidden *decimal.Decimal `json:"kilometers_ridden,omitempty"`
	TripsCount       *int             `json:"trips_count,omitempty"`
}

// ExpenseInput is an expense sans id, owner and timestamps.
type ExpenseInput struct {
	Amount      decimal.Decimal `json:"amount"`
	Date        string          `json:"date"`
	Description string          `json:"description"`
	Category    core.Category   `json:"category"`
}

// ExpenseUpdate is a partial edit; nil fields stay untouched.
type ExpenseUpdate struct {
	Amount      *decimal.Decimal `json:"amount,omitempty"`
	Date        *string          `json:"date,omitempty"`
	Description *string          `json:"description,omitempty"`
	Category    *core.Category   `json:"category,omitempty"`
}

// filterQuery derives the shared listing query parameters from a filter.
func filterQuery(f core.Filter, page, limit int) url.Values {
	q := url.Values{}
	if f.StartDate != "" {
		q.Set("start_date", f.StartDate)
	}
	if f.EndDate != "" {
		q.Set("end_date", f.EndDate)
	}
	if page > 0 {
		q.Set("page", strconv.Itoa(page))
	}
	if limit > 0 {
		q.Set("limit", strconv.Itoa(limit))
	}
	return q
}

// ListRevenues fetches one page of revenues matching the filter.
func (c *Client) ListRevenues(ctx context.Context, f core.Filter, page, limit int) ([]core.Revenue, Pagination, error) {
	q := filterQuery(f, page, limit)
	if f.Platform != "" {
		q.Set("platform", string(f.Platform))
	}
	data, err := c.do(ctx, http.MethodGet, "/revenues", q, nil)
	if err != nil {
		return nil, Pagination{}, err
	}
	var out pageEnvelope[core.Revenue]
	if err := decode(data, &out); err != nil {
		return nil, Pagination{}, err
	}
	return out.Data, out.Pagination, nil
}

// CreateRevenue submits a new revenue and returns the server's full record.
func (c *Client) CreateRevenue(ctx context.Context, in RevenueInput) (core.Revenue, error) {
	data, err := c.do(ctx, http.MethodPost, "/revenues", nil, in)
	if err != nil {
		return core.Revenue{}, err
	}
	var out core.Revenue
	if err := decode(data, &out); err != nil {
		return core.Revenue{}, err
	}
	return out, nil
}

// UpdateRevenue applies a partial edit and returns the updated record.
func (c *Client) UpdateRevenue(ctx context.Context, id string, in RevenueUpdate) (core.Revenue, error) {
	data, err := c.do(ctx, http.MethodPut, "/revenues/"+url.PathEscape(id), nil, in)
	if err != nil {
		return core.Revenue{}, err
	}
	var out core.Revenue
	if err := decode(data, &out); err != nil {
		return core.Revenue{}, err
	}
	return out, nil
}

// DeleteRevenue removes a revenue by id. Deletion is immediate; there
// is no soft delete.
func (c *Client) DeleteRevenue(ctx context.Context, id string) error {
	_, err := c.do(ctx, http.MethodDelete, "/revenues/"+url.PathEscape(id), nil, nil)
	return err
}

// ListExpenses fetches one page of expenses matching the filter.
func (c *Client) ListExpenses(ctx context.Context, f core.Filter, page, limit int) ([]core.Expense, Pagination, error) {
	q := filterQuery(f, page, limit)
	if f.Category != "" {
		q.Set("category", string(f.Category))
	}
	data, err := c.do(ctx, http.MethodGet, "/expenses", q, nil)
	if err != nil {
		return nil, Pagination{}, err
	}
	var out pageEnvelope[core.Expense]
	if err := decode(data, &out); err != nil {
		return nil, Pagination{}, err
	}
	return out.Data, out.Pagination, nil
}

// CreateExpense submits a new expense and returns the server's full record.
func (c *Client) CreateExpense(ctx context.Context, in ExpenseInput) (core.Expense, error) {
	data, err := c.do(ctx, http.MethodPost, "/expenses", nil, in)
	if err != nil {
		return core.Expense{}, err
	}
	var out core.Expense
	if err := decode(data, &out); err != nil {
		return core.Expense{}, err
	}
	return out, nil
}

// UpdateExpense applies a partial edit and returns the updated record.
func (c *Client) UpdateExpense(ctx context.Context, id string, in ExpenseUpdate) (core.Expense, error) {
	data, err := c.do(ctx, http.MethodPut, "/expenses/"+url.PathEscape(id), nil, in)
	if err != nil {
		return core.Expense{}, err
	}
	var out core.Expense
	if err := decode(data, &out); err != nil {
		return core.Expense{}, err
	}
	return out, nil
}

// DeleteExpense removes an expense by id.
func (c *Client) DeleteExpense(ctx context.Context, id string) error {
	_, err := c.do(ctx, http.MethodDelete, "/expenses/"+url.PathEscape(id), nil, nil)
	return err
}
