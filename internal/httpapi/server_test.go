package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/shopspring/decimal"

	"ganhos/internal/api"
	"ganhos/internal/core"
	"ganhos/internal/state"
)

// stubRemote serves fixed data; mutations are not exercised here.
type stubRemote struct {
	revenues []core.Revenue
	expenses []core.Expense
	goal     *core.MonthlyGoal
	totals   core.DashboardTotals
	dashErr  error
}

func (s *stubRemote) ListRevenues(_ context.Context, _ core.Filter, page, _ int) ([]core.Revenue, api.Pagination, error) {
	if page > 1 {
		return nil, api.Pagination{TotalPages: 1}, nil
	}
	return s.revenues, api.Pagination{Page: 1, Total: len(s.revenues), TotalPages: 1}, nil
}

func (s *stubRemote) CreateRevenue(_ context.Context, _ api.RevenueInput) (core.Revenue, error) {
	return core.Revenue{}, errors.New("not implemented")
}

func (s *stubRemote) UpdateRevenue(_ context.Context, _ string, _ api.RevenueUpdate) (core.Revenue, error) {
	return core.Revenue{}, errors.New("not implemented")
}

func (s *stubRemote) DeleteRevenue(_ context.Context, _ string) error {
	return errors.New("not implemented")
}

func (s *stubRemote) ListExpenses(_ context.Context, _ core.Filter, page, _ int) ([]core.Expense, api.Pagination, error) {
	if page > 1 {
		return nil, api.Pagination{TotalPages: 1}, nil
	}
	return s.expenses, api.Pagination{Page: 1, Total: len(s.expenses), TotalPages: 1}, nil
}

func (s *stubRemote) CreateExpense(_ context.Context, _ api.ExpenseInput) (core.Expense, error) {
	return core.Expense{}, errors.New("not implemented")
}

func (s *stubRemote) UpdateExpense(_ context.Context, _ string, _ api.ExpenseUpdate) (core.Expense, error) {
	return core.Expense{}, errors.New("not implemented")
}

func (s *stubRemote) DeleteExpense(_ context.Context, _ string) error {
	return errors.New("not implemented")
}

func (s *stubRemote) GetDashboard(_ context.Context, _ core.Filter) (core.DashboardTotals, error) {
	if s.dashErr != nil {
		return core.DashboardTotals{}, s.dashErr
	}
	return s.totals, nil
}

func (s *stubRemote) GetMonthlyGoal(_ context.Context, _ string) (*core.MonthlyGoal, error) {
	return s.goal, nil
}

func dec(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

func loadedServer(t *testing.T, remote *stubRemote) *Server {
	t.Helper()
	store := state.NewStore(remote)
	if err := store.Load(context.Background()); err != nil {
		t.Fatalf("load: %v", err)
	}
	return NewServer("127.0.0.1:0", store, nil)
}

func doGet(t *testing.T, s *Server, path string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	rec := httptest.NewRecorder()
	s.Server.Handler.ServeHTTP(rec, req)
	return rec
}

func TestHealthAndReady(t *testing.T) {
	s := loadedServer(t, &stubRemote{})

	if rec := doGet(t, s, "/healthz"); rec.Code != http.StatusOK {
		t.Fatalf("healthz status = %d", rec.Code)
	}
	if rec := doGet(t, s, "/readyz"); rec.Code != http.StatusOK {
		t.Fatalf("readyz status = %d", rec.Code)
	}
}

func TestReadyzReportsPendingLoad(t *testing.T) {
	store := state.NewStore(&stubRemote{})
	s := NewServer("127.0.0.1:0", store, func() bool { return false })

	if rec := doGet(t, s, "/readyz"); rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("readyz status = %d, want 503", rec.Code)
	}
}

func TestSummaryReturnsTotals(t *testing.T) {
	s := loadedServer(t, &stubRemote{
		totals: core.DashboardTotals{
			TotalRevenue:  dec("500"),
			TotalExpenses: dec("120"),
			Balance:       dec("380"),
		},
	})

	rec := doGet(t, s, "/v1/summary")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
	var resp struct {
		Totals core.DashboardTotals `json:"totals"`
		Period core.Period          `json:"period"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !resp.Totals.Balance.Equal(dec("380")) {
		t.Fatalf("balance = %s, want 380", resp.Totals.Balance)
	}
	if resp.Period != core.PeriodMonthly {
		t.Fatalf("period = %s, want monthly", resp.Period)
	}
}

func TestSummaryPropagatesDashboardFailure(t *testing.T) {
	store := state.NewStore(&stubRemote{dashErr: errors.New("upstream down")})
	s := NewServer("127.0.0.1:0", store, nil)

	rec := doGet(t, s, "/v1/summary")
	if rec.Code != http.StatusBadGateway {
		t.Fatalf("status = %d, want 502", rec.Code)
	}
}

func TestRevenuesAndExpensesList(t *testing.T) {
	s := loadedServer(t, &stubRemote{
		revenues: []core.Revenue{
			{ID: "r1", Date: "2024-05-10", Amount: dec("100"), Platform: core.PlatformUber},
		},
		expenses: []core.Expense{
			{ID: "e1", Date: "2024-05-11", Amount: dec("40"), Category: core.CategoryFuel},
		},
	})

	rec := doGet(t, s, "/v1/revenues")
	if rec.Code != http.StatusOK {
		t.Fatalf("revenues status = %d", rec.Code)
	}
	var revenues []core.Revenue
	if err := json.Unmarshal(rec.Body.Bytes(), &revenues); err != nil {
		t.Fatalf("decode revenues: %v", err)
	}
	if len(revenues) != 1 || revenues[0].ID != "r1" {
		t.Fatalf("unexpected revenues: %+v", revenues)
	}

	rec = doGet(t, s, "/v1/expenses")
	var expenses []core.Expense
	if err := json.Unmarshal(rec.Body.Bytes(), &expenses); err != nil {
		t.Fatalf("decode expenses: %v", err)
	}
	if len(expenses) != 1 || expenses[0].ID != "e1" {
		t.Fatalf("unexpected expenses: %+v", expenses)
	}
}

func TestGoalNotFound(t *testing.T) {
	s := loadedServer(t, &stubRemote{})

	rec := doGet(t, s, "/v1/goal")
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rec.Code)
	}
}

func TestGoalWithProgress(t *testing.T) {
	s := loadedServer(t, &stubRemote{
		goal: &core.MonthlyGoal{
			ID:            "g1",
			Month:         "2024-05",
			TargetAmount:  dec("1000"),
			CurrentAmount: dec("250"),
		},
	})

	rec := doGet(t, s, "/v1/goal")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
	var resp struct {
		ID       string `json:"id"`
		Progress string `json:"progress"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.ID != "g1" {
		t.Fatalf("goal id = %s", resp.ID)
	}
	if resp.Progress != "25.00" {
		t.Fatalf("progress = %s, want 25.00", resp.Progress)
	}
}

func TestGoalHistoryEmptyIsArray(t *testing.T) {
	s := loadedServer(t, &stubRemote{})

	rec := doGet(t, s, "/v1/goal/history")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if got := rec.Body.String(); got != "[]\n" {
		t.Fatalf("body = %q, want empty JSON array", got)
	}
}

func TestWritesRejected(t *testing.T) {
	s := loadedServer(t, &stubRemote{})

	req := httptest.NewRequest(http.MethodPost, "/v1/revenues", nil)
	rec := httptest.NewRecorder()
	s.Server.Handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusMethodNotAllowed {
		t.Fatalf("status = %d, want 405", rec.Code)
	}
	if allow := rec.Header().Get("Allow"); allow != "GET" {
		t.Fatalf("Allow header = %q", allow)
	}
}
