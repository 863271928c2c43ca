// Package export appends monthly earnings reports to a Google
// Spreadsheet so drivers can keep a shareable history outside the app.
package export

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sort"
	"strings"
	"time"

	"ganhos/internal/core"
	"ganhos/internal/metrics"

	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"
)

// Reporter writes month reports to a single spreadsheet. Sheet names are
// year-prefixed (e.g. "2026 Earnings") so one spreadsheet can hold the
// full driving history.
type Reporter struct {
	svc           *gsheet.Service
	spreadsheetID string
	sheetBase     string
}

// Config carries the settings needed to build a Reporter. CredentialsJSON
// and CredentialsFile are alternatives; inline JSON wins when both are set.
type Config struct {
	SpreadsheetID   string
	SheetBase       string
	CredentialsJSON string
	CredentialsFile string
}

// New creates a Reporter from explicit configuration.
func New(ctx context.Context, cfg Config) (*Reporter, error) {
	spreadsheetID := strings.TrimSpace(cfg.SpreadsheetID)
	if spreadsheetID == "" {
		return nil, errors.New("missing spreadsheet id")
	}
	sheetBase := strings.TrimSpace(cfg.SheetBase)
	if sheetBase == "" {
		sheetBase = "Earnings"
	}

	svc, err := newSheetsService(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("sheets service: %w", err)
	}

	return &Reporter{
		svc:           svc,
		spreadsheetID: spreadsheetID,
		sheetBase:     sheetBase,
	}, nil
}

// NewFromEnv creates a Reporter using environment variables.
// Required: GOOGLE_SPREADSHEET_ID
// Auth: GOOGLE_SERVICE_ACCOUNT_JSON, GOOGLE_SERVICE_ACCOUNT_FILE, or
// GOOGLE_APPLICATION_CREDENTIALS.
// Optional: GOOGLE_SHEET_NAME (default "Earnings").
func NewFromEnv(ctx context.Context) (*Reporter, error) {
	return New(ctx, Config{
		SpreadsheetID:   os.Getenv("GOOGLE_SPREADSHEET_ID"),
		SheetBase:       os.Getenv("GOOGLE_SHEET_NAME"),
		CredentialsJSON: os.Getenv("GOOGLE_SERVICE_ACCOUNT_JSON"),
		CredentialsFile: credentialsFileFromEnv(),
	})
}

func credentialsFileFromEnv() string {
	if f := strings.TrimSpace(os.Getenv("GOOGLE_SERVICE_ACCOUNT_FILE")); f != "" {
		return f
	}
	return strings.TrimSpace(os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"))
}

func newSheetsService(ctx context.Context, cfg Config) (*gsheet.Service, error) {
	var credentialsJSON []byte

	switch {
	case strings.TrimSpace(cfg.CredentialsJSON) != "":
		credentialsJSON = []byte(cfg.CredentialsJSON)
	case strings.TrimSpace(cfg.CredentialsFile) != "":
		data, err := os.ReadFile(strings.TrimSpace(cfg.CredentialsFile))
		if err != nil {
			return nil, fmt.Errorf("read service account file: %w", err)
		}
		credentialsJSON = data
	default:
		return nil, errors.New("missing service account credentials")
	}

	svc, err := gsheet.NewService(ctx,
		goption.WithCredentialsJSON(credentialsJSON),
		goption.WithScopes(gsheet.SpreadsheetsScope))
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}
	return svc, nil
}

// MonthReport is one month of driving results, flattened for export.
type MonthReport struct {
	Month      string
	Totals     core.DashboardTotals
	Indicators metrics.Indicators
	Goal       *core.GoalHistoryEntry
	Revenues   []core.Revenue
	Expenses   []core.Expense
}

// BuildMonthReport assembles a MonthReport from the records of a single
// month. Records outside the month are ignored, so callers can pass an
// unfiltered slice.
func BuildMonthReport(month string, revenues []core.Revenue, expenses []core.Expense, goal *core.GoalHistoryEntry) (MonthReport, error) {
	if err := core.ValidateMonth(month); err != nil {
		return MonthReport{}, err
	}

	var revs []core.Revenue
	for _, r := range revenues {
		if core.MonthOf(r.Date) == month {
			revs = append(revs, r)
		}
	}
	var exps []core.Expense
	for _, e := range expenses {
		if core.MonthOf(e.Date) == month {
			exps = append(exps, e)
		}
	}
	sort.Slice(revs, func(i, j int) bool { return revs[i].Date < revs[j].Date })
	sort.Slice(exps, func(i, j int) bool { return exps[i].Date < exps[j].Date })

	totals := core.DashboardTotals{}
	days := make(map[string]struct{}, len(revs))
	for _, r := range revs {
		totals.TotalRevenue = totals.TotalRevenue.Add(r.Amount)
		totals.TotalHours = totals.TotalHours.Add(r.HoursWorked)
		totals.TotalKilometers = totals.TotalKilometers.Add(r.KilometersRidden)
		totals.TotalTrips += r.TripsCount
		days[r.Date] = struct{}{}
	}
	for _, e := range exps {
		totals.TotalExpenses = totals.TotalExpenses.Add(e.Amount)
	}
	totals.Balance = totals.TotalRevenue.Sub(totals.TotalExpenses)
	totals.DaysWorked = len(days)

	monthStart, err := time.Parse("2006-01", month)
	if err != nil {
		return MonthReport{}, fmt.Errorf("parse month %q: %w", month, err)
	}
	ind := metrics.Compute(totals, revs, core.PeriodMonthly, monthStart)

	return MonthReport{
		Month:      month,
		Totals:     totals,
		Indicators: ind,
		Goal:       goal,
		Revenues:   revs,
		Expenses:   exps,
	}, nil
}

// reportRows flattens a MonthReport into spreadsheet rows. Kept separate
// from the API call so the layout can be tested without a live service.
func reportRows(rep MonthReport) [][]any {
	rows := [][]any{
		{"Month", rep.Month},
		{"Generated", time.Now().Format("2006-01-02")},
		{},
		{"Total revenue", rep.Totals.TotalRevenue.String()},
		{"Total expenses", rep.Totals.TotalExpenses.String()},
		{"Balance", rep.Totals.Balance.String()},
		{"Hours worked", rep.Totals.TotalHours.String()},
		{"Kilometers", rep.Totals.TotalKilometers.String()},
		{"Trips", rep.Totals.TotalTrips},
		{"Days worked", rep.Totals.DaysWorked},
		{"Average per hour", rep.Indicators.AveragePerHour.String()},
		{"Average per km", rep.Indicators.AveragePerKilometer.String()},
		{"Average per trip", rep.Indicators.AveragePerTrip.String()},
	}

	if rep.Goal != nil {
		rows = append(rows,
			[]any{},
			[]any{"Goal target", rep.Goal.TargetAmount.String()},
			[]any{"Goal achieved amount", rep.Goal.AchievedAmount.String()},
			[]any{"Goal percentage", rep.Goal.Percentage.String()},
			[]any{"Goal met", rep.Goal.Achieved},
		)
	}

	rows = append(rows, []any{}, []any{"Date", "Type", "Platform/Category", "Description", "Amount"})
	for _, r := range rep.Revenues {
		rows = append(rows, []any{r.Date, "revenue", string(r.Platform), r.Description, r.Amount.String()})
	}
	for _, e := range rep.Expenses {
		rows = append(rows, []any{e.Date, "expense", string(e.Category), e.Description, e.Amount.String()})
	}
	return rows
}

// AppendMonth writes the report below any existing content on the year's
// sheet and returns the written range.
func (r *Reporter) AppendMonth(ctx context.Context, rep MonthReport) (string, error) {
	if r.svc == nil {
		return "", errors.New("sheets service not initialized")
	}
	sheetName := r.sheetName(rep.Month)
	rows := reportRows(rep)

	// Find the next empty row from the sheet's current dimensions.
	rng := fmt.Sprintf("%s!A:A", sheetName)
	resp, err := r.svc.Spreadsheets.Values.Get(r.spreadsheetID, rng).Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("get sheet dimensions for %s: %w", sheetName, err)
	}
	nextRow := len(resp.Values) + 1
	if nextRow > 1 {
		nextRow++ // blank separator between reports
	}

	dataRange := fmt.Sprintf("%s!A%d:E%d", sheetName, nextRow, nextRow+len(rows)-1)
	vr := &gsheet.ValueRange{Values: rows}
	_, err = r.svc.Spreadsheets.Values.Update(r.spreadsheetID, dataRange, vr).
		ValueInputOption("USER_ENTERED").Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("update %s: %w", dataRange, err)
	}

	slog.InfoContext(ctx, "month report exported", "month", rep.Month, "range", dataRange, "rows", len(rows))
	return dataRange, nil
}

func (r *Reporter) sheetName(month string) string {
	year := month
	if len(month) >= 4 {
		year = month[:4]
	}
	return fmt.Sprintf("%s %s", year, r.sheetBase)
}
