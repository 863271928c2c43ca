// ganhos-report fetches one month of records from the remote API and
// appends a summary report to the configured Google Spreadsheet.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"

	"ganhos/internal/api"
	"ganhos/internal/config"
	"ganhos/internal/core"
	"ganhos/internal/export"
	applog "ganhos/internal/log"
)

const listPageLimit = 200

func main() {
	_ = godotenv.Load()

	logger := applog.New(applog.DefaultConfig()).WithComponent("ganhos-report")
	applog.SetDefault(logger)

	month := flag.String("month", core.MonthKey(time.Now().AddDate(0, -1, 0)), "month to export (YYYY-MM)")
	timeout := flag.Duration("timeout", 2*time.Minute, "overall timeout")
	flag.Parse()

	if err := core.ValidateMonth(*month); err != nil {
		logger.Error("Invalid month flag", "month", *month)
		os.Exit(1)
	}

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed", "error", err)
		os.Exit(1)
	}
	if cfg.GoogleSpreadsheetID == "" {
		logger.Error("Sheets export not configured - set GOOGLE_SPREADSHEET_ID")
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	if err := run(ctx, cfg, *month); err != nil {
		logger.Error("Export failed", "month", *month, "error", err)
		os.Exit(1)
	}
	logger.Info("Export completed", "month", *month)
}

func run(ctx context.Context, cfg *config.Config, month string) error {
	var refresh api.RefreshFunc
	if cfg.APIRefreshToken != "" {
		refresh = api.NewRefreshFunc(cfg.APIBaseURL, cfg.APIRefreshToken, nil)
	}
	tokens := api.NewTokenProvider(cfg.APIToken, refresh)

	client, err := api.NewClient(cfg.APIBaseURL, api.WithTokenProvider(tokens))
	if err != nil {
		return fmt.Errorf("api client: %w", err)
	}

	filter := monthFilter(month)

	var revenues []core.Revenue
	for page := 1; ; page++ {
		batch, pg, err := client.ListRevenues(ctx, filter, page, listPageLimit)
		if err != nil {
			return fmt.Errorf("list revenues: %w", err)
		}
		revenues = append(revenues, batch...)
		if page >= pg.TotalPages || len(batch) == 0 {
			break
		}
	}

	var expenses []core.Expense
	for page := 1; ; page++ {
		batch, pg, err := client.ListExpenses(ctx, filter, page, listPageLimit)
		if err != nil {
			return fmt.Errorf("list expenses: %w", err)
		}
		expenses = append(expenses, batch...)
		if page >= pg.TotalPages || len(batch) == 0 {
			break
		}
	}

	// The month's goal, when one exists, becomes the report's outcome
	// section.
	var outcome *core.GoalHistoryEntry
	goal, err := client.GetMonthlyGoal(ctx, month)
	if err != nil {
		return fmt.Errorf("get monthly goal: %w", err)
	}
	if goal != nil {
		entry := core.NewGoalHistoryEntry(*goal, time.Now())
		outcome = &entry
	}

	rep, err := export.BuildMonthReport(month, revenues, expenses, outcome)
	if err != nil {
		return fmt.Errorf("build report: %w", err)
	}

	reporter, err := export.New(ctx, export.Config{
		SpreadsheetID:   cfg.GoogleSpreadsheetID,
		SheetBase:       cfg.GoogleSheetName,
		CredentialsJSON: cfg.GoogleServiceAccountJSON,
		CredentialsFile: cfg.GoogleServiceAccountFile,
	})
	if err != nil {
		return fmt.Errorf("sheets reporter: %w", err)
	}

	if _, err := reporter.AppendMonth(ctx, rep); err != nil {
		return fmt.Errorf("append report: %w", err)
	}
	return nil
}

// monthFilter covers the whole calendar month, inclusive.
func monthFilter(month string) core.Filter {
	start, _ := time.Parse("2006-01", month)
	end := time.Date(start.Year(), start.Month(), core.DaysInMonth(start), 0, 0, 0, 0, time.UTC)
	return core.Filter{
		StartDate: core.DayKey(start),
		EndDate:   core.DayKey(end),
	}
}
