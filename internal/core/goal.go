package core

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

var (
	ErrInvalidTarget = errors.New("target amount must be positive")
	ErrInvalidMonth  = errors.New("invalid month key")
)

type (
	// PlatformShare is one entry of a goal's per-platform breakdown.
	PlatformShare struct {
		Platform   Platform        `json:"platform"`
		Percentage decimal.Decimal `json:"percentage"`
		Amount     decimal.Decimal `json:"amount"`
	}

	// MonthlyGoal is a per-calendar-month earnings target.
	//
	// CurrentAmount is derived, not authoritative: the state container
	// re-sums the month's revenues after every successful revenue
	// mutation, so it can transiently diverge from the server's view
	// until the next full reload.
	MonthlyGoal struct {
		ID            string          `json:"id"`
		UserID        string          `json:"user_id"`
		Month         string          `json:"month"` // YYYY-MM
		TargetAmount  decimal.Decimal `json:"target_amount"`
		CurrentAmount decimal.Decimal `json:"current_amount"`
		Breakdown     []PlatformShare `json:"breakdown,omitempty"`
		CreatedAt     time.Time       `json:"created_at"`
		UpdatedAt     time.Time       `json:"updated_at"`
	}

	// GoalHistoryEntry is the archived outcome of one month's goal.
	GoalHistoryEntry struct {
		ID             string          `json:"id"`
		Month          string          `json:"month"`
		TargetAmount   decimal.Decimal `json:"target_amount"`
		AchievedAmount decimal.Decimal `json:"achieved_amount"`
		Percentage     decimal.Decimal `json:"percentage"`
		Achieved       bool            `json:"achieved"`
		UserID         string          `json:"user_id"`
		CreatedAt      time.Time       `json:"created_at"`
		UpdatedAt      time.Time       `json:"updated_at"`
	}
)

func (g MonthlyGoal) Validate() error {
	if err := ValidateMonth(g.Month); err != nil {
		return ErrInvalidMonth
	}
	if !g.TargetAmount.IsPositive() {
		return ErrInvalidTarget
	}
	return nil
}

// Progress returns CurrentAmount/TargetAmount as a percentage, 0 when
// the target is zero.
func (g MonthlyGoal) Progress() decimal.Decimal {
	if g.TargetAmount.IsZero() {
		return decimal.Zero
	}
	return g.CurrentAmount.Div(g.TargetAmount).Mul(decimal.NewFromInt(100))
}

// historyNamespace seeds deterministic archive entry ids so that
// archiving the same month+goal twice yields the same id.
var historyNamespace = uuid.MustParse("7f1c3e52-9a6c-4b0e-8a43-2d6f1a5b9c01")

// NewGoalHistoryEntry snapshots a goal that is about to expire into an
// archive entry. The id is derived from month and goal id, so repeated
// archival of the same rollover is idempotent by identity.
func NewGoalHistoryEntry(g MonthlyGoal, now time.Time) GoalHistoryEntry {
	return GoalHistoryEntry{
		ID:             uuid.NewSHA1(historyNamespace, []byte(g.Month+"/"+g.ID)).String(),
		Month:          g.Month,
		TargetAmount:   g.TargetAmount,
		AchievedAmount: g.CurrentAmount,
		Percentage:     g.Progress(),
		Achieved:       g.CurrentAmount.GreaterThanOrEqual(g.TargetAmount),
		UserID:         g.UserID,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
}
