// Package state owns the in-memory snapshot of a driver's finances:
// revenues, expenses, the active filter, the monthly goal and its
// archive. All mutation goes through the remote API first; local state
// is reconciled only after the server confirms.
package state

import (
	"time"

	"github.com/shopspring/decimal"

	"ganhos/internal/core"
)

// State is an immutable snapshot. Reducers return fresh copies; nothing
// reaches into a published snapshot to mutate it.
type State struct {
	Revenues    []core.Revenue
	Expenses    []core.Expense
	Filter      core.Filter
	Goal        *core.MonthlyGoal
	GoalHistory []core.GoalHistoryEntry
	Period      core.Period
	Loading     bool
	Err         string // "" means no error
	LastUpdated time.Time
}

// Action is the closed command set dispatched against the state. The
// reducer switch is exhaustive over these types.
type Action interface{ isAction() }

type (
	loadStarted  struct{}
	loadFailed   struct{ msg string }
	loadFinished struct {
		revenues []core.Revenue
		expenses []core.Expense
		goal     *core.MonthlyGoal
	}

	revenueAdded   struct{ record core.Revenue }
	revenueUpdated struct{ record core.Revenue }
	revenueDeleted struct{ id string }

	expenseAdded   struct{ record core.Expense }
	expenseUpdated struct{ record core.Expense }
	expenseDeleted struct{ id string }

	filterSet struct{ filter core.Filter }
	periodSet struct{ period core.Period }

	goalArchived struct{ entry core.GoalHistoryEntry }
	goalCleared  struct{}
)

func (loadStarted) isAction()    {}
func (loadFailed) isAction()     {}
func (loadFinished) isAction()   {}
func (revenueAdded) isAction()   {}
func (revenueUpdated) isAction() {}
func (revenueDeleted) isAction() {}
func (expenseAdded) isAction()   {}
func (expenseUpdated) isAction() {}
func (expenseDeleted) isAction() {}
func (filterSet) isAction()      {}
func (periodSet) isAction()      {}
func (goalArchived) isAction()   {}
func (goalCleared) isAction()    {}

// reduce applies one action, returning the next snapshot. Revenue
// mutations additionally re-derive the goal's current amount from the
// month's revenues (see recomputeGoal).
func reduce(s State, a Action, now time.Time) State {
	s.LastUpdated = now

	switch a := a.(type) {
	case loadStarted:
		s.Loading = true

	case loadFailed:
		s.Loading = false
		s.Err = a.msg

	case loadFinished:
		// The server's goal is installed verbatim: a load may carry a
		// filtered revenue subset, so re-deriving the amount here would
		// clobber the authoritative value.
		s.Loading = false
		s.Err = ""
		s.Revenues = a.revenues
		s.Expenses = a.expenses
		s.Goal = a.goal

	case revenueAdded:
		s.Loading = false
		s.Err = ""
		s.Revenues = append(copyRevenues(s.Revenues), a.record)
		s = recomputeGoal(s, now)

	case revenueUpdated:
		s.Loading = false
		s.Err = ""
		next := copyRevenues(s.Revenues)
		for i := range next {
			if next[i].ID == a.record.ID {
				next[i] = a.record
			}
		}
		s.Revenues = next
		s = recomputeGoal(s, now)

	case revenueDeleted:
		s.Loading = false
		s.Err = ""
		next := make([]core.Revenue, 0, len(s.Revenues))
		for _, r := range s.Revenues {
			if r.ID != a.id {
				next = append(next, r)
			}
		}
		s.Revenues = next
		s = recomputeGoal(s, now)

	case expenseAdded:
		s.Loading = false
		s.Err = ""
		s.Expenses = append(copyExpenses(s.Expenses), a.record)

	case expenseUpdated:
		s.Loading = false
		s.Err = ""
		next := copyExpenses(s.Expenses)
		for i := range next {
			if next[i].ID == a.record.ID {
				next[i] = a.record
			}
		}
		s.Expenses = next

	case expenseDeleted:
		s.Loading = false
		s.Err = ""
		next := make([]core.Expense, 0, len(s.Expenses))
		for _, e := range s.Expenses {
			if e.ID != a.id {
				next = append(next, e)
			}
		}
		s.Expenses = next

	case filterSet:
		s.Filter = a.filter

	case periodSet:
		s.Period = a.period

	case goalArchived:
		s.GoalHistory = append(append([]core.GoalHistoryEntry(nil), s.GoalHistory...), a.entry)
		s.Goal = nil

	case goalCleared:
		s.Goal = nil
	}

	return s
}

// recomputeGoal re-sums the current wall-clock month's revenues into
// the goal's current amount. The goal is replaced only when the sum
// actually differs, so repeated recomputation over unchanged data is a
// no-op. Local-only: the server's own notion of the amount is not
// consulted until the next full reload.
func recomputeGoal(s State, now time.Time) State {
	if s.Goal == nil {
		return s
	}

	month := core.MonthKey(now)
	sum := decimal.Zero
	for _, r := range s.Revenues {
		if core.MonthOf(r.Date) == month {
			sum = sum.Add(r.Amount)
		}
	}

	if sum.Equal(s.Goal.CurrentAmount) {
		return s
	}

	goal := *s.Goal
	goal.CurrentAmount = sum
	s.Goal = &goal
	return s
}

func copyRevenues(in []core.Revenue) []core.Revenue {
	return append([]core.Revenue(nil), in...)
}

func copyExpenses(in []core.Expense) []core.Expense {
	return append([]core.Expense(nil), in...)
}
