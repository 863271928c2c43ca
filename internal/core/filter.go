package core

// Filter narrows revenue and expense collections. All fields are
// optional; empty means "match everything". When both StartDate and
// EndDate are set the range is inclusive and compared lexically, the
// same way the remote API interprets its query parameters. The client
// does not enforce StartDate <= EndDate; the server is authoritative.
type Filter struct {
	StartDate string   `json:"start_date,omitempty"` // YYYY-MM-DD
	EndDate   string   `json:"end_date,omitempty"`   // YYYY-MM-DD
	Platform  Platform `json:"platform,omitempty"`
	Category  Category `json:"category,omitempty"`
	Period    Period   `json:"period,omitempty"`
}

// IsZero reports whether the filter matches everything.
func (f Filter) IsZero() bool {
	return f.StartDate == "" && f.EndDate == "" && f.Platform == "" && f.Category == "" && f.Period == ""
}

func (f Filter) matchDate(day string) bool {
	if f.StartDate != "" && day < f.StartDate {
		return false
	}
	if f.EndDate != "" && day > f.EndDate {
		return false
	}
	return true
}

// MatchRevenue reports whether r passes the date-range and platform
// criteria. The category criterion does not apply to revenues.
func (f Filter) MatchRevenue(r Revenue) bool {
	if !f.matchDate(r.Date) {
		return false
	}
	if f.Platform != "" && r.Platform != f.Platform {
		return false
	}
	return true
}

// MatchExpense reports whether e passes the date-range and category
// criteria. The platform criterion does not apply to expenses.
func (f Filter) MatchExpense(e Expense) bool {
	if !f.matchDate(e.Date) {
		return false
	}
	if f.Category != "" && e.Category != f.Category {
		return false
	}
	return true
}
