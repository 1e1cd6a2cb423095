package core

import "time"

// MonthlySummary holds the income and expense totals of a date window.
type MonthlySummary struct {
	TotalExpenses float64 `json:"totalExpenses"`
	TotalIncome   float64 `json:"totalIncome"`
}

// Savings is income minus expenses. It can be negative.
func (s MonthlySummary) Savings() float64 {
	return s.TotalIncome - s.TotalExpenses
}

// Window is an inclusive range of Unix timestamps in seconds.
type Window struct {
	Start int64 `json:"start"`
	End   int64 `json:"end"`
}

// CurrentMonthWindow returns the window of the calendar month containing now,
// in now's location.
func CurrentMonthWindow(now time.Time) Window {
	return MonthWindow(now.Year(), now.Month(), now.Location())
}

// MonthWindow returns the window covering the given calendar month.
//
// The end is one millisecond before the next month starts, floored to whole
// seconds, so a transaction stamped on the month's final second is included.
func MonthWindow(year int, month time.Month, loc *time.Location) Window {
	if loc == nil {
		loc = time.Local
	}
	start := time.Date(year, month, 1, 0, 0, 0, 0, loc)
	end := time.Date(year, month+1, 1, 0, 0, 0, 0, loc).Add(-time.Millisecond)

	// Unix truncates sub-second precision toward the earlier second.
	return Window{
		Start: start.Unix(),
		End:   end.Unix(),
	}
}
