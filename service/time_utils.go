package service

import "time"

// BudgetDay truncates a moment to the UTC calendar day the reward budget is
// keyed on. The reset boundary is midnight UTC everywhere, so two nodes can
// never disagree about which day's budget a grant draws from.
func BudgetDay(t time.Time) time.Time {
	utc := t.UTC()
	return time.Date(utc.Year(), utc.Month(), utc.Day(), 0, 0, 0, 0, time.UTC)
}
