package model

import "time"

// Date truncates t to midnight UTC of its calendar day.
func Date(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// AddMonths adds n calendar months to the date of t. When the day does not
// exist in the target month it is clamped to that month's last day, so
// Jan 31 + 1 month is Feb 28 (or 29), not Mar 3 as time.AddDate would give.
func AddMonths(t time.Time, n int) time.Time {
	y, m, d := t.Date()
	first := time.Date(y, m+time.Month(n), 1, 0, 0, 0, 0, time.UTC)
	if last := daysIn(first); d > last {
		d = last
	}
	return time.Date(first.Year(), first.Month(), d, 0, 0, 0, 0, time.UTC)
}

// MonthsUntil returns the number of calendar months from from to to,
// counting a partly elapsed month as a whole one. It is 0 when to is not
// after from.
func MonthsUntil(from, to time.Time) int {
	from, to = Date(from), Date(to)
	if !to.After(from) {
		return 0
	}
	months := (to.Year()-from.Year())*12 + int(to.Month()-from.Month())
	if AddMonths(from, months).Before(to) {
		months++
	}
	return months
}

func daysIn(firstOfMonth time.Time) int {
	return firstOfMonth.AddDate(0, 1, -1).Day()
}
