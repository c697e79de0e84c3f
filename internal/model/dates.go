package model

import "time"

// Day truncates t to midnight UTC of its calendar day. All stored dates pass
// through Day so that comparisons in SQL and in Go agree.
func Day(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// DaysIn returns the number of days in the given month.
func DaysIn(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// clampedDate builds year/month/day in UTC, normalizing month overflow and clamping
// day to the last day of the resulting month.
func clampedDate(year int, month time.Month, day int) time.Time {
	first := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
	if last := DaysIn(first.Year(), first.Month()); day > last {
		day = last
	}
	return time.Date(first.Year(), first.Month(), day, 0, 0, 0, 0, time.UTC)
}

// AddMonths steps t forward by months, landing on anchorDay of the target month or
// on its last day when the month is shorter.
func AddMonths(t time.Time, months int, anchorDay int) time.Time {
	d := Day(t)
	return clampedDate(d.Year(), d.Month()+time.Month(months), anchorDay)
}
