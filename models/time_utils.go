package models

import "time"

// DateFormat is the date layout used across the system.
const DateFormat = "2006-01-02"

// DateRange expands [start, end] into every calendar day, inclusive.
func DateRange(start, end string) ([]string, error) {
	from, err := time.Parse(DateFormat, start)
	if err != nil {
		return nil, err
	}
	to, err := time.Parse(DateFormat, end)
	if err != nil {
		return nil, err
	}
	var dates []string
	for d := from; !d.After(to); d = d.AddDate(0, 0, 1) {
		dates = append(dates, d.Format(DateFormat))
	}
	return dates, nil
}

// DaysBetween returns the number of calendar days from a to b.
// Malformed dates count as zero days.
func DaysBetween(a, b string) int {
	from, err := time.Parse(DateFormat, a)
	if err != nil {
		return 0
	}
	to, err := time.Parse(DateFormat, b)
	if err != nil {
		return 0
	}
	return int(to.Sub(from).Hours() / 24)
}
