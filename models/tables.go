package models

import "sort"

// Table is an instrument-by-date grid of float64 values with an ordered date
// axis, the Go shape of the upstream tabular time series. Missing cells are
// simply absent from the inner map; lookups report presence explicitly so
// callers never confuse "no data" with zero.
type Table struct {
	Dates  []string                      // ascending YYYY-MM-DD
	Values map[string]map[string]float64 // stock id -> date -> value
}

// Empty reports whether the table carries no data at all.
func (t *Table) Empty() bool {
	return t == nil || len(t.Dates) == 0 || len(t.Values) == 0
}

// Instruments returns all stock ids in sorted order. Iterating the sorted
// slice keeps downstream output reproducible across runs.
func (t *Table) Instruments() []string {
	if t == nil {
		return nil
	}
	ids := make([]string, 0, len(t.Values))
	for id := range t.Values {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// HasDate reports whether the date is on the table's date axis, i.e. a
// trading day for this dataset.
func (t *Table) HasDate(date string) bool {
	if t == nil {
		return false
	}
	i := sort.SearchStrings(t.Dates, date)
	return i < len(t.Dates) && t.Dates[i] == date
}

// Cell returns the value for one instrument on one date.
func (t *Table) Cell(stockID, date string) (float64, bool) {
	if t == nil {
		return 0, false
	}
	row, ok := t.Values[stockID]
	if !ok {
		return 0, false
	}
	v, ok := row[date]
	return v, ok
}

// LatestOnOrBefore returns the most recent value for an instrument at or
// before the given date.
func (t *Table) LatestOnOrBefore(stockID, date string) (float64, bool) {
	if t == nil {
		return 0, false
	}
	row, ok := t.Values[stockID]
	if !ok {
		return 0, false
	}
	for i := len(t.Dates) - 1; i >= 0; i-- {
		d := t.Dates[i]
		if d > date {
			continue
		}
		if v, ok := row[d]; ok {
			return v, true
		}
	}
	return 0, false
}

// SeriesUpTo collects the instrument's values at dates up to and including
// the given date, oldest first. Dates with no value are omitted, so the
// result is a compact series suitable for indicator math.
func (t *Table) SeriesUpTo(stockID, date string) []float64 {
	if t == nil {
		return nil
	}
	row, ok := t.Values[stockID]
	if !ok {
		return nil
	}
	var series []float64
	for _, d := range t.Dates {
		if d > date {
			break
		}
		if v, ok := row[d]; ok {
			series = append(series, v)
		}
	}
	return series
}

// Margin/short dataset keys as served by the data source.
const (
	FieldMarginBuy          = "margin_transactions:margin_buy"
	FieldMarginSell         = "margin_transactions:margin_sell"
	FieldMarginPrevBalance  = "margin_transactions:margin_prev_balance"
	FieldMarginTodayBalance = "margin_transactions:margin_today_balance"
	FieldMarginUsage        = "margin_transactions:margin_usage_rate"
	FieldShortBuy           = "margin_transactions:short_buy"
	FieldShortSell          = "margin_transactions:short_sell"
	FieldShortPrevBalance   = "margin_transactions:short_prev_balance"
	FieldShortTodayBalance  = "margin_transactions:short_today_balance"
	FieldShortUsage         = "margin_transactions:short_usage_rate"
	FieldOffsetVolume       = "margin_transactions:offset_volume"
)

// MarginData is the margin/short bundle: named dataset -> table. Individual
// datasets may be missing when the upstream fetch partially failed.
type MarginData map[string]*Table

// Field returns the named table when it is present and non-empty.
func (m MarginData) Field(name string) (*Table, bool) {
	t, ok := m[name]
	if !ok || t.Empty() {
		return nil, false
	}
	return t, true
}

// Empty reports whether the bundle has no usable datasets.
func (m MarginData) Empty() bool {
	for _, t := range m {
		if !t.Empty() {
			return false
		}
	}
	return true
}
