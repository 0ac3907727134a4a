package core

import (
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"time"
)

// =============================================================================
// QUARTER - Fiscal quarter identifier "YYYYQn"
// =============================================================================

// QuarterID names one fiscal quarter, e.g. "2025Q3". Quarters are totally
// ordered by (year, number); the string form sorts the same way, which the
// archive relies on.
type QuarterID string

var quarterPattern = regexp.MustCompile(`^(\d{4})Q([1-4])$`)

// ParseQuarter validates and returns a quarter identifier.
func ParseQuarter(s string) (QuarterID, error) {
	if !quarterPattern.MatchString(s) {
		return "", fmt.Errorf("%w: %q", ErrInvalidQuarter, s)
	}
	return QuarterID(s), nil
}

func MakeQuarter(year, n int) QuarterID {
	return QuarterID(fmt.Sprintf("%04dQ%d", year, n))
}

// QuarterOf returns the quarter containing the given date.
func QuarterOf(d Date) QuarterID {
	return MakeQuarter(d.Year(), (int(d.Month())-1)/3+1)
}

// CurrentQuarterByClock returns the wall-clock calendar quarter. The live
// dataset tracks its own labeled quarter which may legitimately differ.
func CurrentQuarterByClock() QuarterID {
	return QuarterOf(Today())
}

func (q QuarterID) Valid() bool {
	return quarterPattern.MatchString(string(q))
}

func (q QuarterID) Year() int {
	m := quarterPattern.FindStringSubmatch(string(q))
	if m == nil {
		return 0
	}
	y, _ := strconv.Atoi(m[1])
	return y
}

func (q QuarterID) Num() int {
	m := quarterPattern.FindStringSubmatch(string(q))
	if m == nil {
		return 0
	}
	n, _ := strconv.Atoi(m[2])
	return n
}

// Next returns the following quarter, rolling Q4 into Q1 of the next year.
// This is always current+1; it never consults which quarters already exist.
func (q QuarterID) Next() QuarterID {
	year, n := q.Year(), q.Num()
	n++
	if n > 4 {
		n = 1
		year++
	}
	return MakeQuarter(year, n)
}

func (q QuarterID) Before(o QuarterID) bool {
	if q.Year() != o.Year() {
		return q.Year() < o.Year()
	}
	return q.Num() < o.Num()
}

// Range returns the nominal calendar window of the quarter: the first day
// of its first month through the last day of its third month.
func (q QuarterID) Range() DateRange {
	year, n := q.Year(), q.Num()
	startMonth := time.Month((n-1)*3 + 1)
	start := NewDate(year, startMonth, 1)
	// Day 0 of the following month is the last day of this one.
	end := Date{Time: time.Date(year, startMonth+3, 0, 0, 0, 0, 0, time.UTC)}
	return DateRange{Start: start, End: end}
}

func (q QuarterID) String() string { return string(q) }

// SortQuarters orders quarter ids chronologically in place.
func SortQuarters(qs []QuarterID) {
	sort.Slice(qs, func(i, j int) bool { return qs[i].Before(qs[j]) })
}
