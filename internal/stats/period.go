// Package stats aggregates stored activities into dashboard figures.
// Every function is pure: it only reads the activities it is given.
package stats

import (
	"math"
	"time"
)

// Period names a look-back window ending now.
type Period string

const (
	PeriodWeek        Period = "week"
	PeriodMonth       Period = "month"
	PeriodThreeMonths Period = "3months"
	PeriodSixMonths   Period = "6months"
	PeriodYear        Period = "year"
)

// Granularity selects how chart points are bucketed.
type Granularity string

const (
	ByDay   Granularity = "day"
	ByMonth Granularity = "month"
)

// ParsePeriod maps a query value to a Period, defaulting to PeriodMonth.
func ParsePeriod(value string) Period {
	switch p := Period(value); p {
	case PeriodWeek, PeriodMonth, PeriodThreeMonths, PeriodSixMonths, PeriodYear:
		return p
	default:
		return PeriodMonth
	}
}

// Range returns the window [start, end] for the period ending at now.
func (p Period) Range(now time.Time) (time.Time, time.Time) {
	switch p {
	case PeriodWeek:
		return now.AddDate(0, 0, -7), now
	case PeriodThreeMonths:
		return now.AddDate(0, -3, 0), now
	case PeriodSixMonths:
		return now.AddDate(0, -6, 0), now
	case PeriodYear:
		return now.AddDate(-1, 0, 0), now
	default:
		return now.AddDate(0, -1, 0), now
	}
}

// Granularity returns daily buckets for short periods and monthly ones otherwise.
func (p Period) Granularity() Granularity {
	switch p {
	case PeriodThreeMonths, PeriodSixMonths, PeriodYear:
		return ByMonth
	default:
		return ByDay
	}
}

func (g Granularity) layout() string {
	if g == ByMonth {
		return "2006-01"
	}
	return "2006-01-02"
}

// round1 rounds half away from zero to one decimal.
func round1(v float64) float64 { return math.Round(v*10) / 10 }
