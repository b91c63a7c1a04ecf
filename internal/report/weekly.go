package report

import (
	"time"

	"github.com/dukerupert/fieldtrack/internal/model"
)

// Weekly is the hours worked per weekday for the current week, Sunday
// first, and their total.
type Weekly struct {
	Start time.Time
	Days  [7]float64
	Total float64
}

// TotalText is the week total as "Xh Ym".
func (w Weekly) TotalText() string {
	return FormatHours(w.Total)
}

// WeeklyHours sums finished log rows dated from the most recent Sunday up
// to today. Rows with unreadable dates or hours are skipped. Each day is
// rounded to two decimals before the total is taken.
func WeeklyHours(logs []model.AttendanceLog, today time.Time) Weekly {
	loc := today.Location()
	midnight := time.Date(today.Year(), today.Month(), today.Day(), 0, 0, 0, 0, loc)
	start := midnight.AddDate(0, 0, -int(today.Weekday()))

	var w Weekly
	w.Start = start
	for _, l := range logs {
		if l.HoursWorked.InProgress() {
			continue
		}
		day, err := ParseDate(l.Date, loc)
		if err != nil {
			continue
		}
		if day.Before(start) || day.After(today) {
			continue
		}
		h, ok := Hours(l.HoursWorked)
		if !ok {
			continue
		}
		w.Days[day.Weekday()] += h
	}
	for i := range w.Days {
		w.Days[i] = round2(w.Days[i])
		w.Total += w.Days[i]
	}
	w.Total = round2(w.Total)
	return w
}
