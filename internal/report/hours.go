// Package report shapes backend data for the HR views: hour formatting,
// weekly totals, location grouping and spreadsheet export.
package report

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/dukerupert/fieldtrack/internal/model"
)

// DateLayout is the backend's dd/MM/yyyy date format.
const DateLayout = "02/01/2006"

var (
	hoursPart   = regexp.MustCompile(`(\d+)h`)
	minutesPart = regexp.MustCompile(`(\d+)m`)
)

// Hours converts a hoursWorked value to decimal hours. It reports false for
// an in-progress row or a value it cannot read.
func Hours(v model.HoursValue) (float64, bool) {
	if v.IsNumber {
		return v.Number, true
	}
	text := strings.TrimSpace(v.Text)
	if text == "" || v.InProgress() {
		return 0, false
	}
	if f, err := strconv.ParseFloat(text, 64); err == nil {
		return f, true
	}
	h := hoursPart.FindStringSubmatch(text)
	m := minutesPart.FindStringSubmatch(text)
	if h == nil && m == nil {
		return 0, false
	}
	var total float64
	if h != nil {
		n, _ := strconv.Atoi(h[1])
		total += float64(n)
	}
	if m != nil {
		n, _ := strconv.Atoi(m[1])
		total += float64(n) / 60
	}
	return total, true
}

// FormatHours renders decimal hours as "Xh Ym".
func FormatHours(hours float64) string {
	whole := math.Floor(hours)
	minutes := math.Round((hours - whole) * 60)
	if minutes == 60 {
		whole++
		minutes = 0
	}
	return fmt.Sprintf("%dh %dm", int(whole), int(minutes))
}

// FormatHoursWorked renders a log row's hours for display.
func FormatHoursWorked(v model.HoursValue) string {
	if v.InProgress() {
		return model.InProgress
	}
	h, ok := Hours(v)
	if !ok {
		return v.Text
	}
	return FormatHours(h)
}

// FormatElapsed renders seconds as "Xh Ym Zs".
func FormatElapsed(secs int64) string {
	if secs < 0 {
		secs = 0
	}
	return fmt.Sprintf("%dh %dm %ds", secs/3600, (secs%3600)/60, secs%60)
}

// ParseDate reads a dd/MM/yyyy date at midnight in loc.
func ParseDate(s string, loc *time.Location) (time.Time, error) {
	t, err := time.ParseInLocation(DateLayout, strings.TrimSpace(s), loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse date %q: %w", s, err)
	}
	return t, nil
}

// round2 rounds to two decimal places.
func round2(f float64) float64 {
	return math.Round(f*100) / 100
}
