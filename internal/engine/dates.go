package engine

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/tartampluch/hivoyage/internal/config"
)

// Clock supplies "now" to the date inference, the calendar grid and the
// feed. Tests pin it.
type Clock interface {
	Now() time.Time
}

// RealClock reads the system clock.
type RealClock struct{}

func (RealClock) Now() time.Time { return time.Now() }

// ParseTripDates resolves the "MM/DD" start and end texts of a trip page
// into full dates, inferring the years from now:
//
//   - a start month/day earlier than today belongs to next year;
//   - an end month/day earlier than the start spans into the following year;
//   - a start more than 180 days in the past is shifted back by whole 365-day years.
//
// The inference is best-effort. Pages that carry explicit ISO dates should
// use ParseISODates instead.
func ParseTripDates(now time.Time, startText, endText string) (time.Time, time.Time, error) {
	sm, sd, err := parseMonthDay(startText)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	em, ed, err := parseMonthDay(endText)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}

	loc := now.Location()
	startYear := now.Year()
	if sm < int(now.Month()) || (sm == int(now.Month()) && sd < now.Day()) {
		startYear++
	}
	endYear := startYear
	if em < sm || (em == sm && ed < sd) {
		endYear = startYear + 1
	}

	start := time.Date(startYear, time.Month(sm), sd, 0, 0, 0, 0, loc)
	end := time.Date(endYear, time.Month(em), ed, 0, 0, 0, 0, loc)

	window := time.Duration(config.PastTripWindowDays) * 24 * time.Hour
	if diff := now.Sub(start); diff > window {
		years := int(diff / (time.Duration(config.DaysPerInferredYear) * 24 * time.Hour))
		start = start.AddDate(-years, 0, 0)
		end = end.AddDate(-years, 0, 0)
	}
	return start, end, nil
}

// ParseISODates parses explicit "2006-01-02" start and end dates in loc.
func ParseISODates(loc *time.Location, startISO, endISO string) (time.Time, time.Time, error) {
	start, err := time.ParseInLocation(config.DateFormatISO, strings.TrimSpace(startISO), loc)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("%s: %w", config.ErrTripDates, err)
	}
	end, err := time.ParseInLocation(config.DateFormatISO, strings.TrimSpace(endISO), loc)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("%s: %w", config.ErrTripDates, err)
	}
	return start, end, nil
}

// SplitDateRange splits the page's "MM/DD - MM/DD" text.
func SplitDateRange(text string) (string, string, error) {
	start, end, ok := strings.Cut(strings.TrimSpace(text), config.TripDateSeparator)
	if !ok {
		return "", "", fmt.Errorf("%s: %q", config.ErrTripDates, text)
	}
	return strings.TrimSpace(start), strings.TrimSpace(end), nil
}

func parseMonthDay(s string) (int, int, error) {
	ms, ds, ok := strings.Cut(strings.TrimSpace(s), config.MonthDaySeparator)
	if !ok {
		return 0, 0, fmt.Errorf("%s: %q", config.ErrTripDates, s)
	}
	m, err := strconv.Atoi(ms)
	if err != nil || m < 1 || m > 12 {
		return 0, 0, fmt.Errorf("%s: %q", config.ErrTripDates, s)
	}
	d, err := strconv.Atoi(ds)
	if err != nil || d < 1 || d > 31 {
		return 0, 0, fmt.Errorf("%s: %q", config.ErrTripDates, s)
	}
	return m, d, nil
}
