package engine

import (
	"time"

	"github.com/tartampluch/hivoyage/internal/config"
)

// CalendarCell is one day of a month grid.
type CalendarCell struct {
	Date time.Time

	// InMonth is false for the leading and trailing days of adjacent months.
	InMonth   bool
	Today     bool
	TripDay   bool
	HasEvents bool
	Items     []CalendarItem
}

// MonthGrid is a Sunday-first month view made of whole weeks.
// It keeps the snapshot it was built from so Prev and Next render against
// the same itinerary.
type MonthGrid struct {
	// Month is the first day of the displayed month.
	Month time.Time
	Cells []CalendarCell

	today, start, end time.Time
	items             []CalendarItem
}

// FlattenCalendar projects every saved stop onto its day's date.
// A trip without a start date yields no items.
func FlattenCalendar(trip *Trip) []CalendarItem {
	if trip == nil || trip.Start.IsZero() {
		return nil
	}
	var items []CalendarItem
	for _, d := range trip.Itinerary.Days {
		date := trip.DayDate(d.Number)
		for _, s := range d.Stops {
			if !s.Saved {
				continue
			}
			items = append(items, CalendarItem{
				Date:        date,
				Title:       s.Name,
				Location:    s.Address,
				Description: s.Time,
			})
		}
	}
	return items
}

// BuildMonth renders the month containing the given date.
// Trip days are the inclusive [start, end] range.
func BuildMonth(month, today, start, end time.Time, items []CalendarItem) MonthGrid {
	loc := month.Location()
	first := time.Date(month.Year(), month.Month(), 1, 0, 0, 0, 0, loc)
	last := first.AddDate(0, 1, -1)

	lead := int(first.Weekday())
	total := lead + last.Day()
	weeks := (total + config.CalendarColumns - 1) / config.CalendarColumns
	cellCount := weeks * config.CalendarColumns

	g := MonthGrid{
		Month: first,
		Cells: make([]CalendarCell, 0, cellCount),
		today: today,
		start: start,
		end:   end,
		items: items,
	}

	origin := first.AddDate(0, 0, -lead)
	for i := 0; i < cellCount; i++ {
		date := origin.AddDate(0, 0, i)
		cell := CalendarCell{
			Date:    date,
			InMonth: date.Month() == first.Month(),
			Today:   sameDay(date, today),
			TripDay: inRange(date, start, end),
		}
		for _, it := range items {
			if sameDay(it.Date, date) {
				cell.Items = append(cell.Items, it)
			}
		}
		cell.HasEvents = len(cell.Items) > 0
		g.Cells = append(g.Cells, cell)
	}
	return g
}

// Prev renders the previous month against the same snapshot.
func (g MonthGrid) Prev() MonthGrid {
	return BuildMonth(g.Month.AddDate(0, -1, 0), g.today, g.start, g.end, g.items)
}

// Next renders the following month against the same snapshot.
func (g MonthGrid) Next() MonthGrid {
	return BuildMonth(g.Month.AddDate(0, 1, 0), g.today, g.start, g.end, g.items)
}

// Weeks splits the cells into rows of seven.
func (g MonthGrid) Weeks() [][]CalendarCell {
	var rows [][]CalendarCell
	for i := 0; i < len(g.Cells); i += config.CalendarColumns {
		rows = append(rows, g.Cells[i:i+config.CalendarColumns])
	}
	return rows
}

func sameDay(a, b time.Time) bool {
	if a.IsZero() || b.IsZero() {
		return false
	}
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}

// inRange compares calendar days only, so time-of-day never excludes the bounds.
func inRange(date, start, end time.Time) bool {
	if start.IsZero() || end.IsZero() {
		return false
	}
	d := dayKey(date)
	return d >= dayKey(start) && d <= dayKey(end)
}

func dayKey(t time.Time) int {
	y, m, d := t.Date()
	return y*10000 + int(m)*100 + d
}
