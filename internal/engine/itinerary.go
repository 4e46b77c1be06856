package engine

import (
	"fmt"
	"sort"
	"strconv"

	"github.com/tartampluch/hivoyage/internal/config"
)

// Validate checks the required fields of a stop.
// The fields are expected to be normalized already.
func (f StopFields) Validate() error {
	if f.Name == "" || f.Address == "" || f.Time == "" {
		return ErrValidation
	}
	if !ValidTime(f.Time) {
		return ErrInvalidTime
	}
	return nil
}

// ValidTime reports whether s is a zero-padded 24h "HH:MM" value.
// Lexicographic ordering of stops relies on the fixed width.
func ValidTime(s string) bool {
	if len(s) != len(config.TimeLayout) {
		return false
	}
	for i := 0; i < len(s); i++ {
		if i == 2 {
			if s[i] != ':' {
				return false
			}
			continue
		}
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	hh, _ := strconv.Atoi(s[:2])
	mm, _ := strconv.Atoi(s[3:])
	return hh < 24 && mm < 60
}

// SortStops orders stops by time ascending, keeping the relative order of
// equal times. Stops without a time go last.
func SortStops(stops []*Stop) {
	sort.SliceStable(stops, func(i, j int) bool {
		a, b := stops[i].Time, stops[j].Time
		switch {
		case a == "":
			return false
		case b == "":
			return true
		default:
			return a < b
		}
	})
}

// Ordinal is the cosmetic label of a stop at a 1-based position.
func Ordinal(position int) string {
	return strconv.Itoa(position)
}

// ItineraryCounts returns the number of days and the number of stops,
// drafts included.
func ItineraryCounts(it Itinerary) (days, stops int) {
	for _, d := range it.Days {
		stops += len(d.Stops)
	}
	return len(it.Days), stops
}

// ItineraryProgress renders "{D} days, {S} stops".
func ItineraryProgress(it Itinerary) string {
	d, s := ItineraryCounts(it)
	return fmt.Sprintf(config.FormatItineraryProgress, d, s)
}

// PackingCounts returns the checked and total counts over saved items.
// Drafts have no checkbox yet and are not counted.
func PackingCounts(items []*PackingItem) (checked, total int) {
	for _, p := range items {
		if !p.Saved {
			continue
		}
		total++
		if p.Checked {
			checked++
		}
	}
	return checked, total
}

// PackingProgress renders "{checked}/{total} items packed".
func PackingProgress(items []*PackingItem) string {
	c, t := PackingCounts(items)
	return fmt.Sprintf(config.FormatPackingProgress, c, t)
}

// renumber restores the 1..N invariant and recomputes day dates.
func (t *Trip) renumber() {
	for i, d := range t.Itinerary.Days {
		d.Number = i + 1
		d.Date = t.DayDate(d.Number)
	}
}
