package engine

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// CSRFToken is the optional anti-forgery token published by the trip page.
// An empty Token means no header is attached to mutating calls.
type CSRFToken struct {
	Header string
	Token  string
}

// Present reports whether the token can be attached to a request.
func (c CSRFToken) Present() bool {
	return c.Header != "" && c.Token != ""
}

// Trip is the in-memory model of one trip page.
// It is the single source of truth the views render from.
type Trip struct {
	// ID is the last path segment of the trip URL.
	ID string

	Destination string

	// StartText and EndText keep the "MM/DD" text shown by the page.
	StartText string
	EndText   string

	// Start and End are the resolved (explicit or inferred) dates, at midnight local time.
	Start time.Time
	End   time.Time

	Itinerary Itinerary
	Packing   []*PackingItem
	CSRF      CSRFToken
}

// Itinerary is the ordered list of day buckets.
// Day numbers are always exactly 1..len(Days).
type Itinerary struct {
	Days []*Day
}

// Day is one calendar day of the trip.
type Day struct {
	// Number is the 1-based position. The server addresses the day as Number-1.
	Number int
	Date   time.Time
	Stops  []*Stop
}

// StopFields are the user-editable attributes of a stop.
// Together with the day index they form the server-side identity of the stop.
type StopFields struct {
	Name    string
	Address string
	Time    string // Zero-padded 24h "HH:MM".
}

// Normalize trims the surrounding whitespace of every field.
func (f StopFields) Normalize() StopFields {
	return StopFields{
		Name:    strings.TrimSpace(f.Name),
		Address: strings.TrimSpace(f.Address),
		Time:    strings.TrimSpace(f.Time),
	}
}

// Stop is a single itinerary entry.
type Stop struct {
	// ID is a client-side identity. It never reaches the server.
	ID uuid.UUID
	StopFields

	// Saved is true when the server is known to hold the current fields.
	Saved bool

	// Editing is true while the stop is shown as input fields.
	Editing bool

	// Original holds the saved fields while a saved stop is being edited.
	Original *StopFields

	// Pending holds what was typed into the edit fields and not yet saved.
	Pending *StopFields

	busy bool
}

// Busy reports whether a request for this stop is in flight.
func (s *Stop) Busy() bool {
	return s.busy
}

// Input returns the fields the edit row shows: the pending input when
// there is one, the stop's fields otherwise.
func (s *Stop) Input() StopFields {
	if s.Pending != nil {
		return *s.Pending
	}
	return s.StopFields
}

// PackingItem is a named, checkable entry of the packing list.
// The server addresses it by Name.
type PackingItem struct {
	ID      uuid.UUID
	Name    string
	Checked bool
	Saved   bool
	Editing bool

	// Original is the saved name while the item is being renamed.
	Original string

	// Pending is the typed, unsaved name.
	Pending *string

	busy bool
}

// Busy reports whether a request for this item is in flight.
func (p *PackingItem) Busy() bool {
	return p.busy
}

// Input returns the name the edit row shows.
func (p *PackingItem) Input() string {
	if p.Pending != nil {
		return *p.Pending
	}
	return p.Name
}

// CalendarItem is a stop flattened onto its calendar date.
// It is derived from the itinerary and never persisted.
type CalendarItem struct {
	Date        time.Time
	Title       string
	Location    string
	Description string
}

// TripSummary is one entry of the trips overview feed.
// Coordinates are pointers because the server may omit them.
type TripSummary struct {
	Destination string   `json:"destination"`
	StartDate   string   `json:"startDate"`
	EndDate     string   `json:"endDate"`
	Latitude    *float64 `json:"latitude"`
	Longitude   *float64 `json:"longitude"`
}

// Clone returns a deep copy of the trip that is safe to hand to another goroutine.
func (t *Trip) Clone() *Trip {
	if t == nil {
		return nil
	}
	c := *t
	c.Itinerary.Days = make([]*Day, len(t.Itinerary.Days))
	for i, d := range t.Itinerary.Days {
		dc := *d
		dc.Stops = make([]*Stop, len(d.Stops))
		for j, s := range d.Stops {
			sc := *s
			if s.Original != nil {
				o := *s.Original
				sc.Original = &o
			}
			if s.Pending != nil {
				pf := *s.Pending
				sc.Pending = &pf
			}
			dc.Stops[j] = &sc
		}
		c.Itinerary.Days[i] = &dc
	}
	c.Packing = make([]*PackingItem, len(t.Packing))
	for i, p := range t.Packing {
		pc := *p
		if p.Pending != nil {
			name := *p.Pending
			pc.Pending = &name
		}
		c.Packing[i] = &pc
	}
	return &c
}

// DayDate returns the calendar date of the given 1-based day number.
// A trip without a known start yields the zero time.
func (t *Trip) DayDate(number int) time.Time {
	if t.Start.IsZero() {
		return time.Time{}
	}
	return t.Start.AddDate(0, 0, number-1)
}

// Day returns the day with the given 1-based number, or nil.
func (it *Itinerary) Day(number int) *Day {
	if number < 1 || number > len(it.Days) {
		return nil
	}
	return it.Days[number-1]
}

func newStop(fields StopFields, saved bool) *Stop {
	return &Stop{
		ID:         uuid.New(),
		StopFields: fields,
		Saved:      saved,
		Editing:    !saved,
	}
}

func newPackingItem(name string, checked, saved bool) *PackingItem {
	return &PackingItem{
		ID:      uuid.New(),
		Name:    name,
		Checked: checked,
		Saved:   saved,
		Editing: !saved,
	}
}
