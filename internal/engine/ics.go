package engine

import (
	"bytes"
	"fmt"
	"log/slog"
	"time"

	"github.com/emersion/go-ical"
	"github.com/tartampluch/hivoyage/internal/config"
)

// icsDateTime is the floating local form of DATE-TIME (RFC 5545 3.3.5, form #1).
// Stops happen at the wall-clock time of the destination, not in a fixed zone.
const icsDateTime = "20060102T150405"

// GenerateICS renders the saved stops of a trip as an iCalendar feed.
// Each stop becomes one VEVENT on its day's date. A stop without a time is
// an all-day event. A trip without stops yields a minimal valid calendar.
func GenerateICS(trip *Trip, now time.Time) ([]byte, error) {
	cal := ical.NewCalendar()

	// Set standard iCalendar headers
	cal.Props.SetText(config.PropVersion, config.ICalVersion)
	cal.Props.SetText(config.PropProdid, config.ICalProdid)
	cal.Props.SetText(config.PropXWRCalName, fmt.Sprintf(config.FormatCalName, trip.Destination))
	cal.Props.SetText(config.PropCalScale, config.ICalScale)
	cal.Props.SetText(config.PropMethod, config.ICalMethod)

	// RFC 7986: Suggest a refresh interval
	refreshProp := ical.NewProp(config.PropRefresh)
	refreshProp.SetDuration(config.DefaultICalRefresh)
	cal.Props.Set(refreshProp)

	dtStampProp := ical.NewProp(config.PropDTStamp)
	dtStampProp.SetDateTime(now.UTC())

	for _, item := range stopEvents(trip) {
		event := ical.NewEvent()
		event.Props.SetText(config.PropUID, item.uid)
		event.Props.SetText(config.PropSummary, item.Title)
		event.Props.SetText(config.PropLocation, item.Location)
		event.Props.Set(dtStampProp)

		dtStartProp := ical.NewProp(config.PropDTStart)
		if at, ok := atTime(item.Date, item.Description); ok {
			dtStartProp.Value = at.Format(icsDateTime)
		} else {
			dtStartProp.SetDate(item.Date)
		}
		event.Props.Set(dtStartProp)

		cal.Children = append(cal.Children, event.Component)
	}

	// A calendar without events is still a valid feed for subscribers.
	if len(cal.Children) == 0 {
		return []byte(config.StubVCalendar), nil
	}

	var buf bytes.Buffer
	if err := ical.NewEncoder(&buf).Encode(cal); err != nil {
		return nil, fmt.Errorf("%s: %w", config.ErrICalEncode, err)
	}

	slog.Info(config.MsgICSGenerated,
		slog.String(config.LogKeyComponent, config.CompCalendar),
		slog.String(config.LogKeyTrip, trip.ID),
		slog.Int(config.LogKeyCount, len(cal.Children)))
	return buf.Bytes(), nil
}

type stopEvent struct {
	CalendarItem
	uid string
}

func stopEvents(trip *Trip) []stopEvent {
	if trip.Start.IsZero() {
		return nil
	}
	var out []stopEvent
	for _, d := range trip.Itinerary.Days {
		for _, s := range d.Stops {
			if !s.Saved {
				continue
			}
			out = append(out, stopEvent{
				CalendarItem: CalendarItem{
					Date:        trip.DayDate(d.Number),
					Title:       s.Name,
					Location:    s.Address,
					Description: s.Time,
				},
				uid: fmt.Sprintf(config.FormatUID, s.ID, config.ICalDomain),
			})
		}
	}
	return out
}

// atTime combines a day with an "HH:MM" time of day.
func atTime(day time.Time, hhmm string) (time.Time, bool) {
	if !ValidTime(hhmm) {
		return time.Time{}, false
	}
	t, err := time.Parse(config.TimeLayout, hhmm)
	if err != nil {
		return time.Time{}, false
	}
	return time.Date(day.Year(), day.Month(), day.Day(), t.Hour(), t.Minute(), 0, 0, day.Location()), true
}
