package engine

import (
	"fmt"
	"io"
	"log/slog"
	"net/url"
	"path"
	"strconv"
	"strings"
	"time"

	"github.com/tartampluch/hivoyage/internal/config"
	"golang.org/x/net/html"
)

// TripIDFromURL returns the last path segment of a trip page URL.
func TripIDFromURL(raw string) (string, error) {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return "", fmt.Errorf("%s: %w", config.ErrInvalidURL, err)
	}
	id := path.Base(strings.TrimRight(u.Path, "/"))
	if id == "" || id == "." || id == "/" {
		return "", fmt.Errorf("%s: %q", config.ErrTripIDEmpty, raw)
	}
	return id, nil
}

// ParseTripPage rebuilds the trip model from the server-rendered trip page.
//
// Explicit data-start-date/data-end-date attributes win over the "MM/DD"
// text, whose year has to be inferred from now. Unreadable dates are logged
// and leave Start and End zero; the editor still works without them.
func ParseTripPage(r io.Reader, tripID string, now time.Time) (*Trip, error) {
	doc, err := html.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", config.ErrPageParse, err)
	}

	log := slog.With(
		slog.String(config.LogKeyComponent, config.CompParser),
		slog.String(config.LogKeyTrip, tripID),
	)

	trip := &Trip{ID: tripID}

	// 1. CSRF metadata
	for _, m := range findAll(doc, isElement("meta")) {
		switch attr(m, config.AttrName) {
		case config.MetaCSRF:
			trip.CSRF.Token = attr(m, config.AttrContent)
		case config.MetaCSRFHeader:
			trip.CSRF.Header = attr(m, config.AttrContent)
		}
	}

	// 2. Destination
	if info := findFirst(doc, hasClass(config.ClassTripInfo)); info != nil {
		if h1 := findFirst(info, isElement("h1")); h1 != nil {
			trip.Destination = strings.TrimSpace(textContent(h1))
		}
	}

	// 3. Dates
	trip.StartText, trip.EndText = dateTexts(doc)
	if el := findFirst(doc, hasAttr(config.AttrDataStartDate)); el != nil {
		start, end, err := ParseISODates(now.Location(), attr(el, config.AttrDataStartDate), attr(el, config.AttrDataEndDate))
		if err == nil {
			trip.Start, trip.End = start, end
		} else {
			log.Warn(config.ErrTripDates, slog.Any(config.LogKeyError, err))
		}
	}
	if trip.Start.IsZero() && trip.StartText != "" {
		start, end, err := ParseTripDates(now, trip.StartText, trip.EndText)
		if err != nil {
			log.Warn(config.ErrTripDates, slog.Any(config.LogKeyError, err))
		} else {
			trip.Start, trip.End = start, end
			log.Debug(config.MsgDatesInferred,
				slog.String(config.LogKeyStart, start.Format(config.DateFormatISO)),
				slog.String(config.LogKeyEnd, end.Format(config.DateFormatISO)))
		}
	}

	// 4. Days & stops, ordered by their data-day number.
	for _, dc := range findAll(doc, hasClass(config.ClassDayContainer)) {
		n, err := strconv.Atoi(attr(dc, config.AttrDataDay))
		if err != nil || n < 1 {
			n = len(trip.Itinerary.Days) + 1
		}
		day := &Day{Number: n}
		for _, si := range findAll(dc, hasClass(config.ClassStopItem)) {
			nameEl := findFirst(si, hasClass(config.ClassStopName))
			addrEl := findFirst(si, hasClass(config.ClassStopAddress))
			if nameEl == nil || addrEl == nil {
				log.Debug(config.MsgSkippedStop, slog.Int(config.LogKeyDay, n))
				continue
			}
			fields := StopFields{
				Name:    textContent(nameEl),
				Address: textContent(addrEl),
			}
			if timeEl := findFirst(si, hasClass(config.ClassStopTime)); timeEl != nil {
				fields.Time = textContent(timeEl)
			}
			day.Stops = append(day.Stops, newStop(fields.Normalize(), true))
		}
		trip.Itinerary.Days = insertDay(trip.Itinerary.Days, day)
	}

	// 5. Packing list
	for _, pi := range findAll(doc, hasClass(config.ClassPackingItem)) {
		nameEl := findFirst(pi, hasClass(config.ClassItemName))
		if nameEl == nil {
			continue
		}
		checked := false
		if cb := findFirst(pi, isCheckbox); cb != nil {
			_, checked = attrLookup(cb, config.AttrChecked)
		}
		trip.Packing = append(trip.Packing, newPackingItem(strings.TrimSpace(textContent(nameEl)), checked, true))
	}

	trip.renumber()
	for _, d := range trip.Itinerary.Days {
		SortStops(d.Stops)
	}

	days, stops := ItineraryCounts(trip.Itinerary)
	log.Debug(config.MsgTripLoaded,
		slog.Int(config.LogKeyDays, days),
		slog.Int(config.LogKeyStops, stops),
		slog.Int(config.LogKeyItems, len(trip.Packing)))
	return trip, nil
}

// dateTexts reads the "MM/DD - MM/DD" span that follows the trip header.
func dateTexts(doc *html.Node) (string, string) {
	header := findFirst(doc, hasClass(config.ClassTripHeader))
	if header == nil {
		return "", ""
	}
	p := nextElement(header)
	if p == nil || p.Data != "p" {
		return "", ""
	}
	span := findFirst(p, isElement("span"))
	if span == nil {
		return "", ""
	}
	start, end, err := SplitDateRange(textContent(span))
	if err != nil {
		return "", ""
	}
	return start, end
}

// insertDay keeps days ordered by their page number.
func insertDay(days []*Day, d *Day) []*Day {
	i := len(days)
	for i > 0 && days[i-1].Number > d.Number {
		i--
	}
	days = append(days, nil)
	copy(days[i+1:], days[i:])
	days[i] = d
	return days
}

// -----------------------------------------------------------------------------
// DOM helpers
// -----------------------------------------------------------------------------

type matcher func(*html.Node) bool

func isElement(tag string) matcher {
	return func(n *html.Node) bool {
		return n.Type == html.ElementNode && n.Data == tag
	}
}

func hasClass(class string) matcher {
	return func(n *html.Node) bool {
		if n.Type != html.ElementNode {
			return false
		}
		for _, c := range strings.Fields(attr(n, config.AttrClass)) {
			if c == class {
				return true
			}
		}
		return false
	}
}

func hasAttr(key string) matcher {
	return func(n *html.Node) bool {
		_, ok := attrLookup(n, key)
		return n.Type == html.ElementNode && ok
	}
}

func isCheckbox(n *html.Node) bool {
	return isElement("input")(n) && strings.EqualFold(attr(n, config.AttrType), config.InputCheckbox)
}

func attrLookup(n *html.Node, key string) (string, bool) {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val, true
		}
	}
	return "", false
}

func attr(n *html.Node, key string) string {
	v, _ := attrLookup(n, key)
	return v
}

// findFirst walks the subtree below n in document order.
func findFirst(n *html.Node, match matcher) *html.Node {
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if match(c) {
			return c
		}
		if found := findFirst(c, match); found != nil {
			return found
		}
	}
	return nil
}

func findAll(n *html.Node, match matcher) []*html.Node {
	var out []*html.Node
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if match(c) {
			out = append(out, c)
		}
		out = append(out, findAll(c, match)...)
	}
	return out
}

func nextElement(n *html.Node) *html.Node {
	for s := n.NextSibling; s != nil; s = s.NextSibling {
		if s.Type == html.ElementNode {
			return s
		}
	}
	return nil
}

func textContent(n *html.Node) string {
	var sb strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			sb.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return strings.TrimSpace(sb.String())
}
