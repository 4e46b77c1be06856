package ui

import (
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/theme"
	"fyne.io/fyne/v2/widget"
	"github.com/tartampluch/hivoyage/internal/config"
	"github.com/tartampluch/hivoyage/internal/engine"
	"github.com/tartampluch/hivoyage/internal/mapping"
)

// mapView is the Map tab. Fyne has no tile map widget, so markers and
// routes are listed and the viewport opens in the browser.
type mapView struct {
	heading *widget.Label
	markers *fyne.Container
	routes  *fyne.Container
	best    *widget.Label
	bounds  mapping.Bounds
}

var modeKeys = map[mapping.Mode]string{
	mapping.ModeDrive:   config.TKeyModeDrive,
	mapping.ModeWalk:    config.TKeyModeWalk,
	mapping.ModeBike:    config.TKeyModeBike,
	mapping.ModeTransit: config.TKeyModeTransit,
}

func (app *TripApp) buildMapTab() fyne.CanvasObject {
	mv := &mapView{
		heading: widget.NewLabel(""),
		markers: container.NewVBox(),
		routes:  container.NewVBox(),
		best:    widget.NewLabel(""),
	}
	mv.heading.TextStyle = fyne.TextStyle{Bold: true}
	mv.best.TextStyle = fyne.TextStyle{Italic: true}
	app.views.mapPanel = mv

	btnOpen := widget.NewButtonWithIcon(app.GetMsg(config.TKeyBtnOpenMap), theme.ComputerIcon(), app.openMap)
	btnOverview := widget.NewButtonWithIcon(app.GetMsg(config.TKeyBtnOverview), theme.GridIcon(), app.overviewAsync)

	top := container.NewBorder(nil, nil, nil, container.NewHBox(btnOverview, btnOpen), mv.heading)
	body := container.NewGridWithColumns(config.LayoutColumnsDouble,
		widget.NewCard(app.GetMsg(config.TKeyMapMarkers), "", container.NewVScroll(mv.markers)),
		widget.NewCard(app.GetMsg(config.TKeyMapRoutes), "", container.NewVBox(mv.routes, mv.best)),
	)
	return container.NewBorder(top, nil, nil, nil, body)
}

// focusMapAsync centres the map on a day, or on the destination for day 0.
func (app *TripApp) focusMapAsync(day int) {
	app.mu.RLock()
	sess, ed := app.mapView, app.editor
	app.mu.RUnlock()
	if sess == nil || ed == nil {
		return
	}
	trip := ed.Snapshot()

	go func() {
		app.focusMap(sess, trip, day)
		fyne.Do(app.renderMap)
	}()
}

// focusMap blocks on the geocoder and router.
func (app *TripApp) focusMap(sess *mapping.Session, trip *engine.Trip, day int) mapping.View {
	d := trip.Itinerary.Day(day)
	if d == nil {
		return sess.FocusDestination(app.Ctx, trip.Destination)
	}
	var stops []engine.StopFields
	for _, st := range d.Stops {
		if st.Saved {
			stops = append(stops, st.StopFields)
		}
	}
	return sess.FocusDay(app.Ctx, trip.Destination, stops)
}

// renderMap shows the current view of the map session. Without a
// session the panel is emptied.
func (app *TripApp) renderMap() {
	if app.views == nil || app.views.mapPanel == nil {
		return
	}
	mv := app.views.mapPanel
	app.mu.RLock()
	sess := app.mapView
	app.mu.RUnlock()
	if sess == nil {
		mv.heading.SetText("")
		app.showMarkers(nil, mapping.Bounds{})
		mv.routes.Objects = nil
		mv.routes.Refresh()
		mv.best.SetText("")
		return
	}
	v := sess.View()

	if trip := app.snapshot(); trip != nil {
		heading := trip.Destination
		if d := trip.Itinerary.Day(app.expandedDay()); d != nil {
			heading = app.dayLabel(d)
		}
		mv.heading.SetText(heading)
	}

	app.showMarkers(v.Markers, v.Bounds)

	mv.routes.Objects = nil
	for _, r := range v.Routes {
		mv.routes.Add(widget.NewLabel(app.routeLine(r)))
	}
	mv.routes.Refresh()

	if best, ok := v.Best(); ok {
		mv.best.SetText(app.GetMsgData(config.TKeyMapBest, map[string]any{"Mode": app.modeName(best.Mode)}))
	} else {
		mv.best.SetText(app.GetMsg(config.TKeyMapNoRoute))
	}
}

func (app *TripApp) expandedDay() int {
	ed, err := app.currentEditor()
	if err != nil {
		return 0
	}
	return ed.Expanded()
}

func (app *TripApp) showMarkers(markers []mapping.Marker, bounds mapping.Bounds) {
	mv := app.views.mapPanel
	mv.bounds = bounds
	mv.markers.Objects = nil
	for _, m := range markers {
		text := m.Title
		if m.Detail != "" {
			text += config.TripDateSeparator + m.Detail
		}
		lbl := widget.NewLabel(fmt.Sprintf("%s (%.4f, %.4f)", text, m.Position.Lat, m.Position.Lng))
		lbl.Wrapping = fyne.TextWrapWord
		mv.markers.Add(lbl)
	}
	mv.markers.Refresh()
}

func (app *TripApp) modeName(m mapping.Mode) string {
	if key, ok := modeKeys[m]; ok {
		return app.GetMsg(key)
	}
	return string(m)
}

// routeLine renders one travel option.
func (app *TripApp) routeLine(r mapping.RouteOption) string {
	data := map[string]any{
		"Mode":     app.modeName(r.Mode),
		"Duration": r.Duration.Round(time.Minute).String(),
		"Distance": fmt.Sprintf("%.1f", r.Distance),
		"Speed":    fmt.Sprintf("%.0f", r.Speed),
		"Cost":     fmt.Sprintf("%.2f", r.Cost),
	}
	msg := app.GetMsgData(config.TKeyMapRoute, data)
	if msg == config.TKeyMapRoute {
		return fmt.Sprintf("%s: %s, %s km", data["Mode"], data["Duration"], data["Distance"])
	}
	return msg
}

// openMap shows the current viewport on openstreetmap.org.
func (app *TripApp) openMap() {
	mv := app.views.mapPanel
	if mv == nil || mv.bounds.Empty() {
		return
	}
	u, err := url.Parse(mv.bounds.ViewURL())
	if err != nil {
		slog.Warn(config.ErrInvalidURL, config.LogKeyComponent, config.CompUI, config.LogKeyError, err)
		return
	}
	if err := app.App.OpenURL(u); err != nil {
		slog.Warn(config.ErrInvalidURL, config.LogKeyComponent, config.CompUI, config.LogKeyError, err)
	}
}

// -----------------------------------------------------------------------------
// Overview
// -----------------------------------------------------------------------------

func (app *TripApp) overviewAsync() {
	app.mu.RLock()
	svc := app.service
	app.mu.RUnlock()
	if svc == nil {
		return
	}
	go func() {
		ov, err := mapping.Overview(app.Ctx, svc)
		fyne.Do(func() {
			if err != nil {
				app.showError(err)
				return
			}
			app.renderOverview(ov)
		})
	}()
}

// renderOverview lists every trip of the user, grouped by cluster.
func (app *TripApp) renderOverview(ov mapping.OverviewView) {
	mv := app.views.mapPanel
	mv.heading.SetText(app.GetMsg(config.TKeyBtnOverview))
	mv.routes.Objects = nil
	mv.routes.Refresh()
	mv.best.SetText("")

	if len(ov.Markers) == 0 {
		mv.bounds = mapping.Bounds{}
		mv.markers.Objects = []fyne.CanvasObject{widget.NewLabel(app.GetMsg(config.TKeyMapNoTrips))}
		mv.markers.Refresh()
		return
	}

	app.showMarkers(ov.Markers, ov.Bounds)
	for _, c := range ov.Clusters {
		if len(c.Markers) < 2 {
			continue
		}
		names := make([]string, len(c.Markers))
		for i, m := range c.Markers {
			names[i] = m.Title
		}
		mv.routes.Add(widget.NewLabel(app.GetMsgData(config.TKeyMapCluster, map[string]any{
			"Count": len(c.Markers),
			"Names": strings.Join(names, ", "),
		})))
	}
	mv.routes.Refresh()
}
