package ui

import (
	"strconv"
	"strings"
	"time"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/layout"
	"fyne.io/fyne/v2/theme"
	"fyne.io/fyne/v2/widget"
	"github.com/tartampluch/hivoyage/internal/config"
	"github.com/tartampluch/hivoyage/internal/engine"
)

const eventMarker = " •"

// calendarView is the month grid state of the Calendar tab.
type calendarView struct {
	month  time.Time // zero until a trip is rendered
	grid   engine.MonthGrid
	title  *widget.Label
	cells  *fyne.Container
	detail *widget.Label
}

func (app *TripApp) buildCalendarTab() fyne.CanvasObject {
	cv := &calendarView{
		title:  widget.NewLabel(""),
		cells:  container.NewGridWithColumns(config.CalendarColumns),
		detail: widget.NewLabel(""),
	}
	cv.title.Alignment = fyne.TextAlignCenter
	cv.title.TextStyle = fyne.TextStyle{Bold: true}
	cv.detail.Wrapping = fyne.TextWrapWord
	app.views.calendar = cv

	btnPrev := widget.NewButtonWithIcon(app.GetMsg(config.TKeyBtnPrevMonth), theme.NavigateBackIcon(), func() {
		if !cv.month.IsZero() {
			app.showMonth(cv.grid.Prev())
		}
	})
	btnNext := widget.NewButtonWithIcon(app.GetMsg(config.TKeyBtnNextMonth), theme.NavigateNextIcon(), func() {
		if !cv.month.IsZero() {
			app.showMonth(cv.grid.Next())
		}
	})

	weekdays := container.NewGridWithColumns(config.CalendarColumns)
	for d := time.Sunday; d <= time.Saturday; d++ {
		lbl := widget.NewLabel(d.String()[:3])
		lbl.Alignment = fyne.TextAlignCenter
		weekdays.Add(lbl)
	}

	header := container.NewBorder(nil, nil, btnPrev, btnNext, cv.title)
	return container.NewBorder(
		container.NewVBox(header, weekdays),
		cv.detail, nil, nil,
		cv.cells,
	)
}

// renderCalendar rebuilds the displayed month from the trip. The first
// render opens the month of the trip start, or the current month.
func (app *TripApp) renderCalendar(trip *engine.Trip) {
	cv := app.views.calendar
	if cv == nil {
		return
	}
	today := app.Clock.Now()
	if cv.month.IsZero() {
		cv.month = today
		if !trip.Start.IsZero() {
			cv.month = trip.Start
		}
	}
	app.showMonth(engine.BuildMonth(cv.month, today, trip.Start, trip.End, engine.FlattenCalendar(trip)))
}

func (app *TripApp) showMonth(grid engine.MonthGrid) {
	cv := app.views.calendar
	cv.grid = grid
	cv.month = grid.Month
	cv.title.SetText(grid.Month.Format(config.DateFormatMonthHeader))

	objects := make([]fyne.CanvasObject, 0, len(grid.Cells))
	for _, cell := range grid.Cells {
		objects = append(objects, app.calendarCell(cell))
	}
	cv.cells.Objects = objects
	cv.cells.Refresh()
}

func (app *TripApp) calendarCell(cell engine.CalendarCell) fyne.CanvasObject {
	text := strconv.Itoa(cell.Date.Day())
	if cell.HasEvents {
		text += eventMarker
	}
	btn := widget.NewButton(text, func() {
		app.views.calendar.detail.SetText(app.describeDay(cell))
	})

	switch {
	case cell.Today:
		btn.Importance = widget.HighImportance
	case cell.TripDay:
		btn.Importance = widget.SuccessImportance
	case !cell.InMonth:
		btn.Importance = widget.LowImportance
	}

	return container.New(layout.NewGridWrapLayout(fyne.NewSize(config.CalendarCellWidth, config.CalendarCellHeight)), btn)
}

// describeDay lists the stops of a day for the detail line.
func (app *TripApp) describeDay(cell engine.CalendarCell) string {
	var b strings.Builder
	b.WriteString(cell.Date.Format(config.DateFormatDetail))
	if len(cell.Items) == 0 {
		b.WriteString("\n" + app.GetMsg(config.TKeyCalNoEvents))
		return b.String()
	}
	for _, it := range cell.Items {
		b.WriteString("\n")
		if it.Description != "" {
			b.WriteString(it.Description + " ")
		}
		b.WriteString(it.Title + config.TripDateSeparator + it.Location)
	}
	return b.String()
}
