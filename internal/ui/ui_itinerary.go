package ui

import (
	"fmt"
	"io"
	"log/slog"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/storage"
	"fyne.io/fyne/v2/theme"
	"fyne.io/fyne/v2/widget"
	"github.com/google/uuid"
	"github.com/tartampluch/hivoyage/internal/config"
	"github.com/tartampluch/hivoyage/internal/engine"
)

// buildItineraryTab lays out the progress line, the day list and the add-day action.
func (app *TripApp) buildItineraryTab() fyne.CanvasObject {
	btnAddDay := widget.NewButtonWithIcon(app.GetMsg(config.TKeyBtnAddDay), theme.ContentAddIcon(), func() {
		if ed, err := app.currentEditor(); err == nil {
			ed.AddDay()
			app.publishFeed()
			app.refreshViews()
		}
	})
	top := container.NewBorder(nil, nil, nil, btnAddDay, app.views.itinProgress)
	return container.NewBorder(top, nil, nil, nil, container.NewVScroll(app.views.days))
}

// itineraryProgressText localizes "{D} days, {S} stops".
func (app *TripApp) itineraryProgressText(trip *engine.Trip) string {
	days, stops := engine.ItineraryCounts(trip.Itinerary)
	msg := app.GetMsgData(config.TKeyItinProgress, map[string]any{"Days": days, "Stops": stops})
	if msg == config.TKeyItinProgress {
		return engine.ItineraryProgress(trip.Itinerary)
	}
	return msg
}

// dayLabel renders "Day N" with the day's date when known.
func (app *TripApp) dayLabel(d *engine.Day) string {
	label := app.GetMsgData(config.TKeyLblDay, map[string]any{"Number": d.Number})
	if label == config.TKeyLblDay {
		label = fmt.Sprintf(config.FallbackDayLabel, d.Number)
	}
	if !d.Date.IsZero() {
		label += config.TripDateSeparator + d.Date.Format(config.DateFormatDayHeader)
	}
	return label
}

// renderItinerary rebuilds the day list. Only the expanded day shows its stops.
func (app *TripApp) renderItinerary(trip *engine.Trip, expanded int) {
	v := app.views
	v.itinProgress.SetText(app.itineraryProgressText(trip))

	objects := make([]fyne.CanvasObject, 0, len(trip.Itinerary.Days))
	for _, d := range trip.Itinerary.Days {
		objects = append(objects, app.dayCard(trip, d, d.Number == expanded))
	}
	v.days.Objects = objects
	v.days.Refresh()
}

func (app *TripApp) dayCard(trip *engine.Trip, d *engine.Day, open bool) fyne.CanvasObject {
	number := d.Number

	icon := theme.MenuDropDownIcon()
	if open {
		icon = theme.MenuDropUpIcon()
	}
	btnToggle := widget.NewButtonWithIcon(app.dayLabel(d), icon, func() {
		app.toggleDay(number)
	})
	btnToggle.Alignment = widget.ButtonAlignLeading

	btnDelete := widget.NewButtonWithIcon("", theme.DeleteIcon(), nil)
	btnDelete.OnTapped = func() {
		app.confirm(app.GetMsgData(config.TKeyConfirmDay, map[string]any{"Number": number}), func() {
			btnDelete.Disable()
			app.runAsync(func() error { return app.deleteDay(number) })
		})
	}

	header := container.NewBorder(nil, nil, nil, btnDelete, btnToggle)
	if !open {
		return header
	}

	rows := container.NewVBox()
	for i, st := range d.Stops {
		rows.Add(app.stopRow(i+1, st))
	}

	btnAddStop := widget.NewButtonWithIcon(app.GetMsg(config.TKeyBtnAddStop), theme.ContentAddIcon(), func() {
		if ed, err := app.currentEditor(); err == nil {
			if _, err := ed.AddStop(number); err != nil {
				app.showError(err)
			}
			app.refreshViews()
		}
	})
	btnImport := widget.NewButtonWithIcon(app.GetMsg(config.TKeyBtnImport), theme.FolderOpenIcon(), func() {
		app.showImportDialog(number)
	})
	btnExport := widget.NewButtonWithIcon(app.GetMsg(config.TKeyBtnExport), theme.DocumentSaveIcon(), func() {
		app.showExportDialog(trip.Destination, d)
	})

	actions := container.NewHBox(btnAddStop, btnImport, btnExport)
	return widget.NewCard("", "", container.NewVBox(header, rows, actions))
}

// stopRow renders one stop, as text or as input fields while editing.
func (app *TripApp) stopRow(position int, st *engine.Stop) fyne.CanvasObject {
	id := st.ID
	ordinal := widget.NewLabel(engine.Ordinal(position))

	if st.Editing {
		input := st.Input()
		name := widget.NewEntry()
		name.SetPlaceHolder(app.GetMsg(config.TKeyPhStopName))
		name.SetText(input.Name)
		address := widget.NewEntry()
		address.SetPlaceHolder(app.GetMsg(config.TKeyPhStopAddress))
		address.SetText(input.Address)
		at := NewTimeEntry()
		at.SetText(input.Time)

		typed := func() engine.StopFields {
			return engine.StopFields{Name: name.Text, Address: address.Text, Time: at.Text}
		}
		record := func(string) { app.updateDraft(id, typed()) }
		name.OnChanged = record
		address.OnChanged = record
		at.OnChanged = record

		btnSave := widget.NewButtonWithIcon("", theme.ConfirmIcon(), nil)
		btnSave.Importance = widget.HighImportance
		btnSave.OnTapped = func() {
			fields := typed()
			app.updateDraft(id, fields)
			btnSave.SetText(config.SpinnerText)
			btnSave.Disable()
			app.runAsync(func() error { return app.saveStop(id, fields) })
		}
		btnCancel := widget.NewButtonWithIcon("", theme.CancelIcon(), func() {
			if ed, err := app.currentEditor(); err == nil {
				_ = ed.CancelEdit(id)
				app.refreshViews()
			}
		})
		if st.Busy() {
			btnSave.Disable()
			btnCancel.Disable()
		}

		fields := container.NewGridWithColumns(3, name, address, at)
		return container.NewBorder(nil, nil, ordinal, container.NewHBox(btnSave, btnCancel), fields)
	}

	text := widget.NewLabel(st.Name + config.TripDateSeparator + st.Address)
	text.Wrapping = fyne.TextWrapWord
	at := widget.NewLabel(st.Time)
	at.TextStyle = fyne.TextStyle{Monospace: true}

	btnEdit := widget.NewButtonWithIcon("", theme.DocumentCreateIcon(), func() {
		if ed, err := app.currentEditor(); err == nil {
			if err := ed.EditStop(id); err != nil {
				app.showError(err)
			}
			app.refreshViews()
		}
	})
	btnRemove := widget.NewButtonWithIcon("", theme.DeleteIcon(), nil)
	btnRemove.OnTapped = func() {
		app.confirm(app.GetMsgData(config.TKeyConfirmStop, map[string]any{"Name": st.Name}), func() {
			btnRemove.Disable()
			app.runAsync(func() error { return app.removeStop(id) })
		})
	}
	if st.Busy() {
		btnEdit.Disable()
		btnRemove.Disable()
	}

	return container.NewBorder(nil, nil, container.NewHBox(ordinal, at), container.NewHBox(btnEdit, btnRemove), text)
}

// confirm asks before a destructive action.
func (app *TripApp) confirm(message string, onYes func()) {
	if app.Window == nil {
		onYes()
		return
	}
	dialog.ShowConfirm(app.GetMsg(config.TKeyConfirmTitle), message, func(ok bool) {
		if ok {
			onYes()
		}
	}, app.Window)
}

// -----------------------------------------------------------------------------
// Actions
// -----------------------------------------------------------------------------

// toggleDay expands or collapses a day and moves the map accordingly.
func (app *TripApp) toggleDay(number int) {
	ed, err := app.currentEditor()
	if err != nil {
		return
	}
	expanded := ed.ToggleDay(number)
	app.refreshViews()
	app.focusMapAsync(expanded)
}

func (app *TripApp) deleteDay(number int) error {
	ed, err := app.currentEditor()
	if err != nil {
		return err
	}
	if err := ed.DeleteDay(app.Ctx, number); err != nil {
		return err
	}
	app.publishFeed()
	return nil
}

// updateDraft keeps the typed input of an edit row in the model.
func (app *TripApp) updateDraft(id uuid.UUID, fields engine.StopFields) {
	if ed, err := app.currentEditor(); err == nil {
		_ = ed.UpdateDraft(id, fields)
	}
}

// saveStop saves a stop, then republishes the feed and refocuses the map
// on the expanded day so the new stop shows up.
func (app *TripApp) saveStop(id uuid.UUID, fields engine.StopFields) error {
	ed, err := app.currentEditor()
	if err != nil {
		return err
	}
	if err := ed.SaveStop(app.Ctx, id, fields); err != nil {
		return err
	}
	app.publishFeed()
	app.focusMapAsync(ed.Expanded())
	return nil
}

func (app *TripApp) removeStop(id uuid.UUID) error {
	ed, err := app.currentEditor()
	if err != nil {
		return err
	}
	if err := ed.RemoveStop(app.Ctx, id); err != nil {
		return err
	}
	app.publishFeed()
	return nil
}

// importPlaces adds the places of a vCard file to a day as unsaved stops.
func (app *TripApp) importPlaces(number int, r io.Reader) (int, error) {
	ed, err := app.currentEditor()
	if err != nil {
		return 0, err
	}
	fields, err := engine.ImportPlaces(app.Ctx, r)
	if err != nil {
		return 0, err
	}
	stops, err := ed.AddDraftStops(number, fields)
	if err != nil {
		return 0, err
	}
	slog.Info(config.MsgPlacesImported,
		config.LogKeyComponent, config.CompUI,
		config.LogKeyDay, number,
		config.LogKeyCount, len(stops))
	return len(stops), nil
}

// exportPlaces writes the saved stops of a day as vCard places.
func exportPlaces(w io.Writer, d *engine.Day) error {
	var fields []engine.StopFields
	for _, st := range d.Stops {
		if st.Saved {
			fields = append(fields, st.StopFields)
		}
	}
	return engine.ExportPlaces(w, fields)
}

// -----------------------------------------------------------------------------
// File dialogs
// -----------------------------------------------------------------------------

func (app *TripApp) showImportDialog(number int) {
	if app.Window == nil {
		return
	}
	d := dialog.NewFileOpen(func(r fyne.URIReadCloser, err error) {
		if err != nil || r == nil {
			return
		}
		defer func() { _ = r.Close() }()
		if _, err := app.importPlaces(number, r); err != nil {
			app.showError(err)
		}
		app.refreshViews()
	}, app.Window)
	d.SetFilter(storage.NewExtensionFileFilter([]string{config.ExtVCF, config.ExtVCard}))
	d.Show()
}

func (app *TripApp) showExportDialog(destination string, day *engine.Day) {
	if app.Window == nil {
		return
	}
	d := dialog.NewFileSave(func(w fyne.URIWriteCloser, err error) {
		if err != nil || w == nil {
			return
		}
		defer func() { _ = w.Close() }()
		if err := exportPlaces(w, day); err != nil {
			app.showError(err)
		}
	}, app.Window)
	d.SetFileName(fmt.Sprintf("%s-%d%s", destination, day.Number, config.ExtVCF))
	d.Show()
}
