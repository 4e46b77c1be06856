package ui

import (
	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/theme"
	"fyne.io/fyne/v2/widget"
	"github.com/google/uuid"
	"github.com/tartampluch/hivoyage/internal/config"
	"github.com/tartampluch/hivoyage/internal/engine"
)

func (app *TripApp) buildPackingTab() fyne.CanvasObject {
	btnAdd := widget.NewButtonWithIcon(app.GetMsg(config.TKeyBtnAddItem), theme.ContentAddIcon(), func() {
		if ed, err := app.currentEditor(); err == nil {
			ed.AddPackingDraft()
			app.refreshViews()
		}
	})
	app.views.addItem = btnAdd
	top := container.NewBorder(nil, nil, nil, btnAdd, app.views.packProgress)
	return container.NewBorder(top, nil, nil, nil, container.NewVScroll(app.views.packing))
}

// packingProgressText localizes "{checked}/{total} items packed".
func (app *TripApp) packingProgressText(trip *engine.Trip) string {
	checked, total := engine.PackingCounts(trip.Packing)
	msg := app.GetMsgData(config.TKeyPackProgress, map[string]any{"Checked": checked, "Total": total})
	if msg == config.TKeyPackProgress {
		return engine.PackingProgress(trip.Packing)
	}
	return msg
}

func (app *TripApp) renderPacking(trip *engine.Trip) {
	v := app.views
	v.packProgress.SetText(app.packingProgressText(trip))

	draftOpen := false
	objects := make([]fyne.CanvasObject, 0, len(trip.Packing))
	for _, item := range trip.Packing {
		draftOpen = draftOpen || !item.Saved
		objects = append(objects, app.packingRow(item))
	}
	v.packing.Objects = objects
	v.packing.Refresh()

	// The add control stays hidden while the input row is open.
	if v.addItem != nil {
		if draftOpen {
			v.addItem.Hide()
		} else {
			v.addItem.Show()
		}
	}
}

func (app *TripApp) packingRow(item *engine.PackingItem) fyne.CanvasObject {
	id := item.ID

	if item.Editing {
		name := widget.NewEntry()
		name.SetPlaceHolder(app.GetMsg(config.TKeyPhItemName))
		name.SetText(item.Input())
		name.OnChanged = func(text string) { app.updatePackingDraft(id, text) }

		btnSave := widget.NewButtonWithIcon("", theme.ConfirmIcon(), nil)
		btnSave.Importance = widget.HighImportance
		btnSave.OnTapped = func() {
			text := name.Text
			app.updatePackingDraft(id, text)
			btnSave.SetText(config.SpinnerText)
			btnSave.Disable()
			app.runAsync(func() error { return app.savePackingItem(id, text) })
		}
		name.OnSubmitted = func(string) { btnSave.OnTapped() }

		btnCancel := widget.NewButtonWithIcon("", theme.CancelIcon(), func() {
			if ed, err := app.currentEditor(); err == nil {
				_ = ed.CancelPackingEdit(id)
				app.refreshViews()
			}
		})
		if item.Busy() {
			btnSave.Disable()
			btnCancel.Disable()
		}
		return container.NewBorder(nil, nil, nil, container.NewHBox(btnSave, btnCancel), name)
	}

	check := widget.NewCheck(item.Name, nil)
	check.SetChecked(item.Checked)
	check.OnChanged = func(checked bool) {
		check.Disable()
		app.runAsync(func() error { return app.setPackingChecked(id, checked) })
	}

	btnEdit := widget.NewButtonWithIcon("", theme.DocumentCreateIcon(), func() {
		if ed, err := app.currentEditor(); err == nil {
			if err := ed.EditPackingItem(id); err != nil {
				app.showError(err)
			}
			app.refreshViews()
		}
	})
	btnDelete := widget.NewButtonWithIcon("", theme.DeleteIcon(), nil)
	btnDelete.OnTapped = func() {
		app.confirm(app.GetMsgData(config.TKeyConfirmItem, map[string]any{"Name": item.Name}), func() {
			btnDelete.Disable()
			app.runAsync(func() error { return app.deletePackingItem(id) })
		})
	}
	if item.Busy() {
		check.Disable()
		btnEdit.Disable()
		btnDelete.Disable()
	}
	return container.NewBorder(nil, nil, nil, container.NewHBox(btnEdit, btnDelete), check)
}

// -----------------------------------------------------------------------------
// Actions
// -----------------------------------------------------------------------------

func (app *TripApp) updatePackingDraft(id uuid.UUID, name string) {
	if ed, err := app.currentEditor(); err == nil {
		_ = ed.UpdatePackingDraft(id, name)
	}
}

func (app *TripApp) savePackingItem(id uuid.UUID, name string) error {
	ed, err := app.currentEditor()
	if err != nil {
		return err
	}
	return ed.SavePackingItem(app.Ctx, id, name)
}

func (app *TripApp) deletePackingItem(id uuid.UUID) error {
	ed, err := app.currentEditor()
	if err != nil {
		return err
	}
	return ed.DeletePackingItem(app.Ctx, id)
}

func (app *TripApp) setPackingChecked(id uuid.UUID, checked bool) error {
	ed, err := app.currentEditor()
	if err != nil {
		return err
	}
	return ed.SetPackingChecked(app.Ctx, id, checked)
}
