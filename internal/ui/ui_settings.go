package ui

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/theme"
	"fyne.io/fyne/v2/widget"
	"github.com/tartampluch/hivoyage/internal/config"
	"github.com/tartampluch/hivoyage/internal/server"
	"github.com/zalando/go-keyring"
)

// settingsWidgets holds references to UI elements to simplify data retrieval during save.
type settingsWidgets struct {
	serverEntry   *widget.Entry
	tripEntry     *widget.Entry
	userEntry     *widget.Entry
	passEntry     *widget.Entry
	langSelect    *widget.Select
	portEntry     *FilteredEntry
	geocoderEntry *widget.Entry
	routerEntry   *widget.Entry
}

// ShowSettingsWindow displays the configuration window. A second call
// focuses the open window.
func (app *TripApp) ShowSettingsWindow() {
	if app.settingsWindow != nil {
		slog.Debug(config.MsgSettingsFocus, config.LogKeyComponent, config.CompUISet)
		app.settingsWindow.RequestFocus()
		return
	}

	slog.Info(config.MsgOpenSettings, config.LogKeyComponent, config.CompUISet)
	w := app.App.NewWindow(app.GetMsg(config.TKeyWinSettings))
	app.settingsWindow = w

	sw := app.newSettingsWidgets()

	// --- Account ---
	itemServer := widget.NewFormItem(app.GetMsg(config.TKeyLblServer), sw.serverEntry)
	itemServer.HintText = app.GetMsg(config.TKeyHelpServer)
	itemTrip := widget.NewFormItem(app.GetMsg(config.TKeyLblTrip), sw.tripEntry)
	itemTrip.HintText = app.GetMsg(config.TKeyHelpTrip)
	accountCard := widget.NewCard(app.GetMsg(config.TKeyLblAccount), "", widget.NewForm(
		itemServer,
		itemTrip,
		widget.NewFormItem(app.GetMsg(config.TKeyLblUser), sw.userEntry),
		widget.NewFormItem(app.GetMsg(config.TKeyLblPass), sw.passEntry),
	))

	// --- General ---
	itemPort := widget.NewFormItem(app.GetMsg(config.TKeyLblPort), sw.portEntry)
	itemPort.HintText = app.GetMsg(config.TKeyHelpPort)
	generalCard := widget.NewCard(app.GetMsg(config.TKeyLblGeneral), "", widget.NewForm(
		widget.NewFormItem(app.GetMsg(config.TKeyLblLanguage), sw.langSelect),
		itemPort,
	))

	// --- Maps ---
	mapsCard := widget.NewCard(app.GetMsg(config.TKeyLblMaps), "", widget.NewForm(
		widget.NewFormItem(app.GetMsg(config.TKeyLblGeocoder), sw.geocoderEntry),
		widget.NewFormItem(app.GetMsg(config.TKeyLblRouter), sw.routerEntry),
	))

	// --- Actions ---
	btnSave := widget.NewButtonWithIcon(app.GetMsg(config.TKeyBtnSave), theme.DocumentSaveIcon(), func() {
		if err := sw.portEntry.Validate(); err != nil {
			dialog.ShowError(err, w)
			return
		}
		app.saveSettings(sw)
		w.Close()
		app.reloadAsync()
	})
	btnSave.Importance = widget.HighImportance
	btnCancel := widget.NewButtonWithIcon(app.GetMsg(config.TKeyBtnCancel), theme.CancelIcon(), func() { w.Close() })

	// --- Footer ---
	feedURL := server.NewItineraryFeed(sw.portEntry.Text).URL()
	footer := widget.NewLabel(fmt.Sprintf(app.GetMsg(config.TKeyLblFooter), config.Version) + "\n" +
		app.GetMsgData(config.TKeyLblFeed, map[string]any{"URL": feedURL}))
	footer.Alignment = fyne.TextAlignCenter
	footer.TextStyle = fyne.TextStyle{Italic: true}

	content := container.NewPadded(container.NewVBox(
		accountCard,
		generalCard,
		mapsCard,
		container.NewGridWithColumns(config.LayoutColumnsDouble, btnCancel, btnSave),
		footer,
	))

	w.SetContent(content)
	w.Resize(fyne.NewSize(config.SettingsWindowWidth, content.MinSize().Height))
	w.SetFixedSize(true)
	w.SetOnClosed(func() { app.settingsWindow = nil })
	w.Show()
}

// newSettingsWidgets creates the inputs pre-filled from preferences and the keyring.
func (app *TripApp) newSettingsWidgets() *settingsWidgets {
	sw := &settingsWidgets{
		serverEntry:   widget.NewEntry(),
		tripEntry:     widget.NewEntry(),
		userEntry:     widget.NewEntry(),
		passEntry:     widget.NewPasswordEntry(),
		langSelect:    widget.NewSelect(app.SupportedLanguages, nil),
		portEntry:     NewPortEntry(),
		geocoderEntry: widget.NewEntry(),
		routerEntry:   widget.NewEntry(),
	}

	sw.serverEntry.SetText(app.Preferences.StringWithFallback(config.PrefServerURL, config.DefaultServerURL))
	sw.tripEntry.SetText(app.Preferences.String(config.PrefTripID))
	sw.userEntry.SetText(app.Preferences.String(config.PrefUsername))
	if user := sw.userEntry.Text; user != "" {
		if pwd, err := keyring.Get(config.KeyringService, user); err == nil {
			sw.passEntry.SetText(pwd)
		}
	}
	sw.langSelect.SetSelected(app.Preferences.StringWithFallback(config.PrefLanguage, config.DefaultLanguage))
	sw.portEntry.SetText(app.Preferences.StringWithFallback(config.PrefServerPort, config.DefaultPort))
	sw.portEntry.Validator = app.validatePort
	sw.geocoderEntry.SetText(app.Preferences.StringWithFallback(config.PrefGeocoderURL, config.DefaultGeocoderURL))
	sw.routerEntry.SetText(app.Preferences.StringWithFallback(config.PrefRouterURL, config.DefaultRouterURL))
	return sw
}

// validatePort translates the feed's port check.
func (app *TripApp) validatePort(s string) error {
	err := server.ValidatePort(s)
	switch {
	case err == nil:
		return nil
	case s == "":
		return errors.New(app.GetMsg(config.TKeyErrPortReq))
	case strings.HasPrefix(err.Error(), config.ErrPortNumber):
		return errors.New(app.GetMsg(config.TKeyErrPortNum))
	default:
		return errors.New(app.GetMsg(config.TKeyErrPortRange))
	}
}

// saveSettings persists the inputs. A trip page URL typed as the trip id
// also sets the server. The port applies on the next start.
func (app *TripApp) saveSettings(sw *settingsWidgets) {
	slog.Info(config.MsgSettingsSaved, config.LogKeyComponent, config.CompUISet)

	app.setOrReset(config.PrefServerURL, sw.serverEntry.Text)
	trip := strings.TrimSpace(sw.tripEntry.Text)
	if strings.Contains(trip, config.RouteTripPrefix) {
		if err := app.ApplyTripURL(trip); err != nil {
			slog.Warn(config.ErrInvalidURL,
				config.LogKeyComponent, config.CompUISet,
				config.LogKeyError, err)
		}
	} else {
		app.Preferences.SetString(config.PrefTripID, trip)
	}

	user := strings.TrimSpace(sw.userEntry.Text)
	app.Preferences.SetString(config.PrefUsername, user)
	if user != "" && sw.passEntry.Text != "" {
		if err := keyring.Set(config.KeyringService, user, sw.passEntry.Text); err != nil {
			slog.Error(config.ErrCredentialsStore,
				config.LogKeyError, err,
				config.LogKeyComponent, config.CompUISet)
		}
	}

	if sw.langSelect.Selected != "" {
		app.Preferences.SetString(config.PrefLanguage, sw.langSelect.Selected)
	}
	if sw.portEntry.Text != "" {
		app.Preferences.SetString(config.PrefServerPort, sw.portEntry.Text)
	}
	app.setOrReset(config.PrefGeocoderURL, sw.geocoderEntry.Text)
	app.setOrReset(config.PrefRouterURL, sw.routerEntry.Text)

	app.UpdateLocalizer()
	app.retranslate()
}

// setOrReset stores a URL preference; an empty value restores the default.
func (app *TripApp) setOrReset(key, value string) {
	value = strings.TrimSpace(value)
	if value == "" {
		app.Preferences.RemoveValue(key)
		return
	}
	app.Preferences.SetString(key, value)
}
