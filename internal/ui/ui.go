package ui

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"sync"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/theme"
	"fyne.io/fyne/v2/widget"
	"github.com/nicksnyder/go-i18n/v2/i18n"
	"github.com/tartampluch/hivoyage/internal/config"
	"github.com/tartampluch/hivoyage/internal/engine"
	"github.com/tartampluch/hivoyage/internal/mapping"
	"github.com/tartampluch/hivoyage/internal/server"
	"github.com/zalando/go-keyring"
)

// TripService is everything the window needs from the trip server.
type TripService interface {
	engine.TripAPI
	mapping.SummarySource
	LoadTrip(ctx context.Context, tripID string) (*engine.Trip, error)
	Logout(ctx context.Context) error
}

// TripApp encapsulates the UI state, preferences and the open trip.
type TripApp struct {
	App         fyne.App
	Window      fyne.Window
	Preferences fyne.Preferences
	I18nBundle  *i18n.Bundle
	Localizer   *i18n.Localizer
	Ctx         context.Context

	Server *server.ItineraryFeed
	Clock  engine.Clock

	// Connect opens an authenticated session with the trip server.
	Connect func(ctx context.Context) (TripService, error)

	// NewMapSession creates the map session of a freshly loaded trip.
	NewMapSession func() *mapping.Session

	SupportedLanguages []string

	mu      sync.RWMutex
	service TripService
	editor  *engine.Editor
	mapView *mapping.Session

	settingsWindow fyne.Window
	views          *tripViews
}

// NewTripApp constructs the application and wires dependencies.
func NewTripApp(a fyne.App, ctx context.Context, srv *server.ItineraryFeed) *TripApp {
	a.SetIcon(theme.HomeIcon())

	app := &TripApp{
		App:                a,
		Preferences:        a.Preferences(),
		Ctx:                ctx,
		Server:             srv,
		Clock:              engine.RealClock{},
		SupportedLanguages: config.SupportedLanguages,
	}
	app.Connect = app.connectHTTP
	app.NewMapSession = app.newMapSession
	return app
}

// Run starts the itinerary feed, opens the trip window and blocks in the UI loop.
func (app *TripApp) Run() {
	app.SetupI18n()

	go func() {
		if err := app.Server.Start(app.Ctx); err != nil {
			slog.Error(config.ErrServerStartup,
				config.LogKeyError, err,
				config.LogKeyComponent, config.CompUI)

			app.App.SendNotification(fyne.NewNotification(
				config.TitleStartupError,
				fmt.Sprintf(config.MsgPortBusy, app.Server.Port)))
		}
	}()

	app.Window = app.App.NewWindow(app.GetMsg(config.TKeyWinTitle))
	app.Window.SetContent(app.buildContent())
	app.Window.Resize(fyne.NewSize(config.MainWindowWidth, config.MainWindowHeight))
	app.Window.SetMaster()
	app.Window.SetOnClosed(app.endSession)

	app.reloadAsync()
	app.Window.ShowAndRun()
}

// ApplyTripURL stores the server and trip of a trip page URL, for example
// one passed on the command line.
func (app *TripApp) ApplyTripURL(raw string) error {
	id, err := engine.TripIDFromURL(raw)
	if err != nil {
		return err
	}
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return fmt.Errorf("%s: %q", config.ErrInvalidURL, raw)
	}
	app.Preferences.SetString(config.PrefServerURL, u.Scheme+"://"+u.Host)
	app.Preferences.SetString(config.PrefTripID, id)
	return nil
}

// -----------------------------------------------------------------------------
// Session & Loading
// -----------------------------------------------------------------------------

// connectHTTP logs into the configured server. Without a stored username
// the session stays anonymous.
func (app *TripApp) connectHTTP(ctx context.Context) (TripService, error) {
	client, err := engine.NewHTTPClient(app.Preferences.StringWithFallback(config.PrefServerURL, config.DefaultServerURL))
	if err != nil {
		return nil, err
	}
	client.Clock = app.Clock

	user := app.Preferences.String(config.PrefUsername)
	if user == "" {
		return client, nil
	}
	pass, err := keyring.Get(config.KeyringService, user)
	if err != nil {
		slog.Debug(config.MsgPassFail,
			config.LogKeyUser, user,
			config.LogKeyError, err,
			config.LogKeyComponent, config.CompUI)
	}
	if err := client.Login(ctx, user, pass); err != nil {
		return nil, err
	}
	return client, nil
}

func (app *TripApp) newMapSession() *mapping.Session {
	return mapping.NewSession(
		mapping.NewNominatimGeocoder(app.Preferences.StringWithFallback(config.PrefGeocoderURL, config.DefaultGeocoderURL)),
		mapping.NewOSRMRouter(app.Preferences.StringWithFallback(config.PrefRouterURL, config.DefaultRouterURL)),
	)
}

// LoadTrip connects, downloads the configured trip and publishes its itinerary.
func (app *TripApp) LoadTrip() error {
	tripID := app.Preferences.String(config.PrefTripID)
	if tripID == "" {
		return errors.New(config.ErrTripIDEmpty)
	}
	slog.Info(config.MsgTripLoading,
		config.LogKeyComponent, config.CompUI,
		config.LogKeyTrip, tripID)

	svc, err := app.Connect(app.Ctx)
	if err != nil {
		return err
	}
	trip, err := svc.LoadTrip(app.Ctx, tripID)
	if err != nil {
		return err
	}

	ed := engine.NewEditor(svc, trip)
	app.mu.Lock()
	prev := app.service
	app.service = svc
	app.editor = ed
	app.mapView = app.NewMapSession()
	app.mu.Unlock()
	if prev != nil && prev != svc {
		app.logout(prev)
	}

	days, stops := engine.ItineraryCounts(trip.Itinerary)
	slog.Info(config.MsgTripLoaded,
		config.LogKeyComponent, config.CompUI,
		config.LogKeyTrip, tripID,
		config.LogKeyDays, days,
		config.LogKeyStops, stops,
		config.LogKeyItems, len(trip.Packing))

	app.publishFeed()
	return nil
}

// endSession logs out of the trip server when the window closes.
func (app *TripApp) endSession() {
	app.mu.Lock()
	svc := app.service
	app.service = nil
	app.mu.Unlock()
	if svc != nil {
		app.logout(svc)
	}
}

// logout ends a server session that is no longer used. It still runs
// while the application context is being cancelled.
func (app *TripApp) logout(svc TripService) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(app.Ctx), config.ShutdownTimeout)
	defer cancel()
	if err := svc.Logout(ctx); err != nil {
		slog.Warn(config.MsgLogoutFailed,
			config.LogKeyComponent, config.CompUI,
			config.LogKeyError, err)
	}
}

// reloadAsync loads the trip off the UI goroutine and focuses the map on
// the destination once it is known.
func (app *TripApp) reloadAsync() {
	app.setStatus(app.GetMsg(config.TKeyStatusLoading))
	go func() {
		err := app.LoadTrip()
		fyne.Do(func() {
			if err != nil {
				slog.Error(config.TitleLoadError,
					config.LogKeyError, err,
					config.LogKeyComponent, config.CompUI)
				app.setStatus(app.GetMsg(config.TKeyStatusNoTrip))
				app.App.SendNotification(fyne.NewNotification(config.TitleLoadError, app.GetMsg(config.TKeyNotifLoadErr)))
				return
			}
			app.refreshViews()
		})
		if err == nil {
			app.focusMapAsync(0)
		}
	}()
}

// currentEditor returns the editor of the open trip.
func (app *TripApp) currentEditor() (*engine.Editor, error) {
	app.mu.RLock()
	defer app.mu.RUnlock()
	if app.editor == nil {
		return nil, errors.New(config.ErrEditorNotReady)
	}
	return app.editor, nil
}

// snapshot returns a copy of the open trip, or nil.
func (app *TripApp) snapshot() *engine.Trip {
	ed, err := app.currentEditor()
	if err != nil {
		return nil
	}
	return ed.Snapshot()
}

// publishFeed re-renders the itinerary feed from the current model.
func (app *TripApp) publishFeed() {
	trip := app.snapshot()
	if trip == nil || app.Server == nil {
		return
	}
	if err := app.Server.Publish(trip); err != nil {
		slog.Error(config.ErrICalEncode,
			config.LogKeyComponent, config.CompUI,
			config.LogKeyError, err)
	}
}

// -----------------------------------------------------------------------------
// Async plumbing
// -----------------------------------------------------------------------------

// runAsync performs a blocking action off the UI goroutine, then re-renders
// the views and reports a failure.
func (app *TripApp) runAsync(action func() error) {
	go func() {
		err := action()
		fyne.Do(func() {
			app.refreshViews()
			if err != nil {
				app.showError(err)
			}
		})
	}()
}

// showError surfaces an error in the trip window.
func (app *TripApp) showError(err error) {
	slog.Warn(config.MsgRequestFailed,
		config.LogKeyComponent, config.CompUI,
		config.LogKeyError, err)
	if app.Window != nil {
		dialog.ShowError(errors.New(app.describeError(err)), app.Window)
	}
}

// describeError maps the editor's errors to translated messages.
func (app *TripApp) describeError(err error) string {
	switch {
	case errors.Is(err, engine.ErrInvalidTime):
		return app.GetMsg(config.TKeyErrTimeFmt)
	case errors.Is(err, engine.ErrEmptyItemName):
		return app.GetMsg(config.TKeyErrItemEmpty)
	case errors.Is(err, engine.ErrValidation):
		return app.GetMsg(config.TKeyErrFields)
	case errors.Is(err, engine.ErrDuplicateItem):
		return app.GetMsg(config.TKeyErrDuplicate)
	case errors.Is(err, engine.ErrBusy):
		return app.GetMsg(config.TKeyErrBusy)
	}
	var apiErr *engine.APIError
	if errors.As(err, &apiErr) && apiErr.Body != "" {
		return apiErr.Body
	}
	return err.Error()
}

// -----------------------------------------------------------------------------
// Window
// -----------------------------------------------------------------------------

// tripViews holds the widgets re-rendered from the model.
type tripViews struct {
	status *widget.Label
	tabs   *container.AppTabs

	itinProgress *widget.Label
	days         *fyne.Container

	packProgress *widget.Label
	packing      *fyne.Container
	addItem      *widget.Button

	calendar *calendarView
	mapPanel *mapView
}

// buildContent assembles the trip window.
func (app *TripApp) buildContent() fyne.CanvasObject {
	v := &tripViews{
		status:       widget.NewLabel(app.GetMsg(config.TKeyStatusLoading)),
		itinProgress: widget.NewLabel(""),
		days:         container.NewVBox(),
		packProgress: widget.NewLabel(""),
		packing:      container.NewVBox(),
	}
	v.status.TextStyle = fyne.TextStyle{Bold: true}
	app.views = v

	v.tabs = container.NewAppTabs(
		container.NewTabItemWithIcon(app.GetMsg(config.TKeyTabItin), theme.ListIcon(), app.buildItineraryTab()),
		container.NewTabItemWithIcon(app.GetMsg(config.TKeyTabPacking), theme.CheckButtonCheckedIcon(), app.buildPackingTab()),
		container.NewTabItemWithIcon(app.GetMsg(config.TKeyTabCalendar), theme.HistoryIcon(), app.buildCalendarTab()),
		container.NewTabItemWithIcon(app.GetMsg(config.TKeyTabMap), theme.NavigateNextIcon(), app.buildMapTab()),
	)

	btnReload := widget.NewButtonWithIcon(app.GetMsg(config.TKeyBtnReload), theme.ViewRefreshIcon(), app.reloadAsync)
	btnSettings := widget.NewButtonWithIcon(app.GetMsg(config.TKeyBtnSettings), theme.SettingsIcon(), app.ShowSettingsWindow)
	btnDelete := widget.NewButtonWithIcon(app.GetMsg(config.TKeyBtnDeleteTrip), theme.DeleteIcon(), app.confirmDeleteTrip)
	btnDelete.Importance = widget.DangerImportance

	header := container.NewBorder(nil, nil, nil, container.NewHBox(btnReload, btnSettings, btnDelete), v.status)
	return container.NewBorder(header, nil, nil, nil, v.tabs)
}

// retranslate rebuilds the trip window in the current language, keeping
// the selected tab.
func (app *TripApp) retranslate() {
	if app.Window == nil {
		return
	}
	selected := 0
	if app.views != nil {
		selected = app.views.tabs.SelectedIndex()
	}
	app.Window.SetTitle(app.GetMsg(config.TKeyWinTitle))
	app.Window.SetContent(app.buildContent())
	app.views.tabs.SelectIndex(selected)
	app.refreshViews()
}

// setStatus updates the header line.
func (app *TripApp) setStatus(text string) {
	if app.views != nil {
		app.views.status.SetText(text)
	}
}

// refreshViews re-renders every tab from a fresh snapshot. UI goroutine only.
func (app *TripApp) refreshViews() {
	if app.views == nil {
		return
	}
	ed, err := app.currentEditor()
	if err != nil {
		empty := &engine.Trip{}
		app.renderItinerary(empty, 0)
		app.renderPacking(empty)
		app.renderCalendar(empty)
		app.renderMap()
		return
	}
	trip := ed.Snapshot()

	app.setStatus(app.GetMsgData(config.TKeyStatusReady, map[string]any{"Destination": trip.Destination}))
	app.renderItinerary(trip, ed.Expanded())
	app.renderPacking(trip)
	app.renderCalendar(trip)
	app.renderMap()
}

// -----------------------------------------------------------------------------
// Trip
// -----------------------------------------------------------------------------

func (app *TripApp) confirmDeleteTrip() {
	trip := app.snapshot()
	if trip == nil || app.Window == nil {
		return
	}
	msg := app.GetMsgData(config.TKeyConfirmTrip, map[string]any{"Destination": trip.Destination})
	dialog.ShowConfirm(app.GetMsg(config.TKeyConfirmTitle), msg, func(ok bool) {
		if !ok {
			return
		}
		go func() {
			err := app.deleteTrip()
			fyne.Do(func() {
				if err != nil {
					app.showError(err)
					return
				}
				app.refreshViews()
				app.setStatus(app.GetMsg(config.TKeyStatusNoTrip))
			})
		}()
	}, app.Window)
}

// deleteTrip deletes the open trip and forgets it. The feed then serves
// an empty calendar and the map drops the trip's markers.
func (app *TripApp) deleteTrip() error {
	ed, err := app.currentEditor()
	if err != nil {
		return err
	}
	if err := ed.DeleteTrip(app.Ctx); err != nil {
		return err
	}
	app.mu.Lock()
	app.editor = nil
	app.mapView = nil
	app.mu.Unlock()
	app.Preferences.SetString(config.PrefTripID, "")

	if app.Server != nil {
		if err := app.Server.Publish(&engine.Trip{}); err != nil {
			slog.Error(config.ErrICalEncode,
				config.LogKeyComponent, config.CompUI,
				config.LogKeyError, err)
		}
	}
	return nil
}
