package config

import (
	"io/fs"
	"time"
)

// -----------------------------------------------------------------------------
// Build Information
// -----------------------------------------------------------------------------

// Build variables are injected via -ldflags.
var (
	Version = "dev"
	Commit  = "none"
	Date    = "unknown"
)

// UserAgent identifies the HTTP client towards the trip server and the
// map providers (Nominatim requires an identifying agent).
var UserAgent = "HiVoyage/" + Version

// -----------------------------------------------------------------------------
// Application Constants
// -----------------------------------------------------------------------------

const (
	AppName           = "HiVoyage"
	AppID             = "com.github.tartampluch.hivoyage"
	KeyringService    = "com.github.tartampluch.hivoyage"
	LocalhostBindAddr = "127.0.0.1"
	LogFileName       = "app.log"
)

// -----------------------------------------------------------------------------
// Exit Codes
// -----------------------------------------------------------------------------

const (
	ExitCodeSuccess = 0
	ExitCodeError   = 1
	ExitCodeUsage   = 2
)

// -----------------------------------------------------------------------------
// System & File Permissions
// -----------------------------------------------------------------------------

const (
	// FilePermUserRW represents -rw------- (Read/Write for owner only).
	FilePermUserRW fs.FileMode = 0600

	// DirPermUserRWX represents drwx------ (Read/Write/Exec for owner only).
	DirPermUserRWX fs.FileMode = 0700
)

// -----------------------------------------------------------------------------
// CLI Flags & Descriptions
// -----------------------------------------------------------------------------

const (
	FlagVersion      = "version"
	FlagDebug        = "debug"
	FlagTrip         = "trip"
	FlagDescVersion  = "Show application version and exit"
	FlagDescDebug    = "Enable debug logging to stdout"
	FlagDescTrip     = "Trip page URL to open (e.g. https://host/user/trip/42)"
	MsgVersionOutput = "%s version %s (%s/%s)\n"
)

// -----------------------------------------------------------------------------
// UI Constants & Preferences
// -----------------------------------------------------------------------------

const (
	MainWindowWidth     = 900
	MainWindowHeight    = 700
	SettingsWindowWidth = 600

	// Preference Keys
	PrefServerURL   = "server_url"
	PrefTripID      = "trip_id"
	PrefUsername    = "username"
	PrefLanguage    = "language"
	PrefServerPort  = "server_port"
	PrefGeocoderURL = "geocoder_url"
	PrefRouterURL   = "router_url"
	PrefLastRun     = "last_run_version"
)

// SupportedLanguages defines the list of available UI languages (ISO 639-1).
var SupportedLanguages = []string{"en", "fr"}

// -----------------------------------------------------------------------------
// UI Layout Constants
// -----------------------------------------------------------------------------

const (
	LayoutColumnsDouble = 2
	CalendarColumns     = 7
	CalendarCellWidth   = 90
	CalendarCellHeight  = 44

	// Date layouts used by the views.
	DateFormatDayHeader   = "January 2"
	DateFormatDetail      = "Monday, January 2, 2006"
	DateFormatMonthHeader = "January 2006"

	SpinnerText = "…"
)

// -----------------------------------------------------------------------------
// Translation Keys (I18n)
// -----------------------------------------------------------------------------

const (
	TKeyWinTitle    = "win_title"
	TKeyWinSettings = "win_settings_title"
	TKeyTabItin     = "tab_itinerary"
	TKeyTabPacking  = "tab_packing"
	TKeyTabCalendar = "tab_calendar"
	TKeyTabMap      = "tab_map"

	// Itinerary
	TKeyItinProgress  = "itinerary_progress" // Requires Days, Stops
	TKeyBtnAddDay     = "btn_add_day"
	TKeyBtnAddStop    = "btn_add_stop"
	TKeyBtnImport     = "btn_import_places"
	TKeyBtnExport     = "btn_export_places"
	TKeyLblDay        = "lbl_day" // Requires Number
	TKeyPhStopName    = "ph_stop_name"
	TKeyPhStopAddress = "ph_stop_address"
	TKeyPhStopTime    = "ph_stop_time"
	TKeyConfirmDay    = "confirm_delete_day"  // Requires Number
	TKeyConfirmStop   = "confirm_delete_stop" // Requires Name
	TKeyConfirmTrip   = "confirm_delete_trip" // Requires Destination
	TKeyConfirmItem   = "confirm_delete_item" // Requires Name
	TKeyConfirmTitle  = "confirm_title"
	TKeyErrFields     = "err_fill_all_fields"
	TKeyBtnDeleteTrip = "btn_delete_trip"

	// Packing
	TKeyPackProgress = "packing_progress" // Requires Checked, Total
	TKeyBtnAddItem   = "btn_add_item"
	TKeyPhItemName   = "ph_item_name"
	TKeyErrItemEmpty = "err_item_empty"

	// Calendar
	TKeyBtnPrevMonth = "btn_prev_month"
	TKeyBtnNextMonth = "btn_next_month"
	TKeyCalNoEvents  = "cal_no_events"

	// Map
	TKeyMapDest     = "map_destination"
	TKeyMapNoRoute  = "map_no_route"
	TKeyMapBest     = "map_best" // Requires Mode
	TKeyBtnOpenMap  = "btn_open_map"
	TKeyBtnOverview = "btn_overview"
	TKeyMapNoTrips  = "map_no_trips"
	TKeyModeDrive   = "mode_drive"
	TKeyModeWalk    = "mode_walk"
	TKeyModeBike    = "mode_bike"
	TKeyModeTransit = "mode_transit"
	TKeyMapMarkers  = "map_markers"
	TKeyMapRoutes   = "map_routes"
	TKeyMapRoute    = "map_route_line" // Requires Mode, Duration, Distance, Speed, Cost
	TKeyMapCluster  = "map_cluster"    // Requires Count, Names

	// Settings
	TKeyLblServer   = "lbl_server_url"
	TKeyHelpServer  = "help_server_url"
	TKeyLblTrip     = "lbl_trip_id"
	TKeyHelpTrip    = "help_trip_id"
	TKeyLblUser     = "lbl_user"
	TKeyLblPass     = "lbl_pass"
	TKeyLblLanguage = "lbl_language"
	TKeyLblPort     = "lbl_server_port"
	TKeyHelpPort    = "help_port"
	TKeyLblGeocoder = "lbl_geocoder_url"
	TKeyLblRouter   = "lbl_router_url"
	TKeyLblAccount  = "lbl_account"
	TKeyLblGeneral  = "lbl_general"
	TKeyLblMaps     = "lbl_maps"
	TKeyBtnSave     = "btn_save"
	TKeyBtnCancel   = "btn_cancel"
	TKeyBtnSettings = "btn_settings"
	TKeyBtnReload   = "btn_reload"
	TKeyLblFooter   = "lbl_footer"

	// Status & Notifications
	TKeyStatusLoading = "status_loading"
	TKeyStatusReady   = "status_ready" // Requires Destination
	TKeyStatusNoTrip  = "status_no_trip"
	TKeyNotifLoadErr  = "notif_err_load"

	// Validation Errors (UI)
	TKeyErrPortReq   = "err_port_required"
	TKeyErrPortNum   = "err_port_number"
	TKeyErrPortRange = "err_port_range"
	TKeyErrTimeFmt   = "err_time_format"
	TKeyErrDuplicate = "err_duplicate_item"
	TKeyErrBusy      = "err_busy"
	TKeyLblFeed      = "lbl_feed" // Requires URL
)

// -----------------------------------------------------------------------------
// Default Values & Business Logic
// -----------------------------------------------------------------------------

const (
	DefaultPort        = "18081"
	DefaultLanguage    = "en"
	DefaultServerURL   = "http://localhost:8080"
	DefaultGeocoderURL = "https://nominatim.openstreetmap.org"
	DefaultRouterURL   = "https://router.project-osrm.org"

	// Progress fallbacks; the exact English wording is part of the contract.
	FormatItineraryProgress = "%d days, %d stops"
	FormatPackingProgress   = "%d/%d items packed"

	// Date inference.
	TripDateSeparator   = " - "
	MonthDaySeparator   = "/"
	PastTripWindowDays  = 180
	DaysPerInferredYear = 365

	// Sorting / Labels
	TimeLayout = "15:04"
)

// -----------------------------------------------------------------------------
// Trip Server Endpoints & Form Fields
// -----------------------------------------------------------------------------

const (
	RouteLogin      = "/login"
	RouteLogout     = "/logout"
	RouteTripPrefix = "/user/trip/"
	RouteSummary    = "/api/trips/summary"
	RouteUpdCoords  = "/api/trips/update-coordinates"

	// LoginErrorParam marks the redirect of a rejected form login.
	LoginErrorParam = "error"

	ActionSaveItinerary   = "saveItineraryAjax"
	ActionDeleteItinerary = "deleteItinerary"
	ActionDeleteDay       = "deleteDay"
	ActionSavePacking     = "savePackingItem"
	ActionUpdatePacking   = "updatePackingItem"
	ActionDeletePacking   = "deletePackingItem"
	ActionPackingStatus   = "updatePackingItemStatus"
	ActionDeleteTrip      = "delete"

	FieldDay         = "day"
	FieldTitle       = "title"
	FieldLocation    = "location"
	FieldDescription = "description"
	FieldName        = "name"
	FieldChecked     = "checked"
	FieldOldName     = "oldName"
	FieldUsername    = "username"
	FieldPassword    = "password"

	FormTrue  = "true"
	FormFalse = "false"
)

// -----------------------------------------------------------------------------
// Trip Page Markup
// -----------------------------------------------------------------------------

const (
	MetaCSRF       = "_csrf"
	MetaCSRFHeader = "_csrf_header"

	ClassTripInfo     = "trip-info"
	ClassTripHeader   = "trip-header"
	ClassDayContainer = "day-container"
	ClassStopItem     = "stop-item"
	ClassStopName     = "stop-name"
	ClassStopAddress  = "stop-address"
	ClassStopTime     = "stop-time"
	ClassPackingItem  = "packing-item"
	ClassItemName     = "item-name"

	AttrDataDay       = "data-day"
	AttrDataStartDate = "data-start-date"
	AttrDataEndDate   = "data-end-date"
	AttrChecked       = "checked"
	AttrClass         = "class"
	AttrName          = "name"
	AttrContent       = "content"
	AttrType          = "type"
	InputCheckbox     = "checkbox"

	DateFormatISO = "2006-01-02"
)

// -----------------------------------------------------------------------------
// Standards: iCalendar & vCard
// -----------------------------------------------------------------------------

const (
	// iCal Properties
	ICalVersion = "2.0"
	ICalProdid  = "-//HiVoyage//Itinerary//EN"
	ICalMethod  = "PUBLISH"
	ICalScale   = "GREGORIAN"
	ICalDomain  = "hivoyage"

	PropUID         = "UID"
	PropSummary     = "SUMMARY"
	PropLocation    = "LOCATION"
	PropDTStart     = "DTSTART"
	PropDTStamp     = "DTSTAMP"
	PropRefresh     = "REFRESH-INTERVAL"
	PropVersion     = "VERSION"
	PropProdid      = "PRODID"
	PropXWRCalName  = "X-WR-CALNAME"
	PropCalScale    = "CALSCALE"
	PropMethod      = "METHOD"

	DefaultICalRefresh = 1 * time.Hour
	FormatUID          = "%s@%s"
	FormatCalName      = "Trip to %s"

	// vCard (RFC 6350 KIND:location place cards)
	VCardTimeProp = "X-HIVOYAGE-TIME"
	VCardVersion4 = "4.0"

	// StubVCalendar is the minimal valid iCalendar object used when no stops are saved.
	StubVCalendar = "BEGIN:VCALENDAR\r\nVERSION:2.0\r\nPRODID:" + ICalProdid + "\r\nEND:VCALENDAR\r\n"

	ExtVCF   = ".vcf"
	ExtVCard = ".vcard"
)

// -----------------------------------------------------------------------------
// Maps: Geocoding, Routing, Overview
// -----------------------------------------------------------------------------

const (
	NominatimSearchPath = "/search"
	NominatimFormat     = "json"
	NominatimLimit      = "1"
	OSRMRoutePath       = "/route/v1/"
	OSRMOverview        = "false"
	OSRMCodeOK          = "Ok"

	ProfileDriving = "driving"
	ProfileWalking = "walking"
	ProfileCycling = "cycling"

	// Transit has no routing profile; it is estimated from the driving route.
	TransitDurationFactor = 1.5
	TransitWait           = 10 * time.Minute

	// Cost tariffs per kilometre, in the trip's currency units.
	CostPerKmDrive   = 0.20
	CostPerKmTransit = 0.10
	CostBaseTransit  = 2.50

	// Overview clustering radius in degrees and bounds padding ratio.
	ClusterRadiusDeg = 0.5
	BoundsPadRatio   = 0.1

	OSMViewURL = "https://www.openstreetmap.org/?minlat=%f&minlon=%f&maxlat=%f&maxlon=%f"
)

// -----------------------------------------------------------------------------
// Network & Timeouts
// -----------------------------------------------------------------------------

const (
	HTTPTimeout         = 30 * time.Second
	ShutdownTimeout     = 5 * time.Second
	ServerReadTimeout   = 10 * time.Second
	ServerWriteTimeout  = 30 * time.Second
	ServerIdleTimeout   = 60 * time.Second
	RetryAfterSeconds   = "10"
	AllowedMethods      = "GET, HEAD"
	MaxHTTPResponseSize = 16 * 1024 * 1024 // 16MB, trip pages are small
	MaxErrorBodySize    = 4 * 1024
	SchemeHTTP          = "http"
	SchemeHTTPS         = "https"
	RouteRoot           = "/"
	RouteFeed           = "/itinerary.ics"
	MinPort             = 1
	MaxPort             = 65535
)

// -----------------------------------------------------------------------------
// HTTP Headers & MIME Types
// -----------------------------------------------------------------------------

const (
	HeaderContentType     = "Content-Type"
	HeaderCacheControl    = "Cache-Control"
	HeaderETag            = "ETag"
	HeaderLastModified    = "Last-Modified"
	HeaderRetryAfter      = "Retry-After"
	HeaderAllow           = "Allow"
	HeaderXContentType    = "X-Content-Type-Options"
	HeaderUserAgent       = "User-Agent"
	HeaderAccept          = "Accept"
	HeaderIfNoneMatch     = "If-None-Match"
	HeaderIfModifiedSince = "If-Modified-Since"

	MimeTextCalendar    = "text/calendar; charset=utf-8"
	MimeForm            = "application/x-www-form-urlencoded"
	MimeJSON            = "application/json"
	MimeNoSniff         = "nosniff"
	CacheControlPrivate = "private, no-cache"

	// FormatETag expects a string argument.
	FormatETag = `"%s"`
)

// -----------------------------------------------------------------------------
// Error Messages (Technical/Logs)
// -----------------------------------------------------------------------------

const (
	ErrValidation       = "validation failed: name, address and time are required"
	ErrTimeFormat       = "validation failed: time must be HH:MM"
	ErrItemNameEmpty    = "validation failed: item name is empty"
	ErrDuplicateItem    = "packing item already exists"
	ErrBusy             = "a request for this entry is already in flight"
	ErrNotFound         = "entry not found"
	ErrStageDelete      = "failed to delete original itinerary item"
	ErrStageCreate      = "failed to save itinerary item"
	ErrRequestFailed    = "request failed"
	ErrServerStatus     = "server returned an error"
	ErrTripIDEmpty      = "trip id is empty"
	ErrBaseURLEmpty     = "server URL is empty"
	ErrLoginFailed      = "login failed"
	ErrPageParse        = "failed to parse trip page"
	ErrTripDates        = "unable to parse trip dates"
	ErrSummaryDecode    = "failed to decode trip summaries"
	ErrServerStartup    = "server startup failed"
	ErrServerShutdown   = "server shutdown failed"
	ErrPortRequired     = "server port is required"
	ErrPortNumber       = "server port must be a number"
	ErrPortRange        = "server port must be between 1 and 65535"
	ErrInvalidURL       = "invalid URL structure"
	ErrProtocol         = "unsupported protocol scheme (http/https only)"
	ErrICalEncode       = "failed to encode iCalendar data"
	ErrVCardEncode      = "failed to encode vCard data"
	ErrGeocode          = "geocoding failed"
	ErrNoGeocodeResult  = "no geocoding result"
	ErrRoute            = "routing failed"
	ErrModeUnsupported  = "travel mode not supported by router"
	ErrTooFewWaypoints  = "at least two waypoints are required"
	ErrLogFile          = "failed to open log file"
	ErrCacheDir         = "could not determine user cache dir"
	ErrCreateDir        = "could not create app cache dir"
	ErrAppFailed        = "application failed unexpectedly"
	ErrWriteResp        = "failed to write response body"
	ErrExtraArgs        = "unexpected arguments"
	ErrLocalesAccess    = "failed to access embedded locales"
	ErrLocaleLoad       = "failed to load locale file"
	ErrCookieJar        = "failed to create cookie jar"
	ErrEditorNotReady   = "no trip loaded"
	ErrCredentialsStore = "failed to save credentials to keyring"
)

// -----------------------------------------------------------------------------
// HTTP Server Responses
// -----------------------------------------------------------------------------

const (
	HTTPMsgInitializing = "Itinerary loading, please try again shortly."
	HTTPMsgMethodNotAll = "Method Not Allowed"
)

// -----------------------------------------------------------------------------
// Fallbacks & Messages
// -----------------------------------------------------------------------------

const (
	FallbackDayLabel = "Day %d"

	TitleStartupError = "Startup Error"
	TitleLoadError    = "Load Error"

	MsgPortBusy        = "Port %s is busy or unavailable."
	MsgAppStop         = "Application stopped gracefully"
	MsgAppStarting     = "Starting application"
	MsgCtxCancel       = "Context cancelled, shutting down UI"
	MsgServerListen    = "HTTP server listening"
	MsgServerStop      = "Shutting down HTTP server..."
	MsgCacheUpdated    = "Calendar cache updated"
	MsgLocaleBadName   = "Skipping malformed locale filename"
	MsgLocaleLoaded    = "Locale loaded successfully"
	MsgTransMissing    = "Missing translation key"
	MsgPassFail        = "Password retrieval failed (might be empty)"
	MsgLogWarning      = "Warning: %s at %s: %v\n"
	MsgTripLoading     = "Loading trip"
	MsgTripLoaded      = "Trip loaded"
	MsgLoggedIn        = "Logged in"
	MsgLoggedOut       = "Logged out"
	MsgLogoutFailed    = "Logout failed"
	MsgRequest         = "Sending request"
	MsgRequestFailed   = "Request failed"
	MsgNoCSRF          = "No CSRF token found, proceeding without it"
	MsgDayAdded        = "Day added"
	MsgDayDeleted      = "Day deleted"
	MsgStopSaved       = "Stop saved"
	MsgStopRemoved     = "Stop removed"
	MsgStopOrphaned    = "Original stop deleted but new version not saved; retry will re-create it"
	MsgPackingSaved    = "Packing item saved"
	MsgPackingDeleted  = "Packing item deleted"
	MsgPackingReverted = "Packing status reverted"
	MsgTripDeleted     = "Trip deleted"
	MsgSkippedStop     = "Skipping malformed stop element"
	MsgDatesInferred   = "Trip dates inferred"
	MsgGeocodeSkipped  = "Geocoding failed, marker skipped"
	MsgRouteSkipped    = "Routing failed, mode skipped"
	MsgCoordsFailed    = "Failed to update coordinates"
	MsgInvalidCoords   = "Invalid coordinates for trip"
	MsgMapFocused      = "Map focused"
	MsgMapStale        = "Map focus overtaken by a newer request"
	MsgICSGenerated    = "Itinerary calendar generated"
	MsgPlacesImported  = "Places imported"
	MsgSkippedCard     = "Skipping malformed vCard"
	MsgSettingsSaved   = "Saving preferences"
	MsgOpenSettings    = "Opening settings window"
	MsgSettingsFocus   = "Settings window already open, requesting focus"
	MsgTripFromFlag    = "Trip selected from the command line"
	MsgPortFallback    = "Stored feed port is invalid, using the default"
)

// -----------------------------------------------------------------------------
// Structured Logging Keys (slog)
// -----------------------------------------------------------------------------

const (
	LogKeyComponent = "component"
	LogKeyError     = "error"
	LogKeyURL       = "url"
	LogKeyStatus    = "status_code"
	LogKeyFile      = "file"
	LogKeyLang      = "lang"
	LogKeyKey       = "key"
	LogKeyPort      = "port"
	LogKeyUser      = "user"
	LogKeyTrip      = "trip_id"
	LogKeyAction    = "action"
	LogKeyDay       = "day"
	LogKeyStop      = "stop_id"
	LogKeyName      = "name"
	LogKeyChecked   = "checked"
	LogKeyStage     = "stage"
	LogKeyQuery     = "query"
	LogKeyMode      = "mode"
	LogKeyStart     = "start"
	LogKeyEnd       = "end"
	LogKeyCount     = "count"
	LogKeyDays      = "days"
	LogKeyStops     = "stops"
	LogKeyItems     = "items"
	LogKeyMarkers   = "markers"
	LogKeySizeBytes = "size_bytes"
	LogKeyETag      = "etag"
	LogKeyDuration  = "duration_ms"

	// Startup Info Keys
	LogKeyBuild   = "build"
	LogKeyApp     = "app"
	LogKeyVersion = "version"
	LogKeyCommit  = "commit"
	LogKeyDate    = "date"
	LogKeyGoVer   = "go_version"
	LogKeyEnv     = "env"
	LogKeyOS      = "os"
	LogKeyArch    = "arch"
	LogKeyPID     = "pid"
)

// -----------------------------------------------------------------------------
// Log Components
// -----------------------------------------------------------------------------

const (
	CompUI       = "ui"
	CompUISet    = "ui_settings"
	CompEngine   = "engine"
	CompEditor   = "editor"
	CompClient   = "client"
	CompParser   = "parser"
	CompCalendar = "calendar"
	CompServer   = "server"
	CompMap      = "map"
	CompMain     = "main"
	CompI18n     = "i18n"
)
