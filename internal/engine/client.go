package engine

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/tartampluch/hivoyage/internal/config"
)

// TripAPI defines the mutating endpoints of the trip server.
// Day indexes are 0-based. Stops and packing items are addressed by value,
// the server has no ids for them.
type TripAPI interface {
	SaveStop(ctx context.Context, tripID string, day int, f StopFields) error
	DeleteStop(ctx context.Context, tripID string, day int, f StopFields) error
	DeleteDay(ctx context.Context, tripID string, day int) error
	SavePackingItem(ctx context.Context, tripID, name string, checked bool) error
	UpdatePackingItem(ctx context.Context, tripID, name string, checked bool, oldName string) error
	DeletePackingItem(ctx context.Context, tripID, name string) error
	UpdatePackingItemStatus(ctx context.Context, tripID, name string, checked bool) error
	DeleteTrip(ctx context.Context, tripID string) error
}

// HTTPClient implements TripAPI against the trip server over a cookie session.
type HTTPClient struct {
	Client *http.Client
	Clock  Clock

	base *url.URL

	mu   sync.RWMutex
	csrf CSRFToken
}

// NewHTTPClient creates a client for the server at baseURL with configured
// timeouts and an in-memory cookie jar holding the login session.
func NewHTTPClient(baseURL string) (*HTTPClient, error) {
	if strings.TrimSpace(baseURL) == "" {
		return nil, errors.New(config.ErrBaseURLEmpty)
	}
	u, err := url.Parse(strings.TrimRight(strings.TrimSpace(baseURL), "/"))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", config.ErrInvalidURL, err)
	}
	// Security check: ensure strictly HTTP or HTTPS.
	if u.Scheme != config.SchemeHTTP && u.Scheme != config.SchemeHTTPS {
		return nil, fmt.Errorf("%s: %s", config.ErrProtocol, u.Scheme)
	}

	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", config.ErrCookieJar, err)
	}

	return &HTTPClient{
		Client: &http.Client{
			Timeout: config.HTTPTimeout,
			Jar:     jar,
		},
		Clock: RealClock{},
		base:  u,
	}, nil
}

// SetCSRF replaces the token attached to mutating calls.
func (c *HTTPClient) SetCSRF(tok CSRFToken) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.csrf = tok
}

// TripURL returns the absolute URL of a trip page.
func (c *HTTPClient) TripURL(tripID string) string {
	return c.base.String() + config.RouteTripPrefix + url.PathEscape(tripID)
}

// -----------------------------------------------------------------------------
// Session
// -----------------------------------------------------------------------------

// Login posts the form login. The server answers a failed attempt with a
// redirect back to the login page carrying an "error" query parameter.
func (c *HTTPClient) Login(ctx context.Context, user, pass string) error {
	form := url.Values{}
	form.Set(config.FieldUsername, user)
	form.Set(config.FieldPassword, pass)

	resp, err := c.do(ctx, http.MethodPost, config.RouteLogin, form, config.MimeForm)
	if err != nil {
		return fmt.Errorf("%s: %w", config.ErrLoginFailed, err)
	}
	defer func() { _ = resp.Body.Close() }()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, config.MaxHTTPResponseSize))

	if final := resp.Request.URL; final != nil && final.Path == config.RouteLogin && final.Query().Has(config.LoginErrorParam) {
		return errors.New(config.ErrLoginFailed)
	}

	slog.Info(config.MsgLoggedIn,
		slog.String(config.LogKeyComponent, config.CompClient),
		slog.String(config.LogKeyUser, user))
	return nil
}

// Logout ends the server session. The server clears the session cookie.
func (c *HTTPClient) Logout(ctx context.Context) error {
	if err := c.post(ctx, config.RouteLogout, nil); err != nil {
		return err
	}
	slog.Debug(config.MsgLoggedOut, slog.String(config.LogKeyComponent, config.CompClient))
	return nil
}

// -----------------------------------------------------------------------------
// Reads
// -----------------------------------------------------------------------------

// LoadTrip downloads and parses the trip page. The page's CSRF token is
// remembered for the following mutating calls.
func (c *HTTPClient) LoadTrip(ctx context.Context, tripID string) (*Trip, error) {
	if tripID == "" {
		return nil, errors.New(config.ErrTripIDEmpty)
	}
	resp, err := c.do(ctx, http.MethodGet, config.RouteTripPrefix+url.PathEscape(tripID), nil, "")
	if err != nil {
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()

	trip, err := ParseTripPage(io.LimitReader(resp.Body, config.MaxHTTPResponseSize), tripID, c.Clock.Now())
	if err != nil {
		return nil, err
	}
	if !trip.CSRF.Present() {
		slog.Debug(config.MsgNoCSRF,
			slog.String(config.LogKeyComponent, config.CompClient),
			slog.String(config.LogKeyTrip, tripID))
	}
	c.SetCSRF(trip.CSRF)
	return trip, nil
}

// TripSummaries returns the overview feed of every trip of the user.
func (c *HTTPClient) TripSummaries(ctx context.Context) ([]TripSummary, error) {
	resp, err := c.do(ctx, http.MethodGet, config.RouteSummary, nil, "")
	if err != nil {
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()

	var out []TripSummary
	if err := json.NewDecoder(io.LimitReader(resp.Body, config.MaxHTTPResponseSize)).Decode(&out); err != nil {
		return nil, fmt.Errorf("%s: %w", config.ErrSummaryDecode, err)
	}
	return out, nil
}

// UpdateCoordinates asks the server to geocode trips lacking coordinates.
func (c *HTTPClient) UpdateCoordinates(ctx context.Context) error {
	resp, err := c.do(ctx, http.MethodGet, config.RouteUpdCoords, nil, "")
	if err != nil {
		return err
	}
	_ = resp.Body.Close()
	return nil
}

// -----------------------------------------------------------------------------
// TripAPI
// -----------------------------------------------------------------------------

// SaveStop creates the (day, title, location, description) tuple.
func (c *HTTPClient) SaveStop(ctx context.Context, tripID string, day int, f StopFields) error {
	return c.postAction(ctx, tripID, config.ActionSaveItinerary, stopForm(day, f))
}

// DeleteStop removes the (day, title, location, description) tuple.
func (c *HTTPClient) DeleteStop(ctx context.Context, tripID string, day int, f StopFields) error {
	return c.postAction(ctx, tripID, config.ActionDeleteItinerary, stopForm(day, f))
}

// DeleteDay removes the day at the 0-based index.
func (c *HTTPClient) DeleteDay(ctx context.Context, tripID string, day int) error {
	form := url.Values{}
	form.Set(config.FieldDay, strconv.Itoa(day))
	return c.postAction(ctx, tripID, config.ActionDeleteDay, form)
}

func (c *HTTPClient) SavePackingItem(ctx context.Context, tripID, name string, checked bool) error {
	form := url.Values{}
	form.Set(config.FieldName, name)
	form.Set(config.FieldChecked, formBool(checked))
	return c.postAction(ctx, tripID, config.ActionSavePacking, form)
}

func (c *HTTPClient) UpdatePackingItem(ctx context.Context, tripID, name string, checked bool, oldName string) error {
	form := url.Values{}
	form.Set(config.FieldName, name)
	form.Set(config.FieldChecked, formBool(checked))
	form.Set(config.FieldOldName, oldName)
	return c.postAction(ctx, tripID, config.ActionUpdatePacking, form)
}

func (c *HTTPClient) DeletePackingItem(ctx context.Context, tripID, name string) error {
	form := url.Values{}
	form.Set(config.FieldName, name)
	return c.postAction(ctx, tripID, config.ActionDeletePacking, form)
}

func (c *HTTPClient) UpdatePackingItemStatus(ctx context.Context, tripID, name string, checked bool) error {
	form := url.Values{}
	form.Set(config.FieldName, name)
	form.Set(config.FieldChecked, formBool(checked))
	return c.postAction(ctx, tripID, config.ActionPackingStatus, form)
}

// DeleteTrip posts the whole-trip delete. It carries no body.
func (c *HTTPClient) DeleteTrip(ctx context.Context, tripID string) error {
	return c.postAction(ctx, tripID, config.ActionDeleteTrip, nil)
}

// -----------------------------------------------------------------------------
// Transport
// -----------------------------------------------------------------------------

func stopForm(day int, f StopFields) url.Values {
	form := url.Values{}
	form.Set(config.FieldDay, strconv.Itoa(day))
	form.Set(config.FieldTitle, f.Name)
	form.Set(config.FieldLocation, f.Address)
	form.Set(config.FieldDescription, f.Time)
	return form
}

func formBool(b bool) string {
	if b {
		return config.FormTrue
	}
	return config.FormFalse
}

func (c *HTTPClient) postAction(ctx context.Context, tripID, action string, form url.Values) error {
	if tripID == "" {
		return errors.New(config.ErrTripIDEmpty)
	}
	return c.post(ctx, config.RouteTripPrefix+url.PathEscape(tripID)+"/"+action, form)
}

func (c *HTTPClient) post(ctx context.Context, route string, form url.Values) error {
	mime := ""
	if form != nil {
		mime = config.MimeForm
	}
	resp, err := c.do(ctx, http.MethodPost, route, form, mime)
	if err != nil {
		return err
	}
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, config.MaxHTTPResponseSize))
	_ = resp.Body.Close()
	return nil
}

// do sends one request and converts non-2xx answers into *APIError.
// The caller owns the body of a successful response.
func (c *HTTPClient) do(ctx context.Context, method, route string, form url.Values, mime string) (*http.Response, error) {
	target := c.base.String() + route

	// Query parameters are never logged, only the path.
	log := slog.With(
		slog.String(config.LogKeyComponent, config.CompClient),
		slog.String(config.LogKeyURL, c.base.Scheme+"://"+c.base.Host+route),
	)

	var body io.Reader
	if form != nil {
		body = bytes.NewBufferString(form.Encode())
	}
	req, err := http.NewRequestWithContext(ctx, method, target, body)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", config.ErrRequestFailed, err)
	}
	req.Header.Set(config.HeaderUserAgent, config.UserAgent)
	if mime != "" {
		req.Header.Set(config.HeaderContentType, mime)
	}
	if method != http.MethodGet {
		c.mu.RLock()
		tok := c.csrf
		c.mu.RUnlock()
		if tok.Present() {
			req.Header.Set(tok.Header, tok.Token)
		}
	}

	start := time.Now()
	log.Debug(config.MsgRequest, slog.String(config.LogKeyAction, method))

	resp, err := c.Client.Do(req)
	if err != nil {
		log.Warn(config.MsgRequestFailed, slog.Any(config.LogKeyError, err))
		return nil, fmt.Errorf("%s: %w", config.ErrRequestFailed, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, config.MaxErrorBodySize))
		_ = resp.Body.Close()
		log.Warn(config.MsgRequestFailed, slog.Int(config.LogKeyStatus, resp.StatusCode))
		return nil, &APIError{Status: resp.StatusCode, Body: strings.TrimSpace(string(msg))}
	}

	log.Debug(config.MsgRequest,
		slog.Int(config.LogKeyStatus, resp.StatusCode),
		slog.Int64(config.LogKeyDuration, time.Since(start).Milliseconds()))
	return resp, nil
}
